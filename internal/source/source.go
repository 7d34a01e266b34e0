package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/icspmerge/internal/manifest"
)

// Kind distinguishes file sources from live cluster queries.
type Kind int

const (
	// File reads every YAML document of a local file.
	File Kind = iota
	// LiveQuery lists the resources of a type on the cluster.
	LiveQuery
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case LiveQuery:
		return "live"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Source is one input of a load.
type Source struct {
	Kind Kind
	// Path is the file to read for File sources.
	Path string
	// ResourceType is the resource type to list for LiveQuery sources.
	ResourceType string
}

// FromFile returns a file source.
func FromFile(path string) Source {
	return Source{Kind: File, Path: path}
}

// FromCluster returns a live query source.
func FromCluster(resourceType string) Source {
	return Source{Kind: LiveQuery, ResourceType: resourceType}
}

// Lister lists live resources of a type as a YAML document stream.
type Lister interface {
	List(ctx context.Context, resourceType string) ([]byte, error)
}

// Result is the outcome of a load.
type Result struct {
	// Manifests holds every well-formed manifest in source order.
	Manifests []manifest.Manifest
	// LiveDocuments holds every document returned by live queries,
	// well-formed or not, for backup.
	LiveDocuments []manifest.Document
	// LiveManifests holds the well-formed subset of LiveDocuments.
	LiveManifests []manifest.Manifest
	// Skipped holds one ErrMalformedManifest error per skipped document.
	Skipped []error
}

// Loader reads manifests from sources.
type Loader struct {
	lister   Lister
	kind     string
	log      logr.Logger
	readFile func(string) ([]byte, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithKind restricts loading to documents of the given kind. Documents of
// any other kind are skipped as malformed. An empty kind accepts all.
func WithKind(kind string) Option {
	return func(l *Loader) {
		l.kind = kind
	}
}

// WithLogger sets the logger used for progress and skip warnings.
func WithLogger(log logr.Logger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a Loader. The lister may be nil when only file sources
// are loaded.
func NewLoader(lister Lister, opts ...Option) *Loader {
	l := &Loader{
		lister:   lister,
		kind:     manifest.DefaultKind,
		log:      logr.Discard(),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads all sources in order. A malformed document is skipped and
// recorded in Result.Skipped; a source that cannot be read fails the load.
func (l *Loader) Load(ctx context.Context, sources []Source) (*Result, error) {
	res := &Result{}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docs, err := l.read(ctx, src)
		if err != nil {
			return nil, err
		}

		for _, doc := range docs {
			if src.Kind == LiveQuery {
				res.LiveDocuments = append(res.LiveDocuments, doc)
			}

			m, err := l.parse(doc)
			if err != nil {
				l.log.Info("Warning: skipping document", "origin", doc.Origin.String(), "index", doc.Index, "reason", err.Error())
				res.Skipped = append(res.Skipped, err)
				continue
			}

			l.log.V(1).Info("loaded manifest", "origin", doc.Origin.String(), "name", m.Metadata.Name, "rules", len(m.Rules()))
			res.Manifests = append(res.Manifests, m)
			if src.Kind == LiveQuery {
				res.LiveManifests = append(res.LiveManifests, m)
			}
		}
	}
	return res, nil
}

func (l *Loader) read(ctx context.Context, src Source) ([]manifest.Document, error) {
	switch src.Kind {
	case File:
		l.log.Info("using file", "path", src.Path)
		// #nosec G304 - paths are operator supplied inputs
		data, err := l.readFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest file: %w", err)
		}
		return manifest.DecodeBytes(data, manifest.Origin{Name: src.Path})

	case LiveQuery:
		if l.lister == nil {
			return nil, errors.New("live query requested but no cluster client is configured")
		}
		l.log.Info("listing live resources", "resourceType", src.ResourceType)
		data, err := l.lister.List(ctx, src.ResourceType)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", src.ResourceType, err)
		}
		return manifest.DecodeBytes(data, manifest.Origin{Live: true, Name: src.ResourceType})

	default:
		return nil, fmt.Errorf("unsupported source kind %s", src.Kind)
	}
}

func (l *Loader) parse(doc manifest.Document) (manifest.Manifest, error) {
	if l.kind != "" && doc.Kind() != l.kind {
		return manifest.Manifest{}, fmt.Errorf("%s document %d: %w: kind %q is not %q",
			doc.Origin, doc.Index, manifest.ErrMalformedManifest, doc.Kind(), l.kind)
	}
	return doc.Manifest()
}
