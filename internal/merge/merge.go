package merge

import (
	"errors"

	"github.com/imamik/icspmerge/internal/manifest"
	"github.com/imamik/icspmerge/internal/util/naming"
)

// ErrNoInputManifests is returned when there is nothing to merge.
var ErrNoInputManifests = errors.New("no input manifests")

type options struct {
	name string
}

// Option configures Merge.
type Option func(*options)

// WithName sets metadata.name of the merged manifest.
// An empty name keeps the default.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// Merge combines the rules of all manifests, in input order, into a single
// manifest. The envelope (apiVersion and kind) is taken from the first
// manifest and metadata.name is replaced with a generated name. Merge does
// not modify its input.
func Merge(manifests []manifest.Manifest, opts ...Option) (manifest.Manifest, error) {
	if len(manifests) == 0 {
		return manifest.Manifest{}, ErrNoInputManifests
	}

	o := options{name: naming.MergedPolicy(0)}
	for _, opt := range opts {
		opt(&o)
	}

	mapping := NewMapping()
	for _, m := range manifests {
		mapping.AddManifest(m)
	}

	return manifest.Manifest{
		APIVersion: manifests[0].APIVersion,
		Kind:       manifests[0].Kind,
		Metadata:   manifest.Metadata{Name: o.name},
		Spec: manifest.Spec{
			RepositoryDigestMirrors: mapping.Rules(),
		},
	}, nil
}
