package generate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/imamik/icspmerge/internal/manifest"
	"github.com/imamik/icspmerge/internal/merge"
	"github.com/imamik/icspmerge/internal/util/naming"
)

var (
	// ErrInvalidMapping is returned for a mapping line that is not a
	// "source=destination" pair of image references.
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrNoMappings is returned when a mapping file holds no entries.
	ErrNoMappings = errors.New("no image mappings")
)

// Entry is one line of a mapping file.
type Entry struct {
	Source      string
	Destination string
	Line        int
}

// ParseMappings reads a mapping file. Blank lines and lines starting with
// '#' are ignored.
func ParseMappings(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		parts := strings.Split(text, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: %w: expected source=destination, got %q", line, ErrInvalidMapping, text)
		}
		src, dst := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if src == "" || dst == "" {
			return nil, fmt.Errorf("line %d: %w: empty image reference", line, ErrInvalidMapping)
		}
		if Repository(src) == "" {
			return nil, fmt.Errorf("line %d: %w: %q has no repository path", line, ErrInvalidMapping, src)
		}
		entries = append(entries, Entry{Source: src, Destination: dst, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mappings: %w", err)
	}
	return entries, nil
}

// Repository returns the image reference without its last path segment,
// e.g. "quay.io/org" for "quay.io/org/app@sha256:...". It is empty when the
// reference has a single segment.
func Repository(image string) string {
	i := strings.LastIndex(image, "/")
	if i <= 0 {
		return ""
	}
	return image[:i]
}

// Policy builds the policy mirroring every source repository to
// <registry>/<repository>. Repeated repositories yield one rule.
func Policy(entries []Entry, registry string) (manifest.Manifest, error) {
	registry = strings.TrimRight(registry, "/")
	if registry == "" {
		return manifest.Manifest{}, errors.New("registry is required")
	}
	if len(entries) == 0 {
		return manifest.Manifest{}, ErrNoMappings
	}

	mapping := merge.NewMapping()
	for _, e := range entries {
		repo := Repository(e.Source)
		mapping.Add(manifest.MirrorRule{
			Source:  repo,
			Mirrors: []string{registry + "/" + repo},
		})
	}

	return manifest.Manifest{
		APIVersion: manifest.DefaultAPIVersion,
		Kind:       manifest.DefaultKind,
		Metadata:   manifest.Metadata{Name: naming.GeneratedPolicy},
		Spec: manifest.Spec{
			RepositoryDigestMirrors: mapping.Rules(),
		},
	}, nil
}

// RewriteMappings returns a mapping file that copies every destination
// image from the offline registry, one "<registry>/<destination>=<destination>"
// line per entry in input order.
func RewriteMappings(entries []Entry, registry string) []byte {
	registry = strings.TrimRight(registry, "/")
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s/%s=%s\n", registry, e.Destination, e.Destination)
	}
	return buf.Bytes()
}
