package manifest

import "errors"

const (
	// DefaultAPIVersion is the API version used for generated policies.
	DefaultAPIVersion = "operator.openshift.io/v1alpha1"

	// DefaultKind is the only top-level kind merged by default.
	DefaultKind = "ImageContentSourcePolicy"

	// DefaultResourceType is the resource type queried on a live cluster.
	DefaultResourceType = "imagecontentsourcepolicy"

	// ListKind is the wrapper kind returned by `kubectl get -o yaml`.
	ListKind = "List"
)

// ErrMalformedManifest is returned for a document that lacks a field the
// merge consumes. Callers skip the document and continue.
var ErrMalformedManifest = errors.New("malformed manifest")

// Manifest is the typed view of an ImageContentSourcePolicy document.
type Manifest struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       Spec     `yaml:"spec"`
}

// Metadata holds the object metadata consumed by the merge.
type Metadata struct {
	Name string `yaml:"name"`
}

// Spec holds the mirror rules of a policy.
type Spec struct {
	RepositoryDigestMirrors []MirrorRule `yaml:"repositoryDigestMirrors"`
}

// MirrorRule redirects pulls of Source to Mirrors, consulted in order.
type MirrorRule struct {
	Source  string   `yaml:"source"`
	Mirrors []string `yaml:"mirrors"`
}

// Rules returns the mirror rules of the manifest.
func (m Manifest) Rules() []MirrorRule {
	return m.Spec.RepositoryDigestMirrors
}

// MirrorCount returns the total number of mirror entries across all rules.
func (m Manifest) MirrorCount() int {
	n := 0
	for _, r := range m.Spec.RepositoryDigestMirrors {
		n += len(r.Mirrors)
	}
	return n
}
