package manifest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const documentMarker = "---\n"

// Marshal encodes manifests as a YAML stream. Every document starts with a
// "---" marker and uses two-space indentation, so output for equal input is
// byte-identical.
func Marshal(manifests ...Manifest) ([]byte, error) {
	var buf bytes.Buffer
	for _, m := range manifests {
		buf.WriteString(documentMarker)

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(normalize(m)); err != nil {
			return nil, fmt.Errorf("failed to encode manifest %s: %w", m.Metadata.Name, err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode manifest %s: %w", m.Metadata.Name, err)
		}
	}
	return buf.Bytes(), nil
}

// normalize replaces nil sequences with empty ones so they encode as [].
func normalize(m Manifest) Manifest {
	rules := make([]MirrorRule, len(m.Spec.RepositoryDigestMirrors))
	for i, r := range m.Spec.RepositoryDigestMirrors {
		mirrors := r.Mirrors
		if mirrors == nil {
			mirrors = []string{}
		}
		rules[i] = MirrorRule{Source: r.Source, Mirrors: mirrors}
	}
	m.Spec.RepositoryDigestMirrors = rules
	return m
}
