package merge

import (
	"sort"

	"github.com/imamik/icspmerge/internal/manifest"
)

// mirrorSet is an insertion-ordered set of mirror repositories.
type mirrorSet struct {
	seen  map[string]struct{}
	order []string
}

func (s *mirrorSet) add(mirror string) bool {
	if _, ok := s.seen[mirror]; ok {
		return false
	}
	s.seen[mirror] = struct{}{}
	s.order = append(s.order, mirror)
	return true
}

// Mapping accumulates mirror rules keyed by source.
// The zero value is not usable; create one with NewMapping.
type Mapping struct {
	rules map[string]*mirrorSet
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{rules: make(map[string]*mirrorSet)}
}

// Add merges one rule into the mapping. A new source is inserted even when
// its mirror list is empty. It reports how many mirrors were newly added.
func (m *Mapping) Add(rule manifest.MirrorRule) int {
	set, ok := m.rules[rule.Source]
	if !ok {
		set = &mirrorSet{seen: make(map[string]struct{}, len(rule.Mirrors)), order: []string{}}
		m.rules[rule.Source] = set
	}

	added := 0
	for _, mirror := range rule.Mirrors {
		if set.add(mirror) {
			added++
		}
	}
	return added
}

// AddManifest merges every rule of a manifest, in list order.
func (m *Mapping) AddManifest(in manifest.Manifest) {
	for _, rule := range in.Rules() {
		m.Add(rule)
	}
}

// Len returns the number of distinct sources.
func (m *Mapping) Len() int {
	return len(m.rules)
}

// Rules returns the accumulated rules sorted by source. The returned slices
// are copies and may be modified by the caller.
func (m *Mapping) Rules() []manifest.MirrorRule {
	sources := make([]string, 0, len(m.rules))
	for source := range m.rules {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	rules := make([]manifest.MirrorRule, 0, len(sources))
	for _, source := range sources {
		mirrors := make([]string, len(m.rules[source].order))
		copy(mirrors, m.rules[source].order)
		rules = append(rules, manifest.MirrorRule{Source: source, Mirrors: mirrors})
	}
	return rules
}
