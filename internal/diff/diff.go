package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/imamik/icspmerge/internal/manifest"
)

const (
	contextLines = 3
	// headerLines is the "--- live" / "+++ merged" file header.
	headerLines = 2
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9fafb"))
)

// Diff is the rendered change between two states.
type Diff struct {
	Before  string
	After   string
	unified string
}

// Compute serializes before (sorted by name) and after and diffs them line
// by line.
func Compute(before []manifest.Manifest, after manifest.Manifest) (*Diff, error) {
	sorted := make([]manifest.Manifest, len(before))
	copy(sorted, before)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metadata.Name < sorted[j].Metadata.Name
	})

	beforeBytes, err := manifest.Marshal(sorted...)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize live state: %w", err)
	}
	afterBytes, err := manifest.Marshal(after)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize merged state: %w", err)
	}

	d := &Diff{Before: string(beforeBytes), After: string(afterBytes)}
	d.unified, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(d.Before),
		B:        difflib.SplitLines(d.After),
		FromFile: "live",
		ToFile:   "merged",
		Context:  contextLines,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute diff: %w", err)
	}
	return d, nil
}

// Empty reports whether both states serialize identically.
func (d *Diff) Empty() bool {
	return d.unified == ""
}

// String returns the plain unified diff.
func (d *Diff) String() string {
	return d.unified
}

// Stats returns the number of added and removed lines.
func (d *Diff) Stats() (added, removed int) {
	for i, line := range strings.Split(d.unified, "\n") {
		switch {
		case i < headerLines:
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// Render returns the diff for display, colored when color is true.
func (d *Diff) Render(color bool) string {
	if d.Empty() {
		return "No changes.\n"
	}
	if !color {
		return d.unified
	}

	var b strings.Builder
	for i, line := range strings.SplitAfter(d.unified, "\n") {
		text := strings.TrimSuffix(line, "\n")
		switch {
		case i < headerLines:
			b.WriteString(headerStyle.Render(text))
		case strings.HasPrefix(text, "@@"):
			b.WriteString(hunkStyle.Render(text))
		case strings.HasPrefix(text, "+"):
			b.WriteString(addedStyle.Render(text))
		case strings.HasPrefix(text, "-"):
			b.WriteString(removedStyle.Render(text))
		default:
			b.WriteString(text)
		}
		if strings.HasSuffix(line, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
