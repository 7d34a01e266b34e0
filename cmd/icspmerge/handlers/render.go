package handlers

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/icspmerge/internal/reconcile"
)

var (
	appliedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")).Bold(true)
	abortedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

// printOutcome writes a short summary of a run.
func printOutcome(w io.Writer, out *reconcile.Outcome, color bool) {
	if out == nil {
		return
	}

	state := out.State.String()
	if out.Unchanged {
		state += " (unchanged)"
	}
	label := func(s string) string { return s }
	if color {
		label = func(s string) string { return labelStyle.Render(s) }
		switch out.State {
		case reconcile.Applied:
			state = appliedStyle.Render(state)
		case reconcile.Aborted:
			state = abortedStyle.Render(state)
		case reconcile.Failed:
			state = failedStyle.Render(state)
		}
	}

	_, _ = fmt.Fprintf(w, "\n%s %s\n", label("Result:"), state)
	_, _ = fmt.Fprintf(w, "  %s %s\n", label("run:   "), out.RunID)
	if out.Merged.Metadata.Name != "" {
		_, _ = fmt.Fprintf(w, "  %s %s (%d rules, %d mirrors)\n", label("merged:"),
			out.Merged.Metadata.Name, len(out.Merged.Rules()), out.Merged.MirrorCount())
	}
	if out.Backup != nil {
		if len(out.Backup.Files) == 0 {
			_, _ = fmt.Fprintf(w, "  %s none (no live resources)\n", label("backup:"))
		} else {
			_, _ = fmt.Fprintf(w, "  %s %s (%d files)\n", label("backup:"), out.Backup.Dir, len(out.Backup.Files))
		}
	}
	if out.Diff != nil && !out.Diff.Empty() {
		added, removed := out.Diff.Stats()
		_, _ = fmt.Fprintf(w, "  %s +%d -%d lines\n", label("diff:  "), added, removed)
	}
	if n := len(out.Skipped); n > 0 {
		_, _ = fmt.Fprintf(w, "  %s %d malformed documents\n", label("skipped:"), n)
	}
}
