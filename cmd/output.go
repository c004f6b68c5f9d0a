package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/stevehiehn/theaterdash/internal/engine"
	"github.com/stevehiehn/theaterdash/internal/summary"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	nameColStyle = lipgloss.NewStyle().Width(22)
)

func statusBadge(status string) string {
	switch status {
	case engine.StatusSuccess:
		return okStyle.Render("ok")
	case engine.StatusFailed:
		return failStyle.Render("FAILED")
	case engine.StatusSkipped:
		return skipStyle.Render("skipped")
	default:
		return status
	}
}

// printSummary writes the human-readable run summary.
func printSummary(w io.Writer, s summary.RunSummary, dashboard string) {
	fmt.Fprintln(w, titleStyle.Render("Run "+s.RunID))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s -> %s (%.2fs)", s.StartedAt, s.FinishedAt, s.DurationSeconds)))
	fmt.Fprintln(w)
	for _, st := range s.Steps {
		line := nameColStyle.Render(st.Name) + " " + statusBadge(st.Status)
		if st.Status != engine.StatusSuccess && st.Message != "" {
			line += "  " + mutedStyle.Render(st.Message)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	ok, failed, skipped := s.Counts()
	fmt.Fprintf(w, "%s succeeded, %s failed, %s skipped\n",
		okStyle.Render(fmt.Sprint(ok)), failStyle.Render(fmt.Sprint(failed)), skipStyle.Render(fmt.Sprint(skipped)))
	if len(s.GeneratedFiles) > 0 {
		fmt.Fprintf(w, "Generated: %s\n", strings.Join(s.GeneratedFiles, ", "))
	}
	fmt.Fprintf(w, "Dashboard: %s\n", dashboard)
}
