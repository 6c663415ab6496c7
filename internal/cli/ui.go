package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/trestle/pkg/assembly"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

// printReport writes a human-readable summary of a validation report.
func printReport(w io.Writer, title string, rep assembly.Report) {
	fmt.Fprintln(w, styleTitle.Render(title))
	if rep.RunID != "" {
		fmt.Fprintln(w, styleDim.Render("run "+rep.RunID))
	}

	if len(rep.Adjustments) == 0 {
		fmt.Fprintf(w, "  %s no adjustments\n", styleSuccess.Render(iconSuccess))
	}
	for _, a := range rep.Adjustments {
		fmt.Fprintf(w, "  %s %-12s %s %s\n",
			styleNumber.Render(iconArrow), a.Pass, a.Component, styleDim.Render(a.Detail))
	}

	for _, v := range rep.Violations {
		icon := styleWarning.Render(iconWarning)
		if v.Severity == assembly.SeverityError {
			icon = styleError.Render(iconError)
		}
		subject := v.Component
		if subject == "" {
			subject = "-"
		}
		fmt.Fprintf(w, "  %s %-12s %s %s\n", icon, v.Pass, subject, v.Message)
	}

	errs, warns := len(rep.Errors()), len(rep.Warnings())
	summary := fmt.Sprintf("%d adjustments, %d errors, %d warnings", len(rep.Adjustments), errs, warns)
	switch {
	case errs > 0:
		summary = styleError.Render(summary)
	case warns > 0:
		summary = styleWarning.Render(summary)
	default:
		summary = styleSuccess.Render(summary)
	}
	fmt.Fprintln(w, "  "+summary)
}
