package main

import (
	"fmt"
	"strings"
	"time"

	"shaderstore/internal/generate"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	success = lipgloss.Color("#8BC34A")
	warning = lipgloss.Color("#FFC107")
	danger  = lipgloss.Color("#e53935")
	muted   = lipgloss.Color("#6c7a89")

	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(success)
	warnStyle  = lipgloss.NewStyle().Foreground(warning)
	errStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(muted)
)

// renderSummary formats a generation result for the terminal.
func renderSummary(res *generate.Result, dry bool) string {
	var b strings.Builder

	title := "Generation complete"
	if dry {
		title = "Dry run complete"
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	fmt.Fprintf(&b, "  shaders   %d\n", res.Shaders)
	fmt.Fprintf(&b, "  includes  %d\n", res.Includes)
	if res.Modules > 0 {
		fmt.Fprintf(&b, "  modules   %d\n", res.Modules)
	}

	written := res.Count(generate.StatusWritten)
	planned := res.Count(generate.StatusPlanned)
	unchanged := res.Count(generate.StatusUnchanged)
	if dry {
		b.WriteString("  " + warnStyle.Render(fmt.Sprintf("%d would be written", planned)) + "\n")
	} else {
		b.WriteString("  " + okStyle.Render(fmt.Sprintf("%d written", written)) + "\n")
	}
	b.WriteString("  " + dimStyle.Render(fmt.Sprintf("%d unchanged", unchanged)) + "\n")

	for _, path := range res.Skipped {
		b.WriteString("  " + warnStyle.Render("skipped "+path) + "\n")
	}
	if dry {
		for _, f := range res.Files {
			if f.Status == generate.StatusPlanned {
				b.WriteString("    " + dimStyle.Render(f.Path) + "\n")
			}
		}
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  run %s in %s", res.RunID, res.Duration.Round(time.Millisecond))) + "\n")
	return b.String()
}

// renderCheck formats a check report.
func renderCheck(report *generate.CheckReport) string {
	var b strings.Builder
	if report.OK() {
		b.WriteString(okStyle.Render(fmt.Sprintf("All %d generated files are up to date", len(report.Results))) + "\n")
		return b.String()
	}

	stale := report.Stale()
	b.WriteString(errStyle.Render(fmt.Sprintf("%d of %d generated files are out of date", len(stale), len(report.Results))) + "\n")
	for _, r := range stale {
		b.WriteString("  " + warnStyle.Render(string(r.Status)) + " " + r.Path + "\n")
		if r.Diff != "" {
			for _, line := range strings.Split(strings.TrimRight(r.Diff, "\n"), "\n") {
				b.WriteString("      " + dimStyle.Render(line) + "\n")
			}
		}
	}
	return b.String()
}

// renderNames formats derived names as a table.
func renderNames(rows []generate.NameRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("SET", "FILE", "SYMBOL", "HEADER")
	for _, r := range rows {
		t.Row(r.Set, r.Basename, r.Symbol, r.Header)
	}
	return t.String() + "\n"
}
