// Package static provides non-interactive terminal output components.
//
// This package renders the end-of-run statistics: tables of rule hits
// and commits per repository, unused rules and unmatched paths.
package static

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/colorprofile"

	"github.com/raphi011/svn2git/internal/stats"
	"github.com/raphi011/svn2git/internal/ui/styles"
)

// maxListed caps the unmatched paths printed in the report.
const maxListed = 20

// RenderTable creates a formatted table with proper column alignment.
// Headers and rows are rendered using lipgloss/table which automatically
// calculates column widths based on content. No borders are rendered.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var output strings.Builder

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Bold.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	output.WriteString(t.String())
	output.WriteString("\n")

	return output.String()
}

// RenderReport formats the statistics of a run.
func RenderReport(r stats.Report) string {
	var b strings.Builder

	if r.To < r.From {
		b.WriteString("No revisions to export\n")
	} else {
		fmt.Fprintf(&b, "Revisions r%d to r%d: %d exported, %d skipped\n", r.From, r.To, r.Exported, r.Skipped)
	}

	if rows := r.RuleRows(); len(rows) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"RULE", "HITS"}, rows))
	}
	if rows := r.CommitRows(); len(rows) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"REPOSITORY", "COMMITS"}, rows))
	}

	if len(r.UnusedRules) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.WarningStyle.Render("Rules that never matched:"))
		b.WriteString("\n")
		for _, rule := range r.UnusedRules {
			fmt.Fprintf(&b, "  %s\n", rule)
		}
	}

	if n := len(r.Unmatched) + r.UnmatchedDropped; n > 0 {
		b.WriteString("\n")
		b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("Paths without a rule (%d):", n)))
		b.WriteString("\n")
		for i, p := range r.Unmatched {
			if i == maxListed {
				b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("  ... and %d more", n-maxListed)))
				b.WriteString("\n")
				break
			}
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}

	return b.String()
}

// WriteReport writes the rendered report to w, downsampling colors to
// what w supports according to environ.
func WriteReport(w io.Writer, environ []string, r stats.Report) error {
	cw := colorprofile.NewWriter(w, environ)
	_, err := io.WriteString(cw, RenderReport(r))
	return err
}
