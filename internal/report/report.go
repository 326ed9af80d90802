// Package report formats benchmark results for people and machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"validator-bench/internal/service/bench"
	"validator-bench/internal/service/resource"
)

// Formats.
const (
	Table    = "table"
	Markdown = "markdown"
	JSON     = "json"
)

// ErrNoResults is returned when there is nothing to report.
var ErrNoResults = errors.New("no results to report")

var columns = []string{
	"Library", "Msg Processed", "Msgs/Second", "CPU User (ms)",
	"CPU System (ms)", "Memory (MB)", "Validation Errors",
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00CED1"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Write renders results in format. An empty format means Table.
func Write(w io.Writer, format string, results []bench.Result) error {
	if len(results) == 0 {
		return ErrNoResults
	}
	switch format {
	case Table, "":
		return writeTable(w, results)
	case Markdown:
		return writeMarkdown(w, results)
	case JSON:
		return writeJSON(w, results)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Document is the JSON report shape.
type Document struct {
	Runtime string         `json:"runtime"`
	Results []bench.Result `json:"results"`
}

func writeJSON(w io.Writer, results []bench.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(Document{Runtime: resource.Runtime(), Results: results})
}

func writeMarkdown(w io.Writer, results []bench.Result) error {
	fmt.Fprintln(w, "### Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Runtime: `%s`\n", resource.Runtime())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| "+strings.Join(columns, " | ")+" |")
	seps := make([]string, len(columns))
	for i, c := range columns {
		seps[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(w, "|-"+strings.Join(seps, "-|-")+"-|")

	for _, r := range results {
		fmt.Fprintln(w, "| "+strings.Join(row(r), " | ")+" |")
	}
	return nil
}

func writeTable(w io.Writer, results []bench.Result) error {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = row(r)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(columns...).
		Rows(rows...).
		StyleFunc(func(r, c int) lipgloss.Style {
			switch {
			case r == table.HeaderRow:
				return headerStyle
			case c == 0:
				return cellStyle
			default:
				return numberStyle
			}
		})

	fmt.Fprintln(w, titleStyle.Render("Benchmark Results"))
	fmt.Fprintln(w, "Runtime: "+resource.Runtime())
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func row(r bench.Result) []string {
	return []string{
		r.Library,
		fmt.Sprintf("%d", r.MessagesProcessed),
		fmt.Sprintf("%.2f", r.MessagesPerSecond),
		fmt.Sprintf("%.2f", r.CPUUserMs),
		fmt.Sprintf("%.2f", r.CPUSystemMs),
		FormatMB(r.MemoryUsed),
		fmt.Sprintf("%d", r.ValidationErrors),
	}
}

// FormatMB renders a signed byte count in mebibytes with two decimals.
func FormatMB(b int64) string {
	return fmt.Sprintf("%.2f", float64(b)/(1024*1024))
}
