// Package style renders budget tables and messages for the terminal.
package style

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Bold    = lipgloss.NewStyle().Bold(true)
	Dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// PrintWarning prints a highlighted warning line.
func PrintWarning(format string, args ...any) {
	fmt.Printf("%s %s\n", Warning.Render("Warning:"), fmt.Sprintf(format, args...))
}

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

type Column struct {
	Name     string
	Align    Alignment
	MaxWidth int
}

// Table sizes each column to its widest cell, capped by MaxWidth.
type Table struct {
	columns []Column
	rows    [][]string
	indent  string
}

func NewTable(columns ...Column) *Table {
	return &Table{columns: columns, indent: "  "}
}

func (t *Table) SetIndent(indent string) *Table {
	t.indent = indent
	return t
}

func (t *Table) AddRow(values ...string) *Table {
	for len(values) < len(t.columns) {
		values = append(values, "")
	}
	t.rows = append(t.rows, values)
	return t
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = lipgloss.Width(c.Name)
	}
	for _, row := range t.rows {
		for i := range t.columns {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i, c := range t.columns {
		if c.MaxWidth > 0 && widths[i] > c.MaxWidth {
			widths[i] = c.MaxWidth
		}
	}
	return widths
}

func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}
	widths := t.widths()

	var sb strings.Builder
	sb.WriteString(t.indent)
	for i, c := range t.columns {
		sb.WriteString(cell(Bold.Render(c.Name), widths[i], c.Align))
		if i < len(t.columns)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(t.indent)
	sb.WriteString(Dim.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")

	for _, row := range t.rows {
		sb.WriteString(t.indent)
		for i, c := range t.columns {
			sb.WriteString(cell(truncate(row[i], widths[i]), widths[i], c.Align))
			if i < len(t.columns)-1 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

func cell(s string, width int, align Alignment) string {
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	if align == AlignRight {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}
