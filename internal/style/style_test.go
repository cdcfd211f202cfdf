package style

import (
	"strings"
	"testing"
)

func TestTableAlignsColumns(t *testing.T) {
	out := NewTable(
		Column{Name: "Name"},
		Column{Name: "Costs", Align: AlignRight},
	).SetIndent("").
		AddRow("Ada", "1,000.00").
		AddRow("Maximilian", "5.00").
		Render()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[3], "    5.00") {
		t.Fatalf("expected right-aligned amount, got %q", lines[3])
	}
	if !strings.HasPrefix(lines[2], "Ada        ") {
		t.Fatalf("expected left-aligned padded name, got %q", lines[2])
	}
}

func TestTableTruncatesToMaxWidth(t *testing.T) {
	out := NewTable(Column{Name: "N", MaxWidth: 6}).SetIndent("").
		AddRow("abcdefghij").
		Render()
	if !strings.Contains(out, "abc...") {
		t.Fatalf("expected truncated cell, got %q", out)
	}
}

func TestAddRowPadsMissingValues(t *testing.T) {
	tbl := NewTable(Column{Name: "A"}, Column{Name: "B"}).AddRow("x")
	if len(tbl.rows[0]) != 2 {
		t.Fatalf("expected padded row of 2, got %d", len(tbl.rows[0]))
	}
}
