package describe

import (
	"fmt"
	"strings"
	"testing"

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend"
	"github.com/GoogleCloudPlatform/tabular-context/internal/classify"
)

func sampleSchema() []backend.TableSchema {
	return []backend.TableSchema{
		{
			Name:     "listings",
			RowCount: 120,
			Columns: []backend.ColumnSchema{
				{Name: "id", Type: "INTEGER", PrimaryKey: true, SampleValues: []string{"1", "2", "3"}},
				{Name: "price", Type: "TEXT", Nullable: true, SampleValues: []string{"$1,200", "$3,400"}},
				{Name: "notes", Type: "TEXT", Nullable: true},
			},
		},
		{
			Name:     "agents",
			RowCount: 4,
			Columns: []backend.ColumnSchema{
				{Name: "name", Type: "TEXT", Nullable: true, SampleValues: []string{"Ana"}},
			},
		},
	}
}

func TestRenderTableBlockLayout(t *testing.T) {
	doc := Render(sampleSchema(), nil, Options{})
	lines := strings.Split(doc, "\n")

	if lines[0] != "Table: listings (120 rows)" {
		t.Errorf("header line = %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", 50) {
		t.Errorf("rule line = %q, want 50 dashes", lines[1])
	}
	wantCol := fmt.Sprintf("  %-30s %-15s %-8s%s", "id", "INTEGER", "NOT NULL", " [PK]")
	if lines[2] != wantCol {
		t.Errorf("column line = %q, want %q", lines[2], wantCol)
	}
	if lines[3] != "    Sample values: 1, 2, 3" {
		t.Errorf("sample line = %q", lines[3])
	}

	// A column without samples still gets a sample line.
	if !strings.Contains(doc, "    Sample values: N/A") {
		t.Error("column without samples should render N/A")
	}
	// Nullable columns render NULL padded to the same width.
	if !strings.Contains(doc, fmt.Sprintf("  %-30s %-15s %-8s", "price", "TEXT", "NULL")) {
		t.Error("nullable column line not found")
	}

	// Blocks are separated by one blank line.
	if !strings.Contains(doc, "Sample values: N/A\n\nTable: agents (4 rows)") {
		t.Error("table blocks should be separated by a blank line")
	}
}

func TestRenderTableRef(t *testing.T) {
	opts := Options{TableRef: func(name string) string { return "`proj.ds." + name + "`" }}
	doc := Render(sampleSchema(), nil, opts)
	if !strings.Contains(doc, "Table: `proj.ds.listings` (120 rows)") {
		t.Error("TableRef should wrap the header name")
	}
}

func TestRenderCleaningSectionPlacement(t *testing.T) {
	findings := []classify.Finding{
		{
			Table:        "listings",
			Column:       "price",
			FormatsFound: []string{"currency symbols: $", "formatted numbers with commas"},
			ExprMin:      `CAST(REPLACE(TRIM(REPLACE("price", '$', '')), ',', '') AS REAL)`,
			ExprMax:      `CAST(REPLACE(TRIM(REPLACE("price", '$', '')), ',', '') AS REAL)`,
		},
	}

	doc := Render(sampleSchema(), findings, Options{})
	if got := strings.Count(doc, "## SQL Cleaning Expressions"); got != 1 {
		t.Fatalf("cleaning section appears %d times, want 1", got)
	}
	idx := strings.Index(doc, "## SQL Cleaning Expressions")
	if last := strings.LastIndex(doc, "Table: "); last > idx {
		t.Error("cleaning section must come after all table blocks")
	}

	// Equal min/max renders the minimum expression only.
	if strings.Contains(doc, "Expression for MAXIMUM") {
		t.Error("max expression should be omitted when identical to min")
	}

	// Without findings, no section at all.
	if plain := Render(sampleSchema(), nil, Options{}); strings.Contains(plain, "## SQL Cleaning Expressions") {
		t.Error("cleaning section should be absent without findings")
	}
}

func TestRenderPreambleAndNotes(t *testing.T) {
	findings := []classify.Finding{{Table: "t", Column: "c", FormatsFound: []string{"ranges (two values separated by -)"}, ExprMin: "a", ExprMax: "b"}}
	doc := Render(sampleSchema(), findings, Options{Preamble: "HEAD", Notes: "TAIL"})

	if !strings.HasPrefix(doc, "HEAD\n\n") {
		t.Error("preamble should lead the document")
	}
	if !strings.HasSuffix(doc, "TAIL") {
		t.Error("notes should end the document")
	}
	if strings.Index(doc, "## SQL Cleaning Expressions") > strings.Index(doc, "TAIL") {
		t.Error("notes should come after the cleaning section")
	}
}

func TestCleaningExpressionsFooter(t *testing.T) {
	findings := []classify.Finding{
		{Table: "t", Column: "c", FormatsFound: []string{"prefixes: Desde"}, ExprMin: "min_expr", ExprMax: "max_expr"},
	}
	section := CleaningExpressions(findings)

	for _, want := range []string{
		"Column: c  (table: t)",
		"  Formats found: prefixes: Desde",
		"  Expression for MINIMUM numeric value:",
		"    min_expr",
		"  Expression for MAXIMUM numeric value:",
		"    max_expr",
		"USE these expressions in ORDER BY, WHERE, MIN(), MAX(), etc.",
		"NEVER use plain ORDER BY on the original text column.",
	} {
		if !strings.Contains(section, want) {
			t.Errorf("section missing %q", want)
		}
	}
}

func TestRenderEmptySchema(t *testing.T) {
	if doc := Render(nil, nil, Options{}); doc != "" {
		t.Errorf("empty schema should render empty document, got %q", doc)
	}
}
