package normalize

import (
	"testing"

	"github.com/GoogleCloudPlatform/tabular-context/internal/loader"
)

func TestParseSpanishDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{"afternoon", "diciembre 22, 2025, 4:13 p. m.", "2025-12-22 16:13:00", true},
		{"midnight boundary", "diciembre 22, 2025, 12:00 a. m.", "2025-12-22 00:00:00", true},
		{"noon stays twelve", "enero 5, 2024, 12:30 p. m.", "2024-01-05 12:30:00", true},
		{"morning", "marzo 3, 2023, 9:05 a. m.", "2023-03-03 09:05:00", true},
		{"compact meridiem", "julio 14, 2022, 7:45 pm", "2022-07-14 19:45:00", true},
		{"uppercase month", "Agosto 1, 2021, 1:00 p. m.", "2021-08-01 13:00:00", true},
		{"non-breaking spaces", "diciembre 22, 2025, 4:13 p. m.", "2025-12-22 16:13:00", true},
		{"unknown month", "decembro 22, 2025, 4:13 p. m.", "", false},
		{"iso date", "2025-12-22 16:13:00", "", false},
		{"free text", "hello world", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSpanishDate(tt.value)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseSpanishDate(%q) = (%q, %v), want (%q, %v)", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func datedTable(values []string) *loader.Table {
	t := &loader.Table{
		Name:    "events",
		Columns: []loader.Column{{Name: "created_at", Type: loader.TypeText}},
	}
	for _, v := range values {
		t.Rows = append(t.Rows, []string{v})
	}
	return t
}

func TestDateColumnsRewritesPredominantColumn(t *testing.T) {
	values := []string{
		"diciembre 22, 2025, 4:13 p. m.",
		"enero 5, 2024, 12:30 p. m.",
		"marzo 3, 2023, 9:05 a. m.",
		"not a date",
	}
	table := datedTable(values)
	DateColumns(table, nil)

	want := []string{
		"2025-12-22 16:13:00",
		"2024-01-05 12:30:00",
		"2023-03-03 09:05:00",
		"not a date", // soft failure: passed through, never dropped
	}
	for i, w := range want {
		if table.Rows[i][0] != w {
			t.Errorf("row %d = %q, want %q", i, table.Rows[i][0], w)
		}
	}
}

func TestDateColumnsBelowThresholdUntouched(t *testing.T) {
	values := []string{
		"diciembre 22, 2025, 4:13 p. m.",
		"enero 5, 2024, 12:30 p. m.",
		"marzo 3, 2023, 9:05 a. m.",
		"a", "b", "c", "d", "e", "f", "g",
	}
	table := datedTable(values)
	DateColumns(table, nil)

	// Only 3 of the 10 sampled values parse, so nothing is rewritten.
	for i, v := range values {
		if table.Rows[i][0] != v {
			t.Errorf("row %d was modified to %q, want untouched %q", i, table.Rows[i][0], v)
		}
	}
}

func TestDateColumnsSkipsNonTextColumns(t *testing.T) {
	table := &loader.Table{
		Name:    "events",
		Columns: []loader.Column{{Name: "n", Type: loader.TypeInteger}},
		Rows:    [][]string{{"1"}, {"2"}},
	}
	DateColumns(table, nil)
	if table.Rows[0][0] != "1" || table.Rows[1][0] != "2" {
		t.Error("integer column should be left untouched")
	}
}

func TestDateColumnsEmptyColumn(t *testing.T) {
	table := datedTable([]string{"", "", ""})
	DateColumns(table, nil)
	for i := range table.Rows {
		if table.Rows[i][0] != "" {
			t.Errorf("row %d modified", i)
		}
	}
}
