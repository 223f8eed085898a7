/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package describe renders the Schema Document: an ordered sequence of
// per-table blocks followed by at most one cleaning-expressions section. The
// layout is plain text with a stable structure so both humans and an
// automated agent can parse it.
package describe

import (
	"fmt"
	"strings"

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend"
	"github.com/GoogleCloudPlatform/tabular-context/internal/classify"
)

// Options carries the backend-specific parts of the document. The table
// blocks and cleaning section are backend-agnostic.
type Options struct {
	// Preamble is emitted before the first table block (e.g. BigQuery
	// dataset reference and backtick guidance).
	Preamble string
	// Notes is emitted after everything else (e.g. dialect-specific SQL
	// hints).
	Notes string
	// TableRef renders the table name in block headers. Defaults to the
	// bare name.
	TableRef func(string) string
}

// Render composes the full Schema Document. The cleaning section appears
// exactly once, after all table blocks, and only when findings exist.
func Render(schema []backend.TableSchema, findings []classify.Finding, opts Options) string {
	tableRef := opts.TableRef
	if tableRef == nil {
		tableRef = func(name string) string { return name }
	}

	blocks := make([]string, 0, len(schema))
	for _, table := range schema {
		var lines []string
		lines = append(lines, fmt.Sprintf("Table: %s (%d rows)", tableRef(table.Name), table.RowCount))
		lines = append(lines, strings.Repeat("-", 50))
		for _, col := range table.Columns {
			nullable := "NOT NULL"
			if col.Nullable {
				nullable = "NULL"
			}
			pk := ""
			if col.PrimaryKey {
				pk = " [PK]"
			}
			samples := "N/A"
			if len(col.SampleValues) > 0 {
				samples = strings.Join(col.SampleValues, ", ")
			}
			lines = append(lines, fmt.Sprintf("  %-30s %-15s %-8s%s", col.Name, col.Type, nullable, pk))
			lines = append(lines, fmt.Sprintf("    Sample values: %s", samples))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	doc := strings.Join(blocks, "\n\n")
	if opts.Preamble != "" {
		doc = opts.Preamble + "\n\n" + doc
	}
	if len(findings) > 0 {
		doc += "\n\n" + CleaningExpressions(findings)
	}
	if opts.Notes != "" {
		doc += "\n\n" + opts.Notes
	}
	return doc
}

// CleaningExpressions renders the findings section with its fixed
// instructional footer.
func CleaningExpressions(findings []classify.Finding) string {
	parts := []string{"## SQL Cleaning Expressions\n"}
	for _, f := range findings {
		parts = append(parts, fmt.Sprintf("Column: %s  (table: %s)", f.Column, f.Table))
		parts = append(parts, fmt.Sprintf("  Formats found: %s", strings.Join(f.FormatsFound, "; ")))
		parts = append(parts, "  Expression for MINIMUM numeric value:")
		parts = append(parts, fmt.Sprintf("    %s", f.ExprMin))
		if f.ExprMax != f.ExprMin {
			parts = append(parts, "  Expression for MAXIMUM numeric value:")
			parts = append(parts, fmt.Sprintf("    %s", f.ExprMax))
		}
		parts = append(parts, "")
	}
	parts = append(parts, "USE these expressions in ORDER BY, WHERE, MIN(), MAX(), etc.")
	parts = append(parts, "NEVER use plain ORDER BY on the original text column.")
	return strings.Join(parts, "\n")
}
