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
package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column type names match SQLite storage classes so a loaded table can be
// persisted without a separate mapping step.
const (
	TypeText    = "TEXT"
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
)

// Column describes one column of a loaded table.
type Column struct {
	Name string
	Type string
}

// Table is the in-memory result of loading a tabular file. Rows are aligned
// to Columns; an empty cell means the value is missing (stored as NULL).
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

// Loader reads delimited or spreadsheet files into Tables.
type Loader struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// Load reads the file at path into a Table. The table name defaults to the
// normalized file stem when tableName is empty. Unrecognized extensions are
// rejected before anything is read.
func (l *Loader) Load(path string, tableName string) (*Table, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		header, rows, err = readCSV(path)
	case ".xls", ".xlsx":
		header, rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	if tableName == "" {
		tableName = TableNameFromPath(path)
	}

	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = Column{Name: NormalizeColumnName(h)}
	}
	for i := range columns {
		columns[i].Type = inferColumnType(rows, i)
	}

	l.logger.Info("loaded tabular file",
		zap.String("path", path),
		zap.String("table", tableName),
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(rows)),
	)

	return &Table{Name: tableName, Columns: columns, Rows: rows}, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file contains no rows: %s", path)
	}

	header := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, padRow(rec, len(header)))
	}
	return header, rows, nil
}

func readXLSX(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("spreadsheet has no sheets: %s", path)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file contains no rows: %s", path)
	}

	header := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, padRow(rec, len(header)))
	}
	return header, rows, nil
}

// padRow aligns a record to the header width. Excel omits trailing empty
// cells; short records are padded, long ones truncated.
func padRow(rec []string, width int) []string {
	row := make([]string, width)
	copy(row, rec)
	return row
}

// NormalizeColumnName sanitizes a header cell for use as a SQL identifier.
func NormalizeColumnName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	return replacer.Replace(name)
}

// TableNameFromPath derives a table name from the file stem.
func TableNameFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return NormalizeColumnName(stem)
}

// inferColumnType picks the narrowest SQLite storage class that holds every
// non-empty value in the column. Empty cells are missing values and do not
// influence the choice; a column with no values at all stays TEXT.
func inferColumnType(rows [][]string, col int) string {
	seen := false
	allInt := true
	allReal := true
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		seen = true
		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if !allInt && allReal {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allReal = false
			}
		}
		if !allInt && !allReal {
			return TypeText
		}
	}
	switch {
	case !seen:
		return TypeText
	case allInt:
		return TypeInteger
	case allReal:
		return TypeReal
	default:
		return TypeText
	}
}
