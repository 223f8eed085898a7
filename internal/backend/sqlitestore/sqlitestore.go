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

// Package sqlitestore implements the backend contract on an on-disk SQLite
// store. Loading a table replaces it wholesale; queries run synchronously
// against the local engine.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend"
	"github.com/GoogleCloudPlatform/tabular-context/internal/classify"
	"github.com/GoogleCloudPlatform/tabular-context/internal/describe"
	"github.com/GoogleCloudPlatform/tabular-context/internal/loader"
)

const (
	// sampleRowLimit bounds the preview query used for sample values.
	sampleRowLimit = 3
	// summarySampleLimit bounds distinct samples in the column summary.
	summarySampleLimit = 5
)

// Store is the local relational backend.
type Store struct {
	db         *sql.DB
	path       string
	classifier *classify.Classifier
	logger     *zap.Logger
}

var _ backend.Backend = (*Store)(nil)

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	s := &Store{db: db, path: path, logger: logger}
	s.classifier = classify.New(classify.Options{
		Quote:     quoteIdentifier,
		CastType:  "REAL",
		TextTypes: []string{"TEXT"},
	}, logger)
	return s, nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Store) Type() string { return "sqlite" }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadTable persists t, replacing any existing table of the same name.
// Empty cells are stored as NULL. Returns the number of rows written.
func (s *Store) LoadTable(ctx context.Context, t *loader.Table) (int64, error) {
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("table %q has no columns", t.Name)
	}

	defs := make([]string, len(t.Columns))
	placeholders := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdentifier(col.Name), col.Type)
		placeholders[i] = "?"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	quotedTable := quoteIdentifier(t.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quotedTable); err != nil {
		return 0, fmt.Errorf("failed to drop existing table: %w", err)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quotedTable, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("failed to create table: %w", err)
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quotedTable, strings.Join(placeholders, ", "))
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for _, row := range t.Rows {
		for i := range t.Columns {
			if i < len(row) && row[i] != "" {
				args[i] = row[i]
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit load: %w", err)
	}

	s.logger.Info("table loaded",
		zap.String("table", t.Name),
		zap.Int("rows", len(t.Rows)),
	)
	return int64(len(t.Rows)), nil
}

// RunQuery executes a statement and converts any fault into a structured
// failure result.
func (s *Store) RunQuery(ctx context.Context, query string) *backend.QueryResult {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return &backend.QueryResult{Success: false, Error: err.Error()}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return &backend.QueryResult{Success: false, Error: err.Error()}
	}

	var out [][]string
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return &backend.QueryResult{Success: false, Error: err.Error()}
		}
		rec := make([]string, len(cols))
		for i, v := range raw {
			rec[i] = stringifyValue(v)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return &backend.QueryResult{Success: false, Error: err.Error()}
	}

	return &backend.QueryResult{
		Success:  true,
		Columns:  cols,
		Rows:     out,
		RowCount: len(out),
	}
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// GetSchemaInfo returns metadata for every table, with up to three sample
// values per column drawn from a bounded preview query.
func (s *Store) GetSchemaInfo(ctx context.Context) ([]backend.TableSchema, error) {
	tables, err := s.listTableNames(ctx)
	if err != nil {
		return nil, err
	}

	schema := make([]backend.TableSchema, 0, len(tables))
	for _, table := range tables {
		ts, err := s.tableSchema(ctx, table)
		if err != nil {
			// Transient per-table failures skip the table, never the sweep.
			s.logger.Warn("failed to introspect table; skipping",
				zap.String("table", table), zap.Error(err))
			continue
		}
		schema = append(schema, ts)
	}
	return schema, nil
}

func (s *Store) listTableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *Store) tableSchema(ctx context.Context, table string) (backend.TableSchema, error) {
	quoted := quoteIdentifier(table)

	var rowCount int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoted).Scan(&rowCount); err != nil {
		return backend.TableSchema{}, fmt.Errorf("failed to count rows: %w", err)
	}

	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return backend.TableSchema{}, err
	}

	preview := s.RunQuery(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, sampleRowLimit))
	if preview.Success {
		for ci := range cols {
			var samples []string
			for _, row := range preview.Rows {
				if ci < len(row) && row[ci] != "" {
					samples = append(samples, row[ci])
				}
			}
			if len(samples) > sampleRowLimit {
				samples = samples[:sampleRowLimit]
			}
			cols[ci].SampleValues = samples
		}
	}

	return backend.TableSchema{Name: table, RowCount: rowCount, Columns: cols}, nil
}

func (s *Store) tableColumns(ctx context.Context, table string) ([]backend.ColumnSchema, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	var cols []backend.ColumnSchema
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   sql.NullString
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		declared := ctype.String
		if declared == "" {
			declared = "TEXT"
		}
		cols = append(cols, backend.ColumnSchema{
			Name:       name,
			Type:       declared,
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		})
	}
	return cols, rows.Err()
}

// GetColumnSummary reports fill rates per column. Columns where every value
// is NULL or an empty string are omitted.
func (s *Store) GetColumnSummary(ctx context.Context, tableName string) ([]backend.ColumnSummary, error) {
	var tables []string
	if tableName != "" {
		tables = []string{tableName}
	} else {
		var err error
		tables, err = s.listTableNames(ctx)
		if err != nil {
			return nil, err
		}
	}

	var results []backend.ColumnSummary
	for _, table := range tables {
		quotedTable := quoteIdentifier(table)
		cols, err := s.tableColumns(ctx, table)
		if err != nil {
			s.logger.Warn("failed to summarize table; skipping",
				zap.String("table", table), zap.Error(err))
			continue
		}

		var total int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quotedTable).Scan(&total); err != nil {
			s.logger.Warn("failed to count rows; skipping table",
				zap.String("table", table), zap.Error(err))
			continue
		}

		for _, col := range cols {
			quotedCol := quoteIdentifier(col.Name)

			var filled int64
			filledQuery := fmt.Sprintf(
				"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND TRIM(%s) != ''",
				quotedTable, quotedCol, quotedCol)
			if err := s.db.QueryRowContext(ctx, filledQuery).Scan(&filled); err != nil {
				s.logger.Warn("fill-rate query failed; skipping column",
					zap.String("table", table),
					zap.String("column", col.Name),
					zap.Error(err))
				continue
			}
			if filled == 0 {
				continue
			}

			sampleQuery := fmt.Sprintf(
				"SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL AND TRIM(%s) != '' LIMIT %d",
				quotedCol, quotedTable, quotedCol, quotedCol, summarySampleLimit)
			var samples []string
			if res := s.RunQuery(ctx, sampleQuery); res.Success {
				for _, row := range res.Rows {
					if len(row) > 0 {
						samples = append(samples, row[0])
					}
				}
			}

			fillPct := 0.0
			if total > 0 {
				fillPct = math.Round(float64(filled)/float64(total)*1000) / 10
			}
			results = append(results, backend.ColumnSummary{
				Table:   table,
				Column:  col.Name,
				Type:    col.Type,
				Filled:  filled,
				Total:   total,
				FillPct: fillPct,
				Samples: samples,
			})
		}
	}
	return results, nil
}

// GetTablesList returns every user table with its row count.
func (s *Store) GetTablesList(ctx context.Context) ([]backend.TableCount, error) {
	schema, err := s.GetSchemaInfo(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]backend.TableCount, 0, len(schema))
	for _, t := range schema {
		list = append(list, backend.TableCount{Name: t.Name, Rows: t.RowCount})
	}
	return list, nil
}

// FormatSchemaForLLM renders the Schema Document for every table, appending
// cleaning expressions for any numeric-as-text column detected.
func (s *Store) FormatSchemaForLLM(ctx context.Context) (string, error) {
	schema, err := s.GetSchemaInfo(ctx)
	if err != nil {
		return "", err
	}
	if len(schema) == 0 {
		return "No tables found in the database.", nil
	}

	findings, err := s.classifier.DetectNumericTextColumns(ctx, s)
	if err != nil {
		// Degrade to a document without the cleaning section.
		s.logger.Warn("numeric-text classification failed", zap.Error(err))
		findings = nil
	}

	return describe.Render(schema, findings, describe.Options{}), nil
}

// IsConnected reports whether the store is reachable and holds at least one
// loaded table.
func (s *Store) IsConnected(ctx context.Context) bool {
	if s.db == nil || s.db.PingContext(ctx) != nil {
		return false
	}
	tables, err := s.listTableNames(ctx)
	return err == nil && len(tables) > 0
}
