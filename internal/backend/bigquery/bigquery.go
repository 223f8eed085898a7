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

// Package bigquery implements the backend contract on a BigQuery dataset.
// The adapter is read-only and keeps no local cache: every schema
// description issues one metadata call plus one sample query per column
// against the remote engine, which is the dominant cost for wide tables.
package bigquery

import (
	"context"
	"fmt"
	"math"
	"strings"

	bq "cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend"
	"github.com/GoogleCloudPlatform/tabular-context/internal/classify"
	"github.com/GoogleCloudPlatform/tabular-context/internal/describe"
)

const sampleValueLimit = 3

// Warehouse is the cloud backend. It owns a credentialed session for
// exactly one project/dataset pair.
type Warehouse struct {
	client     *bq.Client
	projectID  string
	datasetID  string
	classifier *classify.Classifier
	logger     *zap.Logger
}

var _ backend.Backend = (*Warehouse)(nil)

// New connects to BigQuery. An empty credentialsFile falls back to
// application default credentials.
func New(ctx context.Context, projectID, datasetID, credentialsFile string, logger *zap.Logger) (*Warehouse, error) {
	if projectID == "" || datasetID == "" {
		return nil, fmt.Errorf("bigquery backend requires a project and dataset")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bq.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	w := &Warehouse{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		logger:    logger,
	}
	w.classifier = classify.New(classify.Options{
		Quote:     quoteIdentifier,
		TableRef:  func(table string) string { return "`" + w.fullTableID(table) + "`" },
		CastType:  "FLOAT64",
		TextTypes: []string{"STRING"},
	}, logger)
	return w, nil
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "") + "`"
}

// FullDatasetID returns the project-qualified dataset reference.
func (w *Warehouse) FullDatasetID() string {
	return w.projectID + "." + w.datasetID
}

func (w *Warehouse) fullTableID(table string) string {
	return w.FullDatasetID() + "." + table
}

func (w *Warehouse) Type() string { return "bigquery" }

func (w *Warehouse) Close() error { return w.client.Close() }

// isReadStatement gates queries to SELECT/WITH; the warehouse session is
// strictly read-only.
func isReadStatement(query string) bool {
	head := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(head, "SELECT") || strings.HasPrefix(head, "WITH")
}

// RunQuery executes a read statement against the dataset's project.
func (w *Warehouse) RunQuery(ctx context.Context, query string) *backend.QueryResult {
	if !isReadStatement(query) {
		return &backend.QueryResult{
			Success: false,
			Error:   "only SELECT statements are allowed on the BigQuery backend",
		}
	}

	it, err := w.client.Query(query).Read(ctx)
	if err != nil {
		return &backend.QueryResult{Success: false, Error: err.Error()}
	}

	var columns []string
	var out [][]string
	for {
		var row []bq.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return &backend.QueryResult{Success: false, Error: err.Error()}
		}
		if columns == nil {
			for _, field := range it.Schema {
				columns = append(columns, field.Name)
			}
		}
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = stringifyValue(v)
		}
		out = append(out, rec)
	}
	if columns == nil {
		for _, field := range it.Schema {
			columns = append(columns, field.Name)
		}
	}

	return &backend.QueryResult{
		Success:  true,
		Columns:  columns,
		Rows:     out,
		RowCount: len(out),
	}
}

func stringifyValue(v bq.Value) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}

// GetSchemaInfo lists the dataset's tables and fetches field metadata plus
// per-column samples live. A table whose metadata call fails is skipped;
// the rest of the description continues.
func (w *Warehouse) GetSchemaInfo(ctx context.Context) ([]backend.TableSchema, error) {
	var schema []backend.TableSchema
	it := w.client.Dataset(w.datasetID).Tables(ctx)
	for {
		table, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list tables in %s: %w", w.FullDatasetID(), err)
		}

		md, err := table.Metadata(ctx)
		if err != nil {
			w.logger.Warn("failed to fetch table metadata; skipping",
				zap.String("table", table.TableID), zap.Error(err))
			continue
		}

		cols := make([]backend.ColumnSchema, 0, len(md.Schema))
		for _, field := range md.Schema {
			cols = append(cols, backend.ColumnSchema{
				Name:     field.Name,
				Type:     string(field.Type),
				Nullable: !field.Required,
				// BigQuery has no traditional primary keys.
				PrimaryKey:   false,
				SampleValues: w.sampleValues(ctx, table.TableID, field.Name),
			})
		}

		schema = append(schema, backend.TableSchema{
			Name:     table.TableID,
			RowCount: int64(md.NumRows),
			Columns:  cols,
		})
	}
	return schema, nil
}

// sampleValues fetches up to three distinct non-null values for a column.
// Failures degrade to no samples.
func (w *Warehouse) sampleValues(ctx context.Context, table, column string) []string {
	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM `%s` WHERE %s IS NOT NULL LIMIT %d",
		quoteIdentifier(column), w.fullTableID(table), quoteIdentifier(column), sampleValueLimit)

	res := w.RunQuery(ctx, query)
	if !res.Success {
		w.logger.Warn("sample query failed",
			zap.String("table", table),
			zap.String("column", column),
			zap.String("error", res.Error))
		return nil
	}
	var samples []string
	for _, row := range res.Rows {
		if len(row) > 0 && row[0] != "" {
			samples = append(samples, row[0])
		}
	}
	return samples
}

// GetColumnSummary computes fill rates with one aggregate query per column.
// A failed query skips the column.
func (w *Warehouse) GetColumnSummary(ctx context.Context, tableName string) ([]backend.ColumnSummary, error) {
	schema, err := w.GetSchemaInfo(ctx)
	if err != nil {
		return nil, err
	}

	var results []backend.ColumnSummary
	for _, table := range schema {
		if tableName != "" && table.Name != tableName {
			continue
		}
		for _, col := range table.Columns {
			query := fmt.Sprintf(
				"SELECT COUNT(*) AS total, COUNTIF(%s IS NOT NULL) AS filled FROM `%s`",
				quoteIdentifier(col.Name), w.fullTableID(table.Name))
			res := w.RunQuery(ctx, query)
			if !res.Success || len(res.Rows) == 0 || len(res.Rows[0]) < 2 {
				w.logger.Warn("fill-rate query failed; skipping column",
					zap.String("table", table.Name),
					zap.String("column", col.Name),
					zap.String("error", res.Error))
				continue
			}

			total := parseCount(res.Rows[0][0])
			filled := parseCount(res.Rows[0][1])
			if filled == 0 {
				continue
			}
			fillPct := 0.0
			if total > 0 {
				fillPct = math.Round(float64(filled)/float64(total)*1000) / 10
			}

			results = append(results, backend.ColumnSummary{
				Table:   table.Name,
				Column:  col.Name,
				Type:    col.Type,
				Filled:  filled,
				Total:   total,
				FillPct: fillPct,
				Samples: col.SampleValues,
			})
		}
	}
	return results, nil
}

func parseCount(s string) int64 {
	var n int64
	fmt.Sscanf(s, "%d", &n)
	return n
}

// GetTablesList lists tables with row counts; a failed metadata call
// reports zero rows rather than dropping the table.
func (w *Warehouse) GetTablesList(ctx context.Context) ([]backend.TableCount, error) {
	var list []backend.TableCount
	it := w.client.Dataset(w.datasetID).Tables(ctx)
	for {
		table, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list tables in %s: %w", w.FullDatasetID(), err)
		}
		var rows int64
		if md, err := table.Metadata(ctx); err == nil {
			rows = int64(md.NumRows)
		}
		list = append(list, backend.TableCount{Name: table.TableID, Rows: rows})
	}
	return list, nil
}

// ListDatasets returns the project's dataset IDs for the UI selector.
func (w *Warehouse) ListDatasets(ctx context.Context) ([]string, error) {
	var datasets []string
	it := w.client.Datasets(ctx)
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list datasets: %w", err)
		}
		datasets = append(datasets, ds.DatasetID)
	}
	return datasets, nil
}

// FormatSchemaForLLM renders the Schema Document with BigQuery-specific
// preamble and dialect notes around the backend-agnostic table blocks.
func (w *Warehouse) FormatSchemaForLLM(ctx context.Context) (string, error) {
	schema, err := w.GetSchemaInfo(ctx)
	if err != nil {
		return "", err
	}
	if len(schema) == 0 {
		return fmt.Sprintf("No tables found in dataset %s.", w.datasetID), nil
	}

	findings, err := w.classifier.DetectNumericTextColumns(ctx, w)
	if err != nil {
		w.logger.Warn("numeric-text classification failed", zap.Error(err))
		findings = nil
	}

	preamble := strings.Join([]string{
		"BigQuery Dataset: " + w.FullDatasetID(),
		strings.Repeat("=", 60),
		"",
		"IMPORTANT: Use backticks for table references in queries:",
		fmt.Sprintf("  `%s.table_name`", w.FullDatasetID()),
	}, "\n")

	notes := strings.Join([]string{
		"== BIGQUERY SQL NOTES ==",
		"- Always use backticks for table names: `project.dataset.table`",
		"- Date functions: DATE_TRUNC, EXTRACT, FORMAT_DATE",
		"- Use SAFE_DIVIDE(a, b) to avoid division by zero errors",
		"- String functions: STARTS_WITH, ENDS_WITH, CONTAINS_SUBSTR",
		"- Aggregations work like standard SQL",
	}, "\n")

	return describe.Render(schema, findings, describe.Options{
		Preamble: preamble,
		Notes:    notes,
		TableRef: func(name string) string { return "`" + w.fullTableID(name) + "`" },
	}), nil
}

// IsConnected verifies credentials with a single bounded metadata call.
func (w *Warehouse) IsConnected(ctx context.Context) bool {
	it := w.client.Datasets(ctx)
	it.PageInfo().MaxSize = 1
	_, err := it.Next()
	return err == nil || err == iterator.Done
}
