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

// Package backend defines the capability contract every storage adapter
// satisfies. The classifier and schema descriptor consume only this contract;
// they never touch a driver or client directly.
package backend

import "context"

// QueryResult is the uniform result of executing a query. Execution faults
// are converted into Success=false with Error set; they never propagate as
// raw errors past the adapter boundary.
type QueryResult struct {
	Success  bool
	Columns  []string
	Rows     [][]string
	RowCount int
	Error    string
}

// ColumnSchema describes one column of a table, including up to three
// sample values drawn from a bounded preview query.
type ColumnSchema struct {
	Name         string
	Type         string
	Nullable     bool
	PrimaryKey   bool
	SampleValues []string
}

// TableSchema describes one table reachable through the backend.
type TableSchema struct {
	Name     string
	RowCount int64
	Columns  []ColumnSchema
}

// ColumnSummary is the per-column fill-rate record consumed by the manual
// annotation UI. Columns with zero filled values are never emitted.
type ColumnSummary struct {
	Table   string
	Column  string
	Type    string
	Filled  int64
	Total   int64
	FillPct float64
	Samples []string
}

// TableCount pairs a table name with its row count.
type TableCount struct {
	Name string
	Rows int64
}

// Backend is the capability set shared by the local relational store and the
// cloud warehouse. One backend is active at a time; see Registry.
type Backend interface {
	// RunQuery executes a read statement and returns a structured result.
	// It never returns nil.
	RunQuery(ctx context.Context, query string) *QueryResult

	// GetSchemaInfo returns per-table column metadata with sample values.
	GetSchemaInfo(ctx context.Context) ([]TableSchema, error)

	// FormatSchemaForLLM renders the full Schema Document: table blocks,
	// column lines, and the cleaning-expressions section when any
	// numeric-as-text column was detected.
	FormatSchemaForLLM(ctx context.Context) (string, error)

	// GetColumnSummary returns fill-rate summaries for columns with at
	// least one non-null value. An empty tableName means all tables.
	GetColumnSummary(ctx context.Context, tableName string) ([]ColumnSummary, error)

	// GetTablesList returns every table with its row count.
	GetTablesList(ctx context.Context) ([]TableCount, error)

	// IsConnected reports whether the backend is ready for queries.
	IsConnected(ctx context.Context) bool

	// Type identifies the adapter: "sqlite" or "bigquery".
	Type() string

	Close() error
}
