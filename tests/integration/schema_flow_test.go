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
package integration_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend"
	"github.com/GoogleCloudPlatform/tabular-context/internal/backend/sqlitestore"
	"github.com/GoogleCloudPlatform/tabular-context/internal/loader"
	"github.com/GoogleCloudPlatform/tabular-context/internal/normalize"
)

const listingsCSV = `Listing ID,Published,Price Range,Neighborhood
1,"Diciembre 22, 2025, 12:00 a. m.","$1,200 - $3,400",Chapinero
2,"Enero 5, 2026, 2:30 p. m.",Desde $990,Usaquén
3,"Marzo 14, 2026, 11:45 a. m.","$2,500",La Candelaria
4,"Abril 1, 2026, 9:05 p. m.","$1,800 - $2,200",Chapinero
`

func writeListingsCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monthly listings.csv")
	require.NoError(t, os.WriteFile(path, []byte(listingsCSV), 0o644))
	return path
}

func TestCSVToSchemaDocumentFlow(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	path := writeListingsCSV(t)

	table, err := loader.New(logger).Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "monthly_listings", table.Name)
	require.Len(t, table.Columns, 4)
	assert.Equal(t, "listing_id", table.Columns[0].Name)
	assert.Equal(t, "price_range", table.Columns[2].Name)

	normalize.DateColumns(table, logger)
	assert.Equal(t, "2025-12-22 00:00:00", table.Rows[0][1])
	assert.Equal(t, "2026-01-05 14:30:00", table.Rows[1][1])

	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "flow.db"), logger)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.LoadTable(ctx, table)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	doc, err := store.FormatSchemaForLLM(ctx)
	require.NoError(t, err)

	assert.Contains(t, doc, "Table: monthly_listings (4 rows)")
	assert.Contains(t, doc, "2025-12-22 00:00:00")
	assert.Contains(t, doc, "## SQL Cleaning Expressions")
	assert.Contains(t, doc, "Column: price_range  (table: monthly_listings)")
	assert.Contains(t, doc, "NEVER use plain ORDER BY on the original text column.")
	// Normalized dates must not be mistaken for numeric text.
	assert.NotContains(t, doc, "Column: published")
}

func TestFindingDrivesRealQueries(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	table, err := loader.New(logger).Load(writeListingsCSV(t), "listings")
	require.NoError(t, err)
	normalize.DateColumns(table, logger)

	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "q.db"), logger)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.LoadTable(ctx, table)
	require.NoError(t, err)

	doc, err := store.FormatSchemaForLLM(ctx)
	require.NoError(t, err)

	// Pull the min expression straight out of the rendered document the way
	// a downstream agent would, and run it.
	lines := strings.Split(doc, "\n")
	var expr string
	for i, line := range lines {
		if line == "  Expression for MINIMUM numeric value:" {
			expr = strings.TrimSpace(lines[i+1])
			break
		}
	}
	require.NotEmpty(t, expr, "document should carry a minimum expression")

	res := store.RunQuery(ctx, fmt.Sprintf(
		`SELECT "neighborhood" FROM "listings" ORDER BY %s LIMIT 1`, expr))
	require.True(t, res.Success, res.Error)
	require.Equal(t, 1, res.RowCount)
	// Desde $990 is the cheapest listing once the text is cleaned.
	assert.Equal(t, "Usaquén", res.Rows[0][0])
}

func TestRegistrySwitchesBackends(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	reg := backend.NewRegistry(logger)

	require.False(t, reg.IsConfigured(ctx))

	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "reg.db"), logger)
	require.NoError(t, err)
	reg.Set(store)

	active, ok := reg.Active()
	require.True(t, ok)
	assert.Equal(t, "sqlite", active.Type())
	// An empty store is connected at the driver level but not usable yet.
	assert.False(t, reg.IsConfigured(ctx))

	table, err := loader.New(logger).Load(writeListingsCSV(t), "")
	require.NoError(t, err)
	_, err = store.LoadTable(ctx, table)
	require.NoError(t, err)
	assert.True(t, reg.IsConfigured(ctx))

	reg.Clear()
	_, ok = reg.Active()
	assert.False(t, ok)
	// Clear closed the store; further queries fail cleanly.
	res := store.RunQuery(ctx, "SELECT 1")
	assert.False(t, res.Success)
}
