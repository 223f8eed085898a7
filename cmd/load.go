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
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend/sqlitestore"
	"github.com/GoogleCloudPlatform/tabular-context/internal/loader"
	"github.com/GoogleCloudPlatform/tabular-context/internal/normalize"
)

var loadTableName string

var loadCmd = &cobra.Command{
	Use:     "load <file>",
	Short:   "Load a CSV or spreadsheet file into the local store",
	Long:    `Reads a CSV/XLS/XLSX file, normalizes column names and known date formats, and replaces the target table in the local SQLite store.`,
	Example: `./tabular-context load listings.csv --table listings --db-path data.db`,
	Args:    cobra.ExactArgs(1),
	RunE:    runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	if cfg.Backend != "sqlite" {
		return fmt.Errorf("load is only supported on the sqlite backend")
	}

	ctx := cmd.Context()
	table, err := loader.New(logger).Load(args[0], loadTableName)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}

	normalize.DateColumns(table, logger)

	store, err := sqlitestore.Open(cfg.SQLite.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.LoadTable(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to persist table: %w", err)
	}

	fmt.Printf("Loaded %d rows into table %q (%s)\n", rows, table.Name, cfg.SQLite.Path)
	return nil
}

func init() {
	loadCmd.Flags().StringVarP(&loadTableName, "table", "t", "", "Target table name (defaults to the file name)")
}
