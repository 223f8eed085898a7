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
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:     "tables",
	Short:   "List tables and row counts on the active backend",
	Example: `./tabular-context tables --backend sqlite --db-path data.db`,
	RunE:    runTables,
}

func runTables(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	registry, b, err := setupBackend(ctx)
	if err != nil {
		return err
	}
	defer registry.Clear()

	list, err := b.GetTablesList(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Rows"})
	for _, t := range list {
		table.Append([]string{t.Name, fmt.Sprintf("%d", t.Rows)})
	}
	table.Render()
	return nil
}
