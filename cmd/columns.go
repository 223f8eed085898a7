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
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var columnsTableName string

var columnsCmd = &cobra.Command{
	Use:     "columns",
	Short:   "Show per-column fill rates and sample values",
	Long:    `Summarizes every column with at least one non-null value: fill percentage and up to five distinct samples. Used to prepare manual column annotations.`,
	Example: `./tabular-context columns --table listings`,
	RunE:    runColumns,
}

func runColumns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	registry, b, err := setupBackend(ctx)
	if err != nil {
		return err
	}
	defer registry.Clear()

	summaries, err := b.GetColumnSummary(ctx, columnsTableName)
	if err != nil {
		return fmt.Errorf("failed to summarize columns: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Column", "Type", "Filled", "Total", "Fill %", "Samples"})
	for _, s := range summaries {
		table.Append([]string{
			s.Table,
			s.Column,
			s.Type,
			fmt.Sprintf("%d", s.Filled),
			fmt.Sprintf("%d", s.Total),
			fmt.Sprintf("%.1f", s.FillPct),
			strings.Join(s.Samples, ", "),
		})
	}
	table.Render()
	return nil
}

func init() {
	columnsCmd.Flags().StringVarP(&columnsTableName, "table", "t", "", "Restrict the summary to one table (optional)")
}
