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

var queryCmd = &cobra.Command{
	Use:     "query <sql>",
	Short:   "Run a read query against the active backend",
	Example: `./tabular-context query "SELECT city, COUNT(*) FROM listings GROUP BY city"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	registry, b, err := setupBackend(ctx)
	if err != nil {
		return err
	}
	defer registry.Clear()

	res := b.RunQuery(ctx, args[0])
	if !res.Success {
		return fmt.Errorf("query failed: %s", res.Error)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(res.Columns)
	for _, row := range res.Rows {
		table.Append(row)
	}
	table.Render()
	fmt.Printf("%d row(s)\n", res.RowCount)
	return nil
}
