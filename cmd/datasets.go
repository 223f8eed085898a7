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

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend/bigquery"
)

var datasetsCmd = &cobra.Command{
	Use:     "datasets",
	Short:   "List BigQuery datasets in the configured project",
	Example: `./tabular-context datasets --backend bigquery --project my-project --dataset my_dataset`,
	RunE:    runDatasets,
}

func runDatasets(cmd *cobra.Command, args []string) error {
	if cfg.Backend != "bigquery" {
		return fmt.Errorf("datasets is only supported on the bigquery backend")
	}

	ctx := cmd.Context()
	registry, b, err := setupBackend(ctx)
	if err != nil {
		return err
	}
	defer registry.Clear()

	w, ok := b.(*bigquery.Warehouse)
	if !ok {
		return fmt.Errorf("active backend does not expose datasets")
	}
	datasets, err := w.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}
	for _, ds := range datasets {
		fmt.Println(ds)
	}
	return nil
}
