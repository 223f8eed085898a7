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

	"github.com/GoogleCloudPlatform/tabular-context/internal/utils"
)

var describeOutFile string

var describeCmd = &cobra.Command{
	Use:     "describe",
	Short:   "Print the schema document for the active backend",
	Long:    `Generates the full schema document (tables, columns, sample values, and SQL cleaning expressions for numeric-as-text columns) and prints it or writes it to a file.`,
	Example: `./tabular-context describe --backend bigquery --project my-project --dataset my_dataset -o schema.txt`,
	RunE:    runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	registry, b, err := setupBackend(ctx)
	if err != nil {
		return err
	}
	defer registry.Clear()

	doc, err := b.FormatSchemaForLLM(ctx)
	if err != nil {
		return fmt.Errorf("failed to describe schema: %w", err)
	}

	if describeOutFile != "" {
		if err := utils.WriteStringToFile(doc, describeOutFile); err != nil {
			return err
		}
		fmt.Printf("Schema written to: %s\n", describeOutFile)
		return nil
	}
	fmt.Println(doc)
	return nil
}

func init() {
	describeCmd.Flags().StringVarP(&describeOutFile, "out_file", "o", "", "File path to save the schema document to (optional)")
}
