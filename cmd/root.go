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
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend"
	"github.com/GoogleCloudPlatform/tabular-context/internal/backend/bigquery"
	"github.com/GoogleCloudPlatform/tabular-context/internal/backend/sqlitestore"
	"github.com/GoogleCloudPlatform/tabular-context/internal/config"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	// Flags
	cfgFile         string
	backendType     string
	dbPath          string
	projectID       string
	datasetID       string
	credentialsFile string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "tabular-context",
	Short: "Introspect tabular data and generate query-agent schema context",
	Long: `tabular-context loads delimited files into a local store or connects to a
cloud warehouse, detects numeric-as-text columns, and produces a schema
document with cleaning expressions for an automated query agent.`,
	PersistentPreRunE: initConfigAndLogger,
	SilenceUsage:      true,
}

func initConfigAndLogger(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Flags take precedence over config file and environment.
	if cmd.Flags().Changed("backend") {
		cfg.Backend = backendType
	}
	if cmd.Flags().Changed("db-path") {
		cfg.SQLite.Path = dbPath
	}
	if cmd.Flags().Changed("project") {
		cfg.BigQuery.ProjectID = projectID
	}
	if cmd.Flags().Changed("dataset") {
		cfg.BigQuery.DatasetID = datasetID
	}
	if cmd.Flags().Changed("credentials-file") {
		cfg.BigQuery.CredentialsFile = credentialsFile
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// setupBackend opens the configured backend and installs it in a fresh
// caller-owned registry. The caller releases it with registry.Clear().
func setupBackend(ctx context.Context) (*backend.Registry, backend.Backend, error) {
	registry := backend.NewRegistry(logger)

	var (
		b   backend.Backend
		err error
	)
	switch cfg.Backend {
	case "sqlite":
		b, err = sqlitestore.Open(cfg.SQLite.Path, logger)
	case "bigquery":
		b, err = bigquery.New(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID,
			cfg.BigQuery.CredentialsFile, logger)
	default:
		err = fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}

	registry.Set(b)
	return registry, b, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (optional, defaults to ./tabular-context.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendType, "backend", "sqlite", "Backend to use (sqlite, bigquery)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "data.db", "Path to the local SQLite database (sqlite backend)")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "", "Google Cloud project ID (bigquery backend)")
	rootCmd.PersistentFlags().StringVar(&datasetID, "dataset", "", "BigQuery dataset ID (bigquery backend)")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials-file", "", "Path to a service account key file (bigquery backend, optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(datasetsCmd)
}
