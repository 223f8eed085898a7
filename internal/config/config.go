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
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. Values come from, in
// increasing precedence: defaults, an optional config file, TCE_-prefixed
// environment variables, and command-line flags (applied by the cmd layer).
type Config struct {
	// Backend selects the active adapter: "sqlite" or "bigquery".
	Backend  string         `mapstructure:"backend"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	BigQuery BigQueryConfig `mapstructure:"bigquery"`
	Verbose  bool           `mapstructure:"verbose"`
}

// SQLiteConfig configures the local relational store.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// BigQueryConfig configures the cloud warehouse session.
type BigQueryConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	DatasetID       string `mapstructure:"dataset_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Load reads configuration. cfgFile may be empty, in which case an optional
// tabular-context.yaml in the working directory is used if present.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("backend", "sqlite")
	v.SetDefault("sqlite.path", "data.db")
	v.SetDefault("verbose", false)
	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("bigquery.project_id", "")
	v.SetDefault("bigquery.dataset_id", "")
	v.SetDefault("bigquery.credentials_file", "")

	v.SetEnvPrefix("TCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("tabular-context")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite backend requires a database path")
		}
	case "bigquery":
		if c.BigQuery.ProjectID == "" || c.BigQuery.DatasetID == "" {
			return fmt.Errorf("bigquery backend requires a project and dataset")
		}
	default:
		return fmt.Errorf("unsupported backend: %s (only sqlite, bigquery are supported)", c.Backend)
	}
	return nil
}
