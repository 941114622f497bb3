/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides environment-variable configuration for the page
buffer cache.

Configuration sources, in precedence order:
 1. Environment variables
 2. Default values

Example:

	PAGECACHE_POOL_SIZE=64
	PAGECACHE_REPLACER_K=2
	PAGECACHE_DATA_FILE=/var/lib/pagecache/data.pcch
	PAGECACHE_LOG_LEVEL=info
	PAGECACHE_LOG_JSON=false
	PAGECACHE_METRICS_ADDR=:9100
	PAGECACHE_HEALTH_ADDR=:9095
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvPoolSize    = "PAGECACHE_POOL_SIZE"
	EnvReplacerK   = "PAGECACHE_REPLACER_K"
	EnvDataFile    = "PAGECACHE_DATA_FILE"
	EnvLogLevel    = "PAGECACHE_LOG_LEVEL"
	EnvLogJSON     = "PAGECACHE_LOG_JSON"
	EnvMetricsAddr = "PAGECACHE_METRICS_ADDR"
	EnvHealthAddr  = "PAGECACHE_HEALTH_ADDR"
)

// Config holds all configuration values for the buffer cache.
type Config struct {
	PoolSize    int    // number of frames in the buffer pool
	ReplacerK   int    // history depth for the LRU-K eviction policy
	DataFile    string // path to the on-disk page file
	LogLevel    string
	LogJSON     bool
	MetricsAddr string
	HealthAddr  string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:    64,
		ReplacerK:   2,
		DataFile:    "pagecache.pcch",
		LogLevel:    "info",
		LogJSON:     false,
		MetricsAddr: ":9100",
		HealthAddr:  ":9095",
	}
}

// LoadFromEnv returns a Config built from DefaultConfig with any set
// environment variables applied on top.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvPoolSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolSize = n
		}
	}
	if v := os.Getenv(EnvReplacerK); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReplacerK = n
		}
	}
	if v := os.Getenv(EnvDataFile); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogJSON = b
		}
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv(EnvHealthAddr); v != "" {
		cfg.HealthAddr = v
	}

	return cfg
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	if c.PoolSize <= 0 {
		errs = append(errs, fmt.Sprintf("invalid pool_size: %d (must be positive)", c.PoolSize))
	}
	if c.ReplacerK <= 0 {
		errs = append(errs, fmt.Sprintf("invalid replacer_k: %d (must be positive)", c.ReplacerK))
	}
	if c.DataFile == "" {
		errs = append(errs, "data_file cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, fmt.Sprintf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// MetricsConfig configures the Prometheus-text metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// Metrics returns the metrics server configuration derived from c.
func (c *Config) Metrics() *MetricsConfig {
	return &MetricsConfig{
		Enabled: c.MetricsAddr != "",
		Addr:    c.MetricsAddr,
	}
}
