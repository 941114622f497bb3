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

package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PoolSize != 64 {
		t.Errorf("Expected default pool_size 64, got %d", cfg.PoolSize)
	}
	if cfg.ReplacerK != 2 {
		t.Errorf("Expected default replacer_k 2, got %d", cfg.ReplacerK)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log_level 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.LogJSON != false {
		t.Errorf("Expected default log_json false, got %v", cfg.LogJSON)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("Expected default metrics_addr ':9100', got '%s'", cfg.MetricsAddr)
	}
	if cfg.HealthAddr != ":9095" {
		t.Errorf("Expected default health_addr ':9095', got '%s'", cfg.HealthAddr)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"zero pool size", func(c *Config) { c.PoolSize = 0 }, true},
		{"negative pool size", func(c *Config) { c.PoolSize = -1 }, true},
		{"zero replacer k", func(c *Config) { c.ReplacerK = 0 }, true},
		{"empty data file", func(c *Config) { c.DataFile = "" }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvPoolSize, "128")
	t.Setenv(EnvReplacerK, "3")
	t.Setenv(EnvDataFile, "/tmp/custom.pcch")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogJSON, "true")
	t.Setenv(EnvHealthAddr, ":9200")

	cfg := LoadFromEnv()

	if cfg.PoolSize != 128 {
		t.Errorf("PoolSize = %d; want 128", cfg.PoolSize)
	}
	if cfg.ReplacerK != 3 {
		t.Errorf("ReplacerK = %d; want 3", cfg.ReplacerK)
	}
	if cfg.DataFile != "/tmp/custom.pcch" {
		t.Errorf("DataFile = %q; want /tmp/custom.pcch", cfg.DataFile)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want debug", cfg.LogLevel)
	}
	if !cfg.LogJSON {
		t.Errorf("LogJSON = false; want true")
	}
	if cfg.HealthAddr != ":9200" {
		t.Errorf("HealthAddr = %q; want :9200", cfg.HealthAddr)
	}
}

func TestLoadFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv(EnvPoolSize, "not-a-number")
	cfg := LoadFromEnv()
	if cfg.PoolSize != DefaultConfig().PoolSize {
		t.Errorf("PoolSize = %d; want default to survive malformed env var", cfg.PoolSize)
	}
}

func TestMetricsConfigDerivedFromAddr(t *testing.T) {
	cfg := DefaultConfig()
	m := cfg.Metrics()
	if !m.Enabled || m.Addr != ":9100" {
		t.Errorf("Metrics() = %+v; want enabled at default addr", m)
	}

	cfg.MetricsAddr = ""
	m = cfg.Metrics()
	if m.Enabled {
		t.Errorf("Metrics() = %+v; want disabled when addr is empty", m)
	}
}
