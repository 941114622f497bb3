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
Package main is the entry point for the pagecached demo server.

Pagecached Architecture Overview:
==================================

pagecached wires together the page buffer cache's components into a
running process:

  1. Storage Layer (internal/storage/disk):
     - FileManager: single-file page store; page ids are minted by the
       buffer pool manager and never reused

  2. Buffer Layer (internal/buffer):
     - Manager: the buffer pool manager, backed by the LRU-K replacer

  3. Replacer (internal/replacer):
     - LRUK: picks which resident page to evict when the pool is full

  4. Operational surface:
     - internal/metrics: Prometheus-text-format counters over HTTP
     - internal/health: liveness/readiness probes over HTTP

Startup Flow:
=============

  1. Load configuration from the environment
  2. Open the page file
  3. Construct the buffer pool manager
  4. Register health checks and the metrics stats source
  5. Start the metrics and health HTTP servers
  6. Run a short demonstration workload exercising eviction
  7. Block until SIGINT/SIGTERM, then shut down cleanly

Environment Variables:
======================

	PAGECACHE_POOL_SIZE     Number of frames in the buffer pool (default: 64)
	PAGECACHE_REPLACER_K    LRU-K history depth (default: 2)
	PAGECACHE_DATA_FILE     Path to the page file (default: pagecache.pcch)
	PAGECACHE_LOG_LEVEL     Log level: debug, info, warn, error (default: info)
	PAGECACHE_LOG_JSON      Enable JSON log output (default: false)
	PAGECACHE_METRICS_ADDR  Address for the metrics HTTP server (default: :9100)
	PAGECACHE_HEALTH_ADDR   Address for the health check HTTP server (default: :9095)
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pagecache/internal/banner"
	"pagecache/internal/buffer"
	"pagecache/internal/config"
	"pagecache/internal/health"
	"pagecache/internal/logging"
	"pagecache/internal/metrics"
	"pagecache/internal/storage/disk"
)

func main() {
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	banner.Print()
	banner.PrintConfig(cfg)

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)
	log := logging.NewLogger("main")

	log.Info("pagecached starting",
		"version", banner.Version,
		"pool_size", cfg.PoolSize,
		"replacer_k", cfg.ReplacerK,
		"data_file", cfg.DataFile,
	)

	fm, err := disk.Open(cfg.DataFile)
	if err != nil {
		log.Error("failed to open page file", "path", cfg.DataFile, "error", err)
		os.Exit(1)
	}
	defer fm.Close()

	mgr, err := buffer.NewManager(cfg.PoolSize, cfg.ReplacerK, fm, logging.NewLogger("buffer"))
	if err != nil {
		log.Error("failed to construct buffer pool manager", "error", err)
		os.Exit(1)
	}

	metrics.Get().SetSource(buffer.NewStatsSource(mgr))

	checker := health.NewChecker(banner.Version)
	checker.RegisterCheck("disk", health.DiskCheck(func() error {
		return fm.Sync()
	}))
	checker.RegisterCheck("pool", health.PoolUtilizationCheck(func() float64 {
		s := mgr.Stats()
		if s.PoolSize == 0 {
			return 0
		}
		return float64(s.PinnedFrames) / float64(s.PoolSize)
	}, 0.9))

	metricsSrv := metrics.NewServer(cfg.Metrics())
	if err := metricsSrv.Start(); err != nil {
		log.Error("failed to start metrics server", "error", err)
		os.Exit(1)
	}

	healthSrv := health.NewServer(&health.Config{Enabled: true, Addr: cfg.HealthAddr}, checker)
	if err := healthSrv.Start(); err != nil {
		log.Error("failed to start health server", "error", err)
		os.Exit(1)
	}

	runDemoWorkload(mgr, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("pagecached ready", "metrics_addr", cfg.MetricsAddr, "health_addr", cfg.HealthAddr)
	fmt.Println()
	fmt.Println("  pagecached is running. Press Ctrl+C to stop.")
	fmt.Println()

	sig := <-sigChan
	log.Info("received shutdown signal", "signal", sig.String())

	mgr.FlushAllPages()
	if err := metricsSrv.Stop(); err != nil {
		log.Error("error stopping metrics server", "error", err)
	}
	if err := healthSrv.Stop(); err != nil {
		log.Error("error stopping health server", "error", err)
	}
	log.Info("pagecached stopped")
}

// runDemoWorkload allocates more pages than the pool can hold resident at
// once, forcing the LRU-K replacer to evict, then reports the resulting
// pool statistics. It exists to give a freshly started pagecached process
// something to show on /metrics without requiring a separate client.
func runDemoWorkload(mgr *buffer.Manager, log *logging.Logger) {
	pageCount := mgr.PoolSize()*2 + 1
	ids := make([]int32, 0, pageCount)

	for i := 0; i < pageCount; i++ {
		p, err := mgr.NewPage()
		if err != nil {
			log.Error("demo workload: NewPage failed", "error", err)
			return
		}
		if p == nil {
			log.Warn("demo workload: pool exhausted", "iteration", i)
			break
		}
		copy(p.Data(), []byte(fmt.Sprintf("demo-page-%d", i)))
		ids = append(ids, int32(p.ID()))
		mgr.UnpinPage(p.ID(), true)
	}

	stats := mgr.Stats()
	log.Info("demo workload complete",
		"pages_written", len(ids),
		"evictions", stats.Evictions,
		"dirty_writebacks", stats.DirtyWritebacks,
		"hits", stats.Hits,
		"misses", stats.Misses,
	)
}
