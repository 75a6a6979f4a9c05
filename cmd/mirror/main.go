// Package main provides the catalog mirror command: one incremental pass of
// fetch listing → select changes → ingest → commit watermarks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"catmirror/internal/config"
	"catmirror/internal/logger"
	"catmirror/internal/runner"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional, flags override it)")
	metastoreURL := flag.String("metastore-url", "", "Catalog listing endpoint (default: CMS provider-data metastore)")
	checkpointPath := flag.String("checkpoint", "", "Checkpoint file path (default: metadata.json)")
	outputDir := flag.String("output-dir", "", "Directory for processed CSV artifacts (default: processed_csv)")
	theme := flag.String("theme", "", "Topical filter matched against dataset themes (default: Hospitals)")
	workers := flag.Int("workers", 0, "Maximum concurrent ingestion tasks (default: 5)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (default: info)")
	logFormat := flag.String("log-format", "", "Log format: text or json (default: text)")

	flag.Parse()

	cfg := config.DefaultConfig()

	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		cfg = loaded
	}

	// Flags beat config file values.
	if *metastoreURL != "" {
		cfg.Mirror.Metastore.URL = *metastoreURL
	}

	if *checkpointPath != "" {
		cfg.Mirror.Checkpoint.Path = *checkpointPath
	}

	if *outputDir != "" {
		cfg.Mirror.Output.Dir = *outputDir
	}

	if *theme != "" {
		cfg.Mirror.Filter.Theme = *theme
	}

	if *workers > 0 {
		cfg.Mirror.Workers = *workers
	}

	if *logLevel != "" {
		cfg.Mirror.Logging.Level = *logLevel
	}

	if *logFormat != "" {
		cfg.Mirror.Logging.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Mirror.Logging.Level, cfg.Mirror.Logging.Format)

	log.Info("starting catalog mirror run",
		"metastore", cfg.Mirror.Metastore.URL,
		"theme", cfg.Mirror.Filter.Theme,
		"workers", cfg.Mirror.Workers,
	)

	r, err := runner.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	summary, err := r.Run(context.Background())
	if err != nil {
		log.Error("run aborted", "error", err)
		os.Exit(1)
	}

	fmt.Print(summary.Render())

	if summary.AnyFailed() {
		os.Exit(1)
	}
}
