// Package runner orchestrates one mirror run end to end.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"catmirror/internal/catalog"
	"catmirror/internal/checkpoint"
	"catmirror/internal/config"
	"catmirror/internal/ingest"
	"catmirror/internal/logger"
	"catmirror/internal/objectstore"
	"catmirror/internal/report"
	"catmirror/internal/selector"
)

// Runner wires the pipeline: load checkpoint → fetch catalog → select
// changes → run the worker pool → commit the checkpoint for successes.
type Runner struct {
	cfg      *config.Config
	log      *logger.Logger
	catalog  *catalog.Client
	store    *checkpoint.FileStore
	pool     *ingest.Pool
	uploader *objectstore.Uploader
}

// New builds a runner from validated configuration.
func New(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	timeout := cfg.Mirror.Metastore.Timeout()
	fetcher := ingest.NewFetcher(cfg.Mirror.Output.Dir, timeout, log)

	runner := &Runner{
		cfg:     cfg,
		log:     log,
		catalog: catalog.NewClient(cfg.Mirror.Metastore.URL, timeout),
		store:   checkpoint.NewFileStore(cfg.Mirror.Checkpoint.Path),
		pool:    ingest.NewPool(fetcher, cfg.Mirror.Workers, log),
	}

	if cfg.Mirror.Upload.Enabled {
		uploader, err := objectstore.NewUploader(cfg.Mirror.Upload, log)
		if err != nil {
			return nil, err
		}

		runner.uploader = uploader
	}

	return runner, nil
}

// Run executes one mirror pass. The returned error is non-nil only for
// run-level failures (catalog fetch, checkpoint I/O); individual task
// failures land in the summary instead and leave their watermarks
// untouched so the next run retries them.
func (r *Runner) Run(ctx context.Context) (*report.Summary, error) {
	start := time.Now()

	cp, err := r.store.Load()
	if err != nil {
		if !errors.Is(err, checkpoint.ErrCorrupt) {
			return nil, err
		}

		// Degrade rather than abort: the next save rewrites the full
		// in-memory state, so nothing beyond the lost watermarks is at risk.
		r.log.Warn("checkpoint file is corrupt, starting from an empty checkpoint",
			"path", r.store.Path(),
			"error", err,
		)

		cp = checkpoint.Checkpoint{}
	}

	r.log.Info("fetching catalog listing", "url", r.cfg.Mirror.Metastore.URL)

	descriptors, err := r.catalog.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	r.log.Info("fetched catalog listing", "datasets", len(descriptors))

	tasks := selector.SelectChanges(descriptors, cp, r.cfg.Mirror.Filter.Theme, r.log)

	summary := &report.Summary{Selected: len(tasks)}

	if len(tasks) == 0 {
		r.log.Info("no new datasets to download")
		summary.Duration = time.Since(start)

		return summary, nil
	}

	r.log.Info("ingesting changed datasets", "count", len(tasks), "workers", r.cfg.Mirror.Workers)

	if err := os.MkdirAll(r.cfg.Mirror.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := r.pool.Run(ctx, tasks)

	var succeeded []ingest.Result

	for _, result := range results {
		if result.Success() {
			cp[result.Identifier] = result.Modified.Format(selector.DateLayout)
			succeeded = append(succeeded, result)
			summary.Succeeded++

			r.log.Info("processed and saved dataset",
				"identifier", result.Identifier,
				"path", result.Path,
				"rows", result.Rows,
			)

			continue
		}

		summary.Failed++
		summary.Failures = append(summary.Failures, report.Failure{
			Identifier: result.Identifier,
			Reason:     result.Err.Error(),
		})
	}

	if err := r.store.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to commit checkpoint: %w", err)
	}

	r.upload(ctx, succeeded)

	summary.Duration = time.Since(start)

	return summary, nil
}

// upload mirrors successful artifacts to object storage when enabled. It
// runs after the checkpoint commit; failures are warnings only.
func (r *Runner) upload(ctx context.Context, results []ingest.Result) {
	if r.uploader == nil || len(results) == 0 {
		return
	}

	if err := r.uploader.EnsureBucket(ctx); err != nil {
		r.log.Warn("skipping artifact upload", "error", err)

		return
	}

	for _, result := range results {
		key, err := r.uploader.UploadFile(ctx, result.Path)
		if err != nil {
			r.log.Warn("artifact upload failed", "identifier", result.Identifier, "error", err)

			continue
		}

		r.log.Info("uploaded artifact", "identifier", result.Identifier, "key", key)
	}
}
