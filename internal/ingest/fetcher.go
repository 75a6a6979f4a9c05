// Package ingest downloads, transforms, and persists dataset distributions.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"catmirror/internal/logger"
	"catmirror/internal/normalizer"
	"catmirror/internal/selector"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// ErrUnsafeIdentifier indicates an identifier that would escape the output
// directory when joined into a file name.
var ErrUnsafeIdentifier = errors.New("identifier not filesystem-safe")

// Processor executes the fetch → transform → persist step for one task.
type Processor interface {
	Process(ctx context.Context, task selector.Task) (path string, rows int, err error)
}

// Fetcher downloads a task's CSV distribution, normalizes its header, and
// writes the result under the output directory. Each task gets a single
// download attempt; a failed task is retried on the next run because its
// watermark never advances.
type Fetcher struct {
	client *http.Client
	log    *logger.Logger
	outDir string
}

// NewFetcher creates a fetcher writing into outDir.
func NewFetcher(outDir string, timeout time.Duration, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		log:    log,
		outDir: outDir,
	}
}

// Process ingests one task. The output path is derived deterministically
// from the normalized title and the identifier, so the same dataset always
// lands at the same path and distinct datasets never collide. The transform
// writes to a temp file that replaces prior content only on success, so a
// failed refresh never disturbs a previously mirrored artifact.
func (f *Fetcher) Process(ctx context.Context, task selector.Task) (string, int, error) {
	if strings.ContainsAny(task.Identifier, `/\`) {
		return "", 0, fmt.Errorf("%w: %q", ErrUnsafeIdentifier, task.Identifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.DownloadURL, http.NoBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/csv")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	outputPath := f.OutputPath(task)

	tmp, err := os.CreateTemp(f.outDir, filepath.Base(outputPath)+".tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp output file: %w", err)
	}

	tmpPath := tmp.Name()

	rows, err := transformCSV(resp.Body, tmp, f.log.With("identifier", task.Identifier))
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return "", 0, err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return "", 0, fmt.Errorf("failed to close output file: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)

		return "", 0, fmt.Errorf("failed to replace output file: %w", err)
	}

	return outputPath, rows, nil
}

// OutputPath returns the deterministic artifact location for a task:
// {outDir}/{snake(title)}-{identifier}.csv.
func (f *Fetcher) OutputPath(task selector.Task) string {
	name := normalizer.Snake(task.Title) + "-" + task.Identifier + ".csv"

	return filepath.Join(f.outDir, name)
}
