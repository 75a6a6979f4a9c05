package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/bpradana/weave"

	"catmirror/internal/logger"
	"catmirror/internal/selector"
)

// Result is the outcome of one ingestion task. Err is nil on success; the
// orchestrator advances a watermark only for nil-Err results.
type Result struct {
	Identifier string
	Modified   time.Time
	Path       string
	Rows       int
	Err        error
}

// Success reports whether the task completed.
func (r Result) Success() bool {
	return r.Err == nil
}

// Pool executes ingestion tasks with bounded parallelism. Tasks are fully
// independent; one task's failure never aborts its siblings.
type Pool struct {
	processor Processor
	log       *logger.Logger
	limit     int
}

// NewPool creates a pool running at most limit tasks simultaneously.
func NewPool(processor Processor, limit int, log *logger.Logger) *Pool {
	if limit < 1 {
		limit = 1
	}

	return &Pool{
		processor: processor,
		log:       log,
		limit:     limit,
	}
}

type taskOutput struct {
	path string
	rows int
}

// Run executes all tasks and returns exactly one result per task, in the
// order the tasks were given. Completion order is unconstrained.
func (p *Pool) Run(ctx context.Context, tasks []selector.Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))
	handles := make([]*weave.Handle[taskOutput], len(tasks))
	graph := weave.NewGraph()

	for i, task := range tasks {
		task := task

		handle, err := weave.AddTask(graph, task.Identifier, func(ctx context.Context, _ weave.DependencyResolver) (taskOutput, error) {
			path, rows, err := p.processor.Process(ctx, task)
			if err != nil {
				return taskOutput{}, err
			}

			return taskOutput{path: path, rows: rows}, nil
		})
		if err != nil {
			// Duplicate identifier in the listing; the run continues.
			results[i] = Result{
				Identifier: task.Identifier,
				Modified:   task.Modified,
				Err:        fmt.Errorf("failed to register task: %w", err),
			}

			continue
		}

		handles[i] = handle
	}

	hooks := weave.Hooks{
		OnStart: func(_ context.Context, event weave.TaskEvent) {
			p.log.Debug("ingestion started", "identifier", event.Metadata.ID)
		},
		OnSuccess: func(_ context.Context, event weave.TaskEvent) {
			p.log.Debug("ingestion succeeded",
				"identifier", event.Metadata.ID,
				"duration", event.Metrics.Duration,
			)
		},
		OnFailure: func(_ context.Context, event weave.TaskEvent) {
			p.log.Warn("ingestion failed",
				"identifier", event.Metadata.ID,
				"error", event.Metrics.Error,
			)
		},
	}

	// ContinueOnError keeps sibling tasks running past failures; the
	// fixed-size dispatcher enforces the concurrency budget.
	res, _, _ := graph.Run(ctx,
		weave.WithErrorStrategy(weave.ContinueOnError),
		weave.WithDispatcher(weave.NewWorkerPoolDispatcher(p.limit)),
		weave.WithGlobalHooks(hooks),
	)

	for i, handle := range handles {
		if handle == nil {
			continue
		}

		output, err := handle.Value(res)
		results[i] = Result{
			Identifier: tasks[i].Identifier,
			Modified:   tasks[i].Modified,
			Path:       output.path,
			Rows:       output.rows,
			Err:        err,
		}
	}

	return results
}
