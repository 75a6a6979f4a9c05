package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"catmirror/internal/selector"
)

// stubProcessor counts in-flight executions and fails selected identifiers.
type stubProcessor struct {
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	total    atomic.Int64
	fail     map[string]bool
	delay    time.Duration
}

func (s *stubProcessor) Process(_ context.Context, task selector.Task) (string, int, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	for {
		peak := s.maxSeen.Load()
		if current <= peak || s.maxSeen.CompareAndSwap(peak, current) {
			break
		}
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.total.Add(1)

	if s.fail[task.Identifier] {
		return "", 0, errors.New("boom")
	}

	return "/out/" + task.Identifier + ".csv", 3, nil
}

func makeTasks(n int) []selector.Task {
	tasks := make([]selector.Task, n)
	for i := range tasks {
		tasks[i] = selector.Task{
			Identifier: fmt.Sprintf("task-%d", i),
			Title:      fmt.Sprintf("Dataset %d", i),
			Modified:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	return tasks
}

func TestPool_Run_BoundedConcurrency(t *testing.T) {
	stub := &stubProcessor{delay: 20 * time.Millisecond}
	pool := NewPool(stub, 5, testLog)

	results := pool.Run(context.Background(), makeTasks(10))

	if len(results) != 10 {
		t.Fatalf("Expected 10 results, got %d", len(results))
	}

	if got := stub.total.Load(); got != 10 {
		t.Errorf("Expected 10 executions, got %d", got)
	}

	if peak := stub.maxSeen.Load(); peak > 5 {
		t.Errorf("Observed %d simultaneous executions, limit is 5", peak)
	}

	for _, result := range results {
		if !result.Success() {
			t.Errorf("Task %s unexpectedly failed: %v", result.Identifier, result.Err)
		}
	}
}

func TestPool_Run_FailureIsolation(t *testing.T) {
	stub := &stubProcessor{fail: map[string]bool{"task-1": true, "task-3": true}}
	pool := NewPool(stub, 2, testLog)

	results := pool.Run(context.Background(), makeTasks(5))

	if len(results) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(results))
	}

	for _, result := range results {
		shouldFail := result.Identifier == "task-1" || result.Identifier == "task-3"

		if shouldFail && result.Success() {
			t.Errorf("Task %s should have failed", result.Identifier)
		}

		if !shouldFail && !result.Success() {
			t.Errorf("Task %s should have succeeded, got %v", result.Identifier, result.Err)
		}
	}
}

func TestPool_Run_ResultOrderMatchesTasks(t *testing.T) {
	stub := &stubProcessor{delay: time.Millisecond}
	pool := NewPool(stub, 3, testLog)

	tasks := makeTasks(8)
	results := pool.Run(context.Background(), tasks)

	for i, result := range results {
		if result.Identifier != tasks[i].Identifier {
			t.Errorf("results[%d] = %s, want %s", i, result.Identifier, tasks[i].Identifier)
		}

		if !result.Modified.Equal(tasks[i].Modified) {
			t.Errorf("results[%d].Modified = %v, want %v", i, result.Modified, tasks[i].Modified)
		}
	}
}

func TestPool_Run_Empty(t *testing.T) {
	pool := NewPool(&stubProcessor{}, 4, testLog)

	if results := pool.Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestPool_Run_DuplicateIdentifiers(t *testing.T) {
	stub := &stubProcessor{}
	pool := NewPool(stub, 2, testLog)

	tasks := []selector.Task{
		{Identifier: "dup", Title: "First"},
		{Identifier: "dup", Title: "Second"},
	}

	results := pool.Run(context.Background(), tasks)

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	if !results[0].Success() {
		t.Errorf("First registration should run: %v", results[0].Err)
	}

	if results[1].Success() {
		t.Error("Duplicate registration should surface as a task failure")
	}
}
