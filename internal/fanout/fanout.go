// Package fanout runs independent data fetches concurrently and joins them
// with an all-or-nothing outcome: every task runs to completion, and the batch
// succeeds only if every task did.
package fanout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"perkhub-analytics/internal/metrics"
	"perkhub-analytics/pkg/logging/logging"
)

// Task is one named fetch.
type Task struct {
	Name  string
	Fetch func(ctx context.Context) (any, error)
}

// Result is the outcome of a single task. Err is nil on success.
type Result struct {
	Task     string
	Value    any
	Err      error
	Duration time.Duration
}

// Failure is one failed task inside a FailureError.
type Failure struct {
	Task   string
	Reason string
}

// FailureError reports every failed task of a batch, in task order.
type FailureError struct {
	Failures []Failure
}

func (e *FailureError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Task + ": " + f.Reason
	}
	return "Database query failures: " + strings.Join(parts, ", ")
}

// Values holds the successful results of a batch keyed by task name.
type Values map[string]any

// Get returns the value of the named task as T.
func Get[T any](v Values, name string) (T, error) {
	var zero T
	raw, ok := v[name]
	if !ok {
		return zero, fmt.Errorf("fanout: no result for task %q", name)
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("fanout: task %q returned %T, want %T", name, raw, zero)
	}
	return typed, nil
}

// Settle runs every task concurrently and waits for all of them. One task
// failing never cancels the others. Results are returned in task order.
func Settle(ctx context.Context, tasks ...Task) []Result {
	results := make([]Result, len(tasks))

	// Plain Group, not WithContext: a failure must not cancel its siblings.
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = run(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Run settles the tasks and then judges the batch. If any task failed it
// returns a *FailureError listing all of them and no values.
func Run(ctx context.Context, tasks ...Task) (Values, error) {
	results := Settle(ctx, tasks...)

	var failures []Failure
	values := make(Values, len(results))
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, Failure{Task: r.Task, Reason: r.Err.Error()})
			continue
		}
		values[r.Task] = r.Value
	}

	if len(failures) > 0 {
		return nil, &FailureError{Failures: failures}
	}
	return values, nil
}

func run(ctx context.Context, task Task) (res Result) {
	start := time.Now()
	res.Task = task.Name

	defer func() {
		if rec := recover(); rec != nil {
			res.Value = nil
			res.Err = fmt.Errorf("panic: %v", rec)
		}
		res.Duration = time.Since(start)

		outcome := "success"
		if res.Err != nil {
			outcome = "failure"
			logging.L(ctx).Warn("fanout_task_failed",
				zap.String("task", task.Name),
				zap.Duration("duration", res.Duration),
				zap.Error(res.Err),
			)
		}
		metrics.FanOutTaskSeconds.WithLabelValues(task.Name, outcome).Observe(res.Duration.Seconds())
	}()

	if task.Fetch == nil {
		res.Err = fmt.Errorf("no fetch function")
		return res
	}

	res.Value, res.Err = task.Fetch(ctx)
	if res.Err != nil {
		res.Value = nil
	}
	return res
}
