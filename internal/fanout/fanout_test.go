package fanout

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func value(v any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) { return v, nil }
}

func fail(reason string) func(context.Context) (any, error) {
	return func(context.Context) (any, error) { return nil, errors.New(reason) }
}

func TestRunAllSucceed(t *testing.T) {
	t.Parallel()

	values, err := Run(context.Background(),
		Task{Name: "Partners", Fetch: value(3)},
		Task{Name: "Users", Fetch: value("u")},
		Task{Name: "Deals", Fetch: value([]int{1, 2})},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(values))
	}

	n, err := Get[int](values, "Partners")
	if err != nil || n != 3 {
		t.Fatalf("Get[int]: %d, %v", n, err)
	}
	if _, err := Get[string](values, "Deals"); err == nil {
		t.Fatalf("expected type mismatch error")
	}
	if _, err := Get[int](values, "Missing"); err == nil {
		t.Fatalf("expected missing task error")
	}
}

func TestRunSingleFailure(t *testing.T) {
	t.Parallel()

	values, err := Run(context.Background(),
		Task{Name: "Partners", Fetch: value(1)},
		Task{Name: "Users", Fetch: value(2)},
		Task{Name: "Deals", Fetch: fail("timeout")},
		Task{Name: "Redemptions", Fetch: value(4)},
	)
	if values != nil {
		t.Fatalf("partial results must be discarded, got %v", values)
	}

	var ferr *FailureError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FailureError, got %T (%v)", err, err)
	}
	if got := err.Error(); got != "Database query failures: Deals: timeout" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestRunReportsEveryFailure(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(),
		Task{Name: "Partners", Fetch: fail("connection refused")},
		Task{Name: "Users", Fetch: value(2)},
		Task{Name: "Deals", Fetch: fail("timeout")},
	)

	var ferr *FailureError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FailureError, got %v", err)
	}
	if len(ferr.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(ferr.Failures))
	}
	msg := err.Error()
	for _, want := range []string{"Partners: connection refused", "Deals: timeout"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
	if strings.Index(msg, "Partners") > strings.Index(msg, "Deals") {
		t.Fatalf("failures should be listed in task order: %q", msg)
	}
}

func TestRunDoesNotShortCircuit(t *testing.T) {
	t.Parallel()

	var completed atomic.Int32
	slow := func(context.Context) (any, error) {
		time.Sleep(20 * time.Millisecond)
		completed.Add(1)
		return "done", nil
	}

	_, err := Run(context.Background(),
		Task{Name: "Fast", Fetch: fail("boom")},
		Task{Name: "Slow1", Fetch: slow},
		Task{Name: "Slow2", Fetch: slow},
	)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if completed.Load() != 2 {
		t.Fatalf("every task must run to completion, completed=%d", completed.Load())
	}
}

func TestSettleRunsConcurrently(t *testing.T) {
	t.Parallel()

	const n = 4
	gate := make(chan struct{})
	var arrived atomic.Int32

	task := func(context.Context) (any, error) {
		if arrived.Add(1) == n {
			close(gate)
		}
		select {
		case <-gate:
			return "ok", nil
		case <-time.After(time.Second):
			return nil, errors.New("tasks did not run concurrently")
		}
	}

	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Name: string(rune('A' + i)), Fetch: task}
	}

	for _, r := range Settle(context.Background(), tasks...) {
		if r.Err != nil {
			t.Fatalf("task %s: %v", r.Task, r.Err)
		}
	}
}

func TestSettleRecoversPanics(t *testing.T) {
	t.Parallel()

	results := Settle(context.Background(),
		Task{Name: "Boom", Fetch: func(context.Context) (any, error) { panic("kaboom") }},
		Task{Name: "Nil"},
		Task{Name: "Ok", Fetch: value(1)},
	)

	if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "kaboom") {
		t.Fatalf("expected recovered panic, got %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatalf("expected error for task without fetch")
	}
	if results[2].Err != nil || results[2].Value != 1 {
		t.Fatalf("unexpected result for Ok: %#v", results[2])
	}
}

func TestRunNoTasks(t *testing.T) {
	t.Parallel()

	values, err := Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected empty values, got %v", values)
	}
}
