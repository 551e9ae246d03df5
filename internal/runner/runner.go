package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/fatih/color"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// Status is the terminal state of one task invocation.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is what every task resolves to. A task is never left pending.
type Result struct {
	Task     string
	Status   Status
	Err      error
	Duration time.Duration
}

// OK reports whether the task ran and succeeded.
func (r Result) OK() bool { return r.Status == StatusOK }

// Func is the body of a task.
type Func func(ctx context.Context) error

// PanicError is the error recorded for a task that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

var failure = color.New(color.FgRed, color.Bold)

// FormatFailure renders a task failure for the console. Color is dropped
// automatically when the output is not a terminal.
func FormatFailure(task string, err error) string {
	return failure.Sprintf("✖ %s: %v", task, err)
}

// Isolate runs fn and captures its outcome. Errors and panics are logged and
// returned in the Result; Isolate itself always returns.
func Isolate(ctx context.Context, task string, fn Func) (res Result) {
	ctx, logger := ctxlog.With(ctx, "task", task)
	res.Task = task
	start := time.Now()

	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			pe := &PanicError{Value: r, Stack: debug.Stack()}
			res.Status = StatusFailed
			res.Err = pe
			logger.Debug("Recovered task panic.", "stack", string(pe.Stack))
		}
		if res.Err != nil {
			logger.Error(FormatFailure(task, res.Err), "duration", res.Duration)
			return
		}
		logger.Debug("Task complete.", "duration", res.Duration)
	}()

	logger.Debug("Task starting.")
	if err := fn(ctx); err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	res.Status = StatusOK
	return res
}
