// Package batch implements the bounded-concurrency batch engine: one task per
// (student, operation) pair, executed by at most k workers, with per-task
// timing, partial-failure tolerance, a global deadline, and an aggregate
// report whose counts do not depend on worker interleaving.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gradehub/gradehub-core/internal/domain/student"
	"github.com/gradehub/gradehub-core/pkg/retry"
)

// Operation is one unit of per-student work, typically an injected renderer
// or recompute step. Run must be safe for concurrent invocation across
// different students and should honor ctx cancellation.
type Operation struct {
	Name string
	Run  func(ctx context.Context, s *student.Student) error
}

// Options controls one batch submission.
type Options struct {
	// Concurrency is the worker bound k, caller-supplied, never auto-scaled.
	// Values <= 1 select the sequential fallback.
	Concurrency int

	// Timeout bounds the whole batch; zero means no deadline. On expiry,
	// unstarted tasks are cancelled and already-collected results are kept.
	Timeout time.Duration

	// RetryAttempts is the per-task attempt bound; values < 1 mean one
	// attempt. Retries use exponential backoff starting at RetryDelay.
	RetryAttempts int
	RetryDelay    time.Duration
}

// Coordinator executes batches. It reads snapshots supplied by the caller and
// owns none of the stores.
type Coordinator struct {
	logger *slog.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{logger: logger}
}

// task pairs one student with one operation variant.
type task struct {
	student *student.Student
	op      Operation
}

// Submit fans one task per (student, operation) pair out to at most
// opts.Concurrency workers and returns the aggregated report. Each task
// records its own failure without aborting siblings; partial failure is the
// expected common case.
func (c *Coordinator) Submit(ctx context.Context, students []*student.Student, ops []Operation, opts Options) *Report {
	tasks := buildTasks(students, ops)
	report := newReport(len(tasks))

	cancel := func() {}
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	c.logger.Info("batch started",
		"tasks", len(tasks),
		"concurrency", opts.Concurrency,
		"timeout", opts.Timeout.String(),
	)

	if opts.Concurrency <= 1 {
		c.runSequential(ctx, tasks, opts, report)
	} else {
		c.runConcurrent(ctx, tasks, opts, report)
	}

	report.finalize(errors.Is(ctx.Err(), context.DeadlineExceeded))

	c.logger.Info("batch completed",
		"submitted", report.Submitted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"cancelled", report.Cancelled,
		"timed_out", report.TimedOut,
		"duration", report.Duration.String(),
	)
	return report
}

// runConcurrent executes tasks under an errgroup bounded to k workers.
// Workers only ever append to the locked collector, so the aggregate counts
// are independent of completion order.
func (c *Coordinator) runConcurrent(ctx context.Context, tasks []task, opts Options, report *Report) {
	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)

	for _, t := range tasks {
		t := t
		g.Go(func() error {
			// A task that has not started when the deadline fires is
			// cancelled, not failed.
			if ctx.Err() != nil {
				report.record(cancelledResult(t))
				return nil
			}
			report.record(c.runTask(ctx, t, opts))
			return nil
		})
	}

	// Started tasks are allowed to finish; cancellation is cooperative.
	_ = g.Wait()
}

// runSequential is the simple fallback: the same tasks, one worker. Aggregate
// success/failure totals match the concurrent mode; timing naturally differs.
func (c *Coordinator) runSequential(ctx context.Context, tasks []task, opts Options, report *Report) {
	for _, t := range tasks {
		if ctx.Err() != nil {
			report.record(cancelledResult(t))
			continue
		}
		report.record(c.runTask(ctx, t, opts))
	}
}

// runTask executes one task with per-task retry and captures its timing.
func (c *Coordinator) runTask(ctx context.Context, t task, opts Options) TaskResult {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}

	started := time.Now()
	err := retry.Do(ctx, opts.RetryAttempts, delay, func() error {
		return t.op.Run(ctx, t.student)
	})
	completed := time.Now()

	res := TaskResult{
		StudentID:   t.student.ID,
		Operation:   t.op.Name,
		StartedAt:   started,
		CompletedAt: completed,
		Duration:    completed.Sub(started),
	}

	switch {
	case err == nil:
		res.Success = true
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Interrupted mid-flight by the batch deadline.
		res.Cancelled = true
	default:
		res.Error = err.Error()
		c.logger.Debug("batch task failed",
			"student_id", t.student.ID,
			"operation", t.op.Name,
			"error", err,
		)
	}
	return res
}

// buildTasks expands the (student, operation) cross product in submission
// order.
func buildTasks(students []*student.Student, ops []Operation) []task {
	tasks := make([]task, 0, len(students)*len(ops))
	for _, s := range students {
		for _, op := range ops {
			tasks = append(tasks, task{student: s, op: op})
		}
	}
	return tasks
}

func cancelledResult(t task) TaskResult {
	now := time.Now()
	return TaskResult{
		StudentID:   t.student.ID,
		Operation:   t.op.Name,
		StartedAt:   now,
		CompletedAt: now,
		Cancelled:   true,
	}
}
