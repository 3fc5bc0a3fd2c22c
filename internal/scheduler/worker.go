package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"finrota.com/app/internal/metrics"
)

// Handler re-enters the orchestration path for one claimed task.
type Handler interface {
	HandleTask(ctx context.Context, operation string, payload WorkflowPayload) error
}

// TaskStore is the queue surface the worker drives, backed by Repo.
type TaskStore interface {
	Due(ctx context.Context, now, staleBefore time.Time, limit int) ([]ProcessTracker, error)
	Claim(ctx context.Context, id string, staleBefore time.Time) (bool, error)
	Complete(ctx context.Context, id string) error
	Release(ctx context.Context, id string, nextAt time.Time) error
}

type Worker struct {
	Repo         TaskStore
	Handler      Handler
	Logger       *slog.Logger
	Metrics      *metrics.Counters
	Interval     time.Duration // poll period
	Concurrency  int
	BatchSize    int
	RetryDelay   time.Duration // backoff after an infra failure
	LeaseTimeout time.Duration // running tasks older than this are reclaimed
}

func (w *Worker) defaults() {
	if w.Interval <= 0 {
		w.Interval = 5 * time.Second
	}
	if w.Concurrency <= 0 {
		w.Concurrency = 4
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 50
	}
	if w.RetryDelay <= 0 {
		w.RetryDelay = time.Minute
	}
	if w.LeaseTimeout <= 0 {
		w.LeaseTimeout = 5 * time.Minute
	}
	if w.Logger == nil {
		w.Logger = slog.Default()
	}
}

// Run drains the queue until ctx is cancelled. One poller fans claimed tasks
// out to Concurrency goroutines; the conditional claim makes it safe to run
// several Workers against the same table.
func (w *Worker) Run(ctx context.Context) {
	w.defaults()

	tasks := make(chan ProcessTracker)
	for i := 0; i < w.Concurrency; i++ {
		go w.consume(ctx, tasks)
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(tasks)
			return
		case <-ticker.C:
			w.poll(ctx, tasks)
		}
	}
}

func (w *Worker) poll(ctx context.Context, tasks chan<- ProcessTracker) {
	now := time.Now()
	staleBefore := now.Add(-w.LeaseTimeout)

	due, err := w.Repo.Due(ctx, now, staleBefore, w.BatchSize)
	if err != nil {
		w.Logger.ErrorContext(ctx, "task poll failed", "err", err)
		return
	}

	for _, t := range due {
		claimed, err := w.Repo.Claim(ctx, t.ID, staleBefore)
		if err != nil {
			w.Logger.ErrorContext(ctx, "task claim failed", "task_id", t.ID, "err", err)
			continue
		}
		if !claimed {
			continue // another worker took it
		}
		select {
		case tasks <- t:
		case <-ctx.Done():
			// Hand the claim back; an orphaned running row would otherwise
			// wait out the whole lease.
			if rerr := w.Repo.Release(context.WithoutCancel(ctx), t.ID, time.Now()); rerr != nil {
				w.Logger.ErrorContext(ctx, "task release on shutdown failed", "task_id", t.ID, "err", rerr)
			}
			return
		}
	}
}

func (w *Worker) consume(ctx context.Context, tasks <-chan ProcessTracker) {
	for t := range tasks {
		w.handle(ctx, t)
	}
}

func (w *Worker) handle(ctx context.Context, t ProcessTracker) {
	var payload WorkflowPayload
	if err := json.Unmarshal(t.Payload, &payload); err != nil {
		// Unreadable payload can never succeed; drop the task loudly.
		w.Logger.ErrorContext(ctx, "task payload unreadable, dropping",
			"task_id", t.ID, "err", err)
		_ = w.Repo.Complete(ctx, t.ID)
		return
	}

	if err := w.Handler.HandleTask(ctx, t.Name, payload); err != nil {
		w.Logger.ErrorContext(ctx, "task failed, rescheduling",
			"task_id", t.ID, "operation", t.Name, "retries", t.Retries, "err", err)
		if rerr := w.Repo.Release(ctx, t.ID, time.Now().Add(w.RetryDelay)); rerr != nil {
			w.Logger.ErrorContext(ctx, "task release failed", "task_id", t.ID, "err", rerr)
		}
		return
	}

	if w.Metrics != nil {
		w.Metrics.IncTasksProcessed()
	}
	if err := w.Repo.Complete(ctx, t.ID); err != nil {
		w.Logger.ErrorContext(ctx, "task complete failed", "task_id", t.ID, "err", err)
	}
}
