// Package housekeeping runs periodic cleanup of expired rows.
package housekeeping

import (
	"context"
	"log/slog"
	"time"
)

// Task deletes stale rows and reports how many were removed
type Task struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// Observer receives the number of rows a task removed
type Observer interface {
	AddDeleted(task string, n int64)
}

// Worker performs periodic cleanup
type Worker struct {
	tasks    []Task
	logger   *slog.Logger
	observer Observer
	interval time.Duration
	done     chan struct{}
}

// NewWorker creates a cleanup worker. observer may be nil.
func NewWorker(tasks []Task, logger *slog.Logger, observer Observer, interval time.Duration) *Worker {
	if interval == 0 {
		interval = 10 * time.Minute
	}

	return &Worker{
		tasks:    tasks,
		logger:   logger,
		observer: observer,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs every task once and then on each interval until ctx is done or
// Stop is called
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("housekeeping worker started", "interval", w.interval, "tasks", len(w.tasks))
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("housekeeping worker stopped")
			return
		case <-w.done:
			w.logger.Info("housekeeping worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	close(w.done)
}

// RunOnce executes every task. A failing task does not stop the others.
func (w *Worker) RunOnce(ctx context.Context) {
	w.logger.Debug("running housekeeping")

	for _, task := range w.tasks {
		deleted, err := task.Run(ctx)
		if err != nil {
			w.logger.Error("housekeeping task failed", "task", task.Name, "error", err)
			continue
		}
		if deleted > 0 {
			w.logger.Info("housekeeping removed rows", "task", task.Name, "count", deleted)
		}
		if w.observer != nil {
			w.observer.AddDeleted(task.Name, deleted)
		}
	}
}
