package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/internal/log"
)

// Handler executes a specific task operation.
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload map[string]any) error

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, payload map[string]any) error {
	return f(ctx, payload)
}

// Registry maps task operations to their handlers.
type Registry struct {
	handlers map[task.Operation]Handler
	mu       sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[task.Operation]Handler)}
}

// Register registers a handler for an operation.
func (r *Registry) Register(operation task.Operation, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[operation] = handler
}

// Handler returns the handler for an operation.
func (r *Registry) Handler(operation task.Operation) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[operation]
	return h, ok
}

// Operations returns all registered operations.
func (r *Registry) Operations() []task.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]task.Operation, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	return ops
}

// Worker polls the task queue and dispatches tasks to registered handlers.
type Worker struct {
	store      task.Store
	registry   *Registry
	logger     *log.Logger
	pollPeriod time.Duration
	count      int

	cancel context.CancelFunc
	group  *errgroup.Group
	mu     sync.Mutex
}

// NewWorker creates a Worker with one polling goroutine.
func NewWorker(store task.Store, registry *Registry, logger *log.Logger) *Worker {
	return &Worker{
		store:      store,
		registry:   registry,
		logger:     logger,
		pollPeriod: time.Second,
		count:      1,
	}
}

// WithPollPeriod sets the queue poll period.
func (w *Worker) WithPollPeriod(d time.Duration) *Worker {
	w.pollPeriod = d
	return w
}

// WithCount sets the number of polling goroutines.
func (w *Worker) WithCount(n int) *Worker {
	if n > 0 {
		w.count = n
	}
	return w
}

// Start begins processing tasks. Stop shuts the loops down.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.group, ctx = errgroup.WithContext(ctx)

	for i := 0; i < w.count; i++ {
		w.group.Go(func() error {
			w.run(ctx)
			return nil
		})
	}

	w.logger.Info("queue worker started", "workers", w.count, "poll_period", w.pollPeriod)
}

// Stop cancels the loops and waits for in-flight tasks to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	group := w.group
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if group != nil {
		_ = group.Wait()
	}
	w.logger.Info("queue worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processNext(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("error processing task", "error", err)
			}
		}
	}
}

func (w *Worker) processNext(ctx context.Context) error {
	t, err := w.store.Next(ctx)
	if errors.Is(err, task.ErrEmpty) {
		return nil
	}
	if err != nil {
		return err
	}

	// Claim the task before executing so sibling workers skip it. A crash
	// between claim and execution loses the task; callers can re-trigger.
	claimed, err := w.store.Claim(ctx, t.ID())
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	return w.processTask(ctx, t)
}

func (w *Worker) processTask(ctx context.Context, t task.Task) error {
	start := time.Now()
	w.logger.Info("processing task", "task_id", t.ID(), "operation", t.Operation().String())

	h, ok := w.registry.Handler(t.Operation())
	if !ok {
		w.logger.Error("no handler for operation", "task_id", t.ID(), "operation", t.Operation().String())
		return nil
	}

	if err := w.executeWithRecovery(ctx, h, t); err != nil {
		w.logger.Error("task execution failed",
			"task_id", t.ID(), "operation", t.Operation().String(), "error", err)
		return nil
	}

	w.logger.Info("task completed",
		"task_id", t.ID(), "operation", t.Operation().String(), "duration", time.Since(start))
	return nil
}

func (w *Worker) executeWithRecovery(ctx context.Context, h Handler, t task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Execute(ctx, t.Payload())
}
