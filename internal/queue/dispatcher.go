package queue

import (
    "context"
    "sync"

    "github.com/iliyamo/photo-platform/internal/logger"
)

// Handler processes one classification task.
type Handler func(ctx context.Context, task ClassificationRequested) error

// Dispatcher hands a task off without waiting for it to be processed.
type Dispatcher interface {
    Dispatch(ctx context.Context, task ClassificationRequested) error
}

// InProcessDispatcher runs each task on its own goroutine. There is no
// bound on in-flight tasks and no timeout.
type InProcessDispatcher struct {
    handle Handler
    wg     sync.WaitGroup
}

func NewInProcessDispatcher(h Handler) *InProcessDispatcher {
    return &InProcessDispatcher{handle: h}
}

// Dispatch never fails. The request context is not propagated so the task
// outlives the upload request.
func (d *InProcessDispatcher) Dispatch(_ context.Context, task ClassificationRequested) error {
    d.wg.Add(1)
    go func() {
        defer d.wg.Done()
        if err := d.handle(context.Background(), task); err != nil {
            logger.Log.Errorw("classification task failed", "submission_id", task.SubmissionID, "error", err)
        }
    }()
    return nil
}

// Wait blocks until every dispatched task has returned.
func (d *InProcessDispatcher) Wait() { d.wg.Wait() }
