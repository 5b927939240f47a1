package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/iliyamo/photo-platform/internal/audit"
	"github.com/iliyamo/photo-platform/internal/classifier"
	"github.com/iliyamo/photo-platform/internal/logger"
	"github.com/iliyamo/photo-platform/internal/model"
	"github.com/iliyamo/photo-platform/internal/queue"
	"github.com/iliyamo/photo-platform/internal/repository"
	"github.com/iliyamo/photo-platform/internal/storage"
)

// StatusStore applies forward-only classification status transitions.
type StatusStore interface {
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, results model.Predictions, at time.Time) error
	MarkFailed(ctx context.Context, id, msg string, at time.Time) error
}

// ClassificationWorker consumes classification tasks.
type ClassificationWorker struct {
	store      StatusStore
	objects    storage.ObjectStore
	classifier classifier.Classifier
	audit      audit.Recorder
	now        func() time.Time
}

func NewClassificationWorker(store StatusStore, objects storage.ObjectStore, c classifier.Classifier, rec audit.Recorder) *ClassificationWorker {
	return &ClassificationWorker{
		store:      store,
		objects:    objects,
		classifier: c,
		audit:      rec,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle runs one task: pending -> processing -> completed|failed. A
// classifier error or panic ends in failed with the message recorded on
// the row. A task whose submission is no longer pending is skipped, so a
// redelivered task never classifies twice.
func (w *ClassificationWorker) Handle(ctx context.Context, task queue.ClassificationRequested) error {
	if err := w.store.MarkProcessing(ctx, task.SubmissionID); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			logger.Log.Infow("classification skipped; submission not pending", "submission_id", task.SubmissionID)
			return nil
		}
		return fmt.Errorf("mark processing %s: %w", task.SubmissionID, err)
	}

	results, cerr := w.classify(ctx, task.PhotoPath)
	at := w.now()
	if cerr != nil {
		logger.Log.Warnw("classification failed", "submission_id", task.SubmissionID, "error", cerr)
		if err := w.store.MarkFailed(ctx, task.SubmissionID, cerr.Error(), at); err != nil {
			return fmt.Errorf("mark failed %s: %w", task.SubmissionID, err)
		}
		w.audit.Record(ctx, audit.Event{
			Type: model.EventSubmissionClassified, Action: "classification_failed", Status: model.AuditFailure,
			Metadata: map[string]any{"submission_id": task.SubmissionID, "error": cerr.Error()},
		})
		return nil
	}

	if err := w.store.MarkCompleted(ctx, task.SubmissionID, results, at); err != nil {
		return fmt.Errorf("mark completed %s: %w", task.SubmissionID, err)
	}
	meta := map[string]any{"submission_id": task.SubmissionID}
	if top, ok := results.Top(); ok {
		meta["label"], meta["confidence"] = top.Label, top.Confidence
	}
	w.audit.Record(ctx, audit.Event{Type: model.EventSubmissionClassified, Action: "classification_completed", Metadata: meta})
	logger.Log.Infow("classification completed", "submission_id", task.SubmissionID, "labels", len(results))
	return nil
}

func (w *ClassificationWorker) classify(ctx context.Context, key string) (results model.Predictions, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	rc, err := w.objects.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	results, err = w.classifier.Classify(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("classifier returned no predictions")
	}
	return results, nil
}
