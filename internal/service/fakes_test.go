package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/photo-platform/internal/audit"
	"github.com/iliyamo/photo-platform/internal/model"
	"github.com/iliyamo/photo-platform/internal/queue"
	"github.com/iliyamo/photo-platform/internal/repository"
	"github.com/iliyamo/photo-platform/internal/storage"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	putErr  error
}

func newMemObjects() *memObjects { return &memObjects{objects: map[string][]byte{}} }

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjects) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// memSubmissions is an in-memory Submission Store with the same
// conditional status transitions as the SQL one.
type memSubmissions struct {
	mu        sync.Mutex
	rows      map[string]*model.Submission
	createErr error
}

func newMemSubmissions() *memSubmissions { return &memSubmissions{rows: map[string]*model.Submission{}} }

func (m *memSubmissions) Create(_ context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSubmissions) get(id string) (model.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return model.Submission{}, false
	}
	return *s, true
}

func (m *memSubmissions) GetByID(_ context.Context, id string) (model.Submission, error) {
	s, ok := m.get(id)
	if !ok || s.IsDeleted {
		return model.Submission{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSubmissions) GetOwned(ctx context.Context, id, userID string) (model.Submission, error) {
	s, err := m.GetByID(ctx, id)
	if err != nil || s.UserID != userID {
		return model.Submission{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSubmissions) visible(keep func(model.Submission) bool) []model.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Submission{}
	for _, s := range m.rows {
		if !s.IsDeleted && keep(*s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memSubmissions) ListByUser(_ context.Context, userID string, status model.SubmissionStatus, page repository.Page) ([]model.Submission, int64, error) {
	all := m.visible(func(s model.Submission) bool {
		return s.UserID == userID && (status == "" || s.ClassificationStatus == status)
	})
	return paginate(all, page), int64(len(all)), nil
}

func paginate(all []model.Submission, page repository.Page) []model.Submission {
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (m *memSubmissions) softDelete(id string, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.IsDeleted || (owner != "" && s.UserID != owner) {
		return repository.ErrNotFound
	}
	s.IsDeleted = true
	return nil
}

func (m *memSubmissions) SoftDeleteOwned(_ context.Context, id, userID string) error {
	return m.softDelete(id, userID)
}

func (m *memSubmissions) SoftDelete(_ context.Context, id string) error { return m.softDelete(id, "") }

func (m *memSubmissions) transition(id string, from, to model.SubmissionStatus, apply func(*model.Submission)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.ClassificationStatus != from {
		return repository.ErrStaleTransition
	}
	s.ClassificationStatus = to
	if apply != nil {
		apply(s)
	}
	return nil
}

func (m *memSubmissions) MarkProcessing(_ context.Context, id string) error {
	return m.transition(id, model.StatusPending, model.StatusProcessing, nil)
}

func (m *memSubmissions) MarkCompleted(_ context.Context, id string, results model.Predictions, at time.Time) error {
	return m.transition(id, model.StatusProcessing, model.StatusCompleted, func(s *model.Submission) {
		s.ClassificationResults = results
		s.ClassifiedAt = &at
	})
}

func (m *memSubmissions) MarkFailed(_ context.Context, id, msg string, at time.Time) error {
	return m.transition(id, model.StatusProcessing, model.StatusFailed, func(s *model.Submission) {
		s.ClassificationError = &msg
		s.ClassifiedAt = &at
	})
}

func (m *memSubmissions) Search(_ context.Context, f repository.SubmissionFilter, _ repository.Sort, page repository.Page) ([]model.Submission, int64, error) {
	all := m.visible(func(s model.Submission) bool { return f.Status == "" || s.ClassificationStatus == f.Status })
	return paginate(all, page), int64(len(all)), nil
}

func (m *memSubmissions) Stream(_ context.Context, f repository.SubmissionFilter, _ repository.Sort, limit int, fn func(model.Submission) error) error {
	all := m.visible(func(s model.Submission) bool { return f.Status == "" || s.ClassificationStatus == f.Status })
	for i, s := range all {
		if limit > 0 && i >= limit {
			break
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

func (m *memSubmissions) Analytics(context.Context, time.Time) (model.Analytics, error) {
	return model.Analytics{}, errors.New("not used")
}

type captureAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *captureAudit) Record(_ context.Context, ev audit.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureAudit) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

type captureDispatcher struct {
	tasks []queue.ClassificationRequested
	err   error
}

func (d *captureDispatcher) Dispatch(_ context.Context, t queue.ClassificationRequested) error {
	d.tasks = append(d.tasks, t)
	return d.err
}

func pngPhoto(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}
