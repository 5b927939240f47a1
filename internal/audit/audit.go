// Package audit records security- and business-relevant events to an
// append-only log. Recording never fails the calling operation.
package audit

import (
	"context"
	"time"

	"github.com/iliyamo/photo-platform/internal/logger"
	"github.com/iliyamo/photo-platform/internal/model"
)

const writeTimeout = 3 * time.Second

// Sink persists audit entries.
type Sink interface {
	Insert(ctx context.Context, e *model.AuditLogEntry) error
}

// Event is what callers report. Status defaults to success.
type Event struct {
	Type      string
	UserID    string
	Username  string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
	Status    string
}

// Recorder is the write side used by services and middleware.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Logger writes events to a Sink.
type Logger struct {
	sink Sink
	now  func() time.Time
}

func NewLogger(sink Sink) *Logger {
	return &Logger{sink: sink, now: func() time.Time { return time.Now().UTC() }}
}

// Record writes ev synchronously on a context detached from the caller's
// cancellation and bounded by writeTimeout. Errors are logged and dropped.
// A nil Logger or Sink records nothing.
func (l *Logger) Record(ctx context.Context, ev Event) {
	if l == nil || l.sink == nil {
		return
	}
	entry := l.entry(ev)
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := l.sink.Insert(wctx, entry); err != nil {
		logger.Log.Warnw("audit write failed", "event_type", entry.EventType, "user_id", entry.UserID, "error", err)
	}
}

func (l *Logger) entry(ev Event) *model.AuditLogEntry {
	status := ev.Status
	if status == "" {
		status = model.AuditSuccess
	}
	meta := ev.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return &model.AuditLogEntry{
		Timestamp: l.now(),
		EventType: ev.Type,
		UserID:    ev.UserID,
		Username:  ev.Username,
		Action:    ev.Action,
		IPAddress: ev.IP,
		UserAgent: ev.UserAgent,
		Metadata:  meta,
		Status:    status,
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
