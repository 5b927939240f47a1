package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/audit"
	"github.com/iliyamo/photo-platform/internal/logger"
	"github.com/iliyamo/photo-platform/internal/model"
	"github.com/iliyamo/photo-platform/internal/queue"
	"github.com/iliyamo/photo-platform/internal/repository"
	"github.com/iliyamo/photo-platform/internal/storage"
)

var allowedExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true}

var allowedMIME = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}

// sniffLen is the prefix http.DetectContentType considers.
const sniffLen = 512

// SubmissionStore is the Submission Store as seen by the upload pipeline.
type SubmissionStore interface {
	Create(ctx context.Context, s *model.Submission) error
	GetByID(ctx context.Context, id string) (model.Submission, error)
	GetOwned(ctx context.Context, id, userID string) (model.Submission, error)
	ListByUser(ctx context.Context, userID string, status model.SubmissionStatus, page repository.Page) ([]model.Submission, int64, error)
	SoftDeleteOwned(ctx context.Context, id, userID string) error
}

// UploadFile is the photo part of an upload. Size is the declared part size.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadInput is the metadata of an upload.
type UploadInput struct {
	Name        string     `validate:"required,min=1,max=255"`
	Age         int        `validate:"required,min=1,max=150"`
	Gender      string     `validate:"required,min=1,max=50"`
	Location    string     `validate:"required,min=1,max=255"`
	Country     string     `validate:"required,min=1,max=100"`
	Description *string    `validate:"omitempty,max=1000"`
	File        UploadFile `validate:"-"`
}

// Listing is one page of submissions.
type Listing struct {
	Items      []model.Submission `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

func newListing(items []model.Submission, total int64, page repository.Page) Listing {
	if items == nil {
		items = []model.Submission{}
	}
	return Listing{Items: items, Total: total, Page: page.Number, PageSize: page.Size, TotalPages: page.TotalPages(total)}
}

// SubmissionService is the Upload Pipeline plus the owner-facing reads.
type SubmissionService struct {
	store      SubmissionStore
	objects    storage.ObjectStore
	dispatcher queue.Dispatcher
	audit      audit.Recorder
	maxBytes   int64
	now        func() time.Time
}

func NewSubmissionService(store SubmissionStore, objects storage.ObjectStore, d queue.Dispatcher, rec audit.Recorder, maxBytes int64) *SubmissionService {
	return &SubmissionService{
		store:      store,
		objects:    objects,
		dispatcher: d,
		audit:      rec,
		maxBytes:   maxBytes,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MaxBytes is the largest accepted photo.
func (s *SubmissionService) MaxBytes() int64 { return s.maxBytes }

// Upload validates, stores the photo, records a pending submission and
// schedules classification. Nothing is written to the object store unless
// every validation passes; a stored photo without a row is removed.
func (s *SubmissionService) Upload(ctx context.Context, actor Actor, in UploadInput, meta Meta) (model.Submission, error) {
	normalizeUpload(&in)
	if err := validate.Struct(in); err != nil {
		return model.Submission{}, ValidationError(err)
	}
	ext, content, mimeType, err := s.checkFile(in.File)
	if err != nil {
		s.audit.Record(ctx, audit.Event{
			Type: model.EventSecurityFileRejected, UserID: actor.UserID, Username: actor.Username, Action: "upload_rejected",
			IP: meta.IP, UserAgent: meta.UserAgent, Status: model.AuditWarning,
			Metadata: map[string]any{"filename": in.File.Filename, "content_type": in.File.ContentType, "size": in.File.Size, "reason": codeOf(err)},
		})
		return model.Submission{}, err
	}

	now := s.now()
	sub := model.Submission{
		ID:                   uuid.NewString(),
		UserID:               actor.UserID,
		Name:                 in.Name,
		Age:                  in.Age,
		Gender:               in.Gender,
		Location:             in.Location,
		Country:              in.Country,
		Description:          in.Description,
		PhotoFilename:        filepath.Base(in.File.Filename),
		PhotoSize:            in.File.Size,
		PhotoMimeType:        mimeType,
		ClassificationStatus: model.StatusPending,
		CreatedAt:            now,
	}
	key, err := storage.NewObjectKey(sub.ID, ext, now)
	if err != nil {
		return model.Submission{}, internal("object key", err)
	}
	sub.PhotoPath = key

	if err := s.objects.Put(ctx, key, content, in.File.Size, mimeType); err != nil {
		if errors.Is(err, errTooLarge) {
			return model.Submission{}, s.tooLarge()
		}
		return model.Submission{}, apperr.Wrap(apperr.KindStorage, "storage_unavailable", "photo storage unavailable", err)
	}
	if err := s.store.Create(ctx, &sub); err != nil {
		if derr := s.objects.Delete(context.WithoutCancel(ctx), key); derr != nil {
			logger.Log.Errorw("orphan photo cleanup failed", "key", key, "error", derr)
		}
		return model.Submission{}, internal("create submission", err)
	}

	s.audit.Record(ctx, audit.Event{
		Type: model.EventSubmissionCreated, UserID: actor.UserID, Username: actor.Username, Action: "upload",
		IP: meta.IP, UserAgent: meta.UserAgent,
		Metadata: map[string]any{"submission_id": sub.ID, "photo_size": sub.PhotoSize, "mime_type": sub.PhotoMimeType},
	})

	task := queue.ClassificationRequested{SubmissionID: sub.ID, PhotoPath: sub.PhotoPath, RequestedAt: now.Format(time.RFC3339)}
	if err := s.dispatcher.Dispatch(ctx, task); err != nil {
		logger.Log.Errorw("classification dispatch failed; submission stays pending", "submission_id", sub.ID, "error", err)
	}
	return sub, nil
}

func normalizeUpload(in *UploadInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Location = strings.TrimSpace(in.Location)
	in.Country = strings.TrimSpace(in.Country)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}
}

// checkFile validates extension, declared type, declared size and sniffed
// content. It returns the extension, a reader replaying the sniffed prefix
// and capped at maxBytes, and the sniffed MIME type.
func (s *SubmissionService) checkFile(f UploadFile) (string, io.Reader, string, error) {
	if f.Content == nil || f.Filename == "" {
		return "", nil, "", apperr.Validation("missing_photo", "photo is required")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
	if !allowedExtensions[ext] {
		return "", nil, "", apperr.Validation("invalid_file_type", "photo must be a jpg, jpeg, png or webp file")
	}
	declared, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil || !allowedMIME[declared] {
		return "", nil, "", apperr.Validation("invalid_content_type", "photo content type must be image/jpeg, image/png or image/webp")
	}
	if f.Size <= 0 {
		return "", nil, "", apperr.Validation("empty_file", "photo is empty")
	}
	if f.Size > s.maxBytes {
		return "", nil, "", s.tooLarge()
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, "", apperr.Wrap(apperr.KindValidation, "unreadable_file", "photo could not be read", err)
	}
	head = head[:n]
	sniffed := http.DetectContentType(head)
	if !allowedMIME[sniffed] {
		return "", nil, "", apperr.Validation("invalid_file_content", "photo content is not a jpeg, png or webp image")
	}
	content := &limitedReader{r: io.MultiReader(bytes.NewReader(head), f.Content), left: s.maxBytes}
	return ext, content, sniffed, nil
}

func (s *SubmissionService) tooLarge() error {
	return apperr.Validation(apperr.CodeTooLarge, "photo exceeds the maximum upload size")
}

var errTooLarge = errors.New("upload exceeds size limit")

// limitedReader fails with errTooLarge once more than left bytes are read,
// unlike io.LimitReader which silently truncates.
type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, errTooLarge
	}
	return n, err
}

// Get returns one of the caller's submissions.
func (s *SubmissionService) Get(ctx context.Context, actor Actor, id string) (model.Submission, error) {
	sub, err := s.store.GetOwned(ctx, id, actor.UserID)
	if err != nil {
		return model.Submission{}, notFoundOr("get submission", "submission", err)
	}
	return sub, nil
}

// List pages through the caller's submissions, optionally by status.
func (s *SubmissionService) List(ctx context.Context, actor Actor, status model.SubmissionStatus, page repository.Page) (Listing, error) {
	if status != "" && !status.Valid() {
		return Listing{}, apperr.Validation("invalid_status", "status must be one of pending, processing, completed, failed")
	}
	items, total, err := s.store.ListByUser(ctx, actor.UserID, status, page)
	if err != nil {
		return Listing{}, internal("list submissions", err)
	}
	return newListing(items, total, page), nil
}

// Delete soft-deletes one of the caller's submissions.
func (s *SubmissionService) Delete(ctx context.Context, actor Actor, id string, meta Meta) error {
	if err := s.store.SoftDeleteOwned(ctx, id, actor.UserID); err != nil {
		return notFoundOr("delete submission", "submission", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventSubmissionDeleted, UserID: actor.UserID, Username: actor.Username, Action: "delete",
		IP: meta.IP, UserAgent: meta.UserAgent, Metadata: map[string]any{"submission_id": id},
	})
	return nil
}

// Photo opens the stored photo. Owners see their own photos; admins see any.
func (s *SubmissionService) Photo(ctx context.Context, actor Actor, id string) (io.ReadCloser, model.Submission, error) {
	var (
		sub model.Submission
		err error
	)
	if actor.Admin {
		sub, err = s.store.GetByID(ctx, id)
	} else {
		sub, err = s.store.GetOwned(ctx, id, actor.UserID)
	}
	if err != nil {
		return nil, model.Submission{}, notFoundOr("get submission", "submission", err)
	}
	rc, err := s.objects.Get(ctx, sub.PhotoPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, model.Submission{}, apperr.NotFound("photo not found")
		}
		return nil, model.Submission{}, apperr.Wrap(apperr.KindStorage, "storage_unavailable", "photo storage unavailable", err)
	}
	return rc, sub, nil
}
