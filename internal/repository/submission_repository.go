package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/photo-platform/internal/model"
)

const submissionColumns = "id,user_id,name,age,gender,location,country,description," +
	"photo_filename,photo_path,photo_size,photo_mime_type," +
	"classification_status,classification_results,classification_error,classified_at," +
	"created_at,updated_at,is_deleted"

// SubmissionRepo is the Submission Store.
type SubmissionRepo struct{ DB *sqlx.DB }

func NewSubmissionRepo(db *sqlx.DB) *SubmissionRepo { return &SubmissionRepo{DB: db} }

// Create inserts a new submission row.
func (r *SubmissionRepo) Create(ctx context.Context, s *model.Submission) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = s.CreatedAt
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO submissions ("+submissionColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		s.ID, s.UserID, s.Name, s.Age, s.Gender, s.Location, s.Country, s.Description,
		s.PhotoFilename, s.PhotoPath, s.PhotoSize, s.PhotoMimeType,
		s.ClassificationStatus, s.ClassificationResults, s.ClassificationError, s.ClassifiedAt,
		s.CreatedAt, s.UpdatedAt, s.IsDeleted)
	return err
}

// GetByID fetches a non-deleted submission.
func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (model.Submission, error) {
	var s model.Submission
	err := r.DB.GetContext(ctx, &s,
		"SELECT "+submissionColumns+" FROM submissions WHERE id=? AND is_deleted=0 LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// GetOwned fetches a non-deleted submission that belongs to userID.
func (r *SubmissionRepo) GetOwned(ctx context.Context, id, userID string) (model.Submission, error) {
	var s model.Submission
	err := r.DB.GetContext(ctx, &s,
		"SELECT "+submissionColumns+" FROM submissions WHERE id=? AND user_id=? AND is_deleted=0 LIMIT 1", id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// ListByUser returns a page of the user's submissions, newest first.
func (r *SubmissionRepo) ListByUser(ctx context.Context, userID string, status model.SubmissionStatus, page Page) ([]model.Submission, int64, error) {
	cond := "user_id=? AND is_deleted=0"
	args := []any{userID}
	if status != "" {
		cond += " AND classification_status=?"
		args = append(args, status)
	}

	var total int64
	if err := r.DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM submissions WHERE "+cond, args...); err != nil {
		return nil, 0, err
	}
	out := make([]model.Submission, 0, page.Size)
	err := r.DB.SelectContext(ctx, &out,
		"SELECT "+submissionColumns+" FROM submissions WHERE "+cond+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SoftDelete hides a submission from every listing. The row, its photo and
// its audit trail are kept.
func (r *SubmissionRepo) SoftDelete(ctx context.Context, id string) error {
	return r.expectOne(ctx, ErrNotFound,
		"UPDATE submissions SET is_deleted=1, updated_at=? WHERE id=? AND is_deleted=0",
		time.Now().UTC(), id)
}

// SoftDeleteOwned is SoftDelete restricted to the owner.
func (r *SubmissionRepo) SoftDeleteOwned(ctx context.Context, id, userID string) error {
	return r.expectOne(ctx, ErrNotFound,
		"UPDATE submissions SET is_deleted=1, updated_at=? WHERE id=? AND user_id=? AND is_deleted=0",
		time.Now().UTC(), id, userID)
}

// MarkProcessing moves pending -> processing.
func (r *SubmissionRepo) MarkProcessing(ctx context.Context, id string) error {
	return r.expectOne(ctx, ErrStaleTransition,
		"UPDATE submissions SET classification_status=?, updated_at=? WHERE id=? AND classification_status=?",
		model.StatusProcessing, time.Now().UTC(), id, model.StatusPending)
}

// MarkCompleted moves processing -> completed and stores the results.
func (r *SubmissionRepo) MarkCompleted(ctx context.Context, id string, results model.Predictions, at time.Time) error {
	return r.expectOne(ctx, ErrStaleTransition,
		"UPDATE submissions SET classification_status=?, classification_results=?, classified_at=?, updated_at=? "+
			"WHERE id=? AND classification_status=?",
		model.StatusCompleted, results, at, at, id, model.StatusProcessing)
}

// MarkFailed moves processing -> failed and records the error message.
func (r *SubmissionRepo) MarkFailed(ctx context.Context, id, msg string, at time.Time) error {
	return r.expectOne(ctx, ErrStaleTransition,
		"UPDATE submissions SET classification_status=?, classification_error=?, classified_at=?, updated_at=? "+
			"WHERE id=? AND classification_status=?",
		model.StatusFailed, msg, at, at, id, model.StatusProcessing)
}

func (r *SubmissionRepo) expectOne(ctx context.Context, none error, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return none
	}
	return nil
}
