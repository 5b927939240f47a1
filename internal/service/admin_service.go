package service

import (
	"context"
	"io"
	"time"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/audit"
	"github.com/iliyamo/photo-platform/internal/model"
	"github.com/iliyamo/photo-platform/internal/repository"
)

// AdminStore is the Admin Query Layer's view of the Submission Store.
type AdminStore interface {
	Search(ctx context.Context, f repository.SubmissionFilter, s repository.Sort, page repository.Page) ([]model.Submission, int64, error)
	Stream(ctx context.Context, f repository.SubmissionFilter, s repository.Sort, limit int, fn func(model.Submission) error) error
	GetByID(ctx context.Context, id string) (model.Submission, error)
	SoftDelete(ctx context.Context, id string) error
	Analytics(ctx context.Context, now time.Time) (model.Analytics, error)
}

// SearchResult is a filtered page plus the filters that produced it.
type SearchResult struct {
	Listing
	FiltersApplied map[string]any `json:"filters_applied"`
	SortBy         string         `json:"sort_by"`
	SortOrder      string         `json:"sort_order"`
}

// AdminService serves the admin submission endpoints.
type AdminService struct {
	store     AdminStore
	audit     audit.Recorder
	exportMax int
	now       func() time.Time
}

func NewAdminService(store AdminStore, rec audit.Recorder, exportMax int) *AdminService {
	return &AdminService{store: store, audit: rec, exportMax: exportMax, now: func() time.Time { return time.Now().UTC() }}
}

// Search runs the filtered, sorted, paginated admin listing.
func (s *AdminService) Search(ctx context.Context, actor Actor, f repository.SubmissionFilter, sort repository.Sort, page repository.Page, meta Meta) (SearchResult, error) {
	if err := checkFilter(f); err != nil {
		return SearchResult{}, err
	}
	items, total, err := s.store.Search(ctx, f, sort, page)
	if err != nil {
		return SearchResult{}, internal("search submissions", err)
	}
	applied := f.Applied()
	if len(applied) > 0 {
		s.audit.Record(ctx, audit.Event{
			Type: model.EventAdminFilterApplied, UserID: actor.UserID, Username: actor.Username, Action: "filter",
			IP: meta.IP, UserAgent: meta.UserAgent, Metadata: map[string]any{"filters": applied, "total": total},
		})
	}
	order := "asc"
	if sort.Desc {
		order = "desc"
	}
	return SearchResult{
		Listing:        newListing(items, total, page),
		FiltersApplied: applied,
		SortBy:         sort.Field,
		SortOrder:      order,
	}, nil
}

// Get returns any non-deleted submission.
func (s *AdminService) Get(ctx context.Context, id string) (model.Submission, error) {
	sub, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Submission{}, notFoundOr("get submission", "submission", err)
	}
	return sub, nil
}

// Delete soft-deletes any submission.
func (s *AdminService) Delete(ctx context.Context, actor Actor, id string, meta Meta) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return notFoundOr("delete submission", "submission", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventAdminSubmissionDelete, UserID: actor.UserID, Username: actor.Username, Action: "admin_delete",
		IP: meta.IP, UserAgent: meta.UserAgent, Metadata: map[string]any{"submission_id": id},
	})
	return nil
}

// Analytics returns the dashboard summary.
func (s *AdminService) Analytics(ctx context.Context) (model.Analytics, error) {
	a, err := s.store.Analytics(ctx, s.now())
	if err != nil {
		return model.Analytics{}, internal("analytics", err)
	}
	return a, nil
}

// Export streams every matching submission to w in the given format.
// limit <= 0 exports the whole set; larger limits are capped at the
// configured maximum.
func (s *AdminService) Export(ctx context.Context, actor Actor, format ExportFormat, f repository.SubmissionFilter, sort repository.Sort, limit int, w io.Writer, meta Meta) error {
	if err := checkFilter(f); err != nil {
		return err
	}
	if limit > s.exportMax {
		limit = s.exportMax
	}
	enc, err := newExporter(format, w)
	if err != nil {
		return err
	}
	count := 0
	err = s.store.Stream(ctx, f, sort, limit, func(sub model.Submission) error {
		count++
		return enc.Write(sub)
	})
	if err != nil {
		return internal("export submissions", err)
	}
	if err := enc.Close(); err != nil {
		return internal("finish export", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type: model.EventAdminDataExport, UserID: actor.UserID, Username: actor.Username, Action: "export",
		IP: meta.IP, UserAgent: meta.UserAgent,
		Metadata: map[string]any{"format": string(format), "records": count, "filters": f.Applied()},
	})
	return nil
}

func checkFilter(f repository.SubmissionFilter) error {
	if f.AgeMin != nil && (*f.AgeMin < 1 || *f.AgeMin > 150) {
		return apperr.Validation("invalid_age_min", "age_min must be between 1 and 150")
	}
	if f.AgeMax != nil && (*f.AgeMax < 1 || *f.AgeMax > 150) {
		return apperr.Validation("invalid_age_max", "age_max must be between 1 and 150")
	}
	if f.AgeMin != nil && f.AgeMax != nil && *f.AgeMin > *f.AgeMax {
		return apperr.Validation("invalid_age_range", "age_min must not exceed age_max")
	}
	if f.Status != "" && !f.Status.Valid() {
		return apperr.Validation("invalid_status", "classification_status must be one of pending, processing, completed, failed")
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return apperr.Validation("invalid_date_range", "date_from must not be after date_to")
	}
	return nil
}
