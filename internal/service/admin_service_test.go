package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/model"
	"github.com/iliyamo/photo-platform/internal/repository"
)

var admin = Actor{UserID: "admin-1", Username: "root", Admin: true}

func seededAdmin(t *testing.T, n int, exportMax int) (*AdminService, *memSubmissions, *captureAudit) {
	t.Helper()
	store, rec := newMemSubmissions(), &captureAudit{}
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s := &model.Submission{
			ID: fmt.Sprintf("s-%02d", i), UserID: "u-1", Name: "Ann", Age: 20 + i, Gender: "female",
			Location: "Paris", Country: "France", PhotoFilename: "a.png", PhotoSize: 100,
			ClassificationStatus: model.StatusPending, CreatedAt: created,
		}
		if i%2 == 0 {
			s.ClassificationStatus = model.StatusCompleted
			s.ClassificationResults = model.Predictions{{Label: "cat", Confidence: 0.9}, {Label: "dog", Confidence: 0.7}}
			at := created.Add(time.Minute)
			s.ClassifiedAt = &at
		}
		require.NoError(t, store.Create(context.Background(), s))
	}
	return NewAdminService(store, rec, exportMax), store, rec
}

func intp(v int) *int { return &v }

func TestAdminSearch(t *testing.T) {
	svc, _, rec := seededAdmin(t, 5, 100)
	ctx := context.Background()

	res, err := svc.Search(ctx, admin, repository.SubmissionFilter{}, repository.NewSort("", ""), repository.NewPage(1, 2), Meta{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Total)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, "desc", res.SortOrder)
	assert.Empty(t, res.FiltersApplied)
	assert.Empty(t, rec.types())

	res, err = svc.Search(ctx, admin, repository.SubmissionFilter{Status: model.StatusCompleted}, repository.NewSort("age", "asc"), repository.NewPage(1, 20), Meta{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, "asc", res.SortOrder)
	assert.Equal(t, map[string]any{"classification_status": model.StatusCompleted}, res.FiltersApplied)
	assert.Equal(t, []string{model.EventAdminFilterApplied}, rec.types())
}

func TestAdminFilterValidation(t *testing.T) {
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	tests := []struct {
		name string
		f    repository.SubmissionFilter
		code string
	}{
		{"age_min low", repository.SubmissionFilter{AgeMin: intp(0)}, "invalid_age_min"},
		{"age_max high", repository.SubmissionFilter{AgeMax: intp(151)}, "invalid_age_max"},
		{"age range", repository.SubmissionFilter{AgeMin: intp(40), AgeMax: intp(30)}, "invalid_age_range"},
		{"status", repository.SubmissionFilter{Status: "done"}, "invalid_status"},
		{"dates", repository.SubmissionFilter{DateFrom: &from, DateTo: &to}, "invalid_date_range"},
	}
	svc, _, _ := seededAdmin(t, 1, 100)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), admin, tt.f, repository.NewSort("", ""), repository.NewPage(1, 20), Meta{})
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, tt.code, e.Code)

			var buf bytes.Buffer
			err = svc.Export(context.Background(), admin, ExportCSV, tt.f, repository.NewSort("", ""), 0, &buf, Meta{})
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Zero(t, buf.Len())
		})
	}
}

func TestAdminDelete(t *testing.T) {
	svc, _, rec := seededAdmin(t, 1, 100)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, admin, "s-00", Meta{}))
	assert.Equal(t, []string{model.EventAdminSubmissionDelete}, rec.types())

	_, err := svc.Get(ctx, "s-00")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, admin, "s-00", Meta{})))
}

func TestExportCSV(t *testing.T) {
	svc, _, rec := seededAdmin(t, 3, 100)
	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), admin, ExportCSV, repository.SubmissionFilter{}, repository.NewSort("", ""), 0, &buf, Meta{}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "s-00", rows[1][0])
	assert.Equal(t, "cat", rows[1][11])
	assert.Equal(t, "0.9", rows[1][12])
	assert.Equal(t, "2025-03-01T12:01:00Z", rows[1][14])
	assert.Equal(t, "", rows[2][11])
	assert.Equal(t, []string{model.EventAdminDataExport}, rec.types())
}

func TestExportLimitCapped(t *testing.T) {
	svc, _, _ := seededAdmin(t, 5, 2)
	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), admin, ExportCSV, repository.SubmissionFilter{}, repository.NewSort("", ""), 50, &buf, Meta{}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExportJSON(t *testing.T) {
	svc, _, _ := seededAdmin(t, 2, 100)
	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), admin, ExportJSON, repository.SubmissionFilter{}, repository.NewSort("", ""), 0, &buf, Meta{}))

	var got []model.Submission
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "s-00", got[0].ID)
	assert.Equal(t, "cat", got[0].ClassificationResults[0].Label)

	empty, _, _ := seededAdmin(t, 0, 100)
	buf.Reset()
	require.NoError(t, empty.Export(context.Background(), admin, ExportJSON, repository.SubmissionFilter{}, repository.NewSort("", ""), 0, &buf, Meta{}))
	assert.JSONEq(t, "[]", buf.String())
}

func TestExportXLSX(t *testing.T) {
	svc, _, _ := seededAdmin(t, 2, 100)
	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), admin, ExportXLSX, repository.SubmissionFilter{}, repository.NewSort("", ""), 0, &buf, Meta{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "s-01", rows[2][0])
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", f.ContentType())
	assert.Equal(t, "submissions_export_20250301_120000.xlsx", f.Filename(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))

	_, err = ParseExportFormat("pdf")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
