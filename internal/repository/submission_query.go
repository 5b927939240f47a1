package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/photo-platform/internal/model"
)

// SubmissionFilter is the admin filter set. All fields are optional and
// combined with AND; soft-deleted rows are always excluded.
type SubmissionFilter struct {
	AgeMin      *int
	AgeMax      *int
	Genders     []string
	Countries   []string
	Location    string
	Search      string
	Status      model.SubmissionStatus
	ResultLabel string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// Applied lists the filters that are set, keyed by their query parameter name.
func (f SubmissionFilter) Applied() map[string]any {
	out := map[string]any{}
	if f.AgeMin != nil {
		out["age_min"] = *f.AgeMin
	}
	if f.AgeMax != nil {
		out["age_max"] = *f.AgeMax
	}
	if len(f.Genders) > 0 {
		out["gender"] = f.Genders
	}
	if len(f.Countries) > 0 {
		out["country"] = f.Countries
	}
	if f.Location != "" {
		out["location"] = f.Location
	}
	if f.Search != "" {
		out["search"] = f.Search
	}
	if f.Status != "" {
		out["classification_status"] = f.Status
	}
	if f.ResultLabel != "" {
		out["classification_result"] = f.ResultLabel
	}
	if f.DateFrom != nil {
		out["date_from"] = f.DateFrom.UTC().Format(time.RFC3339)
	}
	if f.DateTo != nil {
		out["date_to"] = f.DateTo.UTC().Format(time.RFC3339)
	}
	return out
}

func (f SubmissionFilter) where() (string, []any) {
	where := []string{"is_deleted=0"}
	args := []any{}

	if f.AgeMin != nil {
		where = append(where, "age >= ?")
		args = append(args, *f.AgeMin)
	}
	if f.AgeMax != nil {
		where = append(where, "age <= ?")
		args = append(args, *f.AgeMax)
	}
	if len(f.Genders) > 0 {
		where = append(where, "gender IN ("+placeholders(len(f.Genders))+")")
		for _, g := range f.Genders {
			args = append(args, g)
		}
	}
	if len(f.Countries) > 0 {
		where = append(where, "country IN ("+placeholders(len(f.Countries))+")")
		for _, c := range f.Countries {
			args = append(args, c)
		}
	}
	if f.Location != "" {
		where = append(where, "LOWER(location) LIKE ?")
		args = append(args, likePattern(f.Location))
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(country) LIKE ?)")
		args = append(args, p, p, p)
	}
	if f.Status != "" {
		where = append(where, "classification_status = ?")
		args = append(args, f.Status)
	}
	if f.ResultLabel != "" {
		where = append(where, "JSON_CONTAINS(classification_results, JSON_OBJECT('label', ?))")
		args = append(args, f.ResultLabel)
	}
	if f.DateFrom != nil {
		where = append(where, "created_at >= ?")
		args = append(args, f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		where = append(where, "created_at <= ?")
		args = append(args, f.DateTo.UTC())
	}
	return strings.Join(where, " AND "), args
}

// sortColumns whitelists sortable fields; anything else falls back to created_at.
var sortColumns = map[string]string{
	"created_at":            "created_at",
	"age":                   "age",
	"name":                  "name",
	"country":               "country",
	"gender":                "gender",
	"classification_status": "classification_status",
	"photo_size":            "photo_size",
}

// Sort is a validated ORDER BY.
type Sort struct {
	Field string
	Desc  bool
}

// NewSort whitelists field and defaults to created_at desc.
func NewSort(field, order string) Sort {
	col, ok := sortColumns[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		col = "created_at"
	}
	return Sort{Field: col, Desc: !strings.EqualFold(strings.TrimSpace(order), "asc")}
}

func (s Sort) clause() string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	// id breaks ties so pages are stable
	return col + " " + dir + ", id " + dir
}

// Search runs a filtered, sorted, paginated query and returns the page
// together with the total number of matching rows.
func (r *SubmissionRepo) Search(ctx context.Context, f SubmissionFilter, s Sort, page Page) ([]model.Submission, int64, error) {
	cond, args := f.where()

	var total int64
	if err := r.DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM submissions WHERE "+cond, args...); err != nil {
		return nil, 0, err
	}

	out := make([]model.Submission, 0, page.Size)
	dataSQL := "SELECT " + submissionColumns + " FROM submissions WHERE " + cond +
		" ORDER BY " + s.clause() + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), page.Size, page.Offset())
	if err := r.DB.SelectContext(ctx, &out, dataSQL, argsData...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Stream applies the same filter without pagination and hands each row to
// fn as it is read from the cursor. limit <= 0 means no limit. Iteration
// stops at the first error returned by fn.
func (r *SubmissionRepo) Stream(ctx context.Context, f SubmissionFilter, s Sort, limit int, fn func(model.Submission) error) error {
	cond, args := f.where()
	q := "SELECT " + submissionColumns + " FROM submissions WHERE " + cond + " ORDER BY " + s.clause()
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryxContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sub model.Submission
		if err := rows.StructScan(&sub); err != nil {
			return err
		}
		if err := fn(sub); err != nil {
			return err
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern lowercases and escapes s for a substring LIKE match.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
