package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/photo-platform/internal/model"
)

var ageBuckets = []string{"Under 18", "18-25", "26-35", "36-45", "46-55", "56-65", "65+"}

const ageBucketExpr = `CASE
	WHEN age < 18 THEN 'Under 18'
	WHEN age <= 25 THEN '18-25'
	WHEN age <= 35 THEN '26-35'
	WHEN age <= 45 THEN '36-45'
	WHEN age <= 55 THEN '46-55'
	WHEN age <= 65 THEN '56-65'
	ELSE '65+' END`

const topLabelExpr = "JSON_UNQUOTE(JSON_EXTRACT(classification_results, '$[0].label'))"

type bucketRow struct {
	Key   sql.NullString `db:"k"`
	Count int64          `db:"n"`
}

// Analytics aggregates dashboard figures over non-deleted submissions.
// now anchors the today/week/month windows (UTC, week starts Monday).
func (r *SubmissionRepo) Analytics(ctx context.Context, now time.Time) (model.Analytics, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	week := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var a model.Analytics
	err := r.DB.QueryRowxContext(ctx, `SELECT
			COUNT(*),
			COUNT(DISTINCT user_id),
			COALESCE(SUM(created_at >= ?), 0),
			COALESCE(SUM(created_at >= ?), 0),
			COALESCE(SUM(created_at >= ?), 0)
		FROM submissions WHERE is_deleted=0`, today, week, month).
		Scan(&a.TotalSubmissions, &a.TotalUsers, &a.SubmissionsToday, &a.SubmissionsThisWeek, &a.SubmissionsThisMonth)
	if err != nil {
		return a, err
	}

	if a.ByGender, err = r.buckets(ctx, "SELECT gender AS k, COUNT(*) AS n FROM submissions WHERE is_deleted=0 GROUP BY gender"); err != nil {
		return a, err
	}
	if a.ByCountry, err = r.buckets(ctx, "SELECT country AS k, COUNT(*) AS n FROM submissions WHERE is_deleted=0 GROUP BY country ORDER BY n DESC LIMIT 10"); err != nil {
		return a, err
	}
	if a.ByStatus, err = r.buckets(ctx, "SELECT classification_status AS k, COUNT(*) AS n FROM submissions WHERE is_deleted=0 GROUP BY classification_status"); err != nil {
		return a, err
	}
	if a.ByClassification, err = r.buckets(ctx, "SELECT "+topLabelExpr+" AS k, COUNT(*) AS n FROM submissions "+
		"WHERE is_deleted=0 AND classification_results IS NOT NULL GROUP BY k ORDER BY n DESC LIMIT 10"); err != nil {
		return a, err
	}

	ages, err := r.buckets(ctx, "SELECT "+ageBucketExpr+" AS k, COUNT(*) AS n FROM submissions WHERE is_deleted=0 GROUP BY k")
	if err != nil {
		return a, err
	}
	a.AgeDistribution = make([]model.AgeBucket, 0, len(ageBuckets))
	for _, b := range ageBuckets {
		if n, ok := ages[b]; ok {
			a.AgeDistribution = append(a.AgeDistribution, model.AgeBucket{Range: b, Count: n})
		}
	}

	var avg sql.NullFloat64
	if err := r.DB.GetContext(ctx, &avg,
		"SELECT AVG(JSON_EXTRACT(classification_results, '$[0].confidence')) FROM submissions "+
			"WHERE is_deleted=0 AND classification_results IS NOT NULL"); err != nil {
		return a, err
	}
	if avg.Valid {
		a.AvgConfidence = float64(int64(avg.Float64*10000+0.5)) / 10000
	}
	return a, nil
}

func (r *SubmissionRepo) buckets(ctx context.Context, q string) (map[string]int64, error) {
	var rows []bucketRow
	if err := r.DB.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		if row.Key.Valid && row.Key.String != "" {
			out[row.Key.String] = row.Count
		}
	}
	return out, nil
}
