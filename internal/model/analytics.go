package model

// AgeBucket is one row of the age distribution histogram.
type AgeBucket struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

// Analytics is the admin dashboard summary over non-deleted submissions.
type Analytics struct {
	TotalSubmissions     int64            `json:"total_submissions"`
	TotalUsers           int64            `json:"total_users"`
	SubmissionsToday     int64            `json:"submissions_today"`
	SubmissionsThisWeek  int64            `json:"submissions_this_week"`
	SubmissionsThisMonth int64            `json:"submissions_this_month"`
	ByGender             map[string]int64 `json:"by_gender"`
	ByCountry            map[string]int64 `json:"by_country"`
	ByClassification     map[string]int64 `json:"by_classification"`
	ByStatus             map[string]int64 `json:"by_status"`
	AgeDistribution      []AgeBucket      `json:"age_distribution"`
	AvgConfidence        float64          `json:"avg_confidence"`
}
