package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionStatus is the classification lifecycle state of a submission.
// It only moves forward: pending -> processing -> completed|failed.
type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "pending"
	StatusProcessing SubmissionStatus = "processing"
	StatusCompleted  SubmissionStatus = "completed"
	StatusFailed     SubmissionStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Prediction is a single classifier label with its confidence in [0,1].
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Predictions is the ordered result list stored as JSON in
// submissions.classification_results. A nil slice maps to SQL NULL.
type Predictions []Prediction

// Value implements driver.Valuer.
func (p Predictions) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *Predictions) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("predictions: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Top returns the highest-confidence prediction. Results are stored in
// descending order so this is the first element.
func (p Predictions) Top() (Prediction, bool) {
	if len(p) == 0 {
		return Prediction{}, false
	}
	return p[0], true
}

// Submission mirrors a row of the `submissions` table.
type Submission struct {
	ID                    string           `db:"id" json:"id"`
	UserID                string           `db:"user_id" json:"user_id"`
	Name                  string           `db:"name" json:"name"`
	Age                   int              `db:"age" json:"age"`
	Gender                string           `db:"gender" json:"gender"`
	Location              string           `db:"location" json:"location"`
	Country               string           `db:"country" json:"country"`
	Description           *string          `db:"description" json:"description"`
	PhotoFilename         string           `db:"photo_filename" json:"photo_filename"`
	PhotoPath             string           `db:"photo_path" json:"photo_path"`
	PhotoSize             int64            `db:"photo_size" json:"photo_size"`
	PhotoMimeType         string           `db:"photo_mime_type" json:"photo_mime_type"`
	ClassificationStatus  SubmissionStatus `db:"classification_status" json:"classification_status"`
	ClassificationResults Predictions      `db:"classification_results" json:"classification_results"`
	ClassificationError   *string          `db:"classification_error" json:"classification_error"`
	ClassifiedAt          *time.Time       `db:"classified_at" json:"classified_at"`
	CreatedAt             time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updated_at"`
	IsDeleted             bool             `db:"is_deleted" json:"-"`
}
