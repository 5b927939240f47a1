// Package queue hands classification tasks from the upload request to the
// classification worker, either in-process or over RabbitMQ.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
)

// ClassificationRequested is emitted once per stored submission. It carries
// enough to classify without re-reading the row first.
type ClassificationRequested struct {
    SubmissionID string `json:"submission_id"`
    PhotoPath    string `json:"photo_path"`
    RequestedAt  string `json:"requested_at"`
}

func decodeTask(body []byte) (ClassificationRequested, error) {
    var t ClassificationRequested
    if err := json.Unmarshal(body, &t); err != nil {
        return t, fmt.Errorf("unmarshal: %w", err)
    }
    if t.SubmissionID == "" || t.PhotoPath == "" {
        return t, errors.New("task missing submission_id or photo_path")
    }
    return t, nil
}
