// Package storage is the Object Store: photo bytes keyed by object key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/iliyamo/photo-platform/internal/utils"
)

// ErrObjectNotFound is returned by Get for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore stores and retrieves opaque byte blobs.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewObjectKey builds photos/<id>/<yyyymmdd_hhmmss>_<random12>.<ext>.
func NewObjectKey(submissionID, ext string, now time.Time) (string, error) {
	suffix, err := utils.NewOpaqueToken(6)
	if err != nil {
		return "", fmt.Errorf("object key suffix: %w", err)
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	name := now.UTC().Format("20060102_150405") + "_" + suffix + "." + ext
	return path.Join("photos", submissionID, name), nil
}
