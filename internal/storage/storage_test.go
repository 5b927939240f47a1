package storage

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/photo-platform/internal/config"
)

func TestNewObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	key, err := NewObjectKey("3f2a", ".JPG", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^photos/3f2a/20260304_050607_[0-9a-f]{12}\.jpg$`), key)

	other, err := NewObjectKey("3f2a", "jpg", now)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestNewMinioStoreRejectsBadEndpoint(t *testing.T) {
	_, err := NewMinioStore(config.StorageConfig{Endpoint: "http://bad endpoint", AccessKey: "k", SecretKey: "s", Bucket: "photos"})
	assert.Error(t, err)
}
