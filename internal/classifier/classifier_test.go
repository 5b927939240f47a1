package classifier

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: shade, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDigestClassifierDeterministic(t *testing.T) {
	c := NewDigestClassifier()
	data := pngBytes(t, 10)

	first, err := c.Classify(context.Background(), data)
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	seen := map[string]bool{}
	for i, p := range first {
		assert.GreaterOrEqual(t, p.Confidence, 0.6)
		assert.LessOrEqual(t, p.Confidence, 0.99)
		if i > 0 {
			assert.LessOrEqual(t, p.Confidence, first[i-1].Confidence)
		}
		assert.False(t, seen[p.Label], "duplicate label %s", p.Label)
		seen[p.Label] = true
	}
}

func TestDigestClassifierRejectsNonImage(t *testing.T) {
	_, err := NewDigestClassifier().Classify(context.Background(), []byte("definitely not a png"))
	assert.Error(t, err)
}
