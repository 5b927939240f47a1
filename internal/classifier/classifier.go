// Package classifier labels photos. The model behind the Classifier
// interface is opaque to the rest of the system.
package classifier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"

	_ "golang.org/x/image/webp"

	"github.com/iliyamo/photo-platform/internal/model"
)

// Classifier returns the top predictions for an image, highest confidence first.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (model.Predictions, error)
}

// Labels is the vocabulary of the digest classifier.
var Labels = []string{
	"golden_retriever", "cat", "sports_car", "coffee_mug", "laptop",
	"smartphone", "bicycle", "airplane", "boat", "tree",
	"flower", "mountain", "beach", "building", "person",
	"dog", "bird", "fish", "horse", "elephant",
	"tiger", "lion", "bear", "zebra", "giraffe",
}

// maxTopK is bounded by the 16 digest bytes reserved for confidences.
const maxTopK = 8

// DigestClassifier is a deterministic stand-in for a real model: it checks
// that the bytes decode as a supported image and derives TopK labels and
// confidences from the SHA-256 of the content. The same bytes always
// produce the same predictions.
type DigestClassifier struct {
	TopK int
}

func NewDigestClassifier() *DigestClassifier { return &DigestClassifier{TopK: 3} }

func (c *DigestClassifier) Classify(_ context.Context, data []byte) (model.Predictions, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to classify image: %w", err)
	}
	k := c.TopK
	if k <= 0 {
		k = 3
	}
	if k > maxTopK {
		k = maxTopK
	}

	sum := sha256.Sum256(data)
	order := make([]int, len(Labels))
	for i := range order {
		order[i] = i
	}
	// Fisher-Yates driven by the digest; 32 bytes cover well over k swaps.
	for i := 0; i < k; i++ {
		j := i + int(sum[i])%(len(order)-i)
		order[i], order[j] = order[j], order[i]
	}

	confs := make([]float64, k)
	for i := range confs {
		v := binary.BigEndian.Uint16(sum[16+2*i:])
		confs[i] = math.Round((0.6+0.39*float64(v)/math.MaxUint16)*10000) / 10000
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(confs)))

	out := make(model.Predictions, k)
	for i := 0; i < k; i++ {
		out[i] = model.Prediction{Label: Labels[order[i]], Confidence: confs[i]}
	}
	return out, nil
}
