package inference

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
)

// SentimentResult is the judgment returned by the sentiment model. Fields
// the model omits default to "unknown" / 0 rather than failing the call.
type SentimentResult struct {
	Sentiment  string  `json:"sentiment"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary,omitempty"`
}

type SentimentProvider interface {
	Sentiment(ctx context.Context, text string, language string) (SentimentResult, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
	Name() string
}

// Gateway bundles the two independent inference calls the enrichment stage
// depends on. Both are hard dependencies: a failure in either aborts the
// invocation with no partial result persisted.
type Gateway interface {
	SentimentProvider
	Embedder
}

// Split composes independent sentiment and embedding providers into one
// Gateway, so each side can be swapped without touching the other.
type Split struct {
	Sentiments SentimentProvider
	Embeddings Embedder
}

func (s Split) Sentiment(ctx context.Context, text string, language string) (SentimentResult, error) {
	return s.Sentiments.Sentiment(ctx, text, language)
}

func (s Split) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.Embeddings.Embed(ctx, text)
}

func (s Split) Dim() int {
	return s.Embeddings.Dim()
}

func (s Split) Name() string {
	return s.Embeddings.Name()
}

// Noop is a deterministic offline gateway for dev mode and tests: neutral
// sentiment and a text-seeded pseudo vector.
type Noop struct {
	dim int
}

func NewNoop(dim int) *Noop {
	if dim <= 0 {
		dim = 256
	}
	return &Noop{dim: dim}
}

func (n *Noop) Sentiment(_ context.Context, _ string, _ string) (SentimentResult, error) {
	return SentimentResult{Sentiment: "neutral", Category: "inquiry", Confidence: 0.5}, nil
}

func (n *Noop) Embed(_ context.Context, text string) ([]float32, error) {
	return pseudoVector(text, n.dim), nil
}

func (n *Noop) Dim() int {
	return n.dim
}

func (n *Noop) Name() string {
	return "noop"
}

func pseudoVector(text string, dim int) []float32 {
	h := sha256.Sum256([]byte(text))
	seed := int64(binary.LittleEndian.Uint64(h[:8]))
	rnd := rand.New(rand.NewSource(seed))
	vec := make([]float32, dim)
	for i := 0; i < dim; i++ {
		vec[i] = float32(rnd.Float64()*2 - 1)
	}
	return normalize(vec)
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := 1 / float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
