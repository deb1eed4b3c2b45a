package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL matches the analytics retention window: 30 days.
	DefaultTTL = 30 * 24 * time.Hour

	maxStoredText = 500
)

// Record is the durable unit produced by the enrichment stage. Written
// once, never mutated, removed only by store expiry.
type Record struct {
	ID                  string  `json:"id"`
	Text                string  `json:"text"`
	Language            string  `json:"language"`
	Intent              string  `json:"intent"`
	Sentiment           string  `json:"sentiment"`
	Category            string  `json:"category"`
	SentimentConfidence float64 `json:"sentiment_confidence"`
	EmbeddingDimensions int     `json:"embedding_dimensions"`
	LatencyMS           int64   `json:"latency_ms"`
	CreatedAt           int64   `json:"created_at"`
	ExpiresAt           int64   `json:"expires_at"`
}

type Store interface {
	Put(ctx context.Context, rec Record) (string, error)
}

// NewID returns the first 8 hex characters of a random UUID. Uniqueness is
// probabilistic, not guaranteed; at this volume a collision just overwrites
// an analytics row, which the product accepts.
func NewID() string {
	return uuid.NewString()[:8]
}

// NewRecord fills in ID, truncation, timestamps and expiry for a record
// about to be written.
func NewRecord(text, language, intent string, sentiment Sentiment, embeddingDims int, latencyMS int64, ttl time.Duration) Record {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().Unix()
	return Record{
		ID:                  NewID(),
		Text:                truncate(text, maxStoredText),
		Language:            orUnknown(language),
		Intent:              orUnknown(intent),
		Sentiment:           orUnknown(sentiment.Sentiment),
		Category:            orUnknown(sentiment.Category),
		SentimentConfidence: sentiment.Confidence,
		EmbeddingDimensions: embeddingDims,
		LatencyMS:           latencyMS,
		CreatedAt:           now,
		ExpiresAt:           now + int64(ttl/time.Second),
	}
}

// Sentiment is the subset of the inference result the record keeps.
type Sentiment struct {
	Sentiment  string
	Category   string
	Confidence float64
}

// RedisStore persists records under ML#<id>:RESULT#<unix> with a native
// per-key TTL, so expiry needs no sweeper.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: redis.NewClient(opt), ttl: ttl}, nil
}

func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Put(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		return "", errors.New("record missing id")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, Key(rec.ID, rec.CreatedAt), payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Key builds the storage key: a partition component from the record id and
// a time-sorted result component.
func Key(id string, createdAt int64) string {
	return fmt.Sprintf("ML#%s:RESULT#%d", id, createdAt)
}

// truncate cuts on runes, not bytes, so multibyte text never ends up as
// invalid UTF-8 in a stored record.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
