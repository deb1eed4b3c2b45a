package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	Source     = "wave.voice"
	DetailType = "VoiceClassification"
)

// Classification is the hand-off payload from the voice stage to the
// enrichment stage. Immutable once published; delivery is best-effort and
// unordered, so consumers must not assume every classification arrives.
type Classification struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	TokenCount int     `json:"token_count"`
}

// Envelope wraps a Classification in the bus event shape. Pop also accepts
// the bare direct-invocation shape {"text": ..., "language": ...}.
type Envelope struct {
	Source     string         `json:"source"`
	DetailType string         `json:"detail-type"`
	Detail     Classification `json:"detail"`
}

type Publisher interface {
	Publish(ctx context.Context, c Classification) error
}

// Channel is a Redis-list event channel. Publishing pushes an envelope;
// consumers block-pop from the same list. At-most-once from the
// publisher's perspective: a push that fails is simply lost.
type Channel struct {
	client *redis.Client
	name   string
}

func NewChannel(url string, name string) (*Channel, error) {
	if name == "" {
		return nil, errors.New("missing channel name")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Channel{client: redis.NewClient(opt), name: name}, nil
}

func (ch *Channel) Ping(ctx context.Context) error {
	return ch.client.Ping(ctx).Err()
}

func (ch *Channel) Publish(ctx context.Context, c Classification) error {
	payload, err := json.Marshal(Envelope{Source: Source, DetailType: DetailType, Detail: c})
	if err != nil {
		return err
	}
	return ch.client.LPush(ctx, ch.name, payload).Err()
}

// Pop blocks up to timeout for the next event. Returns redis.Nil via the
// wrapped error when the timeout elapses with no event.
func (ch *Channel) Pop(ctx context.Context, timeout time.Duration) (Classification, error) {
	res, err := ch.client.BRPop(ctx, timeout, ch.name).Result()
	if err != nil {
		return Classification{}, err
	}
	if len(res) < 2 {
		return Classification{}, redis.Nil
	}
	return Decode([]byte(res[1]))
}

func (ch *Channel) Depth(ctx context.Context) (int64, error) {
	return ch.client.LLen(ctx, ch.name).Result()
}

func (ch *Channel) Close() error {
	return ch.client.Close()
}

// Decode parses either an envelope or the direct {"text","language"} shape.
func Decode(payload []byte) (Classification, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Classification{}, err
	}
	if env.DetailType != "" || env.Detail.Text != "" {
		return env.Detail, nil
	}
	var direct Classification
	if err := json.Unmarshal(payload, &direct); err != nil {
		return Classification{}, err
	}
	return direct, nil
}

// PublishBestEffort publishes and swallows any failure. The voice response
// must not fail because the event channel is down; a lost event means that
// utterance is never enriched, which is an accepted trade-off. Returns
// whether the publish succeeded so callers can observe the drop.
func PublishBestEffort(ctx context.Context, pub Publisher, c Classification) bool {
	if pub == nil {
		return false
	}
	if err := pub.Publish(ctx, c); err != nil {
		log.Printf("classification event publish failed (dropped): %v", err)
		return false
	}
	return true
}
