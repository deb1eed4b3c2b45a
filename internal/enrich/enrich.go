package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wavevoice/internal/events"
	"wavevoice/internal/inference"
	"wavevoice/internal/results"
)

var ErrEmptyText = errors.New("text field is required")

// Request is one enrichment invocation. Intent is carried through when the
// request originated from a classification event; the enrichment stage
// itself never classifies or re-detects language.
type Request struct {
	Text     string
	Language string
	Intent   string
}

// FromEvent maps a classification event to an enrichment request. Events
// without a language fall back to english.
func FromEvent(c events.Classification) Request {
	language := c.Language
	if language == "" {
		language = "english"
	}
	return Request{Text: c.Text, Language: language, Intent: c.Intent}
}

// Direct is the direct-invocation path: no originating classification, so
// language defaults to "auto" when absent.
func Direct(text string, language string) Request {
	if language == "" {
		language = "auto"
	}
	return Request{Text: text, Language: language}
}

type Response struct {
	ResultID            string                    `json:"result_id"`
	Text                string                    `json:"text"`
	Language            string                    `json:"language"`
	Intent              string                    `json:"intent"`
	Sentiment           inference.SentimentResult `json:"sentiment"`
	EmbeddingDimensions int                       `json:"embedding_dimensions"`
	LatencyMS           int64                     `json:"latency_ms"`
}

// Orchestrator runs the second pipeline stage: sentiment, embedding, one
// durable record. Both inference calls and the store write are hard
// dependencies; any failure aborts the invocation with nothing persisted.
type Orchestrator struct {
	Gateway   inference.Gateway
	Results   results.Store
	ResultTTL time.Duration
}

func NewOrchestrator(gateway inference.Gateway, store results.Store, ttl time.Duration) *Orchestrator {
	return &Orchestrator{Gateway: gateway, Results: store, ResultTTL: ttl}
}

func (o *Orchestrator) Handle(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Response{}, ErrEmptyText
	}

	start := time.Now()

	sentiment, err := o.Gateway.Sentiment(ctx, req.Text, req.Language)
	if err != nil {
		return Response{}, fmt.Errorf("sentiment analysis: %w", err)
	}

	embedding, err := o.Gateway.Embed(ctx, req.Text)
	if err != nil {
		return Response{}, fmt.Errorf("embedding generation: %w", err)
	}

	latency := time.Since(start).Milliseconds()

	rec := results.NewRecord(req.Text, req.Language, req.Intent, results.Sentiment{
		Sentiment:  sentiment.Sentiment,
		Category:   sentiment.Category,
		Confidence: sentiment.Confidence,
	}, len(embedding), latency, o.ResultTTL)

	id, err := o.Results.Put(ctx, rec)
	if err != nil {
		return Response{}, fmt.Errorf("persist result: %w", err)
	}

	return Response{
		ResultID:            id,
		Text:                truncate(req.Text, 200),
		Language:            rec.Language,
		Intent:              rec.Intent,
		Sentiment:           normalizeSentiment(sentiment),
		EmbeddingDimensions: len(embedding),
		LatencyMS:           latency,
	}, nil
}

// normalizeSentiment applies the "unknown"/0 defaults for fields the model
// left blank, mirroring what the persisted record stores.
func normalizeSentiment(s inference.SentimentResult) inference.SentimentResult {
	if s.Sentiment == "" {
		s.Sentiment = "unknown"
	}
	if s.Category == "" {
		s.Category = "unknown"
	}
	return s
}

// truncate cuts on runes so a multibyte character never straddles the cut.
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
