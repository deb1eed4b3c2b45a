package voice

import (
	"context"
	"errors"
	"strings"
	"time"

	"wavevoice/internal/events"
	"wavevoice/internal/intent"
	"wavevoice/internal/token"
)

var ErrEmptyText = errors.New("text field is required and must be non-empty")

// Response is the synchronous answer to one classified utterance. The JSON
// keys are part of the API contract; callers rely on exactly this set.
type Response struct {
	Language   string   `json:"language"`
	Intent     string   `json:"intent"`
	Tokens     []string `json:"tokens"`
	Confidence float64  `json:"confidence"`
	LatencyMS  int64    `json:"latency_ms"`
}

// Orchestrator runs the first pipeline stage: tokenize, classify, publish a
// classification event, answer. All collaborators are injected.
type Orchestrator struct {
	Tokens     token.Source
	Classifier *intent.Classifier
	Events     events.Publisher
}

func NewOrchestrator(tokens token.Source, classifier *intent.Classifier, publisher events.Publisher) *Orchestrator {
	return &Orchestrator{Tokens: tokens, Classifier: classifier, Events: publisher}
}

// Handle classifies one utterance. sourceLanguage "auto" (or empty) adopts
// the detected language. The event publish is best-effort: its failure
// never fails the request.
func (o *Orchestrator) Handle(ctx context.Context, text string, sourceLanguage string) (Response, error) {
	if strings.TrimSpace(text) == "" {
		return Response{}, ErrEmptyText
	}

	start := time.Now()

	ts := o.Tokens.Tokenize(text)
	language := sourceLanguage
	if language == "" || language == "auto" {
		language = ts.Language
	}

	matched, confidence := o.Classifier.Match(ts.Tokens)
	latency := time.Since(start).Milliseconds()

	events.PublishBestEffort(ctx, o.Events, events.Classification{
		Text:       text,
		Language:   language,
		Intent:     matched,
		Confidence: confidence,
		TokenCount: len(ts.Tokens),
	})

	return Response{
		Language:   language,
		Intent:     matched,
		Tokens:     ts.Tokens,
		Confidence: confidence,
		LatencyMS:  latency,
	}, nil
}
