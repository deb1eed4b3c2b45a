package enrich

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"wavevoice/internal/events"
)

// EventSource is what the worker consumes from; satisfied by
// *events.Channel.
type EventSource interface {
	Pop(ctx context.Context, timeout time.Duration) (events.Classification, error)
}

// Worker drains classification events and enriches each one. A failed
// enrichment is logged and dropped; there is no retry across the async
// gap, so a lost event means that utterance is never enriched.
type Worker struct {
	Source       EventSource
	Orchestrator *Orchestrator
	PopTimeout   time.Duration
}

func NewWorker(source EventSource, orchestrator *Orchestrator) *Worker {
	return &Worker{Source: source, Orchestrator: orchestrator, PopTimeout: 5 * time.Second}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		evt, err := w.Source.Pop(ctx, w.PopTimeout)
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("event pop failed: %v", err)
			continue
		}

		resp, err := w.Orchestrator.Handle(ctx, FromEvent(evt))
		if err != nil {
			log.Printf("enrichment failed for intent %q: %v", evt.Intent, err)
			continue
		}
		log.Printf("enriched %s: sentiment=%s dims=%d latency=%dms",
			resp.ResultID, resp.Sentiment.Sentiment, resp.EmbeddingDimensions, resp.LatencyMS)
	}
}
