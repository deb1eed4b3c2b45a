package voice

import (
	"context"
	"errors"
	"testing"

	"wavevoice/internal/events"
	"wavevoice/internal/intent"
	"wavevoice/internal/token"
)

type capturePublisher struct {
	published []events.Classification
	err       error
}

func (c *capturePublisher) Publish(_ context.Context, evt events.Classification) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, evt)
	return nil
}

func newOrchestrator(pub events.Publisher) *Orchestrator {
	return NewOrchestrator(token.NewDetector(), intent.New(intent.DefaultKeywords()), pub)
}

func TestHandleSwahiliBalanceCheck(t *testing.T) {
	pub := &capturePublisher{}
	o := newOrchestrator(pub)

	res, err := o.Handle(context.Background(), "angalia salio yangu", "auto")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Language != "swahili" {
		t.Fatalf("expected swahili, got %s", res.Language)
	}
	if res.Intent != "check_balance" {
		t.Fatalf("expected check_balance, got %s", res.Intent)
	}
	if res.Confidence < 0.85 {
		t.Fatalf("expected confidence >= 0.85, got %v", res.Confidence)
	}
	if res.LatencyMS < 0 {
		t.Fatalf("expected non-negative latency")
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.published))
	}
	evt := pub.published[0]
	if evt.Intent != "check_balance" || evt.TokenCount != 3 {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.Text != "angalia salio yangu" {
		t.Fatalf("event should carry the raw text, got %q", evt.Text)
	}
}

func TestHandleTransferIntent(t *testing.T) {
	o := newOrchestrator(&capturePublisher{})
	res, err := o.Handle(context.Background(), "transfer money to my friend", "auto")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Intent != "send_money" {
		t.Fatalf("expected send_money, got %s", res.Intent)
	}
}

func TestHandleEmptyText(t *testing.T) {
	pub := &capturePublisher{}
	o := newOrchestrator(pub)
	for _, text := range []string{"", "   ", "\t\n"} {
		if _, err := o.Handle(context.Background(), text, "auto"); !errors.Is(err, ErrEmptyText) {
			t.Fatalf("expected ErrEmptyText for %q, got %v", text, err)
		}
	}
	if len(pub.published) != 0 {
		t.Fatalf("no event should be published for rejected input")
	}
}

func TestHandlePublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &capturePublisher{err: errors.New("event bus down")}
	o := newOrchestrator(pub)
	res, err := o.Handle(context.Background(), "check balance", "auto")
	if err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
	if res.Intent != "check_balance" {
		t.Fatalf("expected check_balance, got %s", res.Intent)
	}
}

func TestHandleDeclaredLanguageWins(t *testing.T) {
	o := newOrchestrator(&capturePublisher{})
	res, err := o.Handle(context.Background(), "check my balance", "wolof")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Language != "wolof" {
		t.Fatalf("expected declared language to stick, got %s", res.Language)
	}
}

func TestHandleAutoAdoptsDetected(t *testing.T) {
	o := newOrchestrator(&capturePublisher{})
	for _, declared := range []string{"auto", ""} {
		res, err := o.Handle(context.Background(), "tuma pesa", declared)
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if res.Language != "swahili" {
			t.Fatalf("expected detected swahili for declared %q, got %s", declared, res.Language)
		}
	}
}

func TestHandleUnknownIntent(t *testing.T) {
	o := newOrchestrator(&capturePublisher{})
	res, err := o.Handle(context.Background(), "xyzzy plugh", "auto")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Intent != intent.Unknown {
		t.Fatalf("expected unknown, got %s", res.Intent)
	}
	if res.Confidence != 0.4 {
		t.Fatalf("expected confidence 0.4, got %v", res.Confidence)
	}
}

func TestHandleIdempotentClassification(t *testing.T) {
	o := newOrchestrator(&capturePublisher{})
	r1, _ := o.Handle(context.Background(), "send pesa now", "auto")
	r2, _ := o.Handle(context.Background(), "send pesa now", "auto")
	if r1.Intent != r2.Intent || r1.Confidence != r2.Confidence {
		t.Fatalf("expected identical classification, got %+v vs %+v", r1, r2)
	}
}
