package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"wavevoice/internal/enrich"
	"wavevoice/internal/events"
	"wavevoice/internal/inference"
	"wavevoice/internal/intent"
	"wavevoice/internal/results"
	"wavevoice/internal/store"
	"wavevoice/internal/submission"
	"wavevoice/internal/token"
	"wavevoice/internal/voice"
)

type memoryStore struct {
	records []results.Record
}

func (m *memoryStore) Put(_ context.Context, rec results.Record) (string, error) {
	m.records = append(m.records, rec)
	return rec.ID, nil
}

type memoryPublisher struct {
	published []events.Classification
}

func (m *memoryPublisher) Publish(_ context.Context, c events.Classification) error {
	m.published = append(m.published, c)
	return nil
}

type okForwarder struct{}

func (okForwarder) Submit(context.Context, map[string]any) (int, string, error) {
	return 200, `{"ok":true}`, nil
}

type memoryLedger struct{ count int }

func (m *memoryLedger) RecordSubmission(context.Context, string, int, string) (string, error) {
	m.count++
	return "rec-1", nil
}

type memoryReader struct {
	subs []store.Submission
}

func (m *memoryReader) GetSubmission(_ context.Context, submissionID string) (store.Submission, error) {
	for i := len(m.subs) - 1; i >= 0; i-- {
		if m.subs[i].SubmissionID == submissionID {
			return m.subs[i], nil
		}
	}
	return store.Submission{}, store.ErrNotFound
}

func (m *memoryReader) ListSubmissions(_ context.Context, limit int) ([]store.Submission, error) {
	if limit <= 0 || limit > len(m.subs) {
		limit = len(m.subs)
	}
	return m.subs[:limit], nil
}

func newTestHandler(t *testing.T) (*Handler, *memoryStore, *memoryPublisher) {
	t.Helper()
	store := &memoryStore{}
	pub := &memoryPublisher{}

	voiceOrch := voice.NewOrchestrator(token.NewDetector(), intent.New(intent.DefaultKeywords()), pub)
	enrichOrch := enrich.NewOrchestrator(inference.NewNoop(256), store, 0)

	schemaPath := filepath.Join(t.TempDir(), "submission.json")
	schema := `{"type":"object","required":["name","email"],"properties":{"name":{"type":"string"},"email":{"type":"string"}}}`
	if err := os.WriteFile(schemaPath, []byte(schema), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	validator, err := submission.NewValidator(schemaPath)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	subSvc := submission.NewService(validator, okForwarder{}, &memoryLedger{})

	detector := inference.StaticLangDetector{Language: "sw", Confidence: 0.98}
	return NewHandler(voiceOrch, enrichOrch, detector, subSvc, &memoryReader{}), store, pub
}

func doRequest(t *testing.T, h *Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestVoiceEndpoint(t *testing.T) {
	h, _, pub := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/voice", map[string]any{
		"text":            "angalia salio yangu",
		"source_language": "auto",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"language", "intent", "tokens", "confidence", "latency_ms"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("missing response key %q in %v", key, body)
		}
	}
	if len(body) != 5 {
		t.Fatalf("expected exactly 5 keys, got %v", body)
	}
	if body["intent"] != "check_balance" {
		t.Fatalf("expected check_balance, got %v", body["intent"])
	}
	if body["language"] != "swahili" {
		t.Fatalf("expected swahili, got %v", body["language"])
	}
	if _, ok := body["confidence"].(float64); !ok {
		t.Fatalf("confidence must be a number")
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one published event")
	}
}

func TestVoiceEndpointEmptyText(t *testing.T) {
	h, _, pub := newTestHandler(t)
	for _, text := range []string{"", "   "} {
		rec := doRequest(t, h, http.MethodPost, "/v1/voice", map[string]any{"text": text})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", text, rec.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if _, ok := body["error"]; !ok {
			t.Fatalf("expected error key, got %v", body)
		}
	}
	if len(pub.published) != 0 {
		t.Fatalf("no events for rejected requests")
	}
}

func TestVoiceEndpointMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/v1/voice", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestDetectLanguageEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/detect-language", map[string]any{"text": "habari yako"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["detected_language"] != "sw" {
		t.Fatalf("expected sw, got %v", body["detected_language"])
	}
	if _, ok := body["latency_ms"]; !ok {
		t.Fatalf("expected latency_ms in response")
	}
}

func TestDetectLanguageEmptyText(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/detect-language", map[string]any{"text": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEnrichEndpointDirect(t *testing.T) {
	h, store, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/enrich", map[string]any{
		"text":     "I love this service",
		"language": "english",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["embedding_dimensions"].(float64) != 256 {
		t.Fatalf("expected 256 dims, got %v", body["embedding_dimensions"])
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one persisted record")
	}
	if store.records[0].EmbeddingDimensions != 256 {
		t.Fatalf("record dims must match embedding length")
	}
}

func TestEnrichEndpointEventEnvelope(t *testing.T) {
	h, store, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/enrich", map[string]any{
		"source":      "wave.voice",
		"detail-type": "VoiceClassification",
		"detail": map[string]any{
			"text":        "tuma pesa kwa mama",
			"language":    "swahili",
			"intent":      "send_money",
			"confidence":  0.9,
			"token_count": 4,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one persisted record")
	}
	if store.records[0].Intent != "send_money" {
		t.Fatalf("expected intent carried from event, got %s", store.records[0].Intent)
	}
	if store.records[0].Language != "swahili" {
		t.Fatalf("expected event language, got %s", store.records[0].Language)
	}
}

func TestEnrichEndpointEmptyText(t *testing.T) {
	h, store, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/enrich", map[string]any{"text": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(store.records) != 0 {
		t.Fatalf("no record for empty text")
	}
}

func TestSubmissionsEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/submissions", map[string]any{
		"submission_id": "sub-7",
		"payload":       map[string]any{"name": "Awa", "email": "awa@example.com"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["submission_id"] != "sub-7" || body["api_status"].(float64) != 200 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSubmissionsQueryByID(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.Ledger.(*memoryReader).subs = []store.Submission{
		{ID: "rec-1", SubmissionID: "sub-7", StatusCode: 200, ResponseBody: `{"ok":true}`},
	}
	rec := doRequest(t, h, http.MethodGet, "/v1/submissions?submission_id=sub-7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["submission_id"] != "sub-7" || body["status_code"].(float64) != 200 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSubmissionsQueryUnknownID(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/v1/submissions?submission_id=missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubmissionsQueryList(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.Ledger.(*memoryReader).subs = []store.Submission{
		{ID: "rec-1", SubmissionID: "sub-1", StatusCode: 200},
		{ID: "rec-2", SubmissionID: "sub-2", StatusCode: 500},
	}
	rec := doRequest(t, h, http.MethodGet, "/v1/submissions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Submissions []store.Submission `json:"submissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Submissions) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(body.Submissions))
	}
}

func TestSubmissionsQueryEmptyLedger(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/v1/submissions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if _, ok := body["submissions"].([]any); !ok {
		t.Fatalf("expected submissions array, got %v", body)
	}
}

func TestSubmissionsEndpointInvalidPayload(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/submissions", map[string]any{
		"submission_id": "sub-8",
		"payload":       map[string]any{"name": "Awa"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected error key, got %v", body)
	}
}
