package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wavevoice/internal/enrich"
	"wavevoice/internal/events"
	"wavevoice/internal/inference"
	"wavevoice/internal/store"
	"wavevoice/internal/submission"
	"wavevoice/internal/voice"
)

// SubmissionReader serves the read side of the submission ledger.
type SubmissionReader interface {
	GetSubmission(ctx context.Context, submissionID string) (store.Submission, error)
	ListSubmissions(ctx context.Context, limit int) ([]store.Submission, error)
}

// Handler exposes the pipeline over HTTP. Every endpoint answers JSON,
// failures included; nothing escapes as an unhandled panic or bare 500.
type Handler struct {
	Voice       *voice.Orchestrator
	Enrich      *enrich.Orchestrator
	LangDetect  inference.LangDetector
	Submissions *submission.Service
	Ledger      SubmissionReader
}

func NewHandler(voiceOrch *voice.Orchestrator, enrichOrch *enrich.Orchestrator, detector inference.LangDetector, submissions *submission.Service, ledger SubmissionReader) *Handler {
	return &Handler{
		Voice:       voiceOrch,
		Enrich:      enrichOrch,
		LangDetect:  detector,
		Submissions: submissions,
		Ledger:      ledger,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/voice", h.handleVoice)
	mux.HandleFunc("/v1/detect-language", h.handleDetectLanguage)
	mux.HandleFunc("/v1/enrich", h.handleEnrich)
	mux.HandleFunc("/v1/submissions", h.handleSubmissions)
}

func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Text           string `json:"text"`
		SourceLanguage string `json:"source_language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.Voice.Handle(r.Context(), req.Text, req.SourceLanguage)
	if err != nil {
		if errors.Is(err, voice.ErrEmptyText) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDetectLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text field is required and must be non-empty")
		return
	}

	start := time.Now()
	detected, err := h.LangDetect.Detect(r.Context(), req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"detected_language": detected.Language,
		"confidence":        detected.Confidence,
		"latency_ms":        time.Since(start).Milliseconds(),
	})
}

func (h *Handler) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	// Accept both the event envelope and the direct {text, language} shape.
	req, err := decodeEnrichRequest(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.Enrich.Handle(r.Context(), req)
	if err != nil {
		if errors.Is(err, enrich.ErrEmptyText) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeEnrichRequest(raw []byte) (enrich.Request, error) {
	var probe struct {
		Detail *json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return enrich.Request{}, err
	}
	if probe.Detail != nil {
		c, err := events.Decode(raw)
		if err != nil {
			return enrich.Request{}, err
		}
		return enrich.FromEvent(c), nil
	}
	var direct struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(raw, &direct); err != nil {
		return enrich.Request{}, err
	}
	return enrich.Direct(direct.Text, direct.Language), nil
}

func (h *Handler) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
	case http.MethodGet:
		h.handleSubmissionQuery(w, r)
		return
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SubmissionID string         `json:"submission_id"`
		Payload      map[string]any `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.Submissions.Submit(r.Context(), req.SubmissionID, req.Payload)
	if err != nil {
		if errors.Is(err, submission.ErrInvalidPayload) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSubmissionQuery answers GET /v1/submissions: with ?submission_id
// it returns the latest ledger row for that submission, otherwise the most
// recent submissions (?limit, default 20).
func (h *Handler) handleSubmissionQuery(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("submission_id"); id != "" {
		sub, err := h.Ledger.GetSubmission(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sub)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	subs, err := h.Ledger.ListSubmissions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if subs == nil {
		subs = []store.Submission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
