package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// DetectedLanguage is the answer from the language-identification endpoint
// (an XLM-RoBERTa-style classifier covering ~20 languages, Swahili, French
// and Wolof included).
type DetectedLanguage struct {
	Language   string  `json:"detected_language"`
	Confidence float64 `json:"confidence"`
}

type LangDetector interface {
	Detect(ctx context.Context, text string) (DetectedLanguage, error)
}

// HTTPLangDetector calls a hosted language-identification endpoint.
type HTTPLangDetector struct {
	EndpointURL string
	Client      *http.Client
}

func NewHTTPLangDetector(endpointURL string) *HTTPLangDetector {
	return &HTTPLangDetector{
		EndpointURL: endpointURL,
		Client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *HTTPLangDetector) Detect(ctx context.Context, text string) (DetectedLanguage, error) {
	if d.EndpointURL == "" {
		return DetectedLanguage{}, errors.New("language detection endpoint not configured")
	}
	if text == "" {
		return DetectedLanguage{}, errors.New("text must not be empty")
	}
	body, _ := json.Marshal(map[string]string{"inputs": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return DetectedLanguage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.Client.Do(req)
	if err != nil {
		return DetectedLanguage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DetectedLanguage{}, errors.New("language detection request failed")
	}

	// The endpoint answers with ranked label/score pairs; the top one wins.
	var decoded []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return DetectedLanguage{}, err
	}
	if len(decoded) == 0 {
		return DetectedLanguage{}, errors.New("empty language detection response")
	}
	return DetectedLanguage{Language: decoded[0].Label, Confidence: decoded[0].Score}, nil
}

// StaticLangDetector answers with a fixed language, for dev mode and tests.
type StaticLangDetector struct {
	Language   string
	Confidence float64
}

func (s StaticLangDetector) Detect(_ context.Context, text string) (DetectedLanguage, error) {
	if text == "" {
		return DetectedLanguage{}, errors.New("text must not be empty")
	}
	return DetectedLanguage{Language: s.Language, Confidence: s.Confidence}, nil
}
