package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const anthropicVersion = "2023-06-01"

// Claude scores sentiment on support messages via the Anthropic messages
// API. The model is instructed to answer with a single JSON object.
type Claude struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewClaude(apiKey string, model string, baseURL string) *Claude {
	if model == "" {
		model = "claude-3-haiku-20240307"
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &Claude{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Claude) Sentiment(ctx context.Context, text string, language string) (SentimentResult, error) {
	if c.APIKey == "" {
		return SentimentResult{}, errors.New("anthropic api key not configured")
	}
	body, err := buildSentimentRequest(c.Model, text, language)
	if err != nil {
		return SentimentResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return SentimentResult{}, err
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return SentimentResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SentimentResult{}, fmt.Errorf("sentiment request failed: status %d", resp.StatusCode)
	}

	var decoded struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return SentimentResult{}, err
	}
	if len(decoded.Content) == 0 {
		return SentimentResult{}, errors.New("missing content in sentiment response")
	}
	return parseSentimentJSON(decoded.Content[0].Text)
}

func buildSentimentRequest(model string, text string, language string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("text must not be empty")
	}
	system := fmt.Sprintf(
		"You are a sentiment analysis engine for Wave mobile money customer support. "+
			"The message is in %s. Classify sentiment and category. "+
			`Respond ONLY with JSON: {"sentiment": "positive"|"negative"|"neutral", `+
			`"category": "complaint"|"inquiry"|"praise"|"urgent", `+
			`"confidence": 0.0-1.0, "summary": "brief english summary"}`,
		language)

	payload := map[string]any{
		"model":       model,
		"max_tokens":  256,
		"temperature": 0.0,
		"system":      system,
		"messages": []map[string]any{
			{"role": "user", "content": text},
		},
	}
	return json.Marshal(payload)
}

// parseSentimentJSON validates the model's answer. Sentiment, category and
// confidence are required; anything missing means the answer is unusable.
func parseSentimentJSON(raw string) (SentimentResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return SentimentResult{}, fmt.Errorf("failed to parse sentiment JSON: %w", err)
	}
	for _, field := range []string{"sentiment", "category", "confidence"} {
		if _, ok := fields[field]; !ok {
			return SentimentResult{}, fmt.Errorf("missing field: %s", field)
		}
	}
	var result SentimentResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return SentimentResult{}, fmt.Errorf("failed to parse sentiment JSON: %w", err)
	}
	return result, nil
}
