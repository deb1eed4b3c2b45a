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

type OllamaEmbedder struct {
	BaseURL string
	Model   string
	DimVal  int
	Client  *http.Client
}

func NewOllamaEmbedder(baseURL string, model string, dim int) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if dim <= 0 {
		dim = 768
	}
	return &OllamaEmbedder{BaseURL: baseURL, Model: model, DimVal: dim, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (o *OllamaEmbedder) Name() string {
	return "ollama"
}

func (o *OllamaEmbedder) Dim() int {
	return o.DimVal
}

func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if o.BaseURL == "" {
		return nil, errors.New("ollama url not configured")
	}
	payload := map[string]any{
		"model":  o.Model,
		"prompt": text,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/embeddings", o.BaseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("ollama embedding request failed")
	}
	var decoded struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded.Embedding, nil
}
