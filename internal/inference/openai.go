package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type OpenAIEmbedder struct {
	APIKey  string
	Model   string
	DimVal  int
	BaseURL string
	Client  *http.Client
}

func NewOpenAIEmbedder(apiKey string, model string, dim int) *OpenAIEmbedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dim <= 0 {
		dim = 1536
	}
	return &OpenAIEmbedder{
		APIKey:  apiKey,
		Model:   model,
		DimVal:  dim,
		BaseURL: "https://api.openai.com",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OpenAIEmbedder) Name() string {
	return "openai"
}

func (o *OpenAIEmbedder) Dim() int {
	return o.DimVal
}

func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if o.APIKey == "" {
		return nil, errors.New("openai api key not configured")
	}
	payload := map[string]any{
		"model":      o.Model,
		"input":      []string{text},
		"dimensions": o.DimVal,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("openai embedding request failed")
	}

	var decoded struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if len(decoded.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return decoded.Data[0].Embedding, nil
}
