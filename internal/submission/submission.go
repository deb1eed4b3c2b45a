package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var ErrInvalidPayload = errors.New("payload failed validation")

// Validator checks submission payloads against a JSON schema before they
// leave the system. A schema failure is the caller's problem (422), not a
// downstream one.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator(schemaPath string) (*Validator, error) {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("submission.json", bytes.NewReader(data)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("submission.json")
	if err != nil {
		return nil, err
	}
	return &Validator{schema: schema}, nil
}

func (v *Validator) Validate(payload map[string]any) error {
	if err := v.schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Client forwards a validated payload to the upstream submission API.
type Client struct {
	APIURL string
	Token  string
	HTTP   *http.Client
}

func NewClient(apiURL string, token string) *Client {
	return &Client{APIURL: apiURL, Token: token, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) Submit(ctx context.Context, payload map[string]any) (int, string, error) {
	if c.APIURL == "" {
		return 0, "", errors.New("submission api url not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, string(respBody), nil
}

// Forwarder is the upstream call, split out so tests can fake it.
type Forwarder interface {
	Submit(ctx context.Context, payload map[string]any) (int, string, error)
}

// Ledger records every submission attempt.
type Ledger interface {
	RecordSubmission(ctx context.Context, submissionID string, statusCode int, responseBody string) (string, error)
}

type Result struct {
	SubmissionID string `json:"submission_id"`
	APIStatus    int    `json:"api_status"`
	RecordID     string `json:"record_id"`
}

type Service struct {
	Validator *Validator
	Forward   Forwarder
	Ledger    Ledger
}

func NewService(validator *Validator, forward Forwarder, ledger Ledger) *Service {
	return &Service{Validator: validator, Forward: forward, Ledger: ledger}
}

// Submit validates, forwards and records one submission. Validation
// failures surface as ErrInvalidPayload before anything leaves the system.
func (s *Service) Submit(ctx context.Context, submissionID string, payload map[string]any) (Result, error) {
	if submissionID == "" {
		submissionID = "unknown"
	}
	if payload == nil {
		return Result{}, fmt.Errorf("%w: missing payload", ErrInvalidPayload)
	}
	if err := s.Validator.Validate(payload); err != nil {
		return Result{}, err
	}

	status, body, err := s.Forward.Submit(ctx, payload)
	if err != nil {
		return Result{}, err
	}

	recordID, err := s.Ledger.RecordSubmission(ctx, submissionID, status, body)
	if err != nil {
		return Result{}, err
	}

	return Result{SubmissionID: submissionID, APIStatus: status, RecordID: recordID}, nil
}
