// Package ollama provides a conflict judge adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
)

// Ensure ConflictJudge implements the interface.
var _ driven.ConflictJudge = (*ConflictJudge)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// judgePrompt frames the comparison and constrains the output shape.
const judgePrompt = `Compare the two document excerpts below and decide whether they make contradictory factual claims about the same subject. Differences in topic, scope, or level of detail are not conflicts.

Document A:
%s

Document B:
%s

Respond with a single JSON object and nothing else:
{"verdict": "conflict" | "no_conflict" | "inconclusive", "explanation": "<one or two sentences>", "confidence": <number between 0 and 1>}`

// Config holds configuration for the Ollama conflict judge.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// ConflictJudge performs conflict judgments using Ollama.
type ConflictJudge struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Format  string   `json:"format,omitempty"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// judgmentPayload is the JSON shape the judge prompt asks for.
type judgmentPayload struct {
	Verdict     string  `json:"verdict"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// NewConflictJudge creates a new Ollama conflict judge.
func NewConflictJudge(cfg Config) *ConflictJudge {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &ConflictJudge{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Judge decides whether the two texts contain contradictory claims.
func (j *ConflictJudge) Judge(ctx context.Context, textA, textB string) (driven.Judgment, error) {
	reqBody := generateRequest{
		Model:  j.model,
		Prompt: fmt.Sprintf(judgePrompt, textA, textB),
		Stream: false,
		Format: "json",
		Options: &options{
			NumPredict:  512,
			Temperature: 0,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return driven.Judgment{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		j.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return driven.Judgment{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return driven.Judgment{}, ctx.Err()
		}
		return driven.Judgment{}, fmt.Errorf("%w: ollama: %v", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return driven.Judgment{}, fmt.Errorf("%w: ollama: status %d: failed to read response", domain.ErrProvider, resp.StatusCode)
		}
		return driven.Judgment{}, fmt.Errorf("%w: ollama: status %d: %s", domain.ErrProvider, resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return driven.Judgment{}, fmt.Errorf("%w: ollama: decode response: %v", domain.ErrProvider, err)
	}

	return parseJudgment(genResp.Response)
}

// parseJudgment extracts the judgment JSON from the model output,
// tolerating surrounding prose or code fences.
func parseJudgment(text string) (driven.Judgment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return driven.Judgment{}, fmt.Errorf("%w: ollama: no JSON object in response", domain.ErrProvider)
	}

	var payload judgmentPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return driven.Judgment{}, fmt.Errorf("%w: ollama: parse judgment: %v", domain.ErrProvider, err)
	}

	verdict := domain.Verdict(payload.Verdict)
	if !verdict.IsValid() {
		verdict = domain.VerdictInconclusive
	}
	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return driven.Judgment{
		Verdict:     verdict,
		Explanation: strings.TrimSpace(payload.Explanation),
		Confidence:  confidence,
	}, nil
}

// ModelName returns the name of the model being used.
func (j *ConflictJudge) ModelName() string {
	return j.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (j *ConflictJudge) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (j *ConflictJudge) Close() error {
	return nil
}
