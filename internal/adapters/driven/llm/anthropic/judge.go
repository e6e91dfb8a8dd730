// Package anthropic provides a conflict judge adapter using the Anthropic API.
package anthropic

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
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	// maxJudgmentTokens bounds the judgment completion.
	maxJudgmentTokens = 512
)

// judgeSystemPrompt constrains the model to the judgment contract.
const judgeSystemPrompt = `You compare two document excerpts and decide whether they make contradictory factual claims about the same subject.

Respond with a single JSON object and nothing else:
{"verdict": "conflict" | "no_conflict" | "inconclusive", "explanation": "<one or two sentences>", "confidence": <number between 0 and 1>}

Differences in topic, scope, or level of detail are not conflicts. Only direct factual contradictions count.`

// Config holds configuration for the Anthropic conflict judge.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// ConflictJudge performs conflict judgments using the Anthropic API.
type ConflictJudge struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// judgmentPayload is the JSON shape the judge prompt asks for.
type judgmentPayload struct {
	Verdict     string  `json:"verdict"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// NewConflictJudge creates a new Anthropic conflict judge.
func NewConflictJudge(cfg Config) (*ConflictJudge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
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
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Judge decides whether the two texts contain contradictory claims.
func (j *ConflictJudge) Judge(ctx context.Context, textA, textB string) (driven.Judgment, error) {
	prompt := fmt.Sprintf("Document A:\n%s\n\nDocument B:\n%s", textA, textB)

	reqBody := messagesRequest{
		Model: j.model,
		Messages: []messagesMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxJudgmentTokens,
		System:    judgeSystemPrompt,
	}

	text, err := j.complete(ctx, reqBody)
	if err != nil {
		return driven.Judgment{}, err
	}

	return parseJudgment(text)
}

// complete sends one messages request and returns the text content.
func (j *ConflictJudge) complete(ctx context.Context, reqBody messagesRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		j.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", j.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := j.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: anthropic: %v", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: read response: %v", domain.ErrProvider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: anthropic: status %d: %s", domain.ErrProvider, resp.StatusCode, string(body))
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("%w: anthropic: decode response: %v", domain.ErrProvider, err)
	}
	if msgResp.Error != nil {
		return "", fmt.Errorf("%w: anthropic: %s: %s", domain.ErrProvider, msgResp.Error.Type, msgResp.Error.Message)
	}

	var sb strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// parseJudgment extracts the judgment JSON from the model output,
// tolerating surrounding prose or code fences.
func parseJudgment(text string) (driven.Judgment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return driven.Judgment{}, fmt.Errorf("%w: anthropic: no JSON object in response", domain.ErrProvider)
	}

	var payload judgmentPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return driven.Judgment{}, fmt.Errorf("%w: anthropic: parse judgment: %v", domain.ErrProvider, err)
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

// Ping validates the service is reachable by sending a minimal request.
func (j *ConflictJudge) Ping(ctx context.Context) error {
	reqBody := messagesRequest{
		Model: j.model,
		Messages: []messagesMessage{
			{Role: "user", Content: "ping"},
		},
		MaxTokens: 1,
	}
	_, err := j.complete(ctx, reqBody)
	return err
}

// Close releases resources.
func (j *ConflictJudge) Close() error {
	return nil
}
