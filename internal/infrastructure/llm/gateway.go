package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ProspectPilot/internal/config"
	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
	"ProspectPilot/internal/retry"
)

const vendorPreamble = "\n\nCRITICAL VENDOR CONTEXT (ground truth; never ask the user for these fields):\n"

// ErrEmptyContent is returned when the proxy answered without a usable JSON object.
var ErrEmptyContent = errors.New("model returned no json object")

// UsageRecorder receives best-effort accounting; it must not block.
type UsageRecorder interface {
	AddTokens(model string, n int)
	LLMCall(outcome string)
}

// Gateway implements ports.JSONGenerator against an OpenAI-compatible JSON proxy.
type Gateway struct {
	endpoint   string
	apiKey     string
	model      string
	timeout    time.Duration
	policy     retry.Policy
	httpClient *http.Client
	tokens     ports.TokenSource
	usage      UsageRecorder
	logger     *slog.Logger
}

var _ ports.JSONGenerator = (*Gateway)(nil)

// Option customizes a Gateway.
type Option func(*Gateway)

// WithTokenSource enables bearer auth with one refresh on "jwt expired".
func WithTokenSource(ts ports.TokenSource) Option {
	return func(g *Gateway) { g.tokens = ts }
}

// WithUsage wires token and outcome accounting.
func WithUsage(u UsageRecorder) Option {
	return func(g *Gateway) { g.usage = u }
}

// WithPolicy replaces the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(g *Gateway) { g.policy = p }
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// NewGateway builds a client from configuration.
func NewGateway(cfg config.GatewayConfig, logger *slog.Logger, opts ...Option) *Gateway {
	policy := retry.Default()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	g := &Gateway{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		timeout:    timeout,
		policy:     policy,
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateJSON returns the model's JSON object text, or fallback with ok=false
// on misconfiguration, exhausted retries, non-retryable status or unparseable output.
func (g *Gateway) GenerateJSON(ctx context.Context, settings domain.RequestSettings, req ports.JSONRequest, fallback string) (string, bool) {
	if g == nil || g.endpoint == "" {
		return fallback, false
	}

	model := settings.Model
	if model == "" {
		model = g.model
	}
	body, err := json.Marshal(chatRequest{
		Model:          model,
		Temperature:    req.Temperature,
		Messages:       buildMessages(req.System, req.User, settings.Vendor),
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		g.logger.Warn("marshal gateway payload", "error", err)
		return fallback, false
	}

	token := settings.AccessToken
	refreshed := false
	var content string

	err = g.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		resp, callErr := g.call(ctx, body, token)
		if callErr != nil {
			var status *retry.StatusError
			if errors.As(callErr, &status) && isJWTExpired(status) && !refreshed && g.tokens != nil {
				refreshed = true
				fresh, rErr := g.tokens.Refresh(ctx)
				if rErr != nil {
					return fmt.Errorf("refresh token: %w", rErr)
				}
				token = fresh
				resp, callErr = g.call(ctx, body, token)
			}
		}
		if callErr != nil {
			if settings.Debug {
				g.logger.Debug("gateway attempt failed", "attempt", attempt, "error", callErr)
			}
			return callErr
		}
		if g.usage != nil && resp.Usage.TotalTokens > 0 {
			g.usage.AddTokens(model, resp.Usage.TotalTokens)
		}
		if len(resp.Choices) > 0 {
			content = resp.Choices[0].Message.Content
		}
		return nil
	})
	if err != nil {
		g.logger.Warn("gateway call failed", "error", err)
		g.record("fallback")
		return fallback, false
	}

	obj, ok := ExtractJSON(content)
	if !ok {
		g.logger.Warn("gateway response unparseable", "error", ErrEmptyContent, "preview", domain.Truncate(content, 120))
		g.record("parse_error")
		return fallback, false
	}
	g.record("ok")
	return obj, true
}

func (g *Gateway) call(ctx context.Context, body []byte, token string) (*chatResponse, error) {
	if token == "" && g.tokens != nil {
		if t, err := g.tokens.AccessToken(ctx); err == nil {
			token = t
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("apikey", g.apiKey)
	}
	if token == "" {
		token = g.apiKey
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &retry.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return &out, nil
}

func (g *Gateway) record(outcome string) {
	if g.usage != nil {
		g.usage.LLMCall(outcome)
	}
}

func buildMessages(system, user string, vendor domain.VendorContext) []chatMessage {
	system = strings.TrimSpace(system) + vendorPreamble + vendor.PromptBlock()
	msgs := []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	if !strings.Contains(strings.ToLower(system+"\n"+user), "json") {
		msgs = append([]chatMessage{{Role: "system", Content: "json"}}, msgs...)
	}
	return msgs
}

func isJWTExpired(err *retry.StatusError) bool {
	return err.Code == http.StatusUnauthorized && strings.Contains(strings.ToLower(err.Body), "jwt expired")
}

// ExtractJSON strips Markdown fences and returns the outermost {...} substring
// when it is valid JSON.
func ExtractJSON(content string) (string, bool) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return s, true
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}
