package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-go-golems/gamecode/pkg/backend"
	"github.com/go-go-golems/gamecode/pkg/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURLTemplate is the OpenAI-compatible Bedrock endpoint. {region}
// is replaced with Settings.Region.
const DefaultBaseURLTemplate = "https://bedrock-runtime.{region}.amazonaws.com/openai/v1"

const (
	DefaultModel         = "anthropic.claude-3-7-sonnet-20250219-v1:0"
	DefaultContextWindow = 200000
)

type Settings struct {
	APIKey            string        `yaml:"api_key" mapstructure:"api-key"`
	BaseURL           string        `yaml:"base_url" mapstructure:"base-url"`
	Region            string        `yaml:"region" mapstructure:"region"`
	Model             string        `yaml:"model" mapstructure:"model"`
	MaxResponseTokens int           `yaml:"max_response_tokens" mapstructure:"max-response-tokens"`
	ContextWindow     int           `yaml:"context_window" mapstructure:"context-window"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ResolvedBaseURL returns BaseURL with the region filled in, falling back to
// DefaultBaseURLTemplate.
func (s Settings) ResolvedBaseURL() string {
	u := s.BaseURL
	if u == "" {
		u = DefaultBaseURLTemplate
	}
	return strings.ReplaceAll(u, "{region}", s.Region)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	client   *go_openai.Client
	settings Settings
}

var _ backend.Client = (*Client)(nil)
var _ backend.Describer = (*Client)(nil)

// NewClient builds a client. A missing key, model or endpoint is a
// construction error.
func NewClient(settings Settings) (*Client, error) {
	if settings.APIKey == "" {
		return nil, errors.New("no API key configured")
	}
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	if settings.ContextWindow <= 0 {
		settings.ContextWindow = DefaultContextWindow
	}
	baseURL := settings.ResolvedBaseURL()
	if strings.Contains(baseURL, "{region}") || strings.Contains(baseURL, "..") {
		return nil, errors.Errorf("invalid base URL %q (is a region set?)", baseURL)
	}

	config := go_openai.DefaultConfig(settings.APIKey)
	config.BaseURL = baseURL
	if settings.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: settings.Timeout}
	}

	log.Debug().
		Str("base_url", baseURL).
		Str("model", settings.Model).
		Msg("openai: client configured")

	return &Client{
		client:   go_openai.NewClientWithConfig(config),
		settings: settings,
	}, nil
}

func (c *Client) Name() string {
	return c.settings.Model
}

func (c *Client) ContextWindow() int {
	return c.settings.ContextWindow
}

// Generate sends the flattened context as a single user message. The session
// id travels in the request's user field.
func (c *Client) Generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	chatReq := go_openai.ChatCompletionRequest{
		Model: c.settings.Model,
		Messages: []go_openai.ChatCompletionMessage{
			{Role: go_openai.ChatMessageRoleUser, Content: req.Context},
		},
		MaxTokens: c.settings.MaxResponseTokens,
		User:      req.SessionID,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertTools(req.Tools)
		chatReq.ToolChoice = "auto"
	}

	log.Trace().
		Int("context_length", len(req.Context)).
		Int("tool_count", len(req.Tools)).
		Str("session_id", req.SessionID).
		Msg("openai: sending chat completion request")

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("malformed response: no choices")
	}

	msg := resp.Choices[0].Message
	ret := &backend.Response{
		Text:      msg.Content,
		Model:     resp.Model,
		ToolCalls: make([]backend.ToolCall, 0, len(msg.ToolCalls)),
		Usage: &backend.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]interface{}{}
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, errors.Wrapf(err, "malformed arguments for tool call %s (%s)", tc.Function.Name, tc.ID)
			}
		}
		ret.ToolCalls = append(ret.ToolCalls, backend.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	log.Debug().
		Str("model", ret.Model).
		Int("text_length", len(ret.Text)).
		Int("tool_call_count", len(ret.ToolCalls)).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("openai: chat completion received")

	return ret, nil
}

func convertTools(schemas []tools.Schema) []go_openai.Tool {
	ret := make([]go_openai.Tool, 0, len(schemas))
	for _, s := range schemas {
		var params interface{} = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
		if s.Parameters != nil {
			params = s.Parameters
		}
		ret = append(ret, go_openai.Tool{
			Type: go_openai.ToolTypeFunction,
			Function: &go_openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			},
		})
	}
	return ret
}

// StatusError is an HTTP-level failure from the endpoint.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Retryable is true for rate limiting and server-side failures.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func classifyError(err error) error {
	var apiErr *go_openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *go_openai.RequestError
	if errors.As(err, &reqErr) {
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return errors.Wrap(err, "chat completion request failed")
}
