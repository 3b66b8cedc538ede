package agent

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-go-golems/gamecode/pkg/backend"
	"github.com/go-go-golems/gamecode/pkg/conversation"
	"github.com/go-go-golems/gamecode/pkg/events"
	"github.com/go-go-golems/gamecode/pkg/tools"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Response is the outcome of one ProcessInput call.
type Response struct {
	Content     string         `json:"content" yaml:"content"`
	ToolResults []tools.Result `json:"tool_results" yaml:"tool_results"`
}

// Manager drives one conversation: it appends turns to its store, asks the
// backend for a reply, runs the requested tools in order and compresses the
// context when it grows past the configured threshold.
//
// ProcessInput calls are serialized. The backend client and tool adapter are
// borrowed and may be shared between managers.
type Manager struct {
	mu sync.Mutex

	config        Config
	client        backend.Client
	summaryClient backend.Client
	adapter       tools.Adapter
	store         *conversation.Store
	sessionID     string
	initialized   atomic.Bool
}

type Option func(*Manager)

// WithSessionID replaces the generated session id.
func WithSessionID(id string) Option {
	return func(m *Manager) {
		m.sessionID = id
	}
}

// WithStore starts the manager on an existing store, e.g. a restored transcript.
func WithStore(store *conversation.Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithSummaryClient sets the client used for compression when
// UseFastModelForContext is enabled.
func WithSummaryClient(client backend.Client) Option {
	return func(m *Manager) {
		m.summaryClient = client
	}
}

// New builds an uninitialized manager. Call Init before ProcessInput.
func New(config Config, client backend.Client, adapter tools.Adapter, options ...Option) (*Manager, error) {
	if client == nil {
		return nil, errors.New("a backend client is required")
	}
	if adapter == nil {
		return nil, errors.New("a tool adapter is required")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid agent config")
	}

	m := &Manager{
		config:  *config.Clone(),
		client:  client,
		adapter: adapter,
	}
	for _, option := range options {
		option(m)
	}

	if m.sessionID == "" {
		m.sessionID = uuid.NewString()
	}
	if m.store == nil {
		store, err := newStore(m.config)
		if err != nil {
			return nil, err
		}
		m.store = store
	}

	return m, nil
}

func newStore(config Config) (*conversation.Store, error) {
	if config.ContextLengthUnit != LengthUnitTokens {
		return conversation.NewStore(), nil
	}
	length, err := conversation.NewTokenLength("", "")
	if err != nil {
		return nil, errors.Wrap(err, "token length")
	}
	return conversation.NewStore(conversation.WithLengthFunc(length)), nil
}

// Init moves the manager to the ready state. It is idempotent.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev := log.Info().Str("session_id", m.sessionID)
	if d, ok := m.client.(backend.Describer); ok {
		ev = ev.Str("backend", d.Name()).Int("context_window", d.ContextWindow())
	}
	ev.Int("tool_count", len(m.adapter.ListToolSchemas())).Msg("agent: initialized")

	m.initialized.Store(true)
	return nil
}

// IsInitialized does not wait for a running ProcessInput.
func (m *Manager) IsInitialized() bool {
	return m.initialized.Load()
}

func (m *Manager) SessionID() string {
	return m.sessionID
}

func (m *Manager) Store() *conversation.Store {
	return m.store
}

func (m *Manager) Config() Config {
	return *m.config.Clone()
}

// ProcessInput runs one turn.
//
// The user turn is appended before the backend is called and stays in the
// store when a later step fails. A hard tool failure aborts the remaining
// tool calls and nothing else is appended. If compression fails, the
// response is returned together with the compression error and the store
// keeps its uncompressed turns.
func (m *Manager) ProcessInput(ctx context.Context, text string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta := events.NewEventMetadata(m.sessionID)
	if !m.initialized.Load() {
		return nil, m.fail(ctx, meta, newError(KindNotInitialized, nil, "manager not initialized, call Init first"))
	}

	log.Debug().Int("input_length", len(text)).Msg("agent: processing input")
	events.PublishEventToContext(ctx, events.NewInputEvent(meta, text))

	m.store.AddUserMessage(text)
	contextText := m.store.GetContext()

	resp, err := m.client.Generate(ctx, backend.Request{
		Context:   contextText,
		Tools:     m.adapter.ListToolSchemas(),
		SessionID: m.sessionID,
	})
	if err != nil {
		return nil, m.fail(ctx, meta, newError(KindBackendError, err, "backend request failed"))
	}
	if resp == nil {
		return nil, m.fail(ctx, meta, newError(KindBackendError, nil, "backend returned no response"))
	}

	calls := resp.ToolCalls
	if len(calls) == 0 && m.config.ParseEmbeddedToolCalls {
		calls = backend.ParseToolCalls(resp.Text)
	}

	meta.Model = resp.Model
	if resp.Usage != nil {
		meta.Usage = &events.Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	}
	log.Debug().
		Int("response_length", len(resp.Text)).
		Int("tool_call_count", len(calls)).
		Msg("agent: backend responded")
	events.PublishEventToContext(ctx, events.NewBackendResponseEvent(meta, resp.Text, len(calls)))

	results, err := m.executeToolCalls(ctx, meta, calls)
	if err != nil {
		return nil, m.fail(ctx, meta, err)
	}

	m.store.AddAssistantMessage(resp.Text)
	m.store.AddToolResults(results)

	ret := &Response{
		Content:     resp.Text,
		ToolResults: results,
	}

	if m.config.AutoCompressContext {
		if err := m.maybeCompressContext(ctx, meta); err != nil {
			return ret, m.fail(ctx, meta, err)
		}
	}

	events.PublishEventToContext(ctx, events.NewFinalEvent(meta, ret.Content, len(ret.ToolResults)))
	return ret, nil
}

// executeToolCalls runs the calls one after the other, in order. Call ids are
// copied into the results unchanged.
func (m *Manager) executeToolCalls(ctx context.Context, meta events.EventMetadata, calls []backend.ToolCall) ([]tools.Result, error) {
	results := make([]tools.Result, 0, len(calls))
	for _, call := range calls {
		if call.ID != "" {
			log.Trace().Str("tool_call_id", call.ID).Str("tool", call.Name).Msg("agent: received tool call")
		} else {
			log.Warn().Str("tool", call.Name).Msg("agent: tool call has no id, its result cannot be correlated")
		}

		args, err := call.ArgumentsJSON()
		if err != nil {
			return nil, newError(KindToolExecutionError, err, "encode arguments for tool %s", call.Name)
		}
		events.PublishEventToContext(ctx, events.NewToolCallEvent(meta, events.ToolCall{
			ID:    call.ID,
			Name:  call.Name,
			Input: string(args),
		}))

		out, err := m.adapter.Execute(ctx, call.Name, args)
		if err != nil {
			return nil, newError(KindToolExecutionError, err, "tool %s failed", call.Name)
		}

		result := tools.Result{
			ToolName:   call.Name,
			Result:     out,
			ToolCallID: call.ID,
		}
		log.Trace().
			Str("tool", result.ToolName).
			Str("tool_call_id", result.ToolCallID).
			Int("result_length", len(result.Result)).
			Msg("agent: tool call completed")
		events.PublishEventToContext(ctx, events.NewToolResultEvent(meta, events.ToolResult{
			ID:     result.ToolCallID,
			Name:   result.ToolName,
			Result: result.Result,
		}))
		results = append(results, result)
	}
	return results, nil
}

// maybeCompressContext replaces the conversation with a backend-generated
// summary once the context is longer than MaxContextLength.
func (m *Manager) maybeCompressContext(ctx context.Context, meta events.EventMetadata) error {
	before := m.store.ContextLength()
	if before <= m.config.MaxContextLength {
		return nil
	}

	log.Debug().
		Int("context_length", before).
		Int("max_context_length", m.config.MaxContextLength).
		Msg("agent: compressing context")

	prompt, err := m.renderSummaryPrompt(m.store.GetContext())
	if err != nil {
		return newError(KindCompressionError, err, "render summary prompt")
	}

	client := m.client
	if m.config.UseFastModelForContext && m.summaryClient != nil {
		client = m.summaryClient
	}
	resp, err := client.Generate(ctx, backend.Request{
		Context:   prompt,
		SessionID: m.sessionID,
	})
	if err != nil {
		return newError(KindCompressionError, err, "summary request failed")
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return newError(KindCompressionError, nil, "summary request returned no text")
	}

	dropped := m.store.Len()
	m.store.ReplaceWithSummary(resp.Text)
	after := m.store.ContextLength()

	log.Debug().
		Int("length_before", before).
		Int("length_after", after).
		Int("dropped_turns", dropped).
		Msg("agent: context compressed")
	events.PublishEventToContext(ctx, events.NewContextCompressedEvent(meta, before, after, dropped))
	return nil
}

func (m *Manager) renderSummaryPrompt(contextText string) (string, error) {
	t, err := m.config.summaryTemplate()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := t.Execute(&sb, map[string]interface{}{
		"Context":   contextText,
		"SessionID": m.sessionID,
	}); err != nil {
		return "", errors.Wrap(err, "execute summary prompt template")
	}
	return sb.String(), nil
}

func (m *Manager) fail(ctx context.Context, meta events.EventMetadata, err error) error {
	kind := ""
	var e *Error
	if errors.As(err, &e) {
		kind = string(e.Kind)
	}
	log.Error().Str("kind", kind).Err(err).Msg("agent: turn failed")
	events.PublishEventToContext(ctx, events.NewErrorEvent(meta, kind, err))
	return err
}
