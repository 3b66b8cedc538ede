package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventType string

const (
	// EventTypeInput is published when user text enters the conversation.
	EventTypeInput           EventType = "input"
	EventTypeBackendResponse EventType = "backend-response"
	// Model requested a tool call, and the local execution outcome
	EventTypeToolCall   EventType = "tool-call"
	EventTypeToolResult EventType = "tool-result"
	EventTypeFinal      EventType = "final"
	EventTypeError      EventType = "error"

	EventTypeContextCompressed EventType = "context-compressed"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

// Usage is token accounting reported by the backend.
type Usage struct {
	InputTokens  int `json:"input_tokens" yaml:"input_tokens" mapstructure:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens" mapstructure:"output_tokens"`
}

// EventMetadata is passed along with every event.
type EventMetadata struct {
	ID        uuid.UUID `json:"message_id" yaml:"message_id" mapstructure:"message_id"`
	SessionID string    `json:"session_id,omitempty" yaml:"session_id,omitempty" mapstructure:"session_id"`
	Model     string    `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
	Usage     *Usage    `json:"usage,omitempty" yaml:"usage,omitempty" mapstructure:"usage"`
}

// NewEventMetadata returns metadata with a fresh message id.
func NewEventMetadata(sessionID string) EventMetadata {
	return EventMetadata{
		ID:        uuid.New(),
		SessionID: sessionID,
	}
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("message_id", em.ID.String())
	if em.SessionID != "" {
		e.Str("session_id", em.SessionID)
	}
	if em.Model != "" {
		e.Str("model", em.Model)
	}
	if em.Usage != nil {
		e.Int("input_tokens", em.Usage.InputTokens)
		e.Int("output_tokens", em.Usage.OutputTokens)
	}
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// raw JSON when decoded by NewEventFromJson
	payload []byte
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	ev.Object("meta", e.Metadata_)
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

var _ Event = &EventImpl{}

type EventInput struct {
	EventImpl
	Text string `json:"text"`
}

func NewInputEvent(metadata EventMetadata, text string) *EventInput {
	return &EventInput{
		EventImpl: EventImpl{Type_: EventTypeInput, Metadata_: metadata},
		Text:      text,
	}
}

var _ Event = &EventInput{}

type EventBackendResponse struct {
	EventImpl
	Text          string `json:"text"`
	ToolCallCount int    `json:"tool_call_count"`
}

func NewBackendResponseEvent(metadata EventMetadata, text string, toolCallCount int) *EventBackendResponse {
	return &EventBackendResponse{
		EventImpl:     EventImpl{Type_: EventTypeBackendResponse, Metadata_: metadata},
		Text:          text,
		ToolCallCount: toolCallCount,
	}
}

var _ Event = &EventBackendResponse{}

type ToolCall struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Input string `json:"input" yaml:"input"`
}

type EventToolCall struct {
	EventImpl
	ToolCall ToolCall `json:"tool_call"`
}

func NewToolCallEvent(metadata EventMetadata, toolCall ToolCall) *EventToolCall {
	return &EventToolCall{
		EventImpl: EventImpl{Type_: EventTypeToolCall, Metadata_: metadata},
		ToolCall:  toolCall,
	}
}

var _ Event = &EventToolCall{}

type ToolResult struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Result string `json:"result" yaml:"result"`
}

type EventToolResult struct {
	EventImpl
	ToolResult ToolResult `json:"tool_result"`
}

func NewToolResultEvent(metadata EventMetadata, toolResult ToolResult) *EventToolResult {
	return &EventToolResult{
		EventImpl:  EventImpl{Type_: EventTypeToolResult, Metadata_: metadata},
		ToolResult: toolResult,
	}
}

var _ Event = &EventToolResult{}

type EventFinal struct {
	EventImpl
	Text            string `json:"text"`
	ToolResultCount int    `json:"tool_result_count"`
}

func NewFinalEvent(metadata EventMetadata, text string, toolResultCount int) *EventFinal {
	return &EventFinal{
		EventImpl:       EventImpl{Type_: EventTypeFinal, Metadata_: metadata},
		Text:            text,
		ToolResultCount: toolResultCount,
	}
}

var _ Event = &EventFinal{}

type EventError struct {
	EventImpl
	Kind        string `json:"kind,omitempty"`
	ErrorString string `json:"error_string"`
}

func NewErrorEvent(metadata EventMetadata, kind string, err error) *EventError {
	return &EventError{
		EventImpl:   EventImpl{Type_: EventTypeError, Metadata_: metadata},
		Kind:        kind,
		ErrorString: err.Error(),
	}
}

var _ Event = &EventError{}

// EventContextCompressed reports a summary replacing the conversation.
type EventContextCompressed struct {
	EventImpl
	LengthBefore int `json:"length_before"`
	LengthAfter  int `json:"length_after"`
	DroppedTurns int `json:"dropped_turns"`
}

func NewContextCompressedEvent(metadata EventMetadata, before, after, dropped int) *EventContextCompressed {
	return &EventContextCompressed{
		EventImpl:    EventImpl{Type_: EventTypeContextCompressed, Metadata_: metadata},
		LengthBefore: before,
		LengthAfter:  after,
		DroppedTurns: dropped,
	}
}

var _ Event = &EventContextCompressed{}

func ToTypedEvent[T any](e Event) (*T, bool) {
	var ret *T
	err := json.Unmarshal(e.Payload(), &ret)
	if err != nil || ret == nil {
		return nil, false
	}
	return ret, true
}

// NewEventFromJson decodes an event serialized by a sink back into its typed form.
func NewEventFromJson(b []byte) (Event, error) {
	var e *EventImpl
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("empty event payload")
	}
	e.payload = b

	var (
		ret Event
		ok  bool
	)
	switch e.Type_ {
	case EventTypeInput:
		ret, ok = decode[EventInput](e)
	case EventTypeBackendResponse:
		ret, ok = decode[EventBackendResponse](e)
	case EventTypeToolCall:
		ret, ok = decode[EventToolCall](e)
	case EventTypeToolResult:
		ret, ok = decode[EventToolResult](e)
	case EventTypeFinal:
		ret, ok = decode[EventFinal](e)
	case EventTypeError:
		ret, ok = decode[EventError](e)
	case EventTypeContextCompressed:
		ret, ok = decode[EventContextCompressed](e)
	default:
		return nil, fmt.Errorf("unknown event type: %s", e.Type_)
	}
	if !ok {
		return nil, fmt.Errorf("could not decode %s event", e.Type_)
	}
	return ret, nil
}

type payloadSetter interface {
	setPayload(b []byte)
}

func (e *EventImpl) setPayload(b []byte) {
	e.payload = b
}

func decode[T any](e *EventImpl) (Event, bool) {
	ret, ok := ToTypedEvent[T](e)
	if !ok {
		return nil, false
	}
	ev, ok := any(ret).(Event)
	if !ok {
		return nil, false
	}
	if s, ok := ev.(payloadSetter); ok {
		s.setPayload(e.payload)
	}
	return ev, true
}
