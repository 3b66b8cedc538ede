package events

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingSink struct {
	events []Event
	err    error
}

func (c *collectingSink) PublishEvent(event Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestPublishEventToContext_FansOutToAllSinks(t *testing.T) {
	a := &collectingSink{}
	b := &collectingSink{err: errors.New("sink down")}
	ctx := WithEventSinks(context.Background(), a)
	ctx = WithEventSinks(ctx, b)

	PublishEventToContext(ctx, NewInputEvent(NewEventMetadata("s"), "hello"))
	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, EventTypeInput, a.events[0].Type())

	PublishEventToContext(context.Background(), NewInputEvent(NewEventMetadata("s"), "dropped"))
	assert.Len(t, a.events, 1)
}

func TestNewEventFromJson_RoundTripsThroughWatermill(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer func() { _ = pubsub.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msgs, err := pubsub.Subscribe(ctx, "events")
	require.NoError(t, err)

	sink := NewWatermillSink(pubsub, "events")
	meta := NewEventMetadata("session-1")
	require.NoError(t, sink.PublishEvent(NewToolCallEvent(meta, ToolCall{ID: "tc-1", Name: "read_file", Input: `{"path":"a.txt"}`})))

	var payload []byte
	select {
	case msg := <-msgs:
		payload = msg.Payload
		assert.Equal(t, "tool-call", msg.Metadata.Get("event_type"))
		assert.Equal(t, "session-1", msg.Metadata.Get("session_id"))
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}

	e, err := NewEventFromJson(payload)
	require.NoError(t, err)
	tc, ok := e.(*EventToolCall)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "tc-1", tc.ToolCall.ID)
	assert.Equal(t, meta.ID, tc.Metadata().ID)
	assert.Equal(t, payload, tc.Payload())
}

func TestNewEventFromJson_RejectsUnknownTypes(t *testing.T) {
	_, err := NewEventFromJson([]byte(`{"type":"bogus"}`))
	require.Error(t, err)

	_, err = NewEventFromJson([]byte(`not json`))
	require.Error(t, err)
}

func TestEventRouter_PrinterHandler(t *testing.T) {
	router, err := NewEventRouter()
	require.NoError(t, err)

	var buf bytes.Buffer
	router.AddHandler("printer", DefaultTopic, PrinterFunc(&buf))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- router.Run(ctx) }()
	select {
	case <-router.Running():
	case <-ctx.Done():
		t.Fatal("router did not start")
	}

	sink := router.Sink(DefaultTopic)
	meta := NewEventMetadata("s")
	require.NoError(t, sink.PublishEvent(NewToolResultEvent(meta, ToolResult{ID: "tc-1", Name: "read_file", Result: "file contents"})))
	require.NoError(t, sink.PublishEvent(NewContextCompressedEvent(meta, 120, 20, 5)))

	require.NoError(t, router.Close())
	<-done

	out := buf.String()
	assert.Contains(t, out, "[tool-result]")
	assert.Contains(t, out, "result: file contents")
	assert.Contains(t, out, "[compressed] 120 -> 20 (5 turns dropped)")
}
