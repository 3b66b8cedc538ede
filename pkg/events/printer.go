package events

import (
	"fmt"
	"io"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// PrinterFunc returns a router handler that writes a readable line (or a
// YAML block for tool traffic) per event.
func PrinterFunc(w io.Writer) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJson(msg.Payload)
		if err != nil {
			log.Warn().Err(err).Str("message_id", msg.UUID).Msg("events: could not decode event")
			return nil
		}

		switch p_ := e.(type) {
		case *EventInput:
			_, err = fmt.Fprintf(w, "[input] %d chars\n", len(p_.Text))

		case *EventBackendResponse:
			_, err = fmt.Fprintf(w, "[backend] %d chars, %d tool calls\n", len(p_.Text), p_.ToolCallCount)

		case *EventToolCall:
			err = printYAML(w, "tool-call", p_.ToolCall)

		case *EventToolResult:
			err = printYAML(w, "tool-result", p_.ToolResult)

		case *EventFinal:
			_, err = fmt.Fprintf(w, "[final] %d chars, %d tool results\n", len(p_.Text), p_.ToolResultCount)

		case *EventError:
			_, err = fmt.Fprintf(w, "[error] %s: %s\n", p_.Kind, p_.ErrorString)

		case *EventContextCompressed:
			_, err = fmt.Fprintf(w, "[compressed] %d -> %d (%d turns dropped)\n",
				p_.LengthBefore, p_.LengthAfter, p_.DroppedTurns)
		}

		return err
	}
}

func printYAML(w io.Writer, label string, v interface{}) error {
	v_, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "[%s]\n%s", label, v_)
	return err
}
