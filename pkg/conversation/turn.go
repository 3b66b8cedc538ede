package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// TurnMetadata carries the structured data attached to a turn. ToolName and
// ToolCallID are only set on tool-result turns, Summary only on the turn
// produced by ReplaceWithSummary.
type TurnMetadata struct {
	ToolName   string `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`
	Summary    bool   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Turn is one recorded message. Turns are never edited once appended.
type Turn struct {
	ID       string       `json:"id" yaml:"id"`
	Role     Role         `json:"role" yaml:"role"`
	Text     string       `json:"text" yaml:"text"`
	Metadata TurnMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Time     time.Time    `json:"time" yaml:"time"`
}

type TurnOption func(*Turn)

func WithTime(t time.Time) TurnOption {
	return func(turn *Turn) {
		turn.Time = t
	}
}

func WithTurnID(id string) TurnOption {
	return func(turn *Turn) {
		turn.ID = id
	}
}

func WithToolCall(toolName, toolCallID string) TurnOption {
	return func(turn *Turn) {
		turn.Metadata.ToolName = toolName
		turn.Metadata.ToolCallID = toolCallID
	}
}

func NewTurn(role Role, text string, options ...TurnOption) Turn {
	ret := Turn{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
		Time: time.Now(),
	}
	for _, option := range options {
		option(&ret)
	}
	return ret
}

// Render returns the role-tagged line for this turn as it appears in the
// flattened context.
func (t Turn) Render() string {
	return fmt.Sprintf("[%s]: %s", t.tag(), strings.TrimRight(t.Text, "\n"))
}

func (t Turn) tag() string {
	switch {
	case t.Metadata.Summary:
		return "summary"
	case t.Role == RoleTool && t.Metadata.ToolCallID != "":
		return fmt.Sprintf("tool:%s id=%s", t.Metadata.ToolName, t.Metadata.ToolCallID)
	case t.Role == RoleTool:
		return fmt.Sprintf("tool:%s", t.Metadata.ToolName)
	default:
		return string(t.Role)
	}
}

// Turns is an insertion-ordered turn sequence.
type Turns []Turn

// Render flattens the sequence, one rendered turn per line.
func (ts Turns) Render() string {
	var sb strings.Builder
	for i, t := range ts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(t.Render())
	}
	return sb.String()
}
