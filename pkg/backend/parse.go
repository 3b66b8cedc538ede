package backend

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// ParseToolCalls extracts tool calls from a response whose text is a JSON
// object with a "tool_calls" array. Anything that does not parse yields an
// empty list. Entries without a string name are skipped. Missing, null or
// non-object arguments become an empty argument map.
func ParseToolCalls(content string) []ToolCall {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return []ToolCall{}
	}

	var envelope struct {
		ToolCalls []map[string]json.RawMessage `json:"tool_calls"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		log.Trace().Err(err).Msg("backend: response text is not a tool-call envelope")
		return []ToolCall{}
	}

	ret := make([]ToolCall, 0, len(envelope.ToolCalls))
	for _, entry := range envelope.ToolCalls {
		var name string
		if err := json.Unmarshal(entry["name"], &name); err != nil {
			continue
		}
		args := map[string]interface{}{}
		if rawArgs, ok := entry["arguments"]; ok {
			if err := json.Unmarshal(rawArgs, &args); err != nil || args == nil {
				args = map[string]interface{}{}
			}
		}

		call := ToolCall{Name: name, Arguments: args}
		if rawID, ok := entry["id"]; ok {
			var id string
			if err := json.Unmarshal(rawID, &id); err == nil {
				call.ID = id
			}
		}
		ret = append(ret, call)
	}
	return ret
}
