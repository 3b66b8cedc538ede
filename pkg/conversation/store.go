package conversation

import (
	"sync"

	"github.com/go-go-golems/gamecode/pkg/tools"
	"github.com/rs/zerolog/log"
)

// Store holds the ordered turns of one conversation.
//
// Add* calls only append. ReplaceWithSummary is the only operation that
// shrinks the sequence. The flattened context is a pure function of the
// turn sequence.
type Store struct {
	mu     sync.RWMutex
	turns  Turns
	length LengthFunc
}

type StoreOption func(*Store)

// WithLengthFunc sets the measure used by ContextLength. The default counts bytes.
func WithLengthFunc(f LengthFunc) StoreOption {
	return func(s *Store) {
		if f != nil {
			s.length = f
		}
	}
}

// WithTurns seeds the store, e.g. with a transcript loaded from disk.
func WithTurns(turns ...Turn) StoreOption {
	return func(s *Store) {
		s.turns = append(s.turns, turns...)
	}
}

func NewStore(options ...StoreOption) *Store {
	ret := &Store{
		length: ByteLength,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *Store) append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turns...)
	log.Trace().
		Int("appended", len(turns)).
		Int("turn_count", len(s.turns)).
		Msg("conversation: turns appended")
}

func (s *Store) AddUserMessage(text string) {
	s.append(NewTurn(RoleUser, text))
}

func (s *Store) AddAssistantMessage(text string) {
	s.append(NewTurn(RoleAssistant, text))
}

// AddToolResults appends one tool turn per result, in order. The tool-call
// id is stored unchanged.
func (s *Store) AddToolResults(results []tools.Result) {
	if len(results) == 0 {
		return
	}
	turns := make([]Turn, 0, len(results))
	for _, r := range results {
		turns = append(turns, NewTurn(RoleTool, r.Result, WithToolCall(r.ToolName, r.ToolCallID)))
	}
	s.append(turns...)
}

// GetContext renders the turn sequence into the text sent to the backend.
func (s *Store) GetContext() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turns.Render()
}

func (s *Store) ContextLength() int {
	return s.length(s.GetContext())
}

// ReplaceWithSummary discards every turn and leaves a single summary turn.
func (s *Store) ReplaceWithSummary(summary string) {
	turn := NewTurn(RoleSystem, summary)
	turn.Metadata.Summary = true

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Debug().
		Int("dropped_turns", len(s.turns)).
		Int("summary_length", len(summary)).
		Msg("conversation: context replaced with summary")
	s.turns = Turns{turn}
}

// Turns returns a copy of the current sequence.
func (s *Store) Turns() Turns {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make(Turns, len(s.turns))
	copy(ret, s.turns)
	return ret
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
