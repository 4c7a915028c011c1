package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/matdisco/matdisco/types"
)

// ShortTermConfig configures the in-process history store.
type ShortTermConfig struct {
	// TokenLimit bounds the token footprint of one session's history.
	// Oldest messages drop first when the budget is exceeded.
	TokenLimit int

	// Model selects the tokenizer encoding.
	Model string
}

// ShortTermStore keeps per-session conversation history in memory.
// History is plain state, not a transcript of record: messages past the
// token budget are discarded permanently.
type ShortTermStore struct {
	mu       sync.RWMutex
	sessions map[string][]types.Message

	cfg    ShortTermConfig
	tok    *Tokenizer
	logger *zap.Logger
}

// NewShortTermStore creates the store.
func NewShortTermStore(cfg ShortTermConfig, logger *zap.Logger) *ShortTermStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShortTermStore{
		sessions: make(map[string][]types.Message),
		cfg:      cfg,
		tok:      NewTokenizer(cfg.Model),
		logger:   logger.With(zap.String("component", "short_term_memory")),
	}
}

// Append adds messages to a session's history and trims it to the token
// budget, oldest first.
func (s *ShortTermStore) Append(sessionID string, msgs ...types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.sessions[sessionID], msgs...)
	s.sessions[sessionID] = s.trim(sessionID, history)
}

// History returns a copy of the session's messages, oldest first. A
// session with no history yields an empty slice.
func (s *ShortTermStore) History(sessionID string) []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[sessionID]
	out := make([]types.Message, len(history))
	copy(out, history)
	return out
}

// Delete removes all state for a session. Deleting an unknown session is
// a no-op. Satisfies the sweep collaborator contract of the session
// registry.
func (s *ShortTermStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len reports the number of sessions holding history.
func (s *ShortTermStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// trim drops oldest messages until the history fits the token budget.
// A tool-result message must not survive without the assistant turn that
// requested it, so dropping an assistant message with tool calls also
// drops the tool results that follow it.
func (s *ShortTermStore) trim(sessionID string, history []types.Message) []types.Message {
	if s.cfg.TokenLimit <= 0 {
		return history
	}
	total := 0
	for _, m := range history {
		total += s.tok.CountTokens(m.Content)
	}
	dropped := 0
	for total > s.cfg.TokenLimit && len(history) > 1 {
		total -= s.tok.CountTokens(history[0].Content)
		history = history[1:]
		dropped++
		for len(history) > 1 && history[0].Role == types.RoleTool {
			total -= s.tok.CountTokens(history[0].Content)
			history = history[1:]
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Debug("history trimmed",
			zap.String("session_id", sessionID),
			zap.Int("dropped", dropped),
			zap.Int("tokens", total))
	}
	return history
}
