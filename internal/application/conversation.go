package application

import (
	"log/slog"
	"sync"

	"voicechat/internal/domain"
)

// ConversationState is the append-only turn log. Only the orchestrator
// appends; any goroutine may take a snapshot.
type ConversationState struct {
	mu        sync.RWMutex
	turns     []domain.Turn
	presenter Presenter
	logger    *slog.Logger
}

func NewConversationState(presenter Presenter, logger *slog.Logger) *ConversationState {
	if presenter == nil {
		presenter = &NoopPresenter{}
	}
	return &ConversationState{presenter: presenter, logger: logger}
}

// Append records a turn and pushes the resulting snapshot to the presenter.
// It returns the new turn's ordinal. A panicking presenter is logged; the turn
// stays recorded.
func (c *ConversationState) Append(speaker domain.Speaker, text string) int {
	c.mu.Lock()
	turn := domain.Turn{
		Ordinal: len(c.turns),
		Speaker: speaker,
		Text:    text,
	}
	c.turns = append(c.turns, turn)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.render(snapshot)

	return turn.Ordinal
}

func (c *ConversationState) render(snapshot []domain.Turn) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("presenter panicked", "panic", r, "turns", len(snapshot))
		}
	}()
	c.presenter.Render(snapshot)
}

func (c *ConversationState) Snapshot() []domain.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *ConversationState) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Last returns the most recent turn, if any.
func (c *ConversationState) Last() (domain.Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return domain.Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

func (c *ConversationState) snapshotLocked() []domain.Turn {
	out := make([]domain.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}
