package session

import (
	"errors"
	"sync"

	"csi-insights-go/internal/llm"
)

// ErrAlreadySeeded guards the one-time report seeding of a buffer.
var ErrAlreadySeeded = errors.New("session: buffer already seeded")

// ConversationBuffer is the append-only dialogue history for one call.
// The first entry is always the report narrative as an assistant turn;
// after that it alternates user/assistant. Safe for concurrent use:
// the chat loop appends while API readers snapshot the history.
type ConversationBuffer struct {
	mu     sync.Mutex
	msgs   []llm.Message
	seeded bool
}

// Seed installs the report narrative as the opening assistant turn.
// Called exactly once, before any chat turn.
func (b *ConversationBuffer) Seed(narrative string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seeded {
		return ErrAlreadySeeded
	}
	b.msgs = append(b.msgs, llm.Message{Role: llm.RoleAssistant, Content: narrative})
	b.seeded = true
	return nil
}

// Seeded reports whether the report turn is in place.
func (b *ConversationBuffer) Seeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seeded
}

// Append adds one turn to the history.
func (b *ConversationBuffer) Append(role, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, llm.Message{Role: role, Content: content})
}

// Messages returns a copy of the history in order.
func (b *ConversationBuffer) Messages() []llm.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]llm.Message, len(b.msgs))
	copy(out, b.msgs)
	return out
}

// Len returns the number of turns including the seed.
func (b *ConversationBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}
