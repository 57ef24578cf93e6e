package llm

import (
	"context"
	"errors"
)

// Chat roles shared by the conversation buffer and prompt builder.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of dialogue history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrModelUnavailable covers transport failures, timeouts and empty
// responses from the language-model collaborator.
var ErrModelUnavailable = errors.New("llm: model unavailable")

// Client is the language-model collaborator. Implementations are
// swappable (HTTP gateway, Gemini, mock) without changing callers.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
