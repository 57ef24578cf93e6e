package chat

import (
	"context"
	"errors"
	"fmt"

	"csi-insights-go/internal/llm"
	"csi-insights-go/internal/logger"
	"csi-insights-go/internal/prompt"
	"csi-insights-go/internal/session"
)

// ErrNotSeeded means chat was attempted before the call was analyzed.
var ErrNotSeeded = errors.New("chat: call has no report yet")

// Orchestrator runs the follow-up question loop over an analyzed
// call's conversation buffer.
type Orchestrator struct {
	model   llm.Client
	prompts *prompt.Builder
	log     *logger.Logger
}

func NewOrchestrator(model llm.Client, prompts *prompt.Builder, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.New()
	}
	return &Orchestrator{
		model:   model,
		prompts: prompts,
		log:     log.WithComponent("chat"),
	}
}

// Ask answers one follow-up query about the call. The query and the
// answer are appended to the buffer as a pair only after the model
// call succeeds; a failed turn leaves the buffer untouched, so a
// reader never sees a user turn without its answer. Turns for one call
// are strictly sequential.
func (o *Orchestrator) Ask(ctx context.Context, call *session.Call, query string) (string, error) {
	call.LockChat()
	defer call.UnlockChat()

	buf := call.Buffer()
	if !buf.Seeded() {
		return "", ErrNotSeeded
	}

	p := o.prompts.Chat(buf.Messages(), query)
	answer, err := o.model.Generate(ctx, p)
	if err != nil {
		o.log.WithCall(call.ID).WithError(err).Warn("chat turn failed")
		return "", fmt.Errorf("chat turn: %w", err)
	}

	buf.Append(llm.RoleUser, query)
	buf.Append(llm.RoleAssistant, answer)
	o.log.WithCall(call.ID).WithField("buffer_len", buf.Len()).Debug("chat turn appended")
	return answer, nil
}
