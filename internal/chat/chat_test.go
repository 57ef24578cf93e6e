package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csi-insights-go/internal/llm"
	"csi-insights-go/internal/prompt"
	"csi-insights-go/internal/session"
)

type scriptedModel struct {
	answers []string
	calls   int
	fail    bool
}

func (m *scriptedModel) Generate(context.Context, string) (string, error) {
	if m.fail {
		return "", fmt.Errorf("%w: connection refused", llm.ErrModelUnavailable)
	}
	answer := m.answers[m.calls%len(m.answers)]
	m.calls++
	return answer, nil
}

func seededCall(t *testing.T) *session.Call {
	t.Helper()
	c := session.NewStore().New("https://calls/1.wav")
	require.NoError(t, c.Buffer().Seed("seed report"))
	return c
}

func TestAsk_AppendsQueryThenAnswer(t *testing.T) {
	model := &scriptedModel{answers: []string{"a1", "a2"}}
	o := NewOrchestrator(model, prompt.NewBuilder(), nil)
	call := seededCall(t)

	a1, err := o.Ask(context.Background(), call, "q1")
	require.NoError(t, err)
	assert.Equal(t, "a1", a1)

	a2, err := o.Ask(context.Background(), call, "q2")
	require.NoError(t, err)
	assert.Equal(t, "a2", a2)

	msgs := call.Buffer().Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "seed report"}, msgs[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "q1"}, msgs[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "a1"}, msgs[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "q2"}, msgs[3])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "a2"}, msgs[4])
}

func TestAsk_FailureLeavesBufferUntouched(t *testing.T) {
	model := &scriptedModel{fail: true}
	o := NewOrchestrator(model, prompt.NewBuilder(), nil)
	call := seededCall(t)

	before := call.Buffer().Len()
	_, err := o.Ask(context.Background(), call, "doomed question")
	require.ErrorIs(t, err, llm.ErrModelUnavailable)
	assert.Equal(t, before, call.Buffer().Len())
}

func TestAsk_RecoversAfterFailure(t *testing.T) {
	model := &scriptedModel{answers: []string{"answer"}, fail: true}
	o := NewOrchestrator(model, prompt.NewBuilder(), nil)
	call := seededCall(t)

	_, err := o.Ask(context.Background(), call, "q")
	require.Error(t, err)

	model.fail = false
	answer, err := o.Ask(context.Background(), call, "q")
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)

	msgs := call.Buffer().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, llm.RoleUser, msgs[1].Role)
	assert.Equal(t, llm.RoleAssistant, msgs[2].Role)
}

func TestAsk_UnseededCallRefused(t *testing.T) {
	model := &scriptedModel{answers: []string{"a"}}
	o := NewOrchestrator(model, prompt.NewBuilder(), nil)
	call := session.NewStore().New("u")

	_, err := o.Ask(context.Background(), call, "q")
	require.ErrorIs(t, err, ErrNotSeeded)
	assert.Zero(t, call.Buffer().Len())
}
