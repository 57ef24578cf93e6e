package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csi-insights-go/internal/llm"
	"csi-insights-go/internal/segment"
)

func TestScoring_ContainsTurnsAndExample(t *testing.T) {
	b := NewBuilder()
	turns := []segment.AnnotatedTurn{
		{Start: 0, End: 5, Text: "I want a refund", Dominant: segment.LabelNeutral},
		{Start: 5, End: 10, Text: "This is ridiculous", Dominant: segment.LabelAnger},
	}

	p := b.Scoring(turns)

	assert.Contains(t, p, "### System:")
	assert.Contains(t, p, "Customer Satisfaction Index")
	assert.Contains(t, p, "[0.00-5.00] I want a refund")
	assert.Contains(t, p, "[0.00-5.00] tone: n")
	assert.Contains(t, p, "[5.00-10.00] tone: a")
	assert.Contains(t, p, "Communication: 8.5/10")
	assert.True(t, strings.HasSuffix(p, "### Assistant:\n"))
}

func TestScoring_Deterministic(t *testing.T) {
	b := NewBuilder()
	turns := []segment.AnnotatedTurn{
		{Start: 1.5, End: 3.25, Text: "hello", Dominant: segment.LabelHappy},
	}
	assert.Equal(t, b.Scoring(turns), b.Scoring(turns))
}

func TestChat_PreservesHistoryOrder(t *testing.T) {
	b := NewBuilder()
	history := []llm.Message{
		{Role: llm.RoleAssistant, Content: "seed report"},
		{Role: llm.RoleUser, Content: "first question"},
		{Role: llm.RoleAssistant, Content: "first answer"},
	}

	p := b.Chat(history, "second question")

	seed := strings.Index(p, "seed report")
	q1 := strings.Index(p, "first question")
	a1 := strings.Index(p, "first answer")
	q2 := strings.Index(p, "second question")
	require.True(t, seed >= 0 && q1 >= 0 && a1 >= 0 && q2 >= 0)
	assert.Less(t, seed, q1)
	assert.Less(t, q1, a1)
	assert.Less(t, a1, q2)
	assert.True(t, strings.HasSuffix(p, "### Assistant:\n"))
}

func TestChat_TruncatesOldestButKeepsSeed(t *testing.T) {
	b := &Builder{MaxChatChars: 600}

	old := strings.Repeat("old turn ", 40) // ~360 chars each
	history := []llm.Message{
		{Role: llm.RoleAssistant, Content: "seed report"},
		{Role: llm.RoleUser, Content: old + "ONE"},
		{Role: llm.RoleAssistant, Content: old + "TWO"},
		{Role: llm.RoleUser, Content: "recent question"},
		{Role: llm.RoleAssistant, Content: "recent answer"},
	}

	p := b.Chat(history, "newest question")

	assert.Contains(t, p, "seed report")
	assert.Contains(t, p, "recent question")
	assert.Contains(t, p, "recent answer")
	assert.Contains(t, p, "newest question")
	assert.NotContains(t, p, "ONE")
	assert.NotContains(t, p, "TWO")
}

func TestChat_EmptyHistory(t *testing.T) {
	b := NewBuilder()
	p := b.Chat(nil, "anything there?")
	assert.Contains(t, p, "anything there?")
	assert.True(t, strings.HasSuffix(p, "### Assistant:\n"))
}
