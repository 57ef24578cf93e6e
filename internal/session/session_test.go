package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csi-insights-go/internal/escalate"
	"csi-insights-go/internal/llm"
	"csi-insights-go/internal/report"
)

func TestBuffer_SeedOnce(t *testing.T) {
	var b ConversationBuffer
	require.NoError(t, b.Seed("the report"))
	require.ErrorIs(t, b.Seed("again"), ErrAlreadySeeded)

	msgs := b.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "the report", msgs[0].Content)
}

func TestBuffer_AppendOrder(t *testing.T) {
	var b ConversationBuffer
	require.NoError(t, b.Seed("seed"))
	b.Append(llm.RoleUser, "q1")
	b.Append(llm.RoleAssistant, "a1")

	msgs := b.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "q1", msgs[1].Content)
	assert.Equal(t, "a1", msgs[2].Content)
}

func TestBuffer_MessagesReturnsCopy(t *testing.T) {
	var b ConversationBuffer
	require.NoError(t, b.Seed("seed"))
	msgs := b.Messages()
	msgs[0].Content = "tampered"
	assert.Equal(t, "seed", b.Messages()[0].Content)
}

func TestBuffer_ConcurrentAppendAndRead(t *testing.T) {
	var b ConversationBuffer
	require.NoError(t, b.Seed("seed"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.Append(llm.RoleUser, "q")
			b.Append(llm.RoleAssistant, "a")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			msgs := b.Messages()
			require.NotEmpty(t, msgs)
			assert.Equal(t, "seed", msgs[0].Content)
			_ = b.Len()
		}
	}()
	wg.Wait()

	assert.Equal(t, 401, b.Len())
}

func TestStore_NewGetDelete(t *testing.T) {
	s := NewStore()
	c := s.New("https://calls/1.wav")
	require.NotEmpty(t, c.ID)
	assert.Equal(t, "https://calls/1.wav", c.AudioURL)

	got, err := s.Get(c.ID)
	require.NoError(t, err)
	assert.Same(t, c, got)

	s.Delete(c.ID)
	_, err = s.Get(c.ID)
	require.ErrorIs(t, err, ErrUnknownCall)
}

func TestStore_UnknownCall(t *testing.T) {
	s := NewStore()
	_, err := s.Get("nope")
	require.ErrorIs(t, err, ErrUnknownCall)
}

func TestStore_DistinctIDs(t *testing.T) {
	s := NewStore()
	a := s.New("u1")
	b := s.New("u2")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, s.All(), 2)
}

func TestCall_MarkNotifiedOnce(t *testing.T) {
	c := NewStore().New("u")

	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.MarkNotified() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins)
}

func TestCall_FlagAndReport(t *testing.T) {
	c := NewStore().New("u")
	assert.Nil(t, c.Report())

	c.SetFlag(escalate.Flag{Escalate: true, Reason: "angry run"})
	c.SetReport(&report.Report{CSI: 7.0, Narrative: "n"})

	assert.True(t, c.Flag().Escalate)
	assert.Equal(t, 7.0, c.Report().CSI)
}
