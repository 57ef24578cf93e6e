package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csi-insights-go/internal/segment"
)

func TestAnnotate_RefundScenario(t *testing.T) {
	transcripts := []segment.Transcript{
		{Start: 0, End: 5, Text: "I want a refund"},
		{Start: 5, End: 10, Text: "This is ridiculous"},
	}
	emotions := []segment.Emotion{
		{Start: 0, End: 6, Label: segment.LabelNeutral},
		{Start: 6, End: 10, Label: segment.LabelAnger},
	}

	turns, err := Annotate(transcripts, emotions)
	require.NoError(t, err)
	require.Len(t, turns, 2)

	// turn 1 overlaps neutral for all 5 seconds
	assert.Equal(t, segment.LabelNeutral, turns[0].Dominant)
	// turn 2 overlaps anger for 4 of 5 seconds vs 1 neutral
	assert.Equal(t, segment.LabelAnger, turns[1].Dominant)
	assert.Equal(t, "This is ridiculous", turns[1].Text)
}

func TestAnnotate_NoEmotionsAllNeutral(t *testing.T) {
	transcripts := []segment.Transcript{
		{Start: 0, End: 2, Text: "hello"},
		{Start: 2, End: 4, Text: "how can I help"},
	}

	turns, err := Annotate(transcripts, nil)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	for _, turn := range turns {
		assert.Equal(t, segment.LabelNeutral, turn.Dominant)
	}
}

func TestAnnotate_EmptyTranscriptsEmptyOutput(t *testing.T) {
	turns, err := Annotate(nil, []segment.Emotion{{Start: 0, End: 5, Label: segment.LabelAnger}})
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAnnotate_TieGoesToEarliestEmotion(t *testing.T) {
	transcripts := []segment.Transcript{{Start: 0, End: 4, Text: "split evenly"}}
	emotions := []segment.Emotion{
		{Start: 0, End: 2, Label: segment.LabelHappy},
		{Start: 2, End: 4, Label: segment.LabelAnger},
	}

	turns, err := Annotate(transcripts, emotions)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, segment.LabelHappy, turns[0].Dominant)
}

func TestAnnotate_GapInEmotionGrid(t *testing.T) {
	transcripts := []segment.Transcript{
		{Start: 0, End: 2, Text: "covered"},
		{Start: 10, End: 12, Text: "uncovered"},
	}
	emotions := []segment.Emotion{{Start: 0, End: 3, Label: segment.LabelHappy}}

	turns, err := Annotate(transcripts, emotions)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, segment.LabelHappy, turns[0].Dominant)
	assert.Equal(t, segment.LabelNeutral, turns[1].Dominant)
}

func TestAnnotate_LongEmotionSpansMultipleTurns(t *testing.T) {
	transcripts := []segment.Transcript{
		{Start: 0, End: 3, Text: "first"},
		{Start: 3, End: 6, Text: "second"},
		{Start: 6, End: 9, Text: "third"},
	}
	emotions := []segment.Emotion{{Start: 0, End: 9, Label: segment.LabelAnger}}

	turns, err := Annotate(transcripts, emotions)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	for _, turn := range turns {
		assert.Equal(t, segment.LabelAnger, turn.Dominant)
	}
}

func TestAnnotate_OverlappingTranscripts(t *testing.T) {
	// the source does not guarantee non-overlapping utterances
	transcripts := []segment.Transcript{
		{Start: 0, End: 5, Text: "agent talking"},
		{Start: 3, End: 8, Text: "customer interrupts"},
	}
	emotions := []segment.Emotion{
		{Start: 0, End: 4, Label: segment.LabelNeutral},
		{Start: 4, End: 8, Label: segment.LabelAnger},
	}

	turns, err := Annotate(transcripts, emotions)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, segment.LabelNeutral, turns[0].Dominant) // 4s neutral vs 1s anger
	assert.Equal(t, segment.LabelAnger, turns[1].Dominant)   // 4s anger vs 1s neutral
}

func TestAnnotate_InvalidTranscriptRejected(t *testing.T) {
	transcripts := []segment.Transcript{{Start: 5, End: 2, Text: "backwards"}}

	_, err := Annotate(transcripts, nil)
	require.ErrorIs(t, err, segment.ErrInvalidSegment)
}

func TestAnnotate_InvalidEmotionRejected(t *testing.T) {
	transcripts := []segment.Transcript{{Start: 0, End: 2, Text: "fine"}}
	emotions := []segment.Emotion{{Start: 9, End: 1, Label: segment.LabelAnger}}

	_, err := Annotate(transcripts, emotions)
	require.ErrorIs(t, err, segment.ErrInvalidSegment)
}

func TestAnnotate_DominantByTotalOverlap(t *testing.T) {
	// anger has the single longest overlap even though neutral spans
	// appear twice
	transcripts := []segment.Transcript{{Start: 0, End: 10, Text: "long turn"}}
	emotions := []segment.Emotion{
		{Start: 0, End: 3, Label: segment.LabelNeutral},
		{Start: 3, End: 8, Label: segment.LabelAnger},
		{Start: 8, End: 10, Label: segment.LabelNeutral},
	}

	turns, err := Annotate(transcripts, emotions)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, segment.LabelAnger, turns[0].Dominant)
}
