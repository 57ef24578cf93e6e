package emotion

import (
	"context"
	"errors"

	"csi-insights-go/internal/segment"
)

// ErrExtractionFailed covers every failure of the emotion/diarization
// collaborator.
var ErrExtractionFailed = errors.New("emotion: extraction failed")

// Extractor is the emotion-diarization collaborator: audio in, ordered
// labeled spans out. Its time grid is independent of the transcript's.
type Extractor interface {
	ExtractEmotions(ctx context.Context, audioURL string) ([]segment.Emotion, error)
}

// Mock returns a fixed diary for offline demos (USE_MOCK_EMOTION=true).
type Mock struct{}

func (Mock) ExtractEmotions(context.Context, string) ([]segment.Emotion, error) {
	return []segment.Emotion{
		{Start: 0, End: 6, Label: segment.LabelNeutral},
		{Start: 6, End: 10, Label: segment.LabelAnger},
	}, nil
}
