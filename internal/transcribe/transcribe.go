package transcribe

import (
	"context"
	"errors"

	"csi-insights-go/internal/segment"
)

// ErrTranscriptionFailed covers every failure of the transcription
// collaborator: publish, polling, download and decode.
var ErrTranscriptionFailed = errors.New("transcribe: transcription failed")

// Transcriber is the transcription collaborator: audio in, ordered
// timestamped utterance spans out.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) ([]segment.Transcript, error)
}

// Mock returns a fixed two-utterance transcript for offline demos
// (USE_MOCK_TRANSCRIBE=true).
type Mock struct{}

func (Mock) Transcribe(context.Context, string) ([]segment.Transcript, error) {
	return []segment.Transcript{
		{Start: 0, End: 5, Text: "I want a refund"},
		{Start: 5, End: 10, Text: "This is ridiculous"},
	}, nil
}
