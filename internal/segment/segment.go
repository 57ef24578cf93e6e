package segment

import (
	"errors"
	"fmt"
)

// ErrInvalidSegment marks timestamp ranges that cannot be aligned.
// Rejected before alignment; never silently skipped.
var ErrInvalidSegment = errors.New("segment: invalid segment")

// Label is the emotion class attached to a span of audio.
type Label string

const (
	LabelAnger   Label = "anger"
	LabelHappy   Label = "happy"
	LabelNeutral Label = "neutral"
	LabelSad     Label = "sad"
)

// Letter returns the single-letter legend used inside model prompts
// ('a' anger, 'h' happy, 'n' neutral). Unknown labels fall back to
// their first rune so extended label sets stay representable.
func (l Label) Letter() string {
	switch l {
	case LabelAnger:
		return "a"
	case LabelHappy:
		return "h"
	case LabelNeutral:
		return "n"
	case LabelSad:
		return "s"
	}
	if l == "" {
		return "n"
	}
	return string([]rune(string(l))[0])
}

// Transcript is one transcribed utterance span. Start/End are seconds
// from the beginning of the recording.
type Transcript struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Emotion is one labeled span from the emotion/diarization collaborator.
// Its time grid is independent of the transcript grid.
type Emotion struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label Label   `json:"label"`
}

// AnnotatedTurn is a transcript span with its dominant emotion label
// resolved by temporal overlap. One per Transcript.
type AnnotatedTurn struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Text     string  `json:"text"`
	Dominant Label   `json:"dominant_label"`
}

// Duration returns the span length in seconds.
func (t AnnotatedTurn) Duration() float64 { return t.End - t.Start }

func (t Transcript) validate() error {
	if t.Start > t.End {
		return fmt.Errorf("%w: transcript start %.3f > end %.3f", ErrInvalidSegment, t.Start, t.End)
	}
	return nil
}

func (e Emotion) validate() error {
	if e.Start > e.End {
		return fmt.Errorf("%w: emotion start %.3f > end %.3f", ErrInvalidSegment, e.Start, e.End)
	}
	return nil
}

// ValidateTranscripts rejects the whole input on the first malformed span.
func ValidateTranscripts(ts []Transcript) error {
	for i, t := range ts {
		if err := t.validate(); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

// ValidateEmotions rejects the whole input on the first malformed span.
func ValidateEmotions(es []Emotion) error {
	for i, e := range es {
		if err := e.validate(); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}
