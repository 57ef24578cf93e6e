package align

import (
	"csi-insights-go/internal/segment"
)

// Annotate merges the transcript and emotion timelines into annotated
// turns, one per transcript span. The dominant label for a turn is the
// label of the emotion span with the greatest overlapped duration; ties
// go to the earliest-starting emotion span. Turns that overlap no
// emotion span at all come out neutral.
//
// Both inputs must be ordered by start time. The two grids need not
// match: overlaps and gaps on either side are expected. A single sweep
// index into the emotion sequence keeps the merge linear in the
// combined span count.
func Annotate(transcripts []segment.Transcript, emotions []segment.Emotion) ([]segment.AnnotatedTurn, error) {
	if err := segment.ValidateTranscripts(transcripts); err != nil {
		return nil, err
	}
	if err := segment.ValidateEmotions(emotions); err != nil {
		return nil, err
	}
	if len(transcripts) == 0 {
		return nil, nil
	}

	turns := make([]segment.AnnotatedTurn, 0, len(transcripts))
	lo := 0 // first emotion span that can still overlap the current or a later turn
	for _, tr := range transcripts {
		// Spans ending at or before this turn's start can never overlap
		// again: later turns start no earlier than this one.
		for lo < len(emotions) && emotions[lo].End <= tr.Start {
			lo++
		}

		dominant := segment.LabelNeutral
		best := 0.0
		for j := lo; j < len(emotions) && emotions[j].Start < tr.End; j++ {
			ov := overlap(tr.Start, tr.End, emotions[j].Start, emotions[j].End)
			// Strict comparison resolves ties to the earliest-starting
			// span, which is the first one visited.
			if ov > best {
				best = ov
				dominant = emotions[j].Label
			}
		}

		turns = append(turns, segment.AnnotatedTurn{
			Start:    tr.Start,
			End:      tr.End,
			Text:     tr.Text,
			Dominant: dominant,
		})
	}
	return turns, nil
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
