package escalate

import (
	"fmt"

	"csi-insights-go/internal/segment"
)

// Flag is the escalation decision for one call.
type Flag struct {
	Escalate bool   `json:"escalate"`
	Reason   string `json:"reason,omitempty"`
}

// Policy decides whether an analyzed call warrants a supervisor
// notification. Detection is pure: same turns, same flag, no side
// effects. Notification dispatch belongs to the caller.
type Policy struct {
	// NegativeLabels are the labels counted against the call.
	NegativeLabels map[segment.Label]bool
	// DurationRatio flags the call when at least this fraction of the
	// total spoken duration carries a negative label.
	DurationRatio float64
	// ConsecutiveRun flags the call when this many negative turns
	// occur back to back.
	ConsecutiveRun int
}

// DefaultPolicy is the documented escalation rule: 30% of spoken
// duration negative, or 3 consecutive negative turns.
func DefaultPolicy() Policy {
	return Policy{
		NegativeLabels: map[segment.Label]bool{segment.LabelAnger: true},
		DurationRatio:  0.30,
		ConsecutiveRun: 3,
	}
}

// Detect evaluates the policy over the annotated turns.
func (p Policy) Detect(turns []segment.AnnotatedTurn) Flag {
	if len(turns) == 0 {
		return Flag{}
	}

	var total, negative float64
	run, longestRun := 0, 0
	for _, t := range turns {
		d := t.Duration()
		total += d
		if p.NegativeLabels[t.Dominant] {
			negative += d
			run++
			if run > longestRun {
				longestRun = run
			}
		} else {
			run = 0
		}
	}

	if p.ConsecutiveRun > 0 && longestRun >= p.ConsecutiveRun {
		return Flag{
			Escalate: true,
			Reason:   fmt.Sprintf("%d consecutive turns with a negative tone", longestRun),
		}
	}
	if total > 0 && p.DurationRatio > 0 {
		ratio := negative / total
		if ratio >= p.DurationRatio {
			return Flag{
				Escalate: true,
				Reason:   fmt.Sprintf("%.0f%% of the call carried a negative tone", ratio*100),
			}
		}
	}
	return Flag{}
}
