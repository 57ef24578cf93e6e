package insights

import (
	"fmt"
	"math"

	"csi-insights-go/internal/session"
)

// Insight is a fleet-level rollup over every analyzed call still live
// in the session store.
type Insight struct {
	AnalyzedCalls  int                `json:"analyzed_calls"`
	AverageCSI     float64            `json:"average_csi"`
	EscalationRate float64            `json:"escalation_rate"`
	CategoryMeans  map[string]float64 `json:"category_means"`
}

// ActionCard is the one-line takeaway derived from an Insight.
type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Aggregate rolls up scored calls. Calls without a report yet are
// skipped; escalation rate is over scored calls only.
func Aggregate(calls []*session.Call) Insight {
	var csiSum float64
	var escalated, scored int
	catSums := map[string]float64{}
	catCounts := map[string]int{}

	for _, c := range calls {
		rep := c.Report()
		if rep == nil {
			continue
		}
		scored++
		csiSum += rep.CSI
		if c.Flag().Escalate {
			escalated++
		}
		for cat, v := range rep.Scores {
			catSums[cat] += v
			catCounts[cat]++
		}
	}

	ins := Insight{AnalyzedCalls: scored, CategoryMeans: map[string]float64{}}
	if scored > 0 {
		ins.AverageCSI = round1(csiSum / float64(scored))
		ins.EscalationRate = float64(escalated) / float64(scored)
	}
	for cat, sum := range catSums {
		ins.CategoryMeans[cat] = round1(sum / float64(catCounts[cat]))
	}
	return ins
}

// Generate turns an Insight into an action card for the dashboard.
func Generate(ins Insight) ActionCard {
	if ins.AnalyzedCalls == 0 {
		return ActionCard{
			Insight: "No analyzed calls yet",
			Action:  "Run analysis on recent recordings",
			Impact:  "Establish a CSI baseline",
		}
	}
	if ins.EscalationRate >= 0.25 {
		return ActionCard{
			Insight: fmt.Sprintf("High escalation rate (%.0f%%) across %d calls", ins.EscalationRate*100, ins.AnalyzedCalls),
			Action:  "Review escalated calls with the team and refresh de-escalation training",
			Impact:  "Fewer supervisor interventions and repeat complaints",
		}
	}

	// lowest-scoring category drives the coaching recommendation;
	// ties break by name so the card is stable across runs
	worst := ""
	lowest := math.MaxFloat64
	for cat, v := range ins.CategoryMeans {
		if v < lowest || (v == lowest && cat < worst) {
			lowest = v
			worst = cat
		}
	}
	if worst != "" && lowest < 6.0 {
		return ActionCard{
			Insight: fmt.Sprintf("%s averages %.1f/10 across %d calls", worst, lowest, ins.AnalyzedCalls),
			Action:  fmt.Sprintf("Target coaching sessions on %s", worst),
			Impact:  "Lift the weakest category and the overall CSI",
		}
	}
	return ActionCard{
		Insight: fmt.Sprintf("CSI steady at %.1f/10 over %d calls", ins.AverageCSI, ins.AnalyzedCalls),
		Action:  "Monitor and collect more data",
		Impact:  "Low immediate intervention",
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
