package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"csi-insights-go/internal/escalate"
	"csi-insights-go/internal/report"
	"csi-insights-go/internal/session"
)

func scoredCall(t *testing.T, store *session.Store, csi float64, scores map[string]float64, escalated bool) *session.Call {
	t.Helper()
	c := store.New("https://calls/x.wav")
	c.SetReport(&report.Report{Scores: scores, CSI: csi, Narrative: "n"})
	if escalated {
		c.SetFlag(escalate.Flag{Escalate: true, Reason: "r"})
	}
	return c
}

func TestAggregate_Empty(t *testing.T) {
	ins := Aggregate(nil)
	assert.Zero(t, ins.AnalyzedCalls)
	assert.Zero(t, ins.AverageCSI)
}

func TestAggregate_SkipsUnscoredCalls(t *testing.T) {
	store := session.NewStore()
	store.New("https://calls/pending.wav") // no report yet
	scoredCall(t, store, 8.0, map[string]float64{"Communication": 8}, false)

	ins := Aggregate(store.All())
	assert.Equal(t, 1, ins.AnalyzedCalls)
	assert.Equal(t, 8.0, ins.AverageCSI)
}

func TestAggregate_AveragesAndRates(t *testing.T) {
	store := session.NewStore()
	scoredCall(t, store, 8.0, map[string]float64{"Communication": 9, "Resolution": 7}, false)
	scoredCall(t, store, 4.0, map[string]float64{"Communication": 5, "Resolution": 3}, true)

	ins := Aggregate(store.All())
	assert.Equal(t, 2, ins.AnalyzedCalls)
	assert.Equal(t, 6.0, ins.AverageCSI)
	assert.Equal(t, 0.5, ins.EscalationRate)
	assert.Equal(t, 7.0, ins.CategoryMeans["Communication"])
	assert.Equal(t, 5.0, ins.CategoryMeans["Resolution"])
}

func TestGenerate_NoData(t *testing.T) {
	card := Generate(Insight{})
	assert.Contains(t, card.Insight, "No analyzed calls")
}

func TestGenerate_HighEscalationRate(t *testing.T) {
	card := Generate(Insight{AnalyzedCalls: 8, EscalationRate: 0.5, AverageCSI: 6.0,
		CategoryMeans: map[string]float64{"Communication": 6}})
	assert.Contains(t, card.Insight, "escalation rate")
	assert.Contains(t, card.Insight, "50%")
}

func TestGenerate_WeakCategoryCoaching(t *testing.T) {
	card := Generate(Insight{
		AnalyzedCalls:  5,
		AverageCSI:     6.5,
		EscalationRate: 0.1,
		CategoryMeans:  map[string]float64{"Communication": 8.2, "Emotion Handling": 4.1},
	})
	assert.Contains(t, card.Insight, "Emotion Handling")
	assert.Contains(t, card.Action, "Emotion Handling")
}

func TestGenerate_TiedWeakCategoriesAreStable(t *testing.T) {
	ins := Insight{
		AnalyzedCalls:  5,
		AverageCSI:     5.5,
		EscalationRate: 0.1,
		CategoryMeans:  map[string]float64{"Resolution": 4.0, "Communication": 4.0, "Emotion Handling": 7.0},
	}
	for i := 0; i < 20; i++ {
		card := Generate(ins)
		assert.Contains(t, card.Insight, "Communication")
		assert.Contains(t, card.Action, "Communication")
	}
}

func TestGenerate_SteadyState(t *testing.T) {
	card := Generate(Insight{
		AnalyzedCalls:  10,
		AverageCSI:     7.9,
		EscalationRate: 0.05,
		CategoryMeans:  map[string]float64{"Communication": 8.0},
	})
	assert.Contains(t, card.Action, "Monitor")
}
