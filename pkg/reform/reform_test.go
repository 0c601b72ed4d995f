package reform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holyrood-analytics/scotbudget/pkg/microsim"
)

func singleEarner(income float64) *microsim.Situation {
	return microsim.NewSituation().AddAdult("adult1", 35, income)
}

func TestZeroValueReform(t *testing.T) {
	var r Reform
	assert.Empty(t, r.ID)
	assert.Empty(t, r.Name)
	assert.Empty(t, r.Description)
	assert.Nil(t, r.Scenario())
	assert.Nil(t, r.BaselineScenario())
}

func TestNilScenarioApply(t *testing.T) {
	sim, err := microsim.NewSimulation(singleEarner(30000))
	require.NoError(t, err)

	var sc *Scenario
	assert.NoError(t, sc.Apply(sim))
}

func TestScenarioAppliesParametersBeforeModifier(t *testing.T) {
	sim, err := microsim.NewSimulation(singleEarner(30000))
	require.NoError(t, err)

	var order []string
	sc := &Scenario{
		ParameterChanges: func(*microsim.Parameters) error {
			order = append(order, "parameters")
			return nil
		},
		Modifier: func(*microsim.Simulation) error {
			order = append(order, "modifier")
			return nil
		},
	}
	require.NoError(t, sc.Apply(sim))
	assert.Equal(t, []string{"parameters", "modifier"}, order)
}

func TestRunComparisonNoOpReform(t *testing.T) {
	results, err := RunComparison(singleEarner(30000), Reform{ID: "noop"}, 2026)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, 2026, got.Year)
	require.Len(t, got.Baseline, 1)
	require.Len(t, got.Impact, 1)
	assert.InDelta(t, got.Baseline[0], got.Reformed[0], 1e-9)
	assert.InDelta(t, 0, got.Impact[0], 1e-9)
}

func TestRunComparisonMultipleYears(t *testing.T) {
	r, ok := ByID("income_tax_threshold_uplift")
	require.True(t, ok)

	results, err := RunComparison(singleEarner(40000), r, 2026, 2027, 2028)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, year := range []int{2026, 2027, 2028} {
		assert.Equal(t, year, results[i].Year)
		assert.InDelta(t, 31.74, results[i].Impact[0], 1e-6,
			"uplift carries forward without compounding")
	}
}

func TestRunComparisonRequiresYears(t *testing.T) {
	_, err := RunComparison(singleEarner(30000), Reform{ID: "noop"})
	assert.Error(t, err)
}

func TestRunComparisonRejectsBadSituation(t *testing.T) {
	_, err := RunComparison(microsim.NewSituation(), Reform{ID: "noop"}, 2026)
	assert.Error(t, err)
}

func TestRunComparisonBaselineScenario(t *testing.T) {
	// A reform whose baseline raises the SCP standard rate to the premium
	// rate: the measured impact of then boosting babies is zero.
	r := Reform{
		ID:       "premium_vs_premium",
		Modifier: applySCPBabyBoost,
		BaselineParameterChanges: func(p *microsim.Parameters) error {
			for _, year := range DefaultYears() {
				p.ScottishChildPayment.WeeklyAmount.Set(year, p.ScottishChildPayment.PremiumWeeklyAmount.Value(year))
			}
			return nil
		},
		ParameterChanges: func(p *microsim.Parameters) error {
			for _, year := range DefaultYears() {
				p.ScottishChildPayment.WeeklyAmount.Set(year, p.ScottishChildPayment.PremiumWeeklyAmount.Value(year))
			}
			return nil
		},
	}
	sit := microsim.NewSituation().
		AddAdult("adult1", 35, 0).
		AddChild("child1", 0)

	results, err := RunComparison(sit, r, 2026)
	require.NoError(t, err)
	assert.InDelta(t, 0, results[0].Impact[0], 1e-9)
	assert.InDelta(t, results[0].Baseline[0], results[0].Reformed[0], 1e-9)
}
