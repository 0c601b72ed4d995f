package reform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/holyrood-analytics/scotbudget/pkg/microsim"
)

// babyFamily gets universal credit, so every budget measure moves it.
func babyFamily() *microsim.Situation {
	return microsim.NewSituation().
		AddAdult("adult1", 35, 25000).
		AddAdult("adult2", 33, 0).
		AddChild("child1", 3).
		AddChild("child2", 0)
}

func TestBudgetReformsRegistry(t *testing.T) {
	reforms := BudgetReforms()
	require.Len(t, reforms, 3)

	var ids []string
	for _, r := range reforms {
		ids = append(ids, r.ID)
		assert.NotNil(t, r.Scenario(), "reform %s must change something", r.ID)
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.Description)
	}
	assert.Equal(t, []string{"combined", "scp_baby_boost", "income_tax_threshold_uplift"}, ids)
}

func TestByID(t *testing.T) {
	r, ok := ByID("scp_baby_boost")
	require.True(t, ok)
	assert.Equal(t, "scp_baby_boost", r.ID)

	_, ok = ByID("abolish_income_tax")
	assert.False(t, ok)
}

func TestThresholdIncreaseConstants(t *testing.T) {
	assert.Greater(t, BasicRateIncrease, 500.0)
	assert.Less(t, BasicRateIncrease, 2000.0)
	assert.Greater(t, IntermediateRateIncrease, 1000.0)
	assert.Less(t, IntermediateRateIncrease, 3000.0)
}

func TestDefaultYears(t *testing.T) {
	years := DefaultYears()
	assert.Equal(t, []int{2026, 2027, 2028, 2029, 2030}, years)

	// Callers get their own copy.
	years[0] = 1999
	assert.Equal(t, 2026, DefaultYears()[0])
}

func TestThresholdUpliftDoesNotCompound(t *testing.T) {
	sim, err := microsim.NewSimulation(singleEarner(40000))
	require.NoError(t, err)
	require.NoError(t, upliftThresholds(sim.Parameters()))

	for _, year := range DefaultYears() {
		basic, err := sim.Parameters().ScotlandBracketThreshold(basicBand, year)
		require.NoError(t, err)
		assert.InDelta(t, 2828+BasicRateIncrease, basic, 1e-9, "year %d", year)

		intermediate, err := sim.Parameters().ScotlandBracketThreshold(intermediateBand, year)
		require.NoError(t, err)
		assert.InDelta(t, 14922+IntermediateRateIncrease, intermediate, 1e-9, "year %d", year)
	}
}

func TestThresholdUpliftImpactHigherEarner(t *testing.T) {
	r, ok := ByID("income_tax_threshold_uplift")
	require.True(t, ok)

	results, err := RunComparison(singleEarner(40000), r, 2026)
	require.NoError(t, err)
	// 1139 of taxable income moves from 20% to 19% and 2035 from 21% to
	// 20%: 11.39 + 20.35.
	assert.InDelta(t, 31.74, results[0].Impact[0], 1e-6)
}

func TestThresholdUpliftTaperedByUniversalCredit(t *testing.T) {
	r, ok := ByID("income_tax_threshold_uplift")
	require.True(t, ok)

	results, err := RunComparison(babyFamily(), r, 2026)
	require.NoError(t, err)
	// The 11.39 tax saving raises net earnings, which the 55% universal
	// credit taper claws back: 11.39 * 0.45.
	assert.InDelta(t, 5.1255, results[0].Impact[0], 1e-6)
}

func TestSCPBabyBoostImpact(t *testing.T) {
	r, ok := ByID("scp_baby_boost")
	require.True(t, ok)

	results, err := RunComparison(babyFamily(), r, 2026)
	require.NoError(t, err)
	// Two children's awards scale from 27.15 to 40 a week: 104 child-weeks
	// gain 12.85 each.
	assert.InDelta(t, 1336.40, results[0].Impact[0], 1e-6)
}

func TestSCPBabyBoostNeedsABaby(t *testing.T) {
	r, ok := ByID("scp_baby_boost")
	require.True(t, ok)

	sit := microsim.NewSituation().
		AddAdult("adult1", 35, 25000).
		AddAdult("adult2", 33, 0).
		AddChild("child1", 3).
		AddChild("child2", 5)
	results, err := RunComparison(sit, r, 2026)
	require.NoError(t, err)
	assert.InDelta(t, 0, results[0].Impact[0], 1e-9)
}

func TestCombinedImpact(t *testing.T) {
	r, ok := ByID("combined")
	require.True(t, ok)

	results, err := RunComparison(babyFamily(), r, 2026)
	require.NoError(t, err)
	assert.InDelta(t, 1341.5255, results[0].Impact[0], 1e-6)
}

func TestCombinedOrderingContract(t *testing.T) {
	r, ok := ByID("combined")
	require.True(t, ok)

	// Scenario.Apply runs the threshold uplift before the SCP boost.
	combined, err := microsim.NewSimulation(babyFamily())
	require.NoError(t, err)
	require.NoError(t, r.Scenario().Apply(combined))
	want, err := combined.Calculate(microsim.VarHouseholdNetIncome, 2026)
	require.NoError(t, err)

	// Reversed order: the SCP step calculates first, freezing the tax and
	// universal credit chain before the thresholds move.
	reversed, err := microsim.NewSimulation(babyFamily())
	require.NoError(t, err)
	require.NoError(t, applySCPBabyBoost(reversed))
	require.NoError(t, upliftThresholds(reversed.Parameters()))
	got, err := reversed.Calculate(microsim.VarHouseholdNetIncome, 2026)
	require.NoError(t, err)

	assert.Greater(t, want[0], got[0], "late threshold change must be invisible")

	// The reversed simulation still carries pre-uplift income tax.
	tax, err := reversed.Calculate(microsim.VarIncomeTax, 2026)
	require.NoError(t, err)
	assert.InDelta(t, 2457.72, tax[0], 1e-6)

	// Reversed order degenerates to the SCP-only reform.
	scpOnly, err := microsim.NewSimulation(babyFamily())
	require.NoError(t, err)
	require.NoError(t, applySCPBabyBoost(scpOnly))
	scpNet, err := scpOnly.Calculate(microsim.VarHouseholdNetIncome, 2026)
	require.NoError(t, err)
	assert.InDelta(t, scpNet[0], got[0], 1e-9)
}

func TestPoliciesMatchRegistry(t *testing.T) {
	policies := Policies()
	require.Len(t, policies, 3)
	for _, p := range policies {
		_, ok := ByID(p.ID)
		assert.True(t, ok, "policy %s has no reform", p.ID)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Description)
		assert.NotEmpty(t, p.Explanation)
	}
}

func TestPresetsResolve(t *testing.T) {
	presets := Presets()
	require.Len(t, presets, 1)

	preset := presets[0]
	assert.Equal(t, "scottish-budget-2026", preset.ID)
	require.Len(t, preset.PolicyIDs, 2)
	for _, id := range preset.PolicyIDs {
		_, ok := ByID(id)
		assert.True(t, ok, "preset references unknown policy %s", id)
	}
	assert.Contains(t, preset.PolicyIDs, "income_tax_threshold_uplift")
	assert.Contains(t, preset.PolicyIDs, "scp_baby_boost")
}

func TestSCPBabyBoostNeverNegativeProperty(t *testing.T) {
	r, ok := ByID("scp_baby_boost")
	require.True(t, ok)

	rapid.Check(t, func(rt *rapid.T) {
		income := rapid.Float64Range(0, 120000).Draw(rt, "income")
		childCount := rapid.IntRange(1, 4).Draw(rt, "children")

		sit := microsim.NewSituation().AddAdult("adult1", 35, income)
		hasBaby := false
		for i := 0; i < childCount; i++ {
			age := rapid.IntRange(0, 15).Draw(rt, "childAge")
			if age < 1 {
				hasBaby = true
			}
			sit.AddChild(childLabel(i), age)
		}

		results, err := RunComparison(sit, r, 2026)
		require.NoError(rt, err)
		impact := results[0].Impact[0]
		assert.GreaterOrEqual(rt, impact, 0.0)
		if !hasBaby {
			assert.InDelta(rt, 0, impact, 1e-9)
		}
	})
}

func childLabel(i int) string {
	return "child" + string(rune('1'+i))
}
