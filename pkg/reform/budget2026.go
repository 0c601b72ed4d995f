package reform

import (
	"fmt"

	"github.com/holyrood-analytics/scotbudget/pkg/microsim"
)

// Announced threshold increases, measured above the personal allowance.
const (
	// BasicRateIncrease lifts the basic rate threshold from £15,398 to
	// £16,537 gross.
	BasicRateIncrease = 1139.0
	// IntermediateRateIncrease lifts the intermediate rate threshold from
	// £27,492 to £29,527 gross.
	IntermediateRateIncrease = 2035.0
)

// Scottish band positions in the parameter schedule.
const (
	basicBand        = 1
	intermediateBand = 2
)

// DefaultYears returns the fiscal years the budget reforms apply to.
func DefaultYears() []int {
	return []int{2026, 2027, 2028, 2029, 2030}
}

// BudgetReforms returns the modelled reform registry in presentation order.
// The combined package relies on Scenario.Apply's phase order: the threshold
// uplift runs as a parameter change before the SCP modifier calculates and
// freezes the tax and benefit chain.
func BudgetReforms() []Reform {
	return []Reform{
		{
			ID:               "combined",
			Name:             "Scottish Budget 2026 package",
			Description:      "Income tax threshold uplift and Scottish Child Payment baby boost applied together.",
			ParameterChanges: upliftThresholds,
			Modifier:         applySCPBabyBoost,
		},
		{
			ID:          "scp_baby_boost",
			Name:        "Scottish Child Payment baby boost",
			Description: "Pays the £40 per week premium rate of Scottish Child Payment, instead of £27.15, to families with a child under one.",
			Modifier:    applySCPBabyBoost,
		},
		{
			ID:               "income_tax_threshold_uplift",
			Name:             "Income tax threshold uplift",
			Description:      "Raises the basic rate threshold by £1,139 and the intermediate rate threshold by £2,035 from April 2026.",
			ParameterChanges: upliftThresholds,
		},
	}
}

// ByID looks a reform up in the registry.
func ByID(id string) (Reform, bool) {
	for _, r := range BudgetReforms() {
		if r.ID == id {
			return r, true
		}
	}
	return Reform{}, false
}

// upliftThresholds raises the basic and intermediate thresholds for every
// modelled year.
func upliftThresholds(p *microsim.Parameters) error {
	bands := []struct {
		index    int
		increase float64
	}{
		{basicBand, BasicRateIncrease},
		{intermediateBand, IntermediateRateIncrease},
	}
	years := DefaultYears()
	for _, band := range bands {
		// Read every year before writing any: setting 2026 first would
		// carry the raised value forward and compound the increase.
		current := make(map[int]float64, len(years))
		for _, year := range years {
			value, err := p.ScotlandBracketThreshold(band.index, year)
			if err != nil {
				return err
			}
			current[year] = value
		}
		for _, year := range years {
			if err := p.SetScotlandBracketThreshold(band.index, year, current[year]+band.increase); err != nil {
				return err
			}
		}
	}
	return nil
}

// applySCPBabyBoost scales each benefit unit's Scottish Child Payment to the
// premium weekly rate when the unit contains a child under one, and pins the
// result. Calculating the baseline award materializes the benefit chain, so
// parameter changes must already be in place.
func applySCPBabyBoost(sim *microsim.Simulation) error {
	for _, year := range DefaultYears() {
		scpParams := sim.Parameters().ScottishChildPayment
		base := scpParams.WeeklyAmount.Value(year)
		premium := scpParams.PremiumWeeklyAmount.Value(year)
		if base <= 0 {
			return fmt.Errorf("scp weekly amount %v for %d is not positive", base, year)
		}
		boost := (premium - base) / base

		ages, err := sim.Calculate(microsim.VarAge, year)
		if err != nil {
			return err
		}
		babies := make([]float64, len(ages))
		for i, age := range ages {
			if age < 1 {
				babies[i] = 1
			}
		}
		hasBaby, err := sim.MapToBenUnit(babies, microsim.MapAny)
		if err != nil {
			return err
		}
		scp, err := sim.Calculate(microsim.VarScottishChildPayment, year)
		if err != nil {
			return err
		}
		boosted := make([]float64, len(scp))
		for i := range scp {
			boosted[i] = scp[i] * (1 + boost*hasBaby[i])
		}
		if err := sim.SetInput(microsim.VarScottishChildPayment, year, boosted); err != nil {
			return err
		}
	}
	return nil
}

// PolicyInfo is dashboard metadata for one modelled policy.
type PolicyInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Explanation string `json:"explanation"`
}

// PresetInfo is a named bundle of policies offered by the dashboard.
type PresetInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PolicyIDs   []string `json:"policies"`
}

// Policies returns presentation metadata for every registry reform.
func Policies() []PolicyInfo {
	return []PolicyInfo{
		{
			ID:          "combined",
			Name:        "Scottish Budget 2026 package",
			Description: "Both announced measures applied together.",
			Explanation: "Applies the income tax threshold uplift and the Scottish Child Payment baby boost in a single reformed system, ordered so the tax change is visible to the benefit calculation.",
		},
		{
			ID:          "scp_baby_boost",
			Name:        "Scottish Child Payment baby boost",
			Description: "Premium rate of £40 per week for families with a child under one.",
			Explanation: "Families receiving Scottish Child Payment get the premium weekly rate in place of the £27.15 standard rate while they have a child under one. The whole award for the benefit unit is scaled to the premium rate.",
		},
		{
			ID:          "income_tax_threshold_uplift",
			Name:        "Income tax threshold uplift",
			Description: "Basic rate threshold up £1,139 and intermediate rate threshold up £2,035.",
			Explanation: "Raises the Scottish basic rate threshold from £15,398 to £16,537 and the intermediate rate threshold from £27,492 to £29,527 for 2026 to 2030. Taxpayers above the new thresholds save £31.74 a year.",
		},
	}
}

// Presets returns the named policy bundles.
func Presets() []PresetInfo {
	return []PresetInfo{
		{
			ID:          "scottish-budget-2026",
			Name:        "Scottish Budget 2026",
			Description: "The announced budget package for the 2026-27 fiscal year.",
			PolicyIDs:   []string{"income_tax_threshold_uplift", "scp_baby_boost"},
		},
	}
}
