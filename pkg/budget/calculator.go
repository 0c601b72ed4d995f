// Package budget turns household descriptions into reform impact figures.
// It is the orchestration layer shared by the HTTP API and the CLI.
package budget

import (
	"fmt"
	"math"

	"github.com/holyrood-analytics/scotbudget/pkg/mansiontax"
	"github.com/holyrood-analytics/scotbudget/pkg/microsim"
	"github.com/holyrood-analytics/scotbudget/pkg/reform"
)

// Year is the fiscal year all calculations run for.
const Year = 2026

// Earnings sweep shape for CalculateVariation: 0 to 150000 in 500 steps.
const (
	VariationMaxEarnings = 150000.0
	VariationCount       = 301
)

// Impacts holds the annual net income change from each measure separately.
type Impacts struct {
	SCPBabyBoost             float64 `json:"scp_baby_boost"`
	IncomeTaxThresholdUplift float64 `json:"income_tax_threshold_uplift"`
}

// Impact is the outcome of Calculate for one household. Figures are rounded
// to pennies.
type Impact struct {
	Impacts           Impacts `json:"impacts"`
	Total             float64 `json:"total"`
	BaselineNetIncome float64 `json:"baseline_net_income"`
}

// VariationPoint is one step of the earnings sweep.
type VariationPoint struct {
	Earnings                 float64 `json:"earnings"`
	IncomeTaxThresholdUplift float64 `json:"income_tax_threshold_uplift"`
	SCPBabyBoost             float64 `json:"scp_baby_boost"`
	Total                    float64 `json:"total"`
}

// Calculator runs the budget reforms against described households. It is
// immutable after construction; build a new one and swap it to pick up
// changed parameters.
type Calculator struct {
	params    *microsim.Parameters
	surcharge mansiontax.Options
	uplift    reform.Reform
	scpBoost  reform.Reform
}

// Option customizes a calculator at construction.
type Option func(*Calculator)

// WithParameters bases all simulations on p instead of the built-in
// defaults. The calculator keeps its own deep copy.
func WithParameters(p *microsim.Parameters) Option {
	return func(c *Calculator) { c.params = p.Clone() }
}

// WithSurcharges overrides the mansion tax charge levels.
func WithSurcharges(opts mansiontax.Options) Option {
	return func(c *Calculator) { c.surcharge = opts }
}

// NewCalculator wires the reform registry into a ready calculator.
func NewCalculator(opts ...Option) (*Calculator, error) {
	uplift, ok := reform.ByID("income_tax_threshold_uplift")
	if !ok {
		return nil, fmt.Errorf("reform income_tax_threshold_uplift not registered")
	}
	scpBoost, ok := reform.ByID("scp_baby_boost")
	if !ok {
		return nil, fmt.Errorf("reform scp_baby_boost not registered")
	}
	c := &Calculator{uplift: uplift, scpBoost: scpBoost}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Calculate compares the household's net income under each budget measure
// against the unreformed baseline. Total is the sum of the two separate
// impacts, not a combined run: the dashboard presents the measures as
// independent lines.
func (c *Calculator) Calculate(in HouseholdInput) (*Impact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sit := c.situation(in)

	baseline, err := c.netIncome(sit, nil)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	uplifted, err := c.netIncome(sit, c.uplift.Scenario())
	if err != nil {
		return nil, fmt.Errorf("income tax threshold uplift: %w", err)
	}
	boosted, err := c.netIncome(sit, c.scpBoost.Scenario())
	if err != nil {
		return nil, fmt.Errorf("scp baby boost: %w", err)
	}

	upliftImpact := uplifted[0] - baseline[0]
	scpImpact := boosted[0] - baseline[0]
	return &Impact{
		Impacts: Impacts{
			SCPBabyBoost:             round2(scpImpact),
			IncomeTaxThresholdUplift: round2(upliftImpact),
		},
		Total:             round2(upliftImpact + scpImpact),
		BaselineNetIncome: round2(baseline[0]),
	}, nil
}

// CalculateVariation sweeps the primary adult's earnings across the axis and
// reports each measure's impact at every point. One vectorized simulation
// per scenario covers the whole sweep.
func (c *Calculator) CalculateVariation(in HouseholdInput) ([]VariationPoint, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sit := c.variationSituation(in)

	baseline, err := c.netIncome(sit, nil)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	uplifted, err := c.netIncome(sit, c.uplift.Scenario())
	if err != nil {
		return nil, fmt.Errorf("income tax threshold uplift: %w", err)
	}
	boosted, err := c.netIncome(sit, c.scpBoost.Scenario())
	if err != nil {
		return nil, fmt.Errorf("scp baby boost: %w", err)
	}

	step := VariationMaxEarnings / float64(VariationCount-1)
	points := make([]VariationPoint, VariationCount)
	for i := range points {
		upliftImpact := uplifted[i] - baseline[i]
		scpImpact := boosted[i] - baseline[i]
		points[i] = VariationPoint{
			Earnings:                 float64(i) * step,
			IncomeTaxThresholdUplift: round2(upliftImpact),
			SCPBabyBoost:             round2(scpImpact),
			Total:                    round2(upliftImpact + scpImpact),
		}
	}
	return points, nil
}

// MansionTax returns the constituency revenue allocation at the calculator's
// surcharge levels.
func (c *Calculator) MansionTax() (*mansiontax.Analysis, error) {
	return mansiontax.AnalyzeWith(c.surcharge)
}

func (c *Calculator) situation(in HouseholdInput) *microsim.Situation {
	sit := microsim.NewSituation().AddAdult("adult1", 35, in.earnings())
	if in.IsMarried {
		sit.AddAdult("adult2", 33, in.PartnerIncome)
	}
	for i, age := range in.ChildrenAges {
		sit.AddChild(fmt.Sprintf("child%d", i+1), age)
	}
	return sit
}

// variationSituation leaves the primary adult's income to the axis.
func (c *Calculator) variationSituation(in HouseholdInput) *microsim.Situation {
	sit := microsim.NewSituation().AddAdult("adult1", 35, 0)
	if in.IsMarried {
		sit.AddAdult("adult2", 33, in.PartnerIncome)
	}
	for i, age := range in.ChildrenAges {
		sit.AddChild(fmt.Sprintf("child%d", i+1), age)
	}
	return sit.WithEarningsAxis("adult1", 0, VariationMaxEarnings, VariationCount)
}

func (c *Calculator) netIncome(sit *microsim.Situation, sc *reform.Scenario) ([]float64, error) {
	var opts []microsim.Option
	if c.params != nil {
		opts = append(opts, microsim.WithParameters(c.params))
	}
	sim, err := microsim.NewSimulation(sit, opts...)
	if err != nil {
		return nil, err
	}
	if err := sc.Apply(sim); err != nil {
		return nil, err
	}
	return sim.Calculate(microsim.VarHouseholdNetIncome, Year)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
