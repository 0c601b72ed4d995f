// Package reform defines tax and benefit policy changes and runs them
// against a baseline.
//
// A reform is applied to a simulation in two phases: parameter changes
// first, then the modifier. Modifiers may calculate variables, and a
// calculated variable keeps the parameters it was computed with, so any
// parameter change sequenced after a modifier is invisible to everything
// the modifier touched. Scenario.Apply enforces the phase order; modifiers
// that mutate parameters themselves must do so before they calculate.
package reform

import (
	"fmt"

	"github.com/holyrood-analytics/scotbudget/pkg/microsim"
)

// ParameterFunc mutates a simulation's parameter tree.
type ParameterFunc func(*microsim.Parameters) error

// ModifierFunc adjusts a live simulation, typically by calculating a
// baseline vector and pinning a replacement with SetInput.
type ModifierFunc func(*microsim.Simulation) error

// Reform is one policy change, with optional adjustments to the baseline it
// is compared against.
type Reform struct {
	ID          string
	Name        string
	Description string

	ParameterChanges ParameterFunc
	Modifier         ModifierFunc

	BaselineParameterChanges ParameterFunc
	BaselineModifier         ModifierFunc
}

// Scenario is one side of a comparison.
type Scenario struct {
	ParameterChanges ParameterFunc
	Modifier         ModifierFunc
}

// Scenario returns the reformed side, or nil when the reform changes nothing.
func (r Reform) Scenario() *Scenario {
	if r.ParameterChanges == nil && r.Modifier == nil {
		return nil
	}
	return &Scenario{ParameterChanges: r.ParameterChanges, Modifier: r.Modifier}
}

// BaselineScenario returns the baseline side, or nil when the baseline is the
// unmodified system.
func (r Reform) BaselineScenario() *Scenario {
	if r.BaselineParameterChanges == nil && r.BaselineModifier == nil {
		return nil
	}
	return &Scenario{ParameterChanges: r.BaselineParameterChanges, Modifier: r.BaselineModifier}
}

// Apply runs the scenario against sim, parameter changes before modifier.
// A nil scenario applies nothing.
func (sc *Scenario) Apply(sim *microsim.Simulation) error {
	if sc == nil {
		return nil
	}
	if sc.ParameterChanges != nil {
		if err := sc.ParameterChanges(sim.Parameters()); err != nil {
			return fmt.Errorf("parameter changes: %w", err)
		}
	}
	if sc.Modifier != nil {
		if err := sc.Modifier(sim); err != nil {
			return fmt.Errorf("modifier: %w", err)
		}
	}
	return nil
}

// Comparison holds household net income under baseline and reform for one
// year. Vectors have one entry per axis point, a single entry when the
// situation has no axis.
type Comparison struct {
	Year     int
	Baseline []float64
	Reformed []float64
	Impact   []float64
}

// RunComparison simulates the situation twice, with and without the reform,
// and differences household net income for each requested year. Both
// simulations share the situation but own independent parameter trees.
func RunComparison(sit *microsim.Situation, r Reform, years ...int) ([]Comparison, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("reform %s: no years requested", r.ID)
	}
	baseSim, err := microsim.NewSimulation(sit)
	if err != nil {
		return nil, fmt.Errorf("build baseline simulation: %w", err)
	}
	if err := r.BaselineScenario().Apply(baseSim); err != nil {
		return nil, fmt.Errorf("reform %s baseline: %w", r.ID, err)
	}
	refSim, err := microsim.NewSimulation(sit)
	if err != nil {
		return nil, fmt.Errorf("build reformed simulation: %w", err)
	}
	if err := r.Scenario().Apply(refSim); err != nil {
		return nil, fmt.Errorf("reform %s: %w", r.ID, err)
	}

	out := make([]Comparison, 0, len(years))
	for _, year := range years {
		baseline, err := baseSim.Calculate(microsim.VarHouseholdNetIncome, year)
		if err != nil {
			return nil, fmt.Errorf("reform %s baseline year %d: %w", r.ID, year, err)
		}
		reformed, err := refSim.Calculate(microsim.VarHouseholdNetIncome, year)
		if err != nil {
			return nil, fmt.Errorf("reform %s year %d: %w", r.ID, year, err)
		}
		impact := make([]float64, len(baseline))
		for i := range impact {
			impact[i] = reformed[i] - baseline[i]
		}
		out = append(out, Comparison{Year: year, Baseline: baseline, Reformed: reformed, Impact: impact})
	}
	return out, nil
}
