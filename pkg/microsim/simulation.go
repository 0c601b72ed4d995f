package microsim

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownVariable is returned when a variable name is not part of
	// the model.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrLengthMismatch is returned when a value vector does not match the
	// variable's entity size.
	ErrLengthMismatch = errors.New("value length mismatch")
)

// Variable names a quantity the engine can calculate.
type Variable string

const (
	VarAge                  Variable = "age"
	VarEmploymentIncome     Variable = "employment_income"
	VarIncomeTax            Variable = "income_tax"
	VarNationalInsurance    Variable = "national_insurance"
	VarNetEarnings          Variable = "net_earnings"
	VarUniversalCredit      Variable = "universal_credit"
	VarScottishChildPayment Variable = "scottish_child_payment"
	VarChildBenefit         Variable = "child_benefit"
	VarHouseholdNetIncome   Variable = "household_net_income"
)

// MapMode selects how MapToBenUnit combines person values.
type MapMode string

const (
	// MapSum adds the person values at each axis point.
	MapSum MapMode = "sum"
	// MapAny yields 1 where any person value is nonzero, else 0.
	MapAny MapMode = "any"
)

type entity int

const (
	entityPerson entity = iota
	entityBenUnit
	entityHousehold
)

type varKey struct {
	variable Variable
	year     int
}

// Simulation calculates tax and benefit variables for one situation.
//
// Results are memoized per (variable, year): once a pair has been calculated,
// or pinned with SetInput, it is never recomputed, even if Parameters is
// mutated afterwards. Later parameter changes only affect variables that have
// not been touched yet. Callers that compose several parameter changes must
// therefore apply pure parameter mutations before any change that calculates.
type Simulation struct {
	people []personSpec
	axis   *earningsAxis
	n      int
	params *Parameters
	cache  map[varKey][]float64
}

// Option customizes a simulation at construction.
type Option func(*Simulation)

// WithParameters uses p instead of the built-in defaults. The simulation
// stores a deep copy, so the caller's tree and other simulations are never
// affected by mutations made through Parameters.
func WithParameters(p *Parameters) Option {
	return func(s *Simulation) { s.params = p.Clone() }
}

// NewSimulation validates the situation and builds a simulation over it.
func NewSimulation(situation *Situation, opts ...Option) (*Simulation, error) {
	if err := situation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid situation: %w", err)
	}
	s := &Simulation{
		people: slices.Clone(situation.people),
		n:      1,
		cache:  make(map[varKey][]float64),
	}
	if situation.axis != nil {
		ax := *situation.axis
		s.axis = &ax
		s.n = ax.count
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.params == nil {
		params, err := DefaultParameters()
		if err != nil {
			return nil, err
		}
		s.params = params
	}
	return s, nil
}

// Parameters returns the simulation's own parameter tree. Mutations apply to
// variables not yet calculated; anything already in the cache keeps the value
// it was computed with.
func (s *Simulation) Parameters() *Parameters {
	return s.params
}

// AxisCount returns the number of axis points, 1 when no axis is set.
func (s *Simulation) AxisCount() int {
	return s.n
}

// NumPeople returns the number of household members.
func (s *Simulation) NumPeople() int {
	return len(s.people)
}

// AxisValues returns the swept employment income values, or nil when the
// situation has no axis.
func (s *Simulation) AxisValues() []float64 {
	if s.axis == nil {
		return nil
	}
	return linspace(s.axis.min, s.axis.max, s.axis.count)
}

// Calculate returns the variable's values for the given year, computing and
// caching them on first use. Person variables have NumPeople()*AxisCount()
// entries laid out person-major; benefit unit and household variables have
// AxisCount() entries. The returned slice is a copy.
func (s *Simulation) Calculate(variable Variable, year int) ([]float64, error) {
	key := varKey{variable, year}
	if cached, ok := s.cache[key]; ok {
		return slices.Clone(cached), nil
	}
	def, ok := variableDefs[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, variable)
	}
	values, err := def.compute(s, year)
	if err != nil {
		return nil, fmt.Errorf("calculate %s for %d: %w", variable, year, err)
	}
	s.cache[key] = values
	return slices.Clone(values), nil
}

// SetInput pins the variable to the given values for the year, replacing any
// cached result. Later calculations that depend on the variable use the
// pinned values.
func (s *Simulation) SetInput(variable Variable, year int, values []float64) error {
	def, ok := variableDefs[variable]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, variable)
	}
	want := s.lengthFor(def.entity)
	if len(values) != want {
		return fmt.Errorf("%w: %s takes %d values, got %d", ErrLengthMismatch, variable, want, len(values))
	}
	s.cache[varKey{variable, year}] = slices.Clone(values)
	return nil
}

// MapToBenUnit collapses a person vector to a benefit unit vector. With
// MapSum each axis point gets the sum over people; with MapAny it gets 1 if
// any person value at that point is nonzero.
func (s *Simulation) MapToBenUnit(values []float64, how MapMode) ([]float64, error) {
	if len(values) != s.lengthFor(entityPerson) {
		return nil, fmt.Errorf("%w: person vector takes %d values, got %d", ErrLengthMismatch, s.lengthFor(entityPerson), len(values))
	}
	out := make([]float64, s.n)
	for p := range s.people {
		for i := 0; i < s.n; i++ {
			v := values[p*s.n+i]
			switch how {
			case MapSum:
				out[i] += v
			case MapAny:
				if v != 0 {
					out[i] = 1
				}
			default:
				return nil, fmt.Errorf("unknown map mode %q", how)
			}
		}
	}
	return out, nil
}

func (s *Simulation) lengthFor(e entity) int {
	if e == entityPerson {
		return len(s.people) * s.n
	}
	return s.n
}

func linspace(min, max float64, count int) []float64 {
	out := make([]float64, count)
	if count == 1 {
		out[0] = min
		return out
	}
	step := (max - min) / float64(count-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}
