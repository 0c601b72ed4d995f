package microsim

import (
	"fmt"
)

// RegionScotland is the only region the engine models. Income tax uses the
// Scottish bands, so situations in other regions are rejected.
const RegionScotland = "SCOTLAND"

// Situation describes the household a simulation runs over: its members,
// their incomes, the region, and an optional earnings axis. Build one with
// NewSituation and the Add/With methods, then pass it to NewSimulation.
//
// All members form a single benefit unit in a single household.
type Situation struct {
	people []personSpec
	region string
	axis   *earningsAxis
}

type personSpec struct {
	name   string
	age    float64
	income float64
	child  bool
}

type earningsAxis struct {
	person string
	min    float64
	max    float64
	count  int
}

// NewSituation returns an empty situation in Scotland.
func NewSituation() *Situation {
	return &Situation{region: RegionScotland}
}

// AddAdult adds an adult with the given annual employment income.
func (s *Situation) AddAdult(name string, age int, employmentIncome float64) *Situation {
	s.people = append(s.people, personSpec{
		name:   name,
		age:    float64(age),
		income: employmentIncome,
	})
	return s
}

// AddChild adds a dependent child with no income of their own.
func (s *Situation) AddChild(name string, age int) *Situation {
	s.people = append(s.people, personSpec{
		name:  name,
		age:   float64(age),
		child: true,
	})
	return s
}

// WithRegion sets the household region. Only RegionScotland passes
// validation.
func (s *Situation) WithRegion(region string) *Situation {
	s.region = region
	return s
}

// WithEarningsAxis sweeps the named person's employment income from min to
// max across count evenly spaced points. Every variable the simulation
// calculates is then a vector with one entry per point. Calling it again
// replaces the previous axis.
func (s *Situation) WithEarningsAxis(person string, min, max float64, count int) *Situation {
	s.axis = &earningsAxis{person: person, min: min, max: max, count: count}
	return s
}

// Validate reports whether the situation can be simulated.
func (s *Situation) Validate() error {
	if len(s.people) == 0 {
		return fmt.Errorf("situation has no people")
	}
	if s.region != RegionScotland {
		return fmt.Errorf("unsupported region %q", s.region)
	}
	seen := make(map[string]struct{}, len(s.people))
	adults := 0
	for _, p := range s.people {
		if p.name == "" {
			return fmt.Errorf("person with empty name")
		}
		if _, dup := seen[p.name]; dup {
			return fmt.Errorf("duplicate person %q", p.name)
		}
		seen[p.name] = struct{}{}
		if p.age < 0 {
			return fmt.Errorf("person %q has negative age", p.name)
		}
		if p.income < 0 {
			return fmt.Errorf("person %q has negative employment income", p.name)
		}
		if !p.child {
			adults++
		}
	}
	if adults == 0 {
		return fmt.Errorf("situation has no adults")
	}
	if s.axis != nil {
		if _, ok := seen[s.axis.person]; !ok {
			return fmt.Errorf("axis person %q not in situation", s.axis.person)
		}
		if s.axis.count < 1 {
			return fmt.Errorf("axis count %d must be at least 1", s.axis.count)
		}
		if s.axis.min < 0 || s.axis.max < s.axis.min {
			return fmt.Errorf("axis range [%v, %v] invalid", s.axis.min, s.axis.max)
		}
	}
	return nil
}
