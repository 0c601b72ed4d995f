package microsim

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed params.yaml
var defaultParamsYAML []byte

var (
	defaultParamsOnce sync.Once
	defaultParams     *Parameters
	defaultParamsErr  error
)

// YearValues is a policy parameter that changes over time. Values are keyed
// by the year they take effect and persist until a later year overrides them.
type YearValues map[int]float64

// Value resolves the parameter for a year: the exact year if present,
// otherwise the most recent earlier year, otherwise the earliest defined
// value. Returns zero only when the series is empty.
func (v YearValues) Value(year int) float64 {
	if val, ok := v[year]; ok {
		return val
	}
	years := make([]int, 0, len(v))
	for y := range v {
		years = append(years, y)
	}
	if len(years) == 0 {
		return 0
	}
	sort.Ints(years)
	resolved := years[0]
	for _, y := range years {
		if y > year {
			break
		}
		resolved = y
	}
	return v[resolved]
}

// Set records the parameter value taking effect in the given year.
func (v YearValues) Set(year int, value float64) {
	v[year] = value
}

func (v YearValues) clone() YearValues {
	out := make(YearValues, len(v))
	for y, val := range v {
		out[y] = val
	}
	return out
}

// Bracket is one band of a marginal rate schedule. Threshold is the band's
// lower bound measured above the personal allowance.
type Bracket struct {
	Rate      float64    `yaml:"rate"`
	Threshold YearValues `yaml:"threshold"`
}

// IncomeTaxParams holds the Scottish income tax schedule.
type IncomeTaxParams struct {
	PersonalAllowance YearValues `yaml:"personal_allowance"`
	TaperThreshold    YearValues `yaml:"taper_threshold"`
	ScotlandBrackets  []Bracket  `yaml:"scotland_brackets"`
}

// NIParams holds employee (Class 1) National Insurance parameters.
type NIParams struct {
	PrimaryThreshold   YearValues `yaml:"primary_threshold"`
	UpperEarningsLimit YearValues `yaml:"upper_earnings_limit"`
	MainRate           float64    `yaml:"main_rate"`
	AdditionalRate     float64    `yaml:"additional_rate"`
}

// UCStandardAllowance holds the annualised Universal Credit standard
// allowance by claimant situation.
type UCStandardAllowance struct {
	SingleUnder25 YearValues `yaml:"single_under_25"`
	SingleOver25  YearValues `yaml:"single_over_25"`
	CoupleUnder25 YearValues `yaml:"couple_under_25"`
	CoupleOver25  YearValues `yaml:"couple_over_25"`
}

// UCParams holds Universal Credit parameters (annualised amounts).
type UCParams struct {
	StandardAllowance UCStandardAllowance `yaml:"standard_allowance"`
	ChildElement      YearValues          `yaml:"child_element"`
	WorkAllowance     YearValues          `yaml:"work_allowance"`
	TaperRate         float64             `yaml:"taper_rate"`
}

// SCPParams holds Scottish Child Payment parameters. PremiumInEffect is a
// 0/1 switch per year; when set, benefit units with a child under one are
// paid the premium weekly amount per eligible child instead of the standard
// one.
type SCPParams struct {
	WeeklyAmount        YearValues `yaml:"weekly_amount"`
	PremiumWeeklyAmount YearValues `yaml:"premium_weekly_amount"`
	PremiumInEffect     YearValues `yaml:"premium_in_effect"`
	AgeLimit            int        `yaml:"age_limit"`
}

// CBParams holds Child Benefit weekly rates.
type CBParams struct {
	EldestWeeklyAmount     YearValues `yaml:"eldest_weekly_amount"`
	AdditionalWeeklyAmount YearValues `yaml:"additional_weekly_amount"`
}

// Parameters is the policy parameter tree a simulation evaluates against.
// Each simulation owns an isolated copy, so reform modifiers can mutate
// freely without leaking into the baseline.
type Parameters struct {
	IncomeTax            IncomeTaxParams `yaml:"income_tax"`
	NationalInsurance    NIParams        `yaml:"national_insurance"`
	UniversalCredit      UCParams        `yaml:"universal_credit"`
	ScottishChildPayment SCPParams       `yaml:"scottish_child_payment"`
	ChildBenefit         CBParams        `yaml:"child_benefit"`
}

// DefaultParameters returns a fresh copy of the compiled-in 2026-2030
// baseline parameter set.
func DefaultParameters() (*Parameters, error) {
	defaultParamsOnce.Do(func() {
		var p Parameters
		if err := yaml.Unmarshal(defaultParamsYAML, &p); err != nil {
			defaultParamsErr = fmt.Errorf("parse embedded parameters: %w", err)
			return
		}
		if err := p.validate(); err != nil {
			defaultParamsErr = fmt.Errorf("embedded parameters: %w", err)
			return
		}
		defaultParams = &p
	})
	if defaultParamsErr != nil {
		return nil, defaultParamsErr
	}
	return defaultParams.Clone(), nil
}

// MustDefaultParameters is DefaultParameters for callers that treat a broken
// embedded table as unrecoverable (tests, package-level registries).
func MustDefaultParameters() *Parameters {
	p, err := DefaultParameters()
	if err != nil {
		panic(err)
	}
	return p
}

// Clone deep-copies the parameter tree.
func (p *Parameters) Clone() *Parameters {
	out := &Parameters{
		IncomeTax: IncomeTaxParams{
			PersonalAllowance: p.IncomeTax.PersonalAllowance.clone(),
			TaperThreshold:    p.IncomeTax.TaperThreshold.clone(),
			ScotlandBrackets:  make([]Bracket, len(p.IncomeTax.ScotlandBrackets)),
		},
		NationalInsurance: NIParams{
			PrimaryThreshold:   p.NationalInsurance.PrimaryThreshold.clone(),
			UpperEarningsLimit: p.NationalInsurance.UpperEarningsLimit.clone(),
			MainRate:           p.NationalInsurance.MainRate,
			AdditionalRate:     p.NationalInsurance.AdditionalRate,
		},
		UniversalCredit: UCParams{
			StandardAllowance: UCStandardAllowance{
				SingleUnder25: p.UniversalCredit.StandardAllowance.SingleUnder25.clone(),
				SingleOver25:  p.UniversalCredit.StandardAllowance.SingleOver25.clone(),
				CoupleUnder25: p.UniversalCredit.StandardAllowance.CoupleUnder25.clone(),
				CoupleOver25:  p.UniversalCredit.StandardAllowance.CoupleOver25.clone(),
			},
			ChildElement:  p.UniversalCredit.ChildElement.clone(),
			WorkAllowance: p.UniversalCredit.WorkAllowance.clone(),
			TaperRate:     p.UniversalCredit.TaperRate,
		},
		ScottishChildPayment: SCPParams{
			WeeklyAmount:        p.ScottishChildPayment.WeeklyAmount.clone(),
			PremiumWeeklyAmount: p.ScottishChildPayment.PremiumWeeklyAmount.clone(),
			PremiumInEffect:     p.ScottishChildPayment.PremiumInEffect.clone(),
			AgeLimit:            p.ScottishChildPayment.AgeLimit,
		},
		ChildBenefit: CBParams{
			EldestWeeklyAmount:     p.ChildBenefit.EldestWeeklyAmount.clone(),
			AdditionalWeeklyAmount: p.ChildBenefit.AdditionalWeeklyAmount.clone(),
		},
	}
	copy(out.IncomeTax.ScotlandBrackets, p.IncomeTax.ScotlandBrackets)
	for i := range out.IncomeTax.ScotlandBrackets {
		out.IncomeTax.ScotlandBrackets[i].Threshold = p.IncomeTax.ScotlandBrackets[i].Threshold.clone()
	}
	return out
}

// ScotlandBracketThreshold reads a band's lower bound (above the personal
// allowance) for a year. Bracket indices follow the schedule order: 0
// starter, 1 basic, 2 intermediate, 3 higher, 4 advanced, 5 top.
func (p *Parameters) ScotlandBracketThreshold(bracket, year int) (float64, error) {
	if bracket < 0 || bracket >= len(p.IncomeTax.ScotlandBrackets) {
		return 0, fmt.Errorf("scotland bracket %d out of range", bracket)
	}
	return p.IncomeTax.ScotlandBrackets[bracket].Threshold.Value(year), nil
}

// SetScotlandBracketThreshold updates a band's lower bound for a year.
func (p *Parameters) SetScotlandBracketThreshold(bracket, year int, value float64) error {
	if bracket < 0 || bracket >= len(p.IncomeTax.ScotlandBrackets) {
		return fmt.Errorf("scotland bracket %d out of range", bracket)
	}
	if p.IncomeTax.ScotlandBrackets[bracket].Threshold == nil {
		p.IncomeTax.ScotlandBrackets[bracket].Threshold = YearValues{}
	}
	p.IncomeTax.ScotlandBrackets[bracket].Threshold.Set(year, value)
	return nil
}

// SetSCPPremiumInEffect switches the under-one premium on or off for a year.
func (p *Parameters) SetSCPPremiumInEffect(year int, on bool) {
	if p.ScottishChildPayment.PremiumInEffect == nil {
		p.ScottishChildPayment.PremiumInEffect = YearValues{}
	}
	val := 0.0
	if on {
		val = 1.0
	}
	p.ScottishChildPayment.PremiumInEffect.Set(year, val)
}

// SCPPremiumInEffect reports whether the under-one premium applies in a year.
func (p *Parameters) SCPPremiumInEffect(year int) bool {
	return p.ScottishChildPayment.PremiumInEffect.Value(year) != 0
}

func (p *Parameters) validate() error {
	if len(p.IncomeTax.ScotlandBrackets) == 0 {
		return fmt.Errorf("no scotland income tax brackets")
	}
	years := map[int]struct{}{}
	for i, b := range p.IncomeTax.ScotlandBrackets {
		if b.Rate < 0 || b.Rate >= 1 {
			return fmt.Errorf("bracket %d rate %v out of range", i, b.Rate)
		}
		for y := range b.Threshold {
			years[y] = struct{}{}
		}
	}
	for y := range years {
		prev := 0.0
		for i, b := range p.IncomeTax.ScotlandBrackets {
			threshold := b.Threshold.Value(y)
			if i > 0 && threshold < prev {
				return fmt.Errorf("bracket %d threshold %v for %d below previous band", i, threshold, y)
			}
			prev = threshold
		}
	}
	if p.UniversalCredit.TaperRate < 0 || p.UniversalCredit.TaperRate >= 1 {
		return fmt.Errorf("universal credit taper rate %v out of range", p.UniversalCredit.TaperRate)
	}
	if p.ScottishChildPayment.AgeLimit <= 0 {
		return fmt.Errorf("scottish child payment age limit must be positive")
	}
	return nil
}
