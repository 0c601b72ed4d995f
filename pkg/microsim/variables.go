package microsim

import (
	"math"
)

const weeksPerYear = 52

type variableDef struct {
	entity  entity
	compute func(s *Simulation, year int) ([]float64, error)
}

var variableDefs = map[Variable]variableDef{
	VarAge:                  {entityPerson, computeAge},
	VarEmploymentIncome:     {entityPerson, computeEmploymentIncome},
	VarIncomeTax:            {entityPerson, computeIncomeTax},
	VarNationalInsurance:    {entityPerson, computeNationalInsurance},
	VarNetEarnings:          {entityPerson, computeNetEarnings},
	VarUniversalCredit:      {entityBenUnit, computeUniversalCredit},
	VarScottishChildPayment: {entityBenUnit, computeScottishChildPayment},
	VarChildBenefit:         {entityBenUnit, computeChildBenefit},
	VarHouseholdNetIncome:   {entityHousehold, computeHouseholdNetIncome},
}

func computeAge(s *Simulation, year int) ([]float64, error) {
	out := make([]float64, len(s.people)*s.n)
	for p, person := range s.people {
		for i := 0; i < s.n; i++ {
			out[p*s.n+i] = person.age
		}
	}
	return out, nil
}

func computeEmploymentIncome(s *Simulation, year int) ([]float64, error) {
	out := make([]float64, len(s.people)*s.n)
	for p, person := range s.people {
		if s.axis != nil && s.axis.person == person.name {
			copy(out[p*s.n:(p+1)*s.n], linspace(s.axis.min, s.axis.max, s.n))
			continue
		}
		for i := 0; i < s.n; i++ {
			out[p*s.n+i] = person.income
		}
	}
	return out, nil
}

// computeIncomeTax applies the Scottish bands to income above the personal
// allowance. The allowance tapers away at 50p per pound of income over the
// taper threshold.
func computeIncomeTax(s *Simulation, year int) ([]float64, error) {
	income, err := s.Calculate(VarEmploymentIncome, year)
	if err != nil {
		return nil, err
	}
	pa := s.params.IncomeTax.PersonalAllowance.Value(year)
	taper := s.params.IncomeTax.TaperThreshold.Value(year)
	type band struct {
		rate  float64
		lower float64
	}
	bands := make([]band, len(s.params.IncomeTax.ScotlandBrackets))
	for i, b := range s.params.IncomeTax.ScotlandBrackets {
		bands[i] = band{rate: b.Rate, lower: b.Threshold.Value(year)}
	}
	out := make([]float64, len(income))
	for i, gross := range income {
		allowance := pa
		if gross > taper {
			allowance = math.Max(0, pa-(gross-taper)/2)
		}
		taxable := math.Max(0, gross-allowance)
		tax := 0.0
		for bi, b := range bands {
			if taxable <= b.lower {
				break
			}
			upper := math.Inf(1)
			if bi+1 < len(bands) {
				upper = bands[bi+1].lower
			}
			tax += b.rate * (math.Min(taxable, upper) - b.lower)
		}
		out[i] = tax
	}
	return out, nil
}

func computeNationalInsurance(s *Simulation, year int) ([]float64, error) {
	income, err := s.Calculate(VarEmploymentIncome, year)
	if err != nil {
		return nil, err
	}
	p := s.params.NationalInsurance
	pt := p.PrimaryThreshold.Value(year)
	uel := p.UpperEarningsLimit.Value(year)
	out := make([]float64, len(income))
	for i, gross := range income {
		main := math.Min(math.Max(0, gross-pt), uel-pt)
		upper := math.Max(0, gross-uel)
		out[i] = p.MainRate*main + p.AdditionalRate*upper
	}
	return out, nil
}

func computeNetEarnings(s *Simulation, year int) ([]float64, error) {
	income, err := s.Calculate(VarEmploymentIncome, year)
	if err != nil {
		return nil, err
	}
	tax, err := s.Calculate(VarIncomeTax, year)
	if err != nil {
		return nil, err
	}
	ni, err := s.Calculate(VarNationalInsurance, year)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(income))
	for i := range income {
		out[i] = income[i] - tax[i] - ni[i]
	}
	return out, nil
}

// computeUniversalCredit builds the award from the standard allowance plus a
// child element per child, then tapers it against net earnings over the work
// allowance. The work allowance only applies when the unit has children.
func computeUniversalCredit(s *Simulation, year int) ([]float64, error) {
	net, err := s.Calculate(VarNetEarnings, year)
	if err != nil {
		return nil, err
	}
	p := s.params.UniversalCredit
	adults, children := 0, 0
	allUnder25 := true
	for _, person := range s.people {
		if person.child {
			children++
			continue
		}
		adults++
		if person.age >= 25 {
			allUnder25 = false
		}
	}
	var allowance float64
	switch {
	case adults >= 2 && allUnder25:
		allowance = p.StandardAllowance.CoupleUnder25.Value(year)
	case adults >= 2:
		allowance = p.StandardAllowance.CoupleOver25.Value(year)
	case allUnder25:
		allowance = p.StandardAllowance.SingleUnder25.Value(year)
	default:
		allowance = p.StandardAllowance.SingleOver25.Value(year)
	}
	elements := allowance + float64(children)*p.ChildElement.Value(year)
	workAllowance := 0.0
	if children > 0 {
		workAllowance = p.WorkAllowance.Value(year)
	}
	out := make([]float64, s.n)
	for i := 0; i < s.n; i++ {
		earned := 0.0
		for pi := range s.people {
			earned += net[pi*s.n+i]
		}
		reduction := p.TaperRate * math.Max(0, earned-workAllowance)
		out[i] = math.Max(0, elements-reduction)
	}
	return out, nil
}

// computeScottishChildPayment pays the weekly amount per child under the age
// limit, passported on a positive universal credit award at the same axis
// point. When the premium is in effect and the unit has a child under one,
// every eligible child is paid at the premium rate.
func computeScottishChildPayment(s *Simulation, year int) ([]float64, error) {
	uc, err := s.Calculate(VarUniversalCredit, year)
	if err != nil {
		return nil, err
	}
	p := s.params.ScottishChildPayment
	weekly := p.WeeklyAmount.Value(year)
	eligible, hasBaby := 0, false
	for _, person := range s.people {
		if !person.child {
			continue
		}
		if person.age < 1 {
			hasBaby = true
		}
		if person.age < float64(p.AgeLimit) {
			eligible++
		}
	}
	if hasBaby && s.params.SCPPremiumInEffect(year) {
		weekly = p.PremiumWeeklyAmount.Value(year)
	}
	annual := float64(eligible) * weekly * weeksPerYear
	out := make([]float64, s.n)
	for i := range out {
		if uc[i] > 0 {
			out[i] = annual
		}
	}
	return out, nil
}

func computeChildBenefit(s *Simulation, year int) ([]float64, error) {
	children := 0
	for _, person := range s.people {
		if person.child {
			children++
		}
	}
	out := make([]float64, s.n)
	if children == 0 {
		return out, nil
	}
	p := s.params.ChildBenefit
	weekly := p.EldestWeeklyAmount.Value(year) + float64(children-1)*p.AdditionalWeeklyAmount.Value(year)
	annual := weekly * weeksPerYear
	for i := range out {
		out[i] = annual
	}
	return out, nil
}

func computeHouseholdNetIncome(s *Simulation, year int) ([]float64, error) {
	net, err := s.Calculate(VarNetEarnings, year)
	if err != nil {
		return nil, err
	}
	uc, err := s.Calculate(VarUniversalCredit, year)
	if err != nil {
		return nil, err
	}
	scp, err := s.Calculate(VarScottishChildPayment, year)
	if err != nil {
		return nil, err
	}
	cb, err := s.Calculate(VarChildBenefit, year)
	if err != nil {
		return nil, err
	}
	out := make([]float64, s.n)
	for i := 0; i < s.n; i++ {
		total := uc[i] + scp[i] + cb[i]
		for p := range s.people {
			total += net[p*s.n+i]
		}
		out[i] = total
	}
	return out, nil
}
