package budget

import (
	"errors"
	"fmt"
)

// Request limits; households beyond them are rejected before simulation.
const (
	MaxChildren = 12
	MaxAge      = 130
)

// DefaultEmploymentIncome fills in when a request leaves earnings unset.
const DefaultEmploymentIncome = 30000.0

// ErrInvalidInput marks validation failures. HTTP handlers map it to 400.
var ErrInvalidInput = errors.New("invalid household input")

// HouseholdInput describes the household a calculation runs over. A nil
// EmploymentIncome means the default; an explicit zero is kept. Partner
// details only apply when IsMarried is set.
type HouseholdInput struct {
	EmploymentIncome *float64 `json:"employment_income"`
	IsMarried        bool     `json:"is_married"`
	PartnerIncome    float64  `json:"partner_income"`
	ChildrenAges     []int    `json:"children_ages"`
}

func (in HouseholdInput) earnings() float64 {
	if in.EmploymentIncome == nil {
		return DefaultEmploymentIncome
	}
	return *in.EmploymentIncome
}

// Validate rejects households the engine cannot sensibly simulate.
func (in HouseholdInput) Validate() error {
	if in.EmploymentIncome != nil && *in.EmploymentIncome < 0 {
		return fmt.Errorf("%w: employment_income is negative", ErrInvalidInput)
	}
	if in.PartnerIncome < 0 {
		return fmt.Errorf("%w: partner_income is negative", ErrInvalidInput)
	}
	if len(in.ChildrenAges) > MaxChildren {
		return fmt.Errorf("%w: at most %d children supported", ErrInvalidInput, MaxChildren)
	}
	for _, age := range in.ChildrenAges {
		if age < 0 {
			return fmt.Errorf("%w: negative child age", ErrInvalidInput)
		}
		if age > MaxAge {
			return fmt.Errorf("%w: child age %d out of range", ErrInvalidInput, age)
		}
	}
	return nil
}
