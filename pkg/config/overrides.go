package config

import (
	"fmt"

	"github.com/holyrood-analytics/scotbudget/pkg/mansiontax"
	"github.com/holyrood-analytics/scotbudget/pkg/microsim"
)

// overrideYear anchors replaced parameter series. A single-entry series
// resolves to the same value for every simulated year, so the anchor only
// has to be a defined year.
const overrideYear = 2026

// Overrides is the operator-editable policy override file. Every field is
// optional; absent fields leave the built-in values untouched.
type Overrides struct {
	SCPWeeklyAmount        *float64 `yaml:"scp_weekly_amount"`
	SCPPremiumWeeklyAmount *float64 `yaml:"scp_premium_weekly_amount"`
	SCPPremiumInEffect     *bool    `yaml:"scp_premium_in_effect"`
	BandISurcharge         *float64 `yaml:"band_i_surcharge"`
	BandJSurcharge         *float64 `yaml:"band_j_surcharge"`
}

// Validate rejects override values the engine cannot run on.
func (o Overrides) Validate() error {
	for name, v := range map[string]*float64{
		"scp_weekly_amount":         o.SCPWeeklyAmount,
		"scp_premium_weekly_amount": o.SCPPremiumWeeklyAmount,
		"band_i_surcharge":          o.BandISurcharge,
		"band_j_surcharge":          o.BandJSurcharge,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, *v)
		}
	}
	return nil
}

// Apply mutates the parameter tree with any set overrides. Overridden
// series are replaced outright, so the new value holds for all years.
func (o Overrides) Apply(p *microsim.Parameters) {
	if o.SCPWeeklyAmount != nil {
		p.ScottishChildPayment.WeeklyAmount = microsim.YearValues{overrideYear: *o.SCPWeeklyAmount}
	}
	if o.SCPPremiumWeeklyAmount != nil {
		p.ScottishChildPayment.PremiumWeeklyAmount = microsim.YearValues{overrideYear: *o.SCPPremiumWeeklyAmount}
	}
	if o.SCPPremiumInEffect != nil {
		p.ScottishChildPayment.PremiumInEffect = microsim.YearValues{}
		p.SetSCPPremiumInEffect(overrideYear, *o.SCPPremiumInEffect)
	}
}

// Surcharges maps the override file onto mansion tax options. Unset fields
// come out zero, which the allocator reads as its built-in charge levels.
func (o Overrides) Surcharges() mansiontax.Options {
	var opts mansiontax.Options
	if o.BandISurcharge != nil {
		opts.BandISurcharge = *o.BandISurcharge
	}
	if o.BandJSurcharge != nil {
		opts.BandJSurcharge = *o.BandJSurcharge
	}
	return opts
}
