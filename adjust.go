package main

import (
	"fmt"
	"math"
)

// Adjustment scopes. Each draft carries one independent Adjustment per scope.
const (
	scopeDay    = "day"
	scopePeriod = "period"
)

// Selection modes. A scope yields either its base set or the adjusted set,
// never a blend of the two.
const (
	modeCurrent  = "current"
	modeAdjusted = "adjusted"
)

// applyAdjustment adds delta to base, floors each macro at zero and recomputes
// calories from the adjusted grams.
func applyAdjustment(base MacroSet, delta Adjustment) MacroSet {
	return macroSetFromGrams(
		math.Max(0, base.Protein+float64(delta.Protein)),
		math.Max(0, base.Carbs+float64(delta.Carbs)),
		math.Max(0, base.Fat+float64(delta.Fat)),
	)
}

// adjustmentScope is the per-scope state of the planning draft. Dates are
// optional and only mirror what the member has picked in the planner.
type adjustmentScope struct {
	Adjustment Adjustment `json:"adjustment"`
	Mode       string     `json:"mode"`
	Date       *DateOnly  `json:"date,omitempty"`
	StartDate  *DateOnly  `json:"start_date,omitempty"`
	EndDate    *DateOnly  `json:"end_date,omitempty"`
}

// newAdjustmentScope returns a scope with every delta explicitly zero and the
// "current" mode selected.
func newAdjustmentScope() adjustmentScope {
	return adjustmentScope{
		Adjustment: Adjustment{Protein: 0, Carbs: 0, Fat: 0},
		Mode:       modeCurrent,
	}
}

// selectMacros returns what the scope resolves to for the given base set.
func (s adjustmentScope) selectMacros(base MacroSet) MacroSet {
	if s.Mode == modeAdjusted {
		return applyAdjustment(base, s.Adjustment)
	}
	return base
}

// validateMode rejects anything other than the two discrete modes.
func validateMode(mode string) error {
	if mode != modeCurrent && mode != modeAdjusted {
		v := &ValidationError{}
		v.add("mode", fmt.Sprintf("must be one of: %s, %s", modeCurrent, modeAdjusted))
		return v
	}
	return nil
}
