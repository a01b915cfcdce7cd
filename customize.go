package main

import (
	"fmt"
	"math"
)

const (
	maxProteinPerKg = 4.0
	maxFatPerKg     = 2.5
)

// validateIntake range-checks both per-kg overrides independently.
func validateIntake(in CustomIntake) error {
	v := &ValidationError{}
	if in.ProteinPerKg != nil && (*in.ProteinPerKg < 0 || *in.ProteinPerKg > maxProteinPerKg) {
		v.add("protein_per_kg", fmt.Sprintf("must be between 0 and %g", maxProteinPerKg))
	}
	if in.FatPerKg != nil && (*in.FatPerKg < 0 || *in.FatPerKg > maxFatPerKg) {
		v.add("fat_per_kg", fmt.Sprintf("must be between 0 and %g", maxFatPerKg))
	}
	return v.err()
}

// customizeMacros applies a member's protein/fat override on top of the
// recommended calorie target. Carbs take whatever budget is left.
//
// The output keeps recommended.Calories untouched; it is never recomputed from
// the (possibly clamped) grams.
func customizeMacros(in CustomIntake, recommended *MacroSet, weightKG float64) (MacroSet, error) {
	if recommended == nil {
		return MacroSet{}, &PreconditionError{Op: "customize", Missing: "recommended macros"}
	}
	if err := validateIntake(in); err != nil {
		return MacroSet{}, err
	}

	proteinPerKg := recommendedProteinPerKg
	if in.ProteinPerKg != nil {
		proteinPerKg = *in.ProteinPerKg
	}
	fatPerKg := recommendedFatPerKg
	if in.FatPerKg != nil {
		fatPerKg = *in.FatPerKg
	}

	budget := recommended.Calories
	protein := weightKG * proteinPerKg
	fat := weightKG * fatPerKg
	fixedKcal := protein*kcalPerGramProtein + fat*kcalPerGramFat
	if fixedKcal > budget {
		return MacroSet{}, &ConstraintError{Code: kcalLimitCode, BudgetKcal: budget, RequestKcal: fixedKcal}
	}
	carbs := (budget - fixedKcal) / kcalPerGramCarbs

	// Floor only guards float artifacts; the check above rules out real deficits.
	return MacroSet{
		Calories: budget,
		Protein:  math.Max(0, protein),
		Carbs:    math.Max(0, carbs),
		Fat:      math.Max(0, fat),
	}, nil
}
