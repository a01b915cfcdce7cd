package main

import (
	"fmt"
	"time"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// validateProfile uses the same map to decide which levels are valid.
var activityMultipliers = map[string]float64{
	"sedentary": 1.2,
	"light":     1.375,
	"moderate":  1.55,
	"active":    1.725,
	"athlete":   1.9,
}

// goalCalorieShift is the kcal offset applied to TDEE per goal.
var goalCalorieShift = map[string]float64{
	"lose":     -200,
	"maintain": 0,
	"gain":     200,
}

const (
	recommendedProteinPerKg = 2.0
	recommendedFatPerKg     = 1.0
)

// Accepted profile ranges, inclusive.
const (
	minWeightKG = 20
	maxWeightKG = 500
	minHeightCM = 100
	maxHeightCM = 250
	minAge      = 10
	maxAge      = 120
)

// validateProfile checks every field of p and reports all violations at once.
func validateProfile(p PersonalProfile) error {
	v := &ValidationError{}
	switch {
	case p.WeightKG == 0:
		v.add("weight", "is required")
	case p.WeightKG < minWeightKG || p.WeightKG > maxWeightKG:
		v.add("weight", fmt.Sprintf("must be between %d and %d kg", minWeightKG, maxWeightKG))
	}
	switch {
	case p.HeightCM == 0:
		v.add("height", "is required")
	case p.HeightCM < minHeightCM || p.HeightCM > maxHeightCM:
		v.add("height", fmt.Sprintf("must be between %d and %d cm", minHeightCM, maxHeightCM))
	}
	switch {
	case p.Age == 0:
		v.add("age", "is required")
	case p.Age < minAge || p.Age > maxAge:
		v.add("age", fmt.Sprintf("must be between %d and %d years", minAge, maxAge))
	}
	if p.Gender != "male" && p.Gender != "female" {
		v.add("gender", "must be one of: male, female")
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; !ok {
		v.add("activity_level", "must be one of: sedentary, light, moderate, active, athlete")
	}
	if _, ok := goalCalorieShift[p.Goal]; !ok {
		v.add("goal", "must be one of: lose, maintain, gain")
	}
	return v.err()
}

// computeBMR is Mifflin-St Jeor: different constant for male vs female.
func computeBMR(p PersonalProfile) float64 {
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Gender == "male" {
		return bmr + 5
	}
	return bmr - 161
}

// computeTDEE multiplies BMR by the activity level multiplier. p must already
// be validated.
func computeTDEE(p PersonalProfile) float64 {
	return computeBMR(p) * activityMultipliers[p.ActivityLevel]
}

// recommendMacros derives the baseline daily macros for a profile:
// calories = TDEE ± goal shift, 2 g/kg protein, 1 g/kg fat, carbs fill the rest.
//
// When protein and fat alone cost more than the calorie target the carbs would
// go negative; that is reported as a kcal-limit ConstraintError rather than
// returning an inconsistent or negative set.
func recommendMacros(p PersonalProfile) (MacroSet, error) {
	if err := validateProfile(p); err != nil {
		return MacroSet{}, err
	}

	calories := computeTDEE(p) + goalCalorieShift[p.Goal]
	protein := p.WeightKG * recommendedProteinPerKg
	fat := p.WeightKG * recommendedFatPerKg

	fixedKcal := protein*kcalPerGramProtein + fat*kcalPerGramFat
	if fixedKcal > calories {
		return MacroSet{}, &ConstraintError{Code: kcalLimitCode, BudgetKcal: calories, RequestKcal: fixedKcal}
	}

	return MacroSet{
		Calories: calories,
		Protein:  protein,
		Carbs:    (calories - fixedKcal) / kcalPerGramCarbs,
		Fat:      fat,
	}, nil
}

// todayUTC returns today's date at midnight UTC.
func todayUTC() DateOnly {
	return DateOnly{time.Now().UTC().Truncate(24 * time.Hour)}
}
