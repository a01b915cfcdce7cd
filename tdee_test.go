package main

import (
	"errors"
	"math"
	"testing"
)

// makeProfile constructs a fully-populated, valid PersonalProfile. Individual
// tests mutate specific fields to exercise validation.
func makeProfile(gender string, weightKG, heightCM float64, age int, activity, goal string) PersonalProfile {
	return PersonalProfile{
		WeightKG:      weightKG,
		HeightCM:      heightCM,
		Age:           age,
		Gender:        gender,
		ActivityLevel: activity,
		Goal:          goal,
	}
}

// approxEqual compares floats with a tolerance suited to kcal/gram values.
func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// assertConsistent checks calories == protein*4 + carbs*4 + fat*9.
func assertConsistent(t *testing.T, m MacroSet) {
	t.Helper()
	want := m.Protein*4 + m.Carbs*4 + m.Fat*9
	if math.Abs(m.Calories-want) > 1e-6 {
		t.Errorf("inconsistent macro set %+v: calories %.4f, grams imply %.4f", m, m.Calories, want)
	}
}

/* ─── BMR / TDEE accuracy tests ──────────────────────────────────────── */

// TestComputeBMR_Male verifies the male Mifflin-St Jeor formula.
// 10*80 + 6.25*180 - 5*30 + 5 = 1780.
func TestComputeBMR_Male(t *testing.T) {
	p := makeProfile("male", 80, 180, 30, "moderate", "maintain")
	if got := computeBMR(p); !approxEqual(got, 1780) {
		t.Errorf("male BMR = %f, want 1780", got)
	}
}

// TestComputeBMR_Female verifies the female constant (-161 instead of +5).
func TestComputeBMR_Female(t *testing.T) {
	p := makeProfile("female", 80, 180, 30, "moderate", "maintain")
	if got := computeBMR(p); !approxEqual(got, 1614) {
		t.Errorf("female BMR = %f, want 1614", got)
	}
}

// TestComputeTDEE_ActivityMultipliers checks every activity level is applied.
func TestComputeTDEE_ActivityMultipliers(t *testing.T) {
	cases := []struct {
		level string
		mult  float64
	}{
		{"sedentary", 1.2},
		{"light", 1.375},
		{"moderate", 1.55},
		{"active", 1.725},
		{"athlete", 1.9},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			p := makeProfile("male", 80, 180, 30, tc.level, "maintain")
			if got, want := computeTDEE(p), 1780*tc.mult; !approxEqual(got, want) {
				t.Errorf("TDEE(%s) = %f, want %f", tc.level, got, want)
			}
		})
	}
}

/* ─── recommendMacros tests ──────────────────────────────────────────── */

// TestRecommendMacros_ReferenceProfile: 80kg, 180cm, 30y male, moderate,
// maintain -> BMR 1780, 2759 kcal, 160p, 80f, (2759-640-720)/4 = 349.75c.
func TestRecommendMacros_ReferenceProfile(t *testing.T) {
	m, err := recommendMacros(makeProfile("male", 80, 180, 30, "moderate", "maintain"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(m.Calories, 2759) {
		t.Errorf("calories = %f, want 2759", m.Calories)
	}
	if !approxEqual(m.Protein, 160) || !approxEqual(m.Fat, 80) {
		t.Errorf("protein/fat = %f/%f, want 160/80", m.Protein, m.Fat)
	}
	if !approxEqual(m.Carbs, 349.75) {
		t.Errorf("carbs = %f, want 349.75 (unrounded)", m.Carbs)
	}
	assertConsistent(t, m)
}

// TestRecommendMacros_GoalShift verifies lose/gain shift calories by 200.
func TestRecommendMacros_GoalShift(t *testing.T) {
	cases := []struct {
		goal string
		want float64
	}{
		{"lose", 2559},
		{"maintain", 2759},
		{"gain", 2959},
	}
	for _, tc := range cases {
		t.Run(tc.goal, func(t *testing.T) {
			m, err := recommendMacros(makeProfile("male", 80, 180, 30, "moderate", tc.goal))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !approxEqual(m.Calories, tc.want) {
				t.Errorf("calories = %f, want %f", m.Calories, tc.want)
			}
			assertConsistent(t, m)
		})
	}
}

// TestRecommendMacros_ConsistentAcrossProfiles sweeps a grid of valid profiles
// and checks the kcal identity holds for every output.
func TestRecommendMacros_ConsistentAcrossProfiles(t *testing.T) {
	for _, gender := range []string{"male", "female"} {
		for level := range activityMultipliers {
			for goal := range goalCalorieShift {
				for _, w := range []float64{45, 72.5, 110} {
					p := makeProfile(gender, w, 170, 40, level, goal)
					m, err := recommendMacros(p)
					if err != nil {
						t.Fatalf("recommendMacros(%+v) error: %v", p, err)
					}
					assertConsistent(t, m)
				}
			}
		}
	}
}

// TestRecommendMacros_CarbDeficitIsConstraintError covers the heavy, short,
// sedentary, losing-weight case where 2g/kg protein + 1g/kg fat exceed the
// calorie target.
func TestRecommendMacros_CarbDeficitIsConstraintError(t *testing.T) {
	_, err := recommendMacros(makeProfile("female", 400, 150, 80, "sedentary", "lose"))
	var cErr *ConstraintError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConstraintError, got %v", err)
	}
	if cErr.Code != kcalLimitCode {
		t.Errorf("code = %q, want %q", cErr.Code, kcalLimitCode)
	}
	if cErr.RequestKcal <= cErr.BudgetKcal {
		t.Errorf("request kcal %f should exceed budget %f", cErr.RequestKcal, cErr.BudgetKcal)
	}
}

/* ─── Validation tests ───────────────────────────────────────────────── */

// TestValidateProfile_ReportsEveryField checks a fully-invalid profile gets
// one violation per field rather than stopping at the first.
func TestValidateProfile_ReportsEveryField(t *testing.T) {
	p := PersonalProfile{
		WeightKG:      10,
		HeightCM:      300,
		Age:           5,
		Gender:        "other",
		ActivityLevel: "very_active",
		Goal:          "bulk",
	}
	err := validateProfile(p)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got := map[string]bool{}
	for _, f := range vErr.Fields {
		got[f.Field] = true
	}
	for _, field := range []string{"weight", "height", "age", "gender", "activity_level", "goal"} {
		if !got[field] {
			t.Errorf("missing violation for %s; got %+v", field, vErr.Fields)
		}
	}
}

// TestValidateProfile_MissingFields verifies zero values are reported as
// required, one sub-test per field.
func TestValidateProfile_MissingFields(t *testing.T) {
	cases := []struct {
		field string
		mutFn func(p *PersonalProfile)
	}{
		{"weight", func(p *PersonalProfile) { p.WeightKG = 0 }},
		{"height", func(p *PersonalProfile) { p.HeightCM = 0 }},
		{"age", func(p *PersonalProfile) { p.Age = 0 }},
		{"gender", func(p *PersonalProfile) { p.Gender = "" }},
		{"activity_level", func(p *PersonalProfile) { p.ActivityLevel = "" }},
		{"goal", func(p *PersonalProfile) { p.Goal = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			p := makeProfile("male", 80, 180, 30, "moderate", "maintain")
			tc.mutFn(&p)
			var vErr *ValidationError
			if !errors.As(validateProfile(p), &vErr) {
				t.Fatalf("expected ValidationError when %s is missing", tc.field)
			}
			if len(vErr.Fields) != 1 || vErr.Fields[0].Field != tc.field {
				t.Errorf("fields = %+v, want only %s", vErr.Fields, tc.field)
			}
		})
	}
}

// TestValidateProfile_Bounds checks the inclusive range edges are accepted.
func TestValidateProfile_Bounds(t *testing.T) {
	for _, p := range []PersonalProfile{
		makeProfile("male", 20, 100, 10, "light", "gain"),
		makeProfile("female", 500, 250, 120, "athlete", "maintain"),
	} {
		if err := validateProfile(p); err != nil {
			t.Errorf("validateProfile(%+v) = %v, want nil", p, err)
		}
	}
}

// TestValidateProfile_ValidReturnsUntypedNil guards against returning a typed
// nil *ValidationError, which would compare non-nil as an error.
func TestValidateProfile_ValidReturnsUntypedNil(t *testing.T) {
	if err := validateProfile(makeProfile("male", 80, 180, 30, "moderate", "maintain")); err != nil {
		t.Errorf("expected nil error, got %#v", err)
	}
}
