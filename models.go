package main

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dateLayout = "2006-01-02"

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+dateLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

func (d DateOnly) String() string { return d.Time.Format(dateLayout) }

// addDays returns the calendar date n days later, always at midnight UTC.
func (d DateOnly) addDays(n int) DateOnly {
	return DateOnly{d.Time.AddDate(0, 0, n)}
}

// parseDate parses a YYYY-MM-DD string. time.Parse rejects impossible
// calendar dates like 2026-02-30, which is the validity check assign needs.
func parseDate(s string) (DateOnly, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateOnly{}, err
	}
	return DateOnly{t}, nil
}

/* ─── Macro value objects ────────────────────────────────────────────── */

const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// MacroSet is a daily energy target plus its macro split. Values are kept
// unrounded; rounding only happens in Rounded, right before display.
type MacroSet struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// macroSetFromGrams builds a MacroSet whose calories are derived from the grams.
func macroSetFromGrams(protein, carbs, fat float64) MacroSet {
	return MacroSet{
		Calories: protein*kcalPerGramProtein + carbs*kcalPerGramCarbs + fat*kcalPerGramFat,
		Protein:  protein,
		Carbs:    carbs,
		Fat:      fat,
	}
}

// Rounded returns the set rounded to whole grams / kcal for display.
func (m MacroSet) Rounded() MacroSet {
	return MacroSet{
		Calories: math.Round(m.Calories),
		Protein:  math.Round(m.Protein),
		Carbs:    math.Round(m.Carbs),
		Fat:      math.Round(m.Fat),
	}
}

/* ─── Profile and planning inputs ────────────────────────────────────── */

// PersonalProfile is the body data MacroCalculator needs. Zero values mean
// "not supplied" and are reported as missing.
type PersonalProfile struct {
	WeightKG      float64 `json:"weight"`
	HeightCM      float64 `json:"height"`
	Age           int     `json:"age"`
	Gender        string  `json:"gender"`
	ActivityLevel string  `json:"activity_level"`
	Goal          string  `json:"goal"`
}

// CustomIntake holds optional per-kilogram overrides. A nil member keeps the
// recommended derivation for that macro.
type CustomIntake struct {
	ProteinPerKg *float64 `json:"protein_per_kg"`
	FatPerKg     *float64 `json:"fat_per_kg"`
}

// Adjustment is a signed gram delta per macro. The zero value is "no change".
type Adjustment struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

/* ─── Assignments ────────────────────────────────────────────────────── */

const (
	periodDay    = "day"
	periodCustom = "custom"
)

// macroAssignment is a stored macro snapshot bound to one date (period "day")
// or to the half-open range [StartDate, EndDate) (period "custom").
// For day assignments EndDate is StartDate+1 internally and omitted from JSON.
type macroAssignment struct {
	ID        uuid.UUID
	MemberID  int
	Period    string
	StartDate DateOnly
	EndDate   DateOnly
	Macros    MacroSet
	CreatedAt time.Time
	UpdatedAt time.Time
}

// covers reports whether date falls inside the assignment's half-open range.
func (a macroAssignment) covers(date DateOnly) bool {
	return !date.Time.Before(a.StartDate.Time) && date.Time.Before(a.EndDate.Time)
}

// assignmentResponse is the JSON shape returned by the assignment routes.
type assignmentResponse struct {
	ID        uuid.UUID `json:"id"`
	Period    string    `json:"period"`
	Date      *DateOnly `json:"date,omitempty"`
	StartDate *DateOnly `json:"start_date,omitempty"`
	EndDate   *DateOnly `json:"end_date,omitempty"`
	Macros    MacroSet  `json:"macros"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a macroAssignment) response() assignmentResponse {
	r := assignmentResponse{ID: a.ID, Period: a.Period, Macros: a.Macros, UpdatedAt: a.UpdatedAt}
	if a.Period == periodDay {
		d := a.StartDate
		r.Date = &d
	} else {
		start, end := a.StartDate, a.EndDate
		r.StartDate = &start
		r.EndDate = &end
	}
	return r
}

// resolvedDay is one entry of GET /api/macro-assignments and the range route.
// Macros and Source are nil when nothing is assigned for the date.
type resolvedDay struct {
	Date   DateOnly  `json:"date"`
	Macros *MacroSet `json:"macros"`
	Source *string   `json:"source"`
}

/* ─── Request bodies ─────────────────────────────────────────────────── */

// recommendRequest is the body for POST /api/macro-plan/recommend. Body fields
// override whatever the member profile has stored.
type recommendRequest struct {
	Age           int      `json:"age"`
	ActivityLevel string   `json:"activity_level"`
	Goal          string   `json:"goal"`
	WeightKG      *float64 `json:"weight"`
	HeightCM      *float64 `json:"height"`
	Gender        *string  `json:"gender"`
}

// adjustmentRequest is the body for PUT /api/macro-plan/adjustments/:scope.
// Omitted deltas are zero; an omitted mode keeps the scope's current mode.
type adjustmentRequest struct {
	Protein   int     `json:"protein"`
	Carbs     int     `json:"carbs"`
	Fat       int     `json:"fat"`
	Mode      *string `json:"mode"`
	Date      *string `json:"date"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// saveAssignmentRequest is the body for POST /api/macro-assignments.
// Macros is optional; when nil the draft's selected set for the scope is used.
type saveAssignmentRequest struct {
	Period    string    `json:"period"`
	Date      string    `json:"date"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Macros    *MacroSet `json:"macros"`
}
