package main

import (
	"time"
)

// PlanningDraft is a member's in-progress planning state: the profile used,
// the recommended and customized sets, and the two adjustment scopes.
// It travels on the request context and is mirrored to a draftStore after
// every change so a reload can pick up where the member left off.
type PlanningDraft struct {
	MemberID    int              `json:"member_id"`
	Revision    int64            `json:"revision"`
	Profile     *PersonalProfile `json:"profile,omitempty"`
	Recommended *MacroSet        `json:"recommended,omitempty"`
	Intake      *CustomIntake    `json:"intake,omitempty"`
	Customized  *MacroSet        `json:"customized,omitempty"`
	Day         adjustmentScope  `json:"day"`
	Period      adjustmentScope  `json:"period"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func newPlanningDraft(memberID int) *PlanningDraft {
	return &PlanningDraft{
		MemberID: memberID,
		Day:      newAdjustmentScope(),
		Period:   newAdjustmentScope(),
	}
}

// recompute replaces the recommendation wholesale. A customization computed
// against the previous calorie target no longer applies and is dropped.
// On error the draft is left unchanged.
func (d *PlanningDraft) recompute(p PersonalProfile) error {
	rec, err := recommendMacros(p)
	if err != nil {
		return err
	}
	d.Profile = &p
	d.Recommended = &rec
	d.Intake = nil
	d.Customized = nil
	return nil
}

// customize derives CustomizedMacros from in. On error the previous
// customization, if any, is kept.
func (d *PlanningDraft) customize(in CustomIntake) error {
	var weight float64
	if d.Profile != nil {
		weight = d.Profile.WeightKG
	}
	custom, err := customizeMacros(in, d.Recommended, weight)
	if err != nil {
		return err
	}
	d.Intake = &in
	d.Customized = &custom
	return nil
}

func (d *PlanningDraft) clearCustomization() {
	d.Intake = nil
	d.Customized = nil
}

// base is the set both adjustment scopes start from: the customized set when
// one exists, otherwise the recommendation.
func (d *PlanningDraft) base(op string) (MacroSet, error) {
	switch {
	case d.Customized != nil:
		return *d.Customized, nil
	case d.Recommended != nil:
		return *d.Recommended, nil
	default:
		return MacroSet{}, &PreconditionError{Op: op, Missing: "recommended macros"}
	}
}

// scope returns the named adjustment scope for in-place updates.
func (d *PlanningDraft) scope(name string) (*adjustmentScope, bool) {
	switch name {
	case scopeDay:
		return &d.Day, true
	case scopePeriod:
		return &d.Period, true
	}
	return nil, false
}

// setAdjustment stores a scope's delta and, when mode is non-nil, its mode.
func (d *PlanningDraft) setAdjustment(name string, delta Adjustment, mode *string) error {
	if _, err := d.base("adjust"); err != nil {
		return err
	}
	s, ok := d.scope(name)
	if !ok {
		v := &ValidationError{}
		v.add("scope", "must be one of: day, period")
		return v
	}
	if mode != nil {
		if err := validateMode(*mode); err != nil {
			return err
		}
		s.Mode = *mode
	}
	s.Adjustment = delta
	return nil
}

// selected returns the macro set the member has chosen for a scope.
func (d *PlanningDraft) selected(name string) (MacroSet, error) {
	base, err := d.base("select")
	if err != nil {
		return MacroSet{}, err
	}
	s, ok := d.scope(name)
	if !ok {
		return base, nil
	}
	return s.selectMacros(base), nil
}

// touch marks a mutation. The draft store only accepts a write whose previous
// revision is the one it still holds.
func (d *PlanningDraft) touch() {
	d.Revision++
	d.UpdatedAt = time.Now().UTC()
}

/* ─── Display view ───────────────────────────────────────────────────── */

// scopeView is one adjustment scope as shown to the member: base, adjusted
// and selected sets, all rounded.
type scopeView struct {
	adjustmentScope
	Base     *MacroSet `json:"base"`
	Adjusted *MacroSet `json:"adjusted"`
	Selected *MacroSet `json:"selected"`
}

// planView is the response shape for the /api/macro-plan routes.
type planView struct {
	Revision    int64            `json:"revision"`
	Profile     *PersonalProfile `json:"profile"`
	Recommended *MacroSet        `json:"recommended"`
	Intake      *CustomIntake    `json:"intake"`
	Customized  *MacroSet        `json:"customized"`
	Day         scopeView        `json:"day"`
	Period      scopeView        `json:"period"`
	UpdatedAt   *time.Time       `json:"updated_at"`
}

func roundedPtr(m *MacroSet) *MacroSet {
	if m == nil {
		return nil
	}
	r := m.Rounded()
	return &r
}

func (d *PlanningDraft) view() planView {
	v := planView{
		Revision:    d.Revision,
		Profile:     d.Profile,
		Recommended: roundedPtr(d.Recommended),
		Intake:      d.Intake,
		Customized:  roundedPtr(d.Customized),
		Day:         scopeView{adjustmentScope: d.Day},
		Period:      scopeView{adjustmentScope: d.Period},
	}
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		v.UpdatedAt = &t
	}
	if base, err := d.base("view"); err == nil {
		for _, sv := range []*scopeView{&v.Day, &v.Period} {
			adjusted := applyAdjustment(base, sv.Adjustment)
			selected := sv.selectMacros(base)
			sv.Base = roundedPtr(&base)
			sv.Adjusted = roundedPtr(&adjusted)
			sv.Selected = roundedPtr(&selected)
		}
	}
	return v
}
