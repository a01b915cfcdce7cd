package main

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// parseTarget validates a save request's target and returns the assignment
// identity: period plus half-open [start, end). Day targets get end = start+1.
func parseTarget(req saveAssignmentRequest) (string, DateOnly, DateOnly, error) {
	v := &ValidationError{}
	switch req.Period {
	case periodDay:
		date, err := parseDate(req.Date)
		if err != nil {
			v.add("date", "invalid date, expected YYYY-MM-DD")
			return "", DateOnly{}, DateOnly{}, v
		}
		return periodDay, date, date.addDays(1), nil

	case periodCustom:
		start, startErr := parseDate(req.StartDate)
		end, endErr := parseDate(req.EndDate)
		if startErr != nil {
			v.add("start_date", "invalid date, expected YYYY-MM-DD")
		}
		if endErr != nil {
			v.add("end_date", "invalid date, expected YYYY-MM-DD")
		}
		if startErr == nil && endErr == nil && !end.Time.After(start.Time) {
			v.add("end_date", "must be after start_date")
		}
		if err := v.err(); err != nil {
			return "", DateOnly{}, DateOnly{}, err
		}
		return periodCustom, start, end, nil
	}

	v.add("period", "must be one of: day, custom")
	return "", DateOnly{}, DateOnly{}, v
}

// validateSnapshot rejects macro sets no target could sensibly hold.
func validateSnapshot(m MacroSet) error {
	v := &ValidationError{}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"macros.calories", m.Calories},
		{"macros.protein", m.Protein},
		{"macros.carbs", m.Carbs},
		{"macros.fat", m.Fat},
	} {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			v.add(f.name, "must be a non-negative number")
		}
	}
	return v.err()
}

// assign stores macros against the target, replacing any assignment with the
// same identity key. The snapshot is copied by value.
func (h *Handler) assign(ctx context.Context, memberID int, period string, start, end DateOnly, macros MacroSet) (macroAssignment, error) {
	if err := validateSnapshot(macros); err != nil {
		return macroAssignment{}, err
	}
	a, err := h.assignments.Upsert(ctx, macroAssignment{
		MemberID:  memberID,
		Period:    period,
		StartDate: start,
		EndDate:   end,
		Macros:    macros,
	})
	if err != nil {
		return macroAssignment{}, fmt.Errorf("upsert %s assignment: %w", period, err)
	}
	return a, nil
}

// resolve returns the macro assignment governing date. ok=false with a nil
// error means nothing is assigned, which is a normal outcome.
func (h *Handler) resolve(ctx context.Context, memberID int, date DateOnly) (macroAssignment, bool, error) {
	candidates, err := h.assignments.Overlapping(ctx, memberID, date, date.addDays(1))
	if err != nil {
		return macroAssignment{}, false, fmt.Errorf("load assignments: %w", err)
	}
	a, ok := resolveDate(candidates, date)
	return a, ok, nil
}

func resolvedFrom(date DateOnly, a macroAssignment, ok bool) resolvedDay {
	day := resolvedDay{Date: date}
	if ok {
		m := a.Macros
		src := a.Period
		day.Macros = &m
		day.Source = &src
	}
	return day
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// saveAssignment assigns a macro snapshot to a date or a date range.
// POST /api/macro-assignments.
// Body: {"period":"day","date":...} or {"period":"custom","start_date":...,"end_date":...},
// plus optional "macros". Without macros, the draft's selected set for the
// matching scope is stored. Safe to retry: same input, same single assignment.
func (h *Handler) saveAssignment(c *gin.Context) {
	memberID := c.GetInt("member_id")

	var body saveAssignmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	period, start, end, err := parseTarget(body)
	if err != nil {
		h.respondError(c, err, "failed to save assignment")
		return
	}

	var macros MacroSet
	if body.Macros != nil {
		macros = *body.Macros
	} else {
		scope := scopeDay
		if period == periodCustom {
			scope = scopePeriod
		}
		macros, err = draftFrom(c).selected(scope)
		if err != nil {
			h.respondError(c, err, "failed to save assignment")
			return
		}
	}

	a, err := h.assign(c, memberID, period, start, end, macros)
	if err != nil {
		h.respondError(c, err, "failed to save assignment")
		return
	}
	h.log.Info("[saveAssignment] assigned",
		zap.Int("member_id", memberID),
		zap.String("period", period),
		zap.String("start", start.String()),
		zap.String("end", end.String()))

	c.JSON(http.StatusOK, a.response())
}

// getAssignmentByDate returns the macros that govern one date.
// GET /api/macro-assignments?date=YYYY-MM-DD (defaults to today).
// An unassigned date returns 200 with "macros": null.
func (h *Handler) getAssignmentByDate(c *gin.Context) {
	memberID := c.GetInt("member_id")

	date := todayUTC()
	if s := c.Query("date"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	a, ok, err := h.resolve(c, memberID, date)
	if err != nil {
		h.respondError(c, err, "failed to fetch assignment")
		return
	}

	c.JSON(http.StatusOK, resolvedFrom(date, a, ok))
}

// getAssignmentRange returns one resolved entry per date in [start, end],
// filling unassigned dates with null macros.
// GET /api/macro-assignments/range?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
func (h *Handler) getAssignmentRange(c *gin.Context) {
	memberID := c.GetInt("member_id")

	start, err := parseDate(c.Query("start"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if start.Time.After(end.Time) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}
	days := int(end.Time.Sub(start.Time).Hours()/24) + 1
	if limit := h.cfg.MaxRangeDays; limit > 0 && days > limit {
		apiError(c, http.StatusBadRequest, fmt.Sprintf("range must not exceed %d days", limit))
		return
	}

	// One query for the whole window, then resolve each date in memory.
	candidates, err := h.assignments.Overlapping(c, memberID, start, end.addDays(1))
	if err != nil {
		h.respondError(c, err, "failed to fetch assignments")
		return
	}

	result := make([]resolvedDay, days)
	for i := 0; i < days; i++ {
		d := start.addDays(i)
		a, ok := resolveDate(candidates, d)
		result[i] = resolvedFrom(d, a, ok)
	}

	c.JSON(http.StatusOK, result)
}

// deleteDayAssignment removes the day assignment for a date.
// DELETE /api/macro-assignments/day/:date. Returns 204, or 404 if none exists.
func (h *Handler) deleteDayAssignment(c *gin.Context) {
	memberID := c.GetInt("member_id")

	date, err := parseDate(c.Param("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	deleted, err := h.assignments.Delete(c, memberID, periodDay, date, date.addDays(1))
	if err != nil {
		h.respondError(c, err, "failed to delete assignment")
		return
	}
	if !deleted {
		apiError(c, http.StatusNotFound, "assignment not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// deletePeriodAssignment removes the period assignment with exactly this range.
// DELETE /api/macro-assignments/period?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) deletePeriodAssignment(c *gin.Context) {
	memberID := c.GetInt("member_id")

	_, start, end, err := parseTarget(saveAssignmentRequest{
		Period:    periodCustom,
		StartDate: c.Query("start"),
		EndDate:   c.Query("end"),
	})
	if err != nil {
		h.respondError(c, err, "failed to delete assignment")
		return
	}

	deleted, err := h.assignments.Delete(c, memberID, periodCustom, start, end)
	if err != nil {
		h.respondError(c, err, "failed to delete assignment")
		return
	}
	if !deleted {
		apiError(c, http.StatusNotFound, "assignment not found")
		return
	}

	c.Status(http.StatusNoContent)
}
