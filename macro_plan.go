package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getMacroPlan returns the member's planning draft with per-scope base,
// adjusted and selected macro sets, rounded for display.
// GET /api/macro-plan.
func (h *Handler) getMacroPlan(c *gin.Context) {
	c.JSON(http.StatusOK, draftFrom(c).view())
}

// deleteMacroPlan discards the draft. Returns 204.
// DELETE /api/macro-plan.
func (h *Handler) deleteMacroPlan(c *gin.Context) {
	memberID := c.GetInt("member_id")
	if err := h.drafts.DeleteDraft(c, memberID); err != nil {
		h.log.Warn("[deleteMacroPlan] draft delete failed", zap.Int("member_id", memberID), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// postRecommend computes recommended macros from the stored member profile
// merged with the request body, replacing any previous recommendation.
// POST /api/macro-plan/recommend.
func (h *Handler) postRecommend(c *gin.Context) {
	memberID := c.GetInt("member_id")

	var body recommendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	stored, err := h.profiles.LoadProfile(c, memberID)
	if err != nil {
		h.respondError(c, err, "failed to load member profile")
		return
	}

	d := draftFrom(c)
	if err := d.recompute(buildProfile(stored, body)); err != nil {
		h.respondError(c, err, "failed to compute macros")
		return
	}
	h.persistDraft(c, d)

	c.JSON(http.StatusOK, d.view())
}

// postCustomize applies a protein/fat per-kg override on top of the current
// recommendation. Omitted fields keep the recommended rule.
// POST /api/macro-plan/customize.
func (h *Handler) postCustomize(c *gin.Context) {
	var body CustomIntake
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	d := draftFrom(c)
	if err := d.customize(body); err != nil {
		h.respondError(c, err, "failed to customize macros")
		return
	}
	h.persistDraft(c, d)

	c.JSON(http.StatusOK, d.view())
}

// deleteCustomize drops the customization; both scopes fall back to the
// recommended set.
// DELETE /api/macro-plan/customize.
func (h *Handler) deleteCustomize(c *gin.Context) {
	d := draftFrom(c)
	d.clearCustomization()
	h.persistDraft(c, d)

	c.JSON(http.StatusOK, d.view())
}

// putAdjustment replaces the delta (and optionally mode and dates) of one
// adjustment scope.
// PUT /api/macro-plan/adjustments/:scope where scope is "day" or "period".
func (h *Handler) putAdjustment(c *gin.Context) {
	scope := c.Param("scope")
	if scope != scopeDay && scope != scopePeriod {
		apiError(c, http.StatusNotFound, "unknown adjustment scope")
		return
	}

	var body adjustmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// Dates are validated up front so a bad date never half-applies the update.
	v := &ValidationError{}
	date := optionalDate(v, "date", body.Date)
	start := optionalDate(v, "start_date", body.StartDate)
	end := optionalDate(v, "end_date", body.EndDate)
	if start != nil && end != nil && !end.Time.After(start.Time) {
		v.add("end_date", "must be after start_date")
	}
	if err := v.err(); err != nil {
		h.respondError(c, err, "failed to update adjustment")
		return
	}

	d := draftFrom(c)
	delta := Adjustment{Protein: body.Protein, Carbs: body.Carbs, Fat: body.Fat}
	if err := d.setAdjustment(scope, delta, body.Mode); err != nil {
		h.respondError(c, err, "failed to update adjustment")
		return
	}
	s, _ := d.scope(scope)
	if date != nil {
		s.Date = date
	}
	if start != nil {
		s.StartDate = start
	}
	if end != nil {
		s.EndDate = end
	}
	h.persistDraft(c, d)

	c.JSON(http.StatusOK, d.view())
}

// optionalDate parses a nullable YYYY-MM-DD field, recording a violation on v.
func optionalDate(v *ValidationError, field string, s *string) *DateOnly {
	if s == nil {
		return nil
	}
	d, err := parseDate(*s)
	if err != nil {
		v.add(field, "invalid date, expected YYYY-MM-DD")
		return nil
	}
	return &d
}
