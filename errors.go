package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FieldError is a single out-of-range or missing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violated field of a profile or intake so the
// member can fix them all in one pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add records a violation. Callers build one ValidationError per request and
// return it only if at least one field was added (see err).
func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// err returns nil when no violations were recorded, so callers can write
// `return v.err()` without the typed-nil interface trap.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// kcalLimitCode is the only constraint code the engine produces.
const kcalLimitCode = "kcal-limit"

// ConstraintError means the inputs are individually valid but protein and fat
// calories alone exceed the calorie budget. It is surfaced verbatim; nothing
// is rescaled automatically.
type ConstraintError struct {
	Code        string
	BudgetKcal  float64
	RequestKcal float64
}

func (e *ConstraintError) Error() string {
	return e.Code + ": protein and fat calories exceed the daily calorie budget"
}

// PreconditionError is a sequencing fault in the caller, e.g. customizing
// before any recommendation has been computed.
type PreconditionError struct {
	Op      string
	Missing string
}

func (e *PreconditionError) Error() string {
	return e.Op + ": " + e.Missing + " has not been computed yet"
}

// respondError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500 with the given fallback message.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var vErr *ValidationError
	var cErr *ConstraintError
	var pErr *PreconditionError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": vErr.Fields})
	case errors.As(err, &cErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": cErr.Error(), "code": cErr.Code})
	case errors.As(err, &pErr):
		apiError(c, http.StatusConflict, pErr.Error())
	case errors.Is(err, errMemberNotFound):
		apiError(c, http.StatusNotFound, errMemberNotFound.Error())
	default:
		h.log.Error(fallback, zap.Int("member_id", c.GetInt("member_id")), zap.Error(err))
		apiError(c, http.StatusInternalServerError, fallback)
	}
}
