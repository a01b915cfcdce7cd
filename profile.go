package main

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// memberProfile maps to the members table owned by the profile screens.
// Body fields are nullable; a member may not have filled them in yet.
type memberProfile struct {
	ID        int        `db:"id"`
	Username  string     `db:"username"`
	Sex       *string    `db:"sex"`
	HeightCM  *float64   `db:"height_cm"`
	WeightKG  *float64   `db:"weight_kg"`
	CreatedAt *time.Time `db:"created_at"`
}

// errMemberNotFound means the token names a member with no members row.
var errMemberNotFound = errors.New("member not found")

// profileSource reads stored body data for a member.
type profileSource interface {
	LoadProfile(ctx context.Context, memberID int) (memberProfile, error)
}

type pgProfileSource struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

// LoadProfile returns the member's row. Body fields may be NULL; the planner
// then runs on request-supplied values.
func (s *pgProfileSource) LoadProfile(ctx context.Context, memberID int) (memberProfile, error) {
	p, err := queryOne[memberProfile](ctx, s.db, s.log,
		"SELECT id, username, sex, height_cm, weight_kg, created_at FROM members WHERE id = @memberID",
		pgx.NamedArgs{"memberID": memberID})
	if errors.Is(err, pgx.ErrNoRows) {
		return memberProfile{}, errMemberNotFound
	}
	return p, err
}

// buildProfile merges stored body data with the planner request. Request
// values win; age, activity level and goal only ever come from the request.
func buildProfile(stored memberProfile, req recommendRequest) PersonalProfile {
	p := PersonalProfile{
		Age:           req.Age,
		ActivityLevel: req.ActivityLevel,
		Goal:          req.Goal,
	}
	if stored.WeightKG != nil {
		p.WeightKG = *stored.WeightKG
	}
	if stored.HeightCM != nil {
		p.HeightCM = *stored.HeightCM
	}
	if stored.Sex != nil {
		p.Gender = *stored.Sex
	}

	if req.WeightKG != nil {
		p.WeightKG = *req.WeightKG
	}
	if req.HeightCM != nil {
		p.HeightCM = *req.HeightCM
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	return p
}
