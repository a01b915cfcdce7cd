package main

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// assignmentStore persists macro assignments keyed by identity:
// (member, date) for day assignments, (member, start, end) for periods.
type assignmentStore interface {
	// Upsert creates the assignment or fully replaces the one with the same
	// identity key. Retrying with identical input leaves a single row.
	Upsert(ctx context.Context, a macroAssignment) (macroAssignment, error)
	// Overlapping returns every assignment that covers at least one date in [from, to).
	Overlapping(ctx context.Context, memberID int, from, to DateOnly) ([]macroAssignment, error)
	// Delete removes the assignment with the given identity key.
	Delete(ctx context.Context, memberID int, period string, start, end DateOnly) (bool, error)
}

// resolveDate picks the assignment governing date. A day assignment always
// wins; among covering periods the most recently written one wins.
func resolveDate(candidates []macroAssignment, date DateOnly) (macroAssignment, bool) {
	var best macroAssignment
	found := false
	for _, a := range candidates {
		if !a.covers(date) {
			continue
		}
		if a.Period == periodDay {
			return a, true
		}
		if !found || newerThan(a, best) {
			best = a
			found = true
		}
	}
	return best, found
}

// newerThan orders assignments by write time, with creation time and id as
// tie-breakers so resolution is deterministic.
func newerThan(a, b macroAssignment) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}

// sortAssignments orders assignments by start date, day assignments first.
func sortAssignments(as []macroAssignment) {
	sort.SliceStable(as, func(i, j int) bool {
		if !as[i].StartDate.Time.Equal(as[j].StartDate.Time) {
			return as[i].StartDate.Time.Before(as[j].StartDate.Time)
		}
		return as[i].Period == periodDay && as[j].Period != periodDay
	})
}

/* ─── PostgreSQL implementation ──────────────────────────────────────── */

// assignmentRow is the common column shape of both assignment tables.
// Day rows are selected with end_date = date + 1.
type assignmentRow struct {
	ID        uuid.UUID `db:"id"`
	MemberID  int       `db:"member_id"`
	Period    string    `db:"period"`
	StartDate DateOnly  `db:"start_date"`
	EndDate   DateOnly  `db:"end_date"`
	Calories  float64   `db:"calories"`
	Protein   float64   `db:"protein"`
	Carbs     float64   `db:"carbs"`
	Fat       float64   `db:"fat"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r assignmentRow) assignment() macroAssignment {
	return macroAssignment{
		ID:        r.ID,
		MemberID:  r.MemberID,
		Period:    r.Period,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Macros:    MacroSet{Calories: r.Calories, Protein: r.Protein, Carbs: r.Carbs, Fat: r.Fat},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const (
	dayColumns = `id, member_id, 'day' AS period, date AS start_date, date + 1 AS end_date,
		calories, protein, carbs, fat, created_at, updated_at`
	periodColumns = `id, member_id, 'custom' AS period, start_date, end_date,
		calories, protein, carbs, fat, created_at, updated_at`
)

// pgAssignmentStore stores assignments in macro_day_assignments and
// macro_period_assignments. The UNIQUE identity constraints make Upsert a
// single atomic INSERT ... ON CONFLICT, which is what makes assign safe to retry.
type pgAssignmentStore struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func (s *pgAssignmentStore) Upsert(ctx context.Context, a macroAssignment) (macroAssignment, error) {
	args := pgx.NamedArgs{
		"id":       uuid.New(),
		"memberID": a.MemberID,
		"start":    a.StartDate.String(),
		"end":      a.EndDate.String(),
		"calories": a.Macros.Calories,
		"protein":  a.Macros.Protein,
		"carbs":    a.Macros.Carbs,
		"fat":      a.Macros.Fat,
	}

	var query string
	switch a.Period {
	case periodDay:
		query = `INSERT INTO macro_day_assignments (id, member_id, date, calories, protein, carbs, fat)
			 VALUES (@id, @memberID, @start, @calories, @protein, @carbs, @fat)
			 ON CONFLICT (member_id, date) DO UPDATE SET
				calories   = EXCLUDED.calories,
				protein    = EXCLUDED.protein,
				carbs      = EXCLUDED.carbs,
				fat        = EXCLUDED.fat,
				updated_at = now()
			 RETURNING ` + dayColumns
	case periodCustom:
		query = `INSERT INTO macro_period_assignments (id, member_id, start_date, end_date, calories, protein, carbs, fat)
			 VALUES (@id, @memberID, @start, @end, @calories, @protein, @carbs, @fat)
			 ON CONFLICT (member_id, start_date, end_date) DO UPDATE SET
				calories   = EXCLUDED.calories,
				protein    = EXCLUDED.protein,
				carbs      = EXCLUDED.carbs,
				fat        = EXCLUDED.fat,
				updated_at = now()
			 RETURNING ` + periodColumns
	default:
		return macroAssignment{}, errors.New("unknown assignment period " + a.Period)
	}

	row, err := queryOne[assignmentRow](ctx, s.db, s.log, query, args)
	if err != nil {
		return macroAssignment{}, upsertError(err)
	}
	return row.assignment(), nil
}

// foreignKeyViolation is the Postgres SQLSTATE for a failed REFERENCES check.
const foreignKeyViolation = "23503"

// upsertError maps a missing members row to errMemberNotFound.
func upsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return errMemberNotFound
	}
	return err
}

func (s *pgAssignmentStore) Overlapping(ctx context.Context, memberID int, from, to DateOnly) ([]macroAssignment, error) {
	rows, err := queryMany[assignmentRow](ctx, s.db, s.log,
		`SELECT `+dayColumns+` FROM macro_day_assignments
		 WHERE member_id = @memberID AND date >= @from AND date < @to
		 UNION ALL
		 SELECT `+periodColumns+` FROM macro_period_assignments
		 WHERE member_id = @memberID AND start_date < @to AND end_date > @from`,
		pgx.NamedArgs{"memberID": memberID, "from": from.String(), "to": to.String()})
	if err != nil {
		return nil, err
	}

	out := make([]macroAssignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.assignment())
	}
	sortAssignments(out)
	return out, nil
}

func (s *pgAssignmentStore) Delete(ctx context.Context, memberID int, period string, start, end DateOnly) (bool, error) {
	var query string
	args := pgx.NamedArgs{"memberID": memberID, "start": start.String(), "end": end.String()}
	switch period {
	case periodDay:
		query = "DELETE FROM macro_day_assignments WHERE member_id = @memberID AND date = @start"
	case periodCustom:
		query = `DELETE FROM macro_period_assignments
			 WHERE member_id = @memberID AND start_date = @start AND end_date = @end`
	default:
		return false, errors.New("unknown assignment period " + period)
	}

	result, err := s.db.Exec(ctx, query, args)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
