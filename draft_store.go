package main

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

//go:embed db/drafts/*.sql
var draftMigrationsFS embed.FS

// errDraftConflict means another write replaced the draft after it was loaded.
var errDraftConflict = errors.New("draft was modified concurrently")

// draftStore is the key-value collaborator that mirrors planning drafts.
// LoadDraft returns (nil, nil) when the member has no draft.
// SaveDraft is a compare-and-set: it only writes when the stored revision is
// still loadedRevision (0 meaning no stored draft) and returns errDraftConflict
// otherwise.
type draftStore interface {
	LoadDraft(ctx context.Context, memberID int) (*PlanningDraft, error)
	SaveDraft(ctx context.Context, d *PlanningDraft, loadedRevision int64) error
	DeleteDraft(ctx context.Context, memberID int) error
	Close() error
}

// sqliteDraftStore keeps drafts in a local SQLite file, one JSON row per member.
type sqliteDraftStore struct{ db *sql.DB }

// openSQLiteDrafts opens (or creates) the draft database at path, applies
// PRAGMAs and the embedded migrations.
func openSQLiteDrafts(ctx context.Context, path string) (*sqliteDraftStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}
	if err := runDraftMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("draft migrations: %w", err)
	}
	return &sqliteDraftStore{db: db}, nil
}

// runDraftMigrations executes the embedded SQL files in name order, each in
// its own transaction. Files are written to be re-runnable.
func runDraftMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := fs.ReadDir(draftMigrationsFS, "db/drafts")
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		sqlBytes, err := fs.ReadFile(draftMigrationsFS, "db/drafts/"+e.Name())
		if err != nil {
			return err
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteDraftStore) Close() error {
	return s.db.Close()
}

func (s *sqliteDraftStore) LoadDraft(ctx context.Context, memberID int) (*PlanningDraft, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM planning_drafts WHERE member_id = ?", memberID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d := newPlanningDraft(memberID)
	if err := json.Unmarshal([]byte(payload), d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

// SaveDraft writes the member's draft if nobody has written since it was
// loaded at loadedRevision. Revision 0 means the request started without a
// stored draft, so only an insert is allowed; otherwise only an update of
// that exact revision is. A draft deleted in the meantime stays deleted.
func (s *sqliteDraftStore) SaveDraft(ctx context.Context, d *PlanningDraft, loadedRevision int64) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	var res sql.Result
	if loadedRevision == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO planning_drafts (member_id, revision, payload, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(member_id) DO NOTHING`,
			d.MemberID, d.Revision, string(payload), d.UpdatedAt.Unix(),
		)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE planning_drafts SET revision = ?, payload = ?, updated_at = ?
			WHERE member_id = ? AND revision = ?`,
			d.Revision, string(payload), d.UpdatedAt.Unix(), d.MemberID, loadedRevision,
		)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errDraftConflict
	}
	return nil
}

func (s *sqliteDraftStore) DeleteDraft(ctx context.Context, memberID int) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM planning_drafts WHERE member_id = ?", memberID)
	return err
}

/* ─── Request plumbing ───────────────────────────────────────────────── */

// draftMiddleware loads the member's draft onto the context. A failed load is
// logged and replaced by an empty draft: drafts are a convenience, never a
// reason to fail the request.
func (h *Handler) draftMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.GetInt("member_id")
		d, err := h.drafts.LoadDraft(c, memberID)
		if err != nil {
			h.log.Warn("[draftMiddleware] load failed, starting fresh",
				zap.Int("member_id", memberID), zap.Error(err))
		}
		if d == nil {
			d = newPlanningDraft(memberID)
		}
		c.Set("draft", d)
		c.Next()
	}
}

// draftFrom returns the draft placed on the context by draftMiddleware.
func draftFrom(c *gin.Context) *PlanningDraft {
	if v, ok := c.Get("draft"); ok {
		if d, ok := v.(*PlanningDraft); ok {
			return d
		}
	}
	return newPlanningDraft(c.GetInt("member_id"))
}

// persistDraft bumps the revision and writes d before the handler responds,
// so the member's next request starts from this state. A failed write is
// logged only: the response still reflects d.
func (h *Handler) persistDraft(c *gin.Context, d *PlanningDraft) {
	loaded := d.Revision
	d.touch()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.draftWriteTimeout())
	defer cancel()
	if err := h.drafts.SaveDraft(ctx, d, loaded); err != nil {
		h.log.Warn("[persistDraft] draft write dropped",
			zap.Int("member_id", d.MemberID),
			zap.Int64("revision", d.Revision),
			zap.Error(err))
	}
}

func (h *Handler) draftWriteTimeout() time.Duration {
	if h.cfg.DraftWriteTimeout > 0 {
		return h.cfg.DraftWriteTimeout
	}
	return 3 * time.Second
}
