package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/valpere/pdxtran/internal"
)

// Store is the SQLite implementation of Repository.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	dsn := filepath.Clean(dbPath) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection serialises writers; claims stay atomic without
	// SQLITE_BUSY retries
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		loc_key TEXT NOT NULL,
		original TEXT NOT NULL,
		wish TEXT NOT NULL DEFAULT '',
		claimed BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(filename, loc_key)
	);

	-- entry_events is the audit trail of every change made to entries
	CREATE TABLE IF NOT EXISTS entry_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		entry_id INTEGER NOT NULL DEFAULT 0,
		filename TEXT NOT NULL DEFAULT '',
		loc_key TEXT NOT NULL DEFAULT '',
		old_text TEXT NOT NULL DEFAULT '',
		new_text TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_claim ON entries(claimed, id);
	CREATE INDEX IF NOT EXISTS idx_entries_original ON entries(original);
	CREATE INDEX IF NOT EXISTS idx_entries_key ON entries(loc_key);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func logEvent(ctx context.Context, ex execer, action string, e internal.Entry, oldText, newText string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO entry_events (action, entry_id, filename, loc_key, old_text, new_text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		action, e.ID, e.Filename, e.Key, oldText, newText, time.Now().UTC())
	return err
}

func (s *Store) UpsertEntries(ctx context.Context, entries []internal.Entry) (internal.UpsertStats, error) {
	var stats internal.UpsertStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	for _, e := range internal.LastByKey(entries) {
		var id int64
		var original string
		err := tx.QueryRowContext(ctx,
			`SELECT id, original FROM entries WHERE filename = ? AND loc_key = ?`,
			e.Filename, e.Key).Scan(&id, &original)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.ExecContext(ctx,
				`INSERT INTO entries (filename, loc_key, original, updated_at) VALUES (?, ?, ?, ?)`,
				e.Filename, e.Key, e.Original, time.Now().UTC())
			if err != nil {
				return stats, fmt.Errorf("insert %s:%s: %w", e.Filename, e.Key, err)
			}
			if e.ID, err = res.LastInsertId(); err != nil {
				return stats, err
			}
			if err := logEvent(ctx, tx, internal.ActionInsert, e, "", e.Original); err != nil {
				return stats, err
			}
			stats.Inserted++
		case err != nil:
			return stats, err
		case original == e.Original:
			stats.Unchanged++
		default:
			_, err := tx.ExecContext(ctx,
				`UPDATE entries SET original = ?, wish = '', claimed = FALSE, updated_at = ? WHERE id = ?`,
				e.Original, time.Now().UTC(), id)
			if err != nil {
				return stats, fmt.Errorf("update %s:%s: %w", e.Filename, e.Key, err)
			}
			e.ID = id
			if err := logEvent(ctx, tx, internal.ActionUpdate, e, original, e.Original); err != nil {
				return stats, err
			}
			stats.Updated++
		}
	}

	return stats, tx.Commit()
}

const entryColumns = `id, filename, loc_key, original, wish, claimed, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*internal.Entry, error) {
	var e internal.Entry
	if err := row.Scan(&e.ID, &e.Filename, &e.Key, &e.Original, &e.Wish, &e.Claimed, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// ClaimNext marks the unclaimed entry with the lowest id as claimed and
// returns it. The compare-and-swap on claimed makes the claim exclusive.
// It returns nil when nothing is left to claim.
func (s *Store) ClaimNext(ctx context.Context) (*internal.Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`UPDATE entries SET claimed = TRUE, updated_at = ?
		 WHERE id = (SELECT id FROM entries WHERE claimed = FALSE ORDER BY id LIMIT 1) AND claimed = FALSE
		 RETURNING `+entryColumns,
		time.Now().UTC())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim entry: %w", err)
	}

	if err := logEvent(ctx, tx, internal.ActionClaim, *e, "", ""); err != nil {
		return nil, err
	}
	return e, tx.Commit()
}

func (s *Store) Unclaim(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE entries SET claimed = FALSE, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	return err
}

// UpdateWish stores a translation for the entry. The entry stays claimed.
func (s *Store) UpdateWish(ctx context.Context, id int64, wish string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	e, err := scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("entry %d: %w", id, internal.ErrEntryNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE entries SET wish = ?, claimed = TRUE, updated_at = ? WHERE id = ?`,
		wish, time.Now().UTC(), id); err != nil {
		return err
	}
	if err := logEvent(ctx, tx, internal.ActionWish, *e, e.Wish, wish); err != nil {
		return err
	}
	return tx.Commit()
}

// FindTranslated returns the wish of the first entry with exactly this
// original text and a non-empty wish.
func (s *Store) FindTranslated(ctx context.Context, original string) (string, bool, error) {
	var wish string
	err := s.db.QueryRowContext(ctx,
		`SELECT wish FROM entries WHERE original = ? AND wish <> '' ORDER BY id LIMIT 1`,
		original).Scan(&wish)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return wish, true, nil
}

func (s *Store) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

func (s *Store) CountTranslated(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE wish <> ''`).Scan(&n)
	return n, err
}

// TranslationsByKey maps every translated key to the wish of its lowest-id
// entry.
func (s *Store) TranslationsByKey(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT loc_key, wish FROM entries WHERE wish <> '' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, wish string
		if err := rows.Scan(&key, &wish); err != nil {
			return nil, err
		}
		if _, seen := out[key]; !seen {
			out[key] = wish
		}
	}
	return out, rows.Err()
}

func (s *Store) ListEntries(ctx context.Context, filter internal.EntryFilter) ([]internal.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	var args []any

	switch {
	case filter.Pending:
		query += ` WHERE wish = ''`
	case filter.Translated:
		query += ` WHERE wish <> ''`
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []internal.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ResetClaims releases every claimed entry that has no wish, which covers
// failed entries and claims abandoned by a crashed run.
func (s *Store) ResetClaims(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE entries SET claimed = FALSE, updated_at = ? WHERE claimed = TRUE AND wish = ''`,
		time.Now().UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := logEvent(ctx, tx, internal.ActionReset, internal.Entry{}, "", strconv.FormatInt(n, 10)); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// RecentEvents returns the newest audit events first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]internal.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, entry_id, filename, loc_key, old_text, new_text, created_at
		 FROM entry_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []internal.Event
	for rows.Next() {
		var ev internal.Event
		if err := rows.Scan(&ev.ID, &ev.Action, &ev.EntryID, &ev.Filename, &ev.Key, &ev.OldText, &ev.NewText, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
