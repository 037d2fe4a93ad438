// Package store manages SQLite persistence for tickledger.
//
// The store holds exactly one snapshot: the latest full State. Saves replace
// it wholesale inside a transaction, so a reader never sees half of one
// transition and half of another. Each save also appends a revision row,
// which is the only history the store keeps.
package store

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/daviddao/tickledger/pkg/model"

	_ "modernc.org/sqlite"
)

// Store manages all SQLite operations with WAL mode for concurrent access.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens (or creates) the SQLite database and initializes the schema.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, log: slog.Default().With("component", "store")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, oops.Code("STORE_MIGRATE_FAILED").With("path", path).Wrap(err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// retryOnContention wraps retryOp from retry.go with the default config.
// All store write operations should use this to handle transient SQLite
// errors (BUSY, LOCKED, IOERR_SHORT_READ) under concurrent access.
func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS resources (
		name   TEXT PRIMARY KEY,
		amount INTEGER NOT NULL,
		seq    INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id                TEXT PRIMARY KEY,
		seq               INTEGER NOT NULL,
		name              TEXT NOT NULL,
		ticks_to_complete INTEGER NOT NULL,
		ticks_total       INTEGER NOT NULL,
		is_repeating      INTEGER NOT NULL DEFAULT 0,
		added_on          INTEGER NOT NULL,
		ended_on          INTEGER,
		status            TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_seq ON events(seq);

	CREATE TABLE IF NOT EXISTS outcomes (
		event_id      TEXT NOT NULL REFERENCES events(id),
		idx           INTEGER NOT NULL,
		resource_name TEXT NOT NULL,
		operation     TEXT NOT NULL,
		amount        INTEGER NOT NULL,
		timing        TEXT NOT NULL,
		PRIMARY KEY (event_id, idx)
	);

	CREATE TABLE IF NOT EXISTS revisions (
		id        TEXT PRIMARY KEY,
		tick      INTEGER NOT NULL,
		resources INTEGER NOT NULL,
		events    INTEGER NOT NULL,
		saved_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// HasSnapshot reports whether a snapshot has ever been saved (and not
// cleared since).
func (s *Store) HasSnapshot() (bool, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM meta WHERE key = 'ticks'`).Scan(&n)
	if err != nil {
		return false, oops.Code("SNAPSHOT_LOAD_FAILED").Wrap(err)
	}
	return n > 0, nil
}

// Load reads the stored snapshot. When none exists it returns the default
// empty state, not an error.
func (s *Store) Load() (model.State, error) {
	state := model.DefaultState()
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'ticks'`).Scan(&state.Ticks)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Debug("no snapshot stored, using default state")
		return state, nil
	}
	if err != nil {
		return model.State{}, oops.Code("SNAPSHOT_LOAD_FAILED").Wrap(err)
	}

	if state.Resources, err = s.loadResources(); err != nil {
		return model.State{}, oops.Code("SNAPSHOT_LOAD_FAILED").With("table", "resources").Wrap(err)
	}
	if state.Events, err = s.loadEvents(); err != nil {
		return model.State{}, oops.Code("SNAPSHOT_LOAD_FAILED").With("table", "events").Wrap(err)
	}
	state.Normalize()
	s.log.Debug("snapshot loaded", "tick", state.Ticks,
		"resources", len(state.Resources), "events", len(state.Events))
	return state, nil
}

func (s *Store) loadResources() ([]model.Resource, error) {
	rows, err := s.db.Query(`SELECT name, amount FROM resources ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Resource{}
	for rows.Next() {
		var r model.Resource
		if err := rows.Scan(&r.Name, &r.Amount); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *Store) loadEvents() ([]model.GameEvent, error) {
	outcomes, err := s.loadOutcomes()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, name, ticks_to_complete, ticks_total, is_repeating, added_on, ended_on, status
		 FROM events ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.GameEvent{}
	for rows.Next() {
		var e model.GameEvent
		var repeating int
		var endedOn sql.NullInt64
		var status string
		if err := rows.Scan(&e.ID, &e.Name, &e.TicksToComplete, &e.TicksTotal,
			&repeating, &e.AddedOn, &endedOn, &status); err != nil {
			return nil, err
		}
		e.IsRepeating = repeating != 0
		e.Status = model.Status(status)
		if endedOn.Valid {
			v := endedOn.Int64
			e.EndedOn = &v
		}
		e.Outcomes = outcomes[e.ID]
		if e.Outcomes == nil {
			e.Outcomes = []model.Outcome{}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) loadOutcomes() (map[string][]model.Outcome, error) {
	rows, err := s.db.Query(
		`SELECT event_id, resource_name, operation, amount, timing
		 FROM outcomes ORDER BY event_id ASC, idx ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byEvent := make(map[string][]model.Outcome)
	for rows.Next() {
		var id, op, timing string
		var o model.Outcome
		if err := rows.Scan(&id, &o.ResourceName, &op, &o.Amount, &timing); err != nil {
			return nil, err
		}
		o.Operation = model.Operation(op)
		o.Timing = model.Timing(timing)
		byEvent[id] = append(byEvent[id], o)
	}
	return byEvent, rows.Err()
}

// Save replaces the stored snapshot with state and records a revision.
func (s *Store) Save(state model.State) (model.Revision, error) {
	rev := model.Revision{
		ID:        newRevisionID(),
		Tick:      state.Ticks,
		Resources: len(state.Resources),
		Events:    len(state.Events),
		SavedAt:   time.Now().UTC(),
	}
	err := retryOnContention(func() error { return s.save(state, rev) })
	if err != nil {
		return model.Revision{}, oops.Code("SNAPSHOT_SAVE_FAILED").
			With("tick", state.Ticks).
			With("revision", rev.ID).
			Wrap(err)
	}
	s.log.Debug("snapshot saved", "revision", rev.ID, "tick", rev.Tick,
		"resources", rev.Resources, "events", rev.Events)
	return rev, nil
}

func (s *Store) save(state model.State, rev model.Revision) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, table := range []string{"outcomes", "events", "resources"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, r := range state.Resources {
		if _, err := tx.Exec(
			`INSERT INTO resources (name, amount, seq) VALUES (?, ?, ?)`,
			r.Name, r.Amount, i,
		); err != nil {
			return fmt.Errorf("insert resource %s: %w", r.Name, err)
		}
	}

	for i, e := range state.Events {
		var endedOn any
		if e.EndedOn != nil {
			endedOn = *e.EndedOn
		}
		if _, err := tx.Exec(
			`INSERT INTO events (id, seq, name, ticks_to_complete, ticks_total, is_repeating, added_on, ended_on, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, i, e.Name, e.TicksToComplete, e.TicksTotal, boolToInt(e.IsRepeating),
			e.AddedOn, endedOn, string(e.Status),
		); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
		for j, o := range e.Outcomes {
			if _, err := tx.Exec(
				`INSERT INTO outcomes (event_id, idx, resource_name, operation, amount, timing)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				e.ID, j, o.ResourceName, string(o.Operation), o.Amount, string(o.Timing),
			); err != nil {
				return fmt.Errorf("insert outcome %s[%d]: %w", e.ID, j, err)
			}
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('ticks', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		state.Ticks,
	); err != nil {
		return fmt.Errorf("write ticks: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO revisions (id, tick, resources, events, saved_at) VALUES (?, ?, ?, ?, ?)`,
		rev.ID, rev.Tick, rev.Resources, rev.Events, rev.SavedAt.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Clear removes the snapshot and its revision history. The next Load
// returns the default state.
func (s *Store) Clear() error {
	err := retryOnContention(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		for _, table := range []string{"outcomes", "events", "resources", "meta", "revisions"} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return oops.Code("SNAPSHOT_CLEAR_FAILED").Wrap(err)
	}
	s.log.Debug("snapshot cleared")
	return nil
}

// ---------------------------------------------------------------------------
// Revisions
// ---------------------------------------------------------------------------

// ListRevisions returns up to limit revisions, newest first.
func (s *Store) ListRevisions(limit int) ([]model.Revision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, tick, resources, events, saved_at
		 FROM revisions ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, oops.Code("REVISION_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var revs []model.Revision
	for rows.Next() {
		var r model.Revision
		var savedStr string
		if err := rows.Scan(&r.ID, &r.Tick, &r.Resources, &r.Events, &savedStr); err != nil {
			return nil, oops.Code("REVISION_LIST_FAILED").Wrap(err)
		}
		var parseErr error
		r.SavedAt, parseErr = time.Parse(time.RFC3339Nano, savedStr)
		if parseErr != nil {
			return nil, fmt.Errorf("parse saved_at for revision %s: %w", r.ID, parseErr)
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// newRevisionID returns a ULID. Monotonic entropy keeps ids from the same
// millisecond sortable in creation order.
func newRevisionID() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
