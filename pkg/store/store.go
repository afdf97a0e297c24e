// Package store indexes validated event logs into a CGO-free SQLite
// database so sessions can be inspected with plain SQL: per-type counts,
// duration, and down/up pairing balance.
package store

import (
	"database/sql"
	"fmt"

	"github.com/offlinefirst/inputfixture/pkg/event"
	_ "modernc.org/sqlite" // CGO-free SQLite
)

// Store wraps the analysis database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. WAL and a busy timeout
// avoid "database is locked" when analysis runs back to back.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open analysis database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions(
	  id             INTEGER PRIMARY KEY,
	  source         TEXT    NOT NULL,
	  schema_version TEXT    NOT NULL,
	  epoch_wall     TEXT    NOT NULL,
	  capture_width  INTEGER NOT NULL,
	  capture_height INTEGER NOT NULL,
	  sample_rate_hz INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events(
	  id      INTEGER PRIMARY KEY,
	  session INTEGER NOT NULL REFERENCES sessions(id),
	  t_ns    INTEGER NOT NULL,
	  type    TEXT    NOT NULL CHECK (type IN ('pointer','click','key')),
	  button  TEXT,
	  code    TEXT,
	  state   TEXT,
	  x       REAL,
	  y       REAL
	);
	CREATE INDEX IF NOT EXISTS idx_events_session_t ON events(session, t_ns);
	CREATE INDEX IF NOT EXISTS idx_events_type      ON events(session, type);
	`)
	if err != nil {
		return fmt.Errorf("create analysis tables: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ImportSession inserts a header and its events in one transaction and
// returns the session row id. Source labels where the log came from.
func (s *Store) ImportSession(source string, hdr event.Header, events []event.Event) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import transaction: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO sessions(source, schema_version, epoch_wall, capture_width, capture_height, sample_rate_hz) VALUES(?,?,?,?,?,?)`,
		source, hdr.SchemaVersion, hdr.EpochWall, hdr.CaptureWidth, hdr.CaptureHeight, hdr.PointerSampleRateHz,
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert session: %w", err)
	}
	sessionID, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("resolve session id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO events(session, t_ns, type, button, code, state, x, y) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		var button, code, state any
		var x, y any
		switch ev.Type {
		case event.TypePointer:
			x, y = ev.X, ev.Y
		case event.TypeClick:
			button, state = ev.Button, ev.State
			x, y = ev.X, ev.Y
		case event.TypeKey:
			code, state = ev.Code, ev.State
		default:
			_ = tx.Rollback()
			return 0, fmt.Errorf("import event: unknown type %q", ev.Type)
		}
		if _, err := stmt.Exec(sessionID, ev.T, ev.Type, button, code, state, x, y); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import transaction: %w", err)
	}
	return sessionID, nil
}

// Summary aggregates one imported session.
type Summary struct {
	EventCount      int
	TypeCounts      map[string]int
	DurationNs      int64
	UnmatchedClicks int
	UnmatchedKeys   int
}

// Summarize computes counts, duration, and pairing balance for a session.
func (s *Store) Summarize(sessionID int64) (Summary, error) {
	summary := Summary{TypeCounts: make(map[string]int)}

	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM events WHERE session = ? GROUP BY type`, sessionID)
	if err != nil {
		return summary, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return summary, fmt.Errorf("scan event counts: %w", err)
		}
		summary.TypeCounts[kind] = count
		summary.EventCount += count
	}
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("iterate event counts: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COALESCE(MAX(t_ns) - MIN(t_ns), 0) FROM events WHERE session = ?`, sessionID,
	).Scan(&summary.DurationNs)
	if err != nil {
		return summary, fmt.Errorf("measure duration: %w", err)
	}

	summary.UnmatchedClicks, err = s.unmatched(sessionID, event.TypeClick, "button")
	if err != nil {
		return summary, err
	}
	summary.UnmatchedKeys, err = s.unmatched(sessionID, event.TypeKey, "code")
	if err != nil {
		return summary, err
	}

	return summary, nil
}

// unmatched sums the absolute down/up imbalance per button or key code.
func (s *Store) unmatched(sessionID int64, kind, identColumn string) (int, error) {
	query := fmt.Sprintf(
		`SELECT COALESCE(SUM(ABS(balance)), 0) FROM (
		   SELECT SUM(CASE state WHEN 'down' THEN 1 ELSE -1 END) AS balance
		   FROM events WHERE session = ? AND type = ? GROUP BY %s
		 )`, identColumn)

	var total int
	if err := s.db.QueryRow(query, sessionID, kind).Scan(&total); err != nil {
		return 0, fmt.Errorf("measure %s pairing: %w", kind, err)
	}
	return total, nil
}
