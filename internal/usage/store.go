package usage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS listens (
	id          TEXT PRIMARY KEY,
	track_id    TEXT NOT NULL,
	stem_id     TEXT NOT NULL DEFAULT '',
	source_kind TEXT NOT NULL,
	seconds     REAL NOT NULL,
	at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS listens_track ON listens(track_id, stem_id);
`

// Store is a local SQLite listen log.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the listen database at path.
// ":memory:" opens a private in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open listen store: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply listen schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Report records l.
func (s *Store) Report(ctx context.Context, l Listen) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO listens (id, track_id, stem_id, source_kind, seconds, at) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.TrackID, l.StemID, string(l.SourceKind), l.DurationPlayedSeconds, l.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("record listen: %w", err)
	}
	return nil
}

// Total aggregates listens of one track or stem.
type Total struct {
	TrackID    string        `json:"track_id"`
	StemID     string        `json:"stem_id,omitempty"`
	Listens    int           `json:"listens"`
	Played     time.Duration `json:"played"`
	LastPlayed time.Time     `json:"last_played"`
}

// Totals returns per track/stem aggregates, most recently played first.
func (s *Store) Totals(ctx context.Context) ([]Total, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, stem_id, COUNT(*), SUM(seconds), MAX(at)
		FROM listens
		GROUP BY track_id, stem_id
		ORDER BY MAX(at) DESC, track_id, stem_id`)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	var out []Total
	for rows.Next() {
		var (
			t       Total
			seconds float64
			last    int64
		)
		if err := rows.Scan(&t.TrackID, &t.StemID, &t.Listens, &seconds, &last); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		t.Played = time.Duration(seconds * float64(time.Second))
		t.LastPlayed = time.UnixMilli(last)
		out = append(out, t)
	}
	return out, rows.Err()
}
