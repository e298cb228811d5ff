// Package store keeps a history of verification runs in sqlite so that a
// puzzle's verdicts can be compared across catalog revisions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/domino14/matecheck/batch"
	"github.com/domino14/matecheck/puzzles"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	strict     INTEGER NOT NULL,
	total      INTEGER NOT NULL,
	passed     INTEGER NOT NULL,
	elapsed_us INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS verdicts (
	run_id        INTEGER NOT NULL REFERENCES runs(id),
	puzzle_id     TEXT NOT NULL,
	bucket        TEXT NOT NULL,
	ok            INTEGER NOT NULL,
	kind          TEXT NOT NULL,
	reason        TEXT NOT NULL,
	failed_at_ply INTEGER,
	move          TEXT NOT NULL,
	position      TEXT NOT NULL,
	duration_us   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS verdicts_puzzle ON verdicts(puzzle_id);
`

// Store is a handle on the history database.
type Store struct {
	db *sql.DB
}

// HistoryEntry is one puzzle's verdict in a past run.
type HistoryEntry struct {
	RunID   int64
	At      time.Time
	Strict  bool
	Bucket  puzzles.Bucket
	Verdict puzzles.Verdict
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// SaveReport records a run and all of its verdicts, returning the run id.
// Another process holding the database lock makes it retry a few times.
func (s *Store) SaveReport(ctx context.Context, rep *batch.Report, strict bool) (int64, error) {
	var runID int64
	err := retry.Do(
		func() error {
			var err error
			runID, err = s.saveReport(ctx, rep, strict)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(50*time.Millisecond),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n).Msg("history database busy, retrying")
		}),
	)
	return runID, err
}

func (s *Store) saveReport(ctx context.Context, rep *batch.Report, strict bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, strict, total, passed, elapsed_us) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), strict, len(rep.Results), rep.Passed(),
		rep.Elapsed.Microseconds())
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO verdicts
		(run_id, puzzle_id, bucket, ok, kind, reason, failed_at_ply, move, position, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range rep.Results {
		var ply sql.NullInt64
		if p, ok := r.Verdict.Ply(); ok {
			ply = sql.NullInt64{Int64: int64(p), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, runID, r.ID, r.Bucket.String(), r.Verdict.OK,
			r.Verdict.Kind.String(), r.Verdict.Reason, ply, r.Verdict.Move, r.Verdict.Position,
			r.Duration.Microseconds())
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Debug().Int64("run", runID).Int("verdicts", len(rep.Results)).Msg("saved run")
	return runID, nil
}

// PuzzleHistory returns every recorded verdict for a puzzle, newest first.
func (s *Store) PuzzleHistory(ctx context.Context, puzzleID string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.strict, v.bucket, v.ok, v.kind, v.reason,
		       v.failed_at_ply, v.move, v.position
		FROM verdicts v JOIN runs r ON r.id = v.run_id
		WHERE v.puzzle_id = ?
		ORDER BY r.id DESC`, puzzleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e       HistoryEntry
			at      string
			bucket  string
			kind    string
			ply     sql.NullInt64
			verdict puzzles.Verdict
		)
		if err := rows.Scan(&e.RunID, &at, &e.Strict, &bucket, &verdict.OK, &kind,
			&verdict.Reason, &ply, &verdict.Move, &verdict.Position); err != nil {
			return nil, err
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("run %d: bad timestamp: %w", e.RunID, err)
		}
		if e.Bucket, err = puzzles.ParseBucket(bucket); err != nil {
			return nil, err
		}
		if verdict.Kind, err = parseKind(kind); err != nil {
			return nil, err
		}
		if ply.Valid {
			p := int(ply.Int64)
			verdict.FailedAtPly = &p
		}
		e.Verdict = verdict
		out = append(out, e)
	}
	return out, rows.Err()
}

var errUnknownKind = errors.New("unknown failure kind")

func parseKind(s string) (puzzles.FailureKind, error) {
	for k := puzzles.None; k <= puzzles.TimedOut; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w %q", errUnknownKind, s)
}
