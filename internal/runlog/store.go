// Package runlog records every executor invocation in a SQLite database so
// long evaluations can be audited after the fact.
package runlog

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ScorpioDoctor/vot-toolkit/internal/experiment"
)

// TrialRecord is one stored executor invocation.
type TrialRecord struct {
	ID              int64
	Tracker         string
	Sequence        string
	Repetition      int
	StartFrame      int
	FramesRequested int
	FramesProduced  int
	ExitStatus      int
	MeanTime        float64
	ScratchDir      string
	RecordedAt      time.Time
}

// Store is a SQLite-backed trial log.
type Store struct {
	db *sql.DB
}

// Open opens the trial log at path, creating it if needed, and applies any
// pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate run log: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordTrial appends one trial to the log. A zero RecordedAt is stamped
// with the current time.
func (s *Store) RecordTrial(rec TrialRecord) error {
	when := rec.RecordedAt
	if when.IsZero() {
		when = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO trials (
			tracker, sequence, repetition, start_frame,
			frames_requested, frames_produced, exit_status,
			mean_seconds, scratch_dir, recorded_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Tracker,
		rec.Sequence,
		rec.Repetition,
		rec.StartFrame,
		rec.FramesRequested,
		rec.FramesProduced,
		rec.ExitStatus,
		nanAsNull(rec.MeanTime),
		rec.ScratchDir,
		when.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert trial: %w", err)
	}
	return nil
}

// Trials returns the logged trials of a tracker/sequence pair in insertion
// order.
func (s *Store) Trials(tracker, sequence string) ([]TrialRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, tracker, sequence, repetition, start_frame,
			frames_requested, frames_produced, exit_status,
			mean_seconds, scratch_dir, recorded_at_ns
		FROM trials
		WHERE tracker = ? AND sequence = ?
		ORDER BY id
	`, tracker, sequence)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var out []TrialRecord
	for rows.Next() {
		var rec TrialRecord
		var mean sql.NullFloat64
		var ns int64
		if err := rows.Scan(
			&rec.ID, &rec.Tracker, &rec.Sequence, &rec.Repetition,
			&rec.StartFrame, &rec.FramesRequested, &rec.FramesProduced,
			&rec.ExitStatus, &mean, &rec.ScratchDir, &ns,
		); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		rec.MeanTime = math.NaN()
		if mean.Valid {
			rec.MeanTime = mean.Float64
		}
		rec.RecordedAt = time.Unix(0, ns)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trials: %w", err)
	}
	return out, nil
}

// nanAsNull maps NaN to NULL since SQLite has no NaN representation.
func nanAsNull(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// TrialWriter adapts a Store to experiment.TrialSink, stamping every record
// with a fixed repetition number.
type TrialWriter struct {
	Store      *Store
	Repetition int
}

// TrialFinished records one completed trial.
func (w TrialWriter) TrialFinished(t experiment.Trial) error {
	return w.Store.RecordTrial(TrialRecord{
		Tracker:         t.Tracker,
		Sequence:        t.Sequence,
		Repetition:      w.Repetition,
		StartFrame:      t.StartFrame,
		FramesRequested: t.FramesRequested,
		FramesProduced:  t.FramesProduced,
		ExitStatus:      t.ExitStatus,
		MeanTime:        t.MeanTime,
		ScratchDir:      t.ScratchDir,
	})
}
