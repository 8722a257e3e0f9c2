package database

import (
	"context"
	"database/sql"
	"time"
)

// OutcomeRunning marks a run that has not finished.
const OutcomeRunning = "running"

// BeginRun inserts a run row.
func (d *Database) BeginRun(ctx context.Context, id, host string, startedAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		"INSERT INTO runs (id, host, started_at, outcome) VALUES (?, ?, ?, ?)",
		id, host, startedAt.Unix(), OutcomeRunning,
	)
	return err
}

// RecordFile inserts one file outcome.
func (d *Database) RecordFile(ctx context.Context, o FileOutcome) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO file_outcomes (run_id, profile, source_path, destination, size, status, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, o.RunID, o.Profile, o.SourcePath, o.Destination, o.Size, o.Status, o.Error, o.Duration.Milliseconds())
	return err
}

// FinishRun stores the outcome and totals of a run.
func (d *Database) FinishRun(ctx context.Context, id string, endedAt time.Time, outcome string, processed, bytes, failed int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		UPDATE runs
		SET ended_at = ?, outcome = ?, files_processed = ?, bytes_processed = ?, files_failed = ?
		WHERE id = ?
	`, endedAt.Unix(), outcome, processed, bytes, failed, id)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (d *Database) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, host, started_at, ended_at, outcome, files_processed, bytes_processed, files_failed
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Host, &started, &ended, &r.Outcome,
			&r.FilesProcessed, &r.BytesProcessed, &r.FilesFailed); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0)
		if ended.Valid {
			r.EndedAt = time.Unix(ended.Int64, 0)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FailedPaths lists source files that failed at least minFailures times
// and never succeeded, most failures first.
func (d *Database) FailedPaths(ctx context.Context, minFailures int) ([]FailedPath, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT f.source_path, COUNT(*) AS failures, MAX(f.created_at) AS last_seen,
			(SELECT error FROM file_outcomes e
			 WHERE e.source_path = f.source_path AND e.status = 'error'
			 ORDER BY e.id DESC LIMIT 1) AS last_error
		FROM file_outcomes f
		WHERE f.status = 'error'
		  AND NOT EXISTS (
			SELECT 1 FROM file_outcomes s
			WHERE s.source_path = f.source_path AND s.status = 'success'
		  )
		GROUP BY f.source_path
		HAVING COUNT(*) >= ?
		ORDER BY failures DESC, f.source_path
	`, minFailures)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []FailedPath
	for rows.Next() {
		var (
			p        FailedPath
			lastSeen int64
		)
		if err := rows.Scan(&p.SourcePath, &p.Failures, &lastSeen, &p.LastError); err != nil {
			return nil, err
		}
		p.LastSeen = time.Unix(lastSeen, 0)
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
