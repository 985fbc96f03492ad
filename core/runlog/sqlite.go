package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists run records to a SQLite database. Assignments are
// also indexed per applicant so that history queries filter in SQL.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS match_runs (
    run_id TEXT PRIMARY KEY,
    ts INTEGER NOT NULL,
    grade TEXT,
    converged TEXT,
    record TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_applicants (
    run_id TEXT NOT NULL REFERENCES match_runs(run_id),
    applicant_id INTEGER NOT NULL,
    facility TEXT
);
CREATE INDEX IF NOT EXISTS run_applicants_applicant ON run_applicants(applicant_id);
CREATE INDEX IF NOT EXISTS run_applicants_facility ON run_applicants(facility);
`

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record and its applicant index in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, rec RunRecord) (err error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO match_runs (run_id, ts, grade, converged, record) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Timestamp.UnixNano(), rec.Grade, string(rec.Converged), string(b)); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_applicants (run_id, applicant_id, facility) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, a := range rec.Assignments {
		if _, err = stmt.ExecContext(ctx, rec.RunID, a.ApplicantID, a.Facility); err != nil {
			return err
		}
	}
	for _, id := range rec.Unmatched {
		if _, err = stmt.ExecContext(ctx, rec.RunID, id, nil); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Query returns records matching q ordered by time.
func (s *SQLiteStore) Query(ctx context.Context, q RunQuery) ([]RunRecord, error) {
	var args []any
	query := `SELECT record FROM match_runs r WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND r.ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND r.ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.ApplicantID != 0 || q.Facility != "" {
		query += ` AND EXISTS (SELECT 1 FROM run_applicants a WHERE a.run_id = r.run_id`
		if q.ApplicantID != 0 {
			query += ` AND a.applicant_id = ?`
			args = append(args, q.ApplicantID)
		}
		if q.Facility != "" {
			query += ` AND a.facility = ?`
			args = append(args, q.Facility)
		}
		query += `)`
	}
	query += ` ORDER BY r.ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []RunRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r RunRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
