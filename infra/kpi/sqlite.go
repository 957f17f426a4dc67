// Package kpi persists participant KPIs in SQLite.
package kpi

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	core "github.com/macmarek/scheduling-assistant/core/metrics/kpi"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS participant_kpi (
        participant_id TEXT,
        day INTEGER,
        meetings INTEGER,
        meeting_minutes INTEGER,
        discomfort_slots INTEGER,
        PRIMARY KEY(participant_id, day)
    );
    CREATE TABLE IF NOT EXISTS kpi_runs (
        run_id TEXT PRIMARY KEY
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// AddRun inserts or accumulates the records of one run in a transaction.
func (s *SQLiteStore) AddRun(runID string, recs []core.Record) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT OR IGNORE INTO kpi_runs (run_id) VALUES (?)`, runID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}
	for _, r := range recs {
		_, err := tx.Exec(`INSERT INTO participant_kpi (participant_id, day, meetings, meeting_minutes, discomfort_slots)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(participant_id, day) DO UPDATE SET
            meetings = meetings + excluded.meetings,
            meeting_minutes = meeting_minutes + excluded.meeting_minutes,
            discomfort_slots = discomfort_slots + excluded.discomfort_slots`,
			r.ParticipantID, core.Day(r.Date).Unix(), r.Meetings, r.MeetingMinutes, r.DiscomfortSlots)
		if err != nil {
			return false, fmt.Errorf("kpi %s: %w", r.ParticipantID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(participantID string, start, end time.Time) ([]core.Record, error) {
	rows, err := s.db.Query(`SELECT participant_id, day, meetings, meeting_minutes, discomfort_slots
        FROM participant_kpi WHERE (? = '' OR participant_id = ?) AND day >= ? AND day <= ?
        ORDER BY day, participant_id`,
		participantID, participantID, core.Day(start).Unix(), core.Day(end).Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var r core.Record
		var ts int64
		if err := rows.Scan(&r.ParticipantID, &ts, &r.Meetings, &r.MeetingMinutes, &r.DiscomfortSlots); err != nil {
			return nil, err
		}
		r.Date = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
