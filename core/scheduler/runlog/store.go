// Package runlog persists one record per scheduling run and answers simple
// queries over them.
package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/macmarek/scheduling-assistant/core/decoder"
	"github.com/macmarek/scheduling-assistant/core/model"
)

// Record captures one scheduling run and its result.
type Record struct {
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	Outcome   model.Outcome `json:"outcome"`
	// Status is the solver verdict when the solver ran.
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
	// UnsatisfiableMeeting names the meeting without candidates.
	UnsatisfiableMeeting string            `json:"unsatisfiable_meeting,omitempty"`
	Meetings             []string          `json:"meetings"`
	Participants         int               `json:"participants"`
	Objective            int               `json:"objective"`
	DurationMS           int64             `json:"duration_ms"`
	Schedule             *decoder.Schedule `json:"schedule,omitempty"`
}

// Query defines filters for retrieving records. Zero values match anything.
type Query struct {
	Start     time.Time
	End       time.Time
	Outcome   model.Outcome
	MeetingID string
	// Limit keeps only the most recent records when positive.
	Limit int
}

// Match reports whether r satisfies the filters of q, ignoring Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if q.MeetingID != "" {
		for _, id := range r.Meetings {
			if id == q.MeetingID {
				return true
			}
		}
		return false
	}
	return true
}

func (q Query) limit(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists Records and supports querying. Records come back in
// insertion order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and configures the store backend.
type Config struct {
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB enables rotation of the jsonl backend when positive.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "runs.jsonl"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown run_log backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("run_log path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("run_log rotation settings must not be negative")
	}
	return nil
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "jsonl", "":
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown run_log backend %s", cfg.Backend)
	}
}
