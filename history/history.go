// Package history persists finished extraction runs.
package history

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/vivaneiona/tabextract"
	"github.com/vivaneiona/tabextract/config"
)

// Entry is one row of a run.
type Entry struct {
	Index   int             `json:"index"`
	Entity  string          `json:"entity"`
	Kind    tabextract.Kind `json:"kind"`
	Payload string          `json:"payload"`
}

// Run is a finished batch.
type Run struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Template   string    `json:"template"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Entries    []Entry   `json:"entries"`
}

// Failed counts entries whose result is a failure.
func (r Run) Failed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Kind == tabextract.KindError {
			n++
		}
	}
	return n
}

// NewRun builds a run with a fresh ID from a batch's records.
func NewRun(sessionID, tpl string, startedAt time.Time, records []tabextract.Record) Run {
	entries := make([]Entry, len(records))
	for i, rec := range records {
		kind := tabextract.KindError
		if rec.Info != nil {
			kind = rec.Info.Kind()
		}
		entries[i] = Entry{Index: i, Entity: rec.Entity, Kind: kind, Payload: rec.InfoJSON()}
	}
	return Run{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Template:   tpl,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Entries:    entries,
	}
}

// Store saves and lists runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	// ListRuns returns the most recent runs first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Open returns the store selected by cfg and initializes its schema. An
// empty driver yields a store that keeps nothing.
func Open(ctx context.Context, cfg *config.HistoryConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	driver := ""
	if cfg != nil {
		driver = strings.ToLower(cfg.Driver)
	}
	switch driver {
	case "":
		return Nop{}, nil
	case config.DriverDuckDB:
		s, err = OpenDuckDB(cfg.DSN)
	case config.DriverMySQL:
		s, err = OpenMySQL(cfg.DSN)
	default:
		return nil, errors.Errorf("unknown history driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Nop discards runs.
type Nop struct{}

func (Nop) Init(context.Context) error { return nil }
func (Nop) SaveRun(context.Context, Run) error { return nil }
func (Nop) ListRuns(context.Context, int) ([]Run, error) { return nil, nil }
func (Nop) Close() error { return nil }
