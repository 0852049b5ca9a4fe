package history

import (
	"context"
	"database/sql"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vivaneiona/tabextract"
)

var duckDBSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          VARCHAR PRIMARY KEY,
		session_id  VARCHAR,
		template    VARCHAR,
		started_at  TIMESTAMP,
		finished_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS run_entries (
		run_id  VARCHAR,
		idx     INTEGER,
		entity  VARCHAR,
		kind    VARCHAR,
		payload VARCHAR
	)`,
}

// DuckDBStore keeps runs in a DuckDB file. An empty path opens an
// in-memory database.
type DuckDBStore struct {
	db *sql.DB
}

func OpenDuckDB(path string) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(err, "open duckdb")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping duckdb")
	}
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)
	zap.S().Debugf("duckdb history opened at %q", path)
	return &DuckDBStore{db: db}, nil
}

func (s *DuckDBStore) Init(ctx context.Context) error {
	for _, stmt := range duckDBSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "create history tables")
		}
	}
	return nil
}

func (s *DuckDBStore) SaveRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, session_id, template, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, run.Template, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	); err != nil {
		return errors.Wrapf(err, "insert run %s", run.ID)
	}
	for _, e := range run.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_entries (run_id, idx, entity, kind, payload) VALUES (?, ?, ?, ?, ?)`,
			run.ID, e.Index, e.Entity, string(e.Kind), e.Payload,
		); err != nil {
			return errors.Wrapf(err, "insert entry %d of run %s", e.Index, run.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (s *DuckDBStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, session_id, template, started_at, finished_at FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	var runs []Run
	for rows.Next() {
		var r Run
		var sessionID, tpl sql.NullString
		if err := rows.Scan(&r.ID, &sessionID, &tpl, &r.StartedAt, &r.FinishedAt); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan run")
		}
		r.SessionID, r.Template = sessionID.String, tpl.String
		runs = append(runs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}

	for i := range runs {
		entries, err := s.entries(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Entries = entries
	}
	return runs, nil
}

func (s *DuckDBStore) entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, entity, kind, payload FROM run_entries WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "query entries of run %s", runID)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Index, &e.Entity, &kind, &e.Payload); err != nil {
			return nil, errors.Wrap(err, "scan entry")
		}
		e.Kind = tabextract.Kind(kind)
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "iterate entries")
}

func (s *DuckDBStore) Close() error { return s.db.Close() }
