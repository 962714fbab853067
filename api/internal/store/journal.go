package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "modernc.org/sqlite"             // sqlite driver
)

const (
	KindAnalysis = "analysis"
	KindPoster   = "poster"

	StatusOK    = "ok"
	StatusError = "error"
)

// Run is one pipeline execution as written to the journal.
type Run struct {
	ID        string
	Kind      string
	Status    string
	ErrorKind string
	LLM       string
	Latency   time.Duration
	CreatedAt time.Time
}

// Recorder is what the pipelines need from the journal.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Journal is an append-only log of pipeline runs. The serving path only
// writes to it.
type Journal struct {
	DB     *sql.DB
	driver string
}

// Open connects with driver "postgres" (pgx) or "sqlite" and creates the
// runs table if needed.
func Open(ctx context.Context, driver, dsn string) (*Journal, error) {
	var sqlDriver string
	switch driver {
	case "postgres", "pgx", "":
		driver, sqlDriver = "postgres", "pgx"
	case "sqlite":
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}

	j := &Journal{DB: db, driver: driver}
	if err := j.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return j, nil
}

func (j *Journal) Close() error { return j.DB.Close() }

func (j *Journal) migrate(ctx context.Context) error {
	const q = `create table if not exists pipeline_runs (
  id          text primary key,
  kind        text not null,
  status      text not null,
  error_kind  text not null default '',
  llm         text not null default '',
  latency_ms  bigint not null,
  created_at  timestamp not null
)`
	_, err := j.DB.ExecContext(ctx, q)
	return err
}

// rebind turns ? placeholders into $n for postgres.
func (j *Journal) rebind(q string) string {
	if j.driver != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (j *Journal) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	q := j.rebind(`insert into pipeline_runs (id, kind, status, error_kind, llm, latency_ms, created_at)
values (?, ?, ?, ?, ?, ?, ?)`)
	_, err := j.DB.ExecContext(ctx, q,
		run.ID, run.Kind, run.Status, run.ErrorKind, run.LLM, run.Latency.Milliseconds(), run.CreatedAt,
	)
	return err
}

// Recent returns the newest runs first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := j.rebind(`select id, kind, status, error_kind, llm, latency_ms, created_at
from pipeline_runs order by created_at desc limit ?`)
	rows, err := j.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r  Run
			ms int64
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.Status, &r.ErrorKind, &r.LLM, &ms, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Latency = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// PurgeOlderThan deletes runs older than the given age.
func (j *Journal) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := j.DB.ExecContext(ctx, j.rebind(`delete from pipeline_runs where created_at < ?`), cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
