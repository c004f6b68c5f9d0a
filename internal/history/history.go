// Package history keeps an index of finished runs in SQLite or PostgreSQL.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/summary"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

const pingTimeout = 5 * time.Second

// recordedLayout sorts lexically in time order.
const recordedLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	duration_seconds DOUBLE PRECISION NOT NULL,
	exit_code INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	dashboard TEXT NOT NULL,
	summary TEXT NOT NULL,
	recorded_at TEXT NOT NULL
)`

// Run is one indexed run.
type Run struct {
	RunID           string  `json:"run_id"`
	StartedAt       string  `json:"started_at"`
	FinishedAt      string  `json:"finished_at"`
	DurationSeconds float64 `json:"duration_seconds"`
	ExitCode        int     `json:"exit_code"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	Dashboard       string  `json:"dashboard"`
}

// Store is an open history database.
type Store struct {
	db     *sql.DB
	driver string
}

// ErrDisabled is returned by Open when no driver is configured.
var ErrDisabled = errors.New("history is disabled")

// Open connects to the configured database and creates the schema.
// A relative SQLite path is resolved against the work directory.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	h := cfg.History
	if h.Driver == "" {
		return nil, ErrDisabled
	}
	dsn := h.DSN
	switch h.Driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = config.DefaultHistoryDSN
		}
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if !filepath.IsAbs(dsn) {
				dsn = filepath.Join(cfg.WorkDir(), dsn)
			}
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("creating history dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported history driver %q", h.Driver)
	}
	return OpenDSN(ctx, h.Driver, dsn)
}

// OpenDSN opens a history store for an explicit driver and DSN.
func OpenDSN(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one finished run. Recording the same run twice replaces it.
func (s *Store) Record(ctx context.Context, sum summary.RunSummary, dashboard string) error {
	body, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	ok, failed, skipped := sum.Counts()

	q := `INSERT INTO runs (run_id, started_at, finished_at, duration_seconds, exit_code,
		succeeded, failed, skipped, dashboard, summary, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = excluded.finished_at,
			duration_seconds = excluded.duration_seconds,
			exit_code = excluded.exit_code,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			skipped = excluded.skipped,
			dashboard = excluded.dashboard,
			summary = excluded.summary,
			recorded_at = excluded.recorded_at`
	_, err = s.db.ExecContext(ctx, s.rebind(q),
		sum.RunID, sum.StartedAt, sum.FinishedAt, sum.DurationSeconds, sum.ExitCode(),
		ok, failed, skipped, dashboard, string(body), time.Now().UTC().Format(recordedLayout))
	if err != nil {
		return fmt.Errorf("recording run %s: %w", sum.RunID, err)
	}
	return nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT run_id, started_at, finished_at, duration_seconds,
		exit_code, succeeded, failed, skipped, dashboard
		FROM runs ORDER BY recorded_at DESC, run_id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.DurationSeconds,
			&r.ExitCode, &r.Succeeded, &r.Failed, &r.Skipped, &r.Dashboard); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary loads the stored summary of one run. It returns sql.ErrNoRows for
// an unknown run.
func (s *Store) Summary(ctx context.Context, runID string) (summary.RunSummary, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT summary FROM runs WHERE run_id = ?`), runID).Scan(&body)
	if err != nil {
		return summary.RunSummary{}, err
	}
	var sum summary.RunSummary
	if err := json.Unmarshal([]byte(body), &sum); err != nil {
		return summary.RunSummary{}, fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return sum, nil
}

// rebind converts ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
