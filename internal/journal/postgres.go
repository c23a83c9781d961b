// Package journal implements the audit-only Postgres log described in
// SPEC_FULL.md §4.8: every accepted state transition is appended as a
// row, keyed by a fingerprint so a duplicate callback (the documented
// retry-engine race window, spec.md §4.5/§9) never produces two rows. The
// journal is never read back to reconstruct coordinator state — doing so
// would contradict spec.md §1's "no persistence of task state across
// restarts" non-goal. It exists purely for operator audit queries.
//
// Grounded on the teacher's internal/repo/postgres.go: same
// sql.Open("pgx", dsn) + PingContext + ensureSchema startup sequence, env
// var naming convention (POSTGRES_HOST/PORT/DB/USER/PASSWORD/SSLMODE), and
// ON CONFLICT DO NOTHING idempotent-insert pattern.
package journal

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tinoosan/torrusd/internal/fp"
)

// Entry is one audit row: a state transition the Notification Sink
// accepted.
type Entry struct {
	Kind    string
	ID      string
	Event   string // e.g. "available", "downloaded", "installed", "retry_exhausted"
	Version string
	Detail  string
	At      time.Time
}

// Journal appends Entry rows to Postgres.
type Journal struct {
	db *sql.DB
}

// Open constructs a Journal using the provided DSN, verifying
// connectivity and ensuring the schema exists.
func Open(dsn string) (*Journal, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	j := &Journal{db: db}
	if err := j.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// OpenFromEnv builds a DSN from POSTGRES_HOST/PORT/DB/USER/PASSWORD/SSLMODE
// (same envs and defaults as the teacher's NewPostgresRepoFromEnv) and
// opens a Journal with it.
func OpenFromEnv() (*Journal, error) {
	host := getenv("POSTGRES_HOST", "postgres")
	port := getenv("POSTGRES_PORT", "5432")
	db := getenv("POSTGRES_DB", "torrus_updates")
	user := getenv("POSTGRES_USER", "torrus")
	pass := getenv("POSTGRES_PASSWORD", "")
	ssl := getenv("POSTGRES_SSLMODE", "disable")

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, pass),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + db,
	}
	q := url.Values{}
	q.Set("sslmode", ssl)
	u.RawQuery = q.Encode()
	return Open(u.String())
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) ensureSchema(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS update_events (
    fingerprint TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    id TEXT NOT NULL DEFAULT '',
    event TEXT NOT NULL,
    version TEXT NOT NULL DEFAULT '',
    detail TEXT NOT NULL DEFAULT '',
    at TIMESTAMPTZ NOT NULL
);
`)
	return err
}

// Append writes e, deduplicating on a fingerprint over
// (kind, id, event, version, at-truncated-to-the-second) so a notification
// delivered twice for the same transition in the same second lands once.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	key := fp.Fingerprint(e.Kind, e.ID, e.Event, e.Version, e.At.Truncate(time.Second).String())
	_, err := j.db.ExecContext(ctx, `
INSERT INTO update_events (fingerprint, kind, id, event, version, detail, at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (fingerprint) DO NOTHING
`, key, e.Kind, e.ID, e.Event, e.Version, e.Detail, e.At)
	return err
}

// Recent returns the most recent n rows, newest first, for the operator
// audit surface. It has no caller inside the coordinator itself.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT kind, id, event, version, detail, at FROM update_events ORDER BY at DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Kind, &e.ID, &e.Event, &e.Version, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
