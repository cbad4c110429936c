/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	// Postgres through database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"

	applog "subkit/internal/log"
	"subkit/internal/version"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	HistoryFileName = "history.sqlite"
	LockFileName    = "history.lock"

	// schemaVersion tracks the history schema. Bump it together with a
	// migration step in runMigrations.
	schemaVersion = 2
)

// ErrLocked is returned by Open when another process holds the history directory.
var ErrLocked = errors.New("history locked by another process")

// Options selects the backing database.
type Options struct {
	// Driver is DriverSQLite (default) or DriverPostgres.
	Driver string
	// DSN is required for Postgres. For SQLite it overrides the file under Dir.
	DSN string
	// Dir holds the SQLite file and its lock file.
	Dir string
}

// History is an open snapshot store. It is safe for concurrent use.
type History struct {
	db     *sql.DB
	driver string
	lock   *flock.Flock
}

// HistoryPath returns the SQLite file used for dir.
func HistoryPath(dir string) string { return filepath.Join(dir, HistoryFileName) }

// Open connects to the history database, creating and migrating the schema
// as needed. The SQLite backend holds an exclusive lock on Dir until Close.
func Open(ctx context.Context, opts Options) (*History, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = DriverSQLite
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "history_open").With(slog.String("driver", driver))
	var (
		h   *History
		err error
	)
	switch driver {
	case DriverSQLite:
		h, err = openSQLite(ctx, opts)
	case DriverPostgres, "pgx":
		h, err = openPostgres(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown history driver %q", opts.Driver)
	}
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, err
	}
	if err := h.ensureMetaAndVersion(ctx); err != nil {
		_ = h.Close()
		return nil, err
	}
	if err := h.ensureSchema(ctx); err != nil {
		_ = h.Close()
		return nil, err
	}
	if err := h.runMigrations(ctx); err != nil {
		_ = h.Close()
		return nil, err
	}
	l.Debug("history ready")
	return h, nil
}

func openSQLite(ctx context.Context, opts Options) (*History, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("history dir is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	lock := flock.New(filepath.Join(opts.Dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire history lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	dsn := opts.DSN
	if dsn == "" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(HistoryPath(opts.Dir)))
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return &History{db: db, driver: DriverSQLite, lock: lock}, nil
}

func openPostgres(ctx context.Context, opts Options) (*History, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, errors.New("postgres history needs a DSN")
	}
	db, err := sql.Open("pgx", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &History{db: db, driver: DriverPostgres}, nil
}

// Driver reports the backend in use.
func (h *History) Driver() string { return h.driver }

// Close releases the database and the directory lock.
func (h *History) Close() error {
	err := h.db.Close()
	if h.lock != nil {
		if uerr := h.lock.Unlock(); err == nil {
			err = uerr
		}
	}
	return err
}

// rebind turns ? placeholders into $n for Postgres.
func (h *History) rebind(q string) string {
	if h.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (h *History) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return h.db.ExecContext(ctx, h.rebind(q), args...)
}

func (h *History) ensureMetaAndVersion(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := h.exec(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := h.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := h.exec(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := h.exec(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func (h *History) ensureSchema(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if h.driver == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id       ` + id + `,
			session  TEXT NOT NULL,
			document TEXT NOT NULL,
			format   TEXT NOT NULL,
			ts       TEXT NOT NULL,
			text     TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_document_ts ON snapshots(document, ts);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_session ON snapshots(session);`,
	}
	for _, q := range ddl {
		if _, err := h.exec(ctx, q); err != nil {
			return fmt.Errorf("create history schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func (h *History) runMigrations(ctx context.Context) error {
	var cur int
	if err := h.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_snapshots_session ON snapshots(session);`}
		}
		tx, err := h.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, h.rebind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reads the stored schema version.
func (h *History) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := h.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}
