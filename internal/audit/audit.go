// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package audit keeps the local history of commands run by clawmacdo in a
// single audit_log table. SQLite is the default; PostgreSQL and MySQL are
// supported for teams sharing one history.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/clawmacdo/clawmacdo/internal/logging"
)

// Actions recorded by the CLI.
const (
	ActionDeploy  = "DEPLOY"
	ActionMigrate = "MIGRATE"
	ActionDestroy = "DESTROY"
	ActionBackup  = "BACKUP"
	ActionRestore = "RESTORE"
)

// Entry is one history line.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Username  string
	Action    string
	Details   string
}

type entryModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Timestamp     time.Time `bun:"timestamp,notnull"`
	Username      string    `bun:"username,notnull"`
	Action        string    `bun:"action,notnull"`
	Details       string    `bun:"details"`
}

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Store appends to and reads the audit log.
type Store struct {
	db   *bun.DB
	now  func() time.Time
	user func() string
}

// Open connects to dbType ("sqlite", "postgres" or "mysql") and creates the
// audit_log table when it does not exist.
func Open(ctx context.Context, dbType, dsn string) (*Store, error) {
	driverName, err := driverFor(dbType)
	if err != nil {
		return nil, err
	}
	if dbType == "mysql" {
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbType == "sqlite" {
		// One connection keeps in-memory databases visible and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	}

	bdb := bun.NewDB(sqlDB, dialectFor(dbType))
	if _, err := bdb.NewCreateTable().Model((*entryModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("failed to create audit_log: %w", err)
	}
	logging.Debugf("audit: opened %s history", dbType)
	return &Store{db: bdb, now: time.Now, user: currentUser}, nil
}

func driverFor(dbType string) (string, error) {
	switch dbType {
	case "sqlite", "mysql":
		return dbType, nil
	case "postgres":
		// The pgx stdlib registers driver name "pgx".
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database type: '%s'", dbType)
	}
}

func dialectFor(dbType string) schema.Dialect {
	switch dbType {
	case "postgres":
		return pgdialect.New()
	case "mysql":
		return mysqldialect.New()
	default:
		return sqlitedialect.New()
	}
}

// mysqlDSN makes DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	if parts := strings.Split(u.Username, `\`); len(parts) > 1 {
		return parts[1]
	}
	return u.Username
}

// Log appends an entry for the current OS user.
func (s *Store) Log(ctx context.Context, action, details string) error {
	m := &entryModel{
		Timestamp: s.now().UTC(),
		Username:  s.user(),
		Action:    action,
		Details:   details,
	}
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	return err
}

// List returns up to limit entries, newest first. A limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	var rows []entryModel
	q := s.db.NewSelect().Model(&rows).OrderExpr("timestamp DESC").OrderExpr("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{ID: r.ID, Timestamp: r.Timestamp, Username: r.Username, Action: r.Action, Details: r.Details})
	}
	return out, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
