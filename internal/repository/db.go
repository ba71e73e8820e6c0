package repository

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/go-sql-driver/mysql"
)

// Supported database drivers. The names double as goqu dialect names.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// sqliteUnicodeDriver is go-sqlite3 with lower() replaced by a Unicode-aware
// version. The built-in one only folds ASCII.
const sqliteUnicodeDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteUnicodeDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

// unicodeLower folds TEXT and BLOB values and passes NULL through.
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return bytes.ToLower(s)
	default:
		return v
	}
}

// NewDB opens a connection pool for the given driver and DSN.
//
// For SQLite the DSN is a file path; busy timeout, foreign keys and immediate
// transactions are switched on, and the pool is limited to one connection so
// write transactions are serialized.
func NewDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverMySQL:
		db, err := sqlx.Open(driver, dsn)
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			slog.Warn("database ping failed", "driver", driver, "error", err)
		}
		return db, nil

	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}

		raw, err := sql.Open(sqliteUnicodeDriver, sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// Keep the sqlite3 name so goqu and migrations pick the right dialect.
		db := sqlx.NewDb(raw, DriverSQLite)
		db.SetMaxOpenConns(1)

		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", path)
}
