// Package database provides the SQL connection and cross-driver helpers.
package database

import (
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
)

var (
	mu     sync.RWMutex
	db     *sqlx.DB
	driver string
)

// Connect opens the configured database and installs it as the process-wide
// connection. Safe to call once at startup.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	conn, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpen > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.Lifetime > 0 {
		conn.SetConnMaxLifetime(cfg.Lifetime)
	}

	mu.Lock()
	db = conn
	driver = cfg.Driver
	mu.Unlock()
	return conn, nil
}

// GetDB returns the process-wide connection, or an error before Connect.
func GetDB() (*sqlx.DB, error) {
	mu.RLock()
	defer mu.RUnlock()
	if db == nil {
		return nil, fmt.Errorf("database: not connected")
	}
	return db, nil
}

// SetDB installs a connection directly. Used by tests with sqlite.
func SetDB(conn *sqlx.DB, driverName string) {
	mu.Lock()
	db = conn
	driver = driverName
	mu.Unlock()
}

// Driver returns the active driver name, defaulting to mysql.
func Driver() string {
	mu.RLock()
	defer mu.RUnlock()
	if driver == "" {
		return "mysql"
	}
	return driver
}

// IsPostgreSQL returns true if using PostgreSQL.
func IsPostgreSQL() bool {
	return Driver() == "postgres"
}
