// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypePGX      = "pgx"
)

var ErrUnknownType = errors.New("unknown database type")

// ValidType reports whether dbType is one of the supported database types
func ValidType(dbType string) bool {
	switch dbType {
	case TypeSQLite, TypePostgres, TypePGX:
		return true
	}
	return false
}

// Open connects to the database and verifies the connection.
//
// SQLite is limited to a single pooled connection: writers are serialized
// and an in-memory database survives for the lifetime of the pool.
func Open(ctx context.Context, dbType, url string) (*sql.DB, error) {
	if !ValidType(dbType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, dbType)
	}

	// driver names match the type constants
	conn, err := sql.Open(dbType, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if dbType == TypeSQLite {
		conn.SetMaxOpenConns(1)
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}
