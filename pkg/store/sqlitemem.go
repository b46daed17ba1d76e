package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// NewSQLiteMem opens an in-memory database with the schema applied.
// Returned cleanup closes the database; callers should defer it.
func NewSQLiteMem(ctx context.Context) (*sql.DB, func(), error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps every statement on the same :memory: DB.
	db.SetMaxOpenConns(1)
	if err := CreateLocalTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}
