package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNoPool = errors.New("database pool is not configured")

// ApplySchema runs DDL statements in order on a single pooled connection.
// Statements must be idempotent; the first failure stops the run.
func ApplySchema(ctx context.Context, pool *sqlx.DB, statements []string) error {
	if pool == nil {
		return ErrNoPool
	}
	return WithConn(ctx, pool, func(conn *sqlx.Conn) error {
		for i, stmt := range statements {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
