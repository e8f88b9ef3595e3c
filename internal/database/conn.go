package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBTX is what repositories need from a connection. *sqlx.DB, *sqlx.Conn and
// *sqlx.Tx all satisfy it.
type DBTX interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// WithConn acquires one connection from the pool for the duration of fn and
// always returns it, including when fn fails or ctx is cancelled.
func WithConn(ctx context.Context, pool *sqlx.DB, fn func(conn *sqlx.Conn) error) error {
	conn, err := pool.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}
