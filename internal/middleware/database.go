package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/projecthub/internal/database"
)

const connKey = "db_conn"

// DBConn acquires one pooled connection for the lifetime of the request and
// returns it to the pool when the handler chain finishes, whatever the
// outcome. The connection honours the request context, so a cancelled
// request interrupts its in-flight query.
func DBConn(pool *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pool == nil {
			Fail(c, database.ErrNoPool)
			return
		}
		err := database.WithConn(c.Request.Context(), pool, func(conn *sqlx.Conn) error {
			c.Set(connKey, conn)
			c.Next()
			return nil
		})
		if err != nil {
			Fail(c, err)
		}
	}
}

// Conn returns the connection acquired by DBConn.
func Conn(c *gin.Context) (*sqlx.Conn, bool) {
	v, ok := c.Get(connKey)
	if !ok {
		return nil, false
	}
	conn, ok := v.(*sqlx.Conn)
	return conn, ok
}
