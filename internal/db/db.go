// Package db opens the Postgres connection pool used to read stored layouts.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/onnwee/repulse/internal/logger"
	"github.com/onnwee/repulse/internal/secrets"
)

// Open connects to Postgres and verifies the connection with a ping.
func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("db: empty connection string")
	}
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	conn.SetMaxOpenConns(4)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: ping %s: %w", secrets.MaskURL(connStr), err)
	}
	logger.Get().Debug("postgres connected", "dsn", secrets.MaskURL(connStr))
	return conn, nil
}
