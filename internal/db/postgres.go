package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Параметры пула рассчитаны на один экземпляр сервиса переговоров.
const (
	pgMaxOpenConns    = 25
	pgMaxIdleConns    = 5
	pgConnMaxLifetime = 10 * time.Minute
	pgConnMaxIdleTime = 2 * time.Minute
)

// NewPostgres подключается к PostgreSQL и настраивает пул соединений.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	conn.SetMaxOpenConns(pgMaxOpenConns)
	conn.SetMaxIdleConns(pgMaxIdleConns)
	conn.SetConnMaxLifetime(pgConnMaxLifetime)
	conn.SetConnMaxIdleTime(pgConnMaxIdleTime)

	return conn, nil
}
