package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewSQLite открывает базу SQLite (modernc, без cgo) и применяет встроенную схему.
// Подходит для локального запуска и тестов адаптеров, dsn ":memory:" даёт
// изолированную базу в памяти.
func NewSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if dsn == ":memory:" {
		dsn = "file::memory:"
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}

	conn, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: не удалось открыть базу: %w", err)
	}

	// SQLite сериализует запись, а база в памяти живёт в одном соединении.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite: не удалось применить схему: %w", err)
	}
	return conn, nil
}

// Open выбирает драйвер по имени. Для postgres выполняются миграции из каталога.
func Open(ctx context.Context, driver, dsn, migrationsDir string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(ctx, dsn)
	case "postgres", "":
		conn, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(ctx, conn, migrationsDir); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("db: неизвестный драйвер %q", driver)
	}
}
