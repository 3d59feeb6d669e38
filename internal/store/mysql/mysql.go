package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"worry_solver/internal/db"
	"worry_solver/internal/db/migrations"
)

type Store struct {
	sqlDB   *sql.DB
	queries *db.Queries
	log     *zap.Logger
}

func New(sqlDB *sql.DB, logger *zap.Logger) *Store {
	return &Store{sqlDB: sqlDB, queries: db.New(sqlDB), log: logger}
}

// gooseUp is swapped out in tests.
var gooseUp = func(ctx context.Context, sqlDB *sql.DB, dir string) error {
	return goose.UpContext(ctx, sqlDB, dir)
}

func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUp(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.sqlDB.Close()
}
