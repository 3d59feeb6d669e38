package store

import (
	"context"
	"database/sql"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"worry_solver/internal/config"
	"worry_solver/internal/repository"
	"worry_solver/internal/store/file"
	"worry_solver/internal/store/memory"
	"worry_solver/internal/store/mysql"
)

func NewStore(cfg *config.Config, logger *zap.Logger) (repository.SlotRepository, error) {
	switch {
	case cfg.MySQLDSN != "":
		return newMySQLStore(cfg.MySQLDSN, logger)
	case cfg.StoreDir != "":
		s, err := file.New(cfg.StoreDir, logger)
		if err != nil {
			logger.Error("file store open failed", zap.String("dir", cfg.StoreDir), zap.Error(err))
			return nil, err
		}
		logger.Info("using file slot store", zap.String("dir", cfg.StoreDir))
		return s, nil
	default:
		logger.Info("using in-memory slot store")
		return memory.New(logger), nil
	}
}

// normalizeDSN forces parseTime so DATETIME columns scan into time.Time,
// and pins the connection location to UTC.
func normalizeDSN(dsn string) (string, error) {
	c, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN(), nil
}

func newMySQLStore(dsn string, logger *zap.Logger) (repository.SlotRepository, error) {
	dsn, err := normalizeDSN(dsn)
	if err != nil {
		logger.Error("mysql dsn invalid", zap.Error(err))
		return nil, err
	}
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		logger.Error("mysql open failed", zap.Error(err))
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("mysql ping failed", zap.Error(err))
		_ = sqlDB.Close()
		return nil, err
	}
	if err := mysql.Migrate(ctx, sqlDB); err != nil {
		logger.Error("mysql migrate failed", zap.Error(err))
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("using mysql slot store")
	return mysql.New(sqlDB, logger), nil
}
