package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"worry_solver/internal/db"
	"worry_solver/internal/repository"
)

func (s *Store) GetSlot(ctx context.Context, name string) ([]byte, bool, error) {
	row, err := s.queries.GetSlot(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		s.log.Error("sql get slot failed", zap.String("slot", name), zap.Error(err))
		return nil, false, err
	}
	return []byte(row.Value), true, nil
}

func (s *Store) SetSlot(ctx context.Context, name string, value []byte) error {
	err := s.queries.UpsertSlot(ctx, db.UpsertSlotParams{
		Name:      name,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("sql upsert slot failed", zap.String("slot", name), zap.Int("size", len(value)), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) RemoveSlot(ctx context.Context, name string) error {
	if err := s.queries.DeleteSlot(ctx, name); err != nil {
		s.log.Error("sql delete slot failed", zap.String("slot", name), zap.Error(err))
		return err
	}
	return nil
}

// UpdateSlot holds a row lock for the duration of fn, so writers in other
// processes wait instead of overwriting each other.
func (s *Store) UpdateSlot(ctx context.Context, name string, fn repository.UpdateFunc) (err error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error("sql begin tx failed", zap.String("slot", name), zap.Error(err))
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			s.log.Error("sql commit failed", zap.String("slot", name), zap.Error(err))
		}
	}()

	q := s.queries.WithTx(tx)
	var (
		current []byte
		ok      bool
	)
	row, err := q.GetSlotForUpdate(ctx, name)
	switch {
	case err == nil:
		current, ok = []byte(row.Value), true
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	default:
		s.log.Error("sql lock slot failed", zap.String("slot", name), zap.Error(err))
		return err
	}

	next, err := fn(current, ok)
	if err != nil {
		return err
	}
	err = q.UpsertSlot(ctx, db.UpsertSlotParams{
		Name:      name,
		Value:     string(next),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("sql upsert slot failed", zap.String("slot", name), zap.Error(err))
		return err
	}
	return nil
}
