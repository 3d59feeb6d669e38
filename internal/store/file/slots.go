package file

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"worry_solver/internal/repository"
)

func (s *Store) GetSlot(_ context.Context, name string) ([]byte, bool, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(path)
}

func (s *Store) SetSlot(_ context.Context, name string, value []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(path, value); err != nil {
		s.log.Error("slot write failed", zap.String("slot", name), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) RemoveSlot(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "could not remove slot file %s", path)
	}
	return nil
}

// UpdateSlot is serialized within this process only. Two processes sharing
// the directory can still overwrite each other's writes.
func (s *Store) UpdateSlot(_ context.Context, name string, fn repository.UpdateFunc) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.read(path)
	if err != nil {
		return err
	}
	next, err := fn(current, ok)
	if err != nil {
		return err
	}
	if err := s.write(path, next); err != nil {
		s.log.Error("slot write failed", zap.String("slot", name), zap.Error(err))
		return err
	}
	return nil
}
