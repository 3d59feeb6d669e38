package memory

import (
	"context"

	"go.uber.org/zap"
	"worry_solver/internal/repository"
)

func (s *Store) GetSlot(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.slots[name]
	if !ok {
		return nil, false, nil
	}
	return clone(value), true, nil
}

func (s *Store) SetSlot(_ context.Context, name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = clone(value)
	s.log.Debug("slot written", zap.String("slot", name), zap.Int("size", len(value)))
	return nil
}

func (s *Store) RemoveSlot(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, name)
	s.log.Debug("slot removed", zap.String("slot", name))
	return nil
}

func (s *Store) UpdateSlot(_ context.Context, name string, fn repository.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.slots[name]
	next, err := fn(clone(current), ok)
	if err != nil {
		s.log.Debug("slot update aborted", zap.String("slot", name), zap.Error(err))
		return err
	}
	s.slots[name] = clone(next)
	s.log.Debug("slot updated", zap.String("slot", name), zap.Int("size", len(next)))
	return nil
}

func clone(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
