package memory

import (
	"sync"

	"go.uber.org/zap"
)

type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
	log   *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{slots: make(map[string][]byte), log: logger}
}
