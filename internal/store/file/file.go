// Package file keeps every slot in its own file under one directory, the
// on-disk counterpart of browser local storage.
package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const slotExt = ".slot"

type Store struct {
	mu  sync.Mutex
	dir string
	log *zap.Logger
}

func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create slot directory %s", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.Errorf("invalid slot name %q", name)
	}
	return filepath.Join(s.dir, name+slotExt), nil
}

func (s *Store) read(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "could not read slot file %s", path)
	}
	return data, true, nil
}

func (s *Store) write(path string, value []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return errors.Wrapf(err, "could not open slot file %s", path)
	}
	defer func() { _ = f.Close() }()

	if err := f.Truncate(0); err != nil {
		return errors.Wrapf(err, "could not truncate slot file %s", path)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return errors.Wrapf(err, "could not seek the beginning of slot file %s", path)
	}
	if _, err := f.Write(value); err != nil {
		return errors.Wrapf(err, "could not write to slot file %s", path)
	}
	if err := f.Sync(); err != nil {
		return errors.Wrapf(err, "could not sync slot file %s", path)
	}
	return nil
}
