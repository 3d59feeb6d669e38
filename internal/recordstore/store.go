// Package recordstore keeps every submitted worry in a single JSON document,
// a mapping from access code to record, stored in one named slot.
//
// Apart from Init, operations never return errors: failures of the
// underlying medium are logged and reported as false or absent, so callers
// always get a definite answer.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"worry_solver/internal/domain"
	"worry_solver/internal/model"
	"worry_solver/internal/repository"
)

const (
	SubmissionsSlot = "worrySubmissions"
	CurrentCodeSlot = "currentAccessCode"
	BackupSuffix    = ".corrupt"

	initAttempts = 3
)

var (
	emptyDocument = []byte("{}")

	errNoChange    = errors.New("no change")
	errBackupStale = errors.New("submissions changed after backup")
	errCorrupt     = errors.New("malformed submissions document")
)

type mapping map[string]model.Record

type Store struct {
	slots repository.SlotRepository
	log   *zap.Logger
	now   func() time.Time
}

func New(slots repository.SlotRepository, logger *zap.Logger) *Store {
	return &Store{
		slots: slots,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Init makes sure the submissions slot holds a valid document. A corrupt
// document is copied to the backup slot before being replaced with an empty
// one; in that case Init returns domain.ErrStoreCorrupted and the store is
// usable afterwards.
func (s *Store) Init(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := s.initOnce(ctx)
		if !errors.Is(err, errBackupStale) {
			return err
		}
		if attempt == initAttempts {
			return fmt.Errorf("initialize submissions: %w", err)
		}
		s.log.Warn("submissions changed while backing up, retrying", zap.Int("attempt", attempt))
	}
}

// initOnce takes the backup outside the slot lock, so the locked callback
// only resets a document byte-identical to the one that was backed up.
func (s *Store) initOnce(ctx context.Context) error {
	raw, ok, err := s.slots.GetSlot(ctx, SubmissionsSlot)
	if err != nil {
		return fmt.Errorf("read submissions: %w", err)
	}
	if ok {
		if _, decodeErr := decode(raw); decodeErr != nil {
			if err := s.slots.SetSlot(ctx, SubmissionsSlot+BackupSuffix, raw); err != nil {
				return fmt.Errorf("back up corrupt submissions: %w", err)
			}
		}
	}

	var reset bool
	err = s.slots.UpdateSlot(ctx, SubmissionsSlot, func(current []byte, ok bool) ([]byte, error) {
		if !ok {
			return emptyDocument, nil
		}
		if _, err := decode(current); err != nil {
			if !bytes.Equal(current, raw) {
				return nil, errBackupStale
			}
			reset = true
			return emptyDocument, nil
		}
		return nil, errNoChange
	})
	if errors.Is(err, errBackupStale) {
		return err
	}
	if err != nil && !errors.Is(err, errNoChange) {
		return fmt.Errorf("initialize submissions: %w", err)
	}
	if reset {
		s.log.Warn("submissions document was corrupt and has been reset",
			zap.String("slot", SubmissionsSlot),
			zap.String("backup_slot", SubmissionsSlot+BackupSuffix),
			zap.Int("size", len(raw)),
		)
		return domain.ErrStoreCorrupted
	}
	return nil
}

// Close releases the medium when it holds resources of its own.
func (s *Store) Close() error {
	if c, ok := s.slots.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) Store(ctx context.Context, code string, record model.Record) bool {
	if code == "" {
		s.log.Warn("store called without access code")
		return false
	}
	if !domain.IsValidAccessCode(code) {
		s.log.Warn("store called with malformed access code", zap.String("access_code", code))
		return false
	}
	if record.Timestamp == "" {
		record.Timestamp = model.FormatTimestamp(s.now())
	}
	record.AccessCode = code

	err := s.update(ctx, func(m mapping) error {
		m[code] = record
		return nil
	})
	if err != nil {
		s.log.Error("store record failed", zap.String("access_code", code), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) Retrieve(ctx context.Context, code string) (model.Record, bool) {
	if code == "" {
		return model.Record{}, false
	}
	m, err := s.load(ctx)
	if err != nil {
		s.log.Error("retrieve record failed", zap.String("access_code", code), zap.Error(err))
		return model.Record{}, false
	}
	record, ok := m[code]
	return record, ok
}

// Exists looks the key up without decoding the records.
func (s *Store) Exists(ctx context.Context, code string) bool {
	if !domain.IsValidAccessCode(code) {
		return false
	}
	raw, ok, err := s.slots.GetSlot(ctx, SubmissionsSlot)
	if err != nil {
		s.log.Error("exists check failed", zap.String("access_code", code), zap.Error(err))
		return false
	}
	if !ok || !gjson.ValidBytes(raw) {
		return false
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return false
	}
	return doc.Get(code).Exists()
}

// Update applies fn to the stored record under the medium's update lock.
// Nothing is written when fn returns false. The returned record reflects
// fn's changes either way.
func (s *Store) Update(ctx context.Context, code string, fn func(record *model.Record) bool) (model.Record, bool) {
	if code == "" {
		return model.Record{}, false
	}
	var (
		updated model.Record
		found   bool
	)
	err := s.update(ctx, func(m mapping) error {
		record, ok := m[code]
		if !ok {
			return errNoChange
		}
		found = true
		if !fn(&record) {
			updated = record
			return errNoChange
		}
		record.AccessCode = code
		m[code] = record
		updated = record
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		s.log.Error("update record failed", zap.String("access_code", code), zap.Error(err))
		return model.Record{}, false
	}
	if !found {
		return model.Record{}, false
	}
	return updated, true
}

func (s *Store) ClearAll(ctx context.Context) bool {
	for _, name := range []string{SubmissionsSlot, CurrentCodeSlot} {
		if err := s.slots.RemoveSlot(ctx, name); err != nil {
			s.log.Error("clear slot failed", zap.String("slot", name), zap.Error(err))
			return false
		}
	}
	if err := s.slots.SetSlot(ctx, SubmissionsSlot, emptyDocument); err != nil {
		s.log.Error("reinitialize submissions failed", zap.Error(err))
		return false
	}
	return true
}

func (s *Store) SetCurrentCode(ctx context.Context, code string) bool {
	if code == "" {
		return false
	}
	if err := s.slots.SetSlot(ctx, CurrentCodeSlot, []byte(code)); err != nil {
		s.log.Error("store current access code failed", zap.String("access_code", code), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) CurrentCode(ctx context.Context) (string, bool) {
	raw, ok, err := s.slots.GetSlot(ctx, CurrentCodeSlot)
	if err != nil {
		s.log.Error("read current access code failed", zap.Error(err))
		return "", false
	}
	if !ok || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

// Codes returns the stored access codes in lexical order.
func (s *Store) Codes(ctx context.Context) []string {
	m, err := s.load(ctx)
	if err != nil {
		s.log.Error("list access codes failed", zap.Error(err))
		return nil
	}
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (s *Store) Len(ctx context.Context) int {
	raw, ok, err := s.slots.GetSlot(ctx, SubmissionsSlot)
	if err != nil || !ok || !gjson.ValidBytes(raw) {
		return 0
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return 0
	}
	n := 0
	doc.ForEach(func(_, _ gjson.Result) bool {
		n++
		return true
	})
	return n
}

func (s *Store) load(ctx context.Context) (mapping, error) {
	raw, ok, err := s.slots.GetSlot(ctx, SubmissionsSlot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return mapping{}, nil
	}
	return decode(raw)
}

// update is the read-modify-write cycle over the whole document. Writers in
// this process are serialized by the medium; see the medium for cross-process
// guarantees.
func (s *Store) update(ctx context.Context, fn func(m mapping) error) error {
	return s.slots.UpdateSlot(ctx, SubmissionsSlot, func(current []byte, ok bool) ([]byte, error) {
		m := mapping{}
		if ok {
			decoded, err := decode(current)
			if err != nil {
				return nil, err
			}
			m = decoded
		}
		if err := fn(m); err != nil {
			return nil, err
		}
		return json.Marshal(m)
	})
}

func decode(raw []byte) (mapping, error) {
	var m mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if m == nil {
		return nil, errCorrupt
	}
	return m, nil
}
