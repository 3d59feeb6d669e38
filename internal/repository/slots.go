package repository

import "context"

// UpdateFunc receives the current slot value (ok is false when the slot is
// missing) and returns the value to write back. Returning an error aborts
// the update and leaves the slot untouched.
type UpdateFunc func(current []byte, ok bool) ([]byte, error)

// SlotRepository is a named key-value persistence medium. Every slot holds
// one opaque value; the record store keeps its whole mapping in one slot.
type SlotRepository interface {
	GetSlot(ctx context.Context, name string) ([]byte, bool, error)
	SetSlot(ctx context.Context, name string, value []byte) error
	RemoveSlot(ctx context.Context, name string) error
	UpdateSlot(ctx context.Context, name string, fn UpdateFunc) error
}
