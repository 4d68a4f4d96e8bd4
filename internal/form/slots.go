package form

import (
	"errors"
	"fmt"
)

// ErrSlotIndex is returned when a slot index is out of range.
var ErrSlotIndex = errors.New("slot index out of range")

// Slots is an ordered, index-addressable list of optional inputs. Slots have
// no stable identity: removing one renumbers every slot after it.
type Slots[T any] struct {
	items []T
}

// NewSlots returns a list of n empty slots.
func NewSlots[T any](n int) Slots[T] {
	return Slots[T]{items: make([]T, n)}
}

// Len returns the number of slots.
func (s Slots[T]) Len() int {
	return len(s.items)
}

// Add appends an empty slot and returns its index.
func (s *Slots[T]) Add() int {
	var zero T
	s.items = append(s.items, zero)
	return len(s.items) - 1
}

// Set stores v in slot i.
func (s *Slots[T]) Set(i int, v T) error {
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("%w: %d of %d", ErrSlotIndex, i, len(s.items))
	}
	s.items[i] = v
	return nil
}

// At returns the value of slot i.
func (s Slots[T]) At(i int) (T, error) {
	if i < 0 || i >= len(s.items) {
		var zero T
		return zero, fmt.Errorf("%w: %d of %d", ErrSlotIndex, i, len(s.items))
	}
	return s.items[i], nil
}

// Remove deletes slot i, shifting later slots down by one.
func (s *Slots[T]) Remove(i int) error {
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("%w: %d of %d", ErrSlotIndex, i, len(s.items))
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return nil
}

// Values returns a copy of every slot value, empty ones included.
func (s Slots[T]) Values() []T {
	return append([]T(nil), s.items...)
}

// Filled returns the values for which keep reports true, in slot order.
func (s Slots[T]) Filled(keep func(T) bool) []T {
	var out []T
	for _, v := range s.items {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
