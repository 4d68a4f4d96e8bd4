package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsRemoveKeepsRelativeOrder(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for i := 0; i < n; i++ {
			s := NewSlots[int](0)
			for v := 0; v < n; v++ {
				require.NoError(t, s.Set(s.Add(), v))
			}

			require.NoError(t, s.Remove(i))

			var want []int
			for v := 0; v < n; v++ {
				if v != i {
					want = append(want, v)
				}
			}
			assert.Equal(t, n-1, s.Len())
			assert.Equal(t, want, s.Values(), "n=%d i=%d", n, i)
		}
	}
}

func TestSlotsRemoveRenumbers(t *testing.T) {
	s := NewSlots[string](3)
	require.NoError(t, s.Set(0, "a"))
	require.NoError(t, s.Set(1, "b"))
	require.NoError(t, s.Set(2, "c"))

	require.NoError(t, s.Remove(0))

	v, err := s.At(0)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	_, err = s.At(2)
	assert.ErrorIs(t, err, ErrSlotIndex)
}

func TestSlotsOutOfRange(t *testing.T) {
	s := NewSlots[string](1)
	assert.ErrorIs(t, s.Set(1, "x"), ErrSlotIndex)
	assert.ErrorIs(t, s.Set(-1, "x"), ErrSlotIndex)
	assert.ErrorIs(t, s.Remove(3), ErrSlotIndex)
	assert.Equal(t, 1, s.Len())
}

func TestSlotsValuesIsCopy(t *testing.T) {
	s := NewSlots[string](2)
	vals := s.Values()
	vals[0] = "changed"

	v, _ := s.At(0)
	assert.Equal(t, "", v)
}

func TestSlotsFilled(t *testing.T) {
	s := NewSlots[string](4)
	require.NoError(t, s.Set(1, "x"))
	require.NoError(t, s.Set(3, "y"))

	assert.Equal(t, []string{"x", "y"}, s.Filled(func(v string) bool { return v != "" }))
}

func TestSlotsReadableFromDraftValue(t *testing.T) {
	assert.Equal(t, 1, emptyDraft().Files.Len())
	assert.Equal(t, []string{""}, emptyDraft().Content.Values())
	assert.Empty(t, emptyDraft().Content.Filled(func(v string) bool { return v != "" }))
}
