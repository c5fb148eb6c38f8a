package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSetOutOfOrder(t *testing.T) {
	s := NewChunkSet()

	_, done := s.Submit("upload-1", 1, "B", 3)
	require.False(t, done)
	_, done = s.Submit("upload-1", 2, "C", 3)
	require.False(t, done)

	payload, done := s.Submit("upload-1", 0, "A", 3)
	require.True(t, done)
	assert.Equal(t, "ABC", payload)
	assert.Zero(t, s.Pending())
}

func TestChunkSetDuplicateIndexDoesNotAdvance(t *testing.T) {
	s := NewChunkSet()

	_, done := s.Submit("u", 0, "A", 3)
	require.False(t, done)

	// Resubmitting index 0 overwrites but still counts as one distinct index.
	_, done = s.Submit("u", 0, "A2", 3)
	require.False(t, done)
	_, done = s.Submit("u", 1, "B", 3)
	require.False(t, done)

	payload, done := s.Submit("u", 2, "C", 3)
	require.True(t, done)
	assert.Equal(t, "A2BC", payload)
}

func TestChunkSetCompletionEvictsState(t *testing.T) {
	s := NewChunkSet()

	_, done := s.Submit("u", 0, "X", 1)
	require.True(t, done)

	// A straggler after completion starts a new session, it must not
	// re-trigger with the old chunks.
	_, done = s.Submit("u", 1, "Y", 2)
	assert.False(t, done)
	assert.Equal(t, 1, s.Pending())
}

func TestChunkSetIndependentSessions(t *testing.T) {
	s := NewChunkSet()

	_, done := s.Submit("a", 0, "left", 2)
	require.False(t, done)

	payload, done := s.Submit("b", 0, "solo", 1)
	require.True(t, done)
	assert.Equal(t, "solo", payload)

	payload, done = s.Submit("a", 1, "right", 2)
	require.True(t, done)
	assert.Equal(t, "leftright", payload)
}

func TestChunkSetSingleChunk(t *testing.T) {
	s := NewChunkSet()

	payload, done := s.Submit("u", 0, "whole", 1)
	require.True(t, done)
	assert.Equal(t, "whole", payload)
}

func TestChunkSetDrop(t *testing.T) {
	s := NewChunkSet()

	s.Submit("u", 0, "A", 2)
	s.Drop("u")
	assert.Zero(t, s.Pending())

	// Dropping an unknown key is fine.
	s.Drop("nope")
}

func TestSlotBufferReverseOrder(t *testing.T) {
	s := NewSlotBuffer()

	_, done := s.Submit("chat1", 1, []byte{0x02}, 2)
	require.False(t, done)

	buf, done := s.Submit("chat1", 0, []byte{0x01}, 2)
	require.True(t, done)
	assert.Equal(t, []byte{0x01, 0x02}, buf)
	assert.Zero(t, s.Pending())
}

func TestSlotBufferDuplicateSlotStaysPending(t *testing.T) {
	s := NewSlotBuffer()

	// Write slot 0 three times; slot 1 is never set, so the session never
	// completes no matter how many submits arrive.
	for i := 0; i < 3; i++ {
		_, done := s.Submit("c", 0, []byte("x"), 2)
		require.False(t, done)
	}
	assert.Equal(t, 1, s.Pending())

	buf, done := s.Submit("c", 1, []byte("y"), 2)
	require.True(t, done)
	assert.Equal(t, []byte("xy"), buf)
}

func TestSlotBufferOutOfRangeIgnored(t *testing.T) {
	s := NewSlotBuffer()

	_, done := s.Submit("c", 5, []byte("stray"), 2)
	require.False(t, done)
	_, done = s.Submit("c", -1, []byte("stray"), 2)
	require.False(t, done)

	_, done = s.Submit("c", 0, []byte("a"), 2)
	require.False(t, done)
	buf, done := s.Submit("c", 1, []byte("b"), 2)
	require.True(t, done)
	assert.Equal(t, []byte("ab"), buf)
}

func TestSlotBufferEmptyChunkCountsAsReceived(t *testing.T) {
	s := NewSlotBuffer()

	_, done := s.Submit("c", 0, []byte{}, 2)
	require.False(t, done)
	buf, done := s.Submit("c", 1, []byte("tail"), 2)
	require.True(t, done)
	assert.Equal(t, []byte("tail"), buf)
}

func TestSlotBufferZeroTotalNeverCompletes(t *testing.T) {
	s := NewSlotBuffer()

	_, done := s.Submit("c", 0, []byte("x"), 0)
	assert.False(t, done)
	assert.Zero(t, s.Pending())
}

func TestSlotBufferSizedByFirstSubmit(t *testing.T) {
	s := NewSlotBuffer()

	// The first submit fixes the slot count; a later, larger total does not
	// grow the array.
	_, done := s.Submit("c", 0, []byte("a"), 2)
	require.False(t, done)
	buf, done := s.Submit("c", 1, []byte("b"), 5)
	require.True(t, done)
	assert.Equal(t, []byte("ab"), buf)
}
