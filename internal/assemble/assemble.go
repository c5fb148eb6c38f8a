// Package assemble reassembles chunked payloads delivered out of order.
//
// Two disciplines exist because file and audio uploads complete differently:
// a ChunkSet finishes when the number of distinct indices seen equals the
// declared total, while a SlotBuffer finishes when every pre-allocated slot
// has been written at least once.
package assemble

import (
	"bytes"
	"sort"
	"strings"
)

// ChunkSet collects text chunks (base64 segments) per session key and
// returns the concatenation, in ascending index order, once the count of
// distinct indices reaches the declared total. Resubmitting an index
// overwrites the stored value without advancing completion. Indices are not
// range-checked; a stray index simply counts like any other.
type ChunkSet struct {
	sessions map[string]map[int]string
}

func NewChunkSet() *ChunkSet {
	return &ChunkSet{sessions: make(map[string]map[int]string)}
}

// Submit stores one chunk. When the session completes it returns the joined
// payload and true, and the session state is evicted; a later duplicate
// submit starts a fresh session rather than re-triggering completion.
func (s *ChunkSet) Submit(key string, index int, chunk string, total int) (string, bool) {
	chunks, ok := s.sessions[key]
	if !ok {
		chunks = make(map[int]string)
		s.sessions[key] = chunks
	}
	chunks[index] = chunk

	if len(chunks) != total {
		return "", false
	}

	indices := make([]int, 0, len(chunks))
	for i := range chunks {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var b strings.Builder
	for _, i := range indices {
		b.WriteString(chunks[i])
	}
	delete(s.sessions, key)
	return b.String(), true
}

// Drop discards any pending state for key. No-op if key is unknown.
func (s *ChunkSet) Drop(key string) {
	delete(s.sessions, key)
}

// Pending reports how many sessions are still incomplete.
func (s *ChunkSet) Pending() int {
	return len(s.sessions)
}

// SlotBuffer collects binary chunks into a fixed-size slot array per key,
// sized by the total declared on first submit. Unset slots are nil, so
// completion is a sentinel scan over every slot, not an index count: writing
// the same slot twice leaves the session pending until the remaining slots
// fill. Indices outside the array are ignored.
type SlotBuffer struct {
	sessions map[string][][]byte
}

func NewSlotBuffer() *SlotBuffer {
	return &SlotBuffer{sessions: make(map[string][][]byte)}
}

// Submit stores one chunk. When every slot is set it returns the slots
// concatenated in index order and true, and evicts the session.
func (s *SlotBuffer) Submit(key string, index int, chunk []byte, total int) ([]byte, bool) {
	slots, ok := s.sessions[key]
	if !ok {
		if total <= 0 {
			return nil, false
		}
		slots = make([][]byte, total)
		s.sessions[key] = slots
	}
	if index < 0 || index >= len(slots) {
		return nil, false
	}
	if chunk == nil {
		chunk = []byte{}
	}
	slots[index] = chunk

	for _, slot := range slots {
		if slot == nil {
			return nil, false
		}
	}

	var buf bytes.Buffer
	for _, slot := range slots {
		buf.Write(slot)
	}
	delete(s.sessions, key)
	return buf.Bytes(), true
}

// Drop discards any pending state for key. No-op if key is unknown.
func (s *SlotBuffer) Drop(key string) {
	delete(s.sessions, key)
}

// Pending reports how many sessions are still incomplete.
func (s *SlotBuffer) Pending() int {
	return len(s.sessions)
}
