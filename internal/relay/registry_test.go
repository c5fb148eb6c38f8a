package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBindResolve(t *testing.T) {
	r := NewRegistry()
	c := newFakeConn("c1")

	r.Bind("alice", c)

	got, ok := r.Resolve("alice")
	require.True(t, ok)
	assert.Same(t, c, got.(*fakeConn))
}

func TestRegistryLastBindWins(t *testing.T) {
	r := NewRegistry()
	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")

	r.Bind("alice", c1)
	r.Bind("alice", c2)

	got, ok := r.Resolve("alice")
	require.True(t, ok)
	assert.Same(t, c2, got.(*fakeConn))
}

func TestRegistryUnbind(t *testing.T) {
	r := NewRegistry()
	r.Bind("alice", newFakeConn("c1"))

	r.Unbind("alice")
	_, ok := r.Resolve("alice")
	assert.False(t, ok)

	// Idempotent.
	r.Unbind("alice")
	_, ok = r.Resolve("alice")
	assert.False(t, ok)
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Resolve("ghost")
	assert.False(t, ok)
}

func TestRegistryResolveManyPositional(t *testing.T) {
	r := NewRegistry()
	a := newFakeConn("ca")
	c := newFakeConn("cc")
	r.Bind("alice", a)
	r.Bind("carol", c)

	conns := r.ResolveMany([]string{"alice", "bob", "carol"})
	require.Len(t, conns, 3)
	assert.Same(t, a, conns[0].(*fakeConn))
	assert.Nil(t, conns[1])
	assert.Same(t, c, conns[2].(*fakeConn))
}

func TestRegistryResolveManyEmpty(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.ResolveMany(nil))
}
