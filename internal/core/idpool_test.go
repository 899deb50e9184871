package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDPoolGeneratesDistinctIDs(t *testing.T) {
	pool := NewIDPool()
	seen := make(map[EntityID]struct{})
	for i := 0; i < 100; i++ {
		id := pool.Generate()
		_, dup := seen[id]
		require.False(t, dup, "id %d handed out twice", id)
		seen[id] = struct{}{}
	}
	require.Len(t, seen, 100)
}

func TestIDPoolStartsAtOne(t *testing.T) {
	pool := NewIDPool()
	require.Equal(t, EntityID(1), pool.Generate())
	require.Equal(t, EntityID(2), pool.Generate())
}

func TestIDPoolReusesReleasedBeforeAdvancing(t *testing.T) {
	pool := NewIDPool()
	for i := 0; i < 5; i++ {
		pool.Generate()
	}
	pool.Release(2)
	pool.Release(4)

	got := map[EntityID]bool{pool.Generate(): true, pool.Generate(): true}
	require.Equal(t, map[EntityID]bool{2: true, 4: true}, got)
	require.Equal(t, EntityID(6), pool.Generate())
}

func TestIDPoolDoubleReleaseHandsOutOnce(t *testing.T) {
	pool := NewIDPool()
	id := pool.Generate()
	pool.Release(id)
	pool.Release(id)

	require.Equal(t, id, pool.Generate())
	require.Equal(t, EntityID(2), pool.Generate())
}
