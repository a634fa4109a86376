package sloth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collectKeys(t *edgeTable[string]) []string {
	var keys []string
	t.iterate(func(k string, _ uint64) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

func TestEdgeTableBasics(t *testing.T) {
	var et edgeTable[string]
	assert.Equal(t, 0, et.size())

	et.set("a", 1)
	et.set("b", 2)
	et.set("c", 3)
	assert.Equal(t, 3, et.size())

	v, ok := et.get("b")
	assert.True(t, ok)
	assert.Equal(t, uint64(2), v)

	et.set("b", 20)
	v, _ = et.get("b")
	assert.Equal(t, uint64(20), v)
	assert.Equal(t, 3, et.size())

	_, ok = et.get("nope")
	assert.False(t, ok)
}

func TestEdgeTableTombstones(t *testing.T) {
	var et edgeTable[string]
	et.set("a", 1)
	et.set("b", 2)
	et.set("c", 3)

	et.delete("b")
	assert.Equal(t, 2, et.size())
	_, ok := et.get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "c"}, collectKeys(&et))

	// deleting twice is harmless
	et.delete("b")
	assert.Equal(t, 2, et.size())

	// a re-inserted key comes back at the end of iteration order
	et.set("b", 9)
	assert.Equal(t, 3, et.size())
	assert.Equal(t, []string{"a", "c", "b"}, collectKeys(&et))
}

func TestEdgeTableDeleteDuringIteration(t *testing.T) {
	var et edgeTable[string]
	et.set("a", 1)
	et.set("b", 2)
	et.set("c", 3)
	et.set("d", 4)

	var visited []string
	et.iterate(func(k string, _ uint64) bool {
		visited = append(visited, k)
		if k == "a" {
			et.delete("c") // not yet visited: must be skipped
			et.delete("a") // current entry: must not break the walk
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "d"}, visited)
	assert.Equal(t, 2, et.size())
}

func TestEdgeTableAppendsDuringIterationNotVisited(t *testing.T) {
	var et edgeTable[string]
	et.set("a", 1)
	et.set("b", 2)

	var visited []string
	et.iterate(func(k string, _ uint64) bool {
		visited = append(visited, k)
		et.set("late-"+k, 0)
		return true
	})
	assert.Equal(t, []string{"a", "b"}, visited)
	assert.Equal(t, 4, et.size())
}

func TestEdgeTableDenseUpgrade(t *testing.T) {
	var et edgeTable[string]
	n := upgradeThreshold + 50
	for i := 0; i < n; i++ {
		et.set(fmt.Sprintf("k%03d", i), uint64(i))
	}
	assert.NotNil(t, et.index)
	assert.Equal(t, n, et.size())

	// same semantics after upgrade: lookups, ordered iteration,
	// tombstoned deletes
	v, ok := et.get("k042")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)

	et.delete("k000")
	et.delete("k141")
	assert.Equal(t, n-2, et.size())
	_, ok = et.get("k141")
	assert.False(t, ok)

	var first string
	et.iterate(func(k string, _ uint64) bool {
		first = k
		return false
	})
	assert.Equal(t, "k001", first)
}

func TestEdgeTableDefragment(t *testing.T) {
	var et edgeTable[string]
	et.set("a", 1)
	et.set("b", 2)
	et.set("c", 3)
	et.set("d", 4)
	et.delete("a")
	et.delete("c")

	et.defragment()
	assert.Equal(t, 2, et.size())
	assert.Equal(t, 2, len(et.entries))
	assert.Equal(t, []string{"b", "d"}, collectKeys(&et))

	v, ok := et.get("d")
	assert.True(t, ok)
	assert.Equal(t, uint64(4), v)
}

func TestEdgeTableDefragmentDense(t *testing.T) {
	var et edgeTable[string]
	n := upgradeThreshold + 20
	for i := 0; i < n; i++ {
		et.set(fmt.Sprintf("k%03d", i), uint64(i))
	}
	for i := 0; i < n; i += 2 {
		et.delete(fmt.Sprintf("k%03d", i))
	}

	et.defragment()
	assert.Equal(t, n/2, et.size())
	assert.Equal(t, n/2, len(et.entries))
	v, ok := et.get("k051")
	assert.True(t, ok)
	assert.Equal(t, uint64(51), v)
}
