package sloth

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type box struct {
	n int
}

// A reclaimed subscriber must not be retained through the producer's
// back-edge, and the dead edge disappears on the next notify.
func TestDeadSubscriberPruned(t *testing.T) {
	rs := NewReactiveSystem()
	leaf := Signal(rs, 0)

	func() {
		sink := Computed(rs, func() (int, error) {
			return leaf.Value(), nil
		})
		v, err := sink.Value()
		require.NoError(t, err)
		assert.Equal(t, 0, v)
		assert.Equal(t, 1, leaf.subs.size())
	}()

	for range 3 {
		runtime.GC()
	}

	require.NoError(t, leaf.SetValue(1))
	assert.Equal(t, 0, leaf.subs.size())
}

// When a recomputation lands on the identical value the node keeps
// the old identity, holds its version still, and downstream nodes
// never rerun.
func TestIdentityStableWhenUnchanged(t *testing.T) {
	rs := NewReactiveSystem()
	sel := Signal(rs, 0)
	shared := &box{n: 42}

	calcCount := 0
	c := Computed(rs, func() (*box, error) {
		calcCount++
		sel.Value()
		return shared, nil
	})

	downCount := 0
	d := Computed(rs, func() (int, error) {
		downCount++
		bv, err := c.Value()
		if err != nil {
			return 0, err
		}
		return bv.n, nil
	})

	assert.Equal(t, 42, mustRead(t, d))
	assert.Equal(t, 1, calcCount)
	assert.Equal(t, 1, downCount)
	verBefore := c.ver

	require.NoError(t, sel.SetValue(1))
	assert.Equal(t, 42, mustRead(t, d))
	assert.Equal(t, 2, calcCount)
	assert.Equal(t, 1, downCount)
	assert.Equal(t, verBefore, c.ver)

	got, err := c.Value()
	require.NoError(t, err)
	assert.Same(t, shared, got)
}

// Mutate always advances the version even though the identity is
// untouched, so dependents of the mutated composite rerun.
func TestMutatePropagates(t *testing.T) {
	rs := NewReactiveSystem()
	s := Signal(rs, &box{n: 1})
	callCount := 0
	c := Computed(rs, func() (int, error) {
		callCount++
		return s.Value().n, nil
	})

	assert.Equal(t, 1, mustRead(t, c))
	verBefore := s.ver

	require.NoError(t, s.Mutate(func(v **box) {
		(*v).n = 5
	}))
	assert.Equal(t, verBefore+1, s.ver)
	assert.Equal(t, 5, mustRead(t, c))
	assert.Equal(t, 2, callCount)
}

// Reading twice with no writes in between performs zero calculations.
func TestMinimalRecomputation(t *testing.T) {
	rs := NewReactiveSystem()
	a := Signal(rs, 1)
	b := Signal(rs, 2)
	callCount := 0
	c := Computed(rs, func() (int, error) {
		callCount++
		return a.Value() + b.Value(), nil
	})

	assert.Equal(t, 3, mustRead(t, c))
	for range 10 {
		assert.Equal(t, 3, mustRead(t, c))
	}
	assert.Equal(t, 1, callCount)
}

func TestNoopWriteNotifiesNobody(t *testing.T) {
	rs := NewReactiveSystem()
	a := Signal(rs, 7)
	c := Computed(rs, func() (int, error) {
		return a.Value(), nil
	})
	assert.Equal(t, 7, mustRead(t, c))
	verBefore := a.ver

	require.NoError(t, a.SetValue(7))
	assert.Equal(t, verBefore, a.ver)
	assert.False(t, c.stale)
}

func TestPauseTracking(t *testing.T) {
	rs := NewReactiveSystem()
	src := Signal(rs, 0)
	c := Computed(rs, func() (int, error) {
		rs.PauseTracking()
		value := src.Value()
		rs.ResumeTracking()
		return value, nil
	})
	assert.Equal(t, 0, mustRead(t, c))

	require.NoError(t, src.SetValue(1))
	assert.Equal(t, 0, mustRead(t, c))
}

func TestUntracked(t *testing.T) {
	rs := NewReactiveSystem()
	tracked := Signal(rs, 1)
	peeked := Signal(rs, 10)
	callCount := 0
	c := Computed(rs, func() (int, error) {
		callCount++
		return tracked.Value() + Untracked(rs, peeked.Value), nil
	})

	assert.Equal(t, 11, mustRead(t, c))

	require.NoError(t, peeked.SetValue(20))
	assert.Equal(t, 11, mustRead(t, c))
	assert.Equal(t, 1, callCount)

	require.NoError(t, tracked.SetValue(2))
	assert.Equal(t, 22, mustRead(t, c))
	assert.Equal(t, 2, callCount)
}
