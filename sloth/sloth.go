// Package sloth is a lazy pull-based reactive engine. Writes only
// mark downstream nodes as possibly stale; nothing recomputes until a
// read pulls on it, and a pulled node first polls the version
// counters of its recorded dependencies to decide whether its cached
// value still stands.
package sloth

import (
	"errors"
	"weak"
)

var (
	// ErrCycle is returned when a computed re-enters its own
	// calculation, directly or through other nodes.
	ErrCycle = errors.New("computed cycle detected")

	// ErrChangedWhileComputing is returned when a dependency read by
	// an in-flight calculation is written before that calculation
	// finishes.
	ErrChangedWhileComputing = errors.New("dependency written while computing")
)

// subscriberRef boxes a subscriber so dependencies can point back at
// it weakly. The box is strongly held only by its own node, so once
// the node is unreachable the weak upgrade fails and the edge is
// prunable.
type subscriberRef struct {
	sub subscriber
}

// dependency is any node that can be read: it carries a value version
// that advances whenever the value changes identity, and the edges to
// the subscribers that read it.
type dependency interface {
	version() uint64
	subEdges() *edgeTable[weak.Pointer[subscriberRef]]

	// refresh resolves staleness before the version is trusted. Leaf
	// versions are authoritative so their refresh is a no-op.
	refresh() error
}

// subscriber is any node that reads dependencies: it carries a
// tracking version that advances once per recomputation, dating every
// edge recorded by earlier runs as stale.
type subscriber interface {
	tracking() uint64
	depEdges() *edgeTable[dependency]
	weakRef() weak.Pointer[subscriberRef]
	markStale(from dependency) error
}

type baseDependency struct {
	ver  uint64
	subs edgeTable[weak.Pointer[subscriberRef]]
}

func (b *baseDependency) version() uint64 { return b.ver }

func (b *baseDependency) subEdges() *edgeTable[weak.Pointer[subscriberRef]] { return &b.subs }

type baseSubscriber struct {
	trackingVer uint64
	deps        edgeTable[dependency]
	selfRef     *subscriberRef
	weakSelf    weak.Pointer[subscriberRef]
}

func (b *baseSubscriber) tracking() uint64 { return b.trackingVer }

func (b *baseSubscriber) depEdges() *edgeTable[dependency] { return &b.deps }

func (b *baseSubscriber) weakRef() weak.Pointer[subscriberRef] { return b.weakSelf }

// bindSelf must be called once at construction, before the node can
// record any edge.
func (b *baseSubscriber) bindSelf(s subscriber) {
	b.selfRef = &subscriberRef{sub: s}
	b.weakSelf = weak.Make(b.selfRef)
}

// ReactiveSystem owns one graph of signals. All nodes of a graph are
// bound to their system at construction and every operation assumes
// exclusive access; the system is not safe for concurrent use.
type ReactiveSystem struct {
	// the subscriber currently executing its calculation, nil at
	// every quiescent point
	activeSub  subscriber
	pausedSubs []subscriber

	queuedEffects []*EffectRunner
}

func NewReactiveSystem() *ReactiveSystem {
	return &ReactiveSystem{}
}

// PauseTracking parks the active subscriber so reads stop registering
// edges until the matching ResumeTracking. Pairs nest.
func (rs *ReactiveSystem) PauseTracking() {
	rs.pausedSubs = append(rs.pausedSubs, rs.activeSub)
	rs.activeSub = nil
}

func (rs *ReactiveSystem) ResumeTracking() {
	n := len(rs.pausedSubs)
	rs.activeSub = rs.pausedSubs[n-1]
	rs.pausedSubs = rs.pausedSubs[:n-1]
}

// Untracked runs fn with tracking paused.
func Untracked[T any](rs *ReactiveSystem, fn func() T) T {
	rs.PauseTracking()
	defer rs.ResumeTracking()
	return fn()
}
