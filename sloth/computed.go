package sloth

// The cache is tagged so an unset or in-flight cache can never be
// confused with a value that happens to equal the zero value.
type cacheState uint8

const (
	cacheUnset cacheState = iota
	cacheReady
	cacheComputing
)

// ReadonlySignal is an interior node: a dependency to whoever reads
// it and a subscriber of whatever its calculation reads. The
// dependency set is rediscovered on every run, so calculations may
// branch to different nodes from one run to the next.
type ReadonlySignal[T comparable] struct {
	baseDependency
	baseSubscriber

	rs    *ReactiveSystem
	calc  func() (T, error)
	value T
	cache cacheState

	stale bool
	// first notifier of the current stale epoch, nil when unknown.
	// Later notifiers don't overwrite it; with two independent
	// changes the poll just degrades to the full scan.
	staleFrom dependency
}

// Computed creates an interior node. calc must be deterministic given
// the current values of whatever it reads, and must not write to
// nodes it has read during the same run.
func Computed[T comparable](rs *ReactiveSystem, calc func() (T, error)) *ReadonlySignal[T] {
	c := &ReadonlySignal[T]{
		baseDependency: baseDependency{ver: 1},
		rs:             rs,
		calc:           calc,
		stale:          true,
	}
	c.bindSelf(c)
	return c
}

func (c *ReadonlySignal[T]) Value() (T, error) {
	if err := c.refresh(); err != nil {
		var zero T
		return zero, err
	}
	c.rs.dependencyAccessed(c)
	return c.value, nil
}

// refresh resolves staleness: a dirty node with a cached value polls
// its recorded dependencies first and recomputes only if one of them
// actually changed in value since last observed.
func (c *ReadonlySignal[T]) refresh() error {
	if !c.stale {
		return nil
	}
	if c.cache == cacheReady {
		changed, err := c.rs.pollDependencies(c, c.staleFrom)
		if err != nil {
			return err
		}
		if !changed {
			c.stale = false
			c.staleFrom = nil
			return nil
		}
	}
	return c.recompute()
}

func (c *ReadonlySignal[T]) recompute() error {
	if c.cache == cacheComputing {
		return ErrCycle
	}
	prevValue := c.value
	hadValue := c.cache == cacheReady
	c.cache = cacheComputing

	// dates every edge recorded by earlier runs as stale
	c.trackingVer++

	prevSub := c.rs.activeSub
	c.rs.activeSub = c
	defer func() {
		c.rs.activeSub = prevSub
		if c.cache == cacheComputing {
			// calc errored or panicked: back to unset so a later
			// read re-attempts instead of reporting a cycle forever
			c.cache = cacheUnset
		}
	}()

	nextValue, err := c.calc()
	if err != nil {
		return err
	}

	c.stale = false
	c.staleFrom = nil
	c.cache = cacheReady
	if hadValue && nextValue == prevValue {
		// keep the old identity, subscribers see nothing
		c.value = prevValue
		return nil
	}
	c.value = nextValue
	c.ver++
	return nil
}

func (c *ReadonlySignal[T]) markStale(from dependency) error {
	if c.cache == cacheComputing {
		return ErrChangedWhileComputing
	}
	if c.stale {
		return nil
	}
	c.stale = true
	c.staleFrom = from
	return c.rs.notifySubscribers(c)
}
