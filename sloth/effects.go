package sloth

// EffectRunner is a subscriber with no value of its own. A change to
// anything it read enqueues it on the system; nothing re-runs until
// the owner drains the queue with Stabilize, so writes stay cheap and
// reads stay pure.
type EffectRunner struct {
	baseSubscriber

	rs        *ReactiveSystem
	fn        func() error
	stale     bool
	staleFrom dependency
	running   bool
	stopped   bool
}

// Effect runs fn once to discover its dependencies and returns a stop
// function that severs them.
func Effect(rs *ReactiveSystem, fn func() error) (stop func(), err error) {
	e := &EffectRunner{rs: rs, fn: fn}
	e.bindSelf(e)
	if err := e.run(); err != nil {
		return nil, err
	}
	return e.stop, nil
}

func (e *EffectRunner) run() error {
	e.stale = false
	e.staleFrom = nil
	e.trackingVer++

	prevSub := e.rs.activeSub
	e.rs.activeSub = e
	e.running = true
	defer func() {
		e.running = false
		e.rs.activeSub = prevSub
	}()
	return e.fn()
}

func (e *EffectRunner) markStale(from dependency) error {
	if e.running {
		return ErrChangedWhileComputing
	}
	if e.stale || e.stopped {
		return nil
	}
	e.stale = true
	e.staleFrom = from
	e.rs.queuedEffects = append(e.rs.queuedEffects, e)
	return nil
}

func (e *EffectRunner) stop() {
	if e.stopped {
		return
	}
	e.stopped = true
	e.deps.iterate(func(dep dependency, _ uint64) bool {
		dep.subEdges().delete(e.weakSelf)
		e.deps.delete(dep)
		return true
	})
}

// Stabilize drains the effect queue. Each queued effect polls its
// recorded dependencies first and re-runs only if one of them really
// changed in value, so an effect whose computed inputs recompute to
// identical values does not re-run. A leaf written away and back still
// counts as changed, since its version advanced.
func (rs *ReactiveSystem) Stabilize() error {
	for len(rs.queuedEffects) > 0 {
		e := rs.queuedEffects[0]
		rs.queuedEffects = rs.queuedEffects[1:]
		if e.stopped || !e.stale {
			continue
		}
		changed, err := rs.pollDependencies(e, e.staleFrom)
		if err != nil {
			return err
		}
		if !changed {
			e.stale = false
			e.staleFrom = nil
			continue
		}
		if err := e.run(); err != nil {
			return err
		}
	}
	return nil
}
