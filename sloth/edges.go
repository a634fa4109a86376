package sloth

import "weak"

// dependencyAccessed records a bidirectional edge between dep and the
// subscriber currently computing, if any. Overwriting an existing
// entry realigns the edge with the subscriber's current tracking
// version, which is what keeps it alive through pruning passes.
func (rs *ReactiveSystem) dependencyAccessed(dep dependency) {
	sub := rs.activeSub
	if sub == nil {
		return
	}
	dep.subEdges().set(sub.weakRef(), sub.tracking())
	sub.depEdges().set(dep, dep.version())
}

// notifySubscribers fans a change out across dep's subscriber edges.
// Edges whose weak handle no longer upgrades, or whose recorded
// tracking version is from an earlier computation, are pruned from
// both sides here; this is the sole opportunistic edge collector.
// The walk always covers every edge, so one failing subscriber can't
// leave later ones holding a clean flag over a changed value; the
// first failure is returned once the fan-out completes.
func (rs *ReactiveSystem) notifySubscribers(dep dependency) error {
	var firstErr error
	subs := dep.subEdges()
	subs.iterate(func(ref weak.Pointer[subscriberRef], recorded uint64) bool {
		box := ref.Value()
		if box == nil {
			subs.delete(ref)
			return true
		}
		sub := box.sub
		if sub.tracking() != recorded {
			subs.delete(ref)
			sub.depEdges().delete(dep)
			return true
		}
		if err := sub.markStale(dep); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// pollDependencies decides whether a dirty subscriber's cached value
// may still stand without recomputing. It reports true iff some
// recorded dependency actually changed in value since last observed.
//
// from is the dependency that first flagged the current stale epoch,
// or nil when unknown; checking it first usually settles the question
// in one probe.
func (rs *ReactiveSystem) pollDependencies(sub subscriber, from dependency) (bool, error) {
	deps := sub.depEdges()

	var skip dependency
	if from != nil {
		seenVer, ok := deps.get(from)
		if !ok {
			return true, nil
		}
		recorded, ok := from.subEdges().get(sub.weakRef())
		if ok && recorded == sub.tracking() {
			if err := from.refresh(); err != nil {
				return false, err
			}
			if from.version() != seenVer {
				return true, nil
			}
			if deps.size() == 1 {
				return false, nil
			}
			skip = from
		}
	}

	var (
		changed bool
		pollErr error
	)
	deps.iterate(func(dep dependency, seenVer uint64) bool {
		if dep == skip {
			return true
		}
		recorded, ok := dep.subEdges().get(sub.weakRef())
		if !ok || recorded != sub.tracking() {
			// a leftover from a prior computation whose topology
			// differed, not a change
			dep.subEdges().delete(sub.weakRef())
			deps.delete(dep)
			return true
		}
		if err := dep.refresh(); err != nil {
			pollErr = err
			return false
		}
		if dep.version() != seenVer {
			changed = true
			return false
		}
		return true
	})
	if pollErr != nil {
		return false, pollErr
	}
	return changed, nil
}
