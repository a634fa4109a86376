package sloth

import (
	"fmt"
	"weak"

	mapset "github.com/deckarep/golang-set/v2"
)

// CheckIntegrity verifies edge bookkeeping for the given nodes at a
// quiescent point. Any mix of writeable signals, computeds and effect
// runners is accepted. An edge whose weak handle no longer upgrades
// or whose tracking version lags is legal (it will be pruned on the
// next poll or notify); what's not legal is a live, current edge
// recorded on only one side, or a corrupted table.
func CheckIntegrity(nodes ...any) error {
	for i, n := range nodes {
		dep, isDep := n.(dependency)
		sub, isSub := n.(subscriber)
		if !isDep && !isSub {
			return fmt.Errorf("node %d: %T is not a reactive node", i, n)
		}
		if isDep {
			if err := checkDependencySide(dep); err != nil {
				return fmt.Errorf("node %d: %w", i, err)
			}
		}
		if isSub {
			if err := checkSubscriberSide(sub); err != nil {
				return fmt.Errorf("node %d: %w", i, err)
			}
		}
	}
	return nil
}

func checkDependencySide(dep dependency) error {
	walked := mapset.NewThreadUnsafeSet[weak.Pointer[subscriberRef]]()
	var checkErr error
	dep.subEdges().iterate(func(ref weak.Pointer[subscriberRef], recorded uint64) bool {
		if !walked.Add(ref) {
			checkErr = fmt.Errorf("duplicate live subscriber edge")
			return false
		}
		box := ref.Value()
		if box == nil {
			return true // reclaimed, prunable
		}
		sub := box.sub
		if sub.tracking() != recorded {
			return true // dated by a later recomputation, prunable
		}
		if _, ok := sub.depEdges().get(dep); !ok {
			checkErr = fmt.Errorf("current subscriber edge has no mirror dependency edge")
			return false
		}
		return true
	})
	if checkErr != nil {
		return checkErr
	}
	if walked.Cardinality() != dep.subEdges().size() {
		return fmt.Errorf("subscriber table claims %d live edges, walk found %d",
			dep.subEdges().size(), walked.Cardinality())
	}
	return nil
}

func checkSubscriberSide(sub subscriber) error {
	walked := mapset.NewThreadUnsafeSet[dependency]()
	var checkErr error
	sub.depEdges().iterate(func(dep dependency, _ uint64) bool {
		if !walked.Add(dep) {
			checkErr = fmt.Errorf("duplicate live dependency edge")
			return false
		}
		// the mirror entry either matches our current tracking
		// version or is prunable; both are consistent states
		return true
	})
	if checkErr != nil {
		return checkErr
	}
	if walked.Cardinality() != sub.depEdges().size() {
		return fmt.Errorf("dependency table claims %d live edges, walk found %d",
			sub.depEdges().size(), walked.Cardinality())
	}
	return nil
}
