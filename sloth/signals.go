package sloth

// WriteableSignal is a leaf node holding a directly-settable value.
type WriteableSignal[T comparable] struct {
	baseDependency
	rs    *ReactiveSystem
	value T
}

func Signal[T comparable](rs *ReactiveSystem, initialValue T) *WriteableSignal[T] {
	return &WriteableSignal[T]{
		baseDependency: baseDependency{ver: 1},
		rs:             rs,
		value:          initialValue,
	}
}

func (s *WriteableSignal[T]) Value() T {
	s.rs.dependencyAccessed(s)
	return s.value
}

// SetValue stores v and wakes subscribers. Writing a value identical
// to the current one is a no-op: no version bump, no notifications.
func (s *WriteableSignal[T]) SetValue(v T) error {
	if v == s.value {
		return nil
	}
	s.value = v
	s.ver++
	return s.rs.notifySubscribers(s)
}

func (s *WriteableSignal[T]) Update(fn func(oldValue T) T) error {
	return s.SetValue(fn(s.value))
}

// Mutate edits the held value in place and always advances the
// version, identical or not. This is the escape hatch for changing
// interior state of a composite value without constructing a new one;
// the caller owns the judgement that something actually changed.
func (s *WriteableSignal[T]) Mutate(fn func(v *T)) error {
	fn(&s.value)
	s.ver++
	return s.rs.notifySubscribers(s)
}

// the leaf's version is authoritative
func (s *WriteableSignal[T]) refresh() error { return nil }
