package common

// --------------------------------------------------------------------------
// Copy-on-write listener set
// --------------------------------------------------------------------------

// ListenerSet is an ordered set of listeners that may be modified while it is
// being fired. Fire iterates over the slice that was current when it started;
// Add and Remove always build a new slice, so a listener that (un)registers
// itself or others during dispatch never disturbs the running iteration.
//
// The zero value is an empty set. ListenerSet is not safe for concurrent use.
type ListenerSet[L comparable] struct {
	listeners []L
}

// Add registers l. It returns false if l was already registered.
func (s *ListenerSet[L]) Add(l L) bool {
	for _, existing := range s.listeners {
		if existing == l {
			return false
		}
	}
	next := make([]L, len(s.listeners), len(s.listeners)+1)
	copy(next, s.listeners)
	s.listeners = append(next, l)
	return true
}

// Remove unregisters l. It returns false if l was not registered.
func (s *ListenerSet[L]) Remove(l L) bool {
	for i, existing := range s.listeners {
		if existing == l {
			next := make([]L, 0, len(s.listeners)-1)
			next = append(next, s.listeners[:i]...)
			s.listeners = append(next, s.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered listeners.
func (s *ListenerSet[L]) Len() int {
	return len(s.listeners)
}

// Fire calls fn for every listener registered at the time of the call.
func (s *ListenerSet[L]) Fire(fn func(l L)) {
	for _, l := range s.listeners {
		fn(l)
	}
}
