package core

// Handle identifies one subscription. Handles are never reused by a
// Subscriptions registry, so a stale handle can not remove somebody else's
// callback.
type Handle uint64

// InvalidHandle is never returned by Subscribe.
const InvalidHandle Handle = 0

// Subscriptions hands out handles shared by a family of signals, so that one
// Unsubscribe call can find the callback in whichever signal holds it.
type Subscriptions struct {
	next Handle
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{}
}

func (s *Subscriptions) acquire() Handle {
	s.next++
	return s.next
}

type registeredCallback[T any] struct {
	handle   Handle
	callback func(T)
	removed  bool
}

// Signal is an ordered list of callbacks fired synchronously with a value of
// type T. Callbacks may subscribe or unsubscribe while the signal is firing:
// callbacks added during a fire are first called on the next fire, callbacks
// removed during a fire are not called anymore.
type Signal[T any] struct {
	subs      *Subscriptions
	callbacks []*registeredCallback[T]
}

func NewSignal[T any](subs *Subscriptions) *Signal[T] {
	if subs == nil {
		subs = NewSubscriptions()
	}
	return &Signal[T]{subs: subs}
}

// Subscribe appends fn to the signal and returns its handle.
func (s *Signal[T]) Subscribe(fn func(T)) Handle {
	if fn == nil {
		return InvalidHandle
	}
	h := s.subs.acquire()
	s.callbacks = append(s.callbacks, &registeredCallback[T]{handle: h, callback: fn})
	return h
}

// Unsubscribe removes the callback registered under h. It reports whether the
// handle belonged to this signal.
func (s *Signal[T]) Unsubscribe(h Handle) bool {
	for i, c := range s.callbacks {
		if c.handle == h {
			c.removed = true
			s.callbacks = append(s.callbacks[:i:i], s.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

// Fire calls every callback in subscription order.
func (s *Signal[T]) Fire(value T) {
	if len(s.callbacks) == 0 {
		return
	}
	snapshot := make([]*registeredCallback[T], len(s.callbacks))
	copy(snapshot, s.callbacks)
	for _, c := range snapshot {
		if c.removed {
			continue
		}
		c.callback(value)
	}
}

func (s *Signal[T]) Len() int {
	return len(s.callbacks)
}

// Clear drops every callback.
func (s *Signal[T]) Clear() {
	for _, c := range s.callbacks {
		c.removed = true
	}
	s.callbacks = nil
}
