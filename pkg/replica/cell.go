// pkg/replica/cell.go
package replica

// ChangeFunc is invoked with the previous and new value after an
// accepted write.
type ChangeFunc[T comparable] func(old, new T)

// Cell holds a single replicated value that only the server role may
// write. Reads are always allowed. Writes from a non-server process,
// and writes that do not change the value, are dropped without
// notifying observers.
type Cell[T comparable] struct {
	auth      *Authority
	value     T
	observers []ChangeFunc[T]
}

// NewCell creates a cell with an initial value
func NewCell[T comparable](auth *Authority, initial T) *Cell[T] {
	return &Cell[T]{
		auth:  auth,
		value: initial,
	}
}

// Get returns the current value
func (c *Cell[T]) Get() T {
	return c.value
}

// Set stores a new value. Returns true if the write was accepted and
// observers were notified.
func (c *Cell[T]) Set(v T) bool {
	if !c.auth.IsServer() {
		return false
	}
	if v == c.value {
		return false
	}
	old := c.value
	c.value = v
	for _, fn := range c.observers {
		fn(old, v)
	}
	return true
}

// Force overwrites the value without an authority check or
// notification. Used when applying a snapshot received from the
// server.
func (c *Cell[T]) Force(v T) {
	c.value = v
}

// OnChange registers an observer. Observers run synchronously in
// registration order during Set.
func (c *Cell[T]) OnChange(fn ChangeFunc[T]) {
	c.observers = append(c.observers, fn)
}
