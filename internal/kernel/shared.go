package kernel

import (
	"errors"
	"sync"
)

var (
	ErrAlreadyInitialized = errors.New("kernel: shared value already initialized")
	ErrNotInitialized     = errors.New("kernel: shared value not initialized")
)

// Shared is a value set once at boot and then reached only through With,
// which holds an exclusive guard for the duration of the callback.
// The zero value is ready to use and empty.
type Shared[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
}

// Init stores v. It fails if a value was already stored.
func (s *Shared[T]) Init(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set {
		return ErrAlreadyInitialized
	}
	s.value = v
	s.set = true
	return nil
}

// With runs fn with exclusive access to the value.
func (s *Shared[T]) With(fn func(T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return ErrNotInitialized
	}
	fn(s.value)
	return nil
}
