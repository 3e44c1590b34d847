package bweb

import "github.com/samber/lo"

// typeKey identifies a value in a [Store] by its type alone.
type typeKey[T any] struct{}

// Store holds at most one value per type. The app-scoped store is frozen when the [App] is built,
// after which it is only read; a request-scoped store belongs to a single request. Neither is
// safe for concurrent writes.
type Store struct {
	vals   map[any]any
	frozen bool
}

// NewStore creates an empty store.
func NewStore() *Store { return &Store{} }

// Len returns the number of values in the store.
func (s *Store) Len() int { return len(s.vals) }

// Frozen reports whether the store rejects further writes.
func (s *Store) Frozen() bool { return s.frozen }

// Freeze makes the store read-only.
func (s *Store) Freeze() { s.frozen = true }

// Clone returns an unfrozen copy of the store.
func (s *Store) Clone() *Store {
	return &Store{vals: lo.Assign(s.vals)}
}

func (s *Store) mustWritable() {
	if s.frozen {
		panic("bweb: cannot write to a frozen store")
	}
}

// Provide stores v as the value of type T, returning the value it replaced, if any.
func Provide[T any](s *Store, v T) (prev T, replaced bool) {
	s.mustWritable()

	if s.vals == nil {
		s.vals = map[any]any{}
	}

	if old, ok := s.vals[typeKey[T]{}]; ok {
		prev, replaced = old.(T), true
	}

	s.vals[typeKey[T]{}] = v

	return prev, replaced
}

// Lookup returns the value of type T, or the zero value and false when none was provided.
func Lookup[T any](s *Store) (v T, ok bool) {
	if s == nil {
		return v, false
	}

	raw, ok := s.vals[typeKey[T]{}]
	if !ok {
		return v, false
	}

	return raw.(T), true //nolint:forcetypeassert
}

// MustLookup is like [Lookup] but panics when no value of type T was provided.
func MustLookup[T any](s *Store) T {
	v, ok := Lookup[T](s)
	if !ok {
		panic("bweb: no value of the requested type in store")
	}

	return v
}

// Remove deletes and returns the value of type T.
func Remove[T any](s *Store) (v T, ok bool) {
	s.mustWritable()

	v, ok = Lookup[T](s)
	delete(s.vals, typeKey[T]{})

	return v, ok
}
