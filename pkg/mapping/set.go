package mapping

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

type binding[V any] struct {
	mapping PathMapping
	value   V
}

// Set is an ordered collection of mappings, most specific root first.
// Mutations publish a new copy so in-flight matches keep a consistent view.
type Set[V any] struct {
	mu       sync.Mutex
	bindings atomic.Pointer[[]binding[V]]
}

// Match is the outcome of a successful lookup
type Match[V any] struct {
	Mapping  PathMapping
	Value    V
	Residual string
}

// ArchivePath returns the archive path the matched resource path maps to
func (m Match[V]) ArchivePath() string {
	return m.Mapping.ArchivePath(m.Residual)
}

// NewSet creates an empty mapping set
func NewSet[V any]() *Set[V] {
	s := &Set[V]{}
	s.bindings.Store(&[]binding[V]{})
	return s
}

func (s *Set[V]) load() []binding[V] {
	if b := s.bindings.Load(); b != nil {
		return *b
	}
	return nil
}

// Add registers a mapping bound to v. A resource root already present is
// rejected and the existing mapping is left untouched.
func (s *Set[V]) Add(m PathMapping, v V) error {
	if m.resourceRoot == "" {
		return &ConfigError{Err: ErrEmptyRoot}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	for _, b := range cur {
		if b.mapping.resourceRoot == m.resourceRoot {
			return &ConfigError{Root: m.resourceRoot, Err: ErrDuplicateRoot}
		}
	}

	next := make([]binding[V], len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, binding[V]{mapping: m, value: v})
	sort.SliceStable(next, func(i, j int) bool {
		return len(next[i].mapping.resourceRoot) > len(next[j].mapping.resourceRoot)
	})
	s.bindings.Store(&next)
	return nil
}

// Remove unregisters the mapping with the given resource root
func (s *Set[V]) Remove(root string) bool {
	root = clean(root)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	next := make([]binding[V], 0, len(cur))
	for _, b := range cur {
		if b.mapping.resourceRoot != root {
			next = append(next, b)
		}
	}
	if len(next) == len(cur) {
		return false
	}
	s.bindings.Store(&next)
	return true
}

// Len returns the number of registered mappings
func (s *Set[V]) Len() int {
	return len(s.load())
}

// Mappings returns the registered mappings in match order
func (s *Set[V]) Mappings() []PathMapping {
	cur := s.load()
	mappings := make([]PathMapping, 0, len(cur))
	for _, b := range cur {
		mappings = append(mappings, b.mapping)
	}
	return mappings
}

// Match returns the mapping with the longest resource root covering p
func (s *Set[V]) Match(p string) (Match[V], error) {
	p = clean(p)
	for _, b := range s.load() {
		if rest, ok := b.mapping.Covers(p); ok {
			return Match[V]{
				Mapping:  b.mapping,
				Value:    b.value,
				Residual: rest,
			}, nil
		}
	}
	return Match[V]{}, errors.Wrap(ErrNotMapped, p)
}
