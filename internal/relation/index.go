// Package relation holds in-memory association primitives shared by the memory store.
package relation

import "sync"

type pair[L, R comparable] struct {
	left  L
	right R
}

// Index is a many-to-many association with set semantics. Both directions are
// updated under the same lock so a pair is either visible from both sides or from neither.
type Index[L, R comparable] struct {
	mu       sync.RWMutex
	forward  map[L][]R
	backward map[R][]L
	pairs    map[pair[L, R]]struct{}
}

// NewIndex constructs an empty Index.
func NewIndex[L, R comparable]() *Index[L, R] {
	return &Index[L, R]{
		forward:  make(map[L][]R),
		backward: make(map[R][]L),
		pairs:    make(map[pair[L, R]]struct{}),
	}
}

// Link records the association. It returns false when the pair already exists.
func (ix *Index[L, R]) Link(l L, r R) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := pair[L, R]{left: l, right: r}
	if _, ok := ix.pairs[key]; ok {
		return false
	}
	ix.pairs[key] = struct{}{}
	ix.forward[l] = append(ix.forward[l], r)
	ix.backward[r] = append(ix.backward[r], l)
	return true
}

// Has reports whether the pair is linked.
func (ix *Index[L, R]) Has(l L, r R) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.pairs[pair[L, R]{left: l, right: r}]
	return ok
}

// Right returns the values linked to l in link order.
func (ix *Index[L, R]) Right(l L) []R {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]R(nil), ix.forward[l]...)
}

// Left returns the values linked to r in link order.
func (ix *Index[L, R]) Left(r R) []L {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]L(nil), ix.backward[r]...)
}

// Len returns the number of distinct pairs.
func (ix *Index[L, R]) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.pairs)
}
