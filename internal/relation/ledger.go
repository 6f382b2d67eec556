package relation

import "sync"

// Ledger is an append-only log of join records indexed by two keys.
// Records are never deduplicated; each Append is a distinct entry.
type Ledger[T any] struct {
	mu       sync.RWMutex
	records  []T
	byLeft   map[string][]int
	byRight  map[string][]int
	leftKey  func(T) string
	rightKey func(T) string
}

// NewLedger builds a Ledger using the given key extractors.
func NewLedger[T any](leftKey, rightKey func(T) string) *Ledger[T] {
	return &Ledger[T]{
		byLeft:   make(map[string][]int),
		byRight:  make(map[string][]int),
		leftKey:  leftKey,
		rightKey: rightKey,
	}
}

// Append stores the record and returns its 1-based sequence number.
func (l *Ledger[T]) Append(record T) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := len(l.records)
	l.records = append(l.records, record)
	left, right := l.leftKey(record), l.rightKey(record)
	l.byLeft[left] = append(l.byLeft[left], pos)
	l.byRight[right] = append(l.byRight[right], pos)
	return pos + 1
}

// ByLeft returns records whose left key matches, in append order.
func (l *Ledger[T]) ByLeft(key string) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byLeft[key])
}

// ByRight returns records whose right key matches, in append order.
func (l *Ledger[T]) ByRight(key string) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byRight[key])
}

// At returns the record with the given sequence number.
func (l *Ledger[T]) At(seq int) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq < 1 || seq > len(l.records) {
		var zero T
		return zero, false
	}
	return l.records[seq-1], true
}

// All returns every record in append order.
func (l *Ledger[T]) All() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.records...)
}

// Len returns the number of records.
func (l *Ledger[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Ledger[T]) collect(positions []int) []T {
	out := make([]T, 0, len(positions))
	for _, pos := range positions {
		out = append(out, l.records[pos])
	}
	return out
}
