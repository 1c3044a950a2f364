// Package ring provides the fixed-capacity circular buffer shared by the
// per-node connectivity history and the global pass log.
//
// The cursor and the write are deliberately decoupled: a pass writes the
// current slot with Set while it is in flight, and the cursor only advances
// once the pass completes. Append combines both for plain append-only use.
package ring

// Buffer is a fixed-capacity ring over an arena of T. Once more than Cap
// values have been written, the oldest slot is silently overwritten.
type Buffer[T any] struct {
	slots []T
	pos   int // next write index
	count int // populated slots, capped at len(slots)
}

// New returns a buffer with the given capacity. Capacity must be positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Buffer[T]{slots: make([]T, capacity)}
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.slots)
}

// Len returns the number of populated slots.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Set writes v into the cursor slot without advancing the cursor. The slot
// becomes populated if it was not already.
func (b *Buffer[T]) Set(v T) {
	b.slots[b.pos] = v
	if b.pos >= b.count {
		b.count = b.pos + 1
	}
}

// Peek returns the value in the cursor slot and whether it is populated.
// After a wraparound the cursor slot holds the oldest value until it is
// overwritten by the next Set.
func (b *Buffer[T]) Peek() (T, bool) {
	return b.slots[b.pos], b.pos < b.count
}

// Advance moves the cursor one slot forward, modulo capacity.
func (b *Buffer[T]) Advance() {
	b.pos = (b.pos + 1) % len(b.slots)
}

// Append writes v at the cursor and advances it.
func (b *Buffer[T]) Append(v T) {
	b.Set(v)
	b.Advance()
}

// Back returns the populated value i slots behind the cursor, with i = 0
// addressing the most recently advanced-past slot. Only the newest Len
// entries are reachable; anything older has been overwritten.
func (b *Buffer[T]) Back(i int) (T, bool) {
	var zero T
	if i < 0 || i >= b.count {
		return zero, false
	}
	idx := b.pos - 1 - i
	if idx < 0 {
		idx += len(b.slots)
	}
	if idx >= b.count {
		return zero, false
	}
	return b.slots[idx], true
}
