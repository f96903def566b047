// Package kv defines the narrow key/value contract shared by the storage
// engine, the transaction layer, and the catalog, so the catalog can be
// loaded and mutated uniformly whether it is reading a bare engine (at open,
// before any transaction exists) or a live transaction (during CREATE/DROP
// TABLE).
//
// Values are plain immutable []byte slices. The original design called for
// reference-counted shared buffers so reads never copy payloads; in Go the
// garbage collector already gives every read a safe, copy-free handle to the
// same backing array as long as a stored value is never mutated in place —
// sets always install a brand new slice rather than writing into the old
// one. That discipline, not manual refcounting, is what makes sharing safe
// here.
package kv

// Store is the minimal key/value contract the storage engine and the
// transaction layer both satisfy.
type Store interface {
	// Get returns the current value for key and whether it is present.
	Get(key []byte) ([]byte, bool)
	// Set installs value for key. An empty value is equivalent to Delete.
	Set(key, value []byte) error
	// Delete removes key; a no-op if key is absent.
	Delete(key []byte) error
	// Scan returns an iterator over [start, end) in key order.
	Scan(start, end []byte) Iterator
}

// Iterator is a lazy, non-restartable, in-order sequence of (key, value)
// pairs scoped to the Store it was produced from.
type Iterator interface {
	// Next advances the iterator and reports whether an item is available.
	Next() bool
	// Key returns the current item's key. Valid only after Next returns true.
	Key() []byte
	// Value returns the current item's value. Valid only after Next returns true.
	Value() []byte
}
