// Package cursor defines the input contracts the write path consumes
// from external collaborators: the value-producer iteration interfaces
// spec.md §1 calls "presumed" and §3 calls "Doc-value cursor" and "Term
// cursor". Modeled as small capability interfaces, the same shape as the
// teacher's encoding.ColumnarEncoder[T] (encoding/columnar.go) — dynamic
// polymorphism at the boundary, compile-time or runtime implementations
// both acceptable (spec.md §9).
package cursor

// DocValues is a finite, forward-only, restartable sequence of
// (docId, values[]) pairs where docId is strictly increasing and
// values[] is already ordered (spec.md §3).
//
// Restartable: the core requests a fresh cursor via a Factory to perform
// the second (data) pass after the first (statistics) pass, since the
// encoder needs global min/max/gcd/distinct-set before writing any bits
// (spec.md §9, "Two-pass statistics requirement").
type DocValues interface {
	// NextDoc advances to the next document with at least one value and
	// returns its doc id. Returns ok == false when the cursor is
	// exhausted.
	NextDoc() (docID int, ok bool)

	// ValueCount returns the number of values the current document (the
	// one last returned by NextDoc) carries.
	ValueCount() int

	// NextValue returns the current document's next value, in the order
	// the indexing pipeline produced them. Called exactly ValueCount()
	// times per document.
	NextValue() int64

	// Cost returns the total number of values the cursor will yield
	// across all documents, used to size scratch buffers up front.
	Cost() int64
}

// Factory produces a fresh DocValues cursor on demand, modeling the
// "restartable" requirement of spec.md §3/§9 in an interface-oriented
// way: a factory yielding a new iterator rather than a rewindable
// stream.
type Factory interface {
	New() DocValues
}

// BinaryValues is a finite, forward-only, restartable sequence of
// (docId, value) pairs for a Binary field, mirroring DocValues' shape
// for opaque byte strings instead of integers (spec.md §3, §4.4).
type BinaryValues interface {
	// NextDoc advances to the next document carrying a value and
	// returns its doc id. Returns ok == false when exhausted.
	NextDoc() (docID int, ok bool)

	// Value returns the current document's byte string. The returned
	// slice is only valid until the next call to NextDoc.
	Value() []byte
}

// BinaryFactory produces a fresh BinaryValues cursor on demand, mirroring
// Factory. The binary encoder (spec.md §4.4) takes a single cursor and
// finds the min/max length and the address-table lengths in the same
// pass that writes the bytes.
type BinaryFactory interface {
	New() BinaryValues
}

// Terms is a finite, forward-only iterator over the sorted, distinct
// term set of a field (spec.md §3). Ordinals are assigned implicitly
// 0..N-1 in iteration order; the cursor itself carries no ordinal
// state.
type Terms interface {
	// Next advances to the next term and returns it. Returns
	// ok == false when exhausted. Terms must be strictly increasing in
	// byte order and pairwise distinct; violating this is a caller bug
	// (spec.md §7).
	Next() (term []byte, ok bool)

	// Count returns the total number of distinct terms the cursor will
	// yield.
	Count() int
}
