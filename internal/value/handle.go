// Package value implements the SETL2 specifier: the tagged value cell that
// flows through stack slots, procedure locals, and aggregate cells, together
// with the reference-counted heap discipline that backs copy-on-write
// mutation of every aggregate.
package value

// Payload is implemented by every heap-allocated aggregate kind (set, map,
// tuple, object, string, procedure, big integer, iterator, mailbox, process
// handle, native). A Payload owns no reference count itself; Handle does.
type Payload interface {
	// Kind reports the payload's form, mainly for debugging/printing.
	Kind() Form

	// Release is called once, when the owning Handle's count drops to zero.
	// Implementations must Unmark every Specifier they directly hold.
	Release()

	// HashCode returns the payload's contribution to hashing; for
	// aggregates this is the incrementally-maintained XOR hash described in
	// spec §3, not recomputed per call.
	HashCode() uint32
}

// Equaler is implemented by payloads whose equality is more than identity;
// every aggregate and boxed-scalar payload implements it.
type Equaler interface {
	EqualPayload(other Payload) bool
}

// Handle is a reference-counted pointer to a heap Payload. A Specifier that
// holds a Handle owns exactly one increment of its count (spec §3: "A
// specifier owns exactly one increment of its target's use-count").
//
// Handle is not safe for concurrent use from more than one goroutine; the
// scheduler (internal/proc) guarantees only the active process ever touches
// a value it has not shared across a process boundary via a mailbox.
type Handle struct {
	count   int32
	payload Payload
}

// NewHandle wraps p in a fresh handle with use-count 1.
func NewHandle(p Payload) *Handle {
	return &Handle{count: 1, payload: p}
}

// Payload returns the wrapped aggregate.
func (h *Handle) Payload() Payload { return h.payload }

// Count returns the current use-count. Exposed for tests validating the
// "reference counting" testable property (spec §8).
func (h *Handle) Count() int32 {
	if h == nil {
		return 0
	}
	return h.count
}

// Mark increments the use-count. Called whenever a new Specifier is made to
// point at h.
func (h *Handle) Mark() {
	if h == nil {
		return
	}
	h.count++
}

// Unmark decrements the use-count, releasing the payload recursively when it
// reaches zero.
func (h *Handle) Unmark() {
	if h == nil {
		return
	}
	h.count--
	if h.count <= 0 {
		h.payload.Release()
	}
}

// Shared reports whether more than one Specifier currently owns h, i.e.
// whether a mutator must clone before writing (spec §4.3 step 1).
func (h *Handle) Shared() bool {
	return h.count > 1
}

// MakeUnique returns a Handle that is safe to mutate in place: h itself if
// its count is exactly 1, or a freshly allocated Handle wrapping clone()'s
// result (with h unmarked) otherwise. Every aggregate mutator calls this
// before descending into its structure (spec §9 "Copy-on-write").
func MakeUnique(h *Handle, clone func(Payload) Payload) *Handle {
	if h.count == 1 {
		return h
	}
	newH := NewHandle(clone(h.payload))
	h.Unmark()
	return newH
}
