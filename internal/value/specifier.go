package value

import "math/big"

// Specifier is the uniform value cell described in spec §3: a form tag plus
// a form-indexed payload. The payload is inline for short integers, atoms,
// and labels; every other form stores a shared *Handle.
//
// Specifier is a plain value type (no pointer receiver methods mutate it in
// place) so that copying a Specifier into a stack slot, a local array cell,
// or a trie leaf is always well-defined: the owning increment travels with
// the copy only when the caller explicitly calls Mark.
type Specifier struct {
	form  Form
	inl   int64  // short integer value, atom number, label target, or process/mailbox id
	real  float64
	heap  *Handle
}

// Omega is the undefined value. It is never stored as a "present" element of
// a set/map/tuple (spec §3).
var Omega = Specifier{form: FormOmega}

// ShortInt builds an inline short-integer specifier.
func ShortInt(n int64) Specifier { return Specifier{form: FormShortInt, inl: n} }

// Real builds an inline IEEE-754 real specifier.
func Real(f float64) Specifier { return Specifier{form: FormReal, real: f} }

// Atom builds an inline interned-atom specifier from its atom table number.
func Atom(n int64) Specifier { return Specifier{form: FormAtom, inl: n} }

// Label builds an inline instruction-index specifier (used by labels taken
// as first-class values, e.g. `goto`-style jump targets stored in a local).
func Label(pc int) Specifier { return Specifier{form: FormLabel, inl: int64(pc)} }

// FromHandle builds a specifier of the given form backed by a heap handle.
// The caller must have already Marked h on behalf of the returned Specifier
// (or be transferring an existing mark, e.g. moving an argument).
func FromHandle(f Form, h *Handle) Specifier {
	return Specifier{form: f, heap: h}
}

func (s Specifier) Form() Form   { return s.form }
func (s Specifier) IsOmega() bool { return s.form == FormOmega }

func (s Specifier) ShortIntValue() int64  { return s.inl }
func (s Specifier) RealValue() float64    { return s.real }
func (s Specifier) AtomNumber() int64     { return s.inl }
func (s Specifier) LabelTarget() int      { return int(s.inl) }
func (s Specifier) Handle() *Handle       { return s.heap }
func (s Specifier) Payload() Payload {
	if s.heap == nil {
		return nil
	}
	return s.heap.Payload()
}

// Mark increments the use-count of s's heap target, if any. Every specifier
// copied into a new owning location must be marked exactly once.
func (s Specifier) Mark() {
	if s.heap != nil {
		s.heap.Mark()
	}
}

// Unmark decrements the use-count of s's heap target, if any, releasing it
// recursively at zero. Call this once per owning location being overwritten
// or discarded.
func (s Specifier) Unmark() {
	if s.heap != nil {
		s.heap.Unmark()
	}
}

// Assign overwrites *slot with src, performing the mark/unmark dance
// required by spec §3: unmark the old target, copy the bits, mark the new
// target. This is the `target := source` opcode's entire job (spec §4.5).
func Assign(slot *Specifier, src Specifier) {
	src.Mark()
	slot.Unmark()
	*slot = src
}

// BigIntPayload wraps an arbitrary-precision integer as a heap Payload so it
// can be addressed through a Handle like any other aggregate.
type BigIntPayload struct {
	V *big.Int
}

func (b *BigIntPayload) Kind() Form { return FormBigInt }
func (b *BigIntPayload) Release()   {}
func (b *BigIntPayload) HashCode() uint32 {
	h := uint32(2166136261)
	for _, w := range b.V.Bits() {
		h = (h ^ uint32(w)) * 16777619
	}
	if b.V.Sign() < 0 {
		h ^= 0x9e3779b9
	}
	return h
}
func (b *BigIntPayload) EqualPayload(other Payload) bool {
	o, ok := other.(*BigIntPayload)
	return ok && b.V.Cmp(o.V) == 0
}

// BigInt builds a specifier around a big.Int, promoting from FormShortInt
// when a short-integer operation overflows (spec §4.2).
func BigInt(v *big.Int) Specifier {
	return FromHandle(FormBigInt, NewHandle(&BigIntPayload{V: v}))
}
