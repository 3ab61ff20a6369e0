package trie

import "github.com/setl2-lang/setl2vm/internal/value"

// SetPayload is a SETL2 set: a Trie whose cells carry Key==Val and an
// unused Multi.
type SetPayload struct{ t *Trie }

func (s *SetPayload) Kind() value.Form  { return value.FormSet }
func (s *SetPayload) HashCode() uint32  { return s.t.HashCode() }
func (s *SetPayload) Release()          { s.t.release() }
func (s *SetPayload) Trie() *Trie       { return s.t }
func (s *SetPayload) Card() int         { return s.t.Len() }

func (s *SetPayload) EqualPayload(other value.Payload) bool {
	o, ok := other.(*SetPayload)
	if !ok || o.t.Len() != s.t.Len() {
		return false
	}
	eq := true
	s.t.Range(func(c *Cell) bool {
		oc := o.t.Get(c.Hash, c.Key)
		if oc == nil {
			eq = false
			return false
		}
		return true
	})
	return eq
}

// EmptySet returns a specifier holding the empty set.
func EmptySet() value.Specifier {
	return value.FromHandle(value.FormSet, value.NewHandle(&SetPayload{t: Empty()}))
}

// NewSet wraps an already-built *Trie as a set specifier (used by the
// iterator engine's pow/npow subset enumeration).
func NewSet(t *Trie) value.Specifier {
	return value.FromHandle(value.FormSet, value.NewHandle(&SetPayload{t: t}))
}

// AsSet returns the underlying *Trie for a FormSet specifier.
func AsSet(s value.Specifier) *Trie { return s.Payload().(*SetPayload).t }

// SetWith inserts elem into s (spec §4.2 `with`), honoring the clone/mutate
// discipline: unique reports whether s's Handle had use-count 1.
func SetWith(t *Trie, unique bool, elem value.Specifier) *Trie {
	h := value.Hash(elem)
	return t.Put(unique, h, elem, func(old *Cell) *Cell {
		if old != nil {
			elem.Unmark()
			return old
		}
		elem.Mark()
		return &Cell{Hash: h, Key: elem, Val: elem}
	})
}

// SetLess removes elem from s (spec §4.2 `less`).
func SetLess(t *Trie, unique bool, elem value.Specifier) *Trie {
	return t.Remove(unique, value.Hash(elem), elem)
}

// SetHas reports membership.
func SetHas(t *Trie, elem value.Specifier) bool {
	return t.Get(value.Hash(elem), elem) != nil
}

// setOp folds a as base and combines with b according to keep(inA, inB).
func setOp(a, b *Trie, keep func(inA, inB bool) bool) *Trie {
	out := Empty()
	seen := make(map[uint32]bool)
	add := func(elem value.Specifier, inA, inB bool) {
		if keep(inA, inB) {
			out = SetWith(out, true, elem)
		}
	}
	a.Range(func(c *Cell) bool {
		inB := b.Get(c.Hash, c.Key) != nil
		add(c.Key, true, inB)
		seen[c.Hash] = true
		return true
	})
	b.Range(func(c *Cell) bool {
		if a.Get(c.Hash, c.Key) == nil {
			add(c.Key, false, true)
		}
		return true
	})
	return out
}

func Union(a, b *Trie) *Trie        { return setOp(a, b, func(x, y bool) bool { return x || y }) }
func Intersection(a, b *Trie) *Trie { return setOp(a, b, func(x, y bool) bool { return x && y }) }
func Difference(a, b *Trie) *Trie   { return setOp(a, b, func(x, y bool) bool { return x && !y }) }
func SymDifference(a, b *Trie) *Trie {
	return setOp(a, b, func(x, y bool) bool { return x != y })
}

// MapPayload is a SETL2 map: same Trie shape as a set, but cells carry
// either a single range Val or a nested Multi value-set.
type MapPayload struct{ t *Trie }

func (m *MapPayload) Kind() value.Form { return value.FormMap }
func (m *MapPayload) HashCode() uint32 { return m.t.HashCode() }
func (m *MapPayload) Release()         { m.t.release() }
func (m *MapPayload) Trie() *Trie      { return m.t }

func (m *MapPayload) EqualPayload(other value.Payload) bool {
	o, ok := other.(*MapPayload)
	if !ok || o.t.Len() != m.t.Len() || o.t.CellCount() != m.t.CellCount() {
		return false
	}
	eq := true
	m.t.Range(func(c *Cell) bool {
		oc := o.t.Get(c.Hash, c.Key)
		if oc == nil {
			eq = false
			return false
		}
		if c.Multi != nil || oc.Multi != nil {
			if c.Multi == nil || oc.Multi == nil || !(&SetPayload{t: c.Multi}).EqualPayload(&SetPayload{t: oc.Multi}) {
				eq = false
				return false
			}
			return true
		}
		if !value.Equal(c.Val, oc.Val) {
			eq = false
			return false
		}
		return true
	})
	return eq
}

// EmptyMap returns a specifier holding the empty map.
func EmptyMap() value.Specifier {
	return value.FromHandle(value.FormMap, value.NewHandle(&MapPayload{t: Empty()}))
}

func AsMap(s value.Specifier) *Trie { return s.Payload().(*MapPayload).t }

// NewMap wraps an already-built *Trie as a map specifier (used by
// internal/vm's `lessf`/`with` map-mutation opcodes).
func NewMap(t *Trie) value.Specifier {
	return value.FromHandle(value.FormMap, value.NewHandle(&MapPayload{t: t}))
}

// MapWithPair inserts the pair (domain, rng) into t, turning the cell
// multi-valued if domain is already present with a different value (spec
// §4.3 "two-valued cells become multi-val cells"; spec §8 map pair
// semantics).
func MapWithPair(t *Trie, unique bool, domain, rng value.Specifier) *Trie {
	h := value.Hash(domain)
	return t.Put(unique, h, domain, func(old *Cell) *Cell {
		if old == nil {
			domain.Mark()
			rng.Mark()
			return &Cell{Hash: h, Key: domain, Val: rng}
		}
		domain.Unmark()
		if old.Multi != nil {
			nm := old.Multi.shallowCloneRef()
			nm = SetWith(nm, false, rng)
			return &Cell{Hash: h, Key: old.Key, Multi: nm}
		}
		if value.Equal(old.Val, rng) {
			rng.Unmark()
			return old
		}
		ms := Empty()
		old.Val.Mark() // keep old.Val alive inside the new multi-set
		ms = SetWith(ms, true, old.Val)
		ms = SetWith(ms, true, rng)
		return &Cell{Hash: h, Key: old.Key, Multi: ms}
	})
}

// MapRemoveDomain removes domain entirely (spec §3 "assigning omega to a
// map domain element removes the pair").
func MapRemoveDomain(t *Trie, unique bool, domain value.Specifier) *Trie {
	return t.Remove(unique, value.Hash(domain), domain)
}

// MapGet implements `m(x)`: omega if absent or multi-valued (spec §8 map
// pair semantics: "yields Ω if x was multi-valued").
func MapGet(t *Trie, domain value.Specifier) value.Specifier {
	c := t.Get(value.Hash(domain), domain)
	if c == nil || c.Multi != nil {
		return value.Omega
	}
	return c.Val
}

// MapGetSet implements `m{x}`: always a set, possibly empty/singleton/large
// (spec §4.4, §8).
func MapGetSet(t *Trie, domain value.Specifier) *Trie {
	c := t.Get(value.Hash(domain), domain)
	if c == nil {
		return Empty()
	}
	if c.Multi != nil {
		return c.Multi
	}
	return SetWith(Empty(), true, c.Val)
}

// ToMap implements the reverse coercion spec §4.4 describes for `f(x)` when
// f is a set: treat it as a relation of [domain, range] pairs and build the
// equivalent map, preserving multi-valued domains the same way a literal
// map construction would (spec §8 map pair semantics).
func ToMap(t *Trie) *Trie {
	out := Empty()
	t.Range(func(c *Cell) bool {
		if c.Key.Form() != value.FormTuple || AsTuple(c.Key).Len() != 2 {
			return true
		}
		pair := AsTuple(c.Key)
		out = MapWithPair(out, true, pair.Get(1), pair.Get(2))
		return true
	})
	return out
}

// ToSet implements the lossless map-to-set coercion used when a map is fed
// to a set operator (spec §4.2: "a map used as a set first coerces via a
// lossless 'to-set' projection that preserves domain×range pairs").
func ToSet(t *Trie) *Trie {
	out := Empty()
	t.Range(func(c *Cell) bool {
		if c.Multi != nil {
			c.Multi.Range(func(mc *Cell) bool {
				out = SetWith(out, true, NewPair(c.Key, mc.Key))
				return true
			})
			return true
		}
		out = SetWith(out, true, NewPair(c.Key, c.Val))
		return true
	})
	return out
}
