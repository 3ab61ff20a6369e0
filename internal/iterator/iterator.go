// Package iterator implements the iterator engine of spec §4.6: one
// variant per (source kind, traversal mode) pair, single-pass, holding a
// shared reference (a mark) on the source aggregate so that in-place
// mutation elsewhere clones rather than disturbing an iterator in
// progress (spec §4.6 "Persistence under sharing", §8 testable property).
//
// Grounded on the teacher's range/enumeration support in
// internal/evaluator/expressions_range.go, generalized from Go
// slice/map iteration to the trie-snapshot cursor described in
// trie.Trie.Cells — valid here because a persistent trie's shared nodes
// are immutable until cloned by a writer, so a snapshot taken at
// start_X_iterator time remains a faithful single-pass view of the
// source as it stood then.
package iterator

import (
	"unsafe"

	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// Kind is the iterator kind tag of spec §4.6.
type Kind uint8

const (
	KindSet Kind = iota
	KindMap // domain-only: yields each domain element of a map, one per step
	KindTuple
	KindString
	KindPow
	KindNPow
	KindDomain // alias traversal used by `for x in domain m` sites; same as KindMap
	KindMapPair
	KindTuplePair
	KindAltTuplePair
	KindStringPair
	KindMapMulti
	KindObject
	KindObjectPair
	KindObjectMulti
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindMap, KindDomain:
		return "domain"
	case KindTuple:
		return "tuple"
	case KindString:
		return "string"
	case KindPow:
		return "pow"
	case KindNPow:
		return "npow"
	case KindMapPair:
		return "map-pair"
	case KindTuplePair:
		return "tuple-pair"
	case KindAltTuplePair:
		return "alt-tuple-pair"
	case KindStringPair:
		return "string-pair"
	case KindMapMulti:
		return "map-multi"
	case KindObject:
		return "object"
	case KindObjectPair:
		return "object-pair"
	case KindObjectMulti:
		return "object-multi"
	default:
		return "?"
	}
}

// pairItem is one flattened (primary, secondary) step, already expanded for
// multi-valued cells (spec §4.6: "multi iterators present each (domain,
// range-element-of-value-set) pair expanded from multi-valued map cells").
type pairItem struct {
	a, b value.Specifier
}

// Iterator is a first-class SETL2 iterator value (spec §4.6). It is
// single-pass and not restartable.
type Iterator struct {
	kind      Kind
	source    value.Specifier // marked for the iterator's lifetime
	singles   []value.Specifier
	pairs     []pairItem
	pos       int
	exhausted bool

	// powerset/n-powerset state: elems is the materialized element list of
	// the source set; mask/combo drive subset enumeration lazily so huge
	// sets don't force materializing every subset up front.
	elems []value.Specifier
	mask  uint64
	n     int
	combo []int
	total int64
	emitd int64
}

// Payload wraps an *Iterator as a value.Payload so it can flow through a
// Specifier (FormIterator) like any other first-class value.
type Payload struct{ It *Iterator }

func (p *Payload) Kind() value.Form  { return value.FormIterator }
func (p *Payload) HashCode() uint32  { return uint32(uintptr(unsafe.Pointer(p.It))) }
func (p *Payload) Release()          { p.It.Close() }
func (p *Payload) EqualPayload(other value.Payload) bool {
	o, ok := other.(*Payload)
	return ok && o.It == p.It
}

// NewSpecifier wraps it as a FormIterator specifier.
func NewSpecifier(it *Iterator) value.Specifier {
	return value.FromHandle(value.FormIterator, value.NewHandle(&Payload{It: it}))
}

// FromSpecifier returns the underlying *Iterator for a FormIterator specifier.
func FromSpecifier(s value.Specifier) *Iterator { return s.Payload().(*Payload).It }

// Source returns the iterator's source specifier (still marked).
func (it *Iterator) Source() value.Specifier { return it.source }

// Kind returns the iterator's kind tag.
func (it *Iterator) Kind() Kind { return it.kind }

func newBase(kind Kind, source value.Specifier) *Iterator {
	source.Mark()
	return &Iterator{kind: kind, source: source}
}

// Close releases the iterator's mark on its source. Callers (internal/vm)
// invoke this when an iterator value itself is unmarked to zero.
func (it *Iterator) Close() {
	it.source.Unmark()
}

// StartSetIterator implements `start_set_iterator` (spec §4.6).
func StartSetIterator(source value.Specifier) *Iterator {
	it := newBase(KindSet, source)
	for _, c := range trie.AsSet(source).Cells() {
		it.singles = append(it.singles, c.Key)
	}
	return it
}

// StartDomainIterator implements the map-domain iterator (kind "domain",
// spec §4.6's kind list). The source is read with trie.AsMap directly; no
// set-to-map coercion is done.
func StartDomainIterator(source value.Specifier) *Iterator {
	it := newBase(KindDomain, source)
	for _, c := range trie.AsMap(source).Cells() {
		it.singles = append(it.singles, c.Key)
	}
	return it
}

func expandMapCells(cells []*trie.Cell) []pairItem {
	var out []pairItem
	for _, c := range cells {
		if c.Multi != nil {
			for _, mc := range c.Multi.Cells() {
				out = append(out, pairItem{a: c.Key, b: mc.Key})
			}
			continue
		}
		out = append(out, pairItem{a: c.Key, b: c.Val})
	}
	return out
}

// StartMapPairIterator implements the `map-pair` kind: (domain, range)
// pairs, with multi-valued cells expanded to one pair per range element
// (spec §4.6).
func StartMapPairIterator(source value.Specifier) *Iterator {
	it := newBase(KindMapPair, source)
	it.pairs = expandMapCells(trie.AsMap(source).Cells())
	return it
}

// StartMapMultiIterator implements the `map-multi` kind tag. The spec's
// kind list names this distinctly from `map-pair` but describes only one
// expansion behavior for multi-valued cells, so this shares map-pair's
// semantics (documented in DESIGN.md under iterator-kind decisions).
func StartMapMultiIterator(source value.Specifier) *Iterator {
	it := newBase(KindMapMulti, source)
	it.pairs = expandMapCells(trie.AsMap(source).Cells())
	return it
}

// StartTupleIterator implements the `tuple` kind: every index 1..#t in
// order, including embedded (non-trailing) omegas as legitimate values.
func StartTupleIterator(source value.Specifier) *Iterator {
	it := newBase(KindTuple, source)
	tt := trie.AsTuple(source)
	for i := 1; i <= tt.Len(); i++ {
		it.singles = append(it.singles, tt.Get(i))
	}
	return it
}

// StartTuplePairIterator implements the `tuple-pair` kind: (index, value).
func StartTuplePairIterator(source value.Specifier) *Iterator {
	it := newBase(KindTuplePair, source)
	tt := trie.AsTuple(source)
	for i := 1; i <= tt.Len(); i++ {
		it.pairs = append(it.pairs, pairItem{a: value.ShortInt(int64(i)), b: tt.Get(i)})
	}
	return it
}

// StartAltTuplePairIterator implements the `alt-tuple-pair` kind: the
// mirrored (value, index) order used by the alternate for-loop binding
// form.
func StartAltTuplePairIterator(source value.Specifier) *Iterator {
	it := newBase(KindAltTuplePair, source)
	tt := trie.AsTuple(source)
	for i := 1; i <= tt.Len(); i++ {
		it.pairs = append(it.pairs, pairItem{a: tt.Get(i), b: value.ShortInt(int64(i))})
	}
	return it
}

// StartStringIterator implements the `string` kind: each character as a
// length-1 string, in order. Safe to snapshot eagerly: strings are
// immutable ropes (concatenation always builds a fresh one).
func StartStringIterator(source value.Specifier) *Iterator {
	it := newBase(KindString, source)
	text := source.Payload().(*value.StringPayload).Text()
	for _, r := range text {
		it.singles = append(it.singles, value.NewString(string(r)))
	}
	return it
}

// StartStringPairIterator implements the `string-pair` kind: (index, char).
func StartStringPairIterator(source value.Specifier) *Iterator {
	it := newBase(KindStringPair, source)
	text := source.Payload().(*value.StringPayload).Text()
	i := 1
	for _, r := range text {
		it.pairs = append(it.pairs, pairItem{a: value.ShortInt(int64(i)), b: value.NewString(string(r))})
		i++
	}
	return it
}

// StartObjectIterator implements the `object` kind: each occupied
// instance-variable slot index, in order (objects share the hash-trie
// implementation sets and maps use, spec §4.9).
func StartObjectIterator(source value.Specifier) *Iterator {
	it := newBase(KindObject, source)
	for _, c := range trie.AsMap(source).Cells() {
		it.singles = append(it.singles, c.Key)
	}
	return it
}

// StartObjectPairIterator implements `object-pair`: (slot index, value).
func StartObjectPairIterator(source value.Specifier) *Iterator {
	it := newBase(KindObjectPair, source)
	it.pairs = expandMapCells(trie.AsMap(source).Cells())
	return it
}

// StartObjectMultiIterator implements `object-multi`, kept distinct from
// object-pair for the same structural-parity reason as map-multi/map-pair.
func StartObjectMultiIterator(source value.Specifier) *Iterator {
	it := newBase(KindObjectMulti, source)
	it.pairs = expandMapCells(trie.AsMap(source).Cells())
	return it
}

// StartPowIterator implements the `pow` kind: every subset of source, as a
// set value, enumerated via a binary mask over the materialized element
// list (2^n subsets; n is expected small per spec's non-goals on
// performance at scale).
func StartPowIterator(source value.Specifier) (*Iterator, error) {
	it := newBase(KindPow, source)
	for _, c := range trie.AsSet(source).Cells() {
		it.elems = append(it.elems, c.Key)
	}
	if len(it.elems) > 62 {
		it.source.Unmark()
		return nil, vmerr.Resourcef("pow: source set too large to enumerate (%d elements)", len(it.elems))
	}
	it.total = int64(1) << uint(len(it.elems))
	return it, nil
}

// StartNPowIterator implements the `npow` kind: every subset of source of
// exactly size n, enumerated by combination index over the materialized
// element list (SETL2's documented NPOW restricts the power set to a
// fixed cardinality; no other source was found to confirm the exact
// semantics, so this is the Open Question decision recorded in
// DESIGN.md).
func StartNPowIterator(source value.Specifier, n int) (*Iterator, error) {
	it := newBase(KindNPow, source)
	for _, c := range trie.AsSet(source).Cells() {
		it.elems = append(it.elems, c.Key)
	}
	if n < 0 || n > len(it.elems) {
		it.source.Unmark()
		return nil, vmerr.Domainf("npow: size %d out of range for set of %d elements", n, len(it.elems))
	}
	it.n = n
	it.combo = make([]int, n)
	for i := range it.combo {
		it.combo[i] = i
	}
	if n == 0 {
		it.total = 1
	} else {
		it.total = -1 // sentinel: combo-walk driven, not index driven
	}
	return it, nil
}

// Next advances a single-valued iterator, implementing
// `X_iterator_next(target, source)` for the single/domain/tuple/string/
// object/pow/npow kinds. ok is false once the iterator is exhausted.
func (it *Iterator) Next() (v value.Specifier, ok bool) {
	switch it.kind {
	case KindPow:
		return it.nextPow()
	case KindNPow:
		return it.nextNPow()
	default:
		if it.pos >= len(it.singles) {
			it.exhausted = true
			return value.Omega, false
		}
		v = it.singles[it.pos]
		it.pos++
		return v, true
	}
}

// NextPair advances a pair iterator, implementing the dual-position form
// of `X_iterator_next` for map-pair/tuple-pair/alt-tuple-pair/string-pair/
// object-pair/*-multi kinds (spec §4.6: "Pair iterators fill two
// specifier positions").
func (it *Iterator) NextPair() (a, b value.Specifier, ok bool) {
	if it.pos >= len(it.pairs) {
		it.exhausted = true
		return value.Omega, value.Omega, false
	}
	p := it.pairs[it.pos]
	it.pos++
	return p.a, p.b, true
}

func (it *Iterator) nextPow() (value.Specifier, bool) {
	if it.mask >= uint64(it.total) {
		it.exhausted = true
		return value.Omega, false
	}
	s := trie.Empty()
	for i, e := range it.elems {
		if it.mask&(1<<uint(i)) != 0 {
			s = trie.SetWith(s, true, e)
		}
	}
	it.mask++
	return trie.NewSet(s), true
}

func (it *Iterator) nextNPow() (value.Specifier, bool) {
	if it.n == 0 {
		if it.emitd > 0 {
			it.exhausted = true
			return value.Omega, false
		}
		it.emitd++
		return trie.EmptySet(), true
	}
	if it.combo == nil {
		it.exhausted = true
		return value.Omega, false
	}
	s := trie.Empty()
	for _, idx := range it.combo {
		s = trie.SetWith(s, true, it.elems[idx])
	}
	advanceCombo(it)
	return trie.NewSet(s), true
}

// advanceCombo steps it.combo to the next n-subset of {0, ..., len(elems)-1}
// in lexicographic order, setting it.combo to nil once combinations are
// exhausted.
func advanceCombo(it *Iterator) {
	n := len(it.elems)
	k := it.n
	i := k - 1
	for i >= 0 && it.combo[i] == i+n-k {
		i--
	}
	if i < 0 {
		it.combo = nil
		return
	}
	it.combo[i]++
	for j := i + 1; j < k; j++ {
		it.combo[j] = it.combo[j-1] + 1
	}
}
