package trie

import "github.com/setl2-lang/setl2vm/internal/value"

// TupleTrie is the length-indexed radix tree backing tuples (spec §3
// "Tuple trie"). Unlike the hash trie, indexing is by position rather than
// hash, so growing height is an O(1) "wrap the old root as the new root's
// first child" operation and shrinking is its inverse, rather than the
// hash trie's full rehash.
//
// Indexing is most-significant-digit first: at depth d (0 at the root) a
// node consumes bits [(height-d)*branchBits, (height-d+1)*branchBits) of
// the zero-based index i-1. This makes "old root becomes child 0 of a
// fresh, taller root" valid on growth, since every existing index's new
// top digit is zero.
type TupleTrie struct {
	root   *node
	height int
	length int
	hash   uint32
}

func EmptyTuple() *TupleTrie { return &TupleTrie{} }

func (t *TupleTrie) Len() int         { return t.length }
func (t *TupleTrie) HashCode() uint32 { return t.hash }
func (t *TupleTrie) Height() int      { return t.height }

func (t *TupleTrie) release() {
	if t.root != nil {
		releaseTupleNode(t.root, t.height, 0)
	}
}

func releaseTupleNode(n *node, height, depth int) {
	for _, s := range n.slots {
		if s == nil {
			continue
		}
		if depth == height {
			s.(*value.Specifier).Unmark()
			continue
		}
		releaseTupleNode(s.(*node), height, depth+1)
	}
}

// digit extracts the digit a node at the given depth (0 == root) consumes,
// for a tree of the given height, from zero-based index idx.
func digit(idx, height, depth int) uint32 {
	shift := uint((height - depth) * branchBits)
	return (uint32(idx) >> shift) & branchMask
}

func capacityFor(height int) int {
	cap := 1
	for i := 0; i < height+1; i++ {
		cap *= branchSize
	}
	return cap
}

// Get returns the element at 1-based index i, or Omega if absent/out of
// range (spec §4.4 tuple indexed access).
func (t *TupleTrie) Get(i int) value.Specifier {
	if i < 1 || i > t.length || t.root == nil {
		return value.Omega
	}
	idx := i - 1
	n := t.root
	for d := 0; d < t.height; d++ {
		child, _ := n.slots[digit(idx, t.height, d)].(*node)
		if child == nil {
			return value.Omega
		}
		n = child
	}
	leaf, _ := n.slots[digit(idx, t.height, t.height)].(*value.Specifier)
	if leaf == nil {
		return value.Omega
	}
	return *leaf
}

// Set assigns val at 1-based index i, implementing the full append/overwrite/
// shrink behavior of spec §3 "Tuple trie" and §4.2 "Trailing-omega elision".
// unique indicates whether t is safe to mutate in place.
func (t *TupleTrie) Set(unique bool, i int, val value.Specifier) *TupleTrie {
	var nt *TupleTrie
	if unique {
		nt = t
	} else {
		cp := *t
		nt = &cp
	}

	if val.IsOmega() {
		return nt.setOmega(unique, i)
	}

	// Grow height to cover i if necessary: O(1), the old root becomes the
	// new root's first child since every existing index's new top digit
	// is zero.
	for i > capacityFor(nt.height) {
		newRoot := &node{}
		newRoot.slots[0] = nt.root
		nt.root = newRoot
		nt.height++
	}

	idx := i - 1
	nt.root = setRec(nt.root, nt.height, 0, unique, idx, val, &nt.hash)
	if i > nt.length {
		nt.length = i
	}
	return nt
}

func setRec(n *node, height, depth int, unique bool, idx int, val value.Specifier, hash *uint32) *node {
	if n == nil {
		n = &node{}
	} else if !unique {
		n = n.clone()
	}
	slot := digit(idx, height, depth)
	if depth == height {
		old, _ := n.slots[slot].(*value.Specifier)
		if old != nil {
			*hash ^= value.Hash(*old)
			old.Unmark()
		}
		val.Mark()
		leaf := val
		n.slots[slot] = &leaf
		*hash ^= value.Hash(val)
		return n
	}
	child, _ := n.slots[slot].(*node)
	n.slots[slot] = setRec(child, height, depth+1, unique, idx, val, hash)
	return n
}

// setOmega implements assignment of Ω at index i: removes the leaf (if
// present) without affecting length unless i is the current last index, in
// which case it triggers the shrink pass of spec §3.
func (t *TupleTrie) setOmega(unique bool, i int) *TupleTrie {
	if i < 1 || i > t.length || t.root == nil {
		return t
	}
	idx := i - 1
	t.root = clearRec(t.root, t.height, 0, unique, idx, &t.hash)
	if i == t.length {
		t.shrinkFrom(i - 1)
	}
	return t
}

func clearRec(n *node, height, depth int, unique bool, idx int, hash *uint32) *node {
	if n == nil {
		return nil
	}
	if !unique {
		n = n.clone()
	}
	slot := digit(idx, height, depth)
	if depth == height {
		old, _ := n.slots[slot].(*value.Specifier)
		if old != nil {
			*hash ^= value.Hash(*old)
			old.Unmark()
		}
		n.slots[slot] = nil
		return n
	}
	child, _ := n.slots[slot].(*node)
	n.slots[slot] = clearRec(child, height, depth+1, unique, idx, hash)
	return n
}

// shrinkFrom walks leftward from 1-based index `from` looking for the
// rightmost remaining present element, then collapses height while the new
// length still fits a shorter tree (spec §3 shrink pass).
func (t *TupleTrie) shrinkFrom(from int) {
	newLen := 0
	for i := from; i >= 1; i-- {
		if !t.Get(i).IsOmega() {
			newLen = i
			break
		}
	}
	t.length = newLen
	for t.height > 0 && capacityFor(t.height-1) >= t.length {
		if t.root == nil {
			t.height--
			continue
		}
		child, isNode := t.root.slots[0].(*node)
		if isNode {
			t.root = child
		} else if t.root.slots[0] == nil {
			t.root = nil
		} else {
			break
		}
		t.height--
	}
}

// Append adds val at index length+1 (spec end-to-end scenarios 2/3).
func (t *TupleTrie) Append(unique bool, val value.Specifier) *TupleTrie {
	return t.Set(unique, t.length+1, val)
}

// Range iterates present (index, value) pairs in ascending index order.
func (t *TupleTrie) Range(f func(i int, v value.Specifier) bool) {
	for i := 1; i <= t.length; i++ {
		v := t.Get(i)
		if v.IsOmega() {
			continue
		}
		if !f(i, v) {
			return
		}
	}
}

// TuplePayload wraps a TupleTrie as a value.Payload.
type TuplePayload struct{ t *TupleTrie }

func (p *TuplePayload) Kind() value.Form { return value.FormTuple }
func (p *TuplePayload) HashCode() uint32 { return p.t.HashCode() }
func (p *TuplePayload) Release()         { p.t.release() }
func (p *TuplePayload) Trie() *TupleTrie { return p.t }

func (p *TuplePayload) EqualPayload(other value.Payload) bool {
	o, ok := other.(*TuplePayload)
	if !ok || o.t.Len() != p.t.Len() {
		return false
	}
	for i := 1; i <= p.t.Len(); i++ {
		if !value.Equal(p.t.Get(i), o.t.Get(i)) {
			return false
		}
	}
	return true
}

// NewTuple builds a tuple specifier from elements, eliding trailing omegas
// (spec §4.2 "Trailing-omega elision").
func NewTuple(elems ...value.Specifier) value.Specifier {
	tt := EmptyTuple()
	for i, e := range elems {
		tt = tt.Set(true, i+1, e)
	}
	return value.FromHandle(value.FormTuple, value.NewHandle(&TuplePayload{t: tt}))
}

// NewPair builds the 2-tuple [a, b], used by map/set coercions (spec §4.2).
func NewPair(a, b value.Specifier) value.Specifier {
	return NewTuple(a, b)
}

// AsTuple returns the underlying *TupleTrie for a FormTuple specifier.
func AsTuple(s value.Specifier) *TupleTrie { return s.Payload().(*TuplePayload).t }

// WrapTuple wraps an already-built *TupleTrie as a tuple specifier, used by
// internal/vm's in-place tuple mutation opcodes (sof/sslice/append) which
// operate on a TupleTrie obtained via AsTuple and then need to write the
// (possibly same, possibly cloned) result back into a specifier.
func WrapTuple(t *TupleTrie) value.Specifier {
	return value.FromHandle(value.FormTuple, value.NewHandle(&TuplePayload{t: t}))
}
