// Package trie implements the persistent hash trie shared by sets, maps,
// and objects (spec §3 "Set / object / map hash-trie", §4.3 "Aggregate
// Mutation Protocol"). Tuples use the separate length-indexed radix tree in
// radix.go.
//
// Grounded on internal/vm/globals_map.go's HAMT (bitmap-indexed nodes, FNV
// hashing, clone-on-write put), generalized from an always-copying
// persistent map into a structure that mutates in place when its Header is
// uniquely owned and otherwise clones only the spine being written, with an
// explicit height field driving spec's expand/contract thresholds.
package trie

import "github.com/setl2-lang/setl2vm/internal/value"

// branchBits/branchSize fix the number of hash bits each trie level
// consumes (spec §4.3: "Each level consumes a fixed number of hash bits").
const (
	branchBits = 5
	branchSize = 1 << branchBits // 32, spec's SET_HASH_SIZE
	branchMask = branchSize - 1

	// clashSize bounds how many cells a leaf bucket holds before the trie
	// grows a level (spec §4.3 expansion threshold).
	clashSize = 4
)

// Cell is one trie leaf entry. For a set, Val mirrors Key and Multi is nil.
// For a map, Key is the domain element and either Val holds a single range
// value or Multi holds a *Trie-backed value set (spec §4.3 "multi-val
// cells"). For an object, Key is the instance-variable slot index encoded
// as a short-integer specifier and Val is the slot's current value.
type Cell struct {
	Hash  uint32
	Key   value.Specifier
	Val   value.Specifier
	Multi *Trie // non-nil for a multi-valued map cell; Val is unused then
}

// pairCount reports how many (domain, range) pairs this cell contributes to
// a map's cardinality (spec §4.3: "the root cardinality counts the number
// of pairs, not the number of cells").
func (c *Cell) pairCount() int {
	if c.Multi != nil {
		return c.Multi.cellCount
	}
	return 1
}

func (c *Cell) release() {
	c.Key.Unmark()
	c.Val.Unmark()
	if c.Multi != nil {
		c.Multi.release()
	}
}

// node is one interior level of the trie: each of its branchSize slots is
// nil, a *node (deeper level), or a bucket ([]*Cell, sorted by ascending
// Hash as spec §3 requires: "clash lists of cells ordered by ascending hash
// code").
type node struct {
	slots [branchSize]interface{}
}

func (n *node) clone() *node {
	nn := &node{}
	nn.slots = n.slots
	return nn
}

// Trie is the root header: cardinality, height, incremental hash, and cell
// count, exactly as spec §3 describes.
type Trie struct {
	root      *node
	height    int
	count     int // cardinality: number of pairs/elements
	cellCount int // number of leaf Cells (<= count; < for multi-valued maps)
	hash      uint32
}

// Empty returns a new, empty trie.
func Empty() *Trie { return &Trie{} }

func (t *Trie) Len() int       { return t.count }
func (t *Trie) CellCount() int { return t.cellCount }
func (t *Trie) HashCode() uint32 { return t.hash }
func (t *Trie) Height() int    { return t.height }

// shallowCloneRef is used when copying a Cell that embeds a nested Trie (a
// multi-valued map cell's value set): the nested trie's nodes are shared,
// not duplicated, until actually mutated.
func (t *Trie) shallowCloneRef() *Trie {
	nt := *t
	return &nt
}

// Release tears down every cell the trie owns, unmarking their keys and
// values (and recursing into nested multi-valued cell tries). Exported for
// payload kinds (internal/object's instance-variable trie) that live
// outside this package but still need to release a bare *Trie they embed
// directly rather than through SetPayload/MapPayload.
func (t *Trie) Release() { t.release() }

func (t *Trie) release() {
	if t.root != nil {
		releaseNode(t.root)
	}
}

func releaseNode(n *node) {
	for _, s := range n.slots {
		switch v := s.(type) {
		case *node:
			releaseNode(v)
		case []*Cell:
			for _, c := range v {
				c.release()
			}
		}
	}
}

// Get looks up hash/key, returning the matching cell or nil.
func (t *Trie) Get(hash uint32, key value.Specifier) *Cell {
	if t.root == nil {
		return nil
	}
	n := t.root
	for d := 0; d < t.height; d++ {
		idx := (hash >> (uint(d) * branchBits)) & branchMask
		switch v := n.slots[idx].(type) {
		case *node:
			n = v
		default:
			return findInSlot(v, hash, key)
		}
	}
	return findInSlot(n.slots[(hash>>(uint(t.height)*branchBits))&branchMask], hash, key)
}

func findInSlot(slot interface{}, hash uint32, key value.Specifier) *Cell {
	bucket, _ := slot.([]*Cell)
	for _, c := range bucket {
		if c.Hash == hash && value.Equal(c.Key, key) {
			return c
		}
	}
	return nil
}

// Put inserts or replaces the cell for (hash, key) with newCell, in place if
// unique is true (the aggregate is uniquely owned) or by cloning the spine
// otherwise (spec §4.3 step 1-2). It returns the resulting trie (t itself
// when unique) and fires expand/contract per spec §4.3 step 5.
func (t *Trie) Put(unique bool, hash uint32, key value.Specifier, build func(old *Cell) *Cell) *Trie {
	var nt *Trie
	if unique {
		nt = t
	} else {
		cp := *t
		nt = &cp
	}

	old := t.Get(hash, key)
	var oldHash uint32
	oldPairs := 0
	if old != nil {
		oldHash = cellContribHash(old)
		oldPairs = old.pairCount()
	}

	newCell := build(old)
	newHash := cellContribHash(newCell)
	newPairs := newCell.pairCount()

	nt.root, nt.height = putRec(nt.root, nt.height, unique, hash, newCell)
	nt.hash = nt.hash ^ oldHash ^ newHash
	nt.count = nt.count - oldPairs + newPairs
	if old == nil {
		nt.cellCount++
	}

	return nt.maybeExpand(unique)
}

// Remove deletes the cell for (hash, key) if present, following the same
// unique/clone discipline as Put.
func (t *Trie) Remove(unique bool, hash uint32, key value.Specifier) *Trie {
	old := t.Get(hash, key)
	if old == nil {
		if unique {
			return t
		}
		cp := *t
		return &cp
	}

	var nt *Trie
	if unique {
		nt = t
	} else {
		cp := *t
		nt = &cp
	}

	nt.root = removeRec(nt.root, nt.height, unique, hash, key)
	nt.hash ^= cellContribHash(old)
	nt.count -= old.pairCount()
	nt.cellCount--
	old.release()

	return nt.maybeContract(unique)
}

// cellContribHash is the per-cell hash contribution XORed into the root
// hash (spec §4.3 step 3; spec §3 "incremental hash code computed as the
// XOR of per-element hash codes").
func cellContribHash(c *Cell) uint32 {
	if c == nil {
		return 0
	}
	h := value.Hash(c.Key)
	if c.Multi != nil {
		h ^= c.Multi.hash
	} else {
		h ^= value.Hash(c.Val)
	}
	return h
}

func putRec(n *node, height int, unique bool, hash uint32, newCell *Cell) (*node, int) {
	if n == nil {
		n = &node{}
	} else if !unique {
		n = n.clone()
	}
	cur := n
	for d := 0; d < height; d++ {
		idx := (hash >> (uint(d) * branchBits)) & branchMask
		child, _ := cur.slots[idx].(*node)
		if child == nil {
			child = &node{}
		} else if !unique {
			child = child.clone()
		}
		cur.slots[idx] = child
		cur = child
	}
	idx := (hash >> (uint(height) * branchBits)) & branchMask
	bucket, _ := cur.slots[idx].([]*Cell)
	cur.slots[idx] = upsertBucket(bucket, newCell, unique)
	return n, height
}

func upsertBucket(bucket []*Cell, newCell *Cell, unique bool) []*Cell {
	for i, c := range bucket {
		if c.Hash == newCell.Hash && value.Equal(c.Key, newCell.Key) {
			if unique {
				c.Key.Unmark()
				c.Val.Unmark()
				bucket[i] = newCell
				return bucket
			}
			out := make([]*Cell, len(bucket))
			copy(out, bucket)
			out[i] = newCell
			return out
		}
	}
	// insert keeping ascending-hash order (spec §3).
	pos := len(bucket)
	for i, c := range bucket {
		if c.Hash > newCell.Hash {
			pos = i
			break
		}
	}
	out := make([]*Cell, len(bucket)+1)
	copy(out, bucket[:pos])
	out[pos] = newCell
	copy(out[pos+1:], bucket[pos:])
	return out
}

func removeRec(n *node, height int, unique bool, hash uint32, key value.Specifier) *node {
	if n == nil {
		return nil
	}
	if !unique {
		n = n.clone()
	}
	return removeDescend(n, height, unique, hash, key)
}

func removeDescend(n *node, height int, unique bool, hash uint32, key value.Specifier) *node {
	// Walk the path iteratively, cloning non-unique nodes, then remove at leaf.
	type frame struct {
		n   *node
		idx uint32
	}
	var path []frame
	cur := n
	for d := 0; d < height; d++ {
		idx := (hash >> (uint(d) * branchBits)) & branchMask
		path = append(path, frame{cur, idx})
		child, _ := cur.slots[idx].(*node)
		if child == nil {
			return n
		}
		if !unique {
			child = child.clone()
			cur.slots[idx] = child
		}
		cur = child
	}
	leafIdx := (hash >> (uint(height) * branchBits)) & branchMask
	bucket, _ := cur.slots[leafIdx].([]*Cell)
	cur.slots[leafIdx] = removeFromBucket(bucket, hash, key)
	return n
}

func removeFromBucket(bucket []*Cell, hash uint32, key value.Specifier) []*Cell {
	for i, c := range bucket {
		if c.Hash == hash && value.Equal(c.Key, key) {
			out := make([]*Cell, 0, len(bucket)-1)
			out = append(out, bucket[:i]...)
			out = append(out, bucket[i+1:]...)
			return out
		}
	}
	return bucket
}

// maxCardinality returns the trie-height invariant ceiling of spec §8:
// "cardinality <= (SET_HASH_SIZE ^ (height+1)) * clash_size".
func maxCardinality(height int) int {
	cap := 1
	for i := 0; i < height+1; i++ {
		cap *= branchSize
	}
	return cap * clashSize
}

func (t *Trie) maybeExpand(unique bool) *Trie {
	for t.cellCount > maxCardinality(t.height) {
		t.rehash(t.height+1, unique)
		unique = true // after one rehash the new structure is exclusively ours
	}
	return t
}

func (t *Trie) maybeContract(unique bool) *Trie {
	for t.height > 0 && t.cellCount < maxCardinality(t.height-1) {
		t.rehash(t.height-1, unique)
		unique = true
	}
	return t
}

// rehash rebuilds the whole trie at a new height by walking every existing
// cell and reinserting it (spec §4.3: "Expansion triggers... contraction
// triggers..."). This is a global structural event, not a per-mutation cost.
func (t *Trie) rehash(newHeight int, unique bool) {
	var cells []*Cell
	if t.root != nil {
		collect(t.root, &cells)
	}
	nt := &Trie{height: newHeight}
	for _, c := range cells {
		nt.root, nt.height = putRec(nt.root, nt.height, true, c.Hash, c)
	}
	t.root = nt.root
	t.height = newHeight
}

func collect(n *node, out *[]*Cell) {
	for _, s := range n.slots {
		switch v := s.(type) {
		case *node:
			collect(v, out)
		case []*Cell:
			*out = append(*out, v...)
		}
	}
}

// Cells returns a flat snapshot of every cell in the trie, in the same
// (implementation-defined) order Range visits them. The iterator engine
// (internal/iterator) uses this as its cursor: since a persistent trie's
// nodes are never mutated once shared (every mutator clones before
// writing when the header is not uniquely owned), a snapshot taken while
// holding a mark on the source stays valid for the iterator's whole
// single pass even if another holder of the same trie mutates it
// afterward (spec §4.6 "Persistence under sharing").
func (t *Trie) Cells() []*Cell {
	var out []*Cell
	t.Range(func(c *Cell) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Range iterates every cell in trie order (ascending hash within and across
// buckets is not globally guaranteed across levels, only within one bucket;
// iteration order is otherwise implementation-defined, as spec's iterator
// engine never promises any particular element order for sets/maps).
func (t *Trie) Range(f func(*Cell) bool) bool {
	if t.root == nil {
		return true
	}
	return rangeNode(t.root, f)
}

func rangeNode(n *node, f func(*Cell) bool) bool {
	for _, s := range n.slots {
		switch v := s.(type) {
		case *node:
			if !rangeNode(v, f) {
				return false
			}
		case []*Cell:
			for _, c := range v {
				if !f(c) {
					return false
				}
			}
		}
	}
	return true
}
