// Assignment opcode wiring (spec §4.5): `target := source` is a plain
// mark/unmark copy; `sof`/`sofa`/`sslice`/`send`/`erase` mutate an
// aggregate in place, each falling back to the aggregate's class if it's an
// object. Grounded on the teacher's lvalue-assignment lowering in
// internal/evaluator/statements_assign.go, generalized from Go maps/slices
// to the copy-on-write trie mutation protocol of internal/trie.
//
// Operand convention: A is always the mutated aggregate's own operand (read
// for its current value, then written back with the mutated result);
// B/C carry the key/index and the value being stored. sslice additionally
// reads its end index from the Extra operand.
package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

func (in *Interpreter) execAssign(pc int, instr bytecode.Instruction) error {
	switch instr.Op {
	case bytecode.OpAssign:
		storeCopy(instr.A, read(instr.B))
		return nil
	case bytecode.OpSof, bytecode.OpErase:
		return in.execSof(instr)
	case bytecode.OpSofa:
		return in.execSofa(instr)
	case bytecode.OpSslice:
		return in.execSreplace(pc, instr, true)
	case bytecode.OpSend:
		return in.execSreplace(pc, instr, false)
	default:
		return vmerr.Typef("unhandled assignment opcode %s", instr.Op)
	}
}

// unique reports whether agg's heap handle is safe to mutate in place
// without cloning (spec §4.3's copy-on-write protocol): an inline value
// (no handle) has no structure to share, so it's trivially unique.
func unique(agg value.Specifier) bool {
	h := agg.Handle()
	return h == nil || !h.Shared()
}

// execSof implements both `f(x) := v` (OpSof) and its spec-preserved
// near-duplicate `p_erase` (OpErase): map domain put (or removal, when v is
// omega), tuple indexed set, string char set (OpSof only; OpErase leaves a
// string unchanged), falling back to an object's m_sof method.
func (in *Interpreter) execSof(instr bytecode.Instruction) error {
	agg := read(instr.A)
	key := read(instr.B)
	val := read(instr.C)

	if _, handled, err := in.objectFallback(agg, object.OpSof, []value.Specifier{key, val}); handled {
		return err
	}

	switch agg.Form() {
	case value.FormMap:
		u := unique(agg)
		var newT *trie.Trie
		if val.IsOmega() {
			newT = trie.MapRemoveDomain(trie.AsMap(agg), u, key)
		} else {
			newT = trie.MapWithPair(trie.AsMap(agg), u, key, val)
		}
		store(instr.A, trie.NewMap(newT))
	case value.FormTuple:
		idx, err := value.NormalizeIndex(int(key.ShortIntValue()), trie.AsTuple(agg).Len()+1)
		if err != nil {
			return err
		}
		newTT := trie.AsTuple(agg).Set(unique(agg), idx, val)
		store(instr.A, trie.WrapTuple(newTT))
	case value.FormString:
		if instr.Op == bytecode.OpErase {
			return nil
		}
		newS, err := value.SetCharAt(agg, int(key.ShortIntValue()), val)
		if err != nil {
			return err
		}
		store(instr.A, newS)
	default:
		return vmerr.Typef("sof requires a map, tuple, or string, got %s", agg.Form())
	}
	return nil
}

// execSofa implements `f{x} := s` (OpSofa): s, an arbitrary set, replaces
// the full range-set associated with domain x in a map, collapsing to a
// single-valued cell when s is a singleton and removing the domain entirely
// when s is empty.
func (in *Interpreter) execSofa(instr bytecode.Instruction) error {
	agg := read(instr.A)
	key := read(instr.B)
	rangeSet := read(instr.C)

	if _, handled, err := in.objectFallback(agg, object.OpSofa, []value.Specifier{key, rangeSet}); handled {
		return err
	}
	if agg.Form() != value.FormMap {
		return vmerr.Typef("sofa requires a map, got %s", agg.Form())
	}
	u := unique(agg)
	t := trie.MapRemoveDomain(trie.AsMap(agg), u, key)
	set := trie.AsSet(rangeSet)
	set.Range(func(c *trie.Cell) bool {
		t = trie.MapWithPair(t, true, key, c.Key)
		return true
	})
	store(instr.A, trie.NewMap(t))
	return nil
}

// execSreplace implements `f(i..j) := v` (OpSslice, reading j from the
// Extra operand) and `f(i..) := v` (OpSend, replacing the tail), both for
// tuples and strings: the addressed run is removed and v's elements spliced
// in at its place, shifting subsequent indices.
func (in *Interpreter) execSreplace(pc int, instr bytecode.Instruction, hasEnd bool) error {
	agg := read(instr.A)
	start := int(read(instr.B).ShortIntValue())
	val := read(instr.C)

	end := 0
	if hasEnd {
		end = int(read(bytecode.Extra(in.unit, pc)).ShortIntValue())
	}

	opKind := object.OpSend
	if hasEnd {
		opKind = object.OpSslice
	}
	args := []value.Specifier{value.ShortInt(int64(start)), val}
	if _, handled, err := in.objectFallback(agg, opKind, args); handled {
		return err
	}

	switch agg.Form() {
	case value.FormString:
		newS, err := value.SpliceString(agg, start, end, hasEnd, val)
		if err != nil {
			return err
		}
		store(instr.A, newS)
	case value.FormTuple:
		newT, err := spliceTuple(agg, start, end, hasEnd, val)
		if err != nil {
			return err
		}
		store(instr.A, newT)
	default:
		return vmerr.Typef("sslice/send requires a string or tuple, got %s", agg.Form())
	}
	return nil
}

// spliceTuple removes elements [start, end] (or [start, len] when !hasEnd)
// and splices replacement's elements in at start, shifting the remainder
// (spec §4.5 "substitute a run of ... tuple elements").
func spliceTuple(agg value.Specifier, start, end int, hasEnd bool, replacement value.Specifier) (value.Specifier, error) {
	tt := trie.AsTuple(agg)
	si, err := value.NormalizeIndex(start, tt.Len()+1)
	if err != nil {
		return value.Omega, err
	}
	ei := tt.Len()
	if hasEnd {
		ei, err = value.NormalizeIndex(end, tt.Len())
		if err != nil {
			return value.Omega, err
		}
	}
	if si > ei+1 {
		return value.Omega, vmerr.Domainf("splice start %d exceeds end+1 %d", si, ei+1)
	}

	out := trie.EmptyTuple()
	n := 1
	for i := 1; i < si; i++ {
		out = out.Set(true, n, tt.Get(i))
		n++
	}
	switch replacement.Form() {
	case value.FormTuple:
		trie.AsTuple(replacement).Range(func(_ int, v value.Specifier) bool {
			out = out.Set(true, n, v)
			n++
			return true
		})
	default:
		if !replacement.IsOmega() {
			out = out.Set(true, n, replacement)
			n++
		}
	}
	for i := ei + 1; i <= tt.Len(); i++ {
		out = out.Set(true, n, tt.Get(i))
		n++
	}
	return trie.WrapTuple(out), nil
}
