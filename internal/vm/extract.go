// Extraction/slicing opcode wiring (spec §4.4): `x(i)`, `x{i}`, `x(i..j)`,
// `x(i..)`, and the "of-then-remove" form, each falling back to a class
// method when the aggregate is an object (spec §4.9's m_of/m_ofset/m_slice/
// m_tail slots). Grounded on the teacher's index/slice expression evaluator
// in internal/evaluator/expressions_index.go, generalized from Go slices to
// the map/tuple/string forms spec §4.4 enumerates.
package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

func (in *Interpreter) execExtract(pc int, instr bytecode.Instruction) error {
	agg := read(instr.B)
	switch instr.Op {
	case bytecode.OpOf:
		return in.execOf(agg, instr)
	case bytecode.OpKof:
		return in.execKof(agg, instr)
	case bytecode.OpOfSet:
		return in.execOfSet(agg, instr)
	case bytecode.OpSlice:
		return in.execSlice(pc, agg, instr, true)
	case bytecode.OpTail:
		return in.execSlice(pc, agg, instr, false)
	default:
		return vmerr.Typef("unhandled extraction opcode %s", instr.Op)
	}
}

// objectFallback runs the class-method overload for opKind against agg if
// one is registered, reporting handled=false when agg isn't an object or
// its class has no such slot (the caller then applies the built-in rule).
func (in *Interpreter) objectFallback(agg value.Specifier, opKind object.OperatorKind, args []value.Specifier) (result value.Specifier, handled bool, err error) {
	if agg.Form() != value.FormObject {
		return value.Omega, false, nil
	}
	obj := object.AsObject(agg)
	idx := obj.Class.Operator(opKind)
	if idx < 0 {
		return value.Omega, false, vmerr.Classf("class %s has no %s overload", obj.Class.Name, opKind)
	}
	v, _, err := in.invokeMethodSlot(obj, idx, args)
	return v, true, err
}

func (in *Interpreter) execOf(agg value.Specifier, instr bytecode.Instruction) error {
	key := read(instr.C)
	if v, handled, err := in.objectFallback(agg, object.OpOf, []value.Specifier{key}); handled {
		if err != nil {
			return err
		}
		store(instr.A, v)
		return nil
	}
	switch agg.Form() {
	case value.FormMap:
		storeCopy(instr.A, trie.MapGet(trie.AsMap(agg), key))
	case value.FormSet:
		storeCopy(instr.A, trie.MapGet(trie.ToMap(trie.AsSet(agg)), key))
	case value.FormTuple:
		idx, err := value.NormalizeIndex(int(key.ShortIntValue()), trie.AsTuple(agg).Len())
		if err != nil {
			return err
		}
		storeCopy(instr.A, trie.AsTuple(agg).Get(idx))
	case value.FormString:
		v, err := value.CharAt(agg, int(key.ShortIntValue()))
		if err != nil {
			return err
		}
		store(instr.A, v)
	default:
		return vmerr.Typef("of requires a map, set, tuple, or string, got %s", agg.Form())
	}
	return nil
}

// execKof implements `f(x)` followed by removal of the domain entry (spec
// §4.4's "of-then-remove"): only meaningful for maps. The mutated map is
// written back into B, the aggregate's own operand.
func (in *Interpreter) execKof(agg value.Specifier, instr bytecode.Instruction) error {
	if agg.Form() != value.FormMap {
		return vmerr.Typef("kof requires a map, got %s", agg.Form())
	}
	key := read(instr.C)
	v := trie.MapGet(trie.AsMap(agg), key)
	unique := agg.Handle() == nil || !agg.Handle().Shared()
	newT := trie.MapRemoveDomain(trie.AsMap(agg), unique, key)
	storeCopy(instr.A, v)
	store(instr.B, trie.NewMap(newT))
	return nil
}

func (in *Interpreter) execOfSet(agg value.Specifier, instr bytecode.Instruction) error {
	key := read(instr.C)
	if v, handled, err := in.objectFallback(agg, object.OpOfSet, []value.Specifier{key}); handled {
		if err != nil {
			return err
		}
		store(instr.A, v)
		return nil
	}
	if agg.Form() != value.FormMap {
		return vmerr.Typef("ofset requires a map, got %s", agg.Form())
	}
	store(instr.A, trie.NewSet(trie.MapGetSet(trie.AsMap(agg), key)))
	return nil
}

// execSlice implements both `x(i..j)`/`x(i..)` (allowEnd) and `x(i..)`'s
// dedicated tail form (!allowEnd reads only a start index).
func (in *Interpreter) execSlice(pc int, agg value.Specifier, instr bytecode.Instruction, allowEnd bool) error {
	start := int(read(instr.C).ShortIntValue())
	hasEnd := false
	end := 0
	if allowEnd {
		if extra := bytecode.Extra(in.unit, pc); extra.Kind == bytecode.OperandSpecifier {
			hasEnd = true
			end = int(read(extra).ShortIntValue())
		}
	}

	opKind := object.OpSlice
	if !allowEnd {
		opKind = object.OpTail
	}
	args := []value.Specifier{value.ShortInt(int64(start))}
	if hasEnd {
		args = append(args, value.ShortInt(int64(end)))
	}
	if v, handled, err := in.objectFallback(agg, opKind, args); handled {
		if err != nil {
			return err
		}
		store(instr.A, v)
		return nil
	}

	switch agg.Form() {
	case value.FormString:
		v, err := value.Slice(agg, start, end, hasEnd)
		if err != nil {
			return err
		}
		store(instr.A, v)
	case value.FormTuple:
		v, err := tupleSlice(agg, start, end, hasEnd)
		if err != nil {
			return err
		}
		store(instr.A, v)
	default:
		return vmerr.Typef("slice/tail requires a string or tuple, got %s", agg.Form())
	}
	return nil
}

// tupleSlice implements tuple slicing the same way value.Slice does for
// strings (spec §4.4), since internal/value has no aggregate-shaped
// dependency on internal/trie to host this itself.
func tupleSlice(s value.Specifier, start, end int, hasEnd bool) (value.Specifier, error) {
	tt := trie.AsTuple(s)
	si, err := value.NormalizeIndex(start, tt.Len())
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
		return value.Omega, vmerr.Domainf("slice start %d exceeds end+1 %d", si, ei+1)
	}
	out := trie.EmptyTuple()
	for i, n := si, 1; i <= ei; i, n = i+1, n+1 {
		out = out.Set(true, n, tt.Get(i))
	}
	return trie.WrapTuple(out), nil
}
