// Operator dispatch (spec §4.2): each overloadable operator first tries the
// built-in numeric/string/set rule, and falls back to a class method lookup
// (left operand's class, then the right operand's "_r" mirror slot) when an
// operand is an object. Grounded on the teacher's binary-op switch in
// internal/vm/vm_exec.go, generalized from Go-native numeric types to the
// short/big/real promotion ladder of internal/value.
package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// opKindFor maps a bytecode opcode to its object.OperatorKind slot, for the
// handful of opcodes that can fall back to a class method (spec §4.9's
// "fixed table of slot indices").
func opKindFor(op bytecode.OpCode) (object.OperatorKind, bool) {
	switch op {
	case bytecode.OpAdd:
		return object.OpAdd, true
	case bytecode.OpSub:
		return object.OpSub, true
	case bytecode.OpMul:
		return object.OpMul, true
	case bytecode.OpDiv:
		return object.OpDiv, true
	case bytecode.OpPow:
		return object.OpPow, true
	case bytecode.OpMod:
		return object.OpMod, true
	case bytecode.OpMin:
		return object.OpMin, true
	case bytecode.OpMax:
		return object.OpMax, true
	case bytecode.OpWith:
		return object.OpWith, true
	case bytecode.OpLess:
		return object.OpLess, true
	case bytecode.OpLessf:
		return object.OpLessf, true
	case bytecode.OpNpow:
		return object.OpNpow, true
	default:
		return 0, false
	}
}

// invokeOverload looks up and synchronously runs a class-method overload
// for op against (left, right), trying left's own slot first and then
// right's "_r" mirror slot (spec §4.9). ok is false if neither operand is an
// object or neither class defines the slot, meaning the caller should fall
// through to a type error.
func (in *Interpreter) invokeOverload(opKind object.OperatorKind, left, right value.Specifier) (result value.Specifier, ok bool, err error) {
	if left.Form() == value.FormObject {
		obj := object.AsObject(left)
		if idx := obj.Class.Operator(opKind); idx >= 0 {
			return in.invokeMethodSlot(obj, idx, []value.Specifier{right})
		}
	}
	if right.Form() == value.FormObject {
		obj := object.AsObject(right)
		if idx := obj.Class.OperatorMirror(opKind); idx >= 0 {
			return in.invokeMethodSlot(obj, idx, []value.Specifier{left})
		}
	}
	return value.Omega, false, nil
}

// invokeMethodSlot runs obj's method at slotIdx synchronously to completion
// and returns its result, used by every operator/extraction fallback path.
func (in *Interpreter) invokeMethodSlot(obj *object.Object, slotIdx int, args []value.Specifier) (value.Specifier, bool, error) {
	slot := obj.Class.Slots[slotIdx]
	if !slot.IsMethod {
		return value.Omega, false, nil
	}
	procRec, err := object.Menviron(obj.Class, slotIdx, obj)
	if err != nil {
		return value.Omega, false, err
	}
	var result value.Specifier
	depth := len(in.CallStack)
	err = in.Call(object.NewProcedure(procRec), args, &result, CallOptions{
		Self:       obj,
		Class:      obj.Class,
		WantReturn: true,
	})
	if err != nil {
		return value.Omega, true, err
	}
	if err := in.runUntilCReturn(depth); err != nil {
		return value.Omega, true, err
	}
	return result, true, nil
}

func (in *Interpreter) execArith(instr bytecode.Instruction) error {
	left, right := read(instr.B), read(instr.C)

	if opKind, ok := opKindFor(instr.Op); ok && (left.Form() == value.FormObject || right.Form() == value.FormObject) {
		if v, handled, err := in.invokeOverload(opKind, left, right); handled {
			if err != nil {
				return err
			}
			store(instr.A, v)
			return nil
		}
	}

	var result value.Specifier
	var err error
	switch instr.Op {
	case bytecode.OpAdd:
		result, err = arithOrConcat(left, right)
	case bytecode.OpSub:
		result, err = subOrDifference(left, right)
	case bytecode.OpMul:
		result, err = mulOrRepeat(left, right)
	case bytecode.OpDiv:
		result, err = value.Div(left, right)
	case bytecode.OpPow:
		result, err = value.Pow(left, right)
	case bytecode.OpMod:
		result, err = value.Mod(left, right)
	case bytecode.OpMin:
		result, err = value.Min(left, right)
	case bytecode.OpMax:
		result, err = value.Max(left, right)
	case bytecode.OpWith:
		result, err = in.withOp(left, right)
	case bytecode.OpLess:
		result, err = in.lessSetOp(left, right, false)
	case bytecode.OpLessf:
		result, err = in.lessSetOp(left, right, true)
	case bytecode.OpNpow:
		return vmerr.Typef("npow as a binary operator is not defined; use the npow iterator")
	default:
		return vmerr.Typef("unhandled arithmetic opcode %s", instr.Op)
	}
	if err != nil {
		return err
	}
	store(instr.A, result)
	return nil
}

// arithOrConcat implements overloaded `+`: numeric addition, string/tuple
// concatenation, or set union, keyed by the left operand's form (spec
// §4.2).
func arithOrConcat(a, b value.Specifier) (value.Specifier, error) {
	switch a.Form() {
	case value.FormString:
		if b.Form() != value.FormString {
			return value.Omega, vmerr.Typef("+ requires two strings, got %s and %s", a.Form(), b.Form())
		}
		return value.Concat(a, b), nil
	case value.FormSet:
		if b.Form() != value.FormSet {
			return value.Omega, vmerr.Typef("+ requires two sets, got %s and %s", a.Form(), b.Form())
		}
		return trie.NewSet(trie.Union(trie.AsSet(a), trie.AsSet(b))), nil
	case value.FormTuple:
		if b.Form() != value.FormTuple {
			return value.Omega, vmerr.Typef("+ requires two tuples, got %s and %s", a.Form(), b.Form())
		}
		return concatTuples(a, b), nil
	default:
		return value.Add(a, b)
	}
}

// subOrDifference implements overloaded `-`: set difference when both
// operands are sets, numeric subtraction otherwise (spec §4.2).
func subOrDifference(a, b value.Specifier) (value.Specifier, error) {
	if a.Form() == value.FormSet && b.Form() == value.FormSet {
		return trie.NewSet(trie.Difference(trie.AsSet(a), trie.AsSet(b))), nil
	}
	return value.Sub(a, b)
}

func concatTuples(a, b value.Specifier) value.Specifier {
	ta, tb := trie.AsTuple(a), trie.AsTuple(b)
	out := trie.EmptyTuple()
	ta.Range(func(_ int, v value.Specifier) bool {
		out = out.Append(true, v)
		return true
	})
	tb.Range(func(_ int, v value.Specifier) bool {
		out = out.Append(true, v)
		return true
	})
	return trie.NewTuple(flattenTuple(out)...)
}

func flattenTuple(t *trie.TupleTrie) []value.Specifier {
	out := make([]value.Specifier, 0, t.Len())
	t.Range(func(_ int, v value.Specifier) bool {
		out = append(out, v)
		return true
	})
	return out
}

// mulOrRepeat implements overloaded `*`: numeric multiplication, integer ×
// string/tuple repetition, or set intersection (spec §4.2).
func mulOrRepeat(a, b value.Specifier) (value.Specifier, error) {
	if a.Form() == value.FormShortInt && b.Form() == value.FormString {
		return value.Repeat(int(a.ShortIntValue()), b), nil
	}
	if a.Form() == value.FormSet && b.Form() == value.FormSet {
		return trie.NewSet(trie.Intersection(trie.AsSet(a), trie.AsSet(b))), nil
	}
	return value.Mul(a, b)
}

// withOp implements `with`: add an element to a set/map-domain/tuple-append,
// per spec §4.2's "with" aggregate-building overload.
func (in *Interpreter) withOp(agg, elem value.Specifier) (value.Specifier, error) {
	switch agg.Form() {
	case value.FormSet:
		return trie.NewSet(trie.SetWith(trie.AsSet(agg), true, elem)), nil
	case value.FormMap:
		pair, err := asPair(elem)
		if err != nil {
			return value.Omega, err
		}
		return trie.NewMap(trie.MapWithPair(trie.AsMap(agg), true, pair.Get(1), pair.Get(2))), nil
	case value.FormTuple:
		return trie.NewTuple(append(flattenTuple(trie.AsTuple(agg)), elem)...), nil
	default:
		return value.Omega, vmerr.Typef("with requires a set, map, or tuple, got %s", agg.Form())
	}
}

// asPair validates that elem is the 2-tuple [domain, range] a map's `with`
// expects (spec §8 map pair semantics: "m with [1,10]").
func asPair(elem value.Specifier) (*trie.TupleTrie, error) {
	if elem.Form() != value.FormTuple || trie.AsTuple(elem).Len() != 2 {
		return nil, vmerr.Typef("with on a map requires a 2-element tuple [domain, range], got %s", elem.Form())
	}
	return trie.AsTuple(elem), nil
}

// lessSetOp implements `less`/`lessf`: remove an element from a set, or (for
// lessf) remove a domain element from a map (spec §4.2).
func (in *Interpreter) lessSetOp(agg, elem value.Specifier, domainForm bool) (value.Specifier, error) {
	switch agg.Form() {
	case value.FormSet:
		return trie.NewSet(trie.SetLess(trie.AsSet(agg), true, elem)), nil
	case value.FormMap:
		if !domainForm {
			return value.Omega, vmerr.Typef("less requires a set, got a map (use lessf)")
		}
		return trie.NewMap(trie.MapRemoveDomain(trie.AsMap(agg), true, elem)), nil
	default:
		return value.Omega, vmerr.Typef("less/lessf requires a set or map, got %s", agg.Form())
	}
}

func (in *Interpreter) execUnary(instr bytecode.Instruction) error {
	operand := read(instr.B)
	var result value.Specifier
	var err error
	switch instr.Op {
	case bytecode.OpNeg:
		result, err = value.Negate(operand)
	case bytecode.OpCard:
		result, err = cardinality(operand)
	case bytecode.OpNot:
		result = in.boolAtom(!in.atomIsTrue(operand))
	case bytecode.OpPow2:
		result, err = powerset(operand)
	default:
		return vmerr.Typef("unhandled unary opcode %s", instr.Op)
	}
	if err != nil {
		return err
	}
	store(instr.A, result)
	return nil
}

func cardinality(v value.Specifier) (value.Specifier, error) {
	switch v.Form() {
	case value.FormSet:
		return value.ShortInt(int64(trie.AsSet(v).Len())), nil
	case value.FormMap:
		return value.ShortInt(int64(trie.AsMap(v).Len())), nil
	case value.FormTuple:
		return value.ShortInt(int64(trie.AsTuple(v).Len())), nil
	case value.FormString:
		return value.ShortInt(int64(v.Payload().(*value.StringPayload).Len())), nil
	default:
		return value.Omega, vmerr.Typef("# requires an aggregate, got %s", v.Form())
	}
}

// powerset materializes 2^|s| as a set of sets, refusing sources of more
// than 20 elements with a resource error (the lazy pow iterator allows up to
// 62): `pow` as an eager operator builds the whole result.
func powerset(v value.Specifier) (value.Specifier, error) {
	if v.Form() != value.FormSet {
		return value.Omega, vmerr.Typef("pow requires a set, got %s", v.Form())
	}
	t := trie.AsSet(v)
	n := t.Len()
	if n > 20 {
		return value.Omega, vmerr.Resourcef("pow of a %d-element set exceeds the eager powerset limit", n)
	}
	elems := make([]value.Specifier, 0, n)
	t.Range(func(c *trie.Cell) bool { elems = append(elems, c.Key); return true })
	out := trie.EmptySet()
	outT := trie.AsSet(out)
	total := 1 << uint(n)
	for mask := 0; mask < total; mask++ {
		sub := trie.EmptySet()
		subT := trie.AsSet(sub)
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				subT = trie.SetWith(subT, true, elems[i])
			}
		}
		outT = trie.SetWith(outT, true, trie.NewSet(subT))
	}
	return trie.NewSet(outT), nil
}

func (in *Interpreter) execCompare(instr bytecode.Instruction) error {
	left, right := read(instr.B), read(instr.C)
	var b bool
	var err error
	switch instr.Op {
	case bytecode.OpEq:
		b = value.Equal(left, right)
	case bytecode.OpNe:
		b = !value.Equal(left, right)
	case bytecode.OpLt:
		b, err = in.orderLess(left, right)
	case bytecode.OpLe:
		var gt bool
		gt, err = in.orderLess(right, left)
		b = !gt
	case bytecode.OpGt:
		b, err = in.orderLess(right, left)
	case bytecode.OpGe:
		var lt bool
		lt, err = in.orderLess(left, right)
		b = !lt
	default:
		return vmerr.Typef("unhandled compare opcode %s", instr.Op)
	}
	if err != nil {
		return err
	}
	store(instr.A, in.boolAtom(b))
	return nil
}

// orderLess implements the overloaded ordering used by <, <=, >, >=: numeric
// less, lexicographic for strings, subset for sets, and class-method
// fallback (spec §4.2's `less` overload and §4.9's m_less slot).
func (in *Interpreter) orderLess(a, b value.Specifier) (bool, error) {
	if a.Form() == value.FormObject || b.Form() == value.FormObject {
		if v, handled, err := in.invokeOverload(object.OpLess, a, b); handled {
			if err != nil {
				return false, err
			}
			return in.atomIsTrue(v), nil
		}
	}
	switch a.Form() {
	case value.FormString:
		if b.Form() != value.FormString {
			return false, vmerr.Typef("< requires two strings, got %s and %s", a.Form(), b.Form())
		}
		return a.Payload().(*value.StringPayload).Text() < b.Payload().(*value.StringPayload).Text(), nil
	case value.FormSet:
		if b.Form() != value.FormSet {
			return false, vmerr.Typef("< requires two sets, got %s and %s", a.Form(), b.Form())
		}
		ta, tb := trie.AsSet(a), trie.AsSet(b)
		return ta.Len() < tb.Len() && trie.Union(ta, tb).Len() == tb.Len(), nil
	default:
		return value.Less(a, b)
	}
}
