// Iterator opcode wiring (spec §4.6): OpIterStart materializes a first-class
// iterator value from an aggregate; OpIterNext advances it, writing either a
// single value or a (a, b) pair and an "ok" boolean atom that is true when
// the iterator advanced and false once it is exhausted. Grounded on the teacher's range-based for-loop
// lowering in internal/evaluator/expressions_range.go, generalized to a
// reified iterator value instead of a Go-native range clause.
package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/iterator"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

func (in *Interpreter) execIterator(pc int, instr bytecode.Instruction) error {
	switch instr.Op {
	case bytecode.OpIterStart:
		return in.execIterStart(pc, instr)
	case bytecode.OpIterNext:
		return in.execIterNext(pc, instr)
	default:
		return vmerr.Typef("unhandled iterator opcode %s", instr.Op)
	}
}

// execIterStart reads the iterator kind from instr.C.Int (cast to
// iterator.Kind) and, for KindNPow, the subset size from the Extra operand,
// building the iterator over the source operand.
func (in *Interpreter) execIterStart(pc int, instr bytecode.Instruction) error {
	kind := iterator.Kind(instr.C.Int)
	source := read(instr.B)

	var it *iterator.Iterator
	var err error
	switch kind {
	case iterator.KindSet:
		it = iterator.StartSetIterator(source)
	case iterator.KindDomain, iterator.KindMap:
		it = iterator.StartDomainIterator(source)
	case iterator.KindTuple:
		it = iterator.StartTupleIterator(source)
	case iterator.KindString:
		it = iterator.StartStringIterator(source)
	case iterator.KindMapPair:
		it = iterator.StartMapPairIterator(source)
	case iterator.KindMapMulti:
		it = iterator.StartMapMultiIterator(source)
	case iterator.KindTuplePair:
		it = iterator.StartTuplePairIterator(source)
	case iterator.KindAltTuplePair:
		it = iterator.StartAltTuplePairIterator(source)
	case iterator.KindStringPair:
		it = iterator.StartStringPairIterator(source)
	case iterator.KindObject:
		it = iterator.StartObjectIterator(source)
	case iterator.KindObjectPair:
		it = iterator.StartObjectPairIterator(source)
	case iterator.KindObjectMulti:
		it = iterator.StartObjectMultiIterator(source)
	case iterator.KindPow:
		it, err = iterator.StartPowIterator(source)
	case iterator.KindNPow:
		n := int(bytecode.Extra(in.unit, pc).Int)
		it, err = iterator.StartNPowIterator(source, n)
	default:
		return vmerr.Typef("unknown iterator kind %d", instr.C.Int)
	}
	if err != nil {
		return err
	}
	store(instr.A, iterator.NewSpecifier(it))
	return nil
}

// execIterNext implements X_iterator_next: B holds the iterator specifier,
// A (and C, for pair kinds) receive the next value(s), and the Extra
// operand (if present) receives a true/false atom reporting whether the
// iterator advanced.
func (in *Interpreter) execIterNext(pc int, instr bytecode.Instruction) error {
	it := iterator.FromSpecifier(read(instr.B))
	var ok bool
	// Next/NextPair hand back borrowed references into the source
	// aggregate the iterator keeps marked, not freshly owned values, so
	// storing them is a copy (spec §4.5 mark/unmark), not a move.
	if instr.C.Kind == bytecode.OperandNone {
		var v value.Specifier
		v, ok = it.Next()
		storeCopy(instr.A, v)
	} else {
		var a, b value.Specifier
		a, b, ok = it.NextPair()
		storeCopy(instr.A, a)
		storeCopy(instr.C, b)
	}
	if okDest := bytecode.Extra(in.unit, pc); okDest.Kind == bytecode.OperandSpecifier {
		store(okDest, in.boolAtom(ok))
	}
	return nil
}
