package vm

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/iterator"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestExecIterStartAndNextOverTuple(t *testing.T) {
	u := bytecode.NewUnit("test")
	tup := trie.NewTuple(value.ShortInt(1), value.ShortInt(2))
	var it value.Specifier

	in := &Interpreter{unit: u, Atoms: value.NewAtomTable()}
	startInstr := bytecode.Instruction{
		Op: bytecode.OpIterStart,
		A:  bytecode.SpecOperand(&it),
		B:  bytecode.SpecOperand(&tup),
		C:  bytecode.IntOperand(int64(iterator.KindTuple)),
	}
	if err := in.execIterator(0, startInstr); err != nil {
		t.Fatalf("execIterator(start): %v", err)
	}
	if it.Form() != value.FormIterator {
		t.Fatalf("expected a fresh iterator value, got form %v", it.Form())
	}

	var v1 value.Specifier
	nextPC := u.Emit(bytecode.OpIterNext, bytecode.SpecOperand(&v1), bytecode.SpecOperand(&it), bytecode.Operand{}, 1)
	var ok1 value.Specifier
	u.Emit(bytecode.OpNoop, bytecode.SpecOperand(&ok1), bytecode.Operand{}, bytecode.Operand{}, 1)
	if err := in.execIterator(nextPC, u.Code[nextPC]); err != nil {
		t.Fatalf("execIterator(next 1): %v", err)
	}
	if v1.ShortIntValue() != 1 || !in.atomIsTrue(ok1) {
		t.Fatalf("expected (1, true), got (%v, %v)", v1.ShortIntValue(), ok1)
	}

	var v2 value.Specifier
	next2PC := u.Emit(bytecode.OpIterNext, bytecode.SpecOperand(&v2), bytecode.SpecOperand(&it), bytecode.Operand{}, 1)
	var ok2 value.Specifier
	u.Emit(bytecode.OpNoop, bytecode.SpecOperand(&ok2), bytecode.Operand{}, bytecode.Operand{}, 1)
	if err := in.execIterator(next2PC, u.Code[next2PC]); err != nil {
		t.Fatalf("execIterator(next 2): %v", err)
	}
	if v2.ShortIntValue() != 2 {
		t.Fatalf("expected the second element to be 2, got %v", v2.ShortIntValue())
	}

	var v3 value.Specifier
	next3PC := u.Emit(bytecode.OpIterNext, bytecode.SpecOperand(&v3), bytecode.SpecOperand(&it), bytecode.Operand{}, 1)
	var ok3 value.Specifier
	u.Emit(bytecode.OpNoop, bytecode.SpecOperand(&ok3), bytecode.Operand{}, bytecode.Operand{}, 1)
	if err := in.execIterator(next3PC, u.Code[next3PC]); err != nil {
		t.Fatalf("execIterator(next 3): %v", err)
	}
	if in.atomIsTrue(ok3) {
		t.Fatalf("expected the iterator to report exhaustion on the third next")
	}
}

func TestExecIterStartMapPair(t *testing.T) {
	u := bytecode.NewUnit("test")
	m := trie.NewMap(trie.MapWithPair(trie.AsMap(trie.EmptyMap()), true, value.NewString("k"), value.ShortInt(9)))
	var it value.Specifier

	in := &Interpreter{unit: u, Atoms: value.NewAtomTable()}
	startInstr := bytecode.Instruction{
		Op: bytecode.OpIterStart,
		A:  bytecode.SpecOperand(&it),
		B:  bytecode.SpecOperand(&m),
		C:  bytecode.IntOperand(int64(iterator.KindMapPair)),
	}
	if err := in.execIterator(0, startInstr); err != nil {
		t.Fatalf("execIterator(start mappair): %v", err)
	}

	var key, val value.Specifier
	nextPC := u.Emit(bytecode.OpIterNext, bytecode.SpecOperand(&key), bytecode.SpecOperand(&it), bytecode.SpecOperand(&val), 1)
	if err := in.execIterator(nextPC, u.Code[nextPC]); err != nil {
		t.Fatalf("execIterator(next mappair): %v", err)
	}
	if key.Payload().(*value.StringPayload).Text() != "k" || val.ShortIntValue() != 9 {
		t.Fatalf("expected (\"k\", 9), got (%v, %v)", key, val)
	}
}
