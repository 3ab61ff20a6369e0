package vm

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestExecExtractTupleOf(t *testing.T) {
	in := &Interpreter{}
	tup := trie.NewTuple(value.ShortInt(10), value.ShortInt(20), value.ShortInt(30))
	idx := value.ShortInt(2)
	var dest value.Specifier

	instr := bytecode.Instruction{
		Op: bytecode.OpOf,
		A:  bytecode.SpecOperand(&dest),
		B:  bytecode.SpecOperand(&tup),
		C:  bytecode.SpecOperand(&idx),
	}
	if err := in.execExtract(0, instr); err != nil {
		t.Fatalf("execExtract(of): %v", err)
	}
	if dest.ShortIntValue() != 20 {
		t.Fatalf("expected tup(2) == 20, got %v", dest.ShortIntValue())
	}
}

func TestExecExtractMapKof(t *testing.T) {
	in := &Interpreter{}
	key := value.NewString("k")
	val := value.ShortInt(7)
	m := trie.NewMap(trie.MapWithPair(trie.AsMap(trie.EmptyMap()), true, key, val))

	var dest value.Specifier
	instr := bytecode.Instruction{
		Op: bytecode.OpKof,
		A:  bytecode.SpecOperand(&dest),
		B:  bytecode.SpecOperand(&m),
		C:  bytecode.SpecOperand(&key),
	}
	if err := in.execExtract(0, instr); err != nil {
		t.Fatalf("execExtract(kof): %v", err)
	}
	if dest.ShortIntValue() != 7 {
		t.Fatalf("expected kof to return 7, got %v", dest.ShortIntValue())
	}
	count := 0
	trie.AsMap(m).Range(func(*trie.Cell) bool { count++; return true })
	if count != 0 {
		t.Fatalf("expected kof to remove the pair from the map, got %d cells", count)
	}
}

func TestExecExtractSetOfCoercesToMap(t *testing.T) {
	in := &Interpreter{}
	s := trie.NewSet(trie.SetWith(trie.AsSet(trie.EmptySet()), true, trie.NewTuple(value.ShortInt(1), value.NewString("one"))))
	key := value.ShortInt(1)
	var dest value.Specifier

	instr := bytecode.Instruction{
		Op: bytecode.OpOf,
		A:  bytecode.SpecOperand(&dest),
		B:  bytecode.SpecOperand(&s),
		C:  bytecode.SpecOperand(&key),
	}
	if err := in.execExtract(0, instr); err != nil {
		t.Fatalf("execExtract(of on set): %v", err)
	}
	if dest.Payload().(*value.StringPayload).Text() != "one" {
		t.Fatalf("expected the set-as-relation lookup to yield \"one\", got %v", dest)
	}
}

func TestExecExtractTupleSlice(t *testing.T) {
	u := bytecode.NewUnit("test")
	tup := trie.NewTuple(value.ShortInt(1), value.ShortInt(2), value.ShortInt(3), value.ShortInt(4))
	start := value.ShortInt(2)
	var dest value.Specifier

	pc := u.Emit(bytecode.OpSlice, bytecode.SpecOperand(&dest), bytecode.SpecOperand(&tup), bytecode.SpecOperand(&start), 1)
	end := value.ShortInt(3)
	u.Emit(bytecode.OpNoop, bytecode.SpecOperand(&end), bytecode.Operand{}, bytecode.Operand{}, 1)

	in := &Interpreter{unit: u}
	if err := in.execExtract(pc, u.Code[pc]); err != nil {
		t.Fatalf("execExtract(slice): %v", err)
	}
	sliced := trie.AsTuple(dest)
	if sliced.Len() != 2 {
		t.Fatalf("expected a 2-element slice, got %d", sliced.Len())
	}
	if sliced.Get(1).ShortIntValue() != 2 || sliced.Get(2).ShortIntValue() != 3 {
		t.Fatalf("expected [2, 3], got [%v, %v]", sliced.Get(1).ShortIntValue(), sliced.Get(2).ShortIntValue())
	}
}

func TestExecExtractStringOf(t *testing.T) {
	in := &Interpreter{}
	s := value.NewString("hello")
	idx := value.ShortInt(1)
	var dest value.Specifier

	instr := bytecode.Instruction{
		Op: bytecode.OpOf,
		A:  bytecode.SpecOperand(&dest),
		B:  bytecode.SpecOperand(&s),
		C:  bytecode.SpecOperand(&idx),
	}
	if err := in.execExtract(0, instr); err != nil {
		t.Fatalf("execExtract(of on string): %v", err)
	}
	if dest.Payload().(*value.StringPayload).Text() != "h" {
		t.Fatalf("expected \"h\", got %q", dest.Payload().(*value.StringPayload).Text())
	}
}
