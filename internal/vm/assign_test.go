package vm

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestExecAssignPlain(t *testing.T) {
	in := &Interpreter{}
	var dest, src value.Specifier
	src = value.ShortInt(5)

	instr := bytecode.Instruction{Op: bytecode.OpAssign, A: bytecode.SpecOperand(&dest), B: bytecode.SpecOperand(&src)}
	if err := in.execAssign(0, instr); err != nil {
		t.Fatalf("execAssign(assign): %v", err)
	}
	if dest.ShortIntValue() != 5 {
		t.Fatalf("expected 5, got %v", dest.ShortIntValue())
	}
}

func TestExecAssignMapSof(t *testing.T) {
	in := &Interpreter{}
	m := trie.EmptyMap()
	key := value.NewString("a")
	val := value.ShortInt(1)

	instr := bytecode.Instruction{
		Op: bytecode.OpSof,
		A:  bytecode.SpecOperand(&m),
		B:  bytecode.SpecOperand(&key),
		C:  bytecode.SpecOperand(&val),
	}
	if err := in.execAssign(0, instr); err != nil {
		t.Fatalf("execAssign(sof put): %v", err)
	}
	if got := trie.MapGet(trie.AsMap(m), key); got.ShortIntValue() != 1 {
		t.Fatalf("expected map(a) == 1, got %v", got)
	}

	// Erasing (sof with omega) removes the pair.
	omega := value.Omega
	instr.C = bytecode.SpecOperand(&omega)
	if err := in.execAssign(0, instr); err != nil {
		t.Fatalf("execAssign(sof erase): %v", err)
	}
	if got := trie.MapGet(trie.AsMap(m), key); !got.IsOmega() {
		t.Fatalf("expected map(a) removed, got %v", got)
	}
}

func TestExecAssignTupleSof(t *testing.T) {
	in := &Interpreter{}
	tup := trie.NewTuple(value.ShortInt(1), value.ShortInt(2), value.ShortInt(3))
	idx := value.ShortInt(2)
	val := value.ShortInt(99)

	instr := bytecode.Instruction{
		Op: bytecode.OpSof,
		A:  bytecode.SpecOperand(&tup),
		B:  bytecode.SpecOperand(&idx),
		C:  bytecode.SpecOperand(&val),
	}
	if err := in.execAssign(0, instr); err != nil {
		t.Fatalf("execAssign(tuple sof): %v", err)
	}
	if trie.AsTuple(tup).Get(2).ShortIntValue() != 99 {
		t.Fatalf("expected tup(2) == 99, got %v", trie.AsTuple(tup).Get(2).ShortIntValue())
	}
}

func TestExecAssignStringSplice(t *testing.T) {
	u := bytecode.NewUnit("test")
	s := value.NewString("hello world")
	start := value.ShortInt(1)
	repl := value.NewString("HI")

	pc := u.Emit(bytecode.OpSslice, bytecode.SpecOperand(&s), bytecode.SpecOperand(&start), bytecode.SpecOperand(&repl), 1)
	end := value.ShortInt(5)
	u.Emit(bytecode.OpNoop, bytecode.SpecOperand(&end), bytecode.Operand{}, bytecode.Operand{}, 1)

	in := &Interpreter{unit: u}
	if err := in.execAssign(pc, u.Code[pc]); err != nil {
		t.Fatalf("execAssign(sslice): %v", err)
	}
	got := s.Payload().(*value.StringPayload).Text()
	if got != "HI world" {
		t.Fatalf("expected %q, got %q", "HI world", got)
	}
}
