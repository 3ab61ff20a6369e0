package vm

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestExecJumpCondTakesBranchOnMatch(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}
	cond := in.trueAtom()

	instr := bytecode.Instruction{A: bytecode.TargetOperand(42), B: bytecode.SpecOperand(&cond)}
	if err := in.execJumpCond(instr, true); err != nil {
		t.Fatalf("execJumpCond: %v", err)
	}
	if in.pc != 42 {
		t.Fatalf("expected pc to jump to 42, got %d", in.pc)
	}
}

func TestExecJumpCondFallsThroughOnMismatch(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}
	cond := in.falseAtom()

	in.pc = 7
	instr := bytecode.Instruction{A: bytecode.TargetOperand(42), B: bytecode.SpecOperand(&cond)}
	if err := in.execJumpCond(instr, true); err != nil {
		t.Fatalf("execJumpCond: %v", err)
	}
	if in.pc != 7 {
		t.Fatalf("expected pc to stay at 7 when the condition doesn't match, got %d", in.pc)
	}
}

func TestExecIOPrint(t *testing.T) {
	var buf bytes.Buffer
	in := &Interpreter{Stdout: &buf}
	src := value.ShortInt(5)

	instr := bytecode.Instruction{Op: bytecode.OpPrint, A: bytecode.SpecOperand(&src)}
	if err := in.execIO(instr); err != nil {
		t.Fatalf("execIO(print): %v", err)
	}
	if buf.String() != "5\n" {
		t.Fatalf("expected \"5\\n\", got %q", buf.String())
	}
}

func TestExecIOReadLine(t *testing.T) {
	in := &Interpreter{Stdin: bufio.NewScanner(strings.NewReader("hello\n"))}
	var dest value.Specifier

	instr := bytecode.Instruction{Op: bytecode.OpRead, A: bytecode.SpecOperand(&dest)}
	if err := in.execIO(instr); err != nil {
		t.Fatalf("execIO(read): %v", err)
	}
	if dest.Payload().(*value.StringPayload).Text() != "hello" {
		t.Fatalf("expected \"hello\", got %q", dest.Payload().(*value.StringPayload).Text())
	}
}

func TestExecIOReadExhaustedReturnsOmega(t *testing.T) {
	in := &Interpreter{Stdin: bufio.NewScanner(strings.NewReader(""))}
	var dest value.Specifier

	instr := bytecode.Instruction{Op: bytecode.OpRead, A: bytecode.SpecOperand(&dest)}
	if err := in.execIO(instr); err != nil {
		t.Fatalf("execIO(read): %v", err)
	}
	if !dest.IsOmega() {
		t.Fatalf("expected omega at end of input, got %v", dest)
	}
}

func TestDisplayValueFormatsAggregates(t *testing.T) {
	tup := trie.NewTuple(value.ShortInt(1), value.ShortInt(2))
	if got := displayValue(tup); got != "[1, 2]" {
		t.Fatalf("expected \"[1, 2]\", got %q", got)
	}

	m := trie.NewMap(trie.MapWithPair(trie.AsMap(trie.EmptyMap()), true, value.NewString("k"), value.ShortInt(9)))
	if got := displayValue(m); got != "{k |-> 9}" {
		t.Fatalf("expected \"{k |-> 9}\", got %q", got)
	}

	if got := displayValue(value.Omega); got != "OM" {
		t.Fatalf("expected \"OM\", got %q", got)
	}
}
