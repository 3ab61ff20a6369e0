package vm

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestExecMakeSeedsEmptyAggregates(t *testing.T) {
	in := &Interpreter{}

	cases := []struct {
		op   bytecode.OpCode
		form value.Form
	}{
		{bytecode.OpMakeSet, value.FormSet},
		{bytecode.OpMakeTuple, value.FormTuple},
		{bytecode.OpMakeMap, value.FormMap},
	}
	for _, c := range cases {
		var dest value.Specifier
		instr := bytecode.Instruction{Op: c.op, A: bytecode.SpecOperand(&dest)}
		if err := in.execMake(instr); err != nil {
			t.Fatalf("execMake(%v): %v", c.op, err)
		}
		if dest.Form() != c.form {
			t.Fatalf("expected form %v, got %v", c.form, dest.Form())
		}
	}

	var tupleDest value.Specifier
	in.execMake(bytecode.Instruction{Op: bytecode.OpMakeTuple, A: bytecode.SpecOperand(&tupleDest)})
	if trie.AsTuple(tupleDest).Len() != 0 {
		t.Fatalf("expected fresh tuple to be empty")
	}
}
