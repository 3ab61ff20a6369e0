package vm

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
)

func TestNewInterpreterStartsAtEntry(t *testing.T) {
	u := bytecode.NewUnit("main")
	u.Entry = 3
	u.Emit(bytecode.OpNoop, bytecode.Operand{}, bytecode.Operand{}, bytecode.Operand{}, 1)
	u.Emit(bytecode.OpNoop, bytecode.Operand{}, bytecode.Operand{}, bytecode.Operand{}, 1)
	u.Emit(bytecode.OpNoop, bytecode.Operand{}, bytecode.Operand{}, bytecode.Operand{}, 1)
	u.Emit(bytecode.OpHalt, bytecode.Operand{}, bytecode.Operand{}, bytecode.Operand{}, 1)

	in := NewInterpreter(u)
	if in.unit != u || in.pc != 3 {
		t.Fatalf("expected the interpreter to start at unit entry 3, got unit=%v pc=%d", in.unit, in.pc)
	}
	if in.Units[u.Name] != u {
		t.Fatalf("expected the root unit to be registered under its own name")
	}
	if in.Scheduler == nil || in.Scheduler.Root == nil || !in.Scheduler.Root.IsRoot {
		t.Fatalf("expected a scheduler seeded with a root process")
	}
}

func TestLoadUnitRegistersAdditionalUnit(t *testing.T) {
	root := bytecode.NewUnit("main")
	in := NewInterpreter(root)

	lib := bytecode.NewUnit("lib")
	in.LoadUnit(lib)
	if in.Units["lib"] != lib {
		t.Fatalf("expected LoadUnit to register the unit by name")
	}
}
