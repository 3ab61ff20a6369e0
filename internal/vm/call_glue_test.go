package vm

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/proc"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestExecCallInstrLiteralNative(t *testing.T) {
	native := object.NewProcedure(&object.Procedure{
		FormalCount: 1,
		Native: func(args []value.Specifier) (value.Specifier, error) {
			return value.ShortInt(args[0].ShortIntValue() + 1), nil
		},
	})
	arg := value.ShortInt(41)
	var dest value.Specifier

	in := &Interpreter{}
	instr := bytecode.Instruction{
		Op:   bytecode.OpCallLiteral,
		A:    bytecode.SpecOperand(&dest),
		B:    bytecode.SpecOperand(&native),
		Args: []bytecode.Operand{bytecode.SpecOperand(&arg)},
	}
	if err := in.execCallInstr(0, instr); err != nil {
		t.Fatalf("execCallInstr(literal): %v", err)
	}
	if dest.ShortIntValue() != 42 {
		t.Fatalf("expected 42, got %v", dest.ShortIntValue())
	}
}

func TestExecCallInstrMethodDispatch(t *testing.T) {
	class := object.NewClass("counter")
	method := object.NewProcedure(&object.Procedure{
		FormalCount: 0,
		Native: func(args []value.Specifier) (value.Specifier, error) {
			return value.ShortInt(7), nil
		},
	})
	class.AddSlot(object.Slot{Name: "value", IsMethod: true, IsPublic: true, Body: method})
	obj := object.AsObject(object.NewObject(class))
	recv := value.FromHandle(value.FormObject, value.NewHandle(&object.ObjectPayload{O: obj}))

	var dest value.Specifier
	in := &Interpreter{}
	instr := bytecode.Instruction{
		Op: bytecode.OpCallMethod,
		A:  bytecode.SpecOperand(&dest),
		B:  bytecode.SpecOperand(&recv),
		C:  bytecode.SlotOperand(0),
	}
	if err := in.execCallInstr(0, instr); err != nil {
		t.Fatalf("execCallInstr(method): %v", err)
	}
	if dest.ShortIntValue() != 7 {
		t.Fatalf("expected 7, got %v", dest.ShortIntValue())
	}
}

func TestExecCallInstrMethodDispatchRejectsNonMethodSlot(t *testing.T) {
	class := object.NewClass("point")
	class.AddSlot(object.Slot{Name: "x", IsPublic: true})
	obj := object.AsObject(object.NewObject(class))
	recv := value.FromHandle(value.FormObject, value.NewHandle(&object.ObjectPayload{O: obj}))

	in := &Interpreter{}
	instr := bytecode.Instruction{
		Op: bytecode.OpCallMethod,
		B:  bytecode.SpecOperand(&recv),
		C:  bytecode.SlotOperand(0),
	}
	if err := in.execCallInstr(0, instr); err == nil {
		t.Fatalf("expected calling a non-method slot to fail")
	}
}

func TestExecReturnInstrPopsCallFrame(t *testing.T) {
	u := bytecode.NewUnit("test")
	var result value.Specifier
	in := &Interpreter{
		unit:      u,
		Scheduler: proc.NewScheduler(proc.NewRoot(), 200),
		CallStack: []CallFrame{{
			ReturnPC: 3,
			Unit:     u,
			Callee:   &object.Procedure{},
			Result:   &result,
		}},
	}
	retVal := value.ShortInt(55)
	instr := bytecode.Instruction{Op: bytecode.OpReturn, A: bytecode.SpecOperand(&retVal)}
	if err := in.execReturnInstr(instr); err != nil {
		t.Fatalf("execReturnInstr: %v", err)
	}
	if result.ShortIntValue() != 55 {
		t.Fatalf("expected the result slot to receive 55, got %v", result.ShortIntValue())
	}
	if in.pc != 3 {
		t.Fatalf("expected pc to restore to 3, got %d", in.pc)
	}
	if len(in.CallStack) != 0 {
		t.Fatalf("expected the call stack to be popped")
	}
}
