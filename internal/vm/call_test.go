package vm

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/proc"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestCallNativeBuiltin(t *testing.T) {
	in := &Interpreter{}
	native := object.NewProcedure(&object.Procedure{
		FormalCount: 1,
		Native: func(args []value.Specifier) (value.Specifier, error) {
			return value.ShortInt(args[0].ShortIntValue() * 2), nil
		},
	})

	var result value.Specifier
	arg := value.ShortInt(21)
	if err := in.Call(native, []value.Specifier{arg}, &result, CallOptions{WantReturn: true}); err != nil {
		t.Fatalf("Call(native): %v", err)
	}
	if result.ShortIntValue() != 42 {
		t.Fatalf("expected 42, got %v", result.ShortIntValue())
	}
}

func TestCallUserDefinedRoundTrip(t *testing.T) {
	u := bytecode.NewUnit("test")

	var calleeConst value.Specifier = value.ShortInt(99)
	calleePC := u.Emit(bytecode.OpReturn, bytecode.SpecOperand(&calleeConst), bytecode.Operand{}, bytecode.Operand{}, 1)

	callee := object.NewProcedure(&object.Procedure{Unit: u, Entry: calleePC, FormalCount: 0})

	var result value.Specifier
	var calleeSpec value.Specifier = callee
	callPC := u.Emit(bytecode.OpCallLiteral, bytecode.SpecOperand(&result), bytecode.SpecOperand(&calleeSpec), bytecode.Operand{}, 1)
	u.Emit(bytecode.OpHalt, bytecode.Operand{}, bytecode.Operand{}, bytecode.Operand{}, 1)

	root := proc.NewRoot()
	in := &Interpreter{
		Atoms:     value.NewAtomTable(),
		Units:     map[string]*bytecode.Unit{u.Name: u},
		Scheduler: proc.NewScheduler(root, 200),
		unit:      u,
		pc:        callPC,
	}
	if err := in.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ShortIntValue() != 99 {
		t.Fatalf("expected the callee's return value 99, got %v", result.ShortIntValue())
	}
	if len(in.CallStack) != 0 {
		t.Fatalf("expected an empty call stack after return, got %d frames", len(in.CallStack))
	}
}
