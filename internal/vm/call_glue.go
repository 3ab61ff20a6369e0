// Call-site opcode wiring (spec §4.7): three call flavors sharing one
// Call/Return machinery. Grounded on the teacher's OpCall handling in
// internal/vm/vm_exec.go, generalized to literal/general/method dispatch
// plus the process-method enqueue path.
//
// Operand convention: A is the result destination (OperandNone when the
// caller discards the return value); B is the call target — a procedure
// value for OpCallLiteral/OpCallGeneral, the receiver object for
// OpCallMethod; C, for OpCallMethod only, is the method's slot index
// (OperandSlot). Instruction.Args holds the argument operands.
package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// execCallInstr sets up the call per spec §4.7 and returns immediately: for
// a user-defined callee this leaves pc pointing at the callee's entry, so
// the dispatch loop's normal fetch-advance cycle runs its body and the
// eventual p_return writes the result directly into resultPtr (frame.Result)
// and restores pc/unit — there is no synchronous drain here, unlike the
// Go-call-site fallbacks in operators.go/extract.go/assign.go that use
// runUntilCReturn. Only built-in and process-method targets (spec §4.7
// steps 1-2) complete within this same call, and both write through
// resultPtr themselves via Call's own value.Assign.
func (in *Interpreter) execCallInstr(pc int, instr bytecode.Instruction) error {
	args := make([]value.Specifier, len(instr.Args))
	for i, op := range instr.Args {
		args[i] = read(op)
	}

	wantReturn := instr.A.Kind == bytecode.OperandSpecifier
	var resultPtr *value.Specifier
	if wantReturn {
		resultPtr = instr.A.Spec
	}

	switch instr.Op {
	case bytecode.OpCallLiteral, bytecode.OpCallGeneral:
		target := read(instr.B)
		return in.Call(target, args, resultPtr, CallOptions{
			Literal:    instr.Op == bytecode.OpCallLiteral,
			WantReturn: wantReturn,
		})
	case bytecode.OpCallMethod:
		recv := read(instr.B)
		if recv.Form() != value.FormObject {
			return vmerr.Typef("method call target is not an object (form %s)", recv.Form())
		}
		obj := object.AsObject(recv)
		slotIdx := instr.C.Slot
		if slotIdx < 0 || slotIdx >= len(obj.Class.Slots) || !obj.Class.Slots[slotIdx].IsMethod {
			return vmerr.Classf("slot %d on class %s is not a method", slotIdx, obj.Class.Name)
		}
		procRec, err := object.Menviron(obj.Class, slotIdx, obj)
		if err != nil {
			return err
		}
		return in.Call(object.NewProcedure(procRec), args, resultPtr, CallOptions{
			Self:       obj,
			Class:      obj.Class,
			WantReturn: wantReturn,
		})
	default:
		return vmerr.Typef("unhandled call opcode %s", instr.Op)
	}
}

// execReturnInstr implements p_return (spec §4.7's return algorithm):
// A holds the returned value's operand, or OperandNone for a procedure
// with no expression result (returns omega).
func (in *Interpreter) execReturnInstr(instr bytecode.Instruction) error {
	return in.Return(read(instr.A))
}
