// Object creation / method dispatch opcode wiring (spec §4.9). Grounded on
// the teacher's class/instance bootstrapping in internal/evaluator's class
// declaration handling, generalized to the self-stack and process-record
// model spec §3/§4.9 describe.
//
// Operand convention: OpInitObj's B and OpInitEnd's A carry the class
// (OperandClass, *object.Class); OpInitObj's A is the new object's
// destination. OpSlotOf/OpMenviron both take B=object operand, C=slot
// index operand (OperandSlot), A=destination.
package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/proc"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

func (in *Interpreter) execObject(instr bytecode.Instruction) error {
	switch instr.Op {
	case bytecode.OpInitObj:
		return in.execInitObj(instr)
	case bytecode.OpInitEnd:
		return in.execInitEnd(instr)
	case bytecode.OpSlotOf:
		return in.execSlotOf(instr)
	case bytecode.OpMenviron:
		return in.execMenviron(instr)
	default:
		return vmerr.Typef("unhandled object opcode %s", instr.Op)
	}
}

func classOperand(op bytecode.Operand) (*object.Class, error) {
	c, ok := op.Class.(*object.Class)
	if !ok || c == nil {
		return nil, vmerr.Classf("operand does not carry a class descriptor")
	}
	return c, nil
}

func (in *Interpreter) execInitObj(instr bytecode.Instruction) error {
	class, err := classOperand(instr.B)
	if err != nil {
		return err
	}
	obj := object.InitObj(class)
	store(instr.A, objectSpecifier(obj))
	return nil
}

// objectSpecifier wraps an already-initialized *object.Object back into a
// specifier: object.InitObj builds the header directly rather than going
// through object.NewObject a second time, so this mirrors NewObject's
// wrapping without re-allocating the object.
func objectSpecifier(obj *object.Object) value.Specifier {
	return value.FromHandle(value.FormObject, value.NewHandle(&object.ObjectPayload{O: obj}))
}

// execInitEnd implements spec §4.9 initend: pop the self stack, and — for a
// process class — spawn and ring-attach a process record bound to the new
// instance (spec §4.9's "If the class is a process, additionally create a
// process record, attach it to the object, add it to the ring as idle").
func (in *Interpreter) execInitEnd(instr bytecode.Instruction) error {
	class, err := classOperand(instr.A)
	if err != nil {
		return err
	}
	obj := class.Current
	object.InitEnd(class)
	if class.IsProcess && obj != nil {
		p := proc.Spawn(in.Scheduler.Root, obj)
		obj.Process = p
	}
	return nil
}

// execSlotOf implements the instance-variable-read half of spec §4.9's
// method-call dispatch ("if it is an instance variable, copy its value
// through to the caller"); slotof on a method slot is an error here since
// calling through a method slot is OpCallMethod's job and taking a method
// out as a first-class value is OpMenviron's. The loader has already
// resolved the slot index and checked visibility at compile time (spec
// §4.1's "operand slots are pre-resolved"), so there is no caller-class
// operand to re-check here.
func (in *Interpreter) execSlotOf(instr bytecode.Instruction) error {
	recv := read(instr.B)
	if recv.Form() != value.FormObject {
		return vmerr.Typef("slotof target is not an object (form %s)", recv.Form())
	}
	obj := object.AsObject(recv)
	slotIdx := instr.C.Slot
	if slotIdx < 0 || slotIdx >= len(obj.Class.Slots) {
		return vmerr.Classf("slot %d out of range for class %s", slotIdx, obj.Class.Name)
	}
	slot := obj.Class.Slots[slotIdx]
	if slot.IsMethod {
		return vmerr.Classf("slot %q of class %s is a method; use a call or menviron", slot.Name, obj.Class.Name)
	}
	storeCopy(instr.A, obj.Get(slotIdx))
	return nil
}

func (in *Interpreter) execMenviron(instr bytecode.Instruction) error {
	recv := read(instr.B)
	if recv.Form() != value.FormObject {
		return vmerr.Typef("menviron target is not an object (form %s)", recv.Form())
	}
	obj := object.AsObject(recv)
	slotIdx := instr.C.Slot
	procRec, err := object.Menviron(obj.Class, slotIdx, obj)
	if err != nil {
		return err
	}
	store(instr.A, object.NewProcedure(procRec))
	return nil
}
