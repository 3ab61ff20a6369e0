package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/proc"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// Run executes in.unit from in.pc until a top-level OpHalt with an empty
// call stack, or an unrecovered error reaches the abend boundary (spec
// §4.10). It is the interpreter's entry point (cmd/setlvm).
func (in *Interpreter) Run() error {
	for {
		stop, err := in.Step()
		if err != nil {
			return in.abend(err)
		}
		if stop {
			return nil
		}
	}
}

// runUntilCReturn drives the dispatch loop until the call stack unwinds
// back to depth, i.e. until a Go call site's synchronous invocation
// (operator/extraction method fallback) completes. Used by
// operators.go/extract.go/assign.go's object-dispatch fallbacks.
func (in *Interpreter) runUntilCReturn(depth int) error {
	for len(in.CallStack) > depth {
		stop, err := in.Step()
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// Step executes exactly one instruction, implementing spec §4.1's per-step
// sequence: scheduler countdown, debug hook, fetch+advance, dispatch. It
// returns stop=true when execution should halt: the root process (or the
// last process left in the ring) reaches OpHalt with an empty call stack,
// or pc is outside the current unit's code.
func (in *Interpreter) Step() (stop bool, err error) {
	if in.Scheduler.Tick() {
		if err := in.scheduleSwitch(); err != nil {
			return false, err
		}
	}

	if in.pc < 0 || in.pc >= len(in.unit.Code) {
		return true, nil
	}
	pc := in.pc
	instr := in.unit.Code[pc]
	if in.Hook != nil {
		in.Hook.BeforeInstruction(in.unit, pc, instr)
	}
	in.pc++

	return in.execute(pc, instr)
}

func (in *Interpreter) execute(pc int, instr bytecode.Instruction) (bool, error) {
	switch instr.Op {
	case bytecode.OpHalt:
		if len(in.CallStack) > 0 {
			return false, nil
		}
		return !in.retireCurrentProcess(), nil

	case bytecode.OpNoop:
		return false, nil

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv,
		bytecode.OpPow, bytecode.OpMod, bytecode.OpMin, bytecode.OpMax,
		bytecode.OpWith, bytecode.OpLess, bytecode.OpLessf, bytecode.OpNpow:
		return false, in.execArith(instr)

	case bytecode.OpNeg, bytecode.OpCard, bytecode.OpNot, bytecode.OpPow2:
		return false, in.execUnary(instr)

	case bytecode.OpEq, bytecode.OpNe, bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		return false, in.execCompare(instr)

	case bytecode.OpMakeSet, bytecode.OpMakeTuple, bytecode.OpMakeMap:
		return false, in.execMake(instr)

	case bytecode.OpOf, bytecode.OpKof, bytecode.OpOfSet, bytecode.OpSlice, bytecode.OpTail:
		return false, in.execExtract(pc, instr)

	case bytecode.OpAssign, bytecode.OpSof, bytecode.OpSofa, bytecode.OpSslice, bytecode.OpSend, bytecode.OpErase:
		return false, in.execAssign(pc, instr)

	case bytecode.OpIterStart, bytecode.OpIterNext:
		return false, in.execIterator(pc, instr)

	case bytecode.OpCallLiteral, bytecode.OpCallGeneral, bytecode.OpCallMethod:
		return false, in.execCallInstr(pc, instr)

	case bytecode.OpReturn:
		return false, in.execReturnInstr(instr)

	case bytecode.OpInitObj, bytecode.OpInitEnd, bytecode.OpSlotOf, bytecode.OpMenviron:
		return false, in.execObject(instr)

	case bytecode.OpJump:
		in.pc = instr.A.Target
		return false, nil
	case bytecode.OpJumpFalse:
		return false, in.execJumpCond(instr, false)
	case bytecode.OpJumpTrue:
		return false, in.execJumpCond(instr, true)

	case bytecode.OpPrint, bytecode.OpRead:
		return false, in.execIO(instr)

	default:
		return false, vmerr.Typef("unimplemented opcode %s", instr.Op)
	}
}

func (in *Interpreter) scheduleSwitch() error {
	next, err := in.Scheduler.SelectNext()
	if err != nil {
		return err
	}
	if next == in.Scheduler.Current {
		return nil
	}
	in.contextSwitch(next)
	return nil
}

// contextSwitch implements spec §4.8's context switch: save the outgoing
// process's pc/unit/stacks onto its own record, install the incoming
// process's saved state, and (if it was idle with a pending request) enter
// that request as a fresh top-level call.
func (in *Interpreter) contextSwitch(next *proc.Process) {
	out := in.Scheduler.Switch(next)
	out.SavedPC = in.pc
	out.SavedInst = in.unit
	out.CallStack = framesToAny(in.CallStack)
	out.ProgramStack = in.ProgramStack

	in.pc = next.SavedPC
	if u, ok := next.SavedInst.(*bytecode.Unit); ok && u != nil {
		in.unit = u
	}
	in.CallStack = framesFromAny(next.CallStack)
	in.ProgramStack = next.ProgramStack

	if next.Idle() {
		if req, ok := next.PopRequest(); ok {
			in.enterRequest(next, req)
		}
	}
}

// enterRequest starts executing a process-method request as next's first
// call-stack frame (spec §4.7 call step 2's receiving side): unlike Call's
// ordinary user-defined path, there is no caller frame to return pc/unit
// into, so the frame's Return restores whatever next.SavedPC/SavedInst were
// before this request (i.e. next goes idle again, ready for its next
// request or retirement).
func (in *Interpreter) enterRequest(p *proc.Process, req *proc.Request) {
	procRec := object.AsProcedure(req.Proc)
	frame := CallFrame{
		ReturnPC: in.pc,
		Unit:     in.unit,
		Callee:   procRec,
		Process:  p,
		Request:  req,
	}
	in.ProgramStack = append(in.ProgramStack, procRec.Locals...)
	procRec.Locals = make([]value.Specifier, procRec.LocalCount)
	for i := 0; i < len(req.Args) && i < procRec.LocalCount; i++ {
		procRec.Locals[i] = req.Args[i]
	}
	if owner, ok := p.Owner.(*object.Object); ok {
		frame.Self = owner
		frame.Class = owner.Class
	}

	in.Scheduler.EnterCritical()
	for parent := procRec.Parent; parent != nil; parent = parent.Parent {
		parent.SwapIn()
	}
	in.Scheduler.ExitCritical()

	in.CallStack = append(in.CallStack, frame)
	in.unit = procRec.Unit
	in.pc = procRec.Entry
}

// retireCurrentProcess removes the current (non-root) process from the
// ring once it halts with an empty call stack (its request queue is not
// checked), and reports whether any process remains to run. The root process halting
// ends the whole interpreter.
func (in *Interpreter) retireCurrentProcess() bool {
	cur := in.Scheduler.Current
	if cur.IsRoot {
		return false
	}
	next := cur.Next()
	cur.Remove()
	if next == cur {
		return false
	}
	in.contextSwitch(next)
	return true
}

func framesToAny(frames []CallFrame) []any {
	out := make([]any, len(frames))
	for i, f := range frames {
		out[i] = f
	}
	return out
}

func framesFromAny(raw []any) []CallFrame {
	out := make([]CallFrame, len(raw))
	for i, r := range raw {
		out[i], _ = r.(CallFrame)
	}
	return out
}
