package vm

import (
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/proc"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// CallOptions carries the call-site specifics spec §4.7 step 5 needs
// ("self handling") beyond the bare target/args.
type CallOptions struct {
	Self        *object.Object // bound self for a method call, nil otherwise
	Class       *object.Class
	Literal     bool
	ExtraCode   ExtraCode
	WantReturn  bool // false when the caller discards the return value
}

// Call implements the five-step call algorithm of spec §4.7. result, when
// non-nil, receives the returned specifier once the call completes
// synchronously (built-in or user-defined); for a process-method call it
// instead receives the freshly allocated mailbox specifier immediately, per
// spec step 2.
func (in *Interpreter) Call(target value.Specifier, args []value.Specifier, result *value.Specifier, opts CallOptions) error {
	if target.Form() != value.FormProcedure {
		return vmerr.Typef("call target is not a procedure (form %s)", target.Form())
	}
	procRec := object.AsProcedure(target)

	// Step 1: built-in.
	if procRec.Native != nil {
		if err := checkArity(procRec, len(args)); err != nil {
			return err
		}
		v, err := procRec.Native(args)
		if err != nil {
			return err
		}
		if result != nil {
			value.Assign(result, v)
		}
		return nil
	}

	// Step 2: process-method call enqueues instead of branching.
	if opts.Self != nil {
		if p, ok := opts.Self.Process.(*proc.Process); ok && p != nil {
			req := &proc.Request{Proc: target, Args: args}
			target.Mark()
			if opts.WantReturn {
				mb := proc.NewMailboxSpecifier()
				req.Mailbox = proc.AsMailbox(mb)
				if result != nil {
					value.Assign(result, mb)
				}
			}
			p.Enqueue(req)
			return nil
		}
	}

	// Step 3: user-defined call — save locals, copy args, push a frame.
	if err := checkArity(procRec, len(args)); err != nil {
		return err
	}
	frame := CallFrame{
		ReturnPC:    in.pc,
		Unit:        in.unit,
		Callee:      procRec,
		Result:      result,
		Self:        opts.Self,
		Class:       opts.Class,
		PStackTop:   len(in.ProgramStack),
		CReturn:     true,
		LiteralProc: opts.Literal,
		ExtraCode:   opts.ExtraCode,
	}

	// Save the callee's current locals onto the program stack so a
	// recursive re-entry doesn't clobber them (spec §4.7 step 3).
	in.ProgramStack = append(in.ProgramStack, procRec.Locals...)
	procRec.Locals = make([]value.Specifier, procRec.LocalCount)
	for i := 0; i < len(args) && i < procRec.LocalCount; i++ {
		args[i].Mark()
		procRec.Locals[i] = args[i]
	}

	// Step 4: closure walk — swap in every enclosing procedure whose
	// activation transitions 0->1, inhibiting preemption meanwhile.
	in.Scheduler.EnterCritical()
	for parent := procRec.Parent; parent != nil; parent = parent.Parent {
		parent.SwapIn()
	}
	in.Scheduler.ExitCritical()

	// Step 5: self handling.
	if opts.Self != nil && opts.Class != nil && opts.Class.Current != opts.Self {
		in.Scheduler.EnterCritical()
		object.PushSelf(opts.Class, opts.Self)
		in.Scheduler.ExitCritical()
		frame.PushedSelf = true
	}

	in.CallStack = append(in.CallStack, frame)
	in.unit = procRec.Unit
	in.pc = procRec.Entry
	return nil
}

func checkArity(p *object.Procedure, argc int) error {
	if p.VarArgs {
		if argc < p.FormalCount {
			return vmerr.Typef("call expects at least %d arguments, got %d", p.FormalCount, argc)
		}
		return nil
	}
	if argc != p.FormalCount {
		return vmerr.Typef("call expects %d arguments, got %d", p.FormalCount, argc)
	}
	return nil
}

// Return implements the six-step return algorithm of spec §4.7. It pops the
// top call frame and restores the caller's state. frame.CReturn (always true
// for a user-defined call today) is read by runUntilCReturn's caller via the
// call-stack depth, not by this method — Return itself never stops the
// dispatch loop, since a Go call site's synchronous fallback and the
// bytecode CALL opcode share the exact same call/return machinery.
func (in *Interpreter) Return(retVal value.Specifier) error {
	n := len(in.CallStack)
	if n == 0 {
		return vmerr.Schedulerf("return with an empty call stack")
	}
	frame := in.CallStack[n-1]
	in.CallStack = in.CallStack[:n-1]

	// Step 2: process-method invocation delivers into the request mailbox.
	if frame.Request != nil && frame.Request.Mailbox != nil {
		frame.Request.Mailbox.Deliver(retVal)
	}

	// Step 3: restore the callee's locals from the program stack.
	procRec := frame.Callee
	for _, v := range procRec.Locals {
		v.Unmark()
	}
	restored := in.ProgramStack[frame.PStackTop:]
	procRec.Locals = append([]value.Specifier(nil), restored...)
	in.ProgramStack = in.ProgramStack[:frame.PStackTop]

	// Step 4: self restore.
	if frame.PushedSelf {
		in.Scheduler.EnterCritical()
		object.PopSelf(frame.Class)
		in.Scheduler.ExitCritical()
	}

	// Step 5: closure walk — swap out every enclosing procedure whose
	// activation transitions 1->0.
	in.Scheduler.EnterCritical()
	for parent := procRec.Parent; parent != nil; parent = parent.Parent {
		parent.SwapOut()
	}
	in.Scheduler.ExitCritical()

	// Step 6: restore pc/unit; place the result.
	in.pc = frame.ReturnPC
	in.unit = frame.Unit
	if frame.Result != nil {
		value.Assign(frame.Result, retVal)
	}

	// frame.ExtraCode's fixups (comparison-result, iterator-start,
	// branch-on-atom) all key off frame.Result, which already holds
	// retVal above; the dispatch loop applies them from there once it
	// resumes at frame.ReturnPC (internal/vm/dispatch.go).
	return nil
}
