// Package vm is the interpreter core: the dispatch loop (spec §4.1),
// overloaded-operator dispatch (§4.2), the aggregate mutation protocol
// wiring (§4.3), extraction/slicing (§4.4), assignment forms (§4.5),
// procedure call/return with closure swap (§4.7), and the error/abend
// protocol (§4.10). It ties together internal/value, internal/trie,
// internal/iterator, internal/bytecode, internal/object, and
// internal/proc.
//
// Grounded on the teacher's internal/vm/vm.go (VM struct, CallFrame) and
// internal/vm/vm_exec.go (the dense opcode switch), generalized from a
// register-stack bytecode machine to spec's pre-resolved-operand,
// process-ring machine.
package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/proc"
	"github.com/setl2-lang/setl2vm/internal/value"
)

// CallFrame is one entry of the active process's call stack (spec §4.7
// step 3: "push a call-stack frame (return pc, callee procedure, result
// specifier pointer, optional self specifier, current class, saved pstack
// top, C-return flag, literal-proc flag, extra-code discriminant)").
type CallFrame struct {
	ReturnPC     int
	Unit         *bytecode.Unit
	Callee       *object.Procedure
	Result       *value.Specifier
	Self         *object.Object
	PushedSelf   bool // whether this call pushed a new self distinct from Class.Current
	Class        *object.Class
	PStackTop    int
	CReturn      bool // caller wants to return control to the Go call site (no further dispatch)
	LiteralProc  bool
	ExtraCode    ExtraCode
	Process      *proc.Process // non-nil if this frame belongs to a process-method dispatch
	Request      *proc.Request
}

// ExtraCode discriminates the post-return fixups of spec §4.7 return step
// 6 ("record the boolean result of an overloaded comparison; start an
// iterator using the returned aggregate; convert the returned atom into a
// taken/not-taken branch").
type ExtraCode uint8

const (
	ExtraNone ExtraCode = iota
	ExtraCompareResult
	ExtraStartIterator
	ExtraBranchOnAtom
)

// DebugHook is an optional trace/profile callback invoked before each
// instruction (spec §4.1 step (ii)), grounded on the teacher's
// DebugHook-shaped callback in internal/vm/debugger.go.
type DebugHook interface {
	BeforeInstruction(unit *bytecode.Unit, pc int, instr bytecode.Instruction)
}

// Interpreter is the whole VM state: no package-level globals (spec §9
// "Global mutable state": "Model them as fields of an Interpreter value
// passed explicitly").
type Interpreter struct {
	Atoms     *value.AtomTable
	Units     map[string]*bytecode.Unit
	Scheduler *proc.Scheduler

	// ProgramStack backs local-variable save/restore across calls and
	// process context switches (spec §4.7 step 3, §4.8 context switch
	// step 1).
	ProgramStack []value.Specifier

	CallStack []CallFrame

	Hook DebugHook

	// Stdout/Stdin back OpPrint/OpRead (spec §6's print/read built-ins),
	// grounded on the teacher's io.Writer-shaped debugger output fields
	// (internal/vm/debugger.go's Output, internal/vm/debugger_cli.go's
	// output/scanner). Defaulted to the process's own streams, overridable
	// for embedding/testing.
	Stdout io.Writer
	Stdin  *bufio.Scanner

	pc   int
	unit *bytecode.Unit
}

// NewInterpreter builds an Interpreter whose scheduler holds a single root
// process running unit from pc 0.
func NewInterpreter(root *bytecode.Unit) *Interpreter {
	rootProc := proc.NewRoot()
	return &Interpreter{
		Atoms:     value.NewAtomTable(),
		Units:     map[string]*bytecode.Unit{root.Name: root},
		Scheduler: proc.NewScheduler(rootProc, proc.DefaultOpcodeCountdown),
		Stdout:    os.Stdout,
		Stdin:     bufio.NewScanner(os.Stdin),
		unit:      root,
		pc:        root.Entry,
	}
}

// LoadUnit registers an additional compiled unit (e.g. a library loaded at
// runtime via internal/archive).
func (in *Interpreter) LoadUnit(u *bytecode.Unit) { in.Units[u.Name] = u }
