// Package object implements the class descriptor, object header, and
// method-dispatch machinery of spec §3 ("Procedure value", "Object",
// "Class descriptor") and §4.9 ("Object Creation and Method Dispatch").
//
// Grounded on the shape of the teacher's internal/vm/objects.go
// (ObjClosure/ObjUpvalue) and internal/evaluator/object_advanced.go
// (ClassMethod/BoundMethod), generalized from a single bound-self closure
// to spec's per-class *stack* of currently loaded instances, which lets a
// method re-enter the same class on a different instance (spec's "self
// stack" glossary entry).
package object

import (
	"unsafe"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/value"
)

// Procedure is the heap record of spec §3 "Procedure value": use-count is
// carried by the owning value.Handle, everything else lives here.
type Procedure struct {
	Unit        *bytecode.Unit
	Entry       int // bytecode pc of the procedure's body
	FormalCount int
	LocalCount  int
	IsConst     bool
	VarArgs     bool

	// Parent points at the lexically enclosing procedure's record, for
	// closure capture (spec §4.7 step 4's "walk the chain of enclosing
	// procedures").
	Parent *Procedure

	// ActiveUseCount counts how many activations of this procedure are
	// currently live on the call stack; its 0->1 and 1->0 transitions
	// drive the closure environment swap of spec §4.7 steps 4/5.
	ActiveUseCount int

	// Locals holds the procedure's live local-variable array while it has
	// at least one active activation; SavedLocals holds the captured
	// snapshot while ActiveUseCount is 0 (the "dormant locals" slot of
	// spec §9's closure-environment-swap design note).
	Locals      []value.Specifier
	SavedLocals []value.Specifier

	// BoundSelf is set when this procedure value was produced by
	// `menviron` or a method-call-as-value: the object instance the
	// procedure runs against regardless of how it is invoked later.
	BoundSelf *Object

	// Copy is the scratch "already cloned to the new instance" back
	// pointer spec §9 names explicitly ("the copy back-pointer used
	// transiently during cloning"), used only while deep-cloning an
	// environment; nil outside that operation.
	Copy *Procedure

	// Native is non-nil for a built-in procedure (spec §4.7 call step 1);
	// when set, Unit/Entry/Locals are unused and Call dispatches straight
	// to this Go function instead of pushing a call-stack frame.
	Native func(args []value.Specifier) (value.Specifier, error)
}

// ProcedurePayload wraps a *Procedure as a value.Payload so it can be
// addressed through a Handle like any other aggregate.
type ProcedurePayload struct{ P *Procedure }

func (p *ProcedurePayload) Kind() value.Form { return value.FormProcedure }
func (p *ProcedurePayload) Release()         {}
func (p *ProcedurePayload) HashCode() uint32 { return uint32(uintptr(unsafe.Pointer(p.P))) }

func (p *ProcedurePayload) EqualPayload(other value.Payload) bool {
	o, ok := other.(*ProcedurePayload)
	return ok && o.P == p.P
}

// NewProcedure wraps proc as a FormProcedure specifier.
func NewProcedure(proc *Procedure) value.Specifier {
	return value.FromHandle(value.FormProcedure, value.NewHandle(&ProcedurePayload{P: proc}))
}

// AsProcedure returns the underlying *Procedure for a FormProcedure specifier.
func AsProcedure(s value.Specifier) *Procedure { return s.Payload().(*ProcedurePayload).P }

// SwapIn restores a dormant procedure's locals from its saved snapshot,
// implementing the 0->1 transition half of spec §4.7 step 4.
func (p *Procedure) SwapIn() {
	p.ActiveUseCount++
	if p.ActiveUseCount == 1 && p.SavedLocals != nil {
		p.Locals, p.SavedLocals = p.SavedLocals, nil
	}
}

// SwapOut snapshots a procedure's locals back into SavedLocals once its
// last activation returns, implementing the 1->0 transition half of spec
// §4.7 step 5.
func (p *Procedure) SwapOut() {
	p.ActiveUseCount--
	if p.ActiveUseCount == 0 {
		p.SavedLocals = p.Locals
		p.Locals = nil
	}
}
