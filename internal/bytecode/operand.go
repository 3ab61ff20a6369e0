package bytecode

import "github.com/setl2-lang/setl2vm/internal/value"

// OperandKind tags which arm of Operand is live. This is the Go-native
// reading of the union the C source describes, pre-resolved by the loader
// so the dispatch loop never re-decodes an operand (spec §4.1: "operand
// pointers are pre-resolved into direct specifier pointers by the loader").
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandSpecifier        // points directly at a specifier slot (local, constant, or temp)
	OperandTarget           // instruction index, for branches and call entry points
	OperandInt              // a bare integer literal (e.g. a slot index, arg count, npow size)
	OperandClass            // a class-descriptor reference (opaque to this package; cast by internal/vm)
	OperandSlot             // a named/indexed slot within the current class or locals array
)

// Operand is one pre-resolved slot of an Instruction.
type Operand struct {
	Kind   OperandKind
	Spec   *value.Specifier // OperandSpecifier
	Target int              // OperandTarget
	Int    int64            // OperandInt
	Class  any              // OperandClass: *object.Class, cast at the internal/vm call site
	Slot   int              // OperandSlot
}

func SpecOperand(s *value.Specifier) Operand { return Operand{Kind: OperandSpecifier, Spec: s} }
func TargetOperand(pc int) Operand           { return Operand{Kind: OperandTarget, Target: pc} }
func IntOperand(n int64) Operand             { return Operand{Kind: OperandInt, Int: n} }
func ClassOperand(c any) Operand             { return Operand{Kind: OperandClass, Class: c} }
func SlotOperand(slot int) Operand           { return Operand{Kind: OperandSlot, Slot: slot} }
