package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/value"
)

// read dereferences a pre-resolved OperandSpecifier, panicking on any other
// kind: every opcode handler that calls this has already validated its
// operand shapes at load time (spec §4.1's "operand pointers are
// pre-resolved... by the loader").
func read(op bytecode.Operand) value.Specifier {
	if op.Kind != bytecode.OperandSpecifier {
		return value.Omega
	}
	return *op.Spec
}

// store moves a freshly constructed specifier (an arithmetic/extraction
// result, a newly built aggregate) into a destination operand: v's heap
// target, if any, already carries the one owning reference its constructor
// gave it, so this only needs to release the slot's previous occupant, not
// mark v again. Every opcode handler in this package that computes a brand
// new value stores it this way.
func store(op bytecode.Operand, v value.Specifier) {
	if op.Kind != bytecode.OperandSpecifier {
		return
	}
	old := *op.Spec
	*op.Spec = v
	old.Unmark()
}

// storeCopy duplicates an existing, separately-owned specifier (e.g. a
// plain `target := source` where source remains live elsewhere) into a
// destination operand, per the mark/unmark protocol of spec §4.5.
func storeCopy(op bytecode.Operand, v value.Specifier) {
	if op.Kind != bytecode.OperandSpecifier {
		return
	}
	value.Assign(op.Spec, v)
}

// trueAtom/falseAtom give a stable boolean encoding (SETL2 booleans are the
// atoms 'true and 'false, spec §4.2's "overloaded comparison" note).
func (in *Interpreter) trueAtom() value.Specifier {
	return value.Atom(in.Atoms.Intern("true"))
}
func (in *Interpreter) falseAtom() value.Specifier {
	return value.Atom(in.Atoms.Intern("false"))
}
func (in *Interpreter) boolAtom(b bool) value.Specifier {
	if b {
		return in.trueAtom()
	}
	return in.falseAtom()
}
func (in *Interpreter) atomIsTrue(s value.Specifier) bool {
	return s.Form() == value.FormAtom && s.AtomNumber() == in.Atoms.Intern("true")
}

