package bytecode

import "github.com/setl2-lang/setl2vm/internal/value"

// Unit is one loaded compilation unit: its instruction stream, the
// constant pool the loader resolved operands against, and its
// error-extension map (spec §4.10: "the currently executing unit's
// err_ext_map, a map from an opcode-derived key like $ERR_EXTn to a
// user-defined handler procedure").
type Unit struct {
	Name      string
	Code      []Instruction
	Constants []value.Specifier
	Lines     []int // source line per instruction, for the debug hook and abend messages
	ErrExtMap map[string]value.Specifier
	Entry     int // pc of the unit's top-level entry point
}

// NewUnit returns an empty unit ready for a loader to populate.
func NewUnit(name string) *Unit {
	return &Unit{Name: name, ErrExtMap: make(map[string]value.Specifier)}
}

// Emit appends an instruction, recording its source line, and returns its pc.
func (u *Unit) Emit(op OpCode, a, b, c Operand, line int) int {
	pc := len(u.Code)
	u.Code = append(u.Code, Instruction{Op: op, A: a, B: b, C: c})
	u.Lines = append(u.Lines, line)
	return pc
}

// AddConstant interns a specifier into the unit's constant pool and returns
// its index, for the loader to build OperandSpecifier operands against.
func (u *Unit) AddConstant(v value.Specifier) int {
	u.Constants = append(u.Constants, v)
	return len(u.Constants) - 1
}
