// Package bytecode defines the instruction and operand shapes the dispatch
// loop in internal/vm executes (spec §4.1). Operand slots are resolved by
// the loader into direct pointers/indices before the VM ever runs, so the
// hot loop never re-parses an operand encoding.
package bytecode

// OpCode groups mirror spec §4.1's "dense switch over opcode groups":
// arithmetic, set/tuple, unary, extraction, assignment, condition, iterator,
// object, call/return, control flow, I/O-wrappers.
type OpCode uint16

const (
	OpNoop OpCode = iota // carries operand overflow for 4-operand forms (§4.1)

	// Arithmetic & overloaded operators (§4.2)
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpMod
	OpMin
	OpMax
	OpNeg
	OpWith
	OpLess
	OpLessf
	OpNpow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Set/tuple construction (§4.3)
	OpMakeSet
	OpMakeTuple
	OpMakeMap

	// Unary
	OpCard
	OpNot
	OpPow2 // powerset-of operator (distinct from the npow iterator kind)

	// Extraction & slicing (§4.4)
	OpOf    // f(x)
	OpKof   // f(x) then remove
	OpOfSet // f{x}
	OpSlice
	OpTail

	// Assignment (§4.5)
	OpAssign
	OpSof
	OpSofa
	OpSslice
	OpSend
	OpErase // p_erase: spec-preserved near-duplicate of OpSof, §9 open question 2

	// Iterator engine (§4.6)
	OpIterStart
	OpIterNext

	// Object creation / method dispatch (§4.9)
	OpInitObj
	OpInitEnd
	OpSlotOf
	OpMenviron

	// Procedure call/return (§4.7)
	OpCallLiteral
	OpCallGeneral
	OpCallMethod
	OpReturn

	// Control flow
	OpJump
	OpJumpFalse
	OpJumpTrue
	OpHalt

	// I/O wrappers (§6, external collaborator in spec but must exist to run
	// programs end to end)
	OpPrint
	OpRead
)

func (op OpCode) String() string {
	switch op {
	case OpNoop:
		return "noop"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpPow:
		return "pow"
	case OpMod:
		return "mod"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	case OpNeg:
		return "neg"
	case OpWith:
		return "with"
	case OpLess:
		return "less"
	case OpLessf:
		return "lessf"
	case OpNpow:
		return "npow"
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLt:
		return "lt"
	case OpLe:
		return "le"
	case OpGt:
		return "gt"
	case OpGe:
		return "ge"
	case OpMakeSet:
		return "make_set"
	case OpMakeTuple:
		return "make_tuple"
	case OpMakeMap:
		return "make_map"
	case OpCard:
		return "card"
	case OpNot:
		return "not"
	case OpPow2:
		return "powerset"
	case OpOf:
		return "of"
	case OpKof:
		return "kof"
	case OpOfSet:
		return "ofset"
	case OpSlice:
		return "slice"
	case OpTail:
		return "tail"
	case OpAssign:
		return "assign"
	case OpSof:
		return "sof"
	case OpSofa:
		return "sofa"
	case OpSslice:
		return "sslice"
	case OpSend:
		return "send"
	case OpErase:
		return "erase"
	case OpIterStart:
		return "iter_start"
	case OpIterNext:
		return "iter_next"
	case OpInitObj:
		return "initobj"
	case OpInitEnd:
		return "initend"
	case OpSlotOf:
		return "slotof"
	case OpMenviron:
		return "menviron"
	case OpCallLiteral:
		return "call_literal"
	case OpCallGeneral:
		return "call_general"
	case OpCallMethod:
		return "call_method"
	case OpReturn:
		return "return"
	case OpJump:
		return "jump"
	case OpJumpFalse:
		return "jump_false"
	case OpJumpTrue:
		return "jump_true"
	case OpHalt:
		return "halt"
	case OpPrint:
		return "print"
	case OpRead:
		return "read"
	default:
		return "?"
	}
}
