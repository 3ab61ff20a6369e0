package object

import "github.com/setl2-lang/setl2vm/internal/value"

// OperatorKind indexes the fixed operator-overload slot table of spec
// §4.9 ("a fixed table of slot indices (m_add, m_sub, ..., and _r mirrors").
type OperatorKind uint8

const (
	OpAdd OperatorKind = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpMod
	OpMin
	OpMax
	OpWith
	OpLess
	OpLessf
	OpNpow
	OpEq
	OpLt
	OpOf
	OpOfSet
	OpSlice
	OpTail
	OpSof
	OpSofa
	OpSslice
	OpSend
	numOperators
)

// Slot is one entry of a class's dense slot table (spec §3 "Class
// descriptor"): instance variable, method, or both visibility flags.
type Slot struct {
	Name     string
	IsMethod bool
	IsPublic bool
	InClass  *Class          // the class where this slot was declared (for visibility checks)
	Body     value.Specifier // FormProcedure, valid when IsMethod
}

// Class is the library-owned descriptor consumed by the object model
// (spec §3 "Class descriptor", §9 "owned by the library").
type Class struct {
	Name       string
	Slots      []Slot
	nameIndex  map[string]int
	VarCount   int // number of instance-variable slots (as opposed to method slots)
	TrieHeight int // tree height hint for freshly created object tries

	// operators[k] is the slot index of the left-operand overload for k,
	// or -1 if absent; operatorsR is the "_r" mirror table used when the
	// left operand has no matching slot (spec §4.9).
	operators  [numOperators]int
	operatorsR [numOperators]int

	// IsProcess marks a class whose instances spawn a process record on
	// initobj (spec §3 "Process record", §4.9 initobj step).
	IsProcess bool

	// SelfStack is the per-class stack of currently loaded instances used
	// to nest method invocations into different instances of the same
	// class (spec glossary "Self stack").
	SelfStack []*Object

	// Current is the instance whose variables are presently loaded into
	// this class's live instance-variable slots, or nil.
	Current *Object
}

// NewClass returns an empty class descriptor ready for a loader to
// populate via AddSlot/SetOperator.
func NewClass(name string) *Class {
	c := &Class{Name: name, nameIndex: make(map[string]int)}
	for i := range c.operators {
		c.operators[i] = -1
		c.operatorsR[i] = -1
	}
	return c
}

// AddSlot appends a slot and returns its index.
func (c *Class) AddSlot(s Slot) int {
	s.InClass = c
	idx := len(c.Slots)
	c.Slots = append(c.Slots, s)
	c.nameIndex[s.Name] = idx
	if !s.IsMethod {
		c.VarCount++
	}
	return idx
}

// SlotIndex looks up a slot by name, returning -1 if absent.
func (c *Class) SlotIndex(name string) int {
	if idx, ok := c.nameIndex[name]; ok {
		return idx
	}
	return -1
}

// SetOperator registers the left-operand (mirror=false) or right-operand
// mirror (mirror=true) slot index for an overloadable operator.
func (c *Class) SetOperator(op OperatorKind, slotIdx int, mirror bool) {
	if mirror {
		c.operatorsR[op] = slotIdx
	} else {
		c.operators[op] = slotIdx
	}
}

// Operator returns the left-operand overload slot index for op, or -1.
func (c *Class) Operator(op OperatorKind) int { return c.operators[op] }

// OperatorMirror returns the right-operand mirror overload slot index for
// op, or -1.
func (c *Class) OperatorMirror(op OperatorKind) int { return c.operatorsR[op] }
