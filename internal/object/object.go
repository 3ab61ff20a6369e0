package object

import (
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
)

// Object is the heap header of spec §3 "Object": a class reference, an
// instance-variable hash trie (shared implementation with sets/maps, keyed
// by slot index), and an optional process attachment.
//
// Process is deliberately untyped (any) rather than *proc.Process: the
// object and proc packages would otherwise import each other (a process
// record points back at its owning object, and an object optionally points
// at its process). internal/vm, which imports both, does the one necessary
// type assertion.
type Object struct {
	Class   *Class
	Vars    *trie.Trie // Cell{Key: shortint(slotIndex), Val: value}
	Process any
}

// ObjectPayload wraps an *Object as a value.Payload.
type ObjectPayload struct{ O *Object }

func (p *ObjectPayload) Kind() value.Form { return value.FormObject }
func (p *ObjectPayload) HashCode() uint32 { return p.O.Vars.HashCode() }
func (p *ObjectPayload) Release()         { p.O.Vars.Release() }

func (p *ObjectPayload) EqualPayload(other value.Payload) bool {
	o, ok := other.(*ObjectPayload)
	return ok && o.O == p.O // object identity, not structural equality (spec doesn't define `=` across objects)
}

// NewObject allocates a fresh, empty instance of class with every instance
// variable implicitly omega (spec §4.9 initobj: "set every instance
// variable to omega").
func NewObject(class *Class) value.Specifier {
	obj := &Object{Class: class, Vars: trie.Empty()}
	return value.FromHandle(value.FormObject, value.NewHandle(&ObjectPayload{O: obj}))
}

// AsObject returns the underlying *Object for a FormObject specifier.
func AsObject(s value.Specifier) *Object { return s.Payload().(*ObjectPayload).O }

// Get returns instance variable slotIdx's current value, or omega if unset.
func (o *Object) Get(slotIdx int) value.Specifier {
	c := o.Vars.Get(slotHash(slotIdx), slotKey(slotIdx))
	if c == nil {
		return value.Omega
	}
	return c.Val
}

// Set assigns slotIdx's value via the aggregate mutation protocol (spec
// §4.3), used by ordinary instance-variable assignment. InitEnd does not
// call it: the new object's cells are already live, so no snapshot is taken.
func (o *Object) Set(unique bool, slotIdx int, v value.Specifier) {
	key := slotKey(slotIdx)
	h := slotHash(slotIdx)
	o.Vars = o.Vars.Put(unique, h, key, func(old *trie.Cell) *trie.Cell {
		if old != nil {
			old.Val.Unmark()
		}
		v.Mark()
		return &trie.Cell{Hash: h, Key: key, Val: v}
	})
}

func slotKey(slotIdx int) value.Specifier { return value.ShortInt(int64(slotIdx)) }
func slotHash(slotIdx int) uint32         { return value.Hash(slotKey(slotIdx)) }
