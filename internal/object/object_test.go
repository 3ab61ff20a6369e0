package object

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestObjectGetSetRoundTrip(t *testing.T) {
	class := NewClass("Point")
	xSlot := class.AddSlot(Slot{Name: "x"})
	obj := AsObject(NewObject(class))

	if !obj.Get(xSlot).IsOmega() {
		t.Fatalf("expected fresh instance variable to be omega")
	}
	obj.Set(true, xSlot, value.ShortInt(7))
	if got := obj.Get(xSlot); got.ShortIntValue() != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestInitObjInitEndNestsSelfStack(t *testing.T) {
	class := NewClass("Counter")
	slot := class.AddSlot(Slot{Name: "n"})

	outer := InitObj(class)
	outer.Set(true, slot, value.ShortInt(1))
	InitEnd(class)
	if class.Current != nil {
		t.Fatalf("expected no current instance after the only InitObj/InitEnd pair")
	}

	inner := InitObj(class)
	PushSelf(class, outer)
	if class.Current != outer {
		t.Fatalf("expected outer pushed as current")
	}
	PopSelf(class)
	if class.Current != inner {
		t.Fatalf("expected self stack popped back to inner")
	}
	_ = inner
}

func TestResolveSlotVisibility(t *testing.T) {
	class := NewClass("C")
	class.AddSlot(Slot{Name: "pub", IsPublic: true})
	class.AddSlot(Slot{Name: "priv", IsPublic: false})

	if _, _, err := ResolveSlot(class, "pub", nil); err != nil {
		t.Fatalf("expected public slot visible from anywhere: %v", err)
	}
	if _, _, err := ResolveSlot(class, "priv", nil); err == nil {
		t.Fatalf("expected private slot to be rejected from outside the class")
	}
	if _, _, err := ResolveSlot(class, "priv", class); err != nil {
		t.Fatalf("expected private slot visible from within its own class: %v", err)
	}
}

func TestOperatorTableLeftAndMirror(t *testing.T) {
	class := NewClass("C")
	addSlot := class.AddSlot(Slot{Name: "m_add_r", IsMethod: true})
	class.SetOperator(OpAdd, addSlot, true)

	if class.Operator(OpAdd) != -1 {
		t.Fatalf("expected no left-operand + overload")
	}
	if class.OperatorMirror(OpAdd) != addSlot {
		t.Fatalf("expected right-operand mirror slot %d, got %d", addSlot, class.OperatorMirror(OpAdd))
	}
}
