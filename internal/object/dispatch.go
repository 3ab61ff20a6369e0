package object

import "github.com/setl2-lang/setl2vm/internal/vmerr"

// InitObj implements spec §4.9 `initobj`: push the class's currently
// loaded self (if any) onto its self stack, reset every instance variable
// to omega by installing a fresh empty trie, and return the new (not yet
// attached) object. The caller (internal/vm) is responsible for creating
// and attaching a process record afterward when class.IsProcess.
func InitObj(class *Class) *Object {
	if class.Current != nil {
		class.SelfStack = append(class.SelfStack, class.Current)
	}
	obj := AsObject(NewObject(class))
	class.Current = obj
	return obj
}

// InitEnd implements spec §4.9 `initend`: the new instance's variables are
// already live in obj.Vars (every assignment during the constructor body
// went straight through Object.Set), so this just pops the self stack and
// restores whatever instance was loaded before InitObj ran.
func InitEnd(class *Class) {
	n := len(class.SelfStack)
	if n == 0 {
		class.Current = nil
		return
	}
	class.Current = class.SelfStack[n-1]
	class.SelfStack = class.SelfStack[:n-1]
}

// ResolveSlot looks up name in class, enforcing visibility: public slots
// are always reachable; private slots only from within the declaring
// class (spec §4.9 "enforce visibility (is_public or called from within
// the class)").
func ResolveSlot(class *Class, name string, callerClass *Class) (int, *Slot, error) {
	idx := class.SlotIndex(name)
	if idx < 0 {
		return -1, nil, vmerr.Classf("class %s has no slot %q", class.Name, name)
	}
	slot := &class.Slots[idx]
	if !slot.IsPublic && slot.InClass != callerClass {
		return -1, nil, vmerr.Classf("slot %q of class %s is not visible here", name, class.Name)
	}
	return idx, slot, nil
}

// PushSelf loads inst as the class's current instance, pushing whatever
// was loaded before, implementing the self-handling half of spec §4.7
// step 5 ("if the procedure has a bound self distinct from the class's
// currently loaded instance, push the current instance").
func PushSelf(class *Class, inst *Object) {
	if class.Current == inst {
		return
	}
	if class.Current != nil {
		class.SelfStack = append(class.SelfStack, class.Current)
	}
	class.Current = inst
}

// PopSelf restores the instance loaded before the most recent PushSelf,
// implementing spec §4.7 return step 4 ("if an old self was present,
// restore it").
func PopSelf(class *Class) {
	n := len(class.SelfStack)
	if n == 0 {
		class.Current = nil
		return
	}
	class.Current = class.SelfStack[n-1]
	class.SelfStack = class.SelfStack[:n-1]
}

// Menviron implements spec §4.9 `menviron`: takes a method-valued slot out
// of its class and returns a procedure value bound to inst, with the
// method's own Parent chain left untouched so the method can still close
// over the class's enclosing procedures when it later escapes further.
func Menviron(class *Class, slotIdx int, inst *Object) (*Procedure, error) {
	slot := &class.Slots[slotIdx]
	if !slot.IsMethod {
		return nil, vmerr.Classf("slot %d of class %s is not a method", slotIdx, class.Name)
	}
	base := AsProcedure(slot.Body)
	bound := *base
	bound.BoundSelf = inst
	return &bound, nil
}
