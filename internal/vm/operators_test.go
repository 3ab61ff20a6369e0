package vm

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestExecArithAddVariants(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}

	a, b := value.ShortInt(2), value.ShortInt(3)
	var dest value.Specifier
	instr := bytecode.Instruction{Op: bytecode.OpAdd, A: bytecode.SpecOperand(&dest), B: bytecode.SpecOperand(&a), C: bytecode.SpecOperand(&b)}
	if err := in.execArith(instr); err != nil {
		t.Fatalf("execArith(add ints): %v", err)
	}
	if dest.ShortIntValue() != 5 {
		t.Fatalf("expected 5, got %v", dest.ShortIntValue())
	}

	s1, s2 := value.NewString("foo"), value.NewString("bar")
	var strDest value.Specifier
	strInstr := bytecode.Instruction{Op: bytecode.OpAdd, A: bytecode.SpecOperand(&strDest), B: bytecode.SpecOperand(&s1), C: bytecode.SpecOperand(&s2)}
	if err := in.execArith(strInstr); err != nil {
		t.Fatalf("execArith(add strings): %v", err)
	}
	if strDest.Payload().(*value.StringPayload).Text() != "foobar" {
		t.Fatalf("expected \"foobar\", got %q", strDest.Payload().(*value.StringPayload).Text())
	}
}

func TestExecArithMulRepeat(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}
	n := value.ShortInt(3)
	s := value.NewString("ab")
	var dest value.Specifier
	instr := bytecode.Instruction{Op: bytecode.OpMul, A: bytecode.SpecOperand(&dest), B: bytecode.SpecOperand(&n), C: bytecode.SpecOperand(&s)}
	if err := in.execArith(instr); err != nil {
		t.Fatalf("execArith(mul repeat): %v", err)
	}
	if dest.Payload().(*value.StringPayload).Text() != "ababab" {
		t.Fatalf("expected \"ababab\", got %q", dest.Payload().(*value.StringPayload).Text())
	}
}

func TestExecArithWithOnSet(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}
	s := trie.NewSet(trie.SetWith(trie.AsSet(trie.EmptySet()), true, value.ShortInt(1)))
	elem := value.ShortInt(2)
	var dest value.Specifier
	instr := bytecode.Instruction{Op: bytecode.OpWith, A: bytecode.SpecOperand(&dest), B: bytecode.SpecOperand(&s), C: bytecode.SpecOperand(&elem)}
	if err := in.execArith(instr); err != nil {
		t.Fatalf("execArith(with): %v", err)
	}
	if trie.AsSet(dest).Len() != 2 {
		t.Fatalf("expected a 2-element set, got %d", trie.AsSet(dest).Len())
	}
}

func TestExecArithWithOnMapPromotesToMulti(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}
	m := trie.EmptyMap()

	pair1 := trie.NewTuple(value.ShortInt(1), value.ShortInt(10))
	var afterFirst value.Specifier
	instr1 := bytecode.Instruction{Op: bytecode.OpWith, A: bytecode.SpecOperand(&afterFirst), B: bytecode.SpecOperand(&m), C: bytecode.SpecOperand(&pair1)}
	if err := in.execArith(instr1); err != nil {
		t.Fatalf("execArith(with map, first pair): %v", err)
	}
	if got := trie.MapGet(trie.AsMap(afterFirst), value.ShortInt(1)); got.ShortIntValue() != 10 {
		t.Fatalf("expected m(1) == 10, got %v", got)
	}

	pair2 := trie.NewTuple(value.ShortInt(1), value.ShortInt(20))
	var afterSecond value.Specifier
	instr2 := bytecode.Instruction{Op: bytecode.OpWith, A: bytecode.SpecOperand(&afterSecond), B: bytecode.SpecOperand(&afterFirst), C: bytecode.SpecOperand(&pair2)}
	if err := in.execArith(instr2); err != nil {
		t.Fatalf("execArith(with map, second pair): %v", err)
	}

	if got := trie.MapGet(trie.AsMap(afterSecond), value.ShortInt(1)); !got.IsOmega() {
		t.Fatalf("expected m(1) == Omega once the domain is multi-valued, got %v", got)
	}
	if got := trie.MapGetSet(trie.AsMap(afterSecond), value.ShortInt(1)); got.Len() != 2 {
		t.Fatalf("expected m{1} to hold 2 values, got %d", got.Len())
	}
	if trie.AsMap(afterSecond).Len() != 1 {
		t.Fatalf("expected #m == 1 (one domain element), got %d", trie.AsMap(afterSecond).Len())
	}
}

func TestExecArithSubSetDifference(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}
	a := trie.NewSet(trie.SetWith(trie.SetWith(trie.AsSet(trie.EmptySet()), true, value.ShortInt(1)), true, value.ShortInt(2)))
	b := trie.NewSet(trie.SetWith(trie.AsSet(trie.EmptySet()), true, value.ShortInt(2)))

	var dest value.Specifier
	instr := bytecode.Instruction{Op: bytecode.OpSub, A: bytecode.SpecOperand(&dest), B: bytecode.SpecOperand(&a), C: bytecode.SpecOperand(&b)}
	if err := in.execArith(instr); err != nil {
		t.Fatalf("execArith(sub sets): %v", err)
	}
	diff := trie.AsSet(dest)
	if diff.Len() != 1 || !trie.SetHas(diff, value.ShortInt(1)) {
		t.Fatalf("expected {1} - {2} to leave {1}, got %d elements", diff.Len())
	}
}

func TestExecArithSubNumeric(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}
	a, b := value.ShortInt(9), value.ShortInt(4)
	var dest value.Specifier
	instr := bytecode.Instruction{Op: bytecode.OpSub, A: bytecode.SpecOperand(&dest), B: bytecode.SpecOperand(&a), C: bytecode.SpecOperand(&b)}
	if err := in.execArith(instr); err != nil {
		t.Fatalf("execArith(sub ints): %v", err)
	}
	if dest.ShortIntValue() != 5 {
		t.Fatalf("expected 5, got %v", dest.ShortIntValue())
	}
}

func TestExecUnaryNegAndNot(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}

	n := value.ShortInt(5)
	var negDest value.Specifier
	negInstr := bytecode.Instruction{Op: bytecode.OpNeg, A: bytecode.SpecOperand(&negDest), B: bytecode.SpecOperand(&n)}
	if err := in.execUnary(negInstr); err != nil {
		t.Fatalf("execUnary(neg): %v", err)
	}
	if negDest.ShortIntValue() != -5 {
		t.Fatalf("expected -5, got %v", negDest.ShortIntValue())
	}

	truth := in.trueAtom()
	var notDest value.Specifier
	notInstr := bytecode.Instruction{Op: bytecode.OpNot, A: bytecode.SpecOperand(&notDest), B: bytecode.SpecOperand(&truth)}
	if err := in.execUnary(notInstr); err != nil {
		t.Fatalf("execUnary(not): %v", err)
	}
	if in.atomIsTrue(notDest) {
		t.Fatalf("expected not(true) to be false")
	}
}

func TestExecUnaryCardinality(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}
	tup := trie.NewTuple(value.ShortInt(1), value.ShortInt(2), value.ShortInt(3))
	var dest value.Specifier
	instr := bytecode.Instruction{Op: bytecode.OpCard, A: bytecode.SpecOperand(&dest), B: bytecode.SpecOperand(&tup)}
	if err := in.execUnary(instr); err != nil {
		t.Fatalf("execUnary(card): %v", err)
	}
	if dest.ShortIntValue() != 3 {
		t.Fatalf("expected 3, got %v", dest.ShortIntValue())
	}
}

func TestExecCompareEqAndLt(t *testing.T) {
	in := &Interpreter{Atoms: value.NewAtomTable()}

	a, b := value.ShortInt(2), value.ShortInt(2)
	var eqDest value.Specifier
	eqInstr := bytecode.Instruction{Op: bytecode.OpEq, A: bytecode.SpecOperand(&eqDest), B: bytecode.SpecOperand(&a), C: bytecode.SpecOperand(&b)}
	if err := in.execCompare(eqInstr); err != nil {
		t.Fatalf("execCompare(eq): %v", err)
	}
	if !in.atomIsTrue(eqDest) {
		t.Fatalf("expected 2 == 2 to be true")
	}

	lo, hi := value.ShortInt(2), value.ShortInt(5)
	var ltDest value.Specifier
	ltInstr := bytecode.Instruction{Op: bytecode.OpLt, A: bytecode.SpecOperand(&ltDest), B: bytecode.SpecOperand(&lo), C: bytecode.SpecOperand(&hi)}
	if err := in.execCompare(ltInstr); err != nil {
		t.Fatalf("execCompare(lt): %v", err)
	}
	if !in.atomIsTrue(ltDest) {
		t.Fatalf("expected 2 < 5 to be true")
	}
}

func TestExecArithClassOverloadFallback(t *testing.T) {
	class := object.NewClass("vec")
	method := object.NewProcedure(&object.Procedure{
		FormalCount: 1,
		Native: func(args []value.Specifier) (value.Specifier, error) {
			return value.ShortInt(100 + args[0].ShortIntValue()), nil
		},
	})
	slotIdx := class.AddSlot(object.Slot{Name: "m_add", IsMethod: true, IsPublic: true, Body: method})
	class.SetOperator(object.OpAdd, slotIdx, false)

	obj := object.AsObject(object.NewObject(class))
	left := value.FromHandle(value.FormObject, value.NewHandle(&object.ObjectPayload{O: obj}))
	right := value.ShortInt(7)

	in := &Interpreter{Atoms: value.NewAtomTable()}
	var dest value.Specifier
	instr := bytecode.Instruction{Op: bytecode.OpAdd, A: bytecode.SpecOperand(&dest), B: bytecode.SpecOperand(&left), C: bytecode.SpecOperand(&right)}
	if err := in.execArith(instr); err != nil {
		t.Fatalf("execArith(class overload): %v", err)
	}
	if dest.ShortIntValue() != 107 {
		t.Fatalf("expected the overloaded m_add to produce 107, got %v", dest.ShortIntValue())
	}
}
