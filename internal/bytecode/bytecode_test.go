package bytecode

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/value"
)

func TestUnitEmitAndConstants(t *testing.T) {
	u := NewUnit("test")
	idx := u.AddConstant(value.ShortInt(42))
	var slot value.Specifier
	pc := u.Emit(OpAdd, SpecOperand(&slot), IntOperand(int64(idx)), Operand{}, 1)
	if pc != 0 {
		t.Fatalf("expected first emitted instruction at pc 0, got %d", pc)
	}
	if u.Code[0].Op != OpAdd {
		t.Fatalf("expected OpAdd, got %v", u.Code[0].Op)
	}
	if u.Code[0].B.Int != int64(idx) {
		t.Fatalf("expected B operand to carry constant index %d, got %d", idx, u.Code[0].B.Int)
	}
}

func TestExtraReadsFollowingNoopOperand(t *testing.T) {
	u := NewUnit("test")
	u.Emit(OpSlice, Operand{}, Operand{}, Operand{}, 1)
	u.Emit(OpNoop, IntOperand(99), Operand{}, Operand{}, 1)
	extra := Extra(u, 0)
	if extra.Kind != OperandInt || extra.Int != 99 {
		t.Fatalf("expected overflow operand 99, got %+v", extra)
	}
}

func TestExtraAbsentWhenNoFollowingNoop(t *testing.T) {
	u := NewUnit("test")
	u.Emit(OpAdd, Operand{}, Operand{}, Operand{}, 1)
	u.Emit(OpSub, Operand{}, Operand{}, Operand{}, 1)
	extra := Extra(u, 0)
	if extra.Kind != OperandNone {
		t.Fatalf("expected no overflow operand, got %+v", extra)
	}
}
