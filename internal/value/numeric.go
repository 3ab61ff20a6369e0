package value

import (
	"math"
	"math/big"

	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// shortIntMax/shortIntMin bound the range short integers are kept in before an
// operation is required to promote to FormBigInt. Using less than the full
// int64 range leaves headroom to detect overflow by sign inspection alone,
// the way spec §4.2 describes ("detect overflow by checking sign bits").
const (
	shortIntMax = int64(1)<<62 - 1
	shortIntMin = -(int64(1) << 62)
)

func fitsShort(n int64) bool { return n >= shortIntMin && n <= shortIntMax }

func toBig(s Specifier) *big.Int {
	switch s.form {
	case FormShortInt:
		return big.NewInt(s.inl)
	case FormBigInt:
		return s.Payload().(*BigIntPayload).V
	default:
		panic("toBig: not an integer specifier")
	}
}

// normalizeBig demotes a big.Int result back to a short integer when it
// fits, mirroring spec §4.2's short↔big promotion in both directions.
func normalizeBig(v *big.Int) Specifier {
	if v.IsInt64() {
		n := v.Int64()
		if fitsShort(n) {
			return ShortInt(n)
		}
	}
	return BigInt(v)
}

func asFloat(s Specifier) float64 {
	switch s.form {
	case FormShortInt:
		return float64(s.inl)
	case FormBigInt:
		f := new(big.Float).SetInt(s.Payload().(*BigIntPayload).V)
		v, _ := f.Float64()
		return v
	case FormReal:
		return s.real
	default:
		panic("asFloat: not a number specifier")
	}
}

func isInteger(s Specifier) bool { return s.form == FormShortInt || s.form == FormBigInt }
func isNumber(s Specifier) bool  { return isInteger(s) || s.form == FormReal }

// Add implements the overloaded `+` for two numeric specifiers (spec §4.2).
func Add(a, b Specifier) (Specifier, error) {
	return numericOp(a, b, "+",
		func(x, y int64) (int64, bool) {
			r := x + y
			if (r > x) == (y > 0) {
				return r, fitsShort(r)
			}
			return 0, false
		},
		func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) },
		func(x, y float64) float64 { return x + y },
	)
}

// Sub implements `-`.
func Sub(a, b Specifier) (Specifier, error) {
	return numericOp(a, b, "-",
		func(x, y int64) (int64, bool) {
			r := x - y
			if (r < x) == (y > 0) {
				return r, fitsShort(r)
			}
			return 0, false
		},
		func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) },
		func(x, y float64) float64 { return x - y },
	)
}

// Mul implements `*`.
func Mul(a, b Specifier) (Specifier, error) {
	return numericOp(a, b, "*",
		func(x, y int64) (int64, bool) {
			if x == 0 || y == 0 {
				return 0, true
			}
			r := x * y
			if r/y != x {
				return 0, false
			}
			return r, fitsShort(r)
		},
		func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) },
		func(x, y float64) float64 { return x * y },
	)
}

// numericOp is the shared short-try/big-fallback/real-promote skeleton every
// overloaded arithmetic operator uses, per spec §4.2's description of
// "Short-integer paths attempt the native operation, detect overflow by
// checking sign bits, and promote to big integer when necessary. Real paths
// promote integers to double on demand."
func numericOp(a, b Specifier, opName string,
	shortOp func(x, y int64) (int64, bool),
	bigOp func(x, y *big.Int) *big.Int,
	realOp func(x, y float64) float64,
) (Specifier, error) {
	if !isNumber(a) || !isNumber(b) {
		return Omega, vmerr.Typef("%s requires numeric operands, got %s and %s", opName, a.Form(), b.Form())
	}
	if a.form == FormReal || b.form == FormReal {
		r := realOp(asFloat(a), asFloat(b))
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return Omega, vmerr.Overflowf("%s produced a non-finite real", opName)
		}
		return Real(r), nil
	}
	if a.form == FormShortInt && b.form == FormShortInt {
		if r, ok := shortOp(a.inl, b.inl); ok {
			return ShortInt(r), nil
		}
	}
	return normalizeBig(bigOp(toBig(a), toBig(b))), nil
}

// Div implements `/`: integer division when both operands are integers and
// the result is exact-enough per SETL2 semantics (real quotient otherwise),
// zero-divide failing per spec §4.2.
func Div(a, b Specifier) (Specifier, error) {
	if !isNumber(a) || !isNumber(b) {
		return Omega, vmerr.Typef("/ requires numeric operands, got %s and %s", a.Form(), b.Form())
	}
	if a.form == FormReal || b.form == FormReal {
		denom := asFloat(b)
		if denom == 0 {
			return Omega, vmerr.Domainf("zero-divide in /")
		}
		return Real(asFloat(a) / denom), nil
	}
	bb := toBig(b)
	if bb.Sign() == 0 {
		return Omega, vmerr.Domainf("zero-divide in /")
	}
	ab := toBig(a)
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(ab, bb, r)
	if r.Sign() == 0 {
		return normalizeBig(q), nil
	}
	return Real(asFloat(a) / asFloat(b)), nil
}

// Mod implements `mod`. `0 mod 0` and any divide-by-zero fail with a
// zero-divide domain error (spec §4.2).
func Mod(a, b Specifier) (Specifier, error) {
	if !isInteger(a) || !isInteger(b) {
		return Omega, vmerr.Typef("mod requires integer operands, got %s and %s", a.Form(), b.Form())
	}
	bb := toBig(b)
	if bb.Sign() == 0 {
		return Omega, vmerr.Domainf("zero-divide in mod")
	}
	r := new(big.Int).Mod(toBig(a), bb)
	return normalizeBig(r), nil
}

// Pow implements `**`. A negative exponent converts the base to real when
// possible, otherwise fails with a domain error (spec §4.2).
func Pow(a, b Specifier) (Specifier, error) {
	if !isNumber(a) || !isInteger(b) {
		return Omega, vmerr.Typef("** requires a numeric base and integer exponent")
	}
	exp := toBig(b)
	if exp.Sign() < 0 {
		if a.form == FormReal || isInteger(a) {
			base := asFloat(a)
			if base == 0 {
				return Omega, vmerr.Domainf("zero-divide in ** with negative exponent")
			}
			e, _ := new(big.Float).SetInt(exp).Float64()
			return Real(math.Pow(base, e)), nil
		}
		return Omega, vmerr.Domainf("negative exponent requires a real-convertible base")
	}
	if a.form == FormReal {
		e, _ := new(big.Float).SetInt(exp).Float64()
		r := math.Pow(a.real, e)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return Omega, vmerr.Overflowf("** produced a non-finite real")
		}
		return Real(r), nil
	}
	if !exp.IsInt64() {
		return Omega, vmerr.Resourcef("** exponent too large")
	}
	return normalizeBig(new(big.Int).Exp(toBig(a), exp, nil)), nil
}

// Min/Max implement the overloaded comparison-based reducers.
func Min(a, b Specifier) (Specifier, error) { return pickBy(a, b, true) }
func Max(a, b Specifier) (Specifier, error) { return pickBy(a, b, false) }

func pickBy(a, b Specifier, wantMin bool) (Specifier, error) {
	less, err := Less(a, b)
	if err != nil {
		return Omega, err
	}
	if less == wantMin {
		return a, nil
	}
	return b, nil
}

// Less implements numeric `<` used by min/max/sort ordering (spec §4.2's
// `less` overload for numbers; strings/tuples are compared lexicographically
// in internal/vm/operators.go).
func Less(a, b Specifier) (bool, error) {
	if !isNumber(a) || !isNumber(b) {
		return false, vmerr.Typef("less requires numeric operands, got %s and %s", a.Form(), b.Form())
	}
	if a.form == FormReal || b.form == FormReal {
		return asFloat(a) < asFloat(b), nil
	}
	return toBig(a).Cmp(toBig(b)) < 0, nil
}

// Negate implements unary `-`.
func Negate(a Specifier) (Specifier, error) {
	switch a.form {
	case FormShortInt:
		if a.inl == shortIntMin {
			return normalizeBig(new(big.Int).Neg(big.NewInt(a.inl))), nil
		}
		return ShortInt(-a.inl), nil
	case FormBigInt:
		return normalizeBig(new(big.Int).Neg(toBig(a))), nil
	case FormReal:
		return Real(-a.real), nil
	default:
		return Omega, vmerr.Typef("unary - requires a numeric operand, got %s", a.Form())
	}
}
