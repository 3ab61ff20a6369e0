package value

import "math"

// Equal implements spec §3's "equality and hashing are defined recursively
// in form-order": two specifiers compare equal only if same form (integers
// and reals never compare equal across forms, matching SETL2's strict
// typing of `=`), then by form-specific rule.
func Equal(a, b Specifier) bool {
	if a.form != b.form {
		return false
	}
	switch a.form {
	case FormOmega:
		return true
	case FormShortInt, FormAtom, FormLabel:
		return a.inl == b.inl
	case FormReal:
		return a.real == b.real || (math.IsNaN(a.real) && math.IsNaN(b.real))
	default:
		if a.heap == b.heap {
			return true
		}
		if a.heap == nil || b.heap == nil {
			return false
		}
		ea, ok := a.heap.Payload().(Equaler)
		if !ok {
			return false
		}
		return ea.EqualPayload(b.heap.Payload())
	}
}

// Hash returns a's hash code, consistent with Equal (spec §8: "for every
// pair of values a, b, if a = b then hash(a) = hash(b)").
func Hash(a Specifier) uint32 {
	switch a.form {
	case FormOmega:
		return 0
	case FormShortInt:
		return uint32(a.inl) ^ uint32(a.inl>>32)
	case FormAtom, FormLabel:
		return uint32(a.inl)*2654435761 + 1
	case FormReal:
		bits := math.Float64bits(a.real)
		return uint32(bits) ^ uint32(bits>>32)
	default:
		if a.heap == nil {
			return 0
		}
		return a.heap.Payload().HashCode()
	}
}
