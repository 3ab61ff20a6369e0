package value

import (
	"hash/fnv"
	"strings"

	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// invalidHash marks a StringPayload whose cached hash must be recomputed
// (spec §3: "cached hash or sentinel-for-invalidated").
const invalidHash = ^uint32(0)

// charCell is one node of the doubly-linked character list backing a
// string, per spec §3.
type charCell struct {
	r    rune
	prev *charCell
	next *charCell
}

// StringPayload is a SETL2 string: length, cached-or-invalidated hash, and a
// doubly linked list of character cells.
type StringPayload struct {
	length int
	hash   uint32
	head   *charCell
	tail   *charCell
}

func (s *StringPayload) Kind() Form { return FormString }
func (s *StringPayload) Release()   {}

func (s *StringPayload) HashCode() uint32 {
	if s.hash != invalidHash {
		return s.hash
	}
	h := fnv.New32a()
	h.Write([]byte(s.Text()))
	s.hash = h.Sum32()
	return s.hash
}

func (s *StringPayload) EqualPayload(other Payload) bool {
	o, ok := other.(*StringPayload)
	return ok && s.Text() == o.Text()
}

// Text materializes the rope into a Go string (used for hashing, printing,
// and as the base for most string builtins outside this core).
func (s *StringPayload) Text() string {
	var b strings.Builder
	b.Grow(s.length)
	for c := s.head; c != nil; c = c.next {
		b.WriteRune(c.r)
	}
	return b.String()
}

// Len returns the string's length in characters.
func (s *StringPayload) Len() int { return s.length }

// NewString builds a fresh string specifier from a Go string.
func NewString(text string) Specifier {
	sp := &StringPayload{hash: invalidHash}
	var prev *charCell
	for _, r := range text {
		c := &charCell{r: r, prev: prev}
		if prev != nil {
			prev.next = c
		} else {
			sp.head = c
		}
		prev = c
		sp.length++
	}
	sp.tail = prev
	return FromHandle(FormString, NewHandle(sp))
}

// cellAt returns the cell at 1-based index i (spec §4.4 "1-based").
func (s *StringPayload) cellAt(i int) *charCell {
	if i < 1 || i > s.length {
		return nil
	}
	c := s.head
	for n := 1; n < i; n++ {
		c = c.next
	}
	return c
}

// NormalizeIndex turns a (possibly negative) SETL2 index into a 1-based
// absolute index against a collection of the given length, per spec §4.4:
// negative indices count from the end, and indices <= 0 after normalization
// fail with a domain error.
func NormalizeIndex(i, length int) (int, error) {
	if i < 0 {
		i = length + i + 1
	}
	if i <= 0 {
		return 0, vmerr.Domainf("index %d out of range for length %d", i, length)
	}
	return i, nil
}

// CharAt implements string extraction `s(i)` (spec §4.4).
func CharAt(s Specifier, i int) (Specifier, error) {
	sp := s.Payload().(*StringPayload)
	idx, err := NormalizeIndex(i, sp.length)
	if err != nil {
		return Omega, err
	}
	c := sp.cellAt(idx)
	if c == nil {
		return Omega, nil
	}
	return NewString(string(c.r)), nil
}

// Slice implements `s(i..j)` / `s(i..)` for strings (spec §4.4).
func Slice(s Specifier, start, end int, hasEnd bool) (Specifier, error) {
	sp := s.Payload().(*StringPayload)
	si, err := NormalizeIndex(start, sp.length)
	if err != nil {
		return Omega, err
	}
	ei := sp.length
	if hasEnd {
		ei, err = NormalizeIndex(end, sp.length)
		if err != nil {
			return Omega, err
		}
	}
	if si > ei+1 {
		return Omega, vmerr.Domainf("slice start %d exceeds end+1 %d", si, ei+1)
	}
	var b strings.Builder
	c := sp.cellAt(si)
	for n := si; n <= ei && c != nil; n++ {
		b.WriteRune(c.r)
		c = c.next
	}
	return NewString(b.String()), nil
}

// SetCharAt implements `s(i) := c` (spec §4.5): val must be a one-character
// string, or omega to delete the character at i, shifting later indices.
func SetCharAt(s Specifier, i int, val Specifier) (Specifier, error) {
	sp := s.Payload().(*StringPayload)
	idx, err := NormalizeIndex(i, sp.length+1)
	if err != nil {
		return Omega, err
	}
	runes := []rune(sp.Text())
	var repl string
	if !val.IsOmega() {
		repl = val.Payload().(*StringPayload).Text()
	}
	if idx > len(runes) {
		return NewString(sp.Text() + repl), nil
	}
	return NewString(string(runes[:idx-1]) + repl + string(runes[idx:])), nil
}

// SpliceString implements `s(i..j) := v` / `s(i..) := v` (spec §4.5):
// removes the addressed run and splices v's characters in its place.
func SpliceString(s Specifier, start, end int, hasEnd bool, val Specifier) (Specifier, error) {
	sp := s.Payload().(*StringPayload)
	si, err := NormalizeIndex(start, sp.length+1)
	if err != nil {
		return Omega, err
	}
	ei := sp.length
	if hasEnd {
		ei, err = NormalizeIndex(end, sp.length)
		if err != nil {
			return Omega, err
		}
	}
	if si > ei+1 {
		return Omega, vmerr.Domainf("splice start %d exceeds end+1 %d", si, ei+1)
	}
	runes := []rune(sp.Text())
	var repl string
	if !val.IsOmega() {
		repl = val.Payload().(*StringPayload).Text()
	}
	lo, hi := si-1, ei
	if hi > len(runes) {
		hi = len(runes)
	}
	if lo > len(runes) {
		lo = len(runes)
	}
	return NewString(string(runes[:lo]) + repl + string(runes[hi:])), nil
}

// Concat implements overloaded string `+`. The result's hash is computed
// fresh rather than composed from the operands' cached hashes, matching
// spec §4.2's "invalidates the cached hash" note for the mutating forms —
// concatenation here always builds a new rope, so there is nothing to
// invalidate in place, but no stale hash is ever reused either.
func Concat(a, b Specifier) Specifier {
	return NewString(a.Payload().(*StringPayload).Text() + b.Payload().(*StringPayload).Text())
}

// Repeat implements integer × string (spec §4.2: "integer × string/tuple
// repeats").
func Repeat(n int, s Specifier) Specifier {
	if n <= 0 {
		return NewString("")
	}
	return NewString(strings.Repeat(s.Payload().(*StringPayload).Text(), n))
}
