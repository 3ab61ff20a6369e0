package iterator

import (
	"testing"

	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
)

func buildSet(elems ...int64) value.Specifier {
	s := trie.Empty()
	for _, e := range elems {
		s = trie.SetWith(s, true, value.ShortInt(e))
	}
	return trie.NewSet(s)
}

func TestSetIteratorVisitsEveryElementOnce(t *testing.T) {
	src := buildSet(1, 2, 3)
	it := StartSetIterator(src)
	seen := map[int64]bool{}
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		seen[v.ShortIntValue()] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct elements, got %d", len(seen))
	}
	if _, ok := it.Next(); ok {
		t.Fatalf("expected exhausted iterator to keep returning false")
	}
}

func TestTuplePairIteratorOrder(t *testing.T) {
	tup := trie.NewTuple(value.ShortInt(10), value.ShortInt(20), value.ShortInt(30))
	it := StartTuplePairIterator(tup)
	want := []int64{10, 20, 30}
	for i, wantVal := range want {
		idx, val, ok := it.NextPair()
		if !ok {
			t.Fatalf("exhausted too early at %d", i)
		}
		if idx.ShortIntValue() != int64(i+1) {
			t.Fatalf("index %d: got %d", i, idx.ShortIntValue())
		}
		if val.ShortIntValue() != wantVal {
			t.Fatalf("value %d: got %d want %d", i, val.ShortIntValue(), wantVal)
		}
	}
	if _, _, ok := it.NextPair(); ok {
		t.Fatalf("expected exhaustion")
	}
}

func TestPowIteratorCount(t *testing.T) {
	src := buildSet(1, 2, 3)
	it, err := StartPowIterator(src)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 8 {
		t.Fatalf("expected 2^3=8 subsets, got %d", count)
	}
}

func TestNPowIteratorSizeAndCount(t *testing.T) {
	src := buildSet(1, 2, 3, 4)
	it, err := StartNPowIterator(src, 2)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for {
		subset, ok := it.Next()
		if !ok {
			break
		}
		if trie.AsSet(subset).Len() != 2 {
			t.Fatalf("expected every subset to have size 2, got %d", trie.AsSet(subset).Len())
		}
		count++
	}
	// C(4,2) = 6
	if count != 6 {
		t.Fatalf("expected 6 2-subsets of a 4-element set, got %d", count)
	}
}

func TestNPowIteratorZeroSizeYieldsOnlyEmptySet(t *testing.T) {
	src := buildSet(1, 2, 3)
	it, err := StartNPowIterator(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	subset, ok := it.Next()
	if !ok {
		t.Fatalf("expected one subset")
	}
	if trie.AsSet(subset).Len() != 0 {
		t.Fatalf("expected the empty set")
	}
	if _, ok := it.Next(); ok {
		t.Fatalf("expected exactly one subset for n=0")
	}
}
