package trie

import (
	"testing"

	"github.com/HertzDevil/MGCInts/internal/cursor"
)

func TestLookupLongestMatch(t *testing.T) {
	tr := New[int]()
	tr.Add("O", 1)
	tr.Add("O<", 2)
	tr.Add("O>", 3)

	n, v, ok := tr.Lookup(cursor.New("O<3"))
	if !ok {
		t.Fatalf("expected a match")
	}
	if n != 2 || v != 2 {
		t.Fatalf("expected longest match O< (len 2, value 2), got len=%d value=%d", n, v)
	}
}

func TestLookupNoMatch(t *testing.T) {
	tr := New[int]()
	tr.Add("abc", 1)
	_, _, ok := tr.Lookup(cursor.New("xyz"))
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestRemoveMissingKeyIsNoop(t *testing.T) {
	tr := New[int]()
	tr.Add("a", 1)
	tr.Remove("zzz")
	v, ok := tr.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected a to remain, got ok=%v v=%d", ok, v)
	}
}

func TestRemoveThenLookup(t *testing.T) {
	tr := New[int]()
	tr.Add("cmd", 1)
	tr.Remove("cmd")
	_, _, ok := tr.Lookup(cursor.New("cmd"))
	if ok {
		t.Fatalf("expected removed key to no longer match")
	}
}
