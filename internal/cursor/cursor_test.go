package cursor

import "testing"

func TestTrimLiteralAdvancesOnMatch(t *testing.T) {
	c := New("hello world")
	c2, ok := c.TrimLiteral("hello")
	if !ok {
		t.Fatalf("expected match")
	}
	if c2.Pos() != 5 {
		t.Fatalf("expected pos 5, got %d", c2.Pos())
	}
	if c.Pos() != 0 {
		t.Fatalf("original cursor must be unaffected, got pos %d", c.Pos())
	}
}

func TestTrimLiteralRestoresOnFailure(t *testing.T) {
	c := New("abc")
	c2, ok := c.TrimLiteral("xyz")
	if ok {
		t.Fatalf("expected no match")
	}
	if c2.Pos() != c.Pos() {
		t.Fatalf("cursor must be unchanged on failed trim")
	}
}

func TestTrimPatternClasses(t *testing.T) {
	c := New("123abc")
	matched, c2, ok := c.Trim("%d+")
	if !ok {
		t.Fatalf("expected match")
	}
	if matched != "123" {
		t.Fatalf("expected 123, got %q", matched)
	}
	if c2.Pos() != 3 {
		t.Fatalf("expected pos 3, got %d", c2.Pos())
	}
}

func TestTrimBracketClassNotConfusedWithNonGreedy(t *testing.T) {
	c := New("XYZ123")
	matched, c2, ok := c.Trim("[A-Z]+")
	if !ok {
		t.Fatalf("expected match")
	}
	if matched != "XYZ" {
		t.Fatalf("expected XYZ, got %q", matched)
	}
	if c2.Pos() != 3 {
		t.Fatalf("expected pos 3, got %d", c2.Pos())
	}
}

func TestSkipWhitespace(t *testing.T) {
	c := New("   \t\nabc")
	c2 := c.SkipWhitespace()
	if c2.Suffix() != "abc" {
		t.Fatalf("expected abc remaining, got %q", c2.Suffix())
	}
}

func TestFindLiteral(t *testing.T) {
	c := New("abcXdef")
	if got := c.FindLiteral("X"); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := c.FindLiteral("Z"); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
}

func TestSeekAdvanceClamp(t *testing.T) {
	c := New("abc")
	if got := c.Seek(-5).Pos(); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
	if got := c.Seek(100).Pos(); got != 3 {
		t.Fatalf("expected clamp to len, got %d", got)
	}
	if got := c.Advance(1).Advance(1).Pos(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}
