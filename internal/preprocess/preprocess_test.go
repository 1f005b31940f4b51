package preprocess

import "testing"

type testSong struct {
	ctx   *Context
	chmap map[byte]int
}

func newTestSong() *testSong {
	return &testSong{ctx: NewContext(), chmap: map[byte]int{}}
}

func hooks() Hooks[*testSong] {
	return Hooks[*testSong]{
		Context: func(s *testSong) *Context { return s.ctx },
		Remap: func(s *testSong, name byte, ch byte) error {
			s.chmap[name] = int(ch)
			return nil
		},
	}
}

func TestConditionalElisionScenario(t *testing.T) {
	song := newTestSong()
	tbl := DefaultDirectives(hooks())
	out, err := Run(song, hooks().Context, tbl, "#define A 1\n#ifdef A\nc\n#else\nd\n#endif\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ";\n;\nc\n;\n\n;\n"
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
	if song.ctx.Defines["A"] != 1 {
		t.Fatalf("expected A=1, got %v", song.ctx.Defines)
	}
}

func TestLineCountInvariant(t *testing.T) {
	song := newTestSong()
	tbl := DefaultDirectives(hooks())
	src := "#define A 1\n#ifdef A\nc\n#else\nd\n#endif\n"
	if _, err := Run(song, hooks().Context, tbl, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(song.ctx.PreLines) != len(song.ctx.MMLLines) {
		t.Fatalf("expected equal buffer lengths, got %d vs %d", len(song.ctx.PreLines), len(song.ctx.MMLLines))
	}
}

func TestElseWithoutIfFails(t *testing.T) {
	song := newTestSong()
	tbl := DefaultDirectives(hooks())
	_, err := Run(song, hooks().Context, tbl, "#else\n")
	if err == nil {
		t.Fatalf("expected error for unmatched #else")
	}
}

func TestTrailingTextAfterDirectiveFails(t *testing.T) {
	song := newTestSong()
	tbl := DefaultDirectives(hooks())
	_, err := Run(song, hooks().Context, tbl, "#define A 1 garbage\n")
	if err == nil {
		t.Fatalf("expected trailing-text error")
	}
}

func TestTrailingCommentAfterDirectiveAllowed(t *testing.T) {
	song := newTestSong()
	tbl := DefaultDirectives(hooks())
	_, err := Run(song, hooks().Context, tbl, "#define A 1 ; a comment\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemapDirective(t *testing.T) {
	song := newTestSong()
	tbl := DefaultDirectives(hooks())
	_, err := Run(song, hooks().Context, tbl, "#remap 1 X\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if song.chmap['1'] != int('X') {
		t.Fatalf("expected remap 1->X, got %v", song.chmap)
	}
}

func TestShebangStripped(t *testing.T) {
	song := newTestSong()
	tbl := DefaultDirectives(hooks())
	out, err := Run(song, hooks().Context, tbl, "#!/usr/bin/env mml\nc\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ";\nc\n"
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestDoubleDefineFails(t *testing.T) {
	song := newTestSong()
	tbl := DefaultDirectives(hooks())
	_, err := Run(song, hooks().Context, tbl, "#define A 1\n#define A 2\n")
	if err == nil {
		t.Fatalf("expected duplicate #define to fail")
	}
}
