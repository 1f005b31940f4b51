package command

import (
	"testing"

	"github.com/HertzDevil/MGCInts/internal/cursor"
	"github.com/HertzDevil/MGCInts/internal/lexer"
)

type fakeSong struct{}
type fakeChan struct{ got Params }

func TestOptionalParameterExpansion(t *testing.T) {
	b := NewBuilder[*fakeSong, *fakeChan]()
	b.Param(lexer.Uint8).Param(lexer.Uint8).Optional(1)
	variants := b.Make("x")
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}

	// Full variant fails on "x 5" (missing second byte); elided succeeds.
	_, _, err := variants[0].ReadParams(cursor.New("5"))
	if err == nil {
		t.Fatalf("expected full variant to fail on single value")
	}
	params, _, err := variants[1].ReadParams(cursor.New("5"))
	if err != nil {
		t.Fatalf("expected elided variant to succeed: %v", err)
	}
	if len(params) != 1 || params[0].(uint64) != 5 {
		t.Fatalf("expected (5,), got %v", params)
	}

	// Full variant succeeds on "5 7".
	params2, _, err := variants[0].ReadParams(cursor.New("5 7"))
	if err != nil {
		t.Fatalf("expected full variant to succeed: %v", err)
	}
	if len(params2) != 2 || params2[0].(uint64) != 5 || params2[1].(uint64) != 7 {
		t.Fatalf("expected (5,7), got %v", params2)
	}
}

func TestVariadicTerminatesAtBlankLine(t *testing.T) {
	b := NewBuilder[*fakeSong, *fakeChan]()
	b.Param(lexer.Uint8).Variadic()
	cmd := b.Make("env")[0]

	params, next, err := cmd.ReadParams(cursor.New("8 7 6\n\nc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(params) != 3 {
		t.Fatalf("expected 3 values consumed, got %d (%v)", len(params), params)
	}
	if next.Suffix() != "\n\nc" {
		t.Fatalf("expected cursor left before blank line, got %q", next.Suffix())
	}
}

func TestApplySongThenApplyChannel(t *testing.T) {
	order := []string{}
	b := NewBuilder[*fakeSong, *fakeChan]()
	b.Param(lexer.Uint8)
	b.SongHandler(func(song *fakeSong, p Params) error {
		order = append(order, "song")
		return nil
	})
	b.Handler(func(ch *fakeChan, p Params) error {
		order = append(order, "channel")
		ch.got = p
		return nil
	})
	cmd := b.Make("v")[0]
	params, _, err := cmd.ReadParams(cursor.New("9"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cmd.ApplySong(&fakeSong{}, params); err != nil {
		t.Fatalf("apply_song failed: %v", err)
	}
	ch := &fakeChan{}
	if err := cmd.ApplyChannel(ch, params); err != nil {
		t.Fatalf("apply_channel failed: %v", err)
	}
	if len(order) != 2 || order[0] != "song" || order[1] != "channel" {
		t.Fatalf("expected song then channel, got %v", order)
	}
	if ch.got[0].(uint64) != 9 {
		t.Fatalf("expected channel to observe params, got %v", ch.got)
	}
}
