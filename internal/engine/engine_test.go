package engine

import (
	"testing"

	"github.com/HertzDevil/MGCInts/internal/command"
	"github.com/HertzDevil/MGCInts/internal/cursor"
)

func newTestEngine(t *testing.T, chcount int) *Engine {
	t.Helper()
	e, err := New(Config{
		Name:         "test",
		ChannelCount: chcount,
		Commands:     command.NewTable[*Song, *Channel](),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{ChannelCount: 1, Commands: command.NewTable[*Song, *Channel]()}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := New(Config{Name: "x", ChannelCount: 0, Commands: command.NewTable[*Song, *Channel]()}); err == nil {
		t.Fatalf("expected error for zero channel count")
	}
	if _, err := New(Config{Name: "x", ChannelCount: 1}); err == nil {
		t.Fatalf("expected error for nil commands table")
	}
}

func TestMakeSongChannelActivity(t *testing.T) {
	e := newTestEngine(t, 3)
	song, err := e.MakeSong()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(song.Channels) != 3 {
		t.Fatalf("expected 3 channels, got %d", len(song.Channels))
	}
	if !song.Channels[0].Active || song.Channels[1].Active || song.Channels[2].Active {
		t.Fatalf("expected only channel 1 active by default")
	}
}

func TestBeforeDefaultInvertsChmap(t *testing.T) {
	e := newTestEngine(t, 11)
	song, _ := e.MakeSong()
	if err := song.BeforeDefault(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if song.Chmap["1"] != 1 || song.Chmap["A"] != 10 {
		t.Fatalf("unexpected chmap: %v", song.Chmap)
	}
}

func TestRemapThenBeforeDefault(t *testing.T) {
	e := newTestEngine(t, 2)
	song, _ := e.MakeSong()
	if err := song.Remap('2', 'X'); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := song.BeforeDefault(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if song.Chmap["X"] != 2 {
		t.Fatalf("expected remapped channel 2 to be named X, got %v", song.Chmap)
	}
	if _, exists := song.Chmap["2"]; exists {
		t.Fatalf("expected original name '2' to be gone after remap")
	}
}

func TestBeforeDefaultRejectsDoubleCall(t *testing.T) {
	e := newTestEngine(t, 1)
	song, _ := e.MakeSong()
	if err := song.BeforeDefault(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := song.BeforeDefault(); err == nil {
		t.Fatalf("expected a second beforeDefault call to fail")
	}
}

func TestAfterDefaultRejectsCallBeforeBeforeDefault(t *testing.T) {
	e := newTestEngine(t, 1)
	song, _ := e.MakeSong()
	if err := song.AfterDefault(); err == nil {
		t.Fatalf("expected afterDefault to fail before beforeDefault has run")
	}
}

func TestAfterDefaultRejectsDoubleCall(t *testing.T) {
	e := newTestEngine(t, 1)
	song, _ := e.MakeSong()
	if err := song.BeforeDefault(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := song.AfterDefault(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := song.AfterDefault(); err == nil {
		t.Fatalf("expected a second afterDefault call to fail")
	}
}

func TestAfterDefaultFailsOnUnclosedLoop(t *testing.T) {
	e := newTestEngine(t, 1)
	song, _ := e.MakeSong()
	if err := song.BeforeDefault(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	song.Channels[0].PushStream()
	if err := song.AfterDefault(); err == nil {
		t.Fatalf("expected AfterDefault to fail on an unclosed loop")
	}
}

func TestAfterDefaultAddsEndLabel(t *testing.T) {
	e := newTestEngine(t, 1)
	song, _ := e.MakeSong()
	if err := song.BeforeDefault(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	song.Channels[0].PushByte(0x90)
	if err := song.AfterDefault(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off, ok := song.Channels[0].MainStream().GetLabel("END"); !ok || off != 1 {
		t.Fatalf("expected END label at offset 1, got %d ok=%v", off, ok)
	}
}

func TestUngetInvalidAfterPushStream(t *testing.T) {
	e := newTestEngine(t, 1)
	song, _ := e.MakeSong()
	ch := song.Channels[0]
	ch.PushByte(1)
	ch.PushStream()
	if _, err := ch.Unget(); err == nil {
		t.Fatalf("expected unget to fail after an intervening pushStream")
	}
}

func TestUngetRemovesLastChunk(t *testing.T) {
	e := newTestEngine(t, 1)
	song, _ := e.MakeSong()
	ch := song.Channels[0]
	ch.PushByte(1)
	ch.PushByte(2)
	if _, err := ch.Unget(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.CurrentStream().Size() != 1 {
		t.Fatalf("expected stream size 1 after unget, got %d", ch.CurrentStream().Size())
	}
}

func TestImportFeatureRejectsDuplicate(t *testing.T) {
	e := newTestEngine(t, 1)
	f := &Feature{Name: "mute"}
	if err := e.ImportFeature(f, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.ImportFeature(f, nil); err == nil {
		t.Fatalf("expected duplicate feature import to fail")
	}
}

func TestImportFeatureSuppressAndRename(t *testing.T) {
	e := newTestEngine(t, 1)
	f := &Feature{
		Name: "keysig",
		Commands: map[string]*command.Builder[*Song, *Channel]{
			"k":   command.NewBuilder[*Song, *Channel](),
			"mut": command.NewBuilder[*Song, *Channel](),
		},
	}
	if err := e.ImportFeature(f, map[string]any{"k": "key", "mut": false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, ok := e.Parser.Commands.ReadNext(cursor.New("key")); !ok {
		t.Fatalf("expected renamed command 'key' to be registered")
	}
	if _, _, ok := e.Parser.Commands.ReadNext(cursor.New("mut")); ok {
		t.Fatalf("expected suppressed command 'mut' to be absent")
	}
	if _, _, ok := e.Parser.Commands.ReadNext(cursor.New("k")); ok {
		t.Fatalf("expected original name 'k' to be gone after rename")
	}
}

func TestChannelInitRunsPerChannel(t *testing.T) {
	e := newTestEngine(t, 2)
	f := &Feature{
		Name: "counter",
		ChannelInit: func(ch *Channel) error {
			ch.SetState("initialized", true)
			return nil
		},
	}
	if err := e.ImportFeature(f, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	song, err := e.MakeSong()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ch := range song.Channels {
		if v, ok := ch.State("initialized"); !ok || v != true {
			t.Fatalf("expected channel %d to be initialized", ch.ID)
		}
	}
}
