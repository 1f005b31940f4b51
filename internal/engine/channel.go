package engine

import (
	"github.com/HertzDevil/MGCInts/internal/chunk"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
)

// Channel is per-channel compile-time state (spec.md §3). The stream stack
// is never empty: index 0 is the channel's main stream, held for the life
// of the song; pushStream/popStream manage nested loop bodies above it.
type Channel struct {
	ID     int
	Active bool
	Parent *Song

	streamStack   []chunk.Handle
	lastPushDepth int

	// state holds engine- and feature-injected per-channel slots (key
	// signature, octave, last note, mute flag, ...). spec.md §9 replaces
	// mixin-style method injection with a capability table; this map is
	// that table's per-instance half, populated by Engine.ChannelInit
	// closures at MakeSong time.
	state map[string]any
}

func newChannel(id int, parent *Song, mainHandle chunk.Handle) *Channel {
	return &Channel{
		ID:          id,
		Parent:      parent,
		streamStack: []chunk.Handle{mainHandle},
		state:       make(map[string]any),
	}
}

// Depth returns the current stream-stack depth (1 = only the main stream).
func (ch *Channel) Depth() int { return len(ch.streamStack) }

// CurrentStream returns the stream at the top of the stack.
func (ch *Channel) CurrentStream() *chunk.Stream {
	h := ch.streamStack[len(ch.streamStack)-1]
	s, _ := ch.Parent.Arena.Get(h)
	return s
}

// MainStream returns the channel's bottom-of-stack stream, held for the
// life of the song.
func (ch *Channel) MainStream() *chunk.Stream {
	h := ch.streamStack[0]
	s, _ := ch.Parent.Arena.Get(h)
	return s
}

// PushStream allocates a new stream and makes it the current one, for a
// nested loop body.
func (ch *Channel) PushStream() chunk.Handle {
	h, _ := ch.Parent.Arena.NewStream()
	ch.streamStack = append(ch.streamStack, h)
	ch.lastPushDepth = 0
	return h
}

// PopStream removes and returns the current stream, restoring the one
// beneath it. Popping the main stream fails.
func (ch *Channel) PopStream() (*chunk.Stream, error) {
	if len(ch.streamStack) <= 1 {
		return nil, mgcerr.NewRuntimeError("channel %d: cannot pop its main stream", ch.ID)
	}
	h := ch.streamStack[len(ch.streamStack)-1]
	ch.streamStack = ch.streamStack[:len(ch.streamStack)-1]
	ch.lastPushDepth = 0
	s, _ := ch.Parent.Arena.Get(h)
	return s, nil
}

// Push appends c to the current stream.
func (ch *Channel) Push(c chunk.Chunk) {
	ch.CurrentStream().Push(c, ch.Depth())
	ch.lastPushDepth = ch.Depth()
}

// PushBytes wraps data as a byte-string chunk, unless data is empty (the
// channel facade skips empty pushes; the stream itself does not, per
// spec.md §4.G).
func (ch *Channel) PushBytes(data []byte) {
	if len(data) == 0 {
		return
	}
	ch.CurrentStream().PushBytes(data, ch.Depth())
	ch.lastPushDepth = ch.Depth()
}

// PushByte wraps b as a 1-byte little-endian integer chunk.
func (ch *Channel) PushByte(b byte) {
	ch.CurrentStream().PushByte(b, ch.Depth())
	ch.lastPushDepth = ch.Depth()
}

// Unget removes and returns the last chunk pushed to the current stream.
// spec.md §9's open question is resolved here: unget is invalid if a
// pushStream/popStream occurred since the last push (PushStream and
// PopStream clear the recorded push depth, so even a push/pop pair that
// returns to the same depth is caught).
func (ch *Channel) Unget() (chunk.Chunk, error) {
	if ch.lastPushDepth != ch.Depth() {
		return nil, mgcerr.NewRuntimeError("channel %d: unget is invalid after an intervening pushStream/popStream", ch.ID)
	}
	c := ch.CurrentStream().Pop()
	if c == nil {
		return nil, mgcerr.NewRuntimeError("channel %d: unget called on an empty stream", ch.ID)
	}
	return c, nil
}

// State returns the per-channel value stored under key, if any.
func (ch *Channel) State(key string) (any, bool) {
	v, ok := ch.state[key]
	return v, ok
}

// SetState stores a per-channel value under key.
func (ch *Channel) SetState(key string, v any) {
	ch.state[key] = v
}

// runAfterDefault is the framework's mandatory channel post-callback,
// always the first entry in Engine.ChannelPostCallbacks: it enforces that
// every loop opened with pushStream was closed, then labels the channel's
// end of data (spec.md §3, §4.F).
func (ch *Channel) runAfterDefault() error {
	if ch.Depth() != 1 {
		return mgcerr.NewCommandError("channel %d: unclosed loop (stream stack depth %d)", ch.ID, ch.Depth())
	}
	return ch.MainStream().AddLabel("END")
}
