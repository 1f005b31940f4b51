package chunk

import "github.com/HertzDevil/MGCInts/internal/mgcerr"

// Stream is an append-only sequence of chunks carrying labels and a base
// address (spec.md §3). The zero-offset label "START" is created for every
// new stream.
type Stream struct {
	handle  Handle
	chunks  []Chunk
	labels  map[string]int
	size    int
	base    int64
	hasBase bool

	// pointerOffsets records the byte offset within this stream of every
	// pointer chunk pushed, in push order, so a caller can compute
	// self-relative addresses the way a subclassed pointer would need to.
	pointerOffsets []int

	lastPushDepth int // depth argument passed to the last Push
}

func newStream(h Handle) *Stream {
	s := &Stream{handle: h, labels: map[string]int{}}
	s.labels["START"] = 0
	return s
}

// Handle returns this stream's stable arena identity.
func (s *Stream) Handle() Handle { return s.handle }

// Size returns the running byte offset: the sum of all pushed chunks'
// sizes.
func (s *Stream) Size() int { return s.size }

// SetBase stamps the stream's base address; called by the Linker before
// flush.
func (s *Stream) SetBase(base int64) {
	s.base = base
	s.hasBase = true
}

// Base returns the stream's base address, if SetBase has been called.
func (s *Stream) Base() (int64, bool) { return s.base, s.hasBase }

// Push appends a chunk, recording a pointer chunk's offset within the
// stream if applicable and stamping the chunk itself with that offset so a
// SelfRelative PointerChunk can resolve against its own position.
func (s *Stream) Push(c Chunk, depth int) {
	if pc, ok := c.(*PointerChunk); ok {
		s.pointerOffsets = append(s.pointerOffsets, s.size)
		pc.ownStream = s.handle
		pc.ownOffset = s.size
		pc.hasOwn = true
	}
	s.chunks = append(s.chunks, c)
	s.size += c.Size()
	s.lastPushDepth = depth
}

// PointerOffsets returns the byte offset within this stream of every
// pointer chunk pushed, in push order.
func (s *Stream) PointerOffsets() []int {
	return s.pointerOffsets
}

// PushBytes wraps raw bytes as a ByteChunk and appends it.
func (s *Stream) PushBytes(data []byte, depth int) {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.Push(&ByteChunk{Data: cp}, depth)
}

// PushByte wraps a single byte as a 1-byte little-endian IntChunk (the
// default width/endianness for a bare byte push, per spec.md §4.G).
func (s *Stream) PushByte(b byte, depth int) {
	s.Push(&IntChunk{Value: uint64(b), Width: 1, Endian: LittleEndian}, depth)
}

// Pop removes and returns the last chunk pushed, or nil if the stream is
// empty.
func (s *Stream) Pop() Chunk {
	if len(s.chunks) == 0 {
		return nil
	}
	last := s.chunks[len(s.chunks)-1]
	s.chunks = s.chunks[:len(s.chunks)-1]
	s.size -= last.Size()
	if _, ok := last.(*PointerChunk); ok && len(s.pointerOffsets) > 0 {
		s.pointerOffsets = s.pointerOffsets[:len(s.pointerOffsets)-1]
	}
	return last
}

// LastPushDepth returns the stream-stack depth passed to the last Push.
// Channel.Unget does not read it; the Channel keeps its own record.
func (s *Stream) LastPushDepth() int { return s.lastPushDepth }

// Join appends other's chunks by reference, except pointer chunks, which
// are copied so each copy is stamped with its own position in s; other is
// left unmodified (spec.md §3: "other is not cleared").
func (s *Stream) Join(other *Stream, depth int) error {
	if other == s {
		return mgcerr.NewRuntimeError("cannot join a stream to itself")
	}
	for _, c := range other.chunks {
		if pc, ok := c.(*PointerChunk); ok {
			cp := *pc
			c = &cp
		}
		s.Push(c, depth)
	}
	return nil
}

// AddLabel records name at the stream's current size. Adding a duplicate
// name fails.
func (s *Stream) AddLabel(name string) error {
	if _, exists := s.labels[name]; exists {
		return mgcerr.NewRuntimeError("duplicate label %q in stream", name)
	}
	s.labels[name] = s.size
	return nil
}

// GetLabel returns the byte offset recorded for name.
func (s *Stream) GetLabel(name string) (int, bool) {
	off, ok := s.labels[name]
	return off, ok
}

// Build concatenates chunk.Compile for every chunk in push order.
func (s *Stream) Build(r Resolver) ([]byte, error) {
	out := make([]byte, 0, s.size)
	for _, c := range s.chunks {
		b, err := c.Compile(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Arena owns every Stream created for a Song, handing out stable Handles so
// pointer chunks never hold a direct Stream reference (spec.md §9).
type Arena struct {
	streams []*Stream
}

// NewStream allocates and returns a fresh Stream plus its Handle.
func (a *Arena) NewStream() (Handle, *Stream) {
	h := Handle(len(a.streams))
	s := newStream(h)
	a.streams = append(a.streams, s)
	return h, s
}

// Get returns the stream registered under h.
func (a *Arena) Get(h Handle) (*Stream, bool) {
	if int(h) < 0 || int(h) >= len(a.streams) {
		return nil, false
	}
	return a.streams[h], true
}

// Streams returns every stream in the arena, in allocation order.
func (a *Arena) Streams() []*Stream {
	return a.streams
}

// Base implements Resolver by delegating to the addressed stream's base.
func (a *Arena) Base(h Handle) (int64, bool) {
	s, ok := a.Get(h)
	if !ok {
		return 0, false
	}
	return s.Base()
}

// Label implements Resolver by delegating to the addressed stream's label
// table.
func (a *Arena) Label(h Handle, name string) (int, bool) {
	s, ok := a.Get(h)
	if !ok {
		return 0, false
	}
	return s.GetLabel(name)
}
