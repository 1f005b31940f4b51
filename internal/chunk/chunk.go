// Package chunk implements the emitted-binary unit types and the
// append-only Stream that sequences them (spec.md §3, §4.G).
//
// Pointer chunks never hold a direct reference to their target Stream.
// Following spec.md §9's redesign note ("cursor back-references from
// pointer chunks... resolve with a two-phase model"), a pointer chunk holds
// a stable Handle into an Arena the Song owns; resolution happens through a
// Resolver at compile time, so the chunk graph can never form an ownership
// cycle.
package chunk

import (
	"encoding/binary"

	"github.com/HertzDevil/MGCInts/internal/mgcerr"
)

// Endian selects the byte order an integer or pointer chunk serializes
// with.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

func putUint(dst []byte, x uint64, width int, endian Endian) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	if endian == LittleEndian {
		copy(dst, buf[:width])
		return
	}
	for i := 0; i < width; i++ {
		dst[i] = buf[width-1-i]
	}
}

// Chunk is a unit of emitted binary. Size must be stable between
// construction and Compile except for CompositeChunk, whose Size
// recomputes the sum of its sub-chunks on every call (spec.md §3).
type Chunk interface {
	Size() int
	Compile(r Resolver) ([]byte, error)
}

// Resolver answers a pointer chunk's question at link time: where does the
// named label inside the target stream live in the final address space.
type Resolver interface {
	// Base returns the target stream's base address, if it has one.
	Base(h Handle) (int64, bool)
	// Label returns the byte offset of name within the target stream.
	Label(h Handle, name string) (int, bool)
}

// ByteChunk is a literal byte-string payload.
type ByteChunk struct {
	Data []byte
}

func (c *ByteChunk) Size() int { return len(c.Data) }

func (c *ByteChunk) Compile(Resolver) ([]byte, error) {
	out := make([]byte, len(c.Data))
	copy(out, c.Data)
	return out, nil
}

// IntChunk is an unsigned integer emitted in Width bytes (1-4) using Endian
// byte order.
type IntChunk struct {
	Value  uint64
	Width  int
	Endian Endian
}

func (c *IntChunk) Size() int { return c.Width }

func (c *IntChunk) Compile(Resolver) ([]byte, error) {
	if c.Width < 1 || c.Width > 4 {
		return nil, mgcerr.NewRuntimeError("integer chunk width %d out of range 1-4", c.Width)
	}
	out := make([]byte, c.Width)
	putUint(out, c.Value, c.Width, c.Endian)
	return out, nil
}

// Handle is a stable, arena-relative identity for a Stream. It is safe to
// copy and compare and never dereferences into another Stream's memory
// directly.
type Handle int

// PointerChunk references a target Stream by Handle and a label name.
// Resolve, if set, lets an engine reinterpret the resolved address (for
// example forcing a byte order or indexing into a pattern table) instead of
// emitting target.base+offset directly; this stands in for the source's
// pointer-chunk subclassing (spec.md §3).
//
// SelfRelative, when set instead, emits the target address minus the
// pointer chunk's own address (branch-style relative addressing some
// drivers expect) rather than an absolute one. ownStream/ownOffset back it
// and are stamped by Stream.Push at the moment the chunk is appended -- the
// same bookkeeping Stream.PointerOffsets exposes for the stream as a whole.
type PointerChunk struct {
	Target  Handle
	Label   string
	Width   int
	Endian  Endian
	Resolve func(base int64, offset int) uint64

	SelfRelative bool
	ownStream    Handle
	ownOffset    int
	hasOwn       bool
}

func (c *PointerChunk) Size() int { return c.Width }

func (c *PointerChunk) Compile(r Resolver) ([]byte, error) {
	base, ok := r.Base(c.Target)
	if !ok {
		return nil, mgcerr.NewCommandError("pointer chunk references a stream with no base address")
	}
	offset, ok := r.Label(c.Target, c.Label)
	if !ok {
		return nil, mgcerr.NewCommandError("pointer chunk references unknown label %q", c.Label)
	}
	var value uint64
	switch {
	case c.Resolve != nil:
		value = c.Resolve(base, offset)
	case c.SelfRelative:
		if !c.hasOwn {
			return nil, mgcerr.NewRuntimeError("self-relative pointer chunk was never pushed through a stream")
		}
		ownBase, ok := r.Base(c.ownStream)
		if !ok {
			return nil, mgcerr.NewCommandError("self-relative pointer chunk's own stream has no base address")
		}
		value = uint64(base + int64(offset) - (ownBase + int64(c.ownOffset)))
	default:
		value = uint64(base + int64(offset))
	}
	if c.Width < 1 || c.Width > 4 {
		return nil, mgcerr.NewRuntimeError("pointer chunk width %d out of range 1-4", c.Width)
	}
	out := make([]byte, c.Width)
	putUint(out, value, c.Width, c.Endian)
	return out, nil
}

// CompositeChunk is an ordered sequence of sub-chunks. Its size is the sum
// of its sub-chunks' sizes, recomputed on every call.
type CompositeChunk struct {
	Chunks []Chunk
}

func (c *CompositeChunk) Size() int {
	total := 0
	for _, sub := range c.Chunks {
		total += sub.Size()
	}
	return total
}

func (c *CompositeChunk) Compile(r Resolver) ([]byte, error) {
	out := make([]byte, 0, c.Size())
	for _, sub := range c.Chunks {
		b, err := sub.Compile(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
