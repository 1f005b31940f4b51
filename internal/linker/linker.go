// Package linker implements the writable-range-protected linker described
// in spec.md §3, §4.G: it stamps stream base addresses, verifies every byte
// written falls inside a declared writable range, and commits bytes to an
// output image in two phases (pure build, then I/O).
package linker

import (
	"io"
	"sort"

	"github.com/HertzDevil/MGCInts/internal/chunk"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
)

type interval struct{ lo, hi int64 } // inclusive

type block struct {
	filePos int64
	streams []*chunk.Stream
}

// Linker holds the delta between target-address space and file-offset
// space, the writable-range whitelist, and the sequence of blocks streams
// are appended to.
type Linker struct {
	delta        int64
	writable     []interval
	blocks       []*block
	currentBlock *block
	currentPos   int64
	arena        *chunk.Arena
}

// New returns a Linker resolving pointer chunks against arena.
func New(arena *chunk.Arena) *Linker {
	return &Linker{arena: arena}
}

// SetDelta sets the offset subtracted from a target address to obtain a
// file offset: file_offset = target_address - delta.
func (l *Linker) SetDelta(d int64) { l.delta = d }

// SetPos begins a new block at the given file position; subsequent
// AddStream calls append to this block.
func (l *Linker) SetPos(filePos int64) {
	b := &block{filePos: filePos}
	l.blocks = append(l.blocks, b)
	l.currentBlock = b
	l.currentPos = filePos
}

// Writable unions [b,e] (inclusive, swapped if reversed) into the writable
// set, merging adjacent or overlapping ranges so the result is idempotent
// under reapplication.
func (l *Linker) Writable(b, e int64) {
	if b > e {
		b, e = e, b
	}
	l.writable = append(l.writable, interval{b, e})
	l.writable = mergeIntervals(l.writable)
}

func mergeIntervals(in []interval) []interval {
	if len(in) == 0 {
		return in
	}
	sorted := append([]interval(nil), in...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].lo < sorted[j].lo })
	out := []interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.lo <= last.hi+1 {
			if iv.hi > last.hi {
				last.hi = iv.hi
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func (l *Linker) inWritableRange(lo, hi int64) bool {
	for _, iv := range l.writable {
		if lo >= iv.lo && hi <= iv.hi {
			return true
		}
	}
	return false
}

// AddStream stamps s's base address at the current target address (file
// position + delta), verifies the byte range it will occupy lies entirely
// within a declared writable range, appends s to the current block, and
// advances the current position by s's size.
func (l *Linker) AddStream(s *chunk.Stream) error {
	if l.currentBlock == nil {
		return mgcerr.NewRuntimeError("AddStream called before SetPos")
	}
	base := l.currentPos + l.delta
	lo, hi := base, base+int64(s.Size())-1
	if s.Size() > 0 && !l.inWritableRange(lo, hi) {
		return mgcerr.NewCommandError("writing to protected range [%#x,%#x]", lo, hi)
	}
	s.SetBase(base)
	l.currentBlock.streams = append(l.currentBlock.streams, s)
	l.currentPos += int64(s.Size())
	return nil
}

// Flush commits every added stream's bytes to file in two phases: phase one
// (pure) builds every block's bytes and clears the block list; phase two
// (I/O) seeks and writes each prepared block. Because the block list is
// cleared before phase two starts, Flush is only idempotent across
// successful runs -- an I/O failure mid-phase-two leaves partial bytes,
// exactly as spec.md §4.G describes.
func (l *Linker) Flush(w io.WriterAt) error {
	type prepared struct {
		filePos int64
		data    []byte
	}
	preparedBlocks := make([]prepared, 0, len(l.blocks))
	for _, b := range l.blocks {
		var out []byte
		for _, s := range b.streams {
			built, err := s.Build(l.arena)
			if err != nil {
				return err
			}
			out = append(out, built...)
		}
		preparedBlocks = append(preparedBlocks, prepared{filePos: b.filePos, data: out})
	}
	l.blocks = nil
	l.currentBlock = nil

	for _, p := range preparedBlocks {
		if _, err := w.WriteAt(p.data, p.filePos); err != nil {
			return err
		}
	}
	return nil
}

// SeekDelta returns the file offset corresponding to target address addr
// (addr - delta), without performing any I/O; the seeker abstraction here
// is deliberately just arithmetic, since Flush is the only writer and it
// already knows each block's file position.
func (l *Linker) SeekDelta(addr int64) int64 {
	return addr - l.delta
}
