// Package demoengine is a minimal, two-channel reference engine used only
// by tests and the CLI's "demo" mode. It is not a port of Mega Man 3,
// Castlevania, or Journey to Silius -- those stay out of scope -- it exists
// solely to exercise internal/engine and internal/compiler end to end with
// a real, if trivial, consumer (spec.md §1: "their correctness is a test of
// the framework rather than part of its spec").
package demoengine

import (
	"io"

	"github.com/HertzDevil/MGCInts/internal/chunk"
	"github.com/HertzDevil/MGCInts/internal/command"
	"github.com/HertzDevil/MGCInts/internal/engine"
	"github.com/HertzDevil/MGCInts/internal/lexer"
	"github.com/HertzDevil/MGCInts/internal/linker"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
)

// ChannelCount is the number of channels the demo engine's songs carry.
const ChannelCount = 2

// Opcode bytes for the demo engine's tiny binary format.
const (
	opNote     = 0x80 // + note value (0-63)
	opRest     = 0xC0 // + duration (0-63)
	opTempo    = 0xF0 // followed by one tempo byte
	opLoop     = 0xFD // followed by a repeat count, then the loop body
	opLoopEnd  = 0xFE // sentinel closes a loop body
	opJumpLoop = 0x16 // followed by a 2-byte big-endian pointer to LOOP
	opEnd      = 0x17 // channel has no LOOP label
)

const headerSize = 2 * ChannelCount // one 2-byte little-endian pointer per channel

// New builds the demo engine's Commands table and callbacks and returns a
// ready-to-run *engine.Engine.
func New() (*engine.Engine, error) {
	tbl := command.NewTable[*engine.Song, *engine.Channel]()

	tbl.AddCommand("c", command.NewBuilder[*engine.Song, *engine.Channel]().
		Param(lexer.Uint8).
		Handler(applyNote).
		Make("c")[0])

	tbl.AddCommand("r", command.NewBuilder[*engine.Song, *engine.Channel]().
		Param(lexer.Uint8).
		Handler(applyRest).
		Make("r")[0])

	tbl.AddCommand("t", command.NewBuilder[*engine.Song, *engine.Channel]().
		Param(lexer.Uint8).
		Handler(applyTempo).
		Make("t")[0])

	tbl.AddCommand("LOOP", command.NewBuilder[*engine.Song, *engine.Channel]().
		Handler(applyLoopLabel).
		Make("LOOP")[0])

	tbl.AddCommand("[", command.NewBuilder[*engine.Song, *engine.Channel]().
		Handler(applyLoopOpen).
		Make("[")[0])

	tbl.AddCommand("]", command.NewBuilder[*engine.Song, *engine.Channel]().
		Param(lexer.Uint8).
		Handler(applyLoopClose).
		Make("]")[0])

	tbl.AddCommand("!", command.NewBuilder[*engine.Song, *engine.Channel]().
		Param(lexer.Channel).
		SongHandler(applyChannelSelect).
		Make("!")[0])

	e, err := engine.New(engine.Config{
		Name:         "demo",
		ChannelCount: ChannelCount,
		Commands:     tbl,
	})
	if err != nil {
		return nil, err
	}

	// The framework's mandatory loop-closure/END-label callback runs
	// first (installed by engine.New); this appends the LOOP-vs-no-LOOP
	// epilogue byte spec.md §8 scenario 6 describes.
	e.ChannelPostCallbacks = append(e.ChannelPostCallbacks, applyLoopEpilogue)

	e.InsertCB = insertSong
	return e, nil
}

func applyNote(ch *engine.Channel, p command.Params) error {
	v := p[0].(uint64)
	if v > 63 {
		return mgcerr.NewCommandError("note %d out of range 0-63", v)
	}
	ch.PushByte(opNote + byte(v))
	return nil
}

func applyRest(ch *engine.Channel, p command.Params) error {
	v := p[0].(uint64)
	if v > 63 {
		return mgcerr.NewCommandError("rest duration %d out of range 0-63", v)
	}
	ch.PushByte(opRest + byte(v))
	return nil
}

func applyTempo(ch *engine.Channel, p command.Params) error {
	ch.PushByte(opTempo)
	ch.PushByte(byte(p[0].(uint64)))
	return nil
}

func applyLoopLabel(ch *engine.Channel, p command.Params) error {
	return ch.CurrentStream().AddLabel("LOOP")
}

func applyLoopOpen(ch *engine.Channel, p command.Params) error {
	ch.PushStream()
	return nil
}

func applyLoopClose(ch *engine.Channel, p command.Params) error {
	count := p[0].(uint64)
	if count == 0 {
		return mgcerr.NewCommandError("loop count must be at least 1")
	}
	body, err := ch.PopStream()
	if err != nil {
		return err
	}
	ch.PushByte(opLoop)
	ch.PushByte(byte(count))
	if err := ch.CurrentStream().Join(body, ch.Depth()); err != nil {
		return err
	}
	ch.PushByte(opLoopEnd)
	return nil
}

func applyChannelSelect(song *engine.Song, p command.Params) error {
	names := p[0].(map[byte]struct{})
	wanted := make(map[int]struct{}, len(names))
	for name := range names {
		idx, ok := song.Chmap[string(name)]
		if !ok {
			return mgcerr.NewCommandError("unknown channel %q", string(name))
		}
		wanted[idx] = struct{}{}
	}
	for _, ch := range song.Channels {
		_, ch.Active = wanted[ch.ID]
	}
	return nil
}

// applyLoopEpilogue implements spec.md §8 scenario 6: a channel that never
// set a LOOP label ends with opEnd; one that did ends with opJumpLoop plus
// a 2-byte big-endian self-pointer to that label.
func applyLoopEpilogue(ch *engine.Channel) error {
	s := ch.MainStream()
	if _, ok := s.GetLabel("LOOP"); !ok {
		s.PushByte(opEnd, ch.Depth())
		return nil
	}
	s.PushByte(opJumpLoop, ch.Depth())
	s.Push(&chunk.PointerChunk{
		Target: s.Handle(),
		Label:  "LOOP",
		Width:  2,
		Endian: chunk.BigEndian,
	}, ch.Depth())
	return nil
}

// insertSong lays each channel's compiled stream out after a fixed-size
// header of little-endian pointers to each channel's start, and flushes
// through a Linker -- the demo engine's stand-in for a real driver's
// ROM/NSF patch routine (spec.md §4.G).
func insertSong(e *engine.Engine, out io.WriterAt, song *engine.Song, track int) error {
	l := linker.New(&song.Arena)
	l.SetDelta(0)
	l.Writable(0, 0xFFFF)

	l.SetPos(headerSize)
	for _, ch := range song.Channels {
		if err := l.AddStream(ch.MainStream()); err != nil {
			return err
		}
	}

	_, header := song.Arena.NewStream()
	for _, ch := range song.Channels {
		header.Push(&chunk.PointerChunk{
			Target: ch.MainStream().Handle(),
			Label:  "START",
			Width:  2,
			Endian: chunk.LittleEndian,
		}, 1)
	}
	l.SetPos(0)
	if err := l.AddStream(header); err != nil {
		return err
	}

	return l.Flush(out)
}
