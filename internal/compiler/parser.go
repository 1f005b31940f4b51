// Package compiler implements the parser driver and pipeline orchestrator
// (spec.md §4.F) that compose the cursor, command, preprocess, chunk, and
// linker packages against the concrete Song/Channel types instantiated in
// internal/engine.
package compiler

import (
	"github.com/HertzDevil/MGCInts/internal/command"
	"github.com/HertzDevil/MGCInts/internal/cursor"
	"github.com/HertzDevil/MGCInts/internal/engine"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
)

// ReadCommand implements Parser.read_command (spec.md §4.F): skip
// whitespace, look up the longest-matching command name, then try each
// variant in insertion order until one accepts the parameters at the
// cursor. b0 is the position of the command name itself, the trace anchor
// for a parse error; next is the position immediately after the command's
// parameters, the trace anchor a caller must use for an apply-time error
// instead (spec.md §7 distinguishes the two).
func ReadCommand(tbl *command.Table[*engine.Song, *engine.Channel], c cursor.Cursor) (b0 cursor.Cursor, cmd *command.Command[*engine.Song, *engine.Channel], params command.Params, next cursor.Cursor, ok bool, err error) {
	cur := c.SkipWhitespace()
	if cur.AtEnd() {
		return cur, nil, nil, cur, false, nil
	}
	b0 = cur
	variants, after, found := tbl.ReadNext(cur)
	if !found {
		return b0, nil, nil, cur, false, mgcerr.NewSyntaxError("unknown command")
	}
	for _, v := range variants {
		p, n, perr := v.ReadParams(after)
		if perr != nil {
			if _, isParamErr := perr.(*mgcerr.ParamError); isParamErr {
				continue
			}
			return b0, nil, nil, cur, false, perr
		}
		return b0, v, p, n, true, nil
	}
	return b0, nil, nil, cur, false, mgcerr.NewSyntaxError("illegal command parameters")
}

// ApplyCommand implements the active-channel semantics of spec.md §4.F:
// apply_song runs first (it may mutate the active set), then apply_channel
// runs on every channel that is active at that point, in channel-index
// order, with song.CurrentChannel set to the channel being visited.
func ApplyCommand(song *engine.Song, cmd *command.Command[*engine.Song, *engine.Channel], params command.Params) error {
	if err := cmd.ApplySong(song, params); err != nil {
		return err
	}
	for _, ch := range song.Channels {
		if !ch.Active {
			continue
		}
		song.CurrentChannel = ch
		if err := cmd.ApplyChannel(ch, params); err != nil {
			return err
		}
	}
	return nil
}
