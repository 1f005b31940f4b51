package engine

import (
	"github.com/HertzDevil/MGCInts/internal/command"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
)

// Feature bundles extra commands, per-channel state initialization, and
// pre/post callbacks that can be imported into an engine à la carte
// (spec.md §4.I): muting, key signatures, and similar cross-cutting
// concerns. Per-instance state that a class-based mixin would attach
// dynamically becomes a ChannelInit closure writing into the channel's
// capability-table slots instead (spec.md §9).
type Feature struct {
	Name string

	// Commands maps a default command name to the builder that produces
	// its variants. ImportFeature applies the cmdname override map to
	// this default name before registering.
	Commands map[string]*command.Builder[*Song, *Channel]

	// ChannelInit, if set, initializes this feature's per-channel state
	// slots; it runs once per channel at MakeSong time.
	ChannelInit func(ch *Channel) error

	SongPre     []func(song *Song) error
	SongPost    []func(song *Song) error
	ChannelPre  []func(ch *Channel) error
	ChannelPost []func(ch *Channel) error
}

// ImportFeature registers f exactly once (a repeated import is a
// RuntimeError). For each of f's commands, cmdname controls the name it is
// registered under: cmdname[k] == false suppresses it, a string value
// renames it, and a missing key uses the default name (spec.md §4.I's
// renaming contract).
func (e *Engine) ImportFeature(f *Feature, cmdname map[string]any) error {
	if _, dup := e.Features[f.Name]; dup {
		return mgcerr.NewRuntimeError("feature %q is already imported", f.Name)
	}
	e.Features[f.Name] = struct{}{}

	for defaultName, builder := range f.Commands {
		target := defaultName
		if override, ok := cmdname[defaultName]; ok {
			switch v := override.(type) {
			case bool:
				if !v {
					continue
				}
			case string:
				target = v
			}
		}
		for _, cmd := range builder.Make(target) {
			e.Parser.Commands.AddCommand(target, cmd)
		}
	}

	if f.ChannelInit != nil {
		e.ChannelInit = append(e.ChannelInit, f.ChannelInit)
	}
	e.SongPreCallbacks = append(e.SongPreCallbacks, f.SongPre...)
	e.SongPostCallbacks = append(e.SongPostCallbacks, f.SongPost...)
	e.ChannelPreCallbacks = append(e.ChannelPreCallbacks, f.ChannelPre...)
	e.ChannelPostCallbacks = append(e.ChannelPostCallbacks, f.ChannelPost...)
	return nil
}
