package engine

import (
	"github.com/HertzDevil/MGCInts/internal/chunk"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
	"github.com/HertzDevil/MGCInts/internal/preprocess"
)

// Song is per-song compile-time state (spec.md §3). Song owns its channels
// exclusively; channels hold a non-owning back-reference to it.
type Song struct {
	Engine   *Engine
	Channels []*Channel
	Arena    chunk.Arena
	PP       *preprocess.Context

	// current_channel is used by commands that must read state before
	// dispatching to active channels.
	CurrentChannel *Channel

	// chIndexToName is the pre-invert channel map (index -> single-char
	// name), the direction #remap writes into. beforeDefault inverts it
	// into Chmap.
	chIndexToName map[int]byte
	// Chmap is nil until BeforeDefault runs; afterwards it maps a
	// single-character channel name to its 1-based index.
	Chmap map[string]int

	beforeRan bool
	afterRan  bool
}

// defaultChannelName returns the default single-character name for a
// 1-based channel index: '1'-'9', then 'A'-'Z', then 'a'-'z' (spec.md §6,
// up to 61 channels).
func defaultChannelName(index int) (byte, bool) {
	switch {
	case index >= 1 && index <= 9:
		return byte('0' + index), true
	case index >= 10 && index <= 35:
		return byte('A' + (index - 10)), true
	case index >= 36 && index <= 61:
		return byte('a' + (index - 36)), true
	default:
		return 0, false
	}
}

// Remap reassigns the channel currently named nameChar to the new name
// newChar (spec.md §6: "#remap n c reassigns channel n to single-character
// name c").
func (s *Song) Remap(nameChar, newChar byte) error {
	for idx, name := range s.chIndexToName {
		if name == nameChar {
			s.chIndexToName[idx] = newChar
			return nil
		}
	}
	return mgcerr.NewCommandError("unknown channel %q", string(nameChar))
}

// BeforeDefault inverts the index->name channel map into Chmap (failing on
// a duplicate name), then runs song-level pre-callbacks followed by every
// channel's pre-callbacks, in that order (spec.md §4.F). It may run at most
// once per song.
func (s *Song) BeforeDefault() error {
	if s.beforeRan {
		return mgcerr.NewRuntimeError("beforeDefault has already run for this song")
	}
	s.Chmap = make(map[string]int, len(s.chIndexToName))
	for idx, name := range s.chIndexToName {
		key := string(name)
		if _, exists := s.Chmap[key]; exists {
			return mgcerr.NewRuntimeError("duplicate channel name %q after remapping", key)
		}
		s.Chmap[key] = idx
	}
	for _, cb := range s.Engine.SongPreCallbacks {
		if err := cb(s); err != nil {
			return err
		}
	}
	for _, ch := range s.Channels {
		for _, cb := range s.Engine.ChannelPreCallbacks {
			if err := cb(ch); err != nil {
				return err
			}
		}
	}
	s.beforeRan = true
	return nil
}

// AfterDefault runs every channel's post-callbacks (the framework's
// built-in loop-closure/END-label check first, then any engine- or
// feature-registered epilogue), followed by song-level post-callbacks
// (spec.md §4.F). It requires BeforeDefault to have already run (Chmap and
// the channel pre-callbacks must be in place first) and may itself run at
// most once per song.
func (s *Song) AfterDefault() error {
	if !s.beforeRan {
		return mgcerr.NewRuntimeError("afterDefault called before beforeDefault")
	}
	if s.afterRan {
		return mgcerr.NewRuntimeError("afterDefault has already run for this song")
	}
	for _, ch := range s.Channels {
		for _, cb := range s.Engine.ChannelPostCallbacks {
			if err := cb(ch); err != nil {
				return err
			}
		}
	}
	for _, cb := range s.Engine.SongPostCallbacks {
		if err := cb(s); err != nil {
			return err
		}
	}
	s.afterRan = true
	return nil
}
