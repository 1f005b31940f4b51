// Package engine instantiates the framework's generic command/preprocess
// core (spec.md §3-4) against concrete Song and Channel types, and
// implements Engine construction, per-song setup, and feature injection
// (spec.md §4.H, §4.I).
package engine

import (
	"io"

	"github.com/HertzDevil/MGCInts/internal/command"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
	"github.com/HertzDevil/MGCInts/internal/preprocess"
)

// Parser bundles the two macro tables an Engine dispatches against
// (spec.md §3: "parser: a Parser object carrying two macro tables").
type Parser struct {
	Commands   *command.Table[*Song, *Channel]
	Directives *command.Table[*Song, struct{}]
}

// Engine is the immutable-at-compile-time configuration bundle described in
// spec.md §3: a name, a channel count, a Parser, three single-shot
// callbacks, and the callback lists commands and features append to.
type Engine struct {
	Name         string
	ChannelCount int
	Parser       *Parser
	Hooks        preprocess.Hooks[*Song]
	Warner       *mgcerr.Warner

	SetupCB  func(e *Engine, out io.WriterAt) error
	InsertCB func(e *Engine, out io.WriterAt, song *Song, track int) error
	FinishCB func(e *Engine, out io.WriterAt) error

	Features map[string]struct{}

	ChannelInit           []func(ch *Channel) error
	SongPreCallbacks      []func(song *Song) error
	SongPostCallbacks     []func(song *Song) error
	ChannelPreCallbacks   []func(ch *Channel) error
	ChannelPostCallbacks  []func(ch *Channel) error
}

// Config is the plain configuration struct an Engine is built from,
// following the teacher's Default...Config-plus-functional-options idiom.
type Config struct {
	Name         string
	ChannelCount int
	Commands     *command.Table[*Song, *Channel]
	// GetConstant resolves a non-literal #if operand (spec.md §4.E); a nil
	// value falls back to looking the identifier up in the song's #define
	// table, which is this framework's default constant namespace.
	GetConstant func(song *Song, ident string) (int64, bool)
	Warner      *mgcerr.Warner
}

// Option configures an Engine after construction, in the teacher's
// functional-options style (mirroring PlayerOption in player.go).
type Option func(*Engine)

// WithWarner overrides the engine's default (discard, non-strict) Warner.
func WithWarner(w *mgcerr.Warner) Option {
	return func(e *Engine) { e.Warner = w }
}

// New validates cfg and constructs an Engine, wiring the default directive
// table against cfg's Song hooks. Validation failures are ArgumentErrors
// (spec.md §4.H: invalid engine definition).
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Name == "" {
		return nil, mgcerr.NewArgumentError("invalid engine definition: name must not be empty")
	}
	if cfg.ChannelCount < 1 {
		return nil, mgcerr.NewArgumentError("invalid engine definition: channel_count must be >= 1")
	}
	if cfg.ChannelCount > 61 {
		return nil, mgcerr.NewArgumentError("invalid engine definition: channel_count must be <= 61")
	}
	if cfg.Commands == nil {
		return nil, mgcerr.NewArgumentError("invalid engine definition: commands table must not be nil")
	}

	e := &Engine{
		Name:         cfg.Name,
		ChannelCount: cfg.ChannelCount,
		Features:     make(map[string]struct{}),
		Warner:       cfg.Warner,
	}
	e.Hooks = preprocess.Hooks[*Song]{
		Context: func(s *Song) *preprocess.Context { return s.PP },
		Remap:   func(s *Song, name, ch byte) error { return s.Remap(name, ch) },
		GetConstant: func(s *Song, ident string) (int64, bool) {
			if cfg.GetConstant != nil {
				return cfg.GetConstant(s, ident)
			}
			v, ok := s.PP.Defines[ident]
			return v, ok
		},
	}
	e.Parser = &Parser{
		Commands:   cfg.Commands,
		Directives: preprocess.DefaultDirectives(e.Hooks),
	}
	// The mandatory loop-closure/END-label check runs before any
	// feature-registered channel epilogue (spec.md §4.F).
	e.ChannelPostCallbacks = []func(ch *Channel) error{
		func(ch *Channel) error { return ch.runAfterDefault() },
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.Warner == nil {
		e.Warner = mgcerr.NewWarner(nil, false)
	}
	return e, nil
}

// MakeSong constructs a Song with ChannelCount channels (channel 1 active,
// the rest inactive), running every registered ChannelInit closure against
// each new channel (spec.md §4.H).
func (e *Engine) MakeSong() (*Song, error) {
	s := &Song{
		Engine:        e,
		PP:            preprocess.NewContext(),
		chIndexToName: make(map[int]byte, e.ChannelCount),
	}
	for i := 1; i <= e.ChannelCount; i++ {
		name, ok := defaultChannelName(i)
		if !ok {
			return nil, mgcerr.NewRuntimeError("channel index %d exceeds the 61-channel naming limit", i)
		}
		s.chIndexToName[i] = name

		h, _ := s.Arena.NewStream()
		ch := newChannel(i, s, h)
		ch.Active = i == 1
		for _, init := range e.ChannelInit {
			if err := init(ch); err != nil {
				return nil, err
			}
		}
		s.Channels = append(s.Channels, ch)
	}
	return s, nil
}

// CallSetup invokes SetupCB at most once: after invocation (successful or
// not) the field is cleared to a no-op (spec.md §3, §8 property 8).
func (e *Engine) CallSetup(out io.WriterAt) error {
	cb := e.SetupCB
	e.SetupCB = nil
	if cb == nil {
		return nil
	}
	return cb(e, out)
}

// CallFinish invokes FinishCB at most once, clearing it the same way.
func (e *Engine) CallFinish(out io.WriterAt) error {
	cb := e.FinishCB
	e.FinishCB = nil
	if cb == nil {
		return nil
	}
	return cb(e, out)
}
