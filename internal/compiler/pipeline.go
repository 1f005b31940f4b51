package compiler

import (
	"io"

	"github.com/HertzDevil/MGCInts/internal/cursor"
	"github.com/HertzDevil/MGCInts/internal/engine"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
	"github.com/HertzDevil/MGCInts/internal/preprocess"
)

// Track pairs one song's MML source with the track index the engine's
// insert callback receives (spec.md §4.F: "the framework accepts lists").
type Track struct {
	MML   string
	Index int
}

// ProcessFile runs Compiler.process_file (spec.md §4.F) for every track
// against e, writing through out: setup once, then per track
// (make_song -> preprocess -> beforeDefault -> command loop -> afterDefault
// -> insert), then finish once.
func ProcessFile(e *engine.Engine, out io.WriterAt, tracks []Track) error {
	if err := e.CallSetup(out); err != nil {
		return err
	}

	for _, tr := range tracks {
		if err := processTrack(e, out, tr); err != nil {
			return err
		}
	}

	return e.CallFinish(out)
}

func processTrack(e *engine.Engine, out io.WriterAt, tr Track) error {
	song, err := e.MakeSong()
	if err != nil {
		return err
	}

	if err := warnNonASCII(e.Warner, tr.MML); err != nil {
		return err
	}

	stripped, err := preprocess.Run(song, e.Hooks.Context, e.Parser.Directives, tr.MML)
	if err != nil {
		return err
	}

	if err := song.BeforeDefault(); err != nil {
		return err
	}

	c := cursor.New(stripped)
	for {
		b0, cmd, params, next, ok, rerr := ReadCommand(e.Parser.Commands, c)
		if rerr != nil {
			return mgcerr.Wrap(rerr, stripped, b0.Pos())
		}
		if !ok {
			break
		}
		if aerr := ApplyCommand(song, cmd, params); aerr != nil {
			// spec.md §7: apply-time errors trace the cursor position
			// recorded immediately before command application -- i.e. after
			// the command's parameters are fully consumed -- not the
			// command-name start ReadCommand's parse errors use.
			return mgcerr.Wrap(aerr, stripped, next.Pos())
		}
		c = next
	}

	if err := song.AfterDefault(); err != nil {
		return err
	}

	if e.InsertCB != nil {
		if err := e.InsertCB(e, out, song, tr.Index); err != nil {
			return err
		}
	}
	return nil
}

// warnNonASCII fires source's one-shot non-ASCII warning (spec.md §6: "Non-
// ASCII triggers a one-shot warning to stderr"). It scans the raw MML text
// before the preprocessor strips or rewrites anything, since a non-ASCII
// byte anywhere in the source -- inside a directive, a comment, or a
// command -- is equally out of the format's contract.
func warnNonASCII(w *mgcerr.Warner, source string) error {
	for i := 0; i < len(source); i++ {
		if source[i] > 0x7F {
			return w.Warn("source contains a non-ASCII byte")
		}
	}
	return nil
}
