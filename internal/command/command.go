// Package command implements the polymorphic Command object and its fluent
// Builder (spec.md §4.D): a chain of parameter lexers producing a parameter
// tuple, plus apply_song/apply_channel handlers, with automatic expansion
// into optional-argument and variadic variants.
//
// The package is generic over the concrete Song and Channel types an engine
// defines (spec.md's "common core, reused per engine"); Song and Channel
// never need to satisfy any interface here, so an engine package is free to
// shape them however it likes.
package command

import (
	"github.com/HertzDevil/MGCInts/internal/cursor"
	"github.com/HertzDevil/MGCInts/internal/lexer"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
	"github.com/HertzDevil/MGCInts/internal/trie"
)

// Params is the parsed parameter tuple a Command's ReadParams produces.
type Params []any

// Command[S, C] is one concrete, immediately-usable command variant.
type Command[S, C any] struct {
	Name        string
	ReadParams  func(c cursor.Cursor) (Params, cursor.Cursor, error)
	ApplySongFn func(song S, params Params) error
	ApplyChanFn func(ch C, params Params) error
}

// ApplySong invokes the song-level handler, if any.
func (cmd *Command[S, C]) ApplySong(song S, params Params) error {
	if cmd.ApplySongFn == nil {
		return nil
	}
	return cmd.ApplySongFn(song, params)
}

// ApplyChannel invokes the channel-level handler, if any.
func (cmd *Command[S, C]) ApplyChannel(ch C, params Params) error {
	if cmd.ApplyChanFn == nil {
		return nil
	}
	return cmd.ApplyChanFn(ch, params)
}

// Table is a macro table: a trie mapping command names to an ordered list
// of variants, tried in insertion order until one accepts the parameters
// present (spec.md §4.B).
type Table[S, C any] struct {
	t *trie.Trie[[]*Command[S, C]]
}

func NewTable[S, C any]() *Table[S, C] {
	return &Table[S, C]{t: trie.New[[]*Command[S, C]]()}
}

// AddCommand appends cmd to the variant list stored under name, creating
// the list if this is the first variant registered under that name.
func (tb *Table[S, C]) AddCommand(name string, cmd *Command[S, C]) {
	existing, _ := tb.t.Get(name)
	tb.t.Add(name, append(existing, cmd))
}

// Remove deletes every variant registered under name. Removing a name that
// was never registered is a no-op.
func (tb *Table[S, C]) Remove(name string) {
	tb.t.Remove(name)
}

// Rename moves the variant list from oldName to newName. If oldName was
// never registered this is a no-op (spec.md §9's stated defensive choice).
func (tb *Table[S, C]) Rename(oldName, newName string) {
	variants, ok := tb.t.Get(oldName)
	if !ok {
		return
	}
	tb.t.Remove(oldName)
	tb.t.Add(newName, variants)
}

// ReadNext performs the trie's longest-match lookup at the cursor and, on a
// hit, returns the variant list and a cursor advanced past the matched
// name.
func (tb *Table[S, C]) ReadNext(c cursor.Cursor) (variants []*Command[S, C], next cursor.Cursor, ok bool) {
	n, v, found := tb.t.Lookup(c)
	if !found {
		return nil, c, false
	}
	return v, c.Advance(n), true
}

// Builder is the fluent command-variant configurator described in
// spec.md §4.D. Zero value is ready to use.
type Builder[S, C any] struct {
	params      []lexer.Func
	delims      map[int]string
	optional    map[int]bool
	optionOrder []int
	defaults    map[int]string
	variadic    bool
	handler     func(ch C, params Params) error
	songHandler func(song S, params Params) error
}

func NewBuilder[S, C any]() *Builder[S, C] {
	return &Builder[S, C]{
		delims:   make(map[int]string),
		optional: make(map[int]bool),
		defaults: make(map[int]string),
	}
}

// Param appends a parameter lexer.
func (b *Builder[S, C]) Param(fn lexer.Func) *Builder[S, C] {
	b.params = append(b.params, fn)
	return b
}

// Delim sets the required delimiter preceding the parameter at position
// (0-based), overriding the default optional comma.
func (b *Builder[S, C]) Delim(position int, delim string) *Builder[S, C] {
	b.delims[position] = delim
	return b
}

// Optional marks the parameter at position as elidable, with an optional
// default string re-lexed to synthesize its value when elided. Positions
// are recorded in the order Optional is called, which is the order elided
// variants are generated and registered (spec.md §4.D).
func (b *Builder[S, C]) Optional(position int, defaultValue ...string) *Builder[S, C] {
	b.optional[position] = true
	b.optionOrder = append(b.optionOrder, position)
	if len(defaultValue) > 0 {
		b.defaults[position] = defaultValue[0]
	}
	return b
}

// Variadic marks the last declared parameter as repeating (spec.md §4.D).
func (b *Builder[S, C]) Variadic() *Builder[S, C] {
	b.variadic = true
	return b
}

// Handler sets the apply_channel override.
func (b *Builder[S, C]) Handler(fn func(ch C, params Params) error) *Builder[S, C] {
	b.handler = fn
	return b
}

// SongHandler sets the apply_song override.
func (b *Builder[S, C]) SongHandler(fn func(song S, params Params) error) *Builder[S, C] {
	b.songHandler = fn
	return b
}

// blankLineSeparator matches two newlines separated only by whitespace: the
// variadic terminator condition from spec.md §4.D.
const blankLineSeparator = "\\n[ \\t\\r]*\\n"

// Make produces the full variant plus one elided variant per entry in
// option_order, in that order, exactly as spec.md §4.D specifies: the full
// variant is tried first by the parser, so a longer parse always wins.
func (b *Builder[S, C]) Make(name string) []*Command[S, C] {
	variants := make([]*Command[S, C], 0, 1+len(b.optionOrder))
	variants = append(variants, b.buildVariant(name, nil))
	elided := map[int]bool{}
	for _, pos := range b.optionOrder {
		elided[pos] = true
		omit := make(map[int]bool, len(elided))
		for k := range elided {
			omit[k] = true
		}
		variants = append(variants, b.buildVariant(name, omit))
	}
	return variants
}

func (b *Builder[S, C]) buildVariant(name string, omit map[int]bool) *Command[S, C] {
	params := b.params
	variadic := b.variadic
	delims := b.delims
	defaults := b.defaults
	handler := b.handler
	songHandler := b.songHandler

	readParams := func(c cursor.Cursor) (Params, cursor.Cursor, error) {
		cur := c.SkipWhitespace()
		values := make(Params, 0, len(params))
		// keep is the tuple length up to the last value actually produced;
		// trailing elided parameters with no default contribute no value.
		keep := 0
		first := true
		for pos, fn := range params {
			isLast := pos == len(params)-1
			if omit[pos] {
				if def, ok := defaults[pos]; ok {
					v, _, err := fn(cursor.New(def))
					if err != nil {
						return nil, c, mgcerr.NewParamError("default value %q rejected by lexer for parameter %d of %q: %v", def, pos, name, err)
					}
					values = append(values, v)
					keep = len(values)
				} else {
					values = append(values, nil)
				}
				continue
			}
			if !first {
				delim, hasDelim := delims[pos]
				if hasDelim {
					n, ok := cur.TrimLiteral(delim)
					if !ok {
						return nil, c, mgcerr.NewParamError("expected delimiter %q before parameter %d of %q", delim, pos, name)
					}
					cur = n.SkipWhitespace()
				} else {
					n := cur.SkipWhitespace()
					if m, ok := n.TrimLiteral(","); ok {
						n = m.SkipWhitespace()
					}
					cur = n
				}
			}
			first = false

			v, n, err := fn(cur)
			if err != nil {
				return nil, c, err
			}
			cur = n
			values = append(values, v)

			if variadic && isLast && !omit[pos] {
				for {
					probe := cur.SkipWhitespace()
					if re, err := cursor.Compile(blankLineSeparator); err == nil {
						if loc := re.FindStringIndex(cur.Suffix()); loc != nil && loc[0] == 0 {
							break
						}
					}
					v2, n2, err2 := fn(probe)
					if err2 != nil {
						break
					}
					values = append(values, v2)
					cur = n2
				}
			}
			keep = len(values)
		}
		return values[:keep], cur, nil
	}

	return &Command[S, C]{
		Name:       name,
		ReadParams: readParams,
		ApplySongFn: func(song S, p Params) error {
			if songHandler != nil {
				return songHandler(song, p)
			}
			return nil
		},
		ApplyChanFn: func(ch C, p Params) error {
			if handler != nil {
				return handler(ch, p)
			}
			return nil
		},
	}
}
