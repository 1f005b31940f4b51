package preprocess

import (
	"strings"

	"github.com/HertzDevil/MGCInts/internal/command"
	"github.com/HertzDevil/MGCInts/internal/cursor"
	"github.com/HertzDevil/MGCInts/internal/lexer"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
)

// Hooks lets an engine's Song type plug into the default directive set
// without the preprocess package needing to know its shape (spec.md's
// "common core, reused per engine").
type Hooks[S any] struct {
	// Context returns the song's preprocessor context.
	Context func(song S) *Context
	// Remap implements #remap n c: song.chmap[n] = c.
	Remap func(song S, name byte, channelLetter byte) error
	// GetConstant resolves an identifier operand of #if that is not a
	// decimal literal.
	GetConstant func(song S, ident string) (int64, bool)
}

// dchannel is the unused channel-target type parameter for the directive
// table: directives never call apply_channel.
type dchannel = struct{}

// DefaultDirectives builds the default directive macro table (spec.md
// §4.E): #define, #undef, #ifdef, #ifndef, #if, #else, #endif, #remap.
func DefaultDirectives[S any](h Hooks[S]) *command.Table[S, dchannel] {
	tbl := command.NewTable[S, dchannel]()

	tbl.AddCommand("define", &command.Command[S, dchannel]{
		Name: "define",
		ReadParams: func(c cursor.Cursor) (command.Params, cursor.Cursor, error) {
			cur := c.SkipWhitespace()
			idv, n, err := lexer.Ident2(cur)
			if err != nil {
				return nil, c, err
			}
			cur = n.SkipWhitespace()
			val := int64(1)
			if !cur.AtEnd() && !isCommentOrEnd(cur) {
				v, n2, err := lexer.Int(cur)
				if err == nil {
					val = v.(int64)
					cur = n2.SkipWhitespace()
				}
			}
			return command.Params{idv.(string), val}, cur, nil
		},
		ApplySongFn: func(song S, p command.Params) error {
			ctx := h.Context(song)
			id := p[0].(string)
			if _, exists := ctx.Defines[id]; exists {
				return mgcerr.NewRuntimeError("macro %q is already defined", id)
			}
			ctx.Defines[id] = p[1].(int64)
			return nil
		},
	})

	tbl.AddCommand("undef", &command.Command[S, dchannel]{
		Name: "undef",
		ReadParams: identParam[S](),
		ApplySongFn: func(song S, p command.Params) error {
			delete(h.Context(song).Defines, p[0].(string))
			return nil
		},
	})

	tbl.AddCommand("ifdef", &command.Command[S, dchannel]{
		Name:       "ifdef",
		ReadParams: identParam[S](),
		ApplySongFn: func(song S, p command.Params) error {
			ctx := h.Context(song)
			_, ok := ctx.Defines[p[0].(string)]
			ctx.IfStack = append(ctx.IfStack, ok)
			return nil
		},
	})

	tbl.AddCommand("ifndef", &command.Command[S, dchannel]{
		Name:       "ifndef",
		ReadParams: identParam[S](),
		ApplySongFn: func(song S, p command.Params) error {
			ctx := h.Context(song)
			_, ok := ctx.Defines[p[0].(string)]
			ctx.IfStack = append(ctx.IfStack, !ok)
			return nil
		},
	})

	tbl.AddCommand("if", &command.Command[S, dchannel]{
		Name: "if",
		ReadParams: func(c cursor.Cursor) (command.Params, cursor.Cursor, error) {
			cur := c.SkipWhitespace()
			lhs, n, err := ifOperand(cur)
			if err != nil {
				return nil, c, err
			}
			cur = n.SkipWhitespace()
			opv, n2, err := lexer.Compare(cur)
			if err != nil {
				return nil, c, err
			}
			cur = n2.SkipWhitespace()
			rhs, n3, err := ifOperand(cur)
			if err != nil {
				return nil, c, err
			}
			cur = n3.SkipWhitespace()
			return command.Params{lhs, opv.(lexer.CompareFunc), rhs}, cur, nil
		},
		ApplySongFn: func(song S, p command.Params) error {
			lhsTok, rhsTok := p[0].(operand), p[2].(operand)
			cmp := p[1].(lexer.CompareFunc)
			lhs, err := resolveOperand(lhsTok, song, h)
			if err != nil {
				return err
			}
			rhs, err := resolveOperand(rhsTok, song, h)
			if err != nil {
				return err
			}
			ctx := h.Context(song)
			ctx.IfStack = append(ctx.IfStack, cmp(lhs, rhs))
			return nil
		},
	})

	tbl.AddCommand("else", &command.Command[S, dchannel]{
		Name: "else",
		ReadParams: func(c cursor.Cursor) (command.Params, cursor.Cursor, error) {
			return command.Params{}, c.SkipWhitespace(), nil
		},
		ApplySongFn: func(song S, p command.Params) error {
			ctx := h.Context(song)
			if len(ctx.IfStack) == 0 {
				return mgcerr.NewRuntimeError("#else with no matching #if")
			}
			top := len(ctx.IfStack) - 1
			ctx.IfStack[top] = !ctx.IfStack[top]
			return nil
		},
	})

	tbl.AddCommand("endif", &command.Command[S, dchannel]{
		Name: "endif",
		ReadParams: func(c cursor.Cursor) (command.Params, cursor.Cursor, error) {
			return command.Params{}, c.SkipWhitespace(), nil
		},
		ApplySongFn: func(song S, p command.Params) error {
			ctx := h.Context(song)
			if len(ctx.IfStack) == 0 {
				return mgcerr.NewRuntimeError("#endif with no matching #if")
			}
			ctx.IfStack = ctx.IfStack[:len(ctx.IfStack)-1]
			return nil
		},
	})

	tbl.AddCommand("remap", &command.Command[S, dchannel]{
		Name: "remap",
		ReadParams: func(c cursor.Cursor) (command.Params, cursor.Cursor, error) {
			cur := c.SkipWhitespace()
			nv, n, err := lexer.Char(cur)
			if err != nil {
				return nil, c, err
			}
			cur = n.SkipWhitespace()
			cv, n2, err := lexer.Char(cur)
			if err != nil {
				return nil, c, err
			}
			return command.Params{nv.(string), cv.(string)}, n2.SkipWhitespace(), nil
		},
		ApplySongFn: func(song S, p command.Params) error {
			if h.Remap == nil {
				return mgcerr.NewRuntimeError("#remap is not supported by this engine")
			}
			return h.Remap(song, p[0].(string)[0], p[1].(string)[0])
		},
	})

	return tbl
}

func identParam[S any]() func(c cursor.Cursor) (command.Params, cursor.Cursor, error) {
	return func(c cursor.Cursor) (command.Params, cursor.Cursor, error) {
		cur := c.SkipWhitespace()
		idv, n, err := lexer.Ident2(cur)
		if err != nil {
			return nil, c, err
		}
		return command.Params{idv.(string)}, n.SkipWhitespace(), nil
	}
}

func isCommentOrEnd(c cursor.Cursor) bool {
	return c.AtEnd() || strings.HasPrefix(c.Suffix(), ";")
}

// operand is either a decimal literal or an identifier resolved via
// GetConstant at apply time (spec.md's stated behavior for #if operands).
type operand struct {
	literal bool
	value   int64
	ident   string
}

// resolveOperand resolves a #if operand: a numeric literal resolves to
// itself, an identifier resolves via GetConstant. A GetConstant failure (or
// absence) surfaces as a SyntaxError per spec.md §9's stated choice.
func resolveOperand[S any](o operand, song S, h Hooks[S]) (int64, error) {
	if o.literal {
		return o.value, nil
	}
	if h.GetConstant != nil {
		if v, ok := h.GetConstant(song, o.ident); ok {
			return v, nil
		}
	}
	return 0, mgcerr.NewSyntaxError("unresolved constant %q in #if expression", o.ident)
}

func ifOperand(c cursor.Cursor) (operand, cursor.Cursor, error) {
	if v, n, err := lexer.Int(c); err == nil {
		return operand{literal: true, value: v.(int64)}, n, nil
	}
	v, n, err := lexer.Ident2(c)
	if err != nil {
		return operand{}, c, err
	}
	return operand{ident: v.(string)}, n, nil
}
