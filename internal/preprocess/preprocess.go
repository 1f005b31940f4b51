package preprocess

import (
	"strings"

	"github.com/HertzDevil/MGCInts/internal/command"
	"github.com/HertzDevil/MGCInts/internal/cursor"
	"github.com/HertzDevil/MGCInts/internal/mgcerr"
)

const commentToken = ";"

// Run implements spec.md §4.E: strip a leading shebang, split the source
// into lines, apply directive lines to song immediately (song-level only),
// and return the MML source with directives elided and disabled-branch
// lines blanked, joined back with '\n' so line numbers stay in sync.
func Run[S any](song S, ctx func(song S) *Context, directives *command.Table[S, dchannel], source string) (string, error) {
	source = stripShebang(source)
	lines := splitLines(source)

	c := ctx(song)
	c.PreLines = make([]string, 0, len(lines))
	c.MMLLines = make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			c.PreLines = append(c.PreLines, line)
			c.MMLLines = append(c.MMLLines, commentToken)
			if err := applyDirective(song, directives, line[1:]); err != nil {
				return "", err
			}
			continue
		}
		c.PreLines = append(c.PreLines, "")
		if c.Emitted() {
			c.MMLLines = append(c.MMLLines, line)
		} else {
			c.MMLLines = append(c.MMLLines, "")
		}
	}

	return strings.Join(c.MMLLines, "\n"), nil
}

func stripShebang(source string) string {
	if !strings.HasPrefix(source, "#!") {
		return source
	}
	idx := strings.IndexByte(source, '\n')
	if idx < 0 {
		return commentToken
	}
	return commentToken + source[idx:]
}

// splitLines splits on any of \r\n, \r, or \n treated as a single line
// terminator (spec.md §6: "any [\r\n]"), so a CRLF file does not produce
// spurious empty lines between the \r and the \n.
func splitLines(source string) []string {
	var lines []string
	start := 0
	i := 0
	for i < len(source) {
		switch source[i] {
		case '\n':
			lines = append(lines, source[start:i])
			i++
			start = i
		case '\r':
			lines = append(lines, source[start:i])
			i++
			if i < len(source) && source[i] == '\n' {
				i++
			}
			start = i
		default:
			i++
		}
	}
	lines = append(lines, source[start:])
	return lines
}

func applyDirective[S any](song S, directives *command.Table[S, dchannel], line string) error {
	c := cursor.New(line).SkipWhitespace()
	if c.AtEnd() {
		return nil
	}
	variants, next, ok := directives.ReadNext(c)
	if !ok {
		return mgcerr.NewSyntaxError("unknown preprocessor directive")
	}
	for _, v := range variants {
		params, after, err := v.ReadParams(next)
		if err != nil {
			if _, isParamErr := err.(*mgcerr.ParamError); isParamErr {
				continue
			}
			return err
		}
		if err := requireTrailingComment(after); err != nil {
			return err
		}
		return v.ApplySong(song, params)
	}
	return mgcerr.NewSyntaxError("illegal preprocessor directive parameters")
}

func requireTrailingComment(c cursor.Cursor) error {
	rest := strings.TrimSpace(c.Suffix())
	if rest == "" {
		return nil
	}
	if strings.HasPrefix(rest, commentToken) {
		return nil
	}
	return mgcerr.NewRuntimeError("trailing text after preprocessor directive")
}
