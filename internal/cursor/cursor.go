// Package cursor implements the read-only source cursor used by every lexer
// in the pipeline: a byte offset into an immutable string, with peek/find/
// trim/skip/seek/advance operations that never mutate the offset on failure.
package cursor

import (
	"regexp"
	"sync"
)

// Cursor is a reference to an immutable source string plus a byte offset.
// It is a value type: callers pass it by value and thread the returned
// cursor forward, exactly the way a lexer-function contract wants to work
// without exceptions (spec.md §9's "result value" redesign).
type Cursor struct {
	src string
	b   int
}

// New returns a cursor positioned at the start of src.
func New(src string) Cursor { return Cursor{src: src} }

// Pos returns the current byte offset.
func (c Cursor) Pos() int { return c.b }

// Source returns the underlying immutable string.
func (c Cursor) Source() string { return c.src }

// AtEnd reports whether the cursor has consumed the entire source.
func (c Cursor) AtEnd() bool { return c.b >= len(c.src) }

// Remaining returns the length of the unconsumed suffix.
func (c Cursor) Remaining() int { return len(c.src) - c.b }

// Peek returns up to n bytes starting at the cursor without advancing it.
func (c Cursor) Peek(n int) string {
	end := c.b + n
	if end > len(c.src) {
		end = len(c.src)
	}
	if end < c.b {
		end = c.b
	}
	return c.src[c.b:end]
}

// Suffix returns the entire unconsumed remainder of the source.
func (c Cursor) Suffix() string { return c.src[c.b:] }

// Seek returns a cursor at absolute offset b, clamped to [0, len(src)].
func (c Cursor) Seek(b int) Cursor {
	if b < 0 {
		b = 0
	}
	if b > len(c.src) {
		b = len(c.src)
	}
	c.b = b
	return c
}

// Advance returns a cursor moved forward by n bytes (never past the end,
// never before the start).
func (c Cursor) Advance(n int) Cursor { return c.Seek(c.b + n) }

// SkipWhitespace returns a cursor advanced past any run of space/tab/CR/LF
// at the current position.
func (c Cursor) SkipWhitespace() Cursor {
	i := c.b
	for i < len(c.src) {
		switch c.src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return c.Seek(i)
		}
	}
	return c.Seek(i)
}

// FindLiteral reports the byte offset (relative to the cursor) of the first
// occurrence of lit at or after the cursor, or -1 if absent. It never
// interprets lit as a pattern.
func (c Cursor) FindLiteral(lit string) int {
	suf := c.Suffix()
	for i := 0; i+len(lit) <= len(suf); i++ {
		if suf[i:i+len(lit)] == lit {
			return i
		}
	}
	return -1
}

// Find reports the byte offset (relative to the cursor) of the first match
// of a POSIX-ish pattern (see Compile) at or after the cursor, or -1.
func Find(c Cursor, pattern string) int {
	re, err := Compile(pattern)
	if err != nil {
		return -1
	}
	loc := re.FindStringIndex(c.Suffix())
	if loc == nil {
		return -1
	}
	return loc[0]
}

// Trim attempts to match pattern anchored at the cursor. On success it
// returns the matched text, a cursor advanced past the match, and true. On
// failure it returns the cursor unchanged and false: callers must not
// advance on a failed trim.
func (c Cursor) Trim(pattern string) (string, Cursor, bool) {
	re, err := Compile(pattern)
	if err != nil {
		return "", c, false
	}
	loc := re.FindStringIndex(c.Suffix())
	if loc == nil || loc[0] != 0 {
		return "", c, false
	}
	matched := c.Suffix()[loc[0]:loc[1]]
	return matched, c.Advance(loc[1]), true
}

// TrimLiteral is the literal-mode counterpart of Trim: it succeeds only if
// the cursor's suffix begins with lit exactly.
func (c Cursor) TrimLiteral(lit string) (Cursor, bool) {
	if len(c.Suffix()) < len(lit) || c.Suffix()[:len(lit)] != lit {
		return c, false
	}
	return c.Advance(len(lit)), true
}

var (
	compileCacheMu sync.Mutex
	compileCache   = map[string]*regexp.Regexp{}
)

// Compile translates the framework's POSIX-ish pattern surface (%d %a %w %s
// %x character classes, bracket classes, *, +, ?, and non-greedy -) into a
// Go regexp and caches the result. This is the one place regex flavor
// differences are absorbed so every lexer can write patterns in the
// source's original notation.
func Compile(pattern string) (*regexp.Regexp, error) {
	compileCacheMu.Lock()
	if re, ok := compileCache[pattern]; ok {
		compileCacheMu.Unlock()
		return re, nil
	}
	compileCacheMu.Unlock()

	translated := translate(pattern)
	re, err := regexp.Compile(translated)
	if err != nil {
		return nil, err
	}
	compileCacheMu.Lock()
	compileCache[pattern] = re
	compileCacheMu.Unlock()
	return re, nil
}

// translate rewrites the small set of Lua-pattern-style class escapes the
// grammar engine's builders use into RE2 syntax; everything else (bracket
// classes, *, +, ?, anchors) is already valid RE2 and passes through. A
// bare "-" between two quantifiable atoms is the source's non-greedy
// repetition marker; RE2 spells that "*?"/"+?", so translate promotes a
// trailing "-" the same way "*"/"+" are promoted, but non-greedy.
func translate(pattern string) string {
	out := make([]byte, 0, len(pattern)+8)
	inBracket := false
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if inBracket {
			out = append(out, ch)
			if ch == ']' {
				inBracket = false
			}
			continue
		}
		if ch == '[' {
			inBracket = true
			out = append(out, ch)
			continue
		}
		if ch == '%' && i+1 < len(pattern) {
			switch pattern[i+1] {
			case 'd':
				out = append(out, "[0-9]"...)
			case 'a':
				out = append(out, "[A-Za-z]"...)
			case 'w':
				out = append(out, "[A-Za-z0-9_]"...)
			case 's':
				out = append(out, "[ \\t\\r\\n]"...)
			case 'x':
				out = append(out, "[0-9A-Fa-f]"...)
			default:
				out = append(out, '\\', pattern[i+1])
			}
			i++
			continue
		}
		// A "-" that stands alone as a pattern item (not the first char, not
		// following an operator/group opener) is the source's non-greedy
		// repetition suffix, applied to the atom just emitted.
		if ch == '-' && len(out) > 0 && isQuantifiable(out[len(out)-1]) {
			out = append(out, '*', '?')
			continue
		}
		out = append(out, ch)
	}
	return string(out)
}

func isQuantifiable(b byte) bool {
	return b != '*' && b != '+' && b != '?' && b != '(' && b != '|'
}
