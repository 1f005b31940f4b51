// Package preprocess implements the line-oriented conditional-compilation
// preprocessor (spec.md §4.E): #if/#ifdef/#else/#endif, #define, and
// channel remapping, producing an MML source stripped of directives with
// line numbers preserved for downstream traces.
package preprocess

// Context holds per-song preprocessor state: #define bindings, the nested
// #if stack, and the two line-synchronized output buffers (spec.md §3).
type Context struct {
	Defines map[string]int64
	IfStack []bool

	// PreLines and MMLLines are parallel, one entry per source line: PreLines
	// captures directive lines verbatim, MMLLines captures source lines with
	// directives replaced by a comment token and disabled-branch lines
	// replaced by the empty string.
	PreLines []string
	MMLLines []string
}

// NewContext returns an empty preprocessor context.
func NewContext() *Context {
	return &Context{Defines: make(map[string]int64)}
}

// Emitted reports whether a line at the current point in the scan is
// emitted: the if-stack is empty or every entry on it is true.
func (ctx *Context) Emitted() bool {
	for _, v := range ctx.IfStack {
		if !v {
			return false
		}
	}
	return true
}
