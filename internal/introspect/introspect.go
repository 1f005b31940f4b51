// Package introspect renders a macro table's trie or an engine's channel
// and feature wiring as a Graphviz DOT graph, for operators debugging a
// misbehaving command dispatch or engine definition. It is pure reflection
// over already-built data -- it never decodes or interprets an engine's
// compiled output, so it stays on the right side of spec.md §1 Non-goal (a).
package introspect

import (
	"io"

	"github.com/bradleyjkemp/memviz"

	"github.com/HertzDevil/MGCInts/internal/command"
	"github.com/HertzDevil/MGCInts/internal/engine"
)

// DumpMacroTable writes tbl's underlying trie, including every command
// variant it stores, as a Graphviz DOT graph.
func DumpMacroTable[S, C any](w io.Writer, tbl *command.Table[S, C]) {
	memviz.Map(w, tbl)
}

// DumpEngine writes e's channel-post/pre callback lists, imported feature
// set, and command table as a Graphviz DOT graph.
func DumpEngine(w io.Writer, e *engine.Engine) {
	memviz.Map(w, e)
}
