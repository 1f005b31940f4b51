// Command mgcints is the reference command-line frontend for the MGCInts
// pipeline (spec.md §6). Engine resolution, argument handling, and file
// discovery are explicitly out of the framework's core (spec.md §1); this
// binary is deliberately thin, in the teacher's cmd/play_mml/main.go style:
// flat flag.* variables, log.Fatal on a setup failure, a plain stderr
// message and exit code 1 on a compile failure, no third-party CLI
// framework.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/HertzDevil/MGCInts/internal/compiler"
	"github.com/HertzDevil/MGCInts/internal/demoengine"
	"github.com/HertzDevil/MGCInts/internal/engine"
	"github.com/HertzDevil/MGCInts/internal/introspect"
)

func main() {
	var (
		engineName = flag.String("e", "", "engine name (only \"demo\" is built in)")
		inputPath  = flag.String("i", "", "path to the MML source file")
		outputPath = flag.String("o", "", "path to the output ROM/NSF image to patch")
		track      = flag.Int("t", 1, "track index passed to the engine's insert callback")
		dumpGraph  = flag.String("dump-graph", "", "write a Graphviz DOT dump of the resolved engine to this path and exit")
	)
	flag.Parse()

	args := flag.Args()
	name, input, output := resolvePositional(*engineName, *inputPath, *outputPath, args)

	e, err := resolveEngine(name)
	if err != nil {
		log.Fatal(err)
	}

	if *dumpGraph != "" {
		if err := writeGraphDump(e, *dumpGraph); err != nil {
			log.Fatal(err)
		}
		return
	}

	mmlText, err := os.ReadFile(input)
	if err != nil {
		log.Fatal(err)
	}

	out, err := os.OpenFile(output, os.O_RDWR, 0)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	tracks := []compiler.Track{{MML: string(mmlText), Index: *track}}
	if err := compiler.ProcessFile(e, out, tracks); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolvePositional applies the CLI's positional-vs-flag precedence
// (spec.md §6): a flag value wins over the corresponding positional slot.
func resolvePositional(engineFlag, inputFlag, outputFlag string, args []string) (name, input, output string) {
	name, input, output = engineFlag, inputFlag, outputFlag
	if len(args) > 0 && name == "" {
		name = args[0]
	}
	if len(args) > 1 && input == "" {
		input = args[1]
	}
	if len(args) > 2 && output == "" {
		output = args[2]
	}
	return name, input, output
}

// resolveEngine implements a reduced form of spec.md §6's engine resolution
// order: the only built-in engine is "demo"; anything else is looked up as
// a path relative to MGCFRONT_INCLUDE, since the framework's core does not
// define a plugin-loading mechanism (out of scope, spec.md §1).
func resolveEngine(name string) (*engine.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "demo":
		return demoengine.New()
	default:
		if dir := os.Getenv("MGCFRONT_INCLUDE"); dir != "" {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return nil, fmt.Errorf("engine %q found under MGCFRONT_INCLUDE but no engine loader is registered for it", name)
			}
		}
		return nil, fmt.Errorf("unknown engine %q (only \"demo\" is built in)", name)
	}
}

func writeGraphDump(e *engine.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	introspect.DumpEngine(f, e)
	return nil
}
