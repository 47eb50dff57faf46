// Package directive implements the Directive Interpreter (spec §4.2): the
// mutable compile state carried across the source file and mutated only by
// @bpm, @div, and @sound_manifest lines.
package directive

import (
	"math"
	"strconv"
	"strings"

	"github.com/lanefall/mdfc/diag"
	"github.com/lanefall/mdfc/lexer"
)

// State is the subset of compile state this package owns: current tempo
// and division, and whether/where a sound manifest has been declared.
// Time and step-index bookkeeping live in the timemap package, which is
// the sole caller of Apply.
type State struct {
	BPM           float64
	BPMSet        bool
	Div           uint64
	DivSet        bool
	ManifestPath  string
	ManifestBound bool
}

// Apply interprets one Directive-kind line, mutating state in place.
// Non-directive lines must not be passed in; callers branch on Kind first.
func Apply(state *State, line lexer.Line) *diag.Diagnostic {
	name, rest := splitDirective(line.DirectiveText)

	switch name {
	case "bpm":
		return applyBPM(state, rest, line)
	case "div":
		return applyDiv(state, rest, line)
	case "sound_manifest":
		return applySoundManifest(state, rest, line)
	default:
		return diag.At(diag.E1006, diag.Parse, "unknown directive @"+name, line.FileLine, 1, line.Trimmed)
	}
}

func splitDirective(text string) (name string, rest string) {
	parts := strings.SplitN(text, " ", 2)
	name = parts[0]
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return name, rest
}

func applyBPM(state *State, arg string, line lexer.Line) *diag.Diagnostic {
	val, err := strconv.ParseFloat(arg, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) || val <= 0 {
		return diag.At(diag.E3003, diag.TimeMap, "bpm must be a positive finite number, got "+strconv.Quote(arg), line.FileLine, 1, line.Trimmed)
	}
	state.BPM = val
	state.BPMSet = true
	return nil
}

func applyDiv(state *State, arg string, line lexer.Line) *diag.Diagnostic {
	val, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || val <= 0 {
		return diag.At(diag.E3004, diag.TimeMap, "div must be a positive integer, got "+strconv.Quote(arg), line.FileLine, 1, line.Trimmed)
	}
	state.Div = uint64(val)
	state.DivSet = true
	return nil
}

func applySoundManifest(state *State, arg string, line lexer.Line) *diag.Diagnostic {
	if state.ManifestBound {
		return diag.At(diag.E2004, diag.IO, "duplicate @sound_manifest directive", line.FileLine, 1, line.Trimmed)
	}
	if arg == "" {
		return diag.At(diag.E1006, diag.Parse, "@sound_manifest requires a path argument", line.FileLine, 1, line.Trimmed)
	}
	state.ManifestPath = arg
	state.ManifestBound = true
	return nil
}
