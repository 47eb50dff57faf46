// Package diag defines the structured diagnostic the compiler core returns
// on any compile failure (spec §6, §7). The core returns the first
// diagnostic its stages encounter (see compiler.Compile for the order) and
// never continues past it.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the taxonomy bucket a diagnostic falls into.
type Kind string

const (
	Parse      Kind = "Parse"
	Semantic   Kind = "Semantic"
	IO         Kind = "IO"
	TimeMap    Kind = "TimeMap"
	Validation Kind = "Validation"
)

// Error codes, grouped the way spec §7 groups them.
const (
	// Parse (E1xxx)
	E1001 = "E1001" // malformed sound-spec brackets/commas
	E1002 = "E1002" // sound-spec array not exactly 8 slots
	E1003 = "E1003" // empty slot or invalid token in sound-spec array
	E1004 = "E1004" // malformed @rev_at list
	E1005 = "E1005" // malformed @rev_every value
	E1006 = "E1006" // unknown directive
	E1101 = "E1101" // malformed lane field length/characters

	// IO (E2xxx)
	E2001 = "E2001" // manifest unreadable
	E2002 = "E2002" // manifest unparseable (JSON)
	E2003 = "E2003" // manifest value validation failure
	E2004 = "E2004" // duplicate @sound_manifest

	// Semantic
	E2101 = "E2101" // sound id missing from resources
	E4201 = "E4201" // @rev_every/@rev_at on a non-opening row

	// TimeMap (E3xxx)
	E3001 = "E3001" // bpm undeclared at first step
	E3002 = "E3002" // div undeclared at first step
	E3003 = "E3003" // bpm non-positive / non-finite
	E3004 = "E3004" // div non-positive
	E3005 = "E3005" // cumulative time overflow

	// Validation (E4xxx)
	E4001 = "E4001" // reserved/invalid lane character, or CN/HCN on the scratch lane
	E4002 = "E4002" // scratch-only character on non-scratch lane
	E4003 = "E4003" // '!' unopened or off column 0
	E4004 = "E4004" // tap onto a column with a pending toggle
	E4101 = "E4101" // unclosed toggle at EOF, or hold type mismatch while toggling
	E4102 = "E4102" // '!' inside an open BSS/HBSS
)

// Position locates a diagnostic within the source, as much as is known at
// the point it was raised.
type Position struct {
	File      string
	Line      int
	Column    int
	StepIndex int
	Lane      int
	TimeUs    uint64
	Context   string
}

// Diagnostic is the structured failure record the core returns instead of
// a chart on any error.
type Diagnostic struct {
	Code    string
	Kind    Kind
	Message string
	Pos     Position
	Help    string
	Cause   error
}

func (d *Diagnostic) Error() string {
	if d.Pos.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d, col %d)", d.Code, d.Message, d.Pos.Line, d.Pos.Column)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

// New builds a diagnostic with no positional information.
func New(code string, kind Kind, message string) *Diagnostic {
	return &Diagnostic{Code: code, Kind: kind, Message: message}
}

// At builds a diagnostic anchored to a source line.
func At(code string, kind Kind, message string, line, column int, context string) *Diagnostic {
	return &Diagnostic{
		Code:    code,
		Kind:    kind,
		Message: message,
		Pos:     Position{Line: line, Column: column, Context: context},
	}
}

// Wrap attaches an underlying cause (I/O, JSON) to a diagnostic, matching
// the teacher's habit of folding an error's message into a new one, but
// keeping the original walkable via errors.Unwrap/errors.Cause.
func Wrap(code string, kind Kind, message string, cause error) *Diagnostic {
	return &Diagnostic{Code: code, Kind: kind, Message: message, Cause: errors.WithStack(cause)}
}

// WithStep annotates a diagnostic with the step index and time it occurred
// at, returning the same diagnostic for chaining.
func (d *Diagnostic) WithStep(stepIndex int, timeUs uint64) *Diagnostic {
	d.Pos.StepIndex = stepIndex
	d.Pos.TimeUs = timeUs
	return d
}

// WithLane annotates a diagnostic with the lane column it occurred at.
func (d *Diagnostic) WithLane(lane int) *Diagnostic {
	d.Pos.Lane = lane
	return d
}

// WithHelp attaches a human-readable hint.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

// WithFile attaches the source file path.
func (d *Diagnostic) WithFile(file string) *Diagnostic {
	d.Pos.File = file
	return d
}
