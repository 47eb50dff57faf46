// Package lexer implements the Line Classifier (spec §4.1): it turns whole-
// file bytes into an ordered stream of classified lines, stripping inline
// comments and trailing whitespace the way the rest of the pipeline
// expects.
package lexer

import (
	"strings"

	"github.com/lanefall/mdfc/diag"
)

// Kind discriminates a classified line.
type Kind int

const (
	Blank Kind = iota
	Comment
	Directive
	Step
)

// Line is one classified source line.
type Line struct {
	Kind Kind

	// FileLine is the 1-based line number in the original file.
	FileLine int

	// Raw is the untrimmed original text, with only a trailing '\r' removed.
	Raw string

	// Trimmed is Raw with any inline comment dropped (a Comment line keeps
	// its text) and leading/trailing ASCII whitespace removed.
	Trimmed string

	// Lanes holds the 8-character lane field, only set for Kind == Step.
	Lanes string

	// Meta holds the optional trailing metadata section for a Step line
	// (starting at the first ':' or '@' after the lane field).
	Meta string

	// DirectiveText holds the text after '@' for Kind == Directive.
	DirectiveText string
}

// Classify splits source into classified lines. It is the only entry point
// into this package.
func Classify(source []byte) ([]Line, *diag.Diagnostic) {
	text := string(source)
	rawLines := strings.Split(text, "\n")

	lines := make([]Line, 0, len(rawLines))
	for i, raw := range rawLines {
		fileLine := i + 1
		raw = strings.TrimSuffix(raw, "\r")

		if full := strings.TrimFunc(raw, isASCIISpace); full != "" && full[0] == '#' {
			lines = append(lines, Line{Kind: Comment, FileLine: fileLine, Raw: raw, Trimmed: full})
			continue
		}

		stripped := stripInlineComment(raw)
		trimmed := strings.TrimFunc(stripped, isASCIISpace)

		if trimmed == "" {
			lines = append(lines, Line{Kind: Blank, FileLine: fileLine, Raw: raw})
			continue
		}

		if trimmed[0] == '@' {
			lines = append(lines, Line{
				Kind:          Directive,
				FileLine:      fileLine,
				Raw:           raw,
				Trimmed:       trimmed,
				DirectiveText: strings.TrimSpace(trimmed[1:]),
			})
			continue
		}

		lanes, meta, ok := splitStepLine(trimmed)
		if !ok {
			return nil, diag.At(diag.E1101, diag.Parse, "malformed lane field: expected 8 lane characters", fileLine, 1, trimmed)
		}

		lines = append(lines, Line{
			Kind:     Step,
			FileLine: fileLine,
			Raw:      raw,
			Trimmed:  trimmed,
			Lanes:    lanes,
			Meta:     meta,
		})
	}

	return lines, nil
}

func isASCIISpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f'
}

// stripInlineComment drops any '#' and everything after it, unless that
// '#' is inside a '[' ... ']' region (a per-lane sound-spec array may, in
// principle, never legitimately contain '#', but the bracket region is
// still honored literally per §4.1 so a stray '#' inside brackets is left
// to the sound-spec parser to reject on its own terms rather than being
// silently eaten here).
func stripInlineComment(line string) string {
	depth := 0
	for i, r := range line {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '#':
			if depth == 0 {
				return line[:i]
			}
		}
	}
	return line
}

// splitStepLine separates the 8-character lane field from any trailing
// metadata. The lane field is the first 8 non-whitespace characters; ok is
// false if fewer than 8 are available.
func splitStepLine(trimmed string) (lanes string, meta string, ok bool) {
	count := 0
	idx := 0
	for idx < len(trimmed) && count < 8 {
		if isASCIISpace(rune(trimmed[idx])) {
			idx++
			continue
		}
		count++
		idx++
	}
	if count < 8 {
		return "", "", false
	}
	lanesRaw := trimmed[:idx]
	lanes = strings.Map(func(r rune) rune {
		if isASCIISpace(r) {
			return -1
		}
		return r
	}, lanesRaw)
	if len(lanes) != 8 {
		return "", "", false
	}
	meta = strings.TrimSpace(trimmed[idx:])
	return lanes, meta, true
}
