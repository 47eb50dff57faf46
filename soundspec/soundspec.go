// Package soundspec implements the Sound-Spec Parser (spec §4.4): the
// trailing ": ..." segment of a step line, in either single-id or
// per-lane-array form. Validation against the manifest key set is
// deliberately deferred to the generation pass (spec §4.4 note).
package soundspec

import (
	"strconv"
	"strings"

	"github.com/lanefall/mdfc/diag"
)

// Kind discriminates a parsed sound spec.
type Kind int

const (
	None Kind = iota
	Single
	PerLane
)

// Spec is the parsed trailing ": ..." segment of a step line.
type Spec struct {
	Kind Kind

	// SingleID is set when Kind == Single.
	SingleID string

	// Slots is set when Kind == PerLane; an empty string means "-" (unset).
	Slots [8]string
}

// Parse parses the text following the ':' in a step line's metadata
// section. text must already have the leading ':' stripped and be
// trimmed of surrounding whitespace; an empty text means no spec at all
// (Kind == None).
func Parse(text string) (*Spec, *diag.Diagnostic) {
	if text == "" {
		return &Spec{Kind: None}, nil
	}

	if text[0] != '[' {
		if !isValidID(text) {
			return nil, diag.New(diag.E1003, diag.Parse, "invalid sound id token "+strconv.Quote(text))
		}
		return &Spec{Kind: Single, SingleID: text}, nil
	}

	if !strings.HasSuffix(text, "]") {
		return nil, diag.New(diag.E1001, diag.Parse, "malformed sound-spec array: missing closing ']'")
	}

	inner := text[1 : len(text)-1]
	if inner == "" {
		// "[]" is syntactic sugar for a fully-unset 8-slot array.
		return &Spec{Kind: PerLane}, nil
	}

	rawSlots := strings.Split(inner, ",")
	if len(rawSlots) != 8 {
		return nil, diag.New(diag.E1002, diag.Parse, "sound-spec array must have exactly 8 slots, got "+strconv.Itoa(len(rawSlots)))
	}

	var spec Spec
	spec.Kind = PerLane
	for i, raw := range rawSlots {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, diag.New(diag.E1003, diag.Parse, "empty slot in sound-spec array at position "+strconv.Itoa(i))
		}
		if raw == "-" {
			continue
		}
		if !isValidID(raw) {
			return nil, diag.New(diag.E1003, diag.Parse, "invalid sound id token "+strconv.Quote(raw)+" in sound-spec array")
		}
		spec.Slots[i] = raw
	}

	return &spec, nil
}

func isValidID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum && r != '_' {
			return false
		}
	}
	return true
}


