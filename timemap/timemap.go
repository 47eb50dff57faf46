// Package timemap implements Pass 1 (spec §4.3): a deterministic mapping
// from step ordinal to absolute microseconds, built once and reused by the
// generation pass so that forward-looking annotations resolve to the exact
// same instants regardless of generation order.
package timemap

import (
	"math"

	"github.com/lanefall/mdfc/diag"
	"github.com/lanefall/mdfc/directive"
	"github.com/lanefall/mdfc/lexer"
)

const maxUint64 = math.MaxUint64

// Result is the Pass 1 output: one absolute time per step (indexed by step
// ordinal, directives and comments excluded), the terminal duration, and
// the resolved directive state (bpm/div/manifest path) as it stood at EOF.
type Result struct {
	StepStartTimeUs []uint64
	TotalDurationUs uint64
	Manifest        directive.State
}

// Build scans classified lines once, in source order, and produces the
// step-start-time array.
func Build(lines []lexer.Line) (*Result, *diag.Diagnostic) {
	var state directive.State
	var currentTimeUs uint64
	stepTimes := make([]uint64, 0)

	for _, line := range lines {
		switch line.Kind {
		case lexer.Blank, lexer.Comment:
			continue
		case lexer.Directive:
			if d := directive.Apply(&state, line); d != nil {
				return nil, d
			}
		case lexer.Step:
			if !state.BPMSet {
				return nil, diag.At(diag.E3001, diag.TimeMap, "bpm must be set with @bpm before the first step", line.FileLine, 1, line.Trimmed)
			}
			if !state.DivSet {
				return nil, diag.At(diag.E3002, diag.TimeMap, "div must be set with @div before the first step", line.FileLine, 1, line.Trimmed)
			}

			stepTimes = append(stepTimes, currentTimeUs)

			durationFloat := stepDurationUsFloat(state.BPM, state.Div)
			if durationFloat > float64(maxUint64) {
				return nil, diag.At(diag.E3005, diag.TimeMap, "cumulative chart time overflows 64-bit microseconds", line.FileLine, 1, line.Trimmed)
			}
			durationUs := uint64(durationFloat)
			if durationUs == 0 {
				return nil, diag.At(diag.E3005, diag.TimeMap, "step duration rounded to 0us", line.FileLine, 1, line.Trimmed)
			}

			next := currentTimeUs + durationUs
			if next < currentTimeUs {
				return nil, diag.At(diag.E3005, diag.TimeMap, "cumulative chart time overflows 64-bit microseconds", line.FileLine, 1, line.Trimmed)
			}
			currentTimeUs = next
		}
	}

	return &Result{
		StepStartTimeUs: stepTimes,
		TotalDurationUs: currentTimeUs,
		Manifest:        state,
	}, nil
}

// StepDurationUs computes one step's duration in microseconds, rounded
// half-up per §4.3:
//
//	seconds      = (60 / bpm) * (4 / div)
//	micros_float = seconds * 1_000_000
//	duration     = floor(micros_float + 0.5)
func StepDurationUs(bpm float64, div uint64) uint64 {
	return uint64(stepDurationUsFloat(bpm, div))
}

func stepDurationUsFloat(bpm float64, div uint64) float64 {
	seconds := (60.0 / bpm) * (4.0 / float64(div))
	microsFloat := seconds * 1_000_000.0
	return math.Floor(microsFloat + 0.5)
}
