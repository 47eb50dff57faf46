// Package compiler sequences the two-pass compile (spec §5): Pass 1 (the
// time map) runs to completion, the sound manifest is resolved if one was
// declared, then Pass 2 (generation) and the Validator/Finalizer run in
// order. A compile is a pure function from (source bytes, manifest loader)
// to (chart, diagnostic); it owns no state beyond the call.
package compiler

import (
	"github.com/lanefall/mdfc/chart"
	"github.com/lanefall/mdfc/diag"
	"github.com/lanefall/mdfc/finalize"
	"github.com/lanefall/mdfc/generate"
	"github.com/lanefall/mdfc/lexer"
	"github.com/lanefall/mdfc/manifest"
	"github.com/lanefall/mdfc/timemap"
)

// Options carries the inputs external to the .mdfs source text itself:
// the manifest loader, front-end metadata, and any advisory guide events
// the front-end wants carried straight through (spec §9 open question).
type Options struct {
	Loader       manifest.Loader
	Title        string
	Artist       string
	Version      string
	Tags         []string
	VisualEvents []chart.VisualEvent
	SpeedEvents  []chart.SpeedEvent
}

// Compile runs the full two-pass compile over source and returns either a
// finished Chart or the first diagnostic encountered. Each stage (line
// classification, the time map, manifest loading, generation) runs over the
// whole file before the next starts, so a failing earlier stage is reported
// even when a later stage would have failed on an earlier source line;
// within one stage the earliest line in source order is reported.
func Compile(source []byte, opts Options) (*chart.Chart, *diag.Diagnostic) {
	lines, d := lexer.Classify(source)
	if d != nil {
		return nil, d
	}

	tm, d := timemap.Build(lines)
	if d != nil {
		return nil, d
	}

	resources := map[string]string{}
	if tm.Manifest.ManifestBound {
		loader := opts.Loader
		if loader == nil {
			loader = manifest.FileLoader{}
		}
		loaded, d := loader.Load(tm.Manifest.ManifestPath)
		if d != nil {
			return nil, d
		}
		resources = loaded
	}

	genResult, d := generate.Run(lines, tm.StepStartTimeUs, resources)
	if d != nil {
		return nil, d
	}

	meta := chart.Meta{
		Title:           opts.Title,
		Artist:          opts.Artist,
		Version:         opts.Version,
		Tags:            opts.Tags,
		TotalDurationUs: tm.TotalDurationUs,
		BPM:             tm.Manifest.BPM,
	}

	result := finalize.Assemble(meta, resources, opts.VisualEvents, opts.SpeedEvents, genResult.Notes, genResult.BgmEvents)
	return result, nil
}
