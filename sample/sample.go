// Package sample trims a compiled chart down to a short preview: the
// direct analogue of the teacher's sample.Create, which trims an SMF to
// its first 10 note on/off events. Here the trim targets chart.Note
// events instead of raw MIDI messages.
package sample

import (
	"github.com/lanefall/mdfc/chart"
)

// Create returns a new Chart containing only the first maxNotes notes
// (by their already-sorted time_us/col order), plus any bgm_events that
// fall at or before the cutoff time, and total_duration_us rewound to the
// last kept event.
func Create(c *chart.Chart, maxNotes int) *chart.Chart {
	notes := c.Notes
	if maxNotes < len(notes) {
		notes = notes[:maxNotes]
	}

	var cutoff chart.Time
	for _, n := range notes {
		end := n.TimeUs
		if n.Kind.Tag.IsHold() {
			end = n.Kind.EndTimeUs
		}
		if end > cutoff {
			cutoff = end
		}
	}

	var bgm []chart.BgmEvent
	for _, e := range c.BgmEvents {
		if e.TimeUs <= cutoff {
			bgm = append(bgm, e)
		}
	}

	var visual []chart.VisualEvent
	for _, v := range c.VisualEvents {
		if v.TimeUs <= cutoff {
			visual = append(visual, v)
		}
	}

	var speed []chart.SpeedEvent
	for _, s := range c.SpeedEvents {
		if s.TimeUs <= cutoff {
			speed = append(speed, s)
		}
	}

	meta := c.Meta
	meta.TotalDurationUs = cutoff

	return &chart.Chart{
		Meta:         meta,
		Resources:    c.Resources,
		VisualEvents: visual,
		SpeedEvents:  speed,
		Notes:        notes,
		BgmEvents:    bgm,
	}
}
