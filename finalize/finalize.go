// Package finalize implements the Validator/Finalizer (spec §4.6): a last
// line of defense that asserts the invariants of §3 hold, sorts outputs,
// and assembles the final Chart. A violation here indicates a compiler
// defect, not a user-input error, and is raised as a panic rather than a
// diagnostic, matching the teacher's own "this should never happen"
// register (util.OpenFileOrPanic, util.ReadBinaryOrPanic).
package finalize

import (
	"fmt"
	"sort"

	"github.com/lanefall/mdfc/chart"
)

// Assemble sorts notes and BGM events, asserts the §3 invariants, and
// returns the finished Chart.
func Assemble(meta chart.Meta, resources map[string]string, visualEvents []chart.VisualEvent, speedEvents []chart.SpeedEvent, notes []chart.Note, bgmEvents []chart.BgmEvent) *chart.Chart {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].TimeUs != notes[j].TimeUs {
			return notes[i].TimeUs < notes[j].TimeUs
		}
		if notes[i].Col != notes[j].Col {
			return notes[i].Col < notes[j].Col
		}
		return notes[i].SourceStepIndex < notes[j].SourceStepIndex
	})

	sort.SliceStable(bgmEvents, func(i, j int) bool {
		return bgmEvents[i].TimeUs < bgmEvents[j].TimeUs
	})

	assertInvariants(notes, bgmEvents, resources)

	return &chart.Chart{
		Meta:         meta,
		Resources:    resources,
		VisualEvents: visualEvents,
		SpeedEvents:  speedEvents,
		Notes:        notes,
		BgmEvents:    bgmEvents,
	}
}

func assertInvariants(notes []chart.Note, bgmEvents []chart.BgmEvent, resources map[string]string) {
	for i, n := range notes {
		if n.Kind.Tag.IsHold() && n.Kind.EndTimeUs <= n.TimeUs {
			panic(fmt.Sprintf("finalize: invariant violated, hold note at index %d has end_time_us <= time_us", i))
		}
		if n.Kind.Tag.IsScratchOnly() && n.Col != 0 {
			panic(fmt.Sprintf("finalize: invariant violated, %s note at index %d is not on column 0", n.Kind.Tag, i))
		}
		if n.Kind.Tag.HasCheckpoints() {
			prev := n.TimeUs
			for _, cp := range n.Kind.ReverseCheckpointsUs {
				if cp <= n.TimeUs || cp >= n.Kind.EndTimeUs {
					panic(fmt.Sprintf("finalize: invariant violated, checkpoint at index %d out of (start, end) range", i))
				}
				if cp <= prev && cp != n.TimeUs {
					panic(fmt.Sprintf("finalize: invariant violated, checkpoints at index %d not strictly ascending", i))
				}
				prev = cp
			}
		}
		if n.HasSoundID {
			if _, ok := resources[n.SoundID]; !ok {
				panic(fmt.Sprintf("finalize: invariant violated, note at index %d references unresolved sound id %q", i, n.SoundID))
			}
		}
		if i > 0 {
			p := notes[i-1]
			if p.TimeUs == n.TimeUs && p.Col == n.Col {
				pStart := p.Kind.Tag.IsHold() || p.Kind.Tag == chart.KindTap
				nStart := n.Kind.Tag.IsHold() || n.Kind.Tag == chart.KindTap
				if pStart && nStart && p.Kind.Tag != n.Kind.Tag {
					panic(fmt.Sprintf("finalize: invariant violated, colliding notes at time_us=%d col=%d", n.TimeUs, n.Col))
				}
			}
			if p.TimeUs > n.TimeUs {
				panic("finalize: invariant violated, notes not sorted by time_us")
			}
		}
	}

	for i := 1; i < len(bgmEvents); i++ {
		if bgmEvents[i-1].TimeUs > bgmEvents[i].TimeUs {
			panic("finalize: invariant violated, bgm_events not sorted by time_us")
		}
	}
}
