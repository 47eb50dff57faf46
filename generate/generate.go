// Package generate implements Pass 2 (spec §4.5): the toggle state machine
// that turns step lines into notes, holds, checkpoints, and background-
// sound events, using the Pass-1 time map for every timestamp it emits.
package generate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lanefall/mdfc/chart"
	"github.com/lanefall/mdfc/diag"
	"github.com/lanefall/mdfc/lexer"
	"github.com/lanefall/mdfc/soundspec"
)

// action classifies what a single column did on a single step.
type action int

const (
	actionNone action = iota
	actionTap
	actionHoldOpen
	actionHoldClose
	actionCheckpoint
)

// pendingHold is the open half of a toggle, keyed by column.
type pendingHold struct {
	tag            chart.KindTag
	startTimeUs    uint64
	startStepIndex int
	startLine      int
	soundID        string
	hasSoundID     bool
	hasRevEvery    bool
	revEvery       uint64
	hasRevAt       bool
	revAt          []uint64
	checkpoints    []uint64
}

// Result is the Pass 2 output, ready for the Validator/Finalizer.
type Result struct {
	Notes     []chart.Note
	BgmEvents []chart.BgmEvent
}

// Run executes the toggle state machine over step lines in order, using
// stepStartTimeUs (Pass 1's output) for every timestamp.
func Run(lines []lexer.Line, stepStartTimeUs []uint64, resources map[string]string) (*Result, *diag.Diagnostic) {
	pending := make(map[int]*pendingHold)
	var notes []chart.Note
	var bgmEvents []chart.BgmEvent

	stepIndex := 0
	for _, line := range lines {
		if line.Kind != lexer.Step {
			continue
		}

		t := stepStartTimeUs[stepIndex]

		meta, d := parseMeta(line.Meta)
		if d != nil {
			return nil, d.WithStep(stepIndex, t)
		}

		spec, d := soundspec.Parse(meta.specText)
		if d != nil {
			return nil, d.WithStep(stepIndex, t)
		}

		if len(line.Lanes) != 8 {
			return nil, diag.At(diag.E1101, diag.Parse, "malformed lane field", line.FileLine, 1, line.Trimmed).WithStep(stepIndex, t)
		}

		col0Opens := col0OpensMultiStepScratch(line.Lanes[0], pending[0])
		if (meta.hasRevEvery || meta.hasRevAt) && !col0Opens {
			return nil, diag.At(diag.E4201, diag.Semantic, "@rev_every/@rev_at only allowed on a step opening an MSS or HMSS toggle", line.FileLine, 1, line.Trimmed).WithStep(stepIndex, t)
		}

		acts := make([]action, 8)
		for c := 0; c < 8; c++ {
			ch := line.Lanes[c]
			act, d := classify(ch, c, pending)
			if d != nil {
				return nil, d.WithStep(stepIndex, t).WithLane(c)
			}
			acts[c] = act
		}

		anyActivity := false
		for c := 0; c < 8; c++ {
			if acts[c] != actionNone {
				anyActivity = true
			}
		}

		anyScratchCloseOrCheckpoint := false

		for c := 0; c < 8; c++ {
			ch := line.Lanes[c]
			switch acts[c] {
			case actionNone:
				continue

			case actionTap:
				soundID, hasSound := soundForColumn(spec, c)
				if hasSound {
					if _, ok := resources[soundID]; !ok {
						return nil, diag.At(diag.E2101, diag.Semantic, "sound id "+strconv.Quote(soundID)+" not found in resources", line.FileLine, c+1, line.Trimmed).WithStep(stepIndex, t).WithLane(c)
					}
				}
				notes = append(notes, chart.Note{
					TimeUs:          t,
					Col:             chart.Col(c),
					Kind:            chart.Kind{Tag: chart.KindTap},
					SoundID:         soundID,
					HasSoundID:      hasSound,
					SourceStepIndex: stepIndex,
				})

			case actionHoldOpen:
				tag := tagForToken(ch)
				soundID, hasSound := soundForColumn(spec, c)
				if hasSound {
					if _, ok := resources[soundID]; !ok {
						return nil, diag.At(diag.E2101, diag.Semantic, "sound id "+strconv.Quote(soundID)+" not found in resources", line.FileLine, c+1, line.Trimmed).WithStep(stepIndex, t).WithLane(c)
					}
				}
				ph := &pendingHold{
					tag:            tag,
					startTimeUs:    t,
					startStepIndex: stepIndex,
					startLine:      line.FileLine,
					soundID:        soundID,
					hasSoundID:     hasSound,
				}
				if tag == chart.KindMSS || tag == chart.KindHMSS {
					if meta.hasRevEvery {
						ph.hasRevEvery = true
						ph.revEvery = meta.revEvery
					}
					if meta.hasRevAt {
						ph.hasRevAt = true
						ph.revAt = meta.revAt
					}
				}
				pending[c] = ph

			case actionHoldClose:
				ph := pending[c]
				delete(pending, c)

				var checkpoints []uint64
				if ph.tag == chart.KindMSS || ph.tag == chart.KindHMSS {
					checkpoints = synthesizeCheckpoints(ph, stepIndex, t, stepStartTimeUs)
				}

				note := chart.Note{
					TimeUs: ph.startTimeUs,
					Col:    chart.Col(c),
					Kind: chart.Kind{
						Tag:                  ph.tag,
						EndTimeUs:            t,
						ReverseCheckpointsUs: checkpoints,
					},
					SourceStepIndex: ph.startStepIndex,
				}
				if ph.hasSoundID {
					note.SoundID = ph.soundID
					note.HasSoundID = true
				}
				notes = append(notes, note)

				if ph.tag.IsScratchOnly() {
					anyScratchCloseOrCheckpoint = true
				}

			case actionCheckpoint:
				ph := pending[c]
				ph.checkpoints = append(ph.checkpoints, t)
				anyScratchCloseOrCheckpoint = true
			}
		}

		// Scratch-hold terminator (BSS/HBSS/MSS/HMSS close) and checkpoint
		// rows redirect the whole spec once for the row, not per active
		// column (§4.5(5)). CN/HCN terminators are deliberately excluded:
		// their sound, if any, was already attached inline at hold-open.
		if anyScratchCloseOrCheckpoint {
			switch spec.Kind {
			case soundspec.Single:
				if _, ok := resources[spec.SingleID]; !ok {
					return nil, diag.At(diag.E2101, diag.Semantic, "sound id "+strconv.Quote(spec.SingleID)+" not found in resources", line.FileLine, 1, line.Trimmed).WithStep(stepIndex, t)
				}
				bgmEvents = append(bgmEvents, chart.BgmEvent{TimeUs: t, SoundID: spec.SingleID})
			case soundspec.PerLane:
				events, d := emitPerLaneBgm(spec, resources, t, line, stepIndex)
				if d != nil {
					return nil, d
				}
				bgmEvents = append(bgmEvents, events...)
			}
		}

		// No-note rows (nothing starts, nothing terminates, nothing
		// checkpoints) redirect the whole spec as BGM (§4.5(4)).
		if !anyActivity {
			switch spec.Kind {
			case soundspec.Single:
				if _, ok := resources[spec.SingleID]; !ok {
					return nil, diag.At(diag.E2101, diag.Semantic, "sound id "+strconv.Quote(spec.SingleID)+" not found in resources", line.FileLine, 1, line.Trimmed).WithStep(stepIndex, t)
				}
				bgmEvents = append(bgmEvents, chart.BgmEvent{TimeUs: t, SoundID: spec.SingleID})
			case soundspec.PerLane:
				events, d := emitPerLaneBgm(spec, resources, t, line, stepIndex)
				if d != nil {
					return nil, d
				}
				bgmEvents = append(bgmEvents, events...)
			}
		}

		stepIndex++
	}

	if len(pending) > 0 {
		cols := make([]int, 0, len(pending))
		for c := range pending {
			cols = append(cols, c)
		}
		sort.Ints(cols)
		first := pending[cols[0]]
		return nil, diag.At(diag.E4101, diag.Validation, "unclosed toggle at end of file", first.startLine, cols[0]+1, "").WithLane(cols[0]).WithStep(first.startStepIndex, first.startTimeUs)
	}

	return &Result{Notes: notes, BgmEvents: bgmEvents}, nil
}


// soundForColumn resolves the sound id, if any, that a given column should
// carry inline on a start action (Tap/HoldOpen) per spec.
func soundForColumn(spec *soundspec.Spec, col int) (string, bool) {
	switch spec.Kind {
	case soundspec.None:
		return "", false
	case soundspec.Single:
		return spec.SingleID, true
	case soundspec.PerLane:
		id := spec.Slots[col]
		if id == "" {
			return "", false
		}
		return id, true
	default:
		return "", false
	}
}

// emitPerLaneBgm builds one BgmEvent per non-dash slot of a PerLane spec,
// in column order, validating each id against resources.
func emitPerLaneBgm(spec *soundspec.Spec, resources map[string]string, t uint64, line lexer.Line, stepIndex int) ([]chart.BgmEvent, *diag.Diagnostic) {
	var events []chart.BgmEvent
	for c := 0; c < 8; c++ {
		id := spec.Slots[c]
		if id == "" {
			continue
		}
		if _, ok := resources[id]; !ok {
			return nil, diag.At(diag.E2101, diag.Semantic, "sound id "+strconv.Quote(id)+" not found in resources", line.FileLine, c+1, line.Trimmed).WithStep(stepIndex, t).WithLane(c)
		}
		events = append(events, chart.BgmEvent{TimeUs: t, SoundID: id})
	}
	return events, nil
}

func tagForToken(ch byte) chart.KindTag {
	switch ch {
	case 'l':
		return chart.KindCN
	case 'h':
		return chart.KindHCN
	case 'b':
		return chart.KindBSS
	case 'B':
		return chart.KindHBSS
	case 'm':
		return chart.KindMSS
	case 'M':
		return chart.KindHMSS
	default:
		return chart.KindTap
	}
}

// col0OpensMultiStepScratch reports whether column 0's character on this
// row opens a fresh MSS/HMSS toggle (no pending hold yet at column 0).
func col0OpensMultiStepScratch(ch byte, existing *pendingHold) bool {
	if existing != nil {
		return false
	}
	return ch == 'm' || ch == 'M'
}

func classify(ch byte, col int, pending map[int]*pendingHold) (action, *diag.Diagnostic) {
	switch ch {
	case '.':
		return actionNone, nil

	case 'N':
		if _, open := pending[col]; open {
			return actionNone, diag.New(diag.E4004, diag.Validation, "tap on column with a pending toggle")
		}
		return actionTap, nil

	case 'S':
		if col != 0 {
			return actionNone, diag.New(diag.E4002, diag.Validation, "'S' is scratch-only and may only appear on column 0")
		}
		if _, open := pending[col]; open {
			return actionNone, diag.New(diag.E4004, diag.Validation, "tap on column with a pending toggle")
		}
		return actionTap, nil

	case 'l', 'h':
		if col == 0 {
			return actionNone, diag.New(diag.E4001, diag.Validation, "CN/HCN not allowed on the scratch lane")
		}
		ph, open := pending[col]
		if !open {
			return actionHoldOpen, nil
		}
		if ph.tag != tagForToken(ch) {
			return actionNone, diag.New(diag.E4101, diag.Validation, "hold type mismatch while toggling")
		}
		return actionHoldClose, nil

	case 'b', 'B', 'm', 'M':
		if col != 0 {
			return actionNone, diag.New(diag.E4002, diag.Validation, "scratch-only hold token may only appear on column 0")
		}
		ph, open := pending[col]
		if !open {
			return actionHoldOpen, nil
		}
		if ph.tag != tagForToken(ch) {
			return actionNone, diag.New(diag.E4101, diag.Validation, "hold type mismatch while toggling")
		}
		return actionHoldClose, nil

	case '!':
		if col != 0 {
			return actionNone, diag.New(diag.E4003, diag.Validation, "'!' may only appear on column 0")
		}
		ph, open := pending[col]
		if !open {
			return actionNone, diag.New(diag.E4003, diag.Validation, "'!' outside an open MSS/HMSS toggle")
		}
		if ph.tag == chart.KindBSS || ph.tag == chart.KindHBSS {
			return actionNone, diag.New(diag.E4102, diag.Validation, "'!' inside an open BSS/HBSS toggle")
		}
		if ph.tag != chart.KindMSS && ph.tag != chart.KindHMSS {
			return actionNone, diag.New(diag.E4003, diag.Validation, "'!' outside an open MSS/HMSS toggle")
		}
		return actionCheckpoint, nil

	default:
		return actionNone, diag.New(diag.E4001, diag.Validation, "reserved/invalid lane character "+strconv.QuoteRune(rune(ch)))
	}
}

// synthesizeCheckpoints computes the union of @rev_every, @rev_at, and
// visual '!' checkpoint times for a closing MSS/HMSS hold, per §4.5.
func synthesizeCheckpoints(ph *pendingHold, endStepIndex int, endTimeUs uint64, stepStartTimeUs []uint64) []uint64 {
	seen := make(map[uint64]struct{})
	var times []uint64

	add := func(tUs uint64) {
		if tUs == endTimeUs {
			return
		}
		if _, ok := seen[tUs]; ok {
			return
		}
		seen[tUs] = struct{}{}
		times = append(times, tUs)
	}

	i0 := ph.startStepIndex
	length := endStepIndex - i0

	if ph.hasRevEvery && ph.revEvery > 0 {
		for k := uint64(1); int(k*ph.revEvery) < length; k++ {
			idx := i0 + int(k*ph.revEvery)
			if idx < len(stepStartTimeUs) {
				add(stepStartTimeUs[idx])
			}
		}
	}

	if ph.hasRevAt {
		for _, a := range ph.revAt {
			if a < 2 {
				continue
			}
			idx := i0 + int(a-1)
			if int(a-1) < length && idx < len(stepStartTimeUs) {
				add(stepStartTimeUs[idx])
			}
		}
	}

	for _, cp := range ph.checkpoints {
		add(cp)
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times
}

// metaParsed is the parsed trailing metadata section of a step line: the
// sound-spec text (if any) plus any @rev_every/@rev_at annotations.
type metaParsed struct {
	specText    string
	hasRevEvery bool
	revEvery    uint64
	hasRevAt    bool
	revAt       []uint64
}

func parseMeta(meta string) (*metaParsed, *diag.Diagnostic) {
	var mp metaParsed
	fields := strings.Fields(meta)

	i := 0
	for i < len(fields) {
		f := fields[i]
		switch {
		case f == "@rev_every":
			i++
			if i >= len(fields) {
				return nil, diag.New(diag.E1005, diag.Parse, "@rev_every requires a value")
			}
			n, err := strconv.ParseUint(fields[i], 10, 64)
			if err != nil || n < 1 {
				return nil, diag.New(diag.E1005, diag.Parse, "@rev_every requires an integer >= 1, got "+strconv.Quote(fields[i]))
			}
			mp.hasRevEvery = true
			mp.revEvery = n
			i++

		case f == "@rev_at":
			i++
			if i >= len(fields) {
				return nil, diag.New(diag.E1004, diag.Parse, "@rev_at requires a comma-separated list")
			}
			vals, d := parseRevAtList(fields[i])
			if d != nil {
				return nil, d
			}
			mp.hasRevAt = true
			mp.revAt = vals
			i++

		case f == ":":
			i++
			if i < len(fields) {
				mp.specText = fields[i]
				i++
			}

		case strings.HasPrefix(f, ":"):
			mp.specText = f[1:]
			i++

		default:
			return nil, diag.New(diag.E1001, diag.Parse, "unrecognized step metadata token "+strconv.Quote(f))
		}
	}

	return &mp, nil
}

func parseRevAtList(raw string) ([]uint64, *diag.Diagnostic) {
	parts := strings.Split(raw, ",")
	vals := make([]uint64, 0, len(parts))
	seen := make(map[uint64]struct{})
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil || n < 2 {
			return nil, diag.New(diag.E1004, diag.Parse, "@rev_at entries must be integers >= 2, got "+strconv.Quote(p))
		}
		if _, dup := seen[n]; dup {
			return nil, diag.New(diag.E1004, diag.Parse, "@rev_at entries must be distinct, duplicate "+strconv.Quote(p))
		}
		seen[n] = struct{}{}
		vals = append(vals, n)
	}
	return vals, nil
}
