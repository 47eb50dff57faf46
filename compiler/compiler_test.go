package compiler

import (
	"testing"

	"github.com/lanefall/mdfc/chart"
	"github.com/lanefall/mdfc/manifest"
	"github.com/stretchr/testify/assert"
)

func compileOrFail(t *testing.T, src string, loader manifest.Loader) *chart.Chart {
	t.Helper()
	c, d := Compile([]byte(src), Options{Loader: loader})
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
	return c
}

// Scenario 1: minimal tap.
func TestMinimalTap(t *testing.T) {
	src := "@bpm 150\n@div 16\nS.......\n........\n"
	c := compileOrFail(t, src, nil)

	assert := assert.New(t)
	assert.Len(c.Notes, 1)
	assert.Equal(chart.Note{
		TimeUs:          0,
		Col:             0,
		Kind:            chart.Kind{Tag: chart.KindTap},
		SourceStepIndex: 0,
	}, c.Notes[0])
	assert.Equal(uint64(200000), c.Meta.TotalDurationUs)
}

// Scenario 2: CN start+end.
func TestCNStartAndEnd(t *testing.T) {
	src := "@bpm 150\n@div 16\n.l......\n........\n........\n.l......\n"
	c := compileOrFail(t, src, nil)

	assert := assert.New(t)
	assert.Len(c.Notes, 1)
	n := c.Notes[0]
	assert.Equal(chart.Col(1), n.Col)
	assert.Equal(chart.KindCN, n.Kind.Tag)
	assert.Equal(uint64(0), n.TimeUs)
	assert.Equal(uint64(300000), n.Kind.EndTimeUs)
}

// Scenario 3: MSS with @rev_every 4 across a 9-step (8 step-duration) region.
func TestMSSWithRevEvery(t *testing.T) {
	src := "@bpm 150\n@div 16\n" +
		"m....... @rev_every 4\n" +
		"........\n........\n........\n........\n........\n........\n........\n" +
		"m.......\n"
	// 9 step rows total: the opening row, 7 blank rows, the closing row.
	c := compileOrFail(t, src, nil)

	assert := assert.New(t)
	assert.Len(c.Notes, 1)
	n := c.Notes[0]
	assert.Equal(chart.KindMSS, n.Kind.Tag)
	assert.Equal(uint64(0), n.TimeUs)
	assert.Equal(uint64(800000), n.Kind.EndTimeUs)
	assert.Equal([]uint64{400000}, n.Kind.ReverseCheckpointsUs)
}

// Scenario 4: MSS with @rev_at 3 inside a 5-step (4 step-duration) region,
// with a checkpoint-row sound spec redirecting to a BGM event.
func TestMSSWithRevAtAndCheckpointSound(t *testing.T) {
	loader := manifest.StaticLoader{"SE_CP": "sounds/se_cp.wav"}
	src := "@bpm 150\n@div 16\n@sound_manifest manifest.json\n" +
		"m....... @rev_at 3\n" +
		"........\n" +
		"!....... : [SE_CP,-,-,-,-,-,-,-]\n" +
		"........\n" +
		"m.......\n"
	c := compileOrFail(t, src, loader)

	assert := assert.New(t)
	assert.Len(c.Notes, 1)
	n := c.Notes[0]
	assert.Equal(chart.KindMSS, n.Kind.Tag)
	assert.Equal(uint64(400000), n.Kind.EndTimeUs)
	assert.Equal([]uint64{200000}, n.Kind.ReverseCheckpointsUs)

	assert.Len(c.BgmEvents, 1)
	assert.Equal(chart.BgmEvent{TimeUs: 200000, SoundID: "SE_CP"}, c.BgmEvents[0])
}

// Scenario 5: BSS terminator sound redirection.
func TestBSSTerminatorSound(t *testing.T) {
	loader := manifest.StaticLoader{
		"S_LP":   "sounds/s_lp.wav",
		"SE_END": "sounds/se_end.wav",
	}
	src := "@bpm 150\n@div 16\n@sound_manifest manifest.json\n" +
		"b....... : [S_LP,-,-,-,-,-,-,-]\n" +
		"b....... : [SE_END,-,-,-,-,-,-,-]\n"
	c := compileOrFail(t, src, loader)

	assert := assert.New(t)
	assert.Len(c.Notes, 1)
	n := c.Notes[0]
	assert.Equal(chart.KindBSS, n.Kind.Tag)
	assert.True(n.HasSoundID)
	assert.Equal("S_LP", n.SoundID)
	assert.Equal(uint64(100000), n.Kind.EndTimeUs)

	assert.Len(c.BgmEvents, 1)
	assert.Equal(chart.BgmEvent{TimeUs: 100000, SoundID: "SE_END"}, c.BgmEvents[0])
}

// Scenario 6: unclosed toggle.
func TestUnclosedToggle(t *testing.T) {
	src := "@bpm 150\n@div 16\n.l......\n"
	_, d := Compile([]byte(src), Options{})
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E4101", d.Code)
	assert.Equal(t, 3, d.Pos.Line)
	assert.Equal(t, 2, d.Pos.Lane+1)
}

func TestReservedLaneCharacter(t *testing.T) {
	src := "@bpm 150\n@div 16\n.x......\n"
	_, d := Compile([]byte(src), Options{})
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E4001", d.Code)
}

func TestScratchOnlyCharOnNonScratchLane(t *testing.T) {
	src := "@bpm 150\n@div 16\n.S......\n"
	_, d := Compile([]byte(src), Options{})
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E4002", d.Code)
}

func TestCheckpointOutsideMSSHMSS(t *testing.T) {
	src := "@bpm 150\n@div 16\n!.......\n"
	_, d := Compile([]byte(src), Options{})
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E4003", d.Code)
}

func TestCheckpointInsideBSS(t *testing.T) {
	src := "@bpm 150\n@div 16\nb.......\n!.......\nb.......\n"
	_, d := Compile([]byte(src), Options{})
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E4102", d.Code)
}

func TestMissingSoundManifestReferenceIsAnError(t *testing.T) {
	src := "@bpm 150\n@div 16\nS....... : missing_id\n"
	_, d := Compile([]byte(src), Options{})
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E2101", d.Code)
}

func TestRoundTripDeterminism(t *testing.T) {
	src := "@bpm 150\n@div 16\nS.......\n.l......\n........\n........\n.l......\n........\n"
	c1 := compileOrFail(t, src, nil)
	c2 := compileOrFail(t, src, nil)
	assert.Equal(t, c1, c2)
}
