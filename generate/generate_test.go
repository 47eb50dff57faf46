package generate

import (
	"testing"

	"github.com/lanefall/mdfc/lexer"
	"github.com/stretchr/testify/assert"
)

func classifyLines(t *testing.T, src string) []lexer.Line {
	t.Helper()
	lines, d := lexer.Classify([]byte(src))
	if d != nil {
		t.Fatalf("unexpected classify error: %v", d)
	}
	return lines
}

func stepTimes(n int, stepUs uint64) []uint64 {
	times := make([]uint64, n)
	for i := range times {
		times[i] = uint64(i) * stepUs
	}
	return times
}

func TestTapOnPendingColumnIsAnError(t *testing.T) {
	lines := classifyLines(t, ".l......\n.N......\n")
	_, d := Run(lines, stepTimes(2, 100000), nil)
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E4004", d.Code)
}

func TestMismatchedToggleCloseIsAnError(t *testing.T) {
	lines := classifyLines(t, ".l......\n.h......\n")
	_, d := Run(lines, stepTimes(2, 100000), nil)
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E4101", d.Code)
}

func TestHCNRoundTrip(t *testing.T) {
	lines := classifyLines(t, "..h.....\n........\n..h.....\n")
	res, d := Run(lines, stepTimes(3, 100000), nil)
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Len(res.Notes, 1)
	assert.Equal(uint64(0), res.Notes[0].TimeUs)
	assert.Equal(uint64(200000), res.Notes[0].Kind.EndTimeUs)
}

func TestSingleSoundBroadcastsToAllStartingColumns(t *testing.T) {
	lines := classifyLines(t, "N.N..... : kick\n")
	res, d := Run(lines, stepTimes(1, 100000), map[string]string{"kick": "x"})
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Len(res.Notes, 2)
	for _, n := range res.Notes {
		assert.True(n.HasSoundID)
		assert.Equal("kick", n.SoundID)
	}
}

func TestSingleSoundOnNoStartRowRedirectsToBgm(t *testing.T) {
	lines := classifyLines(t, "........ : cue\n")
	res, d := Run(lines, stepTimes(1, 100000), map[string]string{"cue": "x"})
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Empty(res.Notes)
	assert.Len(res.BgmEvents, 1)
	assert.Equal("cue", res.BgmEvents[0].SoundID)
}

func TestPerLaneSoundOnNoStartRowRedirectsEveryNonDashSlot(t *testing.T) {
	lines := classifyLines(t, "........ : [A,-,C,-,-,-,-,-]\n")
	res, d := Run(lines, stepTimes(1, 100000), map[string]string{"A": "x", "C": "x"})
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Empty(res.Notes)
	assert.Len(res.BgmEvents, 2)
	assert.Equal("A", res.BgmEvents[0].SoundID)
	assert.Equal("C", res.BgmEvents[1].SoundID)
}

func TestPerLaneSoundOnHoldTerminatorRedirectsEveryNonDashSlot(t *testing.T) {
	lines := classifyLines(t, "b.......\nb....... : [A,-,C,-,-,-,-,-]\n")
	res, d := Run(lines, stepTimes(2, 100000), map[string]string{"A": "x", "C": "x"})
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Len(res.Notes, 1)
	assert.Len(res.BgmEvents, 2)
	assert.Equal("A", res.BgmEvents[0].SoundID)
	assert.Equal("C", res.BgmEvents[1].SoundID)
}

func TestSingleSoundOnHoldTerminatorRedirectsToBgm(t *testing.T) {
	lines := classifyLines(t, "b.......\nb....... : SE_END\n")
	res, d := Run(lines, stepTimes(2, 100000), map[string]string{"SE_END": "x"})
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Len(res.Notes, 1)
	assert.Len(res.BgmEvents, 1)
	assert.Equal("SE_END", res.BgmEvents[0].SoundID)
}

func TestSingleSoundOnCheckpointRedirectsToBgm(t *testing.T) {
	lines := classifyLines(t, "m.......\n!....... : SE_CP\nm.......\n")
	res, d := Run(lines, stepTimes(3, 100000), map[string]string{"SE_CP": "x"})
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Len(res.Notes, 1)
	assert.Len(res.BgmEvents, 1)
	assert.Equal("SE_CP", res.BgmEvents[0].SoundID)
}

func TestCNHCNTerminatorDoesNotRedirectSpecToBgm(t *testing.T) {
	lines := classifyLines(t, ".l......\n.l...... : [A,-,-,-,-,-,-,-]\n")
	res, d := Run(lines, stepTimes(2, 100000), map[string]string{"A": "x"})
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Len(res.Notes, 1)
	assert.Empty(res.BgmEvents)
}

func TestCNHCNOnScratchLaneIsAnError(t *testing.T) {
	lines := classifyLines(t, "l.......\n")
	_, d := Run(lines, stepTimes(1, 100000), nil)
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E4001", d.Code)
}
