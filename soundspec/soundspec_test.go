package soundspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEmptyIsNone(t *testing.T) {
	spec, d := Parse("")
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert.Equal(t, None, spec.Kind)
}

func TestParseSingleID(t *testing.T) {
	spec, d := Parse("kick_01")
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert.Equal(t, Single, spec.Kind)
	assert.Equal(t, "kick_01", spec.SingleID)
}

func TestParsePerLaneArray(t *testing.T) {
	spec, d := Parse("[S_LP,-,-,-,-,-,-,SE_END]")
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert.Equal(t, PerLane, spec.Kind)
	assert.Equal(t, "S_LP", spec.Slots[0])
	assert.Equal(t, "", spec.Slots[1])
	assert.Equal(t, "SE_END", spec.Slots[7])
}

func TestParseEmptyArrayIsAllUnset(t *testing.T) {
	spec, d := Parse("[]")
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert.Equal(t, PerLane, spec.Kind)
	for i := 0; i < 8; i++ {
		assert.Equal(t, "", spec.Slots[i])
	}
}

func TestParseArrayWrongSlotCount(t *testing.T) {
	_, d := Parse("[a,b,c]")
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E1002", d.Code)
}

func TestParseArrayEmptySlot(t *testing.T) {
	_, d := Parse("[a,,c,-,-,-,-,-]")
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E1003", d.Code)
}

func TestParseMalformedBrackets(t *testing.T) {
	_, d := Parse("[a,b,c,d,e,f,g,h")
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E1001", d.Code)
}

func TestParseInvalidToken(t *testing.T) {
	_, d := Parse("bad id!")
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E1003", d.Code)
}
