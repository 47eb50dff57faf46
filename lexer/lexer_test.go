package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBlankAndComment(t *testing.T) {
	lines, d := Classify([]byte("\n   \n# a full comment\n"))
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Equal(Blank, lines[0].Kind)
	assert.Equal(Blank, lines[1].Kind)
	assert.Equal(Comment, lines[2].Kind)
}

func TestClassifyDirective(t *testing.T) {
	lines, d := Classify([]byte("@bpm 150\n"))
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert.Equal(t, Directive, lines[0].Kind)
	assert.Equal(t, "bpm 150", lines[0].DirectiveText)
}

func TestClassifyStepSplitsLanesAndMeta(t *testing.T) {
	lines, d := Classify([]byte("S.......: kick\n"))
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert := assert.New(t)
	assert.Equal(Step, lines[0].Kind)
	assert.Equal("S.......", lines[0].Lanes)
	assert.Equal(": kick", lines[0].Meta)
}

func TestClassifyMalformedLaneFieldErrors(t *testing.T) {
	_, d := Classify([]byte("S....\n"))
	if d == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, "E1101", d.Code)
}

func TestInlineCommentStrippedOutsideBrackets(t *testing.T) {
	lines, d := Classify([]byte("S....... # this is a comment\n"))
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert.Equal(t, "S.......", lines[0].Lanes)
}

func TestHashInsideBracketsIsNotStripped(t *testing.T) {
	lines, d := Classify([]byte("S....... : [a#b,-,-,-,-,-,-,-]\n"))
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert.Equal(t, ": [a#b,-,-,-,-,-,-,-]", lines[0].Meta)
}

func TestStripsCarriageReturn(t *testing.T) {
	lines, d := Classify([]byte("@bpm 150\r\n"))
	if d != nil {
		t.Fatalf("unexpected error: %v", d)
	}
	assert.Equal(t, "bpm 150", lines[0].DirectiveText)
}
