package chunker

import (
	"errors"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := map[string]int{
		"":                    0,
		" ":                   1,
		"one":                 1,
		"three little words":  3,
		"a b c d e f g h i j": 13,
	}
	for text, want := range cases {
		if got := EstimateTokens(text); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestEstimateTokenizer_InvalidUTF8(t *testing.T) {
	_, err := EstimateTokenizer{}.Encode("ok \xc3\x28")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestBoundarySets(t *testing.T) {
	for _, r := range ".!?。！？‼⁇⁈⁉" {
		if !isSentenceEnding(r) {
			t.Errorf("expected %q to be a sentence ending", r)
		}
	}
	for _, r := range " ,;:\t\n、，「」—“”" {
		if !isWordBreak(r) {
			t.Errorf("expected %q to be a word break", r)
		}
	}
	if isSentenceEnding('a') || isWordBreak('a') || isWordBreak('.') {
		t.Error("unexpected boundary classification")
	}
}
