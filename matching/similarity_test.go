package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("  Blue\tWATER  bottle\nblue, ")
	assert.Len(t, got, 4)
	for _, w := range []string{"blue", "water", "bottle", "blue,"} {
		assert.True(t, got.Has(w), w)
	}
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize(" \t\n "))
}

func TestScore(t *testing.T) {
	testCases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "red bottle", "red bottle", 1},
		{"case and spacing", "Red   BOTTLE", "red bottle", 1},
		{"disjoint", "red bottle", "green pen", 0},
		{"half", "red bottle", "red pen", 1.0 / 3.0},
		{"duplicates collapse", "red red red", "red", 1},
		{"empty left", "", "red bottle", 0},
		{"empty right", "red bottle", "", 0},
		{"whitespace only", "   ", "red", 0},
		{"punctuation kept", "blue,", "blue", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Score(tc.a, tc.b), 1e-12)
		})
	}
}

func TestScoreProperties(t *testing.T) {
	texts := []string{
		"blue water bottle",
		"Water Bottle blue, dented",
		"black leather wallet with student id",
		"wallet",
		"keys on a red lanyard near the library",
		"a",
		"",
	}
	for _, a := range texts {
		for _, b := range texts {
			s := Score(a, b)
			assert.Equal(t, s, Score(b, a), "symmetry %q %q", a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
		if a != "" {
			assert.Equal(t, 1.0, Score(a, a), "identity %q", a)
		}
		assert.Zero(t, Score("", a))
		assert.Zero(t, Score(a, ""))
	}
}
