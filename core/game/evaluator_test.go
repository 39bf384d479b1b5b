package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		artist string
		title  string
		want   Match
	}{
		{"typo on artist", "Radiohed", "Radiohead", "Creep", Match{Artist: true}},
		{"truncated title", "Cree", "Radiohead", "Creep", Match{Title: true}},
		{"exact title any case", "CREEP", "Radiohead", "Creep", Match{Title: true}},
		{"bracketed suffix ignored", "creep", "Radiohead", "Creep (Remastered 2009)", Match{Title: true}},
		{"diacritics ignored", "beyonce", "Beyoncé", "Halo", Match{Artist: true}},
		{"too far", "Crap", "Radiohead", "Creep", Match{}},
		{"same string both sides", "Weezer", "Weezer", "Weezer", Match{Artist: true, Title: true}},
		{"empty answer never matches", "", "", "", Match{}},
		{"empty guess", "  ", "U2", "One", Match{}},
		{"fully bracketed title", "untitled", "Sigur Rós", "(Untitled)", Match{Title: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.guess, tt.artist, tt.title))
		})
	}
}

func TestEvaluate_ToleranceIsRounded(t *testing.T) {
	// 5 runes: one edit allowed, two are not
	assert.True(t, Evaluate("abcdx", "", "abcde").Title)
	assert.False(t, Evaluate("abcxy", "", "abcde").Title)
	// 2 runes: round(0.4) = 0, exact only
	assert.True(t, Evaluate("u2", "U2", "").Artist)
	assert.False(t, Evaluate("u3", "U2", "").Artist)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "creep", Normalize("  Creep (Acoustic) "))
	assert.Equal(t, "sigur ros", Normalize("Sigur   Rós"))
	assert.Equal(t, "song 2", Normalize("Song 2 [2012 Remaster]"))
	assert.Equal(t, "intro", Normalize("(Intro)"))
	assert.Equal(t, "untitled", Normalize(" [Untitled] "))
	assert.Equal(t, "", Normalize("   "))
}

func TestMatch_Side(t *testing.T) {
	assert.Equal(t, "both", Match{Artist: true, Title: true}.Side())
	assert.Equal(t, "artist", Match{Artist: true}.Side())
	assert.Equal(t, "title", Match{Title: true}.Side())
	assert.Equal(t, "", Match{}.Side())
}
