package game

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tolerance is the share of the answer length a guess may be off by.
const Tolerance = 0.2

var (
	// "(Remastered 2011)", "[Live]" and the like
	bracketed  = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]`)
	whitespace = regexp.MustCompile(`\s+`)
	brackets   = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ")
)

// Match tells which sides of the answer a guess hit.
type Match struct {
	Artist bool
	Title  bool
}

// Any reports whether at least one side matched.
func (m Match) Any() bool {
	return m.Artist || m.Title
}

// Side names the matched sides: "artist", "title", "both" or "".
func (m Match) Side() string {
	switch {
	case m.Artist && m.Title:
		return "both"
	case m.Artist:
		return "artist"
	case m.Title:
		return "title"
	}
	return ""
}

// Evaluate compares a free-text guess to both answers independently.
func Evaluate(guess, artist, title string) Match {
	g := Normalize(guess)
	return Match{
		Artist: within(g, Normalize(artist)),
		Title:  within(g, Normalize(title)),
	}
}

// Normalize lower-cases s, removes bracketed suffixes and diacritics and
// collapses whitespace. A string that is bracketed throughout only loses the
// brackets.
func Normalize(s string) string {
	if stripped := bracketed.ReplaceAllString(s, ""); strings.TrimSpace(stripped) != "" {
		s = stripped
	} else {
		// the whole answer is bracketed: "(Untitled)"
		s = brackets.Replace(s)
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	// a Caser carries state and may not be shared between goroutines
	s = cases.Lower(language.Und).String(s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// within reports whether guess is within tolerance of answer. Both are
// expected to be normalized already.
func within(guess, answer string) bool {
	if answer == "" || guess == "" {
		return false
	}
	allowed := int(math.Round(Tolerance * float64(len([]rune(answer)))))
	return levenshtein.ComputeDistance(guess, answer) <= allowed
}
