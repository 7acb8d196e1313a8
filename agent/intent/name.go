package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinNameLength is the shortest utterance accepted as a name by RawNameStrategy.
const MinNameLength = 2

var personNamePattern = regexp.MustCompile(`(name is|security is|neighbor is|is)\s+([a-zA-Z]+)`)

// NameStrategy captures a person's name from an utterance. ok is false when
// the utterance does not carry a usable name.
type NameStrategy interface {
	CaptureName(text string) (name string, ok bool)
}

// RawNameStrategy treats the whole trimmed utterance as the name. This is the
// strategy the neighbor collection step uses.
type RawNameStrategy struct{}

func (RawNameStrategy) CaptureName(text string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if utf8.RuneCountInString(trimmed) < MinNameLength {
		return "", false
	}
	return TitleCase(trimmed), true
}

// PatternNameStrategy looks for "name is X", "security is X", "neighbor is X"
// or a bare "is X" and keeps only X.
type PatternNameStrategy struct{}

func (PatternNameStrategy) CaptureName(text string) (string, bool) {
	name := ExtractPersonName(text)
	return name, name != ""
}

// ExtractPersonName returns the title-cased word following the first
// "name is", "security is", "neighbor is" or "is" in text, or "" when none
// matches.
func ExtractPersonName(text string) string {
	m := personNamePattern.FindStringSubmatch(strings.ToLower(text))
	if len(m) < 3 {
		return ""
	}
	return TitleCase(m[2])
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
