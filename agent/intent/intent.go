// Package intent maps free-text utterances to the yes/no/unavailable/date/name
// signals the dialogue engine branches on. Matching is case-insensitive
// substring search over the whole utterance; there is no tokenisation and no
// negation handling beyond the keyword lists below.
package intent

import (
	"regexp"
	"strings"
)

var (
	affirmativeKeywords = []string{
		"yes",
		"yeah",
		"yep",
		"ok",
		"okay",
		"sure",
		"fine",
		"correct",
	}

	// "not" and "don't" also appear in unavailability phrasing, so an utterance
	// can be both negative and unavailable. Callers decide precedence.
	negativeKeywords = []string{
		"no",
		"nope",
		"not",
		"don't",
		"do not",
		"won't",
		"cannot",
		"can't",
	}

	unavailablePhrases = []string{
		"not available",
		"not free",
		"cannot receive",
		"can't receive",
		"won't be available",
		"none of these",
		"no dates work",
		"busy",
		"out of town",
		"not possible",
	}

	numberPattern = regexp.MustCompile(`\d{1,2}`)
)

func IsAffirmative(text string) bool {
	return containsAny(text, affirmativeKeywords)
}

func IsNegative(text string) bool {
	return containsAny(text, negativeKeywords)
}

// IsUnavailable reports whether the speaker said none of the offered dates work.
func IsUnavailable(text string) bool {
	return containsAny(text, unavailablePhrases)
}

// ExtractDate returns the first label of availableDates mentioned in text.
//
// A label that appears verbatim (case-insensitively) wins, in list order.
// Otherwise every 1-2 digit number in text is tried in order of appearance
// against the labels, again in list order, so "the 25" matches "25th".
// The returned label is always an element of availableDates.
func ExtractDate(text string, availableDates []string) (string, bool) {
	lower := strings.ToLower(text)

	for _, date := range availableDates {
		if date == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(date)) {
			return date, true
		}
	}

	for _, num := range numberPattern.FindAllString(lower, -1) {
		for _, date := range availableDates {
			if strings.Contains(date, num) {
				return date, true
			}
		}
	}

	return "", false
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
