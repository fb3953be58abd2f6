package phrase

import (
	"regexp"
	"strings"
)

const (
	// MinWords and MaxWords bound the phrase shapes the evaluators accept.
	MinWords = 2
	MaxWords = 4
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// Profile captures the normalization output for a candidate phrase.
type Profile struct {
	Original   string
	Normalized string
	Words      []string
}

// Normalize lower-cases, trims, and collapses internal whitespace in the
// supplied phrase, then tokenizes it into words.
func Normalize(input string) Profile {
	lower := strings.ToLower(strings.TrimSpace(input))
	lower = innerWhitespace.ReplaceAllString(lower, " ")

	var words []string
	if lower != "" {
		words = strings.Split(lower, " ")
	}

	return Profile{
		Original:   input,
		Normalized: lower,
		Words:      words,
	}
}

// WordCount returns the number of words in the normalized phrase.
func (p Profile) WordCount() int {
	return len(p.Words)
}

// Valid reports whether the phrase falls inside the accepted word-count range.
func (p Profile) Valid() bool {
	n := p.WordCount()
	return n >= MinWords && n <= MaxWords
}

// HeadWord returns the final, semantically dominant word of the phrase.
func (p Profile) HeadWord() string {
	if len(p.Words) == 0 {
		return ""
	}
	return p.Words[len(p.Words)-1]
}
