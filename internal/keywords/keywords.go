package keywords

import (
	"regexp"
	"strings"
)

// FallbackCount is the number of raw tokens used when no vocabulary term matches.
const FallbackCount = 3

// wordPattern matches maximal runs of four or more word characters.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{4,}`)

// Vocabulary is the fixed set of domain terms used to select explanation rules.
var Vocabulary = map[string]struct{}{
	"health": {}, "disease": {}, "vaccine": {}, "study": {}, "research": {},
	"medicine": {}, "cancer": {}, "heart": {}, "meditation": {}, "efficacy": {},
	"treatment": {}, "therapy": {}, "virus": {}, "approval": {}, "rating": {},
	"president": {}, "news": {}, "media": {}, "coverage": {}, "obama": {}, "trump": {},
}

// Set is an ordered list of lowercase keywords extracted from a text.
// Duplicates are kept in scan order.
type Set []string

// Contains reports whether kw is in the set.
func (s Set) Contains(kw string) bool {
	for _, k := range s {
		if k == kw {
			return true
		}
	}
	return false
}

// Query joins the keywords into a single space-separated search query.
func (s Set) Query() string {
	return strings.Join(s, " ")
}

// Tokens returns all lowercase tokens of four or more word characters in scan order.
func Tokens(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// Extract returns the vocabulary terms found in text. When none are present,
// the first FallbackCount raw tokens are returned instead.
func Extract(text string) Set {
	tokens := Tokens(text)

	var matched Set
	for _, tok := range tokens {
		if _, ok := Vocabulary[tok]; ok {
			matched = append(matched, tok)
		}
	}
	if len(matched) > 0 {
		return matched
	}

	if len(tokens) > FallbackCount {
		tokens = tokens[:FallbackCount]
	}
	return Set(tokens)
}
