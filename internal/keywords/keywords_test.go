package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFiltersToVocabulary(t *testing.T) {
	got := Extract("Meditation has been shown to improve heart health significantly")
	assert.Equal(t, Set{"meditation", "heart", "health"}, got)
}

func TestExtractKeepsScanOrderAndDuplicates(t *testing.T) {
	got := Extract("Vaccine efficacy: the VACCINE trial reported 95% efficacy.")
	assert.Equal(t, Set{"vaccine", "efficacy", "vaccine", "efficacy"}, got)
}

func TestExtractFallbackToFirstThreeTokens(t *testing.T) {
	got := Extract("Local bakery opens third location downtown this weekend")
	assert.Equal(t, Set{"local", "bakery", "opens"}, got)
}

func TestExtractFallbackFewerThanThree(t *testing.T) {
	got := Extract("Quick note: ok")
	assert.Equal(t, Set{"quick", "note"}, got)
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("   "))
	assert.Empty(t, Extract("a bc def"))
}

func TestTokensMinimumLength(t *testing.T) {
	assert.Equal(t, []string{"word", "longer_token", "1234"}, Tokens("a an the word longer_token 123 1234"))
}

func TestTokensDoNotSplitLongWords(t *testing.T) {
	// "hearts" is not "heart"; tokens are maximal runs.
	got := Extract("Hearts and minds")
	assert.Equal(t, Set{"hearts", "minds"}, got)
	assert.False(t, got.Contains("heart"))
}

func TestExtractIsIdempotentOnFilteredText(t *testing.T) {
	first := Extract("New study: cancer research funding and vaccine news coverage")
	second := Extract(first.Query())
	assert.Equal(t, first, second)
}

func TestSetQuery(t *testing.T) {
	assert.Equal(t, "approval trump", Set{"approval", "trump"}.Query())
	assert.Equal(t, "", Set(nil).Query())
}

func TestVocabularySize(t *testing.T) {
	assert.Len(t, Vocabulary, 21)
	for term := range Vocabulary {
		assert.GreaterOrEqual(t, len(term), 4, term)
	}
}
