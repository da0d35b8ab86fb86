package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_ParisExample(t *testing.T) {
	m := NewMatcher(Options{})
	answer := "Paris is the capital of France. It is known for the Eiffel Tower."
	obs := []string{"The document says so.\n\nSource: Paris is the capital and largest city of France."}

	hs := m.Match(answer, obs)
	require.Len(t, hs, 1)
	assert.Equal(t, "Paris is the capital of France.", hs[0].Text)
	assert.Equal(t, "Paris is the capital and largest city of France.", hs[0].Source)
	assert.GreaterOrEqual(t, hs[0].Score, 0.4)
	assert.False(t, hs[0].LowConfidence)
}

func TestMatch_ParisCitationLiteral(t *testing.T) {
	m := NewMatcher(Options{})
	answer := "Paris is the capital of France. It has 2M residents."
	obs := []string{"Source: Paris is the capital of France, in Europe."}

	hs := m.Match(answer, obs)
	require.Len(t, hs, 1)
	assert.Equal(t, "Paris is the capital of France.", hs[0].Text)
	assert.Equal(t, "Paris is the capital of France, in Europe.", hs[0].Source)
	assert.InDelta(t, 0.849, hs[0].Score, 0.01)
	assert.False(t, hs[0].LowConfidence)
}

func TestMatch_SkipsObservationsWithoutCitation(t *testing.T) {
	m := NewMatcher(Options{})
	hs := m.Match("Anything.", []string{"Customer | Total\nAcme | 12", "[]"})
	assert.Empty(t, hs)
}

func TestMatch_CitationBetweenMarkers(t *testing.T) {
	citation, content, ok := SplitCitation("x Source: first cite Source: last part")
	require.True(t, ok)
	assert.Equal(t, "first cite", citation)
	assert.Equal(t, "last part", content)
}

func TestMatch_LowConfidencePolicies(t *testing.T) {
	answer := "Revenue grew slightly."
	obs := []string{"Source: zzzz qqqq xxxx"}

	flagged := NewMatcher(Options{Policy: PolicyFlag}).Match(answer, obs)
	require.Len(t, flagged, 1)
	assert.True(t, flagged[0].LowConfidence)
	assert.Less(t, flagged[0].Score, 0.4)

	assert.Empty(t, NewMatcher(Options{Policy: PolicySuppress}).Match(answer, obs))

	passed := NewMatcher(Options{Policy: PolicyPass}).Match(answer, obs)
	require.Len(t, passed, 1)
	assert.False(t, passed[0].LowConfidence)
}

func TestBestSentence_FirstWinsTies(t *testing.T) {
	s, score := BestSentence("Same line. Same line.", "same line.")
	assert.Equal(t, "Same line.", s)
	assert.Equal(t, 1.0, score)
}

func TestRatio_CaseInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("PARIS", "paris"))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFlag, p)
	p, err = ParsePolicy("Suppress")
	require.NoError(t, err)
	assert.Equal(t, PolicySuppress, p)
	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}

func TestApplyHighlights(t *testing.T) {
	answer := "Paris is the capital of France. It is known for the Eiffel Tower."
	out := ApplyHighlights(answer, []Highlight{
		{Text: "Paris is the capital of France."},
		{Text: "Paris is the capital of France."},
		{Text: "zzzzzzzzzzzzzzzz"},
	}, 0.4)
	assert.Equal(t, "<mark>Paris is the capital of France.</mark> It is known for the Eiffel Tower.", out)
}
