package react

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Action(t *testing.T) {
	res := Parse("Thought: I need the order table.\nAction: sql_search\nAction Input: How many orders shipped in May?")
	a, ok := res.(Action)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "I need the order table.", a.Thought)
	assert.Equal(t, "sql_search", a.Tool)
	assert.Equal(t, "How many orders shipped in May?", a.Input.Text)
	assert.Nil(t, a.Input.Payload)
}

func TestParse_ActionPayload(t *testing.T) {
	res := Parse("Thought: read the file\nAction: `vector_search`\nAction Input: {\"query\": \"risks?\", \"filename\": \"finance.pdf\"}\nObservation: made up")
	a, ok := res.(Action)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "vector_search", a.Tool)
	require.NotNil(t, a.Input.Payload)
	assert.Equal(t, "finance.pdf", a.Input.Payload.Filename)
	assert.Equal(t, "risks?", a.Input.Payload.Query)
}

func TestParse_QuotedInput(t *testing.T) {
	a, ok := Parse("Action: graph_search\nAction Input: \"MATCH (n) RETURN n\"").(Action)
	require.True(t, ok)
	assert.Equal(t, "MATCH (n) RETURN n", a.Input.Text)
}

func TestParse_Final(t *testing.T) {
	res := Parse("Thought: I now know the final answer\nFinal Answer: Paris is the capital of France.")
	f, ok := res.(Final)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "I now know the final answer", f.Thought)
	assert.Equal(t, "Paris is the capital of France.", f.Answer)
}

func TestParse_FinalBeforeAction(t *testing.T) {
	res := Parse("Final Answer: 42\nAction: sql_search\nAction Input: x")
	f, ok := res.(Final)
	require.True(t, ok, "got %T", res)
	assert.Contains(t, f.Answer, "42")
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"":                            "empty response",
		"   ":                         "empty response",
		"I think the answer is blue.": "missing 'Action:' or 'Final Answer:'",
		"Action: sql_search":          "missing 'Action Input:' after 'Action:'",
		"Action: \nAction Input: foo": "missing tool name after 'Action:'",
	}
	for raw, want := range cases {
		pe, ok := Parse(raw).(ParseError)
		require.True(t, ok, "raw=%q", raw)
		assert.Equal(t, want, pe.Err, "raw=%q", raw)
		assert.Equal(t, raw, pe.RawText())
	}
}
