package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"compass/internal/agent/react"
	"compass/internal/tool"
)

func traceWith(tools ...string) *react.Trace {
	tr := &react.Trace{}
	for _, name := range tools {
		tr.Steps = append(tr.Steps, react.Step{Action: react.Action{Tool: name}, Observation: "obs"})
	}
	return tr
}

func TestExtract_Structured(t *testing.T) {
	tr := traceWith(tool.SQLSearch, tool.GraphSearch, tool.SQLSearch)

	res := Extract(tr, tool.VectorSearch, "", Options{})
	assert.Equal(t, TierStructured, res.Tier)
	assert.Equal(t, Histogram{tool.SQLSearch: 2, tool.GraphSearch: 1}, res.Counts)

	res = Extract(tr, "", "", Options{FirstOnly: true})
	assert.Equal(t, Histogram{tool.SQLSearch: 1}, res.Counts)
}

func TestExtract_RoutingHint(t *testing.T) {
	res := Extract(traceWith(), tool.VectorSearch, "some answer", Options{})
	assert.Equal(t, TierRouting, res.Tier)
	assert.Equal(t, Histogram{tool.VectorSearch: 1}, res.Counts)

	res = Extract(nil, "neo4j", "", Options{})
	assert.Equal(t, Histogram{tool.GraphSearch: 1}, res.Counts)
}

func TestExtract_Textual(t *testing.T) {
	res := Extract(traceWith(), "", "Thought: hmm\nAction:  graph_search\nAction Input: x", Options{})
	assert.Equal(t, TierTextual, res.Tier)
	assert.Equal(t, Histogram{tool.GraphSearch: 1}, res.Counts)
}

func TestExtract_Empty(t *testing.T) {
	res := Extract(traceWith(), "", "Paris.", Options{})
	assert.Equal(t, TierNone, res.Tier)
	assert.Empty(t, res.Counts)
	assert.Equal(t, "none", res.Tier.String())
}
