package graph

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	rec := map[string]any{
		"p":     neo4j.Node{Labels: []string{"Person"}, Props: map[string]any{"name": "Bob Johnson"}},
		"r":     neo4j.Relationship{Type: "WORKS_ON", Props: map[string]any{"since": int64(2021)}},
		"names": []any{"a", neo4j.Node{Labels: []string{"Project"}, Props: map[string]any{"name": "Atlas"}}},
		"n":     int64(3),
	}
	out := normalize(rec)
	assert.Equal(t, map[string]any{"_labels": []string{"Person"}, "name": "Bob Johnson"}, out["p"])
	assert.Equal(t, map[string]any{"_type": "WORKS_ON", "since": int64(2021)}, out["r"])
	assert.Equal(t, []any{"a", map[string]any{"_labels": []string{"Project"}, "name": "Atlas"}}, out["names"])
	assert.Equal(t, int64(3), out["n"])
}
