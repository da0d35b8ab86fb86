package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/tool"
)

type stubTool struct{ name, desc string }

func (s stubTool) Name() string { return s.name }
func (s stubTool) Description() string { return s.desc }
func (s stubTool) Invoke(context.Context, tool.Input) string { return s.name + " result" }

func TestNew_SortedAndLookup(t *testing.T) {
	r, err := New(
		stubTool{name: "vector_search", desc: "documents"},
		stubTool{name: "graph_search", desc: "relationships"},
		stubTool{name: "sql_search", desc: "records"},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"graph_search", "sql_search", "vector_search"}, r.Names())

	got, ok := r.Get("sql_search")
	require.True(t, ok)
	assert.Equal(t, "sql_search result", got.Invoke(context.Background(), tool.TextInput("q")))

	_, ok = r.Get("web_search")
	assert.False(t, ok)
}

func TestNew_Duplicate(t *testing.T) {
	_, err := New(stubTool{name: "sql_search"}, stubTool{name: "sql_search"})
	var dup *DuplicateToolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "sql_search", dup.Name)
}

func TestNew_EmptyName(t *testing.T) {
	_, err := New(stubTool{name: ""})
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	r, err := New(stubTool{name: "b", desc: "second"}, stubTool{name: "a", desc: "first"})
	require.NoError(t, err)
	assert.Equal(t, "a: first\nb: second", r.Describe())
}

func TestNames_ReturnsCopy(t *testing.T) {
	r, err := New(stubTool{name: "a"})
	require.NoError(t, err)
	names := r.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, r.Names())
}
