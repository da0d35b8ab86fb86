package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitWords_ShortContent(t *testing.T) {
	chunks := SplitWords("short content", 0, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short content", chunks[0].Text)
	assert.Equal(t, 2, chunks[0].WordCount)
}

func TestSplitWords_Overlap(t *testing.T) {
	chunks := SplitWords("a b c d e f g", 3, 1)
	texts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"a b c", "c d e", "e f g"}, texts)
}

func TestSplitWords_NoOverlap(t *testing.T) {
	chunks := SplitWords(strings.Repeat("w ", 10), 4, 4)
	require.Len(t, chunks, 3)
	assert.Equal(t, 2, chunks[2].WordCount)
}

func TestSplitWords_Empty(t *testing.T) {
	assert.Empty(t, SplitWords("  \n\t ", 10, 2))
}
