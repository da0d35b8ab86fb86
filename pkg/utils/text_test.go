package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "   ", nil},
		{"single", "Paris is the capital.", []string{"Paris is the capital."}},
		{"mixed terminators", "It rose. Did it fall?  Yes!  Done", []string{"It rose.", "Did it fall?", "Yes!", "Done"}},
		{"no space after period", "Version 1.5 shipped.Next", []string{"Version 1.5 shipped.Next"}},
		{"newline is not a boundary", "Line one.\nLine two.", []string{"Line one.\nLine two."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

func TestFirstSentenceLongerThan(t *testing.T) {
	s, ok := FirstSentenceLongerThan("Short one. This sentence has more than five words in it. Tail.", 5)
	assert.True(t, ok)
	assert.Equal(t, "This sentence has more than five words in it.", s)

	_, ok = FirstSentenceLongerThan("Too short. Also short.", 5)
	assert.False(t, ok)
}
