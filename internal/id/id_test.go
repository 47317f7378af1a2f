package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := New()
		assert.Len(t, got, 8)
		for _, ch := range got {
			assert.True(t, strings.ContainsRune(alphabet, ch),
				"ID character %q outside alphabet", ch)
		}
	}
}

func TestNew_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		got := New()
		assert.False(t, seen[got], "duplicate ID %s after %d draws", got, i)
		seen[got] = true
	}
}
