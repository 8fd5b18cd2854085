package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDGenerator_Numbers(t *testing.T) {
	gen := NewSequentialIDGenerator("s")

	assert.Equal(t, "s-0001", gen.Generate())
	assert.Equal(t, "s-0002", gen.Generate())
	assert.Equal(t, "s-0003", gen.Generate())
}

func TestSequentialIDGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequentialIDGenerator("")

	// Empty prefix uses default
	assert.Equal(t, "settlement-0001", gen.Generate())
}

func TestSequentialIDGenerator_IndependentInstances(t *testing.T) {
	a := NewSequentialIDGenerator("a")
	b := NewSequentialIDGenerator("b")

	a.Generate()
	a.Generate()
	assert.Equal(t, "b-0001", b.Generate())
	assert.Equal(t, "a-0003", a.Generate())
}
