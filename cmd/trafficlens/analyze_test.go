package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEstimators(t *testing.T) {
	for _, n := range []int{50, 100, 150, 200, 250, 300} {
		assert.True(t, validEstimators(n), "%d should be accepted", n)
	}
	for _, n := range []int{0, 1, 49, 123, 350} {
		assert.False(t, validEstimators(n), "%d should be rejected", n)
	}
}
