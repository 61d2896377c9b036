package generator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpace_Sequence(t *testing.T) {
	s, err := newSpace([]int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(6), s.total)
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}, s.sequence(-1))
	assert.Len(t, s.sequence(4), 4)
	assert.Len(t, s.sequence(0), 6)
}

func TestSpace_SampleIsAPermutation(t *testing.T) {
	s, err := newSpace([]int{3, 4, 2})
	require.NoError(t, err)

	tuples := s.sample(-1, newRand(5, sampleStream))
	require.Len(t, tuples, 24)
	seen := make(map[[3]int]bool)
	for _, tup := range tuples {
		key := [3]int{tup[0], tup[1], tup[2]}
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestSpace_Overflow(t *testing.T) {
	big := math.MaxInt32
	s, err := newSpace([]int{big, big, big})
	require.Error(t, err)
	assert.Equal(t, "too many", s.String())

	tuples := s.sample(10, newRand(1, sampleStream))
	assert.Len(t, tuples, 10)
	assert.Len(t, s.sequence(3), 3)
}
