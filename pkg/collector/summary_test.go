package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	s := NewSummary(depthQuantiles)

	for i := 1; i <= 100; i++ {
		s.Insert(float64(i))
	}

	assert.Equal(t, uint64(100), s.Count())
	assert.Equal(t, float64(5050), s.Sum())

	q := s.Quantiles()
	assert.Len(t, q, len(depthQuantiles))
	assert.InDelta(t, 50, q[0.50], 2)
	assert.Equal(t, float64(100), q[1.00])
}

func TestSummary_Empty(t *testing.T) {
	s := NewSummary(depthQuantiles)

	assert.Zero(t, s.Count())
	assert.Zero(t, s.Sum())

	for _, v := range s.Quantiles() {
		assert.Zero(t, v)
	}
}
