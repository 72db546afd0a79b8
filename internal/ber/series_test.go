package ber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesKeepsLastCapacitySamplesInOrder(t *testing.T) {
	t.Parallel()

	var s Series
	n := Capacity + 57
	for i := 0; i < n; i++ {
		s.Append(float64(i))
	}

	require.Equal(t, Capacity, s.Len(), "series must not grow past capacity")

	values := s.Values()
	require.Len(t, values, Capacity)
	for i, v := range values {
		assert.Equal(t, float64(n-Capacity+i), v, "sample %d out of order after eviction", i)
	}
}

func TestSeriesShorterThanCapacity(t *testing.T) {
	t.Parallel()

	var s Series
	for i := 0; i < 5; i++ {
		s.Append(float64(i) / 2)
	}

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, s.Values())
	assert.Equal(t, 0, s.WindowOrigin(), "window stays anchored until the series fills")

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 2.0, last)
}

func TestSeriesUpperBound(t *testing.T) {
	t.Parallel()

	var s Series
	assert.Equal(t, 10.0, s.UpperBound(), "empty series keeps the floor bound")

	s.Append(1.5)
	assert.Equal(t, 10.0, s.UpperBound(), "small samples stay under the floor bound")

	s.Append(42.0)
	assert.InDelta(t, 46.2, s.UpperBound(), 1e-9, "bound tracks 1.1x the worst sample")
}

func TestSeriesWindowOriginSlides(t *testing.T) {
	t.Parallel()

	var s Series
	for i := 0; i < Capacity+10; i++ {
		s.Append(0.1)
	}
	assert.Equal(t, 10, s.WindowOrigin())
}

func TestSeriesRejectsNegativeSamples(t *testing.T) {
	t.Parallel()

	var s Series
	s.Append(-0.5)
	assert.Equal(t, 0, s.Len())

	_, ok := s.Last()
	assert.False(t, ok)
}

func TestSeriesReset(t *testing.T) {
	t.Parallel()

	var s Series
	for i := 0; i < Capacity+3; i++ {
		s.Append(1.0)
	}
	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.WindowOrigin())
	assert.Equal(t, 10.0, s.UpperBound())
}
