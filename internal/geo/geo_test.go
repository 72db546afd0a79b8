package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeRequiresBothPoints(t *testing.T) {
	t.Parallel()

	p := &Point{Lat: 35.9, Lon: -95.77, AltM: 300}

	_, ok := Relative(nil, p)
	assert.False(t, ok)
	_, ok = Relative(p, nil)
	assert.False(t, ok)
	_, ok = Relative(nil, nil)
	assert.False(t, ok)
}

func TestRelativeStationDueNorth(t *testing.T) {
	t.Parallel()

	station := &Point{Lat: 35.90, Lon: -95.77, AltM: 300}
	operator := &Point{Lat: 35.88, Lon: -95.77, AltM: 300}

	o, ok := Relative(station, operator)
	require.True(t, ok)

	assert.Equal(t, 0.0, o.VerticalM, "equal altitudes give zero vertical offset")
	assert.InDelta(t, 0.0, o.BearingDeg, 1e-9, "station straight north means bearing 0")
	assert.Equal(t, "North", o.Cardinal)
	assert.InDelta(t, 2224, o.HorizontalM, 5, "0.02 degrees of latitude is roughly 2.2 km")
	assert.InDelta(t, 0.0, o.EastM, 1e-6)
	assert.Greater(t, o.NorthM, 0.0)
}

func TestRelativeSamePoint(t *testing.T) {
	t.Parallel()

	p := Point{Lat: 40.0, Lon: -74.0, AltM: 10}
	o, ok := Relative(&p, &p)
	require.True(t, ok)

	assert.Equal(t, 0.0, o.HorizontalM)
	assert.Equal(t, 0.0, o.BearingDeg)
	assert.Equal(t, "Here", o.Cardinal)
	assert.Equal(t, "0 (here)", o.FormatHorizontal(Metric))
	assert.Equal(t, "0", o.FormatVertical(Metric))
}

func TestRelativeVerticalSign(t *testing.T) {
	t.Parallel()

	station := &Point{Lat: 35.90, Lon: -95.77, AltM: 250}
	operator := &Point{Lat: 35.88, Lon: -95.70, AltM: 300}

	o, ok := Relative(station, operator)
	require.True(t, ok)
	assert.Equal(t, -50.0, o.VerticalM, "station below operator is negative")
	assert.Contains(t, o.FormatVertical(Metric), "below")
}

func TestCardinalFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		bearing float64
		want    string
	}{
		{0, "North"},
		{22.4, "North"},
		{22.5, "Northeast"},
		{45, "Northeast"},
		{90, "East"},
		{135, "Southeast"},
		{180, "South"},
		{225, "Southwest"},
		{270, "West"},
		{315, "Northwest"},
		{337.5, "North"},
		{359.9, "North"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CardinalFor(tc.bearing), "bearing %.1f", tc.bearing)
	}
}

func TestFormatHorizontalUnits(t *testing.T) {
	t.Parallel()

	o := Offset{HorizontalM: metersPerMile, BearingDeg: 90, Cardinal: "East"}
	assert.Equal(t, "1.61 km East (90°)", o.FormatHorizontal(Metric))
	assert.Equal(t, "1.00 mi East (90°)", o.FormatHorizontal(Imperial))
}

func TestFormatVerticalUnits(t *testing.T) {
	t.Parallel()

	o := Offset{VerticalM: 100}
	assert.Equal(t, "100.0 m above", o.FormatVertical(Metric))
	assert.Equal(t, "328.1 ft above", o.FormatVertical(Imperial))
}
