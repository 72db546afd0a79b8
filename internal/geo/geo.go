// Package geo computes where the tuned station sits relative to the
// operator. The math is a flat-earth approximation at the mean latitude,
// which is plenty for terrestrial broadcast ranges; it is not meant for
// long-haul great-circle work.
package geo

import (
	"fmt"
	"math"
)

// earthRadiusM is the mean Earth radius used for the planar projection.
const earthRadiusM = 6371000.0

const (
	metersPerMile = 1609.344
	feetPerMeter  = 3.28084
)

// Units selects the measurement system for formatted output. The
// underlying computation is always meters and degrees.
type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

// Point is a geodetic coordinate. Altitude is meters above sea level.
type Point struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	AltM float64 `json:"alt_m"`
}

// Offset describes the station's position relative to the operator.
// Bearing is degrees from true north, clockwise, in [0,360).
type Offset struct {
	EastM       float64 `json:"east_m"`
	NorthM      float64 `json:"north_m"`
	HorizontalM float64 `json:"horizontal_m"`
	BearingDeg  float64 `json:"bearing_deg"`
	Cardinal    string  `json:"cardinal"`
	VerticalM   float64 `json:"vertical_m"`
}

var cardinals = [8]string{
	"North", "Northeast", "East", "Southeast",
	"South", "Southwest", "West", "Northwest",
}

// Relative computes the offset from the operator to the station. ok is
// false when either point is missing; there is no partial result.
func Relative(station, operator *Point) (Offset, bool) {
	if station == nil || operator == nil {
		return Offset{}, false
	}

	lat1 := station.Lat * math.Pi / 180
	lon1 := station.Lon * math.Pi / 180
	lat2 := operator.Lat * math.Pi / 180
	lon2 := operator.Lon * math.Pi / 180

	dlat := lat1 - lat2
	dlon := lon1 - lon2
	latMean := 0.5 * (lat1 + lat2)

	o := Offset{
		EastM:     earthRadiusM * math.Cos(latMean) * dlon,
		NorthM:    earthRadiusM * dlat,
		VerticalM: station.AltM - operator.AltM,
	}
	o.HorizontalM = math.Hypot(o.EastM, o.NorthM)

	if o.HorizontalM == 0 {
		o.BearingDeg = 0
		o.Cardinal = "Here"
		return o, true
	}

	// Bearing from true north, clockwise: atan2(east, north).
	deg := math.Atan2(o.EastM, o.NorthM) * 180 / math.Pi
	o.BearingDeg = math.Mod(deg+360, 360)
	o.Cardinal = CardinalFor(o.BearingDeg)
	return o, true
}

// CardinalFor maps a bearing in degrees to one of eight compass labels.
func CardinalFor(bearingDeg float64) string {
	return cardinals[int((bearingDeg+22.5)/45)%8]
}

// FormatHorizontal renders the horizontal offset for display, e.g.
// "12.41 km Northwest (310°)". A zero offset renders as "0 (here)".
func (o Offset) FormatHorizontal(u Units) string {
	if o.HorizontalM == 0 {
		return "0 (here)"
	}
	dist := o.HorizontalM / 1000.0
	unit := "km"
	if u == Imperial {
		dist = o.HorizontalM / metersPerMile
		unit = "mi"
	}
	return fmt.Sprintf("%.2f %s %s (%.0f°)", dist, unit, o.Cardinal, o.BearingDeg)
}

// FormatVertical renders the vertical offset for display, e.g.
// "84.0 m above". A zero offset renders as "0".
func (o Offset) FormatVertical(u Units) string {
	if o.VerticalM == 0 {
		return "0"
	}
	direction := "above"
	if o.VerticalM < 0 {
		direction = "below"
	}
	dist := math.Abs(o.VerticalM)
	unit := "m"
	if u == Imperial {
		dist *= feetPerMeter
		unit = "ft"
	}
	return fmt.Sprintf("%.1f %s %s", dist, unit, direction)
}
