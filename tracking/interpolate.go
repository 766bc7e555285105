package tracking

import (
	"math"
	"time"

	"github.com/paulmach/orb"

	"github.com/theoremus-urban-solutions/trajectory-tracker/shape"
)

// Position is where a trajectory sits at a given instant.
type Position struct {
	// Segment is the index of the interval that starts the bracketing pair.
	Segment    int
	TimeFrac   float64
	Fraction   float64
	Coordinate orb.Point
}

// Resolve locates t at now. It reports false when no pair of intervals
// brackets now, which means the trajectory has run out of data.
//
// Instants before the first sample are clamped to it. Pairs are scanned in
// order and the first bracketing pair wins. Without interpolation the
// vehicle snaps to the start fraction of its pair.
func Resolve(t *Trajectory, now time.Time, interpolate bool) (Position, bool) {
	if t == nil || t.Geometry == nil || len(t.Intervals) < 2 {
		return Position{}, false
	}
	local := now.Add(-t.TimeOffset)
	if first := t.Intervals[0].Time; local.Before(first) {
		local = first
	}

	for i := 0; i < len(t.Intervals)-1; i++ {
		start, end := t.Intervals[i], t.Intervals[i+1]
		if local.Before(start.Time) || local.After(end.Time) {
			continue
		}

		timeFrac := 1.0
		if span := end.Time.Sub(start.Time); span > 0 {
			timeFrac = math.Min(float64(local.Sub(start.Time))/float64(span), 1)
		}
		frac := start.Fraction
		if interpolate {
			frac = start.Fraction + timeFrac*(end.Fraction-start.Fraction)
		}
		frac = shape.Clamp01(frac)
		return Position{
			Segment:    i,
			TimeFrac:   timeFrac,
			Fraction:   frac,
			Coordinate: t.Geometry.CoordinateAt(frac),
		}, true
	}
	return Position{}, false
}
