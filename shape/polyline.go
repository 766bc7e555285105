package shape

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Geometry is a curve that can be sampled by fraction of its length.
type Geometry interface {
	CoordinateAt(frac float64) orb.Point
}

// DistanceFunc measures the distance between two consecutive vertices.
type DistanceFunc func(a, b orb.Point) float64

// Polyline is an ordered list of points with precomputed cumulative lengths.
type Polyline struct {
	points orb.LineString
	cum    []float64
}

// New builds a polyline measured in the plane of its coordinates.
func New(ls orb.LineString) *Polyline {
	return NewWithDistance(ls, planar.Distance)
}

// NewGeodesic builds a polyline over lon/lat points measured in meters.
func NewGeodesic(ls orb.LineString) *Polyline {
	return NewWithDistance(ls, geo.Distance)
}

// NewWithDistance builds a polyline using dist between vertices.
func NewWithDistance(ls orb.LineString, dist DistanceFunc) *Polyline {
	pts := append(orb.LineString(nil), ls...)
	return &Polyline{points: pts, cum: cumulative(pts, dist)}
}

// Segment is a straight path between two points.
func Segment(a, b orb.Point) *Polyline {
	return New(orb.LineString{a, b})
}

func cumulative(pts orb.LineString, dist DistanceFunc) []float64 {
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + dist(pts[i-1], pts[i])
	}
	return cum
}

// Length returns the total length of the path.
func (p *Polyline) Length() float64 {
	if len(p.cum) == 0 {
		return 0
	}
	return p.cum[len(p.cum)-1]
}

// CoordinateAt returns the point at frac of the total length.
func (p *Polyline) CoordinateAt(frac float64) orb.Point {
	if len(p.points) == 0 {
		return orb.Point{}
	}
	frac = Clamp01(frac)
	total := p.Length()
	if total == 0 || frac == 0 {
		return p.points[0]
	}
	last := len(p.points) - 1
	if frac == 1 {
		return p.points[last]
	}
	target := frac * total

	// Find segment containing target
	seg := last - 1
	for i := 1; i <= last; i++ {
		if p.cum[i] >= target {
			seg = i - 1
			break
		}
	}

	prev, next := p.cum[seg], p.cum[seg+1]
	t := 0.0
	if next > prev {
		t = (target - prev) / (next - prev)
	}
	a, b := p.points[seg], p.points[seg+1]
	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
}

// Clamp01 clamps f to [0,1]; NaN becomes 0.
func Clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
