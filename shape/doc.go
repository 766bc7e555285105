// Package shape provides path geometries that answer "coordinate at fraction"
// queries.
//
// A fraction of 0 is the start of the path and 1 its end. Fractions outside
// [0,1] are clamped rather than rejected. Distances along a Polyline are
// measured in the plane of its coordinates by default (projected map units)
// or on the sphere for lon/lat paths built with NewGeodesic.
package shape
