package tracking

import "github.com/paulmach/orb"

// QueryAtCoordinate returns the visually topmost object whose last painted
// coordinate lies within tolerance of coord, or nil.
//
// Objects that have not been painted yet cannot be hit.
func (t *Tracker) QueryAtCoordinate(coord orb.Point, tolerance float64) *Trajectory {
	objects := t.Objects()
	bound := coord.Bound().Pad(tolerance)
	for i := len(objects) - 1; i >= 0; i-- {
		c, ok := objects[i].Coordinate()
		if ok && bound.Contains(c) {
			return objects[i]
		}
	}
	return nil
}
