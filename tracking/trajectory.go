package tracking

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"

	"github.com/theoremus-urban-solutions/trajectory-tracker/shape"
)

// ErrInvalidTrajectory is returned when a trajectory cannot be tracked.
var ErrInvalidTrajectory = errors.New("invalid trajectory")

// Interval is one sample of a trajectory: at Time the vehicle is at Fraction
// of its geometry.
type Interval struct {
	Time     time.Time
	Fraction float64
}

// Trajectory is a vehicle moving along Geometry according to Intervals.
type Trajectory struct {
	ID         string
	Intervals  []Interval
	TimeOffset time.Duration
	Geometry   shape.Geometry

	// Style attributes, opaque to interpolation.
	Type      int
	Name      string
	Color     string
	TextColor string
	Delay     float64

	// Source tags the ingestion that produced the trajectory.
	Source string

	coord atomic.Pointer[orb.Point]
}

// Coordinate returns the position computed by the last completed redraw.
func (t *Trajectory) Coordinate() (orb.Point, bool) {
	p := t.coord.Load()
	if p == nil {
		return orb.Point{}, false
	}
	return *p, true
}

func (t *Trajectory) setCoordinate(p orb.Point) {
	t.coord.Store(&p)
}

// Validate checks that the trajectory can be interpolated.
func (t *Trajectory) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil trajectory", ErrInvalidTrajectory)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTrajectory)
	}
	if t.Geometry == nil {
		return fmt.Errorf("%w: %s has no geometry", ErrInvalidTrajectory, t.ID)
	}
	if len(t.Intervals) < 2 {
		return fmt.Errorf("%w: %s has %d intervals, need at least 2", ErrInvalidTrajectory, t.ID, len(t.Intervals))
	}
	for i, iv := range t.Intervals {
		if math.IsNaN(iv.Fraction) || iv.Fraction < 0 || iv.Fraction > 1 {
			return fmt.Errorf("%w: %s interval %d fraction %v outside [0,1]", ErrInvalidTrajectory, t.ID, i, iv.Fraction)
		}
		if i > 0 && iv.Time.Before(t.Intervals[i-1].Time) {
			return fmt.Errorf("%w: %s interval %d goes back in time", ErrInvalidTrajectory, t.ID, i)
		}
	}
	return nil
}

// Start returns the time of the first sample.
func (t *Trajectory) Start() time.Time {
	if len(t.Intervals) == 0 {
		return time.Time{}
	}
	return t.Intervals[0].Time
}

// End returns the time of the last sample.
func (t *Trajectory) End() time.Time {
	if len(t.Intervals) == 0 {
		return time.Time{}
	}
	return t.Intervals[len(t.Intervals)-1].Time
}
