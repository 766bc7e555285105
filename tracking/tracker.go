package tracking

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
)

// Projector maps coordinates to pixels on the target surface.
type Projector interface {
	PixelFromCoordinate(coord orb.Point) (orb.Point, error)
	Resolution() float64
	Zoom() float64
}

// Canvas is the surface a redraw paints on.
type Canvas interface {
	Clear()
	DrawImage(img image.Image, x, y int)
}

// StyleFunc returns the image for a vehicle and the pixel within that image
// which is placed on the vehicle's position. A nil image draws nothing.
type StyleFunc func(t *Trajectory, zoom, resolution float64) (image.Image, image.Point, error)

// RenderStats summarizes one redraw pass.
type RenderStats struct {
	Drawn   int
	Expired int
	Failed  int
	Hidden  int
}

// Tracker owns the ordered set of tracked trajectories.
//
// The list is in paint order: index 0 is painted first and therefore ends up
// beneath everything painted after it.
type Tracker struct {
	mu          sync.Mutex
	objects     []*Trajectory
	interpolate bool
	projector   Projector
	style       StyleFunc
	filter      func(*Trajectory) bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterpolation enables or disables interpolation between samples.
func WithInterpolation(enabled bool) Option {
	return func(t *Tracker) { t.interpolate = enabled }
}

// WithStyle sets the style used to draw each vehicle.
func WithStyle(fn StyleFunc) Option {
	return func(t *Tracker) { t.style = fn }
}

// NewTracker creates an empty tracker drawing through projector.
func NewTracker(projector Projector, opts ...Option) *Tracker {
	t := &Tracker{
		projector:   projector,
		interpolate: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetStyle replaces the style function.
func (t *Tracker) SetStyle(fn StyleFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.style = fn
}

// SetFilter hides objects for which fn returns false. Hidden objects stay
// tracked but are neither drawn nor hittable. A nil fn shows everything.
func (t *Tracker) SetFilter(fn func(*Trajectory) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = fn
}

// Interpolate reports whether positions are interpolated between samples.
func (t *Tracker) Interpolate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interpolate
}

// SetInterpolate toggles interpolation.
func (t *Tracker) SetInterpolate(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interpolate = enabled
}

// Add validates obj and inserts it at the front of the list when addOnTop is
// set, at the back otherwise. An object already tracked under the same id is
// moved rather than duplicated.
func (t *Tracker) Add(obj *Trajectory, addOnTop bool) error {
	if err := obj.Validate(); err != nil {
		internal.Logf("[tracker] rejected trajectory: %v", err)
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexOf(obj.ID); i >= 0 {
		t.objects = append(t.objects[:i], t.objects[i+1:]...)
	}
	if addOnTop {
		t.objects = append([]*Trajectory{obj}, t.objects...)
	} else {
		t.objects = append(t.objects, obj)
	}
	return nil
}

// Upsert replaces the object with the same id in place, keeping its paint
// position and last coordinate, or appends obj when the id is new.
func (t *Tracker) Upsert(obj *Trajectory) error {
	if err := obj.Validate(); err != nil {
		internal.Logf("[tracker] rejected trajectory: %v", err)
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexOf(obj.ID); i >= 0 {
		if prev := t.objects[i]; prev != obj {
			if c := prev.coord.Load(); c != nil && obj.coord.Load() == nil {
				obj.setCoordinate(*c)
			}
		}
		t.objects[i] = obj
		return nil
	}
	t.objects = append(t.objects, obj)
	return nil
}

// Remove drops the first object with id. It reports whether one was found.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(id)
	if i < 0 {
		return false
	}
	t.objects = append(t.objects[:i], t.objects[i+1:]...)
	return true
}

// RemoveWhere drops every object matching pred and returns how many were
// removed.
func (t *Tracker) RemoveWhere(pred func(*Trajectory) bool) int {
	t.mu.Lock()
	kept := t.objects[:0]
	var removed []*Trajectory
	for _, obj := range t.objects {
		if pred(obj) {
			removed = append(removed, obj)
			continue
		}
		kept = append(kept, obj)
	}
	for i := len(kept); i < len(t.objects); i++ {
		t.objects[i] = nil
	}
	t.objects = kept
	t.mu.Unlock()

	for _, obj := range removed {
		internal.Logf("[tracker] removed trajectory %s", obj.ID)
	}
	return len(removed)
}

// Set replaces the tracked set with list. Invalid entries are skipped and
// reported in the returned error.
func (t *Tracker) Set(list []*Trajectory) error {
	objects := make([]*Trajectory, 0, len(list))
	var errs []error
	for _, obj := range list {
		if err := obj.Validate(); err != nil {
			internal.Logf("[tracker] rejected trajectory: %v", err)
			errs = append(errs, err)
			continue
		}
		objects = append(objects, obj)
	}
	t.mu.Lock()
	t.objects = objects
	t.mu.Unlock()
	return errors.Join(errs...)
}

// Objects returns a copy of the list in paint order.
func (t *Tracker) Objects() []*Trajectory {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Trajectory(nil), t.objects...)
}

// Get returns the object with id.
func (t *Tracker) Get(id string) (*Trajectory, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexOf(id); i >= 0 {
		return t.objects[i], true
	}
	return nil, false
}

// Len returns the number of tracked objects.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.objects)
}

// Clear drops every object.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.objects = nil
}

// Resolve locates obj at now using the tracker's interpolation mode.
func (t *Tracker) Resolve(obj *Trajectory, now time.Time) (Position, bool) {
	return Resolve(obj, now, t.Interpolate())
}

// Redraw clears target and paints every tracked object at now.
//
// The pass works on a snapshot of the list, so objects added or removed
// while it runs are neither skipped nor visited twice. Coordinates are
// published once the pass completes, and objects whose data no longer
// covers now are removed at that point. A failing projection or style only
// skips the object concerned.
func (t *Tracker) Redraw(now time.Time, target Canvas) RenderStats {
	t.mu.Lock()
	snapshot := append([]*Trajectory(nil), t.objects...)
	interpolate := t.interpolate
	style := t.style
	filter := t.filter
	t.mu.Unlock()

	target.Clear()
	zoom, resolution := t.projector.Zoom(), t.projector.Resolution()

	var stats RenderStats
	placed := make(map[*Trajectory]orb.Point, len(snapshot))
	expired := make(map[*Trajectory]bool)
	hidden := make(map[*Trajectory]bool)
	for _, obj := range snapshot {
		pos, ok := Resolve(obj, now, interpolate)
		if !ok {
			expired[obj] = true
			stats.Expired++
			continue
		}
		if filter != nil && !filter(obj) {
			hidden[obj] = true
			stats.Hidden++
			continue
		}
		placed[obj] = pos.Coordinate
		if err := t.draw(target, style, obj, pos.Coordinate, zoom, resolution); err != nil {
			internal.Logf("[tracker] failed to draw %s: %v", obj.ID, err)
			stats.Failed++
			continue
		}
		stats.Drawn++
	}

	t.mu.Lock()
	kept := t.objects[:0]
	for _, obj := range t.objects {
		if expired[obj] {
			continue
		}
		if c, ok := placed[obj]; ok {
			obj.setCoordinate(c)
		} else if hidden[obj] {
			obj.coord.Store(nil)
		}
		kept = append(kept, obj)
	}
	for i := len(kept); i < len(t.objects); i++ {
		t.objects[i] = nil
	}
	t.objects = kept
	t.mu.Unlock()

	return stats
}

func (t *Tracker) draw(target Canvas, style StyleFunc, obj *Trajectory, coord orb.Point, zoom, resolution float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	px, err := t.projector.PixelFromCoordinate(coord)
	if err != nil {
		return fmt.Errorf("failed to project %v: %w", coord, err)
	}
	if style == nil {
		return nil
	}
	img, anchor, err := style(obj, zoom, resolution)
	if err != nil {
		return fmt.Errorf("failed to style: %w", err)
	}
	if img == nil {
		return nil
	}
	x := int(math.Round(px[0])) - anchor.X
	y := int(math.Round(px[1])) - anchor.Y
	target.DrawImage(img, x, y)
	return nil
}

func (t *Tracker) indexOf(id string) int {
	for i, obj := range t.objects {
		if obj.ID == id {
			return i
		}
	}
	return -1
}
