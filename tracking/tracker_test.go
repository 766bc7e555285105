package tracking

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
	"github.com/theoremus-urban-solutions/trajectory-tracker/shape"
)

var epoch = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func ms(n int) time.Time { return epoch.Add(time.Duration(n) * time.Millisecond) }

func init() {
	internal.SetLogger(nil)
}

// identityProjector maps coordinates straight to pixels.
type identityProjector struct {
	fail map[orb.Point]bool
}

func (p identityProjector) PixelFromCoordinate(c orb.Point) (orb.Point, error) {
	if p.fail[c] {
		return orb.Point{}, errors.New("outside viewport")
	}
	return c, nil
}
func (identityProjector) Resolution() float64 { return 1 }
func (identityProjector) Zoom() float64       { return 14 }

type draw struct {
	id   string
	x, y int
}

type recordingCanvas struct {
	cleared int
	draws   []draw
}

func (c *recordingCanvas) Clear() { c.cleared++; c.draws = nil }
func (c *recordingCanvas) DrawImage(img image.Image, x, y int) {
	c.draws = append(c.draws, draw{id: idOf(img), x: x, y: y})
}

// namedImage lets the canvas tell which vehicle was drawn.
type namedImage struct {
	*image.RGBA
	id string
}

func idOf(img image.Image) string {
	if n, ok := img.(namedImage); ok {
		return n.id
	}
	return ""
}

func namedStyle(t *Trajectory, _, _ float64) (image.Image, image.Point, error) {
	return namedImage{RGBA: image.NewRGBA(image.Rect(0, 0, 4, 4)), id: t.ID}, image.Pt(2, 2), nil
}

func segment(id string, intervals ...Interval) *Trajectory {
	return &Trajectory{
		ID:        id,
		Intervals: intervals,
		Geometry:  shape.Segment(orb.Point{0, 0}, orb.Point{10, 0}),
	}
}

func linear(id string) *Trajectory {
	return segment(id, Interval{ms(0), 0}, Interval{ms(1000), 1})
}

func ids(objs []*Trajectory) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.ID
	}
	return out
}

func TestResolve_LinearInterpolation(t *testing.T) {
	obj := segment("a", Interval{ms(0), 0.2}, Interval{ms(1000), 0.6})

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{name: "at start", now: ms(0), want: 0.2},
		{name: "midpoint", now: ms(500), want: 0.4},
		{name: "at end", now: ms(1000), want: 0.6},
		{name: "before start clamps", now: ms(-5000), want: 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, ok := Resolve(obj, tt.now, true)
			require.True(t, ok)
			assert.InDelta(t, tt.want, pos.Fraction, 1e-9)
		})
	}

	_, ok := Resolve(obj, ms(1001), true)
	assert.False(t, ok, "no pair brackets an instant after the last sample")
}

func TestResolve_ConcretePosition(t *testing.T) {
	pos, ok := Resolve(linear("a"), ms(500), true)
	require.True(t, ok)
	assert.InDelta(t, 5, pos.Coordinate[0], 1e-9)
	assert.InDelta(t, 0, pos.Coordinate[1], 1e-9)
}

func TestResolve_WithoutInterpolationSnapsToSegmentStart(t *testing.T) {
	obj := segment("a",
		Interval{ms(0), 0},
		Interval{ms(1000), 0.5},
		Interval{ms(2000), 1},
	)
	for _, now := range []time.Time{ms(1001), ms(1200), ms(2000)} {
		pos, ok := Resolve(obj, now, false)
		require.True(t, ok)
		assert.InDelta(t, 0.5, pos.Fraction, 1e-9, "at %v", now.Sub(epoch))
	}
	pos, ok := Resolve(obj, ms(999), false)
	require.True(t, ok)
	assert.InDelta(t, 0, pos.Fraction, 1e-9)
}

func TestResolve_FirstBracketingPairWins(t *testing.T) {
	// A dwell: two samples share a timestamp.
	obj := segment("a",
		Interval{ms(0), 0},
		Interval{ms(1000), 0.5},
		Interval{ms(1000), 0.7},
		Interval{ms(2000), 1},
	)
	pos, ok := Resolve(obj, ms(1000), true)
	require.True(t, ok)
	assert.Equal(t, 0, pos.Segment)
	assert.InDelta(t, 0.5, pos.Fraction, 1e-9)
}

func TestResolve_ZeroLengthPairUsesEndFraction(t *testing.T) {
	obj := segment("a", Interval{ms(0), 0.3}, Interval{ms(0), 0.8})
	pos, ok := Resolve(obj, ms(0), true)
	require.True(t, ok)
	assert.Equal(t, 1.0, pos.TimeFrac)
	assert.InDelta(t, 0.8, pos.Fraction, 1e-9)
}

func TestResolve_TimeOffset(t *testing.T) {
	obj := linear("a")
	obj.TimeOffset = 250 * time.Millisecond

	pos, ok := Resolve(obj, ms(750), true)
	require.True(t, ok)
	assert.InDelta(t, 0.5, pos.Fraction, 1e-9)

	_, ok = Resolve(obj, ms(1200), true)
	assert.True(t, ok, "offset keeps the trajectory alive past its last sample")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		obj  *Trajectory
	}{
		{name: "nil", obj: nil},
		{name: "missing id", obj: segment("", Interval{ms(0), 0}, Interval{ms(1), 1})},
		{name: "no geometry", obj: &Trajectory{ID: "a", Intervals: []Interval{{ms(0), 0}, {ms(1), 1}}}},
		{name: "empty intervals", obj: segment("a")},
		{name: "single interval", obj: segment("a", Interval{ms(0), 0})},
		{name: "decreasing time", obj: segment("a", Interval{ms(10), 0}, Interval{ms(5), 1})},
		{name: "fraction above one", obj: segment("a", Interval{ms(0), 0}, Interval{ms(5), 1.5})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.obj.Validate(), ErrInvalidTrajectory)
		})
	}
	assert.NoError(t, linear("ok").Validate())
}

func TestTracker_AddRejectsInvalid(t *testing.T) {
	tr := NewTracker(identityProjector{})
	err := tr.Add(segment("bad", Interval{ms(10), 0}, Interval{ms(5), 1}), false)
	assert.ErrorIs(t, err, ErrInvalidTrajectory)
	assert.Zero(t, tr.Len())
}

func TestTracker_AddRemoveRoundTrip(t *testing.T) {
	tr := NewTracker(identityProjector{})
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, tr.Add(linear(id), false))
	}
	before := ids(tr.Objects())

	for _, onTop := range []bool{false, true} {
		require.NoError(t, tr.Add(linear("x"), onTop))
		assert.True(t, tr.Remove("x"))
		if diff := cmp.Diff(before, ids(tr.Objects())); diff != "" {
			t.Errorf("set changed after round trip (onTop=%v) (-want +got):\n%s", onTop, diff)
		}
	}
	assert.False(t, tr.Remove("missing"))
}

func TestTracker_AddOnTopIsPaintedFirst(t *testing.T) {
	tr := NewTracker(identityProjector{}, WithStyle(namedStyle))
	require.NoError(t, tr.Add(linear("a"), false))
	require.NoError(t, tr.Add(linear("b"), false))
	require.NoError(t, tr.Add(linear("top"), true))

	assert.Equal(t, []string{"top", "a", "b"}, ids(tr.Objects()))

	canvas := &recordingCanvas{}
	stats := tr.Redraw(ms(500), canvas)
	assert.Equal(t, RenderStats{Drawn: 3}, stats)

	var painted []string
	for _, d := range canvas.draws {
		painted = append(painted, d.id)
	}
	assert.Equal(t, []string{"top", "a", "b"}, painted, "addOnTop objects end up beneath later ones")
}

func TestTracker_AddExistingIDMoves(t *testing.T) {
	tr := NewTracker(identityProjector{})
	require.NoError(t, tr.Add(linear("a"), false))
	require.NoError(t, tr.Add(linear("b"), false))
	require.NoError(t, tr.Add(linear("b"), true))
	assert.Equal(t, []string{"b", "a"}, ids(tr.Objects()))
}

func TestTracker_RedrawAnchorsAtCenter(t *testing.T) {
	tr := NewTracker(identityProjector{}, WithStyle(namedStyle))
	require.NoError(t, tr.Add(linear("a"), false))

	canvas := &recordingCanvas{}
	tr.Redraw(ms(500), canvas)

	require.Len(t, canvas.draws, 1)
	assert.Equal(t, draw{id: "a", x: 3, y: -2}, canvas.draws[0])
	assert.Equal(t, 1, canvas.cleared)

	c, ok := tr.Objects()[0].Coordinate()
	require.True(t, ok)
	assert.InDelta(t, 5, c[0], 1e-9)
}

func TestTracker_RedrawRemovesExpired(t *testing.T) {
	tr := NewTracker(identityProjector{}, WithStyle(namedStyle))
	require.NoError(t, tr.Add(linear("short"), false))
	require.NoError(t, tr.Add(segment("long", Interval{ms(0), 0}, Interval{ms(5000), 1}), false))

	canvas := &recordingCanvas{}
	stats := tr.Redraw(ms(2000), canvas)

	assert.Equal(t, RenderStats{Drawn: 1, Expired: 1}, stats)
	assert.Equal(t, []string{"long"}, ids(tr.Objects()))
	require.Len(t, canvas.draws, 1)
	assert.Equal(t, "long", canvas.draws[0].id)
}

func TestTracker_RedrawIsolatesFailures(t *testing.T) {
	projector := identityProjector{fail: map[orb.Point]bool{{5, 0}: true}}
	panicky := func(t *Trajectory, z, r float64) (image.Image, image.Point, error) {
		if t.ID == "panics" {
			panic("boom")
		}
		if t.ID == "errors" {
			return nil, image.Point{}, errors.New("no style")
		}
		return namedStyle(t, z, r)
	}
	tr := NewTracker(projector, WithStyle(panicky))

	unprojectable := linear("unprojectable") // at (5,0) when now=500
	require.NoError(t, tr.Add(unprojectable, false))
	for _, id := range []string{"panics", "errors", "fine"} {
		require.NoError(t, tr.Add(segment(id, Interval{ms(0), 0}, Interval{ms(2000), 1}), false))
	}

	canvas := &recordingCanvas{}
	stats := tr.Redraw(ms(500), canvas)

	assert.Equal(t, RenderStats{Drawn: 1, Failed: 3}, stats)
	require.Len(t, canvas.draws, 1)
	assert.Equal(t, "fine", canvas.draws[0].id)
	assert.Equal(t, 4, tr.Len(), "failed draws are not removals")

	_, ok := unprojectable.Coordinate()
	assert.True(t, ok, "the coordinate is known even when it could not be drawn")
}

// mutatingCanvas changes the tracked set while a pass is in progress.
type mutatingCanvas struct {
	recordingCanvas
	onDraw func()
}

func (c *mutatingCanvas) DrawImage(img image.Image, x, y int) {
	c.recordingCanvas.DrawImage(img, x, y)
	if c.onDraw != nil {
		fn := c.onDraw
		c.onDraw = nil
		fn()
	}
}

func TestTracker_MutationDuringRedraw(t *testing.T) {
	tr := NewTracker(identityProjector{}, WithStyle(namedStyle))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, tr.Add(linear(id), false))
	}

	canvas := &mutatingCanvas{}
	canvas.onDraw = func() {
		assert.Equal(t, 1, tr.RemoveWhere(func(o *Trajectory) bool { return o.ID == "b" }))
		require.NoError(t, tr.Add(linear("d"), false))
	}
	stats := tr.Redraw(ms(500), canvas)

	assert.Equal(t, 3, stats.Drawn, "the pass visits its snapshot exactly once")
	assert.Equal(t, []string{"a", "c", "d"}, ids(tr.Objects()))

	d, _ := tr.Get("d")
	_, ok := d.Coordinate()
	assert.False(t, ok, "objects added mid-pass are painted next frame")
}

func TestTracker_RemoveWhere(t *testing.T) {
	tr := NewTracker(identityProjector{})
	for i, id := range []string{"a", "b", "c", "d"} {
		obj := linear(id)
		obj.Source = []string{"old", "new"}[i%2]
		require.NoError(t, tr.Add(obj, false))
	}
	n := tr.RemoveWhere(func(o *Trajectory) bool { return o.Source == "old" })
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"b", "d"}, ids(tr.Objects()))
}

func TestTracker_Set(t *testing.T) {
	tr := NewTracker(identityProjector{})
	require.NoError(t, tr.Add(linear("stale"), false))

	err := tr.Set([]*Trajectory{
		linear("a"),
		segment("bad"),
		linear("b"),
	})
	assert.ErrorIs(t, err, ErrInvalidTrajectory)
	assert.Equal(t, []string{"a", "b"}, ids(tr.Objects()))

	tr.Clear()
	assert.Zero(t, tr.Len())
}

func TestTracker_UpsertKeepsPositionAndCoordinate(t *testing.T) {
	tr := NewTracker(identityProjector{})
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, tr.Add(linear(id), false))
	}
	tr.Redraw(ms(500), &recordingCanvas{})

	fresh := linear("b")
	fresh.Name = "updated"
	require.NoError(t, tr.Upsert(fresh))
	require.NoError(t, tr.Upsert(linear("e")))

	assert.Equal(t, []string{"a", "b", "c", "e"}, ids(tr.Objects()))
	got, _ := tr.Get("b")
	assert.Same(t, fresh, got)
	_, ok := got.Coordinate()
	assert.True(t, ok, "the replacement stays hittable until the next frame")
}

func TestTracker_InterpolationToggle(t *testing.T) {
	tr := NewTracker(identityProjector{}, WithInterpolation(false))
	obj := linear("a")
	pos, ok := tr.Resolve(obj, ms(900))
	require.True(t, ok)
	assert.Equal(t, 0.0, pos.Fraction)

	tr.SetInterpolate(true)
	pos, _ = tr.Resolve(obj, ms(900))
	assert.InDelta(t, 0.9, pos.Fraction, 1e-9)
}

func TestTracker_QueryAtCoordinate(t *testing.T) {
	tr := NewTracker(identityProjector{})
	require.NoError(t, tr.Add(linear("under"), false))
	require.NoError(t, tr.Add(linear("over"), false))
	require.NoError(t, tr.Add(segment("far", Interval{ms(0), 0}, Interval{ms(1000), 0}), false))

	assert.Nil(t, tr.QueryAtCoordinate(orb.Point{5, 0}, 1), "nothing is hittable before the first frame")

	tr.Redraw(ms(500), &recordingCanvas{})

	hit := tr.QueryAtCoordinate(orb.Point{5.5, 0.5}, 1)
	require.NotNil(t, hit)
	assert.Equal(t, "over", hit.ID, "the last painted object wins")

	hit = tr.QueryAtCoordinate(orb.Point{0.2, 0}, 1)
	require.NotNil(t, hit)
	assert.Equal(t, "far", hit.ID)

	assert.Nil(t, tr.QueryAtCoordinate(orb.Point{5, 3}, 1))
}

func TestTracker_FilterHidesObjects(t *testing.T) {
	tr := NewTracker(identityProjector{}, WithStyle(namedStyle))
	require.NoError(t, tr.Add(linear("bus"), false))
	tram := linear("tram")
	tram.Type = 0
	require.NoError(t, tr.Add(tram, false))
	tr.Redraw(ms(500), &recordingCanvas{})

	tr.SetFilter(func(o *Trajectory) bool { return o.ID != "tram" })
	canvas := &recordingCanvas{}
	stats := tr.Redraw(ms(600), canvas)

	assert.Equal(t, RenderStats{Drawn: 1, Hidden: 1}, stats)
	assert.Equal(t, 2, tr.Len())
	_, ok := tram.Coordinate()
	assert.False(t, ok, "hidden objects are not hittable")
	assert.Equal(t, "bus", tr.QueryAtCoordinate(orb.Point{6, 0}, 0.5).ID)
}
