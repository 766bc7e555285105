package layer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"

	"github.com/theoremus-urban-solutions/trajectory-tracker/feed"
	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
	"github.com/theoremus-urban-solutions/trajectory-tracker/style"
	"github.com/theoremus-urban-solutions/trajectory-tracker/timesource"
	"github.com/theoremus-urban-solutions/trajectory-tracker/tracking"
)

// hitRadius is the pointer tolerance in pixels.
const hitRadius = 10

// MapView is the map engine a layer is attached to.
type MapView interface {
	tracking.Projector
	// OnBeforeRender registers fn to run before the map renders.
	OnBeforeRender(fn func())
	// OnViewChange registers fn to run after the view moved or zoomed.
	OnViewChange(fn func())
}

// ClickHandler receives the clicked vehicle, or nil, and the source event.
type ClickHandler func(hit *tracking.Trajectory, event any)

// Layer plays back vehicles on one map view.
type Layer struct {
	view            MapView
	canvas          tracking.Canvas
	clock           clockwork.Clock
	time            *timesource.Source
	tracker         *tracking.Tracker
	styles          *style.Cache
	loop            *tracking.FrameLoop
	fetcher         *feed.Latest
	url             string
	requestInterval time.Duration

	// frameMu keeps frames from overlapping on the canvas.
	frameMu sync.Mutex

	mu         sync.Mutex
	zoom       int
	hovered    string
	clicks     []ClickHandler
	stats      tracking.RenderStats
	generation string
	baseCtx    context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New attaches a layer to view, painting on canvas and loading trajectories
// through fetcher. Zero option fields take the configuration defaults.
func New(view MapView, canvas tracking.Canvas, fetcher feed.Fetcher, opts Options) (*Layer, error) {
	opts.applyDefaults()
	clock := opts.Clock
	renderer, err := style.NewRenderer(
		style.WithOutlineColor(opts.DelayOutlineColor),
		style.WithHoverIncrement(opts.HoverRadiusIncrement),
		style.WithLabelMinZoom(opts.LabelMinZoom),
		style.WithDelayStyle(*opts.ShowDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	src := timesource.New(timesource.WithClock(clock), timesource.WithFrameRateTable(opts.FrameRateTable))
	if err := src.SetSpeed(*opts.Speed); err != nil {
		return nil, err
	}

	l := &Layer{
		view:            view,
		canvas:          canvas,
		clock:           clock,
		time:            src,
		styles:          style.NewCache(renderer),
		fetcher:         feed.NewLatest(fetcher),
		url:             opts.URL,
		requestInterval: opts.RequestInterval,
		zoom:            zoomLevel(view.Zoom()),
		baseCtx:         context.Background(),
	}
	l.tracker = tracking.NewTracker(view,
		tracking.WithInterpolation(*opts.Interpolate),
		tracking.WithStyle(l.style),
	)
	l.loop = tracking.NewFrameLoop(clock, src.ApplyZoom(view.Zoom()), l.frame)

	src.OnChange(func(time.Time) { l.Render() })
	view.OnBeforeRender(l.loop.Trigger)
	view.OnViewChange(l.handleViewChange)
	return l, nil
}

// Tracker returns the tracked vehicles.
func (l *Layer) Tracker() *tracking.Tracker { return l.tracker }

// Styles returns the marker cache.
func (l *Layer) Styles() *style.Cache { return l.styles }

// Loop returns the frame loop.
func (l *Layer) Loop() *tracking.FrameLoop { return l.loop }

// Time returns the virtual time.
func (l *Layer) Time() time.Time { return l.time.Time() }

// SetTime jumps the virtual clock to t and redraws right away.
func (l *Layer) SetTime(t time.Time) { l.time.SetTime(t) }

// Speed returns the playback speed.
func (l *Layer) Speed() float64 { return l.time.Speed() }

// SetSpeed changes the playback speed and the redraw cadence with it.
func (l *Layer) SetSpeed(speed float64) error {
	if err := l.time.SetSpeed(speed); err != nil {
		return err
	}
	l.loop.SetInterval(l.time.ApplyZoom(l.view.Zoom()))
	return nil
}

// SetDelayOutlineColor changes the outline of the delay text.
func (l *Layer) SetDelayOutlineColor(hex string) error {
	return l.styles.SetDelayOutlineColor(hex)
}

// Stats returns the result of the last completed frame.
func (l *Layer) Stats() tracking.RenderStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Hovered returns the id of the vehicle under the pointer.
func (l *Layer) Hovered() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hovered
}

// OnClick registers fn for clicks on the map.
func (l *Layer) OnClick(fn ClickHandler) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clicks = append(l.clicks, fn)
}

// HandleClick dispatches a click at coord to every click handler.
func (l *Layer) HandleClick(coord orb.Point, event any) {
	hit := l.VehicleAtCoordinate(coord)
	l.mu.Lock()
	handlers := append([]ClickHandler(nil), l.clicks...)
	l.mu.Unlock()
	for _, fn := range handlers {
		fn(hit, event)
	}
}

// HandlePointerMove updates the hovered vehicle and reports whether the
// pointer is over one.
func (l *Layer) HandlePointerMove(coord orb.Point) bool {
	hit := l.VehicleAtCoordinate(coord)
	l.mu.Lock()
	defer l.mu.Unlock()
	if hit == nil {
		l.hovered = ""
		return false
	}
	l.hovered = hit.ID
	return true
}

// VehicleAtCoordinate returns the topmost vehicle within a few pixels of
// coord, as painted by the last frame.
func (l *Layer) VehicleAtCoordinate(coord orb.Point) *tracking.Trajectory {
	return l.tracker.QueryAtCoordinate(coord, hitRadius*l.view.Resolution())
}

// Render redraws at the current virtual time without advancing it.
func (l *Layer) Render() tracking.RenderStats {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()
	return l.redraw(l.time.Time())
}

// RenderCapture redraws at the current virtual time and calls capture before
// any other frame can touch the canvas.
func (l *Layer) RenderCapture(capture func() error) (tracking.RenderStats, error) {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()
	stats := l.redraw(l.time.Time())
	return stats, capture()
}

func (l *Layer) frame() {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()
	l.redraw(l.time.Tick())
}

// redraw must be called with frameMu held.
func (l *Layer) redraw(now time.Time) tracking.RenderStats {
	stats := l.tracker.Redraw(now, l.canvas)
	l.mu.Lock()
	l.stats = stats
	l.mu.Unlock()
	return stats
}

func (l *Layer) style(t *tracking.Trajectory, zoom, _ float64) (image.Image, image.Point, error) {
	attrs := style.Attrs{
		Category:  t.Type,
		Label:     t.Name,
		Color:     t.Color,
		TextColor: t.TextColor,
		Delay:     t.Delay,
	}
	v := l.styles.Resolve(style.NewKey(zoom, attrs, l.Hovered() == t.ID), attrs)
	return v.Image, v.Anchor, nil
}

func (l *Layer) handleViewChange() {
	zoom := l.view.Zoom()
	l.mu.Lock()
	changed := zoomLevel(zoom) != l.zoom
	l.zoom = zoomLevel(zoom)
	ctx := l.baseCtx
	l.mu.Unlock()

	if changed {
		l.loop.SetInterval(l.time.ApplyZoom(zoom))
	}
	l.Render()
	l.refreshAsync(ctx)
}

// Refresh fetches trajectories and replaces the tracked set with them. A
// refresh overtaken by a newer one is dropped without error.
func (l *Layer) Refresh(ctx context.Context) error {
	gen := uuid.NewString()
	err := l.fetcher.Fetch(ctx, l.url, func(records []feed.Record) {
		l.apply(gen, records)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, feed.ErrSuperseded), errors.Is(err, context.Canceled):
		return nil
	}
	internal.Logf("[layer] failed to refresh trajectories: %v", err)
	return err
}

func (l *Layer) apply(gen string, records []feed.Record) {
	accepted := 0
	for _, rec := range records {
		if err := l.tracker.Upsert(rec.Trajectory(gen)); err == nil {
			accepted++
		}
	}
	stale := l.tracker.RemoveWhere(func(t *tracking.Trajectory) bool { return t.Source != gen })

	l.mu.Lock()
	l.generation = gen
	l.mu.Unlock()
	internal.Logf("[layer] generation %s: %d of %d trajectories accepted, %d stale removed",
		gen, accepted, len(records), stale)
}

// Generation returns the tag of the last applied refresh.
func (l *Layer) Generation() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

func (l *Layer) refreshAsync(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		_ = l.Refresh(ctx)
	}()
}

// Start runs the frame loop and refreshes trajectories every request
// interval until Stop is called or ctx is done.
func (l *Layer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.baseCtx = ctx
	l.cancel = cancel
	l.mu.Unlock()

	l.loop.Start()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := l.clock.NewTicker(l.requestInterval)
		defer ticker.Stop()
		_ = l.Refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				_ = l.Refresh(ctx)
			}
		}
	}()
}

// Stop halts the frame loop and refreshes and waits for them to finish.
func (l *Layer) Stop() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.baseCtx = context.Background()
	l.mu.Unlock()

	l.loop.Stop()
	l.fetcher.Cancel()
	l.wg.Wait()
}

// Destroy stops the layer and drops every vehicle.
func (l *Layer) Destroy() {
	l.Stop()
	l.tracker.Clear()
	l.frameMu.Lock()
	l.canvas.Clear()
	l.frameMu.Unlock()
}

func zoomLevel(z float64) int {
	if math.IsNaN(z) {
		return 0
	}
	return int(math.Floor(z))
}
