package timesource

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrInvalidSpeed is returned for negative, NaN or infinite speed multipliers.
var ErrInvalidSpeed = errors.New("invalid speed")

const (
	// MinFrameInterval caps the redraw rate at 60 frames per second.
	MinFrameInterval = time.Second / 60
	// MaxFrameInterval is the longest allowed pause between two redraws.
	MaxFrameInterval = 20 * time.Second
)

// Source is a virtual clock advanced by elapsed wall-clock time times speed.
type Source struct {
	mu         sync.Mutex
	wall       clockwork.Clock
	now        time.Time
	lastSample time.Time
	speed      float64
	interval   time.Duration
	table      []time.Duration
	listeners  []func(time.Time)
}

// Option configures a Source.
type Option func(*Source)

// WithClock sets the wall clock used to measure elapsed time.
func WithClock(c clockwork.Clock) Option {
	return func(s *Source) { s.wall = c }
}

// WithFrameRateTable sets the zoom level to interval table in milliseconds.
func WithFrameRateTable(ms []int) Option {
	return func(s *Source) {
		s.table = make([]time.Duration, len(ms))
		for i, v := range ms {
			s.table[i] = time.Duration(v) * time.Millisecond
		}
	}
}

// New returns a Source at the current wall time running at real-time speed.
func New(opts ...Option) *Source {
	s := &Source{
		wall:     clockwork.NewRealClock(),
		speed:    1,
		interval: MinFrameInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.now = s.wall.Now()
	s.lastSample = s.now
	return s
}

// OnChange registers fn to be called after every SetTime.
func (s *Source) OnChange(fn func(time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Time returns the current virtual time.
func (s *Source) Time() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// SetTime resynchronizes the virtual clock and notifies listeners right away.
func (s *Source) SetTime(t time.Time) {
	s.mu.Lock()
	s.now = t
	s.lastSample = s.wall.Now()
	listeners := append([]func(time.Time){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
}

// Speed returns the speed multiplier.
func (s *Source) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// SetSpeed sets the multiplier applied to elapsed wall time. 1 is real time
// and 0 freezes the clock. Invalid values leave the previous speed in place.
func (s *Source) SetSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = speed
	return nil
}

// Tick advances the virtual clock by the wall time elapsed since the last
// sample multiplied by speed, and returns the new virtual time.
func (s *Source) Tick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallNow := s.wall.Now()
	elapsed := wallNow.Sub(s.lastSample)
	s.now = s.now.Add(time.Duration(float64(elapsed) * s.speed))
	s.lastSample = wallNow
	return s.now
}

// FrameInterval returns the current redraw cadence.
func (s *Source) FrameInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetFrameInterval sets the redraw cadence, clamped to
// [MinFrameInterval, MaxFrameInterval].
func (s *Source) SetFrameInterval(d time.Duration) time.Duration {
	d = ClampInterval(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	return d
}

// ApplyZoom derives the frame interval from the zoom table and speed.
func (s *Source) ApplyZoom(zoom float64) time.Duration {
	s.mu.Lock()
	d := FrameIntervalFor(s.table, zoom, s.speed)
	s.interval = d
	s.mu.Unlock()
	return d
}

// FrameIntervalFor looks up the interval for zoom, divides it by speed and
// clamps the result. The zoom is floored and clamped to the table bounds. A
// frozen clock yields MaxFrameInterval; otherwise an empty table yields
// MinFrameInterval.
func FrameIntervalFor(table []time.Duration, zoom, speed float64) time.Duration {
	if speed <= 0 {
		return MaxFrameInterval
	}
	if len(table) == 0 {
		return MinFrameInterval
	}
	idx := 0
	if !math.IsNaN(zoom) {
		idx = int(math.Floor(math.Max(0, math.Min(zoom, float64(len(table)-1)))))
	}
	return ClampInterval(time.Duration(float64(table[idx]) / speed))
}

// ClampInterval clamps d to [MinFrameInterval, MaxFrameInterval].
func ClampInterval(d time.Duration) time.Duration {
	if d < MinFrameInterval {
		return MinFrameInterval
	}
	if d > MaxFrameInterval {
		return MaxFrameInterval
	}
	return d
}
