package tracking

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
)

// LoopState is the state of a FrameLoop.
type LoopState int

const (
	Idle LoopState = iota
	Scheduled
	Running
)

func (s LoopState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	}
	return "unknown"
}

// FrameLoop runs a frame function repeatedly, one frame at a time.
//
// After each frame the next delay is the interval minus the measured cost of
// the frame, so slow frames do not make the cadence drift.
type FrameLoop struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	frame    func()
	interval time.Duration
	state    LoopState
	timer    clockwork.Timer
	pending  bool
	// gen invalidates timers that fire after being replaced or stopped.
	gen uint64
}

// NewFrameLoop returns an idle loop. A nil clock uses the real clock.
func NewFrameLoop(clock clockwork.Clock, interval time.Duration, frame func()) *FrameLoop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FrameLoop{clock: clock, interval: interval, frame: frame}
}

// State returns the current state.
func (l *FrameLoop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Interval returns the target time between frame starts.
func (l *FrameLoop) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

// Start schedules the first frame one interval from now. It is a no-op
// unless the loop is idle.
func (l *FrameLoop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Idle {
		return
	}
	l.schedule(l.interval)
}

// Trigger requests a frame as soon as possible. A frame in progress is
// followed immediately by another one.
func (l *FrameLoop) Trigger() {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case Scheduled:
		l.schedule(0)
	case Running:
		l.pending = true
	}
}

// SetInterval changes the cadence. A scheduled frame is re-armed with the
// new interval; a running frame picks it up when it completes.
func (l *FrameLoop) SetInterval(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.interval = d
	if l.state == Scheduled {
		l.schedule(d)
	}
}

// Stop cancels the scheduled frame. A frame in progress completes but is not
// followed by another one.
func (l *FrameLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.gen++
	l.state = Idle
	l.pending = false
}

// schedule must be called with mu held.
func (l *FrameLoop) schedule(delay time.Duration) {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.gen++
	gen := l.gen
	l.state = Scheduled
	l.timer = l.clock.AfterFunc(delay, func() { l.fire(gen) })
}

func (l *FrameLoop) fire(gen uint64) {
	l.mu.Lock()
	if l.state != Scheduled || gen != l.gen {
		l.mu.Unlock()
		return
	}
	l.state = Running
	l.timer = nil
	l.mu.Unlock()

	start := l.clock.Now()
	l.run()
	cost := l.clock.Since(start)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Running {
		return
	}
	delay := l.interval - cost
	if delay < 0 || l.pending {
		delay = 0
	}
	l.pending = false
	l.schedule(delay)
}

func (l *FrameLoop) run() {
	defer func() {
		if r := recover(); r != nil {
			internal.Logf("[tracker] frame panicked: %v", r)
		}
	}()
	l.frame()
}
