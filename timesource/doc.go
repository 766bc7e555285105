// Package timesource owns the virtual clock that drives trajectory playback.
//
// The clock is decoupled from wall-clock rate by a speed multiplier and only
// moves when Tick or SetTime is called, so pausing the ticker pauses playback
// exactly. The source also derives the redraw cadence from the map zoom level.
package timesource
