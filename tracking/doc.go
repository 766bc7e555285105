// Package tracking plays back vehicle trajectories against a virtual clock.
//
// This package handles:
// - Validating trajectories before they enter the tracked set
// - Interpolating each vehicle's position from its (time, fraction) samples
// - Painting vehicles through projection and style collaborators
// - Hit-testing pointer coordinates against the last painted positions
//
// The FrameLoop type drives redraws at a self-correcting cadence: after each
// frame it re-derives the next delay from the measured cost of the frame.
package tracking
