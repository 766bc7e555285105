// Package layer plays back live vehicles on one map view.
//
// A Layer owns everything that belongs to a single map instance: the virtual
// clock, the tracked vehicles, the marker cache, the frame loop and the
// trajectory fetcher. Several layers can run side by side.
package layer
