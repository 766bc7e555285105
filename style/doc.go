// Package style renders vehicle markers and memoizes them.
//
// A marker is a filled circle in the vehicle category's colour with an
// optional delay halo, delay text and line label. Rendering rasterizes text,
// so markers are cached under a composite key of zoom, category, label,
// delay and hover state.
package style
