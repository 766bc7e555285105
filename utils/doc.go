// Package utils provides small shared helpers for the tracker.
//
// It contains:
//   - Time formatting utilities
//   - Delay rounding and presentation
package utils
