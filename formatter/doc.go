// Package formatter provides snapshot building and serialization of vehicle
// positions.
//
// This package is organized into:
// - wrapper.go: Snapshot building and filtering
// - json.go: JSON and GeoJSON serialization
package formatter
