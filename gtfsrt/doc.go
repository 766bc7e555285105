// Package gtfsrt builds vehicle trajectories from GTFS-Realtime feeds.
//
// It supports two feed types:
//   - Vehicle Positions: where each vehicle was last reported
//   - Trip Updates: optional, used for the delay of each trip
//
// GTFS-RT only reports points, so Source remembers the previous report of
// every vehicle and emits a straight segment from it to the latest one,
// shifted back in time so that playback trails the reports.
package gtfsrt
