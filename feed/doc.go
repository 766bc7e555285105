// Package feed fetches vehicle trajectories.
//
// Trajectories are published as a GeoJSON FeatureCollection of LineStrings in
// map coordinates. Each feature carries its samples in the time_intervals
// property as [unix millis, fraction] pairs.
//
// Latest wraps any Fetcher so that starting a fetch cancels the previous one
// and only the most recent result is ever applied.
package feed
