package gtfsrt

import "github.com/paulmach/orb"

// Vehicle is one vehicle position report.
type Vehicle struct {
	ID      string
	TripID  string
	RouteID string
	Label   string
	// Position is in web mercator meters.
	Position  orb.Point
	Timestamp int64
}

// Snapshot indexes one Vehicle Positions feed.
type Snapshot struct {
	Timestamp int64
	Vehicles  map[string]Vehicle
}
