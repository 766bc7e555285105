package gtfsrt

import (
	"fmt"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"google.golang.org/protobuf/proto"
)

func decodeFeed(data []byte) (*gtfsrtpb.FeedMessage, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return &fm, nil
}

// ParseVehiclePositions indexes a Vehicle Positions feed by vehicle id.
// Entities without a position are skipped. Reports without their own
// timestamp use the feed header's.
func ParseVehiclePositions(data []byte) (Snapshot, error) {
	fm, err := decodeFeed(data)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Timestamp: int64(fm.GetHeader().GetTimestamp()),
		Vehicles:  make(map[string]Vehicle, len(fm.GetEntity())),
	}
	for _, e := range fm.GetEntity() {
		vp := e.GetVehicle()
		if vp == nil || vp.GetPosition() == nil {
			continue
		}
		id := vp.GetVehicle().GetId()
		if id == "" {
			id = e.GetId()
		}
		if id == "" {
			continue
		}
		ts := int64(vp.GetTimestamp())
		if ts == 0 {
			ts = snap.Timestamp
		}
		pos := vp.GetPosition()
		lonLat := orb.Point{float64(pos.GetLongitude()), float64(pos.GetLatitude())}
		snap.Vehicles[id] = Vehicle{
			ID:        id,
			TripID:    vp.GetTrip().GetTripId(),
			RouteID:   vp.GetTrip().GetRouteId(),
			Label:     vp.GetVehicle().GetLabel(),
			Position:  project.Point(lonLat, project.WGS84.ToMercator),
			Timestamp: ts,
		}
	}
	return snap, nil
}

// ParseTripDelays returns the current delay in seconds of every trip in a
// Trip Updates feed. The trip-level delay wins over the first stop time
// update's arrival or departure delay.
func ParseTripDelays(data []byte) (map[string]float64, error) {
	fm, err := decodeFeed(data)
	if err != nil {
		return nil, err
	}
	delays := make(map[string]float64)
	for _, e := range fm.GetEntity() {
		tu := e.GetTripUpdate()
		tripID := tu.GetTrip().GetTripId()
		if tripID == "" {
			continue
		}
		if tu.Delay != nil {
			delays[tripID] = float64(tu.GetDelay())
			continue
		}
		stus := tu.GetStopTimeUpdate()
		if len(stus) == 0 {
			continue
		}
		switch first := stus[0]; {
		case first.GetArrival() != nil && first.GetArrival().Delay != nil:
			delays[tripID] = float64(first.GetArrival().GetDelay())
		case first.GetDeparture() != nil && first.GetDeparture().Delay != nil:
			delays[tripID] = float64(first.GetDeparture().GetDelay())
		}
	}
	return delays, nil
}
