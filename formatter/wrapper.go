package formatter

import (
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/theoremus-urban-solutions/trajectory-tracker/style"
	"github.com/theoremus-urban-solutions/trajectory-tracker/tracking"
	"github.com/theoremus-urban-solutions/trajectory-tracker/utils"
)

// VehiclePosition is one vehicle in a snapshot.
type VehiclePosition struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Type      int     `json:"type"`
	Category  string  `json:"category"`
	Delay     float64 `json:"delay"`
	DelayText string  `json:"delayText"`
	Fraction  float64 `json:"fraction"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
}

// Snapshot is the state of every vehicle at one virtual instant.
type Snapshot struct {
	Timestamp string            `json:"timestamp"`
	Speed     float64           `json:"speed"`
	Vehicles  []VehiclePosition `json:"vehicles"`
}

// BuildSnapshot locates every tracked vehicle at now. Vehicles whose data
// does not cover now are left out. Coordinates are web mercator meters.
func BuildSnapshot(tr *tracking.Tracker, now time.Time, speed float64) Snapshot {
	snap := Snapshot{
		Timestamp: utils.Iso8601Millis(now),
		Speed:     speed,
		Vehicles:  []VehiclePosition{},
	}
	for _, obj := range tr.Objects() {
		pos, ok := tr.Resolve(obj, now)
		if !ok {
			continue
		}
		lonLat := project.Point(pos.Coordinate, project.Mercator.ToWGS84)
		snap.Vehicles = append(snap.Vehicles, VehiclePosition{
			ID:        obj.ID,
			Name:      obj.Name,
			Type:      obj.Type,
			Category:  style.CategoryFor(obj.Type).Name,
			Delay:     obj.Delay,
			DelayText: utils.PresentableDelay(obj.Delay),
			Fraction:  pos.Fraction,
			X:         pos.Coordinate[0],
			Y:         pos.Coordinate[1],
			Lon:       lonLat[0],
			Lat:       lonLat[1],
		})
	}
	return snap
}

// FilterSnapshot keeps vehicles whose name contains name and whose category
// equals category. Matching is case-insensitive; empty filters match all.
func FilterSnapshot(snap Snapshot, name, category string) Snapshot {
	name = strings.ToLower(strings.TrimSpace(name))
	category = strings.ToLower(strings.TrimSpace(category))

	filtered := Snapshot{
		Timestamp: snap.Timestamp,
		Speed:     snap.Speed,
		Vehicles:  []VehiclePosition{},
	}
	for _, v := range snap.Vehicles {
		if name != "" && !strings.Contains(strings.ToLower(v.Name), name) {
			continue
		}
		if category != "" && strings.ToLower(v.Category) != category {
			continue
		}
		filtered.Vehicles = append(filtered.Vehicles, v)
	}
	return filtered
}

func (v VehiclePosition) point() orb.Point {
	return orb.Point{v.Lon, v.Lat}
}
