package formatter

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
)

type responseBuilder struct{}

func newResponseBuilder() *responseBuilder { return &responseBuilder{} }

// NewResponseBuilder creates a new response builder for vehicle snapshots
func NewResponseBuilder() *responseBuilder {
	return newResponseBuilder()
}

// BuildJSON serializes a snapshot to JSON
func (rb *responseBuilder) BuildJSON(snap Snapshot) []byte {
	b, _ := json.Marshal(snap)
	return b
}

// BuildGeoJSON serializes a snapshot to a FeatureCollection of points in
// longitude/latitude.
func (rb *responseBuilder) BuildGeoJSON(snap Snapshot) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, v := range snap.Vehicles {
		f := geojson.NewFeature(v.point())
		f.ID = v.ID
		f.Properties["name"] = v.Name
		f.Properties["type"] = v.Type
		f.Properties["category"] = v.Category
		f.Properties["delay"] = v.Delay
		f.Properties["delay_text"] = v.DelayText
		f.Properties["timestamp"] = snap.Timestamp
		fc.Append(f)
	}
	return fc.MarshalJSON()
}
