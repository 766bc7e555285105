package feed

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
)

// Decode parses a GeoJSON FeatureCollection into records. Features that are
// not line strings or lack usable samples are skipped and logged.
func Decode(data []byte) ([]Record, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trajectories: %w", err)
	}

	records := make([]Record, 0, len(fc.Features))
	for i, f := range fc.Features {
		rec, err := decodeFeature(f)
		if err != nil {
			internal.Logf("[feed] skipping feature %d: %v", i, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeFeature(f *geojson.Feature) (Record, error) {
	id := featureID(f)
	if id == "" {
		return Record{}, errors.New("missing id")
	}

	var path orb.LineString
	switch g := f.Geometry.(type) {
	case orb.LineString:
		path = g
	case orb.MultiLineString:
		for _, ls := range g {
			path = append(path, ls...)
		}
	default:
		return Record{}, fmt.Errorf("%s: unsupported geometry %T", id, f.Geometry)
	}

	samples, err := decodeSamples(f.Properties["time_intervals"])
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", id, err)
	}

	p := f.Properties
	return Record{
		ID:           id,
		Path:         path,
		Samples:      samples,
		TimeOffsetMS: int64(numberProp(p, "time_offset")),
		Type:         int(numberProp(p, "type")),
		Name:         stringProp(p, "name"),
		Color:        stringProp(p, "color"),
		TextColor:    stringProp(p, "text_color"),
		Delay:        numberProp(p, "delay"),
	}, nil
}

// Feeds are loose about property types, so missing or mistyped values fall
// back to zero instead of rejecting the feature.

func numberProp(p geojson.Properties, key string) float64 {
	if f, ok := p[key].(float64); ok {
		return f
	}
	return 0
}

func stringProp(p geojson.Properties, key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func featureID(f *geojson.Feature) string {
	switch v := f.ID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if id, ok := f.Properties["id"]; ok {
		return fmt.Sprint(id)
	}
	return ""
}

func decodeSamples(raw any) ([]Sample, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("time_intervals must be a list, got %T", raw)
	}
	samples := make([]Sample, 0, len(list))
	for i, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("time_intervals[%d] must be a [time, fraction] pair", i)
		}
		ts, ok1 := pair[0].(float64)
		frac, ok2 := pair[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("time_intervals[%d] must hold numbers", i)
		}
		samples = append(samples, Sample{TimeMS: int64(ts), Fraction: frac})
	}
	return samples, nil
}
