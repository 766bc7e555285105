package feed

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/theoremus-urban-solutions/trajectory-tracker/shape"
	"github.com/theoremus-urban-solutions/trajectory-tracker/tracking"
	"github.com/theoremus-urban-solutions/trajectory-tracker/utils"
)

// Sample is one raw (time, fraction) pair.
type Sample struct {
	TimeMS   int64
	Fraction float64
}

// Record is a raw trajectory as published by a feed.
type Record struct {
	ID           string
	Path         orb.LineString
	Samples      []Sample
	TimeOffsetMS int64
	Type         int
	Name         string
	Color        string
	TextColor    string
	Delay        float64
}

// Trajectory converts r into a trackable trajectory tagged with source.
// The result is not validated.
func (r Record) Trajectory(source string) *tracking.Trajectory {
	intervals := make([]tracking.Interval, len(r.Samples))
	for i, s := range r.Samples {
		intervals[i] = tracking.Interval{Time: utils.FromUnixMillis(s.TimeMS), Fraction: s.Fraction}
	}
	return &tracking.Trajectory{
		ID:         r.ID,
		Intervals:  intervals,
		TimeOffset: time.Duration(r.TimeOffsetMS) * time.Millisecond,
		Geometry:   shape.New(r.Path),
		Type:       r.Type,
		Name:       r.Name,
		Color:      r.Color,
		TextColor:  r.TextColor,
		Delay:      r.Delay,
		Source:     source,
	}
}
