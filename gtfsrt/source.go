package gtfsrt

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"

	"github.com/theoremus-urban-solutions/trajectory-tracker/feed"
	"github.com/theoremus-urban-solutions/trajectory-tracker/gtfs"
	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
)

// DefaultHold is how long a vehicle stays at its last reported position.
const DefaultHold = time.Minute

// Source is a feed.Fetcher over a GTFS-RT Vehicle Positions feed.
type Source struct {
	client         *feed.Client
	clock          clockwork.Clock
	tripUpdatesURL string
	routeTypes     map[string]int
	static         *gtfs.Index
	defaultType    int
	hold           time.Duration

	mu    sync.Mutex
	known map[string]track
}

// track is what Source remembers of one vehicle between fetches.
type track struct {
	prev, cur Vehicle
	hasPrev   bool
	// offsetMS is fixed when cur is first seen so that repeated fetches of
	// the same report replay identically.
	offsetMS int64
}

// Option configures a Source.
type Option func(*Source)

// WithTripUpdates reads trip delays from a Trip Updates feed.
func WithTripUpdates(url string) Option {
	return func(s *Source) { s.tripUpdatesURL = url }
}

// WithRouteTypes maps route id prefixes to vehicle categories. The longest
// matching prefix wins.
func WithRouteTypes(m map[string]int) Option {
	return func(s *Source) { s.routeTypes = m }
}

// WithStaticIndex labels vehicles from GTFS static routes: category, short
// name and colors. Routes it does not know fall back to the prefix table.
func WithStaticIndex(idx *gtfs.Index) Option {
	return func(s *Source) { s.static = idx }
}

// WithDefaultType sets the category of routes matching no prefix.
func WithDefaultType(category int) Option {
	return func(s *Source) { s.defaultType = category }
}

// WithClock sets the clock used to measure report lag.
func WithClock(c clockwork.Clock) Option {
	return func(s *Source) { s.clock = c }
}

// WithHold sets how long a vehicle stays at its last reported position.
func WithHold(d time.Duration) Option {
	return func(s *Source) { s.hold = d }
}

// NewSource creates a source fetching through client.
func NewSource(client *feed.Client, opts ...Option) *Source {
	s := &Source{
		client:      client,
		clock:       clockwork.NewRealClock(),
		defaultType: 3,
		hold:        DefaultHold,
		known:       make(map[string]track),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchTrajectories fetches the Vehicle Positions feed at url and returns
// one record per vehicle.
func (s *Source) FetchTrajectories(ctx context.Context, url string) ([]feed.Record, error) {
	data, err := s.client.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	snap, err := ParseVehiclePositions(data)
	if err != nil {
		return nil, err
	}

	delays := map[string]float64{}
	if s.tripUpdatesURL != "" {
		if data, err := s.client.Fetch(ctx, s.tripUpdatesURL); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			internal.Logf("[gtfsrt] trip updates unavailable: %v", err)
		} else if delays, err = ParseTripDelays(data); err != nil {
			internal.Logf("[gtfsrt] trip updates unreadable: %v", err)
			delays = map[string]float64{}
		}
	}

	nowMS := s.clock.Now().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]track, len(snap.Vehicles))
	for id, v := range snap.Vehicles {
		tr, ok := s.known[id]
		switch {
		case !ok:
			tr = track{cur: v, offsetMS: nowMS - v.Timestamp*1000}
		case v.Timestamp > tr.cur.Timestamp:
			tr = track{prev: tr.cur, cur: v, hasPrev: true, offsetMS: nowMS - tr.cur.Timestamp*1000}
		}
		next[id] = tr
	}
	s.known = next

	ids := make([]string, 0, len(next))
	for id := range next {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]feed.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, s.record(next[id], delays))
	}
	return records, nil
}

func (s *Source) record(tr track, delays map[string]float64) feed.Record {
	cur := tr.cur
	holdMS := s.hold.Milliseconds()
	rec := feed.Record{
		ID:           cur.ID,
		TimeOffsetMS: tr.offsetMS,
		Type:         s.category(cur.RouteID),
		Name:         cur.Label,
		Delay:        delays[cur.TripID],
	}
	if route, ok := s.staticRoute(cur); ok {
		if c := gtfs.Category(route.Type); c >= 0 {
			rec.Type = c
		}
		if rec.Name == "" {
			rec.Name = route.ShortName
		}
		rec.Color = route.Color
		rec.TextColor = route.TextColor
	}
	if rec.Name == "" {
		rec.Name = cur.RouteID
	}

	curMS := cur.Timestamp * 1000
	if !tr.hasPrev {
		rec.Path = orb.LineString{cur.Position, cur.Position}
		rec.Samples = []feed.Sample{{TimeMS: curMS, Fraction: 0}, {TimeMS: curMS + holdMS, Fraction: 0}}
		return rec
	}
	rec.Path = orb.LineString{tr.prev.Position, cur.Position}
	rec.Samples = []feed.Sample{
		{TimeMS: tr.prev.Timestamp * 1000, Fraction: 0},
		{TimeMS: curMS, Fraction: 1},
		{TimeMS: curMS + holdMS, Fraction: 1},
	}
	return rec
}

func (s *Source) staticRoute(v Vehicle) (gtfs.Route, bool) {
	if s.static == nil {
		return gtfs.Route{}, false
	}
	if v.RouteID != "" {
		if r, ok := s.static.Route(v.RouteID); ok {
			return r, true
		}
	}
	return s.static.RouteForTrip(v.TripID)
}

func (s *Source) category(routeID string) int {
	best, bestLen := s.defaultType, -1
	for prefix, category := range s.routeTypes {
		if strings.HasPrefix(routeID, prefix) && len(prefix) > bestLen {
			best, bestLen = category, len(prefix)
		}
	}
	return best
}
