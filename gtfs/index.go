package gtfs

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Route is one row of routes.txt.
type Route struct {
	ID        string
	ShortName string
	LongName  string
	Type      int
	// Color and TextColor are "#rrggbb" or empty.
	Color     string
	TextColor string
}

// Index stores GTFS static routes and trips in memory for fast lookups
type Index struct {
	routes      map[string]Route  // route_id -> route
	tripToRoute map[string]string // trip_id -> route_id
}

func newIndex() *Index {
	return &Index{
		routes:      make(map[string]Route),
		tripToRoute: make(map[string]string),
	}
}

// NewIndexFromReader builds an index from a GTFS zip.
func NewIndexFromReader(r io.ReaderAt, size int64) (*Index, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open GTFS zip: %w", err)
	}
	g := newIndex()
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if name == "routes.txt" || name == "trips.txt" {
			if err := g.consumeCSV(f); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}
	return g, nil
}

// NewIndexFromBytes builds an index from raw zip bytes.
func NewIndexFromBytes(data []byte) (*Index, error) {
	return NewIndexFromReader(bytes.NewReader(data), int64(len(data)))
}

// LoadFile builds an index from a GTFS zip on disk.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return NewIndexFromReader(f, stat.Size())
}

// Route looks up a route by id.
func (g *Index) Route(routeID string) (Route, bool) {
	r, ok := g.routes[routeID]
	return r, ok
}

// RouteForTrip looks up the route a trip runs on.
func (g *Index) RouteForTrip(tripID string) (Route, bool) {
	routeID, ok := g.tripToRoute[tripID]
	if !ok {
		return Route{}, false
	}
	return g.Route(routeID)
}

// RouteCount returns the number of routes.
func (g *Index) RouteCount() int { return len(g.routes) }

// TripCount returns the number of trips.
func (g *Index) TripCount() int { return len(g.tripToRoute) }

// Category folds a GTFS route type onto the basic vehicle categories 0-8.
// Unknown types return -1.
func Category(routeType int) int {
	switch {
	case routeType >= 0 && routeType <= 8:
		return routeType
	case routeType == 11:
		return 3 // trolleybus
	case routeType == 12:
		return 2 // monorail
	case routeType >= 100 && routeType < 200:
		return 2
	case routeType >= 200 && routeType < 300:
		return 8
	case routeType >= 400 && routeType < 500:
		return 1
	case routeType >= 700 && routeType < 800, routeType == 800:
		return 3
	case routeType >= 900 && routeType < 1000:
		return 0
	case routeType == 1000, routeType == 1200:
		return 4
	case routeType >= 1300 && routeType < 1400:
		return 6
	case routeType == 1400:
		return 7
	}
	return -1
}
