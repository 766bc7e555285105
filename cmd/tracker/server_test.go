package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/trajectory-tracker/config"
	"github.com/theoremus-urban-solutions/trajectory-tracker/feed"
	"github.com/theoremus-urban-solutions/trajectory-tracker/formatter"
	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
	"github.com/theoremus-urban-solutions/trajectory-tracker/layer"
)

func init() {
	internal.SetLogger(nil)
}

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

const (
	centerLon = 23.32
	centerLat = 42.69
)

type staticFetcher struct{ records []feed.Record }

func (f staticFetcher) FetchTrajectories(context.Context, string) ([]feed.Record, error) {
	return f.records, nil
}

// parked is a vehicle standing at lon/lat for an hour from t0.
func parked(id string, lon, lat float64) feed.Record {
	p := project.Point(orb.Point{lon, lat}, project.WGS84.ToMercator)
	return feed.Record{
		ID:   id,
		Path: orb.LineString{p, p},
		Samples: []feed.Sample{
			{TimeMS: t0.UnixMilli(), Fraction: 0},
			{TimeMS: t0.Add(time.Hour).UnixMilli(), Fraction: 1},
		},
		Type:  3,
		Name:  "94",
		Delay: 90,
	}
}

func newTestServer(t *testing.T, records ...feed.Record) (*httptest.Server, *layer.Layer) {
	t.Helper()
	view := newMercatorView(centerLon, centerLat, 14, 400, 300)
	canvas := newImageCanvas(400, 300)
	opts := layer.OptionsFromConfig(config.Default())
	opts.URL = "trajectories"
	opts.Clock = clockwork.NewFakeClockAt(t0)

	l, err := layer.New(view, canvas, staticFetcher{records: records}, opts)
	require.NoError(t, err)
	t.Cleanup(l.Stop)
	require.NoError(t, l.Refresh(context.Background()))
	l.Render()

	srv := httptest.NewServer(newServer(l, view, canvas).routes())
	t.Cleanup(srv.Close)
	return srv, l
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestMercatorView_PixelRoundTrip(t *testing.T) {
	view := newMercatorView(centerLon, centerLat, 12, 800, 600)
	center := project.Point(orb.Point{centerLon, centerLat}, project.WGS84.ToMercator)

	px, err := view.PixelFromCoordinate(center)
	require.NoError(t, err)
	assert.InDelta(t, 400, px[0], 1e-6)
	assert.InDelta(t, 300, px[1], 1e-6)

	north := orb.Point{center[0], center[1] + 100*view.Resolution()}
	px, err = view.PixelFromCoordinate(north)
	require.NoError(t, err)
	assert.InDelta(t, 200, px[1], 1e-6, "y grows downwards")

	back := view.CoordinateFromPixel(orb.Point{123, 456})
	px, err = view.PixelFromCoordinate(back)
	require.NoError(t, err)
	assert.InDelta(t, 123, px[0], 1e-6)
	assert.InDelta(t, 456, px[1], 1e-6)
}

func TestResolutionAt(t *testing.T) {
	assert.InDelta(t, 156543.03, resolutionAt(0), 0.01)
	assert.InDelta(t, resolutionAt(10)/2, resolutionAt(11), 1e-9)
}

func TestHealth(t *testing.T) {
	srv, l := newTestServer(t, parked("bus-1", centerLon, centerLat))

	resp := get(t, srv.URL+"/api/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Vehicles)
	assert.Equal(t, l.Generation(), health.Generation)
	assert.Equal(t, "2026-03-02T08:00:00Z", health.VirtualTime)
	assert.Equal(t, 1, health.LastFrame.Drawn)
	assert.Equal(t, 1, health.Markers.Cached)
	assert.Equal(t, 1, health.Markers.Misses)
}

func TestHover(t *testing.T) {
	srv, l := newTestServer(t, parked("bus-1", centerLon, centerLat))

	resp := get(t, srv.URL+"/api/hover?x=201&y=151")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Pointer bool   `json:"pointer"`
		Hovered string `json:"hovered"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Pointer)
	assert.Equal(t, "bus-1", body.Hovered)
	assert.Equal(t, "bus-1", l.Hovered())

	resp = get(t, srv.URL+"/api/hover?x=5&y=5")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Pointer)
	assert.Empty(t, l.Hovered())

	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/hover?y=5").StatusCode)
}

func TestVehiclesJSON(t *testing.T) {
	srv, _ := newTestServer(t,
		parked("bus-1", centerLon, centerLat),
		parked("bus-2", centerLon+0.01, centerLat),
	)

	resp := get(t, srv.URL+"/api/vehicles.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap formatter.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Len(t, snap.Vehicles, 2)
	assert.InDelta(t, centerLon, snap.Vehicles[0].Lon, 1e-6)
	assert.Equal(t, "2m", snap.Vehicles[0].DelayText)

	resp = get(t, srv.URL+"/api/vehicles.json?category=tram")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Empty(t, snap.Vehicles)
}

func TestVehiclesGeoJSON(t *testing.T) {
	srv, _ := newTestServer(t, parked("bus-1", centerLon, centerLat))

	resp := get(t, srv.URL+"/api/vehicles.geojson")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
}

func TestFramePNG(t *testing.T) {
	srv, _ := newTestServer(t, parked("bus-1", centerLon, centerLat))

	resp := get(t, srv.URL+"/api/frame.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	_, _, _, a := img.At(200, 150).RGBA()
	assert.NotZero(t, a, "marker painted at the view center")
	_, _, _, a = img.At(5, 5).RGBA()
	assert.Zero(t, a, "background left transparent")
}

func TestVehicleAt(t *testing.T) {
	srv, _ := newTestServer(t, parked("bus-1", centerLon, centerLat))

	resp := get(t, srv.URL+"/api/vehicle?x=202&y=149")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hit hitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hit))
	assert.Equal(t, "bus-1", hit.ID)

	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/vehicle?x=10&y=10").StatusCode)
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/vehicle?x=10").StatusCode)
}

func TestView(t *testing.T) {
	srv, l := newTestServer(t)

	resp := get(t, srv.URL+"/api/view?zoom=10")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 400*time.Millisecond, l.Loop().Interval())

	tests := []string{"zoom=abc", "lat=89", "lon=-200", "zoom=NaN"}
	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			resp := get(t, srv.URL+"/api/view?"+q)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSpeed(t *testing.T) {
	srv, l := newTestServer(t)

	resp := get(t, srv.URL+"/api/speed?value=4")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4.0, l.Speed())
	assert.Equal(t, 90*time.Millisecond/4, l.Loop().Interval())

	resp = get(t, srv.URL+"/api/speed?value=-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 4.0, l.Speed())
}
