package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/theoremus-urban-solutions/trajectory-tracker/formatter"
	"github.com/theoremus-urban-solutions/trajectory-tracker/layer"
	"github.com/theoremus-urban-solutions/trajectory-tracker/utils"
)

type server struct {
	layer  *layer.Layer
	view   *mercatorView
	canvas *imageCanvas
}

type frameStats struct {
	Drawn   int `json:"drawn"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

type markerStats struct {
	Cached int `json:"cached"`
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

type healthResponse struct {
	Status      string      `json:"status"`
	Generation  string      `json:"generation"`
	Vehicles    int         `json:"vehicles"`
	VirtualTime string      `json:"virtual_time"`
	LastFrame   frameStats  `json:"last_frame"`
	Markers     markerStats `json:"markers"`
}

type hitResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Type  int     `json:"type"`
	Delay float64 `json:"delay"`
}

func newServer(l *layer.Layer, view *mercatorView, canvas *imageCanvas) *server {
	return &server{layer: l, view: view, canvas: canvas}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/vehicles.json", s.handleVehiclesJSON)
	mux.HandleFunc("/api/vehicles.geojson", s.handleVehiclesGeoJSON)
	mux.HandleFunc("/api/frame.png", s.handleFrame)
	mux.HandleFunc("/api/view", s.handleView)
	mux.HandleFunc("/api/speed", s.handleSpeed)
	mux.HandleFunc("/api/vehicle", s.handleVehicleAt)
	mux.HandleFunc("/api/hover", s.handleHover)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{
		Status:      "ok",
		Generation:  s.layer.Generation(),
		Vehicles:    s.layer.Tracker().Len(),
		VirtualTime: utils.Iso8601(s.layer.Time()),
	}
	stats := s.layer.Stats()
	resp.LastFrame = frameStats{Drawn: stats.Drawn, Expired: stats.Expired, Failed: stats.Failed}
	resp.Markers.Cached = s.layer.Styles().Len()
	resp.Markers.Hits, resp.Markers.Misses = s.layer.Styles().Stats()
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *server) snapshot(r *http.Request) formatter.Snapshot {
	params := queryParams(r)
	snap := formatter.BuildSnapshot(s.layer.Tracker(), s.layer.Time(), s.layer.Speed())
	return formatter.FilterSnapshot(snap, params["name"], params["category"])
}

func (s *server) handleVehiclesJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(formatter.NewResponseBuilder().BuildJSON(s.snapshot(r)))
}

func (s *server) handleVehiclesGeoJSON(w http.ResponseWriter, r *http.Request) {
	buf, err := formatter.NewResponseBuilder().BuildGeoJSON(s.snapshot(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(buf)
}

func (s *server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var buf []byte
	_, err := s.layer.RenderCapture(func() (err error) {
		buf, err = s.canvas.PNG()
		return err
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf)
}

func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	center := s.view.CoordinateFromPixel(orb.Point{float64(s.view.width) / 2, float64(s.view.height) / 2})
	lonLat := project.Point(center, project.Mercator.ToWGS84)
	q, err := parseViewQuery(queryParams(r), viewQuery{Lon: lonLat[0], Lat: lonLat[1], Zoom: s.view.Zoom()})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.view.SetView(q.Lon, q.Lat, q.Zoom)
	s.view.RequestRender()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"lon":            q.Lon,
		"lat":            q.Lat,
		"zoom":           q.Zoom,
		"frame_interval": s.layer.Loop().Interval().Milliseconds(),
	})
}

func (s *server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	speed, err := parseFloat(queryParams(r), "value", s.layer.Speed())
	if err == nil {
		err = s.layer.SetSpeed(speed)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"speed":          s.layer.Speed(),
		"frame_interval": s.layer.Loop().Interval().Milliseconds(),
	})
}

// handleVehicleAt reports the vehicle drawn at a pixel of the last frame and
// dispatches it to the layer's click handlers.
func (s *server) handleVehicleAt(w http.ResponseWriter, r *http.Request) {
	x, y, err := parsePixel(queryParams(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	coord := s.view.CoordinateFromPixel(orb.Point{x, y})
	s.layer.HandleClick(coord, r)
	hit := s.layer.VehicleAtCoordinate(coord)
	if hit == nil {
		writeError(w, http.StatusNotFound, "No vehicle at this position.")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(hitResponse{ID: hit.ID, Name: hit.Name, Type: hit.Type, Delay: hit.Delay})
}

// handleHover moves the pointer to a pixel; the vehicle under it is drawn
// enlarged from the next frame on.
func (s *server) handleHover(w http.ResponseWriter, r *http.Request) {
	x, y, err := parsePixel(queryParams(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pointer := s.layer.HandlePointerMove(s.view.CoordinateFromPixel(orb.Point{x, y}))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"pointer": pointer,
		"hovered": s.layer.Hovered(),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buildErrorPayload(msg))
}

// serve runs the HTTP server until ctx is done, then shuts it down.
func serve(ctx context.Context, port int, handler http.Handler) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Printf("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Printf("server shut down successfully")
	return nil
}
