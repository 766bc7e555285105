package main

import (
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// earthCircumference is the web mercator world width in meters.
const earthCircumference = 2 * math.Pi * 6378137

// mercatorView is a fixed size web mercator viewport with no map engine
// behind it. Coordinates are EPSG:3857 meters.
type mercatorView struct {
	mu            sync.Mutex
	center        orb.Point
	zoom          float64
	width, height int
	beforeRender  []func()
	viewChange    []func()
}

func newMercatorView(lon, lat, zoom float64, width, height int) *mercatorView {
	return &mercatorView{
		center: project.Point(orb.Point{lon, lat}, project.WGS84.ToMercator),
		zoom:   zoom,
		width:  width,
		height: height,
	}
}

func resolutionAt(zoom float64) float64 {
	return earthCircumference / 256 / math.Pow(2, zoom)
}

func (v *mercatorView) PixelFromCoordinate(c orb.Point) (orb.Point, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	res := resolutionAt(v.zoom)
	return orb.Point{
		(c[0]-v.center[0])/res + float64(v.width)/2,
		(v.center[1]-c[1])/res + float64(v.height)/2,
	}, nil
}

// CoordinateFromPixel is the inverse of PixelFromCoordinate.
func (v *mercatorView) CoordinateFromPixel(px orb.Point) orb.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	res := resolutionAt(v.zoom)
	return orb.Point{
		v.center[0] + (px[0]-float64(v.width)/2)*res,
		v.center[1] - (px[1]-float64(v.height)/2)*res,
	}
}

func (v *mercatorView) Resolution() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return resolutionAt(v.zoom)
}

func (v *mercatorView) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

func (v *mercatorView) OnBeforeRender(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.beforeRender = append(v.beforeRender, fn)
}

func (v *mercatorView) OnViewChange(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.viewChange = append(v.viewChange, fn)
}

// SetView moves the viewport and notifies view change listeners.
func (v *mercatorView) SetView(lon, lat, zoom float64) {
	v.mu.Lock()
	v.center = project.Point(orb.Point{lon, lat}, project.WGS84.ToMercator)
	v.zoom = zoom
	listeners := append([]func(){}, v.viewChange...)
	v.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// RequestRender runs the before render hooks, as a map engine does ahead of
// painting.
func (v *mercatorView) RequestRender() {
	v.mu.Lock()
	hooks := append([]func(){}, v.beforeRender...)
	v.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
