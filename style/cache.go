package style

import (
	"math"
	"sync"

	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
	"github.com/theoremus-urban-solutions/trajectory-tracker/utils"
)

// Key identifies a cached marker.
//
// Colour overrides are not part of the key: vehicles sharing category,
// label and delay share a marker at a given zoom.
type Key struct {
	Zoom     int
	Category int
	Label    string
	Delay    float64 // seconds, rounded to the displayed unit
	Hovered  bool
}

// NewKey builds the key for a vehicle at a map zoom. The zoom is floored and
// capped at MaxZoom; delays that display alike share a key.
func NewKey(zoom float64, a Attrs, hovered bool) Key {
	z := 0
	if !math.IsNaN(zoom) {
		z = int(math.Floor(math.Max(0, math.Min(zoom, MaxZoom))))
	}
	delay := 0.0
	if !math.IsNaN(a.Delay) && !math.IsInf(a.Delay, 0) {
		delay = utils.RoundDelay(a.Delay).Seconds
	}
	return Key{Zoom: z, Category: a.Category, Label: a.Label, Delay: delay, Hovered: hovered}
}

// Cache memoizes rendered markers for the lifetime of a session.
type Cache struct {
	mu       sync.Mutex
	renderer *Renderer
	entries  map[Key]Visual
	hits     int
	misses   int
}

// NewCache returns an empty cache over renderer.
func NewCache(renderer *Renderer) *Cache {
	return &Cache{renderer: renderer, entries: make(map[Key]Visual)}
}

// Resolve returns the marker for k, rendering it on a miss. A marker that
// fails to render is replaced by a plain circle, which is cached as well.
func (c *Cache) Resolve(k Key, a Attrs) Visual {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[k]; ok {
		c.hits++
		return v
	}
	c.misses++

	v, err := c.renderer.Render(k, a)
	if err != nil {
		internal.Logf("[style] %v, falling back to plain marker", err)
		v = c.renderer.Marker(k, a)
	}
	c.entries[k] = v
	return v
}

// Invalidate drops every cached marker.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]Visual)
}

// SetDelayOutlineColor changes the delay text outline and drops the markers
// drawn with the previous colour.
func (c *Cache) SetDelayOutlineColor(hex string) error {
	if err := c.renderer.SetOutlineColor(hex); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Len returns the number of cached markers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
