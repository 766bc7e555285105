package main

import (
	"bytes"
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
)

// imageCanvas paints frames into an in-memory RGBA image.
type imageCanvas struct {
	mu sync.Mutex
	dc *gg.Context
}

func newImageCanvas(width, height int) *imageCanvas {
	return &imageCanvas{dc: gg.NewContext(width, height)}
}

func (c *imageCanvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dc.SetColor(color.Transparent)
	c.dc.Clear()
}

func (c *imageCanvas) DrawImage(img image.Image, x, y int) {
	if img == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dc.DrawImage(img, x, y)
}

// PNG encodes the current frame.
func (c *imageCanvas) PNG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var buf bytes.Buffer
	if err := c.dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
