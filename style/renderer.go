package style

import (
	"fmt"
	"image"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/go-playground/validator/v10"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/theoremus-urban-solutions/trajectory-tracker/utils"
)

const (
	markerStroke = "#003300"
	margin       = 1
	// textRoom is the extra width right of the marker for the delay text.
	textRoom = 100
)

// Attrs are the vehicle attributes a marker is drawn from.
type Attrs struct {
	Category  int
	Label     string
	Color     string
	TextColor string
	Delay     float64
}

// Visual is a rendered marker. Anchor is the pixel of Image that sits on
// the vehicle position.
type Visual struct {
	Image  image.Image
	Anchor image.Point
}

// Renderer rasterizes markers with gg.
type Renderer struct {
	mu             sync.Mutex
	regular        *truetype.Font
	bold           *truetype.Font
	faces          map[faceKey]font.Face
	validate       *validator.Validate
	outline        string
	hoverIncrement int
	labelMinZoom   int
	delayStyle     bool
}

type faceKey struct {
	bold bool
	size float64
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithOutlineColor sets the colour around the delay text.
func WithOutlineColor(hex string) RendererOption {
	return func(r *Renderer) { r.outline = hex }
}

// WithHoverIncrement sets how many pixels a hovered marker grows.
func WithHoverIncrement(px int) RendererOption {
	return func(r *Renderer) { r.hoverIncrement = px }
}

// WithLabelMinZoom sets the zoom above which labels are drawn.
func WithLabelMinZoom(zoom int) RendererOption {
	return func(r *Renderer) { r.labelMinZoom = zoom }
}

// WithDelayStyle toggles the delay halo and text.
func WithDelayStyle(enabled bool) RendererOption {
	return func(r *Renderer) { r.delayStyle = enabled }
}

// NewRenderer loads the bundled Go fonts.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	r := &Renderer{
		regular:        regular,
		bold:           bold,
		faces:          make(map[faceKey]font.Face),
		validate:       validator.New(),
		outline:        "#ffffff",
		hoverIncrement: 5,
		labelMinZoom:   12,
		delayStyle:     true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if !r.isHexColor(r.outline) {
		return nil, fmt.Errorf("invalid outline color %q", r.outline)
	}
	return r, nil
}

// OutlineColor returns the colour around the delay text.
func (r *Renderer) OutlineColor() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outline
}

// SetOutlineColor changes the colour around the delay text. Markers already
// rendered keep the old colour, so callers must drop cached visuals.
func (r *Renderer) SetOutlineColor(hex string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isHexColor(hex) {
		return fmt.Errorf("invalid outline color %q", hex)
	}
	r.outline = hex
	return nil
}

// Render draws the full marker for k.
func (r *Renderer) Render(k Key, a Attrs) (v Visual, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to render marker: %v", rec)
		}
	}()
	return r.render(k, a, true), nil
}

// Marker draws the circle only, without any text.
func (r *Renderer) Marker(k Key, a Attrs) Visual {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.render(k, a, false)
}

func (r *Renderer) render(k Key, a Attrs, withText bool) Visual {
	category := CategoryFor(a.Category)
	radius := Radius(a.Category, k.Zoom)
	if k.Hovered {
		radius += r.hoverIncrement
	}
	haloRadius := radius + 2
	origin := float64(haloRadius + margin)
	width := haloRadius*2 + margin*2 + textRoom
	height := haloRadius*2 + margin*2

	dc := gg.NewContext(width, height)

	if r.delayStyle {
		rounded := utils.RoundDelay(a.Delay)
		delayColor := BucketFor(rounded.Seconds).Color()

		dc.DrawCircle(origin, origin, float64(haloRadius))
		dc.SetHexColor(delayColor)
		dc.Fill()

		if withText {
			size := math.Max(14, math.Min(17, float64(radius)*1.2))
			dc.SetFontFace(r.face(true, size))
			r.drawOutlined(dc, rounded.Text, origin*2, origin, delayColor)
		}
	}

	fill := category.Background
	if r.isHexColor(a.Color) {
		fill = a.Color
	}
	dc.DrawCircle(origin, origin, float64(radius))
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetLineWidth(1)
	dc.SetHexColor(markerStroke)
	dc.Stroke()

	if withText && k.Zoom > r.labelMinZoom && drawableLabel(a.Label) {
		size := math.Max(float64(radius), 10)
		dc.SetFontFace(r.face(false, size))
		tw, _ := dc.MeasureString(a.Label)
		if tw < float64(width-6) && size < float64(height-6) {
			textColor := category.Text
			if r.isHexColor(a.TextColor) {
				textColor = a.TextColor
			}
			dc.SetHexColor(textColor)
			dc.DrawStringAnchored(a.Label, origin, origin, 0.5, 0.5)
		}
	}

	return Visual{
		Image:  dc.Image(),
		Anchor: image.Pt(int(origin), int(origin)),
	}
}

// drawOutlined draws s left-aligned and vertically centred on y, ringed by
// the outline colour.
func (r *Renderer) drawOutlined(dc *gg.Context, s string, x, y float64, fill string) {
	dc.SetHexColor(r.outline)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawStringAnchored(s, x+float64(dx), y+float64(dy), 0, 0.5)
		}
	}
	dc.SetHexColor(fill)
	dc.DrawStringAnchored(s, x, y, 0, 0.5)
}

// face must be called with mu held; truetype faces are not safe for
// concurrent use.
func (r *Renderer) face(bold bool, size float64) font.Face {
	key := faceKey{bold: bold, size: size}
	if f, ok := r.faces[key]; ok {
		return f
	}
	ttf := r.regular
	if bold {
		ttf = r.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size})
	r.faces[key] = f
	return f
}

func (r *Renderer) isHexColor(s string) bool {
	return s != "" && r.validate.Var(s, "hexcolor") == nil
}

func drawableLabel(s string) bool {
	return s != "" && utf8.ValidString(s)
}
