// Package preview renders top-down heightmap images of the terrain for the
// debug server and the preview command.
package preview

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"witchwood/internal/profiling"
)

// MaxPixels bounds each side of a rendered or scaled image.
const MaxPixels = 4096

// ErrTooLarge is returned when a requested image exceeds MaxPixels per side.
var ErrTooLarge = errors.New("preview: image too large")

// HeightSource is sampled once per pixel.
type HeightSource interface {
	Height(x, z float64) float64
}

// Zones marks walkable areas; nil draws none.
type Zones interface {
	IsWithin(p mgl64.Vec2) bool
}

// Options describe the square world area to render.
type Options struct {
	Origin    mgl64.Vec2 // world corner at the top-left pixel
	Size      float64    // world units per side
	Pixels    int        // output pixels per side
	Amplitude float64    // height mapped to full white; 0 picks it from the data
	Zones     Zones
	Label     string
}

var (
	zoneTint = color.RGBA{R: 181, G: 140, B: 92, A: 255}
	lowTint  = color.RGBA{R: 24, G: 58, B: 32, A: 255}
	highTint = color.RGBA{R: 214, G: 222, B: 196, A: 255}
)

// Render samples heights on a Pixels x Pixels grid and shades them from
// dark forest green to pale grey. Zones are tinted path brown.
func Render(src HeightSource, opts Options) (*image.RGBA, error) {
	defer profiling.Track("preview.Render")()
	n := opts.Pixels
	if n < 1 {
		n = 1
	}
	if n > MaxPixels {
		return nil, ErrTooLarge
	}
	step := 0.0
	if n > 1 && opts.Size > 0 && !math.IsInf(opts.Size, 0) {
		step = opts.Size / float64(n-1)
	}

	heights := make([]float64, n*n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for py := 0; py < n; py++ {
		for px := 0; px < n; px++ {
			h := src.Height(opts.Origin.X()+float64(px)*step, opts.Origin.Y()+float64(py)*step)
			if math.IsNaN(h) || math.IsInf(h, 0) {
				h = 0
			}
			heights[py*n+px] = h
			lo, hi = math.Min(lo, h), math.Max(hi, h)
		}
	}
	if opts.Amplitude > 0 {
		lo, hi = -opts.Amplitude, opts.Amplitude
	}

	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for py := 0; py < n; py++ {
		for px := 0; px < n; px++ {
			t := 0.5
			if hi > lo {
				t = (heights[py*n+px] - lo) / (hi - lo)
			}
			c := shade(t)
			if opts.Zones != nil && opts.Zones.IsWithin(mgl64.Vec2{opts.Origin.X() + float64(px)*step, opts.Origin.Y() + float64(py)*step}) {
				c = blend(c, zoneTint, 0.6)
			}
			img.SetRGBA(px, py, c)
		}
	}
	if opts.Label != "" {
		drawLabel(img, opts.Label)
	}
	return img, nil
}

// Scale resamples src to width x height with Catmull-Rom filtering.
func Scale(src image.Image, width, height int) (*image.RGBA, error) {
	if width < 1 || height < 1 {
		return nil, errors.New("preview: scale target must be at least 1x1")
	}
	if width > MaxPixels || height > MaxPixels {
		return nil, ErrTooLarge
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// WritePNG encodes img to w.
func WritePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func shade(t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	return blend(lowTint, highTint, t)
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x)*(1-t) + float64(y)*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// drawLabel writes text in the top-left corner on a dark backing strip.
func drawLabel(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	width := d.MeasureString(text).Ceil() + 4
	strip := image.Rect(0, 0, width, face.Height+4).Intersect(img.Bounds())
	draw.Draw(img, strip, image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Over)
	d.Dot = fixed.P(2, face.Ascent+2)
	d.DrawString(text)
}
