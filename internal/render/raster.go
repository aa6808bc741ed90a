package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"wattsup/internal/diagram"
)

// RasterOptions controls raster output. A zero Width or Height fits the image
// to the drawing plus a margin.
type RasterOptions struct {
	Width    int
	Height   int
	Scale    float64
	ShowGrid bool
}

const (
	rasterPadding = 40
	symbolRadius  = 12.0
	captionSize   = 11.0
)

var parseFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gomono.TTF)
})

// Rasterize draws src into an image.
func Rasterize(src Source, opts RasterOptions) (image.Image, error) {
	dc, err := rasterContext(src, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func rasterContext(src Source, opts RasterOptions) (*gg.Context, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	elements := src.Elements()

	origin := diagram.Point{}
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		lo, hi, ok := bounds(elements)
		if !ok {
			return nil, ErrEmptyCanvas
		}
		origin = diagram.Point{X: lo.X - rasterPadding, Y: lo.Y - rasterPadding}
		width = hi.X - lo.X + 2*rasterPadding
		height = hi.Y - lo.Y + 2*rasterPadding
	}

	dc := gg.NewContext(int(math.Ceil(float64(width)*scale)), int(math.Ceil(float64(height)*scale)))
	dc.SetColor(color.White)
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(float64(-origin.X), float64(-origin.Y))

	f, err := parseFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    captionSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()
	dc.SetFontFace(face)

	if opts.ShowGrid {
		drawGridDots(dc, src.GridSize(), origin, width, height)
	}

	dc.SetRGB(0.25, 0.25, 0.25)
	dc.SetLineWidth(2)
	for _, w := range src.Wires() {
		start, end, ok := src.Resolve(w)
		if !ok {
			continue
		}
		dc.DrawLine(float64(start.Pos.X), float64(start.Pos.Y), float64(end.Pos.X), float64(end.Pos.Y))
		dc.Stroke()
	}

	for _, el := range elements {
		drawSymbol(dc, el)
	}
	return dc, nil
}

func drawGridDots(dc *gg.Context, grid int, origin diagram.Point, width, height int) {
	if grid <= 0 {
		return
	}
	dc.SetRGB(0.85, 0.85, 0.85)
	x0 := diagram.Snap(origin.X, grid)
	y0 := diagram.Snap(origin.Y, grid)
	for y := y0; y <= origin.Y+height; y += grid {
		for x := x0; x <= origin.X+width; x += grid {
			dc.DrawCircle(float64(x), float64(y), 1)
		}
	}
	dc.Fill()
}

// Palette returns the stroke and fill colours used for t.
func Palette(t diagram.ElementType) (stroke, fill colorful.Color) {
	hue := float64(t) * 360 / float64(len(diagram.ElementTypes()))
	stroke = colorful.Hsv(hue, 0.65, 0.7)
	fill = stroke.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.85)
	return stroke, fill
}

func drawSymbol(dc *gg.Context, el diagram.Element) {
	x, y := float64(el.Pos.X), float64(el.Pos.Y)
	r := symbolRadius
	stroke, fill := Palette(el.Type)
	text, placeholder := displayText(el)

	if el.Type == diagram.Label {
		if placeholder {
			dc.SetRGB(0.6, 0.6, 0.6)
		} else {
			dc.SetRGB(0.1, 0.1, 0.1)
		}
		dc.DrawStringAnchored(text, x, y, 0, 0.5)
		return
	}

	square := func() {
		dc.DrawRectangle(x-r, y-r, 2*r, 2*r)
	}
	circle := func() {
		dc.DrawCircle(x, y, r)
	}
	letter := func(s string) {
		dc.SetColor(stroke)
		dc.DrawStringAnchored(s, x, y, 0.5, 0.35)
	}
	outline := func(shape func()) {
		shape()
		dc.SetColor(fill)
		dc.FillPreserve()
		dc.SetColor(stroke)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	switch el.Type {
	case diagram.Outlet:
		outline(circle)
		dc.SetLineWidth(2)
		dc.DrawLine(x-4, y-5, x-4, y+5)
		dc.DrawLine(x+4, y-5, x+4, y+5)
		dc.Stroke()
	case diagram.USBOutlet:
		outline(func() { dc.DrawRoundedRectangle(x-r, y-r, 2*r, 2*r, 4) })
		dc.DrawRectangle(x-6, y-6, 12, 4)
		dc.DrawRectangle(x-6, y+2, 12, 4)
		dc.Fill()
	case diagram.GFCIOutlet:
		outline(circle)
		letter("G")
	case diagram.Switch:
		outline(square)
		letter("S")
	case diagram.ThreeWaySwitch:
		outline(square)
		letter("S3")
	case diagram.FourWaySwitch:
		outline(square)
		letter("S4")
	case diagram.Light:
		outline(circle)
		d := r * math.Sqrt2 / 2
		dc.DrawLine(x-d, y-d, x+d, y+d)
		dc.DrawLine(x-d, y+d, x+d, y-d)
		dc.Stroke()
	case diagram.CeilingFan:
		outline(circle)
		for i := 0; i < 4; i++ {
			a := float64(i)*math.Pi/2 + math.Pi/4
			dc.DrawLine(x, y, x+r*math.Cos(a), y+r*math.Sin(a))
		}
		dc.Stroke()
		dc.DrawCircle(x, y, 2.5)
		dc.Fill()
	case diagram.SmartSwitch:
		outline(square)
		letter("S")
		dc.DrawCircle(x+r-4, y-r+4, 2.5)
		dc.Fill()
	case diagram.JunctionBox:
		outline(square)
		letter("J")
	}

	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored(text, x, y+r+4, 0.5, 1)
}
