package render

import (
	"bytes"
	"context"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wattsup/internal/diagram"
)

func sampleCanvas(t *testing.T) *diagram.Canvas {
	t.Helper()
	c := diagram.NewCanvas(20)
	sw, _ := c.Place(diagram.Switch, diagram.Point{X: 0, Y: 0})
	light, _ := c.Place(diagram.Light, diagram.Point{X: 200, Y: 100})
	_, ok := c.Connect(sw.ID, light.ID)
	require.True(t, ok)
	return c
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"pdf": PDF, ".PNG": PNG, "jpg": JPEG, "jpeg": JPEG} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("svg")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileNamesAreDeterministic(t *testing.T) {
	e := NewExporter(ExportConfig{Dir: "/tmp/out"}, nil, nil)
	assert.Equal(t, "WattsUp-Diagram.pdf", e.FileName(PDF))
	assert.Equal(t, "WattsUp-Diagram.jpg", e.FileName(JPEG))
	assert.Equal(t, "WattsUp-Diagram.png", e.FileName(PNG))
	assert.Equal(t, filepath.Join("/tmp/out", "WattsUp-Diagram.png"), e.Path(PNG))

	custom := NewExporter(ExportConfig{Prefix: "Kitchen"}, nil, nil)
	assert.Equal(t, "Kitchen.png", custom.FileName(PNG))
}

func TestRasterizeFitsDrawing(t *testing.T) {
	img, err := Rasterize(sampleCanvas(t), RasterOptions{})
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, 200+2*rasterPadding, b.Dx())
	assert.Equal(t, 100+2*rasterPadding, b.Dy())

	img, err = Rasterize(sampleCanvas(t), RasterOptions{Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, 2*(200+2*rasterPadding), img.Bounds().Dx())

	_, err = Rasterize(diagram.NewCanvas(20), RasterOptions{})
	assert.ErrorIs(t, err, ErrEmptyCanvas)
}

func TestRasterizeFixedSizeAllowsEmptyCanvas(t *testing.T) {
	img, err := Rasterize(diagram.NewCanvas(20), RasterOptions{Width: 64, Height: 48, ShowGrid: true})
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	// Grid dots at every multiple of the grid size.
	r, _, _, _ := img.At(20, 20).RGBA()
	assert.Less(t, r, uint32(0xffff))
	r, _, _, _ = img.At(30, 30).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestEncodeHidesGridAndRestoresIt(t *testing.T) {
	grid := NewGrid(true)
	e := NewExporter(ExportConfig{}, grid, nil)

	var buf bytes.Buffer
	require.NoError(t, e.Encode(&buf, sampleCanvas(t), PNG))
	assert.True(t, grid.Visible())

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	// A grid point away from every symbol and wire stays blank.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, color.RGBAModel.Convert(img.At(rasterPadding+160, rasterPadding+20)))

	err = e.Encode(&buf, diagram.NewCanvas(20), PNG)
	assert.ErrorIs(t, err, ErrEmptyCanvas)
	assert.True(t, grid.Visible())

	assert.ErrorIs(t, e.Encode(&buf, sampleCanvas(t), Format(9)), ErrUnknownFormat)
}

func TestEncodeFormats(t *testing.T) {
	e := NewExporter(ExportConfig{JPEGQuality: 80}, nil, nil)
	src := sampleCanvas(t)

	var buf bytes.Buffer
	require.NoError(t, e.Encode(&buf, src, JPEG))
	_, err := jpeg.Decode(&buf)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, e.Encode(&buf, src, PDF))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExportAllWritesEveryFormat(t *testing.T) {
	dir := t.TempDir()
	grid := NewGrid(true)
	e := NewExporter(ExportConfig{Dir: dir}, grid, nil)

	paths, err := e.ExportAll(context.Background(), sampleCanvas(t))
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, f := range Formats() {
		info, err := os.Stat(filepath.Join(dir, e.FileName(f)))
		require.NoError(t, err, f.String())
		assert.Positive(t, info.Size())
	}
	assert.True(t, grid.Visible())
}

func TestExportHonoursCancelledContext(t *testing.T) {
	e := NewExporter(ExportConfig{Dir: t.TempDir()}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Export(ctx, sampleCanvas(t), PNG)
	assert.ErrorIs(t, err, context.Canceled)
}
