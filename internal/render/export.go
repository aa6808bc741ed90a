package render

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgpdf"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrEmptyCanvas   = errors.New("nothing to export")
)

// DefaultPrefix names exported files.
const DefaultPrefix = "WattsUp-Diagram"

type Format int

const (
	PDF Format = iota
	JPEG
	PNG
)

// Formats lists every export format.
func Formats() []Format { return []Format{PDF, JPEG, PNG} }

func (f Format) String() string {
	switch f {
	case PDF:
		return "pdf"
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Ext is the file extension without the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return f.String()
}

// ContentType is the MIME type of the encoded output.
func (f Format) ContentType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "pdf":
		return PDF, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ExportConfig holds the exporter settings.
type ExportConfig struct {
	Dir         string
	Prefix      string
	JPEGQuality int
	Scale       float64
}

// Exporter captures a diagram and writes it in one of the export formats.
// The background grid is hidden while a capture is taken.
type Exporter struct {
	cfg    ExportConfig
	grid   *Grid
	logger *log.Logger
}

// NewExporter returns an exporter. A nil grid is treated as always hidden.
func NewExporter(cfg ExportConfig, grid *Grid, logger *log.Logger) *Exporter {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = jpeg.DefaultQuality
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if grid == nil {
		grid = NewGrid(false)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{cfg: cfg, grid: grid, logger: logger}
}

// FileName is the deterministic output name for f.
func (e *Exporter) FileName(f Format) string {
	return e.cfg.Prefix + "." + f.Ext()
}

// Path is FileName inside the configured directory.
func (e *Exporter) Path(f Format) string {
	return filepath.Join(e.cfg.Dir, e.FileName(f))
}

func (e *Exporter) capture(src Source) (*gg.Context, error) {
	restore := e.grid.Hide()
	defer restore()
	return rasterContext(src, RasterOptions{Scale: e.cfg.Scale, ShowGrid: e.grid.Visible()})
}

// Encode captures src and writes it to w in format f.
func (e *Exporter) Encode(w io.Writer, src Source, f Format) error {
	if f != PDF && f != JPEG && f != PNG {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	dc, err := e.capture(src)
	if err != nil {
		return err
	}
	return e.encode(w, dc, f)
}

func (e *Exporter) encode(w io.Writer, dc *gg.Context, f Format) error {
	switch f {
	case PNG:
		return dc.EncodePNG(w)
	case JPEG:
		return jpeg.Encode(w, dc.Image(), &jpeg.Options{Quality: e.cfg.JPEGQuality})
	case PDF:
		return writePDF(w, dc)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// writePDF places the capture on a single page sized to its pixel dimensions.
func writePDF(w io.Writer, dc *gg.Context) error {
	width, height := vg.Points(float64(dc.Width())), vg.Points(float64(dc.Height()))
	c := vgpdf.New(width, height)
	c.DrawImage(vg.Rectangle{Max: vg.Point{X: width, Y: height}}, dc.Image())
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Export writes src to Path(f) and returns that path.
func (e *Exporter) Export(ctx context.Context, src Source, f Format) (string, error) {
	if f != PDF && f != JPEG && f != PNG {
		return "", fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	dc, err := e.capture(src)
	if err != nil {
		return "", err
	}
	return e.writeFile(ctx, dc, f)
}

// ExportAll captures src once and writes every format concurrently.
func (e *Exporter) ExportAll(ctx context.Context, src Source) ([]string, error) {
	dc, err := e.capture(src)
	if err != nil {
		return nil, err
	}

	formats := Formats()
	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		g.Go(func() error {
			p, err := e.writeFile(ctx, dc, f)
			paths[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (e *Exporter) writeFile(ctx context.Context, dc *gg.Context, f Format) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := e.Path(f)
	if e.cfg.Dir != "" {
		if err := os.MkdirAll(e.cfg.Dir, 0o755); err != nil {
			return "", fmt.Errorf("create export directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", f, err)
	}
	if err := e.encode(file, dc, f); err != nil {
		file.Close()
		return "", fmt.Errorf("encode %s: %w", f, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	e.logger.Debug("exported", "format", f, "path", path)
	return path, nil
}
