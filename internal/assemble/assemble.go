// Package assemble turns an ordered set of page artifacts into a single
// paginated PDF, honoring page-size/DPI/fit configuration and drawing
// caption bands for pages that carry text.
package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"

	"github.com/jackzampolin/easel/internal/book"
)

// ErrImageEmbed indicates an artifact could not be decoded in any supported
// format.
var ErrImageEmbed = errors.New("failed to decode page image")

// DefaultDPI is the raster resolution for fixed print sizes when the spec
// does not set one.
const DefaultDPI = 300

// PageInput is one page to assemble, in document order.
type PageInput struct {
	Data      []byte
	MediaType string

	// Caption, when non-empty, is drawn in an opaque band over the
	// bottom portion of the page.
	Caption string
}

// Document is the full assembly request. A nil Print produces natural-size
// pages: each page's dimensions equal the artifact's native pixels, drawn
// edge to edge.
type Document struct {
	Pages []PageInput
	Print *book.PrintSpec
}

// Config configures an Assembler.
type Config struct {
	Logger *slog.Logger
}

// Assembler builds PDFs from page artifacts.
type Assembler struct {
	logger *slog.Logger
}

// New creates an Assembler.
func New(cfg Config) *Assembler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger.With("component", "assemble")}
}

// Build produces the paginated PDF.
func (a *Assembler) Build(doc *Document) ([]byte, error) {
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	var (
		rasters  []io.Reader
		widthPts float64
		heightPts float64
	)

	for i, page := range doc.Pages {
		img, err := decodeArtifact(page.Data, page.MediaType)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		composed, err := composePage(img, doc.Print, page.Caption)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, composed); err != nil {
			return nil, fmt.Errorf("page %d: failed to encode raster: %w", i, err)
		}
		rasters = append(rasters, bytes.NewReader(buf.Bytes()))
	}

	if doc.Print != nil {
		widthPts = doc.Print.WidthPoints()
		heightPts = doc.Print.HeightPoints()
	}

	pdf, err := buildPDF(rasters, widthPts, heightPts)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("document assembled", "pages", len(doc.Pages), "bytes", len(pdf))
	return pdf, nil
}

// composePage renders one page raster. With a print spec the canvas has the
// fixed physical size at the configured DPI and the artifact is fitted per
// the fit mode; otherwise the artifact's own pixels are the page.
func composePage(img image.Image, spec *book.PrintSpec, caption string) (image.Image, error) {
	canvas := layoutPage(img, spec)
	if caption != "" {
		if err := drawCaptionBand(canvas, caption); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}
