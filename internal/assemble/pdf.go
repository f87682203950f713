package assemble

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// buildPDF imports one raster per page into a fresh PDF. With non-zero point
// dimensions every page gets that exact media box; rasters for fixed specs
// are rendered at the page aspect ratio, so a relative scale of 1 fills the
// page edge to edge. With zero dimensions pdfcpu sizes each page to its
// raster (one pixel per point).
func buildPDF(rasters []io.Reader, widthPts, heightPts float64) ([]byte, error) {
	importSpec := "pos:full"
	if widthPts > 0 && heightPts > 0 {
		importSpec = fmt.Sprintf("dim:%.2f %.2f, pos:c, sc:1.0 rel", widthPts, heightPts)
	}

	imp, err := api.Import(importSpec, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to parse import config: %w", err)
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, rasters, imp, nil); err != nil {
		return nil, fmt.Errorf("failed to import page images: %w", err)
	}
	return out.Bytes(), nil
}
