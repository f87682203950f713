package assemble

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/jackzampolin/easel/internal/book"
)

// decodeArtifact decodes page image bytes. The declared media type is tried
// first; if it lies, the common formats are attempted before giving up.
func decodeArtifact(data []byte, mediaType string) (image.Image, error) {
	decoders := []func([]byte) (image.Image, error){}

	switch mediaType {
	case "image/jpeg":
		decoders = append(decoders, decodeJPEG, decodePNG, decodeWebP)
	case "image/webp":
		decoders = append(decoders, decodeWebP, decodePNG, decodeJPEG)
	default:
		decoders = append(decoders, decodePNG, decodeJPEG, decodeWebP)
	}

	for _, decode := range decoders {
		if img, err := decode(data); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("%w: media type %q", ErrImageEmbed, mediaType)
}

func decodePNG(data []byte) (image.Image, error)  { return png.Decode(bytes.NewReader(data)) }
func decodeJPEG(data []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(data)) }
func decodeWebP(data []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(data)) }

// layoutPage produces the page canvas. Fixed print sizes rasterize at the
// configured DPI with the artifact fitted per the fit mode; natural size
// adopts the artifact's pixels directly.
func layoutPage(img image.Image, spec *book.PrintSpec) *image.RGBA {
	if spec == nil {
		canvas := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)
		return canvas
	}

	dpi := spec.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	pageW := int(spec.WidthInches * float64(dpi))
	pageH := int(spec.HeightInches * float64(dpi))

	canvas := image.NewRGBA(image.Rect(0, 0, pageW, pageH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	target := fitRect(img.Bounds().Dx(), img.Bounds().Dy(), pageW, pageH, spec.Fit)
	draw.CatmullRom.Scale(canvas, target, img, img.Bounds(), draw.Over, nil)
	return canvas
}

// fitRect computes the destination rectangle for an imgW x imgH artifact on
// a pageW x pageH canvas. Contain letterboxes inside the page; cover scales
// past the page edges so the canvas is fully covered, centered either way.
func fitRect(imgW, imgH, pageW, pageH int, fit book.FitMode) image.Rectangle {
	sx := float64(pageW) / float64(imgW)
	sy := float64(pageH) / float64(imgH)

	var scale float64
	if fit == book.FitCover {
		scale = sx
		if sy > sx {
			scale = sy
		}
	} else {
		scale = sx
		if sy < sx {
			scale = sy
		}
	}

	w := int(float64(imgW)*scale + 0.5)
	h := int(float64(imgH)*scale + 0.5)
	x := (pageW - w) / 2
	y := (pageH - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
