package assemble

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// captionMaxBandFrac caps the caption band at a fraction of page height.
	captionMaxBandFrac = 0.25
	captionMinFontPx   = 10.0
)

var (
	captionBG = color.RGBA{R: 24, G: 24, B: 28, A: 255}
	captionFG = color.White
)

// drawCaptionBand renders the caption text in an opaque band anchored to the
// bottom of the canvas. Text wraps on word boundaries; lines that would
// overflow the band's height cap are dropped.
func drawCaptionBand(canvas *image.RGBA, text string) error {
	bounds := canvas.Bounds()
	pageW := bounds.Dx()
	pageH := bounds.Dy()

	fontPx := float64(pageW) / 28.0
	if fontPx < captionMinFontPx {
		fontPx = captionMinFontPx
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse caption font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    fontPx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to build caption face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	lineH := metrics.Height.Ceil()
	padding := lineH / 2

	maxBandH := int(float64(pageH) * captionMaxBandFrac)
	maxLines := (maxBandH - 2*padding) / lineH
	if maxLines < 1 {
		maxLines = 1
	}

	lines := wrapCaption(face, text, pageW-2*padding)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	bandH := len(lines)*lineH + 2*padding
	bandTop := pageH - bandH
	band := image.Rect(bounds.Min.X, bounds.Min.Y+bandTop, bounds.Max.X, bounds.Max.Y)
	draw.Draw(canvas, band, image.NewUniform(captionBG), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(captionFG),
		Face: face,
	}
	for i, line := range lines {
		width := drawer.MeasureString(line)
		x := (fixed.I(pageW) - width) / 2
		y := fixed.I(bounds.Min.Y+bandTop+padding+i*lineH) + metrics.Ascent
		drawer.Dot = fixed.Point26_6{X: x, Y: y}
		drawer.DrawString(line)
	}
	return nil
}

// wrapCaption breaks text into lines no wider than maxWidth pixels. A single
// word wider than the limit gets its own line rather than being split.
func wrapCaption(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	limit := fixed.I(maxWidth)
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate) > limit {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
