package overlay

import (
	"fmt"
	"math"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
)

const (
	// DefaultWatermarkText is used when WatermarkOptions.Text is empty.
	DefaultWatermarkText = "CONFIDENTIAL"
	// DefaultWatermarkOpacity is the opacity the request layer defaults to.
	DefaultWatermarkOpacity = 0.3

	watermarkMargin   = 50
	watermarkRotation = 45
	watermarkFont     = document.Helvetica
)

// WatermarkOptions configures ApplyWatermark.
type WatermarkOptions struct {
	Text     string   // watermark text (default: CONFIDENTIAL)
	Opacity  float64  // 0.0 to 1.0, applied as given
	Position Position // anchor on the page (default: Center)
}

// PlaceWatermark returns the placement of a watermark on a page of width w
// and height h. The font size is a tenth of the smaller page dimension and
// the text is rotated 45 degrees around its anchor.
//
// The anchor is computed for unrotated text, so rotated text near an edge
// may extend past the page.
func PlaceWatermark(w, h float64, text string, font *document.Font, pos Position, opacity float64) document.TextPlacement {
	size := math.Min(w, h) / 10
	textW := font.MeasureText(text, size)

	var x, y float64
	switch pos {
	case TopLeft:
		x, y = watermarkMargin, h-watermarkMargin
	case TopRight:
		x, y = w-textW-watermarkMargin, h-watermarkMargin
	case BottomLeft:
		x, y = watermarkMargin, watermarkMargin
	case BottomRight:
		x, y = w-textW-watermarkMargin, watermarkMargin
	default: // Center
		x, y = (w-textW)/2, h/2
	}

	return document.TextPlacement{
		Text:     text,
		Font:     font,
		Size:     size,
		X:        x,
		Y:        y,
		Opacity:  opacity,
		Rotation: watermarkRotation,
	}
}

// ApplyWatermark draws a watermark on every page of doc.
func ApplyWatermark(doc *document.Document, opts WatermarkOptions) error {
	if opts.Text == "" {
		opts.Text = DefaultWatermarkText
	}
	if !(opts.Opacity >= 0 && opts.Opacity <= 1) {
		return pdfops.Errorf("ApplyWatermark", pdfops.ErrValidation, "opacity %v outside [0, 1]", opts.Opacity)
	}
	if _, err := ParsePosition(string(opts.Position)); err != nil {
		return err
	}

	font, err := doc.EmbedFont(watermarkFont)
	if err != nil {
		return err
	}
	for i, page := range doc.Pages() {
		tp := PlaceWatermark(page.Width(), page.Height(), opts.Text, font, opts.Position, opts.Opacity)
		if err := page.DrawText(tp); err != nil {
			return fmt.Errorf("watermark page %d: %w", i, err)
		}
	}
	return nil
}
