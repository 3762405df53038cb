package overlay

import (
	"fmt"
	"strconv"

	"github.com/pdfwala/pdfops/document"
)

const (
	pageNumberSize    = 12
	pageNumberMargin  = 30
	pageNumberOpacity = 0.8
	pageNumberFont    = document.Helvetica
)

// PageNumberOptions configures ApplyPageNumbers.
type PageNumberOptions struct {
	Position  Edge      // page edge (default: Bottom)
	Alignment Alignment // horizontal alignment (default: AlignCenter)
	StartPage int       // label of the first page; any integer
}

// PlacePageNumber returns the placement of the label of the page at
// pageIndex on a page of width w and height h. The label is
// pageIndex+startOffset.
func PlacePageNumber(w, h float64, pageIndex, startOffset int, font *document.Font, edge Edge, align Alignment) document.TextPlacement {
	label := strconv.Itoa(pageIndex + startOffset)
	textW := font.MeasureText(label, pageNumberSize)

	y := float64(pageNumberMargin)
	if edge == Top {
		y = h - pageNumberMargin
	}

	var x float64
	switch align {
	case AlignLeft:
		x = pageNumberMargin
	case AlignRight:
		x = w - textW - pageNumberMargin
	default: // AlignCenter
		x = (w - textW) / 2
	}

	return document.TextPlacement{
		Text:    label,
		Font:    font,
		Size:    pageNumberSize,
		X:       x,
		Y:       y,
		Opacity: pageNumberOpacity,
	}
}

// ApplyPageNumbers draws a page number on every page of doc.
func ApplyPageNumbers(doc *document.Document, opts PageNumberOptions) error {
	if _, err := ParseEdge(string(opts.Position)); err != nil {
		return err
	}
	if _, err := ParseAlignment(string(opts.Alignment)); err != nil {
		return err
	}

	font, err := doc.EmbedFont(pageNumberFont)
	if err != nil {
		return err
	}
	for i, page := range doc.Pages() {
		tp := PlacePageNumber(page.Width(), page.Height(), i, opts.StartPage, font, opts.Position, opts.Alignment)
		if err := page.DrawText(tp); err != nil {
			return fmt.Errorf("page number on page %d: %w", i, err)
		}
	}
	return nil
}
