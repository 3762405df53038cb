// Package overlay computes where watermark and page-number text goes on a
// page and draws it with document.Page.DrawText.
//
// Placement functions are pure: they take the page size and a font and
// return a document.TextPlacement. The Apply functions compute one placement
// per page and draw it in place.
package overlay

import (
	"github.com/pdfwala/pdfops"
)

// Position is the anchor of a watermark on the page.
type Position string

// Watermark positions.
const (
	Center      Position = "center"
	TopLeft     Position = "topLeft"
	TopRight    Position = "topRight"
	BottomLeft  Position = "bottomLeft"
	BottomRight Position = "bottomRight"
)

// ParsePosition converts a request value to a Position. The empty string
// selects Center.
func ParsePosition(s string) (Position, error) {
	switch p := Position(s); p {
	case "":
		return Center, nil
	case Center, TopLeft, TopRight, BottomLeft, BottomRight:
		return p, nil
	}
	return "", pdfops.Errorf("ParsePosition", pdfops.ErrValidation, "unknown watermark position %q", s)
}

// Edge is the page edge page numbers are placed along.
type Edge string

// Page number edges.
const (
	Bottom Edge = "bottom"
	Top    Edge = "top"
)

// ParseEdge converts a request value to an Edge. The empty string selects
// Bottom.
func ParseEdge(s string) (Edge, error) {
	switch e := Edge(s); e {
	case "":
		return Bottom, nil
	case Bottom, Top:
		return e, nil
	}
	return "", pdfops.Errorf("ParseEdge", pdfops.ErrValidation, "unknown page number position %q", s)
}

// Alignment is the horizontal alignment of page numbers.
type Alignment string

// Page number alignments.
const (
	AlignCenter Alignment = "center"
	AlignLeft   Alignment = "left"
	AlignRight  Alignment = "right"
)

// ParseAlignment converts a request value to an Alignment. The empty string
// selects AlignCenter.
func ParseAlignment(s string) (Alignment, error) {
	switch a := Alignment(s); a {
	case "":
		return AlignCenter, nil
	case AlignCenter, AlignLeft, AlignRight:
		return a, nil
	}
	return "", pdfops.Errorf("ParseAlignment", pdfops.ErrValidation, "unknown alignment %q", s)
}
