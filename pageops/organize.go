package pageops

import (
	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
)

// OrganizeOptions selects and rotates the pages of a reorganized document.
type OrganizeOptions struct {
	// Order lists the source page indices of the result. Indices outside the
	// source are skipped; repeated indices produce independent copies. A nil
	// Order keeps every page in its original order.
	Order []int

	// Rotate sets the rotation, in degrees, of the copies of a source page,
	// keyed by source index. Values are applied as given.
	Rotate map[int]int
}

// Organize builds a new document from the pages of doc as described by
// opts.
func Organize(doc *document.Document, opts OrganizeOptions) (*document.Document, error) {
	if doc == nil {
		return nil, pdfops.Errorf("Organize", pdfops.ErrValidation, "nil document")
	}

	order := opts.Order
	if order == nil {
		order = allPages(doc)
	}

	kept := make([]int, 0, len(order))
	for _, idx := range order {
		if idx >= 0 && idx < doc.PageCount() {
			kept = append(kept, idx)
		}
	}

	out := newDocument()
	pages, err := appendPages(out, doc, kept...)
	if err != nil {
		return nil, err
	}
	for i, page := range pages {
		if angle, ok := opts.Rotate[kept[i]]; ok {
			page.Rotate = angle
		}
	}
	return out, nil
}
