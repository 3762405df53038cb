package pageops

import (
	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
)

// Rotate turns pages of doc in place by angle degrees clockwise. angle must
// be a multiple of 90 (negative values turn counter-clockwise). If indices
// is nil, all pages are rotated.
func Rotate(doc *document.Document, angle int, indices []int) error {
	if doc == nil {
		return pdfops.Errorf("Rotate", pdfops.ErrValidation, "nil document")
	}
	if angle%90 != 0 {
		return pdfops.Errorf("Rotate", pdfops.ErrValidation,
			"rotation angle must be a multiple of 90, got %d", angle)
	}
	if indices == nil {
		indices = allPages(doc)
	}

	// Validate every index before touching any page.
	pages := make([]*document.Page, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		page, err := doc.Page(i)
		if err != nil {
			return err
		}
		if !seen[i] {
			seen[i] = true
			pages = append(pages, page)
		}
	}

	for _, page := range pages {
		page.Rotate = ((page.Rotate+angle)%360 + 360) % 360
	}
	return nil
}
