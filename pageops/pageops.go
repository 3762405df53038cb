// Package pageops composes documents from the pages of other documents:
// merging, splitting, reordering, extracting and rotating pages.
//
// Every operation except Rotate builds new documents with document.CopyPages
// and leaves its inputs untouched.
package pageops

import (
	"fmt"
	"os"

	"github.com/pdfwala/pdfops/document"
)

// Producer is written to the information dictionary of composed documents.
const Producer = "pdfops"

func newDocument() *document.Document {
	return document.New(document.WithProducer(Producer))
}

// appendPages copies the pages of src at indices, in order, to the end of dst.
// Resources shared by those pages are copied once.
func appendPages(dst, src *document.Document, indices ...int) ([]*document.Page, error) {
	pages, err := document.CopyPages(src, indices, dst)
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if err := dst.AddPage(page); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

// allPages returns the indices of every page of doc.
func allPages(doc *document.Document) []int {
	indices := make([]int, doc.PageCount())
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// openFile parses the PDF file at path.
func openFile(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pageops: reading %s: %w", path, err)
	}
	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pageops: parsing %s: %w", path, err)
	}
	return doc, nil
}

// writeFile serializes doc to the file at path.
func writeFile(doc *document.Document, path string) error {
	data, err := doc.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pageops: writing %s: %w", path, err)
	}
	return nil
}
