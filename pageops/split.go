package pageops

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
)

// Split returns one single-page document per page of doc, in page order.
// Each page keeps its dimensions and rotation.
func Split(doc *document.Document) ([]*document.Document, error) {
	if doc == nil {
		return nil, pdfops.Errorf("Split", pdfops.ErrValidation, "nil document")
	}

	out := make([]*document.Document, 0, doc.PageCount())
	for i := range doc.PageCount() {
		single, err := Extract(doc, i)
		if err != nil {
			return nil, fmt.Errorf("splitting page %d: %w", i, err)
		}
		out = append(out, single)
	}
	return out, nil
}

// Extract returns a new document holding the pages of doc at indices, in
// the given order. Unlike Organize, an index outside the document is an
// error.
func Extract(doc *document.Document, indices ...int) (*document.Document, error) {
	if len(indices) == 0 {
		return nil, pdfops.Errorf("Extract", pdfops.ErrValidation, "no pages specified")
	}
	out := newDocument()
	if _, err := appendPages(out, doc, indices...); err != nil {
		return nil, err
	}
	return out, nil
}

// SplitToFiles splits a PDF into individual pages, saving each to outputDir.
// Files are named page_1.pdf, page_2.pdf, etc.
func SplitToFiles(inputPath, outputDir string) error {
	if info, err := os.Stat(outputDir); err != nil {
		return fmt.Errorf("pageops: output directory: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("pageops: %s is not a directory", outputDir)
	}

	doc, err := openFile(inputPath)
	if err != nil {
		return err
	}
	pages, err := Split(doc)
	if err != nil {
		return err
	}
	for i, page := range pages {
		if err := writeFile(page, filepath.Join(outputDir, PageFileName(i))); err != nil {
			return err
		}
	}
	return nil
}

// PageFileName returns the file name used for the page at index in split
// output.
func PageFileName(index int) string {
	return fmt.Sprintf("page_%d.pdf", index+1)
}
