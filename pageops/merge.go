package pageops

import (
	"fmt"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
)

// Merge combines docs into a new document.
// Pages are added in order: all pages from the first document, then all
// from the second, etc. At least two documents are required.
func Merge(docs ...*document.Document) (*document.Document, error) {
	if len(docs) < 2 {
		return nil, pdfops.Errorf("Merge", pdfops.ErrValidation,
			"at least 2 documents are required, got %d", len(docs))
	}

	out := newDocument()
	for i, src := range docs {
		if src == nil {
			return nil, pdfops.Errorf("Merge", pdfops.ErrValidation, "document %d is nil", i)
		}
		if _, err := appendPages(out, src, allPages(src)...); err != nil {
			return nil, fmt.Errorf("merging document %d: %w", i, err)
		}
	}
	return out, nil
}

// MergeFiles combines multiple PDF files into a single output file.
func MergeFiles(outputPath string, inputPaths ...string) error {
	docs := make([]*document.Document, 0, len(inputPaths))
	for _, path := range inputPaths {
		doc, err := openFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	merged, err := Merge(docs...)
	if err != nil {
		return err
	}
	return writeFile(merged, outputPath)
}
