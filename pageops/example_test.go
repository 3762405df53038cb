package pageops_test

import (
	"fmt"

	"github.com/pdfwala/pdfops/document"
	"github.com/pdfwala/pdfops/pageops"
)

// blankDoc creates a document with numPages empty Letter pages.
func blankDoc(numPages int) *document.Document {
	doc := document.New()
	for range numPages {
		page, _ := doc.NewPage(document.Letter)
		doc.AddPage(page)
	}
	return doc
}

// ExampleMerge demonstrates merging two documents.
func ExampleMerge() {
	merged, err := pageops.Merge(blankDoc(2), blankDoc(1))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("pages:", merged.PageCount())
	// Output:
	// pages: 3
}

// ExampleOrganize demonstrates reversing a document and rotating one page.
func ExampleOrganize() {
	out, err := pageops.Organize(blankDoc(3), pageops.OrganizeOptions{
		Order:  []int{2, 1, 0},
		Rotate: map[int]int{0: 90},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	for i, page := range out.Pages() {
		fmt.Printf("page %d: rotate %d\n", i, page.Rotate)
	}
	// Output:
	// page 0: rotate 0
	// page 1: rotate 0
	// page 2: rotate 90
}
