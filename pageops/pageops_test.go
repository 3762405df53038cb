package pageops_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
	"github.com/pdfwala/pdfops/pageops"
)

// createTestDoc builds a document whose page i is 500+10i points wide and
// shows "<label> <i+1>".
func createTestDoc(t *testing.T, label string, numPages int) *document.Document {
	t.Helper()
	doc := document.New()
	font, err := doc.EmbedFont(document.Helvetica)
	if err != nil {
		t.Fatalf("embedding font: %v", err)
	}
	for i := range numPages {
		page, err := doc.NewPage(document.Rectangle{URX: 500 + float64(10*i), URY: 700})
		if err != nil {
			t.Fatalf("creating page: %v", err)
		}
		text := fmt.Sprintf("%s %d", label, i+1)
		if err := page.DrawText(document.TextPlacement{Text: text, Font: font, Size: 14, X: 20, Y: 30, Opacity: 1}); err != nil {
			t.Fatalf("drawing text: %v", err)
		}
		if err := doc.AddPage(page); err != nil {
			t.Fatalf("adding page: %v", err)
		}
	}
	return doc
}

// createTestPDF writes a test document to filename.
func createTestPDF(t *testing.T, filename, label string, numPages int) {
	t.Helper()
	data, err := createTestDoc(t, label, numPages).Serialize()
	if err != nil {
		t.Fatalf("serializing test PDF: %v", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		t.Fatalf("creating test PDF: %v", err)
	}
}

// labels returns the extracted text of every page, after a serialize/parse
// round trip.
func labels(t *testing.T, doc *document.Document) []string {
	t.Helper()
	data, err := doc.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed, err := document.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out []string
	for i, page := range parsed.Pages() {
		text, err := page.ExtractText()
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		out = append(out, text)
	}
	return out
}

func TestMerge(t *testing.T) {
	a := createTestDoc(t, "A", 2)
	b := createTestDoc(t, "B", 3)

	merged, err := pageops.Merge(a, b)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.PageCount() != 5 {
		t.Fatalf("expected 5 pages, got %d", merged.PageCount())
	}

	want := []string{"A 1", "A 2", "B 1", "B 2", "B 3"}
	if got := labels(t, merged); !slices.Equal(got, want) {
		t.Errorf("page order = %q, want %q", got, want)
	}
	if a.PageCount() != 2 || b.PageCount() != 3 {
		t.Errorf("sources changed: %d, %d pages", a.PageCount(), b.PageCount())
	}
}

func TestMergeNoInputs(t *testing.T) {
	for _, docs := range [][]*document.Document{nil, {createTestDoc(t, "A", 1)}} {
		_, err := pageops.Merge(docs...)
		if !errors.Is(err, pdfops.ErrValidation) {
			t.Errorf("merge of %d documents: expected validation error, got %v", len(docs), err)
		}
	}
}

func TestMergeCopiesSharedFontOncePerSource(t *testing.T) {
	merged, err := pageops.Merge(createTestDoc(t, "A", 4), createTestDoc(t, "B", 4))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	data, err := merged.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if n := bytes.Count(data, []byte("/BaseFont /Helvetica")); n != 2 {
		t.Errorf("merged output holds %d font objects, want one per source", n)
	}
	if got := labels(t, merged); len(got) != 8 || got[3] != "A 4" || got[4] != "B 1" {
		t.Errorf("labels = %q", got)
	}
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := filepath.Join(dir, "doc1.pdf")
	file2 := filepath.Join(dir, "doc2.pdf")
	output := filepath.Join(dir, "merged.pdf")

	createTestPDF(t, file1, "A", 2)
	createTestPDF(t, file2, "B", 3)

	if err := pageops.MergeFiles(output, file1, file2); err != nil {
		t.Fatalf("merge: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := document.Parse(data)
	if err != nil {
		t.Fatalf("reading merged PDF: %v", err)
	}
	if doc.PageCount() != 5 {
		t.Errorf("expected 5 pages, got %d", doc.PageCount())
	}
}

func TestSplit(t *testing.T) {
	doc := createTestDoc(t, "P", 3)
	page, _ := doc.Page(1)
	page.Rotate = 90

	parts, err := pageops.Split(doc)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(parts))
	}
	for i, part := range parts {
		if part.PageCount() != 1 {
			t.Errorf("part %d: expected 1 page, got %d", i, part.PageCount())
			continue
		}
		want := fmt.Sprintf("P %d", i+1)
		if got := labels(t, part); len(got) != 1 || got[0] != want {
			t.Errorf("part %d: text %q, want %q", i, got, want)
		}
	}

	rotated, _ := parts[1].Page(0)
	if rotated.Rotate != 90 {
		t.Errorf("rotation not preserved: %d", rotated.Rotate)
	}
}

func TestMergeSplitPreservesGeometry(t *testing.T) {
	doc := createTestDoc(t, "G", 4)
	for i, page := range doc.Pages() {
		page.Rotate = 90 * i
	}

	parts, err := pageops.Split(doc)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	merged, err := pageops.Merge(parts...)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	data, err := merged.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	reparsed, err := document.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if reparsed.PageCount() != doc.PageCount() {
		t.Fatalf("expected %d pages, got %d", doc.PageCount(), reparsed.PageCount())
	}
	for i, orig := range doc.Pages() {
		got, _ := reparsed.Page(i)
		if got.MediaBox != orig.MediaBox || got.Rotate != orig.Rotate {
			t.Errorf("page %d: box %v rotate %d, want box %v rotate %d",
				i, got.MediaBox, got.Rotate, orig.MediaBox, orig.Rotate)
		}
	}
}

func TestSplitToFiles(t *testing.T) {
	dir := t.TempDir()
	inputFile := filepath.Join(dir, "input.pdf")
	outputDir := filepath.Join(dir, "output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	createTestPDF(t, inputFile, "S", 3)

	if err := pageops.SplitToFiles(inputFile, outputDir); err != nil {
		t.Fatalf("split: %v", err)
	}

	for i := range 3 {
		data, err := os.ReadFile(filepath.Join(outputDir, pageops.PageFileName(i)))
		if err != nil {
			t.Errorf("page %d: %v", i+1, err)
			continue
		}
		doc, err := document.Parse(data)
		if err != nil {
			t.Errorf("page %d: %v", i+1, err)
			continue
		}
		if doc.PageCount() != 1 {
			t.Errorf("page %d: expected 1 page, got %d", i+1, doc.PageCount())
		}
	}
}

func TestExtract(t *testing.T) {
	doc := createTestDoc(t, "E", 5)

	out, err := pageops.Extract(doc, 3, 1)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := []string{"E 4", "E 2"}
	if got := labels(t, out); !slices.Equal(got, want) {
		t.Errorf("extracted %q, want %q", got, want)
	}

	if _, err := pageops.Extract(doc, 0, 5); !errors.Is(err, pdfops.ErrIndexOutOfRange) {
		t.Errorf("expected index error, got %v", err)
	}
	if _, err := pageops.Extract(doc); !errors.Is(err, pdfops.ErrValidation) {
		t.Errorf("expected validation error for no pages, got %v", err)
	}
}

func TestOrganize(t *testing.T) {
	doc := createTestDoc(t, "O", 3)

	tests := []struct {
		name   string
		opts   pageops.OrganizeOptions
		labels []string
	}{
		{"permutation", pageops.OrganizeOptions{Order: []int{2, 0, 1}}, []string{"O 3", "O 1", "O 2"}},
		{"skip out of range", pageops.OrganizeOptions{Order: []int{0, 5, -1}}, []string{"O 1"}},
		{"identity", pageops.OrganizeOptions{}, []string{"O 1", "O 2", "O 3"}},
		{"repeat", pageops.OrganizeOptions{Order: []int{1, 1}}, []string{"O 2", "O 2"}},
		{"empty order", pageops.OrganizeOptions{Order: []int{}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := pageops.Organize(doc, tt.opts)
			if err != nil {
				t.Fatalf("organize: %v", err)
			}
			if got := labels(t, out); !slices.Equal(got, tt.labels) {
				t.Errorf("pages %q, want %q", got, tt.labels)
			}
		})
	}
	if doc.PageCount() != 3 {
		t.Errorf("source changed: %d pages", doc.PageCount())
	}
}

func TestOrganizeRotate(t *testing.T) {
	doc := createTestDoc(t, "R", 2)

	out, err := pageops.Organize(doc, pageops.OrganizeOptions{
		Order:  []int{1, 0, 1},
		Rotate: map[int]int{1: 270},
	})
	if err != nil {
		t.Fatalf("organize: %v", err)
	}

	var got []int
	for _, page := range out.Pages() {
		got = append(got, page.Rotate)
	}
	if want := []int{270, 0, 270}; !slices.Equal(got, want) {
		t.Errorf("rotations %v, want %v", got, want)
	}
	src, _ := doc.Page(1)
	if src.Rotate != 0 {
		t.Errorf("source page rotated: %d", src.Rotate)
	}
}

func TestRotate(t *testing.T) {
	doc := createTestDoc(t, "T", 3)

	if err := pageops.Rotate(doc, 90, []int{0, 2}); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := pageops.Rotate(doc, -180, nil); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	var got []int
	for _, page := range doc.Pages() {
		got = append(got, page.Rotate)
	}
	if want := []int{270, 180, 270}; !slices.Equal(got, want) {
		t.Errorf("rotations %v, want %v", got, want)
	}
}

func TestInvalidRotation(t *testing.T) {
	doc := createTestDoc(t, "T", 2)

	if err := pageops.Rotate(doc, 45, nil); !errors.Is(err, pdfops.ErrValidation) {
		t.Errorf("expected validation error for invalid angle, got %v", err)
	}
	if err := pageops.Rotate(doc, 90, []int{0, 7}); !errors.Is(err, pdfops.ErrIndexOutOfRange) {
		t.Errorf("expected index error, got %v", err)
	}
	page, _ := doc.Page(0)
	if page.Rotate != 0 {
		t.Errorf("failed rotate changed page 0: %d", page.Rotate)
	}
}
