package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
	"github.com/pdfwala/pdfops/overlay"
	"github.com/pdfwala/pdfops/pageops"
)

// Output file names.
const (
	MergedName      = "merged.pdf"
	OrganizedName   = "organized.pdf"
	RotatedName     = "rotated.pdf"
	WatermarkedName = "watermarked.pdf"
	NumberedName    = "numbered.pdf"
	TextName        = "extracted_text.txt"
)

// Merge concatenates the pages of files, in order. Inputs are parsed
// concurrently.
func (e *Engine) Merge(ctx context.Context, files []File) (*Result, error) {
	var result *Result
	err := e.job(ctx, "Merge", func() error {
		if len(files) < 2 {
			return pdfops.Errorf("Merge", pdfops.ErrValidation,
				"at least 2 files are required, got %d", len(files))
		}
		if err := e.checkFiles("Merge", files...); err != nil {
			return err
		}

		docs := make([]*document.Document, len(files))
		g, gctx := errgroup.WithContext(ctx)
		for i, f := range files {
			g.Go(func() error {
				doc, err := e.parse(gctx, f)
				if err != nil {
					return err
				}
				docs[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var merged *document.Document
		if err := e.step(ctx, "Merge", func() error {
			var err error
			merged, err = pageops.Merge(docs...)
			return err
		}); err != nil {
			return err
		}

		var err error
		result, err = e.serialize(ctx, MergedName, merged)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Split returns one single-page PDF per page of file, named page_N.pdf.
// Outputs are serialized concurrently.
func (e *Engine) Split(ctx context.Context, file File) ([]Result, error) {
	var results []Result
	err := e.job(ctx, "Split", func() error {
		if err := e.checkFiles("Split", file); err != nil {
			return err
		}
		doc, err := e.parse(ctx, file)
		if err != nil {
			return err
		}

		var parts []*document.Document
		if err := e.step(ctx, "Split", func() error {
			var err error
			parts, err = pageops.Split(doc)
			return err
		}); err != nil {
			return err
		}

		results = make([]Result, len(parts))
		g, gctx := errgroup.WithContext(ctx)
		for i, part := range parts {
			g.Go(func() error {
				r, err := e.serialize(gctx, pageops.PageFileName(i), part)
				if err != nil {
					return fmt.Errorf("page %d: %w", i+1, err)
				}
				results[i] = *r
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Organize reorders, drops, duplicates and rotates the pages of file.
func (e *Engine) Organize(ctx context.Context, file File, params pageops.OrganizeOptions) (*Result, error) {
	return e.transform(ctx, "Organize", OrganizedName, file, func(doc *document.Document) (*document.Document, error) {
		return pageops.Organize(doc, params)
	})
}

// Rotate turns the selected pages of file, all of them when params.Pages is
// nil.
func (e *Engine) Rotate(ctx context.Context, file File, params RotateParams) (*Result, error) {
	return e.transform(ctx, "Rotate", RotatedName, file, func(doc *document.Document) (*document.Document, error) {
		if err := pageops.Rotate(doc, params.Angle, params.Pages); err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// Watermark draws a watermark on every page of file.
func (e *Engine) Watermark(ctx context.Context, file File, params overlay.WatermarkOptions) (*Result, error) {
	return e.transform(ctx, "Watermark", WatermarkedName, file, func(doc *document.Document) (*document.Document, error) {
		if err := overlay.ApplyWatermark(doc, params); err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// PageNumbers draws a page number on every page of file.
func (e *Engine) PageNumbers(ctx context.Context, file File, params overlay.PageNumberOptions) (*Result, error) {
	return e.transform(ctx, "PageNumbers", NumberedName, file, func(doc *document.Document) (*document.Document, error) {
		if err := overlay.ApplyPageNumbers(doc, params); err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// ExtractText returns the text of every page of file as a plain text
// result. Pages are separated by a blank line.
func (e *Engine) ExtractText(ctx context.Context, file File) (*Result, error) {
	var result *Result
	err := e.job(ctx, "ExtractText", func() error {
		if err := e.checkFiles("ExtractText", file); err != nil {
			return err
		}
		doc, err := e.parse(ctx, file)
		if err != nil {
			return err
		}
		return e.step(ctx, "ExtractText", func() error {
			texts := make([]string, 0, doc.PageCount())
			for i, page := range doc.Pages() {
				text, err := page.ExtractText()
				if err != nil {
					return pdfops.NewError("ExtractText", pdfops.ErrCorruptDocument, fmt.Errorf("page %d: %w", i, err))
				}
				texts = append(texts, text)
			}
			result = &Result{
				Name:        TextName,
				ContentType: ContentTypeText,
				Data:        []byte(strings.Join(texts, "\n\n")),
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Info describes a parsed document.
type Info struct {
	Version   string            `json:"version"`
	PageCount int               `json:"pageCount"`
	Metadata  document.Metadata `json:"metadata"`
	Pages     []PageInfo        `json:"pages"`
}

// PageInfo describes the geometry of one page.
type PageInfo struct {
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Rotate int     `json:"rotate"`
}

// Inspect parses file and reports its version, metadata and page geometry.
func (e *Engine) Inspect(ctx context.Context, file File) (*Info, error) {
	var info *Info
	err := e.job(ctx, "Inspect", func() error {
		if err := e.checkFiles("Inspect", file); err != nil {
			return err
		}
		doc, err := e.parse(ctx, file)
		if err != nil {
			return err
		}
		info = &Info{
			Version:   doc.Version,
			PageCount: doc.PageCount(),
			Metadata:  doc.Metadata,
			Pages:     make([]PageInfo, 0, doc.PageCount()),
		}
		for i, page := range doc.Pages() {
			info.Pages = append(info.Pages, PageInfo{
				Index:  i,
				Width:  page.Width(),
				Height: page.Height(),
				Rotate: page.Rotate,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}
