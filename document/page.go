package document

import (
	"fmt"

	"github.com/pdfwala/pdfops"
)

// Rectangle represents a PDF rectangle (typically [llx lly urx ury]).
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the width of the rectangle.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the height of the rectangle.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Letter is the US Letter media box assumed for pages that declare none.
var Letter = Rectangle{URX: 612, URY: 792}

func (r Rectangle) array() Array {
	return Array{Real(r.LLX), Real(r.LLY), Real(r.URX), Real(r.URY)}
}

// Page is a single page owned by exactly one Document.
//
// Content streams and resources are carried opaquely: they live in the owning
// document's object table and are never decoded except for text extraction.
type Page struct {
	MediaBox Rectangle
	CropBox  *Rectangle
	Rotate   int // degrees, written as-is

	resources Dict        // page resources; entries refer into the owner
	contents  []Reference // content streams in drawing order
	extra     Dict        // remaining page entries (annotations, group, ...)

	ref        int // object number of the page in the owner
	doc        *Document
	wrapped    bool // existing content already enclosed in q/Q
	nextSuffix int
}

// NewPage creates a blank page owned by d. The page is not part of the
// document until it is passed to AddPage.
func (d *Document) NewPage(mediaBox Rectangle) (*Page, error) {
	if mediaBox.Width() <= 0 || mediaBox.Height() <= 0 {
		return nil, pdfops.Errorf("NewPage", pdfops.ErrValidation,
			"media box %v has no area", mediaBox)
	}
	return &Page{
		MediaBox:  mediaBox,
		resources: make(Dict),
		extra:     make(Dict),
		ref:       d.reserve(),
		doc:       d,
	}, nil
}

// Document returns the document owning the page.
func (p *Page) Document() *Document { return p.doc }

// Width returns the width of the media box.
func (p *Page) Width() float64 { return p.MediaBox.Width() }

// Height returns the height of the media box.
func (p *Page) Height() float64 { return p.MediaBox.Height() }

// Resources returns a copy of the page's resource dictionary. Values that
// are references are left unresolved.
func (p *Page) Resources() Dict {
	return p.resources.Clone()
}

// ContentStream returns the decoded content of the page. If the page has
// multiple content streams, they are concatenated.
func (p *Page) ContentStream() ([]byte, error) {
	var result []byte
	for _, ref := range p.contents {
		s, ok := p.doc.objects[ref.Number].(Stream)
		if !ok {
			continue
		}
		decoded, err := decodeStream(s)
		if err != nil {
			return nil, fmt.Errorf("decoding content stream %d: %w", ref.Number, err)
		}
		result = append(result, decoded...)
		result = append(result, '\n')
	}
	return result, nil
}

// AppendContent adds a content stream drawn after the existing ones.
func (p *Page) AppendContent(data []byte) error {
	s, err := newContentStream(data)
	if err != nil {
		return pdfops.NewError("AppendContent", pdfops.ErrInternal, err)
	}
	p.contents = append(p.contents, p.doc.allocate(s))
	return nil
}

// newContentStream builds a Flate-compressed content stream.
func newContentStream(data []byte) (Stream, error) {
	compressed, err := flateEncode(data)
	if err != nil {
		return Stream{}, err
	}
	return Stream{
		Dict: Dict{"Filter": Name("FlateDecode")},
		Data: compressed,
	}, nil
}

// pageFromDict builds a Page from a page dictionary and the attributes it
// inherits from the page tree.
func (d *Document) pageFromDict(dict, inherited Dict, num int) (*Page, error) {
	page := &Page{
		MediaBox:  Letter,
		resources: make(Dict),
		extra:     make(Dict),
		ref:       num,
		doc:       d,
	}

	for k, v := range dict {
		switch k {
		case "Type", "Parent", "MediaBox", "CropBox", "Resources", "Rotate", "Contents":
		default:
			page.extra[k] = v
		}
	}

	if mb, ok := inherited["MediaBox"]; ok {
		rect, err := parseRectangle(d.resolve(mb))
		if err != nil {
			return nil, fmt.Errorf("media box: %w", err)
		}
		if rect.Width() <= 0 || rect.Height() <= 0 {
			return nil, fmt.Errorf("media box %v has no area", rect)
		}
		page.MediaBox = rect
	}

	if cb, ok := inherited["CropBox"]; ok {
		// An unusable crop box is dropped; viewers fall back to the media box.
		if rect, err := parseRectangle(d.resolve(cb)); err == nil {
			page.CropBox = &rect
		}
	}

	if res, ok := d.resolve(inherited["Resources"]).(Dict); ok {
		page.resources = res.Clone()
	}

	if rot, ok := toFloat(d.resolve(inherited["Rotate"])); ok {
		page.Rotate = int(rot)
	}

	page.contents = d.contentRefs(dict["Contents"])
	return page, nil
}

// contentRefs normalizes a /Contents value to a list of stream references.
func (d *Document) contentRefs(obj Object) []Reference {
	switch v := obj.(type) {
	case Reference:
		switch target := d.objects[v.Number].(type) {
		case Stream:
			return []Reference{v}
		case Array:
			return d.contentRefs(target)
		}
	case Array:
		var refs []Reference
		for _, item := range v {
			ref, ok := item.(Reference)
			if !ok {
				continue
			}
			if _, isStream := d.objects[ref.Number].(Stream); isStream {
				refs = append(refs, ref)
			}
		}
		return refs
	case Stream:
		return []Reference{d.allocate(v)}
	}
	return nil
}

// parseRectangle parses a PDF rectangle array [llx lly urx ury], normalizing
// the corners so that LLX <= URX and LLY <= URY.
func parseRectangle(obj Object) (Rectangle, error) {
	arr, ok := obj.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, fmt.Errorf("rectangle must be a 4-element array")
	}

	vals := make([]float64, 4)
	for i, v := range arr {
		f, ok := toFloat(v)
		if !ok {
			return Rectangle{}, fmt.Errorf("rectangle element %d is not numeric", i)
		}
		vals[i] = f
	}
	return Rectangle{
		LLX: min(vals[0], vals[2]),
		LLY: min(vals[1], vals[3]),
		URX: max(vals[0], vals[2]),
		URY: max(vals[1], vals[3]),
	}, nil
}
