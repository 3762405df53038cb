package document

import (
	"bytes"

	"github.com/pdfwala/pdfops"
)

// CopyPage copies the page at index of src into dst and returns the new
// page, owned by dst but not yet added to it.
//
// Every object the page transitively references is duplicated into dst's
// object table once per call. References back to the copied page point at the
// new page; references to other pages or to page-tree nodes become null.
// src is only read.
func CopyPage(src *Document, index int, dst *Document) (*Page, error) {
	pages, err := copyPages("CopyPage", src, []int{index}, dst)
	if err != nil {
		return nil, err
	}
	return pages[0], nil
}

// CopyPages copies the pages of src at indices into dst and returns the new
// pages in the same order, owned by dst but not yet added to it.
//
// Objects shared by several of the pages are copied once for the whole call.
// References between the listed pages point at their copies; a repeated index
// yields an independent page, and references to it resolve to its first copy.
func CopyPages(src *Document, indices []int, dst *Document) ([]*Page, error) {
	return copyPages("CopyPages", src, indices, dst)
}

func copyPages(op string, src *Document, indices []int, dst *Document) ([]*Page, error) {
	if src == nil || dst == nil {
		return nil, pdfops.Errorf(op, pdfops.ErrValidation, "nil document")
	}
	sources := make([]*Page, len(indices))
	for i, index := range indices {
		page, err := src.Page(index)
		if err != nil {
			return nil, err
		}
		sources[i] = page
	}

	c := &copier{src: src, dst: dst, mapped: make(map[int]int)}
	out := make([]*Page, len(sources))
	for i, page := range sources {
		out[i] = &Page{
			MediaBox: page.MediaBox,
			Rotate:   page.Rotate,
			ref:      dst.reserve(),
			doc:      dst,
		}
		if page.CropBox != nil {
			cb := *page.CropBox
			out[i].CropBox = &cb
		}
		if _, seen := c.mapped[page.ref]; !seen {
			c.mapped[page.ref] = out[i].ref
		}
	}

	for i, page := range sources {
		out[i].resources = c.copyDict(page.resources)
		out[i].extra = c.copyDict(page.extra)
		for _, ref := range page.contents {
			if r, ok := c.copyRef(ref).(Reference); ok {
				out[i].contents = append(out[i].contents, r)
			}
		}
	}
	return out, nil
}

// copier deep-copies objects from one document into another, copying each
// indirect object at most once.
type copier struct {
	src, dst *Document
	mapped   map[int]int // source object number -> destination object number
}

func (c *copier) copyRef(ref Reference) Object {
	if num, ok := c.mapped[ref.Number]; ok {
		return Reference{Number: num}
	}
	obj, ok := c.src.objects[ref.Number]
	if !ok {
		return Null{}
	}

	// Reserve the number first so that cycles resolve to it.
	num := c.dst.reserve()
	c.mapped[ref.Number] = num
	c.dst.objects[num] = c.copy(obj)
	return Reference{Number: num}
}

func (c *copier) copy(obj Object) Object {
	switch v := obj.(type) {
	case Reference:
		return c.copyRef(v)
	case Dict:
		return c.copyDict(v)
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = c.copy(item)
		}
		return out
	case Stream:
		dict := c.copyDict(v.Dict)
		// Rewritten on serialization.
		delete(dict, "Length")
		return Stream{Dict: dict, Data: bytes.Clone(v.Data)}
	case String:
		return String{Value: bytes.Clone(v.Value), IsHex: v.IsHex}
	default:
		return obj
	}
}

func (c *copier) copyDict(d Dict) Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		cv := c.copy(v)
		if _, isNull := cv.(Null); isNull {
			continue
		}
		out[k] = cv
	}
	return out
}
