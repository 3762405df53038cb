package document

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pdfwala/pdfops"
)

// TextPlacement describes one run of text drawn on a page. X and Y are in
// page units relative to the media box origin; Rotation is in degrees,
// counter-clockwise around (X, Y).
type TextPlacement struct {
	Text     string
	Font     *Font
	Size     float64
	X, Y     float64
	Opacity  float64
	Rotation float64
}

func (tp TextPlacement) validate(p *Page) error {
	switch {
	case tp.Font == nil:
		return fmt.Errorf("no font")
	case tp.Font.doc != p.doc:
		return fmt.Errorf("font %s belongs to another document", tp.Font.Family)
	case !(tp.Size > 0) || math.IsInf(tp.Size, 0):
		return fmt.Errorf("font size %v must be positive", tp.Size)
	case !(tp.Opacity >= 0 && tp.Opacity <= 1):
		return fmt.Errorf("opacity %v outside [0, 1]", tp.Opacity)
	}
	for _, v := range []float64{tp.X, tp.Y, tp.Rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coordinate %v", v)
		}
	}
	return nil
}

// DrawText draws tp on top of the page content.
//
// The first call encloses the existing content in a q/Q pair so that any
// graphics state it leaves behind cannot leak into the overlay.
func (p *Page) DrawText(tp TextPlacement) error {
	if err := tp.validate(p); err != nil {
		return pdfops.NewError("DrawText", pdfops.ErrValidation, err)
	}
	if err := p.wrapContent(); err != nil {
		return pdfops.NewError("DrawText", pdfops.ErrInternal, err)
	}

	fontName := p.resourceName("Font", "F", tp.Font.ref)
	gsName := p.resourceName("ExtGState", "GS", p.doc.graphicsState(tp.Opacity))

	rad := tp.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	x := tp.X + p.MediaBox.LLX
	y := tp.Y + p.MediaBox.LLY

	var buf bytes.Buffer
	buf.WriteString("q\n")
	fmt.Fprintf(&buf, "%s gs\n", Name(gsName))
	buf.WriteString("BT\n")
	fmt.Fprintf(&buf, "%s %s Tf\n", Name(fontName), formatReal(tp.Size))
	fmt.Fprintf(&buf, "%s %s %s %s %s %s Tm\n",
		formatReal(cos), formatReal(sin), formatReal(-sin), formatReal(cos),
		formatReal(x), formatReal(y))
	writeLiteralString(&buf, encodeWinAnsi(tp.Text))
	buf.WriteString(" Tj\nET\nQ\n")

	if err := p.AppendContent(buf.Bytes()); err != nil {
		return err
	}
	if p.doc.Version < "1.4" {
		// Constant alpha in ExtGState requires PDF 1.4.
		p.doc.Version = "1.4"
	}
	return nil
}

// wrapContent encloses the existing content streams in q ... Q, once.
func (p *Page) wrapContent() error {
	if p.wrapped {
		return nil
	}
	p.wrapped = true
	if len(p.contents) == 0 {
		return nil
	}
	open, err := newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	closing, err := newContentStream([]byte("\nQ\n"))
	if err != nil {
		return err
	}
	contents := make([]Reference, 0, len(p.contents)+2)
	contents = append(contents, p.doc.allocate(open))
	contents = append(contents, p.contents...)
	contents = append(contents, p.doc.allocate(closing))
	p.contents = contents
	return nil
}

// resourceName returns the name under which ref is registered in the
// category sub-dictionary of the page resources, adding it under a fresh
// name when absent. The sub-dictionary is copied before it is modified, so
// resources shared with other pages are left untouched.
func (p *Page) resourceName(category Name, prefix string, ref Reference) Name {
	var sub Dict
	if existing, ok := p.doc.resolve(p.resources[category]).(Dict); ok {
		sub = existing.Clone()
	} else {
		sub = make(Dict)
	}

	for name, v := range sub {
		if r, ok := v.(Reference); ok && r.Number == ref.Number {
			p.resources[category] = sub
			return name
		}
	}

	var name Name
	for {
		p.nextSuffix++
		name = Name(fmt.Sprintf("%s_ov%d", prefix, p.nextSuffix))
		if _, taken := sub[name]; !taken {
			break
		}
	}
	sub[name] = ref
	p.resources[category] = sub
	return name
}

// graphicsState returns the ExtGState dictionary setting both fill and
// stroke alpha to opacity, creating it on first use.
func (d *Document) graphicsState(opacity float64) Reference {
	key := formatReal(opacity)
	if ref, ok := d.gstates[key]; ok {
		return ref
	}
	ref := d.allocate(Dict{
		"Type": Name("ExtGState"),
		"ca":   Real(opacity),
		"CA":   Real(opacity),
	})
	if d.gstates == nil {
		d.gstates = make(map[string]Reference)
	}
	d.gstates[key] = ref
	return ref
}
