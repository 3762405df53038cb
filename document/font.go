package document

import (
	"slices"
	"strings"

	"github.com/pdfwala/pdfops"
)

// Standard Type1 font families with metric tables.
const (
	Helvetica            = "Helvetica"
	HelveticaBold        = "Helvetica-Bold"
	HelveticaOblique     = "Helvetica-Oblique"
	HelveticaBoldOblique = "Helvetica-BoldOblique"
	TimesRoman           = "Times-Roman"
	Courier              = "Courier"
	CourierBold          = "Courier-Bold"
	CourierOblique       = "Courier-Oblique"
	CourierBoldOblique   = "Courier-BoldOblique"
)

// fontMetrics holds advance widths (1/1000 em) for WinAnsi codes 32..126.
type fontMetrics struct {
	widths       [95]int
	defaultWidth int
}

// Widths from the Adobe Core14 AFM files.
var (
	helveticaMetrics = &fontMetrics{
		defaultWidth: 556,
		widths: [95]int{
			278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278, // 32-47
			556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556, // 48-63
			1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778, // 64-79
			667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556, // 80-95
			333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556, // 96-111
			556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584, // 112-126
		},
	}
	helveticaBoldMetrics = &fontMetrics{
		defaultWidth: 556,
		widths: [95]int{
			278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
			556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333, 584, 584, 584, 611,
			975, 722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833, 722, 778,
			667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 333, 278, 333, 584, 556,
			333, 556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
			611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584,
		},
	}
	timesRomanMetrics = &fontMetrics{
		defaultWidth: 500,
		widths: [95]int{
			250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
			500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
			921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
			556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
			333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
			500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
		},
	}
	courierMetrics = monospaced(600)
)

func monospaced(w int) *fontMetrics {
	m := &fontMetrics{defaultWidth: w}
	for i := range m.widths {
		m.widths[i] = w
	}
	return m
}

var standardFonts = map[string]*fontMetrics{
	Helvetica:            helveticaMetrics,
	HelveticaOblique:     helveticaMetrics,
	HelveticaBold:        helveticaBoldMetrics,
	HelveticaBoldOblique: helveticaBoldMetrics,
	TimesRoman:           timesRomanMetrics,
	Courier:              courierMetrics,
	CourierBold:          courierMetrics,
	CourierOblique:       courierMetrics,
	CourierBoldOblique:   courierMetrics,
}

// Families returns the names accepted by EmbedFont, sorted.
func Families() []string {
	names := make([]string, 0, len(standardFonts))
	for name := range standardFonts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Font is a standard Type1 font embedded in a document.
type Font struct {
	Family string

	ref     Reference
	metrics *fontMetrics
	doc     *Document
}

// EmbedFont adds a reference to one of the standard fonts to the document.
// Embedding the same family twice returns the same Font.
func (d *Document) EmbedFont(family string) (*Font, error) {
	metrics, ok := standardFonts[family]
	if !ok {
		return nil, pdfops.Errorf("EmbedFont", pdfops.ErrValidation,
			"unsupported font %q (supported: %s)", family, strings.Join(Families(), ", "))
	}
	if f, ok := d.fonts[family]; ok {
		return f, nil
	}

	ref := d.allocate(Dict{
		"Type":     Name("Font"),
		"Subtype":  Name("Type1"),
		"BaseFont": Name(family),
		"Encoding": Name("WinAnsiEncoding"),
	})
	f := &Font{Family: family, ref: ref, metrics: metrics, doc: d}
	if d.fonts == nil {
		d.fonts = make(map[string]*Font)
	}
	d.fonts[family] = f
	return f, nil
}

// MeasureText returns the width of text set at size points.
func (f *Font) MeasureText(text string, size float64) float64 {
	total := 0
	for _, b := range encodeWinAnsi(text) {
		total += f.metrics.width(b)
	}
	return float64(total) * size / 1000
}

func (m *fontMetrics) width(b byte) int {
	if b >= 32 && b <= 126 {
		return m.widths[b-32]
	}
	return m.defaultWidth
}

// winAnsiSpecial maps the characters of the 0x80-0x9F range of
// WinAnsiEncoding.
var winAnsiSpecial = map[rune]byte{
	'€': 0x80, '‚': 0x82, 'ƒ': 0x83, '„': 0x84, '…': 0x85, '†': 0x86, '‡': 0x87,
	'ˆ': 0x88, '‰': 0x89, 'Š': 0x8A, '‹': 0x8B, 'Œ': 0x8C, 'Ž': 0x8E,
	'‘': 0x91, '’': 0x92, '“': 0x93, '”': 0x94, '•': 0x95,
	'–': 0x96, '—': 0x97, '˜': 0x98, '™': 0x99, 'š': 0x9A, '›': 0x9B, 'œ': 0x9C,
	'ž': 0x9E, 'Ÿ': 0x9F,
}

// encodeWinAnsi converts text to WinAnsiEncoding. Characters without a code
// are replaced by '?'.
func encodeWinAnsi(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		switch {
		case r >= 0x20 && r <= 0x7E, r >= 0xA0 && r <= 0xFF:
			out = append(out, byte(r))
		default:
			if b, ok := winAnsiSpecial[r]; ok {
				out = append(out, b)
			} else {
				out = append(out, '?')
			}
		}
	}
	return out
}
