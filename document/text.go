package document

import (
	"strings"
	"unicode/utf16"
)

// ExtractText returns the text shown by the page's content streams.
// It reads the strings of the Tj, TJ, ' and " operators inside BT/ET blocks
// and inserts spaces at text positioning operators.
//
// Fonts with custom encodings, CIDFonts or ToUnicode CMaps are not
// interpreted, so the result for such text may be garbled.
func (p *Page) ExtractText() (string, error) {
	data, err := p.ContentStream()
	if err != nil {
		return "", err
	}
	return extractText(data), nil
}

// extractText scans a content stream for text showing operators.
func extractText(data []byte) string {
	var result strings.Builder
	var inText bool

	sc := newParser(data)
	for {
		sc.skipWhitespace()
		if sc.pos >= len(sc.data) {
			break
		}

		b := sc.data[sc.pos]
		switch {
		case b == '(' || (b == '<' && !sc.hasKeyword("<<")):
			obj, err := sc.parseObject()
			if err != nil {
				sc.pos++
				continue
			}
			if inText {
				result.WriteString(decodePDFString(obj.(String).Value))
			}
			continue

		case b == '[':
			arr, err := sc.parseArray()
			if err != nil {
				sc.pos++
				continue
			}
			if inText {
				writeTJ(&result, arr)
			}
			continue

		case b == '<' || b == '>' || b == ']' || b == '{' || b == '}' || b == ')':
			sc.pos++
			continue

		case b == '/':
			_, _ = sc.parseName()
			continue
		}

		switch tok := sc.readToken(); tok {
		case "":
			sc.pos++
		case "BT":
			inText = true
		case "ET":
			if inText {
				result.WriteByte(' ')
			}
			inText = false
		case "Td", "TD", "T*", "'", "\"":
			if inText {
				result.WriteByte(' ')
			}
		case "BI":
			skipInlineImage(sc)
		}
	}

	return strings.Join(strings.Fields(result.String()), " ")
}

// writeTJ writes the strings of a TJ array. Large negative adjustments are
// word gaps.
func writeTJ(w *strings.Builder, arr Array) {
	for _, item := range arr {
		switch v := item.(type) {
		case String:
			w.WriteString(decodePDFString(v.Value))
		case Integer, Real:
			if f, _ := toFloat(v); f < -200 {
				w.WriteByte(' ')
			}
		}
	}
}

// skipInlineImage advances past the binary data of an inline image.
func skipInlineImage(sc *parser) {
	for sc.pos+2 < len(sc.data) {
		if isWhitespace(sc.data[sc.pos]) && sc.data[sc.pos+1] == 'E' && sc.data[sc.pos+2] == 'I' &&
			(sc.pos+3 >= len(sc.data) || !isRegular(sc.data[sc.pos+3])) {
			sc.pos += 3
			return
		}
		sc.pos++
	}
	sc.pos = len(sc.data)
}

// decodePDFString attempts to decode a PDF string to a Go string.
// Handles UTF-16BE BOM and falls back to Latin-1.
func decodePDFString(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		return decodeUTF16BE(data[2:])
	}
	// PDFDocEncoding matches Latin-1 for printable characters.
	var buf strings.Builder
	for _, b := range data {
		buf.WriteRune(rune(b))
	}
	return buf.String()
}

// decodeUTF16BE decodes UTF-16BE encoded bytes to a Go string.
func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = append(data, 0)
	}
	u16s := make([]uint16, len(data)/2)
	for i := range u16s {
		u16s[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return string(utf16.Decode(u16s))
}
