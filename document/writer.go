package document

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/pdfwala/pdfops"
)

// Fixed object numbers of the regenerated document structure.
const (
	catalogNum  = 1
	pageTreeNum = 2
)

// Serialize encodes the document as a PDF file with a classic
// cross-reference table.
//
// Objects are renumbered by a deterministic walk (catalog, page tree, then
// each page followed by the objects it references with dictionary keys in
// sorted order, then the remaining catalog entries, then the information
// dictionary), so equal documents always produce identical bytes. Objects no
// page or catalog entry reaches are not written.
func (d *Document) Serialize() ([]byte, error) {
	s := &serializer{
		doc:   d,
		nums:  make(map[int]int),
		pages: make(map[int]*Page, len(d.pages)),
		next:  pageTreeNum + 1,
	}
	for _, p := range d.pages {
		if p.doc != d {
			return nil, pdfops.Errorf("Serialize", pdfops.ErrInternal, "page owned by another document")
		}
		s.pages[p.ref] = p
	}
	return s.encode(), nil
}

// WriteTo writes the serialized document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Serialize()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// newRef is a reference that is already expressed in output numbering.
type newRef int

func (newRef) pdfObject()       {}
func (r newRef) String() string { return fmt.Sprintf("%d 0 R", int(r)) }

type serializer struct {
	doc   *Document
	nums  map[int]int   // object or page number -> output number
	pages map[int]*Page // pages by object number
	order []int         // object or page numbers in output order, from pageTreeNum+1
	next  int
}

func (s *serializer) assign(num int) {
	s.nums[num] = s.next
	s.next++
	s.order = append(s.order, num)
}

// visit numbers every object reachable from obj that has no number yet.
// Pages are numbered when first seen, but their own references are walked
// in page order.
func (s *serializer) visit(obj Object) {
	switch v := obj.(type) {
	case Reference:
		if _, done := s.nums[v.Number]; done {
			return
		}
		if _, isPage := s.pages[v.Number]; isPage {
			s.assign(v.Number)
			return
		}
		target, ok := s.doc.objects[v.Number]
		if !ok {
			return
		}
		s.assign(v.Number)
		s.visit(target)
	case Dict:
		for _, k := range sortedKeys(v) {
			s.visit(v[k])
		}
	case Array:
		for _, item := range v {
			s.visit(item)
		}
	case Stream:
		for _, k := range sortedKeys(v.Dict) {
			if k != "Length" {
				s.visit(v.Dict[k])
			}
		}
	}
}

func (s *serializer) encode() []byte {
	d := s.doc

	for _, p := range d.pages {
		if _, done := s.nums[p.ref]; !done {
			s.assign(p.ref)
		}
		s.visit(p.resources)
		for _, ref := range p.contents {
			s.visit(ref)
		}
		s.visit(p.extra)
	}
	s.visit(d.catalog)

	info := d.infoDict()
	infoNum := 0
	if info != nil {
		infoNum = s.next
		s.next++
	}
	size := s.next

	var buf bytes.Buffer
	version := d.Version
	if version == "" {
		version = DefaultVersion
	}
	buf.WriteString("%PDF-" + version + "\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, size)
	writeIndirect := func(num int, obj Object) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", num)
		s.writeObject(&buf, obj)
		buf.WriteString("\nendobj\n")
	}

	catalog := d.catalog.Clone()
	if catalog == nil {
		catalog = make(Dict)
	}
	catalog["Type"] = Name("Catalog")
	catalog["Pages"] = newRef(pageTreeNum)
	writeIndirect(catalogNum, catalog)

	kids := make(Array, len(d.pages))
	for i, p := range d.pages {
		kids[i] = newRef(s.nums[p.ref])
	}
	writeIndirect(pageTreeNum, Dict{
		"Type":  Name("Pages"),
		"Kids":  kids,
		"Count": Integer(len(d.pages)),
	})

	for _, num := range s.order {
		if p, isPage := s.pages[num]; isPage {
			writeIndirect(s.nums[num], p.dict())
			continue
		}
		writeIndirect(s.nums[num], d.objects[num])
	}
	if info != nil {
		writeIndirect(infoNum, info)
	}

	digest := md5.Sum(buf.Bytes())
	id := String{Value: digest[:], IsHex: true}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < size; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}

	trailer := Dict{
		"Size": Integer(size),
		"Root": newRef(catalogNum),
		"ID":   Array{id, id},
	}
	if info != nil {
		trailer["Info"] = newRef(infoNum)
	}
	buf.WriteString("trailer\n")
	s.writeObject(&buf, trailer)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes()
}

// dict regenerates the page dictionary.
func (p *Page) dict() Dict {
	d := p.extra.Clone()
	if d == nil {
		d = make(Dict)
	}
	d["Type"] = Name("Page")
	d["Parent"] = newRef(pageTreeNum)
	d["MediaBox"] = p.MediaBox.array()
	if p.CropBox != nil {
		d["CropBox"] = p.CropBox.array()
	}
	if p.Rotate != 0 {
		d["Rotate"] = Integer(p.Rotate)
	}
	d["Resources"] = p.resources
	switch len(p.contents) {
	case 0:
	case 1:
		d["Contents"] = p.contents[0]
	default:
		contents := make(Array, len(p.contents))
		for i, ref := range p.contents {
			contents[i] = ref
		}
		d["Contents"] = contents
	}
	return d
}

// infoDict builds the document information dictionary, or nil when there
// is no metadata.
func (d *Document) infoDict() Dict {
	if d.Metadata.IsZero() {
		return nil
	}
	info := make(Dict)
	m := d.Metadata
	for _, f := range m.infoFields() {
		if *f.val != "" {
			info[f.key] = encodeTextString(*f.val)
		}
	}
	if !m.CreationDate.IsZero() {
		info["CreationDate"] = String{Value: []byte(formatDate(m.CreationDate))}
	}
	if !m.ModDate.IsZero() {
		info["ModDate"] = String{Value: []byte(formatDate(m.ModDate))}
	}
	return info
}

func (s *serializer) writeObject(buf *bytes.Buffer, obj Object) {
	switch v := obj.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Boolean, Integer, newRef:
		buf.WriteString(v.String())
	case Real:
		buf.WriteString(formatReal(float64(v)))
	case Name:
		writeName(buf, v)
	case String:
		if v.IsHex {
			fmt.Fprintf(buf, "<%X>", v.Value)
		} else {
			writeLiteralString(buf, v.Value)
		}
	case Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			s.writeObject(buf, item)
		}
		buf.WriteByte(']')
	case Dict:
		buf.WriteString("<<")
		for _, k := range sortedKeys(v) {
			writeName(buf, k)
			buf.WriteByte(' ')
			s.writeObject(buf, v[k])
		}
		buf.WriteString(">>")
	case Stream:
		dict := v.Dict.Clone()
		if dict == nil {
			dict = make(Dict)
		}
		dict["Length"] = Integer(len(v.Data))
		s.writeObject(buf, dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	case Reference:
		if s == nil {
			fmt.Fprintf(buf, "%d %d R", v.Number, v.Generation)
		} else if num, ok := s.nums[v.Number]; ok {
			fmt.Fprintf(buf, "%d 0 R", num)
		} else {
			buf.WriteString("null")
		}
	default:
		buf.WriteString("null")
	}
}

func sortedKeys(d Dict) []Name {
	return slices.Sorted(maps.Keys(d))
}

// writeName writes a name object, escaping bytes outside the regular
// printable range as #xx.
func writeName(buf *bytes.Buffer, n Name) {
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		b := n[i]
		if b < 0x21 || b > 0x7E || b == '#' || isDelimiter(b) {
			fmt.Fprintf(buf, "#%02X", b)
			continue
		}
		buf.WriteByte(b)
	}
}

// writeLiteralString writes data as a literal string.
func writeLiteralString(buf *bytes.Buffer, data []byte) {
	buf.WriteByte('(')
	for _, b := range data {
		switch b {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\r':
			buf.WriteString(`\r`)
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte(')')
}

// formatReal formats v with at most six decimals and no trailing zeros.
func formatReal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	str := strconv.FormatFloat(v, 'f', 6, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimSuffix(str, ".")
	if str == "-0" {
		return "0"
	}
	return str
}

// encodeTextString encodes s as a PDF text string: Latin-1 compatible text
// is written as is, anything else as UTF-16BE with a byte order mark.
func encodeTextString(s string) String {
	latin := true
	for _, r := range s {
		if !(r >= 0x20 && r <= 0x7E || r >= 0xA0 && r <= 0xFF) {
			latin = false
			break
		}
	}
	if latin {
		out := make([]byte, 0, len(s))
		for _, r := range s {
			out = append(out, byte(r))
		}
		return String{Value: out}
	}

	u16 := utf16.Encode([]rune(s))
	out := make([]byte, 2, 2+2*len(u16))
	out[0], out[1] = 0xFE, 0xFF
	for _, c := range u16 {
		out = append(out, byte(c>>8), byte(c))
	}
	return String{Value: out, IsHex: true}
}

// formatDate formats t as a PDF date string (D:YYYYMMDDHHmmSSOHH'mm').
func formatDate(t time.Time) string {
	out := "D:" + t.Format("20060102150405")
	_, offset := t.Zone()
	if offset == 0 {
		return out + "Z"
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%s%c%02d'%02d'", out, sign, offset/3600, offset%3600/60)
}

// parseDate parses a PDF date string. Missing trailing fields default to
// their minimum; a missing time zone means UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")

	fields := []int{0, 1, 1, 0, 0, 0}
	widths := []int{4, 2, 2, 2, 2, 2}
	pos := 0
	for i, w := range widths {
		if pos+w > len(s) || !isDigits(s[pos:pos+w]) {
			if i == 0 {
				return time.Time{}, false
			}
			break
		}
		fields[i], _ = strconv.Atoi(s[pos : pos+w])
		pos += w
	}

	loc := time.UTC
	if pos < len(s) && (s[pos] == '+' || s[pos] == '-') {
		rest := strings.ReplaceAll(s[pos+1:], "'", "")
		hh, mm := 0, 0
		if len(rest) >= 2 && isDigits(rest[:2]) {
			hh, _ = strconv.Atoi(rest[:2])
		}
		if len(rest) >= 4 && isDigits(rest[2:4]) {
			mm, _ = strconv.Atoi(rest[2:4])
		}
		offset := hh*3600 + mm*60
		if s[pos] == '-' {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}

	return time.Date(fields[0], time.Month(fields[1]), fields[2],
		fields[3], fields[4], fields[5], 0, loc), true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
