package document

import (
	"bytes"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/pdfwala/pdfops"
)

// DefaultVersion is the PDF version written for documents created with New.
const DefaultVersion = "1.7"

// Document is an in-memory PDF: an ordered list of pages, the object table
// holding everything those pages reference, and the document metadata.
//
// A Document is not safe for concurrent use. Reading a source document from
// several goroutines (for example CopyPage with distinct destinations) is
// safe as long as no goroutine mutates it.
type Document struct {
	Version  string // PDF version from the file header (e.g., "1.7")
	Metadata Metadata

	pages   []*Page
	objects map[int]Object // object table keyed by object number
	nextNum int

	// catalog keeps the catalog entries other than the page tree (outlines,
	// names, ...) of a parsed document.
	catalog Dict
	fonts   map[string]*Font
	gstates map[string]Reference
}

// Parse builds a Document from PDF bytes. Every in-use object is loaded
// eagerly, so the returned document never refers back to data.
func Parse(data []byte, opts ...ParseOption) (*Document, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	version := parseVersion(data)
	if version == "" {
		return nil, corrupt(fmt.Errorf("missing %%PDF header"))
	}

	startXRef, err := findStartXRef(data)
	if err != nil {
		return nil, corrupt(err)
	}
	xref, trailer, err := parseXRef(data, startXRef, make(map[int64]bool))
	if err != nil {
		return nil, corrupt(err)
	}

	l := &loader{
		data:    data,
		xref:    xref,
		trailer: trailer,
		objects: make(map[int]Object, len(xref)),
		streams: make(map[int]map[int]Object),
		loading: make(map[int]bool),
	}

	if _, ok := trailer["Encrypt"]; ok {
		if !cfg.hasPassword {
			return nil, pdfops.NewError("Parse", pdfops.ErrCorruptDocument, pdfops.ErrEncrypted)
		}
		if err := l.authenticate(cfg.password); err != nil {
			return nil, err
		}
	}

	if err := l.loadAll(); err != nil {
		return nil, corrupt(err)
	}

	doc := &Document{
		Version: version,
		objects: l.objects,
		nextNum: l.maxObjectNumber() + 1,
	}
	doc.Metadata = l.metadata()

	if err := doc.buildPageList(trailer["Root"], cfg.maxPages); err != nil {
		return nil, err
	}
	return doc, nil
}

func corrupt(err error) error {
	return pdfops.NewError("Parse", pdfops.ErrCorruptDocument, err)
}

// parseVersion extracts the PDF version from the file header (e.g., "%PDF-1.7").
// Leading garbage before the header is tolerated within the first kilobyte.
func parseVersion(data []byte) string {
	head := data[:min(1024, len(data))]
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return ""
	}
	end := idx + 5
	for end < len(head) && !isWhitespace(head[end]) && head[end] != '%' {
		end++
	}
	return string(head[idx+5 : end])
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Page returns the page at the given 0-based index.
func (d *Document) Page(index int) (*Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, pdfops.Errorf("Page", pdfops.ErrIndexOutOfRange,
			"index %d outside [0, %d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// Pages returns an iterator over all pages. Index is 0-based.
func (d *Document) Pages() iter.Seq2[int, *Page] {
	return func(yield func(int, *Page) bool) {
		for i, page := range d.pages {
			if !yield(i, page) {
				return
			}
		}
	}
}

// AddPage appends p to the document. The page must have been created for
// this document (NewPage, CopyPage or CopyPages) and must not already be part of it.
func (d *Document) AddPage(p *Page) error {
	if p == nil || p.doc != d {
		return pdfops.Errorf("AddPage", pdfops.ErrValidation, "page belongs to another document")
	}
	if slices.Contains(d.pages, p) {
		return pdfops.Errorf("AddPage", pdfops.ErrValidation, "page is already in the document")
	}
	d.pages = append(d.pages, p)
	return nil
}

// RemovePage removes the page at index. References to it from other
// objects are written as null.
func (d *Document) RemovePage(index int) error {
	if index < 0 || index >= len(d.pages) {
		return pdfops.Errorf("RemovePage", pdfops.ErrIndexOutOfRange,
			"index %d outside [0, %d)", index, len(d.pages))
	}
	d.pages = slices.Delete(d.pages, index, index+1)
	return nil
}

// allocate stores obj in the object table under a fresh object number.
func (d *Document) allocate(obj Object) Reference {
	num := d.reserve()
	d.objects[num] = obj
	return Reference{Number: num}
}

// reserve returns a fresh object number without storing anything.
func (d *Document) reserve() int {
	num := d.nextNum
	d.nextNum++
	return num
}

// resolve follows obj through the object table when it is a reference.
// Dangling references resolve to Null.
func (d *Document) resolve(obj Object) Object {
	for range 8 {
		ref, ok := obj.(Reference)
		if !ok {
			return obj
		}
		target, ok := d.objects[ref.Number]
		if !ok {
			return Null{}
		}
		obj = target
	}
	return Null{}
}

// buildPageList flattens the page tree below the catalog into d.pages.
// Page-tree nodes and page dictionaries leave the object table: pages are
// regenerated on write and references to tree nodes become null.
func (d *Document) buildPageList(root Object, maxPages int) error {
	var catalog Dict
	switch v := root.(type) {
	case Reference:
		catalog, _ = d.objects[v.Number].(Dict)
		delete(d.objects, v.Number)
	case Dict:
		catalog = v
	}
	if catalog == nil {
		return corrupt(fmt.Errorf("missing document catalog"))
	}

	tree, ok := catalog["Pages"]
	if !ok {
		return corrupt(fmt.Errorf("catalog has no page tree"))
	}

	d.catalog = make(Dict)
	for k, v := range catalog {
		if k != "Type" && k != "Pages" {
			d.catalog[k] = v
		}
	}

	w := &pageTreeWalker{doc: d, visited: make(map[int]bool), maxPages: maxPages}
	return w.walk(tree, nil)
}

type pageTreeWalker struct {
	doc      *Document
	visited  map[int]bool
	maxPages int
}

// inheritable lists the page attributes a page inherits from its ancestors.
var inheritable = []Name{"MediaBox", "CropBox", "Resources", "Rotate"}

func (w *pageTreeWalker) walk(node Object, inherited Dict) error {
	d := w.doc

	num := 0
	var dict Dict
	switch v := node.(type) {
	case Reference:
		if w.visited[v.Number] {
			return corrupt(fmt.Errorf("page tree loops at object %d", v.Number))
		}
		w.visited[v.Number] = true
		dict, _ = d.objects[v.Number].(Dict)
		delete(d.objects, v.Number)
		num = v.Number
	case Dict:
		dict = v
	}
	if dict == nil {
		return corrupt(fmt.Errorf("page tree node is not a dictionary"))
	}

	merged := inherited.Clone()
	if merged == nil {
		merged = make(Dict)
	}
	for _, key := range inheritable {
		if v, ok := dict[key]; ok {
			merged[key] = v
		}
	}

	kids, hasKids := dict["Kids"]
	switch typ := dict.GetName("Type"); {
	case typ == "Page", typ == "" && !hasKids:
		if w.maxPages > 0 && len(d.pages) >= w.maxPages {
			return pdfops.Errorf("Parse", pdfops.ErrResourceLimit,
				"document has more than %d pages", w.maxPages)
		}
		if num == 0 {
			num = d.reserve()
		}
		page, err := d.pageFromDict(dict, merged, num)
		if err != nil {
			return corrupt(fmt.Errorf("page %d: %w", len(d.pages), err))
		}
		d.pages = append(d.pages, page)
		return nil
	case typ == "Pages", hasKids:
	default:
		return corrupt(fmt.Errorf("unexpected page tree node type %q", typ))
	}

	kidsArr, ok := d.resolve(kids).(Array)
	if !ok {
		return corrupt(fmt.Errorf("page tree node /Kids is not an array"))
	}
	for _, kid := range kidsArr {
		if err := w.walk(kid, merged); err != nil {
			return err
		}
	}
	return nil
}

// Metadata is the content of the document information dictionary.
type Metadata struct {
	Title        string    `json:"title,omitempty"`
	Author       string    `json:"author,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	Keywords     string    `json:"keywords,omitempty"`
	Creator      string    `json:"creator,omitempty"`
	Producer     string    `json:"producer,omitempty"`
	CreationDate time.Time `json:"creationDate,omitzero"`
	ModDate      time.Time `json:"modDate,omitzero"`
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// infoFields maps the text entries of the information dictionary.
func (m *Metadata) infoFields() []struct {
	key Name
	val *string
} {
	return []struct {
		key Name
		val *string
	}{
		{"Title", &m.Title},
		{"Author", &m.Author},
		{"Subject", &m.Subject},
		{"Keywords", &m.Keywords},
		{"Creator", &m.Creator},
		{"Producer", &m.Producer},
	}
}

// loader resolves objects of a PDF file while it is being parsed.
type loader struct {
	data    []byte
	xref    xrefTable
	trailer Dict
	encrypt *securityHandler

	objects map[int]Object
	streams map[int]map[int]Object // decoded object streams
	loading map[int]bool
}

// loadAll loads every in-use object, then drops the containers that only
// exist to store other objects.
func (l *loader) loadAll() error {
	nums := make([]int, 0, len(l.xref))
	for num, entry := range l.xref {
		if entry.InUse && num > 0 {
			nums = append(nums, num)
		}
	}
	slices.Sort(nums)

	for _, num := range nums {
		if _, err := l.loadObject(num); err != nil {
			return err
		}
	}

	for num, obj := range l.objects {
		if s, ok := obj.(Stream); ok {
			if typ := s.Dict.GetName("Type"); typ == "ObjStm" || typ == "XRef" {
				delete(l.objects, num)
			}
		}
	}
	if l.encrypt != nil && l.encrypt.objNum > 0 {
		delete(l.objects, l.encrypt.objNum)
	}
	return nil
}

// loadObject returns object num, parsing it on first use.
func (l *loader) loadObject(num int) (Object, error) {
	if obj, ok := l.objects[num]; ok {
		return obj, nil
	}
	entry, ok := l.xref[num]
	if !ok || !entry.InUse {
		return Null{}, nil
	}
	if l.loading[num] {
		return nil, fmt.Errorf("object %d depends on itself", num)
	}
	l.loading[num] = true
	defer delete(l.loading, num)

	var (
		obj Object
		err error
	)
	if entry.InStream {
		obj, err = l.loadCompressed(num, entry)
	} else {
		obj, err = l.loadDirect(num, entry)
	}
	if err != nil {
		return nil, err
	}
	l.objects[num] = obj
	return obj, nil
}

func (l *loader) loadDirect(num int, entry xrefEntry) (Object, error) {
	if entry.Offset < 0 || int(entry.Offset) >= len(l.data) {
		return nil, fmt.Errorf("object %d offset %d out of bounds", num, entry.Offset)
	}

	p := newParser(l.data[entry.Offset:])
	p.length = l.streamLength
	if l.encrypt != nil && l.encrypt.key != nil && num != l.encrypt.objNum {
		p.decrypt = l.encrypt.objectDecrypter(num, entry.Generation)
	}

	obj, err := p.parseDefinition()
	if err != nil {
		return nil, fmt.Errorf("parsing object %d: %w", num, err)
	}
	if obj.Number != num {
		return nil, fmt.Errorf("xref entry for object %d points at object %d", num, obj.Number)
	}
	return obj.Value, nil
}

func (l *loader) loadCompressed(num int, entry xrefEntry) (Object, error) {
	objs, ok := l.streams[entry.StreamNum]
	if !ok {
		container, err := l.loadObject(entry.StreamNum)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.StreamNum, err)
		}
		s, isStream := container.(Stream)
		if !isStream {
			return nil, fmt.Errorf("object stream %d is not a stream", entry.StreamNum)
		}
		objs, err = parseObjectStream(s)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.StreamNum, err)
		}
		l.streams[entry.StreamNum] = objs
	}

	obj, ok := objs[num]
	if !ok {
		return nil, fmt.Errorf("object %d missing from object stream %d", num, entry.StreamNum)
	}
	return obj, nil
}

// streamLength resolves an indirect /Length while a stream is parsed.
func (l *loader) streamLength(obj Object) (int, bool) {
	ref, ok := obj.(Reference)
	if !ok {
		return 0, false
	}
	v, err := l.loadObject(ref.Number)
	if err != nil {
		return 0, false
	}
	n, ok := v.(Integer)
	return int(n), ok && n >= 0
}

func (l *loader) maxObjectNumber() int {
	highest := 0
	if size, ok := l.trailer.GetInt("Size"); ok {
		highest = int(size) - 1
	}
	for num := range l.xref {
		highest = max(highest, num)
	}
	return highest
}

// metadata reads the document information dictionary.
func (l *loader) metadata() Metadata {
	var m Metadata
	var info Dict
	switch v := l.trailer["Info"].(type) {
	case Dict:
		info = v
	case Reference:
		info, _ = l.objects[v.Number].(Dict)
	}
	if info == nil {
		return m
	}

	for _, f := range m.infoFields() {
		if s, ok := info[f.key].(String); ok {
			*f.val = strings.TrimRight(decodePDFString(s.Value), "\x00")
		}
	}
	if s, ok := info["CreationDate"].(String); ok {
		m.CreationDate, _ = parseDate(string(s.Value))
	}
	if s, ok := info["ModDate"].(String); ok {
		m.ModDate, _ = parseDate(string(s.Value))
	}
	return m
}
