package document

import (
	"bytes"
	"fmt"
	"strconv"
)

// xrefEntry represents a single cross-reference table entry.
type xrefEntry struct {
	Offset     int64
	Generation int
	InUse      bool

	// Objects compressed in an object stream (PDF 1.5+) record the stream's
	// object number and their index inside it instead of a file offset.
	InStream    bool
	StreamNum   int
	StreamIndex int
}

// xrefTable maps object numbers to their locations.
type xrefTable map[int]xrefEntry

// merge adds the entries of older that are not already defined.
// Newer sections of an incrementally updated file take precedence.
func (t xrefTable) merge(older xrefTable) {
	for num, entry := range older {
		if _, exists := t[num]; !exists {
			t[num] = entry
		}
	}
}

// findStartXRef locates the "startxref" position from the end of the file.
func findStartXRef(data []byte) (int64, error) {
	searchLen := min(2048, len(data))
	tail := data[len(data)-searchLen:]

	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}

	return newParser(tail[idx+len("startxref"):]).readInt("startxref offset")
}

// parseXRef parses the cross-reference section at offset, following /Prev
// and /XRefStm links. visited guards against offset cycles.
func parseXRef(data []byte, offset int64, visited map[int64]bool) (xrefTable, Dict, error) {
	if offset < 0 || int(offset) >= len(data) {
		return nil, nil, fmt.Errorf("xref offset %d out of bounds", offset)
	}
	if visited[offset] {
		return nil, nil, fmt.Errorf("xref chain loops at offset %d", offset)
	}
	visited[offset] = true

	p := newParser(data[offset:])
	if p.readToken() != "xref" {
		return parseXRefStream(data, offset, visited)
	}
	return parseXRefTable(data, p, visited)
}

// readInt reads the next token as a decimal integer; what names the value in
// the error.
func (p *parser) readInt(what string) (int64, error) {
	tok := p.readToken()
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", what, tok, err)
	}
	return v, nil
}

// parseXRefTable parses a classic cross-reference table whose "xref"
// keyword has already been consumed by p.
func parseXRefTable(data []byte, p *parser, visited map[int64]bool) (xrefTable, Dict, error) {
	table := make(xrefTable)

	for {
		p.skipWhitespace()
		if p.eof() {
			return nil, nil, fmt.Errorf("xref table without trailer")
		}
		if p.hasKeyword("trailer") {
			p.pos += len("trailer")
			break
		}
		if err := p.readXRefSubsection(table); err != nil {
			return nil, nil, err
		}
	}

	obj, err := p.parseObject()
	if err != nil {
		return nil, nil, fmt.Errorf("trailer dict: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("trailer is not a dictionary")
	}

	// Hybrid files carry their compressed objects in a side xref stream,
	// which fills the gaps of the classic table.
	if stm, ok := trailer.GetInt("XRefStm"); ok {
		side, _, err := parseXRef(data, stm, visited)
		if err != nil {
			return nil, nil, fmt.Errorf("xref stream of hybrid file: %w", err)
		}
		for num, e := range side {
			if cur, exists := table[num]; !exists || !cur.InUse {
				table[num] = e
			}
		}
	}

	if err := followPrev(data, trailer, table, visited); err != nil {
		return nil, nil, err
	}
	return table, trailer, nil
}

// readXRefSubsection reads "start count" followed by count entries. When an
// object appears twice the first entry is kept.
func (p *parser) readXRefSubsection(table xrefTable) error {
	start, err := p.readInt("xref subsection start")
	if err != nil {
		return err
	}
	count, err := p.readInt("xref subsection count")
	if err != nil {
		return err
	}

	for num := start; num < start+count; num++ {
		offset, err := p.readInt("xref entry offset")
		if err != nil {
			return err
		}
		gen, err := p.readInt("xref entry generation")
		if err != nil {
			return err
		}
		kind := p.readToken()
		if kind != "n" && kind != "f" {
			return fmt.Errorf("xref entry type %q", kind)
		}
		if _, exists := table[int(num)]; !exists {
			table[int(num)] = xrefEntry{Offset: offset, Generation: int(gen), InUse: kind == "n"}
		}
	}
	return nil
}

// followPrev merges the older section named by /Prev into table.
func followPrev(data []byte, trailer Dict, table xrefTable, visited map[int64]bool) error {
	prev, ok := trailer.GetInt("Prev")
	if !ok {
		return nil
	}
	older, _, err := parseXRef(data, prev, visited)
	if err != nil {
		return fmt.Errorf("previous xref: %w", err)
	}
	table.merge(older)
	return nil
}

// parseXRefStream parses a cross-reference stream (PDF 1.5+).
func parseXRefStream(data []byte, offset int64, visited map[int64]bool) (xrefTable, Dict, error) {
	def, err := newParser(data[offset:]).parseDefinition()
	if err != nil {
		return nil, nil, fmt.Errorf("xref stream object: %w", err)
	}
	stream, ok := def.Value.(Stream)
	if !ok || stream.Dict.GetName("Type") != "XRef" {
		return nil, nil, fmt.Errorf("xref stream is not a stream object")
	}

	rows, err := stream.Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("decoding xref stream: %w", err)
	}
	widths, err := xrefWidths(stream.Dict)
	if err != nil {
		return nil, nil, err
	}
	rowSize := widths[0] + widths[1] + widths[2]

	table := make(xrefTable)
	for _, sub := range xrefSubsections(stream.Dict) {
		for num := sub[0]; num < sub[0]+sub[1]; num++ {
			if len(rows) < rowSize {
				return nil, nil, fmt.Errorf("xref stream truncated at object %d", num)
			}
			var fields [3]int64
			for f, w := range widths {
				fields[f] = bigEndian(rows[:w])
				rows = rows[w:]
			}
			if widths[0] == 0 {
				fields[0] = 1
			}

			switch fields[0] {
			case 0:
				table[num] = xrefEntry{Generation: int(fields[2])}
			case 1:
				table[num] = xrefEntry{Offset: fields[1], Generation: int(fields[2]), InUse: true}
			case 2:
				table[num] = xrefEntry{InUse: true, InStream: true, StreamNum: int(fields[1]), StreamIndex: int(fields[2])}
			}
		}
	}

	if err := followPrev(data, stream.Dict, table, visited); err != nil {
		return nil, nil, err
	}
	return table, stream.Dict, nil
}

// xrefWidths reads the /W field widths of an xref stream.
func xrefWidths(dict Dict) ([3]int, error) {
	var widths [3]int
	w := dict.GetArray("W")
	if len(w) != 3 {
		return widths, fmt.Errorf("xref stream /W must have 3 elements")
	}
	for i, v := range w {
		n, ok := v.(Integer)
		if !ok || n < 0 || n > 8 {
			return widths, fmt.Errorf("xref stream /W element %d is invalid", i)
		}
		widths[i] = int(n)
	}
	if widths[0]+widths[1]+widths[2] == 0 {
		return widths, fmt.Errorf("xref stream has zero-width entries")
	}
	return widths, nil
}

// xrefSubsections returns the (first, count) pairs of /Index, defaulting to
// [0 Size].
func xrefSubsections(dict Dict) [][2]int {
	index := dict.GetArray("Index")
	if index == nil {
		size, _ := dict.GetInt("Size")
		return [][2]int{{0, int(size)}}
	}
	var subs [][2]int
	for i := 0; i+1 < len(index); i += 2 {
		first, ok1 := index[i].(Integer)
		count, ok2 := index[i+1].(Integer)
		if ok1 && ok2 {
			subs = append(subs, [2]int{int(first), int(count)})
		}
	}
	return subs
}

func bigEndian(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// parseObjectStream decodes an object stream (/Type /ObjStm) and returns the
// objects it contains keyed by object number.
func parseObjectStream(s Stream) (map[int]Object, error) {
	if s.Dict.GetName("Type") != "ObjStm" {
		return nil, fmt.Errorf("not an object stream")
	}
	n, ok := s.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream without /N")
	}
	first, ok := s.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream without /First")
	}

	decoded, err := decodeStream(s)
	if err != nil {
		return nil, fmt.Errorf("decoding object stream: %w", err)
	}
	if int(first) > len(decoded) {
		return nil, fmt.Errorf("object stream /First %d beyond data", first)
	}

	header := newParser(decoded[:first])
	objects := make(map[int]Object, n)
	for i := range n {
		num, err1 := header.readInt("object number")
		off, err2 := header.readInt("object offset")
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("object stream header entry %d is malformed", i)
		}
		pos := first + off
		if pos < 0 || pos >= int64(len(decoded)) {
			return nil, fmt.Errorf("object %d offset outside object stream", num)
		}
		obj, err := newParser(decoded[pos:]).parseObject()
		if err != nil {
			return nil, fmt.Errorf("object %d in object stream: %w", num, err)
		}
		objects[int(num)] = obj
	}
	return objects, nil
}
