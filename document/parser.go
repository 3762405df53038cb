package document

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// parser reads PDF objects from a byte slice.
type parser struct {
	data []byte
	pos  int

	// decrypt, when set, decrypts string and stream payloads of the object
	// being parsed in place.
	decrypt func([]byte)

	// length resolves an indirect /Length value of a stream.
	length func(Object) (int, bool)
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

const (
	classRegular byte = iota
	classSpace
	classDelimiter
)

var byteClass = func() (table [256]byte) {
	for _, b := range []byte(" \t\n\r\f\x00") {
		table[b] = classSpace
	}
	for _, b := range []byte("()<>[]{}/%") {
		table[b] = classDelimiter
	}
	return table
}()

func isWhitespace(b byte) bool { return byteClass[b] == classSpace }
func isDelimiter(b byte) bool  { return byteClass[b] == classDelimiter }
func isRegular(b byte) bool    { return byteClass[b] == classRegular }

func (p *parser) eof() bool { return p.pos >= len(p.data) }

// skipWhitespace advances past whitespace and comments.
func (p *parser) skipWhitespace() {
	for !p.eof() {
		switch b := p.data[p.pos]; {
		case isWhitespace(b):
			p.pos++
		case b == '%':
			end := bytes.IndexAny(p.data[p.pos:], "\r\n")
			if end < 0 {
				p.pos = len(p.data)
				return
			}
			p.pos += end
		default:
			return
		}
	}
}

// readToken returns the run of regular bytes after any whitespace.
func (p *parser) readToken() string {
	p.skipWhitespace()
	start := p.pos
	for !p.eof() && isRegular(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// hasKeyword reports whether kw starts at the current position.
func (p *parser) hasKeyword(kw string) bool {
	return bytes.HasPrefix(p.data[p.pos:], []byte(kw))
}

// parseObject parses the direct object at the current position.
func (p *parser) parseObject() (Object, error) {
	p.skipWhitespace()
	if p.eof() {
		return nil, io.ErrUnexpectedEOF
	}

	switch b := p.data[p.pos]; b {
	case '/':
		return p.parseName()
	case '(':
		return p.parseLiteralString()
	case '[':
		return p.parseArray()
	case '<':
		if p.hasKeyword("<<") {
			return p.parseDict()
		}
		return p.parseHexString()
	case '+', '-', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.parseNumber()
	default:
		start := p.pos
		switch tok := p.readToken(); tok {
		case "true", "false":
			return Boolean(tok == "true"), nil
		case "null":
			return Null{}, nil
		}
		return nil, fmt.Errorf("unexpected character %q at position %d", b, start)
	}
}

// parseName reads /Name, decoding #xx escapes.
func (p *parser) parseName() (Name, error) {
	if p.eof() || p.data[p.pos] != '/' {
		return "", fmt.Errorf("expected '/' at position %d", p.pos)
	}
	p.pos++

	start := p.pos
	for !p.eof() && isRegular(p.data[p.pos]) {
		p.pos++
	}
	raw := p.data[start:p.pos]
	if bytes.IndexByte(raw, '#') < 0 {
		return Name(raw), nil
	}

	name := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) && unhex(raw[i+1]) >= 0 && unhex(raw[i+2]) >= 0 {
			name = append(name, byte(unhex(raw[i+1])<<4|unhex(raw[i+2])))
			i += 2
			continue
		}
		name = append(name, raw[i])
	}
	return Name(name), nil
}

// parseNumber reads an integer, a real, or an "N G R" reference.
func (p *parser) parseNumber() (Object, error) {
	start := p.pos
	tok := p.readToken()

	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok, start)
		}
		return Real(f), nil
	}

	if ref, ok := p.referenceTail(int(n)); ok {
		return ref, nil
	}
	return Integer(n), nil
}

// referenceTail consumes " G R" after an object number. The position is left
// untouched when the input does not continue as a reference.
func (p *parser) referenceTail(num int) (Reference, bool) {
	mark := p.pos
	gen, err := strconv.Atoi(p.readToken())
	if err == nil && p.readToken() == "R" {
		return Reference{Number: num, Generation: gen}, true
	}
	p.pos = mark
	return Reference{}, false
}

var literalEscapes = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f',
	'(': '(', ')': ')', '\\': '\\',
}

// parseLiteralString reads a balanced (string) with its escape sequences.
func (p *parser) parseLiteralString() (String, error) {
	p.pos++

	var out []byte
	for depth := 1; ; {
		if p.eof() {
			return String{}, fmt.Errorf("unterminated literal string")
		}
		b := p.data[p.pos]
		p.pos++

		switch {
		case b == '(':
			depth++
		case b == ')':
			depth--
			if depth == 0 {
				if p.decrypt != nil {
					p.decrypt(out)
				}
				return String{Value: out}, nil
			}
		case b == '\\':
			if p.eof() {
				return String{}, fmt.Errorf("unexpected end of string escape")
			}
			out = p.appendEscape(out)
			continue
		}
		out = append(out, b)
	}
}

// appendEscape decodes the escape following a backslash.
func (p *parser) appendEscape(out []byte) []byte {
	esc := p.data[p.pos]
	p.pos++

	if v, ok := literalEscapes[esc]; ok {
		return append(out, v)
	}
	switch {
	case esc == '\r':
		if !p.eof() && p.data[p.pos] == '\n' {
			p.pos++
		}
		return out
	case esc == '\n':
		return out
	case esc >= '0' && esc <= '7':
		v := int(esc - '0')
		for i := 0; i < 2 && !p.eof() && p.data[p.pos] >= '0' && p.data[p.pos] <= '7'; i++ {
			v = v<<3 | int(p.data[p.pos]-'0')
			p.pos++
		}
		return append(out, byte(v))
	}
	return append(out, esc)
}

// parseHexString reads <hex digits>. An odd final digit is padded with 0.
func (p *parser) parseHexString() (String, error) {
	p.pos++

	end := bytes.IndexByte(p.data[p.pos:], '>')
	if end < 0 {
		return String{}, fmt.Errorf("unterminated hex string")
	}
	body := p.data[p.pos : p.pos+end]
	p.pos += end + 1

	out := make([]byte, 0, len(body)/2+1)
	var pending []byte
	for _, b := range body {
		if isWhitespace(b) {
			continue
		}
		if unhex(b) < 0 {
			return String{}, fmt.Errorf("invalid hex character %q in hex string", b)
		}
		pending = append(pending, b)
		if len(pending) == 2 {
			out = append(out, byte(unhex(pending[0])<<4|unhex(pending[1])))
			pending = pending[:0]
		}
	}
	if len(pending) == 1 {
		out = append(out, byte(unhex(pending[0])<<4))
	}

	if p.decrypt != nil {
		p.decrypt(out)
	}
	return String{Value: out, IsHex: true}, nil
}

// parseArray reads [obj ...].
func (p *parser) parseArray() (Array, error) {
	p.pos++

	arr := Array{}
	for {
		p.skipWhitespace()
		switch {
		case p.eof():
			return nil, fmt.Errorf("unterminated array")
		case p.data[p.pos] == ']':
			p.pos++
			return arr, nil
		}
		obj, err := p.parseObject()
		if err != nil {
			return nil, fmt.Errorf("in array: %w", err)
		}
		arr = append(arr, obj)
	}
}

// parseDict reads << /Key value ... >>. Entries whose value is null are
// dropped, as a null value is equivalent to an absent entry.
func (p *parser) parseDict() (Dict, error) {
	p.pos += 2

	d := Dict{}
	for {
		p.skipWhitespace()
		switch {
		case p.eof():
			return nil, fmt.Errorf("unterminated dictionary")
		case p.hasKeyword(">>"):
			p.pos += 2
			return d, nil
		}
		key, err := p.parseName()
		if err != nil {
			return nil, fmt.Errorf("dict key: %w", err)
		}
		val, err := p.parseObject()
		if err != nil {
			return nil, fmt.Errorf("dict value for %s: %w", key, err)
		}
		if _, isNull := val.(Null); !isNull {
			d[key] = val
		}
	}
}

// parseDefinition parses "N G obj ... endobj".
func (p *parser) parseDefinition() (*definition, error) {
	p.skipWhitespace()

	numTok := p.readToken()
	num, err := strconv.ParseInt(numTok, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expected object number, got %q", numTok)
	}

	genTok := p.readToken()
	gen, err := strconv.ParseInt(genTok, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expected generation number, got %q", genTok)
	}

	if objTok := p.readToken(); objTok != "obj" {
		return nil, fmt.Errorf("expected 'obj', got %q", objTok)
	}

	val, err := p.parseObject()
	if err != nil {
		return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
	}

	p.skipWhitespace()
	if p.hasKeyword("stream") {
		dict, ok := val.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream object %d %d has non-dict header", num, gen)
		}
		data, err := p.readStreamData(dict)
		if err != nil {
			return nil, fmt.Errorf("stream object %d %d: %w", num, gen, err)
		}
		if p.decrypt != nil && dict.GetName("Type") != "XRef" {
			p.decrypt(data)
		}
		val = Stream{Dict: dict, Data: data}
	}

	p.skipWhitespace()
	if p.hasKeyword("endobj") {
		p.pos += 6
	}

	return &definition{
		Reference: Reference{Number: int(num), Generation: int(gen)},
		Value:     val,
	}, nil
}

// readStreamData reads the payload following the "stream" keyword. The
// declared /Length is trusted when "endstream" follows it; otherwise the
// payload extends to the next "endstream" keyword.
func (p *parser) readStreamData(dict Dict) ([]byte, error) {
	p.pos += 6 // skip "stream"
	if p.pos < len(p.data) && p.data[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.data) && p.data[p.pos] == '\n' {
		p.pos++
	}
	start := p.pos

	length := -1
	if lenObj, ok := dict["Length"]; ok {
		switch v := lenObj.(type) {
		case Integer:
			length = int(v)
		case Reference:
			if p.length != nil {
				if n, ok := p.length(v); ok {
					length = n
				}
			}
		}
	}

	if length >= 0 && start+length <= len(p.data) {
		end := start + length
		q := &parser{data: p.data, pos: end}
		q.skipWhitespace()
		if q.hasKeyword("endstream") {
			p.pos = q.pos + 9
			return bytes.Clone(p.data[start:end]), nil
		}
	}

	idx := bytes.Index(p.data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("missing endstream")
	}
	end := start + idx
	// Strip the EOL marker preceding endstream.
	if end > start && p.data[end-1] == '\n' {
		end--
	}
	if end > start && p.data[end-1] == '\r' {
		end--
	}
	p.pos = start + idx + 9
	return bytes.Clone(p.data[start:end]), nil
}

// unhex returns the numeric value of a hex digit, or -1 if not valid.
func unhex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}
