// Package document implements the PDF page model: it parses PDF bytes into an
// in-memory Document (ordered pages, an object table of shared resources and
// metadata), copies pages between documents, draws overlay text and serializes
// the result back to PDF bytes.
//
// Content streams and resource dictionaries are opaque: they are carried and
// copied byte for byte, never decoded or re-laid out.
package document

import (
	"bytes"
	"maps"
	"strconv"
)

// Object is a PDF value. The set of implementations is closed.
type Object interface {
	pdfObject()
	// String renders the object in PDF syntax. References are printed as
	// found, not renumbered.
	String() string
}

type (
	Null    struct{}
	Boolean bool
	Integer int64
	Real    float64
	// Name is a PDF name without its leading slash.
	Name string
	// String is a literal or hexadecimal string. Value holds the raw bytes,
	// after decryption.
	String struct {
		Value []byte
		IsHex bool
	}
	Array []Object
	Dict  map[Name]Object
	// Stream holds the stream dictionary and the payload as stored in the
	// file, still encoded by its filters.
	Stream struct {
		Dict Dict
		Data []byte
	}
	// Reference points at an indirect object of the document that holds it.
	Reference struct {
		Number     int
		Generation int
	}
)

func (Null) pdfObject()      {}
func (Boolean) pdfObject()   {}
func (Integer) pdfObject()   {}
func (Real) pdfObject()      {}
func (Name) pdfObject()      {}
func (String) pdfObject()    {}
func (Array) pdfObject()     {}
func (Dict) pdfObject()      {}
func (Stream) pdfObject()    {}
func (Reference) pdfObject() {}

func (o Null) String() string      { return syntax(o) }
func (o Boolean) String() string   { return strconv.FormatBool(bool(o)) }
func (o Integer) String() string   { return strconv.FormatInt(int64(o), 10) }
func (o Real) String() string      { return formatReal(float64(o)) }
func (o Name) String() string      { return syntax(o) }
func (o String) String() string    { return syntax(o) }
func (o Array) String() string     { return syntax(o) }
func (o Dict) String() string      { return syntax(o) }
func (o Stream) String() string    { return syntax(o) }
func (o Reference) String() string { return syntax(o) }

// syntax renders obj with the serializer's encoding rules.
func syntax(obj Object) string {
	var buf bytes.Buffer
	(*serializer)(nil).writeObject(&buf, obj)
	return buf.String()
}

// definition is a parsed "N G obj ... endobj" block.
type definition struct {
	Reference
	Value Object
}

// entry returns the value of key when it holds a T.
func entry[T Object](d Dict, key Name) (T, bool) {
	v, ok := d[key].(T)
	return v, ok
}

// GetName returns a name entry, or "" when key is absent or not a name.
func (d Dict) GetName(key Name) Name {
	n, _ := entry[Name](d, key)
	return n
}

// GetInt returns a numeric entry truncated to an integer.
func (d Dict) GetInt(key Name) (int64, bool) {
	if i, ok := entry[Integer](d, key); ok {
		return int64(i), true
	}
	f, ok := toFloat(d[key])
	return int64(f), ok
}

// GetFloat returns a numeric entry.
func (d Dict) GetFloat(key Name) (float64, bool) {
	return toFloat(d[key])
}

func (d Dict) GetDict(key Name) Dict {
	sub, _ := entry[Dict](d, key)
	return sub
}

func (d Dict) GetArray(key Name) Array {
	arr, _ := entry[Array](d, key)
	return arr
}

// GetString returns the bytes of a string entry.
func (d Dict) GetString(key Name) []byte {
	s, _ := entry[String](d, key)
	return s.Value
}

// Clone returns a shallow copy; nil stays nil.
func (d Dict) Clone() Dict {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// Decode applies the stream's filter chain.
func (s Stream) Decode() ([]byte, error) {
	return decodeStream(s)
}

func toFloat(obj Object) (float64, bool) {
	switch n := obj.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}
