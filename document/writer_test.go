package document

import (
	"bytes"
	"testing"
	"time"
)

func TestFormatReal(t *testing.T) {
	tests := map[float64]string{
		0:           "0",
		12:          "12",
		-3:          "-3",
		0.5:         "0.5",
		0.70710678:  "0.707107",
		-0.0000001:  "0",
		595.2755906: "595.275591",
	}
	for in, want := range tests {
		if got := formatReal(in); got != want {
			t.Errorf("formatReal(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteName(t *testing.T) {
	var buf bytes.Buffer
	writeName(&buf, Name("A B#(x)"))
	if got := buf.String(); got != "/A#20B#23#28x#29" {
		t.Errorf("writeName = %q", got)
	}

	obj, err := newParser(buf.Bytes()).parseObject()
	if err != nil || obj != Name("A B#(x)") {
		t.Errorf("escaped name does not parse back: %v %v", obj, err)
	}
}

func TestWriteLiteralString(t *testing.T) {
	in := []byte("a(b)c\\d\re")
	var buf bytes.Buffer
	writeLiteralString(&buf, in)

	obj, err := newParser(buf.Bytes()).parseObject()
	if err != nil {
		t.Fatalf("parsing %q: %v", buf.Bytes(), err)
	}
	if s := obj.(String); !bytes.Equal(s.Value, in) {
		t.Errorf("round trip = %q, want %q", s.Value, in)
	}
}

func TestEncodeTextString(t *testing.T) {
	if s := encodeTextString("café"); s.IsHex || string(s.Value) != "caf\xe9" {
		t.Errorf("Latin-1 text encoded as %+v", s)
	}
	s := encodeTextString("€")
	if !s.IsHex || !bytes.Equal(s.Value, []byte{0xFE, 0xFF, 0x20, 0xAC}) {
		t.Errorf("non Latin-1 text encoded as %+v", s)
	}
	if got := decodePDFString(s.Value); got != "€" {
		t.Errorf("decodePDFString = %q", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"D:20240131235958Z", time.Date(2024, 1, 31, 23, 59, 58, 0, time.UTC), true},
		{"D:20240131", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true},
		{"D:2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"D:20240131120000-05'30'", time.Date(2024, 1, 31, 12, 0, 0, 0, time.FixedZone("", -(5*3600 + 30*60))), true},
		{"yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	when := time.Date(2023, 7, 4, 8, 9, 10, 0, time.FixedZone("", -7*3600))
	if got, _ := parseDate(formatDate(when)); !got.Equal(when) {
		t.Errorf("formatDate round trip = %v, want %v", got, when)
	}
}

func TestExtractTextOperators(t *testing.T) {
	content := []byte(`
		(outside) Tj
		BT /F1 12 Tf 10 10 Td (Hello) Tj 0 -14 Td [(Wor) -50 (ld)] TJ T* <21> Tj ET
		BT (next) ' ET
		q BI /W 1 /H 1 ID xyz EI Q
	`)
	if got := extractText(content); got != "Hello World ! next" {
		t.Errorf("extractText = %q", got)
	}
}
