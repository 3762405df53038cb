package document

import (
	"testing"
)

func TestParseScalars(t *testing.T) {
	tests := []struct {
		in   string
		want Object
	}{
		{"42", Integer(42)},
		{"-7", Integer(-7)},
		{"+3", Integer(3)},
		{"3.5", Real(3.5)},
		{"-.25", Real(-0.25)},
		{"true", Boolean(true)},
		{"false", Boolean(false)},
		{"null", Null{}},
		{"/Type", Name("Type")},
		{"/A#20B", Name("A B")},
		{"% comment\n42", Integer(42)},
	}
	for _, tt := range tests {
		obj, err := newParser([]byte(tt.in)).parseObject()
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if obj != tt.want {
			t.Errorf("%q: got %T(%v), want %T(%v)", tt.in, obj, obj, tt.want, tt.want)
		}
	}
}

func TestParseLiteralStringEscapes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"(Hello World)", "Hello World"},
		{"(Hello (nested) World)", "Hello (nested) World"},
		{`(Line1\nLine2\r\t\\)`, "Line1\nLine2\r\t\\"},
		{`(\101\102C)`, "ABC"},
		{"(split \\\nline)", "split line"},
		{"(split \\\r\nline)", "split line"},
	}
	for _, tt := range tests {
		obj, err := newParser([]byte(tt.in)).parseObject()
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		s := obj.(String)
		if string(s.Value) != tt.want || s.IsHex {
			t.Errorf("%q: got %q (hex=%v), want %q", tt.in, s.Value, s.IsHex, tt.want)
		}
	}
}

func TestParseHexString(t *testing.T) {
	obj, err := newParser([]byte("<48656C6C6F 2>")).parseObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	s, ok := obj.(String)
	if !ok {
		t.Fatalf("expected String, got %T", obj)
	}
	if string(s.Value) != "Hello " {
		t.Errorf("expected 'Hello ', got %q", s.Value)
	}
	if !s.IsHex {
		t.Error("expected hex string")
	}
}

func TestParseArrayOfMixedObjects(t *testing.T) {
	obj, err := newParser([]byte("[1 2.5 /Name (text) 4 0 R]")).parseObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	arr, ok := obj.(Array)
	if !ok {
		t.Fatalf("expected Array, got %T", obj)
	}
	if len(arr) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(arr))
	}
	if ref, ok := arr[4].(Reference); !ok || ref.Number != 4 {
		t.Errorf("element 4: expected 4 0 R, got %T(%v)", arr[4], arr[4])
	}
}

func TestParseDictDropsNullValues(t *testing.T) {
	obj, err := newParser([]byte("<< /Type /Page /Count 3 /Gone null >>")).parseObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	d, ok := obj.(Dict)
	if !ok {
		t.Fatalf("expected Dict, got %T", obj)
	}
	if d.GetName("Type") != "Page" {
		t.Errorf("Type = %v, want Page", d["Type"])
	}
	if v, ok := d.GetInt("Count"); !ok || v != 3 {
		t.Errorf("Count = %v, want 3", d["Count"])
	}
	if _, ok := d["Gone"]; ok {
		t.Error("null entry should be absent")
	}
}

func TestParseReferenceNeedsDelimiter(t *testing.T) {
	obj, err := newParser([]byte("10 0 R")).parseObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if ref, ok := obj.(Reference); !ok || ref.Number != 10 || ref.Generation != 0 {
		t.Errorf("expected 10 0 R, got %T(%v)", obj, obj)
	}

	// "RG" is an operator, not a reference.
	obj, err = newParser([]byte("1 0 RG")).parseObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if v, ok := obj.(Integer); !ok || v != 1 {
		t.Errorf("expected Integer(1), got %T(%v)", obj, obj)
	}
}

func TestParseIndirectStream(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"direct length", "7 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj"},
		{"wrong length", "7 0 obj\n<< /Length 99 >>\nstream\nhello\nendstream\nendobj"},
		{"crlf", "7 0 obj\n<< /Length 5 >>\r\nstream\r\nhello\r\nendstream\r\nendobj"},
		{"indirect length", "7 0 obj\n<< /Length 8 0 R >>\nstream\nhello\nendstream\nendobj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser([]byte(tt.in))
			p.length = func(obj Object) (int, bool) {
				if ref, ok := obj.(Reference); ok && ref.Number == 8 {
					return 5, true
				}
				return 0, false
			}
			obj, err := p.parseDefinition()
			if err != nil {
				t.Fatalf("parsing: %v", err)
			}
			s, ok := obj.Value.(Stream)
			if !ok {
				t.Fatalf("expected Stream, got %T", obj.Value)
			}
			if string(s.Data) != "hello" {
				t.Errorf("data = %q, want hello", s.Data)
			}
		})
	}
}

func TestParseStreamDecrypt(t *testing.T) {
	p := newParser([]byte("3 0 obj\n<< /Length 3 /Title (abc) >>\nstream\nxyz\nendstream\nendobj"))
	calls := 0
	p.decrypt = func(b []byte) {
		calls++
		for i := range b {
			b[i] = 'D'
		}
	}
	obj, err := p.parseDefinition()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	s := obj.Value.(Stream)
	if string(s.Data) != "DDD" || string(s.Dict.GetString("Title")) != "DDD" {
		t.Errorf("decrypt not applied: data=%q title=%q", s.Data, s.Dict.GetString("Title"))
	}
	if calls != 2 {
		t.Errorf("decrypt called %d times, want one call per string and stream", calls)
	}
}

func TestDictHelpers(t *testing.T) {
	d := Dict{
		"Name":  Name("Test"),
		"Count": Integer(5),
		"Scale": Real(1.5),
		"Sub":   Dict{"Key": Name("Value")},
		"Items": Array{Integer(1), Integer(2)},
		"Text":  String{Value: []byte("hi")},
	}

	if d.GetName("Name") != "Test" {
		t.Errorf("GetName: %v", d.GetName("Name"))
	}
	if d.GetName("Missing") != "" {
		t.Errorf("GetName missing: %v", d.GetName("Missing"))
	}
	if v, ok := d.GetInt("Count"); !ok || v != 5 {
		t.Errorf("GetInt: %v %v", v, ok)
	}
	if v, ok := d.GetFloat("Scale"); !ok || v != 1.5 {
		t.Errorf("GetFloat: %v %v", v, ok)
	}
	if sub := d.GetDict("Sub"); sub == nil || sub.GetName("Key") != "Value" {
		t.Errorf("GetDict: %v", d.GetDict("Sub"))
	}
	if arr := d.GetArray("Items"); len(arr) != 2 {
		t.Errorf("GetArray: %v", arr)
	}
	if s := d.GetString("Text"); string(s) != "hi" {
		t.Errorf("GetString: %q", s)
	}

	c := d.Clone()
	c["Count"] = Integer(6)
	if v, _ := d.GetInt("Count"); v != 5 {
		t.Error("Clone shares storage with the original")
	}
}

func TestObjectSyntax(t *testing.T) {
	d := Dict{
		"Type": Name("Page"),
		"Kids": Array{Reference{Number: 3}, Integer(2), Real(0.5)},
		"T":    String{Value: []byte("a(b)")},
		"H":    String{Value: []byte{0xAB}, IsHex: true},
	}
	want := `<</H <AB>/Kids [3 0 R 2 0.5]/T (a\(b\))/Type /Page>>`
	if got := d.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}

	// The rendering parses back to the same values.
	obj, err := newParser([]byte(want)).parseObject()
	if err != nil {
		t.Fatal(err)
	}
	back := obj.(Dict)
	if back.GetName("Type") != "Page" || string(back.GetString("T")) != "a(b)" || len(back.GetArray("Kids")) != 3 {
		t.Errorf("round trip lost values: %v", back)
	}
}
