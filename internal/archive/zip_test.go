package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestWriteZip(t *testing.T) {
	entries := []Entry{
		{Name: "page_1.pdf", Data: []byte("first")},
		{Name: "page_2.pdf", Data: []byte("second")},
	}

	var buf bytes.Buffer
	if err := WriteZip(&buf, entries); err != nil {
		t.Fatalf("WriteZip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(zr.File) != len(entries) {
		t.Fatalf("archive has %d entries, want %d", len(zr.File), len(entries))
	}
	for i, f := range zr.File {
		if f.Name != entries[i].Name {
			t.Errorf("entry %d named %q, want %q", i, f.Name, entries[i].Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil || !bytes.Equal(data, entries[i].Data) {
			t.Errorf("entry %d content %q, %v", i, data, err)
		}
	}

	var again bytes.Buffer
	if err := WriteZip(&again, entries); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), again.Bytes()) {
		t.Error("same entries produced different archives")
	}
}
