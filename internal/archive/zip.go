// Package archive bundles job outputs for download.
package archive

import (
	"archive/zip"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Entry is one file of an archive.
type Entry struct {
	Name string
	Data []byte
}

// epoch is the modification time of every entry, so equal entries produce
// equal archives.
var epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// WriteZip writes entries to w as a zip archive. It returns once every
// entry and the central directory have been written.
func WriteZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)

	for _, e := range entries {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: epoch,
		})
		if err != nil {
			return errors.Wrapf(err, "could not add %s to archive", e.Name)
		}
		if _, err := f.Write(e.Data); err != nil {
			return errors.Wrapf(err, "could not write %s to archive", e.Name)
		}
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "could not finalize archive")
	}
	return nil
}
