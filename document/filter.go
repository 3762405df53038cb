package document

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"
)

// decodeStream applies the filter chain specified in the stream dictionary to decompress data.
// Only the filters needed to read cross-reference and object streams (and
// content streams for text extraction) are supported; image filters are never
// decoded since image data is copied verbatim.
func decodeStream(s Stream) ([]byte, error) {
	data := s.Data
	filter := s.Dict["Filter"]

	if filter == nil {
		return data, nil
	}

	var filters []Name
	switch f := filter.(type) {
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("filter array contains non-name: %T", item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, fmt.Errorf("unexpected filter type: %T", filter)
	}

	parms := decodeParms(s.Dict, len(filters))

	var err error
	for i, f := range filters {
		data, err = applyFilter(f, data)
		if err != nil {
			return nil, fmt.Errorf("applying filter %s: %w", f, err)
		}
		if f == "FlateDecode" && parms[i] != nil {
			data, err = applyPredictor(data, parms[i])
			if err != nil {
				return nil, fmt.Errorf("applying predictor: %w", err)
			}
		}
	}
	return data, nil
}

// decodeParms returns the /DecodeParms dictionary for each filter position.
func decodeParms(d Dict, n int) []Dict {
	parms := make([]Dict, n)
	switch v := d["DecodeParms"].(type) {
	case Dict:
		if n > 0 {
			parms[0] = v
		}
	case Array:
		for i, item := range v {
			if i >= n {
				break
			}
			if pd, ok := item.(Dict); ok {
				parms[i] = pd
			}
		}
	}
	return parms
}

// applyFilter applies a single decompression filter to the data.
func applyFilter(name Name, data []byte) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return flateDecode(data)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	default:
		return nil, fmt.Errorf("unsupported filter: %s", name)
	}
}

// flateDecode decompresses zlib/deflate encoded data.
func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib init: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		// Truncated streams are common; keep what could be inflated.
		if buf.Len() > 0 && (err == io.ErrUnexpectedEOF) {
			return buf.Bytes(), nil
		}
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return buf.Bytes(), nil
}

// flateEncode compresses data with zlib at the default level.
func flateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}

// applyPredictor reverses PNG row predictors (Predictor >= 10), as used by
// cross-reference streams.
func applyPredictor(data []byte, parms Dict) ([]byte, error) {
	predictor, _ := parms.GetInt("Predictor")
	if predictor < 10 {
		if predictor > 1 {
			return nil, fmt.Errorf("unsupported predictor %d", predictor)
		}
		return data, nil
	}

	columns, ok := parms.GetInt("Columns")
	if !ok || columns <= 0 {
		columns = 1
	}
	colors, ok := parms.GetInt("Colors")
	if !ok || colors <= 0 {
		colors = 1
	}
	bpc, ok := parms.GetInt("BitsPerComponent")
	if !ok || bpc <= 0 {
		bpc = 8
	}

	bpp := int((colors*bpc + 7) / 8)
	rowLen := int((columns*colors*bpc + 7) / 8)
	stride := rowLen + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("predictor data length %d is not a multiple of row size %d", len(data), stride)
	}

	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)
	row := make([]byte, rowLen)

	for off := 0; off < len(data); off += stride {
		tag := data[off]
		copy(row, data[off+1:off+stride])
		for i := 0; i < rowLen; i++ {
			var left, up, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]
			switch tag {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d", tag)
			}
		}
		out = append(out, row...)
		prev, row = row, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// asciiHexDecode decodes ASCII hex-encoded data (terminated by '>').
func asciiHexDecode(data []byte) ([]byte, error) {
	var clean bytes.Buffer
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isWhitespace(b) {
			clean.WriteByte(b)
		}
	}

	src := clean.Bytes()
	if len(src)%2 != 0 {
		src = append(src, '0')
	}

	dst := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(dst, src); err != nil {
		return nil, fmt.Errorf("ascii hex decode: %w", err)
	}
	return dst, nil
}

// ascii85Decode decodes ASCII85-encoded data (terminated by "~>").
func ascii85Decode(data []byte) ([]byte, error) {
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}

	decoder := ascii85.NewDecoder(bytes.NewReader(data))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, decoder); err != nil {
		return nil, fmt.Errorf("ascii85 decode: %w", err)
	}
	return buf.Bytes(), nil
}
