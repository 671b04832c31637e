// Package compress gzips text artifacts.
package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Level is the compression level used by Gzip.
const Level = gzip.DefaultCompression

// Gzip compresses data. The header carries no name or modification time,
// so identical input always yields identical output.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, Level)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "gzip write")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "gzip close")
	}
	return buf.Bytes(), nil
}

// GzipString compresses the UTF-8 bytes of s.
func GzipString(s string) ([]byte, error) {
	return Gzip([]byte(s))
}

// Gunzip decompresses data produced by Gzip.
func Gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "gzip header")
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "gunzip")
	}
	return out, nil
}
