// Package compression opens compressed input files transparently. The
// codec is chosen from the file extension.
package compression

import (
	"compress/bzip2"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Type identifies a compression codec.
type Type int

const (
	None Type = iota
	Gzip
	Zstd
	XZ
	Bzip2
)

var extensions = []struct {
	ext string
	typ Type
}{
	{".gz", Gzip},
	{".gzip", Gzip},
	{".zst", Zstd},
	{".zstd", Zstd},
	{".xz", XZ},
	{".bz2", Bzip2},
}

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case XZ:
		return "xz"
	case Bzip2:
		return "bzip2"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Detect returns the codec implied by the file name's last extension.
func Detect(path string) Type {
	lower := strings.ToLower(path)
	for _, e := range extensions {
		if strings.HasSuffix(lower, e.ext) {
			return e.typ
		}
	}
	return None
}

// NewReader wraps r with a decoder for t. Closing the returned reader
// releases the decoder; it does not close r.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	switch t {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return readCloser{Reader: dec, close: func() error { dec.Close(); return nil }}, nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return io.NopCloser(xr), nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression %v", t)
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }
