package compression

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const payload = "id,name\n1,ann\n2,bob\n"

func TestDetect(t *testing.T) {
	tests := map[string]Type{
		"a.csv":          None,
		"a.csv.gz":       Gzip,
		"A.CSV.GZ":       Gzip,
		"a.csv.gzip":     Gzip,
		"a.csv.zst":      Zstd,
		"a.csv.xz":       XZ,
		"a.csv.bz2":      Bzip2,
		"dir.gz/a.csv":   None,
		"archive.tar.gz": Gzip,
	}
	for path, want := range tests {
		assert.Equal(t, want, Detect(path), path)
	}
}

func compress(t *testing.T, typ Type) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch typ {
	case Gzip:
		w := gzip.NewWriter(&buf)
		_, err := w.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case Zstd:
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case XZ:
		w, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		buf.WriteString(payload)
	}
	return buf.Bytes()
}

func TestNewReader_RoundTrip(t *testing.T) {
	for _, typ := range []Type{None, Gzip, Zstd, XZ} {
		t.Run(typ.String(), func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(compress(t, typ)), typ)
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, string(got))
		})
	}
}

func TestNewReader_CorruptInput(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("not gzip")), Gzip)
	assert.ErrorContains(t, err, "gzip")

	_, err = NewReader(bytes.NewReader([]byte("not xz")), XZ)
	assert.ErrorContains(t, err, "xz")
}

func TestNewReader_Bzip2CorruptFailsOnRead(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte("not bzip2")), Bzip2)
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.Error(t, err)
}

func TestNewReader_Unsupported(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil), Type(99))
	assert.Error(t, err)
}
