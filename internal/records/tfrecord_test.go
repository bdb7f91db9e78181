package records

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskedCRC(t *testing.T) {
	assert.Equal(t, uint32(0xa282ead8), maskedCRC(nil))
	assert.Equal(t, uint32(0xc78ab0e5), maskedCRC([]byte("123456789")))
}

func TestWriterReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write([]byte("first")))
	require.NoError(t, w.Write([]byte{}))
	require.NoError(t, w.Write([]byte("third record")))
	require.NoError(t, w.Flush())
	assert.Equal(t, 3, w.Count())

	// 16 bytes of framing per record.
	assert.Equal(t, 3*16+len("first")+len("third record"), buf.Len())

	r := NewReader(&buf)
	for _, want := range [][]byte{[]byte("first"), {}, []byte("third record")} {
		got, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_Corruption(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write([]byte("payload")))
	require.NoError(t, w.Flush())
	framed := buf.Bytes()

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"length", func(b []byte) []byte { b[0] ^= 0x01; return b }},
		{"payload", func(b []byte) []byte { b[13] ^= 0x01; return b }},
		{"footer", func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }},
		{"truncated header", func(b []byte) []byte { return b[:5] }},
		{"truncated payload", func(b []byte) []byte { return b[:15] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), framed...))
			_, err := NewReader(bytes.NewReader(data)).Next()
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train_0001_of_0001.tfrecords")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := NewWriter(f)
	first, second := sampleRecord(), sampleRecord()
	second.Filename = "015599452.jpg"
	require.NoError(t, w.WriteRecord(first))
	require.NoError(t, w.WriteRecord(second))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	count, err := CountFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, first, recs[0])
	assert.Equal(t, "015599452.jpg", recs[1].Filename)
}

func TestCountFile_Missing(t *testing.T) {
	_, err := CountFile(filepath.Join(t.TempDir(), "missing.tfrecords"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
