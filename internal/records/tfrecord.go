package records

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// Extension is the file extension of shard files.
const Extension = "tfrecords"

var ErrCorrupt = errors.New("corrupt record")

var crcTable = crc32.MakeTable(crc32.Castagnoli)

func maskedCRC(b []byte) uint32 {
	c := crc32.Checksum(b, crcTable)
	return ((c >> 15) | (c << 17)) + 0xa282ead8
}

// Writer appends length delimited, checksummed records to an io.Writer
// using the TFRecord framing.
type Writer struct {
	w     *bufio.Writer
	count int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(data []byte) error {
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(data)))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))

	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], maskedCRC(data))

	for _, b := range [][]byte{header[:], data, footer[:]} {
		if _, err := w.w.Write(b); err != nil {
			return fmt.Errorf("error writing record: %w", err)
		}
	}
	w.count++
	return nil
}

func (w *Writer) WriteRecord(rec *Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return err
	}
	return w.Write(data)
}

// Count is the number of records written so far.
func (w *Writer) Count() int {
	return w.count
}

func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("error flushing records: %w", err)
	}
	return nil
}

type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the payload of the next record, or io.EOF after the last one.
func (r *Reader) Next() ([]byte, error) {
	var header [12]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorrupt, err)
	}

	if got, want := binary.LittleEndian.Uint32(header[8:]), maskedCRC(header[:8]); got != want {
		return nil, fmt.Errorf("%w: length checksum %08x != %08x", ErrCorrupt, got, want)
	}

	length := binary.LittleEndian.Uint64(header[:8])
	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, fmt.Errorf("%w: reading %d byte payload: %v", ErrCorrupt, length, err)
	}

	var footer [4]byte
	if _, err := io.ReadFull(r.r, footer[:]); err != nil {
		return nil, fmt.Errorf("%w: reading payload checksum: %v", ErrCorrupt, err)
	}
	if got, want := binary.LittleEndian.Uint32(footer[:]), maskedCRC(data); got != want {
		return nil, fmt.Errorf("%w: payload checksum %08x != %08x", ErrCorrupt, got, want)
	}

	return data, nil
}

func (r *Reader) NextRecord() (*Record, error) {
	data, err := r.Next()
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// ReadFile decodes every record of a shard file.
func ReadFile(path string) ([]*Record, error) {
	var out []*Record
	err := scanFile(path, func(data []byte) error {
		rec, err := Unmarshal(data)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// CountFile counts the records of a shard file, verifying checksums but not
// decoding payloads.
func CountFile(path string) (int, error) {
	count := 0
	err := scanFile(path, func([]byte) error {
		count++
		return nil
	})
	return count, err
}

func scanFile(path string, fn func([]byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	r := NewReader(f)
	for i := 0; ; i++ {
		data, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s record %d: %w", path, i, err)
		}
		if err := fn(data); err != nil {
			return fmt.Errorf("%s record %d: %w", path, i, err)
		}
	}
}
