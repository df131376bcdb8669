// Package zip streams asset archives to an output sink. Entries are written
// straight through to the sink as they are appended; the archive is never
// materialized in memory.
package zip

import (
	stdzip "archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"time"
)

// Writer builds one compressed archive bound to a destination sink.
// Compression is fixed at maximum deflate; export archives are for at-rest
// transfer, not latency-critical paths. A Writer is single-writer: appends
// must not interleave.
type Writer struct {
	zw      *stdzip.Writer
	entries int
	closed  bool
}

// NewWriter begins a new archive bound to sink.
func NewWriter(sink io.Writer) *Writer {
	zw := stdzip.NewWriter(sink)
	zw.RegisterCompressor(stdzip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return &Writer{zw: zw}
}

// Append adds one entry under path with the given modification time (zero
// means now). Paths must be unique within the archive; a duplicate is
// last-write-wins on extraction and callers are responsible for avoiding it.
// Any error is a sink failure and the archive must be abandoned.
func (w *Writer) Append(path string, data []byte, modified time.Time) error {
	if w.closed {
		return fmt.Errorf("zip: append %s: archive already finalized", path)
	}
	if modified.IsZero() {
		modified = time.Now().UTC()
	}
	hdr := &stdzip.FileHeader{
		Name:     path,
		Method:   stdzip.Deflate,
		Modified: modified,
	}
	entry, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("zip: create %s: %w", path, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("zip: write %s: %w", path, err)
	}
	w.entries++
	return nil
}

// Entries returns the number of entries appended so far.
func (w *Writer) Entries() int {
	return w.entries
}

// Close writes the trailing central directory and finalizes the archive.
// No Append is valid afterwards.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("zip: finalize: %w", err)
	}
	return nil
}
