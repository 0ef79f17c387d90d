// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmem

import (
	"bytes"
	"io"
)

// SegmentReader is a reader for safe byte-level access to a segment.
// It holds a reference to the segment, so the latter can't be gc'ed
// while the reader is in use.
type SegmentReader struct {
	seg *Segment
	*bytes.Reader
}

// NewSegmentReader creates a new reader over the segment's mapping.
func NewSegmentReader(seg *Segment) *SegmentReader {
	return &SegmentReader{
		seg:    seg,
		Reader: bytes.NewReader(seg.Data()),
	}
}

// SegmentWriter is a writer for safe byte-level access to a segment.
// It holds a reference to the segment, so the latter can't be gc'ed
// while the writer is in use.
type SegmentWriter struct {
	seg *Segment
	pos int64
}

// NewSegmentWriter creates a new writer over the segment's mapping.
func NewSegmentWriter(seg *Segment) *SegmentWriter {
	return &SegmentWriter{seg: seg}
}

// WriteAt is to implement io.WriterAt.
func (w *SegmentWriter) WriteAt(p []byte, off int64) (n int, err error) {
	data := w.seg.Data()
	n = len(data) - int(off)
	if n > 0 {
		if n > len(p) {
			n = len(p)
		}
		copy(data[off:], p[:n])
	} else {
		n = 0
	}
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

// Write is to implement io.Writer.
func (w *SegmentWriter) Write(p []byte) (n int, err error) {
	n, err = w.WriteAt(p, w.pos)
	w.pos += int64(n)
	return n, err
}
