// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package rowdata buffers the rows of one sheet in a temporary file.
//
// A Writer appends rows sequentially; once it is closed its File can be
// replayed with File.Open and must be removed by the owner with File.Remove.
package rowdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/UNO-SOFT/emitsheet"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/quicktemplate"
	"github.com/zeebo/errs"
)

// Writer is an append-only row sink backed by a temporary file.
type Writer interface {
	io.Closer
	// Append writes one row. Rows are expected in ascending index order.
	Append(index int, cells []Cell) error
	// File describes the backing storage.
	File() File
}

// Codec is the compression used by the compressed strategy.
type Codec string

const (
	Gzip Codec = "gzip"
	Zstd Codec = "zstd"
)

func (c Codec) ext() string {
	if c == Zstd {
		return ".zst"
	}
	return ".gz"
}

func (c Codec) newWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	case Gzip, "":
		return gzip.NewWriterLevel(w, gzip.BestSpeed)
	default:
		return nil, fmt.Errorf("unknown codec %q", c)
	}
}

func (c Codec) newReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case Gzip, "":
		return gzip.NewReader(r)
	default:
		return nil, fmt.Errorf("unknown codec %q", c)
	}
}

// File is the temporary storage of a Writer.
type File struct {
	Path       string
	Codec      Codec
	Rows       int
	Compressed bool
}

// Remove deletes the file. A missing file is not an error.
func (f File) Remove() error {
	if f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

const bufSize = 64 << 10

// New creates a temporary file in dir and returns a Writer on it:
// a compressed one using codec if compress is true, a plain one otherwise.
func New(dir string, compress bool, codec Codec) (Writer, error) {
	pattern := "rows-*.xml"
	if compress {
		if codec == "" {
			codec = Gzip
		}
		pattern += codec.ext()
	}
	fh, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(fh, bufSize)
	if !compress {
		ew := &stickyWriter{w: bw}
		return &plainWriter{fh: fh, bw: bw, ew: ew, qw: quicktemplate.AcquireWriter(ew)}, nil
	}
	zw, err := codec.newWriter(bw)
	if err != nil {
		_ = errs.Combine(fh.Close(), os.Remove(fh.Name()))
		return nil, err
	}
	ew := &stickyWriter{w: zw}
	return &compressedWriter{
		plainWriter: plainWriter{fh: fh, bw: bw, ew: ew, qw: quicktemplate.AcquireWriter(ew)},
		zw:          zw, codec: codec,
	}, nil
}

// stickyWriter remembers the first write error, which the
// quicktemplate writer would swallow.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (w *stickyWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	if err != nil {
		w.err = err
	}
	return n, err
}

type plainWriter struct {
	fh     *os.File
	bw     *bufio.Writer
	ew     *stickyWriter
	qw     *quicktemplate.Writer
	rows   int
	closed bool
}

var _ Writer = (*plainWriter)(nil)

func (w *plainWriter) Append(index int, cells []Cell) error {
	if w.closed {
		return emitsheet.ErrWriterClosed
	}
	writeRecord(w.qw, Record{Index: index, Cells: cells})
	if w.ew.err != nil {
		return fmt.Errorf("append row %d: %w", index, w.ew.err)
	}
	w.rows++
	return nil
}

func (w *plainWriter) File() File { return File{Path: w.fh.Name(), Rows: w.rows} }

// Close flushes the buffer and closes the file. It can be called more than once.
func (w *plainWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	quicktemplate.ReleaseWriter(w.qw)
	w.qw = nil
	return errs.Combine(w.bw.Flush(), w.fh.Close())
}

type compressedWriter struct {
	zw    io.WriteCloser
	codec Codec
	plainWriter
}

var _ Writer = (*compressedWriter)(nil)

func (w *compressedWriter) File() File {
	f := w.plainWriter.File()
	f.Compressed, f.Codec = true, w.codec
	return f
}

// Close writes the compressor's trailer, then flushes and closes the file.
// It can be called more than once.
func (w *compressedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	quicktemplate.ReleaseWriter(w.qw)
	w.qw = nil
	return errs.Combine(w.zw.Close(), w.bw.Flush(), w.fh.Close())
}
