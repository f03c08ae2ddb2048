// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package rowdata

import (
	"bufio"
	"encoding/xml"
	"os"

	"github.com/zeebo/errs"
)

// Reader replays the rows of a closed Writer's File.
type Reader struct {
	fh  *os.File
	zr  interface{ Close() error }
	dec *xml.Decoder
}

// Open opens the file for reading, decompressing it if needed.
func (f File) Open() (*Reader, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	rd := &Reader{fh: fh}
	br := bufio.NewReaderSize(fh, bufSize)
	if !f.Compressed {
		rd.dec = xml.NewDecoder(br)
		return rd, nil
	}
	zr, err := f.Codec.newReader(br)
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	rd.zr, rd.dec = zr, xml.NewDecoder(zr)
	return rd, nil
}

// Next returns the next row, or io.EOF after the last one.
func (rd *Reader) Next() (Record, error) { return readRecord(rd.dec) }

func (rd *Reader) Close() error {
	var err error
	if rd.zr != nil {
		err = rd.zr.Close()
		rd.zr = nil
	}
	if rd.fh != nil {
		err = errs.Combine(err, rd.fh.Close())
		rd.fh = nil
	}
	return err
}
