// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/UNO-SOFT/emitsheet"
	"github.com/UNO-SOFT/emitsheet/rowdata"
	"github.com/xuri/excelize/v2"
	"github.com/zeebo/errs"
)

// Document is a persisted workbook.
type Document struct {
	File *excelize.File
}

func (doc *Document) WriteTo(w io.Writer) (int64, error) { return doc.File.WriteTo(w) }
func (doc *Document) SaveAs(name string) error           { return doc.File.SaveAs(name) }
func (doc *Document) Close() error                       { return doc.File.Close() }

// Adopt returns a new Workbook appending to the sheets of the document.
func (doc *Document) Adopt(opts ...Option) (*Workbook, error) { return Adopt(doc.File, opts...) }

type materializer struct {
	xl     *excelize.File
	logger *slog.Logger
	styles map[string]int
}

// materialize writes the sheets into a new document, merging the adopted
// rows with the buffered ones by row index.
func materialize(sheets []*Sheet, logger *slog.Logger) (*Document, error) {
	m := &materializer{xl: excelize.NewFile(), logger: logger}
	for i, sh := range sheets {
		if err := m.addSheet(i, sh.name); err != nil {
			return nil, errs.Combine(err, m.xl.Close())
		}
	}
	for _, sh := range sheets {
		if err := m.writeSheet(sh); err != nil {
			return nil, errs.Combine(err, m.xl.Close())
		}
	}
	return &Document{File: m.xl}, nil
}

func (m *materializer) addSheet(i int, name string) error {
	if i == 0 {
		return m.xl.SetSheetName(m.xl.GetSheetName(0), name)
	}
	if idx, err := m.xl.GetSheetIndex(name); err != nil {
		return fmt.Errorf("%q: %w", name, err)
	} else if idx >= 0 {
		return fmt.Errorf("%q: %w", name, emitsheet.ErrDuplicateName)
	}
	_, err := m.xl.NewSheet(name)
	return err
}

func (m *materializer) writeSheet(sh *Sheet) error {
	sw, err := m.xl.NewStreamWriter(sh.name)
	if err != nil {
		return fmt.Errorf("%s: %w", sh.name, err)
	}
	colStyles, err := m.columnStyles(sh.columns)
	if err != nil {
		return fmt.Errorf("%s: %w", sh.name, err)
	}
	prev := -1
	if hasHeader(sh.columns) {
		if err = m.writeHeader(sw, sh.columns); err != nil {
			return fmt.Errorf("%s: header: %w", sh.name, err)
		}
		prev = 0
	}

	gen := func() (rowdata.Record, bool, error) { return rowdata.Record{}, false, nil }
	if sh.buffered != nil {
		rd, err := sh.buffered.Open()
		if err != nil {
			return fmt.Errorf("%s: %w", sh.name, err)
		}
		defer rd.Close()
		gen = func() (rowdata.Record, bool, error) {
			rec, err := rd.Next()
			if errors.Is(err, io.EOF) {
				return rec, false, nil
			}
			return rec, err == nil, err
		}
	}
	next, ok, err := gen()
	if err != nil {
		return fmt.Errorf("%s: %w", sh.name, err)
	}
	existing := sh.existing
	var written int
	for len(existing) != 0 || ok {
		var rec rowdata.Record
		var styles []int
		if len(existing) != 0 && (!ok || existing[0].Index <= next.Index) {
			rec, existing = existing[0], existing[1:]
		} else {
			rec, styles = next, colStyles
			if next, ok, err = gen(); err != nil {
				return fmt.Errorf("%s: %w", sh.name, err)
			}
		}
		if rec.Index <= prev {
			return &emitsheet.MergeConflictError{Sheet: sh.name, Row: rec.Index}
		}
		prev = rec.Index
		if err = writeRecord(sw, rec, styles); err != nil {
			return fmt.Errorf("%s: row %d: %w", sh.name, rec.Index, err)
		}
		written++
	}
	m.logger.Debug("materialized", "sheet", sh.name, "rows", written, "adopted", len(sh.existing))
	return sw.Flush()
}

func (m *materializer) writeHeader(sw *excelize.StreamWriter, columns []emitsheet.Column) error {
	values := make([]any, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			continue
		}
		s, err := m.getStyle(c.Header)
		if err != nil {
			return err
		}
		values[i] = excelize.Cell{StyleID: s, Value: c.Name}
	}
	return sw.SetRow("A1", values)
}

func (m *materializer) columnStyles(columns []emitsheet.Column) ([]int, error) {
	var styles []int
	for i, c := range columns {
		s, err := m.getStyle(c.Column)
		if err != nil {
			return nil, err
		}
		if s == 0 {
			continue
		}
		if styles == nil {
			styles = make([]int, len(columns))
		}
		styles[i] = s
	}
	return styles, nil
}

func writeRecord(sw *excelize.StreamWriter, rec rowdata.Record, styles []int) error {
	if len(rec.Cells) == 0 {
		return nil
	}
	values := make([]any, rec.Cells[len(rec.Cells)-1].Col+1)
	for _, c := range rec.Cells {
		v := c.Value()
		if v == nil {
			continue
		}
		if c.Col < len(styles) && styles[c.Col] != 0 {
			v = excelize.Cell{StyleID: styles[c.Col], Value: v}
		}
		values[c.Col] = v
	}
	axis, err := excelize.CoordinatesToCellName(1, rec.Index+1)
	if err != nil {
		return err
	}
	return sw.SetRow(axis, values)
}
