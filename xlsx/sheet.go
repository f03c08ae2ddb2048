// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/UNO-SOFT/emitsheet"
	"github.com/UNO-SOFT/emitsheet/rowdata"
	"github.com/zeebo/errs"
)

// RowGenerator fills a sheet. It is called once, when the workbook is persisted.
type RowGenerator func(*Sheet) error

var _ = (emitsheet.Sheet)((*Sheet)(nil))

// Sheet is a sheet whose rows are produced by a RowGenerator and
// buffered in a temporary file instead of memory.
type Sheet struct {
	wb        *Workbook
	generator RowGenerator
	writer    rowdata.Writer
	buffered  *rowdata.File
	current   *Row
	logger    *slog.Logger
	name      string
	codec     rowdata.Codec
	columns   []emitsheet.Column
	existing  []rowdata.Record
	index     int
	lastRow   int
	lastCol   int
	rows      int
	compress  bool
	drained   bool
	running   bool
}

func newSheet(wb *Workbook, name string, index int) *Sheet {
	return &Sheet{
		wb: wb, name: name, index: index,
		compress: wb.compress, codec: wb.codec,
		logger:  wb.logger.With("sheet", name),
		lastRow: -1, lastCol: -1,
	}
}

func (sh *Sheet) Name() string { return sh.name }
func (sh *Sheet) Index() int   { return sh.index }

// Compressed reports whether the sheet buffers its rows compressed.
func (sh *Sheet) Compressed() bool { return sh.compress }

// SetRowGenerator sets the routine that fills the sheet on Persist,
// replacing any previous one. It has no effect after the sheet is drained.
func (sh *Sheet) SetRowGenerator(gen RowGenerator) {
	if sh.drained {
		return
	}
	sh.generator = gen
}

// SetColumns sets the header row, written as row 0 with the header styles.
// Column styles apply to every generated cell of the column.
// Generated rows start at 1 when a header is set.
func (sh *Sheet) SetColumns(columns []emitsheet.Column) error {
	if sh.drained || sh.running {
		return fmt.Errorf("%s: columns must be set before the rows are generated", sh.name)
	}
	if len(columns) > emitsheet.MaxColumnCount {
		return fmt.Errorf("%s: %w", sh.name, emitsheet.ErrTooManyColumns)
	}
	sh.columns = slices.Clone(columns)
	if sh.lastRow < 0 && hasHeader(columns) {
		sh.lastRow = 0
	}
	return nil
}

func (sh *Sheet) Columns() []emitsheet.Column { return sh.columns }

func hasHeader(columns []emitsheet.Column) bool {
	for _, c := range columns {
		if c.Name != "" {
			return true
		}
	}
	return false
}

// DataWriter returns the active row data writer, or nil if there is none.
func (sh *Sheet) DataWriter() rowdata.Writer { return sh.writer }

// PreexistingRows is the number of rows adopted from an existing document.
func (sh *Sheet) PreexistingRows() int { return len(sh.existing) }

// GeneratedRows is the number of rows written by the generator so far.
func (sh *Sheet) GeneratedRows() int { return sh.rows }

// PhysicalRows is the number of non-empty rows, header included.
func (sh *Sheet) PhysicalRows() int {
	n := len(sh.existing) + sh.rows
	if hasHeader(sh.columns) {
		n++
	}
	return n
}

// LastRowNum returns the highest row index used, -1 for an empty sheet.
func (sh *Sheet) LastRowNum() int {
	last := sh.lastRow
	if len(sh.existing) != 0 {
		last = max(last, sh.existing[len(sh.existing)-1].Index)
	}
	return last
}

// LastColumn returns the highest column index written, -1 if none.
func (sh *Sheet) LastColumn() int {
	last := sh.lastCol
	if sh.current != nil {
		for _, c := range sh.current.cells {
			last = max(last, c.Col)
		}
	}
	for _, rec := range sh.existing {
		if n := len(rec.Cells); n != 0 {
			last = max(last, rec.Cells[n-1].Col)
		}
	}
	return last
}

// CreateRow starts a new row at index, flushing the previous one.
// index must be greater than any row index used before on this sheet.
// It can only be called from the sheet's RowGenerator, and not after
// the workbook is disposed.
func (sh *Sheet) CreateRow(index int) (*Row, error) {
	if sh.wb.disposed {
		return nil, fmt.Errorf("%s: create row %d: %w", sh.name, index, emitsheet.ErrDisposed)
	}
	if !sh.running {
		return nil, fmt.Errorf("%s: create row %d: %w", sh.name, index, emitsheet.ErrNotGenerating)
	}
	if index <= sh.lastRow {
		return nil, &emitsheet.NonMonotonicRowError{Sheet: sh.name, Row: index, Last: sh.lastRow}
	}
	if index >= emitsheet.MaxRowCount {
		return nil, fmt.Errorf("%s: row %d: %w", sh.name, index, emitsheet.ErrTooManyRows)
	}
	if err := sh.flushRow(); err != nil {
		return nil, err
	}
	if sh.writer == nil {
		if err := sh.openWriter(); err != nil {
			return nil, err
		}
	}
	sh.lastRow = index
	sh.current = &Row{sheet: sh, index: index}
	return sh.current, nil
}

// AppendRow writes values into a new row from column 0, after the last
// row of the sheet, adopted rows included.
func (sh *Sheet) AppendRow(values ...any) error {
	row, err := sh.CreateRow(sh.LastRowNum() + 1)
	if err != nil {
		return err
	}
	for i, v := range values {
		if err := row.SetCell(i, v); err != nil {
			return err
		}
	}
	return nil
}

func (sh *Sheet) openWriter() error {
	if sh.wb.disposed {
		return emitsheet.ErrDisposed
	}
	dir, err := sh.wb.tempDir()
	if err != nil {
		return err
	}
	w, err := rowdata.New(dir, sh.compress, sh.codec)
	if err != nil {
		return fmt.Errorf("%s: open row data: %w", sh.name, err)
	}
	sh.writer = w
	sh.logger.Debug("open row data", "file", w.File().Path, "compressed", sh.compress)
	return nil
}

func (sh *Sheet) flushRow() error {
	row := sh.current
	if row == nil {
		return nil
	}
	sh.current = nil
	slices.SortStableFunc(row.cells, func(a, b rowdata.Cell) int { return a.Col - b.Col })
	if n := len(row.cells); n != 0 {
		sh.lastCol = max(sh.lastCol, row.cells[n-1].Col)
	}
	if err := sh.writer.Append(row.index, row.cells); err != nil {
		return fmt.Errorf("%s: row %d: %w", sh.name, row.index, err)
	}
	sh.rows++
	return nil
}

// closeWriter closes the active writer and keeps its file for the merge.
func (sh *Sheet) closeWriter() error {
	w := sh.writer
	if w == nil {
		return nil
	}
	sh.writer = nil
	err := w.Close()
	f := w.File()
	sh.buffered = &f
	return err
}

// drain runs the generator once and closes the writer.
func (sh *Sheet) drain() (err error) {
	if sh.drained {
		return nil
	}
	sh.drained = true
	gen := sh.generator
	if gen == nil {
		return nil
	}
	sh.logger.Debug("drain", "index", sh.index)
	sh.running = true
	defer func() {
		sh.running = false
		sh.current = nil
		if cerr := sh.closeWriter(); cerr != nil && err == nil {
			err = fmt.Errorf("%s: close row data: %w", sh.name, cerr)
		}
		sh.logger.Debug("drained", "rows", sh.rows, "lastRow", sh.lastRow, "lastCol", sh.lastCol, "error", err)
	}()
	if err = gen(sh); err != nil {
		return &emitsheet.GenerationError{Sheet: sh.name, Index: sh.index, Err: err}
	}
	return sh.flushRow()
}

// reclaim removes the temporary storage of the sheet, closing the writer if still active.
func (sh *Sheet) reclaim() error {
	var err error
	if w := sh.writer; w != nil {
		sh.writer = nil
		err = errs.Combine(w.Close(), w.File().Remove())
	}
	if f := sh.buffered; f != nil {
		if rerr := f.Remove(); rerr != nil {
			err = errs.Combine(err, rerr)
		} else {
			sh.buffered = nil
		}
	}
	sh.current = nil
	return err
}

// Row is the row being built. Its cells go to the row data writer when
// the next row is created or the generator returns.
type Row struct {
	sheet *Sheet
	cells []rowdata.Cell
	index int
}

func (r *Row) Index() int { return r.index }

// SetCell sets the value at the zero-based column, replacing any previous value.
func (r *Row) SetCell(col int, value any) error {
	if r.sheet.current != r {
		return fmt.Errorf("%s: row %d: %w", r.sheet.name, r.index, emitsheet.ErrRowFlushed)
	}
	if col < 0 || col >= emitsheet.MaxColumnCount {
		return fmt.Errorf("%s: row %d col %d: %w", r.sheet.name, r.index, col, emitsheet.ErrTooManyColumns)
	}
	c, err := toCell(col, value)
	if err != nil {
		return fmt.Errorf("%s: row %d col %d: %w", r.sheet.name, r.index, col, err)
	}
	for i := range r.cells {
		if r.cells[i].Col == col {
			r.cells[i] = c
			return nil
		}
	}
	r.cells = append(r.cells, c)
	return nil
}
