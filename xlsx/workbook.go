// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx writes xlsx workbooks whose sheets are filled lazily by
// row generators, buffering the rows in temporary files.
//
//	wb := xlsx.NewWorkbook(xlsx.WithCompressTempStorage(true))
//	defer wb.Dispose()
//	sh, _ := wb.CreateSheet("data")
//	sh.SetRowGenerator(func(sh *xlsx.Sheet) error {
//		for i := range 1_000_000 {
//			if err := sh.AppendRow(i, "row"); err != nil {
//				return err
//			}
//		}
//		return nil
//	})
//	err := wb.Write(w)
//
// A Workbook is not safe for concurrent use.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/UNO-SOFT/emitsheet"
	"github.com/UNO-SOFT/emitsheet/rowdata"
	"github.com/google/uuid"
)

// Workbook is an ordered set of sheets which are generated and
// merged into one document by Persist.
type Workbook struct {
	logger    *slog.Logger
	tempRoot  string
	dir       string
	id        string
	codec     rowdata.Codec
	sheets    []*Sheet
	compress  bool
	persisted bool
	disposed  bool
}

// Option configures a Workbook.
type Option func(*Workbook)

// WithCompressTempStorage sets whether the sheets buffer their rows compressed.
func WithCompressTempStorage(compress bool) Option {
	return func(wb *Workbook) { wb.compress = compress }
}

// WithCodec sets the compression of the temporary files (gzip by default).
func WithCodec(codec rowdata.Codec) Option {
	return func(wb *Workbook) { wb.codec = codec }
}

// WithTempDir sets the directory the temporary files are created under
// (os.TempDir by default).
func WithTempDir(dir string) Option {
	return func(wb *Workbook) { wb.tempRoot = dir }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(wb *Workbook) {
		if logger != nil {
			wb.logger = logger
		}
	}
}

// NewWorkbook returns an empty Workbook.
func NewWorkbook(opts ...Option) *Workbook {
	wb := &Workbook{logger: slog.Default(), codec: rowdata.Gzip, id: uuid.NewString()}
	for _, o := range opts {
		o(wb)
	}
	wb.logger = wb.logger.With("workbook", wb.id)
	return wb
}

// SetCompressTempStorage sets whether sheets created from now on buffer their rows compressed.
// Existing sheets keep their setting.
func (wb *Workbook) SetCompressTempStorage(compress bool) { wb.compress = compress }

func (wb *Workbook) CompressTempStorage() bool { return wb.compress }

// CreateSheet appends a new sheet.
// An empty name is replaced with an unused "SheetN" name.
// Sheet names are compared case-insensitively.
func (wb *Workbook) CreateSheet(name string) (*Sheet, error) {
	if wb.disposed {
		return nil, emitsheet.ErrDisposed
	}
	if wb.persisted {
		return nil, emitsheet.ErrPersisted
	}
	if name == "" {
		for i := len(wb.sheets) + 1; ; i++ {
			if name = fmt.Sprintf("Sheet%d", i); wb.sheetIndex(name) < 0 {
				break
			}
		}
	} else if wb.sheetIndex(name) >= 0 {
		return nil, fmt.Errorf("%q: %w", name, emitsheet.ErrDuplicateName)
	}
	return wb.addSheet(name), nil
}

func (wb *Workbook) addSheet(name string) *Sheet {
	sh := newSheet(wb, name, len(wb.sheets))
	wb.sheets = append(wb.sheets, sh)
	return sh
}

func (wb *Workbook) sheetIndex(name string) int {
	for i, sh := range wb.sheets {
		if strings.EqualFold(sh.name, name) {
			return i
		}
	}
	return -1
}

// SheetAt returns the sheet at index.
func (wb *Workbook) SheetAt(index int) (*Sheet, error) {
	if index < 0 || index >= len(wb.sheets) {
		return nil, fmt.Errorf("%d of %d: %w", index, len(wb.sheets), emitsheet.ErrIndexOutOfRange)
	}
	return wb.sheets[index], nil
}

// Sheet returns the sheet with the given name, or nil.
func (wb *Workbook) Sheet(name string) *Sheet {
	if i := wb.sheetIndex(name); i >= 0 {
		return wb.sheets[i]
	}
	return nil
}

func (wb *Workbook) NumberOfSheets() int { return len(wb.sheets) }

// Sheets iterates over the sheets in index order.
func (wb *Workbook) Sheets() iter.Seq[*Sheet] {
	return func(yield func(*Sheet) bool) {
		for _, sh := range wb.sheets {
			if !yield(sh) {
				return
			}
		}
	}
}

// CloneSheet is not supported: the rows of a sheet are not kept in memory.
func (wb *Workbook) CloneSheet(index int) (*Sheet, error) {
	return nil, fmt.Errorf("clone sheet %d: %w", index, emitsheet.ErrNotImplemented)
}

// tempDir creates the private temp directory of the workbook on first use.
func (wb *Workbook) tempDir() (string, error) {
	if wb.dir != "" {
		return wb.dir, nil
	}
	root := wb.tempRoot
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "emitsheet-"+wb.id)
	if err := os.Mkdir(dir, 0o700); err != nil && !errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	wb.dir = dir
	return dir, nil
}

// Persist runs the row generator of each sheet in index order,
// then merges the generated rows with the existing ones into a Document.
//
// A failing generator aborts Persist with a *emitsheet.GenerationError.
// Persist can be called only once; Dispose must be called in any case.
func (wb *Workbook) Persist() (*Document, error) {
	if wb.disposed {
		return nil, emitsheet.ErrDisposed
	}
	if wb.persisted {
		return nil, emitsheet.ErrPersisted
	}
	wb.persisted = true
	for _, sh := range wb.sheets {
		if err := sh.drain(); err != nil {
			return nil, err
		}
	}
	doc, err := materialize(wb.sheets, wb.logger)
	if err != nil {
		return nil, err
	}
	ok := true
	for _, sh := range wb.sheets {
		if err := sh.reclaim(); err != nil {
			wb.logger.Warn("remove row data", "sheet", sh.name, "error", err)
			ok = false
		}
	}
	if ok {
		_ = wb.removeTempDir()
	}
	return doc, nil
}

// Write persists the workbook into w.
func (wb *Workbook) Write(w io.Writer) error {
	doc, err := wb.Persist()
	if err != nil {
		return err
	}
	_, err = doc.WriteTo(w)
	if cerr := doc.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Dispose closes all active row data writers and removes the temporary files.
// It reports whether everything could be removed, trying every sheet regardless.
// It is safe to call more than once.
func (wb *Workbook) Dispose() bool {
	wb.disposed = true
	ok := true
	for _, sh := range wb.sheets {
		if err := sh.reclaim(); err != nil {
			wb.logger.Warn("dispose", "sheet", sh.name, "error", err)
			ok = false
		}
	}
	if err := wb.removeTempDir(); err != nil {
		ok = false
	}
	return ok
}

func (wb *Workbook) removeTempDir() error {
	if wb.dir == "" {
		return nil
	}
	if err := os.Remove(wb.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		wb.logger.Warn("remove temp dir", "dir", wb.dir, "error", err)
		return err
	}
	wb.logger.Debug("removed temp dir", "dir", wb.dir)
	wb.dir = ""
	return nil
}
