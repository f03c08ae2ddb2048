// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package emitsheet holds the vocabulary shared by the streaming
// spreadsheet writer: column styles, the Sheet contract row generators
// write through, and the errors the writer reports.
package emitsheet

import (
	"errors"
	"fmt"
)

// Sheet is what a row generator gets to fill.
//
// AppendRow writes the values at the row following the last one written.
type Sheet interface {
	Name() string
	AppendRow(values ...any) error
}

// Style is a style for a column/row/cell.
type Style struct {
	// Format is the number format
	Format string
	// FontBold is true if the font is bold
	FontBold bool
}

// IsZero reports whether the style is the default one.
func (s Style) IsZero() bool { return !s.FontBold && s.Format == "" }

// Column contains the Name of the column and header's style and column's style.
type Column struct {
	Name           string
	Header, Column Style
}

// Number is a string that contains a number.
type Number string

// MaxRowCount is the number of maximum rows.
const MaxRowCount = 1_048_576

// MaxColumnCount is the number of maximum columns.
const MaxColumnCount = 16_384

var (
	ErrTooManyRows     = errors.New("too many rows")
	ErrTooManyColumns  = errors.New("too many columns")
	ErrNonMonotonicRow = errors.New("row index is not increasing")
	ErrDuplicateName   = errors.New("duplicate sheet name")
	ErrIndexOutOfRange = errors.New("sheet index out of range")
	ErrMergeConflict   = errors.New("row index conflict")
	ErrWriterClosed    = errors.New("row data writer is closed")
	ErrNotGenerating   = errors.New("sheet is not being generated")
	ErrRowFlushed      = errors.New("row is already flushed")
	ErrPersisted       = errors.New("workbook is already persisted")
	ErrDisposed        = errors.New("workbook is disposed")
	ErrNotImplemented  = errors.New("not implemented")
)

// NonMonotonicRowError is returned when a row is created at or before
// the last row of the sheet.
type NonMonotonicRowError struct {
	Sheet     string
	Row, Last int
}

func (e *NonMonotonicRowError) Error() string {
	return fmt.Sprintf("%s: row %d is not after row %d: %v", e.Sheet, e.Row, e.Last, ErrNonMonotonicRow)
}
func (e *NonMonotonicRowError) Is(target error) bool { return target == ErrNonMonotonicRow }

// GenerationError wraps the failure of a row generator.
type GenerationError struct {
	Sheet string
	Index int
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate sheet %q (#%d): %v", e.Sheet, e.Index, e.Err)
}
func (e *GenerationError) Unwrap() error { return e.Err }

// MergeConflictError is returned when a generated row lands on
// a row index that is already occupied.
type MergeConflictError struct {
	Sheet string
	Row   int
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("%s: row %d: %v", e.Sheet, e.Row, ErrMergeConflict)
}
func (e *MergeConflictError) Is(target error) bool { return target == ErrMergeConflict }
