// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"fmt"

	"github.com/UNO-SOFT/emitsheet/rowdata"
	"github.com/xuri/excelize/v2"
)

// Adopt returns a Workbook with the sheets of xl, in order, keeping their rows.
// New rows can be generated for the adopted sheets, and new sheets appended.
//
// The cell values are copied, so xl can be closed afterwards.
// Styles and formulas are not kept.
func Adopt(xl *excelize.File, opts ...Option) (*Workbook, error) {
	wb := NewWorkbook(opts...)
	for _, name := range xl.GetSheetList() {
		recs, err := readSheet(xl, name)
		if err != nil {
			return nil, fmt.Errorf("adopt %q: %w", name, err)
		}
		sh := wb.addSheet(name)
		sh.existing = recs
		wb.logger.Debug("adopted", "sheet", name, "rows", len(recs))
	}
	return wb, nil
}

// OpenWorkbook adopts the xlsx file at path.
func OpenWorkbook(path string, opts ...Option) (*Workbook, error) {
	xl, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	wb, err := Adopt(xl, opts...)
	if cerr := xl.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return wb, err
}

func readSheet(xl *excelize.File, name string) ([]rowdata.Record, error) {
	rows, err := xl.Rows(name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []rowdata.Record
	for i := 0; rows.Next(); i++ {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return recs, fmt.Errorf("row %d: %w", i, err)
		}
		var rec rowdata.Record
		for j, raw := range cols {
			if raw == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return recs, err
			}
			typ, err := xl.GetCellType(name, axis)
			if err != nil {
				return recs, fmt.Errorf("%s: %w", axis, err)
			}
			// CellTypeFormula is t="str", a formula with a cached string result.
			isText := typ == excelize.CellTypeSharedString ||
				typ == excelize.CellTypeInlineString ||
				typ == excelize.CellTypeFormula
			rec.Cells = append(rec.Cells, parseRaw(j, raw, isText, typ == excelize.CellTypeBool))
		}
		if len(rec.Cells) != 0 {
			rec.Index = i
			recs = append(recs, rec)
		}
	}
	return recs, rows.Error()
}
