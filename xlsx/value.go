// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/UNO-SOFT/emitsheet"
	"github.com/UNO-SOFT/emitsheet/rowdata"
)

// toCell converts v to a typed cell at col.
// nil, zero time and invalid sql.Null* values give an empty cell.
func toCell(col int, v any) (rowdata.Cell, error) {
	c := rowdata.Cell{Col: col}
	if v == nil {
		return c, nil
	}
	if vr, ok := v.(driver.Valuer); ok {
		vv, err := vr.Value()
		if err != nil {
			return c, err
		}
		if vv == nil {
			return c, nil
		}
		v = vv
	}
	switch x := v.(type) {
	case string:
		c.Kind, c.Str = rowdata.KindString, x
	case []byte:
		c.Kind, c.Str = rowdata.KindString, string(x)
	case emitsheet.Number:
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			c.Kind, c.Float = rowdata.KindFloat, f
		} else {
			c.Kind, c.Str = rowdata.KindString, string(x)
		}
	case bool:
		c.Kind, c.Bool = rowdata.KindBool, x
	case int:
		c.Kind, c.Int = rowdata.KindInt, int64(x)
	case int8:
		c.Kind, c.Int = rowdata.KindInt, int64(x)
	case int16:
		c.Kind, c.Int = rowdata.KindInt, int64(x)
	case int32:
		c.Kind, c.Int = rowdata.KindInt, int64(x)
	case int64:
		c.Kind, c.Int = rowdata.KindInt, x
	case uint:
		c = uintCell(c, uint64(x))
	case uint8:
		c.Kind, c.Int = rowdata.KindInt, int64(x)
	case uint16:
		c.Kind, c.Int = rowdata.KindInt, int64(x)
	case uint32:
		c.Kind, c.Int = rowdata.KindInt, int64(x)
	case uint64:
		c = uintCell(c, x)
	case float32:
		c = floatCell(c, float64(x))
	case float64:
		c = floatCell(c, x)
	case time.Time:
		if !x.IsZero() {
			c.Kind, c.Time = rowdata.KindTime, x
		}
	case sql.NullTime:
		if x.Valid && !x.Time.IsZero() {
			c.Kind, c.Time = rowdata.KindTime, x.Time
		}
	case sql.NullFloat64:
		if x.Valid {
			c = floatCell(c, x.Float64)
		}
	case sql.NullInt64:
		if x.Valid {
			c.Kind, c.Int = rowdata.KindInt, x.Int64
		}
	case sql.NullString:
		if x.Valid {
			c.Kind, c.Str = rowdata.KindString, x.String
		}
	case sql.NullBool:
		if x.Valid {
			c.Kind, c.Bool = rowdata.KindBool, x.Bool
		}
	case fmt.Stringer:
		c.Kind, c.Str = rowdata.KindString, x.String()
	case error:
		c.Kind, c.Str = rowdata.KindString, x.Error()
	default:
		c.Kind, c.Str = rowdata.KindString, fmt.Sprint(v)
	}
	return c, nil
}

func uintCell(c rowdata.Cell, u uint64) rowdata.Cell {
	if u > math.MaxInt64 {
		c.Kind, c.Float = rowdata.KindFloat, float64(u)
	} else {
		c.Kind, c.Int = rowdata.KindInt, int64(u)
	}
	return c
}

// floatCell stores NaN and infinities as text: the file format has no number for them.
func floatCell(c rowdata.Cell, f float64) rowdata.Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		c.Kind, c.Str = rowdata.KindString, strconv.FormatFloat(f, 'g', -1, 64)
	} else {
		c.Kind, c.Float = rowdata.KindFloat, f
	}
	return c
}

// parseRaw types a raw value read from an existing document.
func parseRaw(col int, raw string, isText, isBool bool) rowdata.Cell {
	c := rowdata.Cell{Col: col, Kind: rowdata.KindString, Str: raw}
	switch {
	case isText:
	case isBool:
		c.Kind, c.Str, c.Bool = rowdata.KindBool, "", raw == "1" || raw == "TRUE" || raw == "true"
	default:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.Kind, c.Str, c.Int = rowdata.KindInt, "", i
		} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
			c.Kind, c.Str, c.Float = rowdata.KindFloat, "", f
		}
	}
	return c
}
