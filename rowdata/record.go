// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package rowdata

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/valyala/quicktemplate"
)

// Kind is the type of a cell value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
)

var kindTags = [...]string{
	KindEmpty:  "e",
	KindString: "s",
	KindInt:    "i",
	KindFloat:  "n",
	KindBool:   "b",
	KindTime:   "d",
}

func (k Kind) String() string {
	if int(k) < len(kindTags) {
		return kindTags[k]
	}
	return "?"
}

func parseKind(s string) (Kind, error) {
	for i, t := range kindTags {
		if t == s {
			return Kind(i), nil
		}
	}
	return KindEmpty, fmt.Errorf("unknown cell kind %q", s)
}

// Cell is one typed cell value at a zero-based column.
type Cell struct {
	Time  time.Time
	Str   string
	Int   int64
	Float float64
	Col   int
	Kind  Kind
	Bool  bool
}

// Value returns the cell's value as string, int64, float64, bool, time.Time or nil.
func (c Cell) Value() any {
	switch c.Kind {
	case KindString:
		return c.Str
	case KindInt:
		return c.Int
	case KindFloat:
		return c.Float
	case KindBool:
		return c.Bool
	case KindTime:
		return c.Time
	default:
		return nil
	}
}

// Record is one row: its zero-based index and its cells in column order.
type Record struct {
	Cells []Cell
	Index int
}

// writeRecord writes rec as a <row> fragment.
func writeRecord(qw *quicktemplate.Writer, rec Record) {
	n := qw.N()
	n.S(`<row r="`)
	n.D(rec.Index)
	n.S(`">`)
	for _, c := range rec.Cells {
		n.S(`<c i="`)
		n.D(c.Col)
		n.S(`" t="`)
		n.S(c.Kind.String())
		if c.Kind == KindString && !isXMLText(c.Str) {
			n.S(`" enc="b64">`)
			n.S(base64.StdEncoding.EncodeToString([]byte(c.Str)))
			n.S(`</c>`)
			continue
		}
		n.S(`">`)
		switch c.Kind {
		case KindString:
			// \r must be a character reference or the decoder folds it into \n.
			_ = xml.EscapeText(n, []byte(c.Str))
		case KindInt:
			n.S(strconv.FormatInt(c.Int, 10))
		case KindFloat:
			n.S(strconv.FormatFloat(c.Float, 'g', -1, 64))
		case KindBool:
			if c.Bool {
				n.S("1")
			} else {
				n.S("0")
			}
		case KindTime:
			n.S(c.Time.Format(time.RFC3339Nano))
		}
		n.S(`</c>`)
	}
	n.S("</row>\n")
}

// isXMLText reports whether s survives an XML text node unchanged:
// valid UTF-8 made of XML 1.0 characters only.
func isXMLText(s string) bool {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return false
			}
		}
		switch {
		case r == '\t', r == '\n', r == '\r':
		case r < 0x20, r > 0xD7FF && r < 0xE000, r == 0xFFFE, r == 0xFFFF:
			return false
		}
	}
	return true
}

type xmlRow struct {
	Cells []xmlCell `xml:"c"`
	Index int       `xml:"r,attr"`
}

type xmlCell struct {
	Type  string `xml:"t,attr"`
	Enc   string `xml:"enc,attr"`
	Value string `xml:",chardata"`
	Col   int    `xml:"i,attr"`
}

// readRecord decodes the next <row> fragment, returning io.EOF at the end.
func readRecord(dec *xml.Decoder) (Record, error) {
	var xr xmlRow
	if err := dec.Decode(&xr); err != nil {
		return Record{}, err
	}
	rec := Record{Index: xr.Index, Cells: make([]Cell, 0, len(xr.Cells))}
	for _, xc := range xr.Cells {
		kind, err := parseKind(xc.Type)
		if err != nil {
			return rec, fmt.Errorf("row %d col %d: %w", xr.Index, xc.Col, err)
		}
		c := Cell{Col: xc.Col, Kind: kind}
		switch kind {
		case KindString:
			c.Str = xc.Value
			if xc.Enc == "b64" {
				var b []byte
				b, err = base64.StdEncoding.DecodeString(xc.Value)
				c.Str = string(b)
			}
		case KindInt:
			c.Int, err = strconv.ParseInt(xc.Value, 10, 64)
		case KindFloat:
			c.Float, err = strconv.ParseFloat(xc.Value, 64)
		case KindBool:
			c.Bool = xc.Value == "1"
		case KindTime:
			c.Time, err = time.Parse(time.RFC3339Nano, xc.Value)
		}
		if err != nil {
			return rec, fmt.Errorf("row %d col %d: %w", xr.Index, xc.Col, err)
		}
		rec.Cells = append(rec.Cells, c)
	}
	return rec, nil
}
