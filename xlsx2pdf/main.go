// Copyright 2021, 2026 Tamas Gulacsi. All rights reserved.

// Command xlsx2pdf renders a sheet of an xlsx file as a PDF table.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/xuri/excelize/v2"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		logger.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

// maxGrid is the number of grid columns of a maroto row.
const maxGrid = 12

func Main() error {
	alternateColor := Color{Color: props.Color{
		Red:   230,
		Green: 230,
		Blue:  230,
	}}

	fs := flag.NewFlagSet("xlsx2pdf", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagSheet := fs.String("sheet", "", "sheet name (default: the first one)")
	flagOut := fs.String("o", "", "output file name (default input file + .pdf)")
	flagColor := fs.String("alternate-color", alternateColor.String(), "alternate color")
	flagLandscape := fs.Bool("L", false, "landscape orientation (default: portrait)")
	flagFontSize := fs.Float64("f", 8, "font size")

	app := ffcli.Command{Name: "xlsx2pdf", FlagSet: fs,
		ShortUsage: "xlsx2pdf [flags] in.xlsx",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return flag.ErrHelp
			}
			headers, contents, err := readSheet(args[0], *flagSheet)
			if err != nil {
				return err
			}
			gridSize := gridSizes(headers, contents)
			logger.Debug("grid", "headers", headers, "sizes", gridSize)

			orient := orientation.Vertical
			if *flagLandscape {
				orient = orientation.Horizontal
			}
			m := maroto.New(config.NewBuilder().
				WithOrientation(orient).
				WithPageSize(pagesize.A4).
				Build())
			fontSize := *flagFontSize
			m.AddRows(tableRow(headers, gridSize, fontSize*1.2*0.5+2, props.Text{
				Family: fontfamily.Arial,
				Style:  fontstyle.Bold,
				Size:   fontSize * 1.375,
				Align:  align.Center,
			}))
			for i, values := range contents {
				if err := ctx.Err(); err != nil {
					return err
				}
				r := tableRow(values, gridSize, fontSize*0.5+1, props.Text{
					Family: fontfamily.Courier,
					Style:  fontstyle.Normal,
					Size:   fontSize,
					Align:  align.Center,
				})
				if i%2 == 1 {
					r = r.WithStyle(&props.Cell{BackgroundColor: &alternateColor.Color})
				}
				m.AddRows(r)
			}
			doc, err := m.Generate()
			if err != nil {
				return err
			}

			out := *flagOut
			if out == "" && args[0] != "" && args[0] != "-" {
				out = strings.TrimSuffix(args[0], ".xlsx") + ".pdf"
			}
			if out == "" || out == "-" {
				_, err = os.Stdout.Write(doc.GetBytes())
				return err
			}
			return doc.Save(out)
		},
	}

	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if strings.HasPrefix(a, "-f") && len(a) > 2 && '0' <= a[2] && a[2] <= '9' {
			args = append(args, "-f", a[2:])
		} else {
			args = append(args, a)
		}
	}
	logger.Debug("args", "original", os.Args[1:], "fixed", args)
	if err := app.Parse(args); err != nil {
		return err
	}

	if err := alternateColor.Parse(*flagColor); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

// readSheet returns the first row of the sheet as headers, and the rest.
func readSheet(fn, sheet string) ([]string, [][]string, error) {
	xl, err := excelize.OpenFile(fn)
	if err != nil {
		return nil, nil, err
	}
	defer xl.Close()
	if sheet == "" {
		sheet = xl.GetSheetName(0)
	}
	rows, err := xl.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%q: %w", sheet, err)
	}
	defer rows.Close()
	var headers []string
	var contents [][]string
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, nil, err
		}
		if headers == nil {
			headers = cols
			continue
		}
		contents = append(contents, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, nil, err
	}
	// pad the rows to the widest one
	width := len(headers)
	for _, r := range contents {
		width = max(width, len(r))
	}
	headers = pad(headers, width)
	for i, r := range contents {
		contents[i] = pad(r, width)
	}
	return headers, contents, nil
}

func pad(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}

// gridSizes distributes the maxGrid columns proportionally to the text widths.
func gridSizes(headers []string, contents [][]string) []int {
	widths := make([]float64, len(headers))
	var sum float64
	for i, s := range headers {
		widths[i] = float64(len(s))
		sum += widths[i]
	}
	for _, row := range contents {
		for i, s := range row {
			widths[i] += float64(len(s))
			sum += float64(len(s))
		}
	}
	gridSize := make([]int, len(headers))
	for i, w := range widths {
		if sum > 0 {
			gridSize[i] = int(math.Round(w / sum * maxGrid))
		}
		if gridSize[i] == 0 {
			gridSize[i] = 1
		}
	}
	return gridSize
}

func tableRow(values []string, gridSize []int, height float64, prop props.Text) core.Row {
	cols := make([]core.Col, len(values))
	for i, s := range values {
		cols[i] = text.NewCol(gridSize[i], s, prop)
	}
	return row.New(height).Add(cols...)
}

type Color struct {
	props.Color
}

func (c *Color) String() string {
	return fmt.Sprintf("%02x%02x%02x", c.Red, c.Green, c.Blue)
}
func (c *Color) Parse(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 3 {
		return fmt.Errorf("%q: want 3 bytes", s)
	}
	c.Red, c.Green, c.Blue = int(b[0]), int(b[1]), int(b[2])
	return nil
}
