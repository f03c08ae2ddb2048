// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Command csv2xlsx streams CSV files into the sheets of an xlsx file.
//
//	csv2xlsx [flags] out.xlsx [sheet:]in.csv...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/emitsheet"
	"github.com/UNO-SOFT/emitsheet/rowdata"
	"github.com/UNO-SOFT/emitsheet/xlsx"
	"github.com/UNO-SOFT/zlog/v2"
	"github.com/peterbourgon/ff/v3/ffcli"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		logger.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	fs := flag.NewFlagSet("csv2xlsx", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagEnc := fs.String("charset", emitsheet.EncName, "csv charset name")
	flagAppend := fs.String("append", "", "existing xlsx to append the sheets to")
	flagCompress := fs.Bool("z", false, "compress temporary files")
	flagCodec := fs.String("codec", string(rowdata.Gzip), "compression of temporary files (gzip or zstd)")
	flagTemp := fs.String("tmp", "", "directory for temporary files")

	app := ffcli.Command{Name: "csv2xlsx", FlagSet: fs,
		ShortUsage: "csv2xlsx [flags] out.xlsx [sheet:]in.csv...",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return flag.ErrHelp
			}
			opts := []xlsx.Option{
				xlsx.WithLogger(logger),
				xlsx.WithCompressTempStorage(*flagCompress),
				xlsx.WithCodec(rowdata.Codec(*flagCodec)),
				xlsx.WithTempDir(*flagTemp),
			}
			var wb *xlsx.Workbook
			if *flagAppend != "" {
				var err error
				if wb, err = xlsx.OpenWorkbook(*flagAppend, opts...); err != nil {
					return fmt.Errorf("open %q: %w", *flagAppend, err)
				}
			} else {
				wb = xlsx.NewWorkbook(opts...)
			}
			defer func() {
				if !wb.Dispose() {
					logger.Warn("could not remove every temporary file")
				}
			}()
			return convert(ctx, wb, args[0], args[1:], *flagEnc)
		},
	}

	if err := app.Parse(os.Args[1:]); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

func convert(ctx context.Context, wb *xlsx.Workbook, out string, inputs []string, encName string) error {
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	targeted := make(map[string]string, len(inputs))
	for i, fn := range inputs {
		sheetName := fmt.Sprintf("Sheet%d", wb.NumberOfSheets()+1)
		if j := strings.IndexByte(fn, ':'); j >= 0 {
			sheetName, fn = fn[:j], fn[j+1:]
		} else if fn != "" && fn != "-" {
			sheetName = strings.TrimSuffix(filepath.Base(fn), ".csv")
		}
		key := strings.ToLower(sheetName)
		if prev, ok := targeted[key]; ok {
			return fmt.Errorf("%q: sheet %q is already filled from %q: %w",
				fn, sheetName, prev, emitsheet.ErrDuplicateName)
		}
		targeted[key] = fn
		cr, err := emitsheet.OpenCsv(fn, encName)
		if err != nil {
			return fmt.Errorf("%d. %q: %w", i+1, fn, err)
		}
		closers = append(closers, cr)
		if err = addSheet(ctx, wb, sheetName, cr); err != nil {
			return fmt.Errorf("%q: %w", fn, err)
		}
	}

	fh := os.Stdout
	if !(out == "" || out == "-") {
		var err error
		if fh, err = os.Create(out); err != nil {
			return err
		}
	}
	defer fh.Close()
	if err := wb.Write(fh); err != nil {
		return err
	}
	return fh.Close()
}

// addSheet reads the header of cr and registers a generator copying the rest.
func addSheet(ctx context.Context, wb *xlsx.Workbook, sheetName string, cr emitsheet.CsvReadCloser) error {
	header, err := cr.Read()
	if err != nil {
		return err
	}
	cols := make([]emitsheet.Column, len(header))
	for i, r := range header {
		cols[i].Name = r
		cols[i].Header.FontBold = true
	}
	sheet := wb.Sheet(sheetName)
	if sheet == nil {
		if sheet, err = wb.CreateSheet(sheetName); err != nil {
			return err
		}
		if err = sheet.SetColumns(cols); err != nil {
			return err
		}
	}
	sheet.SetRowGenerator(func(sh *xlsx.Sheet) error {
		defer cr.Close()
		return copyRows(ctx, sh, cr)
	})
	return nil
}

func copyRows(ctx context.Context, sheet emitsheet.Sheet, cr emitsheet.CsvReadCloser) error {
	var rowI []any
	var n int
	for {
		row, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		rowI = rowI[:0]
		for _, s := range row {
			rowI = append(rowI, s)
		}
		if err = sheet.AppendRow(rowI...); err != nil {
			return err
		}
		if n++; n%10000 == 0 {
			if err = ctx.Err(); err != nil {
				return err
			}
			logger.Debug("copied", "sheet", sheet.Name(), "rows", n)
		}
	}
	logger.Info("copied", "sheet", sheet.Name(), "rows", n)
	return nil
}
