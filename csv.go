package emitsheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var EncName = "utf-8"

func init() {
	EncName = os.Getenv("LANG")
	if i := strings.IndexByte(EncName, '.'); i >= 0 {
		EncName = strings.ToLower(EncName[i+1:])
	}
	if EncName == "" {
		EncName = "utf-8"
	}
}

func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

type CsvReadCloser struct {
	*csv.Reader
	io.Closer
}

// OpenCsv opens fn ("" or "-" is stdin) decoding it from encName,
// and guesses the field separator from the first KiB.
func OpenCsv(fn, encName string) (CsvReadCloser, error) {
	var enc encoding.Encoding
	if encName != "" {
		var err error
		if enc, err = GetEncoding(encName); err != nil {
			return CsvReadCloser{}, err
		}
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		var err error
		if fh, err = os.Open(fn); err != nil {
			return CsvReadCloser{}, err
		}
	}
	return NewCsvReader(fh, enc)
}

// NewCsvReader wraps r, decoding it with enc if not nil.
func NewCsvReader(r io.ReadCloser, enc encoding.Encoding) (CsvReadCloser, error) {
	if enc != nil {
		r = struct {
			io.Reader
			io.Closer
		}{enc.NewDecoder().Reader(r), r}
	}
	br := bufio.NewReaderSize(r, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		_ = r.Close()
		return CsvReadCloser{}, err
	}
	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.Comma = guessSeparator(b)
	return CsvReadCloser{cr, r}, nil
}

func guessSeparator(b []byte) rune {
	for _, r := range string(b) {
		if r == '"' || r == '_' || r == ' ' || r == '\r' || r == '\n' ||
			unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		return r
	}
	return ','
}
