package emitsheet

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessSeparator(t *testing.T) {
	for in, want := range map[string]rune{
		"a,b,c\n1,2,3": ',',
		"a;b;c\n1;2;3": ';',
		"a\tb\n1\t2":   '\t',
		"\"x y\"|z":    '|',
		"single\nrow":  ',',
	} {
		assert.Equal(t, string(want), string(guessSeparator([]byte(in))), in)
	}
}

func TestNewCsvReader(t *testing.T) {
	cr, err := NewCsvReader(io.NopCloser(strings.NewReader("name;age\nJoe;42\n")), nil)
	require.NoError(t, err)
	defer cr.Close()
	row, err := cr.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, row)
	row, err = cr.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"Joe", "42"}, row)
	_, err = cr.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewCsvReaderLatin2(t *testing.T) {
	enc, err := GetEncoding("iso-8859-2")
	require.NoError(t, err)
	require.NotNil(t, enc)
	b, err := enc.NewEncoder().String("név,érték\nTamás,ő\n")
	require.NoError(t, err)
	cr, err := NewCsvReader(io.NopCloser(strings.NewReader(b)), enc)
	require.NoError(t, err)
	defer cr.Close()
	row, err := cr.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"név", "érték"}, row)
	row, err = cr.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"Tamás", "ő"}, row)
}

func TestGetEncodingUTF8(t *testing.T) {
	enc, err := GetEncoding("UTF-8")
	require.NoError(t, err)
	assert.Nil(t, enc)
	_, err = GetEncoding("no-such-charset")
	assert.Error(t, err)
}

func TestErrorsMatchSentinels(t *testing.T) {
	var err error = &NonMonotonicRowError{Sheet: "S", Row: 1, Last: 3}
	assert.ErrorIs(t, err, ErrNonMonotonicRow)
	err = &MergeConflictError{Sheet: "S", Row: 2}
	assert.ErrorIs(t, err, ErrMergeConflict)
	cause := errors.New("boom")
	err = &GenerationError{Sheet: "S", Err: cause}
	assert.ErrorIs(t, err, cause)
	var ge *GenerationError
	assert.True(t, errors.As(err, &ge))
	assert.Equal(t, "S", ge.Sheet)
}
