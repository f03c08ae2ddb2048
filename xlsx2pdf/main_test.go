package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGridSizes(t *testing.T) {
	sizes := gridSizes([]string{"id", "description"}, [][]string{
		{"1", "a rather long description"},
		{"2", "another long description"},
	})
	require.Len(t, sizes, 2)
	assert.Equal(t, 1, sizes[0])
	assert.Greater(t, sizes[1], sizes[0])
	assert.LessOrEqual(t, sizes[0]+sizes[1], maxGrid+1)
}

func TestColor(t *testing.T) {
	var c Color
	require.NoError(t, c.Parse("0a0b0c"))
	assert.Equal(t, 10, c.Red)
	assert.Equal(t, 12, c.Blue)
	assert.Equal(t, "0a0b0c", c.String())
	assert.Error(t, c.Parse("zz"))
	assert.Error(t, c.Parse("0a0b"))
}

func TestReadSheet(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "in.xlsx")
	xl := excelize.NewFile()
	require.NoError(t, xl.SetSheetRow("Sheet1", "A1", &[]any{"a", "b"}))
	require.NoError(t, xl.SetSheetRow("Sheet1", "A2", &[]any{1, 2, 3}))
	require.NoError(t, xl.SaveAs(fn))
	require.NoError(t, xl.Close())

	headers, contents, err := readSheet(fn, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", ""}, headers)
	assert.Equal(t, [][]string{{"1", "2", "3"}}, contents)
}
