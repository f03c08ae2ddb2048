// Copyright 2020, 2023 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"fmt"

	"github.com/UNO-SOFT/emitsheet"
	"github.com/xuri/excelize/v2"
)

// getStyle returns the id of the style, creating it on first use.
// The default style is 0.
func (m *materializer) getStyle(style emitsheet.Style) (int, error) {
	if style.IsZero() {
		return 0, nil
	}
	k := fmt.Sprintf("%t\t%s", style.FontBold, style.Format)
	if s, ok := m.styles[k]; ok {
		return s, nil
	}
	var st excelize.Style
	if style.FontBold {
		st.Font = &excelize.Font{Bold: true}
	}
	if style.Format != "" {
		st.CustomNumFmt = &style.Format
	}
	s, err := m.xl.NewStyle(&st)
	if err != nil {
		return 0, fmt.Errorf("%+v: %w", style, err)
	}
	if m.styles == nil {
		m.styles = make(map[string]int)
	}
	m.styles[k] = s
	return s, nil
}
