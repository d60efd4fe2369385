package ats

import (
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// words lays out words left to right from x on one baseline.
func words(x, y float64, text string) []pdf.Text {
	var out []pdf.Text
	for _, w := range strings.Fields(text) {
		width := float64(len(w)) * 5
		out = append(out, pdf.Text{Font: "Calibri", FontSize: 10, X: x, Y: y, W: width, S: w})
		x += width + 3
	}
	return out
}

func TestGroupLines(t *testing.T) {
	var texts []pdf.Text
	texts = append(texts, words(320, 700, "right side text")...)
	texts = append(texts, words(50, 700, "Jane Doe")...)
	texts = append(texts, words(50, 680, "Data Analyst")...)

	lines := groupLines(texts)
	require.Len(t, lines, 2)
	require.Len(t, lines[0].segments, 2)
	assert.Equal(t, "Jane Doe", lines[0].segments[0].text)
	assert.Equal(t, 320.0, lines[0].segments[1].x)
	assert.Equal(t, "Jane Doe right side text", lines[0].text())
	assert.Equal(t, "Data Analyst", lines[1].text())
}

func TestTwoColumns(t *testing.T) {
	var twoCol, datesOnRight []pdf.Text
	for i := range 8 {
		y := 700 - float64(i)*15
		twoCol = append(twoCol, words(50, y, "Built dashboards for sales")...)
		twoCol = append(twoCol, words(330, y, "Python SQL Tableau and Excel")...)
		datesOnRight = append(datesOnRight, words(50, y, "Built dashboards for the sales team")...)
		datesOnRight = append(datesOnRight, words(480, y, "2019 - 2024")...)
	}
	assert.True(t, twoColumns(groupLines(twoCol), 612))
	assert.False(t, twoColumns(groupLines(datesOnRight), 612), "short right-hand dates are not a column")
}

func TestBandKey(t *testing.T) {
	assert.Equal(t, bandKey("Page 1 of 2"), bandKey("Page 2 of 2"))
	assert.Equal(t, "jane doe | cv", bandKey("  Jane Doe  | CV "))
	assert.True(t, repeated(map[string]int{"a": 1, "b": 2}))
	assert.False(t, repeated(map[string]int{"a": 1}))
}

func TestInspectPDF_Invalid(t *testing.T) {
	_, err := InspectBytes("cv.pdf", []byte("%PDF-1.4 broken"))
	assert.Error(t, err)
}
