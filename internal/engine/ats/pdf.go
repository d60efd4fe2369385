package ats

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Band heights (fraction of page height) treated as header and footer areas.
const (
	headerBand = 0.92
	footerBand = 0.08
)

// pdfLine is one visual line of glyphs.
type pdfLine struct {
	y        float64
	segments []pdfSegment
}

// pdfSegment is a run of glyphs without a wide horizontal gap.
type pdfSegment struct {
	x    float64
	text string
}

func (l pdfLine) text() string {
	parts := make([]string, 0, len(l.segments))
	for _, s := range l.segments {
		parts = append(parts, s.text)
	}
	return strings.Join(parts, " ")
}

func inspectPDF(data []byte) (p *Profile, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	p = &Profile{Format: ".pdf", Pages: r.NumPage(), Columns: 1}
	headers := map[string]int{}
	footers := map[string]int{}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		p.Images += countImages(page.Resources())
		width, height := pageSize(page.V)

		texts := page.Content().Text
		for _, t := range texts {
			p.addFont(pdfFontName(t.Font))
			p.addSize(math.Round(t.FontSize*2) / 2)
		}
		lines := groupLines(texts)
		if len(lines) > 0 {
			p.TextFlows = 1
		}
		for _, l := range lines {
			p.addBullet(l.text())
			switch key := bandKey(l.text()); {
			case key == "":
			case l.y >= height*headerBand:
				headers[key]++
			case l.y <= height*footerBand:
				footers[key]++
			}
		}
		if twoColumns(lines, width) {
			p.Columns = 2
		}
	}
	p.HeaderText = repeated(headers)
	p.FooterText = repeated(footers)
	return p, nil
}

// pdfFontName strips the subset prefix and style suffixes from a base font
// name: "ABCDEF+Calibri-Bold" becomes "Calibri".
func pdfFontName(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		name = name[i+1:]
	}
	if i := strings.IndexAny(name, "-,"); i > 0 {
		name = name[:i]
	}
	for _, suffix := range []string{"PSMT", "MT", "PS"} {
		if s, ok := strings.CutSuffix(name, suffix); ok && s != "" {
			name = s
			break
		}
	}
	return name
}

func countImages(res pdf.Value) int {
	xobj := res.Key("XObject")
	if xobj.IsNull() {
		return 0
	}
	n := 0
	for _, k := range xobj.Keys() {
		if xobj.Key(k).Key("Subtype").Name() == "Image" {
			n++
		}
	}
	return n
}

// pageSize reads the MediaBox, falling back to US Letter.
func pageSize(v pdf.Value) (float64, float64) {
	box := v.Key("MediaBox")
	if box.IsNull() {
		box = v.Key("Parent").Key("MediaBox")
	}
	if box.Len() != 4 {
		return 612, 792
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return 612, 792
	}
	return w, h
}

// groupLines orders glyphs top to bottom, left to right, and splits each
// line into segments at gaps wider than three glyph heights.
func groupLines(texts []pdf.Text) []pdfLine {
	ts := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			ts = append(ts, t)
		}
	}
	sort.SliceStable(ts, func(i, j int) bool {
		if math.Abs(ts[i].Y-ts[j].Y) > 2 {
			return ts[i].Y > ts[j].Y
		}
		return ts[i].X < ts[j].X
	})

	var lines []pdfLine
	var cur *pdfLine
	var seg strings.Builder
	segX, lastEnd := 0.0, 0.0
	flush := func() {
		if cur != nil && strings.TrimSpace(seg.String()) != "" {
			cur.segments = append(cur.segments, pdfSegment{x: segX, text: strings.TrimSpace(seg.String())})
		}
		seg.Reset()
	}
	for _, t := range ts {
		size := math.Max(t.FontSize, 1)
		if cur == nil || math.Abs(t.Y-cur.y) > math.Max(size*0.5, 2) {
			flush()
			if cur != nil && len(cur.segments) > 0 {
				lines = append(lines, *cur)
			}
			cur = &pdfLine{y: t.Y}
			segX, lastEnd = t.X, t.X
		}
		gap := t.X - lastEnd
		switch {
		case gap > math.Max(size*3, 18):
			flush()
			segX = t.X
		case gap > size*0.2 && seg.Len() > 0:
			seg.WriteByte(' ')
		}
		seg.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	flush()
	if cur != nil && len(cur.segments) > 0 {
		lines = append(lines, *cur)
	}
	return lines
}

// twoColumns looks for a second column: several multi-word segments that
// start right of the page middle. Short right-hand segments such as dates
// are ignored.
func twoColumns(lines []pdfLine, width float64) bool {
	if len(lines) == 0 {
		return false
	}
	right := 0
	for _, l := range lines {
		for _, s := range l.segments {
			if s.x >= width*0.45 && len(strings.Fields(s.text)) >= 4 {
				right++
				break
			}
		}
	}
	return right >= 5 && float64(right) >= float64(len(lines))*0.25
}

// bandKey normalises a header or footer line so page numbers compare equal.
func bandKey(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func repeated(counts map[string]int) bool {
	for _, n := range counts {
		if n >= 2 {
			return true
		}
	}
	return false
}
