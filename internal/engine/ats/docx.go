package ats

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	nsWord    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsPicture = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsVML     = "urn:schemas-microsoft-com:vml"
	nsDrawing = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsCompat  = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

// maxPartSize bounds a single decompressed DOCX part.
const maxPartSize = 50 << 20

// runStyle is the font family and size set by a style or run. Theme holds
// "major" or "minor" for fonts taken from the document theme.
type runStyle struct {
	fonts  []string
	themes []string
	sizes  []float64
}

// addTo records the style on p, resolving theme fonts through theme.
func (rs *runStyle) addTo(p *Profile, theme map[string]string) {
	for _, f := range rs.fonts {
		p.addFont(f)
	}
	for _, t := range rs.themes {
		if f := theme[t]; f != "" {
			p.addFont(f)
		}
	}
	for _, sz := range rs.sizes {
		p.addSize(sz)
	}
}

// paraState tracks one open paragraph while streaming document.xml.
type paraState struct {
	framed bool
	text   strings.Builder
}

// docScan accumulates structure found in document.xml.
type docScan struct {
	tables    int
	columns   int
	textBoxes int
	pictures  int
	frames    map[string]bool
	bodyText  bool
	styles    map[string]bool
	run       runStyle
}

func inspectDOCX(data []byte) (*Profile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}
	doc, ok := parts["word/document.xml"]
	if !ok {
		return nil, errors.New("open docx: missing word/document.xml")
	}

	p := &Profile{Format: ".docx"}
	body, err := readPart(doc)
	if err != nil {
		return nil, err
	}
	scan, err := scanDocument(body, p)
	if err != nil {
		return nil, fmt.Errorf("document.xml: %w", err)
	}

	p.Tables = scan.tables
	p.Columns = max(scan.columns, 1)
	p.TextFlows = len(scan.frames) + scan.textBoxes
	if scan.bodyText {
		p.TextFlows++
	}
	theme := map[string]string{}
	for name, f := range parts {
		if isPart(name, "word/theme/") {
			if b, err := readPart(f); err == nil {
				theme = themeFonts(b)
			}
			break
		}
	}
	scan.run.addTo(p, theme)

	if f, ok := parts["word/styles.xml"]; ok {
		if b, err := readPart(f); err == nil {
			applyStyles(b, scan.styles, theme, p)
		}
	}
	if f, ok := parts["word/numbering.xml"]; ok {
		if b, err := readPart(f); err == nil {
			scanNumbering(b, p)
		}
	}

	media := 0
	for name, f := range parts {
		switch {
		case strings.HasPrefix(name, "word/media/"):
			media++
		case isPart(name, "word/header"):
			if b, err := readPart(f); err == nil && hasText(b) {
				p.HeaderText = true
			}
		case isPart(name, "word/footer"):
			if b, err := readPart(f); err == nil && hasText(b) {
				p.FooterText = true
			}
		}
	}
	p.Images = max(scan.pictures, media)
	return p, nil
}

func isPart(name, prefix string) bool {
	return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".xml")
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return b, nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// halfPoints converts a w:sz value to points.
func halfPoints(v string) float64 {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n / 2
}

func (rs *runStyle) apply(se xml.StartElement) {
	switch se.Name.Local {
	case "rFonts":
		// A theme reference takes precedence over the explicit face for the same slot.
		for _, k := range []string{"ascii", "hAnsi"} {
			th := attr(se, k+"Theme")
			switch {
			case strings.HasPrefix(th, "major"):
				rs.themes = append(rs.themes, "major")
			case strings.HasPrefix(th, "minor"):
				rs.themes = append(rs.themes, "minor")
			default:
				if v := attr(se, k); v != "" {
					rs.fonts = append(rs.fonts, v)
				}
			}
		}
	case "sz":
		if pt := halfPoints(attr(se, "val")); pt > 0 {
			rs.sizes = append(rs.sizes, pt)
		}
	}
}

// scanDocument streams document.xml. Text frames are identified by their
// framePr attributes so consecutive paragraphs of one frame count once;
// every text box is its own flow. Only the mc:Choice branch of alternate
// content is read; mc:Fallback repeats the same shapes for older readers.
func scanDocument(b []byte, p *Profile) (*docScan, error) {
	scan := &docScan{frames: map[string]bool{}, styles: map[string]bool{}}
	dec := xml.NewDecoder(bytes.NewReader(b))
	var paras []*paraState
	inText := false
	inBox := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Space {
			case nsCompat:
				if t.Name.Local == "Fallback" {
					if err := dec.Skip(); err != nil {
						return nil, err
					}
				}
				continue
			case nsPicture:
				if t.Name.Local == "pic" {
					scan.pictures++
				}
				continue
			case nsVML:
				if t.Name.Local == "imagedata" {
					scan.pictures++
				}
				continue
			case nsWord:
			default:
				continue
			}
			switch t.Name.Local {
			case "p":
				paras = append(paras, &paraState{})
			case "framePr":
				if len(paras) > 0 {
					paras[len(paras)-1].framed = true
				}
				scan.frames[frameKey(t)] = true
			case "txbxContent":
				inBox++
				scan.textBoxes++
			case "tbl":
				scan.tables++
			case "cols":
				if n, err := strconv.Atoi(attr(t, "num")); err == nil && n > scan.columns {
					scan.columns = n
				}
			case "pStyle", "rStyle":
				if v := attr(t, "val"); v != "" {
					scan.styles[v] = true
				}
			case "rFonts", "sz":
				scan.run.apply(t)
			case "t":
				inText = true
			}
		case xml.EndElement:
			if t.Name.Space != nsWord {
				continue
			}
			switch t.Name.Local {
			case "p":
				if n := len(paras); n > 0 {
					p.addBullet(paras[n-1].text.String())
					paras = paras[:n-1]
				}
			case "txbxContent":
				inBox--
			case "t":
				inText = false
			}
		case xml.CharData:
			if !inText || len(paras) == 0 {
				continue
			}
			cur := paras[len(paras)-1]
			cur.text.Write(t)
			if inBox == 0 && !cur.framed && len(bytes.TrimSpace(t)) > 0 {
				scan.bodyText = true
			}
		}
	}
	return scan, nil
}

// frameKey identifies a text frame by its position and size attributes.
func frameKey(se xml.StartElement) string {
	var sb strings.Builder
	for _, a := range se.Attr {
		sb.WriteString(a.Name.Local)
		sb.WriteByte('=')
		sb.WriteString(a.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}

// applyStyles adds fonts and sizes from document defaults, the default
// paragraph style and every style the document uses (with its basedOn chain).
func applyStyles(b []byte, used map[string]bool, theme map[string]string, p *Profile) {
	var defaults runStyle
	styles := map[string]*runStyle{}
	parent := map[string]string{}
	defaultPara := ""

	dec := xml.NewDecoder(bytes.NewReader(b))
	inDefaults := false
	cur := ""
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != nsWord {
				continue
			}
			switch t.Name.Local {
			case "docDefaults":
				inDefaults = true
			case "style":
				cur = attr(t, "styleId")
				styles[cur] = &runStyle{}
				if attr(t, "default") == "1" && attr(t, "type") == "paragraph" {
					defaultPara = cur
				}
			case "basedOn":
				if cur != "" {
					parent[cur] = attr(t, "val")
				}
			case "rFonts", "sz":
				switch {
				case inDefaults:
					defaults.apply(t)
				case cur != "":
					styles[cur].apply(t)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "docDefaults":
				inDefaults = false
			case "style":
				cur = ""
			}
		}
	}

	defaults.addTo(p, theme)
	ids := []string{defaultPara}
	for id := range used {
		ids = append(ids, id)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		for depth := 0; id != "" && !seen[id] && depth < 16; depth++ {
			seen[id] = true
			if rs, ok := styles[id]; ok {
				rs.addTo(p, theme)
			}
			id = parent[id]
		}
	}
}

// themeFonts reads the latin typefaces of the major (headings) and minor
// (body) theme fonts.
func themeFonts(b []byte) map[string]string {
	out := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(b))
	cur := ""
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != nsDrawing {
				continue
			}
			switch t.Name.Local {
			case "majorFont":
				cur = "major"
			case "minorFont":
				cur = "minor"
			case "latin":
				if cur != "" && out[cur] == "" {
					out[cur] = attr(t, "typeface")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "majorFont" || t.Name.Local == "minorFont" {
				cur = ""
			}
		}
	}
}

// scanNumbering records bullet glyphs from list level definitions.
func scanNumbering(b []byte, p *Profile) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	var format, text string
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != nsWord {
				continue
			}
			switch t.Name.Local {
			case "lvl":
				format, text = "", ""
			case "numFmt":
				format = attr(t, "val")
			case "lvlText":
				text = attr(t, "val")
			}
		case xml.EndElement:
			if t.Name.Space == nsWord && t.Name.Local == "lvl" && format == "bullet" {
				p.addBullet(text)
			}
		}
	}
}

// hasText reports whether a header or footer part holds visible text.
func hasText(b []byte) bool {
	dec := xml.NewDecoder(bytes.NewReader(b))
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Space == nsWord && t.Name.Local == "t"
		case xml.EndElement:
			inText = false
		case xml.CharData:
			if inText && len(bytes.TrimSpace(t)) > 0 {
				return true
			}
		}
	}
}
