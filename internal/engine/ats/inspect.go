package ats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileSize bounds résumé uploads.
const maxFileSize = 20 << 20

// Inspect reads a résumé file and extracts its structural profile.
func Inspect(path string) (*Profile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("inspect: %s is larger than %d MB", filepath.Base(path), maxFileSize>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	return InspectBytes(filepath.Base(path), data)
}

// InspectBytes extracts a profile from file contents. The name's extension
// selects the parser; formats without a parser only carry their format tag.
func InspectBytes(name string, data []byte) (*Profile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".docx":
		p, err := inspectDOCX(data)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", name, err)
		}
		return p, nil
	case ".pdf":
		p, err := inspectPDF(data)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", name, err)
		}
		return p, nil
	case ".txt", ".md", ".markdown", "":
		p := InspectText(string(data))
		p.Format = ext
		return p, nil
	default:
		return &Profile{Format: ext, TextFlows: 1}, nil
	}
}

// InspectText profiles plain text or Markdown: only bullet glyphs can be
// detected.
func InspectText(text string) *Profile {
	p := &Profile{Format: ".txt", TextFlows: 1}
	for _, line := range strings.Split(text, "\n") {
		p.addBullet(line)
	}
	return p
}

// addBullet records the leading glyph of a line when it is a symbol.
func (p *Profile) addBullet(line string) {
	line = strings.TrimSpace(line)
	r, n := utf8.DecodeRuneInString(line)
	if n == 0 || unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("([{\"'#*-+_|<>", r) {
		return
	}
	g := string(r)
	for _, have := range p.BulletGlyphs {
		if have == g {
			return
		}
	}
	p.BulletGlyphs = append(p.BulletGlyphs, g)
}

func (p *Profile) addFont(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, f := range p.Fonts {
		if f == name {
			return
		}
	}
	p.Fonts = append(p.Fonts, name)
}

func (p *Profile) addSize(pt float64) {
	if pt <= 0 {
		return
	}
	for _, s := range p.FontSizes {
		if s == pt {
			return
		}
	}
	p.FontSizes = append(p.FontSizes, pt)
}
