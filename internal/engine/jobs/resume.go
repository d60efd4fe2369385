package jobs

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

// Resume is an editable résumé: header lines followed by ordered sections.
type Resume struct {
	Header    []string   `json:"header"`
	TitleLine int        `json:"title_line"` // index into Header, -1 when absent
	Sections  []*Section `json:"sections"`
}

// Section is one headed block of a résumé.
type Section struct {
	Heading string `json:"heading"`
	Raw     string `json:"-"`   // heading line as written
	Key     string `json:"key"` // summary, experience, skills, ... or "" when unmapped
	Lines   []Line `json:"lines"`
}

// Line is one line of section content.
type Line struct {
	Text   string `json:"text"`
	Bullet bool   `json:"bullet,omitempty"`
	Marker string `json:"-"`
}

var (
	mdLevelRe  = regexp.MustCompile(`^(#{1,6})\s`)
	contactRe  = regexp.MustCompile(`(?i)@|https?://|www\.|linkedin|github\.com|\+?\d[\d\s().-]{6,}\d`)
	bulletMark = regexp.MustCompile(`^\s*([-*•◦‣▪▫■□◆◇►→➢✓✔★·–]|\d{1,2}[.)])\s+`)
)

// ResumeParser splits résumé text into sections using vocabulary aliases.
type ResumeParser struct {
	sections *sectionIndex
	known    map[string]bool
}

// NewResumeParser builds a parser for the résumé section aliases in v.
func NewResumeParser(v *rules.Vocabulary) *ResumeParser {
	idx := newSectionIndex(v, true)
	return &ResumeParser{sections: idx, known: idx.known()}
}

// Parse reads plain-text or Markdown résumé text. Lines before the first
// recognised section heading form the header.
func (p *ResumeParser) Parse(text string) *Resume {
	r := &Resume{TitleLine: -1}
	var cur *Section
	for _, raw := range strings.Split(engine.NormalizeText(text), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if s := p.heading(raw, cur != nil); s != nil {
			r.Sections = append(r.Sections, s)
			cur = s
			continue
		}
		if cur == nil {
			r.Header = append(r.Header, raw)
			continue
		}
		cur.Lines = append(cur.Lines, parseLine(raw))
	}
	r.TitleLine = findTitleLine(r.Header)
	return r
}

// heading returns a new section when raw is a section heading. Unmapped
// Markdown headings of level one or two and bold lines only open a section
// once a mapped section has been seen, so a "# Name" header stays in place.
func (p *ResumeParser) heading(raw string, inBody bool) *Section {
	line := strings.TrimSpace(raw)
	name, ok := detectHeading(line, p.known)
	if !ok {
		return nil
	}
	key := p.sections.key(name)
	if key != "" && countWords(name) <= 4 {
		return &Section{Heading: name, Raw: line, Key: key}
	}
	if !inBody {
		return nil
	}
	if m := mdLevelRe.FindStringSubmatch(line); m != nil && len(m[1]) <= 2 {
		return &Section{Heading: name, Raw: line}
	}
	if boldHeadingRe.MatchString(line) {
		return &Section{Heading: name, Raw: line}
	}
	return nil
}

func parseLine(raw string) Line {
	if m := bulletMark.FindStringSubmatch(raw); m != nil {
		return Line{Text: strings.TrimSpace(raw[len(m[0]):]), Bullet: true, Marker: m[1]}
	}
	return Line{Text: strings.TrimSpace(raw)}
}

// findTitleLine picks the professional title: the first short header line
// after the name that is not contact details.
func findTitleLine(header []string) int {
	for i := 1; i < len(header) && i < 4; i++ {
		t := cleanHeading(header[i])
		if t == "" || contactRe.MatchString(t) || countWords(t) > 8 || strings.HasSuffix(t, ".") {
			continue
		}
		if r := []rune(t); unicode.IsLetter(r[0]) {
			return i
		}
	}
	return -1
}

// Title returns the résumé's professional title, or "".
func (r *Resume) Title() string {
	if r.TitleLine < 0 || r.TitleLine >= len(r.Header) {
		return ""
	}
	return cleanHeading(r.Header[r.TitleLine])
}

// SetTitle replaces the title text, keeping any Markdown around it.
func (r *Resume) SetTitle(title string) bool {
	old := r.Title()
	if old == "" {
		return false
	}
	r.Header[r.TitleLine] = strings.Replace(r.Header[r.TitleLine], old, title, 1)
	return true
}

// Section returns the first section with key, or nil.
func (r *Resume) Section(key string) *Section {
	for _, s := range r.Sections {
		if s.Key == key {
			return s
		}
	}
	return nil
}

// Clone returns a deep copy.
func (r *Resume) Clone() *Resume {
	c := &Resume{Header: append([]string(nil), r.Header...), TitleLine: r.TitleLine}
	for _, s := range r.Sections {
		cs := *s
		cs.Lines = append([]Line(nil), s.Lines...)
		c.Sections = append(c.Sections, &cs)
	}
	return c
}

// Render writes the résumé back to text, one blank line between blocks.
func (r *Resume) Render() string {
	var b strings.Builder
	for _, h := range r.Header {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	for _, s := range r.Sections {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		raw := s.Raw
		if raw == "" {
			raw = s.Heading
		}
		b.WriteString(raw)
		b.WriteByte('\n')
		for _, l := range s.Lines {
			if l.Bullet {
				m := l.Marker
				if m == "" {
					m = "-"
				}
				b.WriteString(m + " ")
			}
			b.WriteString(l.Text)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
