// Package ats scores how well a résumé file survives applicant tracking
// system parsing. Scoring is deduction based over structural metadata
// (a Profile) so the same rules apply to DOCX, PDF and text inputs.
package ats

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

// Deduction severities.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Profile is the structural metadata of a résumé file.
type Profile struct {
	Format       string    `json:"format"`
	Tables       int       `json:"tables"`
	Columns      int       `json:"columns"`
	TextFlows    int       `json:"text_flows"`
	Fonts        []string  `json:"fonts,omitempty"`
	FontSizes    []float64 `json:"font_sizes,omitempty"`
	Images       int       `json:"images"`
	HeaderText   bool      `json:"header_text"`
	FooterText   bool      `json:"footer_text"`
	BulletGlyphs []string  `json:"bullet_glyphs,omitempty"`
	Pages        int       `json:"pages,omitempty"`
}

// MultiColumn reports whether the document is structurally multi-column:
// section columns, or two or more independent text flows.
func (p *Profile) MultiColumn() bool {
	return p.Columns > 1 || p.TextFlows >= 2
}

// Deduction is one triggered rule.
type Deduction struct {
	Category       string `json:"category"`
	Issue          string `json:"issue"`
	Severity       string `json:"severity"`
	Penalty        int    `json:"penalty"`
	Applied        int    `json:"applied"`
	Recommendation string `json:"recommendation"`
}

// CategoryScore is the outcome of one scoring category.
type CategoryScore struct {
	Weight          int      `json:"weight"`
	Deducted        int      `json:"deducted"`
	Score           int      `json:"score"`
	Recommendations []string `json:"recommendations"`
}

// Report is the full ATS compatibility result.
type Report struct {
	Total      int                       `json:"total"`
	Grade      string                    `json:"grade"`
	GradeLabel string                    `json:"grade_label"`
	Categories map[string]*CategoryScore `json:"categories"`
	Deductions []Deduction               `json:"deductions"`
	Profile    Profile                   `json:"profile"`
}

// Recommendations lists every distinct recommendation in deduction order.
func (r *Report) Recommendations() []string {
	var out []string
	for _, d := range r.Deductions {
		if !slices.Contains(out, d.Recommendation) {
			out = append(out, d.Recommendation)
		}
	}
	return out
}

// Scorer applies an ATS rule set to profiles. It is safe for concurrent use.
type Scorer struct {
	rules   rules.ATSRules
	fonts   map[string]bool
	bullets map[string]bool
}

// NewScorer validates the rules and builds a scorer.
func NewScorer(r *rules.ATSRules) (*Scorer, error) {
	if r == nil {
		return nil, fmt.Errorf("ats scorer: nil rules")
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("ats scorer: %w", err)
	}
	s := &Scorer{rules: *r, fonts: map[string]bool{}, bullets: map[string]bool{}}
	for _, f := range r.Fonts.Allowed {
		s.fonts[fontKey(f)] = true
	}
	for _, b := range r.UnusualBullets {
		s.bullets[b] = true
	}
	return s, nil
}

// Rules returns a copy of the rule set in use.
func (s *Scorer) Rules() rules.ATSRules {
	return s.rules
}

// Score runs every check against p. Each category starts at its weight and
// never drops below zero.
func (s *Scorer) Score(p Profile) Report {
	rep := Report{Categories: map[string]*CategoryScore{}, Deductions: []Deduction{}, Profile: p}
	for _, c := range rules.Categories {
		w := s.rules.Weight(c)
		rep.Categories[c] = &CategoryScore{Weight: w, Score: w, Recommendations: []string{}}
	}

	s.checkFormat(&rep, p)
	s.checkLayout(&rep, p)
	s.checkFonts(&rep, p)
	s.checkGraphics(&rep, p)
	s.checkHeadersFooters(&rep, p)

	total := 0
	for _, c := range rules.Categories {
		total += rep.Categories[c].Score
	}
	rep.Total = min(max(total, 0), 100)
	rep.Grade, rep.GradeLabel = Grade(rep.Total)
	return rep
}

// deduct records a violation, capping the applied points at what is left
// in the category.
func (rep *Report) deduct(category, severity string, penalty int, issue, rec string) {
	cs := rep.Categories[category]
	applied := min(penalty, cs.Score)
	cs.Score -= applied
	cs.Deducted += applied
	if !slices.Contains(cs.Recommendations, rec) {
		cs.Recommendations = append(cs.Recommendations, rec)
	}
	rep.Deductions = append(rep.Deductions, Deduction{
		Category:       category,
		Issue:          issue,
		Severity:       severity,
		Penalty:        penalty,
		Applied:        applied,
		Recommendation: rec,
	})
}

func (s *Scorer) checkFormat(rep *Report, p Profile) {
	ext := strings.ToLower(p.Format)
	want := strings.Join(s.rules.FileFormat.Allowed, ", ")
	rec := "Convert the file to " + want + " format"
	switch {
	case slices.Contains(s.rules.FileFormat.Allowed, ext):
	case slices.Contains(s.rules.FileFormat.Prohibited, ext):
		rep.deduct(rules.CategoryFileFormat, SeverityHigh, s.rules.Weight(rules.CategoryFileFormat),
			fmt.Sprintf("File format is %s, should be %s", ext, want), rec)
	case ext == "":
		rep.deduct(rules.CategoryFileFormat, SeverityMedium, s.rules.Penalties.UnlistedFormat,
			"File format is unknown, should be "+want, rec)
	default:
		rep.deduct(rules.CategoryFileFormat, SeverityMedium, s.rules.Penalties.UnlistedFormat,
			fmt.Sprintf("File format %s is not a recognised ATS format, should be %s", ext, want), rec)
	}
}

func (s *Scorer) checkLayout(rep *Report, p Profile) {
	if p.Tables > 0 {
		rep.deduct(rules.CategoryLayout, SeverityHigh, s.rules.Penalties.Tables,
			fmt.Sprintf("Found %d table(s); ATS may not parse them correctly", p.Tables),
			"Remove all tables and use plain text with bullets")
	}
	if p.MultiColumn() {
		issue := "Multi-column layout detected"
		if p.Columns <= 1 {
			issue = fmt.Sprintf("Multi-column layout detected: %d independent text flows (text boxes or frames)", p.TextFlows)
		}
		rep.deduct(rules.CategoryLayout, SeverityHigh, s.rules.Penalties.MultiColumn, issue,
			"Convert to a single-column layout without text boxes or frames")
	}
	var unusual []string
	for _, g := range p.BulletGlyphs {
		if s.bullets[g] && !slices.Contains(unusual, g) {
			unusual = append(unusual, g)
		}
	}
	if len(unusual) > 0 {
		rep.deduct(rules.CategoryLayout, SeverityLow, s.rules.Penalties.UnusualBullets,
			"Unusual bullet points detected: "+strings.Join(unusual, ", "),
			"Use standard round bullets (•) or hyphens")
	}
}

func (s *Scorer) checkFonts(rep *Report, p Profile) {
	fr := s.rules.Fonts
	rec := fmt.Sprintf("Change all fonts to %s (%g-%gpt)", joinOr(fr.Allowed), fr.MinSize, fr.MaxSize)

	var odd []string
	for _, f := range p.Fonts {
		if f != "" && !s.fonts[fontKey(f)] && !slices.Contains(odd, f) {
			odd = append(odd, f)
		}
	}
	if len(odd) > 0 {
		sort.Strings(odd)
		rep.deduct(rules.CategoryFonts, SeverityMedium, s.rules.Penalties.NonStandardFont,
			"Non-standard fonts detected: "+strings.Join(odd, ", "), rec)
	}

	var bad []string
	for _, sz := range p.FontSizes {
		if sz <= 0 || (sz >= fr.MinSize && sz <= fr.MaxSize) {
			continue
		}
		if v := fmt.Sprintf("%g", sz); !slices.Contains(bad, v) {
			bad = append(bad, v)
		}
	}
	if len(bad) > 0 {
		rep.deduct(rules.CategoryFonts, SeverityLow, s.rules.Penalties.FontSize,
			fmt.Sprintf("Font sizes outside recommended range (%g-%gpt): %s", fr.MinSize, fr.MaxSize, strings.Join(bad, ", ")), rec)
	}
}

func (s *Scorer) checkGraphics(rep *Report, p Profile) {
	if p.Images > 0 {
		rep.deduct(rules.CategoryGraphics, SeverityHigh, s.rules.Penalties.Images,
			fmt.Sprintf("%d image(s) or graphic(s) detected; ATS cannot read these", p.Images),
			"Remove all images, logos, and graphics")
	}
}

func (s *Scorer) checkHeadersFooters(rep *Report, p Profile) {
	const rec = "Move all header/footer content into the main document body"
	if p.HeaderText {
		rep.deduct(rules.CategoryHeadersFooters, SeverityMedium, s.rules.Penalties.HeaderText,
			"Header contains text; ATS may not read it", rec)
	}
	if p.FooterText {
		rep.deduct(rules.CategoryHeadersFooters, SeverityMedium, s.rules.Penalties.FooterText,
			"Footer contains text; ATS may not read it", rec)
	}
}

// Grade converts a total to a letter grade and its label.
func Grade(total int) (string, string) {
	switch {
	case total >= 90:
		return "A", "Excellent"
	case total >= 80:
		return "B", "Good"
	case total >= 70:
		return "C", "Acceptable"
	case total >= 60:
		return "D", "Needs Improvement"
	default:
		return "F", "Major Issues"
	}
}

// fontKey folds case and spacing so "TimesNewRoman" equals "Times New Roman".
func fontKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}

func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
}
