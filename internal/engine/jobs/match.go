package jobs

import (
	"sort"
	"strings"

	"github.com/anatolykoptev/go_apply/internal/engine"
)

// MatchResult is the keyword coverage of a résumé against job keywords.
type MatchResult struct {
	Coverage float64  `json:"coverage"`
	Total    int      `json:"total"`
	Matched  []string `json:"matched"`
	Missing  []string `json:"missing"`
	Warnings []string `json:"warnings,omitempty"`
}

// MatchKeywords reports which keywords appear in the résumé text. Tokens are
// compared case-insensitively after stemming; multi-word keywords must appear
// as a contiguous run. Missing keywords keep the input order.
func MatchKeywords(keywords []string, resume string) MatchResult {
	res := MatchResult{Matched: []string{}, Missing: []string{}}
	kws := uniqueTerms(keywords)
	res.Total = len(kws)
	if len(kws) == 0 {
		res.Warnings = append(res.Warnings, "no job keywords to match")
		return res
	}
	if strings.TrimSpace(resume) == "" {
		res.Warnings = append(res.Warnings, "résumé text is empty")
	}

	ws := splitWords(resume)
	lower := strings.ToLower(resume)
	for _, k := range kws {
		if keywordIn(k, ws, lower) {
			res.Matched = append(res.Matched, k)
		} else {
			res.Missing = append(res.Missing, k)
		}
	}
	res.Coverage = coverage(len(res.Matched), len(kws))
	return res
}

func coverage(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return engine.Round1(engine.ClampPercent(float64(matched) / float64(total) * 100))
}

// keywordIn tests one keyword against pre-tokenized résumé words. Keywords
// made only of symbols fall back to a substring test.
func keywordIn(keyword string, ws []word, lower string) bool {
	p := newPhrase(keyword)
	if len(p.words) == 0 {
		return strings.Contains(lower, strings.ToLower(strings.TrimSpace(keyword)))
	}
	p.caseSensitive = false
	return p.in(ws)
}

// uniqueTerms trims keywords and drops blanks and case-insensitive duplicates.
func uniqueTerms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
	}
	return out
}

// CategoryCoverage is keyword coverage within one category.
type CategoryCoverage struct {
	Category string   `json:"category"`
	Total    int      `json:"total"`
	Matched  int      `json:"matched"`
	Coverage float64  `json:"coverage"`
	Missing  []string `json:"missing,omitempty"`
}

// Placement suggests where a missing keyword belongs in the résumé.
type Placement struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Section  string `json:"section"`
	Advice   string `json:"advice"`
}

// MatchReport extends MatchResult with per-category detail.
type MatchReport struct {
	MatchResult
	Grade      string             `json:"grade"`
	ByCategory []CategoryCoverage `json:"by_category"`
	Placements []Placement        `json:"placements,omitempty"`
}

// MatchAnalysis matches every classified keyword of an analysis against the résumé.
func MatchAnalysis(a *Analysis, resume string) MatchReport {
	rep := MatchReport{MatchResult: MatchKeywords(a.Terms(), resume)}
	rep.Grade = CoverageGrade(rep.Coverage)

	missing := map[string]bool{}
	for _, m := range rep.Missing {
		missing[strings.ToLower(m)] = true
	}
	for _, cat := range []string{CategoryRequired, CategoryPreferred, CategoryTool, CategorySoft} {
		terms := a.Terms(cat)
		if len(terms) == 0 {
			continue
		}
		cc := CategoryCoverage{Category: cat, Total: len(terms)}
		for _, t := range terms {
			if missing[strings.ToLower(t)] {
				cc.Missing = append(cc.Missing, t)
			} else {
				cc.Matched++
			}
		}
		cc.Coverage = coverage(cc.Matched, cc.Total)
		rep.ByCategory = append(rep.ByCategory, cc)
	}

	for _, m := range rep.Missing {
		rep.Placements = append(rep.Placements, placementFor(m, a.Category(m)))
	}
	return rep
}

func placementFor(keyword, category string) Placement {
	p := Placement{Keyword: keyword, Category: category}
	switch category {
	case CategoryTool:
		p.Section = "skills"
		p.Advice = "List " + keyword + " in the skills section if you have used it."
	case CategorySoft:
		p.Section = "summary"
		p.Advice = "Show " + keyword + " through an achievement rather than listing it."
	default:
		p.Section = "experience"
		p.Advice = "Name " + keyword + " in the experience bullet where you applied it."
	}
	return p
}

// CoverageGrade maps a coverage percentage to a label.
func CoverageGrade(c float64) string {
	switch {
	case c >= 90:
		return "Excellent"
	case c >= 80:
		return "Good"
	case c >= 70:
		return "Acceptable"
	case c >= 60:
		return "Needs Improvement"
	}
	return "Poor"
}

// matchStopWords filters common English words that add noise to quick scoring.
var matchStopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "high": true,
	"good": true, "able": true, "get": true, "set": true, "such": true,
}

// ResumeKeywords reduces résumé text to a set of stems (>= 3 chars).
// Call once per résumé and reuse for ranking several postings.
func ResumeKeywords(text string) map[string]bool {
	kw := make(map[string]bool)
	for _, w := range splitWords(text) {
		if len([]rune(w.norm)) >= 3 && !matchStopWords[w.norm] {
			kw[w.stem] = true
		}
	}
	return kw
}

// JobScore is a quick Jaccard overlap of a résumé with one posting.
type JobScore struct {
	Score    float64  `json:"score"`
	Matching []string `json:"matching"`
	Missing  []string `json:"missing"`
}

// ScoreJobMatch computes the Jaccard overlap (0–100) between pre-extracted
// résumé stems and a posting. Missing holds at most 20 posting stems.
func ScoreJobMatch(resumeKW map[string]bool, jobText string) JobScore {
	jobKW := ResumeKeywords(jobText)

	var s JobScore
	inter := 0
	for kw := range resumeKW {
		if jobKW[kw] {
			inter++
			s.Matching = append(s.Matching, kw)
		}
	}
	for kw := range jobKW {
		if !resumeKW[kw] {
			s.Missing = append(s.Missing, kw)
		}
	}
	if union := len(resumeKW) + len(jobKW) - inter; union > 0 {
		s.Score = engine.Round1(float64(inter) / float64(union) * 100)
	}

	sort.Strings(s.Matching)
	sort.Strings(s.Missing)
	if len(s.Missing) > 20 {
		s.Missing = s.Missing[:20]
	}
	return s
}

// Posting is a job listing to rank.
type Posting struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	Text  string `json:"text,omitempty"`
}

// RankedPosting is a posting with its quick score.
type RankedPosting struct {
	Posting
	JobScore
}

// RankPostings scores postings against one résumé, best first. Ties keep input order.
func RankPostings(resume string, postings []Posting) []RankedPosting {
	kw := ResumeKeywords(resume)
	out := make([]RankedPosting, 0, len(postings))
	for _, p := range postings {
		out = append(out, RankedPosting{Posting: p, JobScore: ScoreJobMatch(kw, p.Text)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
