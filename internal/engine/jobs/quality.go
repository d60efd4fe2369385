package jobs

import (
	"strings"

	"github.com/anatolykoptev/go_apply/internal/engine"
)

// Quality issue severities.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// actionVerbs open achievement bullets that should carry a metric.
var actionVerbs = []string{
	"led", "managed", "increased", "decreased", "improved", "reduced", "achieved",
	"delivered", "created", "built", "launched", "designed", "automated", "grew", "cut",
}

// weakOpeners describe duties instead of results.
var weakOpeners = []string{
	"responsible for", "helped", "worked on", "assisted", "duties included",
	"involved in", "participated in", "tasked with",
}

// QualityIssue is one finding of the quality check.
type QualityIssue struct {
	Check    string `json:"check"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// QualityReport summarises résumé best-practice checks.
type QualityReport struct {
	Score             int            `json:"score"`
	Bullets           int            `json:"bullets"`
	QuantifiedBullets int            `json:"quantified_bullets"`
	TitleMatch        *bool          `json:"title_match,omitempty"`
	TitleOverlap      float64        `json:"title_overlap,omitempty"`
	Required          *MatchResult   `json:"required_coverage,omitempty"`
	Issues            []QualityIssue `json:"issues"`
}

const maxMetricWarnings = 5

// CheckQuality runs the best-practice checks. targetTitle and required are
// optional; their checks are skipped when empty.
func CheckQuality(r *Resume, targetTitle string, required []string) *QualityReport {
	rep := &QualityReport{Issues: []QualityIssue{}}
	score := 100.0

	metricWarnings := 0
	weak := 0
	for _, s := range r.Sections {
		for _, l := range s.Lines {
			if !l.Bullet {
				continue
			}
			rep.Bullets++
			if isQuantified(l.Text) {
				rep.QuantifiedBullets++
				continue
			}
			lower := strings.ToLower(l.Text)
			if startsWithAny(lower, actionVerbs) && metricWarnings < maxMetricWarnings {
				metricWarnings++
				rep.add("metrics", SeverityMedium, "Consider adding quantifiable metrics: "+engine.TruncateRunes(l.Text, 50, "..."))
			}
			if startsWithAny(lower, weakOpeners) {
				weak++
				rep.add("weak_opener", SeverityLow, "Start with an action verb instead of a duty: "+engine.TruncateRunes(l.Text, 50, "..."))
			}
		}
	}
	score -= float64(min(metricWarnings*5, 25))
	score -= float64(min(weak*3, 15))
	if rep.Bullets == 0 {
		rep.add("bullets", SeverityHigh, "No bullet points found; list achievements as bullets")
		score -= 20
	}

	if targetTitle = strings.TrimSpace(targetTitle); targetTitle != "" && targetTitle != UnknownTitle {
		rep.TitleOverlap = engine.Round1(titleOverlap(targetTitle, r.Title())*100) / 100
		match := rep.TitleOverlap >= 0.5
		rep.TitleMatch = &match
		if !match {
			rep.add("title", SeverityHigh, "Résumé title \""+r.Title()+"\" does not align with \""+targetTitle+"\"")
			score -= 15
		}
	}

	if len(required) > 0 {
		m := MatchKeywords(required, r.Render())
		rep.Required = &m
		if len(m.Missing) > 0 {
			rep.add("required_skills", SeverityHigh, "Missing required skills: "+strings.Join(m.Missing, ", "))
		}
		score -= min((100-m.Coverage)*0.4, 40)
	}

	rep.Score = int(engine.ClampPercent(score) + 0.5)
	return rep
}

func (rep *QualityReport) add(check, severity, msg string) {
	rep.Issues = append(rep.Issues, QualityIssue{Check: check, Severity: severity, Message: msg})
}

// titleOverlap is the share of target title words present in the résumé title.
func titleOverlap(target, title string) float64 {
	t, have := stemSet(target), stemSet(title)
	if len(t) == 0 {
		return 0
	}
	n := 0
	for s := range t {
		if have[s] {
			n++
		}
	}
	return float64(n) / float64(len(t))
}

func startsWithAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if s == p || strings.HasPrefix(s, p+" ") {
			return true
		}
	}
	return false
}
