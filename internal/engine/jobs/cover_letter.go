package jobs

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/anatolykoptev/go_apply/internal/engine"
)

// coverLetterWordLimit is the recommended upper bound for a cover letter.
const coverLetterWordLimit = 400

// CoverLetterInput carries the candidate-supplied details for a letter.
type CoverLetterInput struct {
	CompanyName   string `json:"company_name,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
	CompanyDetail string `json:"company_detail,omitempty"`
	Achievement   string `json:"achievement,omitempty"`
	RoleAspect    string `json:"role_aspect,omitempty"`
	Location      string `json:"location,omitempty"`
	Availability  string `json:"availability,omitempty"`
}

// CoverLetter is a five-paragraph letter with its checks.
type CoverLetter struct {
	Paragraphs      []string `json:"paragraphs"`
	Text            string   `json:"text"`
	WordCount       int      `json:"word_count"`
	Under400Words   bool     `json:"under_400_words"`
	SkillsMentioned []string `json:"skills_mentioned"`
	Warnings        []string `json:"warnings,omitempty"`
}

// toneRules swap stiff phrasing for a conversational register.
var toneRules = strings.NewReplacer(
	"I am writing to express my interest", "I'm excited to apply",
	"I would like to", "I'd like to",
	"I have the ability to", "I can",
	"I possess", "I have",
	"I am ", "I'm ",
	"I would ", "I'd ",
)

var quantifiedRe = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:%|percent|x\b|k\b|m\b|million|thousand|hours?|days?|weeks?|months?|users|customers|clients|people|managers|analysts|members|reports|projects)|[£$€]\s?\d`)

// isQuantified reports whether text carries a measurable figure.
func isQuantified(text string) bool {
	return quantifiedRe.MatchString(text)
}

// WriteCoverLetter drafts a cover letter from the analysis and the résumé.
// Skill names keep the job description's spelling and only skills the
// résumé already shows are mentioned.
func WriteCoverLetter(a *Analysis, r *Resume, in CoverLetterInput) *CoverLetter {
	cl := &CoverLetter{SkillsMentioned: []string{}}
	resumeText := r.Render()

	company := firstNonEmpty(in.CompanyName, a.Company)
	if company == "" {
		company = "your company"
		cl.Warnings = append(cl.Warnings, "company name unknown; add it before sending")
	}
	title := firstNonEmpty(in.JobTitle, a.JobTitle)
	if title == UnknownTitle {
		title = ""
	}

	cl.Paragraphs = []string{
		hookParagraph(title, company, in.CompanyDetail, a.CompanyValues),
		cl.skillsParagraph(a, resumeText),
		cl.storyParagraph(in.Achievement, r),
		whyParagraph(in.RoleAspect, a.Responsibilities),
		closeParagraph(in.Location, in.Availability),
	}
	for i, p := range cl.Paragraphs {
		cl.Paragraphs[i] = toneRules.Replace(p)
	}
	cl.Text = strings.Join(cl.Paragraphs, "\n\n")
	cl.WordCount = countWords(cl.Text)
	cl.Under400Words = cl.WordCount < coverLetterWordLimit
	if !cl.Under400Words {
		cl.Warnings = append(cl.Warnings, "letter is 400 words or longer; trim it")
	}
	return cl
}

func hookParagraph(title, company, detail string, values []string) string {
	role := "this position"
	if title != "" {
		role = "the " + title + " position"
	}
	hook := "I'm excited to apply for " + role + " at " + company + "."
	switch {
	case detail != "":
		hook += " " + sentenceCase(detail)
	case len(values) >= 2:
		hook += " Your emphasis on " + strings.ToLower(values[0]) + " and " + strings.ToLower(values[1]) + " matches how I like to work."
	case len(values) == 1:
		hook += " Your emphasis on " + strings.ToLower(values[0]) + " matches how I like to work."
	}
	return hook
}

// skillsParagraph names up to four required or tool skills that the résumé shows.
func (cl *CoverLetter) skillsParagraph(a *Analysis, resumeText string) string {
	candidates := append(a.Terms(CategoryRequired), a.Terms(CategoryTool)...)
	skills := MatchKeywords(candidates, resumeText).Matched
	if len(skills) > 4 {
		skills = skills[:4]
	}
	cl.SkillsMentioned = append(cl.SkillsMentioned, skills...)

	switch len(skills) {
	case 0:
		cl.Warnings = append(cl.Warnings, "none of the job's skills appear in the résumé")
		return "My background covers much of what this role asks for, and I'm keen to build on it."
	case 1:
		return "I'm proficient in " + skills[0] + " and have used it in day-to-day delivery."
	case 2:
		return "I'm proficient in " + skills[0] + " and have strong " + skills[1] + " skills."
	}
	text := "I'm proficient in " + skills[0] + ", have strong " + skills[1] + " skills, and experience with " + skills[2]
	if len(skills) > 3 {
		text += " and " + skills[3]
	}
	return text + "."
}

// storyParagraph uses the candidate's achievement, else the first quantified
// résumé bullet. It never invents figures.
func (cl *CoverLetter) storyParagraph(achievement string, r *Resume) string {
	if achievement = strings.TrimSpace(achievement); achievement != "" {
		return "In my previous role, " + strings.TrimRight(lowerFirst(achievement), ".") + "."
	}
	for _, s := range sectionsByPreference(r) {
		for _, l := range s.Lines {
			if l.Bullet && isQuantified(l.Text) {
				return "In my previous role, I " + strings.TrimRight(lowerFirst(l.Text), ".") + "."
			}
		}
	}
	cl.Warnings = append(cl.Warnings, "no quantified achievement found; add one with numbers")
	return "In my previous role, I delivered work closely related to the responsibilities of this position."
}

func whyParagraph(aspect string, responsibilities []string) string {
	if aspect = strings.TrimSpace(aspect); aspect != "" {
		return "I'm particularly drawn to this role because " + strings.TrimRight(lowerFirst(aspect), ".") + "."
	}
	if len(responsibilities) > 0 {
		r := strings.TrimRight(engine.TruncateAtWord(responsibilities[0], 100), ".")
		return "I'm particularly drawn to this role because of the opportunity to " + lowerFirst(r) + ". This aligns with my experience and interests."
	}
	return "I'm particularly drawn to this role because it offers challenging problems and room to make a measurable impact."
}

func closeParagraph(location, availability string) string {
	var parts []string
	if location = strings.TrimSpace(location); location != "" {
		parts = append(parts, "I'm "+location)
	}
	if availability = strings.TrimSpace(availability); availability != "" {
		parts = append(parts, "available "+availability)
	}
	if len(parts) == 0 {
		return "I'm excited to discuss how I can contribute to your team and would welcome the chance to speak with you."
	}
	return strings.Join(parts, ", ") + ", and I'm excited to discuss how I can contribute to your team."
}

// lowerFirst lower-cases the first letter unless the word is "I" or an acronym.
func lowerFirst(s string) string {
	s = strings.TrimSpace(s)
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	next, _ := utf8.DecodeRuneInString(s[n:])
	if unicode.IsUpper(next) || (r == 'I' && !unicode.IsLetter(next)) {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func sentenceCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s[len(s)-1:], ".!?") {
		return s
	}
	return s + "."
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
