package jobs

import (
	"fmt"
	"strings"
)

// Word bounds for the free-text "why do you want to work here" field of an
// application form.
const (
	HiringMessageMinWords = 200
	HiringMessageMaxWords = 300
)

const maxEvidence = 4

// fitSentence closes the gap when a message is short. It makes no claim the
// résumé does not already support.
const fitSentence = "My experience aligns well with your requirements, and I'm confident I can make a meaningful contribution to your organisation."

// HiringMessageInput carries candidate details for the message.
type HiringMessageInput struct {
	CompanyName   string `json:"company_name,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
	CompanyDetail string `json:"company_detail,omitempty"`
	Achievement   string `json:"achievement,omitempty"`
	RoleAspect    string `json:"role_aspect,omitempty"`
	Location      string `json:"location,omitempty"`
	Availability  string `json:"availability,omitempty"`
}

// HiringMessage is a message for an application form's optional free-text field.
type HiringMessage struct {
	Paragraphs      []string `json:"paragraphs"`
	Text            string   `json:"text"`
	WordCount       int      `json:"word_count"`
	InRange         bool     `json:"in_range"`
	SkillsMentioned []string `json:"skills_mentioned"`
	Evidence        []string `json:"evidence"`
	Warnings        []string `json:"warnings,omitempty"`
}

// WriteHiringMessage drafts a message of 200 to 300 words. Skills are the
// job's own terms that the résumé shows and the evidence sentences are the
// candidate's achievement or résumé bullets, so nothing is invented.
func WriteHiringMessage(a *Analysis, r *Resume, in HiringMessageInput) *HiringMessage {
	m := &HiringMessage{SkillsMentioned: []string{}, Evidence: []string{}}

	company := firstNonEmpty(in.CompanyName, a.Company)
	if company == "" {
		company = "your company"
		m.Warnings = append(m.Warnings, "company name unknown; add it before sending")
	}
	title := firstNonEmpty(in.JobTitle, a.JobTitle)
	if title == UnknownTitle {
		title = ""
	}

	opener := openerParagraph(title, company, in.CompanyDetail, a.CompanyValues)
	skills := m.skillsParagraph(a, r.Render())
	m.Evidence = evidence(in.Achievement, r, a)
	if len(m.Evidence) == 0 {
		m.Warnings = append(m.Warnings, "no résumé bullet matches the job; add an achievement")
	}
	summary := ""
	if s := r.Section("summary"); s != nil && len(s.Lines) > 0 {
		summary = "To sum up my background: " + strings.TrimRight(lowerFirst(s.Lines[0].Text), ".") + "."
	}
	role := roleParagraph(in.RoleAspect, a.Responsibilities)
	closing := closingParagraph(in.Location, in.Availability)

	build := func(ev []string, fit bool) []string {
		paras := []string{opener, skills}
		if len(ev) > 0 {
			paras = append(paras, evidenceParagraph(ev))
		}
		if summary != "" {
			paras = append(paras, summary)
		}
		middle := role
		if fit {
			middle += " " + fitSentence
		}
		return append(paras, middle, closing)
	}

	ev := m.Evidence
	paras := build(ev, false)
	for words(paras) > HiringMessageMaxWords && len(ev) > 1 {
		ev = ev[:len(ev)-1]
		paras = build(ev, false)
	}
	m.Evidence = ev
	if words(paras) < HiringMessageMinWords {
		paras = build(ev, true)
	}
	if words(paras) > HiringMessageMaxWords {
		paras = capParagraphs(paras, HiringMessageMaxWords)
	}

	for i, p := range paras {
		paras[i] = toneRules.Replace(p)
	}
	m.Paragraphs = paras
	m.Text = strings.Join(paras, "\n\n")
	m.WordCount = countWords(m.Text)
	m.InRange = m.WordCount >= HiringMessageMinWords && m.WordCount <= HiringMessageMaxWords
	if m.WordCount < HiringMessageMinWords {
		m.Warnings = append(m.Warnings, fmt.Sprintf(
			"message is %d words; add an achievement, a company detail or what draws you to the role to reach %d",
			m.WordCount, HiringMessageMinWords))
	}
	return m
}

func openerParagraph(title, company, detail string, values []string) string {
	role := "this role"
	if title != "" {
		role = "the " + title + " role"
	}
	text := "I'm genuinely interested in " + role + " at " + company + "."
	if detail = strings.TrimSpace(detail); detail != "" {
		text += " " + sentenceCase(detail)
	}
	if len(values) > 0 {
		vals := make([]string, 0, 2)
		for _, v := range values[:min(len(values), 2)] {
			vals = append(vals, strings.ToLower(v))
		}
		text += " Your emphasis on " + andList(vals) + " matches how I like to work."
	}
	return text
}

// skillsParagraph names up to three hard skills and two soft skills that both
// the job and the résumé mention.
func (m *HiringMessage) skillsParagraph(a *Analysis, resumeText string) string {
	hard := MatchKeywords(append(a.Terms(CategoryRequired), a.Terms(CategoryTool)...), resumeText).Matched
	hard = hard[:min(len(hard), 3)]
	soft := MatchKeywords(a.Terms(CategorySoft), resumeText).Matched
	soft = soft[:min(len(soft), 2)]
	m.SkillsMentioned = append(append(m.SkillsMentioned, hard...), soft...)

	switch {
	case len(hard) == 0 && len(soft) == 0:
		m.Warnings = append(m.Warnings, "none of the job's skills appear in the résumé")
		return "My background covers much of what this role asks for, and I'm keen to build on it."
	case len(soft) == 0:
		return "I bring hands-on experience with " + andList(hard) + ", which this role relies on every day."
	case len(hard) == 0:
		return "I bring strong " + andList(soft) + ", which this role relies on every day."
	}
	return "I bring hands-on experience with " + andList(hard) + ", along with strong " + andList(soft) + "."
}

// evidence returns the candidate's achievement followed by résumé bullets
// that mention a job keyword, then quantified bullets, up to maxEvidence.
func evidence(achievement string, r *Resume, a *Analysis) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimRight(strings.TrimSpace(s), ".")
		if s == "" || seen[strings.ToLower(s)] || len(out) >= maxEvidence {
			return
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	add(achievement)

	terms := a.Terms()
	var bullets []string
	for _, s := range sectionsByPreference(r) {
		if s.Key != "experience" && s.Key != "projects" {
			continue
		}
		for _, l := range s.Lines {
			if l.Bullet {
				bullets = append(bullets, l.Text)
			}
		}
	}
	for _, b := range bullets {
		if len(MatchKeywords(terms, b).Matched) > 0 {
			add(b)
		}
	}
	for _, b := range bullets {
		if isQuantified(b) {
			add(b)
		}
	}
	return out
}

func evidenceParagraph(ev []string) string {
	sentences := make([]string, 0, len(ev))
	for i, e := range ev {
		e = lowerFirst(e)
		switch {
		case i == 0 && strings.HasPrefix(e, "I "):
			sentences = append(sentences, "In my recent work, "+e+".")
		case i == 0:
			sentences = append(sentences, "In my recent work, I "+e+".")
		case strings.HasPrefix(e, "I "):
			sentences = append(sentences, e+".")
		default:
			sentences = append(sentences, "I also "+e+".")
		}
	}
	return strings.Join(sentences, " ")
}

func roleParagraph(aspect string, responsibilities []string) string {
	if aspect = strings.TrimSpace(aspect); aspect != "" {
		return "I'm particularly excited about this role because " + strings.TrimRight(lowerFirst(aspect), ".") + "."
	}
	var duties []string
	for _, r := range responsibilities[:min(len(responsibilities), 2)] {
		duties = append(duties, strings.TrimRight(lowerFirst(r), "."))
	}
	if len(duties) == 0 {
		return "I'm particularly excited about the room this role offers to solve challenging problems and make a measurable impact."
	}
	return "I'm particularly excited about the chance to " + strings.Join(duties, ", and to ") + "."
}

func closingParagraph(location, availability string) string {
	var parts []string
	if location = strings.TrimSpace(location); location != "" {
		parts = append(parts, "I'm "+location)
	}
	if availability = strings.TrimSpace(availability); availability != "" {
		parts = append(parts, "available "+availability)
	}
	text := "I'd be glad to discuss how I can contribute to your team and would welcome the opportunity to speak further."
	if len(parts) > 0 {
		text = strings.Join(parts, ", ") + ". " + text
	}
	return text
}

func words(paras []string) int {
	n := 0
	for _, p := range paras {
		n += countWords(p)
	}
	return n
}

// capParagraphs keeps the closing paragraph and fits the rest into limit
// words, dropping whole sentences from the end where it can.
func capParagraphs(paras []string, limit int) []string {
	closing := paras[len(paras)-1]
	budget := limit - countWords(closing)
	var out []string
	for _, p := range paras[:len(paras)-1] {
		if budget <= 0 {
			break
		}
		n := countWords(p)
		if n <= budget {
			out = append(out, p)
			budget -= n
			continue
		}
		if cut := fitSentences(p, budget); cut != "" {
			out = append(out, cut)
		}
		break
	}
	return append(out, closing)
}

// fitSentences returns the leading sentences of p that fit in n words, or the
// first n words when even one sentence is too long.
func fitSentences(p string, n int) string {
	var kept []string
	used := 0
	for _, s := range strings.SplitAfter(p, ". ") {
		c := countWords(s)
		if used+c > n {
			break
		}
		kept = append(kept, s)
		used += c
	}
	if len(kept) > 0 {
		return strings.TrimSpace(strings.Join(kept, ""))
	}
	return strings.TrimRight(strings.Join(strings.Fields(p)[:n], " "), ",;:") + "."
}

// andList joins items as "a", "a and b" or "a, b and c".
func andList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
