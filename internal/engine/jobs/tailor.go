package jobs

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

// Tailor actions recorded in the operations log.
const (
	OpTitle    = "title"
	OpRephrase = "rephrase"
	OpSkills   = "skills"
	OpPhrase   = "phrase"
	OpReorder  = "reorder"
	OpSection  = "section"
	OpSkip     = "skip"
)

// TailorOptions adjusts one tailoring run.
type TailorOptions struct {
	// ConfirmedSkills are keywords the candidate confirms having even though
	// the résumé does not show them yet.
	ConfirmedSkills []string `json:"confirmed_skills,omitempty"`
	TargetCoverage  float64  `json:"target_coverage,omitempty" validate:"omitempty,gte=0,lte=100"`
	// AdditionalInfo lines (location, right to work, availability) go to an
	// "Additional Information" section.
	AdditionalInfo []string `json:"additional_info,omitempty"`
}

// Operation is one change made while tailoring.
type Operation struct {
	Action  string `json:"action"`
	Section string `json:"section,omitempty"`
	Detail  string `json:"detail"`
}

// SkippedKeyword is a missing keyword that was not inserted.
type SkippedKeyword struct {
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
}

// TailorResult is a tailored résumé with a log of what changed.
type TailorResult struct {
	Resume          *Resume          `json:"-"`
	Text            string           `json:"text"`
	TitleBefore     string           `json:"title_before,omitempty"`
	TitleAfter      string           `json:"title_after,omitempty"`
	TitleSimilarity float64          `json:"title_similarity"`
	CoverageBefore  float64          `json:"coverage_before"`
	CoverageAfter   float64          `json:"coverage_after"`
	TargetCoverage  float64          `json:"target_coverage"`
	TargetReached   bool             `json:"target_reached"`
	Injected        []string         `json:"injected"`
	Phrases         []string         `json:"phrases_added,omitempty"`
	Skipped         []SkippedKeyword `json:"skipped,omitempty"`
	Operations      []Operation      `json:"operations"`
}

func (res *TailorResult) log(action, section, detail string) {
	res.Operations = append(res.Operations, Operation{Action: action, Section: section, Detail: detail})
}

// Tailorer rewrites résumés toward a job description using only the job's
// own keywords and phrases.
type Tailorer struct {
	cfg        rules.TailorSettings
	aliases    map[string][]phrase
	kinds      map[string]string
	jdSections *sectionIndex
}

// NewTailorer prepares alias and section tables from v.
func NewTailorer(v *rules.Vocabulary) *Tailorer {
	t := &Tailorer{
		cfg:        v.Tailor,
		aliases:    map[string][]phrase{},
		kinds:      map[string]string{},
		jdSections: newSectionIndex(v, false),
	}
	for term, list := range v.Aliases {
		t.aliases[strings.ToLower(term)] = phrases(list)
	}
	for _, g := range v.Groups {
		for _, term := range g.Terms {
			t.kinds[strings.ToLower(term)] = g.Kind
		}
	}
	return t
}

// tailorRun holds the state of one Tailor call.
type tailorRun struct {
	work      *Resume
	res       *TailorResult
	confirmed map[string]bool
	skills    *Section
	skillLine int
	added     int
}

// Tailor returns a tailored copy of r. The input résumé is not modified.
func (t *Tailorer) Tailor(r *Resume, a *Analysis, opts TailorOptions) *TailorResult {
	keywords := a.Terms()
	target := opts.TargetCoverage
	if target <= 0 {
		target = t.cfg.TargetCoverage
	}
	before := MatchKeywords(keywords, r.Render())
	run := &tailorRun{
		work:      r.Clone(),
		res:       &TailorResult{TitleBefore: r.Title(), CoverageBefore: before.Coverage, TargetCoverage: target, Injected: []string{}},
		confirmed: map[string]bool{},
		skillLine: -1,
	}
	for _, s := range opts.ConfirmedSkills {
		run.confirmed[strings.ToLower(strings.TrimSpace(s))] = true
	}
	res := run.res

	t.retitle(run, a)

	cov := before.Coverage
	for _, k := range before.Missing {
		if cov >= target {
			break
		}
		if reason := t.inject(run, k); reason != "" {
			res.Skipped = append(res.Skipped, SkippedKeyword{Keyword: k, Reason: reason})
			continue
		}
		res.Injected = append(res.Injected, k)
		cov = MatchKeywords(keywords, run.work.Render()).Coverage
	}
	if cov < target {
		t.addPhrases(run, r, a, keywords)
	}

	t.mirror(run, a)
	addAdditionalInfo(run, opts.AdditionalInfo)

	res.Resume = run.work
	res.Text = run.work.Render()
	res.TitleAfter = run.work.Title()
	res.CoverageAfter = MatchKeywords(keywords, res.Text).Coverage
	res.TargetReached = res.CoverageAfter >= target
	return res
}

// retitle replaces the résumé title with the job title when they are similar enough.
func (t *Tailorer) retitle(run *tailorRun, a *Analysis) {
	res := run.res
	jd, cur := a.JobTitle, run.work.Title()
	switch {
	case jd == "" || jd == UnknownTitle:
		res.log(OpSkip, "header", "job title unknown; title kept")
		return
	case cur == "":
		res.log(OpSkip, "header", "no title line found in résumé")
		return
	}
	res.TitleSimilarity = engine.Round1(TitleSimilarity(cur, jd)*100) / 100
	if strings.EqualFold(cur, jd) {
		return
	}
	if TitleSimilarity(cur, jd) < t.cfg.TitleSimilarity {
		res.log(OpSkip, "header", "title \""+cur+"\" kept; too different from \""+jd+"\"")
		return
	}
	run.work.SetTitle(jd)
	res.log(OpTitle, "header", "\""+cur+"\" → \""+jd+"\"")
}

// TitleSimilarity is the Jaccard overlap of the stemmed words of two titles.
func TitleSimilarity(a, b string) float64 {
	sa, sb := stemSet(a), stemSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for s := range sa {
		if sb[s] {
			inter++
		}
	}
	return float64(inter) / float64(len(sa)+len(sb)-inter)
}

func stemSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range splitWords(s) {
		if !matchStopWords[w.norm] {
			out[w.stem] = true
		}
	}
	return out
}

// inject places one missing keyword where the résumé already supports it.
// It returns a non-empty reason when the keyword was not placed.
func (t *Tailorer) inject(run *tailorRun, keyword string) string {
	lower := strings.ToLower(keyword)
	if t.kinds[lower] != "soft" {
		if t.rephraseAlias(run, keyword) {
			return ""
		}
	}
	evidence := ""
	switch {
	case t.hasAlias(run.work, lower):
		evidence = "alias found in résumé"
	case wordsOnOneLine(run.work, keyword):
		evidence = "all words found on one line"
	case run.confirmed[lower]:
		evidence = "confirmed by candidate"
	default:
		return "no evidence in résumé"
	}
	if run.added >= t.cfg.MaxSkillsLine {
		return "skills line full"
	}
	run.addSkill(keyword, evidence)
	return ""
}

// sectionsByPreference lists sections with experience-like content first.
func sectionsByPreference(r *Resume) []*Section {
	out := append([]*Section(nil), r.Sections...)
	pref := map[string]int{"experience": 0, "projects": 1, "summary": 2}
	sort.SliceStable(out, func(i, j int) bool {
		pi, ok := pref[out[i].Key]
		if !ok {
			pi = 3
		}
		pj, ok := pref[out[j].Key]
		if !ok {
			pj = 3
		}
		return pi < pj
	})
	return out
}

// rephraseAlias rewrites the first line that uses a known alias of keyword
// as "Keyword (alias)".
func (t *Tailorer) rephraseAlias(run *tailorRun, keyword string) bool {
	for _, alias := range t.aliases[strings.ToLower(keyword)] {
		for _, s := range sectionsByPreference(run.work) {
			for i, l := range s.Lines {
				if !alias.in(splitWords(l.Text)) {
					continue
				}
				text, ok := insertKeyword(l.Text, alias.text, keyword)
				if !ok {
					continue
				}
				s.Lines[i].Text = text
				run.res.log(OpRephrase, s.Heading, "\""+alias.text+"\" → \""+keyword+" ("+alias.text+")\"")
				return true
			}
		}
	}
	return false
}

// insertKeyword writes keyword before the first whole-word occurrence of alias
// and puts the alias as written in parentheses.
func insertKeyword(text, alias, keyword string) (string, bool) {
	re, err := regexp.Compile(`(?i)(?:^|[^\pL\pN+#.])(` + regexp.QuoteMeta(alias) + `)(?:$|[^\pL\pN+#])`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatchIndex(text)
	if m == nil {
		return "", false
	}
	start, end := m[2], m[3]
	return text[:start] + keyword + " (" + text[start:end] + ")" + text[end:], true
}

func (t *Tailorer) hasAlias(r *Resume, lower string) bool {
	text := splitWords(r.Render())
	for _, alias := range t.aliases[lower] {
		if alias.in(text) {
			return true
		}
	}
	return false
}

// wordsOnOneLine reports whether every word of a multi-word keyword appears on
// a single résumé line, in any order.
func wordsOnOneLine(r *Resume, keyword string) bool {
	kw := newPhrase(keyword)
	if len(kw.words) < 2 {
		return false
	}
	for _, s := range r.Sections {
		for _, l := range s.Lines {
			ws := splitWords(l.Text)
			all := true
			for _, k := range kw.words {
				found := false
				for _, w := range ws {
					if kw.wordAt(k, w) {
						found = true
						break
					}
				}
				if !found {
					all = false
					break
				}
			}
			if all {
				return true
			}
		}
	}
	return false
}

// addSkill appends keyword to the skills section, creating the section or its
// line when needed.
func (run *tailorRun) addSkill(keyword, evidence string) {
	if run.skills == nil {
		run.skills = run.work.Section("skills")
		if run.skills == nil {
			run.skills = &Section{Heading: "Skills", Raw: headingLike(run.work, "Skills"), Key: "skills"}
			run.work.Sections = append(run.work.Sections, run.skills)
			run.res.log(OpSection, "Skills", "created skills section")
		}
		for i, l := range run.skills.Lines {
			if strings.Contains(l.Text, ",") {
				run.skillLine = i
				break
			}
		}
	}
	if run.skillLine < 0 {
		run.skills.Lines = append(run.skills.Lines, Line{Text: keyword})
		run.skillLine = len(run.skills.Lines) - 1
	} else {
		l := &run.skills.Lines[run.skillLine]
		l.Text = strings.TrimRight(l.Text, " ,.;") + ", " + keyword
	}
	run.added++
	run.res.log(OpSkills, run.skills.Heading, "added "+keyword+" ("+evidence+")")
}

// headingLike formats a new heading in the style of the résumé's existing ones.
func headingLike(r *Resume, name string) string {
	for _, s := range r.Sections {
		raw := strings.TrimSpace(s.Raw)
		switch {
		case strings.HasPrefix(raw, "#"):
			n := len(raw) - len(strings.TrimLeft(raw, "#"))
			return raw[:n] + " " + name
		case strings.HasPrefix(raw, "**"):
			return "**" + name + "**"
		case isAllCaps(raw):
			return strings.ToUpper(name)
		}
	}
	return name
}

// addPhrases merges verbatim job phrases into the experience bullet of the
// original résumé that already names every classified keyword of the phrase.
// Keywords the candidate only confirmed or the tailor inserted do not count as
// backing. Phrases addressed to the reader or quoting figures the bullet lacks
// are never used.
func (t *Tailorer) addPhrases(run *tailorRun, orig *Resume, a *Analysis, keywords []string) {
	exp, src := run.work.Section("experience"), orig.Section("experience")
	if exp == nil || src == nil || len(exp.Lines) != len(src.Lines) {
		run.res.log(OpSkip, "", "no experience section for job phrases")
		return
	}
	unbacked := make(map[string]bool, len(run.confirmed)+len(run.res.Injected))
	for k := range run.confirmed {
		unbacked[k] = true
	}
	for _, k := range run.res.Injected {
		unbacked[strings.ToLower(k)] = true
	}
	used := map[int]bool{}
	for _, p := range a.VerbatimPhrases {
		if len(run.res.Phrases) >= t.cfg.MaxPhrases {
			return
		}
		if strings.Contains(strings.ToLower(run.work.Render()), strings.ToLower(p)) || addressesReader(p) {
			continue
		}
		inPhrase := MatchKeywords(keywords, p).Matched
		if len(inPhrase) == 0 || anyLower(inPhrase, unbacked) {
			continue
		}
		i := backingBullet(src, inPhrase, p, used)
		if i < 0 {
			continue
		}
		used[i] = true
		l := &exp.Lines[i]
		l.Text = strings.TrimRight(l.Text, " .,;") + "; " + lowerFirst(p)
		run.res.Phrases = append(run.res.Phrases, p)
		run.res.log(OpPhrase, exp.Heading, p)
	}
}

// backingBullet returns the index of the first unused bullet in sec that names
// every keyword and every figure of p, or -1.
func backingBullet(sec *Section, keywords []string, p string, used map[int]bool) int {
	figs := figures(p)
	for i, l := range sec.Lines {
		if !l.Bullet || used[i] || len(MatchKeywords(keywords, l.Text).Missing) > 0 {
			continue
		}
		have := figures(l.Text)
		ok := true
		for f := range figs {
			if !have[f] {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

// readerWords mark a sentence as written to the applicant or about the
// employer rather than about work the candidate did.
var readerWords = map[string]bool{"you": true, "your": true, "we": true, "our": true, "us": true}

func addressesReader(p string) bool {
	for _, w := range splitWords(p) {
		if readerWords[w.norm] {
			return true
		}
	}
	return false
}

// figures collects tokens that carry digits, such as "200" or "3+".
func figures(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range splitWords(s) {
		if strings.IndexFunc(w.norm, unicode.IsDigit) >= 0 {
			out[w.norm] = true
		}
	}
	return out
}

func anyLower(terms []string, set map[string]bool) bool {
	for _, t := range terms {
		if set[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// mirror reorders mapped résumé sections into the job description's section
// order, within the slots those sections already occupy.
func (t *Tailorer) mirror(run *tailorRun, a *Analysis) {
	order := map[string]int{}
	for _, h := range a.Sections {
		if k := t.jdSections.key(h); k != "" {
			if _, ok := order[k]; !ok {
				order[k] = len(order)
			}
		}
	}
	if len(order) < 2 {
		return
	}

	secs := run.work.Sections
	var slots []int
	var mapped []*Section
	for i, s := range secs {
		if _, ok := order[s.Key]; ok && s.Key != "" {
			slots = append(slots, i)
			mapped = append(mapped, s)
		}
	}
	sorted := append([]*Section(nil), mapped...)
	sort.SliceStable(sorted, func(i, j int) bool { return order[sorted[i].Key] < order[sorted[j].Key] })

	changed := false
	names := make([]string, 0, len(sorted))
	for i, s := range sorted {
		if secs[slots[i]] != s {
			changed = true
		}
		secs[slots[i]] = s
		names = append(names, s.Heading)
	}
	if changed {
		run.res.log(OpReorder, "", "sections ordered as the job description: "+strings.Join(names, ", "))
	}
}

func addAdditionalInfo(run *tailorRun, info []string) {
	var lines []Line
	for _, l := range info {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, Line{Text: l})
		}
	}
	if len(lines) == 0 {
		return
	}
	run.work.Sections = append(run.work.Sections, &Section{
		Heading: "Additional Information",
		Raw:     headingLike(run.work, "Additional Information"),
		Lines:   lines,
	})
	run.res.log(OpSection, "Additional Information", "added from candidate details")
}
