package jobs

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

// Keyword categories.
const (
	CategoryRequired  = "required"
	CategoryPreferred = "preferred"
	CategoryTool      = "tool"
	CategorySoft      = "soft"
	CategoryGeneral   = "general"
)

// UnknownTitle is reported when no job title can be found.
const UnknownTitle = "Unknown Title"

// markerWindow bounds how far a marker may sit from a frequency-only term.
const markerWindow = 4

// Keyword is one ranked candidate keyword from a job description.
type Keyword struct {
	Term      string `json:"term"`
	Category  string `json:"category"`
	Group     string `json:"group,omitempty"`
	Frequency int    `json:"frequency"`
	Rank      int    `json:"rank"`
}

// Analysis is the structured result of analysing a job description.
type Analysis struct {
	JobTitle         string    `json:"job_title"`
	Company          string    `json:"company,omitempty"`
	Location         string    `json:"location,omitempty"`
	ExperienceYears  int       `json:"experience_years,omitempty"`
	RequiredSkills   []string  `json:"required_skills"`
	PreferredSkills  []string  `json:"preferred_skills"`
	Tools            []string  `json:"tools"`
	SoftSkills       []string  `json:"soft_skills"`
	Keywords         []Keyword `json:"keywords"`
	VerbatimPhrases  []string  `json:"verbatim_phrases"`
	Sections         []string  `json:"sections"`
	Responsibilities []string  `json:"responsibilities,omitempty"`
	Requirements     []string  `json:"requirements,omitempty"`
	CompanyValues    []string  `json:"company_values,omitempty"`
	Certifications   []string  `json:"certifications,omitempty"`
	WordCount        int       `json:"word_count"`
	LowConfidence    bool      `json:"low_confidence"`
	Warnings         []string  `json:"warnings,omitempty"`
}

// Terms returns keyword terms in rank order. With no categories given, every
// keyword except general frequency terms is returned.
func (a *Analysis) Terms(categories ...string) []string {
	want := map[string]bool{}
	for _, c := range categories {
		want[c] = true
	}
	var out []string
	for _, k := range a.Keywords {
		if len(want) == 0 && k.Category != CategoryGeneral || want[k.Category] {
			out = append(out, k.Term)
		}
	}
	return out
}

// Category returns the category of term, or "" when it was not extracted.
func (a *Analysis) Category(term string) string {
	for _, k := range a.Keywords {
		if strings.EqualFold(k.Term, term) {
			return k.Category
		}
	}
	return ""
}

type vocabTerm struct {
	phrase
	group string
	kind  string
}

// Extractor analyses job descriptions against a keyword vocabulary.
type Extractor struct {
	vocab     *rules.Vocabulary
	terms     []vocabTerm
	required  []phrase
	preferred []phrase
	reqHead   []phrase
	prefHead  []phrase
	values    []phrase
	certs     []phrase
	stop      map[string]bool
	sections  *sectionIndex
	headings  map[string]bool
}

// NewExtractor prepares the vocabulary for repeated analyses.
func NewExtractor(v *rules.Vocabulary) *Extractor {
	e := &Extractor{
		vocab:    v,
		stop:     make(map[string]bool, len(v.StopWords)),
		sections: newSectionIndex(v, false),
	}
	for _, g := range v.Groups {
		for _, t := range g.Terms {
			p := newPhrase(t)
			p.exact = p.exact || g.Kind != "soft"
			e.terms = append(e.terms, vocabTerm{phrase: p, group: g.Name, kind: g.Kind})
		}
	}
	// Longer terms claim their words first so "Power BI" is not also read as "BI".
	sort.SliceStable(e.terms, func(i, j int) bool {
		return len(e.terms[i].words) > len(e.terms[j].words)
	})
	e.required = phrases(v.RequiredMarkers)
	e.preferred = phrases(v.PreferredMarkers)
	e.reqHead = phrases(v.RequiredHeadings)
	e.prefHead = phrases(v.PreferredHeadings)
	e.values = phrases(v.ValueMarkers)
	e.certs = phrases(v.Certifications)
	for _, w := range v.StopWords {
		e.stop[strings.ToLower(w)] = true
	}
	e.headings = e.sections.known()
	for _, h := range append(append([]string{}, v.RequiredHeadings...), v.PreferredHeadings...) {
		e.headings[normHeading(h)] = true
	}
	return e
}

func phrases(list []string) []phrase {
	out := make([]phrase, 0, len(list))
	for _, s := range list {
		out = append(out, newPhrase(s))
	}
	return out
}

// jdLine is one non-empty line of a job description with its section context.
type jdLine struct {
	text    string
	heading string // section heading the line sits under
	context string // CategoryRequired or CategoryPreferred when the heading implies one
	bullet  bool
	isHead  bool
}

type sentence struct {
	text    string
	words   []word
	context string
}

// candidate accumulates occurrences of one keyword.
type candidate struct {
	term     string
	group    string
	vocab    bool
	soft     bool
	category string
	freq     int
	first    int
	forms    map[string]int
	inSent   []int
}

// Analyze extracts keywords and structure from a job description. It never
// fails: degenerate input yields empty sets with warnings.
func (e *Extractor) Analyze(text string) *Analysis {
	text = engine.NormalizeText(text)
	a := &Analysis{JobTitle: UnknownTitle, WordCount: countWords(text)}
	if a.WordCount == 0 {
		a.LowConfidence = true
		a.Warnings = append(a.Warnings, "empty job description")
		return a.normalize()
	}
	if !looksLatin(text) {
		a.LowConfidence = true
		a.Warnings = append(a.Warnings, "text does not look like English; keyword sets left empty")
		return a.normalize()
	}
	if a.WordCount < e.vocab.Extractor.MinWords {
		a.LowConfidence = true
		a.Warnings = append(a.Warnings, "job description has only "+strconv.Itoa(a.WordCount)+
			" words; results are low confidence")
	}

	lines := e.splitLines(text)
	sents := splitLineSentences(lines)

	if !e.englishEnough(sents) {
		a.LowConfidence = true
		a.Warnings = append(a.Warnings, "text does not look like English; keyword sets left empty")
		return a.normalize()
	}

	cands := e.collect(sents)
	a.Keywords = e.rank(cands)
	a.RequiredSkills = a.Terms(CategoryRequired)
	a.PreferredSkills = a.Terms(CategoryPreferred)
	a.Tools = a.Terms(CategoryTool)
	a.SoftSkills = a.Terms(CategorySoft)
	a.VerbatimPhrases = e.verbatim(sents, cands, a.Keywords)

	for _, l := range lines {
		if l.isHead {
			a.Sections = appendUnique(a.Sections, l.heading)
			continue
		}
		if !l.bullet {
			continue
		}
		switch {
		case l.context != "" || e.sections.key(l.heading) == "skills":
			a.Requirements = append(a.Requirements, l.text)
		case e.sections.key(l.heading) == "experience":
			a.Responsibilities = append(a.Responsibilities, l.text)
		}
	}

	a.JobTitle, a.Company = e.titleAndCompany(lines)
	a.Location = detectLocation(text)
	a.ExperienceYears = detectYears(text)
	a.CompanyValues = e.companyValues(lines)
	a.Certifications = e.certifications(text)
	return a.normalize()
}

// normalize replaces nil slices so JSON output carries empty arrays.
func (a *Analysis) normalize() *Analysis {
	for _, s := range []*[]string{&a.RequiredSkills, &a.PreferredSkills, &a.Tools, &a.SoftSkills, &a.VerbatimPhrases, &a.Sections} {
		if *s == nil {
			*s = []string{}
		}
	}
	if a.Keywords == nil {
		a.Keywords = []Keyword{}
	}
	return a
}

// looksLatin reports whether most letters in text are ASCII.
func looksLatin(text string) bool {
	letters, ascii := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if r < unicode.MaxASCII {
				ascii++
			}
		}
	}
	return letters > 0 && float64(ascii)/float64(letters) >= 0.6
}

// minRatioTokens is the shortest text the stop-word ratio is judged on; keyword
// lists shorter than this carry too few function words to tell.
const minRatioTokens = 10

// englishEnough reports whether English stop words make up at least the
// configured share of tokens. Vocabulary hits do not rescue a posting, so a
// German one that names Python and SQL is still rejected.
func (e *Extractor) englishEnough(sents []sentence) bool {
	tokens, hits := 0, 0
	for _, s := range sents {
		for _, w := range s.words {
			tokens++
			if e.stop[w.norm] {
				hits++
			}
		}
	}
	if tokens < minRatioTokens {
		return true
	}
	return float64(hits)/float64(tokens) >= e.vocab.Extractor.MinStopWordRatio
}

func (e *Extractor) splitLines(text string) []jdLine {
	var out []jdLine
	heading, context := "", ""
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if name, ok := detectHeading(raw, e.headings); ok {
			heading, context = name, e.headingContext(name)
			out = append(out, jdLine{text: name, heading: name, isHead: true})
			continue
		}
		body, bullet := stripBullet(raw)
		out = append(out, jdLine{
			text:    emphasisStrip.Replace(body),
			heading: heading,
			context: context,
			bullet:  bullet,
		})
	}
	return out
}

// headingContext maps a heading to a requirement level. Preferred headings are
// checked first since "Preferred Requirements" names both.
func (e *Extractor) headingContext(heading string) string {
	ws := splitWords(heading)
	for _, p := range e.prefHead {
		if p.in(ws) {
			return CategoryPreferred
		}
	}
	for _, p := range e.reqHead {
		if p.in(ws) {
			return CategoryRequired
		}
	}
	return ""
}

func splitLineSentences(lines []jdLine) []sentence {
	var out []sentence
	for _, l := range lines {
		for _, s := range splitSentences(l.text) {
			out = append(out, sentence{text: s, words: splitWords(s), context: l.context})
		}
	}
	return out
}

// collect finds vocabulary and frequency candidates in document order.
func (e *Extractor) collect(sents []sentence) []*candidate {
	byKey := map[string]*candidate{}
	var order []*candidate
	get := func(key, term string) *candidate {
		c, ok := byKey[key]
		if !ok {
			c = &candidate{term: term, forms: map[string]int{}, first: math.MaxInt}
			byKey[key] = c
			order = append(order, c)
		}
		return c
	}

	pos := 0
	for si, s := range sents {
		claimed := make([]bool, len(s.words))
		req := markerHits(e.required, s.words, claimed)
		pref := markerHits(e.preferred, s.words, claimed)

		for _, t := range e.terms {
			for _, i := range t.find(s.words) {
				if anyClaimed(claimed, i, len(t.words)) {
					continue
				}
				for j := i; j < i+len(t.words); j++ {
					claimed[j] = true
				}
				c := get("v:"+strings.ToLower(t.text), t.text)
				c.vocab, c.group, c.soft = true, t.group, t.kind == "soft"
				c.observe(pos+i, si, classify(i, req, pref, s.context, 0))
			}
		}

		for i, w := range s.words {
			if claimed[i] || e.stop[w.norm] || len([]rune(w.norm)) < 4 || !hasLetter(w.norm) {
				continue
			}
			c := get("f:"+w.stem, w.norm)
			c.forms[w.norm]++
			c.observe(pos+i, si, classify(i, req, pref, s.context, markerWindow))
		}
		pos += len(s.words)
	}

	for _, c := range order {
		if c.vocab {
			continue
		}
		c.term = dominantForm(c.forms)
	}
	return order
}

func (c *candidate) observe(pos, sent int, category string) {
	c.freq++
	if pos < c.first {
		c.first = pos
	}
	if len(c.inSent) == 0 || c.inSent[len(c.inSent)-1] != sent {
		c.inSent = append(c.inSent, sent)
	}
	if levelOf(category) > levelOf(c.category) {
		c.category = category
	}
}

func levelOf(category string) int {
	switch category {
	case CategoryRequired:
		return 2
	case CategoryPreferred:
		return 1
	}
	return 0
}

// markerHits returns the start positions of every marker occurrence and claims
// the marker words so they are not counted as keywords.
func markerHits(markers []phrase, ws []word, claimed []bool) []int {
	var hits []int
	for _, m := range markers {
		for _, i := range m.find(ws) {
			hits = append(hits, i)
			for j := i; j < i+len(m.words) && j < len(claimed); j++ {
				claimed[j] = true
			}
		}
	}
	return hits
}

func anyClaimed(claimed []bool, from, n int) bool {
	for j := from; j < from+n; j++ {
		if claimed[j] {
			return true
		}
	}
	return false
}

// classify picks the requirement level for a term at pos. The nearest marker in
// the sentence wins, ties going to required; window > 0 limits the distance.
// Without a marker the heading context applies.
func classify(pos int, req, pref []int, context string, window int) string {
	dr, dp := nearest(pos, req, window), nearest(pos, pref, window)
	switch {
	case dr < math.MaxInt && dr <= dp:
		return CategoryRequired
	case dp < math.MaxInt:
		return CategoryPreferred
	}
	return context
}

func nearest(pos int, hits []int, window int) int {
	best := math.MaxInt
	for _, h := range hits {
		d := pos - h
		if d < 0 {
			d = -d
		}
		if window > 0 && d > window {
			continue
		}
		if d < best {
			best = d
		}
	}
	return best
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func dominantForm(forms map[string]int) string {
	keys := make([]string, 0, len(forms))
	for k := range forms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := ""
	for _, k := range keys {
		if best == "" || forms[k] > forms[best] {
			best = k
		}
	}
	return best
}

func (c *candidate) finalCategory() string {
	switch {
	case c.soft:
		return CategorySoft
	case c.category != "":
		return c.category
	case c.vocab:
		return CategoryTool
	}
	return CategoryGeneral
}

var categoryOrder = map[string]int{
	CategoryRequired: 0, CategoryPreferred: 1, CategoryTool: 2, CategorySoft: 3, CategoryGeneral: 4,
}

// rank orders candidates by category, frequency and first appearance and drops
// frequency-only terms below the configured minimum.
func (e *Extractor) rank(cands []*candidate) []Keyword {
	var kws []Keyword
	first := map[string]int{}
	for _, c := range cands {
		cat := c.finalCategory()
		if !c.vocab && c.freq < e.vocab.Extractor.MinFrequency {
			continue
		}
		kws = append(kws, Keyword{Term: c.term, Category: cat, Group: c.group, Frequency: c.freq})
		first[c.term] = c.first
	}
	sort.SliceStable(kws, func(i, j int) bool {
		a, b := kws[i], kws[j]
		if categoryOrder[a.Category] != categoryOrder[b.Category] {
			return categoryOrder[a.Category] < categoryOrder[b.Category]
		}
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if first[a.Term] != first[b.Term] {
			return first[a.Term] < first[b.Term]
		}
		return a.Term < b.Term
	})
	if limit := e.vocab.Extractor.MaxKeywords; limit > 0 && len(kws) > limit {
		kws = kws[:limit]
	}
	for i := range kws {
		kws[i].Rank = i + 1
	}
	return kws
}

// verbatim returns sentences of the configured length that carry at least one
// classified keyword, in document order.
func (e *Extractor) verbatim(sents []sentence, cands []*candidate, kept []Keyword) []string {
	keep := map[string]bool{}
	for _, k := range kept {
		if k.Category != CategoryGeneral {
			keep[k.Term] = true
		}
	}
	carries := map[int]bool{}
	for _, c := range cands {
		if keep[c.term] {
			for _, si := range c.inSent {
				carries[si] = true
			}
		}
	}
	cfg := e.vocab.Extractor
	var out []string
	seen := map[string]bool{}
	for si, s := range sents {
		if !carries[si] {
			continue
		}
		n := countWords(s.text)
		if n < cfg.PhraseMinWords || n > cfg.PhraseMaxWords {
			continue
		}
		key := strings.ToLower(s.text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s.text)
		if len(out) == cfg.MaxVerbatimPhrases {
			break
		}
	}
	return out
}

var (
	titleLabelRe   = regexp.MustCompile(`(?i)^(?:job\s+title|position|role|title)\s*[:–-]\s*(.+)$`)
	companyLabelRe = regexp.MustCompile(`(?i)^(?:company|employer|organi[sz]ation)\s*[:–-]\s*(.+)$`)
	hiringRe       = regexp.MustCompile(`(?i:hiring|seeking|looking for)\s+(?:(?i:an?|our next|our first|a new)\s+)?([A-Z][\w+#./-]*(?:\s+(?:[A-Z(][\w+#./)-]*|of|and|&))*)`)
	titleSplitRe   = regexp.MustCompile(`^(.{3,80}?)\s+(?:[-–—|@]|at)\s+(.{2,60})$`)
	aboutRe        = regexp.MustCompile(`^About\s+([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*){0,3})$`)
	isHiringRe     = regexp.MustCompile(`([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*){0,3})\s+(?:is|are)\s+(?:hiring|looking|seeking|growing)`)
	joinRe         = regexp.MustCompile(`\b[Jj]oin\s+([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*){0,3})`)
	locationRe     = regexp.MustCompile(`(?i)^location\s*[:–-]\s*(.+)$`)
	workModeRe     = regexp.MustCompile(`(?i)\b(remote|hybrid|on-?site)\b`)
	yearsRe        = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*(?:(?:-|–|to)\s*\d{1,2}\s*)?(?:years?|yrs?)\b`)
)

// workModes are right-hand sides of "Title - X" lines that are not company names.
var workModes = map[string]bool{"remote": true, "hybrid": true, "onsite": true, "on-site": true, "full-time": true, "part-time": true, "contract": true}

const maxTitleWords = 6

func (e *Extractor) titleAndCompany(lines []jdLine) (title, company string) {
	for _, l := range lines {
		if m := titleLabelRe.FindStringSubmatch(l.text); m != nil && title == "" {
			title = shortTitle(m[1])
		}
		if m := companyLabelRe.FindStringSubmatch(l.text); m != nil && company == "" {
			company = strings.TrimSpace(m[1])
		}
	}

	head := lines
	if len(head) > 5 {
		head = head[:5]
	}
	if title == "" {
		for _, l := range lines {
			if m := hiringRe.FindStringSubmatch(l.text); m != nil {
				if t := shortTitle(m[1]); t != "" {
					title = t
					break
				}
			}
		}
	}
	for _, l := range head {
		m := titleSplitRe.FindStringSubmatch(l.text)
		if m == nil || !isTitleCase(m[1]) || e.sections.key(m[1]) != "" {
			continue
		}
		if title == "" {
			title = shortTitle(m[1])
		}
		if right := strings.TrimSpace(m[2]); company == "" && !workModes[strings.ToLower(right)] && countWords(right) <= 4 {
			company = right
		}
		break
	}
	if title == "" {
		for _, l := range head {
			name := cleanHeading(l.text)
			if strings.HasPrefix(name, "About ") || e.headings[normHeading(name)] || e.sections.key(name) != "" {
				continue
			}
			if countWords(name) <= maxTitleWords && isTitleCase(name) && !strings.HasSuffix(l.text, ".") {
				title = name
				break
			}
		}
	}
	if company == "" {
		company = findCompany(lines)
	}
	if title == "" {
		title = UnknownTitle
	}
	return title, company
}

// shortTitle trims a title candidate and rejects it above the word cap.
func shortTitle(s string) string {
	s = strings.TrimSpace(strings.TrimRight(emphasisStrip.Replace(s), ".,;:!"))
	for _, w := range []string{" and", " of", " &"} {
		s = strings.TrimSuffix(s, w)
	}
	if s == "" || countWords(s) > maxTitleWords {
		return ""
	}
	return s
}

func findCompany(lines []jdLine) string {
	for _, l := range lines {
		if m := aboutRe.FindStringSubmatch(l.text); m != nil && !strings.EqualFold(m[1], "You") && !strings.EqualFold(m[1], "Us") && !strings.HasPrefix(m[1], "The ") {
			return m[1]
		}
	}
	for _, re := range []*regexp.Regexp{isHiringRe, joinRe} {
		for _, l := range lines {
			if m := re.FindStringSubmatch(l.text); m != nil && !strings.EqualFold(m[1], "We") && !strings.EqualFold(m[1], "Our") {
				return m[1]
			}
		}
	}
	return ""
}

func detectLocation(text string) string {
	for _, l := range strings.Split(text, "\n") {
		if m := locationRe.FindStringSubmatch(strings.TrimSpace(emphasisStrip.Replace(l))); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if m := workModeRe.FindStringSubmatch(text); m != nil {
		mode := strings.ToLower(m[1])
		if strings.HasPrefix(mode, "on") {
			return "On-site"
		}
		return strings.ToUpper(mode[:1]) + mode[1:]
	}
	return ""
}

func detectYears(text string) int {
	m := yearsRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

const maxValues = 8

// companyValues reads bullets under a values heading, else the list that
// follows a value marker inside a sentence.
func (e *Extractor) companyValues(lines []jdLine) []string {
	var out []string
	underValues := func(heading string) bool {
		ws := splitWords(heading)
		for _, m := range e.values {
			if m.in(ws) {
				return true
			}
		}
		return false
	}
	for _, l := range lines {
		if l.isHead || !l.bullet || !underValues(l.heading) {
			continue
		}
		v := l.text
		if i := strings.IndexAny(v, ":–—"); i > 0 {
			v = v[:i]
		}
		if v = strings.TrimSpace(strings.TrimRight(v, ".")); v != "" && countWords(v) <= 6 {
			out = appendUnique(out, v)
		}
	}
	if len(out) > 0 {
		return capList(out, maxValues)
	}

	for _, l := range lines {
		lower := strings.ToLower(l.text)
		if len(lower) != len(l.text) {
			continue
		}
		for _, m := range e.values {
			i := strings.Index(lower, strings.ToLower(m.text))
			if i < 0 {
				continue
			}
			rest := strings.TrimLeft(l.text[i+len(m.text):], " :,-")
			rest = strings.TrimPrefix(strings.TrimPrefix(rest, "are "), "is ")
			if j := strings.IndexAny(rest, ".;!"); j >= 0 {
				rest = rest[:j]
			}
			for _, part := range strings.FieldsFunc(strings.ReplaceAll(rest, " and ", ","), func(r rune) bool { return r == ',' }) {
				if part = strings.TrimSpace(part); part != "" && countWords(part) <= 5 {
					out = appendUnique(out, part)
				}
			}
		}
	}
	return capList(out, maxValues)
}

func (e *Extractor) certifications(text string) []string {
	ws := splitWords(text)
	var out []string
	for _, c := range e.certs {
		if c.in(ws) {
			out = append(out, c.text)
		}
	}
	return out
}

// appendUnique appends s unless an equal string (ignoring case) is present.
func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return list
		}
	}
	return append(list, s)
}

func capList(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
