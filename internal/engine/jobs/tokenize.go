package jobs

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
)

// word is one token of source text.
type word struct {
	raw  string // as written, trailing dots trimmed
	norm string // lower-case
	stem string // Snowball stem of norm; norm itself for tokens with symbols or digits
}

// isWordRune keeps tech spellings such as "c++", "c#" and "node.js" in one token.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.'
}

// splitWords tokenizes text. Everything except letters, digits and + # . separates words.
func splitWords(text string) []word {
	var out []word
	var b strings.Builder
	flush := func() {
		w := strings.TrimRight(b.String(), ".")
		b.Reset()
		if strings.HasPrefix(w, "..") {
			w = strings.TrimLeft(w, ".")
		}
		if w == "" || w == "+" || w == "#" {
			return
		}
		norm := strings.ToLower(w)
		out = append(out, word{raw: w, norm: norm, stem: stemOf(norm)})
	}
	for _, r := range text {
		if isWordRune(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

func stemOf(norm string) string {
	for _, r := range norm {
		if !unicode.IsLetter(r) {
			return norm
		}
	}
	return english.Stem(norm, false)
}

// sameWord compares a pattern token against a text token. Stems must agree and
// the surface forms may differ by at most three characters, so "managing"
// matches "management" while "excellent" does not match "excel".
func sameWord(p, w word) bool {
	if p.norm == w.norm {
		return true
	}
	if p.stem != w.stem {
		return false
	}
	d := len(p.norm) - len(w.norm)
	return d >= -3 && d <= 3
}

// exactTerm reports whether a term names a technology rather than a general
// skill: short terms and terms written with capitals, digits or symbols
// ("Go", "React", "k8s", "C++"). Such terms never match by stem.
func exactTerm(text string) bool {
	if utf8.RuneCountInString(text) <= 4 {
		return true
	}
	for _, r := range text {
		if unicode.IsUpper(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			return true
		}
	}
	return false
}

// phrase is a tokenized term, marker or keyword.
type phrase struct {
	text          string
	words         []word
	caseSensitive bool // short terms such as "Go" or "R"
	exact         bool // token equality only, no stemming
}

func newPhrase(text string) phrase {
	text = strings.TrimSpace(text)
	return phrase{
		text:          text,
		words:         splitWords(text),
		caseSensitive: utf8.RuneCountInString(text) <= 2,
		exact:         exactTerm(text),
	}
}

// wordAt compares one pattern token of p with a text token.
func (p phrase) wordAt(pw, w word) bool {
	switch {
	case p.caseSensitive:
		return pw.raw == w.raw
	case p.exact:
		return pw.norm == w.norm
	default:
		return sameWord(pw, w)
	}
}

// at reports whether p occurs in ws starting at i.
func (p phrase) at(ws []word, i int) bool {
	if len(p.words) == 0 || i+len(p.words) > len(ws) {
		return false
	}
	for j, pw := range p.words {
		if !p.wordAt(pw, ws[i+j]) {
			return false
		}
	}
	return true
}

// find returns every start index of p in ws.
func (p phrase) find(ws []word) []int {
	var hits []int
	for i := range ws {
		if p.at(ws, i) {
			hits = append(hits, i)
		}
	}
	return hits
}

// in reports whether p occurs anywhere in ws.
func (p phrase) in(ws []word) bool {
	for i := range ws {
		if p.at(ws, i) {
			return true
		}
	}
	return false
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+`)

// splitSentences breaks a line into sentences on terminal punctuation followed by space.
func splitSentences(line string) []string {
	parts := sentenceSplitRe.Split(line, -1)
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(p), ".!?"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var bulletRe = regexp.MustCompile(`^\s*(?:[-*•◦‣▪▫■□◆◇►→➢✓✔★·–]|\d{1,2}[.)])\s+`)

// stripBullet removes a leading list marker and reports whether there was one.
func stripBullet(line string) (string, bool) {
	loc := bulletRe.FindStringIndex(line)
	if loc == nil {
		return strings.TrimSpace(line), false
	}
	return strings.TrimSpace(line[loc[1]:]), true
}

// countWords counts whitespace-separated words.
func countWords(s string) int {
	return len(strings.Fields(s))
}

// containsFold reports whether s contains sub at word boundaries, ignoring case.
func containsFold(s, sub string) bool {
	return newPhrase(sub).in(splitWords(s))
}
