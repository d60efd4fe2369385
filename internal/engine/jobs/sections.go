package jobs

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

var (
	mdHeadingRe    = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*$`)
	boldHeadingRe  = regexp.MustCompile(`^(?:\*\*|__)([^*_]+?)(?:\*\*|__)\s*:?$`)
	colonHeadingRe = regexp.MustCompile(`^([^\s:][^:]{0,60}):$`)
	emphasisStrip  = strings.NewReplacer("**", "", "__", "", "`", "")
)

// smallWords may stay lower-case inside a Title Case heading.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "to": true,
	"for": true, "in": true, "on": true, "with": true, "at": true, "&": true,
	"or": true, "we": true, "you": true, "by": true,
}

// cleanHeading strips markup and trailing colons from a heading line.
func cleanHeading(s string) string {
	s = emphasisStrip.Replace(strings.TrimSpace(s))
	s = strings.TrimLeft(s, "# ")
	return strings.TrimSpace(strings.TrimRight(s, ": "))
}

// normHeading lower-cases a heading and collapses punctuation for alias lookups.
func normHeading(s string) string {
	s = strings.ToLower(cleanHeading(s))
	s = strings.ReplaceAll(s, "’", "'")
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '&'
	}), " ")
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 4
}

func isTitleCase(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	for i, f := range fields {
		r := []rune(f)
		if !unicode.IsLetter(r[0]) && r[0] != '(' {
			if unicode.IsDigit(r[0]) {
				continue
			}
			return false
		}
		if r[0] == '(' && len(r) > 1 {
			r = r[1:]
		}
		if unicode.IsUpper(r[0]) {
			continue
		}
		if i > 0 && smallWords[strings.ToLower(f)] {
			continue
		}
		return false
	}
	return true
}

// detectHeading reports whether line is a section heading and returns its
// clean name. known lists lower-case heading names accepted in any casing.
func detectHeading(line string, known map[string]bool) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if m := mdHeadingRe.FindStringSubmatch(line); m != nil {
		return cleanHeading(m[1]), true
	}
	if m := boldHeadingRe.FindStringSubmatch(line); m != nil && countWords(m[1]) <= 8 {
		return cleanHeading(m[1]), true
	}
	if _, bullet := stripBullet(line); bullet {
		return "", false
	}
	name := cleanHeading(line)
	if name == "" || countWords(name) > 6 {
		return "", false
	}
	if known[normHeading(name)] {
		return name, true
	}
	if m := colonHeadingRe.FindStringSubmatch(line); m != nil && isTitleCase(m[1]) {
		return name, true
	}
	if isAllCaps(line) && !strings.ContainsAny(line, ".,;") {
		return name, true
	}
	return "", false
}

// sectionIndex maps heading names to section keys using the vocabulary aliases.
type sectionIndex struct {
	exact   map[string]string
	aliases []sectionAlias
}

type sectionAlias struct {
	key   string
	alias phrase
}

func newSectionIndex(v *rules.Vocabulary, resume bool) *sectionIndex {
	idx := &sectionIndex{exact: map[string]string{}}
	for _, s := range v.Sections {
		names := s.JD
		if resume {
			names = s.Resume
		}
		for _, n := range names {
			n = normHeading(n)
			if _, dup := idx.exact[n]; !dup {
				idx.exact[n] = s.Key
			}
			idx.aliases = append(idx.aliases, sectionAlias{key: s.Key, alias: newPhrase(n)})
		}
	}
	return idx
}

// key returns the section key for a heading, or "" when none applies.
// Exact alias matches win over aliases contained in a longer heading.
func (idx *sectionIndex) key(heading string) string {
	n := normHeading(heading)
	if k, ok := idx.exact[n]; ok {
		return k
	}
	ws := splitWords(n)
	best, bestLen := "", 0
	for _, a := range idx.aliases {
		if l := len(a.alias.words); l > bestLen && a.alias.in(ws) {
			best, bestLen = a.key, l
		}
	}
	return best
}

// known returns every alias as a lower-case set for heading detection.
func (idx *sectionIndex) known() map[string]bool {
	out := make(map[string]bool, len(idx.exact))
	for n := range idx.exact {
		out[n] = true
	}
	return out
}
