package ats

import (
	"regexp"
	"strings"
)

// Platform is a hiring ATS with its scoring focus and tips.
type Platform struct {
	Name     string   `json:"name"`
	Detected bool     `json:"detected"`
	Board    string   `json:"board,omitempty"`
	Focus    string   `json:"focus"`
	Tips     []string `json:"tips"`
}

type platformSig struct {
	name    string
	hosts   []string
	markers []string
	boardRe *regexp.Regexp
	focus   string
	tips    []string
}

// platforms are checked in order; URL hosts win over page markers.
var platforms = []platformSig{
	{
		name:    "greenhouse",
		hosts:   []string{"greenhouse.io"},
		markers: []string{"data-greenhouse", "greenhouse"},
		boardRe: regexp.MustCompile(`(?:boards|job-boards)(?:\.eu)?\.greenhouse\.io/(?:embed/job_board\?for=)?([^/?#&]+)`),
		focus:   "Keyword matching + scorecard alignment",
		tips:    []string{"Role title matches highly weighted", "Answer knockout questions carefully", "Keywords are heavily weighted"},
	},
	{
		name:    "workable",
		hosts:   []string{"workable.com"},
		markers: []string{"workable-app", "workable"},
		boardRe: regexp.MustCompile(`apply\.workable\.com/([^/?#]+)`),
		focus:   "Skills matching + disqualification questions",
		tips:    []string{"Watch for disqualification questions", "Parses .docx very well", "Skills matching is primary scoring"},
	},
	{
		name:    "lever",
		hosts:   []string{"lever.co"},
		markers: []string{"lever-form", "lever"},
		boardRe: regexp.MustCompile(`jobs\.lever\.co/([^/?#]+)`),
		focus:   "Experience duration + cover letters",
		tips:    []string{"State years of experience clearly", "Cover letters surfaced to recruiters", "Write detailed cover letter"},
	},
	{
		name:    "ashby",
		hosts:   []string{"ashbyhq.com"},
		markers: []string{"ashby-job", "ashby"},
		boardRe: regexp.MustCompile(`jobs\.ashbyhq\.com/([^/?#]+)`),
		focus:   "Modern, similar to Greenhouse",
		tips:    []string{"Treat similar to Greenhouse", "Strong keyword matching"},
	},
	{
		name:    "taleo",
		hosts:   []string{"taleo.net", "taleo.com"},
		markers: []string{"taleo"},
		focus:   "Strict keyword matching",
		tips:    []string{"Older system, very keyword-focused", "Use exact terminology", "Be thorough with all fields"},
	},
	{
		name:    "workday",
		hosts:   []string{"myworkdayjobs.com", "myworkday.com", "workday.com"},
		markers: []string{"workday"},
		boardRe: regexp.MustCompile(`([a-z0-9-]+)\.wd\d+\.myworkdayjobs\.com`),
		focus:   "Enterprise, keyword-focused",
		tips:    []string{"Very keyword-driven", "Complete all optional fields", "Use exact matches"},
	},
}

var genericPlatform = Platform{
	Name:  "generic",
	Focus: "General ATS optimization",
	Tips: []string{
		"Use exact keywords from job description",
		"Ensure .docx format",
		"Single column layout",
		"No graphics or tables",
	},
}

// DetectPlatform names the ATS behind a posting from its URL, then from page
// signals (embedded script/form URLs or raw HTML). Unknown platforms get
// generic tips.
func DetectPlatform(pageURL string, signals ...string) Platform {
	lowerURL := strings.ToLower(pageURL)
	if lowerURL != "" {
		for _, sig := range platforms {
			for _, h := range sig.hosts {
				if strings.Contains(lowerURL, h) {
					return sig.platform(lowerURL)
				}
			}
		}
	}
	for _, s := range signals {
		ls := strings.ToLower(s)
		for _, sig := range platforms {
			for _, m := range sig.markers {
				if strings.Contains(ls, m) {
					return sig.platform(ls)
				}
			}
		}
	}
	return genericPlatform
}

func (sig platformSig) platform(source string) Platform {
	p := Platform{Name: sig.name, Detected: true, Focus: sig.focus, Tips: sig.tips}
	if sig.boardRe != nil {
		if m := sig.boardRe.FindStringSubmatch(source); len(m) > 1 {
			p.Board = m[1]
		}
	}
	return p
}

// PlatformNames lists every known ATS.
func PlatformNames() []string {
	out := make([]string, 0, len(platforms))
	for _, sig := range platforms {
		out = append(out, sig.name)
	}
	return out
}
