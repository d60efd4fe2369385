package jobs

import (
	"fmt"
	"strings"
)

// STARInput holds the parts of a competency answer.
type STARInput struct {
	Question  string   `json:"question,omitempty"`
	Situation string   `json:"situation,omitempty"`
	Task      string   `json:"task,omitempty"`
	Action    string   `json:"action,omitempty"`
	Result    string   `json:"result,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
}

// STARAnswer is a formatted answer with per-part checks.
type STARAnswer struct {
	Question   string         `json:"question,omitempty"`
	Answer     string         `json:"answer"`
	WordCounts map[string]int `json:"word_counts"`
	TotalWords int            `json:"total_words"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// maxSTARWords keeps a spoken answer near two minutes.
const maxSTARWords = 300

// BuildSTAR formats a Situation/Task/Action/Result answer. Up to two keywords
// are woven into the action part.
func BuildSTAR(in STARInput) *STARAnswer {
	ans := &STARAnswer{Question: in.Question, WordCounts: map[string]int{}}
	parts := []struct{ name, text string }{
		{"situation", in.Situation}, {"task", in.Task}, {"action", in.Action}, {"result", in.Result},
	}
	for _, p := range parts {
		n := countWords(p.text)
		ans.WordCounts[p.name] = n
		ans.TotalWords += n
		if n == 0 {
			ans.Warnings = append(ans.Warnings, p.name+" is missing")
		}
	}

	action := strings.TrimRight(strings.TrimSpace(in.Action), ".")
	if kws := uniqueTerms(in.Keywords); len(kws) > 0 && action != "" {
		action += ". This involved using " + kws[0]
		if len(kws) > 1 {
			action += " and " + kws[1]
		}
	}
	if action != "" {
		action += "."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Situation: %s\n\n", strings.TrimSpace(in.Situation))
	fmt.Fprintf(&b, "Task: %s\n\n", strings.TrimSpace(in.Task))
	fmt.Fprintf(&b, "Action: %s\n\n", action)
	fmt.Fprintf(&b, "Result: %s", strings.TrimSpace(in.Result))
	ans.Answer = b.String()

	if in.Result != "" && !isQuantified(in.Result) && !strings.ContainsAny(in.Result, "0123456789") {
		ans.Warnings = append(ans.Warnings, "result has no numbers; quantify the outcome")
	}
	if ans.WordCounts["action"] < ans.WordCounts["situation"] {
		ans.Warnings = append(ans.Warnings, "action is shorter than situation; spend more time on what you did")
	}
	if ans.TotalWords > maxSTARWords {
		ans.Warnings = append(ans.Warnings, fmt.Sprintf("answer has %d words; aim for under %d", ans.TotalWords, maxSTARWords))
	}
	return ans
}

// STAR template kinds.
const (
	STARProject        = "project"
	STARLeadership     = "leadership"
	STARProblemSolving = "problem-solving"
)

var starTemplates = map[string]STARInput{
	STARProject: {
		Situation: "I was working on a critical project that required",
		Task:      "My task was to",
		Action:    "I took the following actions",
		Result:    "This resulted in",
	},
	STARLeadership: {
		Situation: "I was leading a team when",
		Task:      "I needed to",
		Action:    "I implemented",
		Result:    "The outcome was",
	},
	STARProblemSolving: {
		Situation: "I encountered a challenging problem where",
		Task:      "I had to",
		Action:    "I solved this by",
		Result:    "The solution led to",
	},
}

// STARTemplate returns sentence starters for a kind of question. Unknown
// kinds fall back to the project template.
func STARTemplate(kind string) STARInput {
	if t, ok := starTemplates[strings.ToLower(strings.TrimSpace(kind))]; ok {
		return t
	}
	return starTemplates[STARProject]
}
