package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSTAR(t *testing.T) {
	ans := BuildSTAR(STARInput{
		Question:  "Tell me about a time you improved a process.",
		Situation: "Weekly reports took two days.",
		Task:      "I owned the reporting cycle.",
		Action:    "I rebuilt the pipeline end to end and scheduled the refresh overnight.",
		Result:    "Report time dropped by 80%.",
		Keywords:  []string{"SQL", "sql", "Python", "Airflow"},
	})

	want := "Situation: Weekly reports took two days.\n\n" +
		"Task: I owned the reporting cycle.\n\n" +
		"Action: I rebuilt the pipeline end to end and scheduled the refresh overnight. This involved using SQL and Python.\n\n" +
		"Result: Report time dropped by 80%."
	assert.Equal(t, want, ans.Answer)
	assert.Equal(t, 5, ans.WordCounts["situation"])
	assert.Equal(t, 12, ans.WordCounts["action"])
	assert.Equal(t, 5+5+12+5, ans.TotalWords)
	assert.Empty(t, ans.Warnings)
}

func TestBuildSTAR_Warnings(t *testing.T) {
	ans := BuildSTAR(STARInput{
		Situation: "Our team inherited a fragile billing service with no tests.",
		Action:    "I added tests.",
		Result:    "Things got better.",
	})

	assert.Contains(t, ans.Warnings, "task is missing")
	assert.Contains(t, ans.Warnings, "result has no numbers; quantify the outcome")
	assert.Contains(t, ans.Warnings, "action is shorter than situation; spend more time on what you did")
	assert.Contains(t, ans.Answer, "Action: I added tests.\n\n")
}

func TestSTARTemplate(t *testing.T) {
	assert.Equal(t, "I was leading a team when", STARTemplate("Leadership").Situation)
	assert.Equal(t, "I solved this by", STARTemplate("problem-solving").Action)
	assert.Equal(t, STARTemplate(STARProject), STARTemplate("unknown"))
}
