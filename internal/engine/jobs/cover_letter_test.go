package jobs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCoverLetter(t *testing.T) {
	a := testExtractor().Analyze(sampleJD)
	r := testParser().Parse(sampleResume)

	cl := WriteCoverLetter(a, r, CoverLetterInput{Location: "based in London", Availability: "from March"})

	require.Len(t, cl.Paragraphs, 5)
	assert.True(t, strings.HasPrefix(cl.Paragraphs[0], "I'm excited to apply for the Senior Data Analyst position at Acme Analytics."))
	assert.Contains(t, cl.Paragraphs[0], "ownership and curiosity")
	assert.Subset(t, cl.SkillsMentioned, []string{"SQL", "Python"})
	assert.LessOrEqual(t, len(cl.SkillsMentioned), 4)
	for _, s := range cl.SkillsMentioned {
		assert.Contains(t, cl.Paragraphs[1], s)
	}
	assert.Equal(t, "In my previous role, I built weekly sales dashboards in Tableau used by 40 managers.", cl.Paragraphs[2])
	assert.Contains(t, cl.Paragraphs[3], "build dashboards in Tableau")
	assert.Equal(t, "I'm based in London, available from March, and I'm excited to discuss how I can contribute to your team.", cl.Paragraphs[4])

	assert.True(t, cl.Under400Words)
	assert.Equal(t, countWords(cl.Text), cl.WordCount)
	assert.Empty(t, cl.Warnings)
}

func TestWriteCoverLetter_NoInventedNumbers(t *testing.T) {
	a := testExtractor().Analyze("Must have Python and SQL. Nice to have Docker.")
	r := testParser().Parse("Sam Lee\nAnalyst\n\nExperience\n- Wrote Python scripts")

	cl := WriteCoverLetter(a, r, CoverLetterInput{})

	assert.False(t, strings.ContainsAny(cl.Paragraphs[2], "0123456789%"))
	assert.Contains(t, cl.Warnings, "no quantified achievement found; add one with numbers")
	assert.Contains(t, cl.Warnings, "company name unknown; add it before sending")
	assert.Contains(t, cl.Paragraphs[0], "this position at your company")
	assert.Equal(t, []string{"Python"}, cl.SkillsMentioned)
}

func TestWriteCoverLetter_CandidateInputWins(t *testing.T) {
	a := testExtractor().Analyze(sampleJD)
	r := testParser().Parse(sampleResume)

	cl := WriteCoverLetter(a, r, CoverLetterInput{
		CompanyName:   "Globex",
		CompanyDetail: "I have followed your open data work for years",
		Achievement:   "I am proud that I cut churn by 12%",
		RoleAspect:    "I would like to shape the analytics roadmap",
	})

	assert.Contains(t, cl.Paragraphs[0], "at Globex.")
	assert.Contains(t, cl.Paragraphs[0], "I have followed your open data work for years.")
	assert.Equal(t, "In my previous role, I'm proud that I cut churn by 12%.", cl.Paragraphs[2])
	assert.Equal(t, "I'm particularly drawn to this role because I'd like to shape the analytics roadmap.", cl.Paragraphs[3])
}

func TestSentenceCase(t *testing.T) {
	assert.Equal(t, "I follow your open data work.", sentenceCase("  I follow your open data work "))
	assert.Equal(t, "Is it live?", sentenceCase("Is it live?"))
	assert.Equal(t, "", sentenceCase("   "))
}

func TestIsQuantified(t *testing.T) {
	assert.True(t, isQuantified("Cut costs by 20%"))
	assert.True(t, isQuantified("Saved £40k a year"))
	assert.True(t, isQuantified("Served 300 customers"))
	assert.False(t, isQuantified("Improved onboarding"))
	assert.False(t, isQuantified("Worked with Python 3"))
}
