package jobs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

const engineerJD = `Job Title: Data Engineer

Requirements
- Must have PostgreSQL and Python
- Must have Kubernetes`

func testTailorer() *Tailorer {
	return NewTailorer(rules.DefaultVocabulary())
}

func skippedNames(res *TailorResult) []string {
	var out []string
	for _, s := range res.Skipped {
		out = append(out, s.Keyword)
	}
	return out
}

func TestTailor_FullPosting(t *testing.T) {
	r := testParser().Parse(sampleResume)
	original := r.Render()
	a := testExtractor().Analyze(sampleJD)

	res := testTailorer().Tailor(r, a, TailorOptions{})

	assert.Equal(t, original, r.Render(), "input résumé must not change")
	assert.Equal(t, "Data Analyst", res.TitleBefore)
	assert.Equal(t, "Senior Data Analyst", res.TitleAfter)
	assert.Contains(t, res.Injected, "leadership")
	assert.Contains(t, skippedNames(res), "Airflow")
	assert.Greater(t, res.CoverageAfter, res.CoverageBefore)
	assert.False(t, res.TargetReached)

	assert.Equal(t, []string{"Summary", "Experience", "Skills", "Education"}, headings(res.Resume))
	assert.Equal(t, "Python, SQL, Excel, leadership", res.Resume.Section("skills").Lines[0].Text)
	assert.Empty(t, res.Phrases, "no original bullet backs a whole job phrase")
	assert.NotContains(t, res.Text, "Present findings to senior leadership")
}

const migrationJD = `Job Title: Data Engineer

Responsibilities
- Write SQL queries and Python scripts to automate weekly reporting for finance teams
- You will lead the migration of 200 legacy services to Kubernetes across three regions for our largest customers

Requirements
- Must have SQL, Python and Kubernetes
- Must have Snowflake and Airflow`

const leadMigration = "You will lead the migration of 200 legacy services to Kubernetes across three regions for our largest customers"

func TestTailor_PhraseNeedsOriginalBacking(t *testing.T) {
	r := testParser().Parse("Alex Kim\nData Engineer\n\nExperience\n- Built ETL jobs in Python\n- Wrote SQL reports")
	a := testExtractor().Analyze(migrationJD)
	require.Contains(t, a.VerbatimPhrases, leadMigration)

	res := testTailorer().Tailor(r, a, TailorOptions{ConfirmedSkills: []string{"Kubernetes"}})

	assert.Contains(t, res.Injected, "Kubernetes")
	assert.Empty(t, res.Phrases)
	assert.NotContains(t, res.Text, "migration")
	assert.NotContains(t, res.Text, "automate weekly reporting", "SQL and Python sit on different bullets")
}

func TestTailor_PhraseMergedIntoBackingBullet(t *testing.T) {
	r := testParser().Parse(`Sam Lee
Data Engineer

Experience
- Wrote SQL queries and Python scripts for finance
- Migrated 40 services to Kubernetes`)
	a := testExtractor().Analyze(migrationJD)

	res := testTailorer().Tailor(r, a, TailorOptions{})

	assert.Equal(t, []string{"Write SQL queries and Python scripts to automate weekly reporting for finance teams"}, res.Phrases)
	exp := res.Resume.Section("experience")
	require.NotNil(t, exp)
	require.Len(t, exp.Lines, 2, "phrases extend bullets instead of adding new ones")
	assert.Equal(t, "Wrote SQL queries and Python scripts for finance; write SQL queries and Python scripts "+
		"to automate weekly reporting for finance teams", exp.Lines[0].Text)
	assert.Equal(t, "Migrated 40 services to Kubernetes", exp.Lines[1].Text,
		"sentences addressed to the reader are never merged")
	assert.Equal(t, "Wrote SQL queries and Python scripts for finance", r.Section("experience").Lines[0].Text)
}

func TestTailor_OnlyInsertsJobText(t *testing.T) {
	r := testParser().Parse(sampleResume)
	a := testExtractor().Analyze(sampleJD)
	res := testTailorer().Tailor(r, a, TailorOptions{ConfirmedSkills: []string{"Power BI", "Airflow"}})

	allowed := map[string]bool{}
	for _, src := range []string{sampleResume, sampleJD} {
		for _, w := range splitWords(src) {
			allowed[w.norm] = true
		}
	}
	for _, w := range splitWords(res.Text) {
		assert.True(t, allowed[w.norm], "tailored text introduced %q", w.raw)
	}
	assert.Subset(t, res.Injected, []string{"Power BI", "Airflow"})
}

func TestTailor_AliasRephrase(t *testing.T) {
	r := testParser().Parse(sampleResume)
	a := testExtractor().Analyze(engineerJD)
	require.Equal(t, []string{"PostgreSQL", "Python", "Kubernetes"}, a.RequiredSkills)

	res := testTailorer().Tailor(r, a, TailorOptions{})

	assert.Equal(t, 33.3, res.CoverageBefore)
	assert.Equal(t, 66.7, res.CoverageAfter)
	assert.Equal(t, []string{"PostgreSQL"}, res.Injected)
	assert.Equal(t, []SkippedKeyword{{Keyword: "Kubernetes", Reason: "no evidence in résumé"}}, res.Skipped)
	assert.Contains(t, res.Text, "Automated reporting with PostgreSQL (Postgres) and Python")
	assert.Equal(t, "Data Analyst", res.TitleAfter, "titles below the similarity threshold are kept")
}

func TestTailor_ConfirmedSkillReachesTarget(t *testing.T) {
	r := testParser().Parse(sampleResume)
	a := testExtractor().Analyze(engineerJD)
	res := testTailorer().Tailor(r, a, TailorOptions{ConfirmedSkills: []string{"kubernetes"}})

	assert.Equal(t, 100.0, res.CoverageAfter)
	assert.True(t, res.TargetReached)
	assert.Empty(t, res.Skipped)
	assert.Contains(t, res.Text, "Python, SQL, Excel, Kubernetes")
}

func TestTailor_StopsAtTarget(t *testing.T) {
	r := testParser().Parse(sampleResume)
	a := testExtractor().Analyze(engineerJD)
	res := testTailorer().Tailor(r, a, TailorOptions{TargetCoverage: 60, ConfirmedSkills: []string{"Kubernetes"}})

	assert.Equal(t, []string{"PostgreSQL"}, res.Injected)
	assert.Empty(t, res.Skipped)
	assert.NotContains(t, res.Text, "Kubernetes")
}

func TestTailor_CreatesSkillsSectionAndAdditionalInfo(t *testing.T) {
	r := testParser().Parse("Jane Doe\nData Engineer\n\nEXPERIENCE\n- Ran Postgres clusters")
	a := testExtractor().Analyze(engineerJD)
	res := testTailorer().Tailor(r, a, TailorOptions{
		ConfirmedSkills: []string{"Kubernetes"},
		AdditionalInfo:  []string{"Right to work in the UK", " "},
	})

	last := res.Resume.Sections[len(res.Resume.Sections)-1]
	assert.Equal(t, "Additional Information", last.Heading)
	assert.Equal(t, "ADDITIONAL INFORMATION", last.Raw)
	assert.Len(t, last.Lines, 1)

	skills := res.Resume.Section("skills")
	require.NotNil(t, skills)
	assert.Equal(t, "SKILLS", skills.Raw)
	assert.Equal(t, "Kubernetes", skills.Lines[0].Text)
	assert.Contains(t, res.Text, "PostgreSQL (Postgres)")
	assert.Equal(t, []string{"Python"}, skippedNames(res))
}

func TestTailor_UnknownTitleKept(t *testing.T) {
	r := testParser().Parse(sampleResume)
	a := testExtractor().Analyze("Must have Python and SQL. Nice to have Docker.")
	res := testTailorer().Tailor(r, a, TailorOptions{})
	assert.Equal(t, "Data Analyst", res.TitleAfter)
	assert.Equal(t, OpSkip, res.Operations[0].Action)
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"Data Analyst", "Senior Data Analyst", 0.66, 0.67},
		{"Data Analyst", "Data Engineer", 0.33, 0.34},
		{"Marketing Manager", "Data Analyst", 0, 0},
		{"Data Analysts", "data analyst", 1, 1},
		{"", "Analyst", 0, 0},
	}
	for _, tt := range tests {
		got := TitleSimilarity(tt.a, tt.b)
		assert.True(t, got >= tt.min && got <= tt.max, "%q vs %q = %v", tt.a, tt.b, got)
	}
}

func TestInsertKeyword(t *testing.T) {
	got, ok := insertKeyword("Deployed to k8s and Postgres", "k8s", "Kubernetes")
	assert.True(t, ok)
	assert.Equal(t, "Deployed to Kubernetes (k8s) and Postgres", got)

	_, ok = insertKeyword("Postgresql tuning", "Postgres", "PostgreSQL")
	assert.False(t, ok, "alias must match a whole word")

	got, _ = insertKeyword("ML models", "ML", "machine learning")
	assert.True(t, strings.HasPrefix(got, "machine learning (ML)"))
}
