package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

const sampleResume = `Jane Doe
Data Analyst
jane@example.com | +44 7700 900123

Summary
Analyst with five years of experience turning data into decisions.

Skills
Python, SQL, Excel

Experience
Acme Retail, Data Analyst, 2019-2024
- Built weekly sales dashboards in Tableau used by 40 managers
- Automated reporting with Postgres and Python, saving 10 hours a week
- Led a team of 3 analysts

Education
BSc Mathematics, University of Leeds`

func testParser() *ResumeParser {
	return NewResumeParser(rules.DefaultVocabulary())
}

func headings(r *Resume) []string {
	out := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		out = append(out, s.Heading)
	}
	return out
}

func TestParseResume(t *testing.T) {
	r := testParser().Parse(sampleResume)

	assert.Len(t, r.Header, 3)
	assert.Equal(t, "Data Analyst", r.Title())
	assert.Equal(t, []string{"Summary", "Skills", "Experience", "Education"}, headings(r))

	exp := r.Section("experience")
	require.NotNil(t, exp)
	require.Len(t, exp.Lines, 4)
	assert.False(t, exp.Lines[0].Bullet)
	assert.True(t, exp.Lines[1].Bullet)
	assert.Equal(t, "Built weekly sales dashboards in Tableau used by 40 managers", exp.Lines[1].Text)
	assert.Nil(t, r.Section("projects"))
}

func TestParseResume_Markdown(t *testing.T) {
	md := `# Sam Lee
## Backend Engineer
sam@example.com

## Experience
### Globex, 2021-2024
* Shipped Go services on Kubernetes

## Volunteering
* Taught coding at a community school

## Skills
Go, Docker`

	r := testParser().Parse(md)
	assert.Equal(t, "Backend Engineer", r.Title())
	assert.Equal(t, []string{"Experience", "Volunteering", "Skills"}, headings(r))
	assert.Equal(t, "", r.Sections[1].Key)
	assert.Equal(t, "*", r.Section("experience").Lines[1].Marker)
}

func TestResumeRender_RoundTrip(t *testing.T) {
	p := testParser()
	r := p.Parse(sampleResume)
	again := p.Parse(r.Render())
	assert.Equal(t, r.Header, again.Header)
	assert.Equal(t, headings(r), headings(again))
	assert.Equal(t, r.Section("experience").Lines, again.Section("experience").Lines)
	assert.Contains(t, r.Render(), "- Led a team of 3 analysts\n")
}

func TestResume_SetTitleAndClone(t *testing.T) {
	r := testParser().Parse("Jane Doe\n## Data Analyst\n\nSkills\nSQL")
	c := r.Clone()
	require.True(t, c.SetTitle("Senior Data Analyst"))
	assert.Equal(t, "## Senior Data Analyst", c.Header[1])
	assert.Equal(t, "Data Analyst", r.Title(), "clone must not share header")

	c.Sections[0].Lines[0].Text = "Go"
	assert.Equal(t, "SQL", r.Sections[0].Lines[0].Text)

	noTitle := testParser().Parse("Jane Doe\njane@example.com\n\nSkills\nSQL")
	assert.Equal(t, "", noTitle.Title())
	assert.False(t, noTitle.SetTitle("Analyst"))
}
