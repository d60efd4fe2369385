package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckQuality_StrongResume(t *testing.T) {
	r := testParser().Parse(sampleResume)
	rep := CheckQuality(r, "Senior Data Analyst", []string{"Python", "SQL", "Airflow"})

	assert.Equal(t, 3, rep.Bullets)
	assert.Equal(t, 3, rep.QuantifiedBullets)
	require.NotNil(t, rep.TitleMatch)
	assert.True(t, *rep.TitleMatch)
	assert.Equal(t, 0.667, rep.TitleOverlap)
	require.NotNil(t, rep.Required)
	assert.Equal(t, []string{"Airflow"}, rep.Required.Missing)
	assert.Equal(t, 87, rep.Score)
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, "required_skills", rep.Issues[0].Check)
}

func TestCheckQuality_WeakResume(t *testing.T) {
	r := testParser().Parse("Sam Lee\nAnalyst\n\nExperience\n- Responsible for weekly reports\n- Improved onboarding flow\n- Helped the sales team")
	rep := CheckQuality(r, "Marketing Manager", nil)

	var checks []string
	for _, is := range rep.Issues {
		checks = append(checks, is.Check)
	}
	assert.ElementsMatch(t, []string{"weak_opener", "metrics", "weak_opener", "title"}, checks)
	assert.Nil(t, rep.Required)
	require.NotNil(t, rep.TitleMatch)
	assert.False(t, *rep.TitleMatch)
	assert.Equal(t, 100-5-6-15, rep.Score)
}

func TestCheckQuality_NoBullets(t *testing.T) {
	rep := CheckQuality(testParser().Parse("Sam Lee\n\nSummary\nAnalyst."), "", nil)
	assert.Nil(t, rep.TitleMatch)
	assert.Equal(t, 80, rep.Score)
	assert.Equal(t, SeverityHigh, rep.Issues[0].Severity)
}

func TestCheckQuality_MetricWarningsCapped(t *testing.T) {
	text := "Sam Lee\n\nExperience\n"
	for range 8 {
		text += "- Led the migration of the legacy reporting platform to the cloud warehouse\n"
	}
	rep := CheckQuality(testParser().Parse(text), "", nil)

	n := 0
	for _, is := range rep.Issues {
		if is.Check == "metrics" {
			n++
			assert.LessOrEqual(t, len([]rune(is.Message)), len("Consider adding quantifiable metrics: ")+53)
		}
	}
	assert.Equal(t, 5, n)
	assert.Equal(t, 75, rep.Score)
}
