package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

func TestEstimateSalary(t *testing.T) {
	ref := rules.DefaultSalaryReference()

	est, err := EstimateSalary(ref, "Mid-Level", "London", "")
	require.NoError(t, err)
	assert.Equal(t, "uk", est.Country)
	assert.Equal(t, "mid_level", est.Level)
	assert.Equal(t, "london", est.Location)
	assert.Equal(t, "£45,000 - £60,000", est.Range)
	assert.Equal(t, "£60,000", est.Expectation)
	assert.Equal(t, "2-5", est.YearsExperience)
	assert.Equal(t, "data analytics reference ranges, 2026", est.Source)
	assert.Empty(t, est.Notes)

	est, err = EstimateSalary(ref, "senior", "other us", "US")
	require.NoError(t, err)
	assert.Equal(t, "USD", est.Currency)
	assert.Equal(t, "$95,000 - $125,000", est.Range)
}

func TestEstimateSalary_UnknownLocationFallsBack(t *testing.T) {
	est, err := EstimateSalary(rules.DefaultSalaryReference(), "senior", "Mars", "us")
	require.NoError(t, err)
	assert.Equal(t, "major_cities", est.Location)
	assert.Equal(t, 120000, est.Min)
	require.Len(t, est.Notes, 1)
	assert.Contains(t, est.Notes[0], `no data for location "Mars"`)
}

func TestEstimateSalary_UnknownCountryOrLevel(t *testing.T) {
	ref := rules.DefaultSalaryReference()

	_, err := EstimateSalary(ref, "senior", "", "de")
	require.ErrorIs(t, err, ErrNoSalaryData)
	assert.Contains(t, err.Error(), "known: uk, us")

	_, err = EstimateSalary(ref, "wizard", "", "uk")
	require.ErrorIs(t, err, ErrNoSalaryData)
	assert.Contains(t, err.Error(), "junior_graduate")
}

func TestInferLevel(t *testing.T) {
	tests := []struct {
		title string
		years int
		want  string
	}{
		{"Senior Data Analyst", 0, "senior"},
		{"Head of Analytics", 0, "manager"},
		{"Lead Data Engineer", 3, "lead"},
		{"Graduate Data Analyst", 0, "junior_graduate"},
		{"Internal Audit Analyst", 0, "mid_level"},
		{"Data Analyst", 6, "senior"},
		{"Data Analyst", 1, "junior_graduate"},
		{UnknownTitle, 0, "mid_level"},
	}
	for _, tt := range tests {
		got := InferLevel(&Analysis{JobTitle: tt.title, ExperienceYears: tt.years})
		assert.Equal(t, tt.want, got, "%s / %d years", tt.title, tt.years)
	}
}

func TestInferSalaryLocation(t *testing.T) {
	ref := rules.DefaultSalaryReference()
	assert.Equal(t, "london", InferSalaryLocation(ref, "", "London, UK (Hybrid)"))
	assert.Equal(t, "", InferSalaryLocation(ref, "uk", "Leeds"))
	assert.Equal(t, "", InferSalaryLocation(ref, "de", "Berlin"))
}
