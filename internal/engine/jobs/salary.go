package jobs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/anatolykoptev/go_apply/internal/engine/rules"
)

// DefaultSalaryCountry is used when no country is given.
const DefaultSalaryCountry = "uk"

// ErrNoSalaryData is returned for a country or level missing from the reference.
var ErrNoSalaryData = errors.New("no salary data")

// SalaryEstimate is the reference range for one level, location and country.
type SalaryEstimate struct {
	Country         string `json:"country"`
	Level           string `json:"level"`
	Location        string `json:"location"`
	Currency        string `json:"currency"`
	Min             int    `json:"min"`
	Max             int    `json:"max"`
	Range           string `json:"range"`
	YearsExperience string `json:"years_experience,omitempty"`
	// Expectation is a figure to put in an application form's salary field:
	// the top of the range.
	Expectation string   `json:"expectation"`
	Source      string   `json:"source"`
	Notes       []string `json:"notes,omitempty"`
}

// salaryKey normalises "Mid-Level" or "Other UK" to "mid_level" or "other_uk".
func salaryKey(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	}), "_")
}

// EstimateSalary looks up the range for a role level in a location. An
// unknown location falls back to the country's default location with a note;
// an unknown country or level is an error naming the known ones.
func EstimateSalary(ref *rules.SalaryReference, level, location, country string) (*SalaryEstimate, error) {
	countryKey := salaryKey(country)
	if countryKey == "" {
		countryKey = DefaultSalaryCountry
	}
	c, ok := ref.Countries[countryKey]
	if !ok {
		return nil, fmt.Errorf("%w for country %q (known: %s)", ErrNoSalaryData, country,
			strings.Join(rules.SortedKeys(ref.Countries), ", "))
	}
	levelKey := salaryKey(level)
	lv, ok := c.Levels[levelKey]
	if !ok {
		return nil, fmt.Errorf("%w for level %q (known: %s)", ErrNoSalaryData, level,
			strings.Join(rules.SortedKeys(c.Levels), ", "))
	}

	est := &SalaryEstimate{
		Country:         countryKey,
		Level:           levelKey,
		Currency:        c.Currency,
		YearsExperience: lv.YearsExperience,
		Source:          fmt.Sprintf("%s reference ranges, %d", ref.Field, ref.Year),
	}
	locKey := salaryKey(location)
	rng, ok := lv.Locations[locKey]
	if !ok {
		if locKey != "" {
			est.Notes = append(est.Notes, fmt.Sprintf("no data for location %q; showing %s (known: %s)",
				location, c.DefaultLocation, strings.Join(rules.SortedKeys(lv.Locations), ", ")))
		}
		locKey, rng = c.DefaultLocation, lv.Locations[c.DefaultLocation]
	}
	est.Location = locKey
	est.Min, est.Max = rng.Min, rng.Max
	est.Range = money(c.Symbol, rng.Min) + " - " + money(c.Symbol, rng.Max)
	est.Expectation = money(c.Symbol, rng.Max)
	return est, nil
}

func money(symbol string, n int) string {
	return symbol + humanize.Comma(int64(n))
}

// levelWords map title words to salary levels, most senior first.
var levelWords = []struct {
	level string
	words []string
}{
	{"manager", []string{"head of", "director", "manager"}},
	{"lead", []string{"lead", "principal", "staff"}},
	{"senior", []string{"senior", "Sr"}},
	{"junior_graduate", []string{"junior", "graduate", "entry level", "trainee", "Intern", "Jr"}},
}

// InferLevel guesses a salary level from the job title, then from the years
// of experience asked for. It defaults to mid_level.
func InferLevel(a *Analysis) string {
	if a.JobTitle != UnknownTitle {
		for _, lw := range levelWords {
			for _, w := range lw.words {
				if containsFold(a.JobTitle, w) {
					return lw.level
				}
			}
		}
	}
	switch y := a.ExperienceYears; {
	case y >= 8:
		return "lead"
	case y >= 5:
		return "senior"
	case y >= 2:
		return "mid_level"
	case y > 0:
		return "junior_graduate"
	}
	return "mid_level"
}

// InferSalaryLocation picks the location key of ref that the posting's
// location names, or "" when none does.
func InferSalaryLocation(ref *rules.SalaryReference, country, location string) string {
	key := salaryKey(country)
	if key == "" {
		key = DefaultSalaryCountry
	}
	c, ok := ref.Countries[key]
	if !ok || strings.TrimSpace(location) == "" {
		return ""
	}
	for _, level := range rules.SortedKeys(c.Levels) {
		for _, loc := range rules.SortedKeys(c.Levels[level].Locations) {
			if containsFold(location, strings.ReplaceAll(loc, "_", " ")) {
				return loc
			}
		}
	}
	return ""
}
