package rules

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed salary.yaml
var defaultSalaries []byte

// SalaryReference holds market salary ranges for one field of work.
type SalaryReference struct {
	Field     string                     `yaml:"field" validate:"required"`
	Year      int                        `yaml:"year" validate:"gte=2000"`
	Countries map[string]CountrySalaries `yaml:"countries" validate:"required,min=1,dive"`
}

// CountrySalaries are the ranges of one country. DefaultLocation is used when
// the requested location has no entry.
type CountrySalaries struct {
	Currency        string                   `yaml:"currency" validate:"required,len=3"`
	Symbol          string                   `yaml:"symbol" validate:"required"`
	DefaultLocation string                   `yaml:"default_location" validate:"required"`
	Levels          map[string]LevelSalaries `yaml:"levels" validate:"required,min=1,dive"`
}

// LevelSalaries are the ranges of one role level by location.
type LevelSalaries struct {
	YearsExperience string                 `yaml:"years_experience"`
	Locations       map[string]SalaryRange `yaml:"locations" validate:"required,min=1,dive"`
}

// SalaryRange is an annual gross range.
type SalaryRange struct {
	Min int `yaml:"min" validate:"gt=0"`
	Max int `yaml:"max" validate:"gtefield=Min"`
}

// Validate checks field constraints and that every level prices the
// country's default location.
func (s *SalaryReference) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("salary reference: %w", describe(err))
	}
	for _, country := range SortedKeys(s.Countries) {
		c := s.Countries[country]
		for _, level := range SortedKeys(c.Levels) {
			if _, ok := c.Levels[level].Locations[c.DefaultLocation]; !ok {
				return fmt.Errorf("salary reference: %s/%s has no range for default location %s",
					country, level, c.DefaultLocation)
			}
		}
	}
	return nil
}

// LoadSalaryReference reads ranges from path, or the embedded defaults when path is empty.
func LoadSalaryReference(path string) (*SalaryReference, error) {
	data, err := readOrDefault(path, defaultSalaries)
	if err != nil {
		return nil, fmt.Errorf("salary reference: %w", err)
	}
	return ParseSalaryReference(data)
}

// ParseSalaryReference decodes and validates YAML salary ranges.
func ParseSalaryReference(data []byte) (*SalaryReference, error) {
	var s SalaryReference
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("salary reference: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DefaultSalaryReference returns the embedded ranges. It panics if they are invalid.
func DefaultSalaryReference() *SalaryReference {
	s, err := ParseSalaryReference(defaultSalaries)
	if err != nil {
		panic(err)
	}
	return s
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
