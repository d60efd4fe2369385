// Package rules loads the data that drives analysis and scoring: the ATS
// scoring rules, the keyword vocabulary and the salary reference ranges. All
// ship embedded and can be replaced by YAML files at startup. A rule set that
// fails validation is rejected; callers treat that as fatal.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed ats_rules.yaml
var defaultATSRules []byte

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Scoring categories in report order.
const (
	CategoryFileFormat     = "file_format"
	CategoryLayout         = "layout"
	CategoryFonts          = "fonts"
	CategoryGraphics       = "graphics"
	CategoryHeadersFooters = "headers_footers"
)

// Categories lists every scoring category in report order.
var Categories = []string{
	CategoryFileFormat, CategoryLayout, CategoryFonts, CategoryGraphics, CategoryHeadersFooters,
}

// ATSRules is the configurable rubric for the ATS compatibility scorer.
type ATSRules struct {
	Weights        map[string]int `yaml:"weights" validate:"required,len=5,dive,keys,category,endkeys,gt=0,lte=100"`
	FileFormat     FormatRules    `yaml:"file_format"`
	Fonts          FontRules      `yaml:"fonts"`
	Penalties      Penalties      `yaml:"penalties"`
	UnusualBullets []string       `yaml:"unusual_bullets" validate:"dive,required"`
}

// FormatRules lists file extensions by acceptability.
type FormatRules struct {
	Allowed    []string `yaml:"allowed" validate:"required,min=1,dive,file_ext"`
	Prohibited []string `yaml:"prohibited" validate:"dive,file_ext"`
}

// FontRules bounds font families and sizes (points).
type FontRules struct {
	Allowed []string `yaml:"allowed" validate:"required,min=1,dive,required"`
	MinSize float64  `yaml:"min_size" validate:"gt=0"`
	MaxSize float64  `yaml:"max_size" validate:"gtefield=MinSize"`
}

// Penalties are the points deducted per detected violation.
type Penalties struct {
	UnlistedFormat  int `yaml:"unlisted_format" validate:"gt=0"`
	Tables          int `yaml:"tables" validate:"gt=0"`
	MultiColumn     int `yaml:"multi_column" validate:"gt=0"`
	NonStandardFont int `yaml:"non_standard_font" validate:"gt=0"`
	FontSize        int `yaml:"font_size" validate:"gt=0"`
	HeaderText      int `yaml:"header_text" validate:"gt=0"`
	FooterText      int `yaml:"footer_text" validate:"gt=0"`
	Images          int `yaml:"images" validate:"gt=0"`
	UnusualBullets  int `yaml:"unusual_bullets" validate:"gt=0"`
}

// Weight returns the configured weight of a category.
func (r *ATSRules) Weight(category string) int {
	return r.Weights[category]
}

// Validate checks field constraints and that the weights add up to 100.
func (r *ATSRules) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("ats rules: %w", describe(err))
	}
	sum := 0
	for _, c := range Categories {
		w, ok := r.Weights[c]
		if !ok {
			return fmt.Errorf("ats rules: missing weight for %s", c)
		}
		sum += w
	}
	if sum != 100 {
		return fmt.Errorf("ats rules: weights sum to %d, want 100", sum)
	}
	return nil
}

// TermGroup is a named list of vocabulary terms.
// Kind is technical, tool or soft.
type TermGroup struct {
	Name  string   `yaml:"name" validate:"required"`
	Kind  string   `yaml:"kind" validate:"oneof=technical tool soft"`
	Terms []string `yaml:"terms" validate:"required,min=1,dive,required"`
}

// SectionAlias maps job-description headings and résumé headings onto one
// canonical section key.
type SectionAlias struct {
	Key    string   `yaml:"key" validate:"required"`
	JD     []string `yaml:"jd"`
	Resume []string `yaml:"resume"`
}

// ExtractorSettings tunes job description analysis.
type ExtractorSettings struct {
	MinFrequency       int `yaml:"min_frequency" validate:"gte=1"`
	MinWords           int `yaml:"min_words" validate:"gte=1"`
	MaxKeywords        int `yaml:"max_keywords" validate:"gte=1"`
	MaxVerbatimPhrases int `yaml:"max_verbatim_phrases" validate:"gte=1"`
	PhraseMinWords     int `yaml:"phrase_min_words" validate:"gte=1"`
	PhraseMaxWords     int `yaml:"phrase_max_words" validate:"gtefield=PhraseMinWords"`
	// MinStopWordRatio is the share of English stop words below which a
	// posting is treated as non-English.
	MinStopWordRatio float64 `yaml:"min_stop_word_ratio" validate:"gte=0,lt=1"`
}

// TailorSettings tunes the rule-based résumé tailoring engine.
type TailorSettings struct {
	TitleSimilarity float64 `yaml:"title_similarity" validate:"gte=0,lte=1"`
	TargetCoverage  float64 `yaml:"target_coverage" validate:"gt=0,lte=100"`
	MaxPhrases      int     `yaml:"max_phrases" validate:"gte=0"`
	MaxSkillsLine   int     `yaml:"max_skills_line" validate:"gte=1"`
}

// Vocabulary is the keyword and marker data used by the extractor, the
// matcher and the tailoring engine.
type Vocabulary struct {
	Groups            []TermGroup         `yaml:"groups" validate:"required,min=1,dive"`
	Aliases           map[string][]string `yaml:"aliases"`
	RequiredMarkers   []string            `yaml:"required_markers" validate:"required,min=1"`
	PreferredMarkers  []string            `yaml:"preferred_markers" validate:"required,min=1"`
	RequiredHeadings  []string            `yaml:"required_headings"`
	PreferredHeadings []string            `yaml:"preferred_headings"`
	ValueMarkers      []string            `yaml:"value_markers"`
	Certifications    []string            `yaml:"certifications"`
	StopWords         []string            `yaml:"stop_words" validate:"required,min=1"`
	Sections          []SectionAlias      `yaml:"sections" validate:"dive"`
	Extractor         ExtractorSettings   `yaml:"extractor"`
	Tailor            TailorSettings      `yaml:"tailor"`
}

// Validate checks field constraints.
func (v *Vocabulary) Validate() error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("vocabulary: %w", describe(err))
	}
	return nil
}

// LoadATSRules reads rules from path, or the embedded defaults when path is empty.
func LoadATSRules(path string) (*ATSRules, error) {
	data, err := readOrDefault(path, defaultATSRules)
	if err != nil {
		return nil, fmt.Errorf("ats rules: %w", err)
	}
	return ParseATSRules(data)
}

// ParseATSRules decodes and validates YAML rules.
func ParseATSRules(data []byte) (*ATSRules, error) {
	var r ATSRules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("ats rules: decode: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadVocabulary reads a vocabulary from path, or the embedded default when path is empty.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := readOrDefault(path, defaultVocabulary)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary decodes and validates a YAML vocabulary.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("vocabulary: decode: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// DefaultATSRules returns the embedded rules. It panics if they are invalid.
func DefaultATSRules() *ATSRules {
	r, err := ParseATSRules(defaultATSRules)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultVocabulary returns the embedded vocabulary. It panics if it is invalid.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic(err)
	}
	return v
}

func readOrDefault(path string, fallback []byte) ([]byte, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("file_ext", validFileExt)
	_ = v.RegisterValidation("category", validCategory)
	return v
}

// validFileExt accepts lower-case extensions with a leading dot, like ".docx".
func validFileExt(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) > 1 && strings.HasPrefix(s, ".") && s == strings.ToLower(s) && !strings.ContainsAny(s, " /\\")
}

func validCategory(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, c := range Categories {
		if s == c {
			return true
		}
	}
	return false
}

// describe flattens validator errors into one readable message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
