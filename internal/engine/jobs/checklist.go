package jobs

import (
	"fmt"

	"github.com/anatolykoptev/go_apply/internal/engine"
)

// Checklist kinds.
const (
	ChecklistPreApplication  = "pre_application"
	ChecklistFinalSubmission = "final_submission"
)

// ChecklistItem is one task on a checklist.
type ChecklistItem struct {
	ID       string `json:"id"`
	Task     string `json:"task"`
	Priority string `json:"priority"`
	Category string `json:"category,omitempty"`
	Done     bool   `json:"done"`
}

// Checklist is a named list of tasks with completion progress.
type Checklist struct {
	Kind       string          `json:"kind"`
	Items      []ChecklistItem `json:"items"`
	Completion float64         `json:"completion"`
}

var checklists = map[string][]ChecklistItem{
	ChecklistPreApplication: {
		{ID: "cv_title_match", Task: "Match CV title to exact job title", Priority: SeverityHigh, Category: "CV PREPARATION"},
		{ID: "cv_verbatim_keywords", Task: "Copy verbatim keywords from JD", Priority: SeverityHigh, Category: "CV PREPARATION"},
		{ID: "cv_mirror_structure", Task: "Mirror JD structure in experience section", Priority: SeverityHigh, Category: "CV PREPARATION"},
		{ID: "cv_required_skills", Task: "Include all required skills explicitly", Priority: SeverityHigh, Category: "CV PREPARATION"},
		{ID: "cv_quantifiable", Task: "Add quantifiable achievements", Priority: SeverityHigh, Category: "CV PREPARATION"},
		{ID: "cv_acronyms_full", Task: "Include both acronyms AND full terms", Priority: SeverityMedium, Category: "CV PREPARATION"},
		{ID: "cv_values_alignment", Task: "Reflect company values where your experience shows them", Priority: SeverityMedium, Category: "CV PREPARATION"},
		{ID: "cv_location_logistics", Task: "Confirm location/logistics in Additional Info", Priority: SeverityMedium, Category: "CV PREPARATION"},
		{ID: "cv_ats_formatting", Task: "Check ATS formatting", Priority: SeverityHigh, Category: "CV PREPARATION"},
		{ID: "cv_proofread", Task: "Proofread for errors", Priority: SeverityHigh, Category: "CV PREPARATION"},
		{ID: "cl_hook", Task: "Paragraph 1: Hook with company-specific enthusiasm", Priority: SeverityHigh, Category: "COVER LETTER PREPARATION"},
		{ID: "cl_technical_match", Task: "Paragraph 2: List technical skills using their terms", Priority: SeverityHigh, Category: "COVER LETTER PREPARATION"},
		{ID: "cl_experience_story", Task: "Paragraph 3: Give relevant experience example with numbers", Priority: SeverityHigh, Category: "COVER LETTER PREPARATION"},
		{ID: "cl_why_role", Task: "Paragraph 4: Explain why THIS role excites you", Priority: SeverityMedium, Category: "COVER LETTER PREPARATION"},
		{ID: "cl_close", Task: "Paragraph 5: Confirm logistics and close", Priority: SeverityMedium, Category: "COVER LETTER PREPARATION"},
		{ID: "cl_word_count", Task: "Keep under 400 words", Priority: SeverityMedium, Category: "COVER LETTER PREPARATION"},
		{ID: "cl_tone", Task: "Use human tone (contractions, conversational)", Priority: SeverityHigh, Category: "COVER LETTER PREPARATION"},
		{ID: "cl_proofread", Task: "Proofread", Priority: SeverityHigh, Category: "COVER LETTER PREPARATION"},
	},
	ChecklistFinalSubmission: {
		{ID: "final_cv_title", Task: "CV title matches or closely aligns with job title", Priority: SeverityHigh},
		{ID: "final_verbatim_keywords", Task: "Verbatim keywords from JD included in CV", Priority: SeverityHigh},
		{ID: "final_mirror_structure", Task: "Experience section mirrors JD requirements structure", Priority: SeverityHigh},
		{ID: "final_quantifiable", Task: "Quantifiable achievements included (%, £, numbers)", Priority: SeverityHigh},
		{ID: "final_ats_format", Task: "CV in ATS-friendly format (.docx, single column)", Priority: SeverityHigh},
		{ID: "final_location_logistics", Task: "Location/logistics addressed in CV", Priority: SeverityMedium},
		{ID: "final_cl_company_interest", Task: "Cover letter shows genuine interest in THIS company", Priority: SeverityHigh},
		{ID: "final_cl_terminology", Task: "Cover letter uses company's exact technical terminology", Priority: SeverityHigh},
		{ID: "final_cl_values", Task: "Company values aligned with (if mentioned in JD)", Priority: SeverityMedium},
		{ID: "final_required_fields", Task: "All required application fields completed", Priority: SeverityHigh},
		{ID: "final_salary_expectations", Task: "Salary expectations researched and reasonable", Priority: SeverityMedium},
		{ID: "final_notice_period", Task: "Notice period accurately stated", Priority: SeverityMedium},
		{ID: "final_right_to_work", Task: "Right to work confirmed (if asked)", Priority: SeverityMedium},
		{ID: "final_file_names", Task: "File names are professional", Priority: SeverityMedium},
		{ID: "final_proofread", Task: "Final proofread completed - no errors", Priority: SeverityHigh},
	},
}

// GetChecklist returns a checklist with done flags applied from progress.
func GetChecklist(kind string, done map[string]bool) (*Checklist, error) {
	items, ok := checklists[kind]
	if !ok {
		return nil, fmt.Errorf("unknown checklist %q (want %s or %s)", kind, ChecklistPreApplication, ChecklistFinalSubmission)
	}
	c := &Checklist{Kind: kind, Items: make([]ChecklistItem, len(items))}
	copy(c.Items, items)
	completed := 0
	for i := range c.Items {
		if done[c.Items[i].ID] {
			c.Items[i].Done = true
			completed++
		}
	}
	c.Completion = engine.Round1(float64(completed) / float64(len(c.Items)) * 100)
	return c, nil
}

// ValidChecklistItem reports whether id belongs to the checklist kind.
func ValidChecklistItem(kind, id string) bool {
	for _, it := range checklists[kind] {
		if it.ID == id {
			return true
		}
	}
	return false
}
