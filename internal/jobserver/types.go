package jobserver

import (
	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/ats"
	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/engine/tracker"
)

// --- job descriptions ---

// JDAnalyzeInput is the input for jd_analyze. Exactly one source is used:
// text, then path, then url.
type JDAnalyzeInput struct {
	Text string `json:"text,omitempty" jsonschema:"Job description text"`
	Path string `json:"path,omitempty" jsonschema:"Path to a .txt or .md job description file"`
	URL  string `json:"url,omitempty" jsonschema:"Job posting URL to fetch and analyse" validate:"omitempty,http_url"`
}

// JDAnalyzeOutput is the output of jd_analyze.
type JDAnalyzeOutput struct {
	Analysis *jobs.Analysis `json:"analysis"`
	Source   string         `json:"source"`
	Platform *ats.Platform  `json:"ats_platform,omitempty"`
}

// JDFetchInput is the input for jd_fetch.
type JDFetchInput struct {
	URL string `json:"url" jsonschema:"Job posting URL" validate:"required,http_url"`
}

// JDFetchOutput is a fetched posting.
type JDFetchOutput struct {
	Page      *engine.Page `json:"page"`
	Truncated bool         `json:"truncated"`
	Platform  ats.Platform `json:"ats_platform"`
}

// --- matching ---

// KeywordMatchInput is the input for keyword_match. Explicit keywords win over
// a job description.
type KeywordMatchInput struct {
	Resume     string   `json:"resume,omitempty" jsonschema:"Résumé text"`
	ResumePath string   `json:"resume_path,omitempty" jsonschema:"Path to a .txt or .md résumé"`
	Keywords   []string `json:"keywords,omitempty" jsonschema:"Job keywords to look for"`
	JobText    string   `json:"job_text,omitempty" jsonschema:"Job description text, analysed when keywords are not given"`
	JobPath    string   `json:"job_path,omitempty" jsonschema:"Path to a job description file"`
}

// JobRankInput is the input for job_rank.
type JobRankInput struct {
	Resume     string         `json:"resume,omitempty" jsonschema:"Résumé text"`
	ResumePath string         `json:"resume_path,omitempty" jsonschema:"Path to a .txt or .md résumé"`
	Postings   []jobs.Posting `json:"postings" jsonschema:"Postings with text, or with a url to fetch" validate:"required,min=1,max=30"`
	Limit      int            `json:"limit,omitempty" jsonschema:"Max results (default: all)" validate:"omitempty,gte=1"`
}

// JobRankOutput lists postings best match first.
type JobRankOutput struct {
	Results []jobs.RankedPosting `json:"results"`
	Skipped []string             `json:"skipped,omitempty"`
}

// --- ATS ---

// ATSScoreInput is the input for ats_score. A file path is inspected; a
// profile is scored as given; text is profiled as plain text.
type ATSScoreInput struct {
	Path    string       `json:"path,omitempty" jsonschema:"Path to the résumé file (.docx, .pdf, .txt, ...)"`
	Profile *ats.Profile `json:"profile,omitempty" jsonschema:"Document metadata to score directly"`
	Text    string       `json:"text,omitempty" jsonschema:"Plain résumé text"`
	JobURL  string       `json:"job_url,omitempty" jsonschema:"Posting URL, used to add platform-specific tips"`
}

// ATSScoreOutput is a scored résumé file.
type ATSScoreOutput struct {
	Report          *ats.Report   `json:"report"`
	Recommendations []string      `json:"recommendations"`
	Platform        *ats.Platform `json:"ats_platform,omitempty"`
}

// ATSDetectInput is the input for ats_detect.
type ATSDetectInput struct {
	URL   string `json:"url" jsonschema:"Job posting or careers page URL" validate:"required"`
	Fetch bool   `json:"fetch,omitempty" jsonschema:"Fetch the page and look for embedded ATS scripts when the URL alone is not enough"`
}

// --- résumé tools ---

// CVTailorInput is the input for cv_tailor.
type CVTailorInput struct {
	Resume          string   `json:"resume,omitempty" jsonschema:"Résumé text (Markdown or plain)"`
	ResumePath      string   `json:"resume_path,omitempty" jsonschema:"Path to a .txt or .md résumé"`
	JobText         string   `json:"job_text,omitempty" jsonschema:"Job description text"`
	JobPath         string   `json:"job_path,omitempty" jsonschema:"Path to a job description file"`
	ConfirmedSkills []string `json:"confirmed_skills,omitempty" jsonschema:"Keywords you have but the résumé does not show yet"`
	TargetCoverage  float64  `json:"target_coverage,omitempty" jsonschema:"Keyword coverage to aim for, 0-100 (default 85)" validate:"omitempty,gte=0,lte=100"`
	AdditionalInfo  []string `json:"additional_info,omitempty" jsonschema:"Lines for an Additional Information section"`
	ApplicationID   int64    `json:"application_id,omitempty" jsonschema:"Tracked application to save this CV version to"`
}

// CVTailorOutput is a tailored résumé.
type CVTailorOutput struct {
	Result    *jobs.TailorResult `json:"result"`
	Match     jobs.MatchReport   `json:"match"`
	VersionID string             `json:"version_id,omitempty"`
}

// CoverLetterToolInput is the input for cover_letter.
type CoverLetterToolInput struct {
	Resume        string `json:"resume,omitempty" jsonschema:"Résumé text"`
	ResumePath    string `json:"resume_path,omitempty" jsonschema:"Path to a .txt or .md résumé"`
	JobText       string `json:"job_text,omitempty" jsonschema:"Job description text"`
	JobPath       string `json:"job_path,omitempty" jsonschema:"Path to a job description file"`
	CompanyName   string `json:"company_name,omitempty" jsonschema:"Company name (default: detected from the posting)"`
	JobTitle      string `json:"job_title,omitempty" jsonschema:"Job title (default: detected from the posting)"`
	CompanyDetail string `json:"company_detail,omitempty" jsonschema:"Something specific about the company for the opening"`
	Achievement   string `json:"achievement,omitempty" jsonschema:"Achievement to tell as the experience story"`
	RoleAspect    string `json:"role_aspect,omitempty" jsonschema:"What draws you to this role"`
	Location      string `json:"location,omitempty" jsonschema:"Your location or relocation plans"`
	Availability  string `json:"availability,omitempty" jsonschema:"Start date or notice period"`
	ApplicationID int64  `json:"application_id,omitempty" jsonschema:"Tracked application to save the letter to"`
}

// CoverLetterOutput is a drafted letter.
type CoverLetterOutput struct {
	Letter   *jobs.CoverLetter `json:"letter"`
	LetterID string            `json:"letter_id,omitempty"`
}

// HiringMessageToolInput is the input for hiring_message.
type HiringMessageToolInput struct {
	Resume        string `json:"resume,omitempty" jsonschema:"Résumé text"`
	ResumePath    string `json:"resume_path,omitempty" jsonschema:"Path to a .txt or .md résumé"`
	JobText       string `json:"job_text,omitempty" jsonschema:"Job description text"`
	JobPath       string `json:"job_path,omitempty" jsonschema:"Path to a job description file"`
	CompanyName   string `json:"company_name,omitempty" jsonschema:"Company name (default: detected from the posting)"`
	JobTitle      string `json:"job_title,omitempty" jsonschema:"Job title (default: detected from the posting)"`
	CompanyDetail string `json:"company_detail,omitempty" jsonschema:"Something specific about the company"`
	Achievement   string `json:"achievement,omitempty" jsonschema:"Achievement to lead the evidence with"`
	RoleAspect    string `json:"role_aspect,omitempty" jsonschema:"What draws you to this role"`
	Location      string `json:"location,omitempty" jsonschema:"Your location or relocation plans"`
	Availability  string `json:"availability,omitempty" jsonschema:"Start date or notice period"`
}

// SalaryEstimateInput is the input for salary_estimate.
type SalaryEstimateInput struct {
	Level    string `json:"level,omitempty" jsonschema:"Role level: junior_graduate, mid_level, senior, lead or manager (default: inferred from the job, else mid_level)"`
	Location string `json:"location,omitempty" jsonschema:"Location key such as london, other_uk, major_cities or other_us (default: inferred, else the country default)"`
	Country  string `json:"country,omitempty" jsonschema:"Country: uk or us (default: uk)" validate:"omitempty,oneof=uk us UK US"`
	JobText  string `json:"job_text,omitempty" jsonschema:"Job description text to infer level and location from"`
	JobPath  string `json:"job_path,omitempty" jsonschema:"Path to a job description file"`
	JobURL   string `json:"job_url,omitempty" jsonschema:"Job posting URL to fetch" validate:"omitempty,http_url"`
}

// SalaryEstimateOutput is a reference range with what was inferred.
type SalaryEstimateOutput struct {
	Estimate         *jobs.SalaryEstimate `json:"estimate"`
	InferredLevel    string               `json:"inferred_level,omitempty"`
	InferredLocation string               `json:"inferred_location,omitempty"`
}

// ResumeQualityInput is the input for resume_quality.
type ResumeQualityInput struct {
	Resume         string   `json:"resume,omitempty" jsonschema:"Résumé text"`
	ResumePath     string   `json:"resume_path,omitempty" jsonschema:"Path to a .txt or .md résumé"`
	TargetTitle    string   `json:"target_title,omitempty" jsonschema:"Job title to align with"`
	RequiredSkills []string `json:"required_skills,omitempty" jsonschema:"Skills the résumé must show"`
	JobText        string   `json:"job_text,omitempty" jsonschema:"Job description used for the title and required skills when not given"`
}

// STARTemplateInput is the input for star_template.
type STARTemplateInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"Question type: project, leadership or problem-solving" validate:"omitempty,oneof=project leadership problem-solving"`
}

// STARTemplateOutput holds sentence starters for each STAR part.
type STARTemplateOutput struct {
	Kind     string         `json:"kind"`
	Template jobs.STARInput `json:"template"`
}

// --- pipeline ---

// PrepareInput is the input for application_prepare.
type PrepareInput struct {
	Resume          string   `json:"resume,omitempty" jsonschema:"Résumé text (Markdown or plain)"`
	ResumePath      string   `json:"resume_path,omitempty" jsonschema:"Path to a .txt or .md résumé"`
	JobText         string   `json:"job_text,omitempty" jsonschema:"Job description text"`
	JobPath         string   `json:"job_path,omitempty" jsonschema:"Path to a job description file"`
	JobURL          string   `json:"job_url,omitempty" jsonschema:"Posting URL; fetched when no job text is given" validate:"omitempty,http_url"`
	CVFilePath      string   `json:"cv_file_path,omitempty" jsonschema:"Résumé file (.docx/.pdf) to check for ATS compatibility"`
	CompanyName     string   `json:"company_name,omitempty" jsonschema:"Company name (default: detected)"`
	ConfirmedSkills []string `json:"confirmed_skills,omitempty" jsonschema:"Keywords you have but the résumé does not show yet"`
	TargetCoverage  float64  `json:"target_coverage,omitempty" jsonschema:"Keyword coverage to aim for, 0-100" validate:"omitempty,gte=0,lte=100"`
	AdditionalInfo  []string `json:"additional_info,omitempty" jsonschema:"Lines for an Additional Information section"`
	Achievement     string   `json:"achievement,omitempty" jsonschema:"Achievement for the cover letter story"`
	RoleAspect      string   `json:"role_aspect,omitempty" jsonschema:"What draws you to this role"`
	Location        string   `json:"location,omitempty" jsonschema:"Your location"`
	Availability    string   `json:"availability,omitempty" jsonschema:"Start date or notice period"`
	Track           bool     `json:"track,omitempty" jsonschema:"Save the application, posting, CV and letter to the tracker"`
	Status          string   `json:"status,omitempty" jsonschema:"Tracker status when track is set (default: saved)"`
}

// PrepareOutput is everything produced for one application.
type PrepareOutput struct {
	Analysis      *jobs.Analysis      `json:"analysis"`
	MatchBefore   jobs.MatchReport    `json:"match_before"`
	MatchAfter    jobs.MatchReport    `json:"match_after"`
	Tailor        *jobs.TailorResult  `json:"tailor"`
	CoverLetter   *jobs.CoverLetter   `json:"cover_letter"`
	Quality       *jobs.QualityReport `json:"quality"`
	ATS           *ats.Report         `json:"ats,omitempty"`
	Platform      *ats.Platform       `json:"ats_platform,omitempty"`
	ApplicationID int64               `json:"application_id,omitempty"`
	VersionID     string              `json:"version_id,omitempty"`
	LetterID      string              `json:"letter_id,omitempty"`
	Files         []string            `json:"files,omitempty"`
	Warnings      []string            `json:"warnings,omitempty"`
}

// --- tracker ---

// ApplicationIDInput selects one tracked application.
type ApplicationIDInput struct {
	ID int64 `json:"id" jsonschema:"Application ID from application_list" validate:"required,gt=0"`
}

// ApplicationUpdateInput is the input for application_update.
type ApplicationUpdateInput struct {
	ID            int64   `json:"id" jsonschema:"Application ID" validate:"required,gt=0"`
	Status        *string `json:"status,omitempty" jsonschema:"New status: saved, applied, screening, interview, offer, rejected, withdrawn"`
	Notes         *string `json:"notes,omitempty" jsonschema:"Replace the notes"`
	FollowUpDate  *string `json:"followup_date,omitempty" jsonschema:"Follow-up date YYYY-MM-DD, empty to clear"`
	InterviewDate *string `json:"interview_date,omitempty" jsonschema:"Interview date YYYY-MM-DD, empty to clear"`
}

// ApplicationDetail is an application with what was produced for it.
type ApplicationDetail struct {
	Application    *tracker.Application    `json:"application"`
	JobDescription *tracker.JobDescription `json:"job_description,omitempty"`
	Keywords       []tracker.Keyword       `json:"keywords,omitempty"`
	CVVersions     []tracker.CVVersion     `json:"cv_versions,omitempty"`
}

// ApplicationListOutput is a page of applications.
type ApplicationListOutput struct {
	Applications []tracker.Application `json:"applications"`
	Total        int                   `json:"total"`
}

// DeleteOutput confirms a deletion.
type DeleteOutput struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// StatsInput is the input for application_stats.
type StatsInput struct {
	Weeks int `json:"weeks,omitempty" jsonschema:"Weeks of trend to include (default 4, max 52)" validate:"omitempty,gte=1,lte=52"`
}

// StatsOutput is pipeline statistics with the weekly trend.
type StatsOutput struct {
	Stats *tracker.Stats     `json:"stats"`
	Trend []tracker.WeekStat `json:"trend"`
}

// FollowUpsInput is the (empty) input for application_followups.
type FollowUpsInput struct{}

// FollowUpsOutput lists applications due for a follow-up.
type FollowUpsOutput struct {
	Due   []tracker.Application `json:"due"`
	Count int                   `json:"count"`
}

// ExportInput is the input for application_export.
type ExportInput struct {
	FileName string `json:"file_name,omitempty" jsonschema:"File name or absolute path (default applications_<date>.xlsx in the data directory)"`
}

// ExportOutput reports the written workbook.
type ExportOutput struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// CVVersionsOutput lists the CVs generated for an application.
type CVVersionsOutput struct {
	Versions []tracker.CVVersion `json:"versions"`
}

// ChecklistInput is the input for checklist_get.
type ChecklistInput struct {
	Kind          string `json:"kind" jsonschema:"pre_application or final_submission" validate:"required,oneof=pre_application final_submission"`
	ApplicationID int64  `json:"application_id,omitempty" jsonschema:"Application whose progress to show (default: global progress)"`
}

// ChecklistMarkInput is the input for checklist_mark.
type ChecklistMarkInput struct {
	Kind          string `json:"kind" jsonschema:"pre_application or final_submission" validate:"required,oneof=pre_application final_submission"`
	ItemID        string `json:"item_id" jsonschema:"Item ID from checklist_get" validate:"required"`
	ApplicationID int64  `json:"application_id,omitempty" jsonschema:"Application to record progress for (default: global)"`
	Done          *bool  `json:"done,omitempty" jsonschema:"Mark done (default true) or not done"`
}
