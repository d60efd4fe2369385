package jobserver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/engine/tracker"
	"github.com/anatolykoptev/go_apply/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- cv_tailor ---

func (d *Deps) registerCVTailor(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "cv_tailor",
		Description: "Tailor a résumé to a job description without inventing experience: align the title when it is close, rephrase existing aliases to the job's exact keyword, add keywords you confirm to the skills line, mirror the job's section order, and add an Additional Information section. Only the job's own keywords and phrases are inserted. Returns the new text, coverage before/after and a log of every change. Optionally saves a CV version to a tracked application.",
	}, d.cvTailor)
}

func (d *Deps) cvTailor(ctx context.Context, _ *mcp.CallToolRequest, input CVTailorInput) (*mcp.CallToolResult, *CVTailorOutput, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("cv_tailor", err)
	}
	r, _, err := d.resume(input.Resume, input.ResumePath)
	if err != nil {
		return nil, nil, toolError("cv_tailor", err)
	}
	jd, err := toolutil.LoadText(input.JobText, input.JobPath, "job description")
	if err != nil {
		return nil, nil, toolError("cv_tailor", err)
	}
	a := d.analyze(ctx, jd)

	res := d.Tailorer.Tailor(r, a, jobs.TailorOptions{
		ConfirmedSkills: input.ConfirmedSkills,
		TargetCoverage:  input.TargetCoverage,
		AdditionalInfo:  input.AdditionalInfo,
	})
	engine.IncrTailorRuns()
	out := &CVTailorOutput{Result: res, Match: jobs.MatchAnalysis(a, res.Text)}

	if input.ApplicationID > 0 {
		store, err := d.store()
		if err != nil {
			return nil, nil, toolError("cv_tailor", err)
		}
		coverage := res.CoverageAfter
		out.VersionID, err = store.SaveCVVersion(ctx, tracker.CVVersion{
			ApplicationID:   input.ApplicationID,
			Content:         res.Text,
			KeywordCoverage: &coverage,
		})
		engine.TrackWrite(err)
		if err != nil {
			return nil, nil, toolError("cv_tailor", err)
		}
	}
	slog.Info("cv_tailor",
		slog.Float64("coverage_before", res.CoverageBefore),
		slog.Float64("coverage_after", res.CoverageAfter),
		slog.Int("injected", len(res.Injected)),
		slog.Int("skipped", len(res.Skipped)))
	return nil, out, nil
}

// --- cover_letter ---

func (d *Deps) registerCoverLetter(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "cover_letter",
		Description: "Draft a five-paragraph cover letter (hook, technical match, experience story, why this role, close) from a job description and résumé. Only skills the résumé already shows are mentioned, in the job's spelling; no metrics are invented. Reports word count against the 400-word limit. Optionally saves it to a tracked application.",
	}, d.coverLetter)
}

func (d *Deps) coverLetter(ctx context.Context, _ *mcp.CallToolRequest, input CoverLetterToolInput) (*mcp.CallToolResult, *CoverLetterOutput, error) {
	r, _, err := d.resume(input.Resume, input.ResumePath)
	if err != nil {
		return nil, nil, toolError("cover_letter", err)
	}
	jd, err := toolutil.LoadText(input.JobText, input.JobPath, "job description")
	if err != nil {
		return nil, nil, toolError("cover_letter", err)
	}
	cl := jobs.WriteCoverLetter(d.analyze(ctx, jd), r, jobs.CoverLetterInput{
		CompanyName:   input.CompanyName,
		JobTitle:      input.JobTitle,
		CompanyDetail: input.CompanyDetail,
		Achievement:   input.Achievement,
		RoleAspect:    input.RoleAspect,
		Location:      input.Location,
		Availability:  input.Availability,
	})
	engine.IncrCoverLetters()
	out := &CoverLetterOutput{Letter: cl}

	if input.ApplicationID > 0 {
		store, err := d.store()
		if err != nil {
			return nil, nil, toolError("cover_letter", err)
		}
		out.LetterID, err = store.SaveCoverLetter(ctx, tracker.CoverLetterRecord{
			ApplicationID: input.ApplicationID,
			Content:       cl.Text,
			WordCount:     cl.WordCount,
		})
		engine.TrackWrite(err)
		if err != nil {
			return nil, nil, toolError("cover_letter", err)
		}
	}
	return nil, out, nil
}

// --- resume_quality ---

func (d *Deps) registerResumeQuality(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resume_quality",
		Description: "Check a résumé against best practice: bullets without numbers, weak openers (\"responsible for\", \"helped with\"), title alignment with the target job (50% word overlap), and coverage of required skills. Returns a 0-100 quality score and an issue list by severity.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.resumeQuality)
}

func (d *Deps) resumeQuality(ctx context.Context, _ *mcp.CallToolRequest, input ResumeQualityInput) (*mcp.CallToolResult, *jobs.QualityReport, error) {
	r, _, err := d.resume(input.Resume, input.ResumePath)
	if err != nil {
		return nil, nil, toolError("resume_quality", err)
	}
	title, required := input.TargetTitle, input.RequiredSkills
	if strings.TrimSpace(input.JobText) != "" {
		a := d.analyze(ctx, input.JobText)
		if title == "" && a.JobTitle != jobs.UnknownTitle {
			title = a.JobTitle
		}
		if len(required) == 0 {
			required = a.RequiredSkills
		}
	}
	return nil, jobs.CheckQuality(r, title, required), nil
}

// --- star_answer ---

func (d *Deps) registerSTARAnswer(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "star_answer",
		Description: "Build an interview answer in STAR format (Situation, Task, Action, Result) from your notes. Weaves job keywords into the action, counts words per part and warns about missing parts, results without numbers, and answers over 300 words.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input jobs.STARInput) (*mcp.CallToolResult, *jobs.STARAnswer, error) {
		return nil, jobs.BuildSTAR(input), nil
	})
}

// --- star_template ---

func (d *Deps) registerSTARTemplate(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "star_template",
		Description: "Sentence starters for a STAR interview answer. Kinds: project, leadership, problem-solving.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input STARTemplateInput) (*mcp.CallToolResult, *STARTemplateOutput, error) {
		if err := toolutil.Validate(input); err != nil {
			return nil, nil, toolError("star_template", err)
		}
		kind := input.Kind
		if kind == "" {
			kind = jobs.STARProject
		}
		return nil, &STARTemplateOutput{Kind: kind, Template: jobs.STARTemplate(kind)}, nil
	})
}
