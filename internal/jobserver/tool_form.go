package jobserver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- hiring_message ---

func (d *Deps) registerHiringMessage(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "hiring_message",
		Description: "Draft the 200-300 word message for an application form's optional \"why do you want to work here\" field. Names the job's skills that the résumé already shows, uses your achievement or résumé bullets as evidence, and reports the word count and whether it is in range.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.hiringMessage)
}

func (d *Deps) hiringMessage(ctx context.Context, _ *mcp.CallToolRequest, input HiringMessageToolInput) (*mcp.CallToolResult, *jobs.HiringMessage, error) {
	r, _, err := d.resume(input.Resume, input.ResumePath)
	if err != nil {
		return nil, nil, toolError("hiring_message", err)
	}
	jd, err := toolutil.LoadText(input.JobText, input.JobPath, "job description")
	if err != nil {
		return nil, nil, toolError("hiring_message", err)
	}
	m := jobs.WriteHiringMessage(d.analyze(ctx, jd), r, jobs.HiringMessageInput{
		CompanyName:   input.CompanyName,
		JobTitle:      input.JobTitle,
		CompanyDetail: input.CompanyDetail,
		Achievement:   input.Achievement,
		RoleAspect:    input.RoleAspect,
		Location:      input.Location,
		Availability:  input.Availability,
	})
	return nil, m, nil
}

// --- salary_estimate ---

func (d *Deps) registerSalaryEstimate(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "salary_estimate",
		Description: "Look up the reference salary range for a role level and location (UK or US data analytics), with a figure to enter in an application form's salary expectation field. Give the level and location, or a job description to infer them from the title, years of experience and location.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.salaryEstimate)
}

func (d *Deps) salaryEstimate(ctx context.Context, _ *mcp.CallToolRequest, input SalaryEstimateInput) (*mcp.CallToolResult, *SalaryEstimateOutput, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("salary_estimate", err)
	}
	out := &SalaryEstimateOutput{}
	level, location := input.Level, input.Location

	if input.JobText != "" || input.JobPath != "" || input.JobURL != "" {
		text, _, err := jobText(ctx, input.JobText, input.JobPath, input.JobURL)
		if err != nil {
			return nil, nil, toolError("salary_estimate", err)
		}
		a := d.analyze(ctx, text)
		if strings.TrimSpace(level) == "" {
			level = jobs.InferLevel(a)
			out.InferredLevel = level
		}
		if strings.TrimSpace(location) == "" {
			location = jobs.InferSalaryLocation(d.Salary, input.Country, a.Location)
			out.InferredLocation = location
		}
	}
	if strings.TrimSpace(level) == "" {
		level = "mid_level"
	}

	est, err := jobs.EstimateSalary(d.Salary, level, location, input.Country)
	if err != nil {
		return nil, nil, toolError("salary_estimate", err)
	}
	slog.Debug("salary estimate",
		slog.String("country", est.Country),
		slog.String("level", est.Level),
		slog.String("location", est.Location))
	out.Estimate = est
	return nil, out, nil
}
