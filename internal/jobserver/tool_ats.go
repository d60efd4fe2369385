package jobserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/ats"
	"github.com/anatolykoptev/go_apply/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- ats_score ---

func (d *Deps) registerATSScore(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ats_score",
		Description: "Score a résumé file for ATS compatibility (0-100, grade A-F) by deduction: file format, layout (tables, multiple columns or text boxes), fonts, graphics, and text in headers/footers. Each category loses at most its weight. Inspects .docx and .pdf structure; other formats are judged on format alone. Returns every deduction with a recommendation.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.atsScore)
}

func (d *Deps) atsScore(_ context.Context, _ *mcp.CallToolRequest, input ATSScoreInput) (*mcp.CallToolResult, *ATSScoreOutput, error) {
	profile, err := d.profile(input)
	if err != nil {
		return nil, nil, toolError("ats_score", err)
	}
	rep := d.Scorer.Score(*profile)
	engine.IncrATSScores()

	out := &ATSScoreOutput{Report: &rep, Recommendations: rep.Recommendations()}
	if input.JobURL != "" {
		p := ats.DetectPlatform(input.JobURL)
		out.Platform = &p
	}
	slog.Info("ats_score",
		slog.String("format", profile.Format),
		slog.Int("total", rep.Total),
		slog.Int("deductions", len(rep.Deductions)))
	return nil, out, nil
}

// profile resolves the document metadata to score.
func (d *Deps) profile(input ATSScoreInput) (*ats.Profile, error) {
	switch {
	case input.Path != "":
		return ats.Inspect(input.Path)
	case input.Profile != nil:
		p := *input.Profile
		p.Format = strings.ToLower(strings.TrimSpace(p.Format))
		if p.Format != "" && !strings.HasPrefix(p.Format, ".") {
			p.Format = "." + p.Format
		}
		return &p, nil
	case strings.TrimSpace(input.Text) != "":
		return ats.InspectText(input.Text), nil
	}
	return nil, errors.New("path, profile or text is required")
}

// --- ats_detect ---

func (d *Deps) registerATSDetect(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ats_detect",
		Description: "Detect which applicant tracking system (Greenhouse, Workable, Lever, Ashby, Taleo, Workday) runs a job posting from its URL, optionally fetching the page to find embedded ATS scripts. Returns the platform, its scoring focus and application tips.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.atsDetect)
}

func (d *Deps) atsDetect(ctx context.Context, _ *mcp.CallToolRequest, input ATSDetectInput) (*mcp.CallToolResult, *ats.Platform, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("ats_detect", err)
	}
	p := ats.DetectPlatform(input.URL)
	if p.Detected || !input.Fetch {
		return nil, &p, nil
	}
	page, err := engine.FetchPage(ctx, input.URL)
	if err != nil {
		slog.Warn("ats_detect: fetch failed", slog.String("url", input.URL), slog.Any("error", err))
		return nil, &p, nil
	}
	p = ats.DetectPlatform(page.URL, page.Embeds...)
	return nil, &p, nil
}
