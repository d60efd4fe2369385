package jobserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/ats"
	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- jd_analyze ---

func (d *Deps) registerJDAnalyze(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "jd_analyze",
		Description: "Analyse a job description: job title, company, required and preferred skills, tools, soft skills, ranked keywords, verbatim phrases worth mirroring, section order, company values and certifications. Give the text, a .txt/.md file path, or a posting URL to fetch.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.jdAnalyze)
}

func (d *Deps) jdAnalyze(ctx context.Context, _ *mcp.CallToolRequest, input JDAnalyzeInput) (*mcp.CallToolResult, *JDAnalyzeOutput, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("jd_analyze", err)
	}
	text, page, err := jobText(ctx, input.Text, input.Path, input.URL)
	if err != nil {
		return nil, nil, toolError("jd_analyze", err)
	}
	out := &JDAnalyzeOutput{Analysis: d.analyze(ctx, text), Source: "text"}
	switch {
	case page != nil:
		out.Source = "url"
		p := ats.DetectPlatform(page.URL, page.Embeds...)
		out.Platform = &p
	case input.Path != "" && strings.TrimSpace(input.Text) == "":
		out.Source = "file"
	}
	slog.Info("jd_analyze",
		slog.String("source", out.Source),
		slog.String("title", out.Analysis.JobTitle),
		slog.Int("keywords", len(out.Analysis.Keywords)),
		slog.Bool("low_confidence", out.Analysis.LowConfidence))
	return nil, out, nil
}

// --- jd_fetch ---

func (d *Deps) registerJDFetch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "jd_fetch",
		Description: "Fetch a job posting URL and return its main content as Markdown (navigation, scripts and footers removed) with the detected ATS platform. Rate limited and cached.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.jdFetch)
}

func (d *Deps) jdFetch(ctx context.Context, _ *mcp.CallToolRequest, input JDFetchInput) (*mcp.CallToolResult, *JDFetchOutput, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("jd_fetch", err)
	}
	page, err := engine.FetchPage(ctx, input.URL)
	if err != nil {
		return nil, nil, toolError("jd_fetch", err)
	}
	out := &JDFetchOutput{Page: page, Platform: ats.DetectPlatform(page.URL, page.Embeds...)}
	if capped := capContent(page.Markdown); capped != page.Markdown {
		p := *page
		p.Markdown, out.Truncated = capped, true
		out.Page = &p
	}
	return nil, out, nil
}

// --- keyword_match ---

func (d *Deps) registerKeywordMatch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "keyword_match",
		Description: "Check which job keywords a résumé contains. Matching is case-insensitive and stem-based; multi-word keywords must appear together. Returns coverage % (1 decimal), matched and missing keywords in job order, and, when a job description is given, per-category coverage with placement advice.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.keywordMatch)
}

func (d *Deps) keywordMatch(ctx context.Context, _ *mcp.CallToolRequest, input KeywordMatchInput) (*mcp.CallToolResult, *jobs.MatchReport, error) {
	_, resumeText, err := d.resume(input.Resume, input.ResumePath)
	if err != nil {
		return nil, nil, toolError("keyword_match", err)
	}
	engine.IncrMatches()

	if len(input.Keywords) > 0 {
		rep := jobs.MatchReport{MatchResult: jobs.MatchKeywords(input.Keywords, resumeText)}
		rep.Grade = jobs.CoverageGrade(rep.Coverage)
		return nil, &rep, nil
	}
	if strings.TrimSpace(input.JobText) == "" && input.JobPath == "" {
		return nil, nil, toolError("keyword_match", errors.New("keywords or a job description is required"))
	}
	text, err := toolutil.LoadText(input.JobText, input.JobPath, "job description")
	if err != nil {
		return nil, nil, toolError("keyword_match", err)
	}
	rep := jobs.MatchAnalysis(d.analyze(ctx, text), resumeText)
	return nil, &rep, nil
}

// --- job_rank ---

func (d *Deps) registerJobRank(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "job_rank",
		Description: "Rank several job postings against one résumé by word overlap (Jaccard, 0-100). Postings may carry their text or just a URL to fetch. Returns postings best first with shared and missing terms.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.jobRank)
}

func (d *Deps) jobRank(ctx context.Context, _ *mcp.CallToolRequest, input JobRankInput) (*mcp.CallToolResult, *JobRankOutput, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("job_rank", err)
	}
	_, resumeText, err := d.resume(input.Resume, input.ResumePath)
	if err != nil {
		return nil, nil, toolError("job_rank", err)
	}

	var urls []string
	for _, p := range input.Postings {
		if strings.TrimSpace(p.Text) == "" && p.URL != "" {
			urls = append(urls, p.URL)
		}
	}
	fetched := toolutil.FetchPagesParallel(ctx, urls, nil)

	out := &JobRankOutput{}
	postings := make([]jobs.Posting, 0, len(input.Postings))
	for _, p := range input.Postings {
		if strings.TrimSpace(p.Text) == "" {
			p.Text = capContent(fetched[p.URL])
		}
		if strings.TrimSpace(p.Text) == "" {
			out.Skipped = append(out.Skipped, firstNonEmpty(p.URL, p.Title, "posting without text"))
			continue
		}
		postings = append(postings, p)
	}
	if len(fetched) < len(urls) {
		slog.Warn("job_rank: some postings could not be fetched",
			slog.Int("requested", len(urls)), slog.Int("fetched", len(fetched)))
	}

	out.Results = jobs.RankPostings(resumeText, postings)
	if input.Limit > 0 && len(out.Results) > input.Limit {
		out.Results = out.Results[:input.Limit]
	}
	for i := range out.Results {
		out.Results[i].Text = engine.TruncateAtWord(out.Results[i].Text, 300)
	}
	engine.IncrMatches()
	return nil, out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
