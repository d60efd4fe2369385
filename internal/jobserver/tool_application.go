package jobserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/ats"
	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/engine/tracker"
	"github.com/anatolykoptev/go_apply/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// prepareSlowThreshold is when application_prepare logs a slow-operation warning.
const prepareSlowThreshold = 5 * time.Second

func (d *Deps) registerApplicationPrepare(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_prepare",
		Description: "Prepare a full application in one call: analyse the job description (text, file or URL), match the résumé, tailor it, draft a cover letter, check résumé quality, optionally score the résumé file for ATS compatibility, and optionally save everything to the tracker (application, posting with keywords, CV version and letter written to the data directory).",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input PrepareInput) (*mcp.CallToolResult, *PrepareOutput, error) {
		var out *PrepareOutput
		err := engine.TrackOperation(ctx, "application_prepare", prepareSlowThreshold, func(ctx context.Context) error {
			var err error
			out, err = d.Prepare(ctx, input)
			return err
		})
		if err != nil {
			return nil, nil, toolError("application_prepare", err)
		}
		return nil, out, nil
	})
}

// Prepare runs the whole application pipeline for one posting.
func (d *Deps) Prepare(ctx context.Context, input PrepareInput) (*PrepareOutput, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, err
	}
	r, resumeText, err := d.resume(input.Resume, input.ResumePath)
	if err != nil {
		return nil, err
	}
	jd, page, err := jobText(ctx, input.JobText, input.JobPath, input.JobURL)
	if err != nil {
		return nil, err
	}

	a := d.analyze(ctx, jd)
	out := &PrepareOutput{Analysis: a}
	if a.LowConfidence {
		out.Warnings = append(out.Warnings, "job description analysis has low confidence; review the keywords before applying")
	}

	out.MatchBefore = jobs.MatchAnalysis(a, resumeText)
	engine.IncrMatches()

	res := d.Tailorer.Tailor(r, a, jobs.TailorOptions{
		ConfirmedSkills: input.ConfirmedSkills,
		TargetCoverage:  input.TargetCoverage,
		AdditionalInfo:  input.AdditionalInfo,
	})
	engine.IncrTailorRuns()
	out.Tailor = res
	out.MatchAfter = jobs.MatchAnalysis(a, res.Text)
	if !res.TargetReached {
		out.Warnings = append(out.Warnings, fmt.Sprintf("coverage %.1f%% is below the %.0f%% target; see skipped keywords", res.CoverageAfter, res.TargetCoverage))
	}

	out.CoverLetter = jobs.WriteCoverLetter(a, res.Resume, jobs.CoverLetterInput{
		CompanyName:  input.CompanyName,
		Achievement:  input.Achievement,
		RoleAspect:   input.RoleAspect,
		Location:     input.Location,
		Availability: input.Availability,
	})
	engine.IncrCoverLetters()

	title := a.JobTitle
	if title == jobs.UnknownTitle {
		title = ""
	}
	out.Quality = jobs.CheckQuality(res.Resume, title, a.RequiredSkills)

	if input.CVFilePath != "" {
		profile, err := ats.Inspect(input.CVFilePath)
		if err != nil {
			out.Warnings = append(out.Warnings, "ATS check skipped: "+err.Error())
		} else {
			rep := d.Scorer.Score(*profile)
			engine.IncrATSScores()
			out.ATS = &rep
		}
	}

	pageURL, embeds := input.JobURL, []string(nil)
	if page != nil {
		pageURL, embeds = page.URL, page.Embeds
	}
	if pageURL != "" {
		if p := ats.DetectPlatform(pageURL, embeds...); p.Detected {
			out.Platform = &p
		}
	}

	if input.Track {
		if err := d.track(ctx, input, jd, out); err != nil {
			return nil, err
		}
	}
	slog.Info("application_prepare",
		slog.String("title", a.JobTitle),
		slog.Float64("coverage_before", out.MatchBefore.Coverage),
		slog.Float64("coverage_after", out.MatchAfter.Coverage),
		slog.Int("quality", out.Quality.Score),
		slog.Int64("application_id", out.ApplicationID))
	return out, nil
}

// track stores the application with its posting, CV version and letter.
// The CV and letter are also written to the exports directory. The
// application and posting are written together; a later failure removes the
// application again so no partial record is left.
func (d *Deps) track(ctx context.Context, input PrepareInput, jd string, out *PrepareOutput) error {
	store, err := d.store()
	if err != nil {
		return err
	}
	a := out.Analysis
	status := input.Status
	if status == "" {
		status = string(tracker.StatusSaved)
	}
	na := tracker.NewApplication{
		Company:  firstNonEmpty(input.CompanyName, a.Company, "Unknown Company"),
		JobTitle: a.JobTitle,
		Status:   status,
		URL:      input.JobURL,
		Location: a.Location,
	}
	if out.Platform != nil {
		na.ATSPlatform = out.Platform.Name
	}
	terms := make([]string, 0, len(a.Keywords))
	for _, k := range a.Keywords {
		terms = append(terms, k.Term)
	}
	inCV := map[string]bool{}
	for _, m := range jobs.MatchKeywords(terms, out.Tailor.Text).Matched {
		inCV[strings.ToLower(m)] = true
	}
	keywords := make([]tracker.Keyword, 0, len(a.Keywords))
	for _, k := range a.Keywords {
		keywords = append(keywords, tracker.Keyword{
			Term:         k.Term,
			Category:     k.Category,
			Frequency:    k.Frequency,
			Rank:         k.Rank,
			IncludedInCV: inCV[strings.ToLower(k.Term)],
		})
	}
	jdRecord := tracker.JobDescription{Text: jd, URL: input.JobURL, Location: a.Location}
	if out.Platform != nil {
		jdRecord.ATSSystem = out.Platform.Name
	}
	app, _, err := store.AddWithPosting(ctx, na, jdRecord, keywords)
	engine.TrackWrite(err)
	if err != nil {
		return err
	}
	if err := saveDocuments(ctx, store, app, out); err != nil {
		if derr := store.Delete(ctx, app.ID); derr != nil {
			slog.Warn("application_prepare: remove partial application failed",
				slog.Int64("application_id", app.ID), slog.Any("error", derr))
		}
		return err
	}
	out.ApplicationID = app.ID
	return nil
}

// saveDocuments writes the CV and letter exports and records both versions.
func saveDocuments(ctx context.Context, store *tracker.Store, app *tracker.Application, out *PrepareOutput) error {
	base := fmt.Sprintf("%d_%s", app.ID, slug(app.Company))
	cvPath := engine.Cfg.ExportPath("cv_" + base + ".md")
	letterPath := engine.Cfg.ExportPath("cover_letter_" + base + ".md")
	for _, f := range []struct{ path, content string }{
		{cvPath, out.Tailor.Text},
		{letterPath, out.CoverLetter.Text},
	} {
		if err := writeExport(f.path, f.content); err != nil {
			slog.Warn("application_prepare: write export failed", slog.String("path", f.path), slog.Any("error", err))
			continue
		}
		out.Files = append(out.Files, f.path)
	}

	cv := tracker.CVVersion{ApplicationID: app.ID, FilePath: cvPath, Content: out.Tailor.Text}
	coverage := out.MatchAfter.Coverage
	cv.KeywordCoverage = &coverage
	if out.ATS != nil {
		score := out.ATS.Total
		cv.ATSScore = &score
	}
	var err error
	out.VersionID, err = store.SaveCVVersion(ctx, cv)
	engine.TrackWrite(err)
	if err != nil {
		return err
	}
	out.LetterID, err = store.SaveCoverLetter(ctx, tracker.CoverLetterRecord{
		ApplicationID: app.ID,
		FilePath:      letterPath,
		Content:       out.CoverLetter.Text,
		WordCount:     out.CoverLetter.WordCount,
	})
	engine.TrackWrite(err)
	return err
}

func writeExport(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

// slug reduces a company name to a file-name-safe form.
func slug(s string) string {
	var sb strings.Builder
	underscore := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && sb.Len() > 0 {
			sb.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(sb.String(), "_")
	if out == "" {
		return "company"
	}
	return engine.TruncateRunes(out, 40, "")
}
