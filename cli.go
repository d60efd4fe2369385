package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/ats"
	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/jobserver"
	"github.com/anatolykoptev/go_apply/internal/toolutil"
)

var jsonOutput bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "go_apply",
		Short:        "Job application assistant: JD analysis, résumé tailoring, ATS scoring and tracking",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the MCP server (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		newAnalyzeCmd(),
		newMatchCmd(),
		newATSCmd(),
		newTailorCmd(),
		newSalaryCmd(),
		newExportCmd(),
	)
	return root
}

func newAnalyzeCmd() *cobra.Command {
	var jobPath, jobURL string
	cmd := &cobra.Command{
		Use:   "analyze [job text]",
		Short: "Extract title, skills and ranked keywords from a job description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			jd, err := loadJob(cmd.Context(), argText(args), jobPath, jobURL)
			if err != nil {
				return err
			}
			a := d.Extractor.Analyze(jd)
			engine.IncrAnalyses()
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), a)
			}
			printAnalysis(cmd.OutOrStdout(), a)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobPath, "job", "", "Job description file (.txt or .md)")
	cmd.Flags().StringVar(&jobURL, "url", "", "Job posting URL to fetch")
	return cmd
}

func newMatchCmd() *cobra.Command {
	var resumePath, jobPath, jobURL string
	var keywords []string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Report which job keywords a résumé covers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, _, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			resume, err := toolutil.LoadText("", resumePath, "résumé")
			if err != nil {
				return err
			}
			var rep jobs.MatchReport
			if len(keywords) > 0 {
				rep.MatchResult = jobs.MatchKeywords(keywords, resume)
				rep.Grade = jobs.CoverageGrade(rep.Coverage)
			} else {
				jd, err := loadJob(cmd.Context(), "", jobPath, jobURL)
				if err != nil {
					return err
				}
				rep = jobs.MatchAnalysis(d.Extractor.Analyze(jd), resume)
			}
			engine.IncrMatches()
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			printMatch(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&resumePath, "resume", "", "Résumé file (.txt or .md)")
	cmd.Flags().StringVar(&jobPath, "job", "", "Job description file")
	cmd.Flags().StringVar(&jobURL, "url", "", "Job posting URL to fetch")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Keywords to look for instead of analysing a job description")
	_ = cmd.MarkFlagRequired("resume")
	return cmd
}

func newATSCmd() *cobra.Command {
	var jobURL string
	cmd := &cobra.Command{
		Use:   "ats <resume file>",
		Short: "Score a résumé file (.docx, .pdf, .txt, ...) for ATS compatibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			profile, err := ats.Inspect(args[0])
			if err != nil {
				return err
			}
			rep := d.Scorer.Score(*profile)
			engine.IncrATSScores()
			var platform *ats.Platform
			if jobURL != "" {
				p := ats.DetectPlatform(jobURL)
				platform = &p
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), struct {
					Report   *ats.Report   `json:"report"`
					Platform *ats.Platform `json:"platform,omitempty"`
				}{&rep, platform})
			}
			printATS(cmd.OutOrStdout(), &rep, platform)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobURL, "job-url", "", "Posting URL, to add platform-specific tips")
	return cmd
}

func newTailorCmd() *cobra.Command {
	var resumePath, jobPath, jobURL, outPath string
	var confirmed, additional []string
	var target float64
	cmd := &cobra.Command{
		Use:   "tailor",
		Short: "Tailor a résumé to a job description and print (or save) the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, _, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			resume, err := toolutil.LoadText("", resumePath, "résumé")
			if err != nil {
				return err
			}
			jd, err := loadJob(cmd.Context(), "", jobPath, jobURL)
			if err != nil {
				return err
			}
			res := d.Tailorer.Tailor(d.Parser.Parse(resume), d.Extractor.Analyze(jd), jobs.TailorOptions{
				ConfirmedSkills: confirmed,
				TargetCoverage:  target,
				AdditionalInfo:  additional,
			})
			engine.IncrTailorRuns()
			if outPath != "" {
				if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
					return err
				}
				if err := os.WriteFile(outPath, []byte(res.Text), 0o600); err != nil {
					return err
				}
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printTailor(cmd.OutOrStdout(), res, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&resumePath, "resume", "", "Résumé file (.txt or .md)")
	cmd.Flags().StringVar(&jobPath, "job", "", "Job description file")
	cmd.Flags().StringVar(&jobURL, "url", "", "Job posting URL to fetch")
	cmd.Flags().StringSliceVar(&confirmed, "confirm", nil, "Skills you have that the résumé does not show yet")
	cmd.Flags().Float64Var(&target, "target", 0, "Target keyword coverage in percent (default 85)")
	cmd.Flags().StringArrayVar(&additional, "additional", nil, "Line for the Additional Information section (repeatable)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the tailored résumé to this file")
	_ = cmd.MarkFlagRequired("resume")
	return cmd
}

func newSalaryCmd() *cobra.Command {
	var level, location, country, jobPath string
	cmd := &cobra.Command{
		Use:   "salary",
		Short: "Show the reference salary range for a role level and location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, _, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			if jobPath != "" {
				jd, err := toolutil.LoadText("", jobPath, "job description")
				if err != nil {
					return err
				}
				a := d.Extractor.Analyze(jd)
				if level == "" {
					level = jobs.InferLevel(a)
				}
				if location == "" {
					location = jobs.InferSalaryLocation(d.Salary, country, a.Location)
				}
			}
			if level == "" {
				level = "mid_level"
			}
			est, err := jobs.EstimateSalary(d.Salary, level, location, country)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), est)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s, %s (%s): %s\n", color.CyanString("Salary"), est.Level, est.Location, est.Currency, est.Range)
			fmt.Fprintf(w, "  Expectation: %s\n", est.Expectation)
			for _, n := range est.Notes {
				fmt.Fprintf(w, "  %s %s\n", color.YellowString("!"), n)
			}
			fmt.Fprintf(w, "  Source: %s\n", est.Source)
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "Role level: junior_graduate, mid_level, senior, lead or manager")
	cmd.Flags().StringVar(&location, "location", "", "Location key, e.g. london or other_uk")
	cmd.Flags().StringVar(&country, "country", jobs.DefaultSalaryCountry, "Country: uk or us")
	cmd.Flags().StringVar(&jobPath, "job", "", "Job description file to infer level and location from")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tracked applications to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, closeStore, err := setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeStore()
			if d.Store == nil {
				return errors.New("application tracker is not available")
			}
			path := outPath
			if path == "" {
				path = engine.Cfg.ExportPath("applications.xlsx")
			}
			rows, err := d.Store.ExportExcel(cmd.Context(), path)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), jobserver.ExportOutput{Path: path, Rows: rows})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %d applications to %s\n", color.GreenString("✓"), rows, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Workbook path (default DATA_DIR/exports/applications.xlsx)")
	return cmd
}

// loadJob resolves a job description from text, a file or a URL.
func loadJob(ctx context.Context, text, path, pageURL string) (string, error) {
	if text == "" && path == "" && pageURL != "" {
		page, err := engine.FetchPage(ctx, pageURL)
		if err != nil {
			return "", err
		}
		return engine.TruncateRunes(page.Markdown, engine.Cfg.MaxContentChars, ""), nil
	}
	return toolutil.LoadText(text, path, "job description")
}

func argText(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	heading = color.New(color.Bold, color.Underline)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
)

func printAnalysis(w io.Writer, a *jobs.Analysis) {
	heading.Fprintln(w, "Job description")
	fmt.Fprintf(w, "Title:    %s\n", a.JobTitle)
	if a.Company != "" {
		fmt.Fprintf(w, "Company:  %s\n", a.Company)
	}
	if a.Location != "" {
		fmt.Fprintf(w, "Location: %s\n", a.Location)
	}
	printList(w, "Required", a.RequiredSkills)
	printList(w, "Preferred", a.PreferredSkills)
	printList(w, "Tools", a.Tools)
	printList(w, "Soft skills", a.SoftSkills)
	if len(a.VerbatimPhrases) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Phrases to mirror")
		for _, p := range a.VerbatimPhrases {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
	if a.LowConfidence {
		fmt.Fprintf(w, "\n%s Low confidence: few keywords were found\n", warn.Sprint("⚠"))
	}
}

func printMatch(w io.Writer, rep jobs.MatchReport) {
	heading.Fprintln(w, "Keyword coverage")
	fmt.Fprintf(w, "Coverage: %s of %d keywords (grade %s)\n", gradeColor(rep.Coverage).Sprintf("%.1f%%", rep.Coverage), rep.Total, rep.Grade)
	for _, c := range rep.ByCategory {
		fmt.Fprintf(w, "  %-10s %5.1f%%  (%d/%d)\n", c.Category, c.Coverage, c.Matched, c.Total)
	}
	for _, m := range rep.Matched {
		fmt.Fprintf(w, "  %s %s\n", good.Sprint("✓"), m)
	}
	for _, m := range rep.Missing {
		fmt.Fprintf(w, "  %s %s\n", bad.Sprint("✗"), m)
	}
	for _, p := range rep.Placements {
		fmt.Fprintf(w, "  → add %q to %s\n", p.Keyword, p.Section)
	}
}

func printATS(w io.Writer, rep *ats.Report, platform *ats.Platform) {
	heading.Fprintln(w, "ATS compatibility")
	fmt.Fprintf(w, "Score: %s  grade %s (%s)\n", gradeColor(float64(rep.Total)).Sprintf("%d/100", rep.Total), rep.Grade, rep.GradeLabel)
	for _, d := range rep.Deductions {
		fmt.Fprintf(w, "  %s -%d %s: %s\n", severityColor(d.Severity).Sprint("●"), d.Applied, d.Category, d.Issue)
	}
	if recs := rep.Recommendations(); len(recs) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Recommendations")
		for _, r := range recs {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
	if platform != nil && platform.Detected {
		fmt.Fprintf(w, "\nPlatform: %s (%s)\n", platform.Name, platform.Focus)
		for _, t := range platform.Tips {
			fmt.Fprintf(w, "  - %s\n", t)
		}
	}
}

func printTailor(w io.Writer, res *jobs.TailorResult, outPath string) {
	heading.Fprintln(w, "Tailoring")
	fmt.Fprintf(w, "Coverage: %.1f%% → %s (target %.0f%%)\n",
		res.CoverageBefore, gradeColor(res.CoverageAfter).Sprintf("%.1f%%", res.CoverageAfter), res.TargetCoverage)
	for _, op := range res.Operations {
		fmt.Fprintf(w, "  %s %s\n", good.Sprint("+"), op.Detail)
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  %s %s: %s\n", warn.Sprint("-"), s.Keyword, s.Reason)
	}
	if outPath != "" {
		fmt.Fprintf(w, "\n%s Saved to %s\n", good.Sprint("✓"), outPath)
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, res.Text)
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%-12s %s\n", label+":", strings.Join(items, ", "))
}

func gradeColor(score float64) *color.Color {
	switch {
	case score >= 80:
		return good
	case score >= 60:
		return warn
	}
	return bad
}

func severityColor(s string) *color.Color {
	switch s {
	case ats.SeverityHigh:
		return bad
	case ats.SeverityMedium:
		return warn
	}
	return good
}
