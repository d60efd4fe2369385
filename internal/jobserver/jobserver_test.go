package jobserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/ats"
	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/engine/rules"
	"github.com/anatolykoptev/go_apply/internal/engine/tracker"
)

const testJD = `Senior Data Analyst - Acme Analytics

Responsibilities
- Build dashboards in Tableau and Power BI for commercial stakeholders across the business
- Write SQL queries and Python scripts to automate weekly reporting and data pipelines

Requirements
- 3+ years of experience with SQL and Python in a commercial analytics environment
- Experience with dashboards and data visualization

Nice to have
- Experience with Airflow or dbt for scheduled data pipelines
Location: London, UK (Hybrid)`

const testResume = `Jane Doe
Data Analyst
jane@example.com

Summary
Analyst with five years of experience turning data into decisions.

Skills
Python, SQL, Excel

Experience
Acme Retail, Data Analyst, 2019-2024
- Built weekly sales dashboards in Tableau used by 40 managers
- Automated reporting with Postgres and Python, saving 10 hours a week

Education
BSc Mathematics, University of Leeds`

func testDeps(t *testing.T, withStore bool) *Deps {
	t.Helper()
	engine.Init(engine.Config{DataDir: t.TempDir()})

	var store *tracker.Store
	if withStore {
		var err error
		store, err = tracker.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tracker.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
	}
	d, err := NewDeps(rules.DefaultATSRules(), rules.DefaultVocabulary(), store)
	require.NoError(t, err)
	return d
}

func TestRegisterTools(t *testing.T) {
	d := testDeps(t, false)
	server := mcp.NewServer(&mcp.Implementation{Name: "go_apply", Version: "test"}, nil)
	assert.Equal(t, 25, RegisterTools(server, d))
}

func TestJDAnalyze_Text(t *testing.T) {
	d := testDeps(t, false)
	_, out, err := d.jdAnalyze(context.Background(), nil, JDAnalyzeInput{Text: testJD})
	require.NoError(t, err)

	assert.Equal(t, "text", out.Source)
	assert.Equal(t, "Senior Data Analyst", out.Analysis.JobTitle)
	assert.Subset(t, out.Analysis.RequiredSkills, []string{"SQL", "Python"})
	assert.Nil(t, out.Platform)
}

func TestJDAnalyze_File(t *testing.T) {
	d := testDeps(t, false)
	path := filepath.Join(t.TempDir(), "jd.md")
	require.NoError(t, os.WriteFile(path, []byte(testJD), 0o600))

	_, out, err := d.jdAnalyze(context.Background(), nil, JDAnalyzeInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "file", out.Source)
}

func TestJDAnalyze_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Senior Data Analyst</title></head><body><main>
<h1>Senior Data Analyst - Acme Analytics</h1>
<h2>Requirements</h2><ul><li>3+ years of experience with SQL and Python</li></ul>
</main><script src="https://boards.greenhouse.io/embed/job_board/js?for=acme"></script></body></html>`))
	}))
	defer srv.Close()

	d := testDeps(t, false)
	_, out, err := d.jdAnalyze(context.Background(), nil, JDAnalyzeInput{URL: srv.URL})
	require.NoError(t, err)

	assert.Equal(t, "url", out.Source)
	assert.Subset(t, out.Analysis.RequiredSkills, []string{"SQL", "Python"})
	require.NotNil(t, out.Platform)
}

func TestJDAnalyze_NoInput(t *testing.T) {
	d := testDeps(t, false)
	_, _, err := d.jdAnalyze(context.Background(), nil, JDAnalyzeInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jd_analyze")
}

func TestKeywordMatch_Keywords(t *testing.T) {
	d := testDeps(t, false)
	_, rep, err := d.keywordMatch(context.Background(), nil, KeywordMatchInput{
		Resume:   "Experienced with python, sql and spreadsheets.",
		Keywords: []string{"Python", "SQL", "Docker"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 66.7, rep.Coverage, 0.05)
	assert.Equal(t, []string{"Python", "SQL"}, rep.Matched)
	assert.Equal(t, []string{"Docker"}, rep.Missing)
	assert.Equal(t, jobs.CoverageGrade(rep.Coverage), rep.Grade)
}

func TestKeywordMatch_JobText(t *testing.T) {
	d := testDeps(t, false)
	_, rep, err := d.keywordMatch(context.Background(), nil, KeywordMatchInput{Resume: testResume, JobText: testJD})
	require.NoError(t, err)

	assert.Contains(t, rep.Matched, "SQL")
	assert.NotEmpty(t, rep.ByCategory)
}

func TestKeywordMatch_NothingToMatch(t *testing.T) {
	d := testDeps(t, false)
	_, _, err := d.keywordMatch(context.Background(), nil, KeywordMatchInput{Resume: testResume})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords or a job description is required")
}

func TestJobRank(t *testing.T) {
	d := testDeps(t, false)
	_, out, err := d.jobRank(context.Background(), nil, JobRankInput{
		Resume: testResume,
		Postings: []jobs.Posting{
			{Title: "Chef", Text: "Head chef for a busy kitchen, pastry and menu planning."},
			{Title: "Analyst", Text: testJD},
			{Title: "Empty"},
		},
	})
	require.NoError(t, err)

	require.Len(t, out.Results, 2)
	assert.Equal(t, "Analyst", out.Results[0].Title)
	assert.Greater(t, out.Results[0].Score, out.Results[1].Score)
	assert.Equal(t, []string{"Empty"}, out.Skipped)
}

func TestJobRank_Limit(t *testing.T) {
	d := testDeps(t, false)
	_, out, err := d.jobRank(context.Background(), nil, JobRankInput{
		Resume:   testResume,
		Postings: []jobs.Posting{{Title: "A", Text: testJD}, {Title: "B", Text: "Python developer"}},
		Limit:    1,
	})
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
}

func TestJobRank_RequiresPostings(t *testing.T) {
	d := testDeps(t, false)
	_, _, err := d.jobRank(context.Background(), nil, JobRankInput{Resume: testResume})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postings is required")
}

func TestATSScore_Profile(t *testing.T) {
	d := testDeps(t, false)
	_, out, err := d.atsScore(context.Background(), nil, ATSScoreInput{
		Profile: &ats.Profile{Format: "PDF"},
		JobURL:  "https://boards.greenhouse.io/acme/jobs/123",
	})
	require.NoError(t, err)

	assert.Equal(t, 70, out.Report.Total)
	assert.NotEmpty(t, out.Recommendations)
	require.NotNil(t, out.Platform)
	assert.True(t, out.Platform.Detected)
}

func TestATSScore_Text(t *testing.T) {
	d := testDeps(t, false)
	_, out, err := d.atsScore(context.Background(), nil, ATSScoreInput{Text: testResume})
	require.NoError(t, err)
	assert.Equal(t, 85, out.Report.Total, "plain text is an unlisted format")
}

func TestATSScore_NoInput(t *testing.T) {
	d := testDeps(t, false)
	_, _, err := d.atsScore(context.Background(), nil, ATSScoreInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path, profile or text is required")
}

func TestATSDetect_URLOnly(t *testing.T) {
	d := testDeps(t, false)
	_, p, err := d.atsDetect(context.Background(), nil, ATSDetectInput{URL: "https://jobs.lever.co/acme/1"})
	require.NoError(t, err)
	assert.True(t, p.Detected)
}

func TestCVTailor_SavesVersion(t *testing.T) {
	d := testDeps(t, true)
	ctx := context.Background()
	app, err := d.Store.Add(ctx, tracker.NewApplication{Company: "Acme Analytics", JobTitle: "Senior Data Analyst"})
	require.NoError(t, err)

	_, out, err := d.cvTailor(ctx, nil, CVTailorInput{
		Resume:        testResume,
		JobText:       testJD,
		ApplicationID: app.ID,
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, out.Result.CoverageAfter, out.Result.CoverageBefore)
	assert.NotEmpty(t, out.VersionID)

	versions, err := d.Store.CVVersions(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, out.Result.Text, versions[0].Content)
}

func TestCoverLetter_NoTracker(t *testing.T) {
	d := testDeps(t, false)
	_, _, err := d.coverLetter(context.Background(), nil, CoverLetterToolInput{
		Resume:        testResume,
		JobText:       testJD,
		ApplicationID: 1,
	})
	require.ErrorIs(t, err, errNoTracker)
}

func TestHiringMessage(t *testing.T) {
	d := testDeps(t, false)
	_, m, err := d.hiringMessage(context.Background(), nil, HiringMessageToolInput{
		Resume:      testResume,
		JobText:     testJD,
		Achievement: "Cut the monthly reporting cycle from five days to two",
	})
	require.NoError(t, err)
	assert.Contains(t, m.SkillsMentioned, "SQL")
	assert.Equal(t, "Cut the monthly reporting cycle from five days to two", m.Evidence[0])
	assert.LessOrEqual(t, m.WordCount, jobs.HiringMessageMaxWords)
	assert.Contains(t, m.Text, "Acme Analytics")
}

func TestHiringMessage_NeedsResume(t *testing.T) {
	d := testDeps(t, false)
	_, _, err := d.hiringMessage(context.Background(), nil, HiringMessageToolInput{JobText: testJD})
	require.Error(t, err)
}

func TestSalaryEstimate_InferredFromJob(t *testing.T) {
	d := testDeps(t, false)
	_, out, err := d.salaryEstimate(context.Background(), nil, SalaryEstimateInput{JobText: testJD})
	require.NoError(t, err)
	assert.Equal(t, "senior", out.InferredLevel)
	assert.Equal(t, "london", out.InferredLocation)
	assert.Equal(t, "£60,000 - £80,000", out.Estimate.Range)
	assert.Equal(t, "£80,000", out.Estimate.Expectation)
}

func TestSalaryEstimate_ExplicitLevel(t *testing.T) {
	d := testDeps(t, false)
	_, out, err := d.salaryEstimate(context.Background(), nil, SalaryEstimateInput{
		Level:    "Mid-Level",
		Location: "Other US",
		Country:  "us",
	})
	require.NoError(t, err)
	assert.Equal(t, "mid_level", out.Estimate.Level)
	assert.Equal(t, "other_us", out.Estimate.Location)
	assert.Equal(t, "USD", out.Estimate.Currency)
	assert.Empty(t, out.InferredLevel)
}

func TestSalaryEstimate_Errors(t *testing.T) {
	d := testDeps(t, false)
	_, _, err := d.salaryEstimate(context.Background(), nil, SalaryEstimateInput{Country: "fr"})
	require.Error(t, err)

	_, _, err = d.salaryEstimate(context.Background(), nil, SalaryEstimateInput{Level: "intern"})
	require.ErrorIs(t, err, jobs.ErrNoSalaryData)
}

func TestResumeQuality_UsesJobText(t *testing.T) {
	d := testDeps(t, false)
	_, rep, err := d.resumeQuality(context.Background(), nil, ResumeQualityInput{Resume: testResume, JobText: testJD})
	require.NoError(t, err)
	assert.True(t, rep.Score >= 0 && rep.Score <= 100)
}

func TestPrepare_Tracked(t *testing.T) {
	d := testDeps(t, true)
	ctx := context.Background()

	out, err := d.Prepare(ctx, PrepareInput{
		Resume:  testResume,
		JobText: testJD,
		JobURL:  "https://boards.greenhouse.io/acme/jobs/42",
		Track:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Senior Data Analyst", out.Analysis.JobTitle)
	assert.GreaterOrEqual(t, out.MatchAfter.Coverage, out.MatchBefore.Coverage)
	require.NotNil(t, out.CoverLetter)
	require.NotNil(t, out.Platform)
	assert.Positive(t, out.ApplicationID)
	assert.NotEmpty(t, out.VersionID)
	assert.NotEmpty(t, out.LetterID)

	require.Len(t, out.Files, 2)
	for _, f := range out.Files {
		_, err := os.Stat(f)
		assert.NoError(t, err, f)
	}
	assert.Contains(t, filepath.Base(out.Files[0]), "acme_analytics")

	app, err := d.Store.Get(ctx, out.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Analytics", app.Company)
	assert.Equal(t, tracker.StatusSaved, app.Status)
	assert.Equal(t, out.Platform.Name, app.ATSPlatform)

	_, detail, err := d.applicationGet(ctx, nil, ApplicationIDInput{ID: out.ApplicationID})
	require.NoError(t, err)
	require.NotNil(t, detail.JobDescription)
	assert.NotEmpty(t, detail.Keywords)
	require.Len(t, detail.CVVersions, 1)
	assert.Empty(t, detail.CVVersions[0].Content)
}

func TestPrepare_UntrackedNeedsNoStore(t *testing.T) {
	d := testDeps(t, false)
	out, err := d.Prepare(context.Background(), PrepareInput{Resume: testResume, JobText: testJD})
	require.NoError(t, err)
	assert.Zero(t, out.ApplicationID)
	assert.Empty(t, out.Files)
}

func TestPrepare_ATSCheckWarning(t *testing.T) {
	d := testDeps(t, false)
	out, err := d.Prepare(context.Background(), PrepareInput{
		Resume:     testResume,
		JobText:    testJD,
		CVFilePath: filepath.Join(t.TempDir(), "missing.docx"),
	})
	require.NoError(t, err)
	assert.Nil(t, out.ATS)
	assert.NotEmpty(t, out.Warnings)
}

func TestTrackerTools_NoStore(t *testing.T) {
	d := testDeps(t, false)
	ctx := context.Background()

	_, _, err := d.applicationGet(ctx, nil, ApplicationIDInput{ID: 1})
	assert.ErrorIs(t, err, errNoTracker)
	_, _, err = d.applicationStats(ctx, nil, StatsInput{})
	assert.ErrorIs(t, err, errNoTracker)
	_, _, err = d.applicationExport(ctx, nil, ExportInput{})
	assert.ErrorIs(t, err, errNoTracker)
	_, _, err = d.checklistMark(ctx, nil, ChecklistMarkInput{Kind: jobs.ChecklistPreApplication, ItemID: "cv_title_match"})
	assert.ErrorIs(t, err, errNoTracker)
}

func TestApplicationUpdateAndStats(t *testing.T) {
	d := testDeps(t, true)
	ctx := context.Background()
	app, err := d.Store.Add(ctx, tracker.NewApplication{Company: "Acme", JobTitle: "Analyst"})
	require.NoError(t, err)

	status := "interview"
	_, updated, err := d.applicationUpdate(ctx, nil, ApplicationUpdateInput{ID: app.ID, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, tracker.StatusInterview, updated.Status)

	_, st, err := d.applicationStats(ctx, nil, StatsInput{Weeks: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Stats.Total)
	assert.Len(t, st.Trend, 2)
}

func TestApplicationGet_NotFound(t *testing.T) {
	d := testDeps(t, true)
	_, _, err := d.applicationGet(context.Background(), nil, ApplicationIDInput{ID: 99})
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestChecklist_MarkAndGet(t *testing.T) {
	d := testDeps(t, true)
	ctx := context.Background()

	_, c, err := d.checklistMark(ctx, nil, ChecklistMarkInput{Kind: jobs.ChecklistPreApplication, ItemID: "cv_title_match"})
	require.NoError(t, err)
	assert.Positive(t, c.Completion)
	for _, item := range c.Items {
		assert.Equal(t, item.ID == "cv_title_match", item.Done, item.ID)
	}

	done := false
	_, c, err = d.checklistMark(ctx, nil, ChecklistMarkInput{Kind: jobs.ChecklistPreApplication, ItemID: "cv_title_match", Done: &done})
	require.NoError(t, err)
	assert.Zero(t, c.Completion)

	_, _, err = d.checklistMark(ctx, nil, ChecklistMarkInput{Kind: jobs.ChecklistPreApplication, ItemID: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown item "nope"`)
}

func TestChecklistGet_WithoutStore(t *testing.T) {
	d := testDeps(t, false)
	_, c, err := d.checklistGet(context.Background(), nil, ChecklistInput{Kind: jobs.ChecklistFinalSubmission})
	require.NoError(t, err)
	assert.NotEmpty(t, c.Items)
	assert.Zero(t, c.Completion)
}

func TestApplicationExport(t *testing.T) {
	d := testDeps(t, true)
	ctx := context.Background()
	_, err := d.Store.Add(ctx, tracker.NewApplication{Company: "Acme", JobTitle: "Analyst"})
	require.NoError(t, err)

	_, out, err := d.applicationExport(ctx, nil, ExportInput{FileName: "mine"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Rows)
	assert.Equal(t, "mine.xlsx", filepath.Base(out.Path))
	_, err = os.Stat(out.Path)
	assert.NoError(t, err)
}

func TestExportPath(t *testing.T) {
	engine.Init(engine.Config{DataDir: "/data"})
	orig := timeNow
	timeNow = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = orig })

	assert.Equal(t, filepath.Join("/data", "exports", "applications_2026-03-10.xlsx"), exportPath(""))
	assert.Equal(t, filepath.Join("/data", "exports", "report.xlsx"), exportPath("report"))
	assert.Equal(t, filepath.Join("/data", "exports", "Report.XLSX"), exportPath("Report.XLSX"))
	assert.Equal(t, "/tmp/out.xlsx", exportPath("/tmp/out.xlsx"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "acme_analytics", slug("Acme Analytics"))
	assert.Equal(t, "at_t_labs", slug("AT&T -- Labs!"))
	assert.Equal(t, "company", slug("!!!"))
	assert.Equal(t, "münchen_re", slug("München Re"))
	assert.Len(t, []rune(slug("a very long company name that keeps going and going on")), 40)
}
