package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "tracker.db"))
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { s.Close() })
	return s
}

func addApp(t *testing.T, s *Store, company, status, date string) *Application {
	t.Helper()
	a, err := s.Add(context.Background(), NewApplication{
		Company:     company,
		JobTitle:    "Data Analyst",
		Status:      status,
		DateApplied: date,
	})
	require.NoError(t, err)
	return a
}

func TestAdd_Defaults(t *testing.T) {
	s := openTestStore(t)
	a, err := s.Add(context.Background(), NewApplication{
		Company:  "  Acme  ",
		JobTitle: "Data Analyst",
		URL:      "https://boards.greenhouse.io/acme/jobs/1",
	})
	require.NoError(t, err)

	assert.Positive(t, a.ID)
	assert.Equal(t, "Acme", a.Company)
	assert.Equal(t, StatusApplied, a.Status)
	assert.Equal(t, "2026-03-10", a.DateApplied)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/1", a.URL)
	assert.Empty(t, a.Notes)
	assert.False(t, a.CoverLetterIncluded)
	assert.Equal(t, "2026-03-10T12:00:00Z", a.CreatedAt)
}

func TestAdd_Validation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, NewApplication{JobTitle: "Analyst"})
	assert.Error(t, err)

	_, err = s.Add(ctx, NewApplication{Company: "Acme", JobTitle: "Analyst", DateApplied: "10/03/2026"})
	assert.Error(t, err)

	_, err = s.Add(ctx, NewApplication{Company: "Acme", JobTitle: "Analyst", Status: "ghosted"})
	assert.ErrorContains(t, err, "invalid status")
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_FilterAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	addApp(t, s, "Old", "applied", "2026-01-05")
	addApp(t, s, "New", "applied", "2026-03-01")
	addApp(t, s, "Saved", "saved", "2026-02-01")

	apps, total, err := s.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, apps, 3)
	assert.Equal(t, "New", apps[0].Company)
	assert.Equal(t, "Old", apps[2].Company)

	apps, total, err = s.List(ctx, ListFilter{Status: "APPLIED", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, apps, 1)
	assert.Equal(t, "New", apps[0].Company)

	_, _, err = s.List(ctx, ListFilter{Status: "unknown"})
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := addApp(t, s, "Acme", "", "")

	status, notes, followUp := "interview", "call with hiring manager", "2026-03-12"
	got, err := s.Update(ctx, a.ID, Update{Status: &status, Notes: &notes, FollowUpDate: &followUp})
	require.NoError(t, err)
	assert.Equal(t, StatusInterview, got.Status)
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, followUp, got.FollowUpDate)

	empty := ""
	got, err = s.Update(ctx, a.ID, Update{FollowUpDate: &empty})
	require.NoError(t, err)
	assert.Empty(t, got.FollowUpDate)

	_, err = s.Update(ctx, a.ID, Update{})
	assert.ErrorContains(t, err, "nothing to update")

	bad := "hired"
	_, err = s.Update(ctx, a.ID, Update{Status: &bad})
	assert.Error(t, err)

	_, err = s.Update(ctx, 999, Update{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_RemovesEverything(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := addApp(t, s, "Acme", "", "")

	jdID, err := s.SaveJobDescription(ctx, JobDescription{ApplicationID: a.ID, Text: "We need SQL."},
		[]Keyword{{Term: "SQL", Category: "hard_skills", Frequency: 1, Rank: 1}})
	require.NoError(t, err)
	require.NoError(t, s.SetChecklistItem(ctx, a.ID, "pre_application", "cv_keywords", true))

	require.NoError(t, s.Delete(ctx, a.ID))

	_, err = s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	kws, err := s.Keywords(ctx, jdID)
	require.NoError(t, err)
	assert.Empty(t, kws)
	progress, err := s.ChecklistProgress(ctx, a.ID, "pre_application")
	require.NoError(t, err)
	assert.Empty(t, progress)

	assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)
}

func TestJobDescriptionAndKeywords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := addApp(t, s, "Acme", "", "")

	id, err := s.SaveJobDescription(ctx, JobDescription{
		ApplicationID: a.ID,
		Text:          "Data Analyst. Required: SQL, Python.",
		ATSSystem:     "greenhouse",
	}, []Keyword{
		{Term: "Python", Category: "hard_skills", Frequency: 2, Rank: 2},
		{Term: "SQL", Category: "hard_skills", Frequency: 3, Rank: 1, IncludedInCV: true},
	})
	require.NoError(t, err)

	jd, err := s.LatestJobDescription(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, id, jd.ID)
	assert.Equal(t, "greenhouse", jd.ATSSystem)
	assert.Empty(t, jd.URL)

	kws, err := s.Keywords(ctx, id)
	require.NoError(t, err)
	require.Len(t, kws, 2)
	assert.Equal(t, "SQL", kws[0].Term)
	assert.True(t, kws[0].IncludedInCV)
	assert.Equal(t, "Python", kws[1].Term)

	_, err = s.SaveJobDescription(ctx, JobDescription{ApplicationID: 999, Text: "x"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.SaveJobDescription(ctx, JobDescription{ApplicationID: a.ID}, nil)
	assert.Error(t, err)
	_, err = s.LatestJobDescription(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddWithPosting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	app, jdID, err := s.AddWithPosting(ctx, NewApplication{Company: "Acme", JobTitle: "Data Analyst"},
		JobDescription{Text: "Required: SQL."}, []Keyword{{Term: "SQL", Category: "required", Rank: 1}})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, app.Status)

	jd, err := s.LatestJobDescription(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, jdID, jd.ID)
	kws, err := s.Keywords(ctx, jdID)
	require.NoError(t, err)
	assert.Len(t, kws, 1)
}

func TestAddWithPosting_FailureLeavesNoApplication(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, _, err := s.AddWithPosting(ctx, NewApplication{Company: "Acme", JobTitle: "Data Analyst"},
		JobDescription{Text: "Required: SQL and Python."},
		[]Keyword{{Term: "SQL", Category: "required"}, {Term: " ", Category: "required"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "term is required")

	apps, total, err := s.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, apps)

	_, _, err = s.AddWithPosting(ctx, NewApplication{Company: "Acme", JobTitle: "Data Analyst"}, JobDescription{}, nil)
	assert.Error(t, err)
	_, total, err = s.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCVVersionsAndCoverLetter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := addApp(t, s, "Acme", "", "")

	score, coverage := 88, 75.0
	vid, err := s.SaveCVVersion(ctx, CVVersion{
		ApplicationID:   a.ID,
		FilePath:        "/tmp/cv_acme.md",
		Content:         "# Jane Doe",
		ATSScore:        &score,
		KeywordCoverage: &coverage,
	})
	require.NoError(t, err)
	assert.Len(t, vid, 36)

	versions, err := s.CVVersions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, vid, versions[0].VersionID)
	assert.Equal(t, "rule_based", versions[0].GenerationMode)
	require.NotNil(t, versions[0].ATSScore)
	assert.Equal(t, 88, *versions[0].ATSScore)
	require.NotNil(t, versions[0].KeywordCoverage)
	assert.InDelta(t, 75.0, *versions[0].KeywordCoverage, 0.001)

	lid, err := s.SaveCoverLetter(ctx, CoverLetterRecord{ApplicationID: a.ID, Content: "Dear Hiring Manager", WordCount: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, lid)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cv_acme.md", got.CVVersionPath)
	assert.True(t, got.CoverLetterIncluded)

	_, err = s.SaveCoverLetter(ctx, CoverLetterRecord{ApplicationID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChecklistUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetChecklistItem(ctx, 0, "final_submission", "proofread", true))
	require.NoError(t, s.SetChecklistItem(ctx, 0, "final_submission", "proofread", false))
	require.NoError(t, s.SetChecklistItem(ctx, 0, "final_submission", "pdf_export", true))

	progress, err := s.ChecklistProgress(ctx, 0, "final_submission")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"proofread": false, "pdf_export": true}, progress)

	assert.ErrorIs(t, s.SetChecklistItem(ctx, 7, "final_submission", "proofread", true), ErrNotFound)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	addApp(t, s, "A", "saved", "2026-03-09")
	addApp(t, s, "B", "applied", "2026-03-08")
	addApp(t, s, "C", "applied", "2026-02-01")
	addApp(t, s, "D", "interview", "2026-03-04")
	addApp(t, s, "E", "rejected", "2026-01-20")

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 4, st.Submitted)
	assert.Equal(t, 2, st.Responded)
	assert.Equal(t, 1, st.Interviews)
	assert.InDelta(t, 50.0, st.ResponseRate, 0.001)
	assert.InDelta(t, 25.0, st.InterviewRate, 0.001)
	assert.Equal(t, 2, st.ThisWeek)
	assert.Equal(t, 2, st.ByStatus["applied"])
}

func TestStats_Empty(t *testing.T) {
	s := openTestStore(t)
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Total)
	assert.Zero(t, st.ResponseRate)
}

func TestDueFollowUps(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	due, err := s.Add(ctx, NewApplication{Company: "Due", JobTitle: "Analyst", FollowUpDate: "2026-03-10"})
	require.NoError(t, err)
	_, err = s.Add(ctx, NewApplication{Company: "Later", JobTitle: "Analyst", FollowUpDate: "2026-03-20"})
	require.NoError(t, err)
	_, err = s.Add(ctx, NewApplication{Company: "Closed", JobTitle: "Analyst", Status: "rejected", FollowUpDate: "2026-03-01"})
	require.NoError(t, err)
	overdue, err := s.Add(ctx, NewApplication{Company: "Overdue", JobTitle: "Analyst", Status: "screening", FollowUpDate: "2026-03-02"})
	require.NoError(t, err)

	apps, err := s.DueFollowUps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, overdue.ID, apps[0].ID)
	assert.Equal(t, due.ID, apps[1].ID)
}

func TestWeeklyTrend(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	addApp(t, s, "Today", "applied", "2026-03-10")
	addApp(t, s, "Yesterday", "applied", "2026-03-09")
	addApp(t, s, "WeekEdge", "applied", "2026-03-03")
	addApp(t, s, "Older", "interview", "2026-03-02")
	addApp(t, s, "Saved", "saved", "2026-03-05")
	addApp(t, s, "OutOfRange", "applied", "2026-02-23")

	trend, err := s.WeeklyTrend(ctx, 2)
	require.NoError(t, err)
	require.Len(t, trend, 2)

	assert.Equal(t, "Week 2", trend[0].Week)
	assert.Equal(t, "2026-02-24", trend[0].StartDate)
	assert.Equal(t, "2026-03-03", trend[0].EndDate)
	assert.Equal(t, 1, trend[0].Applications)
	assert.Equal(t, 1, trend[0].Interviews)

	assert.Equal(t, "Week 1", trend[1].Week)
	assert.Equal(t, "2026-03-03", trend[1].StartDate)
	assert.Equal(t, 2, trend[1].Applications)
	assert.Zero(t, trend[1].Interviews)

	trend, err = s.WeeklyTrend(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, trend, 4)
}

func TestExportExcel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	addApp(t, s, "Older Co", "applied", "2026-02-01")
	a := addApp(t, s, "Newer Co", "interview", "2026-03-01")
	_, err := s.SaveCoverLetter(ctx, CoverLetterRecord{ApplicationID: a.ID, Content: "Dear team"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "exports", "applications.xlsx")
	n, err := s.ExportExcel(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Applications", "Summary"}, f.GetSheetList())

	header, err := f.GetCellValue("Applications", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Company", header)

	company, err := f.GetCellValue("Applications", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Newer Co", company)
	status, err := f.GetCellValue("Applications", "E2")
	require.NoError(t, err)
	assert.Equal(t, "interview", status)
	letter, err := f.GetCellValue("Applications", "K2")
	require.NoError(t, err)
	assert.Equal(t, "Yes", letter)

	rows, err := f.GetRows("Applications")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	total, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: DialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", s.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	s.dialect = DialectSQLite
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}
