package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Status is the stage of an application.
type Status string

const (
	StatusSaved     Status = "saved"
	StatusApplied   Status = "applied"
	StatusScreening Status = "screening"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{
	StatusSaved, StatusApplied, StatusScreening, StatusInterview, StatusOffer, StatusRejected, StatusWithdrawn,
}

// ParseStatus normalises s; empty input yields def.
func ParseStatus(s string, def Status) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (valid: %s)", s, statusList())
}

func statusList() string {
	names := make([]string, len(Statuses))
	for i, st := range Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

// Application is one tracked job application.
type Application struct {
	ID                  int64  `json:"id"`
	Company             string `json:"company"`
	JobTitle            string `json:"job_title"`
	DateApplied         string `json:"date_applied"`
	Status              Status `json:"status"`
	URL                 string `json:"url,omitempty"`
	Location            string `json:"location,omitempty"`
	Salary              string `json:"salary,omitempty"`
	ATSPlatform         string `json:"ats_platform,omitempty"`
	CVVersionPath       string `json:"cv_version_path,omitempty"`
	CoverLetterIncluded bool   `json:"cover_letter_included"`
	FollowUpDate        string `json:"followup_date,omitempty"`
	InterviewDate       string `json:"interview_date,omitempty"`
	Notes               string `json:"notes,omitempty"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

// NewApplication is the input for Add. Dates are YYYY-MM-DD.
type NewApplication struct {
	Company             string `json:"company" validate:"required,max=200"`
	JobTitle            string `json:"job_title" validate:"required,max=200"`
	Status              string `json:"status,omitempty"`
	DateApplied         string `json:"date_applied,omitempty" validate:"omitempty,datetime=2006-01-02"`
	URL                 string `json:"url,omitempty" validate:"omitempty,url"`
	Location            string `json:"location,omitempty"`
	Salary              string `json:"salary,omitempty"`
	ATSPlatform         string `json:"ats_platform,omitempty"`
	CVVersionPath       string `json:"cv_version_path,omitempty"`
	CoverLetterIncluded bool   `json:"cover_letter_included,omitempty"`
	FollowUpDate        string `json:"followup_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	InterviewDate       string `json:"interview_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes               string `json:"notes,omitempty"`
}

// Update changes selected fields; nil fields are left alone and an empty
// date clears it.
type Update struct {
	Status        *string `json:"status,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	FollowUpDate  *string `json:"followup_date,omitempty" validate:"omitempty,datetime=2006-01-02|len=0"`
	InterviewDate *string `json:"interview_date,omitempty" validate:"omitempty,datetime=2006-01-02|len=0"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

var validate = validator.New()

const applicationColumns = `id, company_name, job_title, date_applied, status, job_url, location, salary,
	ats_platform, cv_version_path, cover_letter_included, followup_date, interview_date, notes,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var a Application
	var url, location, salary, platform, cvPath, followUp, interview, notes sql.NullString
	if err := row.Scan(&a.ID, &a.Company, &a.JobTitle, &a.DateApplied, &a.Status, &url, &location, &salary,
		&platform, &cvPath, &a.CoverLetterIncluded, &followUp, &interview, &notes,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.URL = url.String
	a.Location = location.String
	a.Salary = salary.String
	a.ATSPlatform = platform.String
	a.CVVersionPath = cvPath.String
	a.FollowUpDate = followUp.String
	a.InterviewDate = interview.String
	a.Notes = notes.String
	return &a, nil
}

// Add saves a new application. Status defaults to applied and the date to today.
func (s *Store) Add(ctx context.Context, in NewApplication) (*Application, error) {
	id, err := s.addApplication(ctx, s.db, in)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// AddWithPosting saves a new application with its job description and
// keywords in one transaction: either every row is written or none is.
func (s *Store) AddWithPosting(ctx context.Context, in NewApplication, jd JobDescription, keywords []Keyword) (*Application, int64, error) {
	if jd.Text == "" {
		return nil, 0, errors.New("tracker add: job description text is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("tracker add: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	id, err := s.addApplication(ctx, tx, in)
	if err != nil {
		return nil, 0, err
	}
	jd.ApplicationID = id
	jdID, err := s.saveJobDescription(ctx, tx, jd, keywords)
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("tracker add: commit: %w", err)
	}
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return app, jdID, nil
}

func (s *Store) addApplication(ctx context.Context, x execer, in NewApplication) (int64, error) {
	in.Company = strings.TrimSpace(in.Company)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	if err := validate.Struct(in); err != nil {
		return 0, fmt.Errorf("tracker add: %w", err)
	}
	status, err := ParseStatus(in.Status, StatusApplied)
	if err != nil {
		return 0, fmt.Errorf("tracker add: %w", err)
	}
	date := in.DateApplied
	if date == "" {
		date = s.today()
	}

	now := s.timestamp()
	id, err := s.insert(ctx, x, `INSERT INTO applications
		(company_name, job_title, date_applied, status, job_url, location, salary, ats_platform,
		 cv_version_path, cover_letter_included, followup_date, interview_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Company, in.JobTitle, date, string(status), nullString(in.URL), nullString(in.Location),
		nullString(in.Salary), nullString(in.ATSPlatform), nullString(in.CVVersionPath), in.CoverLetterIncluded,
		nullString(in.FollowUpDate), nullString(in.InterviewDate), nullString(in.Notes), now, now)
	if err != nil {
		return 0, fmt.Errorf("tracker add: insert: %w", err)
	}
	return id, nil
}

// Get returns one application or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Application, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+applicationColumns+` FROM applications WHERE id = ?`), id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker get: %w", err)
	}
	return a, nil
}

// List returns applications, newest first, with the total matching count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Application, int, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	where, args := "", []any{}
	if f.Status != "" {
		st, err := ParseStatus(f.Status, "")
		if err != nil {
			return nil, 0, fmt.Errorf("tracker list: %w", err)
		}
		where = " WHERE status = ?"
		args = append(args, string(st))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM applications`+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("tracker list: count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+applicationColumns+` FROM applications`+where+
		` ORDER BY date_applied DESC, id DESC LIMIT ?`), append(args, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("tracker list: query: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("tracker list: scan: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("tracker list: %w", err)
	}
	return apps, total, nil
}

// Update applies u to an application and returns the new state.
func (s *Store) Update(ctx context.Context, id int64, u Update) (*Application, error) {
	if err := validate.Struct(u); err != nil {
		return nil, fmt.Errorf("tracker update: %w", err)
	}
	var sets []string
	var args []any
	if u.Status != nil {
		st, err := ParseStatus(*u.Status, "")
		if err != nil || st == "" {
			return nil, fmt.Errorf("tracker update: invalid status %q", *u.Status)
		}
		sets, args = append(sets, "status = ?"), append(args, string(st))
	}
	if u.Notes != nil {
		sets, args = append(sets, "notes = ?"), append(args, nullString(*u.Notes))
	}
	if u.FollowUpDate != nil {
		sets, args = append(sets, "followup_date = ?"), append(args, nullString(*u.FollowUpDate))
	}
	if u.InterviewDate != nil {
		sets, args = append(sets, "interview_date = ?"), append(args, nullString(*u.InterviewDate))
	}
	if len(sets) == 0 {
		return nil, errors.New("tracker update: nothing to update")
	}
	sets, args = append(sets, "updated_at = ?"), append(args, s.timestamp(), id)

	res, err := s.exec(ctx, s.db, `UPDATE applications SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("tracker update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes an application with everything recorded for it.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tracker delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := s.exec(ctx, tx, `DELETE FROM checklist_items WHERE application_id = ?`, id); err != nil {
		return fmt.Errorf("tracker delete: checklist: %w", err)
	}
	res, err := s.exec(ctx, tx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("tracker delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// DueFollowUps lists open applications whose follow-up date is today or earlier.
func (s *Store) DueFollowUps(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+applicationColumns+` FROM applications
		WHERE followup_date IS NOT NULL AND followup_date <> '' AND followup_date <= ?
		  AND status NOT IN ('rejected', 'withdrawn', 'offer')
		ORDER BY followup_date, id`), s.today())
	if err != nil {
		return nil, fmt.Errorf("tracker followups: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("tracker followups: scan: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// parseDate reads a stored YYYY-MM-DD date.
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}
