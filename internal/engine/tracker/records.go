package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// JobDescription is a stored posting for an application.
type JobDescription struct {
	ID            int64  `json:"id"`
	ApplicationID int64  `json:"application_id"`
	Text          string `json:"text"`
	URL           string `json:"url,omitempty"`
	Location      string `json:"location,omitempty"`
	SalaryRange   string `json:"salary_range,omitempty"`
	ATSSystem     string `json:"ats_system,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// Keyword is an extracted keyword stored with its job description.
type Keyword struct {
	Term         string `json:"term"`
	Category     string `json:"category"`
	Frequency    int    `json:"frequency"`
	Rank         int    `json:"rank"`
	IncludedInCV bool   `json:"included_in_cv"`
}

// CVVersion is one generated résumé for an application.
type CVVersion struct {
	VersionID       string   `json:"version_id"`
	ApplicationID   int64    `json:"application_id"`
	FilePath        string   `json:"file_path,omitempty"`
	Content         string   `json:"content,omitempty"`
	ATSScore        *int     `json:"ats_score,omitempty"`
	KeywordCoverage *float64 `json:"keyword_coverage,omitempty"`
	GenerationMode  string   `json:"generation_mode"`
	CreatedAt       string   `json:"created_at"`
}

// CoverLetterRecord is a stored cover letter.
type CoverLetterRecord struct {
	LetterID      string `json:"letter_id"`
	ApplicationID int64  `json:"application_id"`
	FilePath      string `json:"file_path,omitempty"`
	Content       string `json:"content,omitempty"`
	WordCount     int    `json:"word_count"`
	CreatedAt     string `json:"created_at"`
}

// SaveJobDescription stores a posting and its keywords in one transaction.
func (s *Store) SaveJobDescription(ctx context.Context, jd JobDescription, keywords []Keyword) (int64, error) {
	if jd.Text == "" {
		return 0, errors.New("tracker save jd: text is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("tracker save jd: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.requireApplication(ctx, tx, jd.ApplicationID); err != nil {
		return 0, err
	}
	id, err := s.saveJobDescription(ctx, tx, jd, keywords)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("tracker save jd: commit: %w", err)
	}
	return id, nil
}

func (s *Store) saveJobDescription(ctx context.Context, x execer, jd JobDescription, keywords []Keyword) (int64, error) {
	id, err := s.insert(ctx, x, `INSERT INTO job_descriptions
		(application_id, jd_text, jd_url, job_location, salary_range, ats_system, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		jd.ApplicationID, jd.Text, nullString(jd.URL), nullString(jd.Location),
		nullString(jd.SalaryRange), nullString(jd.ATSSystem), s.timestamp())
	if err != nil {
		return 0, fmt.Errorf("tracker save jd: insert: %w", err)
	}
	for i, k := range keywords {
		if strings.TrimSpace(k.Term) == "" {
			return 0, fmt.Errorf("tracker save jd: keyword %d: term is required", i)
		}
		if _, err := s.exec(ctx, x, `INSERT INTO extracted_keywords
			(jd_id, category, keyword, frequency, keyword_rank, included_in_cv) VALUES (?, ?, ?, ?, ?, ?)`,
			id, k.Category, k.Term, max(k.Frequency, 1), k.Rank, k.IncludedInCV); err != nil {
			return 0, fmt.Errorf("tracker save jd: keyword %q: %w", k.Term, err)
		}
	}
	return id, nil
}

// LatestJobDescription returns the most recent posting stored for an application.
func (s *Store) LatestJobDescription(ctx context.Context, appID int64) (*JobDescription, error) {
	var jd JobDescription
	var url, loc, salary, ats sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, application_id, jd_text, jd_url, job_location,
		salary_range, ats_system, created_at FROM job_descriptions
		WHERE application_id = ? ORDER BY id DESC LIMIT 1`), appID).
		Scan(&jd.ID, &jd.ApplicationID, &jd.Text, &url, &loc, &salary, &ats, &jd.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job description for application %d: %w", appID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker jd: %w", err)
	}
	jd.URL, jd.Location, jd.SalaryRange, jd.ATSSystem = url.String, loc.String, salary.String, ats.String
	return &jd, nil
}

// Keywords returns the keywords of a job description in extraction rank order.
func (s *Store) Keywords(ctx context.Context, jdID int64) ([]Keyword, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT keyword, category, frequency, keyword_rank, included_in_cv
		FROM extracted_keywords WHERE jd_id = ? ORDER BY keyword_rank, frequency DESC, id`), jdID)
	if err != nil {
		return nil, fmt.Errorf("tracker keywords: %w", err)
	}
	defer rows.Close()

	out := []Keyword{}
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.Term, &k.Category, &k.Frequency, &k.Rank, &k.IncludedInCV); err != nil {
			return nil, fmt.Errorf("tracker keywords: scan: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// SaveCVVersion stores a generated résumé and returns its version id.
func (s *Store) SaveCVVersion(ctx context.Context, v CVVersion) (string, error) {
	if v.GenerationMode == "" {
		v.GenerationMode = "rule_based"
	}
	if err := s.requireApplication(ctx, s.db, v.ApplicationID); err != nil {
		return "", err
	}
	v.VersionID = uuid.NewString()
	if _, err := s.exec(ctx, s.db, `INSERT INTO cv_versions
		(version_id, application_id, file_path, content, ats_score, keyword_coverage, generation_mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VersionID, v.ApplicationID, nullString(v.FilePath), nullString(v.Content),
		v.ATSScore, v.KeywordCoverage, v.GenerationMode, s.timestamp()); err != nil {
		return "", fmt.Errorf("tracker save cv: %w", err)
	}
	if v.FilePath != "" {
		if _, err := s.exec(ctx, s.db, `UPDATE applications SET cv_version_path = ?, updated_at = ? WHERE id = ?`,
			v.FilePath, s.timestamp(), v.ApplicationID); err != nil {
			return "", fmt.Errorf("tracker save cv: link: %w", err)
		}
	}
	return v.VersionID, nil
}

// CVVersions lists the résumés generated for an application, newest first.
func (s *Store) CVVersions(ctx context.Context, appID int64) ([]CVVersion, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT version_id, application_id, file_path, content,
		ats_score, keyword_coverage, generation_mode, created_at
		FROM cv_versions WHERE application_id = ? ORDER BY id DESC`), appID)
	if err != nil {
		return nil, fmt.Errorf("tracker cv versions: %w", err)
	}
	defer rows.Close()

	out := []CVVersion{}
	for rows.Next() {
		var v CVVersion
		var path, content sql.NullString
		var score sql.NullInt64
		var coverage sql.NullFloat64
		if err := rows.Scan(&v.VersionID, &v.ApplicationID, &path, &content, &score, &coverage,
			&v.GenerationMode, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("tracker cv versions: scan: %w", err)
		}
		v.FilePath, v.Content = path.String, content.String
		if score.Valid {
			n := int(score.Int64)
			v.ATSScore = &n
		}
		if coverage.Valid {
			v.KeywordCoverage = &coverage.Float64
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SaveCoverLetter stores a letter, marks the application as having one and
// returns the letter id.
func (s *Store) SaveCoverLetter(ctx context.Context, cl CoverLetterRecord) (string, error) {
	if err := s.requireApplication(ctx, s.db, cl.ApplicationID); err != nil {
		return "", err
	}
	cl.LetterID = uuid.NewString()
	now := s.timestamp()
	if _, err := s.exec(ctx, s.db, `INSERT INTO cover_letters
		(letter_id, application_id, file_path, content, word_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		cl.LetterID, cl.ApplicationID, nullString(cl.FilePath), nullString(cl.Content), cl.WordCount, now); err != nil {
		return "", fmt.Errorf("tracker save cover letter: %w", err)
	}
	if _, err := s.exec(ctx, s.db, `UPDATE applications SET cover_letter_included = ?, updated_at = ? WHERE id = ?`,
		true, now, cl.ApplicationID); err != nil {
		return "", fmt.Errorf("tracker save cover letter: link: %w", err)
	}
	return cl.LetterID, nil
}

// SetChecklistItem records progress on a checklist item. appID 0 holds
// progress that is not tied to an application.
func (s *Store) SetChecklistItem(ctx context.Context, appID int64, kind, itemID string, done bool) error {
	if appID != 0 {
		if err := s.requireApplication(ctx, s.db, appID); err != nil {
			return err
		}
	}
	_, err := s.exec(ctx, s.db, `INSERT INTO checklist_items (application_id, kind, item_id, done, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (application_id, kind, item_id) DO UPDATE SET done = excluded.done, updated_at = excluded.updated_at`,
		appID, kind, itemID, done, s.timestamp())
	if err != nil {
		return fmt.Errorf("tracker checklist: %w", err)
	}
	return nil
}

// ChecklistProgress returns the done flags recorded for a checklist.
func (s *Store) ChecklistProgress(ctx context.Context, appID int64, kind string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT item_id, done FROM checklist_items
		WHERE application_id = ? AND kind = ?`), appID, kind)
	if err != nil {
		return nil, fmt.Errorf("tracker checklist: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		var done bool
		if err := rows.Scan(&id, &done); err != nil {
			return nil, fmt.Errorf("tracker checklist: scan: %w", err)
		}
		out[id] = done
	}
	return out, rows.Err()
}

func (s *Store) requireApplication(ctx context.Context, x execer, id int64) error {
	var n int
	if err := x.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM applications WHERE id = ?`), id).Scan(&n); err != nil {
		return fmt.Errorf("tracker: lookup application: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return nil
}
