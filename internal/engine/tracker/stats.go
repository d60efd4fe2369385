package tracker

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Stats summarises the application pipeline.
type Stats struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	Submitted     int            `json:"submitted"`
	Responded     int            `json:"responded"`
	Interviews    int            `json:"interviews"`
	ResponseRate  float64        `json:"response_rate"`
	InterviewRate float64        `json:"interview_rate"`
	ThisWeek      int            `json:"this_week"`
}

// WeekStat counts applications sent in one week.
type WeekStat struct {
	Week         string `json:"week"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Applications int    `json:"applications"`
	Interviews   int    `json:"interviews"`
}

// responded reports whether the employer has reacted to an application.
func responded(st Status) bool {
	switch st {
	case StatusScreening, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

func reachedInterview(st Status) bool {
	return st == StatusInterview || st == StatusOffer
}

// Stats computes pipeline statistics. Saved postings are not counted as
// submitted, so they do not dilute the response and interview rates.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("tracker stats: %w", err)
	}
	defer rows.Close()

	st := &Stats{ByStatus: map[string]int{}}
	for rows.Next() {
		var status Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("tracker stats: scan: %w", err)
		}
		st.ByStatus[string(status)] = n
		st.Total += n
		if status != StatusSaved {
			st.Submitted += n
		}
		if responded(status) {
			st.Responded += n
		}
		if reachedInterview(status) {
			st.Interviews += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tracker stats: %w", err)
	}
	st.ResponseRate = percent(st.Responded, st.Submitted)
	st.InterviewRate = percent(st.Interviews, st.Submitted)

	weekAgo := s.now().AddDate(0, 0, -7).Format(dateLayout)
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM applications
		WHERE status <> 'saved' AND date_applied >= ?`), weekAgo).Scan(&st.ThisWeek); err != nil {
		return nil, fmt.Errorf("tracker stats: this week: %w", err)
	}
	return st, nil
}

// WeeklyTrend counts submitted applications per week for the last weeks,
// oldest first. Week i covers [today-7(i+1), today-7i).
func (s *Store) WeeklyTrend(ctx context.Context, weeks int) ([]WeekStat, error) {
	if weeks <= 0 || weeks > 52 {
		weeks = 4
	}
	today, _ := parseDate(s.today())
	from := today.AddDate(0, 0, -7*weeks).Format(dateLayout)

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT date_applied, status FROM applications
		WHERE status <> 'saved' AND date_applied >= ? AND date_applied < ?`), from, today.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("tracker trend: %w", err)
	}
	defer rows.Close()

	out := make([]WeekStat, weeks)
	for i := range out {
		start := today.AddDate(0, 0, -7*(weeks-i))
		out[i] = WeekStat{
			Week:      fmt.Sprintf("Week %d", weeks-i),
			StartDate: start.Format(dateLayout),
			EndDate:   start.AddDate(0, 0, 7).Format(dateLayout),
		}
	}
	for rows.Next() {
		var date string
		var status Status
		if err := rows.Scan(&date, &status); err != nil {
			return nil, fmt.Errorf("tracker trend: scan: %w", err)
		}
		d, ok := parseDate(date)
		if !ok {
			continue
		}
		days := int(today.Sub(d) / (24 * time.Hour))
		i := weeks - 1 - (days-1)/7
		if i < 0 || i >= weeks {
			continue
		}
		out[i].Applications++
		if reachedInterview(status) {
			out[i].Interviews++
		}
	}
	return out, rows.Err()
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
