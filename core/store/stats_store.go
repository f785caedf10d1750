package store

import (
	"context"
	"database/sql"
	"time"

	"kosyak-bot/core/utils"
)

type UserStat struct {
	User  string
	Total int
	Open  int
}

type PriorityStat struct {
	Priority int
	Count    int
}

type StatusStat struct {
	Open   int
	Closed int
}

type TopUser struct {
	User  string
	Count int
}

// PeriodStat aggregates mistakes registered inside a window: the overall
// count, the split by priority, and the five most frequently named staff
// members. Ties in the top list break by name.
type PeriodStat struct {
	Total    int
	Open     int
	Closed   int
	Normal   int
	Critical int
	Top      []TopUser
}

type MonthlyUserStat struct {
	Month  string // "2006-01"
	Open   int
	Closed int
	Total  int
}

type StatsStore interface {
	UserStats(ctx context.Context) ([]UserStat, error)
	UserMonthlyStats(ctx context.Context, user string) ([]MonthlyUserStat, error)
	PriorityStats(ctx context.Context) ([]PriorityStat, error)
	StatusStats(ctx context.Context) (StatusStat, error)
	PeriodStats(ctx context.Context, days int) (*PeriodStat, error)
	WeekMistakes(ctx context.Context, ref time.Time) ([]Mistake, error)
	MonthMistakes(ctx context.Context, year int, month time.Month) ([]Mistake, error)
}

type statsStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewStatsStore(db *sql.DB) StatsStore {
	return &statsStore{db: db, now: utils.NowUTC}
}

// UserStats covers every registered staff member, including ones with no
// mistakes at all, so roster reports show zeroes instead of dropping rows.
func (s *statsStore) UserStats(ctx context.Context) ([]UserStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.name,
		       COALESCE(COUNT(m.id), 0),
		       COALESCE(SUM(CASE WHEN m.closed=0 THEN 1 ELSE 0 END), 0)
		FROM users u
		LEFT JOIN mistakes m ON m.user = u.name
		GROUP BY u.name
		ORDER BY COUNT(m.id) DESC, u.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []UserStat
	for rows.Next() {
		var st UserStat
		if err := rows.Scan(&st.User, &st.Total, &st.Open); err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

func (s *statsStore) UserMonthlyStats(ctx context.Context, user string) ([]MonthlyUserStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', date) AS month,
		       COALESCE(SUM(CASE WHEN closed=0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN closed=1 THEN 1 ELSE 0 END), 0),
		       COUNT(*)
		FROM mistakes
		WHERE user = ?
		GROUP BY month
		ORDER BY month DESC`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []MonthlyUserStat
	for rows.Next() {
		var st MonthlyUserStat
		if err := rows.Scan(&st.Month, &st.Open, &st.Closed, &st.Total); err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

func (s *statsStore) PriorityStats(ctx context.Context) ([]PriorityStat, error) {
	res := []PriorityStat{
		{Priority: PriorityNormal},
		{Priority: PriorityCritical},
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT priority, COUNT(*) FROM mistakes GROUP BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p, cnt int
		if err := rows.Scan(&p, &cnt); err != nil {
			return nil, err
		}
		for i := range res {
			if res[i].Priority == p {
				res[i].Count = cnt
			}
		}
	}
	return res, rows.Err()
}

func (s *statsStore) StatusStats(ctx context.Context) (StatusStat, error) {
	var st StatusStat
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN closed=0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN closed=1 THEN 1 ELSE 0 END), 0)
		FROM mistakes`).Scan(&st.Open, &st.Closed)
	return st, err
}

// PeriodStats aggregates the trailing window of the given number of days;
// days <= 0 means all time. Cutoffs are computed here and bound as
// parameters so the stored timestamps compare consistently.
func (s *statsStore) PeriodStats(ctx context.Context, days int) (*PeriodStat, error) {
	where := ""
	var args []any
	if days > 0 {
		where = " WHERE date >= ?"
		args = append(args, s.now().AddDate(0, 0, -days))
	}
	st := &PeriodStat{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(COUNT(*), 0),
		       COALESCE(SUM(CASE WHEN closed=0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN closed=1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN priority=1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN priority=2 THEN 1 ELSE 0 END), 0)
		FROM mistakes`+where, args...).Scan(&st.Total, &st.Open, &st.Closed, &st.Normal, &st.Critical)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user, COUNT(*) AS cnt
		FROM mistakes`+where+`
		GROUP BY user
		ORDER BY cnt DESC, user ASC
		LIMIT 5`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t TopUser
		if err := rows.Scan(&t.User, &t.Count); err != nil {
			return nil, err
		}
		st.Top = append(st.Top, t)
	}
	return st, rows.Err()
}

// WeekMistakes lists everything registered in the ISO week containing ref,
// Monday through Sunday.
func (s *statsStore) WeekMistakes(ctx context.Context, ref time.Time) ([]Mistake, error) {
	ref = ref.UTC()
	weekday := int(ref.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(weekday - 1))
	end := start.AddDate(0, 0, 7)
	return s.listRange(ctx, start, end)
}

func (s *statsStore) MonthMistakes(ctx context.Context, year int, month time.Month) ([]Mistake, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return s.listRange(ctx, start, end)
}

func (s *statsStore) listRange(ctx context.Context, start, end time.Time) ([]Mistake, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user, description, date, priority, closed
		FROM mistakes
		WHERE date >= ? AND date < ?
		ORDER BY date ASC, id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Mistake
	for rows.Next() {
		var m Mistake
		var closed int
		if err := rows.Scan(&m.ID, &m.User, &m.Description, &m.Date, &m.Priority, &closed); err != nil {
			return nil, err
		}
		m.Closed = closed == 1
		res = append(res, m)
	}
	return res, rows.Err()
}
