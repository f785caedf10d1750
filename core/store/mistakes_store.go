package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kosyak-bot/core/utils"
)

const (
	PriorityNormal   = 1
	PriorityCritical = 2
)

// NormalizePriority coerces anything outside {1, 2} to NORMAL.
func NormalizePriority(p int) int {
	if p != PriorityNormal && p != PriorityCritical {
		return PriorityNormal
	}
	return p
}

// commentSeparator joins flattened comment texts in list queries.
const commentSeparator = "|"

type Mistake struct {
	ID          int64
	User        string
	Description string
	Date        time.Time
	Priority    int
	Closed      bool
	Comments    []string
}

type Comment struct {
	MistakeID int64
	UserID    int64
	Text      string
	Date      time.Time
}

// MistakeFilter composes with logical AND; every field is independently
// optional. Text matches the description as a substring, or the exact id when
// it is purely numeric.
type MistakeFilter struct {
	User     string
	Status   string // "open" or "closed"
	Priority int
	Text     string
}

// SearchLimit is the hard cap on Search results. The store silently truncates
// instead of erroring; callers surface the cap to the user.
const SearchLimit = 50

type MistakesStore interface {
	AddMistake(ctx context.Context, user, description string, priority int) (int64, error)
	MistakeExists(ctx context.Context, id int64) (bool, error)
	CloseMistake(ctx context.Context, id int64) error
	AddComment(ctx context.Context, mistakeID, userID int64, text string) error
	GetMistake(ctx context.Context, id int64) (*Mistake, error)
	GetMistakeComments(ctx context.Context, id int64) ([]Comment, error)
	ListByDate(ctx context.Context, day time.Time) ([]Mistake, error)
	ListByUser(ctx context.Context, user string) ([]Mistake, error)
	ListStale(ctx context.Context, olderThan time.Time) ([]Mistake, error)
	Search(ctx context.Context, filter MistakeFilter) ([]Mistake, error)
	ClearAll(ctx context.Context) error
	HasAnyData(ctx context.Context) (bool, error)
}

type mistakesStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewMistakesStore(db *sql.DB) MistakesStore {
	return &mistakesStore{db: db, now: utils.NowUTC}
}

func (s *mistakesStore) AddMistake(ctx context.Context, user, description string, priority int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO mistakes(user, description, date, priority, closed)
		VALUES(?,?,?,?,0)`,
		user, description, s.now(), NormalizePriority(priority))
	if err != nil {
		return 0, fmt.Errorf("add mistake for %s: %w", user, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *mistakesStore) MistakeExists(ctx context.Context, id int64) (bool, error) {
	var cnt int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mistakes WHERE id=?`, id).Scan(&cnt); err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// CloseMistake flips the closed flag. Closing an already-closed mistake is a
// no-op success; an unknown id is ErrNotFound.
func (s *mistakesStore) CloseMistake(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE mistakes SET closed=1 WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("close mistake #%d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mistakesStore) AddComment(ctx context.Context, mistakeID, userID int64, text string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comments(mistake_id, user_id, text, date)
		SELECT ?, ?, ?, ? WHERE EXISTS(SELECT 1 FROM mistakes WHERE id=?)`,
		mistakeID, userID, text, s.now(), mistakeID)
	if err != nil {
		return fmt.Errorf("add comment to #%d: %w", mistakeID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

const mistakeColumns = `m.id, m.user, m.description, m.date, m.priority, m.closed`

func (s *mistakesStore) GetMistake(ctx context.Context, id int64) (*Mistake, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+mistakeColumns+`, GROUP_CONCAT(c.text, '`+commentSeparator+`')
		FROM mistakes m
		LEFT JOIN comments c ON m.id = c.mistake_id
		WHERE m.id=?
		GROUP BY m.id`, id)
	m, err := scanMistakeWithComments(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (s *mistakesStore) GetMistakeComments(ctx context.Context, id int64) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mistake_id, user_id, text, date
		FROM comments WHERE mistake_id=? ORDER BY date ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.MistakeID, &c.UserID, &c.Text, &c.Date); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *mistakesStore) ListByDate(ctx context.Context, day time.Time) ([]Mistake, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	return s.listWithComments(ctx, `m.date >= ? AND m.date < ?`, start, end)
}

func (s *mistakesStore) ListByUser(ctx context.Context, user string) ([]Mistake, error) {
	return s.listWithComments(ctx, `m.user = ?`, user)
}

func (s *mistakesStore) listWithComments(ctx context.Context, where string, args ...any) ([]Mistake, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mistakeColumns+`, GROUP_CONCAT(c.text, '`+commentSeparator+`')
		FROM mistakes m
		LEFT JOIN comments c ON m.id = c.mistake_id
		WHERE `+where+`
		GROUP BY m.id
		ORDER BY m.date DESC, m.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Mistake
	for rows.Next() {
		m, err := scanMistakeWithComments(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *m)
	}
	return res, rows.Err()
}

// ListStale returns open mistakes created at or before the cutoff, oldest
// first. Used by the scheduled reminder.
func (s *mistakesStore) ListStale(ctx context.Context, olderThan time.Time) ([]Mistake, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mistakeColumns+`
		FROM mistakes m
		WHERE m.closed=0 AND m.date <= ?
		ORDER BY m.date ASC, m.id ASC`, olderThan)
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

func (s *mistakesStore) Search(ctx context.Context, filter MistakeFilter) ([]Mistake, error) {
	var clauses []string
	var args []any
	if filter.User != "" {
		clauses = append(clauses, "user LIKE ?")
		args = append(args, "%"+filter.User+"%")
	}
	if filter.Status != "" {
		closed := 0
		if filter.Status == "closed" {
			closed = 1
		}
		clauses = append(clauses, "closed = ?")
		args = append(args, closed)
	}
	if filter.Priority != 0 {
		clauses = append(clauses, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.Text != "" {
		id := int64(-1)
		if n, err := strconv.ParseInt(filter.Text, 10, 64); err == nil {
			id = n
		}
		clauses = append(clauses, "(description LIKE ? OR id = ?)")
		args = append(args, "%"+filter.Text+"%", id)
	}
	query := `SELECT id, user, description, date, priority, closed FROM mistakes`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY date DESC, id DESC LIMIT %d", SearchLimit)
	rows, err := s.db.QueryContext(ctx, query, args...)
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

// ClearAll deletes every mistake and comment in one transaction. Staff
// members are untouched. Clearing an empty store is a success.
func (s *mistakesStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM mistakes`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear mistakes: %w", err)
	}
	return tx.Commit()
}

func (s *mistakesStore) HasAnyData(ctx context.Context) (bool, error) {
	var cnt int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mistakes`).Scan(&cnt); err != nil {
		return false, err
	}
	return cnt > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMistakeWithComments(row rowScanner) (*Mistake, error) {
	var m Mistake
	var closed int
	var comments sql.NullString
	if err := row.Scan(&m.ID, &m.User, &m.Description, &m.Date, &m.Priority, &closed, &comments); err != nil {
		return nil, err
	}
	m.Closed = closed == 1
	if comments.Valid && comments.String != "" {
		m.Comments = strings.Split(comments.String, commentSeparator)
	}
	return &m, nil
}
