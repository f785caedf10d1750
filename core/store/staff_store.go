package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kosyak-bot/core/utils"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrHasOpenMistakes = errors.New("staff member has open mistakes")
)

type StaffStore interface {
	AddStaff(ctx context.Context, name string) error
	DeleteStaff(ctx context.Context, name string) error
	ListStaff(ctx context.Context) ([]string, error)
	StaffExists(ctx context.Context, name string) (bool, error)
}

type staffStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewStaffStore(db *sql.DB) StaffStore {
	return &staffStore{db: db, now: utils.NowUTC}
}

func (s *staffStore) AddStaff(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users(name, created_at) VALUES(?, ?)`, name, s.now())
	if err != nil {
		return fmt.Errorf("add staff %s: %w", name, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *staffStore) DeleteStaff(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var open int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM mistakes WHERE user=? AND closed=0`, name).Scan(&open); err != nil {
		tx.Rollback()
		return fmt.Errorf("count open mistakes for %s: %w", name, err)
	}
	if open > 0 {
		tx.Rollback()
		return ErrHasOpenMistakes
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE name=?`, name)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete staff %s: %w", name, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *staffStore) ListStaff(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

func (s *staffStore) StaffExists(ctx context.Context, name string) (bool, error) {
	var cnt int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE name=?`, name).Scan(&cnt); err != nil {
		return false, err
	}
	return cnt > 0, nil
}
