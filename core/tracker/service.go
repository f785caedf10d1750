package tracker

import (
	"context"
	"fmt"

	"kosyak-bot/core/store"
	"kosyak-bot/core/utils"
)

// UnknownStaffError is returned when a mistake names someone who is not on
// the roster. The current roster rides along so handlers can suggest it.
type UnknownStaffError struct {
	Name      string
	Available []string
}

func (e *UnknownStaffError) Error() string {
	return fmt.Sprintf("unknown staff member %q", e.Name)
}

// Invalidator is the piece of the reporting service the write path needs.
type Invalidator interface {
	Invalidate()
}

// Service is the write path of the tracker. Every mutation invalidates the
// report cache before returning.
type Service struct {
	staff    store.StaffStore
	mistakes store.MistakesStore
	reports  Invalidator
	logger   *utils.Logger
}

func NewService(staff store.StaffStore, mistakes store.MistakesStore, reports Invalidator, logger *utils.Logger) *Service {
	return &Service{staff: staff, mistakes: mistakes, reports: reports, logger: logger}
}

func (s *Service) invalidate() {
	if s.reports != nil {
		s.reports.Invalidate()
	}
}

func (s *Service) AddStaff(ctx context.Context, name string) error {
	if err := s.staff.AddStaff(ctx, name); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Printf("staff added: %s", name)
	return nil
}

func (s *Service) DeleteStaff(ctx context.Context, name string) error {
	if err := s.staff.DeleteStaff(ctx, name); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Printf("staff removed: %s", name)
	return nil
}

// AddMistake registers a mistake against a roster member. The name must match
// the roster exactly; otherwise the caller gets the roster back to retry with.
func (s *Service) AddMistake(ctx context.Context, user, description string, priority int) (int64, error) {
	ok, err := s.staff.StaffExists(ctx, user)
	if err != nil {
		return 0, err
	}
	if !ok {
		available, err := s.staff.ListStaff(ctx)
		if err != nil {
			return 0, err
		}
		return 0, &UnknownStaffError{Name: user, Available: available}
	}
	id, err := s.mistakes.AddMistake(ctx, user, description, priority)
	if err != nil {
		return 0, err
	}
	s.invalidate()
	s.logger.Printf("mistake #%d registered for %s (priority %d)", id, user, store.NormalizePriority(priority))
	return id, nil
}

// CloseMistake marks a mistake closed and optionally attaches a closing
// comment from the actor. Closing an already-closed mistake succeeds.
func (s *Service) CloseMistake(ctx context.Context, id int64, actorID int64, comment string) error {
	exists, err := s.mistakes.MistakeExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	if err := s.mistakes.CloseMistake(ctx, id); err != nil {
		return err
	}
	if comment != "" {
		if err := s.mistakes.AddComment(ctx, id, actorID, comment); err != nil {
			return err
		}
	}
	s.invalidate()
	s.logger.Printf("mistake #%d closed by %d", id, actorID)
	return nil
}

func (s *Service) AddComment(ctx context.Context, id int64, actorID int64, text string) error {
	if err := s.mistakes.AddComment(ctx, id, actorID, text); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// ClearAll wipes every mistake and comment but keeps the staff roster.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.mistakes.ClearAll(ctx); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Printf("mistake log cleared")
	return nil
}
