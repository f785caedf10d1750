package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"kosyak-bot/config"
	"kosyak-bot/core/reporting"
	"kosyak-bot/core/store"
	"kosyak-bot/core/telegram"
	"kosyak-bot/core/utils"
)

// Sender is the single Bot API call the scheduler needs.
type Sender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
}

// Scheduler posts periodic digests to the group chat: a weekday reminder
// about mistakes left open too long, and a weekly summary.
type Scheduler struct {
	cfg      config.SchedulerConfig
	chatID   int64
	sender   Sender
	reports  *reporting.Service
	mistakes store.MistakesStore
	logger   *utils.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func New(
	cfg config.SchedulerConfig,
	chatID int64,
	sender Sender,
	reports *reporting.Service,
	mistakes store.MistakesStore,
	logger *utils.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		chatID:   chatID,
		sender:   sender,
		reports:  reports,
		mistakes: mistakes,
		logger:   logger,
		now:      utils.NowUTC,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || !s.cfg.Enabled {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.StaleReminderCron, func() { s.RunStaleReminder(ctx) }); err != nil {
		return fmt.Errorf("schedule stale reminder: %w", err)
	}
	if _, err := c.AddFunc(s.cfg.WeeklyReportCron, func() { s.RunWeeklyReport(ctx) }); err != nil {
		return fmt.Errorf("schedule weekly report: %w", err)
	}
	s.cron = c
	c.Start()
	s.logger.Printf("scheduler started: stale=%q weekly=%q", s.cfg.StaleReminderCron, s.cfg.WeeklyReportCron)
	return nil
}

func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunStaleReminder posts a list of mistakes that stayed open longer than the
// configured threshold. Silent when there is nothing stale.
func (s *Scheduler) RunStaleReminder(ctx context.Context) {
	days := s.cfg.StaleAfterDays
	if days <= 0 {
		days = 7
	}
	cutoff := s.now().AddDate(0, 0, -days)
	stale, err := s.mistakes.ListStale(ctx, cutoff)
	if err != nil {
		s.logger.Errorf("stale reminder: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	if err := s.sender.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID: s.chatID,
		Text:   formatStaleReminder(stale),
	}); err != nil {
		s.logger.Errorf("send stale reminder: %v", err)
	}
}

// RunWeeklyReport posts everything registered during the current ISO week.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) {
	ref := s.now()
	mistakes, err := s.reports.WeekMistakes(ctx, ref)
	if err != nil {
		s.logger.Errorf("weekly report: %v", err)
		return
	}
	if err := s.sender.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID: s.chatID,
		Text:   formatWeekDigest(weekStart(ref), mistakes),
	}); err != nil {
		s.logger.Errorf("send weekly report: %v", err)
	}
}

func weekStart(ref time.Time) time.Time {
	ref = ref.UTC()
	weekday := int(ref.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(weekday - 1))
}

func formatStaleReminder(mistakes []store.Mistake) string {
	var b strings.Builder
	b.WriteString("⏰ Напоминание: косяки открыты слишком долго\n\n")
	for _, m := range mistakes {
		mark := "❗"
		if m.Priority == store.PriorityCritical {
			mark = "‼️"
		}
		fmt.Fprintf(&b, "%s #%d %s - %s (%s)\n",
			mark, m.ID, m.User, m.Description, m.Date.Format("2006-01-02"))
	}
	return b.String()
}

func formatWeekDigest(weekStart time.Time, mistakes []store.Mistake) string {
	if len(mistakes) == 0 {
		return fmt.Sprintf("📑 Итоги недели с %s: косяков нет", weekStart.Format("2006-01-02"))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📑 Итоги недели с %s:\n\n", weekStart.Format("2006-01-02"))
	for _, m := range mistakes {
		status := "❌"
		if m.Closed {
			status = "✅"
		}
		fmt.Fprintf(&b, "#%d %s - %s (%s) %s\n",
			m.ID, m.User, m.Description, m.Date.Format("2006-01-02"), status)
	}
	return b.String()
}
