package bot

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"kosyak-bot/core/telegram"
	"kosyak-bot/core/utils"
)

// clearTokenTTL bounds how long a clear-stats confirmation prompt stays
// actionable.
const clearTokenTTL = 5 * time.Minute

func (d *Dispatcher) newClearToken() string {
	token := uuid.Must(uuid.NewV4()).String()
	now := utils.NowUTC()
	d.mu.Lock()
	// Prompts nobody ever answered would otherwise pin their entries forever.
	for tok, deadline := range d.pending {
		if now.After(deadline) {
			delete(d.pending, tok)
		}
	}
	d.pending[token] = now.Add(clearTokenTTL)
	d.mu.Unlock()
	return token
}

func (d *Dispatcher) takeClearToken(token string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	deadline, ok := d.pending[token]
	if !ok {
		return false
	}
	delete(d.pending, token)
	return utils.NowUTC().Before(deadline)
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	answer := func(text string, alert bool) {
		err := d.api.AnswerCallbackQuery(ctx, telegram.AnswerCallbackQueryRequest{
			CallbackQueryID: cb.ID,
			Text:            text,
			ShowAlert:       alert,
		})
		if err != nil {
			d.logger.Errorf("answer callback: %v", err)
		}
	}
	if !d.access.IsAdmin(cb.From.ID) {
		answer("У вас нет доступа к этой функции", true)
		return
	}
	if cb.Message == nil {
		answer("", false)
		return
	}
	parts := strings.SplitN(cb.Data, ":", 2)
	if len(parts) != 2 {
		answer("", false)
		return
	}
	prefix, arg := parts[0], parts[1]
	switch prefix {
	case "stats_type":
		d.callbackStats(ctx, cb, arg)
	case "report":
		d.callbackReport(ctx, cb, arg)
	case "search":
		d.callbackSearch(ctx, cb, arg)
	case "show_user":
		d.callbackShowUser(ctx, cb, arg)
	case "user_stats":
		d.callbackUserStats(ctx, cb, arg)
	case "clear_stats":
		d.callbackClearStats(ctx, cb, arg)
	}
	answer("", false)
}

func (d *Dispatcher) edit(ctx context.Context, cb *telegram.CallbackQuery, text string) {
	req := telegram.EditMessageTextRequest{
		ChatID:    cb.Message.Chat.ID,
		MessageID: cb.Message.MessageID,
		Text:      text,
		ParseMode: "Markdown",
	}
	if err := d.api.EditMessageText(ctx, req); err != nil {
		d.logger.Errorf("edit message: %v", err)
	}
}

func (d *Dispatcher) callbackStats(ctx context.Context, cb *telegram.CallbackQuery, kind string) {
	switch kind {
	case "users":
		stats, err := d.reports.UserStats(ctx)
		if err != nil {
			d.logger.Errorf("user stats: %v", err)
			return
		}
		d.edit(ctx, cb, formatUserStats(stats))
	case "priority":
		stats, err := d.reports.PriorityStats(ctx)
		if err != nil {
			d.logger.Errorf("priority stats: %v", err)
			return
		}
		d.edit(ctx, cb, formatPriorityStats(stats))
	case "status":
		stats, err := d.reports.StatusStats(ctx)
		if err != nil {
			d.logger.Errorf("status stats: %v", err)
			return
		}
		d.edit(ctx, cb, formatStatusStats(stats))
	}
}

func (d *Dispatcher) callbackReport(ctx context.Context, cb *telegram.CallbackQuery, period string) {
	days := 0
	title := "за все время"
	switch period {
	case "week":
		days = 7
		title = "за неделю"
	case "month":
		days = 30
		title = "за месяц"
	}
	stats, err := d.reports.PeriodStats(ctx, days)
	if err != nil {
		d.logger.Errorf("period stats: %v", err)
		return
	}
	d.edit(ctx, cb, formatPeriodReport(title, stats))
}

func (d *Dispatcher) callbackSearch(ctx context.Context, cb *telegram.CallbackQuery, kind string) {
	chatID := cb.Message.Chat.ID
	switch kind {
	case "by_user":
		users, err := d.staff.ListStaff(ctx)
		if err != nil {
			d.logger.Errorf("list staff: %v", err)
			return
		}
		if len(users) == 0 {
			d.send(ctx, chatID, "В базе пока нет сотрудников")
			return
		}
		d.sendWithMarkup(ctx, chatID, "Выберите сотрудника:", staffPickKeyboard(users))
	case "by_id":
		d.send(ctx, chatID,
			"Для поиска косяка по номеру используйте команду:\n"+
				"/find_mistake <номер>\n\n"+
				"Например: /find_mistake 123")
	case "by_date":
		d.send(ctx, chatID,
			"Для поиска косяков по дате используйте команду:\n"+
				"/find_date YYYY-MM-DD\n\n"+
				"Например: /find_date 2024-02-25")
	}
}

func (d *Dispatcher) callbackShowUser(ctx context.Context, cb *telegram.CallbackQuery, user string) {
	mistakes, err := d.mistakes.ListByUser(ctx, user)
	if err != nil {
		d.logger.Errorf("list mistakes for %s: %v", user, err)
		return
	}
	if len(mistakes) == 0 {
		d.send(ctx, cb.Message.Chat.ID, formatUserMistakes(user, nil))
		return
	}
	d.sendWithMarkup(ctx, cb.Message.Chat.ID, formatUserMistakes(user, mistakes), userStatsKeyboard(user))
}

func (d *Dispatcher) callbackUserStats(ctx context.Context, cb *telegram.CallbackQuery, user string) {
	stats, err := d.reports.UserMonthlyStats(ctx, user)
	if err != nil {
		d.logger.Errorf("monthly stats for %s: %v", user, err)
		return
	}
	d.send(ctx, cb.Message.Chat.ID, formatUserMonthlyStats(user, stats))
}

func (d *Dispatcher) callbackClearStats(ctx context.Context, cb *telegram.CallbackQuery, arg string) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		d.edit(ctx, cb, "❌ Очистка статистики отменена")
		return
	}
	action, token := parts[0], parts[1]
	valid := d.takeClearToken(token)
	if action != "confirm" {
		d.edit(ctx, cb, "❌ Очистка статистики отменена")
		return
	}
	if !valid {
		d.edit(ctx, cb, "❌ Подтверждение устарело, вызовите /clear_stats заново")
		return
	}
	if err := d.tracker.ClearAll(ctx); err != nil {
		d.logger.Errorf("clear stats: %v", err)
		d.edit(ctx, cb, "❌ Произошла ошибка при очистке статистики")
		return
	}
	d.edit(ctx, cb, "✅ Статистика косяков очищена")
}
