package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"kosyak-bot/core/store"
	"kosyak-bot/core/telegram"
)

func (d *Dispatcher) handleAdminMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	if !d.access.IsAdmin(msg.From.ID) {
		if strings.HasPrefix(msg.Text, "/start") {
			d.reply(ctx, msg, "У вас нет доступа к этому боту.")
		}
		return
	}
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		d.sendWithMarkup(ctx, msg.Chat.ID,
			"Привет! Я бот для учета косяков.\nИспользуйте клавиатуру ниже для управления:",
			adminKeyboard())
	case strings.HasPrefix(text, "/add_user"):
		d.cmdAddUser(ctx, msg, text)
	case strings.HasPrefix(text, "/del_user"):
		d.cmdDelUser(ctx, msg, text)
	case strings.HasPrefix(text, "/find_mistake"):
		d.cmdFindMistake(ctx, msg, text)
	case strings.HasPrefix(text, "/find_date"):
		d.cmdFindDate(ctx, msg, text)
	case strings.HasPrefix(text, "/clear_stats"):
		d.cmdClearStats(ctx, msg)
	case text == menuStaff || text == menuStaffAlt:
		d.showRoster(ctx, msg)
	case text == menuStats:
		d.sendWithMarkup(ctx, msg.Chat.ID, "📊 Выберите тип статистики:", statsKeyboard())
	case text == menuReports:
		d.showReportsMenu(ctx, msg)
	case text == menuSearch || text == menuSearchAlt:
		d.sendWithMarkup(ctx, msg.Chat.ID, "🔍 Выберите тип поиска:", searchKeyboard())
	}
}

func (d *Dispatcher) cmdAddUser(ctx context.Context, msg *telegram.Message, text string) {
	args := strings.Fields(text)[1:]
	if len(args) < 2 {
		d.reply(ctx, msg, "Используйте формат:\n/add_user Имя Фамилия")
		return
	}
	name := strings.Join(args, " ")
	err := d.tracker.AddStaff(ctx, name)
	switch {
	case err == nil:
		d.replyf(ctx, msg, "Сотрудник %s добавлен", name)
	case errors.Is(err, store.ErrConflict):
		d.replyf(ctx, msg, "Сотрудник %s уже существует", name)
	default:
		d.replyTrackerError(ctx, msg, err)
	}
}

func (d *Dispatcher) cmdDelUser(ctx context.Context, msg *telegram.Message, text string) {
	args := strings.Fields(text)[1:]
	if len(args) < 2 {
		d.reply(ctx, msg, "Используйте формат:\n/del_user Имя Фамилия")
		return
	}
	name := strings.Join(args, " ")
	err := d.tracker.DeleteStaff(ctx, name)
	switch {
	case err == nil:
		d.replyf(ctx, msg, "✅ Сотрудник %s удален", name)
	case errors.Is(err, store.ErrNotFound):
		d.replyf(ctx, msg, "❌ Сотрудник %s не найден", name)
	case errors.Is(err, store.ErrHasOpenMistakes):
		d.replyf(ctx, msg, "❌ Невозможно удалить сотрудника %s\nВозможно у него есть активные косяки", name)
	default:
		d.replyTrackerError(ctx, msg, err)
	}
}

func (d *Dispatcher) cmdFindMistake(ctx context.Context, msg *telegram.Message, text string) {
	args := strings.Fields(text)
	if len(args) < 2 {
		d.reply(ctx, msg, "❌ Неверный формат. Используйте:\n/find_mistake ID")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		d.reply(ctx, msg, "❌ Неверный формат. Используйте:\n/find_mistake ID")
		return
	}
	m, err := d.mistakes.GetMistake(ctx, id)
	if err != nil {
		d.replyTrackerError(ctx, msg, err)
		return
	}
	if m == nil {
		d.replyf(ctx, msg, "❌ Косяк #%d не найден", id)
		return
	}
	d.reply(ctx, msg, formatMistakeDetails(m))
}

func (d *Dispatcher) cmdFindDate(ctx context.Context, msg *telegram.Message, text string) {
	args := strings.Fields(text)
	if len(args) < 2 {
		d.reply(ctx, msg, "❌ Неверный формат. Используйте:\n/find_date YYYY-MM-DD")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", args[1], time.UTC)
	if err != nil {
		d.reply(ctx, msg, "❌ Неверный формат. Используйте:\n/find_date YYYY-MM-DD")
		return
	}
	mistakes, err := d.mistakes.ListByDate(ctx, day)
	if err != nil {
		d.replyTrackerError(ctx, msg, err)
		return
	}
	d.reply(ctx, msg, formatDateMistakes(args[1], mistakes))
}

func (d *Dispatcher) showRoster(ctx context.Context, msg *telegram.Message) {
	users, err := d.staff.ListStaff(ctx)
	if err != nil {
		d.replyTrackerError(ctx, msg, err)
		return
	}
	if len(users) == 0 {
		d.reply(ctx, msg, formatRoster(nil))
		return
	}
	d.sendMarkdown(ctx, msg.Chat.ID, formatRoster(users))
}

func (d *Dispatcher) showReportsMenu(ctx context.Context, msg *telegram.Message) {
	hasData, err := d.reports.HasAnyData(ctx)
	if err != nil {
		d.replyTrackerError(ctx, msg, err)
		return
	}
	if !hasData {
		d.reply(ctx, msg, "📑 Отчеты пока недоступны - нет данных")
		return
	}
	d.sendWithMarkup(ctx, msg.Chat.ID, "📑 Выберите период для отчета:", reportsKeyboard())
}

func (d *Dispatcher) cmdClearStats(ctx context.Context, msg *telegram.Message) {
	token := d.newClearToken()
	d.sendWithMarkup(ctx, msg.Chat.ID,
		"⚠️ Вы уверены, что хотите очистить всю статистику косяков?\n"+
			"Это действие нельзя отменить!\n"+
			"Список сотрудников останется без изменений.",
		clearConfirmKeyboard(token))
}
