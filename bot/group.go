package bot

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"kosyak-bot/core/store"
	"kosyak-bot/core/telegram"
)

// Incident grammar of the group chat. Names are two cyrillic words exactly as
// registered; "!!!" before the name marks a critical mistake.
var (
	addNormalRe   = regexp.MustCompile(`^\+1 косяк\s+([А-Яа-я]+\s+[А-Яа-я]+)\s*-\s*(.+)`)
	addCriticalRe = regexp.MustCompile(`^\+1 косяк\s+!!!\s+([А-Яа-я]+\s+[А-Яа-я]+)\s*-\s*(.+)`)
	closeRe       = regexp.MustCompile(`^-1 косяк\s+#(\d+)(?:\s*-\s*(.+))?`)
)

// ParseAddMistake recognizes "+1 косяк [!!!] Имя Фамилия - описание".
func ParseAddMistake(text string) (user, description string, priority int, ok bool) {
	re := addNormalRe
	priority = store.PriorityNormal
	if strings.Contains(text, "!!!") {
		re = addCriticalRe
		priority = store.PriorityCritical
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", "", 0, false
	}
	return m[1], strings.TrimSpace(m[2]), priority, true
}

// ParseCloseMistake recognizes "-1 косяк #ID" with an optional trailing
// " - комментарий".
func ParseCloseMistake(text string) (id int64, comment string, ok bool) {
	m := closeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, strings.TrimSpace(m[2]), true
}

func (d *Dispatcher) handleGroupMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || !d.access.IsAdmin(msg.From.ID) {
		return
	}
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "+1 косяк"):
		d.handleAddMistake(ctx, msg, text)
	case strings.HasPrefix(text, "-1 косяк"):
		d.handleCloseMistake(ctx, msg, text)
	}
}

func (d *Dispatcher) handleAddMistake(ctx context.Context, msg *telegram.Message, text string) {
	user, description, priority, ok := ParseAddMistake(text)
	if !ok {
		d.reply(ctx, msg,
			"❌ Неверный формат. Используйте:\n"+
				"Обычный косяк: +1 косяк Имя Фамилия - описание\n"+
				"Критический косяк: +1 косяк !!! Имя Фамилия - описание")
		return
	}
	id, err := d.tracker.AddMistake(ctx, user, description, priority)
	if err != nil {
		d.replyTrackerError(ctx, msg, err)
		return
	}
	d.reply(ctx, msg, formatMistakeAdded(id, user, description, priority))
}

func (d *Dispatcher) handleCloseMistake(ctx context.Context, msg *telegram.Message, text string) {
	id, comment, ok := ParseCloseMistake(text)
	if !ok {
		d.reply(ctx, msg,
			"❌ Неверный формат. Используйте:\n"+
				"-1 косяк #ID\n"+
				"или\n"+
				"-1 косяк #ID - комментарий")
		return
	}
	var actorID int64
	if msg.From != nil {
		actorID = msg.From.ID
	}
	if err := d.tracker.CloseMistake(ctx, id, actorID, comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.replyf(ctx, msg, "❌ Косяк #%d не найден", id)
			return
		}
		d.replyTrackerError(ctx, msg, err)
		return
	}
	response := "✅ Косяк #" + strconv.FormatInt(id, 10) + " закрыт"
	if comment != "" {
		response += "\nКомментарий: " + comment
	}
	d.reply(ctx, msg, response)
}
