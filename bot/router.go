package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kosyak-bot/config"
	"kosyak-bot/core/reporting"
	"kosyak-bot/core/store"
	"kosyak-bot/core/telegram"
	"kosyak-bot/core/tracker"
	"kosyak-bot/core/utils"
)

// API is the slice of the Bot API the dispatcher talks to.
type API interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
	EditMessageText(ctx context.Context, req telegram.EditMessageTextRequest) error
	AnswerCallbackQuery(ctx context.Context, req telegram.AnswerCallbackQueryRequest) error
}

// Dispatcher routes updates to handlers: callback queries first, then group
// chat messages by chat id, then private admin messages. Anything else is
// dropped.
type Dispatcher struct {
	cfg      *config.AppConfig
	api      API
	tracker  *tracker.Service
	reports  *reporting.Service
	staff    store.StaffStore
	mistakes store.MistakesStore
	access   *Access
	logger   *utils.Logger

	mu      sync.Mutex
	pending map[string]time.Time // clear-stats confirm tokens
}

func NewDispatcher(
	cfg *config.AppConfig,
	api API,
	trk *tracker.Service,
	reports *reporting.Service,
	staff store.StaffStore,
	mistakes store.MistakesStore,
	access *Access,
	logger *utils.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		api:      api,
		tracker:  trk,
		reports:  reports,
		staff:    staff,
		mistakes: mistakes,
		access:   access,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}
}

func (d *Dispatcher) HandleUpdate(ctx context.Context, upd telegram.Update) {
	switch {
	case upd.CallbackQuery != nil:
		d.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.Chat.ID == d.cfg.GroupChatID:
		d.handleGroupMessage(ctx, upd.Message)
	case upd.Message != nil && upd.Message.Chat.Type == "private":
		d.handleAdminMessage(ctx, upd.Message)
	}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string) {
	if err := d.api.SendMessage(ctx, telegram.SendMessageRequest{ChatID: chatID, Text: text}); err != nil {
		d.logger.Errorf("send message to %d: %v", chatID, err)
	}
}

func (d *Dispatcher) sendMarkdown(ctx context.Context, chatID int64, text string) {
	req := telegram.SendMessageRequest{ChatID: chatID, Text: text, ParseMode: "Markdown"}
	if err := d.api.SendMessage(ctx, req); err != nil {
		d.logger.Errorf("send message to %d: %v", chatID, err)
	}
}

func (d *Dispatcher) sendWithMarkup(ctx context.Context, chatID int64, text string, markup any) {
	req := telegram.SendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: markup}
	if err := d.api.SendMessage(ctx, req); err != nil {
		d.logger.Errorf("send message to %d: %v", chatID, err)
	}
}

func (d *Dispatcher) reply(ctx context.Context, msg *telegram.Message, text string) {
	d.send(ctx, msg.Chat.ID, text)
}

func (d *Dispatcher) replyf(ctx context.Context, msg *telegram.Message, format string, args ...any) {
	d.send(ctx, msg.Chat.ID, fmt.Sprintf(format, args...))
}

func (d *Dispatcher) replyTrackerError(ctx context.Context, msg *telegram.Message, err error) {
	var unknown *tracker.UnknownStaffError
	if errors.As(err, &unknown) {
		d.reply(ctx, msg, formatUnknownStaff(unknown.Name, unknown.Available))
		return
	}
	d.logger.Errorf("tracker: %v", err)
	d.reply(ctx, msg, "❌ Произошла ошибка при работе с базой данных.\nПожалуйста, попробуйте позже.")
}
