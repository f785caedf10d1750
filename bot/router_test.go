package bot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kosyak-bot/config"
	"kosyak-bot/core/reporting"
	"kosyak-bot/core/store"
	"kosyak-bot/core/telegram"
	"kosyak-bot/core/tracker"
	"kosyak-bot/core/utils"
)

const (
	testGroupChat = int64(-100500)
	testAdminID   = int64(7000)
	testAdminChat = int64(7000)
)

type fakeAPI struct {
	sent     []telegram.SendMessageRequest
	edited   []telegram.EditMessageTextRequest
	answered []telegram.AnswerCallbackQueryRequest
}

func (f *fakeAPI) SendMessage(_ context.Context, req telegram.SendMessageRequest) error {
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeAPI) EditMessageText(_ context.Context, req telegram.EditMessageTextRequest) error {
	f.edited = append(f.edited, req)
	return nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, req telegram.AnswerCallbackQueryRequest) error {
	f.answered = append(f.answered, req)
	return nil
}

func setupDispatcher(t *testing.T) (*Dispatcher, *fakeAPI) {
	t.Helper()
	cfg := &config.AppConfig{
		BotToken:    "t",
		GroupChatID: testGroupChat,
		AdminIDs:    []int64{testAdminID},
		DBPath:      filepath.Join(t.TempDir(), "tracker.db"),
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	staff := store.NewStaffStore(db)
	mistakes := store.NewMistakesStore(db)
	reports := reporting.NewService(store.NewStatsStore(db), mistakes)
	trk := tracker.NewService(staff, mistakes, reports, logger)
	access, err := NewAccess(cfg.AdminIDs)
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	api := &fakeAPI{}
	return NewDispatcher(cfg, api, trk, reports, staff, mistakes, access, logger), api
}

func groupMessage(from int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		MessageID: 1,
		From:      &telegram.User{ID: from},
		Chat:      telegram.Chat{ID: testGroupChat, Type: "supergroup"},
		Text:      text,
	}}
}

func privateMessage(from int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		MessageID: 1,
		From:      &telegram.User{ID: from},
		Chat:      telegram.Chat{ID: testAdminChat, Type: "private"},
		Text:      text,
	}}
}

func lastSent(t *testing.T, api *fakeAPI) telegram.SendMessageRequest {
	t.Helper()
	if len(api.sent) == 0 {
		t.Fatal("no message sent")
	}
	return api.sent[len(api.sent)-1]
}

func TestGroupFlowAddAndClose(t *testing.T) {
	d, api := setupDispatcher(t)
	ctx := context.Background()

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/add_user Иван Петров"))
	if got := lastSent(t, api); !strings.Contains(got.Text, "Иван Петров добавлен") {
		t.Fatalf("add_user reply wrong: %q", got.Text)
	}

	d.HandleUpdate(ctx, groupMessage(testAdminID, "+1 косяк !!! Иван Петров - уронил прод"))
	got := lastSent(t, api)
	if got.ChatID != testGroupChat {
		t.Fatalf("reply went to wrong chat: %d", got.ChatID)
	}
	if !strings.Contains(got.Text, "Косяк #1 добавлен") || !strings.Contains(got.Text, "критический") {
		t.Fatalf("add reply wrong: %q", got.Text)
	}

	d.HandleUpdate(ctx, groupMessage(testAdminID, "-1 косяк #1 - пофиксили"))
	got = lastSent(t, api)
	if !strings.Contains(got.Text, "Косяк #1 закрыт") || !strings.Contains(got.Text, "пофиксили") {
		t.Fatalf("close reply wrong: %q", got.Text)
	}
}

func TestGroupIgnoresNonAdmins(t *testing.T) {
	d, api := setupDispatcher(t)

	d.HandleUpdate(context.Background(), groupMessage(999, "+1 косяк Иван Петров - что-то"))
	if len(api.sent) != 0 {
		t.Fatalf("non-admin must be ignored, sent %v", api.sent)
	}
}

func TestGroupUnknownStaffSuggestsRoster(t *testing.T) {
	d, api := setupDispatcher(t)
	ctx := context.Background()

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/add_user Анна Иванова"))
	d.HandleUpdate(ctx, groupMessage(testAdminID, "+1 косяк Борис Козлов - опоздал"))
	got := lastSent(t, api)
	if !strings.Contains(got.Text, "Борис Козлов не найден") || !strings.Contains(got.Text, "• Анна Иванова") {
		t.Fatalf("unknown staff reply wrong: %q", got.Text)
	}
}

func TestPrivateChatDeniedForStrangers(t *testing.T) {
	d, api := setupDispatcher(t)

	d.HandleUpdate(context.Background(), privateMessage(999, "/start"))
	got := lastSent(t, api)
	if !strings.Contains(got.Text, "нет доступа") {
		t.Fatalf("stranger must be refused: %q", got.Text)
	}
}

func TestFindMistakeCommand(t *testing.T) {
	d, api := setupDispatcher(t)
	ctx := context.Background()

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/add_user Иван Петров"))
	d.HandleUpdate(ctx, groupMessage(testAdminID, "+1 косяк Иван Петров - опоздал"))

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/find_mistake 1"))
	got := lastSent(t, api)
	if !strings.Contains(got.Text, "#1") || !strings.Contains(got.Text, "опоздал") {
		t.Fatalf("find reply wrong: %q", got.Text)
	}

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/find_mistake 99"))
	got = lastSent(t, api)
	if !strings.Contains(got.Text, "#99 не найден") {
		t.Fatalf("missing id reply wrong: %q", got.Text)
	}

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/find_mistake abc"))
	got = lastSent(t, api)
	if !strings.Contains(got.Text, "Неверный формат") {
		t.Fatalf("bad format reply wrong: %q", got.Text)
	}
}

func callbackUpdate(from int64, data string) telegram.Update {
	return telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb1",
		From: telegram.User{ID: from},
		Data: data,
		Message: &telegram.Message{
			MessageID: 10,
			Chat:      telegram.Chat{ID: testAdminChat, Type: "private"},
		},
	}}
}

func TestStatsCallbackEditsMessage(t *testing.T) {
	d, api := setupDispatcher(t)
	ctx := context.Background()

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/add_user Иван Петров"))
	d.HandleUpdate(ctx, groupMessage(testAdminID, "+1 косяк Иван Петров - опоздал"))

	d.HandleUpdate(ctx, callbackUpdate(testAdminID, "stats_type:status"))
	if len(api.edited) != 1 {
		t.Fatalf("expected one edit, got %d", len(api.edited))
	}
	if !strings.Contains(api.edited[0].Text, "Активных: `1`") {
		t.Fatalf("status stats wrong: %q", api.edited[0].Text)
	}
	if len(api.answered) == 0 {
		t.Fatal("callback must be answered")
	}
}

func TestShowUserMonthlyDrilldown(t *testing.T) {
	d, api := setupDispatcher(t)
	ctx := context.Background()

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/add_user Иван Петров"))
	d.HandleUpdate(ctx, groupMessage(testAdminID, "+1 косяк Иван Петров - опоздал"))
	d.HandleUpdate(ctx, groupMessage(testAdminID, "-1 косяк #1"))
	d.HandleUpdate(ctx, groupMessage(testAdminID, "+1 косяк Иван Петров - забыл"))

	d.HandleUpdate(ctx, callbackUpdate(testAdminID, "show_user:Иван Петров"))
	listing := lastSent(t, api)
	markup, ok := listing.ReplyMarkup.(telegram.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("mistake listing must carry the drilldown button: %+v", listing)
	}
	drill := markup.InlineKeyboard[0][0].CallbackData
	if drill != "user_stats:Иван Петров" {
		t.Fatalf("unexpected drilldown callback: %s", drill)
	}

	d.HandleUpdate(ctx, callbackUpdate(testAdminID, drill))
	got := lastSent(t, api)
	if !strings.Contains(got.Text, "Статистика для Иван Петров") {
		t.Fatalf("drilldown header missing: %q", got.Text)
	}
	if !strings.Contains(got.Text, "Активных: 1, Исправленных: 1, Всего: 2") {
		t.Fatalf("monthly split wrong: %q", got.Text)
	}
}

func TestShowUserWithoutMistakesHasNoDrilldown(t *testing.T) {
	d, api := setupDispatcher(t)
	ctx := context.Background()

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/add_user Иван Петров"))
	d.HandleUpdate(ctx, callbackUpdate(testAdminID, "show_user:Иван Петров"))
	got := lastSent(t, api)
	if !strings.Contains(got.Text, "нет косяков") {
		t.Fatalf("empty listing wrong: %q", got.Text)
	}
	if got.ReplyMarkup != nil {
		t.Fatalf("no drilldown expected without mistakes: %+v", got.ReplyMarkup)
	}
}

func TestExpiredClearTokensSwept(t *testing.T) {
	d, _ := setupDispatcher(t)

	d.mu.Lock()
	d.pending["stale"] = utils.NowUTC().Add(-time.Minute)
	d.mu.Unlock()

	d.newClearToken()

	d.mu.Lock()
	_, staleKept := d.pending["stale"]
	size := len(d.pending)
	d.mu.Unlock()
	if staleKept {
		t.Fatal("expired token must be swept")
	}
	if size != 1 {
		t.Fatalf("only the fresh token should remain, got %d", size)
	}
}

func TestCallbackDeniedForStrangers(t *testing.T) {
	d, api := setupDispatcher(t)

	d.HandleUpdate(context.Background(), callbackUpdate(999, "stats_type:status"))
	if len(api.edited) != 0 {
		t.Fatalf("stranger callback must not edit: %v", api.edited)
	}
	if len(api.answered) != 1 || !api.answered[0].ShowAlert {
		t.Fatalf("stranger must get an alert: %v", api.answered)
	}
}

func TestClearStatsConfirmFlow(t *testing.T) {
	d, api := setupDispatcher(t)
	ctx := context.Background()

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/add_user Иван Петров"))
	d.HandleUpdate(ctx, groupMessage(testAdminID, "+1 косяк Иван Петров - опоздал"))

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/clear_stats"))
	prompt := lastSent(t, api)
	markup, ok := prompt.ReplyMarkup.(telegram.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("confirm prompt has no inline keyboard: %+v", prompt)
	}
	confirmData := markup.InlineKeyboard[0][0].CallbackData
	if !strings.HasPrefix(confirmData, "clear_stats:confirm:") {
		t.Fatalf("unexpected confirm callback: %s", confirmData)
	}

	d.HandleUpdate(ctx, callbackUpdate(testAdminID, confirmData))
	if len(api.edited) == 0 || !strings.Contains(api.edited[len(api.edited)-1].Text, "очищена") {
		t.Fatalf("clear not confirmed: %v", api.edited)
	}

	// Replaying the same token must not clear again.
	d.HandleUpdate(ctx, callbackUpdate(testAdminID, confirmData))
	if !strings.Contains(api.edited[len(api.edited)-1].Text, "устарело") {
		t.Fatalf("token replay must be rejected: %v", api.edited[len(api.edited)-1].Text)
	}
}

func TestClearStatsCancel(t *testing.T) {
	d, api := setupDispatcher(t)
	ctx := context.Background()

	d.HandleUpdate(ctx, privateMessage(testAdminID, "/add_user Иван Петров"))
	d.HandleUpdate(ctx, groupMessage(testAdminID, "+1 косяк Иван Петров - опоздал"))
	d.HandleUpdate(ctx, privateMessage(testAdminID, "/clear_stats"))
	prompt := lastSent(t, api)
	markup := prompt.ReplyMarkup.(telegram.InlineKeyboardMarkup)
	cancelData := markup.InlineKeyboard[0][1].CallbackData

	d.HandleUpdate(ctx, callbackUpdate(testAdminID, cancelData))
	if !strings.Contains(api.edited[len(api.edited)-1].Text, "отменена") {
		t.Fatalf("cancel edit wrong: %v", api.edited)
	}

	// Data survived the cancel.
	d.HandleUpdate(ctx, privateMessage(testAdminID, "/find_mistake 1"))
	if got := lastSent(t, api); !strings.Contains(got.Text, "#1") {
		t.Fatalf("mistake must survive cancel: %q", got.Text)
	}
}
