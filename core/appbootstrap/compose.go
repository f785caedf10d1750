package appbootstrap

import (
	"database/sql"

	"kosyak-bot/api"
	"kosyak-bot/bot"
	"kosyak-bot/config"
	"kosyak-bot/core/reporting"
	"kosyak-bot/core/scheduler"
	"kosyak-bot/core/store"
	"kosyak-bot/core/telegram"
	"kosyak-bot/core/tracker"
	"kosyak-bot/core/utils"
)

type runtimeComposition struct {
	dispatcher *bot.Dispatcher
	client     *telegram.Client
	poller     *telegram.Poller
	server     *api.Server
	scheduler  *scheduler.Scheduler
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*runtimeComposition, error) {
	staffStore := store.NewStaffStore(db)
	mistakesStore := store.NewMistakesStore(db)
	statsStore := store.NewStatsStore(db)

	reports := reporting.NewService(statsStore, mistakesStore)
	trackerSvc := tracker.NewService(staffStore, mistakesStore, reports, logger)

	access, err := bot.NewAccess(cfg.AdminIDs)
	if err != nil {
		return nil, err
	}

	client := telegram.NewClient(cfg.BotToken, logger)
	dispatcher := bot.NewDispatcher(cfg, client, trackerSvc, reports, staffStore, mistakesStore, access, logger)

	comp := &runtimeComposition{
		dispatcher: dispatcher,
		client:     client,
		server:     api.NewServer(cfg, dispatcher, logger),
		scheduler:  scheduler.New(cfg.Scheduler, cfg.GroupChatID, client, reports, mistakesStore, logger),
	}
	if !cfg.Transport.IsWebhookMode() {
		comp.poller = telegram.NewPoller(client, dispatcher, cfg.Transport.PollTimeoutSec, logger)
	}
	return comp, nil
}
