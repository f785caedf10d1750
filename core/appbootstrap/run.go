package appbootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"kosyak-bot/config"
	"kosyak-bot/core/store"
	"kosyak-bot/core/telegram"
	"kosyak-bot/core/utils"
)

const shutdownTimeout = 10 * time.Second

// Run wires the whole bot together and blocks until ctx is cancelled. The
// transport mode decides whether updates arrive by long polling or webhook;
// either way the HTTP server runs for the liveness probe.
func Run(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) error {
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, logger); err != nil {
		return err
	}

	comp, err := composeRuntime(cfg, db, logger)
	if err != nil {
		return err
	}

	if cfg.Transport.IsWebhookMode() {
		err := comp.client.SetWebhook(ctx, telegram.SetWebhookRequest{
			URL:         cfg.Transport.WebhookURL,
			SecretToken: cfg.Transport.WebhookSecret,
		})
		if err != nil {
			return err
		}
	} else {
		// A lingering webhook blocks getUpdates.
		if err := comp.client.DeleteWebhook(ctx); err != nil {
			logger.Errorf("delete webhook: %v", err)
		}
		comp.poller.StartWithContext(ctx)
	}

	if err := comp.scheduler.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := comp.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	comp.scheduler.Stop()
	if comp.poller != nil {
		if err := comp.poller.StopWithContext(shutdownCtx); err != nil {
			logger.Errorf("stop poller: %v", err)
		}
	}
	if err := comp.server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("stop http server: %v", err)
	}
	return nil
}
