package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"kosyak-bot/core/telegram"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// handleWebhook authenticates the request by the secret token Telegram echoes
// back, then dispatches the update synchronously. Telegram retries on
// non-200, so malformed payloads still answer 200 to avoid redelivery loops.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Transport.WebhookSecret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Transport.WebhookSecret)) != 1 {
			if s.logger != nil {
				s.logger.Printf("webhook rejected: bad secret token")
			}
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}
	var upd telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		if s.logger != nil {
			s.logger.Errorf("webhook decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		return
	}
	s.handler.HandleUpdate(r.Context(), upd)
	w.WriteHeader(http.StatusOK)
}
