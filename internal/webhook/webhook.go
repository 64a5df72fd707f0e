package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// SecretHeader carries the secret token Telegram echoes on every delivery.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Requester is the part of *tgbotapi.BotAPI used to manage the webhook.
type Requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

var _ Requester = (*tgbotapi.BotAPI)(nil)

// Handler accepts update deliveries from Telegram and forwards them to the
// bot's update channel.
type Handler struct {
	updates chan<- tgbotapi.Update
	secret  string
	logger  *zap.Logger
}

func NewHandler(updates chan<- tgbotapi.Update, secret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{updates: updates, secret: secret, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("Rejected webhook delivery with bad secret",
				zap.String("remote_addr", r.RemoteAddr))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("Failed to decode webhook payload", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	select {
	case h.updates <- update:
	case <-r.Context().Done():
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Run serves handler on listen until ctx is done, then shuts the server down.
func Run(ctx context.Context, listen string, handler http.Handler, logger *zap.Logger) error {
	const operation = "webhook.Run"

	srv := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Webhook server listening", zap.String("addr", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", operation, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", operation, err)
	}
	logger.Info("Webhook server stopped")
	return nil
}

// Register points Telegram at url. A non-empty secret is echoed back in
// SecretHeader on every delivery.
func Register(api Requester, url, secret string, dropPending bool) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	params.AddBool("drop_pending_updates", dropPending)

	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("webhook.Register: %w", err)
	}
	return nil
}

// Delete removes any webhook so that long polling can be used.
func Delete(api Requester, dropPending bool) error {
	params := tgbotapi.Params{}
	params.AddBool("drop_pending_updates", dropPending)

	if _, err := api.MakeRequest("deleteWebhook", params); err != nil {
		return fmt.Errorf("webhook.Delete: %w", err)
	}
	return nil
}
