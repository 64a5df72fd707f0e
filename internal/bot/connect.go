package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trade-bot/internal/command"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type ConnectOptions struct {
	Token string
	// Endpoint overrides tgbotapi.APIEndpoint, e.g. for a local Bot API server.
	Endpoint string
	Debug    bool
	// Timeout bounds the whole retry sequence; zero means two minutes.
	Timeout time.Duration
}

// Connect authorises the bot, retrying transient failures with exponential
// backoff. A rejected token is not retried.
func Connect(ctx context.Context, opts ConnectOptions, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	const operation = "bot.Connect"

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = opts.Timeout
	if retryPolicy.MaxElapsedTime <= 0 {
		retryPolicy.MaxElapsedTime = 2 * time.Minute
	}
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to Telegram...")

	var botAPI *tgbotapi.BotAPI
	err := backoff.RetryNotify(
		func() error {
			api, err := tgbotapi.NewBotAPIWithAPIEndpoint(opts.Token, endpoint)
			if err != nil {
				var apiErr *tgbotapi.Error
				if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
					return backoff.Permanent(fmt.Errorf("token rejected: %w", err))
				}
				return fmt.Errorf("get me: %w", err)
			}
			botAPI = api
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("Telegram connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	botAPI.Debug = opts.Debug

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))
	return botAPI, nil
}

// PublishCommands sets the command menu shown by Telegram clients.
func PublishCommands(api BotAPI) error {
	entries := command.Menu()
	commands := make([]tgbotapi.BotCommand, 0, len(entries))
	for _, e := range entries {
		commands = append(commands, tgbotapi.BotCommand{
			Command:     e.Kind.String(),
			Description: e.Description,
		})
	}

	if _, err := api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("bot.PublishCommands: %w", err)
	}
	return nil
}
