package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"trade-bot/internal/backend"
	"trade-bot/internal/bot"
	"trade-bot/internal/config"
	"trade-bot/internal/intent"
	"trade-bot/internal/webhook"
	"trade-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ENTRY POINT

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Error("Bot stopped with error", zap.Error(err))
		zapLogger.Sync()
		os.Exit(1)
	}

	zapLogger.Info("Bot shutdown gracefully")
}

func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	gateway, err := backend.NewClient(
		cfg.BackendURL,
		cfg.BackendLogin,
		cfg.BackendPassword,
		backend.WithProtocol(cfg.BackendProtocol),
		backend.WithLogger(zapLogger.Named("backend")),
	)
	if err != nil {
		return err
	}

	api, err := bot.Connect(ctx, bot.ConnectOptions{
		Token:   cfg.TelegramToken,
		Debug:   cfg.TelegramDebug,
		Timeout: cfg.StartupTimeout,
	}, zapLogger)
	if err != nil {
		return err
	}

	if err := bot.PublishCommands(api); err != nil {
		zapLogger.Warn("Failed to publish command menu", zap.Error(err))
	}

	tradeBot := bot.New(api, gateway, intent.NewMemoryStore(), zapLogger.Named("bot"), bot.Options{
		AttachmentDir: cfg.AttachmentDir,
	})

	switch cfg.RunMode {
	case config.RunModeWebhook:
		return runWebhook(ctx, cfg, api, tradeBot, zapLogger)
	default:
		return runLongPoll(ctx, cfg, api, tradeBot, zapLogger)
	}
}

func runLongPoll(ctx context.Context, cfg *config.Config, api *tgbotapi.BotAPI, tradeBot *bot.Bot, zapLogger *zap.Logger) error {
	if err := webhook.Delete(api, cfg.SkipUpdates); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.LongPollTimeout
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	zapLogger.Info("Receiving updates by long polling", zap.Int("timeout", cfg.LongPollTimeout))
	return tradeBot.Start(ctx, updates)
}

func runWebhook(ctx context.Context, cfg *config.Config, api *tgbotapi.BotAPI, tradeBot *bot.Bot, zapLogger *zap.Logger) error {
	hookURL, err := url.Parse(cfg.WebhookURL)
	if err != nil {
		return fmt.Errorf("invalid WEBHOOK_URL: %w", err)
	}
	path := hookURL.Path
	if path == "" {
		path = "/"
	}

	if err := webhook.Register(api, cfg.WebhookURL, cfg.WebhookSecret, cfg.SkipUpdates); err != nil {
		return err
	}

	updates := make(chan tgbotapi.Update, api.Buffer)
	mux := http.NewServeMux()
	mux.Handle(path, webhook.NewHandler(updates, cfg.WebhookSecret, zapLogger.Named("webhook")))

	botDone := make(chan error, 1)
	go func() { botDone <- tradeBot.Start(ctx, updates) }()

	zapLogger.Info("Receiving updates by webhook",
		zap.String("url", cfg.WebhookURL),
		zap.String("path", path))

	serveErr := webhook.Run(ctx, cfg.WebhookListen, mux, zapLogger)
	if serveErr != nil {
		return serveErr
	}
	return <-botDone
}
