package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"trade-bot/internal/backend"
	"trade-bot/internal/intent"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway performs one backend call per user action.
type Gateway interface {
	Call(ctx context.Context, req backend.Request) (*backend.Response, error)
}

type Options struct {
	// AttachmentDir receives the temporary copies of uploaded attachments.
	// Empty means the OS temp dir.
	AttachmentDir string
}

type Bot struct {
	api           BotAPI
	gateway       Gateway
	intents       intent.Store
	logger        *zap.Logger
	attachmentDir string
	locks         *chatLocks
	queues        *userQueues
	wg            sync.WaitGroup
}

// conversation is the per-update handling context.
type conversation struct {
	chatID int64
	userID int64
	logger *zap.Logger
}

func New(api BotAPI, gateway Gateway, intents intent.Store, logger *zap.Logger, opts Options) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:           api,
		gateway:       gateway,
		intents:       intents,
		logger:        logger,
		attachmentDir: opts.AttachmentDir,
		locks:         newChatLocks(),
		queues:        newUserQueues(),
	}
}

// Start consumes updates until ctx is done or the channel is closed, then
// waits for handlers still in flight. Updates from one user are handled in
// the order they arrived.
func (b *Bot) Start(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.logger.Info("Starting bot")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.wg.Wait()
			return nil

		case update, ok := <-updates:
			if !ok {
				b.logger.Info("Update channel closed")
				b.wg.Wait()
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	conv, ok := conversationOf(update)
	if !ok {
		b.logger.Debug("Skipping update without sender", zap.Int("update_id", update.UpdateID))
		return
	}

	if !b.queues.push(conv.userID, update) {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			next, ok := b.queues.next(conv.userID)
			if !ok {
				return
			}
			b.handleRecovered(ctx, next)
		}
	}()
}

func (b *Bot) handleRecovered(ctx context.Context, update tgbotapi.Update) {
	defer b.recoverUpdate(update.UpdateID)
	b.HandleUpdate(ctx, update)
}

// HandleUpdate processes one update. Concurrent calls for the same user are
// handled one at a time; different users proceed concurrently.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	conv, ok := conversationOf(update)
	if !ok {
		b.logger.Debug("Skipping update without sender", zap.Int("update_id", update.UpdateID))
		return
	}

	unlock := b.locks.lock(conv.userID)
	defer unlock()

	conv.logger = b.logger.With(
		zap.String("trace_id", uuid.NewString()),
		zap.Int("update_id", update.UpdateID),
		zap.Int64("user_id", conv.userID),
		zap.Int64("chat_id", conv.chatID))

	switch {
	case update.Message != nil:
		b.processMessage(ctx, conv, update.Message)
	case update.CallbackQuery != nil:
		b.processCallback(ctx, conv, update.CallbackQuery)
	}
}

func conversationOf(update tgbotapi.Update) (conversation, bool) {
	switch {
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		return conversation{chatID: update.Message.Chat.ID, userID: update.Message.From.ID}, true
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return conversation{chatID: update.CallbackQuery.From.ID, userID: update.CallbackQuery.From.ID}, true
	}
	return conversation{}, false
}

func (b *Bot) processMessage(ctx context.Context, conv conversation, msg *tgbotapi.Message) {
	conv.logger.Debug("Processing message", zap.String("text", msg.Text))

	if msg.IsCommand() {
		b.handleCommand(ctx, conv, msg.Command(), msg.CommandArguments())
		return
	}

	if msg.Text == "" {
		if _, armed := b.intents.Peek(conv.userID); armed {
			conv.logger.Debug("Ignoring non-text message while waiting for input")
			return
		}
		b.sendHelp(conv)
		return
	}

	pending, ok := b.intents.Take(conv.userID)
	if !ok {
		b.sendHelp(conv)
		return
	}
	b.handleIntent(ctx, conv, pending, msg.Text)
}

func (b *Bot) processCallback(ctx context.Context, conv conversation, callback *tgbotapi.CallbackQuery) {
	conv.logger.Debug("Processing callback", zap.String("data", callback.Data))

	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		conv.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	b.handleButton(ctx, conv, callback.Data)
}

func (b *Bot) sendMessage(conv conversation, msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		conv.logger.Error("Failed to send message",
			zap.String("text", msg.Text),
			zap.Error(err))
		return err
	}
	return nil
}

func (b *Bot) sendText(conv conversation, text string) error {
	msg := tgbotapi.NewMessage(conv.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return b.sendMessage(conv, msg)
}

func (b *Bot) sendHelp(conv conversation) {
	b.sendText(conv, msgHelp)
}

func (b *Bot) recoverUpdate(updateID int) {
	if r := recover(); r != nil {
		b.logger.Error("Panic while handling update",
			zap.Int("update_id", updateID),
			zap.String("panic", fmt.Sprint(r)),
			zap.ByteString("stack", debug.Stack()))
	}
}
