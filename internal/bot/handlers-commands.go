package bot

import (
	"context"
	"strconv"
	"strings"

	"trade-bot/internal/backend"
	"trade-bot/internal/command"
	"trade-bot/internal/intent"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleCommand routes a slash command. A command always cancels whatever
// follow-up the chat was waiting for.
func (b *Bot) handleCommand(ctx context.Context, conv conversation, keyword, args string) {
	b.intents.Clear(conv.userID)
	args = strings.TrimSpace(args)

	kind := command.ParseKind(keyword)
	conv.logger.Debug("Handling command",
		zap.String("command", kind.String()),
		zap.String("args", args))

	switch kind {
	case command.Find:
		b.sendMenu(conv, msgChooseSearch, b.createSearchKeyboard())
	case command.Doc:
		b.sendMenu(conv, msgChooseDocument, b.createDocumentKeyboard())
	case command.Orders:
		b.handleOrders(ctx, conv, args)
	case command.Status:
		b.handleStatus(ctx, conv, args)
	case command.Register:
		b.handleRegister(ctx, conv, args)
	case command.Debts, command.Promos, command.Price:
		verb, _ := kind.Verb()
		b.request(ctx, conv, backend.Request{Command: verb})
	case command.Help, command.Start, command.Unknown:
		b.sendHelp(conv)
	default:
		conv.logger.Warn("Command kind without handler", zap.Stringer("kind", kind))
		b.sendHelp(conv)
	}
}

func (b *Bot) sendMenu(conv conversation, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(conv.chatID, text)
	msg.ReplyMarkup = keyboard
	b.sendMessage(conv, msg)
}

// handleOrders asks for the latest orders; a numeric argument overrides the
// default amount.
func (b *Bot) handleOrders(ctx context.Context, conv conversation, args string) {
	amount := command.DefaultOrdersLimit
	if command.IsDecimal(args) {
		if n, err := strconv.Atoi(args); err == nil {
			amount = n
		}
	}
	b.request(ctx, conv, backend.Request{Command: command.VerbOrders, Data: amount})
}

func (b *Bot) handleStatus(ctx context.Context, conv conversation, args string) {
	if !command.IsDecimal(args) {
		b.sendText(conv, msgEnterOrderNumber)
		b.intents.Arm(conv.userID, intent.AwaitOrderNumber())
		return
	}
	b.request(ctx, conv, backend.Request{Command: command.VerbStatus, Data: args})
}

func (b *Bot) handleRegister(ctx context.Context, conv conversation, args string) {
	if args == "" {
		b.sendText(conv, msgEnterEmail)
		b.intents.Arm(conv.userID, intent.AwaitEmail())
		return
	}
	b.requestVerification(ctx, conv, args)
}

// handleButton arms a free-text follow-up for an inline keyboard choice.
func (b *Bot) handleButton(_ context.Context, conv conversation, data string) {
	button, ok := command.ParseButton(data)
	if !ok {
		conv.logger.Debug("Ignoring unknown callback data", zap.String("data", data))
		return
	}

	b.sendText(conv, button.Prompt())
	b.intents.Arm(conv.userID, intent.AwaitSearchText(button.Verb()))
}
