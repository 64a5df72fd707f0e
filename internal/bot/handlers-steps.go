package bot

import (
	"context"
	"strings"

	"trade-bot/internal/backend"
	"trade-bot/internal/command"
	"trade-bot/internal/intent"

	"go.uber.org/zap"
)

// handleIntent consumes the free-text answer to an earlier prompt. The
// intent has already been taken from the store.
func (b *Bot) handleIntent(ctx context.Context, conv conversation, pending intent.Intent, text string) {
	conv.logger.Debug("Handling follow-up", zap.Stringer("intent", pending.Kind))

	switch pending.Kind {
	case intent.SearchText:
		b.request(ctx, conv, backend.Request{Command: pending.Verb, Data: text})
	case intent.OrderNumber:
		b.handleOrderNumber(ctx, conv, strings.TrimSpace(text))
	case intent.Email:
		b.requestVerification(ctx, conv, strings.TrimSpace(text))
	case intent.VerificationCode:
		b.confirmRegistration(ctx, conv, pending.Registration, strings.TrimSpace(text))
	default:
		b.sendHelp(conv)
	}
}

func (b *Bot) handleOrderNumber(ctx context.Context, conv conversation, text string) {
	if !command.IsDecimal(text) {
		b.sendText(conv, msgInvalidOrderNumber)
		b.intents.Arm(conv.userID, intent.AwaitOrderNumber())
		return
	}
	b.request(ctx, conv, backend.Request{Command: command.VerbStatus, Data: text})
}

// REGISTRATION

// requestVerification sends the email to the backend, which mails a code and
// returns it together with the registration guid. Without params the flow
// ends quietly.
func (b *Bot) requestVerification(ctx context.Context, conv conversation, email string) {
	resp, ok := b.request(ctx, conv, backend.Request{Command: command.VerbRegister, Email: email})
	if !ok || resp == nil || !resp.Params.Valid() {
		conv.logger.Debug("Registration not continued", zap.Bool("call_ok", ok))
		return
	}

	b.intents.Arm(conv.userID, intent.AwaitCode(resp.Params.GUID, resp.Params.Code))
}

func (b *Bot) confirmRegistration(ctx context.Context, conv conversation, reg *intent.Registration, code string) {
	if reg == nil || reg.Code != code {
		b.sendText(conv, msgWrongCode)
		return
	}
	b.request(ctx, conv, backend.Request{Command: command.VerbConfirm, GUID: reg.GUID})
}
