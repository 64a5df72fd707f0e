package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"trade-bot/internal/backend"

	"go.uber.org/zap"
)

// request acknowledges the action, performs the backend call and renders
// the reply. A call that has started is not cancelled by shutdown.
func (b *Bot) request(ctx context.Context, conv conversation, req backend.Request) (*backend.Response, bool) {
	req.User = strconv.FormatInt(conv.userID, 10)

	b.sendText(conv, msgProcessing)

	resp, err := b.gateway.Call(context.WithoutCancel(ctx), req)
	if err != nil {
		conv.logger.Error("Backend call failed",
			zap.String("command", req.Command),
			zap.Error(err))
		b.sendText(conv, userError(err))
		return nil, false
	}

	b.render(conv, resp)
	return resp, true
}

// userError hides the cause; only a backend status code is shown as is.
func userError(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf(msgBackendStatus, statusErr.Code)
	}
	return msgSomethingWrong
}
