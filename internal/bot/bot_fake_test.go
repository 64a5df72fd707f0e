package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"trade-bot/internal/backend"
	"trade-bot/internal/intent"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testUserID int64 = 4242

// upload is what the fake saw when an attachment was sent.
type upload struct {
	kind    string
	name    string
	caption string
	content []byte
	path    string
}

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	texts    []string
	uploads  []upload
	requests []tgbotapi.Chattable
	nextID   int
	// failSend, when set, rejects matching sends the way Telegram would.
	failSend func(tgbotapi.Chattable) error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failSend != nil {
		if err := b.failSend(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	b.sent = append(b.sent, c)
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		b.texts = append(b.texts, m.Text)
	case tgbotapi.DocumentConfig:
		b.uploads = append(b.uploads, readUpload("document", m.File, m.Caption))
	case tgbotapi.PhotoConfig:
		b.uploads = append(b.uploads, readUpload("photo", m.File, m.Caption))
	}
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID, Chat: &tgbotapi.Chat{ID: testUserID}}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) Texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.texts...)
}

// readUpload captures the file while it still exists, as the real upload would.
func readUpload(kind string, file tgbotapi.RequestFileData, caption string) upload {
	u := upload{kind: kind, caption: caption}
	if fp, ok := file.(tgbotapi.FilePath); ok {
		u.path = string(fp)
		u.name = filepath.Base(string(fp))
		u.content, _ = os.ReadFile(string(fp))
	}
	return u
}

// fakeGateway answers calls from a script keyed by backend command.
type fakeGateway struct {
	mu        sync.Mutex
	calls     []backend.Request
	responses map[string]*backend.Response
	err       error
}

func (g *fakeGateway) Call(_ context.Context, req backend.Request) (*backend.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	if resp, ok := g.responses[req.Command]; ok {
		return resp, nil
	}
	return &backend.Response{}, nil
}

func (g *fakeGateway) Calls() []backend.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]backend.Request(nil), g.calls...)
}

var errNetworkDown = errors.New("dial tcp: connection refused")

type testEnv struct {
	bot     *Bot
	api     *fakeBot
	gateway *fakeGateway
	intents *intent.MemoryStore
	tmpDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		api:     &fakeBot{},
		gateway: &fakeGateway{responses: map[string]*backend.Response{}},
		intents: intent.NewMemoryStore(),
		tmpDir:  t.TempDir(),
	}
	env.bot = New(env.api, env.gateway, env.intents, zap.NewNop(), Options{AttachmentDir: env.tmpDir})
	return env
}

func (e *testEnv) sendText(t *testing.T, text string) {
	t.Helper()
	e.bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1, Message: textMessage(text)})
}

func (e *testEnv) press(t *testing.T, data string) {
	t.Helper()
	e.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			Data:    data,
			From:    &tgbotapi.User{ID: testUserID},
			Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: testUserID}},
		},
	})
}

func (e *testEnv) armed(t *testing.T) intent.Intent {
	t.Helper()
	in, ok := e.intents.Peek(testUserID)
	require.True(t, ok, "expected an armed intent")
	return in
}

func (e *testEnv) idle(t *testing.T) {
	t.Helper()
	_, ok := e.intents.Peek(testUserID)
	require.False(t, ok, "expected no armed intent")
}

// textMessage builds a private-chat message; a leading slash word becomes a
// bot_command entity.
func textMessage(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Text:      text,
		From:      &tgbotapi.User{ID: testUserID},
		Chat:      &tgbotapi.Chat{ID: testUserID, Type: "private"},
	}
	if len(text) > 0 && text[0] == '/' {
		length := len(text)
		for i, r := range text {
			if r == ' ' {
				length = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return msg
}

func countText(texts []string, want string) int {
	n := 0
	for _, text := range texts {
		if text == want {
			n++
		}
	}
	return n
}
