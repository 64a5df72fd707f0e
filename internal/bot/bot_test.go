package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trade-bot/internal/backend"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

func TestChatLocks(t *testing.T) {
	locks := newChatLocks()

	unlock := locks.lock(1)
	require.Equal(t, 1, locks.size())

	acquired := make(chan struct{})
	go func() {
		release := locks.lock(1)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder entered while the lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	other := locks.lock(2)
	require.Equal(t, 2, locks.size(), "other users are not blocked")
	other()

	unlock()
	<-acquired
	require.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, 10*time.Millisecond)
}

// blockingGateway holds every call until released and records the peak
// number of calls in flight.
type blockingGateway struct {
	release  chan struct{}
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (g *blockingGateway) Call(_ context.Context, _ backend.Request) (*backend.Response, error) {
	g.calls.Add(1)
	n := g.inFlight.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-g.release
	g.inFlight.Add(-1)
	return &backend.Response{}, nil
}

func TestStart_SerialisesPerUser(t *testing.T) {
	gateway := &blockingGateway{release: make(chan struct{})}
	api := &fakeBot{}
	b := New(api, gateway, newTestEnv(t).intents, nil, Options{AttachmentDir: t.TempDir()})

	updates := make(chan tgbotapi.Update)
	done := make(chan error, 1)
	go func() { done <- b.Start(context.Background(), updates) }()

	for i := 0; i < 3; i++ {
		updates <- tgbotapi.Update{UpdateID: i, Message: textMessage("/debts")}
	}

	require.Eventually(t, func() bool { return gateway.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), gateway.calls.Load(), "same user waits for the previous update")

	close(gateway.release)
	close(updates)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after the channel closed")
	}
	require.Equal(t, int32(3), gateway.calls.Load())
	require.Equal(t, int32(1), gateway.peak.Load())
}

func TestStart_UsersRunConcurrently(t *testing.T) {
	gateway := &blockingGateway{release: make(chan struct{})}
	b := New(&fakeBot{}, gateway, newTestEnv(t).intents, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan tgbotapi.Update)
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx, updates) }()

	for id := int64(1); id <= 2; id++ {
		msg := textMessage("/promos")
		msg.From.ID = id
		msg.Chat.ID = id
		updates <- tgbotapi.Update{UpdateID: int(id), Message: msg}
	}

	require.Eventually(t, func() bool { return gateway.inFlight.Load() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	close(gateway.release)
	require.NoError(t, <-done)
}

type panickingGateway struct{}

func (panickingGateway) Call(context.Context, backend.Request) (*backend.Response, error) {
	panic("backend exploded")
}

func TestStart_RecoversFromPanics(t *testing.T) {
	api := &fakeBot{}
	b := New(api, panickingGateway{}, newTestEnv(t).intents, nil, Options{})

	updates := make(chan tgbotapi.Update, 2)
	updates <- tgbotapi.Update{UpdateID: 1, Message: textMessage("/price")}
	updates <- tgbotapi.Update{UpdateID: 2, Message: textMessage("hello")}
	close(updates)

	require.NotPanics(t, func() {
		require.NoError(t, b.Start(context.Background(), updates))
	})
	require.Contains(t, api.Texts(), msgHelp, "later updates are still handled")
	require.Zero(t, b.locks.size(), "lock released after panic")
}

func TestHandleUpdate_SkipsUpdatesWithoutSender(t *testing.T) {
	env := newTestEnv(t)
	env.bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 9})
	env.bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 10, Message: &tgbotapi.Message{Text: "hi"}})

	require.Empty(t, env.api.Texts())
	require.Empty(t, env.gateway.Calls())
}

func TestConcurrentUsersKeepSeparateIntents(t *testing.T) {
	env := newTestEnv(t)

	var wg sync.WaitGroup
	for id := int64(1); id <= 20; id++ {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := textMessage("/status")
			msg.From.ID = id
			msg.Chat.ID = id
			env.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
		}()
	}
	wg.Wait()

	require.Equal(t, 20, env.intents.Len())
	require.Empty(t, env.gateway.Calls())
}

func TestStart_KeepsArrivalOrderPerUser(t *testing.T) {
	callback := func(data string) tgbotapi.Update {
		return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			From: &tgbotapi.User{ID: testUserID},
		}}
	}
	flows := map[string]struct {
		updates []tgbotapi.Update
		want    backend.Request
	}{
		"status then number": {
			updates: []tgbotapi.Update{{Message: textMessage("/status")}, {Message: textMessage("42")}},
			want:    backend.Request{User: userField, Command: "status", Data: "42"},
		},
		"register then email": {
			updates: []tgbotapi.Update{{Message: textMessage("/register")}, {Message: textMessage("user@example.com")}},
			want:    backend.Request{User: userField, Command: "register", Email: "user@example.com"},
		},
		"button then text": {
			updates: []tgbotapi.Update{callback("isbn"), {Message: textMessage("978-5-17-090335-2")}},
			want:    backend.Request{User: userField, Command: "isbn", Data: "978-5-17-090335-2"},
		},
	}
	for name, flow := range flows {
		t.Run(name, func(t *testing.T) {
			for run := 0; run < 50; run++ {
				env := newTestEnv(t)

				updates := make(chan tgbotapi.Update, len(flow.updates))
				for i, u := range flow.updates {
					u.UpdateID = i + 1
					updates <- u
				}
				close(updates)

				require.NoError(t, env.bot.Start(context.Background(), updates))
				require.Equal(t, []backend.Request{flow.want}, env.gateway.Calls(), "run %d", run)
				require.NotContains(t, env.api.Texts(), msgHelp, "run %d", run)
				env.idle(t)
				require.Zero(t, env.bot.queues.size())
			}
		})
	}
}

func TestUserQueues(t *testing.T) {
	q := newUserQueues()

	require.True(t, q.push(1, tgbotapi.Update{UpdateID: 1}), "first update starts a worker")
	require.False(t, q.push(1, tgbotapi.Update{UpdateID: 2}))
	require.True(t, q.push(2, tgbotapi.Update{UpdateID: 3}), "other users get their own worker")

	u, ok := q.next(1)
	require.True(t, ok)
	require.Equal(t, 1, u.UpdateID)
	u, ok = q.next(1)
	require.True(t, ok)
	require.Equal(t, 2, u.UpdateID)

	require.False(t, q.push(1, tgbotapi.Update{UpdateID: 4}), "worker still draining")
	u, ok = q.next(1)
	require.True(t, ok)
	require.Equal(t, 4, u.UpdateID)

	_, ok = q.next(1)
	require.False(t, ok)
	require.Equal(t, 1, q.size())
	require.True(t, q.push(1, tgbotapi.Update{UpdateID: 5}), "a new worker is needed once the queue drained")
}
