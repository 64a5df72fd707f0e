package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// chatLocks serialises handling per user. Entries are dropped once nobody
// holds or waits for them.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*chatLock)}
}

func (l *chatLocks) lock(userID int64) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &chatLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (l *chatLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// userQueues holds updates received by Start in arrival order, per user.
// A user has at most one worker draining its queue.
type userQueues struct {
	mu      sync.Mutex
	pending map[int64][]tgbotapi.Update
}

func newUserQueues() *userQueues {
	return &userQueues{pending: make(map[int64][]tgbotapi.Update)}
}

// push appends update and reports whether the caller must start a worker.
func (q *userQueues) push(userID int64, update tgbotapi.Update) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue, active := q.pending[userID]
	q.pending[userID] = append(queue, update)
	return !active
}

// next pops the oldest update. Once the queue is empty the user is forgotten
// and the worker must exit.
func (q *userQueues) next(userID int64) (tgbotapi.Update, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.pending[userID]
	if len(queue) == 0 {
		delete(q.pending, userID)
		return tgbotapi.Update{}, false
	}
	update := queue[0]
	queue[0] = tgbotapi.Update{}
	q.pending[userID] = queue[1:]
	return update, true
}

func (q *userQueues) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
