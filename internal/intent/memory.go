package intent

import "sync"

// MemoryStore keeps intents in process memory only; nothing survives a restart.
type MemoryStore struct {
	mu      sync.Mutex
	intents map[int64]Intent
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{intents: make(map[int64]Intent)}
}

func (s *MemoryStore) Arm(chatID int64, in Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Kind == None {
		delete(s.intents, chatID)
		return
	}
	s.intents[chatID] = in
}

func (s *MemoryStore) Take(chatID int64) (Intent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.intents[chatID]
	if ok {
		delete(s.intents, chatID)
	}
	return in, ok
}

func (s *MemoryStore) Peek(chatID int64) (Intent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.intents[chatID]
	return in, ok
}

func (s *MemoryStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.intents, chatID)
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.intents)
}
