package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
)

// Memory is an in-process Store for tests and single-node dev runs.
// Everything is lost on restart.
type Memory struct {
	mu    sync.RWMutex
	chats map[uuid.UUID]*memoryChat
	now   func() time.Time
}

type memoryChat struct {
	meta  Chat
	turns []compose.Turn
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		chats: make(map[uuid.UUID]*memoryChat),
		now:   time.Now,
	}
}

func (m *Memory) CreateChat(ctx context.Context) (Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	chat := Chat{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	m.chats[chat.ID] = &memoryChat{meta: chat}
	return chat, nil
}

func (m *Memory) Chat(ctx context.Context, id uuid.UUID) (Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.chats[id]
	if !ok {
		return Chat{}, ErrNotFound
	}
	return c.meta, nil
}

func (m *Memory) ListChats(ctx context.Context) ([]Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Chat, 0, len(m.chats))
	for _, c := range m.chats {
		out = append(out, c.meta)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *Memory) DeleteChat(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.chats[id]; !ok {
		return ErrNotFound
	}
	delete(m.chats, id)
	return nil
}

func (m *Memory) Turns(ctx context.Context, chatID uuid.UUID) ([]compose.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.chats[chatID]
	if !ok {
		return []compose.Turn{}, nil
	}
	out := make([]compose.Turn, len(c.turns))
	copy(out, c.turns)
	return out, nil
}

func (m *Memory) AppendTurns(ctx context.Context, chatID uuid.UUID, turns []compose.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	c.turns = append(c.turns, turns...)
	c.meta.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) SetTitle(ctx context.Context, chatID uuid.UUID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	if c.meta.Title != "" {
		return nil
	}
	c.meta.Title = title
	c.meta.UpdatedAt = m.now().UTC()
	return nil
}
