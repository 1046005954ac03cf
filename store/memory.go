package store

import (
	"context"
	"sync"

	"github.com/effective-security/goagent/chatctx"
	"github.com/effective-security/goagent/pkg/llms"
)

type inMemory struct {
	mu      sync.RWMutex
	storage map[string][]llms.Message
}

// NewMemoryStore returns a process-local message store.
func NewMemoryStore() MessageStore {
	return &inMemory{}
}

func (m *inMemory) Messages(ctx context.Context) []llms.Message {
	chatID, err := chatctx.ChatID(ctx)
	if err != nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return nil
	}
	return m.storage[chatID]
}

func (m *inMemory) Add(ctx context.Context, msgs ...llms.Message) error {
	chatID, err := chatctx.ChatID(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string][]llms.Message)
	}
	m.storage[chatID] = append(m.storage[chatID], msgs...)
	return nil
}

func (m *inMemory) Reset(ctx context.Context) error {
	chatID, err := chatctx.ChatID(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, chatID)
	}
	return nil
}
