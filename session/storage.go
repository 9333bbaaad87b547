package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoRecord is returned by TokenStorage.Read when nothing is stored.
var ErrNoRecord = errors.New("no session record stored")

// Record is the durable shape: the issued token plus enough identity to
// repopulate the store without a network call. Stored under one fixed
// key; there is never more than one record.
type Record struct {
	Token    string    `json:"token"`
	Expiry   time.Time `json:"expiry,omitempty"`
	Identity Identity  `json:"identity"`
}

// TokenStorage is the durable home of the issued token. Implementations
// must treat Write as replace and Delete as idempotent.
type TokenStorage interface {
	Write(ctx context.Context, rec Record) error
	Read(ctx context.Context) (Record, error)
	Delete(ctx context.Context) error
}

// MemoryStorage keeps the record in memory. It satisfies the storage
// contract for tests and for hosts that explicitly opt out of
// durability.
type MemoryStorage struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStorage returns an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Write(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := rec
	m.rec = &r
	return nil
}

func (m *MemoryStorage) Read(_ context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return Record{}, ErrNoRecord
	}
	return *m.rec, nil
}

func (m *MemoryStorage) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}
