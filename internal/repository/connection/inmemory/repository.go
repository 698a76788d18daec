package inmemory

import (
	"log/slog"
	"sync"

	"github.com/noiva/watchparty/internal/repository/connection"
)

type repo struct {
	senders map[string]connection.Sender
	mu      sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		senders: make(map[string]connection.Sender),
	}
}

func (r *repo) Add(connectionId string, sender connection.Sender) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "connection_id", connectionId)
	if _, ok := r.senders[connectionId]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.senders[connectionId] = sender

	return nil
}

// Remove forgets the sender without closing it.
func (r *repo) Remove(connectionId string) (connection.Sender, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "connection_id", connectionId)
	sender, ok := r.senders[connectionId]
	if !ok {
		slog.Debug(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	delete(r.senders, connectionId)

	return sender, nil
}

func (r *repo) GetConn(connectionId string) (connection.Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sender, ok := r.senders[connectionId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return sender, nil
}

func (r *repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.senders)
}
