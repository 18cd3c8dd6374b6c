// Package store provides storage backends for Healthbot.
//
// It persists two things: the single durable conversation snapshot slot the
// engine reloads on startup, and the append-only chat_logs table. Backends:
// in-memory (tests and DSN-less runs), SQLite, and PostgreSQL.
package store

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/capshealth/healthbot/internal/models"
)

// DefaultStateSlot names the single conversation snapshot slot. One record
// holds the entire conversation state.
const DefaultStateSlot = "chatbotState"

// Store defines the persistence operations Healthbot relies on.
type Store interface {
	// SaveConversationState writes the snapshot into the single durable slot,
	// replacing the previous one.
	SaveConversationState(snap models.StateSnapshot) error
	// GetConversationState loads the snapshot, or nil when the slot is empty.
	GetConversationState() (*models.StateSnapshot, error)
	// DeleteConversationState clears the durable slot entirely.
	DeleteConversationState() error
	// AddChatLog appends one exchange to the chat log.
	AddChatLog(log models.ChatLog) error
	// GetChatLogs returns logged exchanges for a session, insertion order.
	GetChatLogs(sessionID string) ([]models.ChatLog, error)
	// Close releases any underlying resources.
	Close() error
}

// Opts holds store configuration options.
type Opts struct {
	DSN string
}

// Option configures the store.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite file path as the backing database.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a PostgreSQL connection string as the backing database.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else (treated as a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewStore builds a store from options: Postgres or SQLite when a DSN is
// configured, in-memory otherwise.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("store.NewStore: no DSN configured, using in-memory store")
		return NewInMemoryStore(), nil
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		slog.Debug("store.NewStore: detected PostgreSQL DSN")
		return NewPostgresStore(opts...)
	}
	slog.Debug("store.NewStore: detected SQLite DSN", "db_path", cfg.DSN)
	return NewSQLiteStore(opts...)
}

// InMemoryStore keeps the snapshot slot and chat logs in process memory.
type InMemoryStore struct {
	mu   sync.RWMutex
	snap *models.StateSnapshot
	logs []models.ChatLog
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// SaveConversationState stores the snapshot in the slot.
func (s *InMemoryStore) SaveConversationState(snap models.StateSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := snap
	s.snap = &copied
	return nil
}

// GetConversationState returns the stored snapshot, or nil when empty.
func (s *InMemoryStore) GetConversationState() (*models.StateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, nil
	}
	copied := *s.snap
	return &copied, nil
}

// DeleteConversationState clears the slot.
func (s *InMemoryStore) DeleteConversationState() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	return nil
}

// AddChatLog appends an exchange.
func (s *InMemoryStore) AddChatLog(log models.ChatLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

// GetChatLogs returns logged exchanges for a session in insertion order.
func (s *InMemoryStore) GetChatLogs(sessionID string) ([]models.ChatLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var logs []models.ChatLog
	for _, l := range s.logs {
		if l.SessionID == sessionID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
