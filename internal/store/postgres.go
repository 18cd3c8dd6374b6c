// Package store provides storage backends for Healthbot.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/capshealth/healthbot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 20
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 20
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// SaveConversationState stores or replaces the snapshot in the durable slot.
func (s *PostgresStore) SaveConversationState(snap models.StateSnapshot) error {
	snapshotJSON, err := json.Marshal(snap)
	if err != nil {
		slog.Error("PostgresStore SaveConversationState JSON marshal failed", "error", err)
		return fmt.Errorf("failed to marshal conversation snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO conversation_state (slot, snapshot, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
		 ON CONFLICT (slot) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = CURRENT_TIMESTAMP`,
		DefaultStateSlot, string(snapshotJSON))
	if err != nil {
		slog.Error("PostgresStore SaveConversationState failed", "error", err)
		return fmt.Errorf("failed to save conversation snapshot: %w", err)
	}
	slog.Debug("PostgresStore SaveConversationState succeeded", "messages", len(snap.Messages))
	return nil
}

// GetConversationState loads the snapshot from the durable slot.
func (s *PostgresStore) GetConversationState() (*models.StateSnapshot, error) {
	var snapshotJSON string
	err := s.db.QueryRow(`SELECT snapshot FROM conversation_state WHERE slot = $1`, DefaultStateSlot).Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetConversationState not found")
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConversationState failed", "error", err)
		return nil, fmt.Errorf("failed to load conversation snapshot: %w", err)
	}

	var snap models.StateSnapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snap); err != nil {
		slog.Error("PostgresStore GetConversationState JSON unmarshal failed", "error", err)
		return nil, fmt.Errorf("failed to unmarshal conversation snapshot: %w", err)
	}
	slog.Debug("PostgresStore GetConversationState succeeded", "registered", snap.IsRegistered)
	return &snap, nil
}

// DeleteConversationState clears the durable slot.
func (s *PostgresStore) DeleteConversationState() error {
	_, err := s.db.Exec(`DELETE FROM conversation_state WHERE slot = $1`, DefaultStateSlot)
	if err != nil {
		slog.Error("PostgresStore DeleteConversationState failed", "error", err)
		return fmt.Errorf("failed to delete conversation snapshot: %w", err)
	}
	slog.Debug("PostgresStore DeleteConversationState succeeded")
	return nil
}

// AddChatLog appends one exchange to the chat_logs table.
func (s *PostgresStore) AddChatLog(l models.ChatLog) error {
	_, err := s.db.Exec(
		`INSERT INTO chat_logs (id, session_id, healthcare_context, privacy_style, user_first_name, user_last_name, user_age, user_dob, user_input, bot_reply, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.SessionID, l.HealthcareContext, l.PrivacyStyle,
		nilIfEmpty(l.UserFirstName), nilIfEmpty(l.UserLastName), nilIfZero(l.UserAge), nilIfEmpty(l.UserDOB),
		l.UserInput, l.BotReply, l.Timestamp)
	if err != nil {
		slog.Error("PostgresStore AddChatLog failed", "error", err, "sessionID", l.SessionID)
		return fmt.Errorf("failed to insert chat log for %s: %w", l.SessionID, err)
	}
	slog.Debug("PostgresStore AddChatLog succeeded", "sessionID", l.SessionID)
	return nil
}

// GetChatLogs returns logged exchanges for a session in insertion order.
func (s *PostgresStore) GetChatLogs(sessionID string) ([]models.ChatLog, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, healthcare_context, privacy_style, user_first_name, user_last_name, user_age, user_dob, user_input, bot_reply, timestamp
		 FROM chat_logs WHERE session_id = $1 ORDER BY timestamp, created_at`, sessionID)
	if err != nil {
		slog.Error("PostgresStore GetChatLogs query failed", "error", err)
		return nil, fmt.Errorf("failed to query chat logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ChatLog
	for rows.Next() {
		l, err := scanChatLog(rows)
		if err != nil {
			slog.Error("PostgresStore GetChatLogs scan failed", "error", err)
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore GetChatLogs rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate chat log rows: %w", err)
	}
	slog.Debug("PostgresStore GetChatLogs succeeded", "count", len(logs))
	return logs, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
