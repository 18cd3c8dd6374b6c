// Package store provides storage backends for Healthbot.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/capshealth/healthbot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// SaveConversationState stores or replaces the snapshot in the durable slot.
func (s *SQLiteStore) SaveConversationState(snap models.StateSnapshot) error {
	snapshotJSON, err := json.Marshal(snap)
	if err != nil {
		slog.Error("SQLiteStore SaveConversationState JSON marshal failed", "error", err)
		return fmt.Errorf("failed to marshal conversation snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO conversation_state (slot, snapshot, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		DefaultStateSlot, string(snapshotJSON))
	if err != nil {
		slog.Error("SQLiteStore SaveConversationState failed", "error", err)
		return fmt.Errorf("failed to save conversation snapshot: %w", err)
	}
	slog.Debug("SQLiteStore SaveConversationState succeeded", "messages", len(snap.Messages))
	return nil
}

// GetConversationState loads the snapshot from the durable slot.
func (s *SQLiteStore) GetConversationState() (*models.StateSnapshot, error) {
	var snapshotJSON string
	err := s.db.QueryRow(`SELECT snapshot FROM conversation_state WHERE slot = ?`, DefaultStateSlot).Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetConversationState not found")
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConversationState failed", "error", err)
		return nil, fmt.Errorf("failed to load conversation snapshot: %w", err)
	}

	var snap models.StateSnapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snap); err != nil {
		slog.Error("SQLiteStore GetConversationState JSON unmarshal failed", "error", err)
		return nil, fmt.Errorf("failed to unmarshal conversation snapshot: %w", err)
	}
	slog.Debug("SQLiteStore GetConversationState succeeded", "registered", snap.IsRegistered)
	return &snap, nil
}

// DeleteConversationState clears the durable slot.
func (s *SQLiteStore) DeleteConversationState() error {
	_, err := s.db.Exec(`DELETE FROM conversation_state WHERE slot = ?`, DefaultStateSlot)
	if err != nil {
		slog.Error("SQLiteStore DeleteConversationState failed", "error", err)
		return fmt.Errorf("failed to delete conversation snapshot: %w", err)
	}
	slog.Debug("SQLiteStore DeleteConversationState succeeded")
	return nil
}

// AddChatLog appends one exchange to the chat_logs table.
func (s *SQLiteStore) AddChatLog(l models.ChatLog) error {
	_, err := s.db.Exec(
		`INSERT INTO chat_logs (id, session_id, healthcare_context, privacy_style, user_first_name, user_last_name, user_age, user_dob, user_input, bot_reply, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.SessionID, l.HealthcareContext, l.PrivacyStyle,
		nilIfEmpty(l.UserFirstName), nilIfEmpty(l.UserLastName), nilIfZero(l.UserAge), nilIfEmpty(l.UserDOB),
		l.UserInput, l.BotReply, l.Timestamp)
	if err != nil {
		slog.Error("SQLiteStore AddChatLog failed", "error", err, "sessionID", l.SessionID)
		return fmt.Errorf("failed to insert chat log for %s: %w", l.SessionID, err)
	}
	slog.Debug("SQLiteStore AddChatLog succeeded", "sessionID", l.SessionID)
	return nil
}

// GetChatLogs returns logged exchanges for a session in insertion order.
func (s *SQLiteStore) GetChatLogs(sessionID string) ([]models.ChatLog, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, healthcare_context, privacy_style, user_first_name, user_last_name, user_age, user_dob, user_input, bot_reply, timestamp
		 FROM chat_logs WHERE session_id = ? ORDER BY timestamp, created_at`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore GetChatLogs query failed", "error", err)
		return nil, fmt.Errorf("failed to query chat logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ChatLog
	for rows.Next() {
		l, err := scanChatLog(rows)
		if err != nil {
			slog.Error("SQLiteStore GetChatLogs scan failed", "error", err)
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore GetChatLogs rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate chat log rows: %w", err)
	}
	slog.Debug("SQLiteStore GetChatLogs succeeded", "count", len(logs))
	return logs, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
