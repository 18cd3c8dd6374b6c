// Package models defines the core data structures for Healthbot.
//
// It includes the conversation state record, message and user types, and the
// wire formats shared between the API server and the conversation engine.
package models

import (
	"errors"
	"time"
)

// HealthcareContext identifies the conversational topic the bot is specialized for.
type HealthcareContext string

const (
	// ContextSymptomChecking covers symptom assessment and general health guidance.
	ContextSymptomChecking HealthcareContext = "symptom checking"
	// ContextMentalHealthSupport covers emotional support and coping strategies.
	ContextMentalHealthSupport HealthcareContext = "mental health support"
	// ContextChronicCareManagement covers chronic condition management support.
	ContextChronicCareManagement HealthcareContext = "chronic care management"
)

// PrivacyStyle identifies the disclosure posture governing how much privacy
// information is surfaced to the user.
type PrivacyStyle string

const (
	// PrivacyStyleMinimal surfaces the least privacy detail.
	PrivacyStyleMinimal PrivacyStyle = "minimal"
	// PrivacyStyleContextual surfaces privacy detail alongside sensitive topics.
	PrivacyStyleContextual PrivacyStyle = "contextual"
	// PrivacyStyleProgressive surfaces full privacy detail, with a togglable privacy box.
	PrivacyStyleProgressive PrivacyStyle = "progressive"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	// SenderUser marks a message typed by the user.
	SenderUser Sender = "user"
	// SenderBot marks a message produced by the chat service.
	SenderBot Sender = "bot"
)

// Error variables for better error handling and testability
var (
	ErrEmptySessionID      = errors.New("sessionId is required")
	ErrEmptyUserInput      = errors.New("userInput is required")
	ErrEmptyBotReply       = errors.New("botReply is required")
	ErrInvalidContext      = errors.New("valid healthcare context is required")
	ErrInvalidPrivacyStyle = errors.New("valid privacy style is required")
	ErrUserInputTooLong    = errors.New("userInput exceeds maximum length")
)

// MaxUserInputLength defines the maximum allowed length for a chat message.
const MaxUserInputLength = 2000

// HealthcareContexts returns all supported healthcare contexts.
func HealthcareContexts() []HealthcareContext {
	return []HealthcareContext{ContextSymptomChecking, ContextMentalHealthSupport, ContextChronicCareManagement}
}

// PrivacyStyles returns all supported privacy styles.
func PrivacyStyles() []PrivacyStyle {
	return []PrivacyStyle{PrivacyStyleMinimal, PrivacyStyleContextual, PrivacyStyleProgressive}
}

// IsValidHealthcareContext checks if the given healthcare context is supported.
func IsValidHealthcareContext(hc HealthcareContext) bool {
	switch hc {
	case ContextSymptomChecking, ContextMentalHealthSupport, ContextChronicCareManagement:
		return true
	default:
		return false
	}
}

// IsValidPrivacyStyle checks if the given privacy style is supported.
func IsValidPrivacyStyle(ps PrivacyStyle) bool {
	switch ps {
	case PrivacyStyleMinimal, PrivacyStyleContextual, PrivacyStyleProgressive:
		return true
	default:
		return false
	}
}

// Message represents a single entry in the conversation transcript.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sender    Sender    `json:"sender"`
	IsWelcome bool      `json:"isWelcome,omitempty"`
}

// UserDetails holds the identity fields collected at registration.
type UserDetails struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
	Age         int    `json:"age"`
	FullName    string `json:"fullName"`
}

// ConversationState is the single conversation record the engine advances
// through reducer actions. IsLoading and Error are transient and are never
// persisted; see StateSnapshot.
type ConversationState struct {
	SessionID         string            `json:"sessionId,omitempty"`
	HealthcareContext HealthcareContext `json:"healthcareContext,omitempty"`
	PrivacyStyle      PrivacyStyle      `json:"privacyStyle,omitempty"`
	UserDetails       *UserDetails      `json:"userDetails,omitempty"`
	IsRegistered      bool              `json:"isRegistered"`
	Messages          []Message         `json:"messages"`
	IsLoading         bool              `json:"isLoading"`
	Error             string            `json:"error,omitempty"`
	PrivacyBoxVisible bool              `json:"privacyBoxVisible"`
	WelcomeMessage    string            `json:"welcomeMessage,omitempty"`
}

// StateSnapshot is the durable subset of ConversationState. Transient fields
// (IsLoading, Error, PrivacyBoxVisible) are deliberately excluded so a reload
// always starts idle with no stale failure banner.
type StateSnapshot struct {
	SessionID         string            `json:"sessionId,omitempty"`
	HealthcareContext HealthcareContext `json:"healthcareContext,omitempty"`
	PrivacyStyle      PrivacyStyle      `json:"privacyStyle,omitempty"`
	UserDetails       *UserDetails      `json:"userDetails,omitempty"`
	IsRegistered      bool              `json:"isRegistered"`
	Messages          []Message         `json:"messages"`
	WelcomeMessage    string            `json:"welcomeMessage,omitempty"`
}

// Snapshot extracts the durable subset of the state.
func (s ConversationState) Snapshot() StateSnapshot {
	return StateSnapshot{
		SessionID:         s.SessionID,
		HealthcareContext: s.HealthcareContext,
		PrivacyStyle:      s.PrivacyStyle,
		UserDetails:       s.UserDetails,
		IsRegistered:      s.IsRegistered,
		Messages:          s.Messages,
		WelcomeMessage:    s.WelcomeMessage,
	}
}

// Restore rebuilds an in-memory state from a snapshot. Transient fields reset
// to their zero values regardless of what was live before persisting.
func (snap StateSnapshot) Restore() ConversationState {
	messages := snap.Messages
	if messages == nil {
		messages = []Message{}
	}
	return ConversationState{
		SessionID:         snap.SessionID,
		HealthcareContext: snap.HealthcareContext,
		PrivacyStyle:      snap.PrivacyStyle,
		UserDetails:       snap.UserDetails,
		IsRegistered:      snap.IsRegistered,
		Messages:          messages,
		WelcomeMessage:    snap.WelcomeMessage,
	}
}

// ChatLog represents one logged exchange in the chat_logs table.
type ChatLog struct {
	ID                string            `json:"id"`
	SessionID         string            `json:"session_id"`
	HealthcareContext HealthcareContext `json:"healthcare_context"`
	PrivacyStyle      PrivacyStyle      `json:"privacy_style"`
	UserFirstName     string            `json:"user_first_name,omitempty"`
	UserLastName      string            `json:"user_last_name,omitempty"`
	UserAge           int               `json:"user_age,omitempty"`
	UserDOB           string            `json:"user_dob,omitempty"`
	UserInput         string            `json:"user_input"`
	BotReply          string            `json:"bot_reply"`
	Timestamp         time.Time         `json:"timestamp"`
}

// ChatRequest is the wire format for POST /api/chat.
type ChatRequest struct {
	UserInput         string            `json:"userInput"`
	HealthcareContext HealthcareContext `json:"healthcareContext"`
	PrivacyStyle      PrivacyStyle      `json:"privacyStyle,omitempty"`
}

// Validate performs validation on a ChatRequest.
func (r *ChatRequest) Validate() error {
	if r.UserInput == "" {
		return ErrEmptyUserInput
	}
	if len(r.UserInput) > MaxUserInputLength {
		return ErrUserInputTooLong
	}
	if !IsValidHealthcareContext(r.HealthcareContext) {
		return ErrInvalidContext
	}
	if r.PrivacyStyle != "" && !IsValidPrivacyStyle(r.PrivacyStyle) {
		return ErrInvalidPrivacyStyle
	}
	return nil
}

// ChatReply is the wire format for chat service responses. Exactly one of
// Reply or Error is set.
type ChatReply struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// ChatLogRequest is the wire format for POST /api/chatlog.
type ChatLogRequest struct {
	SessionID         string            `json:"sessionId"`
	HealthcareContext HealthcareContext `json:"healthcareContext"`
	PrivacyStyle      PrivacyStyle      `json:"privacyStyle"`
	UserInput         string            `json:"userInput"`
	BotReply          string            `json:"botReply"`
	UserDetails       *UserDetails      `json:"userDetails,omitempty"`
}

// Validate performs validation on a ChatLogRequest.
func (r *ChatLogRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if !IsValidHealthcareContext(r.HealthcareContext) {
		return ErrInvalidContext
	}
	if !IsValidPrivacyStyle(r.PrivacyStyle) {
		return ErrInvalidPrivacyStyle
	}
	if r.UserInput == "" {
		return ErrEmptyUserInput
	}
	if r.BotReply == "" {
		return ErrEmptyBotReply
	}
	return nil
}

// RegistrationRequest is the wire format for POST /api/session/register.
type RegistrationRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Consent     bool   `json:"consent"`
}

// SessionMessageRequest is the wire format for POST /api/session/message.
type SessionMessageRequest struct {
	Content string `json:"content"`
}
