// Package api provides HTTP handlers for Healthbot endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/capshealth/healthbot/internal/conversation"
	"github.com/capshealth/healthbot/internal/models"
)

// chatHandler serves POST /api/chat. The request and response bodies use the
// raw chat wire format ({"reply": ...} / {"error": ...}) rather than the
// APIResponse envelope, since the conversation engine consumes them directly.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.ChatReply{Error: "Invalid JSON format"})
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.ChatReply{Error: err.Error()})
		return
	}
	if s.ga == nil {
		slog.Warn("Server.chatHandler: GenAI client not configured")
		writeJSONResponse(w, http.StatusInternalServerError, models.ChatReply{Error: "Chat service not configured"})
		return
	}

	reply, err := s.ga.GenerateReply(r.Context(), req.HealthcareContext, req.PrivacyStyle, req.UserInput)
	if err != nil {
		slog.Error("Server.chatHandler: failed to generate reply", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.ChatReply{Error: "Failed to process chat message"})
		return
	}
	slog.Debug("Server.chatHandler: reply generated", "replyLength", len(reply))
	writeJSONResponse(w, http.StatusOK, models.ChatReply{Reply: reply})
}

// chatlogHandler serves POST /api/chatlog (append one exchange) and
// GET /api/chatlog?sessionId=... (list a session's exchanges).
func (s *Server) chatlogHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatlogHandler: processing chat log request", "method", r.Method, "path", r.URL.Path)
	switch r.Method {
	case http.MethodPost:
		s.addChatLog(w, r)
	case http.MethodGet:
		s.listChatLogs(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.chatlogHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) addChatLog(w http.ResponseWriter, r *http.Request) {
	var req models.ChatLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.addChatLog: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.addChatLog: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	entry := models.ChatLog{
		ID:                uuid.NewString(),
		SessionID:         req.SessionID,
		HealthcareContext: req.HealthcareContext,
		PrivacyStyle:      req.PrivacyStyle,
		UserInput:         req.UserInput,
		BotReply:          req.BotReply,
		Timestamp:         time.Now(),
	}
	if req.UserDetails != nil {
		entry.UserFirstName = req.UserDetails.FirstName
		entry.UserLastName = req.UserDetails.LastName
		entry.UserAge = req.UserDetails.Age
		entry.UserDOB = req.UserDetails.DateOfBirth
	}
	if err := s.st.AddChatLog(entry); err != nil {
		slog.Error("Server.addChatLog: failed to save chat log", "error", err, "sessionID", req.SessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save chat log"))
		return
	}
	slog.Info("Server.addChatLog: chat log saved", "id", entry.ID, "sessionID", entry.SessionID)
	writeJSONResponse(w, http.StatusCreated, map[string]string{"id": entry.ID})
}

func (s *Server) listChatLogs(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		slog.Warn("Server.listChatLogs: missing sessionId query parameter")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required query parameter: sessionId"))
		return
	}
	logs, err := s.st.GetChatLogs(sessionID)
	if err != nil {
		slog.Error("Server.listChatLogs: failed to load chat logs", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load chat logs"))
		return
	}
	slog.Debug("Server.listChatLogs: loaded chat logs", "sessionID", sessionID, "count", len(logs))
	writeJSONResponse(w, http.StatusOK, models.Success(logs))
}

// sessionHandler serves GET /api/session with the current conversation state.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.sessionHandler: processing session request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.sessionHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.engine == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Conversation engine not configured"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.engine.State()))
}

// registerHandler serves POST /api/session/register.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.registerHandler: processing registration request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.registerHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.engine == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Conversation engine not configured"))
		return
	}
	var req models.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.registerHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	state, err := s.engine.Register(req)
	if err != nil {
		if errors.Is(err, conversation.ErrAlreadyRegistered) {
			slog.Warn("Server.registerHandler: session already registered")
			writeJSONResponse(w, http.StatusConflict, models.Error(err.Error()))
			return
		}
		slog.Warn("Server.registerHandler: registration rejected", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	slog.Info("Server.registerHandler: registration succeeded", "sessionID", state.SessionID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Registration successful", state))
}

// messageHandler serves POST /api/session/message. Chat failures are carried
// inside the returned conversation state, not as HTTP errors.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.messageHandler: processing message request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.messageHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.engine == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Conversation engine not configured"))
		return
	}
	var req models.SessionMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.messageHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	state := s.engine.SendMessage(r.Context(), req.Content)
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// privacyHandler serves POST /api/session/privacy, toggling the privacy box.
func (s *Server) privacyHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.privacyHandler: processing privacy toggle", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.privacyHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.engine == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Conversation engine not configured"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.engine.TogglePrivacyBox()))
}

// resetHandler serves POST /api/session/reset, clearing the conversation.
func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.resetHandler: processing reset request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.resetHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.engine == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Conversation engine not configured"))
		return
	}
	state, err := s.engine.Reset()
	if err != nil {
		slog.Error("Server.resetHandler: reset failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to reset conversation"))
		return
	}
	slog.Info("Server.resetHandler: conversation reset")
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Conversation reset", state))
}

// healthHandler serves GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
