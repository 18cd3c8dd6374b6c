package chatservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/capshealth/healthbot/internal/models"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Error("Expected an error when no base URL is configured")
	}
}

func TestChatSuccess(t *testing.T) {
	var gotPath string
	var gotReq models.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.ChatReply{Reply: "Take **rest**"})
	}))
	defer srv.Close()

	c, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	reply, err := c.Chat(context.Background(), models.ChatRequest{
		UserInput:         "I have a headache",
		HealthcareContext: models.ContextSymptomChecking,
		PrivacyStyle:      models.PrivacyStyleMinimal,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply != "Take **rest**" {
		t.Errorf("Expected the raw reply, got %q", reply)
	}
	if gotPath != ChatPath {
		t.Errorf("Expected request to %q, got %q", ChatPath, gotPath)
	}
	if gotReq.UserInput != "I have a headache" || gotReq.HealthcareContext != models.ContextSymptomChecking {
		t.Errorf("Request body mismatch: %+v", gotReq)
	}
}

func TestChatHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = c.Chat(context.Background(), models.ChatRequest{UserInput: "hi", HealthcareContext: models.ContextSymptomChecking})
	if err == nil {
		t.Fatal("Expected an error for a 500 response")
	}
	if err.Error() != "HTTP error! status: 500" {
		t.Errorf("Expected %q, got %q", "HTTP error! status: 500", err.Error())
	}
}

func TestChatMissingReplyUsesResponseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ChatReply{Error: "Failed to process chat message"})
	}))
	defer srv.Close()

	c, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = c.Chat(context.Background(), models.ChatRequest{UserInput: "hi", HealthcareContext: models.ContextSymptomChecking})
	if err == nil || err.Error() != "Failed to process chat message" {
		t.Errorf("Expected the response error field, got %v", err)
	}
}

func TestChatMissingReplyWithoutErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = c.Chat(context.Background(), models.ChatRequest{UserInput: "hi", HealthcareContext: models.ContextSymptomChecking})
	if err == nil || err.Error() != "Failed to get response" {
		t.Errorf("Expected the fallback error message, got %v", err)
	}
}

func TestChatContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Chat(ctx, models.ChatRequest{UserInput: "hi", HealthcareContext: models.ContextSymptomChecking})
	if err == nil {
		t.Error("Expected an error for a canceled context")
	}
}

func TestAppendLog(t *testing.T) {
	var gotPath string
	var gotReq models.ChatLogRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "log-1"})
	}))
	defer srv.Close()

	c, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	err = c.AppendLog(context.Background(), models.ChatLogRequest{
		SessionID:         "abc_xyz",
		HealthcareContext: models.ContextSymptomChecking,
		PrivacyStyle:      models.PrivacyStyleMinimal,
		UserInput:         "hi",
		BotReply:          "hello **there**",
	})
	if err != nil {
		t.Fatalf("AppendLog failed: %v", err)
	}

	if gotPath != ChatLogPath {
		t.Errorf("Expected request to %q, got %q", ChatLogPath, gotPath)
	}
	if gotReq.BotReply != "hello **there**" {
		t.Errorf("Expected the original reply in the log request, got %q", gotReq.BotReply)
	}
}

func TestAppendLogHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	err = c.AppendLog(context.Background(), models.ChatLogRequest{SessionID: "abc"})
	if err == nil || !strings.Contains(err.Error(), "status: 400") {
		t.Errorf("Expected a status error, got %v", err)
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c, err := NewClient(WithBaseURL("http://localhost:8080/"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %q", c.baseURL)
	}
}
