package conversation

import (
	"testing"
	"time"

	"github.com/capshealth/healthbot/internal/models"
)

func TestReduceInitializeSession(t *testing.T) {
	state := models.ConversationState{Messages: []models.Message{}}

	next := Reduce(state, Action{
		Type:              ActionInitializeSession,
		HealthcareContext: models.ContextSymptomChecking,
		PrivacyStyle:      models.PrivacyStyleProgressive,
	})

	if next.HealthcareContext != models.ContextSymptomChecking {
		t.Errorf("Expected healthcare context %q, got %q", models.ContextSymptomChecking, next.HealthcareContext)
	}
	if next.PrivacyStyle != models.PrivacyStyleProgressive {
		t.Errorf("Expected privacy style %q, got %q", models.PrivacyStyleProgressive, next.PrivacyStyle)
	}
}

func TestReduceInitializeSessionHidesPrivacyBoxOnStyleChange(t *testing.T) {
	state := models.ConversationState{
		PrivacyStyle:      models.PrivacyStyleProgressive,
		PrivacyBoxVisible: true,
	}

	// Same style: box stays visible
	next := Reduce(state, Action{
		Type:              ActionInitializeSession,
		HealthcareContext: models.ContextSymptomChecking,
		PrivacyStyle:      models.PrivacyStyleProgressive,
	})
	if !next.PrivacyBoxVisible {
		t.Error("Expected privacy box to stay visible when style is unchanged")
	}

	// Different style: box is hidden
	next = Reduce(state, Action{
		Type:              ActionInitializeSession,
		HealthcareContext: models.ContextSymptomChecking,
		PrivacyStyle:      models.PrivacyStyleMinimal,
	})
	if next.PrivacyBoxVisible {
		t.Error("Expected privacy box to hide when style changes")
	}
}

func TestReduceRegisterUser(t *testing.T) {
	details := &models.UserDetails{FirstName: "Ann", LastName: "Lee", Age: 30}
	state := models.ConversationState{WelcomeMessage: "welcome"}

	next := Reduce(state, Action{
		Type:        ActionRegisterUser,
		UserDetails: details,
		SessionID:   "abc123_xyz",
	})

	if !next.IsRegistered {
		t.Error("Expected IsRegistered to be true after registration")
	}
	if next.SessionID != "abc123_xyz" {
		t.Errorf("Expected session ID %q, got %q", "abc123_xyz", next.SessionID)
	}
	if next.UserDetails != details {
		t.Error("Expected user details to be stored")
	}
	if next.WelcomeMessage != "welcome" {
		t.Error("Expected welcome message to be retained across registration")
	}
}

func TestReduceAddMessageAppendsAndClearsError(t *testing.T) {
	state := models.ConversationState{
		Messages: []models.Message{{ID: "1", Content: "first"}},
		Error:    "previous failure",
	}

	msg := models.Message{ID: "2", Content: "second", Timestamp: time.Now(), Sender: models.SenderUser}
	next := Reduce(state, Action{Type: ActionAddMessage, Message: msg})

	if len(next.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(next.Messages))
	}
	if next.Messages[0].ID != "1" || next.Messages[1].ID != "2" {
		t.Error("Expected messages in append order")
	}
	if next.Error != "" {
		t.Errorf("Expected error to clear on new message, got %q", next.Error)
	}
}

func TestReduceAddMessageDoesNotMutateInput(t *testing.T) {
	state := models.ConversationState{
		Messages: make([]models.Message, 1, 4),
	}
	state.Messages[0] = models.Message{ID: "1"}

	next := Reduce(state, Action{Type: ActionAddMessage, Message: models.Message{ID: "2"}})
	_ = Reduce(state, Action{Type: ActionAddMessage, Message: models.Message{ID: "3"}})

	if len(state.Messages) != 1 {
		t.Errorf("Expected input state to keep 1 message, got %d", len(state.Messages))
	}
	if next.Messages[1].ID != "2" {
		t.Errorf("Expected first result to keep its own appended message, got %q", next.Messages[1].ID)
	}
}

func TestReduceSetErrorStopsLoading(t *testing.T) {
	state := models.ConversationState{IsLoading: true}

	next := Reduce(state, Action{Type: ActionSetError, Error: "chat failed"})

	if next.Error != "chat failed" {
		t.Errorf("Expected error %q, got %q", "chat failed", next.Error)
	}
	if next.IsLoading {
		t.Error("Expected loading to stop when an error is recorded")
	}
}

func TestReduceClearError(t *testing.T) {
	state := models.ConversationState{Error: "stale"}
	next := Reduce(state, Action{Type: ActionClearError})
	if next.Error != "" {
		t.Errorf("Expected error cleared, got %q", next.Error)
	}
}

func TestReduceTogglePrivacyBox(t *testing.T) {
	progressive := models.ConversationState{PrivacyStyle: models.PrivacyStyleProgressive}

	next := Reduce(progressive, Action{Type: ActionTogglePrivacyBox})
	if !next.PrivacyBoxVisible {
		t.Error("Expected toggle to show the box for progressive style")
	}
	next = Reduce(next, Action{Type: ActionTogglePrivacyBox})
	if next.PrivacyBoxVisible {
		t.Error("Expected second toggle to hide the box")
	}

	for _, style := range []models.PrivacyStyle{models.PrivacyStyleMinimal, models.PrivacyStyleContextual} {
		state := models.ConversationState{PrivacyStyle: style, PrivacyBoxVisible: true}
		next = Reduce(state, Action{Type: ActionTogglePrivacyBox})
		if next.PrivacyBoxVisible {
			t.Errorf("Expected toggle to force the box hidden for style %q", style)
		}
	}
}

func TestReduceUnknownActionReturnsStateUnchanged(t *testing.T) {
	state := models.ConversationState{
		SessionID: "abc",
		Messages:  []models.Message{{ID: "1"}},
		Error:     "kept",
	}

	next := Reduce(state, Action{Type: ActionType("NOT_A_REAL_ACTION")})

	if next.SessionID != state.SessionID || next.Error != state.Error || len(next.Messages) != len(state.Messages) {
		t.Error("Expected unknown action to leave state unchanged")
	}
}
