package genai

import (
	"strings"
	"testing"

	"github.com/capshealth/healthbot/internal/models"
)

func TestBuildSystemPromptCoversAllContexts(t *testing.T) {
	for _, hc := range models.HealthcareContexts() {
		prompt, err := BuildSystemPrompt(hc, models.PrivacyStyleMinimal)
		if err != nil {
			t.Errorf("BuildSystemPrompt(%q) failed: %v", hc, err)
			continue
		}
		if !strings.Contains(prompt, "Privacy Guidelines:") {
			t.Errorf("Expected privacy guidelines block for %q", hc)
		}
		if !strings.Contains(prompt, "Remember:") {
			t.Errorf("Expected closing reminder for %q", hc)
		}
	}
}

func TestBuildSystemPromptRejectsUnknownContext(t *testing.T) {
	if _, err := BuildSystemPrompt(models.HealthcareContext("astrology"), models.PrivacyStyleMinimal); err == nil {
		t.Error("Expected an error for an unknown healthcare context")
	}
}

func TestBuildSystemPromptIncludesStyleInstruction(t *testing.T) {
	minimal, err := BuildSystemPrompt(models.ContextSymptomChecking, models.PrivacyStyleMinimal)
	if err != nil {
		t.Fatalf("BuildSystemPrompt failed: %v", err)
	}
	contextual, err := BuildSystemPrompt(models.ContextSymptomChecking, models.PrivacyStyleContextual)
	if err != nil {
		t.Fatalf("BuildSystemPrompt failed: %v", err)
	}

	if minimal == contextual {
		t.Error("Expected privacy style to change the system prompt")
	}
	if !strings.Contains(contextual, "why the information is needed") {
		t.Error("Expected the contextual style instruction in the prompt")
	}
}

func TestBuildSystemPromptToleratesUnknownStyle(t *testing.T) {
	prompt, err := BuildSystemPrompt(models.ContextSymptomChecking, models.PrivacyStyle(""))
	if err != nil {
		t.Fatalf("BuildSystemPrompt failed: %v", err)
	}
	// Only the fixed guidelines appear
	if !strings.Contains(prompt, "Do not collect or store personal identifying information") {
		t.Error("Expected the fixed guidelines for an absent style")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("Expected an error when no API key is configured")
	}
}

func TestNewClientWithExplicitKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c, err := NewClient(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c == nil {
		t.Fatal("Expected a client")
	}
}
