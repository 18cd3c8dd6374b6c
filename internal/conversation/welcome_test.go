package conversation

import (
	"strings"
	"testing"

	"github.com/capshealth/healthbot/internal/models"
)

func TestWelcomeDocumentContainsContextAndPrivacyCopy(t *testing.T) {
	doc := WelcomeDocument(models.ContextMentalHealthSupport, models.PrivacyStyleProgressive)

	for _, want := range []string{
		"# Welcome to Your Healthcare Assistant",
		"Mental Health Support Assistant",
		"Progressive Privacy Disclosure",
		"What I Can Help With:",
		"Important Limitations:",
		"Privacy Practices:",
		"Ready to begin?",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Expected welcome document to contain %q", want)
		}
	}
}

func TestWelcomeDocumentHasNoEmphasisMarkers(t *testing.T) {
	for _, hc := range models.HealthcareContexts() {
		for _, ps := range models.PrivacyStyles() {
			doc := WelcomeDocument(hc, ps)
			if strings.Contains(doc, "*") {
				t.Errorf("Expected no '*' in welcome document for %q/%q", hc, ps)
			}
		}
	}
}

func TestWelcomeDocumentVariesByContextAndStyle(t *testing.T) {
	base := WelcomeDocument(models.ContextSymptomChecking, models.PrivacyStyleMinimal)

	if WelcomeDocument(models.ContextChronicCareManagement, models.PrivacyStyleMinimal) == base {
		t.Error("Expected welcome document to differ across healthcare contexts")
	}
	if WelcomeDocument(models.ContextSymptomChecking, models.PrivacyStyleContextual) == base {
		t.Error("Expected welcome document to differ across privacy styles")
	}
}

func TestStripEmphasis(t *testing.T) {
	got := StripEmphasis("**bold** and *italic* text")
	want := "bold and italic text"
	if got != want {
		t.Errorf("StripEmphasis: expected %q, got %q", want, got)
	}
	if StripEmphasis("plain") != "plain" {
		t.Error("StripEmphasis should leave plain text alone")
	}
}
