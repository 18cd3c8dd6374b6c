// Package conversation provides the welcome document generator.
package conversation

import (
	"fmt"
	"strings"

	"github.com/capshealth/healthbot/internal/models"
)

// contextCopy holds the capability/limitation copy for one healthcare context.
type contextCopy struct {
	title        string
	description  string
	capabilities []string
	limitations  []string
}

// privacyCopy holds the disclosure copy for one privacy style.
type privacyCopy struct {
	title       string
	description string
	details     []string
}

var contextExplanations = map[models.HealthcareContext]contextCopy{
	models.ContextSymptomChecking: {
		title:       "Symptom Checking Assistant",
		description: "I'm here to help you understand your symptoms and provide general health guidance. I can help you identify potential causes, suggest when to seek professional care, and offer general wellness advice.",
		capabilities: []string{
			"Assess common symptoms and their possible causes",
			"Provide general health information and education",
			"Suggest when to consult healthcare professionals",
			"Offer preventive care and wellness tips",
		},
		limitations: []string{
			"I cannot provide medical diagnosis",
			"I cannot prescribe medications",
			"Always consult healthcare professionals for specific medical concerns",
		},
	},
	models.ContextMentalHealthSupport: {
		title:       "Mental Health Support Assistant",
		description: "I'm here to provide emotional support and help you explore coping strategies. I can offer a listening ear, suggest stress management techniques, and help you identify when professional help might be beneficial.",
		capabilities: []string{
			"Provide emotional support and active listening",
			"Suggest coping strategies and stress management techniques",
			"Help identify when professional mental health care might be needed",
			"Offer general wellness and self-care advice",
		},
		limitations: []string{
			"I am not a replacement for professional therapy",
			"I cannot provide clinical mental health diagnosis",
			"For crisis situations, please contact emergency services or crisis hotlines",
		},
	},
	models.ContextChronicCareManagement: {
		title:       "Chronic Care Management Assistant",
		description: "I'm here to support you in managing your chronic health conditions. I can help with education about your conditions, suggest lifestyle modifications, and assist with tracking strategies.",
		capabilities: []string{
			"Provide education about chronic conditions",
			"Suggest lifestyle modifications and self-care strategies",
			"Help with medication adherence and tracking",
			"Support communication with healthcare providers",
		},
		limitations: []string{
			"I cannot replace your doctor's treatment plan",
			"Always follow your healthcare provider's advice",
			"I cannot adjust medications or treatment protocols",
		},
	},
}

var privacyExplanations = map[models.PrivacyStyle]privacyCopy{
	models.PrivacyStyleMinimal: {
		title:       "Minimal Privacy Disclosure",
		description: "We maintain minimal data collection practices. Your conversations are private and secure, and we do not collect personal identifying information.",
		details: []string{
			"No personal identifiers are collected",
			"Conversation data is used only for service improvement",
			"Data is stored securely and encrypted",
		},
	},
	models.PrivacyStyleContextual: {
		title:       "Contextual Privacy Disclosure",
		description: "We collect conversation data to provide personalized health guidance. Sensitive information is handled with extra care and only used for providing relevant health support.",
		details: []string{
			"Conversation data helps provide better health guidance",
			"Sensitive topics trigger additional privacy protections",
			"Data is anonymized and used only for service improvement",
		},
	},
	models.PrivacyStyleProgressive: {
		title:       "Progressive Privacy Disclosure",
		description: "We provide comprehensive privacy information to ensure transparency. Your data is encrypted, anonymized, and never shared with third parties.",
		details: []string{
			"Detailed privacy information is available throughout our conversation",
			"Data is encrypted and anonymized",
			"No data is shared with third parties",
			"You can request data deletion at any time",
		},
	},
}

// WelcomeDocument expands the context and privacy-style copy into the single
// structured welcome document shown before the first exchange. All literal
// '*' emphasis markers are stripped from the result before it is stored or
// displayed.
func WelcomeDocument(hc models.HealthcareContext, ps models.PrivacyStyle) string {
	ctx, ok := contextExplanations[hc]
	if !ok {
		ctx = contextExplanations[models.ContextSymptomChecking]
	}
	privacy, ok := privacyExplanations[ps]
	if !ok {
		privacy = privacyExplanations[models.PrivacyStyleMinimal]
	}

	var b strings.Builder
	b.WriteString("# Welcome to Your Healthcare Assistant\n\n")
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", ctx.title, ctx.description)
	b.WriteString("### What I Can Help With:\n")
	writeBullets(&b, ctx.capabilities)
	b.WriteString("\n### Important Limitations:\n")
	writeBullets(&b, ctx.limitations)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", privacy.title, privacy.description)
	b.WriteString("### Privacy Practices:\n")
	writeBullets(&b, privacy.details)
	b.WriteString("\n---\n\n")
	b.WriteString("**Ready to begin?** Please share your health concerns or questions, and I'll do my best to help while respecting your privacy and maintaining appropriate boundaries.")

	return StripEmphasis(b.String())
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "• %s\n", item)
	}
}

// StripEmphasis removes every literal '*' character. Applied to the welcome
// document and to bot replies before they enter the transcript; the chat log
// keeps the original reply.
func StripEmphasis(s string) string {
	return strings.ReplaceAll(s, "*", "")
}
