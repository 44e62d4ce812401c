package ai

import "strings"

// SystemPrompt is the fixed role instruction sent ahead of every query.
const SystemPrompt = "You are an AI healthcare assistant providing general health information. " +
	"You can offer general medical information, lifestyle advice, and wellness tips. " +
	"However, you must include clear disclaimers that you're not providing medical diagnoses " +
	"and users should consult healthcare professionals for personalized medical advice. " +
	"Format your responses with HTML tags for better display (<p>, <ul>, <li>, etc.)."

// EnsureDisclaimer appends disclaimer unless the reply already mentions a
// disclaimer or tells the reader to consult someone.
func EnsureDisclaimer(reply, disclaimer string) string {
	lowered := strings.ToLower(reply)
	if strings.Contains(lowered, "disclaimer") || strings.Contains(lowered, "consult") {
		return reply
	}
	return reply + disclaimer
}
