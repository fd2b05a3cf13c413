package domain

// LeadCapture is an email collected by the website chat during a conversation.
// It is forwarded to the messenger hub and never stored locally.
type LeadCapture struct {
	Email               string
	Name                string
	Company             string
	ConversationSummary string
	Locale              string
}

// Escalation is a request from a chat visitor to speak with the team.
// It is forwarded to the messenger hub and never stored locally.
type Escalation struct {
	Email               string
	Name                string
	Company             string
	ConversationHistory string
	Locale              string
}
