package services

import (
	"context"
	"log"
	"strings"

	"bmasia/internal/domain"
	"bmasia/internal/metrics"
)

// ChannelWebhook is the notification channel name of the messenger hub
const ChannelWebhook = "webhook"

// LeadCapturePayload is the body sent by the chat widget when it learns a visitor's email
type LeadCapturePayload struct {
	Email               string `json:"email"`
	Name                string `json:"name"`
	Company             string `json:"company"`
	ConversationSummary string `json:"conversationSummary"`
	Locale              string `json:"locale"`
}

// EscalationPayload is the body sent by the chat widget when a visitor asks for a human
type EscalationPayload struct {
	Email               string `json:"email"`
	Name                string `json:"name"`
	Company             string `json:"company"`
	ConversationHistory string `json:"conversationHistory"`
	Locale              string `json:"locale"`
}

// ChatResult is the response to a chat webhook call
type ChatResult struct {
	Success bool
	Message string
}

// ChatService forwards chat leads and escalations to the messenger hub.
// Nothing is stored locally.
type ChatService struct {
	hub MessengerHub
}

// NewChatService creates a new chat service
func NewChatService(hub MessengerHub) *ChatService {
	return &ChatService{hub: hub}
}

// CaptureLead forwards a lead. Only a missing or invalid email is reported as
// an error; anything else still answers the widget with a result.
func (s *ChatService) CaptureLead(ctx context.Context, body Decoder) (*ChatResult, error) {
	var p LeadCapturePayload
	if err := body.Decode(&p); err != nil {
		log.Printf("[CHAT] Lead capture body unreadable: %v, request=%s", err, requestID(ctx))
		metrics.RecordSubmission(FormLeadCapture, "invalid")
		return &ChatResult{Success: false, Message: "Lead capture processing"}, nil
	}

	if err := validateChatEmail(p.Email); err != nil {
		metrics.RecordSubmission(FormLeadCapture, "invalid")
		return nil, err
	}

	lead := &domain.LeadCapture{
		Email:               normalizeEmail(p.Email),
		Name:                strings.TrimSpace(p.Name),
		Company:             strings.TrimSpace(p.Company),
		ConversationSummary: p.ConversationSummary,
		Locale:              p.Locale,
	}

	log.Printf("[CHAT] Forwarding lead capture to messenger hub: email=%s, locale=%s, request=%s", lead.Email, lead.Locale, requestID(ctx))

	err := s.hub.ForwardLead(ctx, lead)
	metrics.RecordNotification(ChannelWebhook, err)
	if err != nil {
		// Lead capture must never disrupt the conversation.
		log.Printf("[CHAT] Warning: messenger hub lead capture failed: %v, request=%s", err, requestID(ctx))
	}

	metrics.RecordSubmission(FormLeadCapture, "success")
	return &ChatResult{Success: true, Message: "Lead captured successfully"}, nil
}

// Escalate forwards a request to speak with the team; a hub failure is reported
func (s *ChatService) Escalate(ctx context.Context, body Decoder) (*ChatResult, error) {
	var p EscalationPayload
	if err := body.Decode(&p); err != nil {
		log.Printf("[CHAT] Escalation body unreadable: %v, request=%s", err, requestID(ctx))
		metrics.RecordSubmission(FormChatEscalation, "invalid")
		return nil, NewBadRequestError(msgInvalidBody)
	}

	if err := validateChatEmail(p.Email); err != nil {
		metrics.RecordSubmission(FormChatEscalation, "invalid")
		return nil, err
	}

	escalation := &domain.Escalation{
		Email:               normalizeEmail(p.Email),
		Name:                strings.TrimSpace(p.Name),
		Company:             strings.TrimSpace(p.Company),
		ConversationHistory: p.ConversationHistory,
		Locale:              p.Locale,
	}

	log.Printf("[CHAT] Forwarding escalation to messenger hub: email=%s, name=%s, company=%s, locale=%s, request=%s",
		escalation.Email, escalation.Name, escalation.Company, escalation.Locale, requestID(ctx))

	err := s.hub.ForwardEscalation(ctx, escalation)
	metrics.RecordNotification(ChannelWebhook, err)
	if err != nil {
		log.Printf("[CHAT] Messenger hub escalation failed: %v, request=%s", err, requestID(ctx))
		metrics.RecordSubmission(FormChatEscalation, "forward_failed")
		return nil, NewInternalError("Failed to submit escalation. Please try again.", err)
	}

	metrics.RecordSubmission(FormChatEscalation, "success")
	return &ChatResult{Success: true, Message: "Escalation submitted successfully"}, nil
}

func validateChatEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return NewBadRequestError(msgEmailRequired)
	}
	if !IsValidEmail(email) {
		return NewBadRequestError(msgInvalidEmail)
	}
	return nil
}
