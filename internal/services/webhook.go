package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bmasia/internal/config"
	"bmasia/internal/domain"
)

const (
	leadCapturePath = "/webhooks/lead-capture"
	escalationPath  = "/webhooks/elevenlabs/escalate"

	// maxErrorBody bounds how much of a failed hub response is kept for logs
	maxErrorBody = 512
)

// MessengerHub forwards chat leads and escalations to the messaging system
type MessengerHub interface {
	ForwardLead(ctx context.Context, lead *domain.LeadCapture) error
	ForwardEscalation(ctx context.Context, escalation *domain.Escalation) error
}

// WebhookClient posts chat events to the messenger hub
type WebhookClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWebhookClient creates a new messenger hub client
func NewWebhookClient(cfg *config.WebhookConfig) *WebhookClient {
	return &WebhookClient{
		baseURL:    strings.TrimRight(cfg.MessengerHubURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type leadCaptureRequest struct {
	Email               string `json:"email"`
	Name                string `json:"name,omitempty"`
	Company             string `json:"company,omitempty"`
	ConversationSummary string `json:"conversationSummary"`
	Locale              string `json:"locale"`
	Source              string `json:"source"`
}

type escalationRequest struct {
	CustomerEmail       string `json:"customer_email"`
	CustomerName        string `json:"customer_name,omitempty"`
	CustomerCompany     string `json:"customer_company,omitempty"`
	ConversationHistory string `json:"conversation_history"`
	EscalationReason    string `json:"escalation_reason"`
	IssueSummary        string `json:"issue_summary"`
	Urgency             string `json:"urgency"`
}

// ForwardLead posts a captured chat lead to the hub
func (c *WebhookClient) ForwardLead(ctx context.Context, lead *domain.LeadCapture) error {
	return c.post(ctx, leadCapturePath, leadCaptureRequest{
		Email:               lead.Email,
		Name:                lead.Name,
		Company:             lead.Company,
		ConversationSummary: lead.ConversationSummary,
		Locale:              lead.Locale,
		Source:              "website_chat",
	})
}

// ForwardEscalation posts a chat escalation to the hub. Website visitors
// have no phone number, so none is sent.
func (c *WebhookClient) ForwardEscalation(ctx context.Context, escalation *domain.Escalation) error {
	return c.post(ctx, escalationPath, escalationRequest{
		CustomerEmail:       escalation.Email,
		CustomerName:        escalation.Name,
		CustomerCompany:     escalation.Company,
		ConversationHistory: escalation.ConversationHistory,
		EscalationReason:    "customer_request",
		IssueSummary:        "Website chat escalation - customer requested to speak with team",
		Urgency:             "normal",
	})
}

func (c *WebhookClient) post(ctx context.Context, path string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("messenger hub returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
