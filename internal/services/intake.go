package services

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"bmasia/internal/domain"
	"bmasia/internal/metrics"
	"bmasia/internal/ratelimit"
	apperrors "bmasia/pkg/errors"
)

// Form kinds, used in logs and metrics
const (
	FormInquiry        = "inquiry"
	FormQuotation      = "quotation"
	FormLeadCapture    = "chat_lead_capture"
	FormChatEscalation = "chat_escalation"
)

// Decoder reads the request body into v
type Decoder interface {
	Decode(v any) error
}

// LeadStore persists validated submissions
type LeadStore interface {
	CreateInquiry(ctx context.Context, inquiry *domain.Inquiry) error
	CreateQuotation(ctx context.Context, quotation *domain.Quotation) error
}

// Notifier alerts staff or downstream systems about a persisted submission
type Notifier interface {
	Channel() string
	NotifyInquiry(ctx context.Context, inquiry *domain.Inquiry) error
	NotifyQuotation(ctx context.Context, quotation *domain.Quotation) error
}

// InquiryPayload is the body of an inquiry submission
type InquiryPayload struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Website string `json:"website"` // honeypot
}

// QuotationPayload is the body of a quotation request
type QuotationPayload struct {
	FirstName         string      `json:"firstName"`
	LastName          string      `json:"lastName"`
	Email             string      `json:"email"`
	Country           string      `json:"country"`
	CompanyName       string      `json:"companyName"`
	CompanyAddress    string      `json:"companyAddress"`
	PreferredSolution string      `json:"preferredSolution"`
	NumberOfZones     NumberField `json:"numberOfZones"`
	Website           string      `json:"website"` // honeypot
}

// SubmissionResult is returned for an accepted submission
type SubmissionResult struct {
	ID      string
	Message string
}

// IntakeOptions tunes validation
type IntakeOptions struct {
	// EnforceSolutionEnum rejects preferred solutions outside the advertised set
	EnforceSolutionEnum bool
}

// IntakeService runs inquiry and quotation submissions through
// rate limit, honeypot, validation, persistence and notification.
type IntakeService struct {
	store     LeadStore
	limiter   ratelimit.Limiter
	notifiers []Notifier
	opts      IntakeOptions
}

// NewIntakeService creates a new intake service
func NewIntakeService(store LeadStore, limiter ratelimit.Limiter, opts IntakeOptions, notifiers ...Notifier) *IntakeService {
	return &IntakeService{
		store:     store,
		limiter:   limiter,
		notifiers: notifiers,
		opts:      opts,
	}
}

// SubmitInquiry implements the inquiry form submission
func (s *IntakeService) SubmitInquiry(ctx context.Context, clientIP string, body Decoder) (*SubmissionResult, error) {
	const successMessage = "Inquiry submitted successfully"

	if err := s.admit(ctx, FormInquiry, clientIP); err != nil {
		return nil, err
	}

	var p InquiryPayload
	if err := body.Decode(&p); err != nil {
		return nil, s.reject(ctx, FormInquiry, NewBadRequestError(msgInvalidBody), err)
	}

	if IsHoneypotTriggered(p.Website) {
		return s.fabricate(ctx, FormInquiry, clientIP, successMessage), nil
	}

	if !allPresent(p.Name, p.Company, p.Email, p.Message) {
		return nil, s.reject(ctx, FormInquiry, NewBadRequestError(msgAllFieldsRequired), nil)
	}
	if !IsValidEmail(p.Email) {
		return nil, s.reject(ctx, FormInquiry, NewBadRequestError(msgInvalidEmail), nil)
	}

	inquiry := &domain.Inquiry{
		Name:    strings.TrimSpace(p.Name),
		Company: strings.TrimSpace(p.Company),
		Email:   normalizeEmail(p.Email),
		Message: strings.TrimSpace(p.Message),
	}

	if err := s.store.CreateInquiry(ctx, inquiry); err != nil {
		return nil, s.persistFailed(ctx, FormInquiry, "Failed to submit inquiry. Please try again.", err)
	}

	log.Printf("[INTAKE] %s stored: id=%s, email=%s, request=%s", FormInquiry, inquiry.ID, inquiry.Email, requestID(ctx))

	for _, n := range s.notifiers {
		err := n.NotifyInquiry(ctx, inquiry)
		s.notified(ctx, FormInquiry, inquiry.ID, n.Channel(), err)
	}

	metrics.RecordSubmission(FormInquiry, "success")
	return &SubmissionResult{ID: inquiry.ID, Message: successMessage}, nil
}

// SubmitQuotation implements the quotation request submission
func (s *IntakeService) SubmitQuotation(ctx context.Context, clientIP string, body Decoder) (*SubmissionResult, error) {
	const successMessage = "Quotation request submitted successfully"

	if err := s.admit(ctx, FormQuotation, clientIP); err != nil {
		return nil, err
	}

	var p QuotationPayload
	if err := body.Decode(&p); err != nil {
		return nil, s.reject(ctx, FormQuotation, NewBadRequestError(msgInvalidBody), err)
	}

	if IsHoneypotTriggered(p.Website) {
		return s.fabricate(ctx, FormQuotation, clientIP, successMessage), nil
	}

	if !allPresent(p.FirstName, p.LastName, p.Email, p.Country, p.CompanyName, p.CompanyAddress, p.PreferredSolution, string(p.NumberOfZones)) {
		return nil, s.reject(ctx, FormQuotation, NewBadRequestError(msgAllFieldsRequired), nil)
	}
	if !IsValidEmail(p.Email) {
		return nil, s.reject(ctx, FormQuotation, NewBadRequestError(msgInvalidEmail), nil)
	}
	zones, ok := parseZones(string(p.NumberOfZones))
	if !ok {
		return nil, s.reject(ctx, FormQuotation, NewBadRequestError(msgInvalidZones), nil)
	}
	solution := strings.TrimSpace(p.PreferredSolution)
	if s.opts.EnforceSolutionEnum && !domain.IsKnownSolution(solution) {
		return nil, s.reject(ctx, FormQuotation, NewBadRequestError(msgInvalidSolution), nil)
	}

	quotation := &domain.Quotation{
		FirstName:         strings.TrimSpace(p.FirstName),
		LastName:          strings.TrimSpace(p.LastName),
		Email:             normalizeEmail(p.Email),
		Country:           strings.TrimSpace(p.Country),
		CompanyName:       strings.TrimSpace(p.CompanyName),
		CompanyAddress:    strings.TrimSpace(p.CompanyAddress),
		PreferredSolution: solution,
		NumberOfZones:     zones,
	}

	if err := s.store.CreateQuotation(ctx, quotation); err != nil {
		return nil, s.persistFailed(ctx, FormQuotation, "Failed to submit quotation request. Please try again.", err)
	}

	log.Printf("[INTAKE] %s stored: id=%s, email=%s, zones=%d, request=%s", FormQuotation, quotation.ID, quotation.Email, quotation.NumberOfZones, requestID(ctx))

	for _, n := range s.notifiers {
		err := n.NotifyQuotation(ctx, quotation)
		s.notified(ctx, FormQuotation, quotation.ID, n.Channel(), err)
	}

	metrics.RecordSubmission(FormQuotation, "success")
	return &SubmissionResult{ID: quotation.ID, Message: successMessage}, nil
}

// admit counts the attempt against the client's window
func (s *IntakeService) admit(ctx context.Context, form, clientIP string) error {
	decision := s.limiter.Check(ctx, clientIP)
	if !decision.Limited {
		return nil
	}
	log.Printf("[INTAKE] %s rate limited: client=%s, reset_in=%s, request=%s", form, clientIP, decision.ResetIn, requestID(ctx))
	metrics.RecordSubmission(form, "rate_limited")
	return NewRateLimitedError("Too many submissions. Please try again later.", decision.ResetIn)
}

// fabricate answers a bot exactly like a real success without storing or notifying anything
func (s *IntakeService) fabricate(ctx context.Context, form, clientIP, message string) *SubmissionResult {
	log.Printf("[INTAKE] %s honeypot triggered: client=%s, request=%s", form, clientIP, requestID(ctx))
	metrics.RecordSubmission(form, "spam")
	return &SubmissionResult{ID: uuid.NewString(), Message: message}
}

func (s *IntakeService) reject(ctx context.Context, form string, svcErr *ServiceError, cause error) error {
	if cause != nil {
		log.Printf("[INTAKE] %s rejected: %s (%v), request=%s", form, svcErr.Message, cause, requestID(ctx))
	} else {
		log.Printf("[INTAKE] %s rejected: %s, request=%s", form, svcErr.Message, requestID(ctx))
	}
	metrics.RecordSubmission(form, "invalid")
	return svcErr
}

func (s *IntakeService) persistFailed(ctx context.Context, form, message string, err error) error {
	log.Printf("[INTAKE] %s failed: database error: %v, request=%s", form, err, requestID(ctx))
	if apperrors.IsUnavailable(err) {
		metrics.RecordSubmission(form, "store_unavailable")
		return NewUnavailableError("Database connection error. Please try again later.", err)
	}
	metrics.RecordSubmission(form, "store_failed")
	return NewInternalError(message, err)
}

// notified logs a notification attempt; its failure never changes the submission outcome
func (s *IntakeService) notified(ctx context.Context, form, id, channel string, err error) {
	metrics.RecordNotification(channel, err)
	if err != nil {
		log.Printf("[INTAKE] Warning: %s notification via %s failed for id=%s: %v, request=%s", form, channel, id, err, requestID(ctx))
		return
	}
	log.Printf("[INTAKE] %s notification via %s sent for id=%s", form, channel, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
