package services

import (
	"context"
	"log"

	"bmasia/internal/domain"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// LeadLister reads stored submissions newest first
type LeadLister interface {
	ListInquiries(ctx context.Context, skip, limit int) ([]domain.Inquiry, error)
	ListQuotations(ctx context.Context, skip, limit int) ([]domain.Quotation, error)
}

// LeadReviewService lets staff page through stored inquiries and quotations
type LeadReviewService struct {
	store LeadLister
}

// NewLeadReviewService creates a new lead review service
func NewLeadReviewService(store LeadLister) *LeadReviewService {
	return &LeadReviewService{store: store}
}

// ListInquiries implements the staff inquiry listing
func (s *LeadReviewService) ListInquiries(ctx context.Context, skip, limit int) ([]domain.Inquiry, error) {
	if err := checkPage(skip, limit); err != nil {
		return nil, err
	}
	inquiries, err := s.store.ListInquiries(ctx, skip, limit)
	if err != nil {
		log.Printf("[LEADS] ListInquiries failed: database error: %v", err)
		return nil, storeError(err)
	}
	log.Printf("[LEADS] ListInquiries: skip=%d, limit=%d, returned=%d, by=%s", skip, limit, len(inquiries), reviewer(ctx))
	return inquiries, nil
}

// ListQuotations implements the staff quotation listing
func (s *LeadReviewService) ListQuotations(ctx context.Context, skip, limit int) ([]domain.Quotation, error) {
	if err := checkPage(skip, limit); err != nil {
		return nil, err
	}
	quotations, err := s.store.ListQuotations(ctx, skip, limit)
	if err != nil {
		log.Printf("[LEADS] ListQuotations failed: database error: %v", err)
		return nil, storeError(err)
	}
	log.Printf("[LEADS] ListQuotations: skip=%d, limit=%d, returned=%d, by=%s", skip, limit, len(quotations), reviewer(ctx))
	return quotations, nil
}

func checkPage(skip, limit int) error {
	if skip < 0 {
		return NewBadRequestError("skip must be zero or greater")
	}
	if limit < 1 || limit > MaxPageLimit {
		return NewBadRequestError("limit must be between 1 and 500")
	}
	return nil
}

func reviewer(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.Username
	}
	return "-"
}
