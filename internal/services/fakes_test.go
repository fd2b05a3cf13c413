package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bmasia/internal/domain"
	apperrors "bmasia/pkg/errors"
)

func jsonBody(s string) Decoder {
	return json.NewDecoder(strings.NewReader(s))
}

type fakeStore struct {
	mu         sync.Mutex
	inquiries  []*domain.Inquiry
	quotations []*domain.Quotation
	err        error
	nextID     int
}

func (f *fakeStore) CreateInquiry(_ context.Context, inquiry *domain.Inquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	inquiry.ID = idFor(f.nextID)
	inquiry.CreatedAt = time.Now().UTC()
	f.inquiries = append(f.inquiries, inquiry)
	return nil
}

func (f *fakeStore) CreateQuotation(_ context.Context, quotation *domain.Quotation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	quotation.ID = idFor(f.nextID)
	quotation.CreatedAt = time.Now().UTC()
	f.quotations = append(f.quotations, quotation)
	return nil
}

func (f *fakeStore) ListInquiries(_ context.Context, skip, limit int) ([]domain.Inquiry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Inquiry
	for i := len(f.inquiries) - 1 - skip; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.inquiries[i])
	}
	return out, nil
}

func (f *fakeStore) ListQuotations(_ context.Context, skip, limit int) ([]domain.Quotation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Quotation
	for i := len(f.quotations) - 1 - skip; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.quotations[i])
	}
	return out, nil
}

func idFor(n int) string {
	return fmt.Sprintf("lead-%d", n)
}

type fakeNotifier struct {
	channel    string
	err        error
	inquiries  []*domain.Inquiry
	quotations []*domain.Quotation
}

func (f *fakeNotifier) Channel() string { return f.channel }

func (f *fakeNotifier) NotifyInquiry(_ context.Context, inquiry *domain.Inquiry) error {
	f.inquiries = append(f.inquiries, inquiry)
	return f.err
}

func (f *fakeNotifier) NotifyQuotation(_ context.Context, quotation *domain.Quotation) error {
	f.quotations = append(f.quotations, quotation)
	return f.err
}

type fakeHub struct {
	leads       []*domain.LeadCapture
	escalations []*domain.Escalation
	err         error
}

func (f *fakeHub) ForwardLead(_ context.Context, lead *domain.LeadCapture) error {
	f.leads = append(f.leads, lead)
	return f.err
}

func (f *fakeHub) ForwardEscalation(_ context.Context, escalation *domain.Escalation) error {
	f.escalations = append(f.escalations, escalation)
	return f.err
}

type fakeUsers struct {
	users  map[string]*domain.User
	err    error
	logins int
}

func (f *fakeUsers) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[username]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "find_user: record not found")
	}
	return user, nil
}

func (f *fakeUsers) RecordLogin(_ context.Context, user *domain.User, at time.Time) error {
	f.logins++
	user.LastLogin = &at
	return nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(context.Context) error { return f.err }

func (f *fakePinger) Stats() sql.DBStats { return sql.DBStats{InUse: 1, Idle: 2} }

var errBoom = errors.New("boom")
