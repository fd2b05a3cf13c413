package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmasia/internal/config"
	"bmasia/internal/domain"
	"bmasia/internal/ratelimit"
	"bmasia/internal/services"
	"bmasia/internal/util"
	apperrors "bmasia/pkg/errors"
)

type memStore struct {
	inquiries  []domain.Inquiry
	quotations []domain.Quotation
	err        error
}

func (s *memStore) CreateInquiry(_ context.Context, inquiry *domain.Inquiry) error {
	if s.err != nil {
		return s.err
	}
	inquiry.ID = "inq-1"
	s.inquiries = append(s.inquiries, *inquiry)
	return nil
}

func (s *memStore) CreateQuotation(_ context.Context, quotation *domain.Quotation) error {
	if s.err != nil {
		return s.err
	}
	quotation.ID = "quo-1"
	s.quotations = append(s.quotations, *quotation)
	return nil
}

func (s *memStore) ListInquiries(context.Context, int, int) ([]domain.Inquiry, error) {
	return s.inquiries, s.err
}

func (s *memStore) ListQuotations(context.Context, int, int) ([]domain.Quotation, error) {
	return s.quotations, s.err
}

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) Channel() string { return "test" }

func (n *countingNotifier) NotifyInquiry(context.Context, *domain.Inquiry) error {
	n.calls++
	return n.err
}

func (n *countingNotifier) NotifyQuotation(context.Context, *domain.Quotation) error {
	n.calls++
	return n.err
}

type stubHub struct {
	err error
}

func (h *stubHub) ForwardLead(context.Context, *domain.LeadCapture) error { return h.err }

func (h *stubHub) ForwardEscalation(context.Context, *domain.Escalation) error { return h.err }

type stubUsers struct {
	user *domain.User
}

func (u *stubUsers) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	if u.user == nil || u.user.Username != username {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "find_user: record not found")
	}
	return u.user, nil
}

func (u *stubUsers) RecordLogin(context.Context, *domain.User, time.Time) error { return nil }

type stubPinger struct{}

func (stubPinger) PingContext(context.Context) error { return nil }

func (stubPinger) Stats() sql.DBStats { return sql.DBStats{} }

type testServer struct {
	handler  http.Handler
	store    *memStore
	notifier *countingNotifier
	hub      *stubHub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hash, err := util.HashPassword("s3cret-pass")
	require.NoError(t, err)
	users := &stubUsers{user: &domain.User{ID: 1, Username: "staff", HashedPassword: hash, IsActive: true, IsStaff: true}}

	cfg := &config.Config{
		App:  config.AppConfig{Name: "BMAsia API"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET", "POST", "OPTIONS"}, MaxAge: 600},
	}

	ts := &testServer{store: &memStore{}, notifier: &countingNotifier{}, hub: &stubHub{}}
	ts.handler = NewHandler(cfg, Services{
		Intake: services.NewIntakeService(ts.store, ratelimit.NewMemory(time.Hour, 5), services.IntakeOptions{}, ts.notifier),
		Chat:   services.NewChatService(ts.hub),
		Auth:   services.NewAuthService(users, util.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)),
		Leads:  services.NewLeadReviewService(ts.store),
		Health: services.NewHealthService(stubPinger{}, "BMAsia API"),
	})
	return ts
}

func (ts *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

const inquiryJSON = `{"name":"Ann","company":"Cafe","email":"ann@cafe.com","message":"hello"}`

func TestInquiryCreated(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/inquiry", inquiryJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Inquiry submitted successfully", body["message"])
	assert.Equal(t, "inq-1", body["id"])
	assert.Len(t, ts.store.inquiries, 1)
	assert.Equal(t, 1, ts.notifier.calls)
}

func TestQuotationValidationError(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/quotation", `{"firstName":"Ann","lastName":"Lee","email":"ann@cafe.com","country":"TH",`+
		`"companyName":"Cafe","companyAddress":"Road","preferredSolution":"not-sure","numberOfZones":"abc"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Number of zones must be at least 1", decodeBody(t, rec)["error"])
	assert.Empty(t, ts.store.quotations)
}

func TestHoneypotRespondsCreated(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/inquiry", `{"name":"Bot","website":"http://spam"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["id"])
	assert.Empty(t, ts.store.inquiries)
	assert.Zero(t, ts.notifier.calls)
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/inquiry", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeBody(t, rec)["error"])

	rec = ts.do(http.MethodPost, "/api/inquiry", ``)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitedResponse(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 5; i++ {
		rec := ts.do(http.MethodPost, "/api/inquiry", inquiryJSON, "X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(http.MethodPost, "/api/quotation", `{}`, "X-Forwarded-For", "203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many submissions. Please try again later.", decodeBody(t, rec)["error"])
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = ts.do(http.MethodPost, "/api/inquiry", inquiryJSON, "X-Real-IP", "198.51.100.2")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestStoreFailureStatus(t *testing.T) {
	ts := newTestServer(t)

	ts.store.err = apperrors.Wrap(apperrors.ErrCodeUnavailable, "create_inquiry: database unavailable", errors.New("dial tcp: connect: connection refused"))
	rec := ts.do(http.MethodPost, "/api/inquiry", inquiryJSON, "X-Real-IP", "1.1.1.1")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Database connection error. Please try again later.", decodeBody(t, rec)["error"])

	ts.store.err = apperrors.Wrap(apperrors.ErrCodeInternalError, "create_inquiry failed", errors.New("disk full"))
	rec = ts.do(http.MethodPost, "/api/inquiry", inquiryJSON, "X-Real-IP", "1.1.1.2")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to submit inquiry. Please try again.", decodeBody(t, rec)["error"])

	assert.Zero(t, ts.notifier.calls)
}

func TestNotificationFailureStillCreated(t *testing.T) {
	ts := newTestServer(t)
	ts.notifier.err = errors.New("smtp down")

	rec := ts.do(http.MethodPost, "/api/inquiry", inquiryJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "inq-1", decodeBody(t, rec)["id"])
}

func TestFormEndpointsRejectOtherMethods(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range formPaths {
		for _, method := range nonPostMethods {
			rec := ts.do(method, path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", method, path)
			assert.Equal(t, "Method not allowed", decodeBody(t, rec)["error"])
		}
	}
}

func TestChatEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.hub.err = errors.New("hub down")

	rec := ts.do(http.MethodPost, "/api/chat-lead-capture", `{"email":"ann@cafe.com","conversationSummary":"x","locale":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": true, "message": "Lead captured successfully"}, decodeBody(t, rec))

	rec = ts.do(http.MethodPost, "/api/chat-lead-capture", `not json`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "message": "Lead capture processing"}, decodeBody(t, rec))

	rec = ts.do(http.MethodPost, "/api/chat-lead-capture", `{"email":"nope"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/chat-escalation", `{"email":"ann@cafe.com","conversationHistory":"x","locale":"en"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to submit escalation. Please try again.", decodeBody(t, rec)["error"])

	ts.hub.err = nil
	rec = ts.do(http.MethodPost, "/api/chat-escalation", `{"email":"ann@cafe.com","conversationHistory":"x","locale":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Escalation submitted successfully", decodeBody(t, rec)["message"])
}

func TestChatIsNotRateLimited(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 10; i++ {
		rec := ts.do(http.MethodPost, "/api/chat-lead-capture", `{"email":"ann@cafe.com"}`, "X-Real-IP", "5.5.5.5")
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "healthy", "service": "BMAsia API", "database": "connected"}, decodeBody(t, rec))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodPost, "/api/inquiry", inquiryJSON)

	rec := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "form_submissions_total")
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodOptions, "/api/inquiry", "", "Origin", "https://bmasiamusic.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://bmasiamusic.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAdminListRequiresStaffToken(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodPost, "/api/inquiry", inquiryJSON)

	rec := ts.do(http.MethodGet, "/api/admin/inquiries", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/inquiries", "", "Authorization", "Bearer nope")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/login", `{"username":"staff","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody(t, rec)
	assert.Equal(t, "bearer", login["token_type"])
	token, _ := login["access_token"].(string)
	require.NotEmpty(t, token)

	rec = ts.do(http.MethodGet, "/api/admin/inquiries?skip=0&limit=10", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var inquiries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inquiries))
	require.Len(t, inquiries, 1)
	assert.Equal(t, "ann@cafe.com", inquiries[0]["email"])

	rec = ts.do(http.MethodGet, "/api/admin/quotations", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/admin/quotations?limit=abc", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/quotations?limit=501", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/auth/login", `{"username":"staff","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect username or password", decodeBody(t, rec)["error"])

	rec = ts.do(http.MethodPost, "/api/auth/login", `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
