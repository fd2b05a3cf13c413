// Package httpapi exposes the intake, chat and staff review services over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"bmasia/internal/config"
	"bmasia/internal/metrics"
	"bmasia/internal/services"
)

// Services are the handlers' collaborators
type Services struct {
	Intake *services.IntakeService
	Chat   *services.ChatService
	Auth   *services.AuthService
	Leads  *services.LeadReviewService
	Health *services.HealthService
}

// RequestTimeout is the deadline given to each request's context. It stays
// below the server's write timeout so the response can still be written.
const RequestTimeout = 12 * time.Second

// formPaths only accept POST
var formPaths = []string{
	"/api/inquiry",
	"/api/quotation",
	"/api/chat-lead-capture",
	"/api/chat-escalation",
}

// nonPostMethods answer 405 with a JSON body on the form paths. OPTIONS is
// left to the CORS middleware.
var nonPostMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodTrace,
}

// routes get their own metrics label
var routes = append([]string{
	"/health",
	"/api/auth/login",
	"/api/admin/inquiries",
	"/api/admin/quotations",
}, formPaths...)

// NewHandler mounts every route on a goa muxer and wraps it in the
// middleware chain: security headers, CORS, logging, metrics, request id.
func NewHandler(cfg *config.Config, svc Services) http.Handler {
	h := &handlers{
		intake: svc.Intake,
		chat:   svc.Chat,
		auth:   svc.Auth,
		leads:  svc.Leads,
		health: svc.Health,
	}

	mux := goahttp.NewMuxer()

	mux.Handle(http.MethodPost, "/api/inquiry", h.submitInquiry)
	mux.Handle(http.MethodPost, "/api/quotation", h.submitQuotation)
	mux.Handle(http.MethodPost, "/api/chat-lead-capture", h.captureLead)
	mux.Handle(http.MethodPost, "/api/chat-escalation", h.escalate)
	for _, path := range formPaths {
		for _, method := range nonPostMethods {
			mux.Handle(method, path, methodNotAllowed)
		}
	}

	mux.Handle(http.MethodGet, "/health", h.checkHealth)
	mux.Handle(http.MethodGet, "/metrics", promhttp.Handler().ServeHTTP)

	mux.Handle(http.MethodPost, "/api/auth/login", h.login)
	mux.Handle(http.MethodGet, "/api/admin/inquiries", requireStaff(svc.Auth, h.listInquiries))
	mux.Handle(http.MethodGet, "/api/admin/quotations", requireStaff(svc.Auth, h.listQuotations))

	var handler http.Handler = mux
	handler = requestDeadline(handler, RequestTimeout)
	handler = middleware.PopulateRequestContext()(handler)
	handler = middleware.RequestID()(handler)
	handler = metrics.PrometheusMiddleware(handler, routes...)
	handler = requestLogging(handler)
	handler = cors(handler, cfg)
	handler = securityHeaders(handler, cfg)
	return handler
}
