package httpapi

import (
	"net/http"
	"strconv"

	"bmasia/internal/domain"
	"bmasia/internal/services"
)

type handlers struct {
	intake *services.IntakeService
	chat   *services.ChatService
	auth   *services.AuthService
	leads  *services.LeadReviewService
	health *services.HealthService
}

func (h *handlers) submitInquiry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.intake.SubmitInquiry(ctx, clientIP(r), decoder(w, r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, submissionBody{Success: true, Message: res.Message, ID: res.ID})
}

func (h *handlers) submitQuotation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.intake.SubmitQuotation(ctx, clientIP(r), decoder(w, r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, submissionBody{Success: true, Message: res.Message, ID: res.ID})
}

func (h *handlers) captureLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.chat.CaptureLead(ctx, decoder(w, r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, submissionBody{Success: res.Success, Message: res.Message})
}

func (h *handlers) escalate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.chat.Escalate(ctx, decoder(w, r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, submissionBody{Success: res.Success, Message: res.Message})
}

func (h *handlers) checkHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.health.Check(r.Context()))
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body loginBody
	if err := decoder(w, r).Decode(&body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.auth.Login(ctx, body.Username, body.Password)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

func (h *handlers) listInquiries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	skip, limit, err := pageParams(r)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	inquiries, err := h.leads.ListInquiries(ctx, skip, limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if inquiries == nil {
		inquiries = []domain.Inquiry{}
	}
	writeJSON(ctx, w, http.StatusOK, inquiries)
}

func (h *handlers) listQuotations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	skip, limit, err := pageParams(r)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	quotations, err := h.leads.ListQuotations(ctx, skip, limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if quotations == nil {
		quotations = []domain.Quotation{}
	}
	writeJSON(ctx, w, http.StatusOK, quotations)
}

// pageParams reads skip and limit, defaulting to the first page
func pageParams(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	skip, err := queryInt(q.Get("skip"), 0)
	if err != nil {
		return 0, 0, services.NewBadRequestError("skip must be an integer")
	}
	limit, err := queryInt(q.Get("limit"), services.DefaultPageLimit)
	if err != nil {
		return 0, 0, services.NewBadRequestError("limit must be an integer")
	}
	return skip, limit, nil
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
