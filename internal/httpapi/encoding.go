package httpapi

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"

	goahttp "goa.design/goa/v3/http"

	"bmasia/internal/services"
)

// maxBodyBytes bounds a form submission body
const maxBodyBytes = 64 << 10

type errorBody struct {
	Error string `json:"error"`
}

type submissionBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// decoder returns the goa request decoder for r with the body size capped
func decoder(w http.ResponseWriter, r *http.Request) goahttp.Decoder {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return goahttp.RequestDecoder(r)
}

// writeJSON encodes v with the goa response encoder, always as JSON
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	ctx = context.WithValue(ctx, goahttp.ContentTypeKey, "application/json")
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, errorBody{Error: message})
}

// writeServiceError maps a service outcome to its status code and headers
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	svcErr := services.AsServiceError(err)

	status := http.StatusInternalServerError
	switch svcErr.Type {
	case services.ErrTypeBadRequest:
		status = http.StatusBadRequest
	case services.ErrTypeUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrTypeRateLimited:
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", retryAfterSeconds(svcErr))
		w.Header().Set("X-RateLimit-Remaining", "0")
	case services.ErrTypeUnavailable:
		status = http.StatusServiceUnavailable
	}

	writeError(ctx, w, status, svcErr.Message)
}

// retryAfterSeconds rounds the remaining window up to whole seconds, at least 1
func retryAfterSeconds(svcErr *services.ServiceError) string {
	secs := int(math.Ceil(svcErr.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(r.Context(), w, http.StatusMethodNotAllowed, "Method not allowed")
}
