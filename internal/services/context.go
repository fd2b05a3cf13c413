package services

import (
	"context"

	goamiddleware "goa.design/goa/v3/middleware"
)

// requestID returns the id assigned by the RequestID middleware, or "-"
func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(goamiddleware.RequestIDKey).(string); ok && id != "" {
		return id
	}
	return "-"
}
