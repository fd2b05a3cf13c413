// Package ratelimit bounds how many form submissions a client may make in a
// fixed time window.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the result of counting one submission attempt
type Decision struct {
	Limited   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts submission attempts per client key. Implementations never
// return an error: a limiter that cannot decide lets the request through.
type Limiter interface {
	Check(ctx context.Context, key string) Decision
}
