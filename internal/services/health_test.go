package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	healthy := NewHealthService(&fakePinger{}, "BMAsia API").Check(context.Background())
	assert.Equal(t, &HealthResult{Status: "healthy", Service: "BMAsia API", Database: "connected"}, healthy)

	degraded := NewHealthService(&fakePinger{err: errBoom}, "BMAsia API").Check(context.Background())
	assert.Equal(t, "degraded", degraded.Status)
	assert.Equal(t, "unavailable", degraded.Database)
}
