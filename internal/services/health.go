package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"bmasia/internal/metrics"
)

const healthPingTimeout = 2 * time.Second

// DBPinger is satisfied by *sql.DB
type DBPinger interface {
	PingContext(ctx context.Context) error
	Stats() sql.DBStats
}

// HealthResult is the body of GET /health
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

// HealthService implements the health service
type HealthService struct {
	db      DBPinger
	service string
}

// NewHealthService creates a new health service
func NewHealthService(db DBPinger, service string) *HealthService {
	return &HealthService{db: db, service: service}
}

// Check implements the health check method. An unreachable database
// degrades the status but the endpoint itself still answers.
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	result := &HealthResult{Status: "healthy", Service: s.service, Database: "connected"}

	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		log.Printf("[HEALTH] Database ping failed: %v", err)
		result.Status = "degraded"
		result.Database = "unavailable"
	}

	stats := s.db.Stats()
	metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	return result
}
