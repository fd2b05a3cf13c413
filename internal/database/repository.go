package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"bmasia/internal/domain"
	"bmasia/internal/metrics"
	apperrors "bmasia/pkg/errors"
)

// Repository is the persistence gateway for submitted leads and staff accounts
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository backed by db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateInquiry stores a new inquiry; the store assigns ID and CreatedAt
func (r *Repository) CreateInquiry(ctx context.Context, inquiry *domain.Inquiry) error {
	return r.observe("create_inquiry", func() error {
		return r.db.WithContext(ctx).Create(inquiry).Error
	})
}

// CreateQuotation stores a new quotation request; the store assigns ID and CreatedAt
func (r *Repository) CreateQuotation(ctx context.Context, quotation *domain.Quotation) error {
	return r.observe("create_quotation", func() error {
		return r.db.WithContext(ctx).Create(quotation).Error
	})
}

// ListInquiries returns inquiries newest first
func (r *Repository) ListInquiries(ctx context.Context, skip, limit int) ([]domain.Inquiry, error) {
	var inquiries []domain.Inquiry
	err := r.observe("list_inquiries", func() error {
		return r.db.WithContext(ctx).Order("created_at DESC, id DESC").Offset(skip).Limit(limit).Find(&inquiries).Error
	})
	return inquiries, err
}

// ListQuotations returns quotation requests newest first
func (r *Repository) ListQuotations(ctx context.Context, skip, limit int) ([]domain.Quotation, error) {
	var quotations []domain.Quotation
	err := r.observe("list_quotations", func() error {
		return r.db.WithContext(ctx).Order("created_at DESC, id DESC").Offset(skip).Limit(limit).Find(&quotations).Error
	})
	return quotations, err
}

// FindUserByUsername loads a staff account
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.observe("find_user", func() error {
		return r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser stores a new staff account
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	return r.observe("create_user", func() error {
		return r.db.WithContext(ctx).Create(user).Error
	})
}

// RecordLogin stamps the user's last successful login
func (r *Repository) RecordLogin(ctx context.Context, user *domain.User, at time.Time) error {
	return r.observe("record_login", func() error {
		return r.db.WithContext(ctx).Model(user).Update("last_login", at).Error
	})
}

func (r *Repository) observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordDBQuery(operation, time.Since(start), err)
	return Classify(operation, err)
}

// Classify converts a driver or gorm error into an AppError whose code tells
// callers whether the store was unreachable, rejected the write, or failed otherwise.
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Wrap(apperrors.ErrCodeNotFound, operation+": record not found", err)
	case isConnectionError(err):
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, operation+": database unavailable", err)
	case isConstraintError(err):
		return apperrors.Wrap(apperrors.ErrCodeConstraint, operation+": constraint violation", err)
	default:
		return apperrors.Wrap(apperrors.ErrCodeInternalError, fmt.Sprintf("%s failed", operation), err)
	}
}

func isConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08: connection exception, 57P: operator intervention (server shutting down)
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
	}
	// Drivers that only report text still mention the failed connect.
	return strings.Contains(strings.ToLower(err.Error()), "connect")
}

func isConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") || strings.Contains(msg, "unique constraint")
}
