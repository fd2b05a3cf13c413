package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quotation represents a quotation request for one of the music solutions
type Quotation struct {
	ID                string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FirstName         string    `gorm:"not null" json:"first_name"`
	LastName          string    `gorm:"not null" json:"last_name"`
	Email             string    `gorm:"not null;index" json:"email"`
	Country           string    `gorm:"not null" json:"country"` // display name, not ISO code
	CompanyName       string    `gorm:"not null" json:"company_name"`
	CompanyAddress    string    `gorm:"type:text;not null" json:"company_address"`
	PreferredSolution string    `gorm:"not null" json:"preferred_solution"`
	NumberOfZones     int       `gorm:"not null" json:"number_of_zones"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Quotation
func (Quotation) TableName() string {
	return "quotations"
}

// BeforeCreate assigns the record identifier and creation time
func (q *Quotation) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = tx.NowFunc()
	}
	return nil
}

// FullName returns the contact's first and last name
func (q *Quotation) FullName() string {
	return q.FirstName + " " + q.LastName
}
