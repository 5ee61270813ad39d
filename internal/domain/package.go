package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position states
const (
	PositionActive    = "active"
	PositionCompleted = "completed"
)

// Package is a catalog entry a deposit can be tied to
type Package struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	Name                  string          `gorm:"size:64;not null" json:"name"`
	Price                 decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price"`
	DailyProfitPercentage decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"daily_profit_percentage"`
	TotalReturnPercentage decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_return_percentage"`
	DurationDays          int             `gorm:"not null" json:"duration_days"`
	Active                bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// UserPackage is a position opened when a package deposit is approved
type UserPackage struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"index;not null" json:"user_id"`
	PackageID      uint            `gorm:"index;not null" json:"package_id"`
	DepositID      uint            `gorm:"uniqueIndex;not null" json:"deposit_id"` // One position per deposit
	PurchaseAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"purchase_amount"`
	Status         string          `gorm:"size:10;index;not null;default:active" json:"status"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `gorm:"index" json:"end_date"` // StartDate + DurationDays, fixed at creation
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Package        *Package        `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}
