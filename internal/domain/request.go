package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request states shared by deposits and withdrawals. The only legal
// transitions are pending->approved and pending->rejected.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Payment methods accepted at intake
const (
	MethodBKash = "bKash"
	MethodNagad = "Nagad"
	MethodUSDT  = "USDT"
)

// PaymentMethods lists the accepted payment methods in display order
var PaymentMethods = []string{MethodBKash, MethodNagad, MethodUSDT}

// IsPaymentMethod reports whether m is an accepted payment method
func IsPaymentMethod(m string) bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// Deposit Model
type Deposit struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"size:20;not null" json:"payment_method"`
	TransactionID string          `gorm:"size:128;not null" json:"transaction_id"` // External payment reference
	ScreenshotURL string          `json:"screenshot_url"`
	PackageID     *uint           `json:"package_id,omitempty"`
	Status        string          `gorm:"size:10;index;not null;default:pending" json:"status"`
	ReviewedBy    *uint           `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Profile       *Profile        `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// Withdrawal Model
type Withdrawal struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"size:20;not null" json:"payment_method"`
	WalletAddress string          `gorm:"size:191;not null" json:"wallet_address"`
	Status        string          `gorm:"size:10;index;not null;default:pending" json:"status"`
	ReviewedBy    *uint           `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Profile       *Profile        `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
