package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Decimal money amounts
)

// Ledger entry types
const (
	TxDeposit          = "deposit"
	TxWithdrawal       = "withdrawal"
	TxBonus            = "bonus"
	TxReferral         = "referral"
	TxWithdrawalRefund = "withdrawal_refund"
)

// Ledger entry states
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxRejected  = "rejected"
)

// Kinds of request a ledger entry can reference
const (
	RefDeposit    = "deposit"
	RefWithdrawal = "withdrawal"
)

// Transaction Model, one ledger row per money-movement event
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`                                           // Primary key
	UserID        uint            `gorm:"index;not null" json:"user_id"`                                  // Owning profile
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`                      // Amount moved
	Type          string          `gorm:"size:20;not null" json:"type"`                                   // deposit, withdrawal, bonus, referral, withdrawal_refund
	Status        string          `gorm:"size:10;not null" json:"status"`                                 // pending, completed, rejected
	Description   string          `json:"description"`                                                    // Human readable summary
	ReferenceType *string         `gorm:"size:20;index:idx_tx_reference" json:"reference_type,omitempty"` // Originating request kind
	ReferenceID   *uint           `gorm:"index:idx_tx_reference" json:"reference_id,omitempty"`           // Originating request id
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`                                        // Timestamp of creation
	UpdatedAt     time.Time       `json:"updated_at"`                                                     // Timestamp of last change
}
