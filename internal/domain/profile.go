package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Decimal money amounts
)

// Roles a profile can hold
const (
	RoleUser  = "user"  // Regular account
	RoleAdmin = "admin" // Back-office account
)

// Account states toggled by admins
const (
	StatusActive  = "active"  // May sign in and submit requests
	StatusBlocked = "blocked" // Refused at sign-in and intake
)

// Profile Model
type Profile struct {
	ID             uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	Username       string          `gorm:"size:32;uniqueIndex;not null" json:"username"`         // Unique username
	Email          string          `gorm:"size:191;uniqueIndex;not null" json:"email"`           // Unique sign-in email
	Phone          string          `gorm:"size:20" json:"phone"`                                 // Contact phone
	Country        string          `gorm:"size:64" json:"country"`                               // Country name or code
	Password       string          `gorm:"not null" json:"-"`                                    // Hashed password
	WithdrawPin    string          `json:"-"`                                                    // Hashed withdraw pin, empty until set
	Role           string          `gorm:"size:10;not null;default:user" json:"role"`            // Role: user or admin
	Status         string          `gorm:"size:10;not null;default:active" json:"status"`        // Status: active or blocked
	Balance        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // Spendable balance
	ReferralCode   string          `gorm:"size:16;uniqueIndex" json:"referral_code"`             // Code shared with invitees
	ReferredBy     *uint           `json:"referred_by,omitempty"`                                // Inviting profile, if any
	CreatedAt      time.Time       `json:"created_at"`                                           // Registration time
	UpdatedAt      time.Time       `json:"updated_at"`                                           // Last update
	HasWithdrawPin bool            `gorm:"-" json:"has_withdraw_pin"`                            // Derived for responses
}

// IsBlocked reports whether the account has been blocked by an admin
func (p *Profile) IsBlocked() bool {
	return p.Status == StatusBlocked
}
