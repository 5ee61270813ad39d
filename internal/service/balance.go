package service

import (
	"fmt"

	"investment_portal/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IncrementBalance credits amount to the profile in a single UPDATE so
// concurrent credits never lose each other.
func IncrementBalance(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	res := tx.Model(&domain.Profile{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("increment balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("increment balance for profile %d: %w", userID, ErrNotFound)
	}
	return nil
}

// HoldBalance debits amount only if the balance covers it. The check and
// the debit are one statement.
func HoldBalance(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	res := tx.Model(&domain.Profile{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("hold balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}
