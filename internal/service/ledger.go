package service

import (
	"errors"
	"fmt"

	"investment_portal/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRef identifies the request a ledger entry belongs to, together with
// the attributes used to match entries written without a reference.
type LedgerRef struct {
	Kind   string // domain.RefDeposit or domain.RefWithdrawal
	ID     uint
	UserID uint
	Amount decimal.Decimal
	Type   string // ledger type of the correlated entry
}

// FindCorrelated returns the pending ledger entry for ref, or nil when there
// is none. Entries carrying the request reference win. Entries without one
// are matched on (user, amount, type) and the most recently created is
// returned, ties broken by the higher id.
func FindCorrelated(tx *gorm.DB, ref LedgerRef) (*domain.Transaction, error) {
	var entry domain.Transaction
	err := tx.Where("reference_type = ? AND reference_id = ? AND status = ?", ref.Kind, ref.ID, domain.TxPending).
		Order("created_at desc, id desc").
		First(&entry).Error
	if err == nil {
		return &entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find ledger entry by reference: %w", err)
	}

	err = tx.Where("user_id = ? AND amount = ? AND type = ? AND status = ? AND reference_id IS NULL",
		ref.UserID, ref.Amount, ref.Type, domain.TxPending).
		Order("created_at desc, id desc").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ledger entry by attributes: %w", err)
	}
	return &entry, nil
}

// Resolve moves the correlated pending entry to status, or appends a new
// entry when none is found. Either way exactly one entry for ref ends up
// with the given status.
func Resolve(tx *gorm.DB, ref LedgerRef, status, description string) (*domain.Transaction, error) {
	entry, err := FindCorrelated(tx, ref)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return Append(tx, ref.UserID, ref.Amount, ref.Type, status, description, &ref)
	}
	kind := ref.Kind
	id := ref.ID
	updates := map[string]any{
		"status":         status,
		"description":    description,
		"reference_type": &kind,
		"reference_id":   &id,
	}
	if err := tx.Model(entry).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update ledger entry %d: %w", entry.ID, err)
	}
	entry.Status = status
	entry.Description = description
	entry.ReferenceType = &kind
	entry.ReferenceID = &id
	return entry, nil
}

// Append inserts a new ledger entry. ref may be nil for entries that do not
// originate from a request.
func Append(tx *gorm.DB, userID uint, amount decimal.Decimal, txType, status, description string, ref *LedgerRef) (*domain.Transaction, error) {
	entry := domain.Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Status:      status,
		Description: description,
	}
	if ref != nil {
		kind := ref.Kind
		id := ref.ID
		entry.ReferenceType = &kind
		entry.ReferenceID = &id
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	return &entry, nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
