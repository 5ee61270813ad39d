package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"investment_portal/internal/domain"
	"investment_portal/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DepositInput is a deposit request as submitted by a user.
type DepositInput struct {
	UserID        uint
	Amount        decimal.Decimal
	Method        string
	TransactionID string
	ScreenshotURL string
	PackageID     *uint
}

// Validate checks the fields that can be judged without the database or the
// evidence upload.
func (in DepositInput) Validate() error {
	if err := validateAmount("amount", in.Amount); err != nil {
		return err
	}
	if !domain.IsPaymentMethod(in.Method) {
		return invalid("payment_method", "select a deposit method")
	}
	if strings.TrimSpace(in.TransactionID) == "" {
		return invalid("transaction_id", "is required")
	}
	return nil
}

// WithdrawalInput is a withdrawal request as submitted by a user.
type WithdrawalInput struct {
	UserID        uint
	Amount        decimal.Decimal
	Method        string
	WalletAddress string
	Pin           string
}

// Validate checks the fields that can be judged without the database.
func (in WithdrawalInput) Validate() error {
	if err := validateAmount("amount", in.Amount); err != nil {
		return err
	}
	if !domain.IsPaymentMethod(in.Method) {
		return invalid("payment_method", "select a withdrawal method")
	}
	if strings.TrimSpace(in.WalletAddress) == "" {
		return invalid("wallet_address", "is required")
	}
	if in.Pin == "" {
		return invalid("pin", "is required")
	}
	return nil
}

// SubmitDeposit records a pending deposit and its pending ledger entry.
func (s *Service) SubmitDeposit(ctx context.Context, in DepositInput) (*domain.Deposit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ScreenshotURL == "" {
		return nil, invalid("screenshot", "payment screenshot is required")
	}
	var dep domain.Deposit
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := loadProfile(tx, in.UserID)
		if err != nil {
			return err
		}
		if p.IsBlocked() {
			return ErrAccountBlocked
		}
		if in.PackageID != nil {
			pkg, err := loadPackage(tx, *in.PackageID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return invalid("package_id", "unknown package")
				}
				return err
			}
			if !pkg.Active {
				return invalid("package_id", "package is not available")
			}
			if in.Amount.LessThan(pkg.Price) {
				return invalid("amount", "must be at least the package price "+money(pkg.Price))
			}
		}
		dep = domain.Deposit{
			UserID:        in.UserID,
			Amount:        in.Amount,
			PaymentMethod: in.Method,
			TransactionID: strings.TrimSpace(in.TransactionID),
			ScreenshotURL: in.ScreenshotURL,
			PackageID:     in.PackageID,
			Status:        domain.RequestPending,
		}
		if err := tx.Create(&dep).Error; err != nil {
			return fmt.Errorf("create deposit: %w", err)
		}
		ref := LedgerRef{Kind: domain.RefDeposit, ID: dep.ID, UserID: dep.UserID, Amount: dep.Amount, Type: domain.TxDeposit}
		_, err = Append(tx, dep.UserID, dep.Amount, domain.TxDeposit, domain.TxPending,
			fmt.Sprintf("Deposit of %s via %s pending review", money(dep.Amount), dep.PaymentMethod), &ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RequestSubmitted(domain.RefDeposit)
	logrus.WithFields(logrus.Fields{
		"user_id":    dep.UserID,
		"deposit_id": dep.ID,
		"amount":     dep.Amount.String(),
		"method":     dep.PaymentMethod,
	}).Info("Deposit submitted")
	return &dep, nil
}

// SubmitWithdrawal holds the requested amount and records a pending
// withdrawal with its pending ledger entry. The hold is released only if an
// admin rejects the request.
func (s *Service) SubmitWithdrawal(ctx context.Context, in WithdrawalInput) (*domain.Withdrawal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var wd domain.Withdrawal
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := loadProfile(tx, in.UserID)
		if err != nil {
			return err
		}
		if p.IsBlocked() {
			return ErrAccountBlocked
		}
		if p.WithdrawPin == "" {
			return ErrPinNotSet
		}
		if bcrypt.CompareHashAndPassword([]byte(p.WithdrawPin), []byte(in.Pin)) != nil {
			return ErrInvalidPin
		}
		if err := HoldBalance(tx, in.UserID, in.Amount); err != nil {
			return err
		}
		wd = domain.Withdrawal{
			UserID:        in.UserID,
			Amount:        in.Amount,
			PaymentMethod: in.Method,
			WalletAddress: strings.TrimSpace(in.WalletAddress),
			Status:        domain.RequestPending,
		}
		if err := tx.Create(&wd).Error; err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		ref := LedgerRef{Kind: domain.RefWithdrawal, ID: wd.ID, UserID: wd.UserID, Amount: wd.Amount, Type: domain.TxWithdrawal}
		_, err = Append(tx, wd.UserID, wd.Amount, domain.TxWithdrawal, domain.TxPending,
			fmt.Sprintf("Withdrawal of %s to %s pending review", money(wd.Amount), wd.PaymentMethod), &ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RequestSubmitted(domain.RefWithdrawal)
	logrus.WithFields(logrus.Fields{
		"user_id":       wd.UserID,
		"withdrawal_id": wd.ID,
		"amount":        wd.Amount.String(),
		"method":        wd.PaymentMethod,
	}).Info("Withdrawal submitted, amount held")
	return &wd, nil
}
