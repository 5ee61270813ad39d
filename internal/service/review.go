package service

import (
	"context"
	"errors"
	"fmt"

	"investment_portal/internal/domain"
	"investment_portal/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// claim moves a pending request to status. The WHERE clause on the current
// status makes the transition a compare-and-set: of two concurrent reviews
// exactly one sees a changed row.
func (s *Service) claim(tx *gorm.DB, model any, id uint, status string, adminID uint) error {
	now := s.now()
	res := tx.Model(model).
		Where("id = ? AND status = ?", id, domain.RequestPending).
		Updates(map[string]any{"status": status, "reviewed_by": adminID, "reviewed_at": now})
	if res.Error != nil {
		return fmt.Errorf("update request status: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check request: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrAlreadyProcessed
}

// ApproveDeposit approves a pending deposit: credits the balance, completes
// the ledger entry and opens a position when the deposit names a package.
func (s *Service) ApproveDeposit(ctx context.Context, id, adminID uint) (*domain.Deposit, error) {
	var dep domain.Deposit
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.claim(tx, &domain.Deposit{}, id, domain.RequestApproved, adminID); err != nil {
			return err
		}
		if err := tx.First(&dep, id).Error; err != nil {
			return fmt.Errorf("load deposit %d: %w", id, err)
		}
		if err := IncrementBalance(tx, dep.UserID, dep.Amount); err != nil {
			return err
		}
		ref := depositRef(&dep)
		if _, err := Resolve(tx, ref, domain.TxCompleted, fmt.Sprintf("Deposit of %s approved", money(dep.Amount))); err != nil {
			return err
		}
		if dep.PackageID != nil {
			pkg, err := loadPackage(tx, *dep.PackageID)
			if err != nil {
				return err
			}
			if _, err := OpenPosition(tx, &dep, pkg, s.now()); err != nil {
				return err
			}
		}
		return nil
	})
	s.logDecision(domain.RefDeposit, domain.RequestApproved, id, adminID, dep.UserID, dep.Amount, err)
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

// RejectDeposit rejects a pending deposit. The balance is untouched.
func (s *Service) RejectDeposit(ctx context.Context, id, adminID uint) (*domain.Deposit, error) {
	var dep domain.Deposit
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.claim(tx, &domain.Deposit{}, id, domain.RequestRejected, adminID); err != nil {
			return err
		}
		if err := tx.First(&dep, id).Error; err != nil {
			return fmt.Errorf("load deposit %d: %w", id, err)
		}
		_, err := Resolve(tx, depositRef(&dep), domain.TxRejected, fmt.Sprintf("Deposit of %s rejected", money(dep.Amount)))
		return err
	})
	s.logDecision(domain.RefDeposit, domain.RequestRejected, id, adminID, dep.UserID, dep.Amount, err)
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

// ApproveWithdrawal approves a pending withdrawal. The amount was held at
// intake so the balance does not move.
func (s *Service) ApproveWithdrawal(ctx context.Context, id, adminID uint) (*domain.Withdrawal, error) {
	var wd domain.Withdrawal
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.claim(tx, &domain.Withdrawal{}, id, domain.RequestApproved, adminID); err != nil {
			return err
		}
		if err := tx.First(&wd, id).Error; err != nil {
			return fmt.Errorf("load withdrawal %d: %w", id, err)
		}
		_, err := Resolve(tx, withdrawalRef(&wd), domain.TxCompleted, fmt.Sprintf("Withdrawal of %s approved", money(wd.Amount)))
		return err
	})
	s.logDecision(domain.RefWithdrawal, domain.RequestApproved, id, adminID, wd.UserID, wd.Amount, err)
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

// RejectWithdrawal rejects a pending withdrawal and releases the held amount
// back to the balance with a withdrawal_refund ledger entry.
func (s *Service) RejectWithdrawal(ctx context.Context, id, adminID uint) (*domain.Withdrawal, error) {
	var wd domain.Withdrawal
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.claim(tx, &domain.Withdrawal{}, id, domain.RequestRejected, adminID); err != nil {
			return err
		}
		if err := tx.First(&wd, id).Error; err != nil {
			return fmt.Errorf("load withdrawal %d: %w", id, err)
		}
		if err := IncrementBalance(tx, wd.UserID, wd.Amount); err != nil {
			return err
		}
		ref := withdrawalRef(&wd)
		if _, err := Resolve(tx, ref, domain.TxRejected, fmt.Sprintf("Withdrawal of %s rejected", money(wd.Amount))); err != nil {
			return err
		}
		_, err := Append(tx, wd.UserID, wd.Amount, domain.TxWithdrawalRefund, domain.TxCompleted,
			fmt.Sprintf("Withdrawal of %s rejected and refunded", money(wd.Amount)), &ref)
		return err
	})
	s.logDecision(domain.RefWithdrawal, domain.RequestRejected, id, adminID, wd.UserID, wd.Amount, err)
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

// ToggleUserStatus flips a profile between active and blocked. Nothing but
// the status column changes.
func (s *Service) ToggleUserStatus(ctx context.Context, userID, adminID uint) (*domain.Profile, error) {
	if userID == adminID {
		return nil, invalid("user_id", "admins cannot change their own status")
	}
	var p *domain.Profile
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if p, err = loadProfile(tx, userID); err != nil {
			return err
		}
		next := domain.StatusBlocked
		if p.IsBlocked() {
			next = domain.StatusActive
		}
		res := tx.Model(&domain.Profile{}).
			Where("id = ? AND status = ?", p.ID, p.Status).
			UpdateColumn("status", next)
		if res.Error != nil {
			return fmt.Errorf("update status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}
		p.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": adminID,
		"status":   p.Status,
	}).Info("User status changed")
	return p, nil
}

// GrantBonus credits a bonus to a profile and records it in the ledger.
func (s *Service) GrantBonus(ctx context.Context, userID, adminID uint, amount decimal.Decimal, note string) (*domain.Transaction, error) {
	if err := validateAmount("amount", amount); err != nil {
		return nil, err
	}
	if note == "" {
		note = "Bonus of " + money(amount)
	}
	var entry *domain.Transaction
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := IncrementBalance(tx, userID, amount); err != nil {
			return err
		}
		var err error
		entry, err = Append(tx, userID, amount, domain.TxBonus, domain.TxCompleted, note, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": adminID,
		"amount":   amount.String(),
	}).Info("Bonus granted")
	return entry, nil
}

func depositRef(d *domain.Deposit) LedgerRef {
	return LedgerRef{Kind: domain.RefDeposit, ID: d.ID, UserID: d.UserID, Amount: d.Amount, Type: domain.TxDeposit}
}

func withdrawalRef(w *domain.Withdrawal) LedgerRef {
	return LedgerRef{Kind: domain.RefWithdrawal, ID: w.ID, UserID: w.UserID, Amount: w.Amount, Type: domain.TxWithdrawal}
}

func (s *Service) logDecision(kind, decision string, id, adminID, userID uint, amount decimal.Decimal, err error) {
	fields := logrus.Fields{
		"kind":       kind,
		"request_id": id,
		"admin_id":   adminID,
		"decision":   decision,
	}
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrAlreadyProcessed) {
			outcome = "conflict"
		}
		metrics.ReviewDecision(kind, decision, outcome)
		fields["error"] = err.Error()
		logrus.WithFields(fields).Warn("Review failed, nothing applied")
		return
	}
	metrics.ReviewDecision(kind, decision, "applied")
	fields["user_id"] = userID
	fields["amount"] = amount.String()
	logrus.WithFields(fields).Info("Review applied")
}
