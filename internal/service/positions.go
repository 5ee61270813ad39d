package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"investment_portal/internal/domain"
	"investment_portal/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PackageInput describes a catalog package created or edited by an admin.
type PackageInput struct {
	Name                  string
	Price                 decimal.Decimal
	DailyProfitPercentage decimal.Decimal
	TotalReturnPercentage decimal.Decimal
	DurationDays          int
}

// Validate checks a package definition.
func (in PackageInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if err := validateAmount("price", in.Price); err != nil {
		return err
	}
	if in.DailyProfitPercentage.IsNegative() || in.TotalReturnPercentage.IsNegative() {
		return invalid("percentage", "must not be negative")
	}
	if in.DurationDays <= 0 {
		return invalid("duration_days", "must be at least one day")
	}
	return nil
}

func loadPackage(tx *gorm.DB, id uint) (*domain.Package, error) {
	var pkg domain.Package
	if err := tx.First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("package %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load package %d: %w", id, err)
	}
	return &pkg, nil
}

// OpenPosition creates the active position for an approved package deposit.
// The end date is fixed here and never recomputed.
func OpenPosition(tx *gorm.DB, dep *domain.Deposit, pkg *domain.Package, start time.Time) (*domain.UserPackage, error) {
	pos := domain.UserPackage{
		UserID:         dep.UserID,
		PackageID:      pkg.ID,
		DepositID:      dep.ID,
		PurchaseAmount: dep.Amount,
		Status:         domain.PositionActive,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, pkg.DurationDays),
	}
	if err := tx.Create(&pos).Error; err != nil {
		return nil, fmt.Errorf("open position for deposit %d: %w", dep.ID, err)
	}
	return &pos, nil
}

// CompleteExpiredPositions marks every active position whose end date has
// passed as completed and returns how many changed.
func (s *Service) CompleteExpiredPositions(ctx context.Context) (int64, error) {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&domain.UserPackage{}).
		Where("status = ? AND end_date <= ?", domain.PositionActive, now).
		Update("status", domain.PositionCompleted)
	if res.Error != nil {
		return 0, fmt.Errorf("complete expired positions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.PositionsCompleted(res.RowsAffected)
		logrus.WithFields(logrus.Fields{
			"completed": res.RowsAffected,
			"as_of":     now.Format(time.RFC3339),
		}).Info("Positions completed")
	}
	return res.RowsAffected, nil
}

// ListPositions returns a user's positions, newest first.
func (s *Service) ListPositions(ctx context.Context, userID uint) ([]domain.UserPackage, error) {
	var positions []domain.UserPackage
	err := s.db.WithContext(ctx).Preload("Package").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// CreatePackage adds an active package to the catalog.
func (s *Service) CreatePackage(ctx context.Context, in PackageInput) (*domain.Package, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	pkg := domain.Package{
		Name:                  strings.TrimSpace(in.Name),
		Price:                 in.Price,
		DailyProfitPercentage: in.DailyProfitPercentage,
		TotalReturnPercentage: in.TotalReturnPercentage,
		DurationDays:          in.DurationDays,
		Active:                true,
	}
	if err := s.db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}
	return &pkg, nil
}

// SetPackageActive shows or hides a package. Existing positions are not
// affected.
func (s *Service) SetPackageActive(ctx context.Context, id uint, active bool) (*domain.Package, error) {
	pkg, err := loadPackage(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(pkg).Update("active", active).Error; err != nil {
		return nil, fmt.Errorf("update package %d: %w", id, err)
	}
	pkg.Active = active
	return pkg, nil
}

// ListPackages returns the catalog ordered by price. Inactive packages are
// included only when all is set.
func (s *Service) ListPackages(ctx context.Context, all bool) ([]domain.Package, error) {
	q := s.db.WithContext(ctx).Order("price asc, id asc")
	if !all {
		q = q.Where("active = ?", true)
	}
	pkgs := make([]domain.Package, 0)
	if err := q.Find(&pkgs).Error; err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}
