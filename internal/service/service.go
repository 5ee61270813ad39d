package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investment_portal/internal/domain"

	"gorm.io/gorm"
)

// Service runs the intake and review workflows against the database. Every
// public operation that writes runs inside a single database transaction.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Service over db.
func New(db *gorm.DB) *Service {
	return &Service{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DB exposes the underlying handle for read-only listings.
func (s *Service) DB() *gorm.DB {
	return s.db
}

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func loadProfile(tx *gorm.DB, id uint) (*domain.Profile, error) {
	var p domain.Profile
	if err := tx.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load profile %d: %w", id, err)
	}
	return &p, nil
}
