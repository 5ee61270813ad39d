// Package testutil builds in-memory databases and fixtures for tests.
package testutil

import (
	"testing"

	"investment_portal/internal/db"
	"investment_portal/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database. A single connection is
// used so every statement sees the same memory database and transactions
// serialize.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// Hash returns a low-cost bcrypt hash for fixtures.
func Hash(t testing.TB, secret string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

// CreateProfile inserts an active profile with the given role and balance.
// Its password is "password123" and its withdraw pin "1234".
func CreateProfile(t testing.TB, conn *gorm.DB, username, role string, balance int64) *domain.Profile {
	t.Helper()
	p := domain.Profile{
		Username:     username,
		Email:        username + "@example.com",
		Phone:        "+8801700000000",
		Country:      "BD",
		Password:     Hash(t, "password123"),
		WithdrawPin:  Hash(t, "1234"),
		Role:         role,
		Status:       domain.StatusActive,
		Balance:      decimal.NewFromInt(balance),
		ReferralCode: uuid.NewString()[:8],
	}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return &p
}

// CreatePackage inserts an active catalog package.
func CreatePackage(t testing.TB, conn *gorm.DB, name string, price int64, days int) *domain.Package {
	t.Helper()
	pkg := domain.Package{
		Name:                  name,
		Price:                 decimal.NewFromInt(price),
		DailyProfitPercentage: decimal.NewFromInt(1),
		TotalReturnPercentage: decimal.NewFromInt(10),
		DurationDays:          days,
		Active:                true,
	}
	if err := conn.Create(&pkg).Error; err != nil {
		t.Fatalf("create package: %v", err)
	}
	return &pkg
}

// Balance reloads a profile's balance.
func Balance(t testing.TB, conn *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()
	var p domain.Profile
	if err := conn.First(&p, userID).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return p.Balance
}
