package service

import (
	"fmt"
	"testing"
	"time"

	"investment_portal/internal/domain"
	"investment_portal/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func init() {
	HashCost = bcrypt.MinCost
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := testutil.NewDB(t)
	return New(conn).WithClock(func() time.Time { return fixedNow }), conn
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertMoney(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, fmt.Sprintf("money: want %d, got %s", want, got.String()), msgAndArgs...)
	}
}

func ledgerFor(t *testing.T, conn *gorm.DB, userID uint) []domain.Transaction {
	t.Helper()
	var txs []domain.Transaction
	if err := conn.Where("user_id = ?", userID).Order("id asc").Find(&txs).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	return txs
}
