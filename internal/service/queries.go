package service

import (
	"context"
	"fmt"

	"investment_portal/internal/domain"

	"gorm.io/gorm"
)

const maxPage = 1_000_000 // Keeps offsets far from overflow

// Page selects a slice of a listing. Zero values fall back to page 1 of 20.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	p = p.normalize()
	return (p.Page - 1) * p.PageSize
}

// TotalPages is the number of pages needed for total rows.
func (p Page) TotalPages(total int64) int {
	p = p.normalize()
	return (int(total) + p.PageSize - 1) / p.PageSize
}

// RequestFilter narrows deposit and withdrawal listings.
type RequestFilter struct {
	UserID *uint
	Status string
	Search string // matches username, payment method and the external reference
	Page   Page
}

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	UserID *uint
	Type   string
	Status string
	From   string
	To     string
	Page   Page
}

// paginate counts the filtered rows and loads one page of them. q is
// cloned for each statement so the count does not leak into the select.
func paginate(q *gorm.DB, table string, page Page, dest any, preloads ...string) (int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	page = page.normalize()
	find := q
	for _, rel := range preloads {
		find = find.Preload(rel)
	}
	if err := find.Order(table + ".created_at desc, " + table + ".id desc").Offset(page.Offset()).Limit(page.PageSize).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListDeposits returns deposits with their owner's profile, newest first.
func (s *Service) ListDeposits(ctx context.Context, f RequestFilter) ([]domain.Deposit, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Deposit{})
	if f.UserID != nil {
		q = q.Where("deposits.user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("deposits.status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Joins("JOIN profiles ON profiles.id = deposits.user_id").
			Where("profiles.username LIKE ? OR deposits.transaction_id LIKE ? OR deposits.payment_method LIKE ?", like, like, like)
	}
	var deps []domain.Deposit
	total, err := paginate(q, "deposits", f.Page, &deps, "Profile")
	if err != nil {
		return nil, 0, fmt.Errorf("list deposits: %w", err)
	}
	return deps, total, nil
}

// ListWithdrawals returns withdrawals with their owner's profile, newest first.
func (s *Service) ListWithdrawals(ctx context.Context, f RequestFilter) ([]domain.Withdrawal, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Withdrawal{})
	if f.UserID != nil {
		q = q.Where("withdrawals.user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("withdrawals.status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Joins("JOIN profiles ON profiles.id = withdrawals.user_id").
			Where("profiles.username LIKE ? OR withdrawals.wallet_address LIKE ? OR withdrawals.payment_method LIKE ?", like, like, like)
	}
	var wds []domain.Withdrawal
	total, err := paginate(q, "withdrawals", f.Page, &wds, "Profile")
	if err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}
	return wds, total, nil
}

// ListTransactions returns ledger entries, newest first.
func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != "" {
		q = q.Where("created_at >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("created_at <= ?", f.To)
	}
	var txs []domain.Transaction
	total, err := paginate(q, "transactions", f.Page, &txs)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txs, total, nil
}

// ListUsers returns profiles, newest first.
func (s *Service) ListUsers(ctx context.Context, search string, page Page) ([]domain.Profile, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Profile{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("username LIKE ? OR email LIKE ?", like, like)
	}
	var users []domain.Profile
	total, err := paginate(q, "profiles", page, &users)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i].HasWithdrawPin = users[i].WithdrawPin != ""
	}
	return users, total, nil
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers         int64 `json:"total_users"`
	PendingDeposits    int64 `json:"pending_deposits"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
	TotalTransactions  int64 `json:"total_transactions"`
}

// DashboardStats counts users, pending requests and ledger entries.
func (s *Service) DashboardStats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	var st Stats
	if err := db.Model(&domain.Profile{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := db.Model(&domain.Deposit{}).Where("status = ?", domain.RequestPending).Count(&st.PendingDeposits).Error; err != nil {
		return nil, fmt.Errorf("count deposits: %w", err)
	}
	if err := db.Model(&domain.Withdrawal{}).Where("status = ?", domain.RequestPending).Count(&st.PendingWithdrawals).Error; err != nil {
		return nil, fmt.Errorf("count withdrawals: %w", err)
	}
	if err := db.Model(&domain.Transaction{}).Count(&st.TotalTransactions).Error; err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	return &st, nil
}
