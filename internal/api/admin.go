package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // Cache key assembly

	"investment_portal/internal/service" // Business operations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money amounts
)

// listingKey builds a cache key from the named query parameters
func listingKey(c *gin.Context, name string, params ...string) string {
	parts := []string{adminCachePrefix + name}
	for _, k := range params {
		parts = append(parts, k+"="+c.Query(k)) // Append key-value pair
	}
	return strings.Join(parts, ":")
}

// StatsHandler returns dashboard counters
func StatsHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		serveCached(c, rdb, adminCachePrefix+"stats", "Failed to load stats", func(ctx context.Context) (gin.H, error) {
			st, err := svc.DashboardStats(ctx)
			if err != nil {
				return nil, err
			}
			return gin.H{"stats": st, "cached": false}, nil
		})
	}
}

// ListUsersHandler returns profiles with their balances
func ListUsersHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := listingKey(c, "users", "search", "page", "page_size")
		serveCached(c, rdb, key, "Failed to fetch users", func(ctx context.Context) (gin.H, error) {
			page := queryPage(c)
			users, total, err := svc.ListUsers(ctx, c.Query("search"), page)
			if err != nil {
				return nil, err
			}
			return pageBody("users", users, page, total), nil
		})
	}
}

// ToggleUserStatusHandler blocks or unblocks a user
func ToggleUserStatusHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		p, err := svc.ToggleUserStatus(c.Request.Context(), id, adminID)
		if err != nil {
			respondError(c, err, "Failed to update user status")
			return
		}
		invalidateAdminCache(c.Request.Context(), rdb)
		c.JSON(http.StatusOK, gin.H{"message": "User status updated", "user": p})
	}
}

// BonusRequest credits a bonus to a user
type BonusRequest struct {
	Amount decimal.Decimal `json:"amount"` // Bonus amount
	Note   string          `json:"note"`   // Ledger description
}

// GrantBonusHandler credits a bonus and records it in the ledger
func GrantBonusHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req BonusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		entry, err := svc.GrantBonus(c.Request.Context(), id, adminID, req.Amount, req.Note)
		if err != nil {
			respondError(c, err, "Failed to grant bonus")
			return
		}
		invalidateAdminCache(c.Request.Context(), rdb)
		c.JSON(http.StatusOK, gin.H{"message": "Bonus granted", "transaction": entry})
	}
}

func requestFilter(c *gin.Context) service.RequestFilter {
	f := service.RequestFilter{Status: c.Query("status"), Search: c.Query("search"), Page: queryPage(c)}
	if v, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		uid := uint(v)
		f.UserID = &uid
	}
	return f
}

// ListDepositsHandler returns deposit requests for review
func ListDepositsHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := listingKey(c, "deposits", "user_id", "status", "search", "page", "page_size")
		serveCached(c, rdb, key, "Failed to fetch deposits", func(ctx context.Context) (gin.H, error) {
			f := requestFilter(c)
			deps, total, err := svc.ListDeposits(ctx, f)
			if err != nil {
				return nil, err
			}
			return pageBody("deposits", deps, f.Page, total), nil
		})
	}
}

// ListWithdrawalsHandler returns withdrawal requests for review
func ListWithdrawalsHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := listingKey(c, "withdrawals", "user_id", "status", "search", "page", "page_size")
		serveCached(c, rdb, key, "Failed to fetch withdrawals", func(ctx context.Context) (gin.H, error) {
			f := requestFilter(c)
			wds, total, err := svc.ListWithdrawals(ctx, f)
			if err != nil {
				return nil, err
			}
			return pageBody("withdrawals", wds, f.Page, total), nil
		})
	}
}

// ReviewHandler runs an approve or reject operation on the :id request.
// A request that is no longer pending yields 409 and changes nothing.
func ReviewHandler[T any](review func(ctx context.Context, id, adminID uint) (*T, error), rdb *redis.Client, key, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		req, err := review(c.Request.Context(), id, adminID)
		if err != nil {
			respondError(c, err, "Review failed")
			return
		}
		invalidateAdminCache(c.Request.Context(), rdb)
		c.JSON(http.StatusOK, gin.H{"message": message, key: req})
	}
}

// ListTransactionsHandler returns ledger entries, optionally filtered by
// user, type, status or date range
func ListTransactionsHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := listingKey(c, "txs", "user_id", "type", "status", "from", "to", "page", "page_size")
		serveCached(c, rdb, key, "Failed to fetch transactions", func(ctx context.Context) (gin.H, error) {
			f := service.TransactionFilter{
				Type:   c.Query("type"),
				Status: c.Query("status"),
				From:   c.Query("from"),
				To:     c.Query("to"),
				Page:   queryPage(c),
			}
			if v, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
				uid := uint(v)
				f.UserID = &uid
			}
			txs, total, err := svc.ListTransactions(ctx, f)
			if err != nil {
				return nil, err
			}
			return pageBody("transactions", txs, f.Page, total), nil
		})
	}
}
