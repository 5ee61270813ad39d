package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"os"       // Upload cleanup
	"strconv"  // String conversion

	"investment_portal/internal/service" // Business operations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money amounts
	"github.com/sirupsen/logrus"    // Logging library
)

// GetProfileHandler returns the caller's profile and balance
func GetProfileHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		p, err := svc.Profile(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "Failed to fetch profile")
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// WithdrawPinRequest sets or replaces the withdraw pin
type WithdrawPinRequest struct {
	Pin string `json:"pin" binding:"required"` // 4-6 digits
}

// SetWithdrawPinHandler stores the caller's withdraw pin
func SetWithdrawPinHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req WithdrawPinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := svc.SetWithdrawPin(c.Request.Context(), userID, req.Pin); err != nil {
			respondError(c, err, "Failed to set withdraw pin")
			return
		}
		invalidateAdminCache(c.Request.Context(), rdb) // Listings show has_withdraw_pin
		c.JSON(http.StatusOK, gin.H{"message": "Withdraw pin saved"})
	}
}

// MyTransactionsHandler returns the caller's ledger history
func MyTransactionsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		page := queryPage(c)
		txs, total, err := svc.ListTransactions(c.Request.Context(), service.TransactionFilter{
			UserID: &userID,
			Type:   c.Query("type"),
			Status: c.Query("status"),
			Page:   page,
		})
		if err != nil {
			respondError(c, err, "Failed to fetch transactions")
			return
		}
		c.JSON(http.StatusOK, pageBody("transactions", txs, page, total))
	}
}

// MyPositionsHandler returns the caller's package positions
func MyPositionsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		positions, err := svc.ListPositions(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "Failed to fetch positions")
			return
		}
		c.JSON(http.StatusOK, gin.H{"positions": positions})
	}
}

// MyDepositsHandler returns the caller's deposit requests
func MyDepositsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		page := queryPage(c)
		deps, total, err := svc.ListDeposits(c.Request.Context(), service.RequestFilter{UserID: &userID, Status: c.Query("status"), Page: page})
		if err != nil {
			respondError(c, err, "Failed to fetch deposits")
			return
		}
		c.JSON(http.StatusOK, pageBody("deposits", deps, page, total))
	}
}

// SubmitDepositHandler accepts a multipart deposit request with its
// payment screenshot
func SubmitDepositHandler(svc *service.Service, rdb *redis.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		amount, err := decimal.NewFromString(c.PostForm("amount"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount", "field": "amount"})
			return
		}
		in := service.DepositInput{
			UserID:        userID,
			Amount:        amount,
			Method:        c.PostForm("payment_method"),
			TransactionID: c.PostForm("transaction_id"),
		}
		if raw := c.PostForm("package_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid package", "field": "package_id"})
				return
			}
			pkgID := uint(id)
			in.PackageID = &pkgID
		}
		// Reject bad fields before anything touches the disk
		if err := in.Validate(); err != nil {
			respondError(c, err, "Deposit failed")
			return
		}
		file, err := c.FormFile("screenshot")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment screenshot is required", "field": "screenshot"})
			return
		}
		url, path, err := saveScreenshot(c, file, uploadDir)
		var uerr uploadError
		if errors.As(err, &uerr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": uerr.Error(), "field": "screenshot"})
			return
		}
		if err != nil {
			respondError(c, err, "Failed to store screenshot")
			return
		}
		in.ScreenshotURL = url
		dep, err := svc.SubmitDeposit(c.Request.Context(), in)
		if err != nil {
			_ = os.Remove(path) // Nothing references the file now
			respondError(c, err, "Deposit failed")
			return
		}
		invalidateAdminCache(c.Request.Context(), rdb)
		c.JSON(http.StatusCreated, gin.H{"message": "Deposit submitted for review", "deposit": dep})
	}
}

// MyWithdrawalsHandler returns the caller's withdrawal requests
func MyWithdrawalsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		page := queryPage(c)
		wds, total, err := svc.ListWithdrawals(c.Request.Context(), service.RequestFilter{UserID: &userID, Status: c.Query("status"), Page: page})
		if err != nil {
			respondError(c, err, "Failed to fetch withdrawals")
			return
		}
		c.JSON(http.StatusOK, pageBody("withdrawals", wds, page, total))
	}
}

// WithdrawalRequest is the withdrawal body
type WithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`                            // Amount to withdraw
	PaymentMethod string          `json:"payment_method" binding:"required"` // bKash, Nagad or USDT
	WalletAddress string          `json:"wallet_address" binding:"required"` // Payout destination
	Pin           string          `json:"pin" binding:"required"`            // Withdraw pin
}

// SubmitWithdrawalHandler holds the amount and records a pending withdrawal
func SubmitWithdrawalHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req WithdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		wd, err := svc.SubmitWithdrawal(c.Request.Context(), service.WithdrawalInput{
			UserID:        userID,
			Amount:        req.Amount,
			Method:        req.PaymentMethod,
			WalletAddress: req.WalletAddress,
			Pin:           req.Pin,
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,              // Requesting user
				"amount":  req.Amount.String(), // Requested amount
				"error":   err.Error(),         // Why it was refused
			}).Info("Withdrawal refused")
			respondError(c, err, "Withdrawal failed")
			return
		}
		invalidateAdminCache(c.Request.Context(), rdb)
		c.JSON(http.StatusCreated, gin.H{"message": "Withdrawal submitted for review", "withdrawal": wd})
	}
}
