package api

import (
	"context"  // Mailer context
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Expiry formatting

	"investment_portal/internal/middleware" // Session lookup
	"investment_portal/internal/service"    // Business operations
	"investment_portal/internal/session"    // Session manager

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Mailer delivers password reset tokens
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes reset tokens to the log instead of sending mail
type LogMailer struct{}

// SendPasswordReset logs the token for the operator to relay
func (LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	logrus.WithFields(logrus.Fields{
		"email": email, // Recipient
		"token": token, // One-time reset token
	}).Info("Password reset requested")
	return nil
}

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	Username     string `json:"username" binding:"required"` // Username must be provided
	Email        string `json:"email" binding:"required"`    // Email must be provided
	Phone        string `json:"phone" binding:"required"`    // Phone must be provided
	Country      string `json:"country" binding:"required"`  // Country must be provided
	Password     string `json:"password" binding:"required"` // Password must be provided
	ReferralCode string `json:"referral_code"`               // Optional inviter code
}

// LoginRequest is the sign-in body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// AuthResponse is returned after a successful sign-in
type AuthResponse struct {
	Token     string `json:"token"`      // Signed session token
	ExpiresAt string `json:"expires_at"` // RFC3339 session expiry
	Role      string `json:"role"`       // Role of the signed-in profile
}

// RegisterHandler creates a user profile
func RegisterHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		p, err := svc.Register(c.Request.Context(), service.Registration{
			Username:     req.Username,
			Email:        req.Email,
			Phone:        req.Phone,
			Country:      req.Country,
			Password:     req.Password,
			ReferralCode: req.ReferralCode,
		})
		if err != nil {
			respondError(c, err, "Registration failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  p.ID,       // New profile
			"username": p.Username, // Chosen username
		}).Info("User registered")
		invalidateAdminCache(c.Request.Context(), rdb) // User count and listings changed
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": p})
	}
}

// LoginHandler verifies credentials and opens a session
func LoginHandler(svc *service.Service, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		p, err := svc.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err, "Login failed")
			return
		}
		sess, token, err := sessions.Create(c.Request.Context(), p.ID, p.Role)
		if err != nil {
			respondError(c, err, "Failed to create session")
			return
		}
		c.JSON(http.StatusOK, AuthResponse{
			Token:     token,
			ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
			Role:      sess.Role,
		})
	}
}

// LogoutHandler revokes the caller's session
func LogoutHandler(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.CurrentSession(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := sessions.Revoke(c.Request.Context(), sess.ID); err != nil {
			respondError(c, err, "Logout failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
	}
}

// PasswordResetRequest names the account to reset
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"` // Sign-in email
}

// PasswordResetHandler issues a reset token. The response does not reveal
// whether the email is registered.
func PasswordResetHandler(svc *service.Service, sessions *session.Manager, mailer Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := c.Request.Context()
		accepted := gin.H{"message": "If the email is registered, a reset link has been sent"}
		p, err := svc.ProfileByEmail(ctx, req.Email)
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusOK, accepted)
			return
		}
		if err != nil {
			respondError(c, err, "Password reset failed")
			return
		}
		token, err := sessions.IssueResetToken(ctx, p.ID)
		if err != nil {
			respondError(c, err, "Password reset failed")
			return
		}
		if err := mailer.SendPasswordReset(ctx, p.Email, token); err != nil {
			respondError(c, err, "Password reset failed")
			return
		}
		c.JSON(http.StatusOK, accepted)
	}
}

// PasswordResetConfirmRequest carries the token and the new password
type PasswordResetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`    // One-time token
	Password string `json:"password" binding:"required"` // New password
}

// PasswordResetConfirmHandler consumes a reset token and sets the password
func PasswordResetConfirmHandler(svc *service.Service, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if len(req.Password) < 8 {
			// Checked before the token is spent
			c.JSON(http.StatusBadRequest, gin.H{"error": "must be at least 8 characters", "field": "password"})
			return
		}
		ctx := c.Request.Context()
		userID, err := sessions.ConsumeResetToken(ctx, req.Token)
		if errors.Is(err, session.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
			return
		}
		if err != nil {
			respondError(c, err, "Password reset failed")
			return
		}
		if err := svc.SetPassword(ctx, userID, req.Password); err != nil {
			respondError(c, err, "Password reset failed")
			return
		}
		logrus.WithField("user_id", userID).Info("Password reset completed")
		c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	}
}
