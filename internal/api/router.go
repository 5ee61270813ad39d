package api

import (
	"net/http" // HTTP status codes

	"investment_portal/internal/metrics"    // Prometheus collectors
	"investment_portal/internal/middleware" // Auth and rate limiting
	"investment_portal/internal/service"    // Business operations
	"investment_portal/internal/session"    // Session manager

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Service   *service.Service        // Business operations
	Sessions  *session.Manager        // Sign-in sessions
	Redis     *redis.Client           // Listing cache, nil disables caching
	Mailer    Mailer                  // Password reset delivery
	Limiter   *middleware.RateLimiter // Applied to auth and intake routes, nil disables
	UploadDir string                  // Screenshot storage directory
}

// NewRouter registers every route on a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	if d.Mailer == nil {
		d.Mailer = LogMailer{}
	}
	limit := func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.Middleware()
	}
	svc := d.Service
	auth := middleware.SessionAuthMiddleware(d.Sessions)

	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware())
	if gin.Mode() != gin.TestMode {
		r.Use(gin.Logger()) // Access log
	}
	r.Static("/uploads", d.UploadDir) // Deposit screenshots
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", healthHandler(d))

	// Auth routes
	authGroup := r.Group("/auth")
	authGroup.POST("/register", limit, RegisterHandler(svc, d.Redis))
	authGroup.POST("/login", limit, LoginHandler(svc, d.Sessions))
	authGroup.POST("/logout", auth, LogoutHandler(d.Sessions))
	authGroup.POST("/password-reset", limit, PasswordResetHandler(svc, d.Sessions, d.Mailer))
	authGroup.POST("/password-reset/confirm", limit, PasswordResetConfirmHandler(svc, d.Sessions))

	r.GET("/packages", ListPackagesHandler(svc, false)) // Public catalog

	// Account routes (protected by session)
	account := r.Group("/account", auth)
	account.GET("", GetProfileHandler(svc))
	account.PUT("/withdraw-pin", SetWithdrawPinHandler(svc, d.Redis))
	account.GET("/transactions", MyTransactionsHandler(svc))
	account.GET("/positions", MyPositionsHandler(svc))
	account.GET("/deposits", MyDepositsHandler(svc))
	account.POST("/deposits", limit, SubmitDepositHandler(svc, d.Redis, d.UploadDir))
	account.GET("/withdrawals", MyWithdrawalsHandler(svc))
	account.POST("/withdrawals", limit, SubmitWithdrawalHandler(svc, d.Redis))

	// Admin routes (protected, admin only)
	admin := r.Group("/admin", auth, middleware.AdminOnlyMiddleware(svc.DB()))
	admin.GET("/stats", StatsHandler(svc, d.Redis))
	admin.GET("/users", ListUsersHandler(svc, d.Redis))
	admin.POST("/users/:id/toggle-status", ToggleUserStatusHandler(svc, d.Redis))
	admin.POST("/users/:id/bonus", GrantBonusHandler(svc, d.Redis))
	admin.GET("/deposits", ListDepositsHandler(svc, d.Redis))
	admin.POST("/deposits/:id/approve", ReviewHandler(svc.ApproveDeposit, d.Redis, "deposit", "Deposit approved"))
	admin.POST("/deposits/:id/reject", ReviewHandler(svc.RejectDeposit, d.Redis, "deposit", "Deposit rejected"))
	admin.GET("/withdrawals", ListWithdrawalsHandler(svc, d.Redis))
	admin.POST("/withdrawals/:id/approve", ReviewHandler(svc.ApproveWithdrawal, d.Redis, "withdrawal", "Withdrawal approved"))
	admin.POST("/withdrawals/:id/reject", ReviewHandler(svc.RejectWithdrawal, d.Redis, "withdrawal", "Withdrawal rejected and refunded"))
	admin.GET("/transactions", ListTransactionsHandler(svc, d.Redis))
	admin.GET("/packages", ListPackagesHandler(svc, true))
	admin.POST("/packages", CreatePackageHandler(svc))
	admin.PATCH("/packages/:id", UpdatePackageHandler(svc))

	return r
}

func healthHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sqlDB, err := d.Service.DB().DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		if d.Redis != nil {
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
