package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTL

	"investment_portal/internal/service" // Business operations
	"investment_portal/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

const (
	adminCachePrefix = "admin:"         // Every cached admin listing lives under this prefix
	adminCacheTTL    = 60 * time.Second // Lifetime of a cached admin listing
)

// respondError maps a service error to a status code and JSON body.
// Unexpected errors are logged and reported with the fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, service.ErrInsufficientFunds), errors.Is(err, service.ErrPinNotSet):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrAccountBlocked), errors.Is(err, service.ErrInvalidPin):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "Request already processed"})
	default:
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(), // Route template
			"error": err.Error(),  // Underlying error
		}).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// currentUserID reads the id placed in the context by the session middleware
func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

// pathID parses the :id route parameter
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// queryPage reads page and page_size, leaving bad values to the defaults
func queryPage(c *gin.Context) service.Page {
	var p service.Page
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v // Set page if valid
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
		p.PageSize = v // Set page size if within limits
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
	return p
}

// pageBody builds the common listing envelope
func pageBody(key string, items any, p service.Page, total int64) gin.H {
	return gin.H{
		key:           items,               // Listed rows
		"page":        p.Page,              // Current page
		"page_size":   p.PageSize,          // Page size
		"total":       total,               // Total matching rows
		"total_pages": p.TotalPages(total), // Total pages
		"cached":      false,               // Fresh from the database
	}
}

// serveCached answers from Redis when key is present, otherwise runs load,
// caches its body and answers with it.
func serveCached(c *gin.Context, rdb *redis.Client, key, fallback string, load func(ctx context.Context) (gin.H, error)) {
	ctx := c.Request.Context()
	var cached map[string]any
	if found, err := utils.GetCache(ctx, rdb, key, &cached); err == nil && found {
		cached["cached"] = true // Indicate response is from cache
		c.JSON(http.StatusOK, cached)
		return
	} else if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	body, err := load(ctx)
	if err != nil {
		respondError(c, err, fallback)
		return
	}
	if err := utils.SetCache(ctx, rdb, key, body, adminCacheTTL); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	c.JSON(http.StatusOK, body)
}

// invalidateAdminCache drops every cached admin listing after a write
func invalidateAdminCache(ctx context.Context, rdb *redis.Client) {
	if err := utils.DeleteCachePrefix(ctx, rdb, adminCachePrefix); err != nil {
		logrus.WithError(err).Warn("Cache invalidation failed")
	}
}
