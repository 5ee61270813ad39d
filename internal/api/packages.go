package api

import (
	"net/http" // HTTP status codes

	"investment_portal/internal/service" // Business operations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money amounts
)

// ListPackagesHandler returns the package catalog. Inactive packages are
// listed only when all is set.
func ListPackagesHandler(svc *service.Service, all bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		pkgs, err := svc.ListPackages(c.Request.Context(), all)
		if err != nil {
			respondError(c, err, "Failed to fetch packages")
			return
		}
		c.JSON(http.StatusOK, gin.H{"packages": pkgs})
	}
}

// PackageRequest defines a catalog package
type PackageRequest struct {
	Name                  string          `json:"name" binding:"required"`
	Price                 decimal.Decimal `json:"price"`
	DailyProfitPercentage decimal.Decimal `json:"daily_profit_percentage"`
	TotalReturnPercentage decimal.Decimal `json:"total_return_percentage"`
	DurationDays          int             `json:"duration_days"`
}

// CreatePackageHandler adds a package to the catalog
func CreatePackageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PackageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		pkg, err := svc.CreatePackage(c.Request.Context(), service.PackageInput{
			Name:                  req.Name,
			Price:                 req.Price,
			DailyProfitPercentage: req.DailyProfitPercentage,
			TotalReturnPercentage: req.TotalReturnPercentage,
			DurationDays:          req.DurationDays,
		})
		if err != nil {
			respondError(c, err, "Failed to create package")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"package": pkg})
	}
}

// PackageUpdateRequest toggles catalog visibility
type PackageUpdateRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// UpdatePackageHandler shows or hides a package
func UpdatePackageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req PackageUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		pkg, err := svc.SetPackageActive(c.Request.Context(), id, *req.Active)
		if err != nil {
			respondError(c, err, "Failed to update package")
			return
		}
		c.JSON(http.StatusOK, gin.H{"package": pkg})
	}
}
