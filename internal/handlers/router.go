package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/domcom/access-service/internal/config"
	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
	"github.com/domcom/access-service/internal/services"
	"github.com/domcom/access-service/internal/utils"
	"github.com/domcom/access-service/internal/validator"
)

type HandlerManager struct {
	adminHandler   *AdminHandler
	userHandler    *UserHandler
	authMiddleware *CasdoorAuthMiddleware
	serviceManager services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	repo repositories.Repository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, repo.User(), repo.Role())

	return &HandlerManager{
		adminHandler:   NewAdminHandler(serviceManager.Role(), serviceManager.Trust(), serviceManager.Audit(), validator, logger),
		userHandler:    NewUserHandler(serviceManager.User(), serviceManager.Role(), serviceManager.Trust(), logger),
		authMiddleware: authMiddleware,
		serviceManager: serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// User read surface - all authenticated users
		users := v1.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/search", hm.userHandler.SearchUsers)
			users.GET("/:id", hm.userHandler.GetUser)
			users.GET("/:id/rank", hm.userHandler.GetRank)
			users.GET("/:id/block", hm.userHandler.GetBlockStatus)
		}

		// Admin mutation surface - admin tier only
		admin := v1.Group("/admin/users")
		admin.Use(hm.authMiddleware.RequireTier(models.TierAdmin))
		{
			admin.PUT("/:id/roles", hm.adminHandler.UpdateRoles)
			admin.POST("/:id/block", hm.adminHandler.BlockUser)
			admin.POST("/:id/unblock", hm.adminHandler.UnblockUser)
			admin.GET("/:id/blocks", hm.adminHandler.GetBlocks)
			admin.GET("/:id/blocks/export", hm.adminHandler.ExportBlocks)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "degraded",
				"service": "access-service",
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "access-service",
		})
	})
}
