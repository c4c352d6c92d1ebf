package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/domcom/access-service/internal/services"
	"github.com/domcom/access-service/internal/utils"
	"github.com/domcom/access-service/internal/validator"
)

// AdminHandler exposes the admin mutation surface: role set replacement and
// the block/unblock lifecycle.
type AdminHandler struct {
	BaseHandler
	roleService  services.RoleService
	trustService services.TrustService
	auditService services.AuditService
	validator    *validator.Validator
}

func NewAdminHandler(roleService services.RoleService, trustService services.TrustService, auditService services.AuditService, validator *validator.Validator, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  NewBaseHandler(logger),
		roleService:  roleService,
		trustService: trustService,
		auditService: auditService,
		validator:    validator,
	}
}

// UpdateRoles replaces a user's role set
// @Summary Replace user roles
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param roles body services.UpdateRolesRequest true "Desired role set"
// @Success 200 {object} services.UpdateRolesResult
// @Router /admin/users/{id}/roles [put]
func (h *AdminHandler) UpdateRoles(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "User ID is required"})
		return
	}

	actorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	var req services.UpdateRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating user roles", "target_id", targetID, "actor_id", actorID)

	result, err := h.roleService.UpdateRoles(c.Request.Context(), targetID, &req, actorID)
	if err != nil {
		h.LogError(c, err, "Failed to update roles", "target_id", targetID)
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// BlockUser suspends a user
// @Summary Block user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param block body services.BlockUserRequest true "Block request"
// @Success 201 {object} services.BlockResult
// @Router /admin/users/{id}/block [post]
func (h *AdminHandler) BlockUser(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "User ID is required"})
		return
	}

	actorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	var req services.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Blocking user", "target_id", targetID, "actor_id", actorID, "category", req.Category)

	result, err := h.trustService.Block(c.Request.Context(), targetID, &req, actorID)
	if err != nil {
		h.LogError(c, err, "Failed to block user", "target_id", targetID)
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// UnblockUser lifts a user's active block
// @Summary Unblock user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param unblock body services.UnblockUserRequest true "Unblock request"
// @Success 200 {object} services.BlockResult
// @Router /admin/users/{id}/unblock [post]
func (h *AdminHandler) UnblockUser(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "User ID is required"})
		return
	}

	actorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	var req services.UnblockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Unblocking user", "target_id", targetID, "actor_id", actorID)

	result, err := h.trustService.Unblock(c.Request.Context(), targetID, &req, actorID)
	if err != nil {
		h.LogError(c, err, "Failed to unblock user", "target_id", targetID)
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBlocks returns a user's block history
// @Summary Get block history
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/users/{id}/blocks [get]
func (h *AdminHandler) GetBlocks(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "User ID is required"})
		return
	}

	h.LogRequest(c, "Getting block history", "target_id", targetID)

	history, err := h.trustService.History(c.Request.Context(), targetID)
	if err != nil {
		h.LogError(c, err, "Failed to get block history", "target_id", targetID)
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": targetID,
		"blocks":  history,
		"total":   len(history),
	})
}

// ExportBlocks streams the block history as an xlsx workbook
// @Summary Export block history
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "User ID"
// @Success 200 {file} binary
// @Router /admin/users/{id}/blocks/export [get]
func (h *AdminHandler) ExportBlocks(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "User ID is required"})
		return
	}

	actorID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Exporting block history", "target_id", targetID, "actor_id", actorID)

	file, err := h.auditService.ExportBlockHistory(c.Request.Context(), targetID, actorID)
	if err != nil {
		h.LogError(c, err, "Failed to export block history", "target_id", targetID)
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("block-history-%s-%s.xlsx", targetID, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		h.LogError(c, err, "Failed to stream export", "target_id", targetID)
	}
}

// handleServiceError maps service errors to HTTP status codes
func (h *AdminHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrBlockNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Block not found",
		})
	case errors.Is(err, services.ErrAlreadyBlocked):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "User is already blocked",
			Error:   "already_blocked",
		})
	case errors.Is(err, services.ErrNotBlocked):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "User is not blocked",
			Error:   "not_blocked",
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Concurrent modification, please retry",
		})
	case errors.Is(err, services.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unknown role",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
