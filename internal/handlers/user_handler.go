package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
	"github.com/domcom/access-service/internal/services"
	"github.com/domcom/access-service/internal/utils"
)

// UserHandler exposes the read surface over portal users
type UserHandler struct {
	BaseHandler
	userService  services.UserService
	roleService  services.RoleService
	trustService services.TrustService
}

func NewUserHandler(userService services.UserService, roleService services.RoleService, trustService services.TrustService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:  NewBaseHandler(logger),
		userService:  userService,
		roleService:  roleService,
		trustService: trustService,
	}
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param role query string false "Filter by role"
// @Param blocked query bool false "Filter by block state"
// @Success 200 {object} services.UserListResult
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	filters := h.parseUserFilters(c)

	result, err := h.userService.List(c.Request.Context(), filters)
	if err != nil {
		h.LogError(c, err, "Failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to list users",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchUsers searches for users by name or email
// @Summary Search users
// @Tags users
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} services.UserListResult
// @Router /users/search [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Search query parameter 'q' is required",
		})
		return
	}

	h.LogRequest(c, "Searching users", "query", query)

	filters := h.parseUserFilters(c)
	filters.Query = &query

	result, err := h.userService.List(c.Request.Context(), filters)
	if err != nil {
		h.LogError(c, err, "Failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to search users",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser retrieves a user with the resolved rank
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "User ID is required",
		})
		return
	}

	h.LogRequest(c, "Getting user", "user_id", userID)

	user, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		h.LogError(c, err, "Failed to get user")
		h.handleReadError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetRank resolves a user's display rank
// @Summary Get user rank
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.RankConfig
// @Router /users/{id}/rank [get]
func (h *UserHandler) GetRank(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "User ID is required",
		})
		return
	}

	h.LogRequest(c, "Resolving user rank", "user_id", userID)

	rank, err := h.roleService.GetRank(c.Request.Context(), userID)
	if err != nil {
		h.LogError(c, err, "Failed to resolve rank")
		h.handleReadError(c, err)
		return
	}

	c.JSON(http.StatusOK, rank)
}

// GetBlockStatus reports a user's current trust state with the rendered notice
// @Summary Get block status
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.BlockStatusResponse
// @Router /users/{id}/block [get]
func (h *UserHandler) GetBlockStatus(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "User ID is required",
		})
		return
	}

	h.LogRequest(c, "Getting block status", "user_id", userID)

	status, err := h.trustService.Status(c.Request.Context(), userID)
	if err != nil {
		h.LogError(c, err, "Failed to get block status")
		h.handleReadError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ===== HELPER METHODS =====

func (h *UserHandler) handleReadError(c *gin.Context, err error) {
	if err == services.ErrUserNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
	})
}

func (h *UserHandler) parseUserFilters(c *gin.Context) repositories.UserFilters {
	page := 1
	size := 20

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
			size = s
		}
	}

	filters := repositories.UserFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if q := c.Query("q"); q != "" {
		filters.Query = &q
	}

	if roleStr := c.Query("role"); roleStr != "" {
		role := models.Role(roleStr)
		if role.IsValid() {
			filters.Role = &role
		}
	}

	if blockedStr := c.Query("blocked"); blockedStr != "" {
		if blocked, err := strconv.ParseBool(blockedStr); err == nil {
			filters.Blocked = &blocked
		}
	}

	return filters
}
