package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/domcom/access-service/internal/config"
	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
)

// CasdoorAuthMiddleware authenticates requests against Casdoor. Identity comes
// from the JWT; roles always come from the local assignment store, never from
// token claims, so a role change takes effect without re-login.
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
	roleRepo repositories.RoleRepository
	config   config.CasdoorConfig
}

// NewCasdoorAuthMiddleware creates a new Casdoor authentication middleware
func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, roleRepo repositories.RoleRepository) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Application,
		cfg.Organization,
	)

	return &CasdoorAuthMiddleware{
		client:   client,
		userRepo: userRepo,
		roleRepo: roleRepo,
		config:   cfg,
	}
}

// AuthMiddleware returns a Gin middleware function for Casdoor authentication
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "authorization header missing",
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid authorization header format",
			})
			c.Abort()
			return
		}

		token := tokenParts[1]

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("invalid token: %v", err),
			})
			c.Abort()
			return
		}

		user, roles, err := cam.resolveUser(c.Request.Context(), claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("failed to resolve user: %v", err),
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_roles", roles)
		c.Set("user_email", user.Email)

		c.Next()
	}
}

// RequireTier gates a route group on the tier of the caller's highest rank.
// This is the coarse "may moderate users" boundary; per-role assignment
// checks belong to the service layer.
func (cam *CasdoorAuthMiddleware) RequireTier(tiers ...models.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := GetUserRolesFromContext(c)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "user roles not found in context",
			})
			c.Abort()
			return
		}

		tier := models.HighestRank(roles).Tier()
		for _, required := range tiers {
			if tier == required {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": fmt.Sprintf("insufficient rank, required tier: %v", tiers),
		})
		c.Abort()
	}
}

// resolveUser loads the local user record and role set for the token subject.
// First-time callers get a local record seeded from the claims with the
// default Guest assignment.
func (cam *CasdoorAuthMiddleware) resolveUser(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, []models.Role, error) {
	userID := claims.Id
	if userID == "" {
		return nil, nil, fmt.Errorf("invalid user ID in token")
	}

	user, err := cam.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, nil, fmt.Errorf("failed to load user: %w", err)
		}

		user = cam.createUserFromClaims(claims)
		if user == nil {
			return nil, nil, fmt.Errorf("failed to create user from claims")
		}
		if err := cam.userRepo.Create(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("failed to register user: %w", err)
		}
	}

	roles, err := cam.roleRepo.GetRoles(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load roles: %w", err)
	}
	user.Roles = roles

	return user, roles, nil
}

// createUserFromClaims seeds a local user record from JWT claims
func (cam *CasdoorAuthMiddleware) createUserFromClaims(claims *casdoorsdk.Claims) *models.User {
	userID := claims.Id
	if userID == "" {
		return nil
	}

	avatarURL := claims.User.Avatar

	return &models.User{
		ID:            userID,
		FullName:      claims.User.DisplayName,
		Email:         claims.User.Email,
		AvatarURL:     &avatarURL,
		EmailVerified: true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// GetUserIDFromContext extracts user ID from Gin context
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok {
		return "", fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRolesFromContext extracts the caller's role set from Gin context
func GetUserRolesFromContext(c *gin.Context) ([]models.Role, error) {
	userRoles, exists := c.Get("user_roles")
	if !exists {
		return nil, fmt.Errorf("user roles not found in context")
	}

	roles, ok := userRoles.([]models.Role)
	if !ok {
		return nil, fmt.Errorf("invalid user roles type in context")
	}

	return roles, nil
}
