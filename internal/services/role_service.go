package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/domcom/access-service/internal/events"
	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
	"github.com/domcom/access-service/internal/validator"
)

type roleService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewRoleService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) RoleService {
	return &roleService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

// UpdateRoles replaces the target's role set atomically. The whole request is
// rejected if any single changed role is outside the actor's reach, so a
// partial set is never written.
func (s *roleService) UpdateRoles(ctx context.Context, targetID string, req *UpdateRolesRequest, actorID string) (*UpdateRolesResult, error) {
	s.logger.Info("Updating user roles",
		"target_id", targetID,
		"actor_id", actorID,
		"requested_roles", len(req.Roles))

	if verrs := s.validator.Validate(req); verrs != nil {
		return nil, fromValidatorErrors(verrs)
	}

	desired := dedupeRoles(req.Roles)

	if _, err := s.repo.User().GetByID(ctx, targetID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load target user: %w", err)
	}

	actorRoles, err := s.repo.Role().GetRoles(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor roles: %w", err)
	}

	current, err := s.repo.Role().GetRoles(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current roles: %w", err)
	}

	added, removed := diffRoles(current, desired)

	// Every role entering or leaving the set needs its own assignment
	// check. Changed roles are walked from highest authority down so the
	// reported rejection is deterministic regardless of request order.
	changed := make([]models.Role, 0, len(added)+len(removed))
	changed = append(changed, added...)
	changed = append(changed, removed...)
	sort.Slice(changed, func(i, j int) bool {
		return changed[i].Priority() < changed[j].Priority()
	})

	for _, role := range changed {
		if !models.CanAssignRole(actorRoles, role) {
			return nil, NewPermissionError(actorID, targetID, "user_roles", "update",
				fmt.Sprintf("role %q is outside the actor's assignable range", role))
		}
	}

	if len(changed) > 0 {
		err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			return txRepo.Role().Replace(ctx, targetID, desired, actorID)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to replace role set: %w", err)
		}

		s.publishRoleUpdated(ctx, targetID, added, removed, actorID)
	}

	result := &UpdateRolesResult{
		UserID:  targetID,
		Roles:   desired,
		Added:   added,
		Removed: removed,
		Rank:    models.ResolveRankConfig(desired),
	}

	s.logger.Info("User roles updated",
		"target_id", targetID,
		"added", len(added),
		"removed", len(removed),
		"rank", result.Rank.Role)

	return result, nil
}

func (s *roleService) GetRoles(ctx context.Context, userID string) ([]models.Role, error) {
	roles, err := s.repo.Role().GetRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	return roles, nil
}

func (s *roleService) GetRank(ctx context.Context, userID string) (*models.RankConfig, error) {
	exists, err := s.repo.User().ExistsByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	roles, err := s.repo.Role().GetRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	rank := models.ResolveRankConfig(roles)
	return &rank, nil
}

// publishRoleUpdated publishes best-effort: a transport failure is logged and
// swallowed, never surfaced to the admin who made the change.
func (s *roleService) publishRoleUpdated(ctx context.Context, userID string, added, removed []models.Role, actorID string) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(events.EventRoleUpdated, events.RoleUpdatedEvent{
		UserID:       userID,
		AddedRoles:   added,
		RemovedRoles: removed,
		ActorID:      actorID,
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish role.updated event",
			"error", err,
			"user_id", userID)
	}
}

// dedupeRoles drops duplicates while keeping first-seen order.
func dedupeRoles(roles []models.Role) []models.Role {
	seen := make(map[models.Role]struct{}, len(roles))
	out := make([]models.Role, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// diffRoles computes the set difference in both directions.
func diffRoles(current, desired []models.Role) (added, removed []models.Role) {
	currentSet := make(map[models.Role]struct{}, len(current))
	for _, r := range current {
		currentSet[r] = struct{}{}
	}
	desiredSet := make(map[models.Role]struct{}, len(desired))
	for _, r := range desired {
		desiredSet[r] = struct{}{}
	}

	for _, r := range desired {
		if _, ok := currentSet[r]; !ok {
			added = append(added, r)
		}
	}
	for _, r := range current {
		if _, ok := desiredSet[r]; !ok {
			removed = append(removed, r)
		}
	}
	return added, removed
}
