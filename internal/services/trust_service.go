package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/domcom/access-service/internal/events"
	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
	"github.com/domcom/access-service/internal/validator"
)

type trustService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewTrustService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) TrustService {
	return &trustService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

// Block suspends a user. Validation runs entirely before any record is
// created; an already-blocked user is left untouched.
func (s *trustService) Block(ctx context.Context, targetID string, req *BlockUserRequest, actorID string) (*BlockResult, error) {
	s.logger.Info("Blocking user",
		"target_id", targetID,
		"actor_id", actorID,
		"category", req.Category)

	if verrs := s.validator.Validate(req); verrs != nil {
		return nil, fromValidatorErrors(verrs)
	}

	if err := models.ValidateBlockRequest(req.Category, req.ViolatedRules, req.CustomReason()); err != nil {
		var bve *models.BlockValidationError
		if errors.As(err, &bve) {
			return nil, ValidationErrors{{Field: bve.Field, Message: bve.Message}}
		}
		return nil, err
	}

	exists, err := s.repo.User().ExistsByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check target user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if _, err := s.repo.Block().GetActive(ctx, targetID); err == nil {
		return nil, ErrAlreadyBlocked
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active block: %w", err)
	}

	rules, err := models.EncodeRules(req.ViolatedRules)
	if err != nil {
		return nil, err
	}

	block := &models.UserBlock{
		UserID:        targetID,
		Category:      req.Category,
		ViolatedRules: rules,
		CreatedBy:     actorID,
		CreatedAt:     time.Now(),
	}
	if reason := strings.TrimSpace(req.CustomReason()); reason != "" {
		block.CustomReason = &reason
	}

	if err := s.repo.Block().Create(ctx, block); err != nil {
		// The partial unique index catches the concurrent-block race the
		// GetActive check above cannot.
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyBlocked
		}
		return nil, fmt.Errorf("failed to create block: %w", err)
	}

	message := block.UserMessage()
	s.publishEvent(ctx, events.NewEvent(events.EventUserBlocked, events.UserBlockedEvent{
		UserID:        targetID,
		Category:      req.Category,
		ViolatedRules: req.ViolatedRules,
		Reason:        req.CustomReason(),
		Message:       message,
		ActorID:       actorID,
	}))

	s.logger.Info("User blocked",
		"target_id", targetID,
		"category", req.Category,
		"block_id", block.ID)

	return &BlockResult{
		Block:   block,
		Message: message,
		Summary: block.AdminSummary(),
	}, nil
}

// Unblock lifts the active block. The conditional update in the repository
// guarantees exactly one concurrent unblock wins.
func (s *trustService) Unblock(ctx context.Context, targetID string, req *UnblockUserRequest, actorID string) (*BlockResult, error) {
	s.logger.Info("Unblocking user",
		"target_id", targetID,
		"actor_id", actorID)

	if verrs := s.validator.Validate(req); verrs != nil {
		return nil, fromValidatorErrors(verrs)
	}

	exists, err := s.repo.User().ExistsByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check target user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	reason := strings.TrimSpace(req.Reason)
	now := time.Now()

	affected, err := s.repo.Block().Release(ctx, targetID, actorID, reason, now)
	if err != nil {
		return nil, fmt.Errorf("failed to release block: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotBlocked
	}

	s.publishEvent(ctx, events.NewEvent(events.EventUserUnblocked, events.UserUnblockedEvent{
		UserID:  targetID,
		Reason:  reason,
		ActorID: actorID,
	}))

	s.logger.Info("User unblocked", "target_id", targetID)

	// Reload the freshly closed record for the response; best effort only.
	var released *models.UserBlock
	history, err := s.repo.Block().History(ctx, targetID)
	if err == nil {
		for _, b := range history {
			if b.ReleasedAt != nil {
				released = b
				break
			}
		}
	}

	return &BlockResult{Block: released}, nil
}

// Status reports a user's current trust state together with the rendered
// notice for the active block, if any.
func (s *trustService) Status(ctx context.Context, userID string) (*models.BlockStatusResponse, error) {
	exists, err := s.repo.User().ExistsByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	block, err := s.repo.Block().GetActive(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &models.BlockStatusResponse{Blocked: false}, nil
		}
		return nil, fmt.Errorf("failed to load active block: %w", err)
	}

	return &models.BlockStatusResponse{
		Blocked: true,
		Block:   block,
		Message: block.UserMessage(),
		Summary: block.AdminSummary(),
	}, nil
}

func (s *trustService) History(ctx context.Context, userID string) ([]*models.UserBlock, error) {
	exists, err := s.repo.User().ExistsByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	return s.repo.Block().History(ctx, userID)
}

// publishEvent publishes best-effort and swallows transport failures.
func (s *trustService) publishEvent(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"error", err,
			"event_type", event.Type)
	}
}
