package services

import (
	"errors"
	"fmt"

	"github.com/domcom/access-service/internal/validator"
)

// Sentinel errors mapped to HTTP status codes by the handlers
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrBlockNotFound  = errors.New("block not found")
	ErrAlreadyBlocked = errors.New("user already has an active block")
	ErrNotBlocked     = errors.New("user has no active block")
	ErrConflict       = errors.New("concurrent modification conflict")
	ErrInvalidRole    = errors.New("unknown role")
)

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors aggregates field validation failures
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d field error(s), first: %s", len(e), e[0].Error())
}

// fromValidatorErrors lifts validator results into the service error type
func fromValidatorErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, e := range errs {
		out = append(out, ValidationError{Field: e.Field, Message: e.Message, Value: e.Value})
	}
	return out
}

// PermissionError is returned when an actor lacks the rank to perform
// an operation on a resource.
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}
