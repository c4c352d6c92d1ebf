package validator

import (
	"github.com/domcom/access-service/internal/models"
)

// UpdateRolesRequest replaces a user's whole role set. An empty list is
// valid: the user falls back to Guest on resolution.
type UpdateRolesRequest struct {
	Roles []models.Role `json:"roles" validate:"dive,portal_role"`
}

// BlockUserRequest suspends a user with a categorized reason.
type BlockUserRequest struct {
	Category      models.BlockCategory `json:"category" validate:"required,block_category"`
	ViolatedRules []models.RuleCode    `json:"violated_rules" validate:"omitempty,dive,rule_code"`
	Reason        *string              `json:"reason" validate:"omitempty,max=1000"`
}

// CustomReason returns the optional reason or an empty string.
func (r *BlockUserRequest) CustomReason() string {
	if r.Reason == nil {
		return ""
	}
	return *r.Reason
}

// UnblockUserRequest lifts an active block.
type UnblockUserRequest struct {
	Reason string `json:"reason" validate:"required,not_blank,max=1000"`
}
