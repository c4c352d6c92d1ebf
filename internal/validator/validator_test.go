package validator

import (
	"testing"

	"github.com/domcom/access-service/internal/models"
)

func strPtr(s string) *string { return &s }

func TestValidate_UpdateRolesRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     UpdateRolesRequest
		wantErr bool
	}{
		{"empty set is valid", UpdateRolesRequest{}, false},
		{"known roles", UpdateRolesRequest{Roles: []models.Role{models.RoleAdmin, models.RoleEditor}}, false},
		{"unknown role", UpdateRolesRequest{Roles: []models.Role{"warlord"}}, true},
		{"known mixed with unknown", UpdateRolesRequest{Roles: []models.Role{models.RoleGuest, "warlord"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(&tt.req)
			if (errs != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidate_BlockUserRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     BlockUserRequest
		wantErr bool
	}{
		{"category only", BlockUserRequest{Category: models.BlockSpam}, false},
		{"missing category", BlockUserRequest{}, true},
		{"unknown category", BlockUserRequest{Category: "bad_vibes"}, true},
		{"known rule codes", BlockUserRequest{Category: models.BlockRulesViolation, ViolatedRules: []models.RuleCode{"3.1", "3.5"}}, false},
		{"unknown rule code", BlockUserRequest{Category: models.BlockRulesViolation, ViolatedRules: []models.RuleCode{"7.7"}}, true},
		{"reason within limit", BlockUserRequest{Category: models.BlockOther, Reason: strPtr("спам в комментариях")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(&tt.req)
			if (errs != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidate_UnblockUserRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     UnblockUserRequest
		wantErr bool
	}{
		{"with reason", UnblockUserRequest{Reason: "ошибка модерации"}, false},
		{"missing reason", UnblockUserRequest{}, true},
		{"blank reason", UnblockUserRequest{Reason: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(&tt.req)
			if (errs != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidate_ErrorCarriesFieldAndRule(t *testing.T) {
	v := New()

	errs := v.Validate(&BlockUserRequest{Category: "bad_vibes"})
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].Field != "Category" {
		t.Errorf("field = %q, want Category", errs[0].Field)
	}
	if errs[0].Rule != "block_category" {
		t.Errorf("rule = %q, want block_category", errs[0].Rule)
	}
	if errs[0].Message != "must be a valid block category" {
		t.Errorf("message = %q", errs[0].Message)
	}
}
