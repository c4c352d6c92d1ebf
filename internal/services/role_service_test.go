package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/domcom/access-service/internal/events"
	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/validator"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRoleTestService() (RoleService, *mockRepository, *events.MockEventPublisher) {
	logger := newTestLogger()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewRoleService(repo, nil, logger, validator.New(), publisher)
	return svc, repo, publisher
}

func TestRoleService_UpdateRoles_Success(t *testing.T) {
	svc, repo, publisher := newRoleTestService()
	ctx := context.Background()

	repo.addUser("actor-1", models.RoleAdmin)
	repo.addUser("target-1", models.RoleGuest)

	req := &UpdateRolesRequest{Roles: []models.Role{models.RoleApartmentOwner}}
	result, err := svc.UpdateRoles(ctx, "target-1", req, "actor-1")
	if err != nil {
		t.Fatalf("UpdateRoles returned error: %v", err)
	}

	wantRoles := []models.Role{models.RoleApartmentOwner}
	if !reflect.DeepEqual(result.Roles, wantRoles) {
		t.Errorf("result roles = %v, want %v", result.Roles, wantRoles)
	}
	if !reflect.DeepEqual(result.Added, []models.Role{models.RoleApartmentOwner}) {
		t.Errorf("added = %v, want [apartment_owner]", result.Added)
	}
	if !reflect.DeepEqual(result.Removed, []models.Role{models.RoleGuest}) {
		t.Errorf("removed = %v, want [guest]", result.Removed)
	}
	if result.Rank.Role != models.RoleApartmentOwner {
		t.Errorf("rank role = %s, want apartment_owner", result.Rank.Role)
	}

	stored, _ := repo.roles.GetRoles(ctx, "target-1")
	if !reflect.DeepEqual(stored, wantRoles) {
		t.Errorf("stored roles = %v, want %v", stored, wantRoles)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Type != events.EventRoleUpdated {
		t.Errorf("event type = %s, want %s", published[0].Type, events.EventRoleUpdated)
	}
	data, ok := published[0].Data.(events.RoleUpdatedEvent)
	if !ok {
		t.Fatalf("event data has type %T", published[0].Data)
	}
	if data.UserID != "target-1" || data.ActorID != "actor-1" {
		t.Errorf("event identifies user %s / actor %s", data.UserID, data.ActorID)
	}
	if !reflect.DeepEqual(data.AddedRoles, []models.Role{models.RoleApartmentOwner}) {
		t.Errorf("event added roles = %v", data.AddedRoles)
	}
}

func TestRoleService_UpdateRoles_PermissionDenied(t *testing.T) {
	svc, repo, publisher := newRoleTestService()
	ctx := context.Background()

	repo.addUser("actor-1", models.RoleAdmin)
	repo.addUser("target-1", models.RoleGuest)

	req := &UpdateRolesRequest{Roles: []models.Role{models.RoleSuperAdmin}}
	_, err := svc.UpdateRoles(ctx, "target-1", req, "actor-1")

	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if perr.UserID != "actor-1" || perr.ResourceID != "target-1" {
		t.Errorf("permission error names actor %s, target %s", perr.UserID, perr.ResourceID)
	}

	stored, _ := repo.roles.GetRoles(ctx, "target-1")
	if !reflect.DeepEqual(stored, []models.Role{models.RoleGuest}) {
		t.Errorf("target roles changed to %v, want untouched {guest}", stored)
	}
	if repo.roles.replaceCalls != 0 {
		t.Errorf("Replace was called %d times on a denied request", repo.roles.replaceCalls)
	}
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("published %d events on a denied request", len(got))
	}
}

func TestRoleService_UpdateRoles_PartialDenialRejectsWhole(t *testing.T) {
	svc, repo, publisher := newRoleTestService()
	ctx := context.Background()

	// The editor addition alone would be allowed, but removing the admin
	// role is outside the moderator's reach, so nothing may change.
	repo.addUser("actor-1", models.RoleModerator)
	repo.addUser("target-1", models.RoleAdmin, models.RoleEditor)

	before, _ := repo.roles.GetRoles(ctx, "target-1")

	req := &UpdateRolesRequest{Roles: []models.Role{models.RoleEditor, models.RoleApartmentOwner}}
	_, err := svc.UpdateRoles(ctx, "target-1", req, "actor-1")

	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PermissionError, got %v", err)
	}

	after, _ := repo.roles.GetRoles(ctx, "target-1")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("role set changed from %v to %v on a rejected request", before, after)
	}
	if repo.roles.replaceCalls != 0 {
		t.Errorf("Replace was called on a rejected request")
	}
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("published %d events on a rejected request", len(got))
	}
}

func TestRoleService_UpdateRoles_NoChangeIsIdempotent(t *testing.T) {
	svc, repo, publisher := newRoleTestService()
	ctx := context.Background()

	repo.addUser("actor-1", models.RoleAdmin)
	repo.addUser("target-1", models.RoleEditor)

	req := &UpdateRolesRequest{Roles: []models.Role{models.RoleEditor}}
	result, err := svc.UpdateRoles(ctx, "target-1", req, "actor-1")
	if err != nil {
		t.Fatalf("UpdateRoles returned error: %v", err)
	}

	if len(result.Added) != 0 || len(result.Removed) != 0 {
		t.Errorf("added %v removed %v, want both empty", result.Added, result.Removed)
	}
	if repo.roles.replaceCalls != 0 {
		t.Errorf("Replace was called for a no-op update")
	}
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("published %d events for a no-op update", len(got))
	}
}

func TestRoleService_UpdateRoles_EmptySetFallsBackToGuest(t *testing.T) {
	svc, repo, _ := newRoleTestService()
	ctx := context.Background()

	repo.addUser("actor-1", models.RoleSuperAdmin)
	repo.addUser("target-1", models.RoleEditor)

	result, err := svc.UpdateRoles(ctx, "target-1", &UpdateRolesRequest{}, "actor-1")
	if err != nil {
		t.Fatalf("UpdateRoles returned error: %v", err)
	}
	if len(result.Roles) != 0 {
		t.Errorf("result roles = %v, want empty", result.Roles)
	}
	if result.Rank.Role != models.RoleGuest {
		t.Errorf("rank role = %s, want guest", result.Rank.Role)
	}
}

func TestRoleService_UpdateRoles_DeduplicatesRequest(t *testing.T) {
	svc, repo, _ := newRoleTestService()
	ctx := context.Background()

	repo.addUser("actor-1", models.RoleAdmin)
	repo.addUser("target-1")

	req := &UpdateRolesRequest{Roles: []models.Role{
		models.RoleEditor, models.RoleEditor, models.RoleApartmentOwner,
	}}
	result, err := svc.UpdateRoles(ctx, "target-1", req, "actor-1")
	if err != nil {
		t.Fatalf("UpdateRoles returned error: %v", err)
	}

	want := []models.Role{models.RoleEditor, models.RoleApartmentOwner}
	if !reflect.DeepEqual(result.Roles, want) {
		t.Errorf("result roles = %v, want deduplicated %v", result.Roles, want)
	}
}

func TestRoleService_UpdateRoles_UnknownRoleFailsValidation(t *testing.T) {
	svc, repo, publisher := newRoleTestService()
	ctx := context.Background()

	repo.addUser("actor-1", models.RoleRoot)
	repo.addUser("target-1")

	req := &UpdateRolesRequest{Roles: []models.Role{models.Role("owner_of_everything")}}
	_, err := svc.UpdateRoles(ctx, "target-1", req, "actor-1")

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("published %d events for an invalid request", len(got))
	}
}

func TestRoleService_UpdateRoles_TargetNotFound(t *testing.T) {
	svc, repo, _ := newRoleTestService()
	ctx := context.Background()

	repo.addUser("actor-1", models.RoleAdmin)

	_, err := svc.UpdateRoles(ctx, "ghost", &UpdateRolesRequest{Roles: []models.Role{models.RoleEditor}}, "actor-1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRoleService_UpdateRoles_PublishFailureIsSwallowed(t *testing.T) {
	logger := newTestLogger()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(logger)
	publisher.FailWith = errors.New("broker unavailable")
	svc := NewRoleService(repo, nil, logger, validator.New(), publisher)
	ctx := context.Background()

	repo.addUser("actor-1", models.RoleAdmin)
	repo.addUser("target-1")

	req := &UpdateRolesRequest{Roles: []models.Role{models.RoleEditor}}
	result, err := svc.UpdateRoles(ctx, "target-1", req, "actor-1")
	if err != nil {
		t.Fatalf("UpdateRoles surfaced a publish failure: %v", err)
	}
	if !reflect.DeepEqual(result.Roles, []models.Role{models.RoleEditor}) {
		t.Errorf("result roles = %v", result.Roles)
	}

	stored, _ := repo.roles.GetRoles(ctx, "target-1")
	if !reflect.DeepEqual(stored, []models.Role{models.RoleEditor}) {
		t.Errorf("role set not written despite publish failure: %v", stored)
	}
}

func TestRoleService_GetRank(t *testing.T) {
	svc, repo, _ := newRoleTestService()
	ctx := context.Background()

	repo.addUser("user-1", models.RoleApartmentResident, models.RoleModerator)

	rank, err := svc.GetRank(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRank returned error: %v", err)
	}
	if rank.Role != models.RoleModerator {
		t.Errorf("rank role = %s, want moderator", rank.Role)
	}
	if rank.Tier != models.TierAdmin {
		t.Errorf("rank tier = %s, want %s", rank.Tier, models.TierAdmin)
	}

	if _, err := svc.GetRank(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound for unknown user, got %v", err)
	}
}
