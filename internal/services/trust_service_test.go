package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/domcom/access-service/internal/events"
	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/validator"
)

func newTrustTestService() (TrustService, *mockRepository, *events.MockEventPublisher) {
	logger := newTestLogger()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewTrustService(repo, nil, logger, validator.New(), publisher)
	return svc, repo, publisher
}

func TestTrustService_Block_SimpleCategory(t *testing.T) {
	svc, repo, publisher := newTrustTestService()
	ctx := context.Background()

	repo.addUser("target-1", models.RoleGuest)

	result, err := svc.Block(ctx, "target-1", &BlockUserRequest{Category: models.BlockSpam}, "admin-1")
	if err != nil {
		t.Fatalf("Block returned error: %v", err)
	}

	if result.Block.Category != models.BlockSpam {
		t.Errorf("category = %s, want spam", result.Block.Category)
	}
	if len(result.Block.Rules()) != 0 {
		t.Errorf("rules = %v, want none", result.Block.Rules())
	}
	if result.Block.CustomReason != nil {
		t.Errorf("custom reason = %q, want nil", *result.Block.CustomReason)
	}
	if result.Block.CreatedBy != "admin-1" {
		t.Errorf("created by = %s, want admin-1", result.Block.CreatedBy)
	}
	if !strings.Contains(result.Message, "Причина: Спам.") {
		t.Errorf("rendered message = %q, want the category line", result.Message)
	}
	if result.Summary != "Спам" {
		t.Errorf("rendered summary = %q", result.Summary)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Type != events.EventUserBlocked {
		t.Errorf("event type = %s, want %s", published[0].Type, events.EventUserBlocked)
	}
	data, ok := published[0].Data.(events.UserBlockedEvent)
	if !ok {
		t.Fatalf("event data has type %T", published[0].Data)
	}
	if data.UserID != "target-1" || data.Category != models.BlockSpam {
		t.Errorf("event data = %+v", data)
	}
	if data.Message != result.Message {
		t.Errorf("event message %q differs from rendered message %q", data.Message, result.Message)
	}
}

func TestTrustService_Block_RulesViolation(t *testing.T) {
	svc, repo, _ := newTrustTestService()
	ctx := context.Background()

	repo.addUser("target-1")

	req := &BlockUserRequest{
		Category:      models.BlockRulesViolation,
		ViolatedRules: []models.RuleCode{"3.1", "3.3"},
	}
	result, err := svc.Block(ctx, "target-1", req, "admin-1")
	if err != nil {
		t.Fatalf("Block returned error: %v", err)
	}

	if got := result.Block.Rules(); !reflect.DeepEqual(got, []models.RuleCode{"3.1", "3.3"}) {
		t.Errorf("stored rules = %v, want [3.1 3.3]", got)
	}
	if result.Summary != "Нарушение правил сообщества (п. 3.1, п. 3.3)" {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestTrustService_Block_AlreadyBlocked(t *testing.T) {
	svc, repo, publisher := newTrustTestService()
	ctx := context.Background()

	repo.addUser("target-1")

	if _, err := svc.Block(ctx, "target-1", &BlockUserRequest{Category: models.BlockSpam}, "admin-1"); err != nil {
		t.Fatalf("first block failed: %v", err)
	}
	publisher.ClearEvents()

	_, err := svc.Block(ctx, "target-1", &BlockUserRequest{Category: models.BlockFraud}, "admin-2")
	if !errors.Is(err, ErrAlreadyBlocked) {
		t.Fatalf("expected ErrAlreadyBlocked, got %v", err)
	}

	// The existing block must stay as it was.
	active, err := repo.blocks.GetActive(ctx, "target-1")
	if err != nil {
		t.Fatalf("GetActive returned error: %v", err)
	}
	if active.Category != models.BlockSpam || active.CreatedBy != "admin-1" {
		t.Errorf("active block mutated: %+v", active)
	}
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("published %d events for a rejected block", len(got))
	}
}

func TestTrustService_Block_ValidationBeforeAnyRecord(t *testing.T) {
	svc, repo, publisher := newTrustTestService()
	ctx := context.Background()

	repo.addUser("target-1")

	tests := []struct {
		name string
		req  *BlockUserRequest
	}{
		{"rules category without codes", &BlockUserRequest{Category: models.BlockRulesViolation}},
		{"unknown rule code", &BlockUserRequest{Category: models.BlockRulesViolation, ViolatedRules: []models.RuleCode{"9.9"}}},
		{"other category without reason", &BlockUserRequest{Category: models.BlockOther}},
		{"rule codes outside rules category", &BlockUserRequest{Category: models.BlockSpam, ViolatedRules: []models.RuleCode{"3.1"}}},
		{"unknown category", &BlockUserRequest{Category: models.BlockCategory("bad_vibes")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Block(ctx, "target-1", tt.req, "admin-1")

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
		})
	}

	if len(repo.blocks.records) != 0 {
		t.Errorf("%d block records created by rejected requests", len(repo.blocks.records))
	}
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("published %d events for rejected requests", len(got))
	}
}

func TestTrustService_BlockUnblockCycle(t *testing.T) {
	svc, repo, publisher := newTrustTestService()
	ctx := context.Background()

	repo.addUser("target-1")

	req := &BlockUserRequest{
		Category:      models.BlockRulesViolation,
		ViolatedRules: []models.RuleCode{"3.1"},
	}
	if _, err := svc.Block(ctx, "target-1", req, "admin-1"); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	status, err := svc.Status(ctx, "target-1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.Blocked {
		t.Fatal("status reports unblocked right after a block")
	}

	result, err := svc.Unblock(ctx, "target-1", &UnblockUserRequest{Reason: "ошибка модерации"}, "admin-2")
	if err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if result.Block == nil || result.Block.ReleasedAt == nil {
		t.Fatal("unblock result does not carry the released record")
	}
	if result.Block.ReleasedBy == nil || *result.Block.ReleasedBy != "admin-2" {
		t.Errorf("released by = %v, want admin-2", result.Block.ReleasedBy)
	}
	if result.Block.ReleaseReason == nil || *result.Block.ReleaseReason != "ошибка модерации" {
		t.Errorf("release reason = %v", result.Block.ReleaseReason)
	}

	status, err = svc.Status(ctx, "target-1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.Blocked {
		t.Error("status still reports blocked after unblock")
	}

	// Second unblock has nothing to release.
	_, err = svc.Unblock(ctx, "target-1", &UnblockUserRequest{Reason: "повторно"}, "admin-2")
	if !errors.Is(err, ErrNotBlocked) {
		t.Fatalf("expected ErrNotBlocked, got %v", err)
	}

	// History keeps the released record.
	history, err := svc.History(ctx, "target-1")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d records, want 1", len(history))
	}
	if history[0].ReleasedAt == nil {
		t.Error("history record is still open")
	}

	types := make([]string, 0, 2)
	for _, e := range publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	want := []string{events.EventUserBlocked, events.EventUserUnblocked}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("event types = %v, want %v", types, want)
	}
}

func TestTrustService_Unblock_BlankReasonRejected(t *testing.T) {
	svc, repo, _ := newTrustTestService()
	ctx := context.Background()

	repo.addUser("target-1")
	if _, err := svc.Block(ctx, "target-1", &BlockUserRequest{Category: models.BlockSpam}, "admin-1"); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	_, err := svc.Unblock(ctx, "target-1", &UnblockUserRequest{Reason: "   "}, "admin-1")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	active, err := repo.blocks.GetActive(ctx, "target-1")
	if err != nil || active == nil {
		t.Fatal("rejected unblock released the active block")
	}
}

func TestTrustService_UnknownUser(t *testing.T) {
	svc, _, _ := newTrustTestService()
	ctx := context.Background()

	if _, err := svc.Block(ctx, "ghost", &BlockUserRequest{Category: models.BlockSpam}, "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Block: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Unblock(ctx, "ghost", &UnblockUserRequest{Reason: "x"}, "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Unblock: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Status(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Status: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.History(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("History: expected ErrUserNotFound, got %v", err)
	}
}

func TestTrustService_Block_TrimsCustomReason(t *testing.T) {
	svc, repo, _ := newTrustTestService()
	ctx := context.Background()

	repo.addUser("target-1")

	reason := "  размещение рекламы в личных сообщениях  "
	req := &BlockUserRequest{Category: models.BlockOther, Reason: &reason}
	result, err := svc.Block(ctx, "target-1", req, "admin-1")
	if err != nil {
		t.Fatalf("Block returned error: %v", err)
	}
	if result.Block.CustomReason == nil || *result.Block.CustomReason != "размещение рекламы в личных сообщениях" {
		t.Errorf("stored reason = %v, want trimmed", result.Block.CustomReason)
	}
}
