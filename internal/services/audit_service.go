package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/domcom/access-service/internal/repositories"
)

type auditService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAuditService(repo repositories.Repository, logger *slog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger,
	}
}

const auditSheetName = "Block history"

var auditColumns = []string{
	"Block ID",
	"Category",
	"Violated rules",
	"Summary",
	"User notice",
	"Blocked by",
	"Blocked at",
	"Released by",
	"Released at",
	"Release reason",
}

// ExportBlockHistory builds an xlsx workbook with the user's full block
// history, newest first. The rendered notices are deterministic, so two
// exports of the same history are comparable cell by cell.
func (s *auditService) ExportBlockHistory(ctx context.Context, userID string, actorID string) (*excelize.File, error) {
	s.logger.Info("Exporting block history",
		"user_id", userID,
		"actor_id", actorID)

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	history, err := s.repo.Block().History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load block history: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(auditSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.SetCellValue(auditSheetName, "A1", fmt.Sprintf("%s (%s)", user.FullName, user.Email)); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, col := range auditColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(auditSheetName, cell, col); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	const timeLayout = "2006-01-02 15:04:05"

	for rowIdx, block := range history {
		row := rowIdx + 3

		releasedBy := ""
		if block.ReleasedBy != nil {
			releasedBy = *block.ReleasedBy
		}
		releasedAt := ""
		if block.ReleasedAt != nil {
			releasedAt = block.ReleasedAt.Format(timeLayout)
		}
		releaseReason := ""
		if block.ReleaseReason != nil {
			releaseReason = *block.ReleaseReason
		}

		codes := block.Rules()
		ruleCodes := make([]string, 0, len(codes))
		for _, code := range codes {
			ruleCodes = append(ruleCodes, string(code))
		}

		values := []interface{}{
			block.ID,
			string(block.Category),
			strings.Join(ruleCodes, ", "),
			block.AdminSummary(),
			block.UserMessage(),
			block.CreatedBy,
			block.CreatedAt.Format(timeLayout),
			releasedBy,
			releasedAt,
			releaseReason,
		}

		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(auditSheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	s.logger.Info("Block history exported",
		"user_id", userID,
		"records", len(history))

	return f, nil
}
