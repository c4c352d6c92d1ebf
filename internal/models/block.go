package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
)

// BlockCategory is the closed-set reason bucket for suspending a user.
type BlockCategory string

const (
	BlockRulesViolation BlockCategory = "rules_violation"
	BlockFraud          BlockCategory = "fraud"
	BlockSpam           BlockCategory = "spam"
	BlockAbuse          BlockCategory = "abuse"
	BlockOther          BlockCategory = "other"
)

// Label returns the user-facing category name.
func (c BlockCategory) Label() string {
	switch c {
	case BlockRulesViolation:
		return "Нарушение правил сообщества"
	case BlockFraud:
		return "Мошенничество"
	case BlockSpam:
		return "Спам"
	case BlockAbuse:
		return "Оскорбительное поведение"
	case BlockOther:
		return "Другая причина"
	}
	return string(c)
}

// IsValid reports whether c is one of the catalog categories.
func (c BlockCategory) IsValid() bool {
	switch c {
	case BlockRulesViolation, BlockFraud, BlockSpam, BlockAbuse, BlockOther:
		return true
	}
	return false
}

// AllBlockCategories returns every block category.
func AllBlockCategories() []BlockCategory {
	return []BlockCategory{BlockRulesViolation, BlockFraud, BlockSpam, BlockAbuse, BlockOther}
}

// RuleCode is a numbered community-rule code, applicable only under the
// rules_violation category.
type RuleCode string

const (
	RuleInsults      RuleCode = "3.1"
	RuleAdvertising  RuleCode = "3.2"
	RuleFalseInfo    RuleCode = "3.3"
	RulePersonalData RuleCode = "3.4"
	RuleOffTopic     RuleCode = "3.5"
)

// RuleViolation is a catalog entry for a community-rule code.
type RuleViolation struct {
	Code        RuleCode `json:"code"`
	Label       string   `json:"label"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// RuleByCode looks up a catalog rule by its code.
func RuleByCode(code RuleCode) (RuleViolation, bool) {
	switch code {
	case RuleInsults:
		return RuleViolation{code, "п. 3.1", "Оскорбления и переход на личности", "Запрещены оскорбления, угрозы и переход на личности в обсуждениях"}, true
	case RuleAdvertising:
		return RuleViolation{code, "п. 3.2", "Реклама без согласования", "Запрещено размещение коммерческой рекламы без согласования с администрацией"}, true
	case RuleFalseInfo:
		return RuleViolation{code, "п. 3.3", "Недостоверная информация", "Запрещено распространение заведомо недостоверной информации о жителях и УК"}, true
	case RulePersonalData:
		return RuleViolation{code, "п. 3.4", "Разглашение персональных данных", "Запрещена публикация персональных данных других жителей без их согласия"}, true
	case RuleOffTopic:
		return RuleViolation{code, "п. 3.5", "Публикации не по теме разделов", "Запрещено систематическое размещение публикаций вне тематики разделов"}, true
	}
	return RuleViolation{}, false
}

// AllRules returns the full rule catalog in code order.
func AllRules() []RuleViolation {
	codes := []RuleCode{RuleInsults, RuleAdvertising, RuleFalseInfo, RulePersonalData, RuleOffTopic}
	rules := make([]RuleViolation, 0, len(codes))
	for _, c := range codes {
		r, _ := RuleByCode(c)
		rules = append(rules, r)
	}
	return rules
}

// BlockValidationError reports a block request that violates the taxonomy.
type BlockValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *BlockValidationError) Error() string {
	return fmt.Sprintf("block request invalid: %s %s", e.Field, e.Message)
}

// ValidateBlockRequest checks that a block request carries exactly the fields
// its category requires:
//
//   - rules_violation requires a non-empty set of known rule codes;
//   - other requires a non-blank custom reason;
//   - fraud/spam/abuse require neither, but accept an optional reason.
func ValidateBlockRequest(category BlockCategory, violatedRules []RuleCode, customReason string) error {
	if !category.IsValid() {
		return &BlockValidationError{Field: "category", Message: "unknown block category"}
	}

	switch category {
	case BlockRulesViolation:
		if len(violatedRules) == 0 {
			return &BlockValidationError{Field: "violated_rules", Message: "at least one violated rule is required"}
		}
		for _, code := range violatedRules {
			if _, ok := RuleByCode(code); !ok {
				return &BlockValidationError{Field: "violated_rules", Message: fmt.Sprintf("unknown rule code %q", code)}
			}
		}
	case BlockOther:
		if strings.TrimSpace(customReason) == "" {
			return &BlockValidationError{Field: "reason", Message: "a reason is required for this category"}
		}
	}

	if category != BlockRulesViolation && len(violatedRules) > 0 {
		return &BlockValidationError{Field: "violated_rules", Message: "rule codes are only allowed for the rules_violation category"}
	}

	return nil
}

const blockNoticeClosing = "Если вы считаете блокировку ошибочной, обратитесь в службу поддержки портала."

// RenderUserMessage builds the notice shown to a blocked user. The section
// order is fixed and the output is byte-identical for identical input, so the
// text can be exported and compared in audits.
func RenderUserMessage(category BlockCategory, violatedRules []RuleCode, customReason string) string {
	var b strings.Builder

	b.WriteString("Ваш аккаунт заблокирован администрацией портала.\n")
	b.WriteString("Причина: ")
	b.WriteString(category.Label())
	b.WriteString(".\n")

	if category == BlockRulesViolation {
		b.WriteString("Нарушены правила сообщества:\n")
		for _, code := range violatedRules {
			rule, ok := RuleByCode(code)
			if !ok {
				continue
			}
			b.WriteString("— ")
			b.WriteString(rule.Label)
			b.WriteString(" «")
			b.WriteString(rule.Title)
			b.WriteString("»\n")
		}
	}

	if strings.TrimSpace(customReason) != "" {
		b.WriteString("Дополнительно: ")
		b.WriteString(customReason)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(blockNoticeClosing)

	return b.String()
}

// adminSummaryLimit is the maximum visible length of an admin-list summary.
const adminSummaryLimit = 50

// RenderAdminSummary builds the single-line summary shown in admin lists.
// For the other category the custom reason itself is shown, truncated with an
// ellipsis beyond 50 visible characters.
func RenderAdminSummary(category BlockCategory, violatedRules []RuleCode, customReason string) string {
	if category == BlockOther {
		reason := strings.TrimSpace(customReason)
		if utf8.RuneCountInString(reason) > adminSummaryLimit {
			runes := []rune(reason)
			return string(runes[:adminSummaryLimit-1]) + "…"
		}
		return reason
	}

	if category == BlockRulesViolation && len(violatedRules) > 0 {
		labels := make([]string, 0, len(violatedRules))
		for _, code := range violatedRules {
			if rule, ok := RuleByCode(code); ok {
				labels = append(labels, rule.Label)
			}
		}
		return fmt.Sprintf("%s (%s)", category.Label(), strings.Join(labels, ", "))
	}

	return category.Label()
}

// UserBlock is one block record. Immutable once created; an unblock closes it
// by filling the release fields instead of deleting the row, so the full
// block history survives for audit.
//
// The partial unique index enforces at most one active block per user at the
// database level.
type UserBlock struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        string         `json:"user_id" gorm:"size:255;not null;index;uniqueIndex:uniq_active_user_block,where:released_at IS NULL"`
	Category      BlockCategory  `json:"category" gorm:"size:32;not null"`
	ViolatedRules datatypes.JSON `json:"violated_rules,omitempty"`
	CustomReason  *string        `json:"reason,omitempty" gorm:"size:1000"`
	CreatedBy     string         `json:"created_by" gorm:"size:255;not null"`
	CreatedAt     time.Time      `json:"created_at"`

	ReleasedAt    *time.Time `json:"released_at,omitempty"`
	ReleasedBy    *string    `json:"released_by,omitempty" gorm:"size:255"`
	ReleaseReason *string    `json:"release_reason,omitempty" gorm:"size:1000"`
}

func (UserBlock) TableName() string {
	return "user_blocks"
}

// Active reports whether the block has not been released yet.
func (b *UserBlock) Active() bool {
	return b.ReleasedAt == nil
}

// Rules decodes the violated-rule codes stored on the record.
func (b *UserBlock) Rules() []RuleCode {
	if len(b.ViolatedRules) == 0 {
		return nil
	}
	var codes []RuleCode
	if err := json.Unmarshal(b.ViolatedRules, &codes); err != nil {
		return nil
	}
	return codes
}

// EncodeRules serializes rule codes for storage on a block record.
func EncodeRules(codes []RuleCode) (datatypes.JSON, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return nil, fmt.Errorf("encode rule codes: %w", err)
	}
	return data, nil
}

// Reason returns the custom reason or an empty string.
func (b *UserBlock) Reason() string {
	if b.CustomReason == nil {
		return ""
	}
	return *b.CustomReason
}

// UserMessage renders the deterministic notice for this record.
func (b *UserBlock) UserMessage() string {
	return RenderUserMessage(b.Category, b.Rules(), b.Reason())
}

// AdminSummary renders the single-line summary for this record.
func (b *UserBlock) AdminSummary() string {
	return RenderAdminSummary(b.Category, b.Rules(), b.Reason())
}
