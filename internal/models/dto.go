package models

import "time"

// ===== VALIDATION RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

// ===== USER / BLOCK DTOs =====

// UserResponse is a user together with the resolved display rank.
type UserResponse struct {
	*User
	Rank    RankConfig `json:"rank"`
	Blocked bool       `json:"blocked"`
}

// BlockStatusResponse describes a user's current trust state.
type BlockStatusResponse struct {
	Blocked bool         `json:"blocked"`
	Block   *UserBlock   `json:"block,omitempty"`
	Message string       `json:"message,omitempty"`
	Summary string       `json:"summary,omitempty"`
	History []*UserBlock `json:"history,omitempty"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message"`
	Code      string      `json:"code,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
	Path      string      `json:"path,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
