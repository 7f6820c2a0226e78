package dto

import (
	"github.com/noah-isme/feedback-go-api/internal/models"
)

// ActionLogCreateRequest is the JSON payload for recording one action.
type ActionLogCreateRequest struct {
	ActorID    string                 `json:"actorId" validate:"required"`
	ActorName  string                 `json:"actorName" validate:"required"`
	Action     string                 `json:"action" validate:"required"`
	Details    string                 `json:"details"`
	TargetType string                 `json:"targetType"`
	TargetID   string                 `json:"targetId"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// ActionLogCreatedResponse acknowledges a recorded action.
type ActionLogCreatedResponse struct {
	Success  bool   `json:"success"`
	ActionID string `json:"actionId"`
}

// ActionListResponse wraps an ordered list of log entries.
type ActionListResponse struct {
	Actions []models.LogEntry `json:"actions"`
}

// ActionLogSummaryResponse aggregates an actor's log for dashboard widgets.
type ActionLogSummaryResponse struct {
	TotalActions  int               `json:"totalActions"`
	TodayActions  int               `json:"todayActions"`
	WeekActions   int               `json:"weekActions"`
	RecentActions []models.LogEntry `json:"recentActions"`
}
