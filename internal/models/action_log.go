package models

import (
	"fmt"
	"time"
)

// KeyPrefix is the shared prefix of every action-log record in the store.
const KeyPrefix = "action_log:"

// DateLayout renders the calendar-date field used for same-day grouping.
const DateLayout = "2006-01-02"

// LogEntry is one immutable recorded action by a teacher, optionally
// referencing the student, form, or response it affected.
type LogEntry struct {
	ID         string                 `json:"id"`
	ActorID    string                 `json:"actorId"`
	ActorName  string                 `json:"actorName"`
	Action     string                 `json:"action"`
	Details    string                 `json:"details"`
	TargetType string                 `json:"targetType"`
	TargetID   string                 `json:"targetId"`
	Metadata   map[string]interface{} `json:"metadata"`
	Timestamp  time.Time              `json:"timestamp"`
	Date       string                 `json:"date"`
}

// StoreKey derives the deterministic store key for an entry, so every entry
// for one actor shares a scannable prefix.
func StoreKey(actorID, entryID string) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefix, actorID, entryID)
}

// ActorKeyPrefix returns the scan prefix covering all entries of one actor.
func ActorKeyPrefix(actorID string) string {
	return fmt.Sprintf("%s%s:", KeyPrefix, actorID)
}

// Well-known action labels logged by the teacher-facing front end. The
// action field stays free-form; these are a vocabulary, not an enum.
const (
	ActionFormCreated       = "Form Created"
	ActionFormEdited        = "Form Edited"
	ActionFormPublished     = "Form Published"
	ActionFormClosed        = "Form Closed"
	ActionFormShared        = "Form Shared"
	ActionFormDuplicated    = "Form Duplicated"
	ActionResponsesViewed   = "Student Responses Viewed"
	ActionResponseViewed    = "Individual Response Viewed"
	ActionResponsesExported = "Responses Exported"
	ActionResponseFlagged   = "Response Flagged for Review"
	ActionAnalyticsViewed   = "Analytics Dashboard Viewed"
	ActionReportGenerated   = "Report Generated"
	ActionFeedbackReviewed  = "Student Feedback Reviewed"
	ActionAnnouncementSent  = "Announcement Posted"
	ActionReminderSent      = "Reminder Sent"
	ActionDeadlineExtended  = "Form Deadline Extended"
	ActionSettingsUpdated   = "Form Settings Updated"
	ActionDashboardAccessed = "Teacher Dashboard Accessed"
	ActionLogin             = "System Login"
	ActionLogout            = "System Logout"
)
