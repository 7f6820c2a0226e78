package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedback-go-api/internal/dto"
	"github.com/noah-isme/feedback-go-api/internal/models"
	"github.com/noah-isme/feedback-go-api/pkg/kv"
)

const recentActionsLimit = 5

// ValidationError marks a client-correctable input failure. It is checked
// before any store I/O, so a failing request never persists anything.
type ValidationError struct {
	message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.message
}

func validationErr(format string, args ...interface{}) error {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}

// ActionLogService validates, persists, and queries action-log entries.
type ActionLogService interface {
	Record(ctx context.Context, req dto.ActionLogCreateRequest) (models.LogEntry, error)
	ActorLog(ctx context.Context, actorID string) ([]models.LogEntry, error)
	ActorSummary(ctx context.Context, actorID string) (dto.ActionLogSummaryResponse, error)
	SubjectActions(ctx context.Context, subjectID string) ([]models.LogEntry, error)
}

type actionLogService struct {
	store     kv.Store
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewActionLogService constructs the action log service.
func NewActionLogService(store kv.Store, validator *validator.Validate, logger zerolog.Logger) ActionLogService {
	return &actionLogService{
		store:     store,
		validator: validator,
		logger:    logger.With().Str("component", "action_log_service").Logger(),
		now:       time.Now,
	}
}

func (s *actionLogService) Record(ctx context.Context, req dto.ActionLogCreateRequest) (models.LogEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.LogEntry{}, err
	}

	actorID := strings.TrimSpace(req.ActorID)
	actorName := strings.TrimSpace(req.ActorName)
	action := strings.TrimSpace(req.Action)
	if actorID == "" || actorName == "" || action == "" {
		return models.LogEntry{}, validationErr("missing required fields: actorId, actorName, action")
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	now := s.now()
	entry := models.LogEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		ActorName:  actorName,
		Action:     action,
		Details:    req.Details,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Metadata:   metadata,
		Timestamp:  now,
		Date:       now.Format(models.DateLayout),
	}

	key := models.StoreKey(entry.ActorID, entry.ID)
	if err := s.store.Set(ctx, key, entry); err != nil {
		s.logger.Error().Err(err).Str("actor_id", actorID).Msg("failed to persist action log entry")
		return models.LogEntry{}, err
	}

	s.logger.Info().
		Str("actor_id", actorID).
		Str("action", action).
		Str("entry_id", entry.ID).
		Msg("action logged")

	return entry, nil
}

func (s *actionLogService) ActorLog(ctx context.Context, actorID string) ([]models.LogEntry, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, validationErr("actor id is required")
	}

	raws, err := s.store.GetByPrefix(ctx, models.ActorKeyPrefix(actorID))
	if err != nil {
		s.logger.Error().Err(err).Str("actor_id", actorID).Msg("failed to scan action log")
		return nil, err
	}

	entries := s.decodeEntries(raws)
	sortByTimestampDesc(entries)
	return entries, nil
}

func (s *actionLogService) ActorSummary(ctx context.Context, actorID string) (dto.ActionLogSummaryResponse, error) {
	entries, err := s.ActorLog(ctx, actorID)
	if err != nil {
		return dto.ActionLogSummaryResponse{}, err
	}

	// Boundaries use the server clock at request time. Callers in other
	// timezones may see boundary entries shift by up to one day.
	now := s.now()
	today := now.Format(models.DateLayout)
	weekStart := now.Add(-7 * 24 * time.Hour)

	summary := dto.ActionLogSummaryResponse{
		TotalActions:  len(entries),
		RecentActions: []models.LogEntry{},
	}
	for _, entry := range entries {
		if entry.Date == today {
			summary.TodayActions++
		}
		if !entry.Timestamp.Before(weekStart) {
			summary.WeekActions++
		}
	}

	if len(entries) > recentActionsLimit {
		summary.RecentActions = entries[:recentActionsLimit]
	} else {
		summary.RecentActions = entries
	}

	return summary, nil
}

func (s *actionLogService) SubjectActions(ctx context.Context, subjectID string) ([]models.LogEntry, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, validationErr("subject id is required")
	}

	raws, err := s.store.GetByPrefix(ctx, models.KeyPrefix)
	if err != nil {
		s.logger.Error().Err(err).Str("subject_id", subjectID).Msg("failed to scan action log")
		return nil, err
	}

	matched := make([]models.LogEntry, 0)
	for _, entry := range s.decodeEntries(raws) {
		if relatesToSubject(entry, subjectID) {
			matched = append(matched, entry)
		}
	}

	sortByTimestampDesc(matched)
	return matched, nil
}

// relatesToSubject applies the heuristic correlation inherited from the
// hosted deployment: a direct target match, a case-insensitive mention in
// the free-form details, or an explicit studentId in the metadata. Substring
// matching admits false positives; there is no structured student reference
// to join on.
func relatesToSubject(entry models.LogEntry, subjectID string) bool {
	if entry.TargetID == subjectID {
		return true
	}
	if entry.Details != "" && strings.Contains(strings.ToLower(entry.Details), strings.ToLower(subjectID)) {
		return true
	}
	if value, ok := entry.Metadata["studentId"].(string); ok && value == subjectID {
		return true
	}
	return false
}

// decodeEntries unmarshals raw store values, skipping rows that no longer
// parse so one corrupt record cannot break every query.
func (s *actionLogService) decodeEntries(raws []json.RawMessage) []models.LogEntry {
	entries := make([]models.LogEntry, 0, len(raws))
	for _, raw := range raws {
		var entry models.LogEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed action log record")
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func sortByTimestampDesc(entries []models.LogEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
