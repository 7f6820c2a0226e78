package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedback-go-api/internal/dto"
	"github.com/noah-isme/feedback-go-api/internal/handler"
	"github.com/noah-isme/feedback-go-api/internal/models"
)

type stubActionLogService struct {
	actions []models.LogEntry
	summary dto.ActionLogSummaryResponse
}

func (s stubActionLogService) Record(context.Context, dto.ActionLogCreateRequest) (models.LogEntry, error) {
	return models.LogEntry{}, nil
}

func (s stubActionLogService) ActorLog(context.Context, string) ([]models.LogEntry, error) {
	return s.actions, nil
}

func (s stubActionLogService) ActorSummary(context.Context, string) (dto.ActionLogSummaryResponse, error) {
	return s.summary, nil
}

func (s stubActionLogService) SubjectActions(context.Context, string) ([]models.LogEntry, error) {
	return s.actions, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func sampleEntries() []models.LogEntry {
	now := time.Now().UTC()
	return []models.LogEntry{
		{
			ID:         "7f8d3a1c-0000-4000-8000-cafe00000001",
			ActorID:    "t1",
			ActorName:  "Dr. A",
			Action:     models.ActionResponsesExported,
			Details:    "exported responses for form X",
			TargetType: "form",
			TargetID:   "form-1",
			Metadata:   map[string]interface{}{"studentId": "stu42"},
			Timestamp:  now,
			Date:       now.Format(models.DateLayout),
		},
	}
}

func fetchJSON(t *testing.T, app *fiber.App, path string) interface{} {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestActorLogContract(t *testing.T) {
	schema := compileSchema(t, "action_list.schema.json")

	svc := stubActionLogService{actions: sampleEntries()}
	app := fiber.New()
	handler.NewActionLogHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1"))

	payload := fetchJSON(t, app, "/api/v1/action-log/t1")
	require.NoError(t, schema.Validate(payload))
}

func TestSubjectActionsContract(t *testing.T) {
	schema := compileSchema(t, "action_list.schema.json")

	svc := stubActionLogService{actions: sampleEntries()}
	app := fiber.New()
	handler.NewActionLogHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1"))

	payload := fetchJSON(t, app, "/api/v1/student-actions/stu42")
	require.NoError(t, schema.Validate(payload))
}

func TestActorSummaryContract(t *testing.T) {
	schema := compileSchema(t, "action_log_summary.schema.json")

	svc := stubActionLogService{summary: dto.ActionLogSummaryResponse{
		TotalActions:  9,
		TodayActions:  2,
		WeekActions:   4,
		RecentActions: sampleEntries(),
	}}
	app := fiber.New()
	handler.NewActionLogHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1"))

	payload := fetchJSON(t, app, "/api/v1/action-log-summary/t1")
	require.NoError(t, schema.Validate(payload))
}
