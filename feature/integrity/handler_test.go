package integrity

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"records-manager/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	db, docs := setupDB(t)
	addAdvisor(t, docs, "A01", "Dr. Somsak Rakdee")
	addAdvisor(t, docs, "A01", "Somsak R.")

	app := fiber.New()
	require.NoError(t, NewFeature(nil, "", zap.NewNop(), db, docs, 0).Load(app))
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHandler_Schema(t *testing.T) {
	app := setupApp(t)
	status, body := get(t, app, "/integrity/schema")
	require.Equal(t, fiber.StatusOK, status)
	var report checks.SchemaReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.True(t, report.Matched)
}

func TestHandler_Duplicates(t *testing.T) {
	app := setupApp(t)

	status, body := get(t, app, "/integrity/duplicates/advisors")
	require.Equal(t, fiber.StatusOK, status)
	var report checks.DuplicateReport
	require.NoError(t, json.Unmarshal(body, &report))
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "advisor_id", report.Groups[0].Key)

	status, _ = get(t, app, "/integrity/duplicates/courses")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = get(t, app, "/integrity/duplicates?refresh=true")
	require.Equal(t, fiber.StatusOK, status)
	var all []checks.DuplicateReport
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, 5)
}

func TestHandler_Structure(t *testing.T) {
	app := setupApp(t)
	status, body := get(t, app, "/integrity/structure")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "not configured")
}

func TestHandler_All(t *testing.T) {
	app := setupApp(t)
	status, body := get(t, app, "/integrity")
	require.Equal(t, fiber.StatusOK, status)

	var report map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Contains(t, string(report["structure"]), "not configured")
	assert.Contains(t, string(report["schema"]), `"matched":true`)
	assert.Contains(t, string(report["duplicates"]), `"advisor_id"`)
}
