package research

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"records-manager/core/server"
	"records-manager/core/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T, api *fakeScopus) (*fiber.App, *testEnv) {
	t.Helper()
	env := setupService(t, api)
	app := fiber.New()
	feature := NewFeature(env.svc, server.Config{DefaultActor: "system"})
	require.True(t, feature.IsEnabled())
	require.NoError(t, feature.Load(app))
	return app, env
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(server.ActorHeader, "alice")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestHandler_CRUD(t *testing.T) {
	app, _ := setupApp(t, newFakeScopus(0))

	resp, body := doJSON(t, app, "POST", "/research", `{"title": ""}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "title")

	resp, body = doJSON(t, app, "POST", "/research", `{"title": "Manual entry", "doi": "10.1/m"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created Record
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.CreatedBy)

	resp, body = doJSON(t, app, "PATCH", "/research/"+created.ID, `{"reward": "gold"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated Record
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "gold", updated.Reward)

	resp, _ = doJSON(t, app, "GET", "/research/missing", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/research/"+created.ID, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/research", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = doJSON(t, app, "GET", "/research?include_deleted=true", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var all []Record
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, 1)
}

func TestHandler_Search(t *testing.T) {
	app, env := setupApp(t, newFakeScopus(40))

	resp, body := doJSON(t, app, "GET", "/research/scopus/search?year=2024&offset=25", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res SearchResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 40, res.Total)
	assert.Len(t, res.Items, 15)
	assert.False(t, res.HasMore)
	assert.Equal(t, []int{25}, env.scopus.starts)
}

func TestHandler_SearchErrors(t *testing.T) {
	api := newFakeScopus(40)
	api.failAt = 1
	app, _ := setupApp(t, api)

	resp, _ := doJSON(t, app, "GET", "/research/scopus/search", "")
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestHandler_Import(t *testing.T) {
	app, env := setupApp(t, newFakeScopus(1))

	raw, err := json.Marshal(env.scopus.pubs[0])
	require.NoError(t, err)
	resp, _ := doJSON(t, app, "POST", "/research/scopus/import", string(raw))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, "GET", "/sync/history", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var history []session.Summary
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 1)
	assert.Equal(t, ScopeSingleImport, history[0].Scope)
	assert.Equal(t, "alice", history[0].User)
}

func TestHandler_SyncSession(t *testing.T) {
	app, env := setupApp(t, newFakeScopus(30))

	resp, body := doJSON(t, app, "POST", "/research/scopus/sync", `{"year": "2024", "expected_total": 30}`)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	var started session.Status
	require.NoError(t, json.Unmarshal(body, &started))
	require.NotEmpty(t, started.ID)
	env.svc.Wait()

	resp, body = doJSON(t, app, "GET", "/sync/sessions/"+started.ID, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var status session.Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, session.PhaseCompleted, status.Phase)
	assert.Equal(t, 100, status.Percent)

	resp, body = doJSON(t, app, "GET", "/sync/sessions/"+started.ID+"/events?after=2", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var events []session.Event
	require.NoError(t, json.Unmarshal(body, &events))
	require.NotEmpty(t, events)
	assert.Equal(t, 3, events[0].Seq)

	resp, _ = doJSON(t, app, "DELETE", "/sync/sessions/"+started.ID, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/sync/sessions/unknown", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/research/scopus/sync", `{"query": "x", "expected_total": "many"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusInternalServerError, statusFor(assert.AnError))
	assert.Equal(t, fiber.StatusNotFound, statusFor(ErrSessionNotFound))
}
