package settings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/config"
	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/engine"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Organization{}, &models.IdentitySettings{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db := setupTestDB(t)
	app := fiber.New()

	service := &Service{}
	service.Init(app, &config.Config{}, db, engine.New(db))

	return app
}

func putJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestGetReturnsDefaults(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/1/settings", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body settingsPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.EmailAutoLink)
	assert.InDelta(t, models.DefaultAutoLinkThreshold, body.AutoLinkThreshold, 0.001)
	assert.InDelta(t, models.DefaultSuggestionThreshold, body.SuggestionThreshold, 0.001)
	assert.Equal(t, models.DefaultSuggestionTTLDays, body.SuggestionTTLDays)
}

func TestPutRoundTrip(t *testing.T) {
	app := setupApp(t)

	resp := putJSON(t, app, "/api/v1/orgs/1/settings", settingsPayload{
		EmailAutoLink:       false,
		AutoLinkThreshold:   0.90,
		SuggestionThreshold: 0.80,
		SuggestionTTLDays:   14,
	})
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/1/settings", nil)
	getResp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = getResp.Body.Close()
	}()

	var body settingsPayload
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&body))
	assert.False(t, body.EmailAutoLink)
	assert.InDelta(t, 0.90, body.AutoLinkThreshold, 0.001)
	assert.Equal(t, 14, body.SuggestionTTLDays)
}

func TestPutRejectsInvertedThresholds(t *testing.T) {
	app := setupApp(t)

	resp := putJSON(t, app, "/api/v1/orgs/1/settings", settingsPayload{
		EmailAutoLink:       true,
		AutoLinkThreshold:   0.80,
		SuggestionThreshold: 0.90,
		SuggestionTTLDays:   30,
	})
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPutRejectsOutOfRangeThreshold(t *testing.T) {
	app := setupApp(t)

	resp := putJSON(t, app, "/api/v1/orgs/1/settings", settingsPayload{
		EmailAutoLink:       true,
		AutoLinkThreshold:   1.5,
		SuggestionThreshold: 0.85,
		SuggestionTTLDays:   30,
	})
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
