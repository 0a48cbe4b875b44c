package suggestion

import (
	"bytes"
	"context"
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
	"github.com/identilink/identilink/internal/provider"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Organization{},
		&models.Member{},
		&models.ExternalIdentity{},
		&models.LinkSuggestion{},
		&models.LinkAudit{},
		&models.IdentitySettings{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// setupSuggested builds an app with one pending suggestion and returns its
// public id.
func setupSuggested(t *testing.T) (*fiber.App, *gorm.DB, string) {
	t.Helper()

	db := setupTestDB(t)
	app := fiber.New()
	eng := engine.New(db)

	service := &Service{}
	service.Init(app, &config.Config{}, db, eng)

	org := models.Organization{Name: "acme", Active: true}
	require.NoError(t, db.Create(&org).Error)

	member := models.Member{OrganizationID: org.ID, DisplayName: "John Smith", Email: "john.smith@acme.com", Active: true}
	require.NoError(t, db.Create(&member).Error)

	res, err := eng.ResolveIdentity(context.Background(), &provider.Profile{
		Provider:       models.ProviderSlack,
		ProviderUserID: "U1",
		DisplayName:    "John Smyth",
	}, org.ID, "")
	require.NoError(t, err)
	require.Equal(t, engine.ActionSuggested, res.Action)
	require.Len(t, res.Suggestions, 1)

	return app, db, res.Suggestions[0].SuggestionID
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestListForOrg(t *testing.T) {
	app, _, suggestionID := setupSuggested(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/1/suggestions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Suggestions []suggestionResponse `json:"suggestions"`
		Total       int64                `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 1, body.Total)
	require.Len(t, body.Suggestions, 1)
	assert.Equal(t, suggestionID, body.Suggestions[0].ID)
	assert.Equal(t, "pending", body.Suggestions[0].Status)
}

func TestAcceptEndpoint(t *testing.T) {
	app, db, suggestionID := setupSuggested(t)

	resp := postJSON(t, app, "/api/v1/suggestions/"+suggestionID+"/accept", map[string]any{
		"reviewer": "reviewer-1",
	})
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var row models.ExternalIdentity
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, models.LinkStatusLinked, row.LinkStatus)

	// deciding again maps the terminal state to a conflict
	resp = postJSON(t, app, "/api/v1/suggestions/"+suggestionID+"/reject", map[string]any{
		"reviewer": "reviewer-2",
	})
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRejectEndpoint(t *testing.T) {
	app, db, suggestionID := setupSuggested(t)

	resp := postJSON(t, app, "/api/v1/suggestions/"+suggestionID+"/reject", map[string]any{
		"reviewer": "reviewer-1",
		"reason":   "different person",
	})
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var row models.LinkSuggestion
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, models.SuggestionRejected, row.Status)
}

func TestDecideUnknownSuggestion(t *testing.T) {
	app, _, _ := setupSuggested(t)

	resp := postJSON(t, app, "/api/v1/suggestions/no-such-id/accept", map[string]any{})
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
