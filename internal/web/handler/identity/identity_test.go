package identity

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
	"github.com/identilink/identilink/internal/provider"
	"github.com/identilink/identilink/internal/provider/slack"
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

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	provider.RegisterDefaults(slack.New())

	db := setupTestDB(t)
	app := fiber.New()
	eng := engine.New(db)

	service := &Service{}
	service.Init(app, &config.Config{}, db, eng)

	return app, db
}

func seedOrgWithMember(t *testing.T, db *gorm.DB, name, email string) (models.Organization, models.Member) {
	t.Helper()

	org := models.Organization{Name: "acme", Active: true}
	require.NoError(t, db.Create(&org).Error)

	member := models.Member{OrganizationID: org.ID, DisplayName: name, Email: email, Active: true}
	require.NoError(t, db.Create(&member).Error)

	return org, member
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

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestResolveEndpoint(t *testing.T) {
	app, db := setupApp(t)
	_, member := seedOrgWithMember(t, db, "John Smith", "john.smith@acme.com")

	resp := postJSON(t, app, "/api/v1/orgs/1/identities/resolve", map[string]any{
		"provider": "slack",
		"payload": map[string]any{
			"id": "U1",
			"profile": map[string]any{
				"email":     "john.smith@acme.com",
				"real_name": "John Smith",
			},
		},
	})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "auto_linked", body["action"])
	assert.Equal(t, "auto_email", body["method"])
	assert.InDelta(t, 0.98, body["confidence"], 0.001)
	assert.EqualValues(t, member.ID, body["linked_member_id"])
}

func TestResolveEndpointUnknownProvider(t *testing.T) {
	app, db := setupApp(t)
	seedOrgWithMember(t, db, "John Smith", "john.smith@acme.com")

	resp := postJSON(t, app, "/api/v1/orgs/1/identities/resolve", map[string]any{
		"provider": "carrierpigeon",
		"payload":  map[string]any{"id": "U1"},
	})
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestResolveEndpointMalformedPayload(t *testing.T) {
	app, db := setupApp(t)
	seedOrgWithMember(t, db, "John Smith", "john.smith@acme.com")

	// slack payload without the mandatory user id
	resp := postJSON(t, app, "/api/v1/orgs/1/identities/resolve", map[string]any{
		"provider": "slack",
		"payload":  map[string]any{"profile": map[string]any{"real_name": "John Smith"}},
	})
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLinkEndpoint(t *testing.T) {
	app, db := setupApp(t)
	_, member := seedOrgWithMember(t, db, "John Smith", "john.smith@acme.com")

	// sight an identity that matches nothing so it starts unlinked
	resp := postJSON(t, app, "/api/v1/orgs/1/identities/resolve", map[string]any{
		"provider": "slack",
		"payload":  map[string]any{"id": "U9", "profile": map[string]any{"real_name": "Zed Zebra"}},
	})
	body := decodeBody(t, resp)
	require.Equal(t, "no_match", body["action"])

	identityPath := "/api/v1/identities/1"

	resp = postJSON(t, app, identityPath+"/link", map[string]any{
		"member_id": member.ID,
		"actor":     "admin-1",
	})
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// linking twice maps the invalid state to a conflict
	resp = postJSON(t, app, identityPath+"/link", map[string]any{
		"member_id": member.ID,
		"actor":     "admin-1",
	})
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// a relink without a reason is a validation error
	resp = postJSON(t, app, identityPath+"/relink", map[string]any{
		"member_id": member.ID,
		"actor":     "admin-1",
	})
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// audit trail lists the single link entry
	req := httptest.NewRequest(http.MethodGet, identityPath+"/audit", nil)
	auditResp, err := app.Test(req)
	require.NoError(t, err)
	auditBody := decodeBody(t, auditResp)
	entries, ok := auditBody["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestLinkEndpointUnknownIdentity(t *testing.T) {
	app, db := setupApp(t)
	_, member := seedOrgWithMember(t, db, "John Smith", "john.smith@acme.com")

	resp := postJSON(t, app, "/api/v1/identities/9999/link", map[string]any{
		"member_id": member.ID,
	})
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListEndpointRejectsUnknownStatus(t *testing.T) {
	app, db := setupApp(t)
	seedOrgWithMember(t, db, "John Smith", "john.smith@acme.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/1/identities?status=frobnicated", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
