package models

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	return db
}

func TestJSONMapGormDataType(t *testing.T) {
	assert.Equal(t, "json", JSONMap{}.GormDataType())
}

// The schema parser needs the declared column type to migrate models
// carrying a JSONMap field; without it every DB-backed operation fails
// on setup.
func TestJSONMapFieldsMigrate(t *testing.T) {
	db := setupTestDB(t)

	err := db.AutoMigrate(
		&Organization{},
		&Member{},
		&ExternalIdentity{},
		&LinkSuggestion{},
		&LinkAudit{},
	)
	require.NoError(t, err, "models with JSONMap columns must migrate")
}

func TestJSONMapRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.AutoMigrate(&Organization{}, &Member{}, &ExternalIdentity{}))

	org := Organization{Name: "acme", Active: true}
	require.NoError(t, db.Create(&org).Error)

	row := ExternalIdentity{
		OrganizationID: org.ID,
		Provider:       ProviderSlack,
		ProviderUserID: "U1",
		Metadata:       JSONMap{"team": "T1", "tz": "Europe/Berlin"},
		LinkStatus:     LinkStatusUnlinked,
		LastSyncAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(&row).Error)

	var stored ExternalIdentity
	require.NoError(t, db.First(&stored, row.ID).Error)
	assert.Equal(t, JSONMap{"team": "T1", "tz": "Europe/Berlin"}, stored.Metadata)

	t.Run("nil map stays nil", func(t *testing.T) {
		bare := ExternalIdentity{
			OrganizationID: org.ID,
			Provider:       ProviderSlack,
			ProviderUserID: "U2",
			LinkStatus:     LinkStatusUnlinked,
			LastSyncAt:     time.Now().UTC(),
		}
		require.NoError(t, db.Create(&bare).Error)

		var back ExternalIdentity
		require.NoError(t, db.First(&back, bare.ID).Error)
		assert.Nil(t, back.Metadata)
	})
}
