package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/db/controller/orgsettings"
	"github.com/identilink/identilink/internal/db/models"
)

// defaultSettingsTTL bounds how stale cached organization settings may be.
// Threshold changes are rare and non-critical to apply instantly.
const defaultSettingsTTL = 30 * time.Second

// settingsCache is a short-TTL read cache for per-organization identity
// settings. The sfcache tier also collapses concurrent loads of the same
// organization into one query.
type settingsCache struct {
	cache *sfcache.TieredCache[string, models.IdentitySettings]
	db    *gorm.DB
}

func newSettingsCache(db *gorm.DB, ttl time.Duration) *settingsCache {
	if ttl <= 0 {
		ttl = defaultSettingsTTL
	}

	tc, err := sfcache.NewTiered[string, models.IdentitySettings](
		null.New[string, models.IdentitySettings](),
		sfcache.TTL(ttl),
	)
	if err != nil {
		panic("sfcache.NewTiered with null store: " + err.Error())
	}

	return &settingsCache{cache: tc, db: db}
}

// get returns the organization's settings, loading through the cache.
func (c *settingsCache) get(ctx context.Context, orgID uint64) (models.IdentitySettings, error) {
	key := strconv.FormatUint(orgID, 10)

	return c.cache.GetSet(ctx, key, func(context.Context) (models.IdentitySettings, error) {
		return orgsettings.Get(c.db, orgID)
	})
}
