// Package settings provides the JSON API for the per-organization
// resolution policy knobs.
package settings

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/config"
	"github.com/identilink/identilink/internal/db/controller/orgsettings"
	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/engine"
	"github.com/identilink/identilink/internal/web/handler"
)

// Path is the base path for organization settings.
const Path = handler.APIPath + "/orgs/:org/settings"

// Service provides the settings endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, eng *engine.Service) {
	if app == nil || cfg == nil || db == nil || eng == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	app.Get(Path, s.Get)
	app.Put(Path, s.Put)
}

type settingsPayload struct {
	EmailAutoLink       bool    `json:"email_auto_link"`
	AutoLinkThreshold   float64 `json:"auto_link_threshold"   validate:"gte=0,lte=1"`
	SuggestionThreshold float64 `json:"suggestion_threshold"  validate:"gte=0,lte=1"`
	SuggestionTTLDays   int     `json:"suggestion_ttl_days"   validate:"gte=1,lte=365"`
	AllowSelfLink       bool    `json:"allow_self_link"`
	AllowSelfUnlink     bool    `json:"allow_self_unlink"`
}

// Get returns the effective settings of an organization, defaults included.
func (s *Service) Get(c *fiber.Ctx) error {
	orgID, ok := orgParam(c)
	if !ok {
		return nil
	}

	settings, err := orgsettings.Get(s.db.WithContext(c.Context()), orgID)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(settingsPayload{
		EmailAutoLink:       settings.EmailAutoLink,
		AutoLinkThreshold:   settings.AutoLinkThreshold,
		SuggestionThreshold: settings.SuggestionThreshold,
		SuggestionTTLDays:   settings.SuggestionTTLDays,
		AllowSelfLink:       settings.AllowSelfLink,
		AllowSelfUnlink:     settings.AllowSelfUnlink,
	})
}

// Put stores the settings of an organization. The threshold ordering
// invariant is enforced at write time, never silently corrected.
func (s *Service) Put(c *fiber.Ctx) error {
	orgID, ok := orgParam(c)
	if !ok {
		return nil
	}

	var in settingsPayload
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	settings := models.IdentitySettings{
		OrganizationID:      orgID,
		EmailAutoLink:       in.EmailAutoLink,
		AutoLinkThreshold:   in.AutoLinkThreshold,
		SuggestionThreshold: in.SuggestionThreshold,
		SuggestionTTLDays:   in.SuggestionTTLDays,
		AllowSelfLink:       in.AllowSelfLink,
		AllowSelfUnlink:     in.AllowSelfUnlink,
	}

	if err := orgsettings.Put(s.db.WithContext(c.Context()), &settings); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "saved"})
}

func orgParam(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("org"), 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid org id"})
		return 0, false
	}

	return id, true
}
