// Package identity provides the JSON API for identity resolution and the
// link/unlink/relink operations.
package identity

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/config"
	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/engine"
	"github.com/identilink/identilink/internal/provider"
	"github.com/identilink/identilink/internal/web/handler"
)

// Path is the base path for identity operations.
const Path = handler.APIPath + "/identities"

// OrgPath is the base path for organization-scoped identity queries.
const OrgPath = handler.APIPath + "/orgs/:org"

// Service provides the identity endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	engine    *engine.Service
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
	s.engine = eng
	s.validator = validator.New()

	app.Post(OrgPath+"/identities/resolve", s.Resolve)
	app.Get(OrgPath+"/identities", s.List)
	app.Get(OrgPath+"/members/:member/identities", s.ForMember)
	app.Post(Path+"/:id/link", s.Link)
	app.Post(Path+"/:id/unlink", s.Unlink)
	app.Post(Path+"/:id/relink", s.Relink)
	app.Get(Path+"/:id/audit", s.Audit)
}

type resolveRequest struct {
	Provider string         `json:"provider" validate:"required"`
	Payload  map[string]any `json:"payload"  validate:"required"`
	Actor    string         `json:"actor"`
}

type suggestedCandidateResponse struct {
	SuggestionID string  `json:"suggestion_id"`
	MemberID     uint64  `json:"member_id"`
	Confidence   float64 `json:"confidence"`
	Method       string  `json:"method"`
}

type resolutionResponse struct {
	Action             string                       `json:"action"`
	ExternalIdentityID uint64                       `json:"external_identity_id"`
	LinkedMemberID     *uint64                      `json:"linked_member_id,omitempty"`
	Method             *models.LinkMethod           `json:"method,omitempty"`
	Confidence         *float64                     `json:"confidence,omitempty"`
	Suggestions        []suggestedCandidateResponse `json:"suggestions,omitempty"`
}

// Resolve normalizes a raw provider payload and runs it through the
// resolution policy.
func (s *Service) Resolve(c *fiber.Ctx) error {
	orgID, ok := orgParam(c)
	if !ok {
		return nil
	}

	var in resolveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	normalizer, err := provider.Default().Get(models.Provider(in.Provider))
	if err != nil {
		return handler.Error(c, err)
	}

	profile, err := normalizer.Normalize(in.Payload)
	if err != nil {
		return handler.Error(c, err)
	}

	resolution, err := s.engine.ResolveIdentity(c.Context(), profile, orgID, in.Actor)
	if err != nil {
		log.Error().Err(err).Uint64("org", orgID).Str("provider", in.Provider).Msg("resolution failed")
		return handler.Error(c, err)
	}

	out := resolutionResponse{
		Action:             string(resolution.Action),
		ExternalIdentityID: resolution.ExternalIdentityID,
		LinkedMemberID:     resolution.LinkedMemberID,
		Method:             resolution.Method,
		Confidence:         resolution.Confidence,
	}
	for _, sg := range resolution.Suggestions {
		out.Suggestions = append(out.Suggestions, suggestedCandidateResponse{
			SuggestionID: sg.SuggestionID,
			MemberID:     sg.MemberID,
			Confidence:   sg.Confidence,
			Method:       string(sg.Method),
		})
	}

	return c.JSON(out)
}

// List returns one page of an organization's identities filtered by link
// status (unlinked by default).
func (s *Service) List(c *fiber.Ctx) error {
	orgID, ok := orgParam(c)
	if !ok {
		return nil
	}

	status := models.LinkStatus(c.Query("status", string(models.LinkStatusUnlinked)))
	switch status {
	case models.LinkStatusUnlinked, models.LinkStatusSuggested, models.LinkStatusLinked:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown link status"})
	}

	page, pageSize := handler.Page(c)

	var (
		rows  []models.ExternalIdentity
		total int64
		err   error
	)

	switch status {
	case models.LinkStatusUnlinked:
		rows, total, err = s.engine.UnlinkedIdentities(c.Context(), orgID, page, pageSize)
	case models.LinkStatusSuggested:
		rows, total, err = s.engine.SuggestedIdentities(c.Context(), orgID, page, pageSize)
	case models.LinkStatusLinked:
		rows, total, err = s.engine.LinkedIdentities(c.Context(), orgID, page, pageSize)
	}

	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"identities": identityResponses(rows),
		"total":      total,
		"page":       page,
		"pageSize":   pageSize,
	})
}

// ForMember lists the identities linked to one member.
func (s *Service) ForMember(c *fiber.Ctx) error {
	orgID, ok := orgParam(c)
	if !ok {
		return nil
	}

	memberID, ok := idParam(c, "member")
	if !ok {
		return nil
	}

	rows, err := s.engine.IdentitiesForMember(c.Context(), orgID, memberID)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"identities": identityResponses(rows)})
}

type linkRequest struct {
	MemberID uint64 `json:"member_id" validate:"required"`
	Method   string `json:"method"    validate:"omitempty,oneof=manual admin migration"`
	Actor    string `json:"actor"`
	Reason   string `json:"reason"`
}

// Link associates an identity with a member.
func (s *Service) Link(c *fiber.Ctx) error {
	identityID, ok := idParam(c, "id")
	if !ok {
		return nil
	}

	var in linkRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := s.engine.Link(c.Context(), identityID, in.MemberID, models.LinkMethod(in.Method), in.Actor, in.Reason)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "linked"})
}

type unlinkRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

// Unlink removes the member association of an identity.
func (s *Service) Unlink(c *fiber.Ctx) error {
	identityID, ok := idParam(c, "id")
	if !ok {
		return nil
	}

	var in unlinkRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.engine.Unlink(c.Context(), identityID, in.Actor, in.Reason); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "unlinked"})
}

type relinkRequest struct {
	MemberID uint64 `json:"member_id" validate:"required"`
	Actor    string `json:"actor"`
	Reason   string `json:"reason"`
}

// Relink moves an identity to a different member in one audited operation.
// The engine rejects a missing reason before any state change.
func (s *Service) Relink(c *fiber.Ctx) error {
	identityID, ok := idParam(c, "id")
	if !ok {
		return nil
	}

	var in relinkRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := s.engine.Relink(c.Context(), identityID, in.MemberID, in.Actor, in.Reason)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"status": "linked"})
}

type auditEntryResponse struct {
	ID           string             `json:"id"`
	Action       string             `json:"action"`
	PrevMemberID *uint64            `json:"prev_member_id,omitempty"`
	NewMemberID  *uint64            `json:"new_member_id,omitempty"`
	Method       *models.LinkMethod `json:"method,omitempty"`
	Confidence   *float64           `json:"confidence,omitempty"`
	Actor        string             `json:"actor"`
	Reason       string             `json:"reason,omitempty"`
	Metadata     models.JSONMap     `json:"metadata,omitempty"`
	CreatedAt    string             `json:"created_at"`
}

// Audit returns the audit trail of one identity, oldest first.
func (s *Service) Audit(c *fiber.Ctx) error {
	identityID, ok := idParam(c, "id")
	if !ok {
		return nil
	}

	rows, err := s.engine.AuditTrail(c.Context(), identityID)
	if err != nil {
		return handler.Error(c, err)
	}

	entries := make([]auditEntryResponse, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, auditEntryResponse{
			ID:           row.PublicID,
			Action:       string(row.Action),
			PrevMemberID: row.PrevMemberID,
			NewMemberID:  row.NewMemberID,
			Method:       row.Method,
			Confidence:   row.Confidence,
			Actor:        row.Actor,
			Reason:       row.Reason,
			Metadata:     row.Metadata,
			CreatedAt:    row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return c.JSON(fiber.Map{"entries": entries})
}

type identityResponse struct {
	ID             uint64             `json:"id"`
	Provider       string             `json:"provider"`
	ProviderUserID string             `json:"provider_user_id"`
	Email          string             `json:"email,omitempty"`
	DisplayName    string             `json:"display_name,omitempty"`
	RealName       string             `json:"real_name,omitempty"`
	LinkStatus     string             `json:"link_status"`
	MemberID       *uint64            `json:"member_id,omitempty"`
	LinkMethod     *models.LinkMethod `json:"link_method,omitempty"`
	LinkConfidence *float64           `json:"link_confidence,omitempty"`
}

func identityResponses(rows []models.ExternalIdentity) []identityResponse {
	out := make([]identityResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, identityResponse{
			ID:             row.ID,
			Provider:       string(row.Provider),
			ProviderUserID: row.ProviderUserID,
			Email:          row.Email,
			DisplayName:    row.DisplayName,
			RealName:       row.RealName,
			LinkStatus:     string(row.LinkStatus),
			MemberID:       row.MemberID,
			LinkMethod:     row.LinkMethod,
			LinkConfidence: row.LinkConfidence,
		})
	}

	return out
}

func orgParam(c *fiber.Ctx) (uint64, bool) {
	return idParam(c, "org")
}

// idParam parses a numeric path parameter. On failure the 400 response is
// already written and the handler must return nil.
func idParam(c *fiber.Ctx, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + name + " id"})
		return 0, false
	}

	return id, true
}
